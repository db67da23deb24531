package enums

import "fmt"

// OutcomeKind classifies the result a cart or order handler reports to its caller.
type OutcomeKind string

const (
	OutcomeOK           OutcomeKind = "ok"
	OutcomeQueued       OutcomeKind = "queued"
	OutcomeValidation   OutcomeKind = "validation"
	OutcomeUnauthorized OutcomeKind = "unauthorized"
	OutcomeFailure      OutcomeKind = "failure"
	OutcomePartial      OutcomeKind = "partial"
	OutcomeCancelled    OutcomeKind = "cancelled"
)

var validOutcomeKinds = []OutcomeKind{
	OutcomeOK,
	OutcomeQueued,
	OutcomeValidation,
	OutcomeUnauthorized,
	OutcomeFailure,
	OutcomePartial,
	OutcomeCancelled,
}

// String implements fmt.Stringer.
func (o OutcomeKind) String() string {
	return string(o)
}

// IsValid reports whether the value is a known OutcomeKind.
func (o OutcomeKind) IsValid() bool {
	for _, candidate := range validOutcomeKinds {
		if candidate == o {
			return true
		}
	}
	return false
}

// Succeeded reports whether the primary effect was accepted, including queued and partial results.
func (o OutcomeKind) Succeeded() bool {
	return o == OutcomeOK || o == OutcomeQueued || o == OutcomePartial
}

// ParseOutcomeKind converts raw input into an OutcomeKind.
func ParseOutcomeKind(value string) (OutcomeKind, error) {
	for _, candidate := range validOutcomeKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid outcome kind %q", value)
}
