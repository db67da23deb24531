package enums

import "fmt"

// MutationKind names a cart mutation that can be sent to the cart service or queued offline.
type MutationKind string

const (
	MutationUpdateQuantity MutationKind = "update_quantity"
	MutationRemove         MutationKind = "remove"
	MutationClear          MutationKind = "clear"
	MutationUpdateVariant  MutationKind = "update_variant"
)

var validMutationKinds = []MutationKind{
	MutationUpdateQuantity,
	MutationRemove,
	MutationClear,
	MutationUpdateVariant,
}

// String implements fmt.Stringer.
func (m MutationKind) String() string {
	return string(m)
}

// IsValid reports whether the value is a known MutationKind.
func (m MutationKind) IsValid() bool {
	for _, candidate := range validMutationKinds {
		if candidate == m {
			return true
		}
	}
	return false
}

// ParseMutationKind converts raw input into a MutationKind.
func ParseMutationKind(value string) (MutationKind, error) {
	for _, candidate := range validMutationKinds {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid mutation kind %q", value)
}

// MutationStatus tracks a queued mutation through replay.
type MutationStatus string

const (
	MutationStatusPending MutationStatus = "pending"
	MutationStatusApplied MutationStatus = "applied"
	MutationStatusFailed  MutationStatus = "failed"
)

// String implements fmt.Stringer.
func (m MutationStatus) String() string {
	return string(m)
}

// IsTerminal reports whether the row will never be replayed again.
func (m MutationStatus) IsTerminal() bool {
	return m == MutationStatusApplied || m == MutationStatusFailed
}
