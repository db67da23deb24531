package cart

import (
	"github.com/angelmondragon/solecart/internal/remote"
	"github.com/angelmondragon/solecart/pkg/enums"
)

const (
	msgRetry        = "We couldn't reach the store. Check your connection and try again."
	msgSignIn       = "Please sign in again to manage your cart."
	msgQueued       = "You're offline. Your change is saved and will sync when you're back online."
	msgLineGone     = "That item is no longer in your cart."
	msgStale        = "Your change was saved. Pull to refresh to see the latest cart."
	msgVariantSizes = "Choose both a size and a color."
)

// Outcome is what every handler reports. Handlers never return raw errors;
// Err carries the cause for logging only.
type Outcome struct {
	Kind     enums.OutcomeKind
	Message  string
	Degraded bool
	Cart     *Snapshot
	Product  *remote.Product
	Err      error
}

func ok(snap *Snapshot) Outcome {
	return Outcome{Kind: enums.OutcomeOK, Cart: snap}
}

func queued(snap *Snapshot) Outcome {
	return Outcome{Kind: enums.OutcomeQueued, Message: msgQueued, Degraded: true, Cart: snap}
}

func validation(msg string) Outcome {
	return Outcome{Kind: enums.OutcomeValidation, Message: msg}
}

func unauthorized(err error) Outcome {
	return Outcome{Kind: enums.OutcomeUnauthorized, Message: msgSignIn, Err: err}
}

func cancelled(msg string, err error) Outcome {
	return Outcome{Kind: enums.OutcomeCancelled, Message: msg, Err: err}
}

func failure(msg string, err error) Outcome {
	if msg == "" {
		msg = msgRetry
	}
	return Outcome{Kind: enums.OutcomeFailure, Message: msg, Err: err}
}
