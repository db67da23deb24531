package cart

import "context"

// Confirmer asks the user to approve a destructive change.
type Confirmer interface {
	Confirm(ctx context.Context, prompt string) bool
}

// ConfirmFunc adapts a function to Confirmer.
type ConfirmFunc func(ctx context.Context, prompt string) bool

func (f ConfirmFunc) Confirm(ctx context.Context, prompt string) bool {
	if f == nil {
		return false
	}
	return f(ctx, prompt)
}

// Confirmed approves every prompt; Declined rejects every prompt.
var (
	Confirmed Confirmer = ConfirmFunc(func(context.Context, string) bool { return true })
	Declined  Confirmer = ConfirmFunc(func(context.Context, string) bool { return false })
)
