package cart

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/angelmondragon/solecart/internal/remote"
	"github.com/angelmondragon/solecart/pkg/credentials"
	"github.com/angelmondragon/solecart/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/logger"
	"github.com/google/uuid"
)

// Session is the scoped state a handler call works against.
type Session interface {
	Store() *Store
	SetDegraded(bool)
	Degraded() bool
	OpenEditing(lineKey string)
	CloseEditing()
	ClearSelection()
	PruneSelection(existing []string)
}

// OutcomeRecorder counts handler results.
type OutcomeRecorder interface {
	ObserveOutcome(operation, outcome string)
}

// HandlerParams wires the handler collaborators.
type HandlerParams struct {
	Carts       CartService
	Products    ProductService
	Credentials credentials.Store
	Logger      *logger.Logger
	Metrics     OutcomeRecorder
	Now         func() time.Time
	NewID       func() string
}

// Handlers implements the cart mutations and their reconciliation.
type Handlers struct {
	carts    CartService
	products ProductService
	creds    credentials.Store
	logg     *logger.Logger
	metrics  OutcomeRecorder
	now      func() time.Time
	newID    func() string
}

func NewHandlers(params HandlerParams) (*Handlers, error) {
	if params.Carts == nil {
		return nil, fmt.Errorf("cart service required")
	}
	if params.Products == nil {
		return nil, fmt.Errorf("product service required")
	}
	if params.Credentials == nil {
		return nil, fmt.Errorf("credential store required")
	}
	if params.Logger == nil {
		return nil, fmt.Errorf("logger required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	newID := params.NewID
	if newID == nil {
		newID = uuid.NewString
	}
	return &Handlers{
		carts:    params.Carts,
		products: params.Products,
		creds:    params.Credentials,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
		newID:    newID,
	}, nil
}

// IncreaseQuantity adds one unit to the line.
func (h *Handlers) IncreaseQuantity(ctx context.Context, sess Session, lineKey string) Outcome {
	return h.finish(ctx, "increase_quantity", func() Outcome {
		cred, line, productID, out, done := h.prepareLine(ctx, sess, lineKey)
		if done {
			return out
		}
		return h.mutate(ctx, sess, cred, remote.Mutation{
			ID:        h.newID(),
			Kind:      enums.MutationUpdateQuantity,
			LineID:    lineKey,
			ProductID: productID,
			Quantity:  line.Quantity + 1,
		}, lineKey)
	})
}

// DecreaseQuantity removes one unit, or removes the line when it would reach zero.
func (h *Handlers) DecreaseQuantity(ctx context.Context, sess Session, lineKey string) Outcome {
	return h.finish(ctx, "decrease_quantity", func() Outcome {
		cred, line, productID, out, done := h.prepareLine(ctx, sess, lineKey)
		if done {
			return out
		}
		m := remote.Mutation{
			ID:        h.newID(),
			LineID:    lineKey,
			ProductID: productID,
		}
		if next := line.Quantity - 1; next <= 0 {
			m.Kind = enums.MutationRemove
		} else {
			m.Kind = enums.MutationUpdateQuantity
			m.Quantity = next
		}
		return h.mutate(ctx, sess, cred, m, lineKey)
	})
}

// RemoveItem deletes the line after the user confirms.
func (h *Handlers) RemoveItem(ctx context.Context, sess Session, lineKey string, confirm Confirmer) Outcome {
	return h.finish(ctx, "remove_item", func() Outcome {
		cred, line, productID, out, done := h.prepareLine(ctx, sess, lineKey)
		if done {
			return out
		}
		if confirm == nil || !confirm.Confirm(ctx, fmt.Sprintf("Remove %s from your cart?", displayName(line))) {
			return cancelled("Item kept in your cart.", nil)
		}
		return h.mutate(ctx, sess, cred, remote.Mutation{
			ID:        h.newID(),
			Kind:      enums.MutationRemove,
			LineID:    lineKey,
			ProductID: productID,
		}, lineKey)
	})
}

// ClearCart empties the cart after the user confirms.
func (h *Handlers) ClearCart(ctx context.Context, sess Session, confirm Confirmer) Outcome {
	return h.finish(ctx, "clear_cart", func() Outcome {
		cred, err := credentials.Check(ctx, h.creds, h.now())
		if err != nil {
			return unauthorized(err)
		}
		if confirm == nil || !confirm.Confirm(ctx, "Remove every item from your cart?") {
			return cancelled("Your cart was not cleared.", nil)
		}
		return h.mutate(ctx, sess, cred, remote.Mutation{
			ID:   h.newID(),
			Kind: enums.MutationClear,
		}, WholeCart)
	})
}

// UpdateVariant changes size and color. Both are required before any network call.
func (h *Handlers) UpdateVariant(ctx context.Context, sess Session, lineKey, size, color string) Outcome {
	return h.finish(ctx, "update_variant", func() Outcome {
		size, color = strings.TrimSpace(size), strings.TrimSpace(color)
		if size == "" || color == "" {
			return validation(msgVariantSizes)
		}
		cred, _, productID, out, done := h.prepareLine(ctx, sess, lineKey)
		if done {
			return out
		}
		result := h.mutate(ctx, sess, cred, remote.Mutation{
			ID:        h.newID(),
			Kind:      enums.MutationUpdateVariant,
			LineID:    lineKey,
			ProductID: productID,
			Size:      size,
			Color:     color,
		}, lineKey)
		if result.Kind.Succeeded() {
			sess.CloseEditing()
		}
		return result
	})
}

// FetchProductDetailsForLine loads the live variant catalog for a line. It
// never reads prices from, or writes to, the cart store.
func (h *Handlers) FetchProductDetailsForLine(ctx context.Context, sess Session, lineKey string) Outcome {
	return h.finish(ctx, "fetch_product_details", func() Outcome {
		cred, _, productID, out, done := h.prepareLine(ctx, sess, lineKey)
		if done {
			return out
		}
		product, err := h.products.GetProduct(ctx, cred.Token, productID)
		if err != nil {
			return h.fromError(err)
		}
		sess.OpenEditing(lineKey)
		return Outcome{Kind: enums.OutcomeOK, Product: &product}
	})
}

// Refresh pulls the authoritative cart and clears the checkout selection.
func (h *Handlers) Refresh(ctx context.Context, sess Session) Outcome {
	return h.finish(ctx, "refresh", func() Outcome {
		cred, err := credentials.Check(ctx, h.creds, h.now())
		if err != nil {
			return unauthorized(err)
		}
		snap, offline, err := h.refetch(ctx, sess, cred, WholeCart)
		if err != nil {
			if errors.Is(err, ErrSuperseded) {
				current := sess.Store().Snapshot()
				return Outcome{Kind: enums.OutcomeOK, Cart: &current, Degraded: sess.Degraded()}
			}
			return h.fromError(err)
		}
		sess.ClearSelection()
		sess.SetDegraded(offline)
		return Outcome{Kind: enums.OutcomeOK, Cart: &snap, Degraded: offline}
	})
}

// prepareLine runs the shared preconditions: a live credential and a known line.
func (h *Handlers) prepareLine(ctx context.Context, sess Session, lineKey string) (credentials.Credential, Line, string, Outcome, bool) {
	cred, err := credentials.Check(ctx, h.creds, h.now())
	if err != nil {
		return credentials.Credential{}, Line{}, "", unauthorized(err), true
	}
	line, found := sess.Store().Line(lineKey)
	if !found {
		return credentials.Credential{}, Line{}, "", validation(msgLineGone), true
	}
	productID := ResolveProductID(line)
	if productID == "" {
		return credentials.Credential{}, Line{}, "", validation("This item can't be changed right now."), true
	}
	return cred, line, productID, Outcome{}, false
}

// mutate sends m, then unconditionally re-fetches the whole cart. On failure
// the store is left untouched.
func (h *Handlers) mutate(ctx context.Context, sess Session, cred credentials.Credential, m remote.Mutation, refetchKey string) Outcome {
	ctx = h.logg.WithMutationID(ctx, m.ID)
	if m.LineID != "" {
		ctx = h.logg.WithLineID(ctx, m.LineID)
	}
	ack, err := h.carts.Mutate(ctx, cred, m)
	if err != nil {
		return h.fromError(err)
	}
	sess.SetDegraded(ack.Offline)

	snap, offline, err := h.refetch(ctx, sess, cred, refetchKey)
	var result Outcome
	switch {
	case err == nil:
		result = ok(&snap)
	case errors.Is(err, ErrSuperseded):
		h.logg.Info(ctx, "re-fetch superseded by a newer change")
		current := sess.Store().Snapshot()
		result = Outcome{Kind: enums.OutcomeOK, Cart: &current}
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		h.logg.Info(h.logg.WithField(ctx, "reason", err.Error()), "re-fetch abandoned, request ended")
		current := sess.Store().Snapshot()
		result = Outcome{Kind: enums.OutcomeOK, Cart: &current, Message: msgStale}
	default:
		h.logg.Warn(h.logg.WithField(ctx, "error", err.Error()), "re-fetch after mutation failed")
		current := sess.Store().Snapshot()
		result = Outcome{Kind: enums.OutcomeOK, Cart: &current, Message: msgStale}
	}

	if ack.Offline || offline {
		sess.SetDegraded(true)
		return queued(result.Cart)
	}
	return result
}

// refetch pulls the cart on behalf of key and commits it unless superseded.
func (h *Handlers) refetch(ctx context.Context, sess Session, cred credentials.Credential, key string) (Snapshot, bool, error) {
	rf := sess.Store().BeginRefetch(ctx, key)
	defer rf.Done()

	res, err := h.carts.FetchCart(rf.Context(), cred)
	if err != nil {
		if rf.Superseded() {
			return Snapshot{}, false, ErrSuperseded
		}
		if ctxErr := ctx.Err(); ctxErr != nil {
			return Snapshot{}, false, ctxErr
		}
		return Snapshot{}, false, err
	}
	snap, err := rf.Commit(res.Lines)
	if err != nil {
		return Snapshot{}, false, err
	}
	sess.PruneSelection(snap.Keys())
	return snap, res.Offline, nil
}

// fromError maps a collaborator failure onto a user-facing outcome.
func (h *Handlers) fromError(err error) Outcome {
	switch {
	case errors.Is(err, context.Canceled):
		return cancelled("Request cancelled.", err)
	case errors.Is(err, credentials.ErrMissing), errors.Is(err, credentials.ErrExpired):
		return unauthorized(err)
	}
	typed := pkgerrors.As(err)
	if typed == nil {
		return failure("", err)
	}
	switch typed.Code() {
	case pkgerrors.CodeUnauthorized:
		return unauthorized(err)
	case pkgerrors.CodeValidation:
		return Outcome{Kind: enums.OutcomeValidation, Message: typed.Message(), Err: err}
	case pkgerrors.CodeSuperseded:
		return cancelled("Request cancelled.", err)
	case pkgerrors.CodeRemoteRejected, pkgerrors.CodeNotFound:
		return failure(typed.Message(), err)
	default:
		return failure("", err)
	}
}

// finish logs and counts the outcome of one handler call.
func (h *Handlers) finish(ctx context.Context, operation string, run func() Outcome) Outcome {
	ctx = h.logg.WithField(ctx, "operation", operation)
	out := run()
	switch out.Kind {
	case enums.OutcomeFailure:
		h.logg.Error(ctx, "cart operation failed", out.Err)
	case enums.OutcomeUnauthorized, enums.OutcomeValidation, enums.OutcomeCancelled:
		h.logg.Info(h.logg.WithField(ctx, "outcome", out.Kind.String()), out.Message)
	case enums.OutcomeQueued:
		h.logg.Warn(ctx, "cart change queued while offline")
	}
	if h.metrics != nil {
		h.metrics.ObserveOutcome(operation, out.Kind.String())
	}
	return out
}

func displayName(l Line) string {
	if name := ResolveName(l); name != "" {
		return name
	}
	return "this item"
}
