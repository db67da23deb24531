package checkout

import (
	"context"
	"fmt"
	"time"

	"github.com/angelmondragon/solecart/internal/cart"
	"github.com/angelmondragon/solecart/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/logger"
)

// Session is the scoped state checkout works against.
type Session interface {
	Store() *cart.Store
	Selection() *SelectionSet
	Staged() *Snapshot
	SetStaged(*Snapshot)
}

// Outcome reports a checkout operation to the caller.
type Outcome struct {
	Kind      enums.OutcomeKind
	Message   string
	Checkout  *Snapshot
	Selection []string
	Err       error
}

// Service owns selection and staging for a session.
type Service struct {
	logg         *logger.Logger
	fallbackName string
	now          func() time.Time
}

func NewService(logg *logger.Logger, fallbackName string) (*Service, error) {
	if logg == nil {
		return nil, fmt.Errorf("logger required")
	}
	return &Service{logg: logg, fallbackName: fallbackName, now: time.Now}, nil
}

// Select marks or unmarks a line that exists in the cart store.
func (s *Service) Select(ctx context.Context, sess Session, lineKey string, selected bool) Outcome {
	if _, found := sess.Store().Line(lineKey); !found && selected {
		return Outcome{Kind: enums.OutcomeValidation, Message: "That item is no longer in your cart."}
	}
	sess.Selection().Set(lineKey, selected)
	return Outcome{Kind: enums.OutcomeOK, Selection: sess.Selection().Selected()}
}

// ClearSelection unchecks every line.
func (s *Service) ClearSelection(ctx context.Context, sess Session) Outcome {
	sess.Selection().Clear()
	return Outcome{Kind: enums.OutcomeOK, Selection: []string{}}
}

// Stage snapshots the selected lines and keeps the snapshot on the session.
func (s *Service) Stage(ctx context.Context, sess Session) Outcome {
	snap, err := Stage(sess.Store().Lines(), sess.Selection().Snapshot(), Options{
		FallbackName: s.fallbackName,
		Now:          s.now,
	})
	if err != nil {
		typed := pkgerrors.As(err)
		if typed != nil && typed.Code() == pkgerrors.CodeValidation {
			return Outcome{Kind: enums.OutcomeValidation, Message: typed.Message(), Err: err}
		}
		s.logg.Error(ctx, "checkout staging failed", err)
		return Outcome{Kind: enums.OutcomeFailure, Message: "Checkout is unavailable right now.", Err: err}
	}
	sess.SetStaged(&snap)
	ctx = s.logg.WithFields(ctx, map[string]any{
		"lines":    len(snap.Lines),
		"subtotal": snap.Subtotal.String(),
	})
	s.logg.Info(ctx, "checkout staged")
	return Outcome{Kind: enums.OutcomeOK, Checkout: &snap}
}

// Discard drops the staged snapshot, as when checkout is abandoned or an
// order has been placed.
func (s *Service) Discard(ctx context.Context, sess Session) Outcome {
	sess.SetStaged(nil)
	return Outcome{Kind: enums.OutcomeOK}
}
