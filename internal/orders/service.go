package orders

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/solecart/internal/remote"
	"github.com/angelmondragon/solecart/pkg/credentials"
	"github.com/angelmondragon/solecart/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/logger"
	"github.com/google/uuid"
)

const (
	msgPartialNotify = "Status updated, but the customer notification failed."
	msgRetry         = "We couldn't reach the store. Check your connection and try again."
	msgSignIn        = "Please sign in again to manage orders."
)

type orderAPI interface {
	GetOrder(ctx context.Context, token, orderID string) (remote.Order, error)
	UpdateStatus(ctx context.Context, token, orderID string, status enums.OrderStatus, idempotencyKey string) (remote.Order, error)
}

// OutcomeRecorder counts handler results.
type OutcomeRecorder interface {
	ObserveOutcome(operation, outcome string)
}

// Outcome reports an order operation.
type Outcome struct {
	Kind    enums.OutcomeKind
	Message string
	Order   *remote.Order
	Err     error
}

type ServiceParams struct {
	API         orderAPI
	Notifier    Notifier
	Credentials credentials.Store
	Logger      *logger.Logger
	Metrics     OutcomeRecorder
	Now         func() time.Time
}

// Service moves orders through their lifecycle.
type Service struct {
	api      orderAPI
	notifier Notifier
	creds    credentials.Store
	logg     *logger.Logger
	metrics  OutcomeRecorder
	now      func() time.Time
}

func NewService(params ServiceParams) (*Service, error) {
	if params.API == nil {
		return nil, errors.New("order api is required")
	}
	if params.Credentials == nil {
		return nil, errors.New("credential store is required")
	}
	if params.Logger == nil {
		return nil, errors.New("logger is required")
	}
	now := params.Now
	if now == nil {
		now = time.Now
	}
	return &Service{
		api:      params.API,
		notifier: params.Notifier,
		creds:    params.Credentials,
		logg:     params.Logger,
		metrics:  params.Metrics,
		now:      now,
	}, nil
}

// UpdateStatus validates the transition locally, applies it remotely and then
// notifies the customer. A failed notification yields a partial outcome since
// the status change itself went through.
func (s *Service) UpdateStatus(ctx context.Context, orderID string, to enums.OrderStatus) Outcome {
	ctx = s.logg.WithFields(ctx, map[string]any{"order_id": orderID, "to_status": to.String()})
	out := s.updateStatus(ctx, orderID, to)
	if s.metrics != nil {
		s.metrics.ObserveOutcome("update_order_status", out.Kind.String())
	}
	return out
}

func (s *Service) updateStatus(ctx context.Context, orderID string, to enums.OrderStatus) Outcome {
	cred, err := credentials.Check(ctx, s.creds, s.now())
	if err != nil {
		return Outcome{Kind: enums.OutcomeUnauthorized, Message: msgSignIn, Err: err}
	}
	if !to.IsValid() {
		return Outcome{Kind: enums.OutcomeValidation, Message: fmt.Sprintf("unknown order status %q", to)}
	}

	current, err := s.api.GetOrder(ctx, cred.Token, orderID)
	if err != nil {
		return s.fromError(ctx, err)
	}
	if !CanTransition(current.Status, to) {
		return Outcome{
			Kind:    enums.OutcomeValidation,
			Message: fmt.Sprintf("An order that is %s cannot be marked %s.", current.Status, to),
		}
	}

	updated, err := s.api.UpdateStatus(ctx, cred.Token, orderID, to, uuid.NewString())
	if err != nil {
		return s.fromError(ctx, err)
	}
	s.logg.Info(ctx, "order status updated")

	if s.notifier == nil {
		return Outcome{Kind: enums.OutcomeOK, Order: &updated}
	}
	change := StatusChange{
		EventID:    uuid.NewString(),
		OrderID:    updated.ID,
		UserID:     updated.UserID(),
		From:       current.Status,
		To:         to,
		OccurredAt: s.now().UTC(),
	}
	if err := s.notifier.NotifyStatusChange(ctx, change); err != nil {
		s.logg.Error(ctx, "order status notification failed", err)
		return Outcome{Kind: enums.OutcomePartial, Message: msgPartialNotify, Order: &updated, Err: err}
	}
	return Outcome{Kind: enums.OutcomeOK, Order: &updated}
}

func (s *Service) fromError(ctx context.Context, err error) Outcome {
	switch pkgerrors.CodeOf(err) {
	case pkgerrors.CodeUnauthorized:
		return Outcome{Kind: enums.OutcomeUnauthorized, Message: msgSignIn, Err: err}
	case pkgerrors.CodeValidation:
		return Outcome{Kind: enums.OutcomeValidation, Message: pkgerrors.As(err).Message(), Err: err}
	case pkgerrors.CodeSuperseded:
		return Outcome{Kind: enums.OutcomeCancelled, Message: "Request cancelled.", Err: err}
	case pkgerrors.CodeNotFound:
		return Outcome{Kind: enums.OutcomeFailure, Message: "Order not found.", Err: err}
	case pkgerrors.CodeRemoteRejected:
		return Outcome{Kind: enums.OutcomeFailure, Message: pkgerrors.As(err).Message(), Err: err}
	}
	s.logg.Error(ctx, "order status update failed", err)
	return Outcome{Kind: enums.OutcomeFailure, Message: msgRetry, Err: err}
}
