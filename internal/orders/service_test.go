package orders

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/angelmondragon/solecart/internal/remote"
	"github.com/angelmondragon/solecart/pkg/credentials"
	"github.com/angelmondragon/solecart/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/logger"
	"github.com/stretchr/testify/require"
)

type stubOrderAPI struct {
	order     remote.Order
	getErr    error
	updateErr error
	updates   []enums.OrderStatus
	idemKeys  []string
}

func (s *stubOrderAPI) GetOrder(ctx context.Context, token, id string) (remote.Order, error) {
	if s.getErr != nil {
		return remote.Order{}, s.getErr
	}
	return s.order, nil
}

func (s *stubOrderAPI) UpdateStatus(ctx context.Context, token, id string, status enums.OrderStatus, key string) (remote.Order, error) {
	if s.updateErr != nil {
		return remote.Order{}, s.updateErr
	}
	s.updates = append(s.updates, status)
	s.idemKeys = append(s.idemKeys, key)
	updated := s.order
	updated.Status = status
	return updated, nil
}

type stubNotifier struct {
	err     error
	changes []StatusChange
}

func (n *stubNotifier) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	n.changes = append(n.changes, change)
	return n.err
}

type stubPublisher struct {
	topic string
	data  []byte
	attrs map[string]string
	err   error
}

func (p *stubPublisher) Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error) {
	p.topic, p.data, p.attrs = topic, data, attrs
	return "msg-1", p.err
}

var fixedNow = time.Date(2026, 10, 2, 15, 0, 0, 0, time.UTC)

func newOrderService(t *testing.T, api *stubOrderAPI, notifier Notifier) *Service {
	t.Helper()
	svc, err := NewService(ServiceParams{
		API:         api,
		Notifier:    notifier,
		Credentials: credentials.NewStatic(credentials.Credential{Token: "tok", Subject: "admin"}),
		Logger:      logger.Nop(),
		Now:         func() time.Time { return fixedNow },
	})
	require.NoError(t, err)
	return svc
}

func TestCanTransition(t *testing.T) {
	t.Parallel()

	cases := []struct {
		from, to enums.OrderStatus
		want     bool
	}{
		{enums.OrderStatusPending, enums.OrderStatusProcessing, true},
		{enums.OrderStatusProcessing, enums.OrderStatusShipped, true},
		{enums.OrderStatusShipped, enums.OrderStatusDelivered, true},
		{enums.OrderStatusPending, enums.OrderStatusCancelled, true},
		{enums.OrderStatusProcessing, enums.OrderStatusCancelled, true},
		{enums.OrderStatusShipped, enums.OrderStatusCancelled, false},
		{enums.OrderStatusPending, enums.OrderStatusShipped, false},
		{enums.OrderStatusDelivered, enums.OrderStatusPending, false},
		{enums.OrderStatusCancelled, enums.OrderStatusProcessing, false},
	}
	for _, tc := range cases {
		require.Equal(t, tc.want, CanTransition(tc.from, tc.to), "%s -> %s", tc.from, tc.to)
	}
}

func TestUpdateStatusNotifiesCustomer(t *testing.T) {
	t.Parallel()

	api := &stubOrderAPI{order: remote.Order{ID: "o1", Status: enums.OrderStatusProcessing, User: json.RawMessage(`{"_id":"u9"}`)}}
	notifier := &stubNotifier{}
	out := newOrderService(t, api, notifier).UpdateStatus(context.Background(), "o1", enums.OrderStatusShipped)

	require.Equal(t, enums.OutcomeOK, out.Kind)
	require.Equal(t, enums.OrderStatusShipped, out.Order.Status)
	require.Len(t, notifier.changes, 1)
	change := notifier.changes[0]
	require.Equal(t, "u9", change.UserID)
	require.Equal(t, enums.OrderStatusProcessing, change.From)
	require.Equal(t, enums.OrderStatusShipped, change.To)
	require.Equal(t, fixedNow, change.OccurredAt)
	require.NotEmpty(t, api.idemKeys[0])
}

func TestUpdateStatusIllegalTransitionNeverReachesNetwork(t *testing.T) {
	t.Parallel()

	api := &stubOrderAPI{order: remote.Order{ID: "o1", Status: enums.OrderStatusDelivered}}
	notifier := &stubNotifier{}
	out := newOrderService(t, api, notifier).UpdateStatus(context.Background(), "o1", enums.OrderStatusCancelled)

	require.Equal(t, enums.OutcomeValidation, out.Kind)
	require.Empty(t, api.updates)
	require.Empty(t, notifier.changes)
}

func TestUpdateStatusUnknownStatus(t *testing.T) {
	t.Parallel()

	api := &stubOrderAPI{order: remote.Order{ID: "o1", Status: enums.OrderStatusPending}}
	out := newOrderService(t, api, nil).UpdateStatus(context.Background(), "o1", enums.OrderStatus("lost"))
	require.Equal(t, enums.OutcomeValidation, out.Kind)
	require.Empty(t, api.updates)
}

func TestUpdateStatusNotificationFailureIsPartial(t *testing.T) {
	t.Parallel()

	api := &stubOrderAPI{order: remote.Order{ID: "o1", Status: enums.OrderStatusPending}}
	notifier := &stubNotifier{err: errors.New("pubsub unavailable")}
	out := newOrderService(t, api, notifier).UpdateStatus(context.Background(), "o1", enums.OrderStatusProcessing)

	require.Equal(t, enums.OutcomePartial, out.Kind)
	require.Equal(t, msgPartialNotify, out.Message)
	require.Equal(t, []enums.OrderStatus{enums.OrderStatusProcessing}, api.updates)
	require.True(t, out.Kind.Succeeded())
}

func TestUpdateStatusRemoteFailures(t *testing.T) {
	t.Parallel()

	api := &stubOrderAPI{getErr: pkgerrors.New(pkgerrors.CodeNotFound, "orders.get: not found")}
	out := newOrderService(t, api, nil).UpdateStatus(context.Background(), "o1", enums.OrderStatusProcessing)
	require.Equal(t, enums.OutcomeFailure, out.Kind)

	api = &stubOrderAPI{
		order:     remote.Order{ID: "o1", Status: enums.OrderStatusPending},
		updateErr: pkgerrors.New(pkgerrors.CodeUnauthorized, "expired"),
	}
	out = newOrderService(t, api, nil).UpdateStatus(context.Background(), "o1", enums.OrderStatusProcessing)
	require.Equal(t, enums.OutcomeUnauthorized, out.Kind)
}

func TestUpdateStatusWithoutNotifier(t *testing.T) {
	t.Parallel()

	api := &stubOrderAPI{order: remote.Order{ID: "o1", Status: enums.OrderStatusPending}}
	out := newOrderService(t, api, nil).UpdateStatus(context.Background(), "o1", enums.OrderStatusCancelled)
	require.Equal(t, enums.OutcomeOK, out.Kind)
}

func TestPubSubNotifierPublishesEnvelope(t *testing.T) {
	t.Parallel()

	pub := &stubPublisher{}
	n, err := NewPubSubNotifier(pub, "order-status")
	require.NoError(t, err)

	require.NoError(t, n.NotifyStatusChange(context.Background(), StatusChange{OrderID: "o1", To: enums.OrderStatusShipped}))
	require.Equal(t, "order-status", pub.topic)
	require.Equal(t, "shipped", pub.attrs["status"])

	var decoded StatusChange
	require.NoError(t, json.Unmarshal(pub.data, &decoded))
	require.Equal(t, "o1", decoded.OrderID)
	require.NotEmpty(t, decoded.EventID)

	_, err = NewPubSubNotifier(pub, "")
	require.Error(t, err)
}
