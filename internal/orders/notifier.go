package orders

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/angelmondragon/solecart/pkg/enums"
	"github.com/google/uuid"
)

// StatusChange is published to customers when their order moves.
type StatusChange struct {
	EventID    string            `json:"eventId"`
	OrderID    string            `json:"orderId"`
	UserID     string            `json:"userId,omitempty"`
	From       enums.OrderStatus `json:"from"`
	To         enums.OrderStatus `json:"to"`
	OccurredAt time.Time         `json:"occurredAt"`
}

// Notifier delivers status change notifications.
type Notifier interface {
	NotifyStatusChange(ctx context.Context, change StatusChange) error
}

type publisher interface {
	Publish(ctx context.Context, topic string, data []byte, attrs map[string]string) (string, error)
}

// PubSubNotifier publishes status changes to a Pub/Sub topic.
type PubSubNotifier struct {
	pub   publisher
	topic string
}

func NewPubSubNotifier(pub publisher, topic string) (*PubSubNotifier, error) {
	if pub == nil {
		return nil, errors.New("pubsub publisher is required")
	}
	if topic == "" {
		return nil, errors.New("order status topic is required")
	}
	return &PubSubNotifier{pub: pub, topic: topic}, nil
}

func (n *PubSubNotifier) NotifyStatusChange(ctx context.Context, change StatusChange) error {
	if change.EventID == "" {
		change.EventID = uuid.NewString()
	}
	data, err := json.Marshal(change)
	if err != nil {
		return fmt.Errorf("marshal status change: %w", err)
	}
	_, err = n.pub.Publish(ctx, n.topic, data, map[string]string{
		"event_type": "order.status_changed",
		"order_id":   change.OrderID,
		"status":     change.To.String(),
	})
	return err
}
