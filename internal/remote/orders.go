package remote

import (
	"context"
	"encoding/json"
	"net/http"
	"net/url"
	"strings"

	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/enums"
)

// Order is the subset of an order record the status flow needs.
type Order struct {
	ID     string            `json:"_id"`
	Status enums.OrderStatus `json:"status"`
	User   json.RawMessage   `json:"user,omitempty"`
}

// UserID returns the customer id whether user is populated or a bare reference.
func (o Order) UserID() string {
	if len(o.User) == 0 {
		return ""
	}
	var id string
	if err := json.Unmarshal(o.User, &id); err == nil {
		return strings.TrimSpace(id)
	}
	var populated struct {
		ID string `json:"_id"`
	}
	if err := json.Unmarshal(o.User, &populated); err == nil {
		return strings.TrimSpace(populated.ID)
	}
	return ""
}

type orderEnvelope struct {
	Order *Order `json:"order"`
}

type updateStatusBody struct {
	Status enums.OrderStatus `json:"status"`
}

// OrderAPI talks to the remote order service.
type OrderAPI struct {
	client *Client
}

func NewOrderAPI(client *Client) *OrderAPI {
	return &OrderAPI{client: client}
}

// GetOrder fetches the current order record.
func (a *OrderAPI) GetOrder(ctx context.Context, token, orderID string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	var raw json.RawMessage
	if err := a.client.do(ctx, call{
		endpoint: "orders.get",
		method:   http.MethodGet,
		path:     "/orders/" + url.PathEscape(orderID),
		token:    token,
	}, &raw); err != nil {
		return Order{}, err
	}
	return decodeOrder(raw)
}

// UpdateStatus moves the order to status on the remote service.
func (a *OrderAPI) UpdateStatus(ctx context.Context, token, orderID string, status enums.OrderStatus, idempotencyKey string) (Order, error) {
	orderID = strings.TrimSpace(orderID)
	if orderID == "" {
		return Order{}, pkgerrors.New(pkgerrors.CodeValidation, "order id is required")
	}
	var raw json.RawMessage
	if err := a.client.do(ctx, call{
		endpoint:       "orders.update_status",
		method:         http.MethodPut,
		path:           "/orders/" + url.PathEscape(orderID) + "/status",
		token:          token,
		idempotencyKey: idempotencyKey,
		body:           updateStatusBody{Status: status},
	}, &raw); err != nil {
		return Order{}, err
	}
	order, err := decodeOrder(raw)
	if err != nil {
		return Order{}, err
	}
	if order.ID == "" {
		order.ID = orderID
	}
	if order.Status == "" {
		order.Status = status
	}
	return order, nil
}

func decodeOrder(raw json.RawMessage) (Order, error) {
	var env orderEnvelope
	if err := json.Unmarshal(raw, &env); err == nil && env.Order != nil {
		return *env.Order, nil
	}
	var order Order
	if err := json.Unmarshal(raw, &order); err != nil {
		return Order{}, pkgerrors.Wrap(pkgerrors.CodeDependency, err, "decode order")
	}
	return order, nil
}
