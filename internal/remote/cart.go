package remote

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"

	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/enums"
)

// CartResponse is the GET /cart envelope. Items stay raw so the cart package
// can apply its tolerant line decoding.
type CartResponse struct {
	Ack
	Items json.RawMessage `json:"cartItems"`
}

// Mutation is one cart change, sent directly or replayed from the offline queue.
type Mutation struct {
	ID        string             `json:"id"`
	Kind      enums.MutationKind `json:"kind"`
	LineID    string             `json:"lineId,omitempty"`
	ProductID string             `json:"productId,omitempty"`
	Quantity  int                `json:"quantity,omitempty"`
	Size      string             `json:"size,omitempty"`
	Color     string             `json:"color,omitempty"`
}

// Validate enforces the request contract before anything leaves the process.
func (m Mutation) Validate() error {
	switch m.Kind {
	case enums.MutationUpdateQuantity:
		if strings.TrimSpace(m.ProductID) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if m.Quantity < 1 {
			return pkgerrors.New(pkgerrors.CodeValidation, "quantity must be at least 1")
		}
	case enums.MutationRemove:
		if strings.TrimSpace(m.ProductID) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
	case enums.MutationUpdateVariant:
		if strings.TrimSpace(m.ProductID) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "product id is required")
		}
		if strings.TrimSpace(m.Size) == "" || strings.TrimSpace(m.Color) == "" {
			return pkgerrors.New(pkgerrors.CodeValidation, "size and color are required")
		}
	case enums.MutationClear:
	default:
		return pkgerrors.New(pkgerrors.CodeValidation, fmt.Sprintf("unknown mutation kind %q", m.Kind))
	}
	return nil
}

type updateQuantityBody struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type removeBody struct {
	ProductID string `json:"productId"`
}

type updateVariantBody struct {
	ProductID string `json:"productId"`
	Size      string `json:"size"`
	Color     string `json:"color"`
}

// CartAPI talks to the remote cart service.
type CartAPI struct {
	client *Client
}

func NewCartAPI(client *Client) *CartAPI {
	return &CartAPI{client: client}
}

// GetCart pulls the authoritative cart.
func (a *CartAPI) GetCart(ctx context.Context, token string) (CartResponse, error) {
	var resp CartResponse
	err := a.client.do(ctx, call{
		endpoint: "cart.get",
		method:   http.MethodGet,
		path:     "/cart",
		token:    token,
	}, &resp)
	return resp, err
}

// Apply sends one mutation to its endpoint.
func (a *CartAPI) Apply(ctx context.Context, token string, m Mutation) (Ack, error) {
	if err := m.Validate(); err != nil {
		return Ack{}, err
	}
	req := call{method: http.MethodPost, token: token, idempotencyKey: m.ID}
	switch m.Kind {
	case enums.MutationUpdateQuantity:
		req.endpoint, req.path = "cart.update_quantity", "/cart/update-quantity"
		req.body = updateQuantityBody{ProductID: m.ProductID, Quantity: m.Quantity}
	case enums.MutationRemove:
		req.endpoint, req.path = "cart.remove", "/cart/remove"
		req.body = removeBody{ProductID: m.ProductID}
	case enums.MutationClear:
		req.endpoint, req.path = "cart.clear", "/cart/clear"
	case enums.MutationUpdateVariant:
		req.endpoint, req.path = "cart.update_variant", "/cart/update-variant"
		req.body = updateVariantBody{ProductID: m.ProductID, Size: m.Size, Color: m.Color}
	}

	var ack Ack
	if err := a.client.do(ctx, req, &ack); err != nil {
		return Ack{}, err
	}
	return ack, nil
}
