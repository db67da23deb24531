package orders

import (
	"context"
	"net/http"

	"github.com/angelmondragon/solecart/api/responses"
	"github.com/angelmondragon/solecart/api/validators"
	internalorders "github.com/angelmondragon/solecart/internal/orders"
	"github.com/angelmondragon/solecart/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/logger"
)

// Service updates order status on behalf of the signed-in operator.
type Service interface {
	UpdateStatus(ctx context.Context, orderID string, to enums.OrderStatus) internalorders.Outcome
}

type updateStatusRequest struct {
	Status string `json:"status" validate:"required,max=32"`
}

// UpdateStatus moves an order to the requested status. A status change that
// succeeded but whose customer notification failed answers 207.
func UpdateStatus(svc Service, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if svc == nil {
			responses.WriteError(r.Context(), logg, w, pkgerrors.New(pkgerrors.CodeInternal, "orders service unavailable"))
			return
		}
		orderID, err := validators.PathID(r, "orderId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload updateStatusRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}

		out := svc.UpdateStatus(r.Context(), orderID, enums.OrderStatus(payload.Status))
		resp := responses.Outcome{Kind: out.Kind, Message: out.Message}
		if out.Order != nil {
			resp.Result = out.Order
		}
		responses.WriteOutcome(w, resp)
	}
}
