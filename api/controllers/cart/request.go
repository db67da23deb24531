package cart

import (
	"context"
	"net/http"

	"github.com/angelmondragon/solecart/api/middleware"
	"github.com/angelmondragon/solecart/api/validators"
	cartsvc "github.com/angelmondragon/solecart/internal/cart"
	"github.com/angelmondragon/solecart/internal/session"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
)

const confirmParam = "confirm"

// Handlers is the cart operation surface the controllers drive.
type Handlers interface {
	IncreaseQuantity(ctx context.Context, sess cartsvc.Session, lineKey string) cartsvc.Outcome
	DecreaseQuantity(ctx context.Context, sess cartsvc.Session, lineKey string) cartsvc.Outcome
	RemoveItem(ctx context.Context, sess cartsvc.Session, lineKey string, confirm cartsvc.Confirmer) cartsvc.Outcome
	ClearCart(ctx context.Context, sess cartsvc.Session, confirm cartsvc.Confirmer) cartsvc.Outcome
	UpdateVariant(ctx context.Context, sess cartsvc.Session, lineKey, size, color string) cartsvc.Outcome
	FetchProductDetailsForLine(ctx context.Context, sess cartsvc.Session, lineKey string) cartsvc.Outcome
	Refresh(ctx context.Context, sess cartsvc.Session) cartsvc.Outcome
}

// Sessions resolves the session for a request.
type Sessions interface {
	Get(key string) *session.Session
}

type variantRequest struct {
	Size  string `json:"size" validate:"max=32"`
	Color string `json:"color" validate:"max=32"`
}

func sessionFor(r *http.Request, sessions Sessions) *session.Session {
	return sessions.Get(middleware.SessionKeyFromContext(r.Context()))
}

// confirmerFor turns ?confirm=true|false into a Confirmer. An absent
// parameter asks the client to prompt the shopper first.
func confirmerFor(r *http.Request) (cartsvc.Confirmer, error) {
	if r.URL.Query().Get(confirmParam) == "" {
		return nil, pkgerrors.New(pkgerrors.CodeConfirmationRequired, "confirm this change before it is sent").
			WithDetails(map[string]any{"param": confirmParam})
	}
	ok, err := validators.ParseQueryBool(r, confirmParam, false)
	if err != nil {
		return nil, err
	}
	if ok {
		return cartsvc.Confirmed, nil
	}
	return cartsvc.Declined, nil
}
