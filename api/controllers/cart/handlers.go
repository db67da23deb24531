package cart

import (
	"net/http"

	"github.com/angelmondragon/solecart/api/responses"
	"github.com/angelmondragon/solecart/api/validators"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/logger"
)

const lineParam = "lineId"

func unavailable(h Handlers, sessions Sessions) error {
	if h == nil || sessions == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "cart handlers unavailable")
	}
	return nil
}

// Refresh re-pulls the cart and clears the selection.
func Refresh(h Handlers, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := unavailable(h, sessions); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := sessionFor(r, sessions)
		responses.WriteOutcome(w, toResponse(sess, h.Refresh(r.Context(), sess)))
	}
}

// Increase adds one to a line's quantity.
func Increase(h Handlers, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := unavailable(h, sessions); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := validators.PathID(r, lineParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := sessionFor(r, sessions)
		responses.WriteOutcome(w, toResponse(sess, h.IncreaseQuantity(r.Context(), sess, lineID)))
	}
}

// Decrease subtracts one; reaching zero removes the line.
func Decrease(h Handlers, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := unavailable(h, sessions); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := validators.PathID(r, lineParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := sessionFor(r, sessions)
		responses.WriteOutcome(w, toResponse(sess, h.DecreaseQuantity(r.Context(), sess, lineID)))
	}
}

func Remove(h Handlers, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := unavailable(h, sessions); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := validators.PathID(r, lineParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirm, err := confirmerFor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := sessionFor(r, sessions)
		responses.WriteOutcome(w, toResponse(sess, h.RemoveItem(r.Context(), sess, lineID, confirm)))
	}
}

func Clear(h Handlers, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := unavailable(h, sessions); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		confirm, err := confirmerFor(r)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := sessionFor(r, sessions)
		responses.WriteOutcome(w, toResponse(sess, h.ClearCart(r.Context(), sess, confirm)))
	}
}

// ProductDetails loads the live size and color catalog for a line and opens
// its variant editor.
func ProductDetails(h Handlers, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := unavailable(h, sessions); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := validators.PathID(r, lineParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := sessionFor(r, sessions)
		responses.WriteOutcome(w, toResponse(sess, h.FetchProductDetailsForLine(r.Context(), sess, lineID)))
	}
}

func UpdateVariant(h Handlers, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := unavailable(h, sessions); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := validators.PathID(r, lineParam)
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload variantRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		sess := sessionFor(r, sessions)
		responses.WriteOutcome(w, toResponse(sess, h.UpdateVariant(r.Context(), sess, lineID, payload.Size, payload.Color)))
	}
}
