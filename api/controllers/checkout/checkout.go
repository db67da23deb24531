package checkout

import (
	"context"
	"net/http"

	"github.com/angelmondragon/solecart/api/middleware"
	"github.com/angelmondragon/solecart/api/responses"
	"github.com/angelmondragon/solecart/api/validators"
	checkoutsvc "github.com/angelmondragon/solecart/internal/checkout"
	"github.com/angelmondragon/solecart/internal/session"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/logger"
)

// Service is the selection and staging surface.
type Service interface {
	Select(ctx context.Context, sess checkoutsvc.Session, lineKey string, selected bool) checkoutsvc.Outcome
	ClearSelection(ctx context.Context, sess checkoutsvc.Session) checkoutsvc.Outcome
	Stage(ctx context.Context, sess checkoutsvc.Session) checkoutsvc.Outcome
	Discard(ctx context.Context, sess checkoutsvc.Session) checkoutsvc.Outcome
}

type Sessions interface {
	Get(key string) *session.Session
}

type selectRequest struct {
	Selected *bool `json:"selected" validate:"required"`
}

type selectionView struct {
	Selected []string `json:"selected"`
}

func toResponse(out checkoutsvc.Outcome) responses.Outcome {
	resp := responses.Outcome{Kind: out.Kind, Message: out.Message}
	switch {
	case out.Checkout != nil:
		resp.Result = out.Checkout
	case out.Selection != nil:
		resp.Result = selectionView{Selected: out.Selection}
	}
	return resp
}

func guard(svc Service, sessions Sessions) error {
	if svc == nil || sessions == nil {
		return pkgerrors.New(pkgerrors.CodeInternal, "checkout service unavailable")
	}
	return nil
}

func sessionFor(r *http.Request, sessions Sessions) *session.Session {
	return sessions.Get(middleware.SessionKeyFromContext(r.Context()))
}

// Select toggles one line in or out of the checkout selection.
func Select(svc Service, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := guard(svc, sessions); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		lineID, err := validators.PathID(r, "lineId")
		if err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		var payload selectRequest
		if err := validators.DecodeJSONBody(r, &payload); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOutcome(w, toResponse(svc.Select(r.Context(), sessionFor(r, sessions), lineID, *payload.Selected)))
	}
}

func ClearSelection(svc Service, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := guard(svc, sessions); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOutcome(w, toResponse(svc.ClearSelection(r.Context(), sessionFor(r, sessions))))
	}
}

// Stage snapshots the selected lines for the checkout flow.
func Stage(svc Service, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := guard(svc, sessions); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOutcome(w, toResponse(svc.Stage(r.Context(), sessionFor(r, sessions))))
	}
}

func Discard(svc Service, sessions Sessions, logg *logger.Logger) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		if err := guard(svc, sessions); err != nil {
			responses.WriteError(r.Context(), logg, w, err)
			return
		}
		responses.WriteOutcome(w, toResponse(svc.Discard(r.Context(), sessionFor(r, sessions))))
	}
}
