package responses

import (
	"context"
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/angelmondragon/solecart/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/logger"
	"github.com/angelmondragon/solecart/pkg/types"
)

func WriteSuccess(w http.ResponseWriter, data any) {
	WriteSuccessStatus(w, http.StatusOK, data)
}

func WriteSuccessStatus(w http.ResponseWriter, status int, data any) {
	writeJSON(w, status, types.SuccessEnvelope{Data: data})
}

func WriteError(ctx context.Context, logg *logger.Logger, w http.ResponseWriter, err error) {
	if err == nil {
		err = errors.New("unknown error")
	}

	typed := pkgerrors.As(err)
	if typed == nil {
		typed = pkgerrors.Wrap(pkgerrors.CodeInternal, err, "unexpected error")
	}

	meta := pkgerrors.MetadataFor(typed.Code())

	msg := meta.PublicMessage
	switch typed.Code() {
	case pkgerrors.CodeValidation,
		pkgerrors.CodeUnauthorized,
		pkgerrors.CodeNotFound,
		pkgerrors.CodeConfirmationRequired,
		pkgerrors.CodeStateConflict,
		pkgerrors.CodeRemoteRejected,
		pkgerrors.CodeIdempotency:
		if m := typed.Message(); m != "" {
			msg = m
		}
	}

	payload := types.ErrorEnvelope{
		Error: types.APIError{
			Code:    string(typed.Code()),
			Message: msg,
		},
	}

	if meta.DetailsAllowed {
		if details := typed.Details(); details != nil {
			payload.Error.Details = details
		}
	}

	if logg != nil {
		dump := pkgerrors.Dump(err)
		ctx = logg.WithFields(ctx, map[string]any{
			"error":       dump.TopMessage,
			"error_code":  dump.Code,
			"error_chain": dump.Chain,
		})
		if meta.HTTPStatus >= http.StatusInternalServerError {
			logg.Error(ctx, "request.error", err)
		} else {
			logg.Warn(ctx, "request.rejected")
		}
	}

	writeJSON(w, meta.HTTPStatus, payload)
}

// Outcome is a handler result about to be written to the client.
type Outcome struct {
	Kind     enums.OutcomeKind
	Message  string
	Degraded bool
	Result   any
}

var outcomeCodes = map[enums.OutcomeKind]pkgerrors.Code{
	enums.OutcomeValidation:   pkgerrors.CodeValidation,
	enums.OutcomeUnauthorized: pkgerrors.CodeUnauthorized,
	enums.OutcomeCancelled:    pkgerrors.CodeSuperseded,
	enums.OutcomeFailure:      pkgerrors.CodeDependency,
}

// StatusFor maps an outcome kind to its HTTP status.
func StatusFor(kind enums.OutcomeKind) int {
	switch kind {
	case enums.OutcomeOK, enums.OutcomeQueued:
		return http.StatusOK
	case enums.OutcomePartial:
		return http.StatusMultiStatus
	case enums.OutcomeValidation:
		return http.StatusBadRequest
	case enums.OutcomeUnauthorized:
		return http.StatusUnauthorized
	case enums.OutcomeCancelled:
		return http.StatusConflict
	default:
		return http.StatusServiceUnavailable
	}
}

// WriteOutcome writes successful kinds as a data envelope and the rest as an
// error envelope whose message is the shopper-facing text.
func WriteOutcome(w http.ResponseWriter, o Outcome) {
	status := StatusFor(o.Kind)
	if o.Kind.Succeeded() {
		writeJSON(w, status, types.SuccessEnvelope{Data: types.OutcomeBody{
			Outcome:  o.Kind.String(),
			Message:  o.Message,
			Degraded: o.Degraded,
			Result:   o.Result,
		}})
		return
	}

	code, ok := outcomeCodes[o.Kind]
	if !ok {
		code = pkgerrors.CodeInternal
	}
	msg := o.Message
	if msg == "" {
		msg = pkgerrors.MetadataFor(code).PublicMessage
	}
	payload := types.ErrorEnvelope{Error: types.APIError{
		Code:    string(code),
		Message: msg,
		Details: map[string]any{"outcome": o.Kind.String()},
	}}
	if o.Result != nil {
		payload.Error.Details = map[string]any{"outcome": o.Kind.String(), "result": o.Result}
	}
	writeJSON(w, status, payload)
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		log.Printf(`{"level":"error","msg":"failed to encode response","err":"%v"}`, err)
	}
}
