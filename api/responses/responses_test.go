package responses

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/angelmondragon/solecart/pkg/enums"
	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
	"github.com/angelmondragon/solecart/pkg/types"
)

func TestWriteSuccess(t *testing.T) {
	w := httptest.NewRecorder()
	WriteSuccess(w, map[string]string{"hello": "world"})

	if got := w.Code; got != http.StatusOK {
		t.Fatalf("expected status 200 but got %d", got)
	}

	var body types.SuccessEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode success envelope: %v", err)
	}
	if body.Data.(map[string]any)["hello"] != "world" {
		t.Fatalf("unexpected payload %v", body.Data)
	}
}

func TestWriteErrorMapsTypedError(t *testing.T) {
	w := httptest.NewRecorder()
	err := pkgerrors.New(pkgerrors.CodeValidation, "bad input").
		WithDetails(map[string]string{"field": "demo"})
	WriteError(t.Context(), nil, w, err)

	if got := w.Code; got != http.StatusBadRequest {
		t.Fatalf("expected status 400 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeValidation) || body.Error.Message != "bad input" {
		t.Fatalf("unexpected error %+v", body.Error)
	}
	if body.Error.Details == nil {
		t.Fatalf("expected details in public payload")
	}
}

func TestWriteErrorDefaultsToInternalForUntrustedErrors(t *testing.T) {
	w := httptest.NewRecorder()
	WriteError(t.Context(), nil, w, errors.New("boom"))

	if got := w.Code; got != http.StatusInternalServerError {
		t.Fatalf("expected status 500 but got %d", got)
	}

	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("failed to decode error envelope: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeInternal) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Details != nil {
		t.Fatalf("details should be omitted for internal errors")
	}
}

func TestStatusForOutcomeKinds(t *testing.T) {
	cases := map[enums.OutcomeKind]int{
		enums.OutcomeOK:           http.StatusOK,
		enums.OutcomeQueued:       http.StatusOK,
		enums.OutcomeValidation:   http.StatusBadRequest,
		enums.OutcomeUnauthorized: http.StatusUnauthorized,
		enums.OutcomeCancelled:    http.StatusConflict,
		enums.OutcomeFailure:      http.StatusServiceUnavailable,
		enums.OutcomePartial:      http.StatusMultiStatus,
	}
	for kind, want := range cases {
		if got := StatusFor(kind); got != want {
			t.Fatalf("%s: expected %d got %d", kind, want, got)
		}
	}
}

func TestWriteOutcomeQueuedCarriesDegradedFlag(t *testing.T) {
	w := httptest.NewRecorder()
	WriteOutcome(w, Outcome{Kind: enums.OutcomeQueued, Degraded: true, Message: "saved offline"})

	if w.Code != http.StatusOK {
		t.Fatalf("expected 200 got %d", w.Code)
	}
	var body struct {
		Data types.OutcomeBody `json:"data"`
	}
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Data.Outcome != "queued" || !body.Data.Degraded {
		t.Fatalf("unexpected body %+v", body.Data)
	}
}

func TestWriteOutcomeFailureUsesShopperMessage(t *testing.T) {
	w := httptest.NewRecorder()
	WriteOutcome(w, Outcome{Kind: enums.OutcomeFailure, Message: "Could not update your cart. Please try again."})

	if w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 got %d", w.Code)
	}
	var body types.ErrorEnvelope
	if err := json.NewDecoder(w.Body).Decode(&body); err != nil {
		t.Fatalf("decode: %v", err)
	}
	if body.Error.Code != string(pkgerrors.CodeDependency) {
		t.Fatalf("unexpected code %s", body.Error.Code)
	}
	if body.Error.Message != "Could not update your cart. Please try again." {
		t.Fatalf("unexpected message %q", body.Error.Message)
	}
}
