package errors

import (
	stdErrors "errors"
	"fmt"
	"net/http"
	"testing"

	"github.com/jackc/pgx/v5/pgconn"
	"github.com/mattn/go-sqlite3"
)

func TestMetadataForKnownCodes(t *testing.T) {
	tests := []struct {
		code      Code
		status    int
		retryable bool
		detailsOK bool
	}{
		{code: CodeValidation, status: http.StatusBadRequest, detailsOK: true},
		{code: CodeUnauthorized, status: http.StatusUnauthorized},
		{code: CodeNotFound, status: http.StatusNotFound},
		{code: CodeConfirmationRequired, status: http.StatusPreconditionRequired, detailsOK: true},
		{code: CodeStateConflict, status: http.StatusUnprocessableEntity, detailsOK: true},
		{code: CodeSuperseded, status: http.StatusConflict},
		{code: CodeInternal, status: http.StatusInternalServerError, retryable: true},
		{code: CodeDependency, status: http.StatusServiceUnavailable, retryable: true, detailsOK: true},
		{code: CodeRemoteRejected, status: http.StatusBadGateway, detailsOK: true},
		{code: CodePartial, status: http.StatusMultiStatus, detailsOK: true},
	}

	for _, tt := range tests {
		meta := MetadataFor(tt.code)
		if meta.HTTPStatus != tt.status {
			t.Fatalf("code %s expected status %d got %d", tt.code, tt.status, meta.HTTPStatus)
		}
		if meta.Retryable != tt.retryable {
			t.Fatalf("code %s expected retryable %v got %v", tt.code, tt.retryable, meta.Retryable)
		}
		if meta.DetailsAllowed != tt.detailsOK {
			t.Fatalf("code %s expected details allowed %v got %v", tt.code, tt.detailsOK, meta.DetailsAllowed)
		}
		if meta.PublicMessage == "" {
			t.Fatalf("code %s missing public message", tt.code)
		}
	}
}

func TestMetadataForUnknownCodeDefaultsToInternal(t *testing.T) {
	meta := MetadataFor("SOMETHING_UNKNOWN")
	if meta.HTTPStatus != http.StatusInternalServerError {
		t.Fatalf("expected internal status, got %d", meta.HTTPStatus)
	}
}

func TestWrapPreservesCause(t *testing.T) {
	cause := stdErrors.New("dial tcp: refused")
	err := Wrap(CodeDependency, cause, "fetch cart")
	if !stdErrors.Is(err, cause) {
		t.Fatalf("expected wrapped error to unwrap to cause")
	}
	wrapped := fmt.Errorf("outer: %w", err)
	if CodeOf(wrapped) != CodeDependency {
		t.Fatalf("expected dependency code through fmt wrap, got %s", CodeOf(wrapped))
	}
	if !IsRetryable(wrapped) {
		t.Fatalf("dependency errors should be retryable")
	}
	if CodeOf(stdErrors.New("plain")) != CodeInternal {
		t.Fatalf("untyped errors should map to internal")
	}
}

func TestDumpIncludesPostgresDetails(t *testing.T) {
	pgErr := &pgconn.PgError{Code: "23505", ConstraintName: "pending_mutations_pkey", TableName: "pending_mutations"}
	err := Wrap(CodeInternal, pgErr, "enqueue mutation")

	d := Dump(err)
	if d.Code != CodeInternal {
		t.Fatalf("expected internal code, got %s", d.Code)
	}
	if d.DBDriver != "postgres" || d.DBCode != "23505" || d.DBConstraint != "pending_mutations_pkey" {
		t.Fatalf("expected pg details, got %+v", d)
	}
	if len(d.Chain) != 2 {
		t.Fatalf("expected two entries in chain, got %d", len(d.Chain))
	}
}

func TestDumpIncludesSQLiteAndDetails(t *testing.T) {
	liteErr := sqlite3.Error{Code: sqlite3.ErrConstraint, ExtendedCode: sqlite3.ErrConstraintUnique}
	err := Wrap(CodeStateConflict, liteErr, "enqueue mutation").WithDetails(map[string]any{"owner": "u1"})

	d := Dump(err)
	if d.DBDriver != "sqlite" || d.DBCode != "2067" {
		t.Fatalf("expected sqlite details, got %+v", d)
	}
	details, ok := d.Details.(map[string]any)
	if !ok || details["owner"] != "u1" {
		t.Fatalf("expected typed error details, got %+v", d.Details)
	}
}
