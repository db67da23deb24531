package validators

import (
	"net/http"
	"strings"

	"github.com/go-chi/chi/v5"

	pkgerrors "github.com/angelmondragon/solecart/pkg/errors"
)

const maxIDLength = 128

func SanitizeString(input string, maxLen int) string {
	trimmed := strings.TrimSpace(input)
	if maxLen > 0 && len(trimmed) > maxLen {
		return trimmed[:maxLen]
	}
	return trimmed
}

// PathID returns a trimmed, non-empty route parameter.
func PathID(r *http.Request, name string) (string, error) {
	raw := chi.URLParam(r, name)
	id := SanitizeString(raw, 0)
	if id == "" {
		return "", pkgerrors.New(pkgerrors.CodeValidation, name+" is required").WithDetails(map[string]any{"field": name})
	}
	if len(id) > maxIDLength {
		return "", pkgerrors.New(pkgerrors.CodeValidation, name+" is too long").WithDetails(map[string]any{"field": name, "max": maxIDLength})
	}
	return id, nil
}
