package validators

import (
	"net/http"
	"strconv"
	"strings"

	pkgerrors "github.com/aasta/aasta-backend/pkg/errors"
)

// ParseQueryInt reads an optional integer query parameter bounded to [min, max].
// A missing or blank value yields def.
func ParseQueryInt(r *http.Request, key string, def, min, max int) (int, error) {
	raw := strings.TrimSpace(r.URL.Query().Get(key))
	if raw == "" {
		return def, nil
	}
	n, err := strconv.Atoi(raw)
	if err != nil || n < min || n > max {
		return 0, pkgerrors.New(pkgerrors.CodeValidation, "Invalid query parameter: "+key).
			WithDetails(map[string]any{"field": key, "min": min, "max": max})
	}
	return n, nil
}
