package middleware

import (
	"encoding/json"
	"log/slog"
	"net/http"

	apperrors "github.com/utafrali/PizzaGo/pkg/errors"
)

const codeForbidden = "FORBIDDEN"

// writeError renders e as the {"code", "message"} body used by every
// diagnostics endpoint.
func writeError(w http.ResponseWriter, l *slog.Logger, status int, e *apperrors.AppError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(e); err != nil {
		l.Error("failed to encode error response", slog.String("error", err.Error()))
	}
}
