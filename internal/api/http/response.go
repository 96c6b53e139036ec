package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"parkit-backend/internal/domain"
	"parkit-backend/internal/logger"
)

type errorBody struct {
	Error   string             `json:"error"`
	Class   domain.ErrorClass  `json:"class"`
	Current domain.OrderStatus `json:"current_status,omitempty"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		logger.Warn("Failed to encode response", "error", err)
	}
}

// statusFor maps an error class onto the HTTP status returned to clients.
func statusFor(class domain.ErrorClass) int {
	switch class {
	case domain.ClassValidation:
		return http.StatusBadRequest
	case domain.ClassConflict, domain.ClassState:
		return http.StatusConflict
	case domain.ClassForbidden:
		return http.StatusForbidden
	case domain.ClassNotFound:
		return http.StatusNotFound
	case domain.ClassExternal:
		return http.StatusBadGateway
	case domain.ClassSecurity:
		return http.StatusUnauthorized
	default:
		return http.StatusInternalServerError
	}
}

func writeError(w http.ResponseWriter, r *http.Request, err error) {
	class := domain.Classify(err)
	status := statusFor(class)
	body := errorBody{Error: err.Error(), Class: class}

	var stateErr *domain.StateError
	if errors.As(err, &stateErr) {
		body.Current = stateErr.Current
	}
	if status >= http.StatusInternalServerError && status != http.StatusBadGateway {
		logger.ErrorContext(r.Context(), "Request failed", "method", r.Method, "path", r.URL.Path, "class", class, "error", err)
		// internal details stay in the log
		if class == domain.ClassInternal {
			body.Error = "internal error"
		}
	}
	writeJSON(w, status, body)
}

func writeMessage(w http.ResponseWriter, status int, msg string) {
	writeJSON(w, status, map[string]string{"error": msg})
}
