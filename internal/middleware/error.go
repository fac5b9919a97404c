package middleware

import (
	"encoding/json"
	"net/http"

	"go.uber.org/zap"
)

// Envelope is the uniform response wrapper. Every handler path renders
// one of these; failures carry either a diagnostic Error string or a
// field-level Errors map, never both.
type Envelope struct {
	Success bool                `json:"success"`
	Data    interface{}         `json:"data,omitempty"`
	Message string              `json:"message"`
	Error   string              `json:"error,omitempty"`
	Errors  map[string][]string `json:"errors,omitempty"`
}

// RespondSuccess sends a success envelope with the given payload
func RespondSuccess(w http.ResponseWriter, statusCode int, data interface{}, message string) {
	writeEnvelope(w, statusCode, Envelope{
		Success: true,
		Data:    data,
		Message: message,
	})
}

// RespondError sends a failure envelope with a message only
func RespondError(w http.ResponseWriter, statusCode int, message string) {
	writeEnvelope(w, statusCode, Envelope{
		Success: false,
		Message: message,
	})
}

// RespondInternalError sends a 500 envelope, surfacing the error detail
// for diagnostics
func RespondInternalError(w http.ResponseWriter, message string, err error) {
	envelope := Envelope{
		Success: false,
		Message: message,
	}
	if err != nil {
		envelope.Error = err.Error()
	}
	writeEnvelope(w, http.StatusInternalServerError, envelope)
}

// RespondValidationErrors sends a 422 envelope with the field error map
func RespondValidationErrors(w http.ResponseWriter, errors map[string][]string) {
	writeEnvelope(w, http.StatusUnprocessableEntity, Envelope{
		Success: false,
		Message: "Invalid data",
		Errors:  errors,
	})
}

func writeEnvelope(w http.ResponseWriter, statusCode int, envelope Envelope) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(statusCode)
	json.NewEncoder(w).Encode(envelope)
}

// ErrorHandlingMiddleware catches panics and converts them to 500 envelopes
func ErrorHandlingMiddleware(logger *zap.Logger) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			defer func() {
				if err := recover(); err != nil {
					logger.Error("Panic recovered",
						zap.Any("error", err),
						zap.String("path", r.URL.Path),
						zap.String("method", r.Method),
					)

					RespondError(w, http.StatusInternalServerError, "internal server error")
				}
			}()

			next.ServeHTTP(w, r)
		})
	}
}
