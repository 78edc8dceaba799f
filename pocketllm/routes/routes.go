// pocketllm/routes/routes.go
package routes

import (
	"encoding/json"
	"errors"
	"net/http"

	"go.uber.org/zap"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/middlewares"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/utils/logging"
)

// generic wrapper to reduce boilerplate
func handleJSON(handler func(r *http.Request) (any, int, error)) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		res, status, err := handler(r)
		if err != nil {
			if status >= http.StatusInternalServerError && logging.ErrorLogger != nil {
				logging.ErrorLogger.Error("handler error",
					zap.String("method", r.Method),
					zap.String("path", r.URL.Path),
					zap.Error(err),
				)
			}
			http.Error(w, err.Error(), status)
			return
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		json.NewEncoder(w).Encode(res)
	}
}

// httpStatus maps the error taxonomy onto response codes: bad input is the
// caller's fault, a missing resource is 404, an unreachable collaborator is
// 503, and a remote-reported failure surfaces as a bad gateway.
func httpStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case errors.Is(err, types.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, types.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, types.ErrBackendUnavailable):
		return http.StatusServiceUnavailable
	}
	if _, ok := types.AsRemoteError(err); ok {
		return http.StatusBadGateway
	}
	return http.StatusInternalServerError
}

func userID(r *http.Request) int {
	id, _ := middlewares.UserIDFrom(r.Context())
	return id
}
