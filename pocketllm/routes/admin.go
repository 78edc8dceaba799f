// pocketllm/routes/admin.go
package routes

import (
	"encoding/json"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/config"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/controllers"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/middlewares"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

func AdminRoutes(ctrl *controllers.AdminController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Use(middlewares.AuthMiddleware(cfg))
	r.Use(middlewares.RequireAdmin)

	r.Get("/cache/stats", handleJSON(func(r *http.Request) (any, int, error) {
		return ctrl.CacheStats(), http.StatusOK, nil
	}))

	r.Post("/cache/config", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.CacheConfigRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		stats, err := ctrl.ConfigureCache(req)
		if err != nil {
			return nil, httpStatus(err), err
		}
		return stats, http.StatusOK, nil
	}))

	r.Post("/cache/clear", handleJSON(func(r *http.Request) (any, int, error) {
		return map[string]int{"cleared": ctrl.ClearCache()}, http.StatusOK, nil
	}))

	r.Get("/telemetry", handleJSON(func(r *http.Request) (any, int, error) {
		return ctrl.Telemetry(), http.StatusOK, nil
	}))

	r.Get("/sessions", handleJSON(func(r *http.Request) (any, int, error) {
		limit, _ := strconv.Atoi(r.URL.Query().Get("limit"))
		summaries, err := ctrl.RecentSessions(r.Context(), limit)
		if err != nil {
			return nil, httpStatus(err), err
		}
		return summaries, http.StatusOK, nil
	}))

	r.Post("/session/{session_id}/export", handleJSON(func(r *http.Request) (any, int, error) {
		resp, err := ctrl.ExportSession(r.Context(), chi.URLParam(r, "session_id"))
		if err != nil {
			return nil, httpStatus(err), err
		}
		return resp, http.StatusOK, nil
	}))

	return r
}
