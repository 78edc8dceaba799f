// pocketllm/routes/auth.go
package routes

import (
	"encoding/json"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/config"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/controllers"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/middlewares"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

func AuthRoutes(ctrl *controllers.AuthController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Post("/login", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		resp, err := ctrl.Login(r.Context(), req)
		if err != nil {
			return nil, httpStatus(err), err
		}
		return resp, http.StatusOK, nil
	}))

	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))
		gr.Get("/me", handleJSON(func(r *http.Request) (any, int, error) {
			user, err := ctrl.Me(r.Context(), userID(r))
			if err != nil {
				return nil, httpStatus(err), err
			}
			return user, http.StatusOK, nil
		}))
	})
	return r
}
