// pocketllm/routes/chat.go
package routes

import (
	"context"
	"encoding/json"
	"net/http"

	"github.com/coder/websocket"
	"github.com/go-chi/chi/v5"
	"github.com/golang-jwt/jwt/v5"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/config"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/controllers"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/middlewares"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

func ChatRoutes(ctrl *controllers.ChatController, cfg config.Config) chi.Router {
	r := chi.NewRouter()
	r.Group(func(gr chi.Router) {
		gr.Use(middlewares.AuthMiddleware(cfg))

		// POST /chat/send : persisting chat turn
		gr.Post("/send", handleJSON(func(r *http.Request) (any, int, error) {
			var req types.ChatSendRequest
			if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
				return nil, http.StatusBadRequest, err
			}
			resp, err := ctrl.Send(r.Context(), userID(r), req)
			if err != nil {
				return nil, httpStatus(err), err
			}
			return resp, http.StatusOK, nil
		}))

		gr.Post("/sessions", handleJSON(func(r *http.Request) (any, int, error) {
			session, err := ctrl.CreateSession(r.Context(), userID(r))
			if err != nil {
				return nil, httpStatus(err), err
			}
			return session, http.StatusCreated, nil
		}))

		// GET /chat/sessions : list all user's sessions (threads)
		gr.Get("/sessions", handleJSON(func(r *http.Request) (any, int, error) {
			sessions, err := ctrl.ListSessions(r.Context(), userID(r))
			if err != nil {
				return nil, httpStatus(err), err
			}
			return sessions, http.StatusOK, nil
		}))

		gr.Get("/session/{session_id}", handleJSON(func(r *http.Request) (any, int, error) {
			session, err := ctrl.GetSession(r.Context(), userID(r), chi.URLParam(r, "session_id"))
			if err != nil {
				return nil, httpStatus(err), err
			}
			return session, http.StatusOK, nil
		}))

		gr.Get("/session/{session_id}/messages", handleJSON(func(r *http.Request) (any, int, error) {
			msgs, err := ctrl.GetMessages(r.Context(), userID(r), chi.URLParam(r, "session_id"))
			if err != nil {
				return nil, httpStatus(err), err
			}
			return msgs, http.StatusOK, nil
		}))

		gr.Post("/session/{session_id}/clear", func(w http.ResponseWriter, r *http.Request) {
			if err := ctrl.ClearHistory(r.Context(), userID(r), chi.URLParam(r, "session_id")); err != nil {
				http.Error(w, err.Error(), httpStatus(err))
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})

		gr.Delete("/session/{session_id}", func(w http.ResponseWriter, r *http.Request) {
			if err := ctrl.DeleteSession(r.Context(), userID(r), chi.URLParam(r, "session_id")); err != nil {
				http.Error(w, err.Error(), httpStatus(err))
				return
			}
			w.WriteHeader(http.StatusNoContent)
		})
	})

	// POST /chat/completions : stateless inference, no account needed
	r.Post("/completions", handleJSON(func(r *http.Request) (any, int, error) {
		var req types.InferenceRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			return nil, http.StatusBadRequest, err
		}
		result, err := ctrl.Completions(r.Context(), req)
		if err != nil {
			return nil, httpStatus(err), err
		}
		return result, http.StatusOK, nil
	}))

	r.HandleFunc("/ws", chatSocket(ctrl, cfg))
	return r
}

// chatSocket runs one chat turn over a websocket: the first frame carries
// the token and the request, the server answers with a thinking status and
// then the final response.
func chatSocket(ctrl *controllers.ChatController, cfg config.Config) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		conn, err := websocket.Accept(w, r, &websocket.AcceptOptions{InsecureSkipVerify: true})
		if err != nil {
			return
		}
		defer conn.Close(websocket.StatusInternalError, "internal error")

		ctx := r.Context()
		typ, data, err := conn.Read(ctx)
		if err != nil {
			return
		}
		if typ != websocket.MessageText {
			conn.Close(websocket.StatusUnsupportedData, "unsupported data")
			return
		}
		var input struct {
			Token   string                `json:"token"`
			Request types.ChatSendRequest `json:"request"`
		}
		if err := json.Unmarshal(data, &input); err != nil {
			writeSocketError(ctx, conn, "invalid json")
			return
		}

		token, err := jwt.Parse(input.Token, func(token *jwt.Token) (interface{}, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, jwt.ErrSignatureInvalid
			}
			return []byte(cfg.JWTSecret), nil
		})
		if err != nil || !token.Valid {
			writeSocketError(ctx, conn, "invalid token")
			conn.Close(websocket.StatusPolicyViolation, "invalid token")
			return
		}
		claims, ok := token.Claims.(jwt.MapClaims)
		if !ok {
			writeSocketError(ctx, conn, "invalid claims")
			conn.Close(websocket.StatusPolicyViolation, "invalid claims")
			return
		}
		userIDf, ok := claims["user_id"].(float64)
		if !ok {
			writeSocketError(ctx, conn, "invalid user_id")
			conn.Close(websocket.StatusPolicyViolation, "invalid user_id")
			return
		}

		conn.Write(ctx, websocket.MessageText, []byte(`{"status":"thinking"}`))
		resp, err := ctrl.Send(ctx, int(userIDf), input.Request)
		if err != nil {
			writeSocketError(ctx, conn, err.Error())
			conn.Close(websocket.StatusInternalError, "send failed")
			return
		}
		payload, err := json.Marshal(resp)
		if err != nil {
			writeSocketError(ctx, conn, "encode failed")
			return
		}
		if err := conn.Write(ctx, websocket.MessageText, payload); err != nil {
			return
		}
		conn.Close(websocket.StatusNormalClosure, "")
	}
}

func writeSocketError(ctx context.Context, conn *websocket.Conn, msg string) {
	payload, _ := json.Marshal(map[string]string{"error": msg})
	conn.Write(ctx, websocket.MessageText, payload)
}
