// pocketllm/services/api/client_test.go
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/session"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

// The client must satisfy both collaborator contracts.
var _ session.Backend = (*Client)(nil)

func newPortalStub(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("POST /auth/login", func(w http.ResponseWriter, r *http.Request) {
		var req types.LoginRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(types.LoginResponse{Token: "tok-" + req.Username, UserID: "7", Username: req.Username})
	})
	mux.HandleFunc("POST /chat/sessions", func(w http.ResponseWriter, r *http.Request) {
		requireAuth(t, r)
		json.NewEncoder(w).Encode(types.Session{SessionID: "s1", UserID: "7"})
	})
	mux.HandleFunc("GET /chat/sessions", func(w http.ResponseWriter, r *http.Request) {
		requireAuth(t, r)
		json.NewEncoder(w).Encode([]*types.Session{{SessionID: "s1"}, {SessionID: "s2"}})
	})
	mux.HandleFunc("GET /chat/session/s1", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode(types.Session{SessionID: "s1", UserID: "7"})
	})
	mux.HandleFunc("GET /chat/session/s1/messages", func(w http.ResponseWriter, r *http.Request) {
		json.NewEncoder(w).Encode([]types.Message{{MessageID: "m1", Role: types.RoleUser, Content: "hi"}})
	})
	mux.HandleFunc("POST /chat/session/s1/clear", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("DELETE /chat/session/s1", func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	})
	mux.HandleFunc("POST /chat/send", func(w http.ResponseWriter, r *http.Request) {
		requireAuth(t, r)
		var req types.ChatSendRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			http.Error(w, err.Error(), http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(types.ChatSendResponse{
			Response:  "echo: " + req.Content,
			SessionID: req.SessionID,
			Tokens:    4,
			IsCached:  true,
		})
	})
	mux.HandleFunc("POST /chat/completions", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "" {
			t.Error("completions endpoint should be called without auth")
		}
		json.NewEncoder(w).Encode(types.InferenceResult{Response: "guest answer", Tokens: 2})
	})
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	})
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func requireAuth(t *testing.T, r *http.Request) {
	t.Helper()
	if r.Header.Get("Authorization") == "" {
		t.Errorf("missing Authorization header on %s %s", r.Method, r.URL.Path)
	}
}

func TestLoginStoresToken(t *testing.T) {
	srv := newPortalStub(t)
	client := NewClient(srv.URL)

	resp, err := client.Login(context.Background(), "alice", "alice@example.edu")
	if err != nil {
		t.Fatalf("login: %v", err)
	}
	if resp.Token != "tok-alice" || client.Token() != "tok-alice" {
		t.Fatalf("token not retained: %+v, client token %q", resp, client.Token())
	}
}

func TestBackendCallsCarryToken(t *testing.T) {
	srv := newPortalStub(t)
	client := NewClient(srv.URL)
	client.SetToken("tok-alice")
	ctx := context.Background()

	sess, err := client.CreateSession(ctx, "7")
	if err != nil {
		t.Fatalf("create session: %v", err)
	}
	if sess.SessionID != "s1" {
		t.Fatalf("unexpected session %+v", sess)
	}

	sessions, err := client.ListSessions(ctx, "7")
	if err != nil {
		t.Fatalf("list sessions: %v", err)
	}
	if len(sessions) != 2 {
		t.Fatalf("expected 2 sessions, got %d", len(sessions))
	}

	msgs, err := client.GetMessages(ctx, "7", "s1")
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Fatalf("unexpected messages %+v", msgs)
	}

	if err := client.ClearHistory(ctx, "s1"); err != nil {
		t.Fatalf("clear history: %v", err)
	}
	if err := client.DeleteSession(ctx, "7", "s1"); err != nil {
		t.Fatalf("delete session: %v", err)
	}
}

func TestGetSessionMissMapsToNotFound(t *testing.T) {
	srv := newPortalStub(t)
	client := NewClient(srv.URL)

	_, err := client.GetSession(context.Background(), "missing")
	if !errors.Is(err, types.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
}

func TestInferRoutesByToken(t *testing.T) {
	srv := newPortalStub(t)
	client := NewClient(srv.URL)
	ctx := context.Background()
	req := types.InferenceRequest{
		SessionID: "s1",
		Messages:  []types.ChatTurn{{Role: "user", Content: "hello"}},
	}

	// Guest: stateless completions endpoint.
	res, err := client.Infer(ctx, req)
	if err != nil {
		t.Fatalf("guest infer: %v", err)
	}
	if res.Response != "guest answer" {
		t.Fatalf("unexpected guest response %q", res.Response)
	}

	// Signed in: persisting send endpoint.
	client.SetToken("tok-alice")
	res, err = client.Infer(ctx, req)
	if err != nil {
		t.Fatalf("authed infer: %v", err)
	}
	if res.Response != "echo: hello" || !res.IsCached {
		t.Fatalf("unexpected authed response %+v", res)
	}
}

func TestTransportFailureIsBackendUnavailable(t *testing.T) {
	srv := newPortalStub(t)
	client := NewClient(srv.URL)
	srv.Close()

	_, err := client.ListSessions(context.Background(), "7")
	if !errors.Is(err, types.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
}
