// pocketllm/session/store_test.go
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"testing"
	"time"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

type fakeBackend struct {
	mu       sync.Mutex
	sessions []*types.Session
	messages map[string][]types.Message

	failList     bool
	failGet      bool
	failMessages bool
	failClear    bool
	failDelete   bool

	listCalls    int
	getCalls     int
	messageCalls int
	createCalls  int
}

func (f *fakeBackend) CreateSession(ctx context.Context, userID string) (*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.createCalls++
	sess := &types.Session{
		SessionID:      fmt.Sprintf("remote-%d", f.createCalls),
		UserID:         userID,
		Messages:       []types.Message{},
		CreatedAt:      time.Now(),
		LastAccessedAt: time.Now(),
	}
	f.sessions = append(f.sessions, sess)
	return sess, nil
}

func (f *fakeBackend) GetSession(ctx context.Context, sessionID string) (*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.getCalls++
	if f.failGet {
		return nil, fmt.Errorf("%w: connection refused", types.ErrBackendUnavailable)
	}
	for _, sess := range f.sessions {
		if sess.SessionID == sessionID {
			return sess, nil
		}
	}
	return nil, types.ErrNotFound
}

func (f *fakeBackend) ListSessions(ctx context.Context, userID string) ([]*types.Session, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.listCalls++
	if f.failList {
		return nil, fmt.Errorf("%w: connection refused", types.ErrBackendUnavailable)
	}
	out := make([]*types.Session, len(f.sessions))
	copy(out, f.sessions)
	return out, nil
}

func (f *fakeBackend) GetMessages(ctx context.Context, userID, sessionID string) ([]types.Message, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.messageCalls++
	if f.failMessages {
		return nil, fmt.Errorf("%w: connection refused", types.ErrBackendUnavailable)
	}
	return f.messages[sessionID], nil
}

func (f *fakeBackend) ClearHistory(ctx context.Context, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failClear {
		return fmt.Errorf("%w: connection refused", types.ErrBackendUnavailable)
	}
	f.messages[sessionID] = nil
	return nil
}

func (f *fakeBackend) DeleteSession(ctx context.Context, userID, sessionID string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.failDelete {
		return fmt.Errorf("%w: connection refused", types.ErrBackendUnavailable)
	}
	for i, sess := range f.sessions {
		if sess.SessionID == sessionID {
			f.sessions = append(f.sessions[:i], f.sessions[i+1:]...)
			break
		}
	}
	return nil
}

func listedSessions(backend *fakeBackend) []*types.Session {
	skel := make([]*types.Session, 0, len(backend.sessions))
	for _, sess := range backend.sessions {
		cp := *sess
		cp.Messages = nil
		skel = append(skel, &cp)
	}
	return skel
}

func TestRemoteInitializePreservesOrder(t *testing.T) {
	backend := &fakeBackend{
		sessions: []*types.Session{
			{SessionID: "s1", UserID: "7"},
			{SessionID: "s2", UserID: "7"},
		},
		messages: map[string][]types.Message{},
	}
	store := NewRemoteStore(backend, nil)
	if err := store.Initialize(context.Background(), "7"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if !store.Ready() {
		t.Fatal("store should be ready after initialize")
	}
	if store.Mode() != ModeRemote {
		t.Fatalf("expected remote mode, got %q", store.Mode())
	}

	sessions := store.ListAll()
	if len(sessions) != 2 || sessions[0].SessionID != "s1" || sessions[1].SessionID != "s2" {
		t.Fatalf("unexpected sessions: %+v", sessions)
	}

	created, err := store.Create(context.Background(), "7")
	if err != nil {
		t.Fatalf("create: %v", err)
	}
	sessions = store.ListAll()
	if len(sessions) != 3 {
		t.Fatalf("expected 3 sessions after create, got %d", len(sessions))
	}
	if sessions[2].SessionID != created.SessionID {
		t.Fatalf("new session should be last, got %q", sessions[2].SessionID)
	}
	if sessions[0].SessionID != "s1" {
		t.Fatal("create must not drop existing sessions")
	}
}

func TestRemoteInitializeDegradesOnFailure(t *testing.T) {
	backend := &fakeBackend{failList: true, messages: map[string][]types.Message{}}
	store := NewRemoteStore(backend, nil)

	err := store.Initialize(context.Background(), "7")
	if err == nil {
		t.Fatal("expected error from failing backend")
	}
	if !errors.Is(err, types.ErrBackendUnavailable) {
		t.Fatalf("expected ErrBackendUnavailable, got %v", err)
	}
	if !store.Ready() {
		t.Fatal("store should still become ready")
	}
	if got := store.ListAll(); len(got) != 0 {
		t.Fatalf("expected empty mirror, got %d sessions", len(got))
	}
}

func TestRemoteGetFallsBackAndCaches(t *testing.T) {
	backend := &fakeBackend{
		sessions: []*types.Session{{SessionID: "s1", UserID: "7", Messages: []types.Message{}}},
		messages: map[string][]types.Message{},
	}
	store := NewRemoteStore(backend, nil)
	if err := store.Initialize(context.Background(), "7"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	// Simulate a session created elsewhere after initialize.
	backend.mu.Lock()
	backend.sessions = append(backend.sessions, &types.Session{SessionID: "s2", UserID: "7", Messages: []types.Message{}})
	backend.mu.Unlock()

	sess, err := store.Get(context.Background(), "s2")
	if err != nil {
		t.Fatalf("get: %v", err)
	}
	if sess == nil || sess.SessionID != "s2" {
		t.Fatalf("expected s2 from backend, got %+v", sess)
	}
	before := backend.getCalls

	if _, err := store.Get(context.Background(), "s2"); err != nil {
		t.Fatalf("second get: %v", err)
	}
	if backend.getCalls != before {
		t.Fatal("second get should be served from the mirror")
	}

	missing, err := store.Get(context.Background(), "nope")
	if err != nil {
		t.Fatalf("get missing: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown session, got %+v", missing)
	}
}

func TestRemoteGetMessagesHydratesOnce(t *testing.T) {
	backend := &fakeBackend{
		sessions: []*types.Session{{SessionID: "s1", UserID: "7"}},
		messages: map[string][]types.Message{
			"s1": {
				{MessageID: "m1", Role: types.RoleUser, Content: "hi"},
				{MessageID: "m2", Role: types.RoleAssistant, Content: "hello"},
			},
		},
	}
	backend.sessions = listedSessions(backend)
	store := NewRemoteStore(backend, nil)
	if err := store.Initialize(context.Background(), "7"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	msgs, err := store.GetMessages(context.Background(), "7", "s1")
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(msgs) != 2 || msgs[0].Content != "hi" {
		t.Fatalf("unexpected messages: %+v", msgs)
	}
	if backend.messageCalls != 1 {
		t.Fatalf("expected 1 backend call, got %d", backend.messageCalls)
	}

	if _, err := store.GetMessages(context.Background(), "7", "s1"); err != nil {
		t.Fatalf("second get messages: %v", err)
	}
	if backend.messageCalls != 1 {
		t.Fatalf("hydrated history should not refetch, got %d calls", backend.messageCalls)
	}
}

func TestRemoteReadsDegradeWritesPropagate(t *testing.T) {
	backend := &fakeBackend{
		sessions: []*types.Session{{SessionID: "s1", UserID: "7"}},
		messages: map[string][]types.Message{},
	}
	store := NewRemoteStore(backend, nil)
	if err := store.Initialize(context.Background(), "7"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := store.AppendMessageLocal("s1", types.Message{MessageID: "m1", Role: types.RoleUser, Content: "hi"}); err != nil {
		t.Fatalf("append: %v", err)
	}

	backend.failMessages = true
	msgs, err := store.GetMessages(context.Background(), "7", "s1")
	if err == nil {
		t.Fatal("expected advisory error on degraded read")
	}
	if len(msgs) != 1 || msgs[0].Content != "hi" {
		t.Fatalf("degraded read should return mirrored data, got %+v", msgs)
	}

	backend.failDelete = true
	if err := store.Delete(context.Background(), "7", "s1"); err == nil {
		t.Fatal("expected delete failure to propagate")
	}
	if len(store.ListAll()) != 1 {
		t.Fatal("failed delete must leave the mirror untouched")
	}

	backend.failClear = true
	if err := store.ClearHistory(context.Background(), "s1"); err == nil {
		t.Fatal("expected clear failure to propagate")
	}
	if got, _ := store.GetMessages(context.Background(), "7", "s1"); len(got) != 1 {
		t.Fatal("failed clear must leave messages untouched")
	}
}

func TestRemoteRefreshReplacesMirror(t *testing.T) {
	backend := &fakeBackend{
		sessions: []*types.Session{{SessionID: "s1", UserID: "7"}},
		messages: map[string][]types.Message{},
	}
	store := NewRemoteStore(backend, nil)
	if err := store.Initialize(context.Background(), "7"); err != nil {
		t.Fatalf("initialize: %v", err)
	}

	backend.mu.Lock()
	backend.sessions = []*types.Session{
		{SessionID: "s2", UserID: "7"},
		{SessionID: "s3", UserID: "7"},
	}
	backend.mu.Unlock()

	sessions, err := store.Refresh(context.Background(), "7")
	if err != nil {
		t.Fatalf("refresh: %v", err)
	}
	if len(sessions) != 2 || sessions[0].SessionID != "s2" {
		t.Fatalf("refresh should replace the mirror, got %+v", sessions)
	}

	backend.failList = true
	sessions, err = store.Refresh(context.Background(), "7")
	if err == nil {
		t.Fatal("expected advisory error on failed refresh")
	}
	if len(sessions) != 2 {
		t.Fatal("failed refresh must keep the previous mirror")
	}
}

func TestClearHistoryKeepsSession(t *testing.T) {
	backend := &fakeBackend{
		sessions: []*types.Session{{SessionID: "s1", UserID: "7"}},
		messages: map[string][]types.Message{
			"s1": {{MessageID: "m1", Role: types.RoleUser, Content: "hi"}},
		},
	}
	store := NewRemoteStore(backend, nil)
	if err := store.Initialize(context.Background(), "7"); err != nil {
		t.Fatalf("initialize: %v", err)
	}
	if err := store.ClearHistory(context.Background(), "s1"); err != nil {
		t.Fatalf("clear history: %v", err)
	}

	sessions := store.ListAll()
	if len(sessions) != 1 {
		t.Fatal("clear history must keep the session itself")
	}
	msgs, err := store.GetMessages(context.Background(), "7", "s1")
	if err != nil {
		t.Fatalf("get messages: %v", err)
	}
	if len(msgs) != 0 {
		t.Fatalf("expected empty history, got %+v", msgs)
	}
}
