// pocketllm/session/store.go
//
// Store mirrors a user's chat sessions in memory and keeps the mirror in
// sync with either the portal backend (remote mode) or a local file
// (local mode). The mode is fixed when the store is built; switching a
// signed-in guest to remote means building a new store, not mutating this
// one.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/telemetry"
	"github.com/Frank1124987/pocketllm-portal-frontend/pocketllm/types"
)

type Mode string

const (
	ModeRemote Mode = "remote"
	ModeLocal  Mode = "local"
)

// record pairs a mirrored session with a hydration flag: hydrated means the
// message list is known complete, not merely absent from a listing response.
type record struct {
	session  *types.Session
	hydrated bool
}

type Store struct {
	mu      sync.RWMutex
	mode    Mode
	backend Backend
	persist Persistence

	records map[string]*record
	order   []string
	userID  string
	ready   bool

	recorder *telemetry.Recorder
	now      func() time.Time
}

// NewRemoteStore builds a store whose source of truth is the portal backend.
func NewRemoteStore(backend Backend, recorder *telemetry.Recorder) *Store {
	return &Store{
		mode:     ModeRemote,
		backend:  backend,
		records:  make(map[string]*record),
		recorder: recorder,
		now:      time.Now,
	}
}

// NewLocalStore builds a store persisted through the given key/value store,
// for guests with no portal account.
func NewLocalStore(persist Persistence, recorder *telemetry.Recorder) *Store {
	return &Store{
		mode:     ModeLocal,
		persist:  persist,
		records:  make(map[string]*record),
		recorder: recorder,
		now:      time.Now,
	}
}

func (s *Store) Mode() Mode { return s.mode }

func (s *Store) Ready() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.ready
}

func (s *Store) UserID() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.userID
}

// Initialize loads the user's sessions into the mirror. In remote mode a
// backend failure leaves an empty-but-ready store and returns the error so
// the caller can warn; the store stays usable for later refreshes.
func (s *Store) Initialize(ctx context.Context, userID string) error {
	s.mu.Lock()
	s.userID = userID
	s.records = make(map[string]*record)
	s.order = nil
	s.mu.Unlock()

	switch s.mode {
	case ModeRemote:
		sessions, err := s.backend.ListSessions(ctx, userID)
		s.mu.Lock()
		defer s.mu.Unlock()
		s.ready = true
		if err != nil {
			s.recordEvent(telemetry.Event{Kind: telemetry.KindStoreSync, Err: err.Error()})
			return backendUnavailable("load sessions", err)
		}
		for _, sess := range sessions {
			s.addLocked(sess, sess.Messages != nil)
		}
		s.recordEvent(telemetry.Event{Kind: telemetry.KindStoreSync})
		return nil
	default:
		raw, ok, err := s.persist.Load(storageKey(userID))
		s.mu.Lock()
		defer s.mu.Unlock()
		s.ready = true
		if err != nil {
			return fmt.Errorf("load local sessions: %w", err)
		}
		if !ok {
			return nil
		}
		var sessions []*types.Session
		if err := json.Unmarshal([]byte(raw), &sessions); err != nil {
			return fmt.Errorf("decode local sessions: %w", err)
		}
		for _, sess := range sessions {
			s.addLocked(sess, true)
		}
		return nil
	}
}

// Create adds a new session for the user. The new session joins the existing
// list; earlier sessions are untouched.
func (s *Store) Create(ctx context.Context, userID string) (*types.Session, error) {
	switch s.mode {
	case ModeRemote:
		sess, err := s.backend.CreateSession(ctx, userID)
		if err != nil {
			return nil, fmt.Errorf("create session: %w", err)
		}
		s.mu.Lock()
		s.addLocked(sess, true)
		s.mu.Unlock()
		s.recordEvent(telemetry.Event{Kind: telemetry.KindSessionCreate, SessionID: sess.SessionID})
		return copySession(sess), nil
	default:
		now := s.now()
		sess := &types.Session{
			SessionID:      "local-" + uuid.New().String(),
			UserID:         userID,
			Messages:       []types.Message{},
			CreatedAt:      now,
			LastAccessedAt: now,
		}
		s.mu.Lock()
		s.addLocked(sess, true)
		if err := s.persistLocked(); err != nil {
			s.removeLocked(sess.SessionID)
			s.mu.Unlock()
			return nil, fmt.Errorf("save local sessions: %w", err)
		}
		s.mu.Unlock()
		s.recordEvent(telemetry.Event{Kind: telemetry.KindSessionCreate, SessionID: sess.SessionID})
		return copySession(sess), nil
	}
}

// Get looks up a session by id in the mirror only. A miss returns (nil, nil)
// in local mode; in remote mode it falls back to the backend and caches the
// result. Remote failures degrade to (nil, err) so callers can treat the
// error as advisory.
func (s *Store) Get(ctx context.Context, sessionID string) (*types.Session, error) {
	s.mu.RLock()
	rec, ok := s.records[sessionID]
	if ok {
		sess := copySession(rec.session)
		s.mu.RUnlock()
		return sess, nil
	}
	s.mu.RUnlock()

	if s.mode == ModeLocal {
		return nil, nil
	}
	fetched, err := s.backend.GetSession(ctx, sessionID)
	if err != nil {
		if errors.Is(err, types.ErrNotFound) {
			return nil, nil
		}
		return nil, fmt.Errorf("get session: %w", err)
	}
	if fetched == nil {
		return nil, nil
	}
	s.mu.Lock()
	s.addLocked(fetched, fetched.Messages != nil)
	s.mu.Unlock()
	return copySession(fetched), nil
}

// ListAll returns copies of every mirrored session in insertion order. It
// never touches the backend.
func (s *Store) ListAll() []*types.Session {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*types.Session, 0, len(s.order))
	for _, id := range s.order {
		out = append(out, copySession(s.records[id].session))
	}
	return out
}

// AppendMessageLocal adds a message to the mirrored session without calling
// the backend; the portal persists remote messages itself during a send.
// Unknown session ids are ignored. Appending does not mark the history
// complete, so a skeleton record still hydrates from the backend on the
// next read.
func (s *Store) AppendMessageLocal(sessionID string, msg types.Message) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	rec, ok := s.records[sessionID]
	if !ok {
		return nil
	}
	rec.session.Messages = append(rec.session.Messages, msg)
	rec.session.LastAccessedAt = s.now()
	if s.mode == ModeLocal {
		if err := s.persistLocked(); err != nil {
			return fmt.Errorf("save local sessions: %w", err)
		}
	}
	return nil
}

// GetMessages returns the full history for a session, fetching from the
// backend when the mirror only holds a skeleton listing. Remote failures
// degrade to whatever the mirror has, with an advisory error.
func (s *Store) GetMessages(ctx context.Context, userID, sessionID string) ([]types.Message, error) {
	s.mu.RLock()
	rec, ok := s.records[sessionID]
	if ok && rec.hydrated {
		msgs := copyMessages(rec.session.Messages)
		s.mu.RUnlock()
		return msgs, nil
	}
	var cached []types.Message
	if ok {
		cached = copyMessages(rec.session.Messages)
	}
	s.mu.RUnlock()

	if s.mode == ModeLocal {
		return cached, nil
	}
	msgs, err := s.backend.GetMessages(ctx, userID, sessionID)
	if err != nil {
		return cached, fmt.Errorf("get messages: %w", err)
	}
	s.mu.Lock()
	if rec, ok := s.records[sessionID]; ok {
		rec.session.Messages = copyMessages(msgs)
		rec.hydrated = true
	}
	s.mu.Unlock()
	return copyMessages(msgs), nil
}

// ClearHistory empties a session's message list but keeps the session
// itself. Write failures propagate: the mirror is only updated after the
// authoritative copy succeeded.
func (s *Store) ClearHistory(ctx context.Context, sessionID string) error {
	if s.mode == ModeRemote {
		if err := s.backend.ClearHistory(ctx, sessionID); err != nil {
			return fmt.Errorf("clear history: %w", err)
		}
	}
	s.mu.Lock()
	if rec, ok := s.records[sessionID]; ok {
		rec.session.Messages = []types.Message{}
		rec.session.LastAccessedAt = s.now()
		rec.hydrated = true
	}
	var persistErr error
	if s.mode == ModeLocal {
		persistErr = s.persistLocked()
	}
	s.mu.Unlock()
	if persistErr != nil {
		return fmt.Errorf("save local sessions: %w", persistErr)
	}
	s.recordEvent(telemetry.Event{Kind: telemetry.KindHistoryClear, SessionID: sessionID})
	return nil
}

// Delete removes a session everywhere. Write failures propagate before the
// mirror changes.
func (s *Store) Delete(ctx context.Context, userID, sessionID string) error {
	if s.mode == ModeRemote {
		if err := s.backend.DeleteSession(ctx, userID, sessionID); err != nil {
			return fmt.Errorf("delete session: %w", err)
		}
	}
	s.mu.Lock()
	s.removeLocked(sessionID)
	var persistErr error
	if s.mode == ModeLocal {
		persistErr = s.persistLocked()
	}
	s.mu.Unlock()
	if persistErr != nil {
		return fmt.Errorf("save local sessions: %w", persistErr)
	}
	s.recordEvent(telemetry.Event{Kind: telemetry.KindSessionDelete, SessionID: sessionID})
	return nil
}

// Refresh re-fetches the session list from the backend and replaces the
// mirror. Local mode has nothing fresher than the mirror, so it is a no-op.
// On failure the existing mirror is kept and returned with the error.
func (s *Store) Refresh(ctx context.Context, userID string) ([]*types.Session, error) {
	if s.mode == ModeLocal {
		return s.ListAll(), nil
	}
	sessions, err := s.backend.ListSessions(ctx, userID)
	if err != nil {
		s.recordEvent(telemetry.Event{Kind: telemetry.KindStoreSync, Err: err.Error()})
		return s.ListAll(), backendUnavailable("refresh sessions", err)
	}
	s.mu.Lock()
	s.records = make(map[string]*record)
	s.order = nil
	for _, sess := range sessions {
		s.addLocked(sess, sess.Messages != nil)
	}
	s.mu.Unlock()
	s.recordEvent(telemetry.Event{Kind: telemetry.KindStoreSync})
	return s.ListAll(), nil
}

// ClearAll wipes the mirror and, in local mode, the persisted copy. Used on
// sign-out.
func (s *Store) ClearAll() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.records = make(map[string]*record)
	s.order = nil
	if s.mode == ModeLocal && s.userID != "" {
		if err := s.persist.Remove(storageKey(s.userID)); err != nil {
			return fmt.Errorf("remove local sessions: %w", err)
		}
	}
	return nil
}

func (s *Store) addLocked(sess *types.Session, hydrated bool) {
	id := sess.SessionID
	if _, exists := s.records[id]; !exists {
		s.order = append(s.order, id)
	}
	s.records[id] = &record{session: copySession(sess), hydrated: hydrated}
}

func (s *Store) removeLocked(sessionID string) {
	if _, ok := s.records[sessionID]; !ok {
		return
	}
	delete(s.records, sessionID)
	for i, id := range s.order {
		if id == sessionID {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) persistLocked() error {
	sessions := make([]*types.Session, 0, len(s.order))
	for _, id := range s.order {
		sessions = append(sessions, s.records[id].session)
	}
	data, err := json.MarshalIndent(sessions, "", "  ")
	if err != nil {
		return err
	}
	return s.persist.Save(storageKey(s.userID), string(data))
}

func (s *Store) recordEvent(ev telemetry.Event) {
	if s.recorder != nil {
		s.recorder.Record(ev)
	}
}

func storageKey(userID string) string {
	return "sessions-" + userID
}

// backendUnavailable tags err with ErrBackendUnavailable unless it already
// carries a taxonomy error, so sync failures always match the connectivity
// condition.
func backendUnavailable(op string, err error) error {
	if errors.Is(err, types.ErrBackendUnavailable) {
		return fmt.Errorf("%s: %w", op, err)
	}
	return fmt.Errorf("%s: %w: %w", op, types.ErrBackendUnavailable, err)
}

func copySession(in *types.Session) *types.Session {
	out := *in
	out.Messages = copyMessages(in.Messages)
	return &out
}

func copyMessages(in []types.Message) []types.Message {
	if in == nil {
		return nil
	}
	out := make([]types.Message, len(in))
	copy(out, in)
	return out
}
