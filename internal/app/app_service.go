package app

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"portfolio-agent/internal/core"
)

// session pairs a conversation state with its own lock so that one session's
// turns run strictly one after another while different sessions proceed in
// parallel over the shared read-only dataset.
type session struct {
	mu    sync.Mutex
	state *core.ConversationState
}

// sessionStore is a thread-safe in-memory session registry.
type sessionStore struct {
	mu       sync.Mutex
	sessions map[string]*session
}

func newSessionStore() *sessionStore {
	return &sessionStore{sessions: make(map[string]*session)}
}

// getOrCreate returns the session for id, creating it (and minting an ID
// when id is empty) on first use.
func (s *sessionStore) getOrCreate(id string) (string, *session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if id == "" {
		id = uuid.NewString()
	}
	sess, ok := s.sessions[id]
	if !ok {
		sess = &session{state: core.NewConversationState(id)}
		s.sessions[id] = sess
	}
	return id, sess
}

func (s *sessionStore) get(id string) (*session, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	sess, ok := s.sessions[id]
	return sess, ok
}

func (s *sessionStore) delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

type appService struct {
	ds       *core.Dataset
	pipeline *core.Pipeline
	store    *sessionStore
	now      func() time.Time
}

// AppServiceOption customizes the service.
type AppServiceOption func(*appService)

// WithClock overrides the wall clock used to derive the reference period for
// relative date terms. Intended for tests and replay.
func WithClock(now func() time.Time) AppServiceOption {
	return func(a *appService) { a.now = now }
}

// NewAppService wires the ApplicationService over a loaded dataset and a
// configured pipeline.
func NewAppService(ds *core.Dataset, pipeline *core.Pipeline, opts ...AppServiceOption) ApplicationService {
	a := &appService{
		ds:       ds,
		pipeline: pipeline,
		store:    newSessionStore(),
		now:      time.Now,
	}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

func (a *appService) Chat(ctx context.Context, sessionID, text string) (*ChatResult, error) {
	if strings.TrimSpace(text) == "" {
		return nil, fmt.Errorf("empty message")
	}

	id, sess := a.store.getOrCreate(sessionID)
	sess.mu.Lock()
	defer sess.mu.Unlock()

	ref := core.CurrentPeriod(a.now())
	turn := a.pipeline.Turn(ctx, sess.state, text, ref)

	reply := renderTurn(turn)
	sess.state.Append(core.RoleAssistant, reply)

	return &ChatResult{
		SessionID:     id,
		Intent:        turn.Intent,
		Confidence:    turn.Confidence,
		Reply:         reply,
		Result:        turn.Result,
		Clarification: turn.Clarification,
	}, nil
}

func (a *appService) ResetSession(_ context.Context, sessionID string) error {
	if _, ok := a.store.get(sessionID); !ok {
		return fmt.Errorf("session %s not found", sessionID)
	}
	a.store.delete(sessionID)
	return nil
}

func (a *appService) GetHistory(_ context.Context, sessionID string) ([]core.Message, error) {
	sess, ok := a.store.get(sessionID)
	if !ok {
		return nil, fmt.Errorf("session %s not found", sessionID)
	}
	sess.mu.Lock()
	defer sess.mu.Unlock()
	out := make([]core.Message, len(sess.state.Messages))
	copy(out, sess.state.Messages)
	return out, nil
}

func (a *appService) ListProperties(_ context.Context) (*PropertyListResult, error) {
	return &PropertyListResult{Properties: a.ds.Properties()}, nil
}

func (a *appService) ListTenants(_ context.Context) (*TenantListResult, error) {
	return &TenantListResult{Tenants: a.ds.Tenants()}, nil
}
