package server

import (
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	lru "github.com/hashicorp/golang-lru/v2"
	"github.com/mobile-next/gestures/commands"
	"github.com/mobile-next/gestures/props"
	"github.com/mobile-next/gestures/types"
	"github.com/mobile-next/gestures/utils"
)

// Session is one interpreter pipeline owned by a client. Calls on the
// pipeline are serialized by mu.
type Session struct {
	ID      string
	Created time.Time

	mu       sync.Mutex
	pipeline *commands.Pipeline
}

// Do runs fn with the session locked.
func (s *Session) Do(fn func(p *commands.Pipeline)) {
	s.mu.Lock()
	defer s.mu.Unlock()
	fn(s.pipeline)
}

// SessionStore keeps at most a fixed number of sessions, dropping the least
// recently used one when full.
type SessionStore struct {
	cache       *lru.Cache[string, *Session]
	logCapacity int
	propsFile   string
}

func NewSessionStore(maxSessions, logCapacity int, propsFile string) (*SessionStore, error) {
	cache, err := lru.NewWithEvict[string, *Session](maxSessions, func(id string, _ *Session) {
		utils.Verbose("session %s evicted", id)
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create session cache: %w", err)
	}

	return &SessionStore{
		cache:       cache,
		logCapacity: logCapacity,
		propsFile:   propsFile,
	}, nil
}

// Create starts a new pipeline for hwprops. logCapacity overrides the
// store's default when positive.
func (st *SessionStore) Create(hwprops types.HardwareProperties, logCapacity int) (*Session, error) {
	if logCapacity <= 0 {
		logCapacity = st.logCapacity
	}

	pipeline, unknown, err := commands.NewPipeline(hwprops, logCapacity, st.propsFile)
	if err != nil {
		return nil, err
	}
	for _, name := range unknown {
		utils.Warn("property file %s: unknown property %q", st.propsFile, name)
	}

	session := &Session{
		ID:       uuid.New().String(),
		Created:  time.Now(),
		pipeline: pipeline,
	}
	st.cache.Add(session.ID, session)
	utils.Verbose("session %s created", session.ID)
	return session, nil
}

func (st *SessionStore) Get(id string) (*Session, error) {
	if id == "" {
		return nil, fmt.Errorf("'sessionId' is required")
	}
	session, ok := st.cache.Get(id)
	if !ok {
		return nil, fmt.Errorf("session not found: %s", id)
	}
	return session, nil
}

// Remove closes a session and reports whether it existed.
func (st *SessionStore) Remove(id string) bool {
	return st.cache.Remove(id)
}

func (st *SessionStore) Len() int {
	return st.cache.Len()
}

// Each calls fn for every live session with that session locked.
func (st *SessionStore) Each(fn func(s *Session, p *commands.Pipeline)) {
	for _, id := range st.cache.Keys() {
		session, ok := st.cache.Peek(id)
		if !ok {
			continue
		}
		session.Do(func(p *commands.Pipeline) {
			fn(session, p)
		})
	}
}

// ApplyProperties pushes reloaded override values into every session.
func (st *SessionStore) ApplyProperties(values map[string]interface{}) {
	st.Each(func(s *Session, p *commands.Pipeline) {
		if _, err := props.Apply(p.Registry, values); err != nil {
			utils.Warn("session %s: %v", s.ID, err)
		}
	})
}
