package statusview

import (
	"sync"
	"time"
)

// Session holds the workflow context of one dashboard page for as long as the
// page is open. The ancestor view updates it; descendant views read it.
type Session struct {
	id       string
	timeline *TimelineBuilder

	mutex      sync.RWMutex
	wc         WorkflowContext
	lastActive time.Time
	closed     bool
}

// ID returns the session ID.
func (s *Session) ID() string {
	return s.id
}

// Context returns a copy of the session's workflow context.
func (s *Session) Context() WorkflowContext {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.wc
}

// Update applies fn to the session's workflow context.
func (s *Session) Update(fn func(wc *WorkflowContext)) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	fn(&s.wc)
	if s.wc.Refresh == nil {
		s.wc.Refresh = func() {}
	}
	s.lastActive = time.Now()
}

// Touch marks the session as in use without changing its context.
func (s *Session) Touch() {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.lastActive = time.Now()
}

// Refresh invokes the session's refresh action.
func (s *Session) Refresh() {
	s.mutex.RLock()
	refresh := s.wc.Refresh
	s.mutex.RUnlock()

	refresh()
}

// Timeline returns the timeline description for the session's current
// status. It is only recomputed after the status has been replaced.
func (s *Session) Timeline() (string, bool) {
	return s.timeline.Build(s.Context().Status())
}

// TimelineBuilds returns how many times the session's timeline was computed.
func (s *Session) TimelineBuilds() int {
	return s.timeline.Builds()
}

// LastActive returns when the session was opened, last updated or touched.
func (s *Session) LastActive() time.Time {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.lastActive
}

// Closed reports whether the session has been torn down.
func (s *Session) Closed() bool {
	s.mutex.RLock()
	defer s.mutex.RUnlock()

	return s.closed
}

// Sessions is a registry of open sessions.
type Sessions struct {
	location *time.Location

	mutex    sync.Mutex
	sessions map[string]*Session
}

// NewSessions returns an empty registry. Timelines are formatted in loc.
func NewSessions(loc *time.Location) *Sessions {
	return &Sessions{
		location: loc,
		sessions: map[string]*Session{},
	}
}

// Open creates a session for the named workflow with a default context.
func (s *Sessions) Open(name string) *Session {
	wc := DefaultWorkflowContext()
	wc.Name = name
	session := &Session{
		id:         NewSessionID(),
		timeline:   NewTimelineBuilder(s.location),
		wc:         wc,
		lastActive: time.Now(),
	}

	s.mutex.Lock()
	defer s.mutex.Unlock()

	s.sessions[session.id] = session
	return session
}

// Get returns an open session.
func (s *Sessions) Get(id string) (*Session, bool) {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	session, ok := s.sessions[id]
	return session, ok
}

// Close tears a session down. It reports whether the session was open.
func (s *Sessions) Close(id string) bool {
	s.mutex.Lock()
	session, ok := s.sessions[id]
	delete(s.sessions, id)
	s.mutex.Unlock()

	if !ok {
		return false
	}
	session.mutex.Lock()
	session.wc = DefaultWorkflowContext()
	session.closed = true
	session.mutex.Unlock()
	return true
}

// Expire closes sessions idle for longer than maxIdle and returns how many
// were closed.
func (s *Sessions) Expire(maxIdle time.Duration) int {
	cutoff := time.Now().Add(-maxIdle)
	var idle []string

	s.mutex.Lock()
	for id, session := range s.sessions {
		if session.LastActive().Before(cutoff) {
			idle = append(idle, id)
		}
	}
	s.mutex.Unlock()

	closed := 0
	for _, id := range idle {
		if s.Close(id) {
			closed++
		}
	}
	return closed
}

// Len returns the number of open sessions.
func (s *Sessions) Len() int {
	s.mutex.Lock()
	defer s.mutex.Unlock()

	return len(s.sessions)
}
