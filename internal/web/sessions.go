package web

import (
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/edgard/botbuilder/internal/setup"
)

// Sessions maps visitor cookies to their form. Everything is in memory and
// disappears on restart or after the idle TTL.
type Sessions struct {
	cookieName string
	ttl        time.Duration
	newForm    func() *setup.Form
	now        func() time.Time

	mu      sync.Mutex
	entries map[string]*session
}

type session struct {
	form     *setup.Form
	lastSeen time.Time
}

// NewSessions creates a store that builds a fresh form for every new visitor.
func NewSessions(cookieName string, ttl time.Duration, newForm func() *setup.Form) *Sessions {
	return &Sessions{
		cookieName: cookieName,
		ttl:        ttl,
		newForm:    newForm,
		now:        time.Now,
		entries:    make(map[string]*session),
	}
}

// Lookup returns the form of a known session without starting one.
func (s *Sessions) Lookup(r *http.Request) (*setup.Form, bool) {
	id := s.sessionID(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	entry, ok := s.entries[id]
	if !ok {
		return nil, false
	}
	entry.lastSeen = s.now()
	return entry.form, true
}

// Blank returns a fresh form that belongs to no session.
func (s *Sessions) Blank() *setup.Form {
	return s.newForm()
}

// Form returns the visitor's form, starting a session (and setting the
// cookie) when the request carries no known session id.
func (s *Sessions) Form(w http.ResponseWriter, r *http.Request) *setup.Form {
	id := s.sessionID(r)

	s.mu.Lock()
	defer s.mu.Unlock()

	if entry, ok := s.entries[id]; ok {
		entry.lastSeen = s.now()
		return entry.form
	}

	id = uuid.NewString()
	entry := &session{form: s.newForm(), lastSeen: s.now()}
	s.entries[id] = entry

	http.SetCookie(w, &http.Cookie{
		Name:     s.cookieName,
		Value:    id,
		Path:     "/",
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return entry.form
}

func (s *Sessions) sessionID(r *http.Request) string {
	c, err := r.Cookie(s.cookieName)
	if err != nil {
		return ""
	}
	parsed, err := uuid.Parse(c.Value)
	if err != nil {
		return ""
	}
	return parsed.String()
}

// Sweep drops sessions idle for longer than the TTL and reports how many
// were removed. Sessions with a submission in flight are kept.
func (s *Sessions) Sweep() int {
	cutoff := s.now().Add(-s.ttl)

	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, entry := range s.entries {
		if entry.lastSeen.After(cutoff) || entry.form.Snapshot().Loading {
			continue
		}
		delete(s.entries, id)
		removed++
	}
	return removed
}

// Len reports the number of live sessions.
func (s *Sessions) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
