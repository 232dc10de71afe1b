package emerald

import (
	"strings"
	"sync"
)

// Role is the resolved privilege level of an actor. It is computed from the
// session, never stored.
type Role string

const (
	RoleAnonymous Role = "anonymous"
	RoleUser      Role = "user"
	RoleAdmin     Role = "admin"
)

// Session is the payload of an auth-provider event. A nil *Session means
// signed out.
type Session struct {
	Email  string
	UserID string
	Name   string
}

// Actor is the current user attempting an operation. It is recreated on
// every auth event or request.
type Actor struct {
	Authenticated bool
	Email         string
	UserID        string
	Name          string
	Role          Role
}

// ResolveRole returns the role of an authenticated actor: admin iff email
// case-insensitively equals adminEmail. An empty adminEmail means no one is
// ever admin.
func ResolveRole(email, adminEmail string) Role {
	if adminEmail != "" && strings.EqualFold(email, adminEmail) {
		return RoleAdmin
	}
	return RoleUser
}

// ResolveActor derives an Actor from a session event.
func ResolveActor(s *Session, adminEmail string) Actor {
	if s == nil || s.UserID == "" {
		return Actor{Role: RoleAnonymous}
	}
	return Actor{
		Authenticated: true,
		Email:         s.Email,
		UserID:        s.UserID,
		Name:          s.Name,
		Role:          ResolveRole(s.Email, adminEmail),
	}
}

// SessionBus is the in-process session-change stream. Login publishes a
// *Session, logout publishes nil; subscribers are invoked synchronously.
type SessionBus struct {
	mu   sync.Mutex
	subs map[int]func(*Session)
	next int
}

// NewSessionBus creates an empty SessionBus.
func NewSessionBus() *SessionBus {
	return &SessionBus{subs: make(map[int]func(*Session))}
}

// Subscribe registers fn for session events and returns an unsubscribe
// function. Unsubscribing twice is a no-op.
func (b *SessionBus) Subscribe(fn func(*Session)) func() {
	b.mu.Lock()
	id := b.next
	b.next++
	b.subs[id] = fn
	b.mu.Unlock()
	return func() {
		b.mu.Lock()
		delete(b.subs, id)
		b.mu.Unlock()
	}
}

// Publish delivers a session event to every subscriber.
func (b *SessionBus) Publish(s *Session) {
	b.mu.Lock()
	fns := make([]func(*Session), 0, len(b.subs))
	for _, fn := range b.subs {
		fns = append(fns, fn)
	}
	b.mu.Unlock()
	for _, fn := range fns {
		fn(s)
	}
}

// Resolver tracks the current actor across session events. It subscribes to
// a SessionBus on construction and must be closed to release the
// subscription.
type Resolver struct {
	adminEmail string
	unsub      func()

	mu        sync.Mutex
	actor     Actor
	listeners map[int]func(Actor)
	next      int
}

// NewResolver subscribes to bus and starts tracking the actor. The initial
// actor is anonymous until the first event arrives.
func NewResolver(bus *SessionBus, adminEmail string) *Resolver {
	r := &Resolver{
		adminEmail: adminEmail,
		actor:      Actor{Role: RoleAnonymous},
		listeners:  make(map[int]func(Actor)),
	}
	r.unsub = bus.Subscribe(r.onSession)
	return r
}

func (r *Resolver) onSession(s *Session) {
	actor := ResolveActor(s, r.adminEmail)
	r.mu.Lock()
	r.actor = actor
	fns := make([]func(Actor), 0, len(r.listeners))
	for _, fn := range r.listeners {
		fns = append(fns, fn)
	}
	r.mu.Unlock()
	for _, fn := range fns {
		fn(actor)
	}
}

// Actor returns the most recently resolved actor.
func (r *Resolver) Actor() Actor {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.actor
}

// OnChange registers fn to run on every resolved actor change and returns an
// unregister function.
func (r *Resolver) OnChange(fn func(Actor)) func() {
	r.mu.Lock()
	id := r.next
	r.next++
	r.listeners[id] = fn
	r.mu.Unlock()
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// Close releases the bus subscription. The resolver stops receiving events
// but keeps its last actor.
func (r *Resolver) Close() {
	if r.unsub != nil {
		r.unsub()
		r.unsub = nil
	}
}
