package emerald

import "testing"

func TestResolveRole(t *testing.T) {
	tests := []struct {
		name       string
		email      string
		adminEmail string
		want       Role
	}{
		{"exact match", "owner@example.com", "owner@example.com", RoleAdmin},
		{"case insensitive match", "Owner@Example.COM", "owner@example.com", RoleAdmin},
		{"different email", "visitor@example.com", "owner@example.com", RoleUser},
		{"no admin configured", "owner@example.com", "", RoleUser},
		{"empty session email", "", "owner@example.com", RoleUser},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ResolveRole(tt.email, tt.adminEmail); got != tt.want {
				t.Errorf("ResolveRole(%q, %q) = %q, want %q", tt.email, tt.adminEmail, got, tt.want)
			}
		})
	}
}

func TestResolveActor(t *testing.T) {
	actor := ResolveActor(nil, "owner@example.com")
	if actor.Authenticated || actor.Role != RoleAnonymous {
		t.Errorf("nil session should resolve anonymous, got %+v", actor)
	}

	actor = ResolveActor(&Session{Email: "owner@example.com", UserID: "u1"}, "owner@example.com")
	if !actor.Authenticated || actor.Role != RoleAdmin {
		t.Errorf("admin session should resolve admin, got %+v", actor)
	}

	actor = ResolveActor(&Session{Email: "visitor@example.com", UserID: "u2"}, "owner@example.com")
	if !actor.Authenticated || actor.Role != RoleUser {
		t.Errorf("authenticated non-admin should resolve user, got %+v", actor)
	}

	// A session without a user id is not authenticated.
	actor = ResolveActor(&Session{Email: "owner@example.com"}, "owner@example.com")
	if actor.Authenticated || actor.Role != RoleAnonymous {
		t.Errorf("session without user id should resolve anonymous, got %+v", actor)
	}
}

func TestSessionBusSubscribeAndUnsubscribe(t *testing.T) {
	bus := NewSessionBus()

	var got []*Session
	unsub := bus.Subscribe(func(s *Session) {
		got = append(got, s)
	})

	bus.Publish(&Session{UserID: "u1"})
	bus.Publish(nil)
	if len(got) != 2 {
		t.Fatalf("expected 2 events, got %d", len(got))
	}
	if got[0].UserID != "u1" || got[1] != nil {
		t.Errorf("unexpected events: %+v", got)
	}

	unsub()
	unsub() // second call is a no-op
	bus.Publish(&Session{UserID: "u2"})
	if len(got) != 2 {
		t.Errorf("unsubscribed listener still received events, got %d", len(got))
	}
}

func TestResolverTracksSessionEvents(t *testing.T) {
	bus := NewSessionBus()
	r := NewResolver(bus, "owner@example.com")
	defer r.Close()

	if r.Actor().Role != RoleAnonymous {
		t.Fatalf("initial actor should be anonymous, got %q", r.Actor().Role)
	}

	var changes []Actor
	unregister := r.OnChange(func(a Actor) {
		changes = append(changes, a)
	})
	defer unregister()

	bus.Publish(&Session{Email: "owner@example.com", UserID: "u1"})
	if r.Actor().Role != RoleAdmin {
		t.Errorf("actor after admin login = %q, want %q", r.Actor().Role, RoleAdmin)
	}

	bus.Publish(nil)
	if r.Actor().Role != RoleAnonymous {
		t.Errorf("actor after logout = %q, want %q", r.Actor().Role, RoleAnonymous)
	}

	if len(changes) != 2 {
		t.Errorf("expected 2 change notifications, got %d", len(changes))
	}
}

func TestResolverCloseStopsUpdates(t *testing.T) {
	bus := NewSessionBus()
	r := NewResolver(bus, "owner@example.com")

	bus.Publish(&Session{Email: "visitor@example.com", UserID: "u1"})
	r.Close()

	bus.Publish(&Session{Email: "owner@example.com", UserID: "u2"})
	if r.Actor().Role != RoleUser {
		t.Errorf("closed resolver should keep last actor, got %q", r.Actor().Role)
	}
}
