package emerald

import (
	"errors"
	"testing"
)

func setupTestIntake(t *testing.T) *BookingIntake {
	t.Helper()
	return NewBookingIntake(setupTestStore(t))
}

func TestSubmitBookingValidation(t *testing.T) {
	intake := setupTestIntake(t)

	tests := []struct {
		name, email, phone string
	}{
		{"", "e@x.com", "123"},
		{"Jo", "", "123"},
		{"Jo", "e@x.com", ""},
		{"   ", "e@x.com", "123"},
	}
	for _, tt := range tests {
		var ve *ValidationError
		if _, err := intake.Submit(tt.name, tt.email, tt.phone, ""); !errors.As(err, &ve) {
			t.Errorf("Submit(%q, %q, %q): expected ValidationError, got %v", tt.name, tt.email, tt.phone, err)
		}
	}
}

func TestSubmitBookingSuccess(t *testing.T) {
	intake := setupTestIntake(t)

	id, err := intake.Submit("Jo", "e@x.com", "123", "")
	if err != nil {
		t.Fatalf("Submit failed: %v", err)
	}
	if id == "" {
		t.Fatal("expected a booking id")
	}

	bookings, err := intake.List(adminActor)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bookings) != 1 {
		t.Fatalf("bookings count = %d, want 1", len(bookings))
	}
	b := bookings[0]
	if b.ID != id {
		t.Errorf("ID = %q, want %q", b.ID, id)
	}
	if b.Status != BookingStatusPending {
		t.Errorf("Status = %q, want %q", b.Status, BookingStatusPending)
	}
	if b.Message != "" {
		t.Errorf("Message = %q, want empty default", b.Message)
	}
}

func TestListBookingsRequiresAdmin(t *testing.T) {
	intake := setupTestIntake(t)

	var ae *AuthorizationError
	if _, err := intake.List(userActor); !errors.As(err, &ae) {
		t.Errorf("user actor: expected AuthorizationError, got %v", err)
	}
	if _, err := intake.List(Actor{Role: RoleAnonymous}); !errors.As(err, &ae) {
		t.Errorf("anonymous actor: expected AuthorizationError, got %v", err)
	}
}
