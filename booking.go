package emerald

import (
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// BookingIntake validates and persists session-booking requests. There is no
// deduplication, rate limiting, or email-format validation beyond presence;
// an external process works the pending queue.
type BookingIntake struct {
	store Store
}

// NewBookingIntake creates an intake over the given store.
func NewBookingIntake(store Store) *BookingIntake {
	return &BookingIntake{store: store}
}

// Submit persists a booking with status "pending" and returns its id. Name,
// email, and phone are required; message defaults to the empty string.
func (bi *BookingIntake) Submit(name, email, phone, message string) (string, error) {
	name = strings.TrimSpace(name)
	email = strings.TrimSpace(email)
	phone = strings.TrimSpace(phone)
	if name == "" {
		return "", &ValidationError{Field: "name"}
	}
	if email == "" {
		return "", &ValidationError{Field: "email"}
	}
	if phone == "" {
		return "", &ValidationError{Field: "phone"}
	}
	b := Booking{
		ID:        uuid.NewString(),
		Name:      name,
		Email:     email,
		Phone:     phone,
		Message:   strings.TrimSpace(message),
		Status:    BookingStatusPending,
		CreatedAt: time.Now().UTC(),
	}
	if err := bi.store.SaveBooking(b); err != nil {
		return "", fmt.Errorf("save booking: %w", err)
	}
	return b.ID, nil
}

// List returns all bookings, newest first. Admin only.
func (bi *BookingIntake) List(actor Actor) ([]Booking, error) {
	if actor.Role != RoleAdmin {
		return nil, &AuthorizationError{Action: "list bookings"}
	}
	return bi.store.ListBookings()
}
