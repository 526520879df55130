package models

import (
	"time"

	"github.com/google/uuid"
)

// Answer is a registrant's response to one field.
type Answer struct {
	FieldID int      `json:"id"`
	Label   string   `json:"name"`
	Options []string `json:"options"`
}

// Registration is one user's signup for one event, keyed by (EventID, UserID).
type Registration struct {
	EventID   uuid.UUID `json:"event_id"`
	UserID    uuid.UUID `json:"user_id"`
	Date      time.Time `json:"date"`
	Answers   []Answer  `json:"answers"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// RegistrationSummary is the per-registrant row used by listings and export.
type RegistrationSummary struct {
	UserID  uuid.UUID `json:"user_id"`
	Email   string    `json:"email"`
	Date    time.Time `json:"date"`
	Answers []Answer  `json:"answers"`
}

// RegistrationDetail is a registration loaded with its event and user email.
type RegistrationDetail struct {
	Registration
	Event Event
	Email string
}

// SignupState is what a registration attempt is decided on, read under the event lock.
type SignupState struct {
	Event      *Event
	Registered int
	Exists     bool
	Email      string
}
