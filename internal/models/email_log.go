package models

import (
	"time"

	"github.com/google/uuid"
)

// NotificationKind selects the message template of an email.
type NotificationKind string

const (
	NotifyEventCancelled        NotificationKind = "event_cancelled"
	NotifyEventModified         NotificationKind = "event_modified"
	NotifyRegistrationConfirmed NotificationKind = "registration_confirmed"
	NotifyRegistrationWithdrawn NotificationKind = "registration_withdrawn"
	NotifyRegistrationRemoved   NotificationKind = "registration_removed"
)

// EmailLogStatus for delivery.
const (
	EmailLogStatusPending = "pending"
	EmailLogStatusSent    = "sent"
	EmailLogStatusFailed  = "failed"
)

// EmailLog is an outbox row: written with the mutation it reports on, delivered afterwards.
type EmailLog struct {
	ID             uuid.UUID        `json:"id"`
	EventID        *uuid.UUID       `json:"event_id,omitempty"`
	UserID         *uuid.UUID       `json:"user_id,omitempty"`
	Kind           NotificationKind `json:"kind"`
	RecipientEmail string           `json:"recipient_email"`
	Subject        string           `json:"subject"`
	BodyHTML       string           `json:"-"`
	Status         string           `json:"status"`
	Attempts       int              `json:"attempts"`
	SentAt         *time.Time       `json:"sent_at,omitempty"`
	ErrorMessage   string           `json:"error_message,omitempty"`
	CreatedAt      time.Time        `json:"created_at"`
}
