package models

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// FieldKind tags the shape of a custom registration field.
type FieldKind string

const (
	FieldText         FieldKind = "text"
	FieldSingleChoice FieldKind = "single_choice"
	FieldMultiChoice  FieldKind = "multi_choice"
)

// IsChoice reports whether answers pick from a fixed option list.
func (k FieldKind) IsChoice() bool {
	return k == FieldSingleChoice || k == FieldMultiChoice
}

// Field is one admin-defined question on an event's registration form.
type Field struct {
	ID       int       `json:"id"`
	Kind     FieldKind `json:"type"`
	Label    string    `json:"name"`
	Required bool      `json:"required"`
	Options  []string  `json:"options"`
}

// Validate checks the field against the rules of its kind.
func (f Field) Validate() error {
	if strings.TrimSpace(f.Label) == "" {
		return errors.New("field name is required")
	}
	switch f.Kind {
	case FieldText:
		if len(f.Options) > 0 {
			return fmt.Errorf("field %q: text fields take no options", f.Label)
		}
	case FieldSingleChoice, FieldMultiChoice:
		if len(f.Options) == 0 {
			return fmt.Errorf("field %q: choice fields need at least one option", f.Label)
		}
		seen := make(map[string]struct{}, len(f.Options))
		for _, o := range f.Options {
			if strings.TrimSpace(o) == "" {
				return fmt.Errorf("field %q: options cannot be blank", f.Label)
			}
			if _, dup := seen[o]; dup {
				return fmt.Errorf("field %q: duplicate option %q", f.Label, o)
			}
			seen[o] = struct{}{}
		}
	default:
		return fmt.Errorf("field %q: unknown type %q", f.Label, f.Kind)
	}
	return nil
}

// HasOption reports whether o is one of the field's options.
func (f Field) HasOption(o string) bool {
	for _, opt := range f.Options {
		if opt == o {
			return true
		}
	}
	return false
}

// Event is an organizable happening with a signup deadline and optional capacity.
type Event struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Date           *time.Time `json:"date,omitempty"`
	SignupDeadline time.Time  `json:"signup_deadline"`
	Location       string     `json:"location"`
	PeopleLimit    *int       `json:"people_limit,omitempty"` // nil = unlimited
	Fields         []Field    `json:"fields"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// FieldByID returns the field with the given id.
func (e *Event) FieldByID(id int) (Field, bool) {
	for _, f := range e.Fields {
		if f.ID == id {
			return f, true
		}
	}
	return Field{}, false
}

// DeadlinePassed reports whether signups are closed at now.
func (e *Event) DeadlinePassed(now time.Time) bool {
	return now.After(e.SignupDeadline)
}

// SpotsLeft is peopleLimit minus registrations, or nil when unlimited.
func (e *Event) SpotsLeft(registered int) *int {
	if e.PeopleLimit == nil {
		return nil
	}
	left := *e.PeopleLimit - registered
	return &left
}

// IsFull reports whether no seat is left for one more registration.
func (e *Event) IsFull(registered int) bool {
	return e.PeopleLimit != nil && registered >= *e.PeopleLimit
}

// EventWithCount pairs an event with its current registrant count.
type EventWithCount struct {
	Event
	Registered int
}

// EventSummary is the list projection of an event.
type EventSummary struct {
	ID             uuid.UUID  `json:"id"`
	Name           string     `json:"name"`
	Description    string     `json:"description"`
	Date           *time.Time `json:"date,omitempty"`
	SignupDeadline time.Time  `json:"signup_deadline"`
	Location       string     `json:"location"`
	PeopleLimit    *int       `json:"people_limit,omitempty"`
	SpotsLeft      *int       `json:"spots_left,omitempty"`
	CreatedAt      time.Time  `json:"created_at"`
	UpdatedAt      time.Time  `json:"updated_at"`
}

// EventDetails is the single-event projection for a requesting user.
type EventDetails struct {
	EventSummary
	Fields       []Field `json:"fields"`
	UserSignedUp bool    `json:"user_signed_up"`
}

// Summary projects the event with its registrant count.
func (e EventWithCount) Summary() EventSummary {
	return EventSummary{
		ID:             e.ID,
		Name:           e.Name,
		Description:    e.Description,
		Date:           e.Date,
		SignupDeadline: e.SignupDeadline,
		Location:       e.Location,
		PeopleLimit:    e.PeopleLimit,
		SpotsLeft:      e.SpotsLeft(e.Registered),
		CreatedAt:      e.CreatedAt,
		UpdatedAt:      e.UpdatedAt,
	}
}

// EventPatch carries a partial update; nil members are left unchanged.
type EventPatch struct {
	Name           *string
	Description    *string
	Date           *time.Time
	SignupDeadline *time.Time
	Location       *string
	PeopleLimit    *int
	Fields         []Field // nil = unchanged, non-nil replaces the list
}

// Registrant is a registered user as needed for notifications.
type Registrant struct {
	UserID uuid.UUID
	Email  string
}
