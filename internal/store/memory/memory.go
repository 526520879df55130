// Package memory implements every store port in process memory. One lock
// guards all tables, so each operation is its own serialized transaction.
package memory

import (
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/eventdesk/backend/internal/models"
)

type regKey struct {
	eventID uuid.UUID
	userID  uuid.UUID
}

// DB is the shared in-memory dataset.
type DB struct {
	mu        sync.Mutex
	users     map[uuid.UUID]*models.User
	events    map[uuid.UUID]*models.Event
	regs      map[regKey]*models.Registration
	emailLogs map[uuid.UUID]*models.EmailLog
	logOrder  []uuid.UUID
}

// New creates an empty dataset.
func New() *DB {
	return &DB{
		users:     map[uuid.UUID]*models.User{},
		events:    map[uuid.UUID]*models.Event{},
		regs:      map[regKey]*models.Registration{},
		emailLogs: map[uuid.UUID]*models.EmailLog{},
	}
}

// Events returns the events table view.
func (db *DB) Events() *Events { return &Events{db: db} }

// Registrations returns the registrations table view.
func (db *DB) Registrations() *Registrations { return &Registrations{db: db} }

// Users returns the users table view.
func (db *DB) Users() *Users { return &Users{db: db} }

// EmailLogs returns the email outbox view.
func (db *DB) EmailLogs() *EmailLogs { return &EmailLogs{db: db} }

func (db *DB) countRegs(eventID uuid.UUID) int {
	n := 0
	for k := range db.regs {
		if k.eventID == eventID {
			n++
		}
	}
	return n
}

func (db *DB) registrants(eventID uuid.UUID) []models.Registrant {
	var out []models.Registrant
	for k, r := range db.regs {
		if k.eventID != eventID {
			continue
		}
		email := ""
		if u, ok := db.users[r.UserID]; ok {
			email = u.Email
		}
		out = append(out, models.Registrant{UserID: r.UserID, Email: email})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Email < out[j].Email })
	return out
}

func (db *DB) insertLogs(logs []models.EmailLog) {
	for i := range logs {
		l := logs[i]
		db.emailLogs[l.ID] = &l
		db.logOrder = append(db.logOrder, l.ID)
	}
}

func copyEvent(ev *models.Event) models.Event {
	out := *ev
	if ev.Date != nil {
		d := *ev.Date
		out.Date = &d
	}
	if ev.PeopleLimit != nil {
		l := *ev.PeopleLimit
		out.PeopleLimit = &l
	}
	out.Fields = make([]models.Field, len(ev.Fields))
	for i, f := range ev.Fields {
		f.Options = append([]string{}, f.Options...)
		out.Fields[i] = f
	}
	return out
}

func copyAnswers(in []models.Answer) []models.Answer {
	out := make([]models.Answer, len(in))
	for i, a := range in {
		a.Options = append([]string{}, a.Options...)
		out[i] = a
	}
	return out
}

func copyRegistration(r *models.Registration) models.Registration {
	out := *r
	out.Answers = copyAnswers(r.Answers)
	return out
}
