// Package export renders an event's registrations as downloadable spreadsheets.
package export

import (
	"sort"
	"time"

	"github.com/eventdesk/backend/internal/models"
)

// DateLayout formats registration dates in every export format.
const DateLayout = "2006-01-02 15:04:05"

// Table is one row per registrant and one column per distinct answer label.
type Table struct {
	Labels []string
	Rows   []Row
}

// Row holds a registrant's answers aligned with Table.Labels. A nil entry means no answer.
type Row struct {
	Email  string
	Date   time.Time
	Values [][]string
}

// Header is Email, Date, then the answer labels in order.
func (t Table) Header() []string {
	return append([]string{"Email", "Date"}, t.Labels...)
}

// BuildTable collects the distinct answer labels across all registrants, sorted,
// and aligns every registrant's selected options under them.
func BuildTable(summaries []models.RegistrationSummary) Table {
	seen := make(map[string]bool)
	var labels []string
	for _, s := range summaries {
		for _, a := range s.Answers {
			if !seen[a.Label] {
				seen[a.Label] = true
				labels = append(labels, a.Label)
			}
		}
	}
	sort.Strings(labels)
	col := make(map[string]int, len(labels))
	for i, l := range labels {
		col[l] = i
	}

	rows := make([]Row, 0, len(summaries))
	for _, s := range summaries {
		values := make([][]string, len(labels))
		for _, a := range s.Answers {
			i := col[a.Label]
			if values[i] != nil {
				continue
			}
			values[i] = append([]string{}, a.Options...)
		}
		rows = append(rows, Row{Email: s.Email, Date: s.Date, Values: values})
	}
	return Table{Labels: labels, Rows: rows}
}
