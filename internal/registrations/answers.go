package registrations

import (
	"fmt"
	"strings"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
)

// validateAnswers checks answers against the event form and returns a normalized copy.
// Blank labels take the field label; supplied labels are kept verbatim.
func validateAnswers(ev *models.Event, answers []models.Answer) ([]models.Answer, error) {
	out := make([]models.Answer, 0, len(answers))
	seen := make(map[int]bool, len(answers))
	for _, a := range answers {
		f, ok := ev.FieldByID(a.FieldID)
		if !ok {
			return nil, apperr.Validation(fmt.Sprintf("unknown field id %d", a.FieldID))
		}
		if seen[a.FieldID] {
			return nil, apperr.Validation(fmt.Sprintf("field %q answered more than once", f.Label))
		}
		seen[a.FieldID] = true

		if err := checkOptions(f, a.Options); err != nil {
			return nil, err
		}
		if a.Label == "" {
			a.Label = f.Label
		}
		if a.Options == nil {
			a.Options = []string{}
		}
		out = append(out, a)
	}
	for _, f := range ev.Fields {
		if f.Required && !answered(out, f.ID) {
			return nil, apperr.Validation(fmt.Sprintf("field %q is required", f.Label))
		}
	}
	return out, nil
}

func checkOptions(f models.Field, opts []string) error {
	switch f.Kind {
	case models.FieldText:
		if len(opts) > 1 {
			return apperr.Validation(fmt.Sprintf("field %q takes a single text value", f.Label))
		}
	case models.FieldSingleChoice:
		if len(opts) > 1 {
			return apperr.Validation(fmt.Sprintf("field %q takes exactly one option", f.Label))
		}
		fallthrough
	case models.FieldMultiChoice:
		picked := make(map[string]bool, len(opts))
		for _, o := range opts {
			if !f.HasOption(o) {
				return apperr.Validation(fmt.Sprintf("field %q has no option %q", f.Label, o))
			}
			if picked[o] {
				return apperr.Validation(fmt.Sprintf("field %q: option %q selected twice", f.Label, o))
			}
			picked[o] = true
		}
	}
	return nil
}

func answered(answers []models.Answer, fieldID int) bool {
	for _, a := range answers {
		if a.FieldID != fieldID {
			continue
		}
		for _, o := range a.Options {
			if strings.TrimSpace(o) != "" {
				return true
			}
		}
	}
	return false
}
