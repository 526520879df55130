package notify

import (
	"bytes"
	"embed"
	"fmt"
	htmltemplate "html/template"
	"io/fs"
	"strings"
	texttemplate "text/template"

	"gopkg.in/yaml.v3"

	"github.com/eventdesk/backend/internal/models"
)

// DefaultLocale is the only locale shipped.
const DefaultLocale = "en"

//go:embed locales/*/notifications.yaml
var embeddedLocales embed.FS

type catalogFile struct {
	Locale     string `yaml:"locale"`
	DateFormat string `yaml:"date_format"`
	Undated    string `yaml:"undated"`
	Messages   map[models.NotificationKind]struct {
		Subject string `yaml:"subject"`
		Body    string `yaml:"body"`
	} `yaml:"messages"`
}

type message struct {
	subject *texttemplate.Template
	body    *htmltemplate.Template
}

// Catalog renders notification templates for one locale.
type Catalog struct {
	locale     string
	dateFormat string
	undated    string
	team       string
	messages   map[models.NotificationKind]message
}

// MessageData is the template input.
type MessageData struct {
	UserName  string
	EventName string
	EventDate string
	Team      string
}

var allKinds = []models.NotificationKind{
	models.NotifyEventCancelled,
	models.NotifyEventModified,
	models.NotifyRegistrationConfirmed,
	models.NotifyRegistrationWithdrawn,
	models.NotifyRegistrationRemoved,
}

// LoadCatalog parses the embedded catalog for locale. team signs the messages.
func LoadCatalog(locale, team string) (*Catalog, error) {
	return LoadCatalogFS(embeddedLocales, locale, team)
}

// LoadCatalogFS parses locales/<locale>/notifications.yaml from fsys.
func LoadCatalogFS(fsys fs.FS, locale, team string) (*Catalog, error) {
	path := "locales/" + locale + "/notifications.yaml"
	data, err := fs.ReadFile(fsys, path)
	if err != nil {
		return nil, fmt.Errorf("read catalog %s: %w", path, err)
	}
	var file catalogFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return nil, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if strings.TrimSpace(file.Locale) != locale {
		return nil, fmt.Errorf("catalog %s: locale %q must match path locale %q", path, file.Locale, locale)
	}
	if file.DateFormat == "" {
		return nil, fmt.Errorf("catalog %s: date_format is required", path)
	}

	c := &Catalog{
		locale:     locale,
		dateFormat: file.DateFormat,
		undated:    file.Undated,
		team:       team,
		messages:   make(map[models.NotificationKind]message, len(allKinds)),
	}
	for _, kind := range allKinds {
		m, ok := file.Messages[kind]
		if !ok {
			return nil, fmt.Errorf("catalog %s: missing message %q", path, kind)
		}
		subject, err := texttemplate.New(string(kind)).Option("missingkey=error").Parse(m.Subject)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %s subject: %w", path, kind, err)
		}
		body, err := htmltemplate.New(string(kind)).Option("missingkey=error").Parse(m.Body)
		if err != nil {
			return nil, fmt.Errorf("catalog %s: %s body: %w", path, kind, err)
		}
		c.messages[kind] = message{subject: subject, body: body}
	}
	return c, nil
}

// Locale returns the catalog locale.
func (c *Catalog) Locale() string { return c.locale }

// Render produces subject and HTML body for kind.
func (c *Catalog) Render(kind models.NotificationKind, data MessageData) (subject, body string, err error) {
	m, ok := c.messages[kind]
	if !ok {
		return "", "", fmt.Errorf("unknown notification kind %q", kind)
	}
	if data.Team == "" {
		data.Team = c.team
	}
	var sb, bb bytes.Buffer
	if err := m.subject.Execute(&sb, data); err != nil {
		return "", "", fmt.Errorf("render %s subject: %w", kind, err)
	}
	if err := m.body.Execute(&bb, data); err != nil {
		return "", "", fmt.Errorf("render %s body: %w", kind, err)
	}
	return strings.TrimSpace(sb.String()), bb.String(), nil
}
