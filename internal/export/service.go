package export

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"go.uber.org/zap"

	"github.com/eventdesk/backend/internal/models"
	"github.com/eventdesk/backend/pkg/apperr"
	"github.com/eventdesk/backend/pkg/clock"
	"github.com/eventdesk/backend/pkg/storage"
)

// Format is an export file type.
type Format string

const (
	FormatCSV  Format = "csv"
	FormatXLSX Format = "xlsx"
)

// ErrArchiveDisabled is returned by Archive when no object store is configured.
var ErrArchiveDisabled = errors.New("export archive storage not configured")

// ParseFormat accepts csv or xlsx, case-insensitively; empty means csv.
func ParseFormat(s string) (Format, error) {
	switch Format(strings.ToLower(strings.TrimSpace(s))) {
	case "", FormatCSV:
		return FormatCSV, nil
	case FormatXLSX:
		return FormatXLSX, nil
	}
	return "", apperr.Validation(fmt.Sprintf("unsupported export format %q", s))
}

// ContentType is the MIME type served for f.
func (f Format) ContentType() string {
	if f == FormatXLSX {
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/csv; charset=utf-8"
}

// Filename is the attachment name offered to browsers.
func (f Format) Filename() string {
	return "submissions." + string(f)
}

// Registrations lists an event's registrants.
type Registrations interface {
	ListByEvent(ctx context.Context, eventID uuid.UUID) ([]models.RegistrationSummary, error)
}

// Events reports whether an event exists.
type Events interface {
	Exists(ctx context.Context, id uuid.UUID) (bool, error)
}

// Archiver stores rendered exports and returns a download URL.
type Archiver interface {
	PutExport(ctx context.Context, key, contentType string, data []byte) (string, error)
}

var _ Archiver = (*storage.S3)(nil)

// Archive describes an uploaded export.
type Archive struct {
	Key    string `json:"key"`
	URL    string `json:"url"`
	Format Format `json:"format"`
}

// Service renders registration exports.
type Service struct {
	events   Events
	regs     Registrations
	archiver Archiver
	clock    clock.Clock
	logger   *zap.Logger
}

// NewService creates an export service. archiver may be nil.
func NewService(events Events, regs Registrations, archiver Archiver, clk clock.Clock, logger *zap.Logger) *Service {
	if logger == nil {
		logger = zap.NewNop()
	}
	if clk == nil {
		clk = clock.System{}
	}
	return &Service{events: events, regs: regs, archiver: archiver, clock: clk, logger: logger}
}

// Render builds the export of eventID in format f; NotFound when the event does not exist.
func (s *Service) Render(ctx context.Context, eventID uuid.UUID, f Format) ([]byte, error) {
	ok, err := s.events.Exists(ctx, eventID)
	if err != nil {
		return nil, fmt.Errorf("check event: %w", err)
	}
	if !ok {
		return nil, apperr.NotFound("event not found")
	}
	list, err := s.regs.ListByEvent(ctx, eventID)
	if err != nil {
		return nil, err
	}
	t := BuildTable(list)
	if f == FormatXLSX {
		return XLSX(t)
	}
	return CSV(t)
}

// Archive renders the export and uploads it to object storage.
func (s *Service) Archive(ctx context.Context, eventID uuid.UUID, f Format) (*Archive, error) {
	if s.archiver == nil {
		return nil, ErrArchiveDisabled
	}
	data, err := s.Render(ctx, eventID, f)
	if err != nil {
		return nil, err
	}
	key := storage.ExportKey(eventID.String(), s.clock.Now(), string(f))
	url, err := s.archiver.PutExport(ctx, key, f.ContentType(), data)
	if err != nil {
		return nil, fmt.Errorf("upload export: %w", err)
	}
	s.logger.Info("export archived", zap.String("event_id", eventID.String()), zap.String("key", key))
	return &Archive{Key: key, URL: url, Format: f}, nil
}
