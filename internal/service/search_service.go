package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"

	"github.com/noah-isme/exdb-api/internal/dto"
	"github.com/noah-isme/exdb-api/internal/models"
	"github.com/noah-isme/exdb-api/internal/repository"
)

// Export formats.
const (
	ExportFormatCSV  = "csv"
	ExportFormatXLSX = "xlsx"
)

// ExportFile is a rendered export ready to be streamed to the client.
type ExportFile struct {
	Filename    string
	ContentType string
	Data        []byte
}

// SearchService finds experiences visible to a user and exports the results.
type SearchService interface {
	Search(ctx context.Context, actor Actor, req dto.ExperienceSearchRequest) ([]dto.ExperienceSummary, error)
	Export(ctx context.Context, actor Actor, req dto.ExperienceSearchRequest, format string) (ExportFile, error)
}

type searchService struct {
	experiences repository.ExperienceRepository
	location    *time.Location
	logger      zerolog.Logger
	tracer      trace.Tracer
	now         func() time.Time
}

// NewSearchService constructs the search service. Exported timestamps are
// rendered in location.
func NewSearchService(experiences repository.ExperienceRepository, location *time.Location, logger zerolog.Logger) SearchService {
	if location == nil {
		location = time.UTC
	}
	return &searchService{
		experiences: experiences,
		location:    location,
		logger:      logger.With().Str("component", "search_service").Logger(),
		tracer:      otel.Tracer("github.com/noah-isme/exdb-api/internal/service/search"),
		now:         time.Now,
	}
}

func (s *searchService) Search(ctx context.Context, actor Actor, req dto.ExperienceSearchRequest) ([]dto.ExperienceSummary, error) {
	experiences, err := s.find(ctx, actor, req)
	if err != nil {
		return nil, err
	}
	return dto.NewExperienceSummaries(experiences, s.now()), nil
}

func (s *searchService) Export(ctx context.Context, actor Actor, req dto.ExperienceSearchRequest, format string) (ExportFile, error) {
	ctx, span := s.tracer.Start(ctx, "experience.export")
	span.SetAttributes(attribute.String("export.format", format))
	defer span.End()

	format = strings.ToLower(strings.TrimSpace(format))
	if format == "" {
		format = ExportFormatCSV
	}
	if format != ExportFormatCSV && format != ExportFormatXLSX {
		failSpan(span, ErrUnsupportedExportFormat, "unsupported_format")
		return ExportFile{}, ErrUnsupportedExportFormat
	}

	experiences, err := s.find(ctx, actor, req)
	if err != nil {
		failSpan(span, err, "search_failed")
		return ExportFile{}, err
	}

	rows := ExportRows(experiences, s.location)
	stamp := s.now().In(s.location).Format("20060102-1504")

	var file ExportFile
	switch format {
	case ExportFormatXLSX:
		data, err := WriteXLSX(rows)
		if err != nil {
			failSpan(span, err, "render_failed")
			return ExportFile{}, err
		}
		file = ExportFile{
			Filename:    fmt.Sprintf("experiences-%s.xlsx", stamp),
			ContentType: "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet",
			Data:        data,
		}
	default:
		data, err := WriteCSV(rows)
		if err != nil {
			failSpan(span, err, "render_failed")
			return ExportFile{}, err
		}
		file = ExportFile{
			Filename:    fmt.Sprintf("experiences-%s.csv", stamp),
			ContentType: "text/csv; charset=utf-8",
			Data:        data,
		}
	}

	span.SetAttributes(attribute.Int("export.rows", len(experiences)))
	s.logger.Info().
		Uint("user_id", actor.ID).
		Str("format", format).
		Int("rows", len(experiences)).
		Msg("search results exported")
	return file, nil
}

func (s *searchService) find(ctx context.Context, actor Actor, req dto.ExperienceSearchRequest) ([]models.Experience, error) {
	filter := repository.ExperienceFilter{
		Search:             req.Query,
		TypeID:             req.TypeID,
		SubtypeID:          req.SubtypeID,
		AuthorID:           req.AuthorID,
		StartAfter:         req.Start,
		EndBefore:          req.End,
		VisibleTo:          &actor.ID,
		IncludeAllNonDraft: actor.Hallstaff(),
	}

	if status := strings.TrimSpace(req.Status); status != "" {
		if !models.IsValidExperienceStatus(status) {
			return nil, ErrInvalidStatus
		}
		filter.Statuses = []string{status}
	}

	return s.experiences.Search(ctx, filter)
}
