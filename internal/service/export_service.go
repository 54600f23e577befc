package service

import (
	"context"
	"fmt"
	"strconv"
	"strings"

	"go.uber.org/zap"

	"github.com/ksef-kenya/judging-api/internal/models"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
	"github.com/ksef-kenya/judging-api/pkg/export"
)

type rankingReporter interface {
	GenerateRankingReport(ctx context.Context, scope models.Scope, level models.CompetitionLevel) (*models.RankingReport, error)
}

type projectLister interface {
	List(ctx context.Context, scope models.Scope, filter models.ProjectFilter) ([]models.Project, error)
}

// ExportFormat names a supported download format.
type ExportFormat string

const (
	FormatCSV ExportFormat = "csv"
	FormatPDF ExportFormat = "pdf"
)

// ExportFile is a rendered download.
type ExportFile struct {
	FileName    string
	ContentType string
	Data        []byte
}

// ExportService renders ranking reports and project summaries as CSV or
// PDF downloads.
type ExportService struct {
	ranking  rankingReporter
	projects projectLister
	csv      *export.CSVExporter
	pdf      *export.PDFExporter
	logger   *zap.Logger
}

// NewExportService constructs the service.
func NewExportService(ranking rankingReporter, projects projectLister, logger *zap.Logger) *ExportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &ExportService{
		ranking:  ranking,
		projects: projects,
		csv:      export.NewCSVExporter(),
		pdf:      export.NewPDFExporter(),
		logger:   logger,
	}
}

// RankingReport renders one tier of the leaderboard. tier is one of
// regions, counties, subcounties, zones, schools.
func (s *ExportService) RankingReport(ctx context.Context, scope models.Scope, level models.CompetitionLevel, tier string, format ExportFormat) (*ExportFile, error) {
	report, err := s.ranking.GenerateRankingReport(ctx, scope, level)
	if err != nil {
		return nil, err
	}

	var items []models.RankedItem
	switch strings.ToLower(tier) {
	case "regions":
		items = report.Regions
	case "counties":
		items = report.Counties
	case "subcounties":
		items = report.SubCounties
	case "zones":
		items = report.Zones
	case "schools":
		items = report.Schools
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown ranking tier")
	}

	dataset := export.Dataset{Headers: []string{"Rank", "Name", "Points"}}
	for _, item := range items {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Rank":   strconv.Itoa(item.Rank),
			"Name":   item.Name,
			"Points": strconv.FormatFloat(item.TotalPoints, 'f', 1, 64),
		})
	}

	title := fmt.Sprintf("Performance Ranking Report (%s Level) by %s", level, tier)
	return s.render(dataset, title, fmt.Sprintf("ranking_%s_%s", strings.ToLower(string(level)), tier), format)
}

// ProjectSummary renders the in-scope project roster.
func (s *ExportService) ProjectSummary(ctx context.Context, scope models.Scope, filter models.ProjectFilter, format ExportFormat) (*ExportFile, error) {
	projects, err := s.projects.List(ctx, scope, filter)
	if err != nil {
		return nil, err
	}

	dataset := export.Dataset{Headers: []string{"Reg No", "Title", "Category", "School", "Level", "Status"}}
	for _, project := range projects {
		dataset.Rows = append(dataset.Rows, map[string]string{
			"Reg No":   project.RegNo,
			"Title":    project.Title,
			"Category": project.Category,
			"School":   project.School,
			"Level":    string(project.Level),
			"Status":   string(project.Status),
		})
	}
	return s.render(dataset, "Project Summary Report", "project_summary", format)
}

func (s *ExportService) render(dataset export.Dataset, title, baseName string, format ExportFormat) (*ExportFile, error) {
	switch format {
	case FormatCSV:
		data, err := s.csv.Render(dataset)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv")
		}
		return &ExportFile{FileName: baseName + ".csv", ContentType: "text/csv", Data: data}, nil
	case FormatPDF:
		data, err := s.pdf.Render(dataset, title)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf")
		}
		return &ExportFile{FileName: baseName + ".pdf", ContentType: "application/pdf", Data: data}, nil
	default:
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown export format")
	}
}
