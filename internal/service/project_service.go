package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/reference"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
)

type projectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	Create(ctx context.Context, project *models.Project) error
	UpdateStatus(ctx context.Context, id string, status models.ProjectStatus) error
	ResolveConflict(ctx context.Context, id string) error
	CountByCountyAndYear(ctx context.Context, county string, year int) (int, error)
}

type projectScoreCounter interface {
	CountBySection(ctx context.Context, projectID string) (map[models.Section]int, error)
}

// CreateProjectRequest is the patron registration payload.
type CreateProjectRequest struct {
	Title      string   `json:"title" validate:"required,min=3"`
	Category   string   `json:"category" validate:"required"`
	Presenters []string `json:"presenters" validate:"required,min=1,max=2"`
	School     string   `json:"school" validate:"required"`
	Zone       *string  `json:"zone,omitempty"`
	SubCounty  string   `json:"sub_county" validate:"required"`
	County     string   `json:"county" validate:"required"`
	Region     string   `json:"region" validate:"required"`
}

// ProjectService manages project registration and lifecycle.
type ProjectService struct {
	projects         projectRepo
	scores           projectScoreCounter
	judgesPerSection int
	validator        *validator.Validate
	logger           *zap.Logger
}

// NewProjectService constructs the service.
func NewProjectService(projects projectRepo, scores projectScoreCounter, judgesPerSection int, validate *validator.Validate, logger *zap.Logger) *ProjectService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if judgesPerSection <= 0 {
		judgesPerSection = 2
	}
	return &ProjectService{
		projects:         projects,
		scores:           scores,
		judgesPerSection: judgesPerSection,
		validator:        validate,
		logger:           logger,
	}
}

// Create registers a project at Sub-County level with status Qualified and
// a derived registration number unique per county per year.
func (s *ProjectService) Create(ctx context.Context, scope models.Scope, req CreateProjectRequest) (*models.Project, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid project payload")
	}
	if !reference.ValidCategory(req.Category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}
	if !reference.ValidLocation(req.Region, req.County, req.SubCounty) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "region, county and sub-county do not form a known location")
	}

	year := time.Now().UTC().Year()
	count, err := s.projects.CountByCountyAndYear(ctx, req.County, year)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to derive registration number")
	}

	project := &models.Project{
		PatronID:   scope.UserID,
		Title:      strings.TrimSpace(req.Title),
		Category:   req.Category,
		RegNo:      deriveRegNo(req.County, year, count+1),
		Presenters: req.Presenters,
		School:     strings.TrimSpace(req.School),
		Zone:       req.Zone,
		SubCounty:  req.SubCounty,
		County:     req.County,
		Region:     req.Region,
		Status:     models.StatusQualified,
		Level:      models.LevelSubCounty,
	}
	if err := s.projects.Create(ctx, project); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create project")
	}
	s.logger.Info("project registered",
		zap.String("project_id", project.ID),
		zap.String("reg_no", project.RegNo),
		zap.String("category", project.Category))
	return project, nil
}

// deriveRegNo builds KSEF/<year>/<county code>/<sequence>.
func deriveRegNo(county string, year, sequence int) string {
	code := strings.ToUpper(strings.ReplaceAll(county, " ", ""))
	if len(code) > 3 {
		code = code[:3]
	}
	return fmt.Sprintf("KSEF/%d/%s/%04d", year, code, sequence)
}

// Get loads one project.
func (s *ProjectService) Get(ctx context.Context, id string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, id)
	if err != nil {
		return nil, notFoundOrInternal(err, "project not found", "failed to load project")
	}
	return project, nil
}

// List returns projects filtered by the request and restricted to the
// requester's geographic scope.
func (s *ProjectService) List(ctx context.Context, scope models.Scope, filter models.ProjectFilter) ([]models.Project, error) {
	applyScopeToFilter(scope, &filter)
	projects, err := s.projects.List(ctx, filter)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}
	return projects, nil
}

// applyScopeToFilter narrows the filter to the acting user's authority.
// Patrons see their own projects only.
func applyScopeToFilter(scope models.Scope, filter *models.ProjectFilter) {
	switch scope.Role {
	case models.RoleRegionalAdmin:
		filter.Region = scope.Region
	case models.RoleCountyAdmin:
		filter.Region = scope.Region
		filter.County = scope.County
	case models.RoleSubCountyAdmin:
		filter.Region = scope.Region
		filter.County = scope.County
		filter.SubCounty = scope.SubCounty
	case models.RolePatron:
		filter.PatronID = scope.UserID
	}
}

// ResolveConflict closes a pending conflict and returns the project to the
// judging pipeline. When every required sheet is already in, the project
// completes immediately.
func (s *ProjectService) ResolveConflict(ctx context.Context, scope models.Scope, projectID string) (*models.Project, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFoundOrInternal(err, "project not found", "failed to load project")
	}
	if project.Status != models.StatusConflict {
		return nil, appErrors.Clone(appErrors.ErrConflict, "project has no pending conflict")
	}
	if scope.Role == models.RoleCoordinator && project.CoordinatorID != nil && *project.CoordinatorID != scope.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "conflict is routed to another coordinator")
	}

	if err := s.projects.ResolveConflict(ctx, projectID); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to resolve conflict")
	}

	counts, err := s.scores.CountBySection(ctx, projectID)
	if err == nil && counts[models.SectionA] >= s.judgesPerSection && counts[models.SectionBC] >= s.judgesPerSection {
		if err := s.projects.UpdateStatus(ctx, projectID, models.StatusCompleted); err != nil {
			s.logger.Warn("failed to complete project after resolution",
				zap.String("project_id", projectID), zap.Error(err))
		}
	}
	return s.projects.FindByID(ctx, projectID)
}
