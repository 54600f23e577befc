package service

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/repository"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
)

type assignmentRepo interface {
	Create(ctx context.Context, assignment *models.JudgeAssignment) error
	FindByID(ctx context.Context, id string) (*models.JudgeAssignment, error)
	ListByJudge(ctx context.Context, judgeID string) ([]models.JudgeAssignmentDetail, error)
	ListByProject(ctx context.Context, projectID string) ([]models.JudgeAssignmentDetail, error)
	CountCurrent(ctx context.Context, projectID string, section models.Section) (int, error)
	SetStatus(ctx context.Context, id string, status models.AssignmentStatus) error
	Stats(ctx context.Context) (*models.AssignmentStats, error)
}

type assignmentProjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
	UpdateStatus(ctx context.Context, id string, status models.ProjectStatus) error
}

type userReader interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
}

type availableJudgesProvider interface {
	AvailableJudges(ctx context.Context, projectID string, section models.Section, minPool int) ([]models.User, error)
}

// CreateAssignmentRequest is the manual-assign payload.
type CreateAssignmentRequest struct {
	JudgeID   string         `json:"judge_id" validate:"required"`
	ProjectID string         `json:"project_id" validate:"required"`
	Section   models.Section `json:"section" validate:"required"`
	Notes     *string        `json:"notes,omitempty"`
}

// AssignmentService owns the persisted judge-project assignment table,
// the single system of record for who judges what.
type AssignmentService struct {
	assignments      assignmentRepo
	projects         assignmentProjectRepo
	users            userReader
	eligibility      availableJudgesProvider
	judgesPerSection int
	metrics          *MetricsService
	validator        *validator.Validate
	logger           *zap.Logger
}

// NewAssignmentService constructs the service.
func NewAssignmentService(
	assignments assignmentRepo,
	projects assignmentProjectRepo,
	users userReader,
	eligibility availableJudgesProvider,
	judgesPerSection int,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *AssignmentService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if judgesPerSection <= 0 {
		judgesPerSection = 2
	}
	return &AssignmentService{
		assignments:      assignments,
		projects:         projects,
		users:            users,
		eligibility:      eligibility,
		judgesPerSection: judgesPerSection,
		metrics:          metrics,
		validator:        validate,
		logger:           logger,
	}
}

// Create assigns a judge to one section of one project. A second Active
// assignment for the same triple is rejected, never upserted; concurrent
// attempts resolve at the storage layer so exactly one wins.
func (s *AssignmentService) Create(ctx context.Context, scope models.Scope, req CreateAssignmentRequest) (*models.JudgeAssignment, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid assignment payload")
	}
	if !req.Section.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown section")
	}

	judge, err := s.users.FindByID(ctx, req.JudgeID)
	if err != nil {
		return nil, notFoundOrInternal(err, "judge not found", "failed to load judge")
	}
	if judge.Role != models.RoleJudge || !judge.Active {
		return nil, appErrors.Clone(appErrors.ErrValidation, "user is not an active judge")
	}

	project, err := s.projects.FindByID(ctx, req.ProjectID)
	if err != nil {
		return nil, notFoundOrInternal(err, "project not found", "failed to load project")
	}
	if !judge.Assignments.Matches(project.Category, req.Section) {
		return nil, appErrors.Clone(appErrors.ErrValidation,
			fmt.Sprintf("judge holds no %s/%s section assignment", project.Category, req.Section))
	}
	if judge.SchoolName() != "" && judge.SchoolName() == project.School {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "judge belongs to the project's school")
	}

	assignment := &models.JudgeAssignment{
		JudgeID:    req.JudgeID,
		ProjectID:  req.ProjectID,
		Section:    req.Section,
		AssignedBy: scope.UserID,
		Notes:      req.Notes,
	}
	if err := s.assignments.Create(ctx, assignment); err != nil {
		if errors.Is(err, repository.ErrAlreadyAssigned) {
			return nil, appErrors.Clone(appErrors.ErrDuplicateAssignment, "")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create assignment")
	}

	s.metrics.RecordAssignmentCreated(req.Section)

	if project.Status == models.StatusQualified {
		if err := s.projects.UpdateStatus(ctx, project.ID, models.StatusJudging); err != nil {
			s.logger.Warn("failed to move project into judging",
				zap.String("project_id", project.ID), zap.Error(err))
		}
	}

	s.logger.Info("judge assigned",
		zap.String("assignment_id", assignment.ID),
		zap.String("judge_id", req.JudgeID),
		zap.String("project_id", req.ProjectID),
		zap.String("section", string(req.Section)))
	return assignment, nil
}

// Remove soft-deletes an assignment by moving it to Reassigned. Rows are
// never physically deleted.
func (s *AssignmentService) Remove(ctx context.Context, assignmentID string) error {
	assignment, err := s.assignments.FindByID(ctx, assignmentID)
	if err != nil {
		return notFoundOrInternal(err, "assignment not found", "failed to load assignment")
	}
	if assignment.Status != models.AssignmentActive {
		return appErrors.Clone(appErrors.ErrConflict, "assignment is not active")
	}
	if err := s.assignments.SetStatus(ctx, assignmentID, models.AssignmentReassigned); err != nil {
		return notFoundOrInternal(err, "assignment not found", "failed to reassign")
	}
	return nil
}

// AutoAssign fills the open judge slots for a project section from the
// eligible pool, reporting per-judge outcomes. A short pool fills what it
// can; partial assignment is a valid intermediate state. Slots count both
// Active and Completed assignments, so a judge who already scored keeps
// occupying theirs.
func (s *AssignmentService) AutoAssign(ctx context.Context, scope models.Scope, projectID string, section models.Section) ([]models.AssignmentResult, error) {
	if !section.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown section")
	}
	occupied, err := s.assignments.CountCurrent(ctx, projectID, section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to count current assignments")
	}
	open := s.judgesPerSection - occupied
	if open <= 0 {
		return nil, appErrors.Clone(appErrors.ErrConflict, "section already has the required judges")
	}

	available, err := s.eligibility.AvailableJudges(ctx, projectID, section, s.judgesPerSection)
	if err != nil {
		return nil, err
	}

	results := make([]models.AssignmentResult, 0, open)
	for _, judge := range available {
		if open == 0 {
			break
		}
		result := models.AssignmentResult{JudgeID: judge.ID, Section: section}
		assignment := &models.JudgeAssignment{
			JudgeID:    judge.ID,
			ProjectID:  projectID,
			Section:    section,
			AssignedBy: scope.UserID,
		}
		if err := s.assignments.Create(ctx, assignment); err != nil {
			if errors.Is(err, repository.ErrAlreadyAssigned) {
				result.Message = "judge already assigned"
			} else {
				result.Message = "assignment failed"
				s.logger.Warn("auto-assign insert failed",
					zap.String("judge_id", judge.ID),
					zap.String("project_id", projectID), zap.Error(err))
			}
			results = append(results, result)
			continue
		}
		s.metrics.RecordAssignmentCreated(section)
		result.Success = true
		result.AssignmentID = assignment.ID
		result.Message = fmt.Sprintf("assigned %s to section %s", judge.FullName, section)
		results = append(results, result)
		open--
	}

	if len(results) > 0 {
		if project, err := s.projects.FindByID(ctx, projectID); err == nil && project.Status == models.StatusQualified {
			if err := s.projects.UpdateStatus(ctx, projectID, models.StatusJudging); err != nil {
				s.logger.Warn("failed to move project into judging",
					zap.String("project_id", projectID), zap.Error(err))
			}
		}
	}
	return results, nil
}

// ListByJudge returns a judge's active workload.
func (s *AssignmentService) ListByJudge(ctx context.Context, judgeID string) ([]models.JudgeAssignmentDetail, error) {
	if _, err := s.users.FindByID(ctx, judgeID); err != nil {
		return nil, notFoundOrInternal(err, "judge not found", "failed to load judge")
	}
	assignments, err := s.assignments.ListByJudge(ctx, judgeID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// ListByProject returns a project's active judge slots.
func (s *AssignmentService) ListByProject(ctx context.Context, projectID string) ([]models.JudgeAssignmentDetail, error) {
	if _, err := s.projects.FindByID(ctx, projectID); err != nil {
		return nil, notFoundOrInternal(err, "project not found", "failed to load project")
	}
	assignments, err := s.assignments.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list assignments")
	}
	return assignments, nil
}

// Stats returns table-wide assignment counts.
func (s *AssignmentService) Stats(ctx context.Context) (*models.AssignmentStats, error) {
	stats, err := s.assignments.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute assignment stats")
	}
	return stats, nil
}
