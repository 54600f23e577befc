package service

import (
	"context"
	"fmt"
	"math"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/reference"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
)

type scoreRepo interface {
	Create(ctx context.Context, sheet *models.ScoreSheet) error
	ListByProject(ctx context.Context, projectID string) ([]models.ScoreSheet, error)
	ListByProjectSection(ctx context.Context, projectID string, section models.Section) ([]models.ScoreSheet, error)
	Exists(ctx context.Context, judgeID, projectID string, section models.Section) (bool, error)
	CountBySection(ctx context.Context, projectID string) (map[models.Section]int, error)
}

type scoringAssignmentRepo interface {
	ActiveJudgeIDs(ctx context.Context, projectID string, section models.Section) ([]string, error)
	ListByProjectCurrent(ctx context.Context, projectID string) ([]models.JudgeAssignmentDetail, error)
	MarkCompleted(ctx context.Context, judgeID, projectID string, section models.Section) error
}

type scoringProjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	UpdateStatus(ctx context.Context, id string, status models.ProjectStatus) error
	FlagConflict(ctx context.Context, id string, conflictType models.ConflictType, coordinatorID *string) error
}

type scoringUserRepo interface {
	FindByID(ctx context.Context, id string) (*models.User, error)
	FindCoordinatorByCategory(ctx context.Context, category string) (*models.User, error)
}

// SubmitScoreRequest is one judge's full marksheet for one section.
type SubmitScoreRequest struct {
	ProjectID       string                 `json:"project_id" validate:"required"`
	Section         models.Section         `json:"section" validate:"required"`
	Scores          models.CriterionScores `json:"scores" validate:"required"`
	Strengths       string                 `json:"strengths"`
	Recommendations string                 `json:"recommendations"`
}

// ScoringService validates and stores judge marksheets and aggregates them
// into per-project totals. A project completes once both judges of both
// sections have submitted.
type ScoringService struct {
	scores           scoreRepo
	assignments      scoringAssignmentRepo
	projects         scoringProjectRepo
	users            scoringUserRepo
	judgesPerSection int
	// discrepancyPct flags a section into Conflict when its two totals
	// differ by more than this percentage of the section maximum.
	discrepancyPct float64
	metrics        *MetricsService
	validator      *validator.Validate
	logger         *zap.Logger
}

// NewScoringService constructs the service.
func NewScoringService(
	scores scoreRepo,
	assignments scoringAssignmentRepo,
	projects scoringProjectRepo,
	users scoringUserRepo,
	judgesPerSection int,
	discrepancyPct float64,
	metrics *MetricsService,
	validate *validator.Validate,
	logger *zap.Logger,
) *ScoringService {
	if validate == nil {
		validate = validator.New()
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	if judgesPerSection <= 0 {
		judgesPerSection = 2
	}
	return &ScoringService{
		scores:           scores,
		assignments:      assignments,
		projects:         projects,
		users:            users,
		judgesPerSection: judgesPerSection,
		discrepancyPct:   discrepancyPct,
		metrics:          metrics,
		validator:        validate,
		logger:           logger,
	}
}

// Submit records a judge's marksheet. The judge must hold an Active
// assignment for the triple, every criterion must be scored within its max
// at its step granularity, and re-submission is rejected.
func (s *ScoringService) Submit(ctx context.Context, scope models.Scope, req SubmitScoreRequest) (*models.ScoreSheet, error) {
	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid score payload")
	}
	if !req.Section.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown section")
	}

	project, err := s.projects.FindByID(ctx, req.ProjectID)
	if err != nil {
		return nil, notFoundOrInternal(err, "project not found", "failed to load project")
	}
	if project.Status == models.StatusConflict {
		return nil, appErrors.Clone(appErrors.ErrConflict, "project is under conflict resolution")
	}

	assignedIDs, err := s.assignments.ActiveJudgeIDs(ctx, req.ProjectID, req.Section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
	}
	var assigned bool
	for _, id := range assignedIDs {
		if id == scope.UserID {
			assigned = true
			break
		}
	}
	if !assigned {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "judge is not assigned to this project section")
	}

	exists, err := s.scores.Exists(ctx, scope.UserID, req.ProjectID, req.Section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check existing sheet")
	}
	if exists {
		return nil, appErrors.Clone(appErrors.ErrConflict, "score sheet already submitted for this section")
	}

	sheet, err := buildScoreSheet(scope.UserID, req)
	if err != nil {
		return nil, err
	}

	if err := s.scores.Create(ctx, sheet); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to store score sheet")
	}
	s.metrics.RecordSheetSubmitted(req.Section)
	if err := s.assignments.MarkCompleted(ctx, scope.UserID, req.ProjectID, req.Section); err != nil {
		s.logger.Warn("failed to complete assignment after scoring",
			zap.String("judge_id", scope.UserID),
			zap.String("project_id", req.ProjectID), zap.Error(err))
	}

	if err := s.afterSubmit(ctx, project, req.Section); err != nil {
		s.logger.Warn("post-submission transition failed",
			zap.String("project_id", project.ID), zap.Error(err))
	}
	return sheet, nil
}

// buildScoreSheet validates every criterion mark and derives part totals.
// Marks violating a criterion's max or step are rejected, never clamped.
func buildScoreSheet(judgeID string, req SubmitScoreRequest) (*models.ScoreSheet, error) {
	criteria := reference.SectionCriteria(req.Section)
	sheet := &models.ScoreSheet{
		ProjectID:       req.ProjectID,
		JudgeID:         judgeID,
		Section:         req.Section,
		Scores:          req.Scores,
		Strengths:       req.Strengths,
		Recommendations: req.Recommendations,
	}

	for _, criterion := range criteria {
		mark, ok := req.Scores[criterion.ID]
		if !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidScore,
				fmt.Sprintf("criterion %s is not scored", criterion.ID))
		}
		if mark < 0 || mark > criterion.MaxScore {
			return nil, appErrors.Clone(appErrors.ErrInvalidScore,
				fmt.Sprintf("criterion %s mark %.2f exceeds max %.1f", criterion.ID, mark, criterion.MaxScore))
		}
		if math.Abs(math.Remainder(mark, criterion.Step)) > 1e-9 {
			return nil, appErrors.Clone(appErrors.ErrInvalidScore,
				fmt.Sprintf("criterion %s mark %.2f is not a multiple of step %.1f", criterion.ID, mark, criterion.Step))
		}
		switch {
		case req.Section == models.SectionA:
			sheet.TotalA += mark
		case criterion.ID[0] == 'b':
			sheet.TotalB += mark
		default:
			sheet.TotalC += mark
		}
	}
	for id := range req.Scores {
		if _, ok := reference.FindCriterion(criteria, id); !ok {
			return nil, appErrors.Clone(appErrors.ErrInvalidScore,
				fmt.Sprintf("criterion %s does not belong to section %s", id, req.Section))
		}
	}
	sheet.Total = sheet.TotalA + sheet.TotalB + sheet.TotalC
	return sheet, nil
}

// afterSubmit flags score discrepancies and completes the project once all
// required sheets are in. A flagged discrepancy routes the project to the
// category coordinator and blocks completion until resolved.
func (s *ScoringService) afterSubmit(ctx context.Context, project *models.Project, section models.Section) error {
	sheets, err := s.scores.ListByProjectSection(ctx, project.ID, section)
	if err != nil {
		return err
	}
	if len(sheets) == s.judgesPerSection && s.discrepancyPct > 0 {
		sectionMax := reference.MaxTotal(reference.SectionCriteria(section))
		spread := sectionSpread(sheets)
		if spread > s.discrepancyPct/100*sectionMax {
			var coordinatorID *string
			if coordinator, err := s.users.FindCoordinatorByCategory(ctx, project.Category); err == nil {
				coordinatorID = &coordinator.ID
			}
			s.logger.Info("score discrepancy flagged",
				zap.String("project_id", project.ID),
				zap.String("section", string(section)),
				zap.Float64("spread", spread))
			s.metrics.RecordConflictFlagged(models.ConflictScoreDiscrepancy)
			return s.projects.FlagConflict(ctx, project.ID, models.ConflictScoreDiscrepancy, coordinatorID)
		}
	}

	counts, err := s.scores.CountBySection(ctx, project.ID)
	if err != nil {
		return err
	}
	if counts[models.SectionA] >= s.judgesPerSection && counts[models.SectionBC] >= s.judgesPerSection {
		return s.projects.UpdateStatus(ctx, project.ID, models.StatusCompleted)
	}
	return nil
}

func sectionSpread(sheets []models.ScoreSheet) float64 {
	if len(sheets) == 0 {
		return 0
	}
	min, max := sheets[0].Total, sheets[0].Total
	for _, sheet := range sheets[1:] {
		if sheet.Total < min {
			min = sheet.Total
		}
		if sheet.Total > max {
			max = sheet.Total
		}
	}
	return max - min
}

// Aggregate combines the four judge sheets of a completed project into
// section averages and the final total out of 80. A project short of any
// sheet yields no partial totals.
func (s *ScoringService) Aggregate(ctx context.Context, projectID string) (*models.ProjectScoreSummary, error) {
	sheets, err := s.scores.ListByProject(ctx, projectID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score sheets")
	}
	summary := aggregateSheets(projectID, sheets, s.judgesPerSection)
	if summary == nil {
		return nil, appErrors.Clone(appErrors.ErrIncompleteScoring, "")
	}
	for i := range summary.Breakdowns {
		if judge, err := s.users.FindByID(ctx, summary.Breakdowns[i].JudgeID); err == nil {
			summary.Breakdowns[i].JudgeName = judge.FullName
		}
	}
	return summary, nil
}

// aggregateSheets is the pure aggregation core. It returns nil unless both
// sections carry the required number of sheets.
func aggregateSheets(projectID string, sheets []models.ScoreSheet, judgesPerSection int) *models.ProjectScoreSummary {
	var countA, countBC int
	summary := &models.ProjectScoreSummary{ProjectID: projectID}
	for _, sheet := range sheets {
		switch sheet.Section {
		case models.SectionA:
			countA++
			summary.AverageScoreA += sheet.TotalA
		case models.SectionBC:
			countBC++
			summary.AverageScoreB += sheet.TotalB
			summary.AverageScoreC += sheet.TotalC
		}
		summary.Breakdowns = append(summary.Breakdowns, models.JudgeScoreBreakdown{
			JudgeID:         sheet.JudgeID,
			Section:         sheet.Section,
			Scores:          sheet.Scores,
			Strengths:       sheet.Strengths,
			Recommendations: sheet.Recommendations,
			TotalA:          sheet.TotalA,
			TotalB:          sheet.TotalB,
			TotalC:          sheet.TotalC,
			Total:           sheet.Total,
		})
	}
	if countA < judgesPerSection || countBC < judgesPerSection {
		return nil
	}
	summary.AverageScoreA /= float64(countA)
	summary.AverageScoreB /= float64(countBC)
	summary.AverageScoreC /= float64(countBC)
	summary.FinalTotalScore = summary.AverageScoreA + summary.AverageScoreB + summary.AverageScoreC
	return summary
}

// CategoryProgress reports per-project judging progress for a level and
// category, built entirely from the persisted assignment and score tables.
func (s *ScoringService) CategoryProgress(ctx context.Context, level models.CompetitionLevel, category string) (*models.CategoryJudgingStatus, error) {
	projects, err := s.projects.List(ctx, models.ProjectFilter{Level: level, Category: category})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}

	status := &models.CategoryJudgingStatus{Category: category, TotalProjects: len(projects)}
	for _, project := range projects {
		progress := models.ProjectJudgingStatus{
			ProjectID:    project.ID,
			Title:        project.Title,
			Status:       project.Status,
			SheetsNeeded: 2 * s.judgesPerSection,
		}
		assignments, err := s.assignments.ListByProjectCurrent(ctx, project.ID)
		if err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load assignments")
		}
		for _, assignment := range assignments {
			scored, err := s.scores.Exists(ctx, assignment.JudgeID, project.ID, assignment.Section)
			if err != nil {
				return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to check sheet")
			}
			slot := models.JudgeSlotStatus{JudgeID: assignment.JudgeID, JudgeName: assignment.JudgeName, HasScored: scored}
			if scored {
				progress.SheetsScored++
			}
			if assignment.Section == models.SectionA {
				progress.JudgesA = append(progress.JudgesA, slot)
			} else {
				progress.JudgesBC = append(progress.JudgesBC, slot)
			}
		}
		if project.Status == models.StatusCompleted {
			status.CompletedProjects++
		}
		status.Projects = append(status.Projects, progress)
	}
	return status, nil
}
