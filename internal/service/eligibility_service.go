package service

import (
	"context"

	"go.uber.org/zap"

	"github.com/ksef-kenya/judging-api/internal/models"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
)

type judgePoolReader interface {
	ListActiveJudges(ctx context.Context) ([]models.User, error)
}

type projectReader interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
}

type currentAssignmentReader interface {
	CurrentJudgeIDs(ctx context.Context, projectID string, section models.Section) ([]string, error)
}

// EligibilityService computes which judges may score a project section.
// An empty result is valid output meaning the project is unassignable at
// its current scope, never an error.
type EligibilityService struct {
	judges      judgePoolReader
	projects    projectReader
	assignments currentAssignmentReader
	// widenToNational admits national-scope judges when the local pool
	// cannot fill both slots for a section.
	widenToNational bool
	logger          *zap.Logger
}

// NewEligibilityService constructs the service.
func NewEligibilityService(judges judgePoolReader, projects projectReader, assignments currentAssignmentReader, widenToNational bool, logger *zap.Logger) *EligibilityService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &EligibilityService{
		judges:          judges,
		projects:        projects,
		assignments:     assignments,
		widenToNational: widenToNational,
		logger:          logger,
	}
}

// EligibleJudges filters the candidate pool down to judges permitted to
// score the project's section. The filters apply in order: active status,
// category and section assignment, school conflict, then geographic scope.
// The school conflict rule has no override.
func EligibleJudges(project *models.Project, section models.Section, candidates []models.User) []models.User {
	eligible := make([]models.User, 0, len(candidates))
	for _, judge := range candidates {
		if judge.Role != models.RoleJudge || !judge.Active {
			continue
		}
		if !judge.Assignments.Matches(project.Category, section) {
			continue
		}
		if judge.SchoolName() != "" && judge.SchoolName() == project.School {
			continue
		}
		if !scopeMatches(&judge, project) {
			continue
		}
		eligible = append(eligible, judge)
	}
	return eligible
}

// scopeMatches applies the per-level geographic rule. National-level
// projects accept only national-scope judges; lower levels require an
// exact match on the corresponding assigned field.
func scopeMatches(judge *models.User, project *models.Project) bool {
	switch project.Level {
	case models.LevelSubCounty:
		return judge.AssignedSubCounty != nil && *judge.AssignedSubCounty == project.SubCounty
	case models.LevelCounty:
		return judge.AssignedCounty != nil && *judge.AssignedCounty == project.County
	case models.LevelRegional:
		return judge.AssignedRegion != nil && *judge.AssignedRegion == project.Region
	case models.LevelNational:
		return judge.National()
	default:
		return false
	}
}

// nationalEligible relaxes the geographic rule to national scope while
// keeping every other filter. Used to widen short local pools.
func nationalEligible(project *models.Project, section models.Section, candidates []models.User) []models.User {
	eligible := make([]models.User, 0, len(candidates))
	for _, judge := range candidates {
		if judge.Role != models.RoleJudge || !judge.Active {
			continue
		}
		if !judge.Assignments.Matches(project.Category, section) {
			continue
		}
		if judge.SchoolName() != "" && judge.SchoolName() == project.School {
			continue
		}
		if !judge.National() {
			continue
		}
		eligible = append(eligible, judge)
	}
	return eligible
}

// ForProject returns the eligible judges for a project section, widening to
// national judges when enabled and the local pool holds fewer than minPool.
func (s *EligibilityService) ForProject(ctx context.Context, project *models.Project, section models.Section, minPool int) ([]models.User, error) {
	if !section.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown section")
	}
	candidates, err := s.judges.ListActiveJudges(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load judge pool")
	}

	eligible := EligibleJudges(project, section, candidates)
	if len(eligible) >= minPool || !s.widenToNational || project.Level == models.LevelNational {
		return eligible, nil
	}

	seen := make(map[string]bool, len(eligible))
	for _, judge := range eligible {
		seen[judge.ID] = true
	}
	for _, judge := range nationalEligible(project, section, candidates) {
		if !seen[judge.ID] {
			eligible = append(eligible, judge)
			seen[judge.ID] = true
		}
	}
	if len(eligible) < minPool {
		s.logger.Warn("eligible pool below required slots",
			zap.String("project_id", project.ID),
			zap.String("section", string(section)),
			zap.Int("pool", len(eligible)))
	}
	return eligible, nil
}

// AvailableJudges returns the eligible judges not already occupying a slot
// for the (project, section). Both Active and Completed assignments occupy
// a slot; a judge who already scored the section is never offered again.
func (s *EligibilityService) AvailableJudges(ctx context.Context, projectID string, section models.Section, minPool int) ([]models.User, error) {
	project, err := s.projects.FindByID(ctx, projectID)
	if err != nil {
		return nil, notFoundOrInternal(err, "project not found", "failed to load project")
	}

	eligible, err := s.ForProject(ctx, project, section, minPool)
	if err != nil {
		return nil, err
	}

	assignedIDs, err := s.assignments.CurrentJudgeIDs(ctx, projectID, section)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load current assignments")
	}
	assigned := make(map[string]bool, len(assignedIDs))
	for _, id := range assignedIDs {
		assigned[id] = true
	}

	available := make([]models.User, 0, len(eligible))
	for _, judge := range eligible {
		if !assigned[judge.ID] {
			available = append(available, judge)
		}
	}
	return available, nil
}
