package service

import (
	"context"
	"errors"
	"fmt"
	"math"

	"go.uber.org/zap"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/reference"
	"github.com/ksef-kenya/judging-api/internal/repository"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
)

// SeedService generates deterministic demo assignments and score sheets for
// staging environments. It is the only consumer of the hash-based virtual
// judge pairing; production assignment always goes through the persisted
// table.
type SeedService struct {
	projects    scoringProjectRepo
	assignments assignmentRepo
	scores      scoreRepo
	eligibility *EligibilityService
	enabled     bool
	logger      *zap.Logger
}

// NewSeedService constructs the service. When enabled is false every
// operation is rejected.
func NewSeedService(
	projects scoringProjectRepo,
	assignments assignmentRepo,
	scores scoreRepo,
	eligibility *EligibilityService,
	enabled bool,
	logger *zap.Logger,
) *SeedService {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &SeedService{
		projects:    projects,
		assignments: assignments,
		scores:      scores,
		eligibility: eligibility,
		enabled:     enabled,
		logger:      logger,
	}
}

// stableHash folds a string into a non-negative 32-bit value. The same
// input always yields the same output across runs and hosts.
func stableHash(s string) int {
	var hash int32
	for _, r := range s {
		hash = hash<<5 - hash + int32(r)
	}
	if hash < 0 {
		if hash == math.MinInt32 {
			return math.MaxInt32
		}
		return int(-hash)
	}
	return int(hash)
}

// PickJudgePair deterministically selects two distinct judges from the pool
// for a project section. The same (pool, project, section) always yields
// the same pair. ok is false when the pool holds fewer than two judges.
func PickJudgePair(pool []models.User, projectID string, section models.Section) (models.User, models.User, bool) {
	if len(pool) < 2 {
		return models.User{}, models.User{}, false
	}
	first := pool[stableHash(projectID+string(section)+"1")%len(pool)]

	remaining := make([]models.User, 0, len(pool)-1)
	for _, judge := range pool {
		if judge.ID != first.ID {
			remaining = append(remaining, judge)
		}
	}
	second := remaining[stableHash(projectID+string(section)+"2")%len(remaining)]
	return first, second, true
}

// demoMarks fills every criterion with a deterministic mark respecting max
// and step.
func demoMarks(criteria []reference.Criterion, seed string) models.CriterionScores {
	marks := make(models.CriterionScores, len(criteria))
	for i, criterion := range criteria {
		ratio := 0.4 + float64(stableHash(fmt.Sprintf("%s|%s|%d", seed, criterion.ID, i))%60)/100
		raw := criterion.MaxScore * ratio
		mark := math.Round(raw/criterion.Step) * criterion.Step
		if mark > criterion.MaxScore {
			mark = criterion.MaxScore
		}
		marks[criterion.ID] = mark
	}
	return marks
}

var demoStrengths = []string{
	"Excellent background research and a well-structured write-up.",
	"The oral presentation was engaging and showed confident understanding.",
	"A creative approach to a relevant real-world problem.",
	"Sound, well-documented methodology with a clear thought process.",
	"Strong data collection and analysis with effective use of graphs.",
}

var demoRecommendations = []string{
	"Consider expanding the sample size for more robust data.",
	"Reorganize the display board for a more logical flow.",
	"More presentation practice would reduce reliance on notes.",
	"A wider literature review would strengthen the introduction.",
	"Explore practical applications of the findings in more detail.",
}

// SeedResult summarises one seeding run.
type SeedResult struct {
	ProjectsSeeded int      `json:"projects_seeded"`
	Skipped        []string `json:"skipped,omitempty"`
}

// SeedScores assigns deterministic judge pairs and full score sheets to
// every project at the given level and category that has not completed
// judging, then marks them Completed. Projects whose pools cannot fill both
// sections are skipped and reported.
func (s *SeedService) SeedScores(ctx context.Context, scope models.Scope, level models.CompetitionLevel, category string) (*SeedResult, error) {
	if !s.enabled {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "seeding is disabled")
	}
	if !level.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown competition level")
	}

	projects, err := s.projects.List(ctx, models.ProjectFilter{Level: level, Category: category})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list projects")
	}

	result := &SeedResult{}
	for i := range projects {
		project := &projects[i]
		if project.Status == models.StatusCompleted || project.Status == models.StatusConflict {
			continue
		}
		if err := s.seedProject(ctx, scope, project); err != nil {
			s.logger.Info("skipping project during seed",
				zap.String("project_id", project.ID), zap.Error(err))
			result.Skipped = append(result.Skipped, project.ID)
			continue
		}
		result.ProjectsSeeded++
	}
	return result, nil
}

func (s *SeedService) seedProject(ctx context.Context, scope models.Scope, project *models.Project) error {
	for _, section := range []models.Section{models.SectionA, models.SectionBC} {
		pool, err := s.eligibility.ForProject(ctx, project, section, 2)
		if err != nil {
			return err
		}
		first, second, ok := PickJudgePair(pool, project.ID, section)
		if !ok {
			return fmt.Errorf("eligible pool for section %s holds fewer than two judges", section)
		}
		for _, judge := range []models.User{first, second} {
			assignment := &models.JudgeAssignment{
				JudgeID:    judge.ID,
				ProjectID:  project.ID,
				Section:    section,
				AssignedBy: scope.UserID,
			}
			if err := s.assignments.Create(ctx, assignment); err != nil && !errors.Is(err, repository.ErrAlreadyAssigned) {
				return err
			}
			if err := s.seedSheet(ctx, judge.ID, project.ID, section); err != nil {
				return err
			}
		}
	}
	return s.projects.UpdateStatus(ctx, project.ID, models.StatusCompleted)
}

func (s *SeedService) seedSheet(ctx context.Context, judgeID, projectID string, section models.Section) error {
	exists, err := s.scores.Exists(ctx, judgeID, projectID, section)
	if err != nil {
		return err
	}
	if exists {
		return nil
	}

	criteria := reference.SectionCriteria(section)
	seed := projectID + "|" + judgeID
	sheet := &models.ScoreSheet{
		ProjectID:       projectID,
		JudgeID:         judgeID,
		Section:         section,
		Scores:          demoMarks(criteria, seed),
		Strengths:       demoStrengths[stableHash(seed)%len(demoStrengths)],
		Recommendations: demoRecommendations[(stableHash(seed)+1)%len(demoRecommendations)],
	}
	for _, criterion := range criteria {
		mark := sheet.Scores[criterion.ID]
		switch {
		case section == models.SectionA:
			sheet.TotalA += mark
		case criterion.ID[0] == 'b':
			sheet.TotalB += mark
		default:
			sheet.TotalC += mark
		}
	}
	sheet.Total = sheet.TotalA + sheet.TotalB + sheet.TotalC
	return s.scores.Create(ctx, sheet)
}
