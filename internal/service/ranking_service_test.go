package service

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ksef-kenya/judging-api/internal/models"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
)

// completedProject builds a Completed cohort member whose aggregated final
// total equals a+b+c, backed by two identical sheets per section.
func completedProject(scores *scoreStore, id, school string, level models.CompetitionLevel, a, b, c float64) *models.Project {
	project := newProject(id, level)
	project.School = school
	project.Status = models.StatusCompleted
	for _, judge := range []string{id + "-judge-a1", id + "-judge-a2"} {
		scores.sheets = append(scores.sheets, &models.ScoreSheet{
			ProjectID: id, JudgeID: judge, Section: models.SectionA, TotalA: a, Total: a,
		})
	}
	for _, judge := range []string{id + "-judge-bc1", id + "-judge-bc2"} {
		scores.sheets = append(scores.sheets, &models.ScoreSheet{
			ProjectID: id, JudgeID: judge, Section: models.SectionBC, TotalB: b, TotalC: c, Total: b + c,
		})
	}
	return project
}

// scenarioCohort is five completed projects totalling 70, 65, 65, 40, 30.
func scenarioCohort(scores *scoreStore, level models.CompetitionLevel) []*models.Project {
	return []*models.Project{
		completedProject(scores, "project-1", "Juja High School", level, 25, 10, 35),
		completedProject(scores, "project-2", "Ruiru Secondary", level, 22, 10, 33),
		completedProject(scores, "project-3", "Thika Academy", level, 20, 12, 33),
		completedProject(scores, "project-4", "Kikuyu Girls", level, 15, 10, 15),
		completedProject(scores, "project-5", "Limuru Boys", level, 10, 8, 12),
	}
}

func newRankingService(projects *projectStore, scores *scoreStore) *RankingService {
	return NewRankingService(projects, scores, nil, 0, 4, 2, nil, zap.NewNop())
}

func decisionByProject(decisions []models.PromotionDecision, projectID string) models.PromotionDecision {
	for _, decision := range decisions {
		if decision.ProjectID == projectID {
			return decision
		}
	}
	return models.PromotionDecision{}
}

func itemByName(items []models.RankedItem, name string) (models.RankedItem, bool) {
	for _, item := range items {
		if item.Name == name {
			return item, true
		}
	}
	return models.RankedItem{}, false
}

func TestRankAndPromoteTopFourStrictCut(t *testing.T) {
	scores := &scoreStore{}
	projects := newProjectStore(scenarioCohort(scores, models.LevelSubCounty)...)
	service := newRankingService(projects, scores)

	decisions, err := service.RankAndPromote(context.Background(), models.LevelSubCounty, "Physics")
	require.NoError(t, err)
	require.Len(t, decisions, 5)

	expected := []struct {
		projectID string
		rank      int
		score     float64
		status    models.PromotionStatus
	}{
		{"project-1", 1, 70, models.Promoted},
		{"project-2", 2, 65, models.Promoted},
		{"project-3", 2, 65, models.Promoted},
		{"project-4", 4, 40, models.Promoted},
		{"project-5", 5, 30, models.NotPromoted},
	}
	for i, want := range expected {
		assert.Equal(t, want.projectID, decisions[i].ProjectID)
		assert.Equal(t, want.rank, decisions[i].Rank)
		assert.InDelta(t, want.score, decisions[i].Score, 1e-9)
		assert.Equal(t, want.status, decisions[i].Status)
	}
}

func TestRankAndPromotePendingOnPartialCohort(t *testing.T) {
	scores := &scoreStore{}
	cohort := scenarioCohort(scores, models.LevelSubCounty)
	cohort[4].Status = models.StatusJudging
	projects := newProjectStore(cohort...)
	service := newRankingService(projects, scores)

	decisions, err := service.RankAndPromote(context.Background(), models.LevelSubCounty, "Physics")
	require.NoError(t, err)
	require.Len(t, decisions, 4)
	for _, decision := range decisions {
		assert.Equal(t, models.PendingRanking, decision.Status)
		assert.Zero(t, decision.Rank)
	}
}

func TestRankAndPromoteNationalRanksWithoutPromoting(t *testing.T) {
	scores := &scoreStore{}
	projects := newProjectStore(scenarioCohort(scores, models.LevelNational)...)
	service := newRankingService(projects, scores)

	decisions, err := service.RankAndPromote(context.Background(), models.LevelNational, "Physics")
	require.NoError(t, err)
	require.Len(t, decisions, 5)
	for _, decision := range decisions {
		assert.Equal(t, models.NotPromoted, decision.Status)
		assert.NotZero(t, decision.Rank)
	}
}

func TestApplyPromotionsAdvancesWinners(t *testing.T) {
	scores := &scoreStore{}
	projects := newProjectStore(scenarioCohort(scores, models.LevelSubCounty)...)
	service := newRankingService(projects, scores)

	decisions, err := service.ApplyPromotions(context.Background(), models.LevelSubCounty, "Physics")
	require.NoError(t, err)
	require.Len(t, decisions, 5)

	assert.Len(t, projects.promotions, 4)
	for _, projectID := range []string{"project-1", "project-2", "project-3", "project-4"} {
		assert.Equal(t, models.LevelCounty, projects.promotions[projectID])
		promoted, err := projects.FindByID(context.Background(), projectID)
		require.NoError(t, err)
		assert.Equal(t, models.StatusQualified, promoted.Status)
	}
	_, promoted := projects.promotions["project-5"]
	assert.False(t, promoted)
}

func TestApplyPromotionsRejectsPartialCohort(t *testing.T) {
	scores := &scoreStore{}
	cohort := scenarioCohort(scores, models.LevelSubCounty)
	cohort[0].Status = models.StatusJudging
	projects := newProjectStore(cohort...)
	service := newRankingService(projects, scores)

	_, err := service.ApplyPromotions(context.Background(), models.LevelSubCounty, "Physics")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotRankable.Code, appErrors.FromError(err).Code)
	assert.Empty(t, projects.promotions)
}

func TestApplyPromotionsNationalIsTerminal(t *testing.T) {
	scores := &scoreStore{}
	projects := newProjectStore(scenarioCohort(scores, models.LevelNational)...)
	service := newRankingService(projects, scores)

	_, err := service.ApplyPromotions(context.Background(), models.LevelNational, "Physics")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrTerminalLevel.Code, appErrors.FromError(err).Code)
}

func TestGenerateRankingReportPoints(t *testing.T) {
	scores := &scoreStore{}
	projects := newProjectStore(scenarioCohort(scores, models.LevelSubCounty)...)
	service := newRankingService(projects, scores)
	scope := models.Scope{UserID: "admin-1", Role: models.RoleNationalAdmin}

	report, err := service.GenerateRankingReport(context.Background(), scope, models.LevelSubCounty)
	require.NoError(t, err)

	// Rank N of 5 earns 5-N+1 points; the tied pair both earn 4.
	expected := map[string]float64{
		"Juja High School": 5,
		"Ruiru Secondary":  4,
		"Thika Academy":    4,
		"Kikuyu Girls":     2,
		"Limuru Boys":      1,
	}
	for school, points := range expected {
		item, ok := itemByName(report.Schools, school)
		require.True(t, ok, school)
		assert.InDelta(t, points, item.TotalPoints, 1e-9, school)
	}

	county, ok := itemByName(report.Counties, "Kiambu")
	require.True(t, ok)
	assert.InDelta(t, 16, county.TotalPoints, 1e-9)
	assert.Equal(t, 1, county.Rank)

	region, ok := itemByName(report.Regions, "Central")
	require.True(t, ok)
	assert.InDelta(t, 16, region.TotalPoints, 1e-9)

	// Counties with no scores still appear, at zero.
	idle, ok := itemByName(report.Counties, "Nyeri")
	require.True(t, ok)
	assert.Zero(t, idle.TotalPoints)
}

func TestGenerateRankingReportScopeExcludesOtherBranches(t *testing.T) {
	scores := &scoreStore{}
	cohort := scenarioCohort(scores, models.LevelSubCounty)
	coast := completedProject(scores, "project-6", "Mombasa High", models.LevelSubCounty, 20, 10, 30)
	coast.SubCounty = "Nyali"
	coast.County = "Mombasa"
	coast.Region = "Coast"
	cohort = append(cohort, coast)
	projects := newProjectStore(cohort...)
	service := newRankingService(projects, scores)

	scope := models.Scope{UserID: "admin-1", Role: models.RoleRegionalAdmin, Region: "Coast"}
	report, err := service.GenerateRankingReport(context.Background(), scope, models.LevelSubCounty)
	require.NoError(t, err)

	mombasa, ok := itemByName(report.Counties, "Mombasa")
	require.True(t, ok)
	assert.InDelta(t, 1, mombasa.TotalPoints, 1e-9)

	_, ok = itemByName(report.Counties, "Kiambu")
	assert.False(t, ok)
	_, ok = itemByName(report.Regions, "Central")
	assert.False(t, ok)
	_, ok = itemByName(report.Schools, "Juja High School")
	assert.False(t, ok)
}

func TestRankItemsCompetitionRanking(t *testing.T) {
	items := rankItems(map[string]float64{
		"Alpha": 10,
		"Beta":  10,
		"Gamma": 7,
		"Delta": 0,
	})
	require.Len(t, items, 4)
	assert.Equal(t, "Alpha", items[0].Name)
	assert.Equal(t, 1, items[0].Rank)
	assert.Equal(t, "Beta", items[1].Name)
	assert.Equal(t, 1, items[1].Rank)
	assert.Equal(t, "Gamma", items[2].Name)
	assert.Equal(t, 3, items[2].Rank)
	assert.Equal(t, "Delta", items[3].Name)
	assert.Equal(t, 4, items[3].Rank)
}
