package service

import (
	"context"
	"fmt"
	"sort"
	"time"

	"go.uber.org/zap"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/reference"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
)

type rankingProjectRepo interface {
	FindByID(ctx context.Context, id string) (*models.Project, error)
	List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error)
	Promote(ctx context.Context, id string, next models.CompetitionLevel) error
}

type rankingScoreRepo interface {
	ListByProject(ctx context.Context, projectID string) ([]models.ScoreSheet, error)
}

// RankingService ranks completed cohorts, decides promotion, and builds the
// hierarchical points leaderboard. Reports are recomputed from scratch on
// every request; the full recomputation is cheap at fair volumes and a short
// cache absorbs repeated reads.
type RankingService struct {
	projects         rankingProjectRepo
	scores           rankingScoreRepo
	cache            *CacheService
	cacheTTL         time.Duration
	promotionSlots   int
	judgesPerSection int
	metrics          *MetricsService
	logger           *zap.Logger
}

// NewRankingService constructs the service.
func NewRankingService(
	projects rankingProjectRepo,
	scores rankingScoreRepo,
	cache *CacheService,
	cacheTTL time.Duration,
	promotionSlots int,
	judgesPerSection int,
	metrics *MetricsService,
	logger *zap.Logger,
) *RankingService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if promotionSlots <= 0 {
		promotionSlots = 4
	}
	if judgesPerSection <= 0 {
		judgesPerSection = 2
	}
	return &RankingService{
		projects:         projects,
		scores:           scores,
		cache:            cache,
		cacheTTL:         cacheTTL,
		promotionSlots:   promotionSlots,
		judgesPerSection: judgesPerSection,
		metrics:          metrics,
		logger:           logger,
	}
}

type scoredProject struct {
	project *models.Project
	total   float64
}

// RankAndPromote computes promotion decisions for one (level, category)
// cohort. Until every project in the cohort is Completed, each Completed
// project reports Pending Ranking; nothing is ranked against a partial
// cohort. Ties at the promotion boundary cut strictly at the slot count,
// ordered by score then project ID.
func (s *RankingService) RankAndPromote(ctx context.Context, level models.CompetitionLevel, category string) ([]models.PromotionDecision, error) {
	if !level.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown competition level")
	}
	if !reference.ValidCategory(category) {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown category")
	}

	cohort, err := s.projects.List(ctx, models.ProjectFilter{Level: level, Category: category})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list cohort")
	}
	if len(cohort) == 0 {
		return nil, nil
	}

	scored, allComplete, err := s.scoreCohort(ctx, cohort)
	if err != nil {
		return nil, err
	}
	if !allComplete {
		decisions := make([]models.PromotionDecision, 0, len(scored))
		for _, entry := range scored {
			decisions = append(decisions, models.PromotionDecision{
				ProjectID: entry.project.ID,
				Status:    models.PendingRanking,
				Score:     entry.total,
			})
		}
		return decisions, nil
	}

	sortCohort(scored)
	ranks := cohortRanks(scored)
	decisions := make([]models.PromotionDecision, 0, len(scored))
	for i, entry := range scored {
		status := models.NotPromoted
		if level != models.LevelNational && i < s.promotionSlots {
			status = models.Promoted
		}
		decisions = append(decisions, models.PromotionDecision{
			ProjectID: entry.project.ID,
			Status:    status,
			Rank:      ranks[i],
			Score:     entry.total,
		})
	}
	return decisions, nil
}

// ApplyPromotions ranks a cohort and advances every Promoted project to the
// next level with status reset to Qualified. National is terminal.
func (s *RankingService) ApplyPromotions(ctx context.Context, level models.CompetitionLevel, category string) ([]models.PromotionDecision, error) {
	next, ok := level.Next()
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrTerminalLevel, "")
	}

	decisions, err := s.RankAndPromote(ctx, level, category)
	if err != nil {
		return nil, err
	}
	for _, decision := range decisions {
		if decision.Status == models.PendingRanking {
			return nil, appErrors.Clone(appErrors.ErrNotRankable, "cohort is not fully completed")
		}
	}
	for _, decision := range decisions {
		if decision.Status != models.Promoted {
			continue
		}
		if err := s.projects.Promote(ctx, decision.ProjectID, next); err != nil {
			return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status,
				fmt.Sprintf("failed to promote project %s", decision.ProjectID))
		}
		s.metrics.RecordPromotion()
	}
	if s.cache.Enabled() {
		if err := s.cache.Invalidate(ctx, "ranking:*"); err != nil {
			s.logger.Warn("ranking cache invalidation failed", zap.Error(err))
		}
	}
	return decisions, nil
}

// scoreCohort aggregates every Completed project in the cohort. allComplete
// is false when any cohort member is not Completed or lacks its full sheet
// set; the returned slice then holds only the Completed, fully-scored ones.
func (s *RankingService) scoreCohort(ctx context.Context, cohort []models.Project) ([]scoredProject, bool, error) {
	allComplete := true
	scored := make([]scoredProject, 0, len(cohort))
	for i := range cohort {
		project := &cohort[i]
		if project.Status != models.StatusCompleted {
			allComplete = false
			continue
		}
		sheets, err := s.scores.ListByProject(ctx, project.ID)
		if err != nil {
			return nil, false, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load score sheets")
		}
		summary := aggregateSheets(project.ID, sheets, s.judgesPerSection)
		if summary == nil {
			allComplete = false
			continue
		}
		scored = append(scored, scoredProject{project: project, total: summary.FinalTotalScore})
	}
	return scored, allComplete, nil
}

func sortCohort(scored []scoredProject) {
	sort.Slice(scored, func(i, j int) bool {
		if scored[i].total != scored[j].total {
			return scored[i].total > scored[j].total
		}
		return scored[i].project.ID < scored[j].project.ID
	})
}

// cohortRanks assigns competition ranks over a sorted cohort: equal scores
// share a rank and the next distinct score resumes at its index, 1,1,3 style.
func cohortRanks(scored []scoredProject) []int {
	ranks := make([]int, len(scored))
	for i := range scored {
		if i > 0 && scored[i].total == scored[i-1].total {
			ranks[i] = ranks[i-1]
		} else {
			ranks[i] = i + 1
		}
	}
	return ranks
}

// GenerateRankingReport builds the points leaderboard for one level,
// restricted to the requester's geographic scope. Points are awarded per
// (category) cohort at the level and rolled up school, zone, sub-county,
// county, region. In-scope entities with no scored projects appear at zero.
func (s *RankingService) GenerateRankingReport(ctx context.Context, scope models.Scope, level models.CompetitionLevel) (*models.RankingReport, error) {
	if !level.Valid() {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unknown competition level")
	}

	cacheKey := fmt.Sprintf("ranking:%s:%s:%s:%s:%s", level, scope.Role, scope.Region, scope.County, scope.SubCounty)
	if s.cache.Enabled() {
		var cached models.RankingReport
		if hit, _ := s.cache.Get(ctx, cacheKey, &cached); hit {
			return &cached, nil
		}
	}

	completed, err := s.projects.List(ctx, models.ProjectFilter{Level: level, Status: models.StatusCompleted})
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list completed projects")
	}

	report, err := s.buildReport(ctx, scope, level, completed)
	if err != nil {
		return nil, err
	}

	if s.cache.Enabled() {
		if err := s.cache.Set(ctx, cacheKey, report, s.cacheTTL); err != nil {
			s.logger.Warn("ranking cache write failed", zap.Error(err))
		}
	}
	return report, nil
}

func (s *RankingService) buildReport(ctx context.Context, scope models.Scope, level models.CompetitionLevel, completed []models.Project) (*models.RankingReport, error) {
	byCategory := make(map[string][]models.Project)
	for _, project := range completed {
		if !inScope(scope, project.Region, project.County, project.SubCounty) {
			continue
		}
		byCategory[project.Category] = append(byCategory[project.Category], project)
	}

	schoolPoints := make(map[string]float64)
	schoolHome := make(map[string]models.Project)
	for _, cohort := range byCategory {
		scored, _, err := s.scoreCohort(ctx, cohort)
		if err != nil {
			return nil, err
		}
		sortCohort(scored)
		ranks := cohortRanks(scored)
		size := len(scored)
		for i, entry := range scored {
			// Rank N of M earns M-N+1 points; tied projects earn equal
			// points.
			points := float64(size - ranks[i] + 1)
			schoolPoints[entry.project.School] += points
			schoolHome[entry.project.School] = *entry.project
		}
	}

	zonePoints := make(map[string]float64)
	subCountyPoints := make(map[string]float64)
	countyPoints := make(map[string]float64)
	regionPoints := make(map[string]float64)

	// Roster zero-fill: every in-scope geography entity appears even with
	// no scored projects.
	for _, region := range reference.Geography {
		for _, county := range region.Counties {
			for _, subCounty := range county.SubCounties {
				if !inScope(scope, region.Name, county.Name, subCounty) {
					continue
				}
				subCountyPoints[subCounty] += 0
			}
			if !inScope(scope, region.Name, county.Name, "") {
				continue
			}
			countyPoints[county.Name] += 0
		}
		if !inScope(scope, region.Name, "", "") {
			continue
		}
		regionPoints[region.Name] += 0
	}
	for _, mapping := range reference.SchoolMappings {
		if !inScope(scope, mapping.Region, mapping.County, mapping.SubCounty) {
			continue
		}
		schoolPoints[mapping.School] += 0
		zonePoints[mapping.Zone] += 0
	}

	for school, points := range schoolPoints {
		home, scoredSchool := schoolHome[school]
		if !scoredSchool {
			continue
		}
		zone := ""
		if home.Zone != nil {
			zone = *home.Zone
		}
		if zone == "" {
			if mapping, ok := reference.FindSchoolMapping(school); ok {
				zone = mapping.Zone
			}
		}
		if zone != "" {
			zonePoints[zone] += points
		}
		subCountyPoints[home.SubCounty] += points
		countyPoints[home.County] += points
		regionPoints[home.Region] += points
	}

	return &models.RankingReport{
		Level:       level,
		Regions:     rankItems(regionPoints),
		Counties:    rankItems(countyPoints),
		SubCounties: rankItems(subCountyPoints),
		Zones:       rankItems(zonePoints),
		Schools:     rankItems(schoolPoints),
		GeneratedAt: time.Now().UTC(),
	}, nil
}

// inScope applies the requester's geographic authority. National-scope
// roles see everything; scoped admins see their own branch only. Entities
// outside scope are excluded, not zeroed.
func inScope(scope models.Scope, region, county, subCounty string) bool {
	switch scope.Role {
	case models.RoleRegionalAdmin:
		return region == scope.Region
	case models.RoleCountyAdmin:
		if county == "" {
			return region == scope.Region
		}
		return county == scope.County
	case models.RoleSubCountyAdmin:
		switch {
		case subCounty != "":
			return subCounty == scope.SubCounty
		case county != "":
			return county == scope.County
		default:
			return region == scope.Region
		}
	default:
		return true
	}
}

// rankItems orders a points map descending and applies competition ranking:
// equal totals share a rank, the next distinct total resumes at index+1.
func rankItems(points map[string]float64) []models.RankedItem {
	items := make([]models.RankedItem, 0, len(points))
	for name, total := range points {
		items = append(items, models.RankedItem{Name: name, TotalPoints: total})
	}
	sort.Slice(items, func(i, j int) bool {
		if items[i].TotalPoints != items[j].TotalPoints {
			return items[i].TotalPoints > items[j].TotalPoints
		}
		return items[i].Name < items[j].Name
	})
	for i := range items {
		if i > 0 && items[i].TotalPoints == items[i-1].TotalPoints {
			items[i].Rank = items[i-1].Rank
		} else {
			items[i].Rank = i + 1
		}
	}
	return items
}
