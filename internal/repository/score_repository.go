package repository

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ksef-kenya/judging-api/internal/models"
)

// ScoreRepository persists submitted score sheets. Sheets are immutable
// once written; corrections go through conflict resolution, not updates.
type ScoreRepository struct {
	db *sqlx.DB
}

// NewScoreRepository constructs the repository.
func NewScoreRepository(db *sqlx.DB) *ScoreRepository {
	return &ScoreRepository{db: db}
}

const scoreColumns = `id, project_id, judge_id, section, scores, strengths, recommendations,
	total_a, total_b, total_c, total, submitted_at`

// Create inserts a score sheet.
func (r *ScoreRepository) Create(ctx context.Context, sheet *models.ScoreSheet) error {
	if sheet.ID == "" {
		sheet.ID = uuid.NewString()
	}
	if sheet.SubmittedAt.IsZero() {
		sheet.SubmittedAt = time.Now().UTC()
	}
	const query = `INSERT INTO score_sheets (id, project_id, judge_id, section, scores, strengths, recommendations,
			total_a, total_b, total_c, total, submitted_at)
		VALUES (:id, :project_id, :judge_id, :section, :scores, :strengths, :recommendations,
			:total_a, :total_b, :total_c, :total, :submitted_at)`
	if _, err := r.db.NamedExecContext(ctx, query, sheet); err != nil {
		return fmt.Errorf("create score sheet: %w", err)
	}
	return nil
}

// ListByProject returns every sheet submitted for one project, section A
// sheets first, in the order judges submitted them.
func (r *ScoreRepository) ListByProject(ctx context.Context, projectID string) ([]models.ScoreSheet, error) {
	query := `SELECT ` + scoreColumns + ` FROM score_sheets
		WHERE project_id = $1 ORDER BY section ASC, submitted_at ASC`
	var sheets []models.ScoreSheet
	if err := r.db.SelectContext(ctx, &sheets, query, projectID); err != nil {
		return nil, fmt.Errorf("list project score sheets: %w", err)
	}
	return sheets, nil
}

// ListByProjectSection returns the sheets for a single project section.
func (r *ScoreRepository) ListByProjectSection(ctx context.Context, projectID string, section models.Section) ([]models.ScoreSheet, error) {
	query := `SELECT ` + scoreColumns + ` FROM score_sheets
		WHERE project_id = $1 AND section = $2 ORDER BY submitted_at ASC`
	var sheets []models.ScoreSheet
	if err := r.db.SelectContext(ctx, &sheets, query, projectID, section); err != nil {
		return nil, fmt.Errorf("list section score sheets: %w", err)
	}
	return sheets, nil
}

// Exists reports whether a judge already submitted for the triple.
func (r *ScoreRepository) Exists(ctx context.Context, judgeID, projectID string, section models.Section) (bool, error) {
	const query = `SELECT EXISTS (SELECT 1 FROM score_sheets
		WHERE judge_id = $1 AND project_id = $2 AND section = $3)`
	var exists bool
	if err := r.db.GetContext(ctx, &exists, query, judgeID, projectID, section); err != nil {
		return false, fmt.Errorf("check score sheet exists: %w", err)
	}
	return exists, nil
}

// CountBySection returns per-section sheet counts for one project.
func (r *ScoreRepository) CountBySection(ctx context.Context, projectID string) (map[models.Section]int, error) {
	const query = `SELECT section, COUNT(*) AS count FROM score_sheets
		WHERE project_id = $1 GROUP BY section`
	var rows []models.SectionCount
	if err := r.db.SelectContext(ctx, &rows, query, projectID); err != nil {
		return nil, fmt.Errorf("count score sheets by section: %w", err)
	}
	counts := make(map[models.Section]int, len(rows))
	for _, row := range rows {
		counts[row.Section] = row.Count
	}
	return counts, nil
}
