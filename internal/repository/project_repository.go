package repository

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ksef-kenya/judging-api/internal/models"
)

// ProjectRepository persists science fair projects.
type ProjectRepository struct {
	db *sqlx.DB
}

// NewProjectRepository constructs the repository.
func NewProjectRepository(db *sqlx.DB) *ProjectRepository {
	return &ProjectRepository{db: db}
}

const projectColumns = `id, patron_id, title, category, reg_no, presenters, school, zone,
       sub_county, county, region, status, level, conflict_type, conflict_status,
       coordinator_id, created_at, updated_at`

// FindByID loads one project.
func (r *ProjectRepository) FindByID(ctx context.Context, id string) (*models.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects WHERE id = $1`, projectColumns)
	var project models.Project
	if err := r.db.GetContext(ctx, &project, query, id); err != nil {
		return nil, err
	}
	return &project, nil
}

// List returns projects matching the filter.
func (r *ProjectRepository) List(ctx context.Context, filter models.ProjectFilter) ([]models.Project, error) {
	query := fmt.Sprintf(`SELECT %s FROM projects`, projectColumns)
	var conditions []string
	var args []interface{}

	add := func(clause string, value interface{}) {
		args = append(args, value)
		conditions = append(conditions, fmt.Sprintf(clause, len(args)))
	}

	if filter.Category != "" {
		add("category = $%d", filter.Category)
	}
	if filter.Level != "" {
		add("level = $%d", filter.Level)
	}
	if filter.Status != "" {
		add("status = $%d", filter.Status)
	}
	if filter.Region != "" {
		add("region = $%d", filter.Region)
	}
	if filter.County != "" {
		add("county = $%d", filter.County)
	}
	if filter.SubCounty != "" {
		add("sub_county = $%d", filter.SubCounty)
	}
	if filter.School != "" {
		add("school = $%d", filter.School)
	}
	if filter.PatronID != "" {
		add("patron_id = $%d", filter.PatronID)
	}
	if filter.Search != "" {
		args = append(args, filter.Search)
		n := len(args)
		conditions = append(conditions, fmt.Sprintf("(title ILIKE '%%' || $%d || '%%' OR reg_no ILIKE '%%' || $%d || '%%')", n, n))
	}

	if len(conditions) > 0 {
		query += " WHERE " + strings.Join(conditions, " AND ")
	}
	query += " ORDER BY created_at DESC"

	if filter.PageSize > 0 {
		page := filter.Page
		if page < 1 {
			page = 1
		}
		query += fmt.Sprintf(" LIMIT %d OFFSET %d", filter.PageSize, (page-1)*filter.PageSize)
	}

	var projects []models.Project
	if err := r.db.SelectContext(ctx, &projects, query, args...); err != nil {
		return nil, fmt.Errorf("list projects: %w", err)
	}
	return projects, nil
}

// Create inserts a new project.
func (r *ProjectRepository) Create(ctx context.Context, project *models.Project) error {
	if project.ID == "" {
		project.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if project.CreatedAt.IsZero() {
		project.CreatedAt = now
	}
	project.UpdatedAt = now

	const query = `INSERT INTO projects (id, patron_id, title, category, reg_no, presenters, school, zone,
		sub_county, county, region, status, level, created_at, updated_at)
		VALUES (:id, :patron_id, :title, :category, :reg_no, :presenters, :school, :zone,
		:sub_county, :county, :region, :status, :level, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, project); err != nil {
		return fmt.Errorf("create project: %w", err)
	}
	return nil
}

// UpdateStatus moves a project between lifecycle states.
func (r *ProjectRepository) UpdateStatus(ctx context.Context, id string, status models.ProjectStatus) error {
	const query = `UPDATE projects SET status = $1, updated_at = $2 WHERE id = $3`
	if _, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("update project status: %w", err)
	}
	return nil
}

// FlagConflict marks the project as conflicted and routes it to a coordinator.
func (r *ProjectRepository) FlagConflict(ctx context.Context, id string, conflictType models.ConflictType, coordinatorID *string) error {
	const query = `UPDATE projects
		SET status = $1, conflict_type = $2, conflict_status = $3, coordinator_id = $4, updated_at = $5
		WHERE id = $6`
	if _, err := r.db.ExecContext(ctx, query, models.StatusConflict, conflictType, models.ConflictPending, coordinatorID, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("flag project conflict: %w", err)
	}
	return nil
}

// ResolveConflict clears a pending conflict and returns the project to Judging.
func (r *ProjectRepository) ResolveConflict(ctx context.Context, id string) error {
	const query = `UPDATE projects
		SET status = $1, conflict_status = $2, updated_at = $3
		WHERE id = $4 AND status = $5`
	if _, err := r.db.ExecContext(ctx, query, models.StatusJudging, models.ConflictResolved, time.Now().UTC(), id, models.StatusConflict); err != nil {
		return fmt.Errorf("resolve project conflict: %w", err)
	}
	return nil
}

// Promote advances the project to the next level with status reset to
// Qualified. The previous level's scores remain attached to the old level's
// score sheets; the project re-enters the pipeline clean.
func (r *ProjectRepository) Promote(ctx context.Context, id string, next models.CompetitionLevel) error {
	const query = `UPDATE projects
		SET level = $1, status = $2, conflict_type = NULL, conflict_status = NULL, coordinator_id = NULL, updated_at = $3
		WHERE id = $4`
	if _, err := r.db.ExecContext(ctx, query, next, models.StatusQualified, time.Now().UTC(), id); err != nil {
		return fmt.Errorf("promote project: %w", err)
	}
	return nil
}

// CountByCountyAndYear supports registration number derivation.
func (r *ProjectRepository) CountByCountyAndYear(ctx context.Context, county string, year int) (int, error) {
	const query = `SELECT COUNT(*) FROM projects WHERE county = $1 AND EXTRACT(YEAR FROM created_at) = $2`
	var count int
	if err := r.db.GetContext(ctx, &count, query, county, year); err != nil {
		return 0, fmt.Errorf("count county projects: %w", err)
	}
	return count, nil
}
