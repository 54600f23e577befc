package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/ksef-kenya/judging-api/internal/models"
)

// ErrAlreadyAssigned signals a second current assignment for the same
// (judge, project, section) triple.
var ErrAlreadyAssigned = fmt.Errorf("judge already holds a current assignment for this project and section")

// AssignmentRepository persists judge-project assignments. The schema
// carries a partial unique index on (judge_id, project_id, section) WHERE
// status <> 'Reassigned', and Create relies on it for an atomic conditional
// insert rather than a check-then-insert. Completed rows stay covered: a
// judge who already scored a section still occupies its slot.
type AssignmentRepository struct {
	db *sqlx.DB
}

// NewAssignmentRepository constructs the repository.
func NewAssignmentRepository(db *sqlx.DB) *AssignmentRepository {
	return &AssignmentRepository{db: db}
}

// Create inserts an Active assignment. Returns ErrAlreadyAssigned when an
// Active or Completed row already exists for the triple; the insert and the
// uniqueness check are a single statement, so concurrent calls cannot both
// succeed.
func (r *AssignmentRepository) Create(ctx context.Context, assignment *models.JudgeAssignment) error {
	if assignment.ID == "" {
		assignment.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	assignment.Status = models.AssignmentActive
	assignment.CreatedAt = now
	assignment.UpdatedAt = now

	const query = `INSERT INTO judge_assignments (id, judge_id, project_id, section, assigned_by, status, notes, created_at, updated_at)
		VALUES (:id, :judge_id, :project_id, :section, :assigned_by, :status, :notes, :created_at, :updated_at)
		ON CONFLICT (judge_id, project_id, section) WHERE status <> 'Reassigned' DO NOTHING`
	result, err := r.db.NamedExecContext(ctx, query, assignment)
	if err != nil {
		return fmt.Errorf("create judge assignment: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check created assignment rows: %w", err)
	}
	if affected == 0 {
		return ErrAlreadyAssigned
	}
	return nil
}

// FindByID loads one assignment.
func (r *AssignmentRepository) FindByID(ctx context.Context, id string) (*models.JudgeAssignment, error) {
	const query = `SELECT id, judge_id, project_id, section, assigned_by, status, notes, created_at, updated_at
		FROM judge_assignments WHERE id = $1`
	var assignment models.JudgeAssignment
	if err := r.db.GetContext(ctx, &assignment, query, id); err != nil {
		return nil, err
	}
	return &assignment, nil
}

const assignmentDetailQuery = `
SELECT ja.id, ja.judge_id, ja.project_id, ja.section, ja.assigned_by, ja.status, ja.notes,
       ja.created_at, ja.updated_at,
       j.full_name AS judge_name, j.email AS judge_email,
       p.title AS project_title, p.category AS project_category,
       p.level AS project_level, p.status AS project_status,
       a.full_name AS assigned_by_name
FROM judge_assignments ja
JOIN users j ON j.id = ja.judge_id
JOIN projects p ON p.id = ja.project_id
JOIN users a ON a.id = ja.assigned_by`

// ListByJudge returns a judge's Active assignments with project summaries.
func (r *AssignmentRepository) ListByJudge(ctx context.Context, judgeID string) ([]models.JudgeAssignmentDetail, error) {
	query := assignmentDetailQuery + `
WHERE ja.judge_id = $1 AND ja.status = $2
ORDER BY ja.created_at DESC`
	var assignments []models.JudgeAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, judgeID, models.AssignmentActive); err != nil {
		return nil, fmt.Errorf("list judge assignments: %w", err)
	}
	return assignments, nil
}

// ListByProject returns a project's Active assignments with judge summaries.
func (r *AssignmentRepository) ListByProject(ctx context.Context, projectID string) ([]models.JudgeAssignmentDetail, error) {
	query := assignmentDetailQuery + `
WHERE ja.project_id = $1 AND ja.status = $2
ORDER BY ja.section ASC, ja.created_at ASC`
	var assignments []models.JudgeAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, projectID, models.AssignmentActive); err != nil {
		return nil, fmt.Errorf("list project assignments: %w", err)
	}
	return assignments, nil
}

// ListByProjectCurrent returns a project's assignments in any state except
// Reassigned. Progress reporting needs Completed slots as well as Active.
func (r *AssignmentRepository) ListByProjectCurrent(ctx context.Context, projectID string) ([]models.JudgeAssignmentDetail, error) {
	query := assignmentDetailQuery + `
WHERE ja.project_id = $1 AND ja.status <> $2
ORDER BY ja.section ASC, ja.created_at ASC`
	var assignments []models.JudgeAssignmentDetail
	if err := r.db.SelectContext(ctx, &assignments, query, projectID, models.AssignmentReassigned); err != nil {
		return nil, fmt.Errorf("list current project assignments: %w", err)
	}
	return assignments, nil
}

// ActiveJudgeIDs returns the judges Active-assigned to one project section.
// Completed judges are excluded; this read gates score submission, which a
// judge may do exactly once per slot.
func (r *AssignmentRepository) ActiveJudgeIDs(ctx context.Context, projectID string, section models.Section) ([]string, error) {
	const query = `SELECT judge_id FROM judge_assignments
		WHERE project_id = $1 AND section = $2 AND status = $3
		ORDER BY created_at ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, projectID, section, models.AssignmentActive); err != nil {
		return nil, fmt.Errorf("list active judge ids: %w", err)
	}
	return ids, nil
}

// CurrentJudgeIDs returns the judges occupying slots for one project
// section, in any state except Reassigned. A judge whose assignment moved
// to Completed after scoring still holds the slot.
func (r *AssignmentRepository) CurrentJudgeIDs(ctx context.Context, projectID string, section models.Section) ([]string, error) {
	const query = `SELECT judge_id FROM judge_assignments
		WHERE project_id = $1 AND section = $2 AND status <> $3
		ORDER BY created_at ASC`
	var ids []string
	if err := r.db.SelectContext(ctx, &ids, query, projectID, section, models.AssignmentReassigned); err != nil {
		return nil, fmt.Errorf("list current judge ids: %w", err)
	}
	return ids, nil
}

// CountCurrent returns the number of occupied slots for a project section,
// counting every state except Reassigned.
func (r *AssignmentRepository) CountCurrent(ctx context.Context, projectID string, section models.Section) (int, error) {
	const query = `SELECT COUNT(*) FROM judge_assignments
		WHERE project_id = $1 AND section = $2 AND status <> $3`
	var count int
	if err := r.db.GetContext(ctx, &count, query, projectID, section, models.AssignmentReassigned); err != nil {
		return 0, fmt.Errorf("count current assignments: %w", err)
	}
	return count, nil
}

// SetStatus moves an assignment between lifecycle states. Removal is a move
// to Reassigned; rows are never deleted so the audit trail survives.
func (r *AssignmentRepository) SetStatus(ctx context.Context, id string, status models.AssignmentStatus) error {
	const query = `UPDATE judge_assignments SET status = $1, updated_at = $2 WHERE id = $3`
	result, err := r.db.ExecContext(ctx, query, status, time.Now().UTC(), id)
	if err != nil {
		return fmt.Errorf("update assignment status: %w", err)
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("check updated assignment rows: %w", err)
	}
	if affected == 0 {
		return sql.ErrNoRows
	}
	return nil
}

// MarkCompleted transitions the judge's Active assignment for the triple to
// Completed once their score sheet is in.
func (r *AssignmentRepository) MarkCompleted(ctx context.Context, judgeID, projectID string, section models.Section) error {
	const query = `UPDATE judge_assignments SET status = $1, updated_at = $2
		WHERE judge_id = $3 AND project_id = $4 AND section = $5 AND status = $6`
	if _, err := r.db.ExecContext(ctx, query, models.AssignmentCompleted, time.Now().UTC(), judgeID, projectID, section, models.AssignmentActive); err != nil {
		return fmt.Errorf("mark assignment completed: %w", err)
	}
	return nil
}

// Stats aggregates the assignment table for admin dashboards.
func (r *AssignmentRepository) Stats(ctx context.Context) (*models.AssignmentStats, error) {
	stats := &models.AssignmentStats{}

	const totalQuery = `SELECT COUNT(*) FROM judge_assignments`
	if err := r.db.GetContext(ctx, &stats.Total, totalQuery); err != nil {
		return nil, fmt.Errorf("count assignments: %w", err)
	}

	const sectionQuery = `SELECT section, COUNT(*) AS count FROM judge_assignments GROUP BY section ORDER BY section`
	if err := r.db.SelectContext(ctx, &stats.BySection, sectionQuery); err != nil {
		return nil, fmt.Errorf("count assignments by section: %w", err)
	}

	const statusQuery = `SELECT status, COUNT(*) AS count FROM judge_assignments GROUP BY status ORDER BY status`
	if err := r.db.SelectContext(ctx, &stats.ByStatus, statusQuery); err != nil {
		return nil, fmt.Errorf("count assignments by status: %w", err)
	}

	return stats, nil
}
