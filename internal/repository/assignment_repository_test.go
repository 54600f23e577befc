package repository

import (
	"context"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ksef-kenya/judging-api/internal/models"
)

func newAssignmentMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestAssignmentRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec(regexp.QuoteMeta("ON CONFLICT (judge_id, project_id, section) WHERE status <> 'Reassigned' DO NOTHING")).
		WithArgs(sqlmock.AnyArg(), "judge-1", "project-1", "A", "admin-1", "Active", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(1, 1))

	err := repo.Create(context.Background(), &models.JudgeAssignment{
		JudgeID:    "judge-1",
		ProjectID:  "project-1",
		Section:    models.SectionA,
		AssignedBy: "admin-1",
	})
	require.NoError(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCreateDuplicate(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("INSERT INTO judge_assignments").
		WithArgs(sqlmock.AnyArg(), "judge-1", "project-1", "A", "admin-1", "Active", nil, sqlmock.AnyArg(), sqlmock.AnyArg()).
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.Create(context.Background(), &models.JudgeAssignment{
		JudgeID:    "judge-1",
		ProjectID:  "project-1",
		Section:    models.SectionA,
		AssignedBy: "admin-1",
	})
	assert.ErrorIs(t, err, ErrAlreadyAssigned)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryListByJudge(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	rows := sqlmock.NewRows([]string{
		"id", "judge_id", "project_id", "section", "assigned_by", "status", "notes",
		"created_at", "updated_at", "judge_name", "judge_email",
		"project_title", "project_category", "project_level", "project_status", "assigned_by_name",
	}).AddRow("assign-1", "judge-1", "project-1", "A", "admin-1", "Active", nil,
		time.Now(), time.Now(), "Judge One", "judyone@example.org",
		"Solar Dryer", "Energy and Transportation", "Sub-County", "Judging", "Admin One")

	mock.ExpectQuery("FROM judge_assignments ja").
		WithArgs("judge-1", models.AssignmentActive).
		WillReturnRows(rows)

	assignments, err := repo.ListByJudge(context.Background(), "judge-1")
	require.NoError(t, err)
	require.Len(t, assignments, 1)
	assert.Equal(t, "Solar Dryer", assignments[0].ProjectTitle)
	assert.Equal(t, models.SectionA, assignments[0].Section)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryActiveJudgeIDs(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT judge_id FROM judge_assignments
		WHERE project_id = $1 AND section = $2 AND status = $3
		ORDER BY created_at ASC`)).
		WithArgs("project-1", models.SectionBC, models.AssignmentActive).
		WillReturnRows(sqlmock.NewRows([]string{"judge_id"}).AddRow("judge-1").AddRow("judge-2"))

	ids, err := repo.ActiveJudgeIDs(context.Background(), "project-1", models.SectionBC)
	require.NoError(t, err)
	assert.Equal(t, []string{"judge-1", "judge-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCurrentJudgeIDs(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT judge_id FROM judge_assignments
		WHERE project_id = $1 AND section = $2 AND status <> $3
		ORDER BY created_at ASC`)).
		WithArgs("project-1", models.SectionA, models.AssignmentReassigned).
		WillReturnRows(sqlmock.NewRows([]string{"judge_id"}).AddRow("judge-1").AddRow("judge-2"))

	ids, err := repo.CurrentJudgeIDs(context.Background(), "project-1", models.SectionA)
	require.NoError(t, err)
	assert.Equal(t, []string{"judge-1", "judge-2"}, ids)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryCountCurrent(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta(`SELECT COUNT(*) FROM judge_assignments
		WHERE project_id = $1 AND section = $2 AND status <> $3`)).
		WithArgs("project-1", models.SectionA, models.AssignmentReassigned).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(2))

	count, err := repo.CountCurrent(context.Background(), "project-1", models.SectionA)
	require.NoError(t, err)
	assert.Equal(t, 2, count)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositorySetStatusMissing(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectExec("UPDATE judge_assignments SET status").
		WithArgs(models.AssignmentReassigned, sqlmock.AnyArg(), "assign-missing").
		WillReturnResult(sqlmock.NewResult(0, 0))

	err := repo.SetStatus(context.Background(), "assign-missing", models.AssignmentReassigned)
	assert.Error(t, err)
	assert.NoError(t, mock.ExpectationsWereMet())
}

func TestAssignmentRepositoryStats(t *testing.T) {
	db, mock, cleanup := newAssignmentMock(t)
	defer cleanup()
	repo := NewAssignmentRepository(db)

	mock.ExpectQuery(regexp.QuoteMeta("SELECT COUNT(*) FROM judge_assignments")).
		WillReturnRows(sqlmock.NewRows([]string{"count"}).AddRow(6))
	mock.ExpectQuery("GROUP BY section").
		WillReturnRows(sqlmock.NewRows([]string{"section", "count"}).
			AddRow("A", 3).AddRow("BC", 3))
	mock.ExpectQuery("GROUP BY status").
		WillReturnRows(sqlmock.NewRows([]string{"status", "count"}).
			AddRow("Active", 4).AddRow("Completed", 2))

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 6, stats.Total)
	assert.Len(t, stats.BySection, 2)
	assert.Len(t, stats.ByStatus, 2)
	assert.NoError(t, mock.ExpectationsWereMet())
}
