package service

import (
	"context"
	"database/sql"
	"fmt"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/repository"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
)

// assignmentStore mimics the persisted assignment table, including the
// partial unique index on non-Reassigned (judge, project, section) triples.
type assignmentStore struct {
	items []*models.JudgeAssignment
}

func (s *assignmentStore) Create(ctx context.Context, assignment *models.JudgeAssignment) error {
	for _, existing := range s.items {
		if existing.Status != models.AssignmentReassigned &&
			existing.JudgeID == assignment.JudgeID &&
			existing.ProjectID == assignment.ProjectID &&
			existing.Section == assignment.Section {
			return repository.ErrAlreadyAssigned
		}
	}
	assignment.ID = fmt.Sprintf("assignment-%d", len(s.items)+1)
	assignment.Status = models.AssignmentActive
	cp := *assignment
	s.items = append(s.items, &cp)
	return nil
}

func (s *assignmentStore) FindByID(ctx context.Context, id string) (*models.JudgeAssignment, error) {
	for _, item := range s.items {
		if item.ID == id {
			cp := *item
			return &cp, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *assignmentStore) ListByJudge(ctx context.Context, judgeID string) ([]models.JudgeAssignmentDetail, error) {
	var details []models.JudgeAssignmentDetail
	for _, item := range s.items {
		if item.JudgeID == judgeID && item.Status == models.AssignmentActive {
			details = append(details, models.JudgeAssignmentDetail{JudgeAssignment: *item})
		}
	}
	return details, nil
}

func (s *assignmentStore) ListByProject(ctx context.Context, projectID string) ([]models.JudgeAssignmentDetail, error) {
	var details []models.JudgeAssignmentDetail
	for _, item := range s.items {
		if item.ProjectID == projectID && item.Status == models.AssignmentActive {
			details = append(details, models.JudgeAssignmentDetail{JudgeAssignment: *item})
		}
	}
	return details, nil
}

func (s *assignmentStore) ListByProjectCurrent(ctx context.Context, projectID string) ([]models.JudgeAssignmentDetail, error) {
	var details []models.JudgeAssignmentDetail
	for _, item := range s.items {
		if item.ProjectID == projectID && item.Status != models.AssignmentReassigned {
			details = append(details, models.JudgeAssignmentDetail{JudgeAssignment: *item})
		}
	}
	return details, nil
}

func (s *assignmentStore) ActiveJudgeIDs(ctx context.Context, projectID string, section models.Section) ([]string, error) {
	var ids []string
	for _, item := range s.items {
		if item.ProjectID == projectID && item.Section == section && item.Status == models.AssignmentActive {
			ids = append(ids, item.JudgeID)
		}
	}
	return ids, nil
}

func (s *assignmentStore) CurrentJudgeIDs(ctx context.Context, projectID string, section models.Section) ([]string, error) {
	var ids []string
	for _, item := range s.items {
		if item.ProjectID == projectID && item.Section == section && item.Status != models.AssignmentReassigned {
			ids = append(ids, item.JudgeID)
		}
	}
	return ids, nil
}

func (s *assignmentStore) CountCurrent(ctx context.Context, projectID string, section models.Section) (int, error) {
	ids, _ := s.CurrentJudgeIDs(ctx, projectID, section)
	return len(ids), nil
}

func (s *assignmentStore) SetStatus(ctx context.Context, id string, status models.AssignmentStatus) error {
	for _, item := range s.items {
		if item.ID == id {
			item.Status = status
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *assignmentStore) MarkCompleted(ctx context.Context, judgeID, projectID string, section models.Section) error {
	for _, item := range s.items {
		if item.JudgeID == judgeID && item.ProjectID == projectID &&
			item.Section == section && item.Status == models.AssignmentActive {
			item.Status = models.AssignmentCompleted
			return nil
		}
	}
	return sql.ErrNoRows
}

func (s *assignmentStore) Stats(ctx context.Context) (*models.AssignmentStats, error) {
	stats := &models.AssignmentStats{Total: len(s.items)}
	bySection := make(map[models.Section]int)
	byStatus := make(map[models.AssignmentStatus]int)
	for _, item := range s.items {
		bySection[item.Section]++
		byStatus[item.Status]++
	}
	for section, count := range bySection {
		stats.BySection = append(stats.BySection, models.SectionCount{Section: section, Count: count})
	}
	for status, count := range byStatus {
		stats.ByStatus = append(stats.ByStatus, models.StatusCount{Status: status, Count: count})
	}
	return stats, nil
}

func (s *assignmentStore) active() []*models.JudgeAssignment {
	var active []*models.JudgeAssignment
	for _, item := range s.items {
		if item.Status == models.AssignmentActive {
			active = append(active, item)
		}
	}
	return active
}

func adminScope() models.Scope {
	return models.Scope{UserID: "admin-1", Role: models.RoleSubCountyAdmin, Region: "Central", County: "Kiambu", SubCounty: "Juja"}
}

func newAssignmentService(users *userStore, projects *projectStore, assignments *assignmentStore) *AssignmentService {
	eligibility := NewEligibilityService(users, projects, assignments, false, zap.NewNop())
	return NewAssignmentService(assignments, projects, users, eligibility, 2, nil, validator.New(), zap.NewNop())
}

func TestAssignmentServiceCreate(t *testing.T) {
	judge := newJudge("judge-1", models.SectionA, "Central", "Kiambu", "Juja")
	users := newUserStore(judge)
	projects := newProjectStore(newProject("project-1", models.LevelSubCounty))
	assignments := &assignmentStore{}
	service := newAssignmentService(users, projects, assignments)

	assignment, err := service.Create(context.Background(), adminScope(), CreateAssignmentRequest{
		JudgeID:   "judge-1",
		ProjectID: "project-1",
		Section:   models.SectionA,
	})
	require.NoError(t, err)
	assert.NotEmpty(t, assignment.ID)
	assert.Equal(t, models.AssignmentActive, assignment.Status)
	assert.Equal(t, "admin-1", assignment.AssignedBy)

	project, err := projects.FindByID(context.Background(), "project-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusJudging, project.Status)
}

func TestAssignmentServiceCreateDuplicateRejected(t *testing.T) {
	judge := newJudge("judge-1", models.SectionA, "Central", "Kiambu", "Juja")
	users := newUserStore(judge)
	projects := newProjectStore(newProject("project-1", models.LevelSubCounty))
	assignments := &assignmentStore{}
	service := newAssignmentService(users, projects, assignments)

	req := CreateAssignmentRequest{JudgeID: "judge-1", ProjectID: "project-1", Section: models.SectionA}
	_, err := service.Create(context.Background(), adminScope(), req)
	require.NoError(t, err)

	_, err = service.Create(context.Background(), adminScope(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateAssignment.Code, appErrors.FromError(err).Code)
	assert.Len(t, assignments.active(), 1)
}

func TestAssignmentServiceCreateSameJudgeBothSections(t *testing.T) {
	judge := newJudge("judge-1", models.SectionA, "Central", "Kiambu", "Juja")
	judge.Assignments = append(judge.Assignments, models.JudgeSectionAssignment{Category: "Physics", Section: models.SectionBC})
	users := newUserStore(judge)
	projects := newProjectStore(newProject("project-1", models.LevelSubCounty))
	assignments := &assignmentStore{}
	service := newAssignmentService(users, projects, assignments)

	_, err := service.Create(context.Background(), adminScope(), CreateAssignmentRequest{
		JudgeID: "judge-1", ProjectID: "project-1", Section: models.SectionA,
	})
	require.NoError(t, err)
	_, err = service.Create(context.Background(), adminScope(), CreateAssignmentRequest{
		JudgeID: "judge-1", ProjectID: "project-1", Section: models.SectionBC,
	})
	require.NoError(t, err)
	assert.Len(t, assignments.active(), 2)
}

func TestAssignmentServiceCreateSchoolConflict(t *testing.T) {
	judge := newJudge("judge-1", models.SectionA, "Central", "Kiambu", "Juja")
	judge.School = strPtr("Juja High School")
	users := newUserStore(judge)
	projects := newProjectStore(newProject("project-1", models.LevelSubCounty))
	service := newAssignmentService(users, projects, &assignmentStore{})

	_, err := service.Create(context.Background(), adminScope(), CreateAssignmentRequest{
		JudgeID: "judge-1", ProjectID: "project-1", Section: models.SectionA,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceCreateSectionMismatch(t *testing.T) {
	judge := newJudge("judge-1", models.SectionA, "Central", "Kiambu", "Juja")
	users := newUserStore(judge)
	projects := newProjectStore(newProject("project-1", models.LevelSubCounty))
	service := newAssignmentService(users, projects, &assignmentStore{})

	_, err := service.Create(context.Background(), adminScope(), CreateAssignmentRequest{
		JudgeID: "judge-1", ProjectID: "project-1", Section: models.SectionBC,
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceRemoveSoftDeletes(t *testing.T) {
	judge := newJudge("judge-1", models.SectionA, "Central", "Kiambu", "Juja")
	users := newUserStore(judge)
	projects := newProjectStore(newProject("project-1", models.LevelSubCounty))
	assignments := &assignmentStore{}
	service := newAssignmentService(users, projects, assignments)

	assignment, err := service.Create(context.Background(), adminScope(), CreateAssignmentRequest{
		JudgeID: "judge-1", ProjectID: "project-1", Section: models.SectionA,
	})
	require.NoError(t, err)

	require.NoError(t, service.Remove(context.Background(), assignment.ID))
	stored, err := assignments.FindByID(context.Background(), assignment.ID)
	require.NoError(t, err)
	assert.Equal(t, models.AssignmentReassigned, stored.Status)

	err = service.Remove(context.Background(), assignment.ID)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceRemoveFreesTheSlot(t *testing.T) {
	judge := newJudge("judge-1", models.SectionA, "Central", "Kiambu", "Juja")
	users := newUserStore(judge)
	projects := newProjectStore(newProject("project-1", models.LevelSubCounty))
	assignments := &assignmentStore{}
	service := newAssignmentService(users, projects, assignments)

	req := CreateAssignmentRequest{JudgeID: "judge-1", ProjectID: "project-1", Section: models.SectionA}
	assignment, err := service.Create(context.Background(), adminScope(), req)
	require.NoError(t, err)
	require.NoError(t, service.Remove(context.Background(), assignment.ID))

	again, err := service.Create(context.Background(), adminScope(), req)
	require.NoError(t, err)
	assert.NotEqual(t, assignment.ID, again.ID)
	assert.Len(t, assignments.active(), 1)
}

func TestAssignmentServiceAutoAssignFillsOpenSlots(t *testing.T) {
	first := newJudge("judge-1", models.SectionA, "Central", "Kiambu", "Juja")
	second := newJudge("judge-2", models.SectionA, "Central", "Kiambu", "Juja")
	third := newJudge("judge-3", models.SectionA, "Central", "Kiambu", "Juja")
	users := newUserStore(first, second, third)
	projects := newProjectStore(newProject("project-1", models.LevelSubCounty))
	assignments := &assignmentStore{}
	service := newAssignmentService(users, projects, assignments)

	results, err := service.AutoAssign(context.Background(), adminScope(), "project-1", models.SectionA)
	require.NoError(t, err)
	var succeeded int
	for _, result := range results {
		if result.Success {
			succeeded++
		}
	}
	assert.Equal(t, 2, succeeded)
	assert.Len(t, assignments.active(), 2)

	project, err := projects.FindByID(context.Background(), "project-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusJudging, project.Status)

	_, err = service.AutoAssign(context.Background(), adminScope(), "project-1", models.SectionA)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestAssignmentServiceAutoAssignPartialFill(t *testing.T) {
	only := newJudge("judge-1", models.SectionA, "Central", "Kiambu", "Juja")
	users := newUserStore(only)
	projects := newProjectStore(newProject("project-1", models.LevelSubCounty))
	assignments := &assignmentStore{}
	service := newAssignmentService(users, projects, assignments)

	results, err := service.AutoAssign(context.Background(), adminScope(), "project-1", models.SectionA)
	require.NoError(t, err)
	require.Len(t, results, 1)
	assert.True(t, results[0].Success)
	assert.Len(t, assignments.active(), 1)
}

func TestAssignmentServiceAutoAssignKeepsScoredSlotOccupied(t *testing.T) {
	first := newJudge("judge-1", models.SectionA, "Central", "Kiambu", "Juja")
	second := newJudge("judge-2", models.SectionA, "Central", "Kiambu", "Juja")
	spare := newJudge("judge-3", models.SectionA, "Central", "Kiambu", "Juja")
	users := newUserStore(first, second, spare)
	projects := newProjectStore(newProject("project-1", models.LevelSubCounty))
	assignments := &assignmentStore{}
	service := newAssignmentService(users, projects, assignments)

	for _, judgeID := range []string{"judge-1", "judge-2"} {
		_, err := service.Create(context.Background(), adminScope(), CreateAssignmentRequest{
			JudgeID: judgeID, ProjectID: "project-1", Section: models.SectionA,
		})
		require.NoError(t, err)
	}
	require.NoError(t, assignments.MarkCompleted(context.Background(), "judge-1", "project-1", models.SectionA))

	_, err := service.AutoAssign(context.Background(), adminScope(), "project-1", models.SectionA)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)

	current, err := assignments.CurrentJudgeIDs(context.Background(), "project-1", models.SectionA)
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"judge-1", "judge-2"}, current)
}

func TestAssignmentServiceCreateRejectsScoredJudge(t *testing.T) {
	judge := newJudge("judge-1", models.SectionA, "Central", "Kiambu", "Juja")
	users := newUserStore(judge)
	projects := newProjectStore(newProject("project-1", models.LevelSubCounty))
	assignments := &assignmentStore{}
	service := newAssignmentService(users, projects, assignments)

	req := CreateAssignmentRequest{JudgeID: "judge-1", ProjectID: "project-1", Section: models.SectionA}
	_, err := service.Create(context.Background(), adminScope(), req)
	require.NoError(t, err)
	require.NoError(t, assignments.MarkCompleted(context.Background(), "judge-1", "project-1", models.SectionA))

	_, err = service.Create(context.Background(), adminScope(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrDuplicateAssignment.Code, appErrors.FromError(err).Code)
}
