package service

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/ksef-kenya/judging-api/internal/models"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
)

func patronScope() models.Scope {
	return models.Scope{UserID: "patron-1", Role: models.RolePatron}
}

func registrationRequest() CreateProjectRequest {
	return CreateProjectRequest{
		Title:      "Solar Water Purifier",
		Category:   "Physics",
		Presenters: []string{"Amina Wanjiru", "Brian Otieno"},
		School:     "Juja High School",
		SubCounty:  "Juja",
		County:     "Kiambu",
		Region:     "Central",
	}
}

func TestProjectServiceCreate(t *testing.T) {
	projects := newProjectStore()
	service := NewProjectService(projects, &scoreStore{}, 2, validator.New(), zap.NewNop())

	project, err := service.Create(context.Background(), patronScope(), registrationRequest())
	require.NoError(t, err)
	assert.Equal(t, models.StatusQualified, project.Status)
	assert.Equal(t, models.LevelSubCounty, project.Level)
	assert.Equal(t, "patron-1", project.PatronID)
	assert.Equal(t, fmt.Sprintf("KSEF/%d/KIA/0001", time.Now().UTC().Year()), project.RegNo)

	second, err := service.Create(context.Background(), patronScope(), registrationRequest())
	require.NoError(t, err)
	assert.Equal(t, fmt.Sprintf("KSEF/%d/KIA/0002", time.Now().UTC().Year()), second.RegNo)
}

func TestDeriveRegNo(t *testing.T) {
	assert.Equal(t, "KSEF/2026/KIA/0007", deriveRegNo("Kiambu", 2026, 7))
	// Spaces are stripped before the code is taken.
	assert.Equal(t, "KSEF/2026/TAI/0001", deriveRegNo("Taita Taveta", 2026, 1))
	assert.Equal(t, "KSEF/2026/NY/0012", deriveRegNo("Ny", 2026, 12))
}

func TestProjectServiceCreateRejectsUnknownLocation(t *testing.T) {
	projects := newProjectStore()
	service := NewProjectService(projects, &scoreStore{}, 2, validator.New(), zap.NewNop())

	req := registrationRequest()
	req.SubCounty = "Nyali"
	_, err := service.Create(context.Background(), patronScope(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)

	req = registrationRequest()
	req.Category = "Alchemy"
	_, err = service.Create(context.Background(), patronScope(), req)
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestProjectServiceListAppliesScope(t *testing.T) {
	inScope := newProject("project-1", models.LevelSubCounty)
	outOfScope := newProject("project-2", models.LevelSubCounty)
	outOfScope.SubCounty = "Nyali"
	outOfScope.County = "Mombasa"
	outOfScope.Region = "Coast"
	projects := newProjectStore(inScope, outOfScope)
	service := NewProjectService(projects, &scoreStore{}, 2, validator.New(), zap.NewNop())

	scope := models.Scope{UserID: "admin-1", Role: models.RoleCountyAdmin, Region: "Central", County: "Kiambu"}
	listed, err := service.List(context.Background(), scope, models.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "project-1", listed[0].ID)
}

func TestProjectServiceListPatronSeesOwnProjects(t *testing.T) {
	mine := newProject("project-1", models.LevelSubCounty)
	mine.PatronID = "patron-1"
	other := newProject("project-2", models.LevelSubCounty)
	other.PatronID = "patron-2"
	projects := newProjectStore(mine, other)
	service := NewProjectService(projects, &scoreStore{}, 2, validator.New(), zap.NewNop())

	listed, err := service.List(context.Background(), patronScope(), models.ProjectFilter{})
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, "project-1", listed[0].ID)
}

func TestProjectServiceResolveConflict(t *testing.T) {
	project := newProject("project-1", models.LevelSubCounty)
	project.Status = models.StatusConflict
	conflictType := models.ConflictScoreDiscrepancy
	pending := models.ConflictPending
	project.ConflictType = &conflictType
	project.ConflictStatus = &pending
	project.CoordinatorID = strPtr("coordinator-1")
	projects := newProjectStore(project)
	service := NewProjectService(projects, &scoreStore{}, 2, validator.New(), zap.NewNop())

	otherCoordinator := models.Scope{UserID: "coordinator-2", Role: models.RoleCoordinator}
	_, err := service.ResolveConflict(context.Background(), otherCoordinator, "project-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)

	owner := models.Scope{UserID: "coordinator-1", Role: models.RoleCoordinator}
	resolved, err := service.ResolveConflict(context.Background(), owner, "project-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusJudging, resolved.Status)
	require.NotNil(t, resolved.ConflictStatus)
	assert.Equal(t, models.ConflictResolved, *resolved.ConflictStatus)

	_, err = service.ResolveConflict(context.Background(), owner, "project-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestProjectServiceResolveConflictCompletesWhenFullyScored(t *testing.T) {
	project := newProject("project-1", models.LevelSubCounty)
	project.Status = models.StatusConflict
	projects := newProjectStore(project)
	scores := &scoreStore{}
	for _, sheet := range []models.ScoreSheet{
		{ProjectID: "project-1", JudgeID: "judge-a1", Section: models.SectionA},
		{ProjectID: "project-1", JudgeID: "judge-a2", Section: models.SectionA},
		{ProjectID: "project-1", JudgeID: "judge-bc1", Section: models.SectionBC},
		{ProjectID: "project-1", JudgeID: "judge-bc2", Section: models.SectionBC},
	} {
		cp := sheet
		scores.sheets = append(scores.sheets, &cp)
	}
	service := NewProjectService(projects, scores, 2, validator.New(), zap.NewNop())

	scope := models.Scope{UserID: "admin-1", Role: models.RoleNationalAdmin}
	resolved, err := service.ResolveConflict(context.Background(), scope, "project-1")
	require.NoError(t, err)
	assert.Equal(t, models.StatusCompleted, resolved.Status)
}
