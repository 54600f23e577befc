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
	"golang.org/x/crypto/bcrypt"

	"github.com/ksef-kenya/judging-api/internal/models"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
)

type userRepoStub struct {
	byID      map[string]*models.User
	byEmail   map[string]*models.User
	created   []*models.User
	updated   []*models.User
	listCalls []models.UserFilter
}

func newUserRepoStub(users ...*models.User) *userRepoStub {
	stub := &userRepoStub{
		byID:    make(map[string]*models.User),
		byEmail: make(map[string]*models.User),
	}
	for _, user := range users {
		stub.byID[user.ID] = user
		stub.byEmail[user.Email] = user
	}
	return stub
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if user, ok := s.byID[id]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	if user, ok := s.byEmail[email]; ok {
		cp := *user
		return &cp, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	s.listCalls = append(s.listCalls, filter)
	return nil, nil
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	user.ID = fmt.Sprintf("user-%d", len(s.created)+1)
	s.created = append(s.created, user)
	s.byID[user.ID] = user
	s.byEmail[user.Email] = user
	return nil
}

func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	s.updated = append(s.updated, user)
	s.byID[user.ID] = user
	return nil
}

func judgeCreateRequest() CreateUserRequest {
	return CreateUserRequest{
		Email:    "judge@ksef.ke",
		Password: "password",
		FullName: "Jane Judge",
		Role:     models.RoleJudge,
		Assignments: models.JudgeSectionAssignments{
			{Category: "Physics", Section: models.SectionA},
		},
	}
}

func TestUserServiceCreateJudge(t *testing.T) {
	repo := newUserRepoStub()
	service := NewUserService(repo, validator.New(), zap.NewNop())

	user, err := service.Create(context.Background(), judgeCreateRequest())
	require.NoError(t, err)
	assert.NotEmpty(t, user.ID)
	assert.True(t, user.Active)
	require.Len(t, repo.created, 1)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password")))
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := newUserRepoStub(&models.User{ID: "user-1", Email: "judge@ksef.ke"})
	service := NewUserService(repo, validator.New(), zap.NewNop())

	_, err := service.Create(context.Background(), judgeCreateRequest())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceCreateValidatesRoleFields(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*CreateUserRequest)
	}{
		{"judge without assignments", func(req *CreateUserRequest) {
			req.Assignments = nil
		}},
		{"judge with unknown category", func(req *CreateUserRequest) {
			req.Assignments = models.JudgeSectionAssignments{{Category: "Alchemy", Section: models.SectionA}}
		}},
		{"judge with duplicate pair", func(req *CreateUserRequest) {
			req.Assignments = models.JudgeSectionAssignments{
				{Category: "Physics", Section: models.SectionA},
				{Category: "Physics", Section: models.SectionA},
			}
		}},
		{"judge with unknown region", func(req *CreateUserRequest) {
			req.AssignedRegion = strPtr("Atlantis")
		}},
		{"coordinator without category", func(req *CreateUserRequest) {
			req.Role = models.RoleCoordinator
			req.Assignments = nil
		}},
		{"county admin without county", func(req *CreateUserRequest) {
			req.Role = models.RoleCountyAdmin
			req.Assignments = nil
			req.AssignedRegion = strPtr("Central")
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			repo := newUserRepoStub()
			service := NewUserService(repo, validator.New(), zap.NewNop())

			req := judgeCreateRequest()
			tc.mutate(&req)
			_, err := service.Create(context.Background(), req)
			require.Error(t, err)
			assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
		})
	}
}

func TestUserServiceCreateNationalJudge(t *testing.T) {
	repo := newUserRepoStub()
	service := NewUserService(repo, validator.New(), zap.NewNop())

	req := judgeCreateRequest()
	req.AssignedRegion = strPtr("National")
	user, err := service.Create(context.Background(), req)
	require.NoError(t, err)
	assert.True(t, user.National())
}

func TestUserServiceListNarrowsToScope(t *testing.T) {
	repo := newUserRepoStub()
	service := NewUserService(repo, validator.New(), zap.NewNop())

	scope := models.Scope{UserID: "admin-1", Role: models.RoleCountyAdmin, Region: "Central", County: "Kiambu"}
	_, err := service.List(context.Background(), scope, models.UserFilter{Role: models.RoleJudge})
	require.NoError(t, err)
	require.Len(t, repo.listCalls, 1)
	assert.Equal(t, "Central", repo.listCalls[0].Region)
	assert.Equal(t, "Kiambu", repo.listCalls[0].County)
}

func TestUserServiceUpdateRevalidates(t *testing.T) {
	judge := &models.User{
		ID: "user-1", Email: "judge@ksef.ke", FullName: "Jane Judge",
		Role: models.RoleJudge, Active: true,
		Assignments: models.JudgeSectionAssignments{{Category: "Physics", Section: models.SectionA}},
	}
	repo := newUserRepoStub(judge)
	service := NewUserService(repo, validator.New(), zap.NewNop())

	updated, err := service.Update(context.Background(), "user-1", UpdateUserRequest{
		Assignments: models.JudgeSectionAssignments{{Category: "Chemistry", Section: models.SectionBC}},
	})
	require.NoError(t, err)
	assert.True(t, updated.Assignments.Matches("Chemistry", models.SectionBC))

	_, err = service.Update(context.Background(), "user-1", UpdateUserRequest{
		Assignments: models.JudgeSectionAssignments{{Category: "Alchemy", Section: models.SectionA}},
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateDeactivates(t *testing.T) {
	judge := &models.User{
		ID: "user-1", Email: "judge@ksef.ke", Role: models.RoleJudge, Active: true,
		Assignments: models.JudgeSectionAssignments{{Category: "Physics", Section: models.SectionA}},
	}
	repo := newUserRepoStub(judge)
	service := NewUserService(repo, validator.New(), zap.NewNop())

	inactive := false
	updated, err := service.Update(context.Background(), "user-1", UpdateUserRequest{Active: &inactive})
	require.NoError(t, err)
	assert.False(t, updated.Active)
	require.Len(t, repo.updated, 1)
}
