package handler

import (
	"bytes"
	"context"
	"database/sql"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"go.uber.org/zap"

	"github.com/ksef-kenya/judging-api/internal/middleware"
	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/service"
)

type userRepoStub struct {
	users map[string]*models.User
}

func (s *userRepoStub) FindByID(ctx context.Context, id string) (*models.User, error) {
	if u, ok := s.users[id]; ok {
		return u, nil
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, u := range s.users {
		if u.Email == email {
			return u, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (s *userRepoStub) List(ctx context.Context, filter models.UserFilter) ([]models.User, error) {
	out := make([]models.User, 0, len(s.users))
	for _, u := range s.users {
		out = append(out, *u)
	}
	return out, nil
}

func (s *userRepoStub) Create(ctx context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func (s *userRepoStub) Update(ctx context.Context, user *models.User) error {
	s.users[user.ID] = user
	return nil
}

func judgeUserService() *service.UserService {
	repo := &userRepoStub{users: map[string]*models.User{
		"judge-1": {
			ID:       "judge-1",
			Email:    "judge@ksef.go.ke",
			FullName: "Test Judge",
			Role:     models.RoleJudge,
			Active:   true,
		},
	}}
	return service.NewUserService(repo, validator.New(), zap.NewNop())
}

func TestScoringHandlerSubmitRequiresAuth(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScoringHandler(nil, judgeUserService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/scores", bytes.NewReader([]byte(`{}`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req

	handler.Submit(c)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestScoringHandlerSubmitRejectsMalformedBody(t *testing.T) {
	gin.SetMode(gin.TestMode)
	handler := NewScoringHandler(nil, judgeUserService())

	w := httptest.NewRecorder()
	c, _ := gin.CreateTestContext(w)
	req, _ := http.NewRequest(http.MethodPost, "/scores", bytes.NewReader([]byte(`not json`)))
	req.Header.Set("Content-Type", "application/json")
	c.Request = req
	c.Set(middleware.ContextUserKey, &models.JWTClaims{UserID: "judge-1", Role: models.RoleJudge})

	handler.Submit(c)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}
