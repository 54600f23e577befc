package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/service"
	"github.com/ksef-kenya/judging-api/pkg/response"
)

// SeedHandler exposes the staging-only demo seeding endpoint.
type SeedHandler struct {
	scopeResolver
	service *service.SeedService
}

// NewSeedHandler creates a new seed handler.
func NewSeedHandler(svc *service.SeedService, users *service.UserService) *SeedHandler {
	return &SeedHandler{scopeResolver: scopeResolver{users: users}, service: svc}
}

// Seed godoc
// @Summary Seed demo scores
// @Description Deterministically assign judge pairs and full score sheets to every unfinished project at a level and category; rejected unless seeding is enabled
// @Tags Admin
// @Produce json
// @Param level query string true "Competition level"
// @Param category query string false "Category filter"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Router /admin/seed-scores [post]
func (h *SeedHandler) Seed(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	result, err := h.service.SeedScores(c.Request.Context(), scope, models.CompetitionLevel(c.Query("level")), c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, result, nil)
}
