package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/service"
	"github.com/ksef-kenya/judging-api/pkg/response"
)

// RankingHandler handles cohort ranking, promotion and leaderboard endpoints.
type RankingHandler struct {
	scopeResolver
	service *service.RankingService
}

// NewRankingHandler creates a new ranking handler.
func NewRankingHandler(svc *service.RankingService, users *service.UserService) *RankingHandler {
	return &RankingHandler{scopeResolver: scopeResolver{users: users}, service: svc}
}

// Rank godoc
// @Summary Rank a cohort
// @Description Promotion decisions for one (level, category) cohort without applying them
// @Tags Ranking
// @Produce json
// @Param level query string true "Competition level"
// @Param category query string true "Category"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /ranking/decisions [get]
func (h *RankingHandler) Rank(c *gin.Context) {
	decisions, err := h.service.RankAndPromote(c.Request.Context(), models.CompetitionLevel(c.Query("level")), c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decisions, nil)
}

// Promote godoc
// @Summary Apply promotions
// @Description Rank a cohort and advance every promoted project to the next level
// @Tags Ranking
// @Produce json
// @Param level query string true "Competition level"
// @Param category query string true "Category"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /ranking/promote [post]
func (h *RankingHandler) Promote(c *gin.Context) {
	decisions, err := h.service.ApplyPromotions(c.Request.Context(), models.CompetitionLevel(c.Query("level")), c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, decisions, nil)
}

// Report godoc
// @Summary Points leaderboard
// @Description Hierarchical points report for one level, restricted to the requester's geographic scope
// @Tags Ranking
// @Produce json
// @Param level query string true "Competition level"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /ranking/report [get]
func (h *RankingHandler) Report(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	report, err := h.service.GenerateRankingReport(c.Request.Context(), scope, models.CompetitionLevel(c.Query("level")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, report, nil)
}
