package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/service"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
	"github.com/ksef-kenya/judging-api/pkg/response"
)

// ScoringHandler handles marksheet submission and aggregation endpoints.
type ScoringHandler struct {
	scopeResolver
	service *service.ScoringService
}

// NewScoringHandler creates a new scoring handler.
func NewScoringHandler(svc *service.ScoringService, users *service.UserService) *ScoringHandler {
	return &ScoringHandler{scopeResolver: scopeResolver{users: users}, service: svc}
}

// Submit godoc
// @Summary Submit score sheet
// @Description Record a judge's full marksheet for one project section
// @Tags Scoring
// @Accept json
// @Produce json
// @Param payload body service.SubmitScoreRequest true "Score sheet payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /scores [post]
func (h *ScoringHandler) Submit(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.SubmitScoreRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid score payload"))
		return
	}

	sheet, err := h.service.Submit(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, sheet)
}

// Aggregate godoc
// @Summary Aggregated project score
// @Description Combined judge totals and the final score out of 80; incomplete projects return 409
// @Tags Scoring
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects/{id}/score [get]
func (h *ScoringHandler) Aggregate(c *gin.Context) {
	summary, err := h.service.Aggregate(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// CategoryProgress godoc
// @Summary Category judging progress
// @Description Per-project judge slots and sheet counts for one level and category
// @Tags Scoring
// @Produce json
// @Param level query string true "Competition level"
// @Param category query string true "Category"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /scoring/progress [get]
func (h *ScoringHandler) CategoryProgress(c *gin.Context) {
	status, err := h.service.CategoryProgress(c.Request.Context(), models.CompetitionLevel(c.Query("level")), c.Query("category"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, status, nil)
}
