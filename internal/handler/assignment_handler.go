package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/service"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
	"github.com/ksef-kenya/judging-api/pkg/response"
)

// AssignmentHandler handles judge-project assignment endpoints.
type AssignmentHandler struct {
	scopeResolver
	service     *service.AssignmentService
	eligibility *service.EligibilityService
}

// NewAssignmentHandler creates a new assignment handler.
func NewAssignmentHandler(svc *service.AssignmentService, eligibility *service.EligibilityService, users *service.UserService) *AssignmentHandler {
	return &AssignmentHandler{scopeResolver: scopeResolver{users: users}, service: svc, eligibility: eligibility}
}

// Create godoc
// @Summary Assign judge to project section
// @Description Create an Active assignment; a duplicate for the same triple is rejected
// @Tags Assignments
// @Accept json
// @Produce json
// @Param payload body service.CreateAssignmentRequest true "Assignment payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments [post]
func (h *AssignmentHandler) Create(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.CreateAssignmentRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid assignment payload"))
		return
	}

	assignment, err := h.service.Create(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, assignment)
}

// Remove godoc
// @Summary Remove assignment
// @Description Soft-delete an assignment by marking it Reassigned
// @Tags Assignments
// @Produce json
// @Param id path string true "Assignment ID"
// @Success 204 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /assignments/{id} [delete]
func (h *AssignmentHandler) Remove(c *gin.Context) {
	if err := h.service.Remove(c.Request.Context(), c.Param("id")); err != nil {
		response.Error(c, err)
		return
	}
	response.NoContent(c)
}

// AutoAssign godoc
// @Summary Auto-assign judges
// @Description Fill the open judge slots of a project section from the eligible pool
// @Tags Assignments
// @Produce json
// @Param id path string true "Project ID"
// @Param section query string true "Section (A or BC)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects/{id}/auto-assign [post]
func (h *AssignmentHandler) AutoAssign(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	results, err := h.service.AutoAssign(c.Request.Context(), scope, c.Param("id"), models.Section(c.Query("section")))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, results, nil)
}

// ListByJudge godoc
// @Summary List a judge's assignments
// @Tags Assignments
// @Produce json
// @Param id path string true "Judge ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /judges/{id}/assignments [get]
func (h *AssignmentHandler) ListByJudge(c *gin.Context) {
	assignments, err := h.service.ListByJudge(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// ListByProject godoc
// @Summary List a project's judge slots
// @Tags Assignments
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id}/assignments [get]
func (h *AssignmentHandler) ListByProject(c *gin.Context) {
	assignments, err := h.service.ListByProject(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, assignments, nil)
}

// AvailableJudges godoc
// @Summary List available judges
// @Description Eligible judges for the project section not already assigned; an empty list means the project is unassignable at its current scope
// @Tags Assignments
// @Produce json
// @Param id path string true "Project ID"
// @Param section query string true "Section (A or BC)"
// @Success 200 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /projects/{id}/available-judges [get]
func (h *AssignmentHandler) AvailableJudges(c *gin.Context) {
	judges, err := h.eligibility.AvailableJudges(c.Request.Context(), c.Param("id"), models.Section(c.Query("section")), 2)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, judges, nil)
}

// Stats godoc
// @Summary Assignment statistics
// @Tags Assignments
// @Produce json
// @Success 200 {object} response.Envelope
// @Router /assignments/stats [get]
func (h *AssignmentHandler) Stats(c *gin.Context) {
	stats, err := h.service.Stats(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
