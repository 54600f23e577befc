package handler

import (
	"net/http"
	"strconv"

	"github.com/gin-gonic/gin"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/service"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
	"github.com/ksef-kenya/judging-api/pkg/response"
)

// ProjectHandler handles project registration and lifecycle endpoints.
type ProjectHandler struct {
	scopeResolver
	service *service.ProjectService
}

// NewProjectHandler creates a new project handler.
func NewProjectHandler(svc *service.ProjectService, users *service.UserService) *ProjectHandler {
	return &ProjectHandler{scopeResolver: scopeResolver{users: users}, service: svc}
}

// Create godoc
// @Summary Register project
// @Description Register a project at Sub-County level with a derived registration number
// @Tags Projects
// @Accept json
// @Produce json
// @Param payload body service.CreateProjectRequest true "Project payload"
// @Success 201 {object} response.Envelope
// @Failure 400 {object} response.Envelope
// @Router /projects [post]
func (h *ProjectHandler) Create(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.CreateProjectRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid project payload"))
		return
	}

	project, err := h.service.Create(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, project)
}

// Get godoc
// @Summary Get project
// @Description Get one project by ID
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 404 {object} response.Envelope
// @Router /projects/{id} [get]
func (h *ProjectHandler) Get(c *gin.Context) {
	project, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}

// List godoc
// @Summary List projects
// @Description List projects filtered by category, level and status, narrowed to the requester's scope
// @Tags Projects
// @Produce json
// @Param page query int false "Page number"
// @Param page_size query int false "Page size"
// @Param category query string false "Category filter"
// @Param level query string false "Level filter"
// @Param status query string false "Status filter"
// @Param search query string false "Search term"
// @Success 200 {object} response.Envelope
// @Failure 401 {object} response.Envelope
// @Router /projects [get]
func (h *ProjectHandler) List(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var filter models.ProjectFilter
	if page, err := strconv.Atoi(c.DefaultQuery("page", "1")); err == nil {
		filter.Page = page
	}
	if size, err := strconv.Atoi(c.DefaultQuery("page_size", "20")); err == nil {
		filter.PageSize = size
	}
	filter.Category = c.Query("category")
	filter.Level = models.CompetitionLevel(c.Query("level"))
	filter.Status = models.ProjectStatus(c.Query("status"))
	filter.School = c.Query("school")
	filter.Search = c.Query("search")

	projects, err := h.service.List(c.Request.Context(), scope, filter)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, projects, nil)
}

// ResolveConflict godoc
// @Summary Resolve project conflict
// @Description Close a pending conflict and return the project to the judging pipeline
// @Tags Projects
// @Produce json
// @Param id path string true "Project ID"
// @Success 200 {object} response.Envelope
// @Failure 403 {object} response.Envelope
// @Failure 409 {object} response.Envelope
// @Router /projects/{id}/resolve-conflict [post]
func (h *ProjectHandler) ResolveConflict(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	project, err := h.service.ResolveConflict(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, project, nil)
}
