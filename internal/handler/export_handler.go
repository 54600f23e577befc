package handler

import (
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/service"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
	"github.com/ksef-kenya/judging-api/pkg/response"
)

// ExportHandler serves synchronous report downloads and queued export jobs.
type ExportHandler struct {
	scopeResolver
	service *service.ExportService
	jobs    *service.ExportJobService
}

// NewExportHandler creates a new export handler.
func NewExportHandler(svc *service.ExportService, jobs *service.ExportJobService, users *service.UserService) *ExportHandler {
	return &ExportHandler{scopeResolver: scopeResolver{users: users}, service: svc, jobs: jobs}
}

func serveFile(c *gin.Context, file *service.ExportFile) {
	c.Header("Content-Disposition", `attachment; filename="`+file.FileName+`"`)
	c.Data(200, file.ContentType, file.Data)
}

// RankingReport godoc
// @Summary Download ranking report
// @Description Points leaderboard for one level and tier as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param level query string true "Competition level"
// @Param tier query string true "Tier (regions, counties, subcounties, zones, schools)"
// @Param format query string true "Format (csv or pdf)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /exports/ranking [get]
func (h *ExportHandler) RankingReport(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	file, err := h.service.RankingReport(
		c.Request.Context(),
		scope,
		models.CompetitionLevel(c.Query("level")),
		c.Query("tier"),
		service.ExportFormat(c.Query("format")),
	)
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

// ProjectSummary godoc
// @Summary Download project summary
// @Description Registered projects in scope as CSV or PDF
// @Tags Exports
// @Produce octet-stream
// @Param category query string false "Category filter"
// @Param level query string false "Level filter"
// @Param status query string false "Status filter"
// @Param format query string true "Format (csv or pdf)"
// @Success 200 {file} file
// @Failure 400 {object} response.Envelope
// @Router /exports/projects [get]
func (h *ExportHandler) ProjectSummary(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	filter := models.ProjectFilter{
		Category: c.Query("category"),
		Level:    models.CompetitionLevel(c.Query("level")),
		Status:   models.ProjectStatus(c.Query("status")),
	}
	file, err := h.service.ProjectSummary(c.Request.Context(), scope, filter, service.ExportFormat(c.Query("format")))
	if err != nil {
		response.Error(c, err)
		return
	}
	serveFile(c, file)
}

// CreateJob godoc
// @Summary Queue an export job
// @Description Renders the export in the background; poll the job for a download link
// @Tags Exports
// @Accept json
// @Produce json
// @Param payload body service.CreateExportJobRequest true "Export job request"
// @Success 201 {object} response.Envelope{data=service.ExportJobView}
// @Failure 400 {object} response.Envelope
// @Router /exports/jobs [post]
func (h *ExportHandler) CreateJob(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}

	var req service.CreateExportJobRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid export job payload"))
		return
	}
	job, err := h.jobs.CreateJob(c.Request.Context(), scope, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, job)
}

// JobStatus godoc
// @Summary Export job status
// @Description Current state of a queued export; includes the download URL once finished
// @Tags Exports
// @Produce json
// @Param id path string true "Job ID"
// @Success 200 {object} response.Envelope{data=service.ExportJobView}
// @Failure 404 {object} response.Envelope
// @Router /exports/jobs/{id} [get]
func (h *ExportHandler) JobStatus(c *gin.Context) {
	scope, err := h.scope(c)
	if err != nil {
		response.Error(c, err)
		return
	}
	job, err := h.jobs.GetStatus(c.Request.Context(), scope, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, job, nil)
}

// Download godoc
// @Summary Download a finished export
// @Description Streams the file referenced by a signed, expiring token
// @Tags Exports
// @Produce octet-stream
// @Param token path string true "Signed download token"
// @Success 200 {file} file
// @Failure 403 {object} response.Envelope
// @Router /exports/download/{token} [get]
func (h *ExportHandler) Download(c *gin.Context) {
	download, err := h.jobs.ResolveDownload(c.Request.Context(), c.Param("token"))
	if err != nil {
		response.Error(c, err)
		return
	}
	defer download.File.Close() //nolint:errcheck

	c.Header("Content-Disposition", `attachment; filename="`+download.Filename+`"`)
	c.Header("Content-Type", download.ContentType)
	http.ServeContent(c.Writer, c.Request, download.Filename, time.Time{}, download.File)
}
