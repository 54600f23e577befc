package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path"
	"path/filepath"
	"strings"
	"time"

	"go.uber.org/zap"

	"github.com/ksef-kenya/judging-api/internal/models"
	"github.com/ksef-kenya/judging-api/internal/repository"
	appErrors "github.com/ksef-kenya/judging-api/pkg/errors"
	"github.com/ksef-kenya/judging-api/pkg/jobs"
)

type exportJobStore interface {
	Create(ctx context.Context, job *models.ExportJob) error
	GetByID(ctx context.Context, id string) (*models.ExportJob, error)
	Update(ctx context.Context, id string, params repository.UpdateExportJobParams) error
	ListQueued(ctx context.Context, limit int) ([]models.ExportJob, error)
	ListFinishedBefore(ctx context.Context, cutoff time.Time, limit int) ([]models.ExportJob, error)
}

type jobDispatcher interface {
	Enqueue(job jobs.Job[models.ExportType]) error
}

type exportFileStore interface {
	Save(filename string, data []byte) (string, error)
	Open(filename string) (*os.File, error)
	Delete(filename string) error
	CleanupOlderThan(ttl time.Duration) ([]string, error)
}

type downloadTokenSigner interface {
	Generate(jobID, relPath string) (string, time.Time, error)
	Parse(token string, allowExpired bool) (jobID, relPath string, expiresAt time.Time, err error)
}

type exportRenderer interface {
	RankingReport(ctx context.Context, scope models.Scope, level models.CompetitionLevel, tier string, format ExportFormat) (*ExportFile, error)
	ProjectSummary(ctx context.Context, scope models.Scope, filter models.ProjectFilter, format ExportFormat) (*ExportFile, error)
}

// CreateExportJobRequest is the queued-export payload.
type CreateExportJobRequest struct {
	Type     models.ExportType `json:"type"`
	Level    string            `json:"level,omitempty"`
	Tier     string            `json:"tier,omitempty"`
	Category string            `json:"category,omitempty"`
	Status   string            `json:"status,omitempty"`
	Format   string            `json:"format"`
}

// ExportJobView is the client-facing job state.
type ExportJobView struct {
	ID        string                 `json:"id"`
	Status    models.ExportJobStatus `json:"status"`
	Progress  int                    `json:"progress"`
	ResultURL *string                `json:"result_url,omitempty"`
	Error     *string                `json:"error,omitempty"`
}

// ExportDownload aggregates resolved download data.
type ExportDownload struct {
	File        *os.File
	Filename    string
	ContentType string
	ExpiresAt   time.Time
}

// ExportJobServiceConfig governs queue recovery, download URLs and cleanup.
type ExportJobServiceConfig struct {
	DownloadBasePath string
	ResultTTL        time.Duration
	CleanupInterval  time.Duration
	MaxRetries       int
}

// ExportJobService owns the lifecycle of queued export jobs. Files are
// rendered off the request path by a worker pool and fetched later through
// signed, expiring download tokens.
type ExportJobService struct {
	repo    exportJobStore
	queue   jobDispatcher
	storage exportFileStore
	signer  downloadTokenSigner
	logger  *zap.Logger
	cfg     ExportJobServiceConfig
}

// NewExportJobService constructs the service.
func NewExportJobService(repo exportJobStore, queue jobDispatcher, storage exportFileStore, signer downloadTokenSigner, logger *zap.Logger, cfg ExportJobServiceConfig) *ExportJobService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.ResultTTL <= 0 {
		cfg.ResultTTL = 24 * time.Hour
	}
	if cfg.MaxRetries <= 0 {
		cfg.MaxRetries = 3
	}
	if cfg.DownloadBasePath == "" {
		cfg.DownloadBasePath = "/api/v1/exports/download"
	}
	return &ExportJobService{
		repo:    repo,
		queue:   queue,
		storage: storage,
		signer:  signer,
		logger:  logger,
		cfg:     cfg,
	}
}

// CreateJob validates the request, persists the job and enqueues processing.
func (s *ExportJobService) CreateJob(ctx context.Context, scope models.Scope, req CreateExportJobRequest) (*ExportJobView, error) {
	if req.Type != models.ExportTypeRanking && req.Type != models.ExportTypeProjects {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export type")
	}
	format := ExportFormat(strings.ToLower(req.Format))
	if format != FormatCSV && format != FormatPDF {
		return nil, appErrors.Clone(appErrors.ErrValidation, "unsupported export format")
	}

	params := models.ExportJobParams{
		Category: req.Category,
		Format:   string(format),
		Scope:    models.SnapshotScope(scope),
	}
	if req.Type == models.ExportTypeRanking {
		level := models.CompetitionLevel(req.Level)
		if !level.Valid() {
			return nil, appErrors.Clone(appErrors.ErrValidation, "unknown competition level")
		}
		params.Level = level
		params.Tier = strings.ToLower(req.Tier)
		if params.Tier == "" {
			params.Tier = "schools"
		}
	} else {
		if req.Level != "" {
			level := models.CompetitionLevel(req.Level)
			if !level.Valid() {
				return nil, appErrors.Clone(appErrors.ErrValidation, "unknown competition level")
			}
			params.Level = level
		}
		if req.Status != "" {
			params.Status = models.ProjectStatus(req.Status)
		}
	}

	job := &models.ExportJob{
		Type:      req.Type,
		Params:    params,
		Status:    models.ExportStatusQueued,
		CreatedBy: scope.UserID,
	}
	if err := s.repo.Create(ctx, job); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create export job")
	}
	if err := s.queue.Enqueue(jobs.Job[models.ExportType]{ID: job.ID, Payload: job.Type}); err != nil {
		status := models.ExportStatusFailed
		msg := "failed to enqueue job"
		progress := 100
		now := time.Now().UTC()
		_ = s.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
			Status:       &status,
			Progress:     &progress,
			ErrorMessage: &msg,
			FinishedAt:   &now,
		})
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to enqueue export job")
	}
	return &ExportJobView{ID: job.ID, Status: job.Status, Progress: job.Progress}, nil
}

// GetStatus exposes job state to clients. Non-admin callers only see their
// own jobs.
func (s *ExportJobService) GetStatus(ctx context.Context, scope models.Scope, id string) (*ExportJobView, error) {
	job, err := s.repo.GetByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if !scope.Role.Admin() && job.CreatedBy != scope.UserID {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export job belongs to another user")
	}
	view := &ExportJobView{
		ID:        job.ID,
		Status:    job.Status,
		Progress:  job.Progress,
		ResultURL: job.ResultURL,
	}
	if job.ErrorMessage != nil && *job.ErrorMessage != "" {
		view.Error = job.ErrorMessage
	}
	return view, nil
}

// ResolveDownload validates a signed token and opens the stored file.
func (s *ExportJobService) ResolveDownload(ctx context.Context, token string) (*ExportDownload, error) {
	jobID, relPath, expiresAt, err := s.signer.Parse(token, false)
	if err != nil {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "invalid or expired download token")
	}
	job, err := s.repo.GetByID(ctx, jobID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "export job not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load export job")
	}
	if job.Status != models.ExportStatusFinished {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "export not ready")
	}
	if job.ResultURL == nil || !strings.HasSuffix(*job.ResultURL, token) {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "token mismatch")
	}
	file, err := s.storage.Open(relPath)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to open export file")
	}
	filename := filepath.Base(relPath)
	return &ExportDownload{
		File:        file,
		Filename:    filename,
		ContentType: contentTypeForName(filename),
		ExpiresAt:   expiresAt,
	}, nil
}

// RecoverPendingJobs replays queued jobs after a process restart.
func (s *ExportJobService) RecoverPendingJobs(ctx context.Context) {
	pending, err := s.repo.ListQueued(ctx, 50)
	if err != nil {
		s.logger.Sugar().Warnw("failed to recover queued export jobs", "error", err)
		return
	}
	for _, job := range pending {
		if err := s.queue.Enqueue(jobs.Job[models.ExportType]{ID: job.ID, Payload: job.Type}); err != nil {
			s.logger.Sugar().Warnw("failed to requeue pending export job", "job_id", job.ID, "error", err)
		}
	}
}

// StartCleanup boots a goroutine that purges expired export files.
func (s *ExportJobService) StartCleanup(ctx context.Context) {
	if s.cfg.CleanupInterval <= 0 {
		return
	}
	ticker := time.NewTicker(s.cfg.CleanupInterval)
	go func() {
		defer ticker.Stop()
		for {
			select {
			case <-ctx.Done():
				return
			case <-ticker.C:
				s.cleanupExpired(ctx)
			}
		}
	}()
}

func (s *ExportJobService) cleanupExpired(ctx context.Context) {
	cutoff := time.Now().Add(-s.cfg.ResultTTL)
	for {
		expired, err := s.repo.ListFinishedBefore(ctx, cutoff, 100)
		if err != nil {
			s.logger.Sugar().Warnw("export cleanup list failed", "error", err)
			return
		}
		if len(expired) == 0 {
			break
		}
		for _, job := range expired {
			if job.ResultURL == nil {
				continue
			}
			token := lastPathSegment(*job.ResultURL)
			if token == "" {
				continue
			}
			_, relPath, _, err := s.signer.Parse(token, true)
			if err != nil {
				continue
			}
			if err := s.storage.Delete(relPath); err != nil {
				s.logger.Sugar().Warnw("export cleanup delete failed", "job_id", job.ID, "error", err)
			}
		}
		if len(expired) < 100 {
			break
		}
	}
	if _, err := s.storage.CleanupOlderThan(s.cfg.ResultTTL); err != nil {
		s.logger.Sugar().Warnw("export directory cleanup failed", "error", err)
	}
}

func lastPathSegment(url string) string {
	if url == "" {
		return ""
	}
	parts := strings.Split(url, "/")
	return parts[len(parts)-1]
}

func contentTypeForName(name string) string {
	switch strings.ToLower(filepath.Ext(name)) {
	case ".csv":
		return "text/csv"
	case ".pdf":
		return "application/pdf"
	default:
		return "application/octet-stream"
	}
}

// ExportWorker bridges queue jobs to the renderer and file store.
type ExportWorker struct {
	repo       exportJobStore
	renderer   exportRenderer
	storage    exportFileStore
	signer     downloadTokenSigner
	basePath   string
	maxRetries int
	logger     *zap.Logger
}

// NewExportWorker constructs a worker.
func NewExportWorker(repo exportJobStore, renderer exportRenderer, storage exportFileStore, signer downloadTokenSigner, basePath string, maxRetries int, logger *zap.Logger) *ExportWorker {
	if logger == nil {
		logger = zap.NewNop()
	}
	if maxRetries <= 0 {
		maxRetries = 3
	}
	if basePath == "" {
		basePath = "/api/v1/exports/download"
	}
	return &ExportWorker{
		repo:       repo,
		renderer:   renderer,
		storage:    storage,
		signer:     signer,
		basePath:   basePath,
		maxRetries: maxRetries,
		logger:     logger,
	}
}

// Handle processes one queued export.
func (w *ExportWorker) Handle(ctx context.Context, job jobs.Job[models.ExportType]) error {
	record, err := w.repo.GetByID(ctx, job.ID)
	if err != nil {
		return err
	}
	processing := models.ExportStatusProcessing
	progress := 10
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:   &processing,
		Progress: &progress,
	}); err != nil {
		return err
	}

	resultURL, err := w.generate(ctx, record)
	if err != nil {
		msg := err.Error()
		if job.Attempt >= w.maxRetries {
			failed := models.ExportStatusFailed
			progress = 100
			now := time.Now().UTC()
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &failed,
				Progress:     &progress,
				ErrorMessage: &msg,
				FinishedAt:   &now,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to mark export job failed", "job_id", job.ID, "error", updateErr)
			}
		} else {
			queued := models.ExportStatusQueued
			reset := 0
			if updateErr := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
				Status:       &queued,
				Progress:     &reset,
				ErrorMessage: &msg,
			}); updateErr != nil {
				w.logger.Sugar().Warnw("failed to requeue export job", "job_id", job.ID, "error", updateErr)
			}
		}
		return err
	}

	finished := models.ExportStatusFinished
	progress = 100
	now := time.Now().UTC()
	clear := ""
	if err := w.repo.Update(ctx, job.ID, repository.UpdateExportJobParams{
		Status:       &finished,
		Progress:     &progress,
		ResultURL:    &resultURL,
		ErrorMessage: &clear,
		FinishedAt:   &now,
	}); err != nil {
		w.logger.Sugar().Warnw("failed to mark export job finished", "job_id", job.ID, "error", err)
		return err
	}
	return nil
}

func (w *ExportWorker) generate(ctx context.Context, job *models.ExportJob) (string, error) {
	scope := job.Params.Scope.ToScope()
	format := ExportFormat(job.Params.Format)

	var file *ExportFile
	var err error
	switch job.Type {
	case models.ExportTypeRanking:
		file, err = w.renderer.RankingReport(ctx, scope, job.Params.Level, job.Params.Tier, format)
	case models.ExportTypeProjects:
		filter := models.ProjectFilter{
			Category: job.Params.Category,
			Level:    job.Params.Level,
			Status:   job.Params.Status,
		}
		file, err = w.renderer.ProjectSummary(ctx, scope, filter, format)
	default:
		return "", fmt.Errorf("unknown export type %q", job.Type)
	}
	if err != nil {
		return "", err
	}

	relPath := filepath.Join(job.ID, file.FileName)
	if _, err := w.storage.Save(relPath, file.Data); err != nil {
		return "", err
	}
	token, _, err := w.signer.Generate(job.ID, relPath)
	if err != nil {
		return "", err
	}
	return path.Join(w.basePath, token), nil
}
