package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"student-import-service/internal/models"
)

// DefaultStaleClaimAfter is how long a job may sit in running before the
// queue considers its worker dead and hands the job out again. Re-running a
// partially completed job is safe: the upserts reuse existing entities.
const DefaultStaleClaimAfter = 10 * time.Minute

// JobRepository owns the ImportJob lifecycle. The import_jobs table is also
// the durable queue: Enqueue inserts a queued row and ClaimNext atomically
// flips one row to running for exactly one worker.
type JobRepository struct {
	db         *gorm.DB
	staleAfter time.Duration
}

// NewJobRepository creates a JobRepository with the default stale-claim window.
func NewJobRepository(db *gorm.DB) *JobRepository {
	return &JobRepository{db: db, staleAfter: DefaultStaleClaimAfter}
}

// NewJobRepositoryWithStaleAfter overrides the redelivery window, mainly for tests.
func NewJobRepositoryWithStaleAfter(db *gorm.DB, staleAfter time.Duration) *JobRepository {
	return &JobRepository{db: db, staleAfter: staleAfter}
}

// Enqueue records a new queued job for a persisted upload and returns it.
// The returned ID is the opaque identifier handed back to the client.
func (r *JobRepository) Enqueue(ctx context.Context, filePath, fileName string) (*models.ImportJob, error) {
	job := models.ImportJob{
		ID:       uuid.New(),
		FileName: fileName,
		FilePath: filePath,
		Status:   models.JobStatusQueued,
	}
	if err := r.db.WithContext(ctx).Create(&job).Error; err != nil {
		return nil, fmt.Errorf("enqueue import job: %w", err)
	}
	return &job, nil
}

// ClaimNext dequeues one job: the oldest queued row, or a running row whose
// claim went stale (worker crash redelivery). Returns nil when the queue is
// empty. The status flip is guarded by the claim condition so two workers
// can never claim the same job.
func (r *JobRepository) ClaimNext(ctx context.Context) (*models.ImportJob, error) {
	now := time.Now().UTC()
	cutoff := now.Add(-r.staleAfter)

	var job models.ImportJob
	err := r.db.WithContext(ctx).
		Where("status = ? OR (status = ? AND started_at < ?)",
			models.JobStatusQueued, models.JobStatusRunning, cutoff).
		Order("created_at asc").
		First(&job).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("find claimable job: %w", err)
	}

	res := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ? AND (status = ? OR (status = ? AND started_at < ?))",
			job.ID, models.JobStatusQueued, models.JobStatusRunning, cutoff).
		Updates(map[string]interface{}{
			"status":     models.JobStatusRunning,
			"started_at": now,
		})
	if res.Error != nil {
		return nil, fmt.Errorf("claim job %s: %w", job.ID, res.Error)
	}
	if res.RowsAffected == 0 {
		// Another worker won the claim; the caller polls again.
		return nil, nil
	}

	job.Status = models.JobStatusRunning
	job.StartedAt = &now
	return &job, nil
}

// Complete marks a job succeeded with its final report. Calling Complete
// again on an already succeeded job is a no-op; calling it on a failed job
// returns ErrInvalidTransition.
func (r *JobRepository) Complete(ctx context.Context, jobID uuid.UUID, report models.ImportReport) error {
	payload, err := json.Marshal(report)
	if err != nil {
		return fmt.Errorf("marshal report for job %s: %w", jobID, err)
	}
	return r.finish(ctx, jobID, models.JobStatusSucceeded, payload, nil)
}

// Fail marks a job failed with the fatal error reason. Idempotent for an
// already failed job; ErrInvalidTransition when the job already succeeded.
func (r *JobRepository) Fail(ctx context.Context, jobID uuid.UUID, reason string) error {
	return r.finish(ctx, jobID, models.JobStatusFailed, nil, &reason)
}

func (r *JobRepository) finish(ctx context.Context, jobID uuid.UUID, status string, report []byte, errorMessage *string) error {
	job, err := r.Get(ctx, jobID)
	if err != nil {
		return err
	}
	if job.Status == status {
		return nil
	}
	if models.TerminalJobStatuses[job.Status] {
		return fmt.Errorf("%w: job %s is already %s", ErrInvalidTransition, jobID, job.Status)
	}

	now := time.Now().UTC()
	updates := map[string]interface{}{
		"status":      status,
		"finished_at": now,
	}
	if report != nil {
		updates["report"] = report
	}
	if errorMessage != nil {
		updates["error_message"] = *errorMessage
	}

	if err := r.db.WithContext(ctx).
		Model(&models.ImportJob{}).
		Where("id = ?", jobID).
		Updates(updates).Error; err != nil {
		return fmt.Errorf("finish job %s as %s: %w", jobID, status, err)
	}
	return nil
}

// Get returns the current snapshot of a job. It never blocks on processing;
// an unknown identifier yields gorm.ErrRecordNotFound.
func (r *JobRepository) Get(ctx context.Context, jobID uuid.UUID) (*models.ImportJob, error) {
	var job models.ImportJob
	if err := r.db.WithContext(ctx).Where("id = ?", jobID).First(&job).Error; err != nil {
		return nil, err
	}
	return &job, nil
}

// Report unmarshals the stored report payload, or nil when none was recorded.
func Report(job *models.ImportJob) (*models.ImportReport, error) {
	if len(job.Report) == 0 {
		return nil, nil
	}
	var report models.ImportReport
	if err := json.Unmarshal(job.Report, &report); err != nil {
		return nil, fmt.Errorf("unmarshal report for job %s: %w", job.ID, err)
	}
	return &report, nil
}
