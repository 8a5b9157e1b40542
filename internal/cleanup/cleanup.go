// Package cleanup removes uploaded files once their import job has been
// finished for longer than the retention window. The entity and job rows are
// kept; only the raw upload is swept.
package cleanup

import (
	"log"
	"time"

	"github.com/robfig/cron/v3"
	"gorm.io/gorm"

	"student-import-service/internal/models"
)

// FileRemover deletes one stored upload by path.
type FileRemover interface {
	Remove(path string) error
}

// Janitor periodically sweeps the upload directory of files belonging to
// finished jobs.
type Janitor struct {
	db        *gorm.DB
	files     FileRemover
	retention time.Duration
	runner    *cron.Cron
}

// NewJanitor creates a Janitor sweeping files of jobs finished more than
// retention ago.
func NewJanitor(db *gorm.DB, files FileRemover, retention time.Duration) *Janitor {
	return &Janitor{
		db:        db,
		files:     files,
		retention: retention,
		runner: cron.New(
			cron.WithSeconds(), // Use seconds field in cron expressions
			cron.WithChain(
				cron.SkipIfStillRunning(cron.DefaultLogger),
				cron.Recover(cron.DefaultLogger),
			),
		),
	}
}

// Start registers the sweep on the given cron schedule and starts the
// runner. An empty schedule disables the janitor entirely.
func (j *Janitor) Start(schedule string) error {
	if schedule == "" {
		log.Println("Upload cleanup janitor disabled (empty schedule)")
		return nil
	}
	if _, err := j.runner.AddFunc(schedule, j.Sweep); err != nil {
		return err
	}
	j.runner.Start()
	log.Printf("Upload cleanup janitor started: schedule=%q retention=%s", schedule, j.retention)
	return nil
}

// Stop stops the cron runner, waiting for a running sweep to finish.
func (j *Janitor) Stop() {
	ctx := j.runner.Stop()
	<-ctx.Done()
}

// Sweep removes the files of all jobs that reached a terminal state before
// the retention cutoff and still reference a file. Removal failures are
// logged and retried on the next sweep.
func (j *Janitor) Sweep() {
	cutoff := time.Now().UTC().Add(-j.retention)

	var jobs []models.ImportJob
	err := j.db.
		Where("status IN ?", []string{models.JobStatusSucceeded, models.JobStatusFailed}).
		Where("finished_at < ?", cutoff).
		Where("file_path <> ''").
		Find(&jobs).Error
	if err != nil {
		log.Printf("Cleanup sweep query failed: %v", err)
		return
	}

	removed := 0
	for _, job := range jobs {
		if err := j.files.Remove(job.FilePath); err != nil {
			log.Printf("Cleanup: failed to remove %s for job %s: %v", job.FilePath, job.ID, err)
			continue
		}
		if err := j.db.Model(&models.ImportJob{}).
			Where("id = ?", job.ID).
			Update("file_path", "").Error; err != nil {
			log.Printf("Cleanup: failed to clear file path for job %s: %v", job.ID, err)
			continue
		}
		removed++
	}

	if len(jobs) > 0 {
		log.Printf("Cleanup sweep finished: candidates=%d removed=%d", len(jobs), removed)
	}
}
