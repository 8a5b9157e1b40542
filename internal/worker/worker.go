// Package worker consumes import jobs from the durable queue and runs the
// row-by-row ingestion pipeline against the repositories.
package worker

import (
	"context"
	"io"
	"log"
	"sync"
	"time"

	"github.com/google/uuid"

	"student-import-service/internal/csvparse"
	"student-import-service/internal/models"
	"student-import-service/internal/repository"
)

// maxStoredFailures caps how many per-row failures are kept in the report so
// a pathological file cannot bloat the job row. The failed counter keeps the
// true total.
const maxStoredFailures = 100

// FileOpener reopens a persisted upload for processing.
type FileOpener interface {
	Open(path string) (io.ReadCloser, error)
}

// jobQueue is the slice of the job repository the worker consumes.
type jobQueue interface {
	ClaimNext(ctx context.Context) (*models.ImportJob, error)
	Complete(ctx context.Context, jobID uuid.UUID, report models.ImportReport) error
	Fail(ctx context.Context, jobID uuid.UUID, reason string) error
}

// upsertRepository is the slice of the student repository the worker uses.
type upsertRepository interface {
	GetOrCreateAccount(ctx context.Context, username string, defaults repository.AccountDefaults) (*models.Account, bool, error)
	GetOrCreateStudent(ctx context.Context, regNo string, defaults repository.StudentDefaults) (*models.Student, bool, error)
}

// Config tunes the worker pool.
type Config struct {
	Workers      int
	PollInterval time.Duration
}

// Pool runs N goroutines that poll the queue and process claimed jobs.
// Distinct jobs run concurrently; rows within one job run sequentially in
// file order so the report stays deterministic.
type Pool struct {
	jobs     jobQueue
	students upsertRepository
	files    FileOpener
	cfg      Config

	once sync.Once
}

// NewPool creates a worker pool. Zero config values fall back to defaults.
func NewPool(jobs jobQueue, students upsertRepository, files FileOpener, cfg Config) *Pool {
	if cfg.Workers <= 0 {
		cfg.Workers = 4
	}
	if cfg.PollInterval <= 0 {
		cfg.PollInterval = 500 * time.Millisecond
	}
	return &Pool{jobs: jobs, students: students, files: files, cfg: cfg}
}

// Start launches the pool. It is safe to call more than once; only the
// first call launches goroutines. The pool stops when ctx is cancelled.
func (p *Pool) Start(ctx context.Context) {
	p.once.Do(func() {
		log.Printf("Starting import worker pool: workers=%d poll_interval=%s", p.cfg.Workers, p.cfg.PollInterval)
		for i := 0; i < p.cfg.Workers; i++ {
			go p.workerLoop(ctx)
		}
	})
}

func (p *Pool) workerLoop(ctx context.Context) {
	for {
		select {
		case <-ctx.Done():
			return
		default:
		}

		job, err := p.jobs.ClaimNext(ctx)
		if err != nil {
			log.Printf("Claim next import job failed: %v", err)
			if !sleepWithContext(ctx, p.cfg.PollInterval) {
				return
			}
			continue
		}
		if job == nil {
			if !sleepWithContext(ctx, p.cfg.PollInterval) {
				return
			}
			continue
		}

		if err := p.Process(ctx, job); err != nil {
			log.Printf("Process import job %s failed: %v", job.ID, err)
		}
	}
}

// Process runs one claimed job to a terminal state. A fatal error (file not
// readable, bad encoding, bad header) fails the job before any row work; a
// per-row error is recorded in the report and never fails the job.
func (p *Pool) Process(ctx context.Context, job *models.ImportJob) error {
	reader, err := p.files.Open(job.FilePath)
	if err != nil {
		return p.jobs.Fail(ctx, job.ID, err.Error())
	}
	data, err := io.ReadAll(reader)
	reader.Close()
	if err != nil {
		return p.jobs.Fail(ctx, job.ID, err.Error())
	}

	rows, err := csvparse.Parse(data)
	if err != nil {
		log.Printf("Job %s: fatal parse error: %v", job.ID, err)
		return p.jobs.Fail(ctx, job.ID, err.Error())
	}

	report := models.ImportReport{FailedRows: []models.FailedRow{}}
	failedRowTotal := 0
	rowIndex := 0

	recordFailure := func(reason string) {
		failedRowTotal++
		if len(report.FailedRows) < maxStoredFailures {
			report.FailedRows = append(report.FailedRows, models.FailedRow{
				RowIndex: rowIndex,
				Reason:   reason,
			})
		}
	}

	for rows.Next() {
		row := rows.Row()
		report.RowsSeen++
		rowFailed := false

		regNo := row[csvparse.ColRegNo]

		// Account and student keys are both derived from reg_no here, but
		// the two upserts stay independent on purpose.
		var accountID *uuid.UUID
		account, created, err := p.students.GetOrCreateAccount(ctx, regNo, repository.AccountDefaults{
			FirstName: row[csvparse.ColFirstName],
			LastName:  row[csvparse.ColLastName],
			Email:     row[csvparse.ColEmail],
		})
		if err != nil {
			recordFailure(err.Error())
			rowFailed = true
		} else {
			accountID = &account.ID
			if created {
				report.AccountsCreated++
			} else {
				report.AccountsReused++
			}
		}

		// The student is still upserted when the account failed, just
		// without the link; a later re-run may fill it in on a fresh row.
		_, created, err = p.students.GetOrCreateStudent(ctx, regNo, repository.StudentDefaults{
			AccountID:  accountID,
			FirstName:  row[csvparse.ColFirstName],
			LastName:   row[csvparse.ColLastName],
			Email:      row[csvparse.ColEmail],
			Department: row[csvparse.ColDepartment],
			Level:      row[csvparse.ColLevel],
		})
		if err != nil {
			if !rowFailed {
				recordFailure(err.Error())
			}
		} else if created {
			report.StudentsCreated++
		} else {
			report.StudentsReused++
		}

		rowIndex++
	}

	if err := rows.Err(); err != nil {
		// Malformed record mid-file aborts the batch; partial entity writes
		// stay (the upserts make a re-run safe).
		log.Printf("Job %s: fatal parse error after %d rows: %v", job.ID, report.RowsSeen, err)
		return p.jobs.Fail(ctx, job.ID, err.Error())
	}

	log.Printf("Job %s: processed rows=%d accounts_created=%d accounts_reused=%d students_created=%d students_reused=%d failed=%d",
		job.ID, report.RowsSeen, report.AccountsCreated, report.AccountsReused,
		report.StudentsCreated, report.StudentsReused, failedRowTotal)
	return p.jobs.Complete(ctx, job.ID, report)
}

// sleepWithContext waits for d or until ctx is cancelled; it reports whether
// the caller should keep looping.
func sleepWithContext(ctx context.Context, d time.Duration) bool {
	timer := time.NewTimer(d)
	defer timer.Stop()

	select {
	case <-ctx.Done():
		return false
	case <-timer.C:
		return true
	}
}
