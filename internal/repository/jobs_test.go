package repository

import (
	"context"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"

	"student-import-service/internal/models"
)

func TestEnqueueAndGet(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	job, err := repo.Enqueue(ctx, "/uploads/abc_students.csv", "students.csv")
	require.NoError(t, err)
	assert.NotEqual(t, uuid.Nil, job.ID)
	assert.Equal(t, models.JobStatusQueued, job.Status)
	assert.Nil(t, job.StartedAt)

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusQueued, got.Status)
	assert.Equal(t, "students.csv", got.FileName)
	assert.Empty(t, got.Report)
}

func TestGet_UnknownJob(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepository(db)

	_, err := repo.Get(context.Background(), uuid.New())
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestClaimNext_OldestFirstAndEmptyQueue(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	first, err := repo.Enqueue(ctx, "/uploads/a.csv", "a.csv")
	require.NoError(t, err)
	// Force distinct created_at ordering regardless of clock resolution.
	require.NoError(t, db.Model(first).Update("created_at", time.Now().UTC().Add(-time.Minute)).Error)
	second, err := repo.Enqueue(ctx, "/uploads/b.csv", "b.csv")
	require.NoError(t, err)

	claimed, err := repo.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, first.ID, claimed.ID)
	assert.Equal(t, models.JobStatusRunning, claimed.Status)
	require.NotNil(t, claimed.StartedAt)

	claimed, err = repo.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	assert.Equal(t, second.ID, claimed.ID)

	claimed, err = repo.ClaimNext(ctx)
	require.NoError(t, err)
	assert.Nil(t, claimed, "empty queue yields nil, not an error")
}

func TestClaimNext_RedeliversStaleRunningJob(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepositoryWithStaleAfter(db, time.Minute)
	ctx := context.Background()

	job, err := repo.Enqueue(ctx, "/uploads/a.csv", "a.csv")
	require.NoError(t, err)

	claimed, err := repo.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)

	// A freshly running job is not redelivered.
	again, err := repo.ClaimNext(ctx)
	require.NoError(t, err)
	assert.Nil(t, again)

	// Age the claim past the window: the job is handed out again.
	stale := time.Now().UTC().Add(-2 * time.Minute)
	require.NoError(t, db.Model(&models.ImportJob{}).
		Where("id = ?", job.ID).
		Update("started_at", stale).Error)

	redelivered, err := repo.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, redelivered)
	assert.Equal(t, job.ID, redelivered.ID)
}

func TestCompleteStoresReport(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	job, err := repo.Enqueue(ctx, "/uploads/a.csv", "a.csv")
	require.NoError(t, err)
	_, err = repo.ClaimNext(ctx)
	require.NoError(t, err)

	report := models.ImportReport{
		RowsSeen:        2,
		AccountsCreated: 1,
		AccountsReused:  1,
		StudentsCreated: 1,
		StudentsReused:  1,
		FailedRows:      []models.FailedRow{},
	}
	require.NoError(t, repo.Complete(ctx, job.ID, report))

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusSucceeded, got.Status)
	require.NotNil(t, got.FinishedAt)

	stored, err := Report(got)
	require.NoError(t, err)
	require.NotNil(t, stored)
	assert.Equal(t, report, *stored)
}

func TestFailStoresReason(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	job, err := repo.Enqueue(ctx, "/uploads/a.csv", "a.csv")
	require.NoError(t, err)
	_, err = repo.ClaimNext(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Fail(ctx, job.ID, "missing or invalid CSV header row"))

	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	assert.Equal(t, models.JobStatusFailed, got.Status)
	require.NotNil(t, got.ErrorMessage)
	assert.Equal(t, "missing or invalid CSV header row", *got.ErrorMessage)

	report, err := Report(got)
	require.NoError(t, err)
	assert.Nil(t, report, "failed jobs carry no report")
}

func TestTerminalStatesAreFinal(t *testing.T) {
	db := setupTestDB(t)
	repo := NewJobRepository(db)
	ctx := context.Background()

	job, err := repo.Enqueue(ctx, "/uploads/a.csv", "a.csv")
	require.NoError(t, err)
	_, err = repo.ClaimNext(ctx)
	require.NoError(t, err)

	require.NoError(t, repo.Complete(ctx, job.ID, models.ImportReport{RowsSeen: 1}))

	// Re-applying the same terminal state is an idempotent no-op.
	assert.NoError(t, repo.Complete(ctx, job.ID, models.ImportReport{RowsSeen: 99}))
	got, err := repo.Get(ctx, job.ID)
	require.NoError(t, err)
	stored, err := Report(got)
	require.NoError(t, err)
	assert.Equal(t, 1, stored.RowsSeen, "the first terminal write wins")

	// Moving out of a terminal state is a contract violation.
	err = repo.Fail(ctx, job.ID, "should not happen")
	assert.ErrorIs(t, err, ErrInvalidTransition)
}
