package worker

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"student-import-service/internal/models"
	"student-import-service/internal/repository"
	"student-import-service/internal/storage"
)

const sampleHeader = "reg_no,first_name,last_name,email,department,level\n"

type testEnv struct {
	db       *gorm.DB
	jobs     *repository.JobRepository
	students *repository.StudentRepository
	store    *storage.LocalStore
	pool     *Pool
}

func setupEnv(t *testing.T) *testEnv {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", uuid.New().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		TranslateError: true,
		Logger:         logger.Default.LogMode(logger.Silent),
	})
	require.NoError(t, err)
	require.NoError(t, db.AutoMigrate(&models.Account{}, &models.Student{}, &models.ImportJob{}))

	store, err := storage.NewLocalStore(filepath.Join(t.TempDir(), "uploads"))
	require.NoError(t, err)

	jobs := repository.NewJobRepository(db)
	students := repository.NewStudentRepository(db)
	pool := NewPool(jobs, students, store, Config{Workers: 1, PollInterval: 10 * time.Millisecond})

	return &testEnv{db: db, jobs: jobs, students: students, store: store, pool: pool}
}

// enqueueFile writes content to the store and enqueues a job for it.
func (e *testEnv) enqueueFile(t *testing.T, content string) *models.ImportJob {
	t.Helper()
	path := filepath.Join(e.store.BaseDir, "students.csv")
	require.NoError(t, os.WriteFile(path, []byte(content), 0o644))
	job, err := e.jobs.Enqueue(context.Background(), path, "students.csv")
	require.NoError(t, err)
	return job
}

// runOne claims and processes exactly one job synchronously.
func (e *testEnv) runOne(t *testing.T) *models.ImportJob {
	t.Helper()
	ctx := context.Background()
	claimed, err := e.jobs.ClaimNext(ctx)
	require.NoError(t, err)
	require.NotNil(t, claimed)
	require.NoError(t, e.pool.Process(ctx, claimed))
	got, err := e.jobs.Get(ctx, claimed.ID)
	require.NoError(t, err)
	return got
}

func TestProcess_ImportsRowsAndReports(t *testing.T) {
	env := setupEnv(t)
	env.enqueueFile(t, sampleHeader+
		"S001,Ada,Lovelace,ada@x.com,CS,300\n"+
		"S002,Alan,Turing,alan@x.com,Math,200\n")

	job := env.runOne(t)
	assert.Equal(t, models.JobStatusSucceeded, job.Status)

	report, err := repository.Report(job)
	require.NoError(t, err)
	require.NotNil(t, report)
	assert.Equal(t, 2, report.RowsSeen)
	assert.Equal(t, 2, report.AccountsCreated)
	assert.Equal(t, 0, report.AccountsReused)
	assert.Equal(t, 2, report.StudentsCreated)
	assert.Equal(t, 0, report.StudentsReused)
	assert.Empty(t, report.FailedRows)

	var student models.Student
	require.NoError(t, env.db.Where("reg_no = ?", "S001").First(&student).Error)
	assert.Equal(t, "Ada", student.FirstName)
	assert.Equal(t, "CS", student.Department)
	require.NotNil(t, student.AccountID)

	var account models.Account
	require.NoError(t, env.db.Where("id = ?", student.AccountID).First(&account).Error)
	assert.Equal(t, "S001", account.Username)
}

func TestProcess_DuplicateRegNoWithinOneFile(t *testing.T) {
	env := setupEnv(t)
	env.enqueueFile(t, sampleHeader+
		"S001,Ada,Lovelace,ada@x.com,CS,300\n"+
		"S001,Ada,L,,CS,300\n")

	job := env.runOne(t)
	assert.Equal(t, models.JobStatusSucceeded, job.Status)

	report, err := repository.Report(job)
	require.NoError(t, err)
	assert.Equal(t, 2, report.RowsSeen)
	assert.Equal(t, 1, report.AccountsCreated)
	assert.Equal(t, 1, report.AccountsReused)
	assert.Equal(t, 1, report.StudentsCreated)
	assert.Equal(t, 1, report.StudentsReused)
	assert.Empty(t, report.FailedRows)

	// The first row's values stick; the second encounter changes nothing.
	var student models.Student
	require.NoError(t, env.db.Where("reg_no = ?", "S001").First(&student).Error)
	assert.Equal(t, "Lovelace", student.LastName)
	assert.Equal(t, "ada@x.com", student.Email)
}

func TestProcess_ResubmittingSameFileIsIdempotent(t *testing.T) {
	env := setupEnv(t)
	content := sampleHeader +
		"S001,Ada,Lovelace,ada@x.com,CS,300\n" +
		"S002,Alan,Turing,alan@x.com,Math,200\n"

	env.enqueueFile(t, content)
	env.runOne(t)

	env.enqueueFile(t, content)
	second := env.runOne(t)

	report, err := repository.Report(second)
	require.NoError(t, err)
	assert.Equal(t, 2, report.RowsSeen)
	assert.Equal(t, 0, report.AccountsCreated)
	assert.Equal(t, 2, report.AccountsReused)
	assert.Equal(t, 0, report.StudentsCreated)
	assert.Equal(t, 2, report.StudentsReused)

	var accounts, students int64
	require.NoError(t, env.db.Model(&models.Account{}).Count(&accounts).Error)
	require.NoError(t, env.db.Model(&models.Student{}).Count(&students).Error)
	assert.EqualValues(t, 2, accounts)
	assert.EqualValues(t, 2, students)
}

func TestProcess_BlankRegNoFailsOnlyThatRow(t *testing.T) {
	env := setupEnv(t)
	env.enqueueFile(t, sampleHeader+
		"S001,Ada,Lovelace,ada@x.com,CS,300\n"+
		",No,RegNo,none@x.com,CS,100\n"+
		"S003,Grace,Hopper,grace@x.com,CS,400\n")

	job := env.runOne(t)
	assert.Equal(t, models.JobStatusSucceeded, job.Status, "a bad row never fails the batch")

	report, err := repository.Report(job)
	require.NoError(t, err)
	assert.Equal(t, 3, report.RowsSeen)
	assert.Equal(t, 2, report.AccountsCreated)
	assert.Equal(t, 2, report.StudentsCreated)
	require.Len(t, report.FailedRows, 1)
	assert.Equal(t, 1, report.FailedRows[0].RowIndex)
	assert.Contains(t, report.FailedRows[0].Reason, "blank")

	// The row after the bad one was still processed.
	var student models.Student
	require.NoError(t, env.db.Where("reg_no = ?", "S003").First(&student).Error)
	assert.Equal(t, "Grace", student.FirstName)
}

func TestProcess_MissingHeaderFailsJob(t *testing.T) {
	env := setupEnv(t)
	env.enqueueFile(t, "Ada,Lovelace,ada@x.com\n")

	job := env.runOne(t)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "header")

	report, err := repository.Report(job)
	require.NoError(t, err)
	assert.Nil(t, report)

	var students int64
	require.NoError(t, env.db.Model(&models.Student{}).Count(&students).Error)
	assert.EqualValues(t, 0, students, "fatal parse errors abort before any row work")
}

func TestProcess_InvalidEncodingFailsJob(t *testing.T) {
	env := setupEnv(t)
	env.enqueueFile(t, sampleHeader+"S001,Ada\xff\xfe,Lovelace,,,\n")

	job := env.runOne(t)
	assert.Equal(t, models.JobStatusFailed, job.Status)
	require.NotNil(t, job.ErrorMessage)
	assert.Contains(t, *job.ErrorMessage, "UTF-8")
}

func TestProcess_UnreadableFileFailsJob(t *testing.T) {
	env := setupEnv(t)
	job, err := env.jobs.Enqueue(context.Background(), filepath.Join(env.store.BaseDir, "missing.csv"), "missing.csv")
	require.NoError(t, err)

	got := env.runOne(t)
	assert.Equal(t, job.ID, got.ID)
	assert.Equal(t, models.JobStatusFailed, got.Status)
}

func TestPool_ProcessesEnqueuedJobInBackground(t *testing.T) {
	env := setupEnv(t)
	job := env.enqueueFile(t, sampleHeader+"S001,Ada,Lovelace,ada@x.com,CS,300\n")

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	env.pool.Start(ctx)

	assert.Eventually(t, func() bool {
		got, err := env.jobs.Get(context.Background(), job.ID)
		return err == nil && got.Status == models.JobStatusSucceeded
	}, 5*time.Second, 20*time.Millisecond)
}
