package models

import (
	"time"

	"github.com/google/uuid"
)

// Job lifecycle states. A job is created as queued, claimed into running by
// exactly one worker, and ends in succeeded or failed. Terminal states are
// final.
const (
	JobStatusQueued    = "queued"
	JobStatusRunning   = "running"
	JobStatusSucceeded = "succeeded"
	JobStatusFailed    = "failed"
)

// TerminalJobStatuses lists the states no transition may leave.
var TerminalJobStatuses = map[string]bool{
	JobStatusSucceeded: true,
	JobStatusFailed:    true,
}

// Account represents the login account created for each imported student.
// @Description Account represents the login account created once per unique registration number.
type Account struct {
	ID        uuid.UUID `json:"id" gorm:"type:uuid;primary_key"`
	Username  string    `json:"username" gorm:"type:varchar(150);not null;unique"`
	FirstName string    `json:"first_name" gorm:"type:varchar(150)"`
	LastName  string    `json:"last_name" gorm:"type:varchar(150)"`
	Email     string    `json:"email" gorm:"type:varchar(254)"`
	CreatedAt time.Time `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt time.Time `json:"updated_at" gorm:"autoUpdateTime"`
}

// Student represents one enrollment record keyed by registration number.
// The account link is nullable: deleting an Account must not delete the
// Student, so the foreign key is declared with ON DELETE SET NULL.
// @Description Student represents an enrollment record produced by the CSV import pipeline.
type Student struct {
	ID         uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	RegNo      string     `json:"reg_no" gorm:"type:varchar(50);not null;unique"`
	AccountID  *uuid.UUID `json:"account_id" gorm:"type:uuid"`
	Account    *Account   `json:"-" gorm:"foreignKey:AccountID;constraint:OnDelete:SET NULL;"`
	FirstName  string     `json:"first_name" gorm:"type:varchar(150)"`
	LastName   string     `json:"last_name" gorm:"type:varchar(150)"`
	Email      string     `json:"email" gorm:"type:varchar(254)"`
	Department string     `json:"department" gorm:"type:varchar(120);default:''"`
	Level      string     `json:"level" gorm:"type:varchar(20);default:''"`
	CreatedAt  time.Time  `json:"created_at" gorm:"autoCreateTime"`
}

// ImportJob is both the job-tracker record and the durable queue entry for
// one uploaded file. Status transitions: queued -> running -> succeeded|failed.
// @Description ImportJob tracks the lifecycle and final report of one CSV import.
type ImportJob struct {
	ID           uuid.UUID  `json:"id" gorm:"type:uuid;primary_key"`
	FileName     string     `json:"file_name" gorm:"type:varchar(255);not null"`
	FilePath     string     `json:"file_path" gorm:"type:text;not null"`
	Status       string     `json:"status" gorm:"type:varchar(20);not null;index"`
	Report       []byte     `json:"-" gorm:"type:jsonb"`
	ErrorMessage *string    `json:"error_message,omitempty" gorm:"type:text"`
	StartedAt    *time.Time `json:"started_at,omitempty"`
	FinishedAt   *time.Time `json:"finished_at,omitempty"`
	CreatedAt    time.Time  `json:"created_at" gorm:"autoCreateTime"`
	UpdatedAt    time.Time  `json:"updated_at" gorm:"autoUpdateTime"`
}

// FailedRow records one row that could not be imported, by zero-based
// position in the file.
type FailedRow struct {
	RowIndex int    `json:"row_index"`
	Reason   string `json:"reason"`
}

// ImportReport is the final outcome of a succeeded job. Reused counters
// cover rows whose entity already existed (strict reuse, no field updates).
// @Description ImportReport summarizes the per-row outcomes of one import job.
type ImportReport struct {
	RowsSeen        int         `json:"rows_seen"`
	AccountsCreated int         `json:"accounts_created"`
	AccountsReused  int         `json:"accounts_reused"`
	StudentsCreated int         `json:"students_created"`
	StudentsReused  int         `json:"students_reused"`
	FailedRows      []FailedRow `json:"failed_rows"`
}

// UploadResponse is returned by the upload endpoint once the job is queued.
type UploadResponse struct {
	JobID   string `json:"job_id"`
	Status  string `json:"status"`
	Message string `json:"message"`
}

// JobStatusResponse is the polling snapshot for one job. Report is present
// only once the job has reached a terminal state.
type JobStatusResponse struct {
	JobID        string        `json:"job_id"`
	Status       string        `json:"status"`
	FileName     string        `json:"file_name"`
	Report       *ImportReport `json:"report,omitempty"`
	ErrorMessage string        `json:"error_message,omitempty"`
	CreatedAt    time.Time     `json:"created_at"`
	FinishedAt   *time.Time    `json:"finished_at,omitempty"`
}
