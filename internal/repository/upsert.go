// Package repository holds the persistence layer: strict get-or-create
// upserts for the imported entities and the job table that doubles as the
// durable work queue.
package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/lib/pq"
	"gorm.io/gorm"

	"student-import-service/internal/models"
)

// AccountDefaults are applied only when the account does not exist yet.
// An existing account is returned untouched (first write wins).
type AccountDefaults struct {
	FirstName string
	LastName  string
	Email     string
}

// StudentDefaults are applied only when the student does not exist yet.
type StudentDefaults struct {
	AccountID  *uuid.UUID
	FirstName  string
	LastName   string
	Email      string
	Department string
	Level      string
}

// StudentRepository performs the idempotent create-or-reuse upserts for
// accounts and students. Atomicity under concurrent callers relies on the
// backing store's unique constraints: create, and on a unique violation
// re-read the row the concurrent winner inserted.
type StudentRepository struct {
	db *gorm.DB
}

// NewStudentRepository creates a new StudentRepository.
func NewStudentRepository(db *gorm.DB) *StudentRepository {
	return &StudentRepository{db: db}
}

// GetOrCreateAccount returns the account with the given username, creating
// it from defaults when absent. The second return value reports whether a
// new row was created.
func (r *StudentRepository) GetOrCreateAccount(ctx context.Context, username string, defaults AccountDefaults) (*models.Account, bool, error) {
	if strings.TrimSpace(username) == "" {
		return nil, false, ErrBlankKey
	}

	var existing models.Account
	err := r.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup account %q: %w", username, err)
	}

	account := models.Account{
		ID:        uuid.New(),
		Username:  username,
		FirstName: defaults.FirstName,
		LastName:  defaults.LastName,
		Email:     defaults.Email,
	}
	err = r.db.WithContext(ctx).Create(&account).Error
	if err == nil {
		return &account, true, nil
	}
	if !isUniqueViolation(err) {
		return nil, false, fmt.Errorf("create account %q: %w", username, err)
	}

	// Lost the race: a concurrent caller created the row between our read
	// and our insert. Their write wins; re-read it.
	if rereadErr := r.db.WithContext(ctx).Where("username = ?", username).First(&existing).Error; rereadErr != nil {
		return nil, false, fmt.Errorf("%w: account %q: %v", ErrConflict, username, rereadErr)
	}
	return &existing, false, nil
}

// GetOrCreateStudent returns the student with the given registration number,
// creating it from defaults when absent. Existing students keep all of their
// fields, including the account link.
func (r *StudentRepository) GetOrCreateStudent(ctx context.Context, regNo string, defaults StudentDefaults) (*models.Student, bool, error) {
	if strings.TrimSpace(regNo) == "" {
		return nil, false, ErrBlankKey
	}

	var existing models.Student
	err := r.db.WithContext(ctx).Where("reg_no = ?", regNo).First(&existing).Error
	if err == nil {
		return &existing, false, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, false, fmt.Errorf("lookup student %q: %w", regNo, err)
	}

	student := models.Student{
		ID:         uuid.New(),
		RegNo:      regNo,
		AccountID:  defaults.AccountID,
		FirstName:  defaults.FirstName,
		LastName:   defaults.LastName,
		Email:      defaults.Email,
		Department: defaults.Department,
		Level:      defaults.Level,
	}
	err = r.db.WithContext(ctx).Create(&student).Error
	if err == nil {
		return &student, true, nil
	}
	if !isUniqueViolation(err) {
		return nil, false, fmt.Errorf("create student %q: %w", regNo, err)
	}

	if rereadErr := r.db.WithContext(ctx).Where("reg_no = ?", regNo).First(&existing).Error; rereadErr != nil {
		return nil, false, fmt.Errorf("%w: student %q: %v", ErrConflict, regNo, rereadErr)
	}
	return &existing, false, nil
}

// ListStudents returns students ordered and paginated for the read-only
// listing endpoint.
func (r *StudentRepository) ListStudents(ctx context.Context, limit, offset int, sortBy, sortOrder string) ([]models.Student, error) {
	var students []models.Student
	err := r.db.WithContext(ctx).
		Order(fmt.Sprintf("%s %s", sortBy, sortOrder)).
		Limit(limit).
		Offset(offset).
		Find(&students).Error
	if err != nil {
		return nil, fmt.Errorf("list students: %w", err)
	}
	return students, nil
}

// isUniqueViolation reports whether err is a unique-constraint violation
// from either backend: PostgreSQL error code 23505 via lib/pq, or the
// driver-translated gorm.ErrDuplicatedKey (sqlite in tests).
func isUniqueViolation(err error) bool {
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pqErr *pq.Error
	if errors.As(err, &pqErr) && pqErr.Code == "23505" {
		return true
	}
	return false
}
