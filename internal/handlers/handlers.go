// Package handlers exposes the HTTP surface: CSV upload intake, job status
// polling, and the read-only student listing.
package handlers

import (
	"errors"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"gorm.io/gorm"

	"student-import-service/internal/database"
	"student-import-service/internal/models"
	"student-import-service/internal/repository"
	"student-import-service/internal/storage"
)

const (
	DefaultLimit         = 10
	MaxLimit             = 100
	DefaultSortOrder     = "desc"
	DefaultStudentSortBy = "created_at"
)

var AllowedStudentSortByFields = map[string]bool{
	"reg_no":     true,
	"first_name": true,
	"last_name":  true,
	"department": true,
	"level":      true,
	"created_at": true,
}

// StudentHandler serves the student import endpoints. The upload store is
// injected at construction; the database comes from the shared connection.
type StudentHandler struct {
	store *storage.LocalStore
}

// NewStudentHandler creates a StudentHandler persisting uploads to store.
func NewStudentHandler(store *storage.LocalStore) *StudentHandler {
	return &StudentHandler{store: store}
}

// RegisterRoutes attaches the student import endpoints to a router group.
func (h *StudentHandler) RegisterRoutes(v1 *gin.RouterGroup) {
	students := v1.Group("/students")
	{
		students.POST("/upload", h.UploadStudentsCSV)
		students.GET("", h.ListStudents)
	}
	v1.GET("/jobs/:id", h.GetJobStatus)
}

// UploadStudentsCSV godoc
// @Summary Upload a student enrollment CSV for asynchronous import
// @Description Accepts a multipart CSV upload, persists it, and enqueues an import job. Returns immediately with the job identifier; processing happens in the background and its outcome is only visible through the job status endpoint.
// @Tags students
// @Accept  multipart/form-data
// @Produce  json
// @Param   file  formData  file  true  "CSV file with header reg_no,first_name,last_name,email,department,level"
// @Success 202 {object} models.UploadResponse "Upload accepted, job queued"
// @Failure 400 {object} models.APIError "Bad Request (e.g., missing file - see 'code' in response for specifics like MISSING_FILE)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response for specifics like INTERNAL_SERVER_ERROR)"
// @Router /students/upload [post]
func (h *StudentHandler) UploadStudentsCSV(c *gin.Context) {
	fileHeader, err := c.FormFile("file")
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeMissingFile, "CSV file is required.", nil)
		return
	}

	src, err := fileHeader.Open()
	if err != nil {
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to read uploaded file.", nil)
		return
	}
	defer src.Close()

	path, err := h.store.Save(fileHeader.Filename, src)
	if err != nil {
		log.Printf("Failed to persist upload %q: %v", fileHeader.Filename, err)
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to persist uploaded file.", nil)
		return
	}

	jobs := repository.NewJobRepository(database.GetDB())
	job, err := jobs.Enqueue(c.Request.Context(), path, fileHeader.Filename)
	if err != nil {
		log.Printf("Failed to enqueue import job for %q: %v", fileHeader.Filename, err)
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to enqueue import job.", nil)
		return
	}

	RespondWithSuccess(c, http.StatusAccepted, models.UploadResponse{
		JobID:   job.ID.String(),
		Status:  job.Status,
		Message: "CSV upload received. Processing started.",
	})
}

// GetJobStatus godoc
// @Summary Get the status of an import job
// @Description Returns the current lifecycle state of an import job. The report is included once the job has reached a terminal state (succeeded or failed). This endpoint never blocks waiting for completion.
// @Tags jobs
// @Produce  json
// @Param   id  path  string  true  "Import job ID (UUID)"
// @Success 200 {object} models.JobStatusResponse "Current job snapshot"
// @Failure 400 {object} models.APIError "Bad Request (e.g., invalid ID format - see 'code' in response for specifics like INVALID_ID_FORMAT)"
// @Failure 404 {object} models.APIError "Not Found (unknown job ID - see 'code' in response for specifics like JOB_NOT_FOUND)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response for specifics like INTERNAL_SERVER_ERROR)"
// @Router /jobs/{id} [get]
func (h *StudentHandler) GetJobStatus(c *gin.Context) {
	idParam := c.Param("id")
	jobID, err := uuid.Parse(idParam)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeInvalidIDFormat, "Invalid job ID format. Must be a valid UUID.", gin.H{"id": idParam})
		return
	}

	jobs := repository.NewJobRepository(database.GetDB())
	job, err := jobs.Get(c.Request.Context(), jobID)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			RespondWithError(c, http.StatusNotFound, models.ErrorCodeJobNotFound, "Import job not found.", gin.H{"id": idParam})
			return
		}
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to fetch import job.", nil)
		return
	}

	resp := models.JobStatusResponse{
		JobID:     job.ID.String(),
		Status:    job.Status,
		FileName:  job.FileName,
		CreatedAt: job.CreatedAt,
	}
	if models.TerminalJobStatuses[job.Status] {
		resp.FinishedAt = job.FinishedAt
		if job.ErrorMessage != nil {
			resp.ErrorMessage = *job.ErrorMessage
		}
		report, err := repository.Report(job)
		if err != nil {
			log.Printf("Failed to decode report for job %s: %v", job.ID, err)
			RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to decode job report.", nil)
			return
		}
		resp.Report = report
	}

	RespondWithSuccess(c, http.StatusOK, resp)
}

// ListStudents godoc
// @Summary List imported student records
// @Description Get a paginated list of all student records produced by the import pipeline.
// @Tags students
// @Produce  json
// @Param   limit       query  int     false  "Maximum number of records to return (default 10, max 100)"
// @Param   offset      query  int     false  "Number of records to skip (default 0)"
// @Param   sort_by     query  string  false  "Field to sort by (reg_no, first_name, last_name, department, level, created_at)"
// @Param   sort_order  query  string  false  "Sort order: asc or desc (default desc)"
// @Success 200 {array} models.Student "Successfully retrieved list of students"
// @Failure 400 {object} models.APIError "Bad Request (e.g., validation error - see 'code' in response for specifics like VALIDATION_ERROR)"
// @Failure 500 {object} models.APIError "Internal Server Error (see 'code' in response for specifics like INTERNAL_SERVER_ERROR)"
// @Router /students [get]
func (h *StudentHandler) ListStudents(c *gin.Context) {
	// Get and validate pagination parameters
	limitStr := c.DefaultQuery("limit", strconv.Itoa(DefaultLimit))
	limit, err := strconv.Atoi(limitStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid limit parameter: not a number.", gin.H{"limit": limitStr})
		return
	}
	if limit <= 0 {
		limit = DefaultLimit
	} else if limit > MaxLimit {
		limit = MaxLimit
	}

	offsetStr := c.DefaultQuery("offset", "0")
	offset, err := strconv.Atoi(offsetStr)
	if err != nil {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid offset parameter: not a number.", gin.H{"offset": offsetStr})
		return
	}
	if offset < 0 {
		offset = 0
	}

	// Get and validate sorting parameters
	sortBy := c.DefaultQuery("sort_by", DefaultStudentSortBy)
	if _, isValid := AllowedStudentSortByFields[sortBy]; !isValid {
		allowedFields := make([]string, 0, len(AllowedStudentSortByFields))
		for k := range AllowedStudentSortByFields {
			allowedFields = append(allowedFields, k)
		}
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid sort_by field for students.", gin.H{"field": sortBy, "allowed": allowedFields})
		return
	}

	sortOrder := strings.ToLower(c.DefaultQuery("sort_order", DefaultSortOrder))
	if sortOrder != "asc" && sortOrder != "desc" {
		RespondWithError(c, http.StatusBadRequest, models.ErrorCodeValidation, "Invalid sort_order value. Must be 'asc' or 'desc'.", gin.H{"value": c.Query("sort_order")})
		return
	}

	students := repository.NewStudentRepository(database.GetDB())
	list, err := students.ListStudents(c.Request.Context(), limit, offset, sortBy, sortOrder)
	if err != nil {
		log.Printf("Failed to list students: %v", err)
		RespondWithError(c, http.StatusInternalServerError, models.ErrorCodeInternalServerError, "Failed to list students.", nil)
		return
	}

	RespondWithSuccess(c, http.StatusOK, list)
}
