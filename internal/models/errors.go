package models

// APIError represents a standardized error response format for the API.
// @Description APIError represents a standardized error response format, including an application-specific error code, a human-readable message, and optional details.
type APIError struct {
	Code    string      `json:"code"`              // Application-specific error code (e.g., "JOB_NOT_FOUND", "VALIDATION_ERROR")
	Message string      `json:"message"`           // Human-readable message describing the error
	Details interface{} `json:"details,omitempty"` // Optional field for additional error details
}

// Predefined application-specific error codes
const (
	// Generic Errors
	ErrorCodeInternalServerError = "INTERNAL_SERVER_ERROR"

	// Input Validation & Data Errors
	ErrorCodeValidation      = "VALIDATION_ERROR"  // General validation failure
	ErrorCodeInvalidIDFormat = "INVALID_ID_FORMAT" // e.g., UUID format error
	ErrorCodeMissingFile     = "MISSING_FILE"      // No file part in the multipart upload

	// Resource Specific Errors
	ErrorCodeJobNotFound = "JOB_NOT_FOUND"

	// Pipeline Errors (surfaced through job status, not HTTP errors)
	ErrorCodeDecode            = "DECODE_ERROR"       // Malformed byte encoding in the uploaded file
	ErrorCodeSchema            = "SCHEMA_ERROR"       // Missing or unusable header row
	ErrorCodeConflict          = "CONFLICT_ERROR"     // Unresolvable unique-constraint race
	ErrorCodeInvalidTransition = "INVALID_TRANSITION" // Attempt to leave a terminal job state
)
