package task

import "github.com/furkanakkurt/taskmanager/internal/apperr"

// Task-related errors
var (
	// Validation errors
	ErrOwnerRequired    = apperr.Validation("owner is required")
	ErrEmptyTitle       = apperr.Validation("task title cannot be empty")
	ErrTitleTooLong     = apperr.Validation("task title cannot exceed 255 characters")
	ErrInvalidTaskID    = apperr.Validation("invalid task ID")
	ErrInvalidCategory  = apperr.Validation("invalid category ID")
	ErrInvalidProject   = apperr.Validation("invalid project ID")
	ErrInvalidStatus    = apperr.Validation("invalid status (must be pending, in_progress or completed)")
	ErrInvalidPriority  = apperr.Validation("invalid priority (must be low, medium or high)")
	ErrInvalidDateRange = apperr.Validation("due-after must not be later than due-before")
	ErrNoChanges        = apperr.Validation("no fields to update")

	// Reference errors
	ErrUnknownCategory = apperr.Validation("category does not exist")
	ErrUnknownProject  = apperr.Validation("project does not exist")
)
