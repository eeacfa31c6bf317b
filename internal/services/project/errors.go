package project

import "github.com/furkanakkurt/taskmanager/internal/apperr"

// Project-related errors
var (
	ErrOwnerRequired    = apperr.Validation("owner is required")
	ErrEmptyName        = apperr.Validation("project name cannot be empty")
	ErrNameTooLong      = apperr.Validation("project name cannot exceed 100 characters")
	ErrInvalidProjectID = apperr.Validation("invalid project ID")
	ErrInvalidStatus    = apperr.Validation("invalid project status (must be active, completed, on_hold or cancelled)")
	ErrNoChanges        = apperr.Validation("no fields to update")
)
