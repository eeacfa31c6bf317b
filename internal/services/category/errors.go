package category

import "github.com/furkanakkurt/taskmanager/internal/apperr"

// Category-related errors
var (
	ErrOwnerRequired     = apperr.Validation("owner is required")
	ErrEmptyName         = apperr.Validation("category name cannot be empty")
	ErrNameTooLong       = apperr.Validation("category name cannot exceed 50 characters")
	ErrInvalidColor      = apperr.Validation("color must be a hex value like #3B82F6")
	ErrInvalidCategoryID = apperr.Validation("invalid category ID")
	ErrNoChanges         = apperr.Validation("no fields to update")
)
