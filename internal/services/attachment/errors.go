package attachment

import "github.com/furkanakkurt/taskmanager/internal/apperr"

// Attachment-related errors
var (
	ErrOwnerRequired       = apperr.Validation("owner is required")
	ErrInvalidTaskID       = apperr.Validation("invalid task ID")
	ErrInvalidAttachmentID = apperr.Validation("invalid attachment ID")
	ErrEmptyFileName       = apperr.Validation("file name cannot be empty")
	ErrFileNameTooLong     = apperr.Validation("file name cannot exceed 255 characters")
	ErrEmptyFile           = apperr.Validation("file is empty")
	ErrFileTooLarge        = apperr.Validation("file exceeds the upload size limit")
	ErrSizeMismatch        = apperr.Validation("file size does not match the uploaded content")
	ErrMissingBody         = apperr.Validation("file content is required")
)
