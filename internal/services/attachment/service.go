package attachment

import (
	"bytes"
	"context"
	"fmt"
	"io"
	"log/slog"
	"strings"

	"github.com/gabriel-vasile/mimetype"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/models"
	"github.com/furkanakkurt/taskmanager/internal/storage"
	"github.com/furkanakkurt/taskmanager/internal/validation"
)

// Service defines attachment operations. A blob and its metadata record are
// written in two steps; when they diverge the error is an
// *apperr.PartialError describing which half is left.
type Service interface {
	Upload(ctx context.Context, req UploadRequest) (models.TaskAttachment, error)
	ListAttachments(ctx context.Context, taskID, ownerID string) ([]models.TaskAttachment, error)
	GetAttachment(ctx context.Context, id, ownerID string) (models.TaskAttachment, error)
	DeleteAttachment(ctx context.Context, id, ownerID string) error
	ResolveURL(ctx context.Context, path string) (string, error)
	PurgeTaskAttachments(ctx context.Context, taskID, ownerID string) (int, error)
}

// UploadRequest carries one file. Size is the declared byte length; the
// body is never read past the upload ceiling.
type UploadRequest struct {
	OwnerID     string `validate:"required"`
	TaskID      string `validate:"required,uuid"`
	FileName    string `validate:"required,max=255"`
	ContentType string
	Size        int64
	Body        io.Reader
}

// repository defines the data access methods needed by the attachment service
type repository interface {
	GetTask(ctx context.Context, id, ownerID string) (models.Task, error)
	ListAttachments(ctx context.Context, taskID, ownerID string) ([]models.TaskAttachment, error)
	GetAttachment(ctx context.Context, id, ownerID string) (models.TaskAttachment, error)
	CreateAttachment(ctx context.Context, a models.TaskAttachment) (models.TaskAttachment, error)
	DeleteAttachment(ctx context.Context, id, ownerID string) (models.TaskAttachment, error)
}

var uploadRules = validation.Rules{
	"OwnerID":           ErrOwnerRequired,
	"TaskID":            ErrInvalidTaskID,
	"FileName.required": ErrEmptyFileName,
	"FileName.max":      ErrFileNameTooLong,
}

type service struct {
	repo   repository
	store  storage.BlobStore
	cfg    Config
	logger *slog.Logger
}

// NewService creates an attachment service over repo and store
func NewService(repo repository, store storage.BlobStore, cfg Config, logger *slog.Logger) (Service, error) {
	cfg, err := cfg.withDefaults()
	if err != nil {
		return nil, err
	}
	if logger == nil {
		logger = slog.Default()
	}
	return &service{
		repo:   repo,
		store:  store,
		cfg:    cfg,
		logger: logger.With("component", "attachments", "provider", store.Provider()),
	}, nil
}

// Upload stores the blob and then its record. If the record cannot be
// written the blob is removed again; when that removal fails too the
// returned PartialError reports the leaked path.
func (s *service) Upload(ctx context.Context, req UploadRequest) (models.TaskAttachment, error) {
	req.FileName = strings.TrimSpace(req.FileName)
	if err := validation.Struct(req, uploadRules); err != nil {
		return models.TaskAttachment{}, err
	}
	if req.Body == nil {
		return models.TaskAttachment{}, ErrMissingBody
	}
	if req.Size > s.cfg.MaxUploadBytes {
		return models.TaskAttachment{}, ErrFileTooLarge
	}

	data, err := io.ReadAll(io.LimitReader(req.Body, s.cfg.MaxUploadBytes+1))
	if err != nil {
		return models.TaskAttachment{}, fmt.Errorf("failed to read upload: %w", err)
	}
	switch {
	case int64(len(data)) > s.cfg.MaxUploadBytes:
		return models.TaskAttachment{}, ErrFileTooLarge
	case len(data) == 0:
		return models.TaskAttachment{}, ErrEmptyFile
	case req.Size > 0 && int64(len(data)) != req.Size:
		return models.TaskAttachment{}, ErrSizeMismatch
	}

	if _, err := s.repo.GetTask(ctx, req.TaskID, req.OwnerID); err != nil {
		return models.TaskAttachment{}, err
	}

	contentType := strings.TrimSpace(req.ContentType)
	if contentType == "" || contentType == "application/octet-stream" {
		contentType = mimetype.Detect(data).String()
	}

	path := storage.BlobPath(req.OwnerID, req.TaskID, req.FileName)

	// A same-named file already attached to the task shares the path. Its
	// blob is overwritten and must not be removed on failure.
	shared, err := s.pathInUse(ctx, req.TaskID, req.OwnerID, path, "")
	if err != nil {
		return models.TaskAttachment{}, err
	}

	if err := s.store.Put(ctx, path, bytes.NewReader(data), int64(len(data)), contentType); err != nil {
		return models.TaskAttachment{}, apperr.Access("upload attachment", err)
	}

	record, err := s.repo.CreateAttachment(ctx, models.TaskAttachment{
		TaskID:   req.TaskID,
		UserID:   req.OwnerID,
		FileName: req.FileName,
		FilePath: path,
		FileSize: int64(len(data)),
		FileType: contentType,
	})
	if err != nil {
		if shared {
			return models.TaskAttachment{}, fmt.Errorf("failed to record attachment: %w", err)
		}
		return models.TaskAttachment{}, s.compensateUpload(ctx, path, err)
	}

	s.logger.Info("attachment uploaded", "id", record.ID, "task_id", record.TaskID, "path", path, "size", record.FileSize)
	return s.withURL(ctx, record)
}

// compensateUpload removes a blob whose record insert failed
func (s *service) compensateUpload(ctx context.Context, path string, insertErr error) error {
	cctx, cancel := context.WithTimeout(context.WithoutCancel(ctx), s.cfg.CleanupTimeout)
	defer cancel()

	if err := s.store.Remove(cctx, path); err != nil {
		s.logger.Error("attachment blob leaked",
			"path", path,
			"insert_error", insertErr,
			"cleanup_error", err)
		return &apperr.PartialError{
			Op:         "upload attachment",
			Path:       path,
			BlobLeaked: true,
			Err:        insertErr,
			CleanupErr: err,
		}
	}

	s.logger.Warn("attachment record failed, blob removed", "path", path, "error", insertErr)
	return fmt.Errorf("failed to record attachment: %w", insertErr)
}

// ListAttachments returns the task's attachments newest first with their
// URLs resolved
func (s *service) ListAttachments(ctx context.Context, taskID, ownerID string) ([]models.TaskAttachment, error) {
	if err := validateIdentity(taskID, ownerID, ErrInvalidTaskID); err != nil {
		return nil, err
	}

	list, err := s.repo.ListAttachments(ctx, taskID, ownerID)
	if err != nil {
		return nil, err
	}
	for i := range list {
		if list[i], err = s.withURL(ctx, list[i]); err != nil {
			return nil, err
		}
	}
	return list, nil
}

func (s *service) GetAttachment(ctx context.Context, id, ownerID string) (models.TaskAttachment, error) {
	if err := validateIdentity(id, ownerID, ErrInvalidAttachmentID); err != nil {
		return models.TaskAttachment{}, err
	}
	a, err := s.repo.GetAttachment(ctx, id, ownerID)
	if err != nil {
		return models.TaskAttachment{}, err
	}
	return s.withURL(ctx, a)
}

// DeleteAttachment removes the blob and then the record. A blob removed
// whose record survives is reported as a PartialError.
func (s *service) DeleteAttachment(ctx context.Context, id, ownerID string) error {
	if err := validateIdentity(id, ownerID, ErrInvalidAttachmentID); err != nil {
		return err
	}

	a, err := s.repo.GetAttachment(ctx, id, ownerID)
	if err != nil {
		return err
	}
	return s.delete(ctx, a)
}

func (s *service) delete(ctx context.Context, a models.TaskAttachment) error {
	shared, err := s.pathInUse(ctx, a.TaskID, a.UserID, a.FilePath, a.ID)
	if err != nil {
		return err
	}
	if !shared {
		if err := s.store.Remove(ctx, a.FilePath); err != nil {
			return apperr.Access("delete attachment", err)
		}
	}

	if _, err := s.repo.DeleteAttachment(ctx, a.ID, a.UserID); err != nil {
		if shared || apperr.KindOf(err) == apperr.KindNotFound {
			return err
		}
		s.logger.Error("attachment record left without blob", "id", a.ID, "path", a.FilePath, "error", err)
		return &apperr.PartialError{
			Op:   "delete attachment",
			Path: a.FilePath,
			Err:  err,
		}
	}

	s.logger.Info("attachment deleted", "id", a.ID, "path", a.FilePath)
	return nil
}

// PurgeTaskAttachments deletes every attachment of a task and reports how
// many were removed. It stops at the first failure.
func (s *service) PurgeTaskAttachments(ctx context.Context, taskID, ownerID string) (int, error) {
	if err := validateIdentity(taskID, ownerID, ErrInvalidTaskID); err != nil {
		return 0, err
	}

	list, err := s.repo.ListAttachments(ctx, taskID, ownerID)
	if err != nil {
		return 0, err
	}
	for i, a := range list {
		if err := s.delete(ctx, a); err != nil {
			return i, err
		}
	}
	return len(list), nil
}

// ResolveURL turns a blob path into a URL using the configured mode. URLs
// are resolved on every call.
func (s *service) ResolveURL(ctx context.Context, path string) (string, error) {
	if s.cfg.URLMode == URLPublic {
		return s.store.PublicURL(path), nil
	}
	url, err := s.store.SignedURL(ctx, path, s.cfg.SignedURLTTL)
	if err != nil {
		return "", apperr.Access("resolve attachment url", err)
	}
	return url, nil
}

func (s *service) withURL(ctx context.Context, a models.TaskAttachment) (models.TaskAttachment, error) {
	url, err := s.ResolveURL(ctx, a.FilePath)
	if err != nil {
		return models.TaskAttachment{}, err
	}
	a.URL = url
	return a, nil
}

// pathInUse reports whether another record of the task than exceptID
// points at path
func (s *service) pathInUse(ctx context.Context, taskID, ownerID, path, exceptID string) (bool, error) {
	list, err := s.repo.ListAttachments(ctx, taskID, ownerID)
	if err != nil {
		return false, err
	}
	for _, a := range list {
		if a.FilePath == path && a.ID != exceptID {
			return true, nil
		}
	}
	return false, nil
}

func validateIdentity(id, ownerID string, invalid error) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrOwnerRequired
	}
	return validation.Var(id, "required,uuid", invalid)
}
