package task

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/furkanakkurt/taskmanager/internal/apperr"
	"github.com/furkanakkurt/taskmanager/internal/database"
	"github.com/furkanakkurt/taskmanager/internal/models"
	"github.com/furkanakkurt/taskmanager/internal/validation"
)

// Service defines all task-related business operations
type Service interface {
	// Read operations
	ListTasks(ctx context.Context, ownerID string, filter ListFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id, ownerID string) (models.Task, error)

	// Write operations
	CreateTask(ctx context.Context, req CreateTaskRequest) (models.Task, error)
	UpdateTask(ctx context.Context, req UpdateTaskRequest) (models.Task, error)
	UpdateTaskStatus(ctx context.Context, id, ownerID string, status models.TaskStatus) (models.Task, error)
	DeleteTask(ctx context.Context, id, ownerID string) error
}

// ListFilter narrows ListTasks. Zero fields match everything.
type ListFilter struct {
	CategoryID string              `validate:"omitempty,uuid"`
	ProjectID  string              `validate:"omitempty,uuid"`
	Status     models.TaskStatus   `validate:"omitempty,oneof=pending in_progress completed"`
	Priority   models.TaskPriority `validate:"omitempty,oneof=low medium high"`
	Search     string
	DueAfter   *time.Time
	DueBefore  *time.Time
}

// CreateTaskRequest encapsulates all data needed to create a task
type CreateTaskRequest struct {
	OwnerID     string              `validate:"required"`
	Title       string              `validate:"required,max=255"`
	Description string
	Status      models.TaskStatus   `validate:"omitempty,oneof=pending in_progress completed"`   // Optional: empty means pending
	Priority    models.TaskPriority `validate:"omitempty,oneof=low medium high"`                 // Optional: empty means medium
	DueDate     *time.Time
	CategoryID  *string `validate:"omitempty,uuid"`
	ProjectID   *string `validate:"omitempty,uuid"`
}

// UpdateTaskRequest encapsulates all data needed to update a task.
// Fields with pointers are optional - nil means don't update. The Clear
// flags null the corresponding reference.
type UpdateTaskRequest struct {
	ID          string              `validate:"required,uuid"`
	OwnerID     string              `validate:"required"`
	Title       *string             `validate:"omitempty,max=255"`
	Description *string
	Status      *models.TaskStatus   `validate:"omitempty,oneof=pending in_progress completed"`
	Priority    *models.TaskPriority `validate:"omitempty,oneof=low medium high"`
	DueDate     *time.Time
	CategoryID  *string `validate:"omitempty,uuid"`
	ProjectID   *string `validate:"omitempty,uuid"`

	ClearDueDate  bool
	ClearCategory bool
	ClearProject  bool
}

func (r UpdateTaskRequest) empty() bool {
	return r.Title == nil && r.Description == nil && r.Status == nil && r.Priority == nil &&
		r.DueDate == nil && r.CategoryID == nil && r.ProjectID == nil &&
		!r.ClearDueDate && !r.ClearCategory && !r.ClearProject
}

// repository defines the data access methods needed by the task service
// This interface is private to the service layer
type repository interface {
	ListTasks(ctx context.Context, ownerID string, f database.TaskFilter) ([]models.Task, error)
	GetTask(ctx context.Context, id, ownerID string) (models.Task, error)
	CreateTask(ctx context.Context, t models.Task) (models.Task, error)
	UpdateTask(ctx context.Context, id, ownerID string, mutate func(*models.Task) error) (models.Task, error)
	DeleteTask(ctx context.Context, id, ownerID string) (models.Task, error)

	// Reference checks
	GetCategory(ctx context.Context, id, ownerID string) (models.Category, error)
	GetProject(ctx context.Context, id, ownerID string) (models.Project, error)
}

// AttachmentCleaner removes a task's attachments (blobs and records) before
// the task itself is deleted
type AttachmentCleaner interface {
	PurgeTaskAttachments(ctx context.Context, taskID, ownerID string) (int, error)
}

var createRules = validation.Rules{
	"OwnerID":        ErrOwnerRequired,
	"Title.required": ErrEmptyTitle,
	"Title.max":      ErrTitleTooLong,
	"Status":         ErrInvalidStatus,
	"Priority":       ErrInvalidPriority,
	"CategoryID":     ErrInvalidCategory,
	"ProjectID":      ErrInvalidProject,
}

var updateRules = validation.Rules{
	"ID":         ErrInvalidTaskID,
	"OwnerID":    ErrOwnerRequired,
	"Title":      ErrTitleTooLong,
	"Status":     ErrInvalidStatus,
	"Priority":   ErrInvalidPriority,
	"CategoryID": ErrInvalidCategory,
	"ProjectID":  ErrInvalidProject,
}

var filterRules = validation.Rules{
	"CategoryID": ErrInvalidCategory,
	"ProjectID":  ErrInvalidProject,
	"Status":     ErrInvalidStatus,
	"Priority":   ErrInvalidPriority,
}

// service implements Service interface
type service struct {
	repo    repository
	cleaner AttachmentCleaner
}

// NewService creates a new task service. cleaner may be nil when tasks
// never carry attachments.
func NewService(repo repository, cleaner AttachmentCleaner) Service {
	return &service{
		repo:    repo,
		cleaner: cleaner,
	}
}

// ListTasks returns the owner's tasks, most recently created first
func (s *service) ListTasks(ctx context.Context, ownerID string, filter ListFilter) ([]models.Task, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrOwnerRequired
	}
	if err := validation.Struct(filter, filterRules); err != nil {
		return nil, err
	}
	if filter.DueAfter != nil && filter.DueBefore != nil && filter.DueAfter.After(*filter.DueBefore) {
		return nil, ErrInvalidDateRange
	}

	return s.repo.ListTasks(ctx, ownerID, database.TaskFilter{
		CategoryID: filter.CategoryID,
		ProjectID:  filter.ProjectID,
		Status:     filter.Status,
		Priority:   filter.Priority,
		Search:     strings.TrimSpace(filter.Search),
		DueAfter:   filter.DueAfter,
		DueBefore:  filter.DueBefore,
	})
}

// GetTask retrieves one task of the owner
func (s *service) GetTask(ctx context.Context, id, ownerID string) (models.Task, error) {
	if err := s.validateIdentity(id, ownerID); err != nil {
		return models.Task{}, err
	}
	return s.repo.GetTask(ctx, id, ownerID)
}

// CreateTask handles task creation with validation and business rules
func (s *service) CreateTask(ctx context.Context, req CreateTaskRequest) (models.Task, error) {
	req.Title = strings.TrimSpace(req.Title)
	if err := validation.Struct(req, createRules); err != nil {
		return models.Task{}, err
	}
	if err := s.checkReferences(ctx, req.OwnerID, req.CategoryID, req.ProjectID); err != nil {
		return models.Task{}, err
	}

	t := models.Task{
		Title:      req.Title,
		Status:     req.Status,
		Priority:   req.Priority,
		DueDate:    req.DueDate,
		CategoryID: req.CategoryID,
		ProjectID:  req.ProjectID,
		UserID:     req.OwnerID,
	}
	if t.Status == "" {
		t.Status = models.StatusPending
	}
	if t.Priority == "" {
		t.Priority = models.PriorityMedium
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		t.Description = &d
	}

	task, err := s.repo.CreateTask(ctx, t)
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to create task: %w", err)
	}
	return task, nil
}

// UpdateTask handles task updates with validation
func (s *service) UpdateTask(ctx context.Context, req UpdateTaskRequest) (models.Task, error) {
	if req.Title != nil {
		title := strings.TrimSpace(*req.Title)
		if title == "" {
			return models.Task{}, ErrEmptyTitle
		}
		req.Title = &title
	}
	if err := validation.Struct(req, updateRules); err != nil {
		return models.Task{}, err
	}
	if req.empty() {
		return models.Task{}, ErrNoChanges
	}
	if err := s.checkReferences(ctx, req.OwnerID, req.CategoryID, req.ProjectID); err != nil {
		return models.Task{}, err
	}

	task, err := s.repo.UpdateTask(ctx, req.ID, req.OwnerID, func(t *models.Task) error {
		applyUpdate(t, req)
		return nil
	})
	if err != nil {
		return models.Task{}, fmt.Errorf("failed to update task: %w", err)
	}
	return task, nil
}

func applyUpdate(t *models.Task, req UpdateTaskRequest) {
	if req.Title != nil {
		t.Title = *req.Title
	}
	if req.Description != nil {
		if d := strings.TrimSpace(*req.Description); d != "" {
			t.Description = &d
		} else {
			t.Description = nil
		}
	}
	if req.Status != nil {
		t.Status = *req.Status
	}
	if req.Priority != nil {
		t.Priority = *req.Priority
	}

	switch {
	case req.ClearDueDate:
		t.DueDate = nil
	case req.DueDate != nil:
		t.DueDate = req.DueDate
	}
	switch {
	case req.ClearCategory:
		t.CategoryID = nil
	case req.CategoryID != nil:
		t.CategoryID = req.CategoryID
	}
	switch {
	case req.ClearProject:
		t.ProjectID = nil
	case req.ProjectID != nil:
		t.ProjectID = req.ProjectID
	}
}

// UpdateTaskStatus moves a task to another workflow state
func (s *service) UpdateTaskStatus(ctx context.Context, id, ownerID string, status models.TaskStatus) (models.Task, error) {
	if !status.Valid() {
		return models.Task{}, ErrInvalidStatus
	}
	return s.UpdateTask(ctx, UpdateTaskRequest{ID: id, OwnerID: ownerID, Status: &status})
}

// DeleteTask removes a task together with its attachments. Attachments are
// purged first so that a failure leaves the task in place for a retry.
func (s *service) DeleteTask(ctx context.Context, id, ownerID string) error {
	if err := s.validateIdentity(id, ownerID); err != nil {
		return err
	}

	if _, err := s.repo.GetTask(ctx, id, ownerID); err != nil {
		return err
	}

	if s.cleaner != nil {
		if _, err := s.cleaner.PurgeTaskAttachments(ctx, id, ownerID); err != nil {
			return fmt.Errorf("failed to remove attachments of task %s: %w", id, err)
		}
	}

	if _, err := s.repo.DeleteTask(ctx, id, ownerID); err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}
	return nil
}

func (s *service) validateIdentity(id, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrOwnerRequired
	}
	return validation.Var(id, "required,uuid", ErrInvalidTaskID)
}

// checkReferences makes sure referenced category and project belong to
// the owner
func (s *service) checkReferences(ctx context.Context, ownerID string, categoryID, projectID *string) error {
	if categoryID != nil {
		if _, err := s.repo.GetCategory(ctx, *categoryID, ownerID); err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return ErrUnknownCategory
			}
			return err
		}
	}
	if projectID != nil {
		if _, err := s.repo.GetProject(ctx, *projectID, ownerID); err != nil {
			if apperr.KindOf(err) == apperr.KindNotFound {
				return ErrUnknownProject
			}
			return err
		}
	}
	return nil
}
