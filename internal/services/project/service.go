package project

import (
	"context"
	"fmt"
	"math"
	"strings"

	"github.com/furkanakkurt/taskmanager/internal/database"
	"github.com/furkanakkurt/taskmanager/internal/models"
	"github.com/furkanakkurt/taskmanager/internal/validation"
)

// Service defines all project-related business operations
type Service interface {
	// Read operations
	ListProjects(ctx context.Context, ownerID string) ([]models.Project, error)
	GetProject(ctx context.Context, id, ownerID string) (models.Project, error)
	ListProjectTasks(ctx context.Context, id, ownerID string) ([]models.Task, error)
	GetProjectStats(ctx context.Context, id, ownerID string) (Stats, error)

	// Write operations
	CreateProject(ctx context.Context, req CreateProjectRequest) (models.Project, error)
	UpdateProject(ctx context.Context, req UpdateProjectRequest) (models.Project, error)
	DeleteProject(ctx context.Context, id, ownerID string) error
}

// CreateProjectRequest encapsulates data for creating a project
type CreateProjectRequest struct {
	OwnerID     string               `validate:"required"`
	Name        string               `validate:"required,max=100"`
	Description string
	Status      models.ProjectStatus `validate:"omitempty,oneof=active completed on_hold cancelled"`
}

// UpdateProjectRequest encapsulates data for updating a project
type UpdateProjectRequest struct {
	ID          string                `validate:"required,uuid"`
	OwnerID     string                `validate:"required"`
	Name        *string               `validate:"omitempty,max=100"`
	Description *string
	Status      *models.ProjectStatus `validate:"omitempty,oneof=active completed on_hold cancelled"`
}

// Stats summarizes the tasks of a project. Progress is the rounded
// percentage of completed tasks.
type Stats struct {
	Total      int `json:"total"`
	Completed  int `json:"completed"`
	InProgress int `json:"in_progress"`
	Pending    int `json:"pending"`
	Progress   int `json:"progress"`
}

// repository defines the data access methods needed by the project service
// This interface is private to the service layer
type repository interface {
	ListProjects(ctx context.Context, ownerID string) ([]models.Project, error)
	GetProject(ctx context.Context, id, ownerID string) (models.Project, error)
	CreateProject(ctx context.Context, p models.Project) (models.Project, error)
	UpdateProject(ctx context.Context, id, ownerID string, mutate func(*models.Project) error) (models.Project, error)
	DeleteProject(ctx context.Context, id, ownerID string) (models.Project, error)

	// Project-related task queries
	ListTasks(ctx context.Context, ownerID string, f database.TaskFilter) ([]models.Task, error)
	CountTasksByStatus(ctx context.Context, projectID, ownerID string) (map[models.TaskStatus]int, error)
}

var createRules = validation.Rules{
	"OwnerID":       ErrOwnerRequired,
	"Name.required": ErrEmptyName,
	"Name.max":      ErrNameTooLong,
	"Status":        ErrInvalidStatus,
}

var updateRules = validation.Rules{
	"ID":      ErrInvalidProjectID,
	"OwnerID": ErrOwnerRequired,
	"Name":    ErrNameTooLong,
	"Status":  ErrInvalidStatus,
}

// service implements Service interface with private repository
type service struct {
	repo repository
}

// NewService creates a new project service with private repository
func NewService(repo repository) Service {
	return &service{repo: repo}
}

// ListProjects retrieves the owner's projects, newest first
func (s *service) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	if strings.TrimSpace(ownerID) == "" {
		return nil, ErrOwnerRequired
	}
	return s.repo.ListProjects(ctx, ownerID)
}

// GetProject retrieves a specific project
func (s *service) GetProject(ctx context.Context, id, ownerID string) (models.Project, error) {
	if err := validateIdentity(id, ownerID); err != nil {
		return models.Project{}, err
	}
	return s.repo.GetProject(ctx, id, ownerID)
}

// ListProjectTasks returns the tasks of one project, newest first
func (s *service) ListProjectTasks(ctx context.Context, id, ownerID string) ([]models.Task, error) {
	if _, err := s.GetProject(ctx, id, ownerID); err != nil {
		return nil, err
	}
	return s.repo.ListTasks(ctx, ownerID, database.TaskFilter{ProjectID: id})
}

// GetProjectStats counts the project's tasks by status
func (s *service) GetProjectStats(ctx context.Context, id, ownerID string) (Stats, error) {
	if _, err := s.GetProject(ctx, id, ownerID); err != nil {
		return Stats{}, err
	}

	counts, err := s.repo.CountTasksByStatus(ctx, id, ownerID)
	if err != nil {
		return Stats{}, fmt.Errorf("failed to count project tasks: %w", err)
	}

	stats := Stats{
		Completed:  counts[models.StatusCompleted],
		InProgress: counts[models.StatusInProgress],
		Pending:    counts[models.StatusPending],
	}
	stats.Total = stats.Completed + stats.InProgress + stats.Pending
	if stats.Total > 0 {
		stats.Progress = int(math.Round(float64(stats.Completed) / float64(stats.Total) * 100))
	}
	return stats, nil
}

// CreateProject creates a new project with validation
func (s *service) CreateProject(ctx context.Context, req CreateProjectRequest) (models.Project, error) {
	req.Name = strings.TrimSpace(req.Name)
	if err := validation.Struct(req, createRules); err != nil {
		return models.Project{}, err
	}

	p := models.Project{
		Name:   req.Name,
		Status: req.Status,
		UserID: req.OwnerID,
	}
	if p.Status == "" {
		p.Status = models.ProjectActive
	}
	if d := strings.TrimSpace(req.Description); d != "" {
		p.Description = &d
	}

	project, err := s.repo.CreateProject(ctx, p)
	if err != nil {
		return models.Project{}, fmt.Errorf("failed to create project: %w", err)
	}
	return project, nil
}

// UpdateProject updates an existing project
func (s *service) UpdateProject(ctx context.Context, req UpdateProjectRequest) (models.Project, error) {
	if req.Name != nil {
		name := strings.TrimSpace(*req.Name)
		if name == "" {
			return models.Project{}, ErrEmptyName
		}
		req.Name = &name
	}
	if err := validation.Struct(req, updateRules); err != nil {
		return models.Project{}, err
	}
	if req.Name == nil && req.Description == nil && req.Status == nil {
		return models.Project{}, ErrNoChanges
	}

	project, err := s.repo.UpdateProject(ctx, req.ID, req.OwnerID, func(p *models.Project) error {
		if req.Name != nil {
			p.Name = *req.Name
		}
		if req.Description != nil {
			if d := strings.TrimSpace(*req.Description); d != "" {
				p.Description = &d
			} else {
				p.Description = nil
			}
		}
		if req.Status != nil {
			p.Status = *req.Status
		}
		return nil
	})
	if err != nil {
		return models.Project{}, fmt.Errorf("failed to update project: %w", err)
	}
	return project, nil
}

// DeleteProject removes a project. Its tasks are kept, unassigned.
func (s *service) DeleteProject(ctx context.Context, id, ownerID string) error {
	if err := validateIdentity(id, ownerID); err != nil {
		return err
	}
	if _, err := s.repo.DeleteProject(ctx, id, ownerID); err != nil {
		return fmt.Errorf("failed to delete project: %w", err)
	}
	return nil
}

func validateIdentity(id, ownerID string) error {
	if strings.TrimSpace(ownerID) == "" {
		return ErrOwnerRequired
	}
	return validation.Var(id, "required,uuid", ErrInvalidProjectID)
}
