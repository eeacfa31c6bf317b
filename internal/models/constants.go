package models

import "fmt"

// ============================================================================
// TABLE NAMES
// ============================================================================

// Gateway collections. Change events carry one of these as their table.
const (
	TableTasks       = "tasks"
	TableProjects    = "projects"
	TableCategories  = "categories"
	TableAttachments = "task_attachments"
)

// ============================================================================
// TASK STATUS
// ============================================================================

// TaskStatus is the workflow state of a task
type TaskStatus string

const (
	StatusPending    TaskStatus = "pending"
	StatusInProgress TaskStatus = "in_progress"
	StatusCompleted  TaskStatus = "completed"
)

// TaskStatuses lists every valid status in display order
var TaskStatuses = []TaskStatus{StatusPending, StatusInProgress, StatusCompleted}

// Valid reports whether s is a known status
func (s TaskStatus) Valid() bool {
	switch s {
	case StatusPending, StatusInProgress, StatusCompleted:
		return true
	}
	return false
}

// ParseTaskStatus converts user input into a TaskStatus
func ParseTaskStatus(s string) (TaskStatus, error) {
	st := TaskStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid status %q (must be pending, in_progress or completed)", s)
	}
	return st, nil
}

// ============================================================================
// TASK PRIORITY
// ============================================================================

// TaskPriority ranks a task
type TaskPriority string

const (
	PriorityLow    TaskPriority = "low"
	PriorityMedium TaskPriority = "medium"
	PriorityHigh   TaskPriority = "high"
)

// Valid reports whether p is a known priority
func (p TaskPriority) Valid() bool {
	switch p {
	case PriorityLow, PriorityMedium, PriorityHigh:
		return true
	}
	return false
}

// ParseTaskPriority converts user input into a TaskPriority
func ParseTaskPriority(s string) (TaskPriority, error) {
	p := TaskPriority(s)
	if !p.Valid() {
		return "", fmt.Errorf("invalid priority %q (must be low, medium or high)", s)
	}
	return p, nil
}

// ============================================================================
// PROJECT STATUS
// ============================================================================

// ProjectStatus is the lifecycle state of a project
type ProjectStatus string

const (
	ProjectActive    ProjectStatus = "active"
	ProjectCompleted ProjectStatus = "completed"
	ProjectOnHold    ProjectStatus = "on_hold"
	ProjectCancelled ProjectStatus = "cancelled"
)

// Valid reports whether s is a known project status
func (s ProjectStatus) Valid() bool {
	switch s {
	case ProjectActive, ProjectCompleted, ProjectOnHold, ProjectCancelled:
		return true
	}
	return false
}

// ParseProjectStatus converts user input into a ProjectStatus
func ParseProjectStatus(s string) (ProjectStatus, error) {
	st := ProjectStatus(s)
	if !st.Valid() {
		return "", fmt.Errorf("invalid project status %q (must be active, completed, on_hold or cancelled)", s)
	}
	return st, nil
}

// DefaultCategoryColor is used when a category is created without a color
const DefaultCategoryColor = "#6B7280"
