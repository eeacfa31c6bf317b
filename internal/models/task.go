package models

import "time"

// Task is a unit of work owned by a single user. Category and project
// references are optional; Attachments is derived and only populated by
// list queries.
type Task struct {
	ID          string       `db:"id" json:"id"`
	Title       string       `db:"title" json:"title"`
	Description *string      `db:"description" json:"description"`
	Status      TaskStatus   `db:"status" json:"status"`
	Priority    TaskPriority `db:"priority" json:"priority"`
	DueDate     *time.Time   `db:"due_date" json:"due_date"`
	CategoryID  *string      `db:"category_id" json:"category_id"`
	ProjectID   *string      `db:"project_id" json:"project_id"`
	UserID      string       `db:"user_id" json:"user_id"`
	CreatedAt   time.Time    `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time    `db:"updated_at" json:"updated_at"`

	Attachments []TaskAttachment `db:"-" json:"task_attachments,omitempty"`
}

// EntityID returns the task identifier
func (t Task) EntityID() string { return t.ID }

// EntityVersion returns the timestamp of the last write to the task
func (t Task) EntityVersion() time.Time { return t.UpdatedAt }

// KeepDerived returns t with the attachments of held when t was pushed
// without them
func (t Task) KeepDerived(held Task) Task {
	if t.Attachments == nil {
		t.Attachments = held.Attachments
	}
	return t
}

// FilterColumns returns the row columns a change subscription may filter on
func (t Task) FilterColumns() map[string]string {
	cols := map[string]string{"id": t.ID, "user_id": t.UserID, "status": string(t.Status)}
	if t.CategoryID != nil {
		cols["category_id"] = *t.CategoryID
	}
	if t.ProjectID != nil {
		cols["project_id"] = *t.ProjectID
	}
	return cols
}

// DescriptionOrEmpty returns the description, or "" when unset
func (t Task) DescriptionOrEmpty() string {
	if t.Description == nil {
		return ""
	}
	return *t.Description
}
