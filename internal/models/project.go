package models

import "time"

// Project groups tasks. Deleting a project keeps its tasks and clears their
// project reference.
type Project struct {
	ID          string        `db:"id" json:"id"`
	Name        string        `db:"name" json:"name"`
	Description *string       `db:"description" json:"description"`
	Status      ProjectStatus `db:"status" json:"status"`
	UserID      string        `db:"user_id" json:"user_id"`
	CreatedAt   time.Time     `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time     `db:"updated_at" json:"updated_at"`
}

func (p Project) EntityID() string { return p.ID }

func (p Project) EntityVersion() time.Time { return p.UpdatedAt }

func (p Project) FilterColumns() map[string]string {
	return map[string]string{"id": p.ID, "user_id": p.UserID, "status": string(p.Status)}
}
