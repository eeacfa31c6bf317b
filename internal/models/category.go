package models

import "time"

// Category labels tasks with a name and a display color
type Category struct {
	ID        string    `db:"id" json:"id"`
	Name      string    `db:"name" json:"name"`
	Color     string    `db:"color" json:"color"`
	UserID    string    `db:"user_id" json:"user_id"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
	UpdatedAt time.Time `db:"updated_at" json:"updated_at"`
}

func (c Category) EntityID() string { return c.ID }

func (c Category) EntityVersion() time.Time { return c.UpdatedAt }

func (c Category) FilterColumns() map[string]string {
	return map[string]string{"id": c.ID, "user_id": c.UserID}
}
