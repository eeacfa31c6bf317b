package models

import "time"

// TaskAttachment is the metadata record of a blob stored for a task. The blob
// itself lives in the blob store at FilePath; URL is resolved on read and is
// never persisted.
type TaskAttachment struct {
	ID        string    `db:"id" json:"id"`
	TaskID    string    `db:"task_id" json:"task_id"`
	UserID    string    `db:"user_id" json:"user_id"`
	FileName  string    `db:"file_name" json:"file_name"`
	FilePath  string    `db:"file_path" json:"file_path"`
	FileSize  int64     `db:"file_size" json:"file_size"`
	FileType  string    `db:"file_type" json:"file_type"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`

	URL string `db:"-" json:"url,omitempty"`
}

func (a TaskAttachment) EntityID() string { return a.ID }

// EntityVersion is the creation time; attachments are never updated in place
func (a TaskAttachment) EntityVersion() time.Time { return a.CreatedAt }

func (a TaskAttachment) FilterColumns() map[string]string {
	return map[string]string{"id": a.ID, "user_id": a.UserID, "task_id": a.TaskID}
}
