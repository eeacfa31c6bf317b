package database

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/furkanakkurt/taskmanager/internal/events"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

const attachmentColumns = `id, task_id, user_id, file_name, file_path, file_size, file_type, created_at`

// AttachmentRepo stores attachment metadata records. Blobs are kept by the
// storage package.
type AttachmentRepo struct {
	*gateway
}

func normalizeAttachments(as []models.TaskAttachment) {
	for i := range as {
		as[i].CreatedAt = utc(as[i].CreatedAt)
	}
}

// ListAttachments returns the attachments of one of the owner's tasks,
// newest first
func (r *AttachmentRepo) ListAttachments(ctx context.Context, taskID, ownerID string) ([]models.TaskAttachment, error) {
	attachments := make([]models.TaskAttachment, 0, 4)
	err := r.db.SelectContext(ctx, &attachments, r.db.Rebind(
		`SELECT `+attachmentColumns+` FROM task_attachments
		WHERE task_id = ? AND user_id = ? ORDER BY created_at DESC, id DESC`), taskID, ownerID)
	if err != nil {
		return nil, translate("list attachments", "attachment", err)
	}
	normalizeAttachments(attachments)
	return attachments, nil
}

// listAttachmentsByTasks groups the attachments of several tasks by task id
func listAttachmentsByTasks(ctx context.Context, q queryer, ownerID string, taskIDs []string) (map[string][]models.TaskAttachment, error) {
	query, args, err := sqlx.In(
		`SELECT `+attachmentColumns+` FROM task_attachments
		WHERE user_id = ? AND task_id IN (?) ORDER BY created_at DESC, id DESC`, ownerID, taskIDs)
	if err != nil {
		return nil, translate("list attachments", "attachment", err)
	}

	var attachments []models.TaskAttachment
	if err := sqlx.SelectContext(ctx, q, &attachments, q.Rebind(query), args...); err != nil {
		return nil, translate("list attachments", "attachment", err)
	}
	normalizeAttachments(attachments)

	byTask := make(map[string][]models.TaskAttachment, len(taskIDs))
	for _, a := range attachments {
		byTask[a.TaskID] = append(byTask[a.TaskID], a)
	}
	return byTask, nil
}

func (r *AttachmentRepo) GetAttachment(ctx context.Context, id, ownerID string) (models.TaskAttachment, error) {
	var a models.TaskAttachment
	err := r.db.GetContext(ctx, &a, r.db.Rebind(
		`SELECT `+attachmentColumns+` FROM task_attachments WHERE id = ? AND user_id = ?`), id, ownerID)
	if err != nil {
		return models.TaskAttachment{}, translate("get attachment", "attachment", err)
	}
	a.CreatedAt = utc(a.CreatedAt)
	return a, nil
}

// CreateAttachment inserts the metadata record of an uploaded blob
func (r *AttachmentRepo) CreateAttachment(ctx context.Context, a models.TaskAttachment) (models.TaskAttachment, error) {
	a.ID = r.newID()
	a.CreatedAt = r.now()
	a.URL = ""

	_, err := r.db.NamedExecContext(ctx,
		`INSERT INTO task_attachments (`+attachmentColumns+`) VALUES
		(:id, :task_id, :user_id, :file_name, :file_path, :file_size, :file_type, :created_at)`, a)
	if err != nil {
		return models.TaskAttachment{}, translate("create attachment", "attachment", err)
	}

	r.publish(ctx, models.TableAttachments, events.ChangeInsert, a.UserID, a, nil, a.CreatedAt)
	return a, nil
}

// DeleteAttachment removes the record and returns it
func (r *AttachmentRepo) DeleteAttachment(ctx context.Context, id, ownerID string) (models.TaskAttachment, error) {
	var old models.TaskAttachment
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if err := tx.GetContext(ctx, &old, tx.Rebind(
			`SELECT `+attachmentColumns+` FROM task_attachments WHERE id = ? AND user_id = ?`), id, ownerID); err != nil {
			return translate("delete attachment", "attachment", err)
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(
			`DELETE FROM task_attachments WHERE id = ? AND user_id = ?`), id, ownerID); err != nil {
			return translate("delete attachment", "attachment", err)
		}
		return nil
	})
	if err != nil {
		return models.TaskAttachment{}, err
	}
	old.CreatedAt = utc(old.CreatedAt)

	r.publish(ctx, models.TableAttachments, events.ChangeDelete, ownerID, nil, old, r.now())
	return old, nil
}

// AttachmentPaths returns the blob path of every attachment record, across
// all owners. The orphan sweeper compares it with the blob store.
func (r *AttachmentRepo) AttachmentPaths(ctx context.Context) (map[string]struct{}, error) {
	var paths []string
	if err := r.db.SelectContext(ctx, &paths, `SELECT DISTINCT file_path FROM task_attachments`); err != nil {
		return nil, translate("list attachment paths", "attachment", err)
	}
	set := make(map[string]struct{}, len(paths))
	for _, p := range paths {
		set[p] = struct{}{}
	}
	return set, nil
}
