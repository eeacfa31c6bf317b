package database

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/jmoiron/sqlx"

	"github.com/furkanakkurt/taskmanager/internal/events"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

const taskColumns = `id, title, description, status, priority, due_date, category_id, project_id, user_id, created_at, updated_at`

// TaskFilter narrows ListTasks. Zero fields match everything.
type TaskFilter struct {
	CategoryID string
	ProjectID  string
	Status     models.TaskStatus
	Priority   models.TaskPriority
	// Search matches title or description, case-insensitively
	Search    string
	DueAfter  *time.Time
	DueBefore *time.Time
}

// TaskRepo handles all task-related database operations.
type TaskRepo struct {
	*gateway
}

func normalizeTask(t *models.Task) {
	t.CreatedAt = utc(t.CreatedAt)
	t.UpdatedAt = utc(t.UpdatedAt)
	t.DueDate = utcPtr(t.DueDate)
}

// ListTasks returns the owner's tasks newest first, each with its attachments.
func (r *TaskRepo) ListTasks(ctx context.Context, ownerID string, f TaskFilter) ([]models.Task, error) {
	var (
		where = []string{"user_id = ?"}
		args  = []any{ownerID}
	)
	if f.CategoryID != "" {
		where = append(where, "category_id = ?")
		args = append(args, f.CategoryID)
	}
	if f.ProjectID != "" {
		where = append(where, "project_id = ?")
		args = append(args, f.ProjectID)
	}
	if f.Status != "" {
		where = append(where, "status = ?")
		args = append(args, f.Status)
	}
	if f.Priority != "" {
		where = append(where, "priority = ?")
		args = append(args, f.Priority)
	}
	if s := strings.TrimSpace(f.Search); s != "" {
		pattern := "%" + strings.ToLower(s) + "%"
		where = append(where, "(LOWER(title) LIKE ? OR LOWER(COALESCE(description, '')) LIKE ?)")
		args = append(args, pattern, pattern)
	}
	if f.DueAfter != nil {
		where = append(where, "due_date >= ?")
		args = append(args, f.DueAfter.UTC())
	}
	if f.DueBefore != nil {
		where = append(where, "due_date <= ?")
		args = append(args, f.DueBefore.UTC())
	}

	query := r.db.Rebind(`SELECT ` + taskColumns + ` FROM tasks WHERE ` +
		strings.Join(where, " AND ") + ` ORDER BY created_at DESC, id DESC`)

	tasks := make([]models.Task, 0, 16)
	if err := r.db.SelectContext(ctx, &tasks, query, args...); err != nil {
		return nil, translate("list tasks", "task", err)
	}
	if len(tasks) == 0 {
		return tasks, nil
	}

	ids := make([]string, len(tasks))
	for i := range tasks {
		normalizeTask(&tasks[i])
		ids[i] = tasks[i].ID
	}

	attachments, err := listAttachmentsByTasks(ctx, r.db, ownerID, ids)
	if err != nil {
		return nil, err
	}
	for i := range tasks {
		tasks[i].Attachments = attachments[tasks[i].ID]
	}
	return tasks, nil
}

// GetTask retrieves one of the owner's tasks
func (r *TaskRepo) GetTask(ctx context.Context, id, ownerID string) (models.Task, error) {
	return getTask(ctx, r.db, id, ownerID)
}

func getTask(ctx context.Context, q queryer, id, ownerID string) (models.Task, error) {
	var t models.Task
	err := sqlx.GetContext(ctx, q, &t,
		q.Rebind(`SELECT `+taskColumns+` FROM tasks WHERE id = ? AND user_id = ?`), id, ownerID)
	if err != nil {
		return models.Task{}, translate("get task", "task", err)
	}
	normalizeTask(&t)
	return t, nil
}

// CreateTask inserts t, assigning its id and timestamps.
func (r *TaskRepo) CreateTask(ctx context.Context, t models.Task) (models.Task, error) {
	now := r.now()
	t.ID = r.newID()
	t.CreatedAt = now
	t.UpdatedAt = now
	t.DueDate = utcPtr(t.DueDate)
	t.Attachments = nil

	var created models.Task
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO tasks (`+taskColumns+`) VALUES
			(:id, :title, :description, :status, :priority, :due_date, :category_id, :project_id, :user_id, :created_at, :updated_at)`,
			t); err != nil {
			return translate("create task", "task", err)
		}
		var err error
		created, err = getTask(ctx, tx, t.ID, t.UserID)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}

	r.publish(ctx, models.TableTasks, events.ChangeInsert, created.UserID, created, nil, created.UpdatedAt)
	return created, nil
}

// UpdateTask applies mutate to the stored task and writes the result. The
// update is constrained by id and owner; a missing row is NotFound.
func (r *TaskRepo) UpdateTask(ctx context.Context, id, ownerID string, mutate func(*models.Task) error) (models.Task, error) {
	var old, updated models.Task
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		old, err = getTask(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}

		next := old
		if err := mutate(&next); err != nil {
			return err
		}
		// Identity, ownership and creation time are never changed by an update
		next.ID, next.UserID, next.CreatedAt = old.ID, old.UserID, old.CreatedAt
		next.UpdatedAt = nextVersion(old.UpdatedAt, r.now())
		next.DueDate = utcPtr(next.DueDate)

		res, err := tx.NamedExecContext(ctx,
			`UPDATE tasks SET title = :title, description = :description, status = :status,
				priority = :priority, due_date = :due_date, category_id = :category_id,
				project_id = :project_id, updated_at = :updated_at
			WHERE id = :id AND user_id = :user_id`, next)
		if err != nil {
			return translate("update task", "task", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return translate("update task", "task", sql.ErrNoRows)
		}

		updated, err = getTask(ctx, tx, id, ownerID)
		return err
	})
	if err != nil {
		return models.Task{}, err
	}

	r.publish(ctx, models.TableTasks, events.ChangeUpdate, ownerID, updated, old, updated.UpdatedAt)
	return updated, nil
}

// DeleteTask removes the task and returns the deleted row. Attachment
// records cascade; their blobs are the caller's concern.
func (r *TaskRepo) DeleteTask(ctx context.Context, id, ownerID string) (models.Task, error) {
	var old models.Task
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		old, err = getTask(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM tasks WHERE id = ? AND user_id = ?`), id, ownerID); err != nil {
			return translate("delete task", "task", err)
		}
		return nil
	})
	if err != nil {
		return models.Task{}, err
	}

	r.publish(ctx, models.TableTasks, events.ChangeDelete, ownerID, nil, old, r.now())
	return old, nil
}

// CountTasksByStatus counts the owner's tasks in a project by status
func (r *TaskRepo) CountTasksByStatus(ctx context.Context, projectID, ownerID string) (map[models.TaskStatus]int, error) {
	var rows []struct {
		Status models.TaskStatus `db:"status"`
		Count  int               `db:"count"`
	}
	err := r.db.SelectContext(ctx, &rows, r.db.Rebind(
		`SELECT status, COUNT(*) AS count FROM tasks WHERE project_id = ? AND user_id = ? GROUP BY status`),
		projectID, ownerID)
	if err != nil {
		return nil, translate("count tasks", "task", err)
	}

	counts := make(map[models.TaskStatus]int, len(models.TaskStatuses))
	for _, row := range rows {
		counts[row.Status] = row.Count
	}
	return counts, nil
}

type taskChange struct {
	old, new models.Task
}

// detachTasks clears column (project_id or category_id) on every task of
// the owner that references refID, as part of deleting the referenced row.
func detachTasks(ctx context.Context, tx *sqlx.Tx, column, refID, ownerID string, at time.Time) ([]taskChange, error) {
	var tasks []models.Task
	err := tx.SelectContext(ctx, &tasks, tx.Rebind(
		`SELECT `+taskColumns+` FROM tasks WHERE `+column+` = ? AND user_id = ?`), refID, ownerID)
	if err != nil {
		return nil, translate("detach tasks", "task", err)
	}

	changes := make([]taskChange, 0, len(tasks))
	for _, old := range tasks {
		normalizeTask(&old)
		next := old
		switch column {
		case "project_id":
			next.ProjectID = nil
		case "category_id":
			next.CategoryID = nil
		default:
			return nil, fmt.Errorf("cannot detach tasks by %s", column)
		}
		next.UpdatedAt = nextVersion(old.UpdatedAt, at)

		if _, err := tx.ExecContext(ctx, tx.Rebind(
			`UPDATE tasks SET `+column+` = NULL, updated_at = ? WHERE id = ? AND user_id = ?`),
			next.UpdatedAt, old.ID, ownerID); err != nil {
			return nil, translate("detach tasks", "task", err)
		}
		changes = append(changes, taskChange{old: old, new: next})
	}
	return changes, nil
}

// nextVersion returns a timestamp strictly after prev, preferring now
func nextVersion(prev, now time.Time) time.Time {
	if now.After(prev) {
		return now
	}
	return prev.Add(time.Microsecond)
}
