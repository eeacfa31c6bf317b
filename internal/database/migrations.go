package database

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"
)

// schema is written in the dialect subset shared by SQLite and Postgres.
// Timestamps are stored in UTC.
var schema = []string{
	`CREATE TABLE IF NOT EXISTS projects (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'active',
		user_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_projects_user ON projects(user_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS categories (
		id TEXT PRIMARY KEY,
		name TEXT NOT NULL,
		color TEXT NOT NULL DEFAULT '#6B7280',
		user_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_categories_user ON categories(user_id, created_at)`,

	`CREATE TABLE IF NOT EXISTS tasks (
		id TEXT PRIMARY KEY,
		title TEXT NOT NULL,
		description TEXT,
		status TEXT NOT NULL DEFAULT 'pending',
		priority TEXT NOT NULL DEFAULT 'medium',
		due_date TIMESTAMP,
		category_id TEXT REFERENCES categories(id) ON DELETE SET NULL,
		project_id TEXT REFERENCES projects(id) ON DELETE SET NULL,
		user_id TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL,
		updated_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_user ON tasks(user_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_project ON tasks(project_id)`,
	`CREATE INDEX IF NOT EXISTS idx_tasks_category ON tasks(category_id)`,

	`CREATE TABLE IF NOT EXISTS task_attachments (
		id TEXT PRIMARY KEY,
		task_id TEXT NOT NULL REFERENCES tasks(id) ON DELETE CASCADE,
		user_id TEXT NOT NULL,
		file_name TEXT NOT NULL,
		file_path TEXT NOT NULL,
		file_size BIGINT NOT NULL,
		file_type TEXT NOT NULL,
		created_at TIMESTAMP NOT NULL
	)`,
	`CREATE INDEX IF NOT EXISTS idx_task_attachments_task ON task_attachments(task_id, created_at)`,
	`CREATE INDEX IF NOT EXISTS idx_task_attachments_path ON task_attachments(file_path)`,
}

// runMigrations creates the database schema if needed
func runMigrations(ctx context.Context, db *sqlx.DB) error {
	return withTx(ctx, db, func(tx *sqlx.Tx) error {
		for i, stmt := range schema {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("migration step %d: %w", i+1, err)
			}
		}
		return nil
	})
}
