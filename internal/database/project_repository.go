package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/furkanakkurt/taskmanager/internal/events"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

const projectColumns = `id, name, description, status, user_id, created_at, updated_at`

// ProjectRepo handles all project-related database operations.
type ProjectRepo struct {
	*gateway
}

func normalizeProject(p *models.Project) {
	p.CreatedAt = utc(p.CreatedAt)
	p.UpdatedAt = utc(p.UpdatedAt)
}

// ListProjects retrieves the owner's projects, newest first
func (r *ProjectRepo) ListProjects(ctx context.Context, ownerID string) ([]models.Project, error) {
	projects := make([]models.Project, 0, 10)
	err := r.db.SelectContext(ctx, &projects, r.db.Rebind(
		`SELECT `+projectColumns+` FROM projects WHERE user_id = ? ORDER BY created_at DESC, id DESC`), ownerID)
	if err != nil {
		return nil, translate("list projects", "project", err)
	}
	for i := range projects {
		normalizeProject(&projects[i])
	}
	return projects, nil
}

// GetProject retrieves one of the owner's projects
func (r *ProjectRepo) GetProject(ctx context.Context, id, ownerID string) (models.Project, error) {
	return getProject(ctx, r.db, id, ownerID)
}

func getProject(ctx context.Context, q queryer, id, ownerID string) (models.Project, error) {
	var p models.Project
	err := sqlx.GetContext(ctx, q, &p,
		q.Rebind(`SELECT `+projectColumns+` FROM projects WHERE id = ? AND user_id = ?`), id, ownerID)
	if err != nil {
		return models.Project{}, translate("get project", "project", err)
	}
	normalizeProject(&p)
	return p, nil
}

// CreateProject inserts p, assigning its id and timestamps
func (r *ProjectRepo) CreateProject(ctx context.Context, p models.Project) (models.Project, error) {
	now := r.now()
	p.ID = r.newID()
	p.CreatedAt = now
	p.UpdatedAt = now

	var created models.Project
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO projects (`+projectColumns+`) VALUES
			(:id, :name, :description, :status, :user_id, :created_at, :updated_at)`, p); err != nil {
			return translate("create project", "project", err)
		}
		var err error
		created, err = getProject(ctx, tx, p.ID, p.UserID)
		return err
	})
	if err != nil {
		return models.Project{}, err
	}

	r.publish(ctx, models.TableProjects, events.ChangeInsert, created.UserID, created, nil, created.UpdatedAt)
	return created, nil
}

// UpdateProject applies mutate to the stored project and writes the result
func (r *ProjectRepo) UpdateProject(ctx context.Context, id, ownerID string, mutate func(*models.Project) error) (models.Project, error) {
	var old, updated models.Project
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		old, err = getProject(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}

		next := old
		if err := mutate(&next); err != nil {
			return err
		}
		next.ID, next.UserID, next.CreatedAt = old.ID, old.UserID, old.CreatedAt
		next.UpdatedAt = nextVersion(old.UpdatedAt, r.now())

		res, err := tx.NamedExecContext(ctx,
			`UPDATE projects SET name = :name, description = :description, status = :status, updated_at = :updated_at
			WHERE id = :id AND user_id = :user_id`, next)
		if err != nil {
			return translate("update project", "project", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return translate("update project", "project", sql.ErrNoRows)
		}

		updated, err = getProject(ctx, tx, id, ownerID)
		return err
	})
	if err != nil {
		return models.Project{}, err
	}

	r.publish(ctx, models.TableProjects, events.ChangeUpdate, ownerID, updated, old, updated.UpdatedAt)
	return updated, nil
}

// DeleteProject removes the project. Its tasks are kept with their project
// reference cleared, and each of them is published as an update.
func (r *ProjectRepo) DeleteProject(ctx context.Context, id, ownerID string) (models.Project, error) {
	var (
		old      models.Project
		detached []taskChange
	)
	at := r.now()
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		old, err = getProject(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		detached, err = detachTasks(ctx, tx, "project_id", id, ownerID, at)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM projects WHERE id = ? AND user_id = ?`), id, ownerID); err != nil {
			return translate("delete project", "project", err)
		}
		return nil
	})
	if err != nil {
		return models.Project{}, err
	}

	for _, c := range detached {
		r.publish(ctx, models.TableTasks, events.ChangeUpdate, ownerID, c.new, c.old, c.new.UpdatedAt)
	}
	r.publish(ctx, models.TableProjects, events.ChangeDelete, ownerID, nil, old, at)
	return old, nil
}
