package database

import (
	"context"
	"database/sql"

	"github.com/jmoiron/sqlx"

	"github.com/furkanakkurt/taskmanager/internal/events"
	"github.com/furkanakkurt/taskmanager/internal/models"
)

const categoryColumns = `id, name, color, user_id, created_at, updated_at`

// CategoryRepo handles all category-related database operations.
type CategoryRepo struct {
	*gateway
}

func normalizeCategory(c *models.Category) {
	c.CreatedAt = utc(c.CreatedAt)
	c.UpdatedAt = utc(c.UpdatedAt)
}

func (r *CategoryRepo) ListCategories(ctx context.Context, ownerID string) ([]models.Category, error) {
	categories := make([]models.Category, 0, 10)
	err := r.db.SelectContext(ctx, &categories, r.db.Rebind(
		`SELECT `+categoryColumns+` FROM categories WHERE user_id = ? ORDER BY created_at DESC, id DESC`), ownerID)
	if err != nil {
		return nil, translate("list categories", "category", err)
	}
	for i := range categories {
		normalizeCategory(&categories[i])
	}
	return categories, nil
}

func (r *CategoryRepo) GetCategory(ctx context.Context, id, ownerID string) (models.Category, error) {
	return getCategory(ctx, r.db, id, ownerID)
}

func getCategory(ctx context.Context, q queryer, id, ownerID string) (models.Category, error) {
	var c models.Category
	err := sqlx.GetContext(ctx, q, &c,
		q.Rebind(`SELECT `+categoryColumns+` FROM categories WHERE id = ? AND user_id = ?`), id, ownerID)
	if err != nil {
		return models.Category{}, translate("get category", "category", err)
	}
	normalizeCategory(&c)
	return c, nil
}

func (r *CategoryRepo) CreateCategory(ctx context.Context, c models.Category) (models.Category, error) {
	now := r.now()
	c.ID = r.newID()
	c.CreatedAt = now
	c.UpdatedAt = now

	var created models.Category
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		if _, err := tx.NamedExecContext(ctx,
			`INSERT INTO categories (`+categoryColumns+`) VALUES
			(:id, :name, :color, :user_id, :created_at, :updated_at)`, c); err != nil {
			return translate("create category", "category", err)
		}
		var err error
		created, err = getCategory(ctx, tx, c.ID, c.UserID)
		return err
	})
	if err != nil {
		return models.Category{}, err
	}

	r.publish(ctx, models.TableCategories, events.ChangeInsert, created.UserID, created, nil, created.UpdatedAt)
	return created, nil
}

func (r *CategoryRepo) UpdateCategory(ctx context.Context, id, ownerID string, mutate func(*models.Category) error) (models.Category, error) {
	var old, updated models.Category
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		old, err = getCategory(ctx, tx, id, ownerID)
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
			`UPDATE categories SET name = :name, color = :color, updated_at = :updated_at
			WHERE id = :id AND user_id = :user_id`, next)
		if err != nil {
			return translate("update category", "category", err)
		}
		if n, err := res.RowsAffected(); err == nil && n == 0 {
			return translate("update category", "category", sql.ErrNoRows)
		}

		updated, err = getCategory(ctx, tx, id, ownerID)
		return err
	})
	if err != nil {
		return models.Category{}, err
	}

	r.publish(ctx, models.TableCategories, events.ChangeUpdate, ownerID, updated, old, updated.UpdatedAt)
	return updated, nil
}

// DeleteCategory removes the category and clears it from the owner's tasks.
func (r *CategoryRepo) DeleteCategory(ctx context.Context, id, ownerID string) (models.Category, error) {
	var (
		old      models.Category
		detached []taskChange
	)
	at := r.now()
	err := withTx(ctx, r.db, func(tx *sqlx.Tx) error {
		var err error
		old, err = getCategory(ctx, tx, id, ownerID)
		if err != nil {
			return err
		}
		detached, err = detachTasks(ctx, tx, "category_id", id, ownerID, at)
		if err != nil {
			return err
		}
		if _, err := tx.ExecContext(ctx, tx.Rebind(`DELETE FROM categories WHERE id = ? AND user_id = ?`), id, ownerID); err != nil {
			return translate("delete category", "category", err)
		}
		return nil
	})
	if err != nil {
		return models.Category{}, err
	}

	for _, c := range detached {
		r.publish(ctx, models.TableTasks, events.ChangeUpdate, ownerID, c.new, c.old, c.new.UpdatedAt)
	}
	r.publish(ctx, models.TableCategories, events.ChangeDelete, ownerID, nil, old, at)
	return old, nil
}
