package templates

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tokenbook/internal/apperr"
)

const templateColumns = `id, category, template_text, variables, is_active, usage_count, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, t *Template) (*Template, error) {
	query := `
		INSERT INTO chat_templates (category, template_text, variables, is_active)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + templateColumns

	var created Template
	if err := r.db.GetContext(ctx, &created, query, t.Category, t.TemplateText, t.Variables, t.IsActive); err != nil {
		return nil, fmt.Errorf("insert template: %w", err)
	}
	return &created, nil
}

func (r *repository) Update(ctx context.Context, t *Template) (*Template, error) {
	query := `
		UPDATE chat_templates
		SET category = $1, template_text = $2, variables = $3, is_active = $4, updated_at = NOW()
		WHERE id = $5
		RETURNING ` + templateColumns

	var updated Template
	err := r.db.GetContext(ctx, &updated, query, t.Category, t.TemplateText, t.Variables, t.IsActive, t.ID)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("template")
	}
	if err != nil {
		return nil, fmt.Errorf("update template: %w", err)
	}
	return &updated, nil
}

func (r *repository) Delete(ctx context.Context, id int) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM chat_templates WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete template: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return apperr.NotFound("template")
	}
	return nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Template, error) {
	var t Template
	err := r.db.GetContext(ctx, &t, `SELECT `+templateColumns+` FROM chat_templates WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("template")
	}
	if err != nil {
		return nil, err
	}
	return &t, nil
}

func (r *repository) List(ctx context.Context, category string, activeOnly bool) ([]Template, error) {
	query := `
		SELECT ` + templateColumns + `
		FROM chat_templates
		WHERE ($1 = '' OR category = $1) AND (NOT $2 OR is_active)
		ORDER BY category, id`

	list := []Template{}
	if err := r.db.SelectContext(ctx, &list, query, category, activeOnly); err != nil {
		return nil, err
	}
	return list, nil
}

func (r *repository) IncrementUsage(ctx context.Context, id int) error {
	_, err := r.db.ExecContext(ctx, `UPDATE chat_templates SET usage_count = usage_count + 1 WHERE id = $1`, id)
	return err
}
