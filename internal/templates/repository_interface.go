package templates

import "context"

type Repository interface {
	Create(ctx context.Context, t *Template) (*Template, error)
	Update(ctx context.Context, t *Template) (*Template, error)
	Delete(ctx context.Context, id int) error
	GetByID(ctx context.Context, id int) (*Template, error)
	List(ctx context.Context, category string, activeOnly bool) ([]Template, error)
	IncrementUsage(ctx context.Context, id int) error
}
