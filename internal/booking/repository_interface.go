package booking

import (
	"context"

	"tokenbook/internal/db"
)

type Repository interface {
	Create(ctx context.Context, q db.Queryer, b *Booking) (*Booking, error)
	GetByID(ctx context.Context, id int) (*Booking, error)
	GetForUpdate(ctx context.Context, q db.Queryer, id int) (*Booking, error)
	UpdateStatus(ctx context.Context, q db.Queryer, id int, from, to Status) (*Booking, error)
	ListForUser(ctx context.Context, userID int, f ListFilter) ([]Booking, error)
	ListAll(ctx context.Context, f ListFilter) ([]Booking, error)
	OpenIDsForUser(ctx context.Context, userID int) ([]int, error)
}
