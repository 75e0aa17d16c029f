package dispute

import (
	"context"

	"tokenbook/internal/db"
)

type Repository interface {
	Create(ctx context.Context, q db.Queryer, d *Dispute) (*Dispute, error)
	GetByID(ctx context.Context, id int) (*Dispute, error)
	GetForUpdate(ctx context.Context, q db.Queryer, id int) (*Dispute, error)
	LatestForBooking(ctx context.Context, bookingID int) (*Dispute, error)
	List(ctx context.Context, f ListFilter) ([]Dispute, error)
	MarkUnderReview(ctx context.Context, id int) (*Dispute, error)
	Resolve(ctx context.Context, q db.Queryer, id int, outcome Outcome, notes string, resolvedBy int) (*Dispute, error)
}
