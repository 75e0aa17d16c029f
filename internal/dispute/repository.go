package dispute

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tokenbook/internal/apperr"
	"tokenbook/internal/db"
)

const disputeColumns = `id, booking_id, filed_by, dispute_type, description, evidence, status, resolution, resolution_notes, resolved_by, resolved_at, created_at, updated_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, q db.Queryer, d *Dispute) (*Dispute, error) {
	query := `
		INSERT INTO disputes (booking_id, filed_by, dispute_type, description, evidence, status)
		VALUES ($1, $2, $3, $4, $5, $6)
		RETURNING ` + disputeColumns

	evidence := d.Evidence
	if evidence == nil {
		evidence = []string{}
	}

	var created Dispute
	err := q.GetContext(ctx, &created, query,
		d.BookingID, d.FiledBy, d.DisputeType, d.Description, evidence, StatusOpen,
	)
	if err != nil {
		return nil, fmt.Errorf("insert dispute: %w", err)
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Dispute, error) {
	return r.one(ctx, r.db, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1`, id)
}

func (r *repository) GetForUpdate(ctx context.Context, q db.Queryer, id int) (*Dispute, error) {
	return r.one(ctx, q, `SELECT `+disputeColumns+` FROM disputes WHERE id = $1 FOR UPDATE`, id)
}

func (r *repository) LatestForBooking(ctx context.Context, bookingID int) (*Dispute, error) {
	return r.one(ctx, r.db, `SELECT `+disputeColumns+` FROM disputes WHERE booking_id = $1 ORDER BY id DESC LIMIT 1`, bookingID)
}

func (r *repository) List(ctx context.Context, f ListFilter) ([]Dispute, error) {
	limit, offset := f.Limit, f.Offset
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}

	query := `
		SELECT ` + disputeColumns + `
		FROM disputes
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	disputes := []Dispute{}
	if err := r.db.SelectContext(ctx, &disputes, query, string(f.Status), limit, offset); err != nil {
		return nil, err
	}
	return disputes, nil
}

// MarkUnderReview moves an OPEN dispute to UNDER_REVIEW. A dispute that is no
// longer OPEN yields ErrConcurrentUpdate.
func (r *repository) MarkUnderReview(ctx context.Context, id int) (*Dispute, error) {
	query := `
		UPDATE disputes
		SET status = $1, updated_at = NOW()
		WHERE id = $2 AND status = $3
		RETURNING ` + disputeColumns

	var d Dispute
	err := r.db.GetContext(ctx, &d, query, StatusUnderReview, id, StatusOpen)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrConcurrentUpdate
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}

func (r *repository) Resolve(ctx context.Context, q db.Queryer, id int, outcome Outcome, notes string, resolvedBy int) (*Dispute, error) {
	query := `
		UPDATE disputes
		SET status = $1, resolution = $2, resolution_notes = $3, resolved_by = $4, resolved_at = NOW(), updated_at = NOW()
		WHERE id = $5 AND status <> $1
		RETURNING ` + disputeColumns

	var d Dispute
	err := q.GetContext(ctx, &d, query, StatusResolved, outcome, notes, resolvedBy, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrConcurrentUpdate
	}
	if err != nil {
		return nil, fmt.Errorf("resolve dispute: %w", err)
	}
	return &d, nil
}

func (r *repository) one(ctx context.Context, q db.Queryer, query string, args ...interface{}) (*Dispute, error) {
	var d Dispute
	err := q.GetContext(ctx, &d, query, args...)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("dispute")
	}
	if err != nil {
		return nil, err
	}
	return &d, nil
}
