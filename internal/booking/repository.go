package booking

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"

	"tokenbook/internal/apperr"
	"tokenbook/internal/db"
)

const bookingColumns = `id, seeker_id, provider_id, service_type, status, token_amount, scheduled_at, duration, notes, created_at, updated_at, completed_at, cancelled_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, q db.Queryer, b *Booking) (*Booking, error) {
	query := `
		INSERT INTO bookings (seeker_id, provider_id, service_type, status, token_amount, scheduled_at, duration, notes)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + bookingColumns

	var created Booking
	err := q.GetContext(ctx, &created, query,
		b.SeekerID, b.ProviderID, b.ServiceType, StatusPending, b.TokenAmount, b.ScheduledAt, b.Duration, b.Notes,
	)
	if err != nil {
		return nil, fmt.Errorf("insert booking: %w", err)
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Booking, error) {
	return get(ctx, r.db, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1`, id)
}

// GetForUpdate locks the booking row until the surrounding transaction ends.
func (r *repository) GetForUpdate(ctx context.Context, q db.Queryer, id int) (*Booking, error) {
	return get(ctx, q, `SELECT `+bookingColumns+` FROM bookings WHERE id = $1 FOR UPDATE`, id)
}

// UpdateStatus only succeeds while the row still holds the expected prior
// status; a lost race surfaces as CONCURRENT_UPDATE.
func (r *repository) UpdateStatus(ctx context.Context, q db.Queryer, id int, from, to Status) (*Booking, error) {
	query := `
		UPDATE bookings
		SET status = $1,
			updated_at = NOW(),
			completed_at = CASE WHEN $1 = 'COMPLETED' THEN NOW() ELSE completed_at END,
			cancelled_at = CASE WHEN $1 = 'CANCELLED' THEN NOW() ELSE cancelled_at END
		WHERE id = $2 AND status = $3
		RETURNING ` + bookingColumns

	var b Booking
	err := q.GetContext(ctx, &b, query, to, id, from)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrConcurrentUpdate
	}
	if err != nil {
		return nil, fmt.Errorf("update booking status: %w", err)
	}
	return &b, nil
}

func (r *repository) ListForUser(ctx context.Context, userID int, f ListFilter) ([]Booking, error) {
	limit, offset := page(f)
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE (seeker_id = $1 OR provider_id = $1)
		  AND ($2 = '' OR status = $2)
		ORDER BY scheduled_at DESC, id DESC
		LIMIT $3 OFFSET $4`

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, userID, f.Status, limit, offset); err != nil {
		return nil, err
	}
	return bookings, nil
}

func (r *repository) ListAll(ctx context.Context, f ListFilter) ([]Booking, error) {
	limit, offset := page(f)
	query := `
		SELECT ` + bookingColumns + `
		FROM bookings
		WHERE ($1 = '' OR status = $1)
		ORDER BY created_at DESC, id DESC
		LIMIT $2 OFFSET $3`

	bookings := []Booking{}
	if err := r.db.SelectContext(ctx, &bookings, query, f.Status, limit, offset); err != nil {
		return nil, err
	}
	return bookings, nil
}

// OpenIDsForUser lists bookings whose chat the user may still follow live.
func (r *repository) OpenIDsForUser(ctx context.Context, userID int) ([]int, error) {
	ids := []int{}
	err := r.db.SelectContext(ctx, &ids, `
		SELECT id
		FROM bookings
		WHERE (seeker_id = $1 OR provider_id = $1)
		  AND status <> 'CANCELLED'
		ORDER BY id`, userID)
	if err != nil {
		return nil, err
	}
	return ids, nil
}

func get(ctx context.Context, q db.Queryer, query string, id int) (*Booking, error) {
	var b Booking
	err := q.GetContext(ctx, &b, query, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("booking")
	}
	if err != nil {
		return nil, err
	}
	return &b, nil
}

func page(f ListFilter) (int, int) {
	limit, offset := f.Limit, f.Offset
	if limit <= 0 || limit > 100 {
		limit = 20
	}
	if offset < 0 {
		offset = 0
	}
	return limit, offset
}
