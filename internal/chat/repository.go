package chat

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/jmoiron/sqlx"
	"github.com/lib/pq"

	"tokenbook/internal/apperr"
	"tokenbook/internal/booking"
)

const messageColumns = `id, booking_id, sender_id, content, media_url, is_system_message, is_flagged, flagged_reason, template_id, created_at`

type repository struct {
	db *sqlx.DB
}

func NewRepository(db *sqlx.DB) Repository {
	return &repository{db: db}
}

func (r *repository) Create(ctx context.Context, m *Message) (*Message, error) {
	query := `
		INSERT INTO messages (booking_id, sender_id, content, media_url, is_system_message, is_flagged, flagged_reason, template_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
		RETURNING ` + messageColumns

	var created Message
	err := r.db.GetContext(ctx, &created, query,
		m.BookingID, m.SenderID, m.Content, m.MediaURL, m.IsSystemMessage, m.IsFlagged, m.FlaggedReason, m.TemplateID,
	)
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &created, nil
}

// CreateWhileOpen stores m only if its booking is still in one of the open
// states. The booking row is share-locked for the insert, so a concurrent
// status change either waits for it or is seen by it. A closed or missing
// booking yields MESSAGING_NOT_ALLOWED.
func (r *repository) CreateWhileOpen(ctx context.Context, m *Message, open []booking.Status) (*Message, error) {
	query := `
		INSERT INTO messages (booking_id, sender_id, content, media_url, is_system_message, is_flagged, flagged_reason, template_id)
		SELECT b.id, $2::int, $3::text, $4::text, $5::boolean, $6::boolean, $7::text, $8::int
		FROM bookings b
		WHERE b.id = $1 AND b.status = ANY($9::text[])
		FOR SHARE
		RETURNING ` + messageColumns

	statuses := make([]string, len(open))
	for i, st := range open {
		statuses[i] = string(st)
	}

	var created Message
	err := r.db.GetContext(ctx, &created, query,
		m.BookingID, m.SenderID, m.Content, m.MediaURL, m.IsSystemMessage, m.IsFlagged, m.FlaggedReason, m.TemplateID,
		pq.Array(statuses),
	)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.ErrMessagingClosed
	}
	if err != nil {
		return nil, fmt.Errorf("insert message: %w", err)
	}
	return &created, nil
}

func (r *repository) GetByID(ctx context.Context, id int) (*Message, error) {
	var m Message
	err := r.db.GetContext(ctx, &m, `SELECT `+messageColumns+` FROM messages WHERE id = $1`, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("message")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}

// List pages backwards from beforeID (0 = newest) and returns the page in
// chronological order.
func (r *repository) List(ctx context.Context, bookingID, beforeID, limit int) ([]Message, error) {
	if limit <= 0 || limit > 200 {
		limit = 50
	}

	query := `
		SELECT ` + messageColumns + `
		FROM messages
		WHERE booking_id = $1 AND ($2 = 0 OR id < $2)
		ORDER BY id DESC
		LIMIT $3`

	msgs := []Message{}
	if err := r.db.SelectContext(ctx, &msgs, query, bookingID, beforeID, limit); err != nil {
		return nil, err
	}

	for i, j := 0, len(msgs)-1; i < j; i, j = i+1, j-1 {
		msgs[i], msgs[j] = msgs[j], msgs[i]
	}
	return msgs, nil
}

func (r *repository) SetFlag(ctx context.Context, id int, flagged bool, reason *string) (*Message, error) {
	query := `
		UPDATE messages
		SET is_flagged = $1, flagged_reason = $2
		WHERE id = $3
		RETURNING ` + messageColumns

	var m Message
	err := r.db.GetContext(ctx, &m, query, flagged, reason, id)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, apperr.NotFound("message")
	}
	if err != nil {
		return nil, err
	}
	return &m, nil
}
