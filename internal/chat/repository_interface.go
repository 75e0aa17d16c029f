package chat

import (
	"context"

	"tokenbook/internal/booking"
)

type Repository interface {
	Create(ctx context.Context, m *Message) (*Message, error)
	CreateWhileOpen(ctx context.Context, m *Message, open []booking.Status) (*Message, error)
	GetByID(ctx context.Context, id int) (*Message, error)
	List(ctx context.Context, bookingID, beforeID, limit int) ([]Message, error)
	SetFlag(ctx context.Context, id int, flagged bool, reason *string) (*Message, error)
}
