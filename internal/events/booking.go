package events

import (
	"context"
	"time"

	"tokenbook/internal/booking"
)

type StatusChanged struct {
	BookingID   int            `json:"bookingId"`
	SeekerID    int            `json:"seekerId"`
	ProviderID  int            `json:"providerId"`
	From        booking.Status `json:"from,omitempty"`
	To          booking.Status `json:"to"`
	ActorID     int            `json:"actorId"`
	Channel     string         `json:"channel"`
	TokenAmount int64          `json:"tokenAmount"`
	ChangedAt   time.Time      `json:"changedAt"`
}

// BookingListener publishes every committed booking transition.
func BookingListener(p Publisher) booking.StatusListener {
	return func(ctx context.Context, change booking.Change) {
		b := change.Booking
		p.Publish(ctx, BookingStatusChanged, StatusChanged{
			BookingID:   b.ID,
			SeekerID:    b.SeekerID,
			ProviderID:  b.ProviderID,
			From:        change.From,
			To:          change.To,
			ActorID:     change.Actor.UserID,
			Channel:     string(change.Channel),
			TokenAmount: b.TokenAmount,
			ChangedAt:   b.UpdatedAt,
		})
	}
}
