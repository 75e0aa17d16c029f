package chat

import (
	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
	"tokenbook/internal/booking"
)

// openStatuses are the booking states that accept new chat messages.
var openStatuses = []booking.Status{
	booking.StatusPending,
	booking.StatusConfirmed,
	booking.StatusInProgress,
	booking.StatusCompleted,
}

var messagingOpen = func() map[booking.Status]bool {
	set := make(map[booking.Status]bool, len(openStatuses))
	for _, st := range openStatuses {
		set[st] = true
	}
	return set
}()

// CanSend decides whether actor may post to the booking's chat right now.
// The sender check runs first so outsiders learn nothing about the booking.
func CanSend(b *booking.Booking, actor auth.Actor) error {
	if !CanRead(b, actor) {
		return apperr.ErrAccessDenied
	}
	if !messagingOpen[b.Status] {
		return apperr.ErrMessagingClosed.WithMessage("messaging is closed for %s bookings", b.Status)
	}
	return nil
}

// CanRead covers history and live updates, which stay available in every
// booking state.
func CanRead(b *booking.Booking, actor auth.Actor) bool {
	return booking.IsParty(b, actor) || actor.Role.IsStaff()
}
