package email

import (
	"context"
	"fmt"

	"tokenbook/internal/booking"
	"tokenbook/internal/logger"
	"tokenbook/internal/user"
)

type UserLookup interface {
	FindByID(ctx context.Context, id int) (*user.User, error)
}

type Queue interface {
	Enqueue(ctx context.Context, kind, to, name, subject, body string) error
}

// Notifier turns booking status changes into queued emails for the party
// that did not make the change.
type Notifier struct {
	queue Queue
	users UserLookup
}

func NewNotifier(queue Queue, users UserLookup) *Notifier {
	return &Notifier{queue: queue, users: users}
}

func (n *Notifier) OnBookingStatus(ctx context.Context, change booking.Change) {
	b := change.Booking

	for _, id := range recipients(change) {
		u, err := n.users.FindByID(ctx, id)
		if err != nil {
			logger.WithError(err).Warn("look up email recipient", "user_id", id, "booking_id", b.ID)
			continue
		}

		subject, body := compose(u.Name, change)
		if err := n.queue.Enqueue(ctx, "booking_"+string(change.To), u.Email, u.Name, subject, body); err != nil {
			logger.WithError(err).Warn("queue booking email", "user_id", id, "booking_id", b.ID)
		}
	}
}

// recipients skips the actor; admin actions notify both parties.
func recipients(change booking.Change) []int {
	b := change.Booking
	var ids []int
	for _, id := range []int{b.SeekerID, b.ProviderID} {
		if id != change.Actor.UserID {
			ids = append(ids, id)
		}
	}
	return ids
}

func compose(name string, change booking.Change) (string, string) {
	b := change.Booking
	var subject, line string

	switch change.To {
	case booking.StatusPending:
		subject = "New booking request"
		line = fmt.Sprintf("You have a new %s booking request for %s.", b.ServiceType, b.ScheduledAt.Format("Jan 2, 2006 at 3:04 PM"))
	case booking.StatusConfirmed:
		subject = "Booking confirmed"
		line = fmt.Sprintf("Your %s booking on %s is confirmed.", b.ServiceType, b.ScheduledAt.Format("Jan 2, 2006 at 3:04 PM"))
	case booking.StatusInProgress:
		subject = "Session started"
		line = fmt.Sprintf("Your %s session has started.", b.ServiceType)
	case booking.StatusCompleted:
		subject = "Booking completed"
		line = fmt.Sprintf("Booking #%d is complete and %d tokens were released to the provider.", b.ID, b.TokenAmount)
	case booking.StatusCancelled:
		subject = "Booking cancelled"
		line = fmt.Sprintf("Booking #%d was cancelled and %d tokens were refunded to the seeker.", b.ID, b.TokenAmount)
	case booking.StatusDisputed:
		subject = "Dispute filed"
		line = fmt.Sprintf("A dispute was filed on booking #%d. Tokens stay in escrow until our team resolves it.", b.ID)
	default:
		subject = "Booking update"
		line = fmt.Sprintf("Booking #%d is now %s.", b.ID, change.To)
	}

	body := fmt.Sprintf("Hi %s,\n\n%s\n\n- Tokenbook", name, line)
	return subject, body
}
