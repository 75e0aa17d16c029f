// Package dispute freezes a booking while a disagreement between seeker and
// provider is reviewed, and settles the held escrow once an admin decides.
package dispute

import (
	"context"
	"errors"
	"net/url"
	"strings"

	"github.com/lib/pq"

	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
	"tokenbook/internal/booking"
	"tokenbook/internal/db"
	"tokenbook/internal/events"
	"tokenbook/internal/logger"
	"tokenbook/internal/metrics"
)

var ErrAlreadyResolved = apperr.New(apperr.KindState, "DISPUTE_RESOLVED", "Dispute has already been resolved")

// Bookings is the part of the booking service disputes drive.
type Bookings interface {
	Get(ctx context.Context, actor auth.Actor, id int) (*booking.Booking, error)
	TransitionTx(ctx context.Context, q db.Queryer, actor auth.Actor, id int, to booking.Status, ch booking.Channel) (*booking.Booking, *booking.Change, error)
	Notify(ctx context.Context, change booking.Change)
}

type Service interface {
	File(ctx context.Context, actor auth.Actor, bookingID int, req FileRequest) (*Dispute, error)
	ForBooking(ctx context.Context, actor auth.Actor, bookingID int) (*Dispute, error)
	List(ctx context.Context, f ListFilter) ([]Dispute, error)
	Review(ctx context.Context, actor auth.Actor, id int) (*Dispute, error)
	Resolve(ctx context.Context, actor auth.Actor, id int, req ResolveRequest) (*Dispute, error)
}

type service struct {
	repo      Repository
	bookings  Bookings
	tx        db.Transactor
	publisher events.Publisher
}

func NewService(repo Repository, bookings Bookings, tx db.Transactor, publisher events.Publisher) Service {
	return &service{repo: repo, bookings: bookings, tx: tx, publisher: publisher}
}

// File opens a dispute and moves the booking to DISPUTED in one transaction.
// The escrow stays where it is until Resolve.
func (s *service) File(ctx context.Context, actor auth.Actor, bookingID int, req FileRequest) (*Dispute, error) {
	if actor.Role != auth.RoleSeeker && actor.Role != auth.RoleProvider {
		return nil, apperr.ErrAccessDenied.WithMessage("only the seeker or provider can file a dispute")
	}

	d, err := newDispute(actor, bookingID, req)
	if err != nil {
		return nil, err
	}

	var (
		created *Dispute
		change  *booking.Change
	)
	err = s.tx.WithinTx(ctx, func(q db.Queryer) error {
		_, c, err := s.bookings.TransitionTx(ctx, q, actor, bookingID, booking.StatusDisputed, booking.ChannelDispute)
		if errors.Is(err, apperr.ErrInvalidTransition) {
			return apperr.ErrDisputeNotAllowed.WithMessage("bookings can only be disputed while pending, confirmed or in progress")
		}
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.ErrDisputeNotAllowed.WithMessage("booking is already disputed")
		}

		created, err = s.repo.Create(ctx, q, d)
		if isUniqueViolation(err) {
			return apperr.ErrDisputeNotAllowed.WithMessage("booking already has an open dispute")
		}
		if err != nil {
			return err
		}
		change = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bookings.Notify(ctx, *change)
	metrics.RecordDispute("filed", string(created.DisputeType))
	logger.Info("dispute filed",
		"dispute_id", created.ID,
		"booking_id", bookingID,
		"filed_by", actor.UserID,
		"type", string(created.DisputeType),
	)
	s.publisher.Publish(ctx, events.DisputeFiled, created)
	return created, nil
}

func newDispute(actor auth.Actor, bookingID int, req FileRequest) (*Dispute, error) {
	details := map[string]string{}

	t := req.Type()
	if !t.Valid() {
		details["reason"] = "reason must be one of: NO_SHOW SERVICE_QUALITY PAYMENT_ISSUE BEHAVIOR_ISSUE TERMS_VIOLATION OTHER"
	}

	description := strings.TrimSpace(req.Description)
	if len([]rune(description)) < MinDescriptionLength {
		details["description"] = "description must be at least 20 characters"
	}

	if len(req.Evidence) > MaxEvidence {
		details["evidence"] = "at most 10 evidence links are allowed"
	}
	for _, link := range req.Evidence {
		if !isHTTPURL(link) {
			details["evidence"] = "evidence must be absolute http(s) URLs"
			break
		}
	}

	if len(details) > 0 {
		return nil, apperr.Validation(details)
	}

	return &Dispute{
		BookingID:   bookingID,
		FiledBy:     actor.UserID,
		DisputeType: t,
		Description: description,
		Evidence:    pq.StringArray(req.Evidence),
		Status:      StatusOpen,
	}, nil
}

func isHTTPURL(raw string) bool {
	u, err := url.Parse(raw)
	if err != nil || u.Host == "" {
		return false
	}
	return u.Scheme == "http" || u.Scheme == "https"
}

func isUniqueViolation(err error) bool {
	var pqErr *pq.Error
	return errors.As(err, &pqErr) && pqErr.Code == "23505"
}

// ForBooking returns the most recent dispute of a booking the actor can see.
func (s *service) ForBooking(ctx context.Context, actor auth.Actor, bookingID int) (*Dispute, error) {
	if _, err := s.bookings.Get(ctx, actor, bookingID); err != nil {
		return nil, err
	}
	return s.repo.LatestForBooking(ctx, bookingID)
}

func (s *service) List(ctx context.Context, f ListFilter) ([]Dispute, error) {
	switch f.Status {
	case "", StatusOpen, StatusUnderReview, StatusResolved:
	default:
		return nil, apperr.Validation(map[string]string{"status": "unknown dispute status " + string(f.Status)})
	}
	return s.repo.List(ctx, f)
}

func (s *service) Review(ctx context.Context, actor auth.Actor, id int) (*Dispute, error) {
	d, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	switch d.Status {
	case StatusUnderReview:
		return d, nil
	case StatusResolved:
		return nil, ErrAlreadyResolved
	}

	updated, err := s.repo.MarkUnderReview(ctx, id)
	if err != nil {
		return nil, err
	}
	metrics.RecordDispute("under_review", string(updated.DisputeType))
	logger.Info("dispute under review", "dispute_id", id, "admin_id", actor.UserID)
	return updated, nil
}

// Resolve settles the escrow according to the admin's outcome and closes the
// dispute. The booking transition, the ledger effect and the dispute update
// commit together.
func (s *service) Resolve(ctx context.Context, actor auth.Actor, id int, req ResolveRequest) (*Dispute, error) {
	if !actor.Role.IsAdmin() {
		return nil, apperr.ErrAccessDenied.WithMessage("only admins can resolve disputes")
	}

	var to booking.Status
	switch req.Outcome {
	case OutcomeRelease:
		to = booking.StatusCompleted
	case OutcomeRefund:
		to = booking.StatusCancelled
	default:
		return nil, apperr.Validation(map[string]string{"outcome": "outcome must be one of: RELEASE_TO_PROVIDER REFUND_TO_SEEKER"})
	}

	var (
		resolved *Dispute
		change   *booking.Change
	)
	err := s.tx.WithinTx(ctx, func(q db.Queryer) error {
		d, err := s.repo.GetForUpdate(ctx, q, id)
		if err != nil {
			return err
		}
		if d.Status == StatusResolved {
			return ErrAlreadyResolved
		}

		_, c, err := s.bookings.TransitionTx(ctx, q, actor, d.BookingID, to, booking.ChannelResolution)
		if err != nil {
			return err
		}
		if c == nil {
			return apperr.ErrInvalidTransition.WithMessage("booking is already %s", to)
		}

		resolved, err = s.repo.Resolve(ctx, q, id, req.Outcome, strings.TrimSpace(req.Notes), actor.UserID)
		if err != nil {
			return err
		}
		change = c
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.bookings.Notify(ctx, *change)
	metrics.RecordDispute("resolved", string(resolved.DisputeType))
	logger.Info("dispute resolved",
		"dispute_id", id,
		"booking_id", resolved.BookingID,
		"outcome", string(req.Outcome),
		"admin_id", actor.UserID,
	)
	s.publisher.Publish(ctx, events.DisputeResolved, resolved)
	return resolved, nil
}
