package assignment

import (
	"context"

	"tokenbook/internal/apperr"
	"tokenbook/internal/booking"
	"tokenbook/internal/logger"
	"tokenbook/internal/user"
)

type UserLookup interface {
	FindByID(ctx context.Context, id int) (*user.User, error)
}

type BookingLookup interface {
	GetByID(ctx context.Context, id int) (*booking.Booking, error)
}

type Service struct {
	store    Store
	users    UserLookup
	bookings BookingLookup
}

func NewService(store Store, users UserLookup, bookings BookingLookup) *Service {
	return &Service{store: store, users: users, bookings: bookings}
}

// AssignMonitor makes staffID the recipient of flagged-message alerts for the
// booking. Only staff accounts can monitor.
func (s *Service) AssignMonitor(ctx context.Context, bookingID, staffID int) error {
	if _, err := s.bookings.GetByID(ctx, bookingID); err != nil {
		return err
	}

	staff, err := s.users.FindByID(ctx, staffID)
	if err != nil {
		return err
	}
	if !staff.Role.IsStaff() {
		return apperr.Validation(map[string]string{"staffId": "user is not a staff member"})
	}

	if err := s.store.Assign(ctx, bookingID, staffID); err != nil {
		return err
	}
	logger.Info("booking monitor assigned", "booking_id", bookingID, "staff_id", staffID)
	return nil
}

func (s *Service) MonitorFor(ctx context.Context, bookingID int) (int, bool, error) {
	return s.store.MonitorFor(ctx, bookingID)
}

// OnBookingStatus drops the assignment once a booking can no longer move.
func (s *Service) OnBookingStatus(ctx context.Context, change booking.Change) {
	if !change.To.Terminal() {
		return
	}
	if err := s.store.Unassign(ctx, change.Booking.ID); err != nil {
		logger.WithError(err).Warn("unassign booking monitor", "booking_id", change.Booking.ID)
	}
}
