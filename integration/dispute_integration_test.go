package integration_test

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
	"tokenbook/internal/booking"
	"tokenbook/internal/dispute"
)

func fileRequest() dispute.FileRequest {
	return dispute.FileRequest{
		DisputeType: string(dispute.TypeNoShow),
		Description: "Provider never showed up at the agreed time and place.",
	}
}

func TestDispute_RefundToSeeker(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	seeker := s.register(t, "seeker@test.com", auth.RoleSeeker)
	provider := s.register(t, "provider@test.com", auth.RoleProvider)
	admin := s.admin(t)
	s.fund(t, seeker, 1000)

	b := s.book(t, seeker, provider, 500)
	_, err := s.bookings.UpdateStatus(ctx, provider, b.ID, booking.StatusConfirmed)
	require.NoError(t, err)

	d, err := s.disputes.File(ctx, seeker, b.ID, fileRequest())
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusOpen, d.Status)

	frozen, err := s.bookings.Get(ctx, seeker, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusDisputed, frozen.Status)
	assert.Equal(t, int64(500), s.wallet(t, seeker).EscrowBalance)

	_, err = s.disputes.File(ctx, provider, b.ID, fileRequest())
	assert.ErrorIs(t, err, apperr.ErrDisputeNotAllowed)

	_, err = s.bookings.UpdateStatus(ctx, provider, b.ID, booking.StatusCompleted)
	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)

	reviewed, err := s.disputes.Review(ctx, admin, d.ID)
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusUnderReview, reviewed.Status)

	resolved, err := s.disputes.Resolve(ctx, admin, d.ID, dispute.ResolveRequest{Outcome: dispute.OutcomeRefund, Notes: "no-show confirmed"})
	require.NoError(t, err)
	assert.Equal(t, dispute.StatusResolved, resolved.Status)

	final, err := s.bookings.Get(ctx, seeker, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCancelled, final.Status)

	w := s.wallet(t, seeker)
	assert.Equal(t, int64(1000), w.Balance)
	assert.Zero(t, w.EscrowBalance)
	assert.Zero(t, s.wallet(t, provider).Balance)

	_, err = s.disputes.Resolve(ctx, admin, d.ID, dispute.ResolveRequest{Outcome: dispute.OutcomeRelease})
	assert.ErrorIs(t, err, dispute.ErrAlreadyResolved)
	assert.Zero(t, s.wallet(t, provider).Balance)
}

func TestDispute_ReleaseToProvider(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	seeker := s.register(t, "seeker@test.com", auth.RoleSeeker)
	provider := s.register(t, "provider@test.com", auth.RoleProvider)
	admin := s.admin(t)
	s.fund(t, seeker, 800)

	b := s.book(t, seeker, provider, 800)
	for _, to := range []booking.Status{booking.StatusConfirmed, booking.StatusInProgress} {
		_, err := s.bookings.UpdateStatus(ctx, provider, b.ID, to)
		require.NoError(t, err)
	}

	d, err := s.disputes.File(ctx, provider, b.ID, dispute.FileRequest{
		DisputeType: string(dispute.TypePaymentIssue),
		Description: "Seeker asked to settle part of the fee in cash.",
	})
	require.NoError(t, err)

	_, err = s.disputes.Resolve(ctx, admin, d.ID, dispute.ResolveRequest{Outcome: dispute.OutcomeRelease})
	require.NoError(t, err)

	final, err := s.bookings.Get(ctx, provider, b.ID)
	require.NoError(t, err)
	assert.Equal(t, booking.StatusCompleted, final.Status)
	assert.Equal(t, int64(800), s.wallet(t, provider).Balance)

	w := s.wallet(t, seeker)
	assert.Zero(t, w.Balance)
	assert.Zero(t, w.EscrowBalance)
	assert.Equal(t, int64(800), w.TotalSpent)
}

func TestDispute_TerminalBookingRejected(t *testing.T) {
	s := newStack(t)
	ctx := context.Background()

	seeker := s.register(t, "seeker@test.com", auth.RoleSeeker)
	provider := s.register(t, "provider@test.com", auth.RoleProvider)
	s.fund(t, seeker, 300)

	b := s.book(t, seeker, provider, 300)
	_, err := s.bookings.UpdateStatus(ctx, seeker, b.ID, booking.StatusCancelled)
	require.NoError(t, err)

	_, err = s.disputes.File(ctx, seeker, b.ID, fileRequest())
	assert.ErrorIs(t, err, apperr.ErrDisputeNotAllowed)
}
