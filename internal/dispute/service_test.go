package dispute

import (
	"context"
	"strings"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
	"tokenbook/internal/booking"
	"tokenbook/internal/db"
	"tokenbook/internal/db/dbtest"
	"tokenbook/internal/events"
)

var (
	seeker   = auth.Actor{UserID: 10, Role: auth.RoleSeeker}
	provider = auth.Actor{UserID: 20, Role: auth.RoleProvider}
	admin    = auth.Actor{UserID: 1, Role: auth.RoleAdmin}
	manager  = auth.Actor{UserID: 2, Role: auth.RoleManager}
)

const validDescription = "Provider never showed up at the agreed time"

type MockRepository struct{ mock.Mock }

func (m *MockRepository) Create(ctx context.Context, q db.Queryer, d *Dispute) (*Dispute, error) {
	args := m.Called(ctx, q, d)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Dispute), args.Error(1)
}

func (m *MockRepository) GetByID(ctx context.Context, id int) (*Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Dispute), args.Error(1)
}

func (m *MockRepository) GetForUpdate(ctx context.Context, q db.Queryer, id int) (*Dispute, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Dispute), args.Error(1)
}

func (m *MockRepository) LatestForBooking(ctx context.Context, bookingID int) (*Dispute, error) {
	args := m.Called(ctx, bookingID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Dispute), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, f ListFilter) ([]Dispute, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]Dispute), args.Error(1)
}

func (m *MockRepository) MarkUnderReview(ctx context.Context, id int) (*Dispute, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Dispute), args.Error(1)
}

func (m *MockRepository) Resolve(ctx context.Context, q db.Queryer, id int, outcome Outcome, notes string, resolvedBy int) (*Dispute, error) {
	args := m.Called(ctx, q, id, outcome, notes, resolvedBy)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Dispute), args.Error(1)
}

type MockBookings struct{ mock.Mock }

func (m *MockBookings) Get(ctx context.Context, actor auth.Actor, id int) (*booking.Booking, error) {
	args := m.Called(ctx, actor, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*booking.Booking), args.Error(1)
}

func (m *MockBookings) TransitionTx(ctx context.Context, q db.Queryer, actor auth.Actor, id int, to booking.Status, ch booking.Channel) (*booking.Booking, *booking.Change, error) {
	args := m.Called(ctx, q, actor, id, to, ch)
	var b *booking.Booking
	if v := args.Get(0); v != nil {
		b = v.(*booking.Booking)
	}
	var c *booking.Change
	if v := args.Get(1); v != nil {
		c = v.(*booking.Change)
	}
	return b, c, args.Error(2)
}

func (m *MockBookings) Notify(ctx context.Context, change booking.Change) {
	m.Called(ctx, change)
}

type fakePublisher struct {
	keys []string
	err  error
}

func (p *fakePublisher) Publish(ctx context.Context, routingKey string, payload any) error {
	p.keys = append(p.keys, routingKey)
	return p.err
}

type fixture struct {
	repo     *MockRepository
	bookings *MockBookings
	tx       *dbtest.Inline
	pub      *fakePublisher
	svc      Service
}

func newFixture() *fixture {
	f := &fixture{
		repo:     new(MockRepository),
		bookings: new(MockBookings),
		tx:       &dbtest.Inline{},
		pub:      &fakePublisher{},
	}
	f.svc = NewService(f.repo, f.bookings, f.tx, f.pub)
	return f
}

func change(from, to booking.Status, actor auth.Actor, ch booking.Channel) *booking.Change {
	b := booking.Booking{ID: 7, SeekerID: seeker.UserID, ProviderID: provider.UserID, Status: to, TokenAmount: 500}
	return &booking.Change{Booking: b, From: from, To: to, Actor: actor, Channel: ch}
}

func TestFile_FreezesBooking(t *testing.T) {
	f := newFixture()
	ctx := context.Background()
	c := change(booking.StatusConfirmed, booking.StatusDisputed, seeker, booking.ChannelDispute)

	f.bookings.On("TransitionTx", ctx, nil, seeker, 7, booking.StatusDisputed, booking.ChannelDispute).
		Return(&c.Booking, c, nil)
	f.repo.On("Create", ctx, nil, mock.MatchedBy(func(d *Dispute) bool {
		return d.DisputeType == TypeNoShow && d.Description == validDescription && d.FiledBy == 10 && d.Status == StatusOpen
	})).Return(&Dispute{ID: 3, BookingID: 7, DisputeType: TypeNoShow, Status: StatusOpen}, nil)
	f.bookings.On("Notify", ctx, *c).Return()

	d, err := f.svc.File(ctx, seeker, 7, FileRequest{
		Reason:      "NO_SHOW",
		Description: "  " + validDescription + "  ",
		Evidence:    []string{"https://cdn.example.com/photo.jpg"},
	})

	require.NoError(t, err)
	assert.Equal(t, 3, d.ID)
	assert.Equal(t, 1, f.tx.Calls)
	assert.Equal(t, []string{events.DisputeFiled}, f.pub.keys)
	f.bookings.AssertExpectations(t)
}

func TestFile_PublishFailureDoesNotFailFiling(t *testing.T) {
	f := newFixture()
	f.pub.err = events.ErrDisconnected
	ctx := context.Background()
	c := change(booking.StatusConfirmed, booking.StatusDisputed, seeker, booking.ChannelDispute)

	f.bookings.On("TransitionTx", ctx, nil, seeker, 7, booking.StatusDisputed, booking.ChannelDispute).
		Return(&c.Booking, c, nil)
	f.repo.On("Create", ctx, nil, mock.Anything).
		Return(&Dispute{ID: 4, BookingID: 7, DisputeType: TypeOther, Status: StatusOpen}, nil)
	f.bookings.On("Notify", ctx, *c).Return()

	d, err := f.svc.File(ctx, seeker, 7, FileRequest{Reason: "OTHER", Description: validDescription})

	require.NoError(t, err)
	assert.Equal(t, 4, d.ID)
	assert.Equal(t, []string{events.DisputeFiled}, f.pub.keys)
}

func TestFile_AcceptsDisputeTypeField(t *testing.T) {
	req := FileRequest{DisputeType: "SERVICE_QUALITY", Description: validDescription}
	d, err := newDispute(provider, 7, req)

	require.NoError(t, err)
	assert.Equal(t, TypeServiceQuality, d.DisputeType)
	assert.Equal(t, pq.StringArray(nil), d.Evidence)
}

func TestFile_Validation(t *testing.T) {
	tests := []struct {
		name  string
		req   FileRequest
		field string
	}{
		{"unknown type", FileRequest{Reason: "BORED", Description: validDescription}, "reason"},
		{"missing type", FileRequest{Description: validDescription}, "reason"},
		{"short description", FileRequest{Reason: "OTHER", Description: "too short"}, "description"},
		{"padding does not count", FileRequest{Reason: "OTHER", Description: "   short but padded     " + strings.Repeat(" ", 30)}, "description"},
		{"relative evidence", FileRequest{Reason: "OTHER", Description: validDescription, Evidence: []string{"/uploads/a.png"}}, "evidence"},
		{"non-http evidence", FileRequest{Reason: "OTHER", Description: validDescription, Evidence: []string{"ftp://files.example.com/a"}}, "evidence"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()

			_, err := f.svc.File(context.Background(), seeker, 7, tt.req)

			require.ErrorIs(t, err, apperr.ErrValidation)
			assert.Contains(t, apperr.From(err).Details, tt.field)
			assert.Zero(t, f.tx.Calls)
		})
	}
}

func TestFile_StaffCannotFile(t *testing.T) {
	f := newFixture()

	_, err := f.svc.File(context.Background(), admin, 7, FileRequest{Reason: "OTHER", Description: validDescription})

	assert.ErrorIs(t, err, apperr.ErrAccessDenied)
	assert.Zero(t, f.tx.Calls)
}

func TestFile_NotAllowed(t *testing.T) {
	req := FileRequest{Reason: "OTHER", Description: validDescription}

	t.Run("terminal booking", func(t *testing.T) {
		f := newFixture()
		f.bookings.On("TransitionTx", mock.Anything, nil, seeker, 7, booking.StatusDisputed, booking.ChannelDispute).
			Return(nil, nil, apperr.ErrInvalidTransition)

		_, err := f.svc.File(context.Background(), seeker, 7, req)

		assert.ErrorIs(t, err, apperr.ErrDisputeNotAllowed)
		f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("already disputed", func(t *testing.T) {
		f := newFixture()
		f.bookings.On("TransitionTx", mock.Anything, nil, seeker, 7, booking.StatusDisputed, booking.ChannelDispute).
			Return(&booking.Booking{ID: 7, Status: booking.StatusDisputed}, nil, nil)

		_, err := f.svc.File(context.Background(), seeker, 7, req)

		assert.ErrorIs(t, err, apperr.ErrDisputeNotAllowed)
		f.bookings.AssertNotCalled(t, "Notify", mock.Anything, mock.Anything)
	})

	t.Run("open dispute exists", func(t *testing.T) {
		f := newFixture()
		c := change(booking.StatusPending, booking.StatusDisputed, seeker, booking.ChannelDispute)
		f.bookings.On("TransitionTx", mock.Anything, nil, seeker, 7, booking.StatusDisputed, booking.ChannelDispute).
			Return(&c.Booking, c, nil)
		f.repo.On("Create", mock.Anything, nil, mock.Anything).Return(nil, &pq.Error{Code: "23505"})

		_, err := f.svc.File(context.Background(), seeker, 7, req)

		assert.ErrorIs(t, err, apperr.ErrDisputeNotAllowed)
		assert.Empty(t, f.pub.keys)
	})

	t.Run("not a party", func(t *testing.T) {
		f := newFixture()
		outsider := auth.Actor{UserID: 99, Role: auth.RoleSeeker}
		f.bookings.On("TransitionTx", mock.Anything, nil, outsider, 7, booking.StatusDisputed, booking.ChannelDispute).
			Return(nil, nil, apperr.ErrAccessDenied)

		_, err := f.svc.File(context.Background(), outsider, 7, req)

		assert.ErrorIs(t, err, apperr.ErrAccessDenied)
	})
}

func TestResolve(t *testing.T) {
	tests := []struct {
		outcome Outcome
		to      booking.Status
	}{
		{OutcomeRelease, booking.StatusCompleted},
		{OutcomeRefund, booking.StatusCancelled},
	}

	for _, tt := range tests {
		t.Run(string(tt.outcome), func(t *testing.T) {
			f := newFixture()
			ctx := context.Background()
			c := change(booking.StatusDisputed, tt.to, admin, booking.ChannelResolution)
			outcome := tt.outcome

			f.repo.On("GetForUpdate", ctx, nil, 3).Return(&Dispute{ID: 3, BookingID: 7, Status: StatusUnderReview}, nil)
			f.bookings.On("TransitionTx", ctx, nil, admin, 7, tt.to, booking.ChannelResolution).Return(&c.Booking, c, nil)
			f.repo.On("Resolve", ctx, nil, 3, tt.outcome, "checked the logs", admin.UserID).
				Return(&Dispute{ID: 3, BookingID: 7, Status: StatusResolved, Resolution: &outcome}, nil)
			f.bookings.On("Notify", ctx, *c).Return()

			d, err := f.svc.Resolve(ctx, admin, 3, ResolveRequest{Outcome: tt.outcome, Notes: " checked the logs "})

			require.NoError(t, err)
			assert.Equal(t, StatusResolved, d.Status)
			assert.Equal(t, []string{events.DisputeResolved}, f.pub.keys)
			f.bookings.AssertExpectations(t)
			f.repo.AssertExpectations(t)
		})
	}
}

func TestResolve_Rejections(t *testing.T) {
	t.Run("non-admin staff", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Resolve(context.Background(), manager, 3, ResolveRequest{Outcome: OutcomeRefund})
		assert.ErrorIs(t, err, apperr.ErrAccessDenied)
	})

	t.Run("no default outcome", func(t *testing.T) {
		f := newFixture()
		_, err := f.svc.Resolve(context.Background(), admin, 3, ResolveRequest{})
		assert.ErrorIs(t, err, apperr.ErrValidation)
		assert.Zero(t, f.tx.Calls)
	})

	t.Run("already resolved", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetForUpdate", mock.Anything, nil, 3).Return(&Dispute{ID: 3, BookingID: 7, Status: StatusResolved}, nil)

		_, err := f.svc.Resolve(context.Background(), admin, 3, ResolveRequest{Outcome: OutcomeRelease})

		assert.ErrorIs(t, err, ErrAlreadyResolved)
		f.bookings.AssertNotCalled(t, "TransitionTx", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("ledger failure leaves dispute open", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetForUpdate", mock.Anything, nil, 3).Return(&Dispute{ID: 3, BookingID: 7, Status: StatusOpen}, nil)
		f.bookings.On("TransitionTx", mock.Anything, nil, admin, 7, booking.StatusCompleted, booking.ChannelResolution).
			Return(nil, nil, apperr.ErrEscrowMismatch)

		_, err := f.svc.Resolve(context.Background(), admin, 3, ResolveRequest{Outcome: OutcomeRelease})

		assert.ErrorIs(t, err, apperr.ErrEscrowMismatch)
		f.repo.AssertNotCalled(t, "Resolve", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		assert.Empty(t, f.pub.keys)
	})
}

func TestReview(t *testing.T) {
	t.Run("open moves to under review", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", mock.Anything, 3).Return(&Dispute{ID: 3, Status: StatusOpen}, nil)
		f.repo.On("MarkUnderReview", mock.Anything, 3).Return(&Dispute{ID: 3, Status: StatusUnderReview}, nil)

		d, err := f.svc.Review(context.Background(), admin, 3)

		require.NoError(t, err)
		assert.Equal(t, StatusUnderReview, d.Status)
	})

	t.Run("repeat is a no-op", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", mock.Anything, 3).Return(&Dispute{ID: 3, Status: StatusUnderReview}, nil)

		_, err := f.svc.Review(context.Background(), admin, 3)

		require.NoError(t, err)
		f.repo.AssertNotCalled(t, "MarkUnderReview", mock.Anything, mock.Anything)
	})

	t.Run("resolved", func(t *testing.T) {
		f := newFixture()
		f.repo.On("GetByID", mock.Anything, 3).Return(&Dispute{ID: 3, Status: StatusResolved}, nil)

		_, err := f.svc.Review(context.Background(), admin, 3)

		assert.ErrorIs(t, err, ErrAlreadyResolved)
	})
}

func TestForBooking_ChecksAccess(t *testing.T) {
	f := newFixture()
	outsider := auth.Actor{UserID: 99, Role: auth.RoleProvider}
	f.bookings.On("Get", mock.Anything, outsider, 7).Return(nil, apperr.ErrAccessDenied)

	_, err := f.svc.ForBooking(context.Background(), outsider, 7)

	assert.ErrorIs(t, err, apperr.ErrAccessDenied)
	f.repo.AssertNotCalled(t, "LatestForBooking", mock.Anything, mock.Anything)
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	f := newFixture()
	_, err := f.svc.List(context.Background(), ListFilter{Status: "CLOSED"})
	assert.ErrorIs(t, err, apperr.ErrValidation)
}
