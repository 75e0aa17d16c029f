package booking

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
	"tokenbook/internal/db"
	"tokenbook/internal/db/dbtest"
	"tokenbook/internal/user"
	"tokenbook/internal/wallet"
)

type MockBookingRepo struct{ mock.Mock }

func (m *MockBookingRepo) Create(ctx context.Context, q db.Queryer, b *Booking) (*Booking, error) {
	args := m.Called(ctx, q, b)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockBookingRepo) GetByID(ctx context.Context, id int) (*Booking, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockBookingRepo) GetForUpdate(ctx context.Context, q db.Queryer, id int) (*Booking, error) {
	args := m.Called(ctx, q, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockBookingRepo) UpdateStatus(ctx context.Context, q db.Queryer, id int, from, to Status) (*Booking, error) {
	args := m.Called(ctx, q, id, from, to)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Booking), args.Error(1)
}

func (m *MockBookingRepo) ListForUser(ctx context.Context, userID int, f ListFilter) ([]Booking, error) {
	args := m.Called(ctx, userID, f)
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockBookingRepo) ListAll(ctx context.Context, f ListFilter) ([]Booking, error) {
	args := m.Called(ctx, f)
	return args.Get(0).([]Booking), args.Error(1)
}

func (m *MockBookingRepo) OpenIDsForUser(ctx context.Context, userID int) ([]int, error) {
	args := m.Called(ctx, userID)
	return args.Get(0).([]int), args.Error(1)
}

type MockUsers struct{ mock.Mock }

func (m *MockUsers) FindByID(ctx context.Context, id int) (*user.User, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*user.User), args.Error(1)
}

type MockLedger struct{ mock.Mock }

func (m *MockLedger) Hold(ctx context.Context, q db.Queryer, seekerID int, amount int64, bookingID int) error {
	return m.Called(ctx, q, seekerID, amount, bookingID).Error(0)
}

func (m *MockLedger) Release(ctx context.Context, q db.Queryer, seekerID, providerID int, amount int64, bookingID int) error {
	return m.Called(ctx, q, seekerID, providerID, amount, bookingID).Error(0)
}

func (m *MockLedger) Refund(ctx context.Context, q db.Queryer, seekerID int, amount int64, bookingID int) error {
	return m.Called(ctx, q, seekerID, amount, bookingID).Error(0)
}

func (m *MockLedger) Credit(ctx context.Context, q db.Queryer, userID int, amount int64, txType wallet.TxType) error {
	return m.Called(ctx, q, userID, amount, txType).Error(0)
}

func (m *MockLedger) Withdraw(ctx context.Context, q db.Queryer, userID int, amount int64) error {
	return m.Called(ctx, q, userID, amount).Error(0)
}

type fixture struct {
	repo    *MockBookingRepo
	users   *MockUsers
	ledger  *MockLedger
	tx      *dbtest.Inline
	svc     *service
	changes []Change
}

var fixedNow = time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

func newFixture() *fixture {
	f := &fixture{
		repo:   new(MockBookingRepo),
		users:  new(MockUsers),
		ledger: new(MockLedger),
		tx:     &dbtest.Inline{},
	}
	f.svc = NewService(f.repo, f.users, f.ledger, f.tx).(*service)
	f.svc.now = func() time.Time { return fixedNow }
	f.svc.Subscribe(func(_ context.Context, c Change) { f.changes = append(f.changes, c) })
	return f
}

func validRequest() CreateRequest {
	return CreateRequest{
		ProviderID:  providerID,
		ServiceType: "consultation",
		ScheduledAt: fixedNow.Add(48 * time.Hour),
		Duration:    60,
		TokenAmount: 500,
	}
}

func (f *fixture) withParties(ageVerified bool) {
	f.users.On("FindByID", mock.Anything, seekerID).
		Return(&user.User{ID: seekerID, Role: auth.RoleSeeker, AgeVerified: ageVerified}, nil)
	f.users.On("FindByID", mock.Anything, providerID).
		Return(&user.User{ID: providerID, Role: auth.RoleProvider}, nil)
}

func TestCreate_HoldsTokens(t *testing.T) {
	f := newFixture()
	f.withParties(true)

	created := &Booking{ID: 7, SeekerID: seekerID, ProviderID: providerID, Status: StatusPending, TokenAmount: 500}
	f.repo.On("Create", mock.Anything, mock.Anything, mock.MatchedBy(func(b *Booking) bool {
		return b.SeekerID == seekerID && b.TokenAmount == 500 && b.ServiceType == "consultation"
	})).Return(created, nil)
	f.ledger.On("Hold", mock.Anything, mock.Anything, seekerID, int64(500), 7).Return(nil)

	b, err := f.svc.Create(context.Background(), seeker, validRequest())

	require.NoError(t, err)
	assert.Equal(t, StatusPending, b.Status)
	require.Len(t, f.changes, 1)
	assert.Equal(t, StatusPending, f.changes[0].To)
	assert.Empty(t, f.changes[0].From)
	f.ledger.AssertExpectations(t)
}

func TestCreate_InsufficientTokens(t *testing.T) {
	f := newFixture()
	f.withParties(true)

	f.repo.On("Create", mock.Anything, mock.Anything, mock.Anything).
		Return(&Booking{ID: 7, SeekerID: seekerID, TokenAmount: 500}, nil)
	f.ledger.On("Hold", mock.Anything, mock.Anything, seekerID, int64(500), 7).Return(apperr.ErrInsufficientFunds)

	b, err := f.svc.Create(context.Background(), seeker, validRequest())

	assert.Nil(t, b)
	assert.ErrorIs(t, err, apperr.ErrInsufficientTokens)
	assert.Equal(t, "Insufficient tokens", apperr.From(err).Message)
	assert.Empty(t, f.changes)
}

func TestCreate_Rejections(t *testing.T) {
	tests := []struct {
		name   string
		actor  auth.Actor
		verify bool
		mutate func(*CreateRequest)
		want   error
	}{
		{"age not verified", seeker, false, nil, apperr.ErrAgeNotVerified},
		{"provider cannot book", provider, true, nil, apperr.ErrAccessDenied},
		{"book yourself", seeker, true, func(r *CreateRequest) { r.ProviderID = seekerID }, apperr.ErrValidation},
		{"past schedule", seeker, true, func(r *CreateRequest) { r.ScheduledAt = fixedNow.Add(-time.Minute) }, apperr.ErrValidation},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture()
			f.withParties(tt.verify)
			req := validRequest()
			if tt.mutate != nil {
				tt.mutate(&req)
			}

			_, err := f.svc.Create(context.Background(), tt.actor, req)

			assert.ErrorIs(t, err, tt.want)
			f.repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything, mock.Anything)
			f.ledger.AssertNotCalled(t, "Hold", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestCreate_ProviderMustHaveProviderRole(t *testing.T) {
	f := newFixture()
	f.users.On("FindByID", mock.Anything, seekerID).
		Return(&user.User{ID: seekerID, Role: auth.RoleSeeker, AgeVerified: true}, nil)
	f.users.On("FindByID", mock.Anything, providerID).
		Return(&user.User{ID: providerID, Role: auth.RoleSeeker}, nil)

	_, err := f.svc.Create(context.Background(), seeker, validRequest())

	require.ErrorIs(t, err, apperr.ErrValidation)
	assert.Contains(t, apperr.From(err).Details, "providerId")
}

func TestUpdateStatus_HappyPathLedgerEffects(t *testing.T) {
	steps := []struct {
		from, to Status
		actor    auth.Actor
		ledger   func(*MockLedger)
	}{
		{StatusPending, StatusConfirmed, provider, nil},
		{StatusConfirmed, StatusInProgress, provider, nil},
		{StatusInProgress, StatusCompleted, provider, func(l *MockLedger) {
			l.On("Release", mock.Anything, mock.Anything, seekerID, providerID, int64(500), 1).Return(nil).Once()
		}},
	}

	for _, step := range steps {
		t.Run(string(step.to), func(t *testing.T) {
			f := newFixture()
			f.repo.On("GetForUpdate", mock.Anything, mock.Anything, 1).Return(bookingIn(step.from), nil)
			f.repo.On("UpdateStatus", mock.Anything, mock.Anything, 1, step.from, step.to).Return(bookingIn(step.to), nil)
			if step.ledger != nil {
				step.ledger(f.ledger)
			}

			b, err := f.svc.UpdateStatus(context.Background(), step.actor, 1, step.to)

			require.NoError(t, err)
			assert.Equal(t, step.to, b.Status)
			require.Len(t, f.changes, 1)
			assert.Equal(t, step.from, f.changes[0].From)
			f.ledger.AssertExpectations(t)
			if step.ledger == nil {
				f.ledger.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
			}
		})
	}
}

func TestUpdateStatus_CancelRefunds(t *testing.T) {
	f := newFixture()
	f.repo.On("GetForUpdate", mock.Anything, mock.Anything, 1).Return(bookingIn(StatusConfirmed), nil)
	f.ledger.On("Refund", mock.Anything, mock.Anything, seekerID, int64(500), 1).Return(nil).Once()
	f.repo.On("UpdateStatus", mock.Anything, mock.Anything, 1, StatusConfirmed, StatusCancelled).Return(bookingIn(StatusCancelled), nil)

	b, err := f.svc.UpdateStatus(context.Background(), seeker, 1, StatusCancelled)

	require.NoError(t, err)
	assert.Equal(t, StatusCancelled, b.Status)
	f.ledger.AssertExpectations(t)
}

func TestUpdateStatus_SameStatusIsNoop(t *testing.T) {
	f := newFixture()
	f.repo.On("GetForUpdate", mock.Anything, mock.Anything, 1).Return(bookingIn(StatusCompleted), nil)

	b, err := f.svc.UpdateStatus(context.Background(), provider, 1, StatusCompleted)

	require.NoError(t, err)
	assert.Equal(t, StatusCompleted, b.Status)
	assert.Empty(t, f.changes)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	f.ledger.AssertNotCalled(t, "Release", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
}

func TestUpdateStatus_LedgerFailureLeavesStatus(t *testing.T) {
	f := newFixture()
	f.repo.On("GetForUpdate", mock.Anything, mock.Anything, 1).Return(bookingIn(StatusInProgress), nil)
	f.ledger.On("Release", mock.Anything, mock.Anything, seekerID, providerID, int64(500), 1).Return(apperr.ErrEscrowMismatch)

	_, err := f.svc.UpdateStatus(context.Background(), provider, 1, StatusCompleted)

	assert.ErrorIs(t, err, apperr.ErrEscrowMismatch)
	f.repo.AssertNotCalled(t, "UpdateStatus", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	assert.Empty(t, f.changes)
}

func TestUpdateStatus_LostRace(t *testing.T) {
	f := newFixture()
	f.repo.On("GetForUpdate", mock.Anything, mock.Anything, 1).Return(bookingIn(StatusInProgress), nil)
	f.ledger.On("Release", mock.Anything, mock.Anything, seekerID, providerID, int64(500), 1).Return(nil)
	f.repo.On("UpdateStatus", mock.Anything, mock.Anything, 1, StatusInProgress, StatusCompleted).Return(nil, apperr.ErrConcurrentUpdate)

	_, err := f.svc.UpdateStatus(context.Background(), provider, 1, StatusCompleted)

	assert.ErrorIs(t, err, apperr.ErrConcurrentUpdate)
	assert.Empty(t, f.changes)
}

func TestUpdateStatus_DisputedOnlyThroughDisputeFiling(t *testing.T) {
	f := newFixture()
	f.repo.On("GetForUpdate", mock.Anything, mock.Anything, 1).Return(bookingIn(StatusConfirmed), nil)

	_, err := f.svc.UpdateStatus(context.Background(), seeker, 1, StatusDisputed)

	assert.ErrorIs(t, err, apperr.ErrInvalidTransition)
}

func TestGet_AccessControl(t *testing.T) {
	f := newFixture()
	f.repo.On("GetByID", mock.Anything, 1).Return(bookingIn(StatusPending), nil)

	_, err := f.svc.Get(context.Background(), stranger, 1)
	assert.ErrorIs(t, err, apperr.ErrAccessDenied)

	b, err := f.svc.Get(context.Background(), employee, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, b.ID)
}

func TestList_RejectsUnknownStatus(t *testing.T) {
	f := newFixture()

	_, err := f.svc.List(context.Background(), seeker, ListFilter{Status: "NOPE"})
	assert.ErrorIs(t, err, apperr.ErrValidation)

	f.repo.On("ListForUser", mock.Anything, seekerID, ListFilter{Status: StatusPending}).Return([]Booking{*bookingIn(StatusPending)}, nil)
	bookings, err := f.svc.List(context.Background(), seeker, ListFilter{Status: StatusPending})
	require.NoError(t, err)
	assert.Len(t, bookings, 1)
}

func TestCreate_RepositoryError(t *testing.T) {
	f := newFixture()
	f.withParties(true)
	f.repo.On("Create", mock.Anything, mock.Anything, mock.Anything).Return(nil, errors.New("insert booking: boom"))

	_, err := f.svc.Create(context.Background(), seeker, validRequest())
	assert.EqualError(t, err, "insert booking: boom")
}
