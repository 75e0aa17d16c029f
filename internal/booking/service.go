package booking

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
	"tokenbook/internal/db"
	"tokenbook/internal/logger"
	"tokenbook/internal/metrics"
	"tokenbook/internal/user"
	"tokenbook/internal/wallet"
)

// StatusListener is called after a transition has committed. Listeners must
// not block; failures are theirs to log.
type StatusListener func(ctx context.Context, change Change)

// UserLookup is the slice of the user repository bookings depend on.
type UserLookup interface {
	FindByID(ctx context.Context, id int) (*user.User, error)
}

type Service interface {
	Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Booking, error)
	Get(ctx context.Context, actor auth.Actor, id int) (*Booking, error)
	List(ctx context.Context, actor auth.Actor, f ListFilter) ([]Booking, error)
	ListAll(ctx context.Context, f ListFilter) ([]Booking, error)
	UpdateStatus(ctx context.Context, actor auth.Actor, id int, to Status) (*Booking, error)

	// TransitionTx runs one transition on an open transaction. The returned
	// change is nil for a no-op; callers pass it to Notify after commit.
	TransitionTx(ctx context.Context, q db.Queryer, actor auth.Actor, id int, to Status, ch Channel) (*Booking, *Change, error)
	Notify(ctx context.Context, change Change)
	Subscribe(l StatusListener)
}

type service struct {
	repo   Repository
	users  UserLookup
	ledger wallet.Ledger
	tx     db.Transactor
	now    func() time.Time

	mu        sync.RWMutex
	listeners []StatusListener
}

func NewService(repo Repository, users UserLookup, ledger wallet.Ledger, tx db.Transactor) Service {
	return &service{
		repo:   repo,
		users:  users,
		ledger: ledger,
		tx:     tx,
		now:    time.Now,
	}
}

func (s *service) Subscribe(l StatusListener) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.listeners = append(s.listeners, l)
}

// Create opens a PENDING booking and holds its tokens in escrow. The insert
// and the hold share one transaction, so a failed hold leaves no booking.
func (s *service) Create(ctx context.Context, actor auth.Actor, req CreateRequest) (*Booking, error) {
	if actor.Role != auth.RoleSeeker {
		return nil, apperr.ErrAccessDenied.WithMessage("only seekers can create bookings")
	}

	seeker, err := s.users.FindByID(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}
	if !seeker.AgeVerified {
		return nil, apperr.ErrAgeNotVerified
	}

	if req.ProviderID == actor.UserID {
		return nil, apperr.Validation(map[string]string{"providerId": "cannot book yourself"})
	}
	provider, err := s.users.FindByID(ctx, req.ProviderID)
	if errors.Is(err, apperr.ErrNotFound) {
		return nil, apperr.NotFound("provider")
	}
	if err != nil {
		return nil, err
	}
	if provider.Role != auth.RoleProvider {
		return nil, apperr.Validation(map[string]string{"providerId": "user is not a provider"})
	}
	if !req.ScheduledAt.After(s.now()) {
		return nil, apperr.Validation(map[string]string{"scheduledAt": "scheduledAt must be in the future"})
	}

	draft := &Booking{
		SeekerID:    actor.UserID,
		ProviderID:  req.ProviderID,
		ServiceType: strings.TrimSpace(req.ServiceType),
		TokenAmount: req.TokenAmount,
		ScheduledAt: req.ScheduledAt.UTC(),
		Duration:    req.Duration,
		Notes:       strings.TrimSpace(req.Notes),
	}

	var created *Booking
	err = s.tx.WithinTx(ctx, func(q db.Queryer) error {
		b, err := s.repo.Create(ctx, q, draft)
		if err != nil {
			return err
		}
		if err := s.ledger.Hold(ctx, q, b.SeekerID, b.TokenAmount, b.ID); err != nil {
			if errors.Is(err, apperr.ErrInsufficientFunds) {
				return apperr.ErrInsufficientTokens
			}
			return err
		}
		created = b
		return nil
	})
	if err != nil {
		return nil, err
	}

	logger.Info("booking created",
		"booking_id", created.ID,
		"seeker_id", created.SeekerID,
		"provider_id", created.ProviderID,
		"token_amount", created.TokenAmount,
	)
	s.Notify(ctx, Change{Booking: *created, To: StatusPending, Actor: actor})
	return created, nil
}

func (s *service) Get(ctx context.Context, actor auth.Actor, id int) (*Booking, error) {
	b, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if !IsParty(b, actor) && !actor.Role.IsStaff() {
		return nil, apperr.ErrAccessDenied
	}
	return b, nil
}

func (s *service) List(ctx context.Context, actor auth.Actor, f ListFilter) ([]Booking, error) {
	if err := checkFilter(f); err != nil {
		return nil, err
	}
	return s.repo.ListForUser(ctx, actor.UserID, f)
}

func (s *service) ListAll(ctx context.Context, f ListFilter) ([]Booking, error) {
	if err := checkFilter(f); err != nil {
		return nil, err
	}
	return s.repo.ListAll(ctx, f)
}

func checkFilter(f ListFilter) error {
	if f.Status != "" && !f.Status.Valid() {
		return apperr.Validation(map[string]string{"status": "unknown status"})
	}
	return nil
}

// UpdateStatus serves the status-update channel. DISPUTED and resolution
// targets are rejected here; they have their own entry points.
func (s *service) UpdateStatus(ctx context.Context, actor auth.Actor, id int, to Status) (*Booking, error) {
	var (
		result *Booking
		change *Change
	)
	err := s.tx.WithinTx(ctx, func(q db.Queryer) error {
		b, c, err := s.TransitionTx(ctx, q, actor, id, to, ChannelStatusUpdate)
		if err != nil {
			return err
		}
		result, change = b, c
		return nil
	})
	if err != nil {
		return nil, err
	}

	if change != nil {
		s.Notify(ctx, *change)
	}
	return result, nil
}

func (s *service) TransitionTx(ctx context.Context, q db.Queryer, actor auth.Actor, id int, to Status, ch Channel) (*Booking, *Change, error) {
	b, err := s.repo.GetForUpdate(ctx, q, id)
	if err != nil {
		return nil, nil, err
	}

	rule, noop, err := Plan(b, to, ch, actor)
	if err != nil {
		return nil, nil, err
	}
	if noop {
		return b, nil, nil
	}

	if err := s.apply(ctx, q, rule.Effect, b); err != nil {
		return nil, nil, err
	}

	updated, err := s.repo.UpdateStatus(ctx, q, b.ID, b.Status, to)
	if err != nil {
		return nil, nil, err
	}

	return updated, &Change{Booking: *updated, From: b.Status, To: to, Actor: actor, Channel: ch}, nil
}

func (s *service) apply(ctx context.Context, q db.Queryer, effect Effect, b *Booking) error {
	switch effect {
	case EffectRelease:
		return s.ledger.Release(ctx, q, b.SeekerID, b.ProviderID, b.TokenAmount, b.ID)
	case EffectRefund:
		return s.ledger.Refund(ctx, q, b.SeekerID, b.TokenAmount, b.ID)
	default:
		return nil
	}
}

func (s *service) Notify(ctx context.Context, change Change) {
	metrics.RecordTransition(string(change.From), string(change.To))
	logger.Info("booking status changed",
		"booking_id", change.Booking.ID,
		"from", change.From,
		"to", change.To,
		"actor_id", change.Actor.UserID,
		"channel", change.Channel,
	)

	s.mu.RLock()
	listeners := append([]StatusListener(nil), s.listeners...)
	s.mu.RUnlock()

	for _, l := range listeners {
		l(ctx, change)
	}
}
