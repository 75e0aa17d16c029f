package booking

import (
	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
)

type Status string

const (
	StatusPending    Status = "PENDING"
	StatusConfirmed  Status = "CONFIRMED"
	StatusInProgress Status = "IN_PROGRESS"
	StatusCompleted  Status = "COMPLETED"
	StatusCancelled  Status = "CANCELLED"
	StatusDisputed   Status = "DISPUTED"
)

var allStatuses = []Status{
	StatusPending, StatusConfirmed, StatusInProgress,
	StatusCompleted, StatusCancelled, StatusDisputed,
}

func (s Status) Valid() bool {
	for _, v := range allStatuses {
		if s == v {
			return true
		}
	}
	return false
}

// Terminal reports whether no further transition can leave s.
func (s Status) Terminal() bool {
	return s == StatusCompleted || s == StatusCancelled
}

// Channel names the entry point a transition must arrive through.
type Channel string

const (
	ChannelStatusUpdate Channel = "status_update"
	ChannelDispute      Channel = "dispute_filing"
	ChannelResolution   Channel = "dispute_resolution"
)

type Party string

const (
	PartySeeker   Party = "seeker"
	PartyProvider Party = "provider"
	PartyEither   Party = "either"
	PartyAdmin    Party = "admin"
)

type Effect string

const (
	EffectNone    Effect = "none"
	EffectRelease Effect = "release"
	EffectRefund  Effect = "refund"
)

type Rule struct {
	From    Status
	To      Status
	Actor   Party
	Channel Channel
	Effect  Effect
}

// Rules is the complete whitelist. A (from, to, channel) triple absent from
// this table is rejected. Booking creation (none -> PENDING with a hold) is
// handled by Service.Create and has no row here.
var Rules = []Rule{
	{StatusPending, StatusConfirmed, PartyProvider, ChannelStatusUpdate, EffectNone},
	{StatusConfirmed, StatusInProgress, PartyProvider, ChannelStatusUpdate, EffectNone},
	{StatusInProgress, StatusCompleted, PartyProvider, ChannelStatusUpdate, EffectRelease},
	{StatusPending, StatusCancelled, PartyEither, ChannelStatusUpdate, EffectRefund},
	{StatusConfirmed, StatusCancelled, PartyEither, ChannelStatusUpdate, EffectRefund},

	{StatusPending, StatusDisputed, PartyEither, ChannelDispute, EffectNone},
	{StatusConfirmed, StatusDisputed, PartyEither, ChannelDispute, EffectNone},
	{StatusInProgress, StatusDisputed, PartyEither, ChannelDispute, EffectNone},

	{StatusDisputed, StatusCompleted, PartyAdmin, ChannelResolution, EffectRelease},
	{StatusDisputed, StatusCancelled, PartyAdmin, ChannelResolution, EffectRefund},
}

func Lookup(from, to Status, ch Channel) (Rule, bool) {
	for _, r := range Rules {
		if r.From == from && r.To == to && r.Channel == ch {
			return r, true
		}
	}
	return Rule{}, false
}

// IsParty reports whether the actor is the booking's seeker or provider.
func IsParty(b *Booking, actor auth.Actor) bool {
	return actor.UserID == b.SeekerID || actor.UserID == b.ProviderID
}

// Plan decides what a transition request means for booking b. It returns
// noop=true when b is already in the requested status; otherwise the matching
// rule, or the error the request must fail with. Plan never touches storage.
func Plan(b *Booking, to Status, ch Channel, actor auth.Actor) (rule Rule, noop bool, err error) {
	admin := actor.Role.IsAdmin()
	if !admin && !IsParty(b, actor) {
		return Rule{}, false, apperr.ErrAccessDenied
	}
	if !to.Valid() {
		return Rule{}, false, apperr.ErrInvalidTransition.WithMessage("unknown status %q", to)
	}
	if b.Status == to {
		return Rule{}, true, nil
	}

	rule, ok := Lookup(b.Status, to, ch)
	if !ok {
		return Rule{}, false, apperr.ErrInvalidTransition.
			WithMessage("cannot move booking from %s to %s", b.Status, to).
			WithDetail("from", string(b.Status)).
			WithDetail("to", string(to))
	}

	if !allowed(rule.Actor, b, actor) {
		return Rule{}, false, apperr.ErrAccessDenied.
			WithMessage("only the %s may move a booking from %s to %s", rule.Actor, rule.From, rule.To)
	}
	return rule, false, nil
}

func allowed(p Party, b *Booking, actor auth.Actor) bool {
	if actor.Role.IsAdmin() {
		return true
	}
	switch p {
	case PartySeeker:
		return actor.UserID == b.SeekerID
	case PartyProvider:
		return actor.UserID == b.ProviderID
	case PartyEither:
		return IsParty(b, actor)
	default:
		return false
	}
}
