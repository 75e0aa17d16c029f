package chat

import (
	"context"
	"fmt"
	"strings"

	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
	"tokenbook/internal/booking"
	"tokenbook/internal/events"
	"tokenbook/internal/logger"
	"tokenbook/internal/metrics"
	"tokenbook/internal/moderation"
	"tokenbook/internal/realtime"
)

// Broadcaster is the part of the realtime hub chat pushes through.
type Broadcaster interface {
	BroadcastToRoom(room, eventType string, data interface{})
	SendToUser(userID int, eventType string, data interface{})
	JoinUser(userID int, room string)
}

type BookingLookup interface {
	GetByID(ctx context.Context, id int) (*booking.Booking, error)
	OpenIDsForUser(ctx context.Context, userID int) ([]int, error)
}

type MonitorLookup interface {
	MonitorFor(ctx context.Context, bookingID int) (int, bool, error)
}

type Service interface {
	Send(ctx context.Context, actor auth.Actor, bookingID int, out Outgoing) (*Message, error)
	History(ctx context.Context, actor auth.Actor, bookingID, beforeID, limit int) ([]Message, error)
	SetFlag(ctx context.Context, id int, flagged bool, reason string) (*Message, error)
	RoomsFor(ctx context.Context, actor auth.Actor, requested []int) ([]string, error)
	OnBookingStatus(ctx context.Context, change booking.Change)
}

type service struct {
	repo      Repository
	bookings  BookingLookup
	filter    *moderation.Filter
	hub       Broadcaster
	monitors  MonitorLookup
	publisher events.Publisher
}

func NewService(repo Repository, bookings BookingLookup, filter *moderation.Filter, hub Broadcaster, monitors MonitorLookup, publisher events.Publisher) Service {
	return &service{
		repo:      repo,
		bookings:  bookings,
		filter:    filter,
		hub:       hub,
		monitors:  monitors,
		publisher: publisher,
	}
}

// Send runs the gate, classifies the content and stores the message. Flagged
// messages are delivered like any other; moderation only annotates them.
func (s *service) Send(ctx context.Context, actor auth.Actor, bookingID int, out Outgoing) (*Message, error) {
	content := strings.TrimSpace(out.Content)
	if content == "" {
		return nil, apperr.Validation(map[string]string{"content": "content is required"})
	}
	if len([]rune(content)) > MaxContentLength {
		return nil, apperr.Validation(map[string]string{"content": fmt.Sprintf("content must be at most %d characters", MaxContentLength)})
	}

	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if err := CanSend(b, actor); err != nil {
		return nil, err
	}

	result := s.filter.Check(content)
	msg := &Message{
		BookingID:  bookingID,
		SenderID:   actor.UserID,
		Content:    content,
		IsFlagged:  result.Flagged,
		TemplateID: out.TemplateID,
	}
	if out.MediaURL != "" {
		media := out.MediaURL
		msg.MediaURL = &media
	}
	if result.Flagged {
		reason := result.Reason
		msg.FlaggedReason = &reason
	}

	created, err := s.repo.CreateWhileOpen(ctx, msg, openStatuses)
	if err != nil {
		return nil, err
	}

	source := "user"
	if out.TemplateID != nil {
		source = "template"
	}
	metrics.RecordMessage(source, created.IsFlagged)

	s.hub.BroadcastToRoom(realtime.BookingRoom(bookingID), realtime.EventNewMessage, created)
	if created.IsFlagged {
		s.alert(ctx, created, result)
	}
	return created, nil
}

func (s *service) alert(ctx context.Context, m *Message, result moderation.Result) {
	notice := FlagNotice{
		MessageID: m.ID,
		BookingID: m.BookingID,
		SenderID:  m.SenderID,
		Flagged:   true,
		Reason:    result.Reason,
	}

	logger.Warn("chat message flagged",
		"message_id", m.ID,
		"booking_id", m.BookingID,
		"sender_id", m.SenderID,
		"category", string(result.Category),
		"vocabulary", s.filter.Version(),
	)

	s.hub.BroadcastToRoom(realtime.BookingRoom(m.BookingID), realtime.EventMessageFlagged, notice)

	monitorID, ok, err := s.monitors.MonitorFor(ctx, m.BookingID)
	switch {
	case err != nil:
		logger.WithError(err).Warn("look up booking monitor", "booking_id", m.BookingID)
		s.hub.BroadcastToRoom(realtime.StaffRoom, realtime.EventFlaggedMessage, m)
	case ok:
		s.hub.SendToUser(monitorID, realtime.EventFlaggedMessage, m)
	default:
		s.hub.BroadcastToRoom(realtime.StaffRoom, realtime.EventFlaggedMessage, m)
	}

	s.publisher.Publish(ctx, events.MessageFlagged, map[string]interface{}{
		"messageId":    m.ID,
		"bookingId":    m.BookingID,
		"senderId":     m.SenderID,
		"category":     result.Category,
		"matchedTerms": result.MatchedTerms,
		"vocabulary":   s.filter.Version(),
	})
}

// History is available to parties and staff in every booking state.
func (s *service) History(ctx context.Context, actor auth.Actor, bookingID, beforeID, limit int) ([]Message, error) {
	b, err := s.bookings.GetByID(ctx, bookingID)
	if err != nil {
		return nil, err
	}
	if !CanRead(b, actor) {
		return nil, apperr.ErrAccessDenied
	}
	return s.repo.List(ctx, bookingID, beforeID, limit)
}

func (s *service) SetFlag(ctx context.Context, id int, flagged bool, reason string) (*Message, error) {
	var r *string
	switch {
	case !flagged:
		reason = ""
	case reason == "":
		reason = "flagged by moderator"
		r = &reason
	default:
		r = &reason
	}

	m, err := s.repo.SetFlag(ctx, id, flagged, r)
	if err != nil {
		return nil, err
	}

	logger.Info("chat message flag updated", "message_id", id, "flagged", flagged)
	s.hub.BroadcastToRoom(realtime.BookingRoom(m.BookingID), realtime.EventMessageFlagged, FlagNotice{
		MessageID: m.ID,
		BookingID: m.BookingID,
		SenderID:  m.SenderID,
		Flagged:   flagged,
		Reason:    reason,
	})
	return m, nil
}

// RoomsFor lists the rooms a WebSocket connection joins. Parties get their
// open bookings; staff also get the staff room and any booking they ask for.
func (s *service) RoomsFor(ctx context.Context, actor auth.Actor, requested []int) ([]string, error) {
	ids, err := s.bookings.OpenIDsForUser(ctx, actor.UserID)
	if err != nil {
		return nil, err
	}

	rooms := make([]string, 0, len(ids)+len(requested)+1)
	for _, id := range ids {
		rooms = append(rooms, realtime.BookingRoom(id))
	}

	if actor.Role.IsStaff() {
		rooms = append(rooms, realtime.StaffRoom)
		for _, id := range requested {
			rooms = append(rooms, realtime.BookingRoom(id))
		}
	}
	return rooms, nil
}

// OnBookingStatus posts a system message into the booking chat and pushes
// the new status to the room. New bookings also pull both parties' live
// connections into the room.
func (s *service) OnBookingStatus(ctx context.Context, change booking.Change) {
	b := change.Booking
	room := realtime.BookingRoom(b.ID)

	if change.From == "" {
		s.hub.JoinUser(b.SeekerID, room)
		s.hub.JoinUser(b.ProviderID, room)
	}

	payload := map[string]interface{}{
		"bookingId": b.ID,
		"from":      change.From,
		"status":    change.To,
		"changedBy": change.Actor.UserID,
	}
	s.hub.BroadcastToRoom(room, realtime.EventBookingStatus, payload)

	msg, err := s.repo.Create(ctx, &Message{
		BookingID:       b.ID,
		SenderID:        change.Actor.UserID,
		Content:         systemText(change),
		IsSystemMessage: true,
	})
	if err != nil {
		logger.WithError(err).Error("post booking status message", "booking_id", b.ID, "status", string(change.To))
		return
	}
	metrics.RecordMessage("system", false)
	s.hub.BroadcastToRoom(room, realtime.EventNewMessage, msg)
}

func systemText(change booking.Change) string {
	switch change.To {
	case booking.StatusPending:
		return fmt.Sprintf("Booking requested: %d tokens held in escrow.", change.Booking.TokenAmount)
	case booking.StatusConfirmed:
		return "Booking confirmed by the provider."
	case booking.StatusInProgress:
		return "Session started."
	case booking.StatusCompleted:
		if change.From == booking.StatusDisputed {
			return "Dispute resolved: tokens released to the provider."
		}
		return "Session completed: tokens released to the provider."
	case booking.StatusCancelled:
		if change.From == booking.StatusDisputed {
			return "Dispute resolved: tokens refunded to the seeker."
		}
		return "Booking cancelled: tokens refunded to the seeker."
	case booking.StatusDisputed:
		return "A dispute was filed. Messaging is paused until it is resolved."
	default:
		return "Booking status changed to " + string(change.To) + "."
	}
}
