package events

import (
	"context"
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"tokenbook/internal/auth"
	"tokenbook/internal/booking"
)

func TestBookingListener(t *testing.T) {
	ch := &fakeChannel{}
	p, err := NewPublisher(ch)
	require.NoError(t, err)

	listener := BookingListener(p)
	listener(context.Background(), booking.Change{
		Booking: booking.Booking{ID: 7, SeekerID: 10, ProviderID: 20, TokenAmount: 500, Status: booking.StatusCompleted},
		From:    booking.StatusInProgress,
		To:      booking.StatusCompleted,
		Actor:   auth.Actor{UserID: 20, Role: auth.RoleProvider},
		Channel: booking.ChannelStatusUpdate,
	})

	require.Len(t, ch.published, 1)
	assert.Equal(t, "tokenbook.events/booking.status_changed", ch.keys[0])

	var env Envelope
	require.NoError(t, json.Unmarshal(ch.published[0].Body, &env))

	var payload StatusChanged
	require.NoError(t, json.Unmarshal(env.Payload, &payload))
	assert.Equal(t, 7, payload.BookingID)
	assert.Equal(t, booking.StatusInProgress, payload.From)
	assert.Equal(t, booking.StatusCompleted, payload.To)
	assert.Equal(t, "status_update", payload.Channel)
	assert.Equal(t, int64(500), payload.TokenAmount)
}
