package chat

import "time"

const MaxContentLength = 2000

type Message struct {
	ID              int       `db:"id" json:"id"`
	BookingID       int       `db:"booking_id" json:"bookingId"`
	SenderID        int       `db:"sender_id" json:"senderId"`
	Content         string    `db:"content" json:"content"`
	MediaURL        *string   `db:"media_url" json:"mediaUrl,omitempty"`
	IsSystemMessage bool      `db:"is_system_message" json:"isSystemMessage"`
	IsFlagged       bool      `db:"is_flagged" json:"isFlagged"`
	FlaggedReason   *string   `db:"flagged_reason" json:"flaggedReason,omitempty"`
	TemplateID      *int      `db:"template_id" json:"templateId,omitempty"`
	CreatedAt       time.Time `db:"created_at" json:"createdAt"`
}

// Outgoing is a message about to pass the gate. TemplateID is set when the
// content was rendered from a chat template.
type Outgoing struct {
	Content    string
	MediaURL   string
	TemplateID *int
}

type SendRequest struct {
	Content  string `json:"content" validate:"required,max=2000"`
	MediaURL string `json:"mediaUrl" validate:"omitempty,http_url,max=500"`
}

type FlagRequest struct {
	Flagged *bool  `json:"flagged" validate:"required"`
	Reason  string `json:"reason" validate:"max=500"`
}

type MessageResponse struct {
	Success bool     `json:"success"`
	Message *Message `json:"message"`
}

type MessagesResponse struct {
	Success  bool      `json:"success"`
	Messages []Message `json:"messages"`
}

// FlagNotice is the payload of message_flagged and flagged_message events.
type FlagNotice struct {
	MessageID int    `json:"messageId"`
	BookingID int    `json:"bookingId"`
	SenderID  int    `json:"senderId"`
	Flagged   bool   `json:"flagged"`
	Reason    string `json:"reason,omitempty"`
}
