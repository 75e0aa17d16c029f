package dispute

import (
	"time"

	"github.com/lib/pq"
)

type Type string

const (
	TypeNoShow         Type = "NO_SHOW"
	TypeServiceQuality Type = "SERVICE_QUALITY"
	TypePaymentIssue   Type = "PAYMENT_ISSUE"
	TypeBehaviorIssue  Type = "BEHAVIOR_ISSUE"
	TypeTermsViolation Type = "TERMS_VIOLATION"
	TypeOther          Type = "OTHER"
)

func (t Type) Valid() bool {
	switch t {
	case TypeNoShow, TypeServiceQuality, TypePaymentIssue, TypeBehaviorIssue, TypeTermsViolation, TypeOther:
		return true
	}
	return false
}

type Status string

const (
	StatusOpen        Status = "OPEN"
	StatusUnderReview Status = "UNDER_REVIEW"
	StatusResolved    Status = "RESOLVED"
)

// Outcome decides where the frozen escrow goes. There is no default.
type Outcome string

const (
	OutcomeRelease Outcome = "RELEASE_TO_PROVIDER"
	OutcomeRefund  Outcome = "REFUND_TO_SEEKER"
)

const (
	MinDescriptionLength = 20
	MaxEvidence          = 10
)

type Dispute struct {
	ID              int            `db:"id" json:"id"`
	BookingID       int            `db:"booking_id" json:"bookingId"`
	FiledBy         int            `db:"filed_by" json:"filedBy"`
	DisputeType     Type           `db:"dispute_type" json:"disputeType"`
	Description     string         `db:"description" json:"description"`
	Evidence        pq.StringArray `db:"evidence" json:"evidence"`
	Status          Status         `db:"status" json:"status"`
	Resolution      *Outcome       `db:"resolution" json:"resolution,omitempty"`
	ResolutionNotes *string        `db:"resolution_notes" json:"resolutionNotes,omitempty"`
	ResolvedBy      *int           `db:"resolved_by" json:"resolvedBy,omitempty"`
	ResolvedAt      *time.Time     `db:"resolved_at" json:"resolvedAt,omitempty"`
	CreatedAt       time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt       time.Time      `db:"updated_at" json:"updatedAt"`
}

// FileRequest accepts the dispute type as either reason or disputeType.
type FileRequest struct {
	Reason      string   `json:"reason"`
	DisputeType string   `json:"disputeType"`
	Description string   `json:"description" validate:"required,max=5000"`
	Evidence    []string `json:"evidence" validate:"max=10"`
}

func (r FileRequest) Type() Type {
	if r.Reason != "" {
		return Type(r.Reason)
	}
	return Type(r.DisputeType)
}

type ResolveRequest struct {
	Outcome Outcome `json:"outcome" validate:"required,oneof=RELEASE_TO_PROVIDER REFUND_TO_SEEKER"`
	Notes   string  `json:"notes" validate:"max=2000"`
}

type ListFilter struct {
	Status Status
	Limit  int
	Offset int
}

type DisputeResponse struct {
	Success bool     `json:"success"`
	Dispute *Dispute `json:"dispute"`
}

type DisputesResponse struct {
	Success  bool      `json:"success"`
	Disputes []Dispute `json:"disputes"`
}
