package templates

import (
	"time"

	"github.com/lib/pq"
)

type Template struct {
	ID           int            `db:"id" json:"id"`
	Category     string         `db:"category" json:"category"`
	TemplateText string         `db:"template_text" json:"templateText"`
	Variables    pq.StringArray `db:"variables" json:"variables"`
	IsActive     bool           `db:"is_active" json:"isActive"`
	UsageCount   int            `db:"usage_count" json:"usageCount"`
	CreatedAt    time.Time      `db:"created_at" json:"createdAt"`
	UpdatedAt    time.Time      `db:"updated_at" json:"updatedAt"`
}

type CreateRequest struct {
	Category     string `json:"category" validate:"required,max=50"`
	TemplateText string `json:"templateText" validate:"required,max=2000"`
	IsActive     *bool  `json:"isActive"`
}

type UpdateRequest struct {
	Category     string `json:"category" validate:"omitempty,max=50"`
	TemplateText string `json:"templateText" validate:"omitempty,max=2000"`
	IsActive     *bool  `json:"isActive"`
}

type SendRequest struct {
	BookingID  int               `json:"bookingId" validate:"required,gt=0"`
	TemplateID int               `json:"templateId" validate:"required,gt=0"`
	Variables  map[string]string `json:"variables"`
}

type TemplateResponse struct {
	Success  bool      `json:"success"`
	Template *Template `json:"template"`
}

type TemplatesResponse struct {
	Success   bool       `json:"success"`
	Templates []Template `json:"templates"`
}
