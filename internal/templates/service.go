// Package templates manages the catalog of pre-approved chat messages and
// sends rendered templates through the regular chat path.
package templates

import (
	"context"
	"strings"

	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
	"tokenbook/internal/chat"
	"tokenbook/internal/logger"
	"tokenbook/internal/metrics"
)

// Sender is the chat entry point rendered templates go through.
type Sender interface {
	Send(ctx context.Context, actor auth.Actor, bookingID int, out chat.Outgoing) (*chat.Message, error)
}

type Service interface {
	List(ctx context.Context, category string) ([]Template, error)
	ListAll(ctx context.Context, category string) ([]Template, error)
	Create(ctx context.Context, req CreateRequest) (*Template, error)
	Update(ctx context.Context, id int, req UpdateRequest) (*Template, error)
	Delete(ctx context.Context, id int) error
	Send(ctx context.Context, actor auth.Actor, req SendRequest) (*chat.Message, error)
}

type service struct {
	repo Repository
	chat Sender
}

func NewService(repo Repository, sender Sender) Service {
	return &service{repo: repo, chat: sender}
}

func (s *service) List(ctx context.Context, category string) ([]Template, error) {
	return s.repo.List(ctx, category, true)
}

func (s *service) ListAll(ctx context.Context, category string) ([]Template, error) {
	return s.repo.List(ctx, category, false)
}

func (s *service) Create(ctx context.Context, req CreateRequest) (*Template, error) {
	text := strings.TrimSpace(req.TemplateText)
	if text == "" {
		return nil, apperr.Validation(map[string]string{"templateText": "templateText is required"})
	}

	vars, err := ExtractVariables(text)
	if err != nil {
		return nil, err
	}

	t := &Template{
		Category:     strings.TrimSpace(req.Category),
		TemplateText: text,
		Variables:    vars,
		IsActive:     true,
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	created, err := s.repo.Create(ctx, t)
	if err != nil {
		return nil, err
	}
	logger.Info("chat template created", "template_id", created.ID, "category", created.Category)
	return created, nil
}

// Update applies the non-empty fields and re-extracts variables whenever the
// text changes.
func (s *service) Update(ctx context.Context, id int, req UpdateRequest) (*Template, error) {
	t, err := s.repo.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if c := strings.TrimSpace(req.Category); c != "" {
		t.Category = c
	}
	if text := strings.TrimSpace(req.TemplateText); text != "" {
		vars, err := ExtractVariables(text)
		if err != nil {
			return nil, err
		}
		t.TemplateText = text
		t.Variables = vars
	}
	if req.IsActive != nil {
		t.IsActive = *req.IsActive
	}

	return s.repo.Update(ctx, t)
}

func (s *service) Delete(ctx context.Context, id int) error {
	if err := s.repo.Delete(ctx, id); err != nil {
		return err
	}
	logger.Info("chat template deleted", "template_id", id)
	return nil
}

// Send renders the template and posts it as a chat message. Templates get no
// moderation exemption. The usage counter is best effort.
func (s *service) Send(ctx context.Context, actor auth.Actor, req SendRequest) (*chat.Message, error) {
	t, err := s.repo.GetByID(ctx, req.TemplateID)
	if err != nil {
		return nil, err
	}
	if !t.IsActive {
		return nil, apperr.NotFound("template")
	}

	text, err := Render(t.TemplateText, req.Variables)
	if err != nil {
		return nil, err
	}

	templateID := t.ID
	msg, err := s.chat.Send(ctx, actor, req.BookingID, chat.Outgoing{Content: text, TemplateID: &templateID})
	if err != nil {
		return nil, err
	}

	metrics.RecordTemplateSend(t.Category)
	if err := s.repo.IncrementUsage(ctx, t.ID); err != nil {
		logger.WithError(err).Warn("increment template usage", "template_id", t.ID)
	}
	return msg, nil
}
