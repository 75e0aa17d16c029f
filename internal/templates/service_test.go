package templates

import (
	"context"
	"errors"
	"testing"

	"github.com/lib/pq"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"tokenbook/internal/apperr"
	"tokenbook/internal/auth"
	"tokenbook/internal/chat"
)

var seeker = auth.Actor{UserID: 10, Role: auth.RoleSeeker}

type MockRepository struct{ mock.Mock }

func (m *MockRepository) Create(ctx context.Context, t *Template) (*Template, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Template), args.Error(1)
}

func (m *MockRepository) Update(ctx context.Context, t *Template) (*Template, error) {
	args := m.Called(ctx, t)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Template), args.Error(1)
}

func (m *MockRepository) Delete(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

func (m *MockRepository) GetByID(ctx context.Context, id int) (*Template, error) {
	args := m.Called(ctx, id)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*Template), args.Error(1)
}

func (m *MockRepository) List(ctx context.Context, category string, activeOnly bool) ([]Template, error) {
	args := m.Called(ctx, category, activeOnly)
	return args.Get(0).([]Template), args.Error(1)
}

func (m *MockRepository) IncrementUsage(ctx context.Context, id int) error {
	return m.Called(ctx, id).Error(0)
}

type MockSender struct{ mock.Mock }

func (m *MockSender) Send(ctx context.Context, actor auth.Actor, bookingID int, out chat.Outgoing) (*chat.Message, error) {
	args := m.Called(ctx, actor, bookingID, out)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*chat.Message), args.Error(1)
}

func confirmTemplate(active bool) *Template {
	return &Template{
		ID:           4,
		Category:     "scheduling",
		TemplateText: confirmText,
		Variables:    pq.StringArray{"time", "date"},
		IsActive:     active,
	}
}

func TestSend_RendersThroughChat(t *testing.T) {
	repo, sender := new(MockRepository), new(MockSender)
	svc := NewService(repo, sender)
	ctx := context.Background()
	templateID := 4

	repo.On("GetByID", ctx, 4).Return(confirmTemplate(true), nil)
	sender.On("Send", ctx, seeker, 7, chat.Outgoing{
		Content:    "Can we confirm the appointment for 3 PM on Friday?",
		TemplateID: &templateID,
	}).Return(&chat.Message{ID: 50, BookingID: 7, TemplateID: &templateID}, nil)
	repo.On("IncrementUsage", ctx, 4).Return(nil)

	msg, err := svc.Send(ctx, seeker, SendRequest{
		BookingID:  7,
		TemplateID: 4,
		Variables:  map[string]string{"time": "3 PM", "date": "Friday"},
	})

	require.NoError(t, err)
	assert.Equal(t, 50, msg.ID)
	sender.AssertExpectations(t)
	repo.AssertExpectations(t)
}

func TestSend_UsageFailureIsNotFatal(t *testing.T) {
	repo, sender := new(MockRepository), new(MockSender)
	svc := NewService(repo, sender)

	repo.On("GetByID", mock.Anything, 4).Return(confirmTemplate(true), nil)
	sender.On("Send", mock.Anything, seeker, 7, mock.Anything).Return(&chat.Message{ID: 51}, nil)
	repo.On("IncrementUsage", mock.Anything, 4).Return(errors.New("db down"))

	msg, err := svc.Send(context.Background(), seeker, SendRequest{
		BookingID: 7, TemplateID: 4, Variables: map[string]string{"time": "9", "date": "Mon"},
	})

	require.NoError(t, err)
	assert.Equal(t, 51, msg.ID)
}

func TestSend_Rejections(t *testing.T) {
	t.Run("missing variables never reach chat", func(t *testing.T) {
		repo, sender := new(MockRepository), new(MockSender)
		repo.On("GetByID", mock.Anything, 4).Return(confirmTemplate(true), nil)

		_, err := NewService(repo, sender).Send(context.Background(), seeker, SendRequest{
			BookingID: 7, TemplateID: 4, Variables: map[string]string{"time": "3 PM"},
		})

		assert.ErrorIs(t, err, apperr.ErrMissingVariables)
		sender.AssertNotCalled(t, "Send", mock.Anything, mock.Anything, mock.Anything, mock.Anything)
	})

	t.Run("inactive template", func(t *testing.T) {
		repo, sender := new(MockRepository), new(MockSender)
		repo.On("GetByID", mock.Anything, 4).Return(confirmTemplate(false), nil)

		_, err := NewService(repo, sender).Send(context.Background(), seeker, SendRequest{BookingID: 7, TemplateID: 4})

		assert.ErrorIs(t, err, apperr.ErrNotFound)
	})

	t.Run("chat gate refuses", func(t *testing.T) {
		repo, sender := new(MockRepository), new(MockSender)
		repo.On("GetByID", mock.Anything, 4).Return(confirmTemplate(true), nil)
		sender.On("Send", mock.Anything, seeker, 7, mock.Anything).Return(nil, apperr.ErrMessagingClosed)

		_, err := NewService(repo, sender).Send(context.Background(), seeker, SendRequest{
			BookingID: 7, TemplateID: 4, Variables: map[string]string{"time": "3 PM", "date": "Friday"},
		})

		assert.ErrorIs(t, err, apperr.ErrMessagingClosed)
		repo.AssertNotCalled(t, "IncrementUsage", mock.Anything, mock.Anything)
	})
}

func TestCreate_ExtractsVariables(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockSender))
	inactive := false

	repo.On("Create", mock.Anything, &Template{
		Category:     "scheduling",
		TemplateText: confirmText,
		Variables:    pq.StringArray{"time", "date"},
		IsActive:     false,
	}).Return(&Template{ID: 9}, nil)

	created, err := svc.Create(context.Background(), CreateRequest{
		Category:     " scheduling ",
		TemplateText: confirmText + "\n",
		IsActive:     &inactive,
	})

	require.NoError(t, err)
	assert.Equal(t, 9, created.ID)
	repo.AssertExpectations(t)
}

func TestCreate_RejectsMalformedPlaceholder(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockSender))

	_, err := svc.Create(context.Background(), CreateRequest{
		Category:     "scheduling",
		TemplateText: "Use code {{ then meet at {{time}}",
	})

	assert.ErrorIs(t, err, apperr.ErrValidation)
	repo.AssertNotCalled(t, "Create", mock.Anything, mock.Anything)
}

func TestUpdate_RejectsMalformedPlaceholder(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockSender))
	repo.On("GetByID", mock.Anything, 4).Return(confirmTemplate(true), nil)

	_, err := svc.Update(context.Background(), 4, UpdateRequest{TemplateText: "See you at {{place"})

	assert.ErrorIs(t, err, apperr.ErrValidation)
	repo.AssertNotCalled(t, "Update", mock.Anything, mock.Anything)
}

func TestUpdate_ReextractsOnTextChange(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockSender))

	repo.On("GetByID", mock.Anything, 4).Return(confirmTemplate(true), nil)
	repo.On("Update", mock.Anything, mock.MatchedBy(func(tpl *Template) bool {
		return tpl.TemplateText == "See you at {{place}}" &&
			assert.ObjectsAreEqual(pq.StringArray{"place"}, tpl.Variables) &&
			tpl.Category == "scheduling" && tpl.IsActive
	})).Return(&Template{ID: 4}, nil)

	_, err := svc.Update(context.Background(), 4, UpdateRequest{TemplateText: "See you at {{place}}"})

	require.NoError(t, err)
	repo.AssertExpectations(t)
}

func TestList_ActiveOnly(t *testing.T) {
	repo := new(MockRepository)
	svc := NewService(repo, new(MockSender))
	repo.On("List", mock.Anything, "scheduling", true).Return([]Template{*confirmTemplate(true)}, nil)
	repo.On("List", mock.Anything, "", false).Return([]Template{}, nil)

	list, err := svc.List(context.Background(), "scheduling")
	require.NoError(t, err)
	assert.Len(t, list, 1)

	_, err = svc.ListAll(context.Background(), "")
	require.NoError(t, err)
	repo.AssertExpectations(t)
}
