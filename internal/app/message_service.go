package app

import (
	"context"
	"slices"
	"strings"
	"time"

	"github.com/sirupsen/logrus"

	"msgboard/internal/model"
)

type MessageRepository interface {
	Create(ctx context.Context, message *model.Message) error
	ListAll(ctx context.Context) ([]model.Message, error)
}

type MessageService struct {
	repo MessageRepository
	log  logrus.FieldLogger
	now  func() time.Time
}

func NewMessageService(repo MessageRepository, log logrus.FieldLogger) *MessageService {
	return &MessageService{
		repo: repo,
		log:  log.WithField("component", "message_service"),
		now:  time.Now,
	}
}

func (s *MessageService) Create(ctx context.Context, message model.Message) (model.Message, error) {
	message.Msg = strings.TrimSpace(message.Msg)
	message.MsgFrom = strings.TrimSpace(message.MsgFrom)
	if message.Msg == "" || message.MsgFrom == "" {
		return model.Message{}, newError(KindInvalidInput, "Invalid message data", nil)
	}
	if message.MsgDateTime.IsZero() {
		message.MsgDateTime = s.now()
	}
	message.MsgDateTime = message.MsgDateTime.UTC().Truncate(time.Millisecond)

	if err := s.repo.Create(ctx, &message); err != nil {
		if unexpected(err) {
			return model.Message{}, err
		}
		s.log.WithError(err).WithField("msg_from", message.MsgFrom).Error("save message failed")
		return model.Message{}, newError(KindStorage, "Error saving message", err)
	}
	return message, nil
}

// ListAll returns every message ordered by ascending timestamp. A failed query
// yields an empty list rather than an error; only a cancelled request is returned.
func (s *MessageService) ListAll(ctx context.Context) ([]model.Message, error) {
	messages, err := s.repo.ListAll(ctx)
	if err != nil {
		if unexpected(err) {
			return nil, err
		}
		s.log.WithError(err).Warn("list messages failed, returning empty list")
		return []model.Message{}, nil
	}
	if messages == nil {
		return []model.Message{}, nil
	}

	slices.SortStableFunc(messages, func(a, b model.Message) int {
		return a.MsgDateTime.Compare(b.MsgDateTime)
	})
	return messages, nil
}
