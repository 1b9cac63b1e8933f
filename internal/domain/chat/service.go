package chat

import (
	"context"
	"fmt"
	"strings"

	"go.uber.org/zap"
)

// chatStore is the slice of Repo the service needs.
type chatStore interface {
	OpenChat(ctx context.Context, a, b string) (*Chat, error)
	GetChat(ctx context.Context, chatID string) (*Chat, error)
	ListChats(ctx context.Context, uid string) ([]Chat, error)
	SendMessage(ctx context.Context, chatID, senderID, content string) (*Message, error)
	ListMessages(ctx context.Context, chatID string, limit int) ([]Message, error)
	MarkRead(ctx context.Context, chatID, uid string) (int, error)
}

// messageNotifier is satisfied by *Notifier.
type messageNotifier interface {
	NotifyNewMessage(ctx context.Context, recipientUIDs []string, m Message)
}

type Service struct {
	store    chatStore
	notifier messageNotifier
	log      *zap.Logger
}

func NewService(store chatStore, log *zap.Logger) *Service {
	return &Service{store: store, log: log}
}

// SetNotifier enables push notifications on new messages.
func (s *Service) SetNotifier(n messageNotifier) {
	s.notifier = n
}

// Open returns the chat between uid and other, creating it when absent.
func (s *Service) Open(ctx context.Context, uid, other string) (*Chat, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	other = strings.TrimSpace(other)
	if other == "" {
		return nil, fmt.Errorf("%w: participant is required", ErrBadRequest)
	}
	if other == uid {
		return nil, fmt.Errorf("%w: cannot open a chat with yourself", ErrBadRequest)
	}
	return s.store.OpenChat(ctx, uid, other)
}

// List lists the chats uid participates in.
func (s *Service) List(ctx context.Context, uid string) ([]Chat, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	return s.store.ListChats(ctx, uid)
}

// Send writes a message. The unread counters and last-message snapshot update
// in the same transaction as the message write; the push notification fires
// after commit and is best effort.
func (s *Service) Send(ctx context.Context, uid, chatID string, in SendMessageInput) (*Message, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	if chatID == "" {
		return nil, fmt.Errorf("%w: chatId is required", ErrBadRequest)
	}
	content := strings.TrimSpace(in.Content)
	if content == "" {
		return nil, fmt.Errorf("%w: message content is required", ErrBadRequest)
	}

	msg, err := s.store.SendMessage(ctx, chatID, uid, content)
	if err != nil {
		return nil, err
	}

	if s.notifier != nil {
		c, err := s.store.GetChat(ctx, chatID)
		if err != nil {
			s.log.Warn("failed to load chat for notification", zap.String("chatId", chatID), zap.Error(err))
		} else {
			s.notifier.NotifyNewMessage(ctx, recipientsOf(c.Participants, uid), *msg)
		}
	}
	return msg, nil
}

// Messages lists a chat's messages; the caller must be a participant.
func (s *Service) Messages(ctx context.Context, uid, chatID string, limit int) ([]Message, error) {
	if uid == "" {
		return nil, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	c, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return nil, err
	}
	if !contains(c.Participants, uid) {
		return nil, fmt.Errorf("%w: %s in chat %s", ErrNotParticipant, uid, chatID)
	}
	return s.store.ListMessages(ctx, chatID, limit)
}

// MarkRead marks every message addressed to uid as read and zeroes uid's
// unread counter.
func (s *Service) MarkRead(ctx context.Context, uid, chatID string) (int, error) {
	if uid == "" {
		return 0, fmt.Errorf("%w: not logged in", ErrUnauthorized)
	}
	c, err := s.store.GetChat(ctx, chatID)
	if err != nil {
		return 0, err
	}
	if !contains(c.Participants, uid) {
		return 0, fmt.Errorf("%w: %s in chat %s", ErrNotParticipant, uid, chatID)
	}
	return s.store.MarkRead(ctx, chatID, uid)
}
