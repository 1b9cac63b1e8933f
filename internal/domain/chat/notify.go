package chat

import (
	"context"

	"firebase.google.com/go/v4/messaging"
	"go.uber.org/zap"

	"skillsync/backend/internal/utils"
)

// notifyBodyMax caps the message preview carried in a push notification.
const notifyBodyMax = 120

// tokenLookup resolves a recipient's registered FCM token. An empty token
// means the user has no registered device.
type tokenLookup interface {
	FCMToken(ctx context.Context, uid string) (string, error)
}

// Notifier pushes new-message notifications over FCM. All failures are logged
// and swallowed: delivery is best effort and never blocks the send path.
type Notifier struct {
	client *messaging.Client
	tokens tokenLookup
	log    *zap.Logger
}

func NewNotifier(client *messaging.Client, tokens tokenLookup, log *zap.Logger) *Notifier {
	return &Notifier{client: client, tokens: tokens, log: log}
}

// token resolves the recipient's device token. Lookup failures are logged and
// reported as absent so the remaining recipients still get their push.
func (n *Notifier) token(ctx context.Context, uid string) (string, bool) {
	t, err := n.tokens.FCMToken(ctx, uid)
	if err != nil {
		n.log.Warn("failed to resolve fcm token", zap.String("uid", uid), zap.Error(err))
		return "", false
	}
	return t, t != ""
}

func (n *Notifier) NotifyNewMessage(ctx context.Context, recipientUIDs []string, m Message) {
	if n == nil || n.client == nil {
		return
	}
	for _, uid := range recipientUIDs {
		token, ok := n.token(ctx, uid)
		if !ok {
			continue
		}
		_, err := n.client.Send(ctx, &messaging.Message{
			Token: token,
			Notification: &messaging.Notification{
				Title: "New message",
				Body:  utils.TrimMax(m.Content, notifyBodyMax),
			},
			Data: map[string]string{
				"chatId":   m.ChatID,
				"senderId": m.SenderID,
			},
		})
		if err != nil {
			n.log.Warn("failed to push message notification", zap.String("uid", uid), zap.Error(err))
		}
	}
}
