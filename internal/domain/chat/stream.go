package chat

import (
	"context"

	"go.uber.org/zap"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

// ChatStream delivers live chat lists for a user. Restart by resubscribing.
type ChatStream struct {
	Chats <-chan []Chat
	Errs  <-chan error
	stop  context.CancelFunc
}

func (s *ChatStream) Stop() { s.stop() }

// MessageStream delivers live message lists for a chat.
type MessageStream struct {
	Messages <-chan []Message
	Errs     <-chan error
	stop     context.CancelFunc
}

func (s *MessageStream) Stop() { s.stop() }

// StreamChats subscribes to the chats uid participates in. Teardown
// cancellations are filtered out; every other listener error is delivered on
// Errs and ends the stream.
func (r *Repo) StreamChats(ctx context.Context, uid string, log *zap.Logger) *ChatStream {
	ctx, cancel := context.WithCancel(ctx)
	chats := make(chan []Chat, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(chats)
		defer close(errs)

		it := r.chatsQuery(uid).Snapshots(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				log.Warn("chat listener failed", zap.String("uid", uid), zap.Error(err))
				errs <- err
				return
			}

			var out []Chat
			for {
				doc, err := snap.Documents.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					break
				}
				var c Chat
				if err := doc.DataTo(&c); err != nil {
					continue
				}
				c.ID = doc.Ref.ID
				out = append(out, c)
			}
			select {
			case chats <- out:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &ChatStream{Chats: chats, Errs: errs, stop: cancel}
}

// StreamMessages subscribes to a chat's messages in chronological order.
func (r *Repo) StreamMessages(ctx context.Context, chatID string, log *zap.Logger) *MessageStream {
	ctx, cancel := context.WithCancel(ctx)
	msgs := make(chan []Message, 1)
	errs := make(chan error, 1)

	go func() {
		defer close(msgs)
		defer close(errs)

		it := r.messagesQuery(chatID).Snapshots(ctx)
		defer it.Stop()

		for {
			snap, err := it.Next()
			if err != nil {
				if status.Code(err) == codes.Canceled {
					return
				}
				log.Warn("message listener failed", zap.String("chatId", chatID), zap.Error(err))
				errs <- err
				return
			}

			var out []Message
			for {
				doc, err := snap.Documents.Next()
				if err == iterator.Done {
					break
				}
				if err != nil {
					break
				}
				var m Message
				if err := doc.DataTo(&m); err != nil {
					continue
				}
				m.ID = doc.Ref.ID
				out = append(out, m)
			}
			select {
			case msgs <- out:
			case <-ctx.Done():
				return
			}
		}
	}()

	return &MessageStream{Messages: msgs, Errs: errs, stop: cancel}
}
