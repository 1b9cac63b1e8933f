package chat

import (
	"context"
	"fmt"
	"time"

	"cloud.google.com/go/firestore"
	"google.golang.org/api/iterator"
	"google.golang.org/grpc/codes"
	"google.golang.org/grpc/status"
)

type Repo struct {
	fs *firestore.Client
}

func NewRepo(fs *firestore.Client) *Repo {
	return &Repo{fs: fs}
}

func (r *Repo) chatsCol() *firestore.CollectionRef {
	return r.fs.Collection("chats")
}

func (r *Repo) messagesCol() *firestore.CollectionRef {
	return r.fs.Collection("messages")
}

// chatsQuery exposes the chats-of-user query for live streams.
func (r *Repo) chatsQuery(uid string) firestore.Query {
	return r.chatsCol().Where("participants", "array-contains", uid)
}

// messagesQuery exposes the messages-of-chat query for live streams.
func (r *Repo) messagesQuery(chatID string) firestore.Query {
	return r.messagesCol().Where("chatId", "==", chatID).OrderBy("timestamp", firestore.Asc)
}

// OpenChat returns the chat for the participant pair, creating it when absent.
// The pair lookup scans a's chats client-side, and scan and create are not one
// transaction: two concurrent opens for the same pair can each create a chat.
// Accepted; both surface in the chat list and messages keep flowing through
// whichever one the clients settle on.
func (r *Repo) OpenChat(ctx context.Context, a, b string) (*Chat, error) {
	iter := r.chatsQuery(a).Documents(ctx)
	defer iter.Stop()

	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to look up chat: %w", err)
		}

		var c Chat
		if err := doc.DataTo(&c); err != nil {
			continue
		}
		if contains(c.Participants, b) {
			c.ID = doc.Ref.ID
			return &c, nil
		}
	}

	ref := r.chatsCol().NewDoc()
	c := Chat{
		ID:           ref.ID,
		Participants: []string{a, b},
		UnreadCount:  map[string]int64{a: 0, b: 0},
		CreatedAt:    time.Now().UTC(),
	}
	if _, err := ref.Set(ctx, c); err != nil {
		return nil, fmt.Errorf("failed to create chat: %w", err)
	}
	return &c, nil
}

func (r *Repo) GetChat(ctx context.Context, chatID string) (*Chat, error) {
	doc, err := r.chatsCol().Doc(chatID).Get(ctx)
	if status.Code(err) == codes.NotFound {
		return nil, fmt.Errorf("%w: chat %s", ErrNotFound, chatID)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get chat: %w", err)
	}

	var c Chat
	if err := doc.DataTo(&c); err != nil {
		return nil, fmt.Errorf("failed to decode chat: %w", err)
	}
	c.ID = doc.Ref.ID
	return &c, nil
}

// ListChats lists the chats uid participates in, most recent first.
func (r *Repo) ListChats(ctx context.Context, uid string) ([]Chat, error) {
	iter := r.chatsQuery(uid).OrderBy("lastMessageAt", firestore.Desc).Documents(ctx)
	defer iter.Stop()

	var chats []Chat
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate chats: %w", err)
		}

		var c Chat
		if err := doc.DataTo(&c); err != nil {
			continue
		}
		c.ID = doc.Ref.ID
		chats = append(chats, c)
	}

	if chats == nil {
		chats = []Chat{}
	}
	return chats, nil
}

// SendMessage writes the message document and updates the chat's unread
// counters and last-message snapshot in one transaction.
func (r *Repo) SendMessage(ctx context.Context, chatID, senderID, content string) (*Message, error) {
	msgRef := r.messagesCol().NewDoc()
	now := time.Now().UTC()
	msg := Message{
		ID:        msgRef.ID,
		ChatID:    chatID,
		SenderID:  senderID,
		Content:   content,
		Timestamp: now,
		Read:      false,
	}

	err := r.fs.RunTransaction(ctx, func(ctx context.Context, tx *firestore.Transaction) error {
		chatRef := r.chatsCol().Doc(chatID)
		doc, err := tx.Get(chatRef)
		if status.Code(err) == codes.NotFound {
			return fmt.Errorf("%w: chat %s", ErrNotFound, chatID)
		}
		if err != nil {
			return fmt.Errorf("failed to read chat: %w", err)
		}

		var c Chat
		if err := doc.DataTo(&c); err != nil {
			return fmt.Errorf("failed to decode chat: %w", err)
		}
		if !contains(c.Participants, senderID) {
			return fmt.Errorf("%w: %s in chat %s", ErrNotParticipant, senderID, chatID)
		}

		if err := tx.Create(msgRef, msg); err != nil {
			return fmt.Errorf("failed to write message: %w", err)
		}
		return tx.Update(chatRef, []firestore.Update{
			{Path: "unreadCount", Value: bumpUnread(c.UnreadCount, c.Participants, senderID)},
			{Path: "lastMessage", Value: content},
			{Path: "lastMessageAt", Value: now},
		})
	})
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

// ListMessages lists a chat's messages in chronological order.
func (r *Repo) ListMessages(ctx context.Context, chatID string, limit int) ([]Message, error) {
	q := r.messagesQuery(chatID)
	if limit > 0 {
		q = q.Limit(limit)
	}

	iter := q.Documents(ctx)
	defer iter.Stop()

	var msgs []Message
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("failed to iterate messages: %w", err)
		}

		var m Message
		if err := doc.DataTo(&m); err != nil {
			continue
		}
		m.ID = doc.Ref.ID
		msgs = append(msgs, m)
	}

	if msgs == nil {
		msgs = []Message{}
	}
	return msgs, nil
}

// MarkRead flips every unread message not sent by uid to read in a batch, then
// zeroes uid's unread counter. Returns the number of messages updated.
func (r *Repo) MarkRead(ctx context.Context, chatID, uid string) (int, error) {
	iter := r.messagesCol().
		Where("chatId", "==", chatID).
		Where("read", "==", false).
		Documents(ctx)
	defer iter.Stop()

	batch := r.fs.Batch()
	count := 0
	for {
		doc, err := iter.Next()
		if err == iterator.Done {
			break
		}
		if err != nil {
			return 0, fmt.Errorf("failed to iterate unread messages: %w", err)
		}

		var m Message
		if err := doc.DataTo(&m); err != nil {
			continue
		}
		if m.SenderID == uid {
			continue
		}
		batch.Update(doc.Ref, []firestore.Update{{Path: "read", Value: true}})
		count++
	}

	batch.Update(r.chatsCol().Doc(chatID), []firestore.Update{
		{Path: fmt.Sprintf("unreadCount.%s", uid), Value: int64(0)},
	})

	if _, err := batch.Commit(ctx); err != nil {
		return 0, fmt.Errorf("failed to mark messages read: %w", err)
	}
	return count, nil
}
