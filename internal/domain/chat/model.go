package chat

import (
	"time"
)

// Chat is a conversation between a pair of participants. UnreadCount keeps a
// per-participant counter that always equals the number of unread messages
// addressed to that participant; it is mutated only inside the send and
// mark-read operations.
type Chat struct {
	ID            string           `firestore:"-" json:"id"`
	Participants  []string         `firestore:"participants" json:"participants"`
	LastMessage   string           `firestore:"lastMessage,omitempty" json:"lastMessage,omitempty"`
	LastMessageAt time.Time        `firestore:"lastMessageAt,omitempty" json:"lastMessageAt,omitempty"`
	UnreadCount   map[string]int64 `firestore:"unreadCount" json:"unreadCount"`
	CreatedAt     time.Time        `firestore:"createdAt" json:"createdAt"`
}

// UnreadFor returns the unread counter for uid.
func (c *Chat) UnreadFor(uid string) int64 {
	if c.UnreadCount == nil {
		return 0
	}
	return c.UnreadCount[uid]
}

// Message is a single chat message.
type Message struct {
	ID        string    `firestore:"-" json:"id"`
	ChatID    string    `firestore:"chatId" json:"chatId"`
	SenderID  string    `firestore:"senderId" json:"senderId"`
	Content   string    `firestore:"content" json:"content"`
	Timestamp time.Time `firestore:"timestamp" json:"timestamp"`
	Read      bool      `firestore:"read" json:"read"`
}

// SendMessageInput is the payload for sending a message.
type SendMessageInput struct {
	Content string `json:"content"`
}
