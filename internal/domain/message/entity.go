package message

import (
	"time"

	"pulse-chat/internal/domain/ids"
)

// Type of message content. Image and video messages carry an object-store
// URL in Content.
type Type string

const (
	TypeText  Type = "text"
	TypeImage Type = "image"
	TypeVideo Type = "video"
)

func (t Type) Valid() bool {
	switch t {
	case TypeText, TypeImage, TypeVideo:
		return true
	}
	return false
}

// DeletedPlaceholder replaces the content of a soft-deleted message. The
// original content is gone for good once this is written.
const DeletedPlaceholder = "This message was deleted"

// Message represents the messages table. CreatedAt orders the conversation
// feed; Seq is a store-assigned monotonic tiebreaker for identical
// timestamps.
type Message struct {
	ID             ids.MessageID      `gorm:"type:uuid;primaryKey" json:"id"`
	ConversationID ids.ConversationID `gorm:"type:uuid;index;not null" json:"conversation_id"`
	SenderID       ids.UserID         `gorm:"type:uuid;not null" json:"sender_id"`
	Content        string             `gorm:"not null" json:"content"`
	Type           Type               `gorm:"not null" json:"type"`
	IsRead         bool               `gorm:"not null;default:false" json:"is_read"`
	IsDeleted      bool               `gorm:"not null;default:false" json:"is_deleted"`
	Seq            int64              `gorm:"autoIncrement;uniqueIndex" json:"-"`
	CreatedAt      time.Time          `json:"created_at"`

	Reactions []Reaction `json:"reactions,omitempty"`
}

// Reaction represents message_reactions. The composite unique index keeps at
// most one row per (message, user, emoji); toggling flips existence of that
// row.
type Reaction struct {
	ID        int64         `gorm:"primaryKey;autoIncrement" json:"-"`
	MessageID ids.MessageID `gorm:"type:uuid;uniqueIndex:idx_reaction_once;not null" json:"message_id"`
	UserID    ids.UserID    `gorm:"type:uuid;uniqueIndex:idx_reaction_once;not null" json:"user_id"`
	Emoji     string        `gorm:"uniqueIndex:idx_reaction_once;not null" json:"emoji"`
	CreatedAt time.Time     `json:"created_at"`
}

func (Message) TableName() string {
	return "messages"
}

func (Reaction) TableName() string {
	return "message_reactions"
}

// VisibleContent is what readers see: the placeholder for deleted messages,
// the stored content otherwise.
func (m Message) VisibleContent() string {
	if m.IsDeleted {
		return DeletedPlaceholder
	}
	return m.Content
}

// HasReaction reports whether the user already holds this emoji on the message.
func (m Message) HasReaction(userID ids.UserID, emoji string) bool {
	for _, r := range m.Reactions {
		if r.UserID == userID && r.Emoji == emoji {
			return true
		}
	}
	return false
}
