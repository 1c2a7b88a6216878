package conversation

import (
	"fmt"
	"strings"
	"time"

	"pulse-chat/internal/domain/ids"
)

// Kind discriminates the two conversation variants. Direct conversations are
// identified by their participant pair; group conversations always get a
// fresh identity.
type Kind string

const (
	KindDirect Kind = "DIRECT"
	KindGroup  Kind = "GROUP"
)

// Conversation represents the conversations table.
//
// DirectKey is the canonicalized participant-pair key for direct
// conversations: both member ids sorted lexicographically and joined with
// ":". Its unique index is what makes concurrent first-contact creation
// collapse onto a single row. NULL for groups, so the index never collides
// between group rows.
type Conversation struct {
	ID            ids.ConversationID `gorm:"type:uuid;primaryKey"`
	Kind          Kind               `gorm:"not null"`
	DirectKey     *string            `gorm:"uniqueIndex"`
	Name          string
	LastMessageID *ids.MessageID `gorm:"type:uuid"`
	CreatedBy     ids.UserID     `gorm:"type:uuid"`
	CreatedAt     time.Time
	UpdatedAt     time.Time

	Participants []Participant
}

// Participant represents the participants table.
type Participant struct {
	ConversationID ids.ConversationID `gorm:"type:uuid;primaryKey"`
	UserID         ids.UserID         `gorm:"type:uuid;primaryKey"`
	JoinedAt       time.Time
}

func (Conversation) TableName() string {
	return "conversations"
}

func (Participant) TableName() string {
	return "participants"
}

func (c Conversation) IsGroup() bool {
	return c.Kind == KindGroup
}

// HasParticipant reports whether the user is a member of the conversation.
func (c Conversation) HasParticipant(userID ids.UserID) bool {
	for _, p := range c.Participants {
		if p.UserID == userID {
			return true
		}
	}
	return false
}

// OtherParticipant returns the counterpart of userID in a direct
// conversation, and false for groups or when userID is not a member.
func (c Conversation) OtherParticipant(userID ids.UserID) (ids.UserID, bool) {
	if c.Kind != KindDirect || !c.HasParticipant(userID) {
		return ids.UserID{}, false
	}
	for _, p := range c.Participants {
		if p.UserID != userID {
			return p.UserID, true
		}
	}
	return ids.UserID{}, false
}

// DirectKeyFor canonicalizes an unordered user pair, so (a,b) and (b,a)
// produce the same key.
func DirectKeyFor(a, b ids.UserID) string {
	left, right := a.String(), b.String()
	if strings.Compare(left, right) > 0 {
		left, right = right, left
	}
	return fmt.Sprintf("%s:%s", left, right)
}
