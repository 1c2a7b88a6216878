package typing

import (
	"time"

	"pulse-chat/internal/domain/ids"
)

// ExpiryWindow is how long a typing signal stays visible after the last
// keystroke. Readers filter on this at query time; stale rows are harmless.
const ExpiryWindow = 3 * time.Second

// Signal represents the typing_signals table. One row per
// (conversation, user); a new keystroke overwrites LastTypedAt in place.
type Signal struct {
	ConversationID ids.ConversationID `gorm:"type:uuid;primaryKey"`
	UserID         ids.UserID         `gorm:"type:uuid;primaryKey"`
	LastTypedAt    time.Time          `gorm:"not null"`
}

func (Signal) TableName() string {
	return "typing_signals"
}

// LiveAt reports whether the signal is still inside the expiry window.
func (s Signal) LiveAt(now time.Time) bool {
	return now.Sub(s.LastTypedAt) < ExpiryWindow
}
