package user

import (
	"database/sql"
	"time"

	"pulse-chat/internal/domain/ids"
)

// User represents the users table. Accounts are created by the identity
// collaborator (session sync or webhook), never by the chat core itself,
// and are never hard-deleted.
type User struct {
	ID            ids.UserID `gorm:"type:uuid;primaryKey"`
	AuthSubjectID string     `gorm:"uniqueIndex;not null"`
	Name          string     `gorm:"not null"`
	Email         string     `gorm:"uniqueIndex;not null"`
	AvatarURL     string
	IsOnline      bool
	LastSeenAt    sql.NullTime
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

func (User) TableName() string {
	return "users"
}

// OnlineWindow is how long after the last heartbeat a user still counts as
// online. Heartbeats arrive every 30s from live clients, so a missed beat is
// forgiven once before the user flips to offline.
const OnlineWindow = 60 * time.Second

// OnlineAt derives presence from the heartbeat timestamp. The stored
// IsOnline flag only carries an explicit sign-out: a crashed client never
// clears it, so a stale flag must not keep the user online.
func (u User) OnlineAt(now time.Time) bool {
	if !u.IsOnline {
		return false
	}
	if !u.LastSeenAt.Valid {
		return false
	}
	return now.Sub(u.LastSeenAt.Time) < OnlineWindow
}
