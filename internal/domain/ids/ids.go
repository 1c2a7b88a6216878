// Package ids defines one identifier type per entity. The types share a UUID
// representation but cannot be assigned to each other, so a message id can
// never reach a query expecting a conversation id without an explicit,
// visible conversion in the code.
package ids

import (
	"database/sql/driver"
	"fmt"

	"github.com/google/uuid"
)

type UserID uuid.UUID

type ConversationID uuid.UUID

type MessageID uuid.UUID

func NewUserID() UserID                 { return UserID(uuid.New()) }
func NewConversationID() ConversationID { return ConversationID(uuid.New()) }
func NewMessageID() MessageID           { return MessageID(uuid.New()) }

func ParseUserID(s string) (UserID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return UserID{}, fmt.Errorf("invalid user id %q: %w", s, err)
	}
	return UserID(u), nil
}

func ParseConversationID(s string) (ConversationID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return ConversationID{}, fmt.Errorf("invalid conversation id %q: %w", s, err)
	}
	return ConversationID(u), nil
}

func ParseMessageID(s string) (MessageID, error) {
	u, err := uuid.Parse(s)
	if err != nil {
		return MessageID{}, fmt.Errorf("invalid message id %q: %w", s, err)
	}
	return MessageID(u), nil
}

func (id UserID) String() string         { return uuid.UUID(id).String() }
func (id ConversationID) String() string { return uuid.UUID(id).String() }
func (id MessageID) String() string      { return uuid.UUID(id).String() }

func (id UserID) IsZero() bool         { return uuid.UUID(id) == uuid.Nil }
func (id ConversationID) IsZero() bool { return uuid.UUID(id) == uuid.Nil }
func (id MessageID) IsZero() bool      { return uuid.UUID(id) == uuid.Nil }

// driver.Valuer / sql.Scanner so gorm stores the types as native uuid columns.

func (id UserID) Value() (driver.Value, error)  { return uuid.UUID(id).Value() }
func (id *UserID) Scan(src interface{}) error   { return (*uuid.UUID)(id).Scan(src) }
func (id UserID) GormDataType() string          { return "uuid" }
func (id UserID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *UserID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id ConversationID) Value() (driver.Value, error)  { return uuid.UUID(id).Value() }
func (id *ConversationID) Scan(src interface{}) error   { return (*uuid.UUID)(id).Scan(src) }
func (id ConversationID) GormDataType() string          { return "uuid" }
func (id ConversationID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *ConversationID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }

func (id MessageID) Value() (driver.Value, error)  { return uuid.UUID(id).Value() }
func (id *MessageID) Scan(src interface{}) error   { return (*uuid.UUID)(id).Scan(src) }
func (id MessageID) GormDataType() string          { return "uuid" }
func (id MessageID) MarshalText() ([]byte, error)  { return uuid.UUID(id).MarshalText() }
func (id *MessageID) UnmarshalText(b []byte) error { return (*uuid.UUID)(id).UnmarshalText(b) }
