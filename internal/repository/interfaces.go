package repository

import (
	"context"
	"time"

	"pulse-chat/internal/domain/conversation"
	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/domain/message"
	"pulse-chat/internal/domain/typing"
	"pulse-chat/internal/domain/user"
)

type UserRepository interface {
	Create(ctx context.Context, u *user.User) error
	GetByID(ctx context.Context, id ids.UserID) (user.User, error)
	GetByAuthSubject(ctx context.Context, authSubjectID string) (user.User, error)
	GetByIDs(ctx context.Context, userIDs []ids.UserID) ([]user.User, error)
	ListOthers(ctx context.Context, excludeID ids.UserID) ([]user.User, error)
	UpdateProfile(ctx context.Context, id ids.UserID, name, avatarURL string) error

	SetOnline(ctx context.Context, id ids.UserID, lastSeen time.Time) error
	SetOffline(ctx context.Context, id ids.UserID) error
}

type ConversationRepository interface {
	Create(ctx context.Context, c *conversation.Conversation) error
	GetByID(ctx context.Context, id ids.ConversationID) (conversation.Conversation, error)
	GetByDirectKey(ctx context.Context, key string) (conversation.Conversation, error)
	GetUserConversations(ctx context.Context, userID ids.UserID) ([]conversation.Conversation, error)
	IsParticipant(ctx context.Context, conversationID ids.ConversationID, userID ids.UserID) (bool, error)
	SetLastMessage(ctx context.Context, conversationID ids.ConversationID, messageID ids.MessageID) error
}

type MessageRepository interface {
	Create(ctx context.Context, m *message.Message) error
	GetByID(ctx context.Context, id ids.MessageID) (message.Message, error)
	ListByConversation(ctx context.Context, conversationID ids.ConversationID) ([]message.Message, error)
	SoftDelete(ctx context.Context, id ids.MessageID, placeholder string) error
	MarkConversationRead(ctx context.Context, conversationID ids.ConversationID, readerID ids.UserID) error
	UnreadCount(ctx context.Context, conversationID ids.ConversationID, userID ids.UserID) (int64, error)
	AddReaction(ctx context.Context, r *message.Reaction) error
	RemoveReaction(ctx context.Context, messageID ids.MessageID, userID ids.UserID, emoji string) error
}

type TypingRepository interface {
	Upsert(ctx context.Context, s typing.Signal) error
	ListByConversation(ctx context.Context, conversationID ids.ConversationID) ([]typing.Signal, error)
	DeleteBefore(ctx context.Context, cutoff time.Time) error
}
