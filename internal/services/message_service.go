package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/domain/message"
	"pulse-chat/internal/repository"
	"pulse-chat/pkg/events"
	pulse_errors "pulse-chat/pkg/errors"
	"pulse-chat/pkg/logger"

	"gorm.io/gorm"
)

// MessageView is a message joined with its sender's public profile, as the
// conversation feed renders it. Content already has the soft-delete
// placeholder applied.
type MessageView struct {
	ID             ids.MessageID      `json:"id"`
	ConversationID ids.ConversationID `json:"conversation_id"`
	Sender         UserProfile        `json:"sender"`
	Content        string             `json:"content"`
	Type           message.Type       `json:"type"`
	IsRead         bool               `json:"is_read"`
	IsDeleted      bool               `json:"is_deleted"`
	Reactions      []ReactionView     `json:"reactions"`
	CreatedAt      time.Time          `json:"created_at"`
}

type ReactionView struct {
	UserID ids.UserID `json:"user_id"`
	Emoji  string     `json:"emoji"`
}

type SendMessageInput struct {
	ConversationID ids.ConversationID
	SenderID       ids.UserID
	Content        string
	Type           message.Type
}

type MessageService struct {
	db        *gorm.DB
	repo      repository.MessageRepository
	convRepo  repository.ConversationRepository
	userRepo  repository.UserRepository
	publisher events.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewMessageService(db *gorm.DB, repo repository.MessageRepository, convRepo repository.ConversationRepository, userRepo repository.UserRepository, publisher events.Publisher, log *logger.Logger) *MessageService {
	return &MessageService{db: db, repo: repo, convRepo: convRepo, userRepo: userRepo, publisher: publisher, log: log, now: time.Now}
}

// Send validates, inserts the message and moves the conversation's
// last-message pointer in one transaction, so no reader sees one side of the
// pair without the other.
func (s *MessageService) Send(ctx context.Context, in SendMessageInput) (message.Message, error) {
	if strings.TrimSpace(in.Content) == "" {
		return message.Message{}, pulse_errors.ErrInvalidInput
	}
	if !in.Type.Valid() {
		return message.Message{}, pulse_errors.ErrInvalidInput
	}
	if _, err := s.convRepo.GetByID(ctx, in.ConversationID); err != nil {
		return message.Message{}, err
	}
	if _, err := s.userRepo.GetByID(ctx, in.SenderID); err != nil {
		return message.Message{}, err
	}

	m := message.Message{
		ID:             ids.NewMessageID(),
		ConversationID: in.ConversationID,
		SenderID:       in.SenderID,
		Content:        in.Content,
		Type:           in.Type,
		CreatedAt:      s.now(),
	}

	if s.db == nil {
		if err := s.insertWithPointer(ctx, s.repo, s.convRepo, &m); err != nil {
			return message.Message{}, err
		}
	} else {
		err := s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			return s.insertWithPointer(ctx, repository.NewMessageRepository(tx), repository.NewConversationRepository(tx), &m)
		})
		if err != nil {
			return message.Message{}, err
		}
	}

	s.publish(ctx, m.ConversationID, events.TypeMessageSent, m)
	return m, nil
}

func (s *MessageService) insertWithPointer(ctx context.Context, repo repository.MessageRepository, convRepo repository.ConversationRepository, m *message.Message) error {
	if err := repo.Create(ctx, m); err != nil {
		return err
	}
	return convRepo.SetLastMessage(ctx, m.ConversationID, m.ID)
}

// SoftDelete blanks the message behind the fixed placeholder. Terminal and
// idempotent; reactions and read state survive.
func (s *MessageService) SoftDelete(ctx context.Context, messageID ids.MessageID) error {
	if err := s.repo.SoftDelete(ctx, messageID, message.DeletedPlaceholder); err != nil {
		return err
	}
	s.publishByMessage(ctx, messageID, events.TypeMessageDeleted)
	return nil
}

// MarkRead flips every unread message from other senders in the
// conversation. Monotonic and safe to repeat; a send landing mid-statement
// keeps its unread flag for the next call.
func (s *MessageService) MarkRead(ctx context.Context, conversationID ids.ConversationID, readerID ids.UserID) error {
	if conversationID.IsZero() || readerID.IsZero() {
		return pulse_errors.ErrInvalidInput
	}
	if err := s.repo.MarkConversationRead(ctx, conversationID, readerID); err != nil {
		return err
	}
	s.publish(ctx, conversationID, events.TypeMessageRead, map[string]string{
		"conversation_id": conversationID.String(),
		"reader_id":       readerID.String(),
	})
	return nil
}

// ToggleReaction adds the (user, emoji) reaction if absent and removes it if
// present. A missing message is a silent no-op by contract.
func (s *MessageService) ToggleReaction(ctx context.Context, messageID ids.MessageID, userID ids.UserID, emoji string) error {
	if emoji == "" || userID.IsZero() {
		return pulse_errors.ErrInvalidInput
	}

	m, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		if errors.Is(err, pulse_errors.ErrNotFound) {
			return nil
		}
		return err
	}

	if m.HasReaction(userID, emoji) {
		err = s.repo.RemoveReaction(ctx, messageID, userID, emoji)
		// Someone else's toggle already removed it; the end state matches.
		if errors.Is(err, pulse_errors.ErrNotFound) {
			err = nil
		}
	} else {
		err = s.repo.AddReaction(ctx, &message.Reaction{
			MessageID: messageID,
			UserID:    userID,
			Emoji:     emoji,
			CreatedAt: s.now(),
		})
		if errors.Is(err, pulse_errors.ErrAlreadyExists) {
			err = nil
		}
	}
	if err != nil {
		return err
	}

	s.publish(ctx, m.ConversationID, events.TypeReactionToggled, map[string]string{
		"conversation_id": m.ConversationID.String(),
		"message_id":      messageID.String(),
		"user_id":         userID.String(),
		"emoji":           emoji,
	})
	return nil
}

// ListByConversation returns the full feed in insertion order, each message
// joined with its sender's profile.
func (s *MessageService) ListByConversation(ctx context.Context, conversationID ids.ConversationID) ([]MessageView, error) {
	if _, err := s.convRepo.GetByID(ctx, conversationID); err != nil {
		return nil, err
	}
	messages, err := s.repo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	senderIDs := make([]ids.UserID, 0, len(messages))
	seen := make(map[ids.UserID]struct{})
	for _, m := range messages {
		if _, ok := seen[m.SenderID]; !ok {
			seen[m.SenderID] = struct{}{}
			senderIDs = append(senderIDs, m.SenderID)
		}
	}
	senders, err := s.userRepo.GetByIDs(ctx, senderIDs)
	if err != nil {
		return nil, err
	}
	now := s.now()
	profiles := make(map[ids.UserID]UserProfile, len(senders))
	for _, u := range senders {
		profiles[u.ID] = ProfileOf(u, now)
	}

	views := make([]MessageView, 0, len(messages))
	for _, m := range messages {
		views = append(views, toMessageView(m, profiles[m.SenderID]))
	}
	return views, nil
}

func (s *MessageService) UnreadCount(ctx context.Context, conversationID ids.ConversationID, userID ids.UserID) (int64, error) {
	return s.repo.UnreadCount(ctx, conversationID, userID)
}

func toMessageView(m message.Message, sender UserProfile) MessageView {
	v := MessageView{
		ID:             m.ID,
		ConversationID: m.ConversationID,
		Sender:         sender,
		Content:        m.VisibleContent(),
		Type:           m.Type,
		IsRead:         m.IsRead,
		IsDeleted:      m.IsDeleted,
		CreatedAt:      m.CreatedAt,
	}
	for _, r := range m.Reactions {
		v.Reactions = append(v.Reactions, ReactionView{UserID: r.UserID, Emoji: r.Emoji})
	}
	return v
}

func (s *MessageService) publish(ctx context.Context, conversationID ids.ConversationID, eventType string, payload interface{}) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.ConversationChannel(conversationID.String()), events.Event{
		Type:      eventType,
		Payload:   payload,
		Timestamp: s.now().UnixMilli(),
	})
	if err != nil && s.log != nil {
		s.log.Warnf("message publish failed: %v", err)
	}
}

func (s *MessageService) publishByMessage(ctx context.Context, messageID ids.MessageID, eventType string) {
	if s.publisher == nil {
		return
	}
	m, err := s.repo.GetByID(ctx, messageID)
	if err != nil {
		return
	}
	s.publish(ctx, m.ConversationID, eventType, map[string]string{
		"conversation_id": m.ConversationID.String(),
		"message_id":      messageID.String(),
	})
}
