package services

import (
	"context"
	"time"

	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/domain/typing"
	"pulse-chat/internal/repository"
	"pulse-chat/pkg/events"
	pulse_errors "pulse-chat/pkg/errors"
	"pulse-chat/pkg/logger"
)

type TypingService struct {
	repo      repository.TypingRepository
	userRepo  repository.UserRepository
	publisher events.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewTypingService(repo repository.TypingRepository, userRepo repository.UserRepository, publisher events.Publisher, log *logger.Logger) *TypingService {
	return &TypingService{repo: repo, userRepo: userRepo, publisher: publisher, log: log, now: time.Now}
}

// SetTyping upserts the (conversation, user) signal to now. Best-effort: the
// next keystroke self-heals a lost pulse.
func (s *TypingService) SetTyping(ctx context.Context, conversationID ids.ConversationID, userID ids.UserID) error {
	if conversationID.IsZero() || userID.IsZero() {
		return pulse_errors.ErrInvalidInput
	}
	now := s.now()
	err := s.repo.Upsert(ctx, typing.Signal{
		ConversationID: conversationID,
		UserID:         userID,
		LastTypedAt:    now,
	})
	if err != nil {
		return err
	}
	s.publishPulse(ctx, conversationID, userID, now)
	return nil
}

// ListTyping returns the users typing in the conversation right now,
// excluding the asker. Expiry is enforced here, at read time; rows older
// than the window are invisible whether or not anything reaped them.
func (s *TypingService) ListTyping(ctx context.Context, conversationID ids.ConversationID, excludeUserID ids.UserID) ([]UserProfile, error) {
	signals, err := s.repo.ListByConversation(ctx, conversationID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	liveIDs := make([]ids.UserID, 0, len(signals))
	for _, sig := range signals {
		if sig.UserID == excludeUserID {
			continue
		}
		if sig.LiveAt(now) {
			liveIDs = append(liveIDs, sig.UserID)
		}
	}
	if len(liveIDs) == 0 {
		return nil, nil
	}

	users, err := s.userRepo.GetByIDs(ctx, liveIDs)
	if err != nil {
		return nil, err
	}
	profiles := make([]UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, ProfileOf(u, now))
	}
	return profiles, nil
}

// Reap drops signals that expired before now. Optional storage hygiene;
// correctness never depends on it running.
func (s *TypingService) Reap(ctx context.Context) error {
	return s.repo.DeleteBefore(ctx, s.now().Add(-typing.ExpiryWindow))
}

type typingPayload struct {
	ConversationID ids.ConversationID `json:"conversation_id"`
	UserID         ids.UserID         `json:"user_id"`
	LastTypedAt    time.Time          `json:"last_typed_at"`
}

func (s *TypingService) publishPulse(ctx context.Context, conversationID ids.ConversationID, userID ids.UserID, at time.Time) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.ConversationChannel(conversationID.String()), events.Event{
		Type:      events.TypeTypingPulse,
		Payload:   typingPayload{ConversationID: conversationID, UserID: userID, LastTypedAt: at},
		Timestamp: at.UnixMilli(),
	})
	if err != nil && s.log != nil {
		s.log.Warnf("typing publish failed: %v", err)
	}
}
