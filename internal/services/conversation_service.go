package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"pulse-chat/internal/domain/conversation"
	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/repository"
	"pulse-chat/pkg/events"
	pulse_errors "pulse-chat/pkg/errors"
	"pulse-chat/pkg/logger"

	"gorm.io/gorm"
)

type ConversationService struct {
	db        *gorm.DB
	repo      repository.ConversationRepository
	userRepo  repository.UserRepository
	publisher events.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewConversationService(db *gorm.DB, repo repository.ConversationRepository, userRepo repository.UserRepository, publisher events.Publisher, log *logger.Logger) *ConversationService {
	return &ConversationService{db: db, repo: repo, userRepo: userRepo, publisher: publisher, log: log, now: time.Now}
}

// CreateDirect returns the one conversation for the unordered pair (a, b),
// creating it on first contact. Idempotent and order-insensitive: the
// canonical direct key carries a unique index, so two clients racing on the
// first message still converge on a single row.
func (s *ConversationService) CreateDirect(ctx context.Context, a, b ids.UserID) (ids.ConversationID, error) {
	if a.IsZero() || b.IsZero() || a == b {
		return ids.ConversationID{}, pulse_errors.ErrInvalidInput
	}
	if _, err := s.userRepo.GetByID(ctx, a); err != nil {
		return ids.ConversationID{}, err
	}
	if _, err := s.userRepo.GetByID(ctx, b); err != nil {
		return ids.ConversationID{}, err
	}

	key := conversation.DirectKeyFor(a, b)

	var conv conversation.Conversation
	var created bool
	var err error
	if s.db == nil {
		conv, created, err = s.createDirect(ctx, s.repo, key, a, b)
	} else {
		err = s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
			var txErr error
			conv, created, txErr = s.createDirect(ctx, repository.NewConversationRepository(tx), key, a, b)
			return txErr
		})
	}
	if err != nil {
		// Lost the first-contact race: the unique direct key holds the
		// winner's row. The re-fetch has to run on a fresh connection; after
		// the unique violation the transaction is aborted and rejects every
		// further statement.
		if errors.Is(err, pulse_errors.ErrAlreadyExists) {
			winner, ferr := s.repo.GetByDirectKey(ctx, key)
			if ferr != nil {
				return ids.ConversationID{}, ferr
			}
			return winner.ID, nil
		}
		return ids.ConversationID{}, err
	}

	// Publish only after the row is committed, so a consumer reacting to the
	// event can already read it.
	if created {
		s.publishCreated(ctx, conv)
	}
	return conv.ID, nil
}

func (s *ConversationService) createDirect(ctx context.Context, repo repository.ConversationRepository, key string, a, b ids.UserID) (conversation.Conversation, bool, error) {
	existing, err := repo.GetByDirectKey(ctx, key)
	if err == nil {
		return existing, false, nil
	}
	if !errors.Is(err, pulse_errors.ErrNotFound) {
		return conversation.Conversation{}, false, err
	}

	now := s.now()
	conv := conversation.Conversation{
		ID:        ids.NewConversationID(),
		Kind:      conversation.KindDirect,
		DirectKey: &key,
		CreatedBy: a,
		CreatedAt: now,
		UpdatedAt: now,
		Participants: []conversation.Participant{
			{UserID: a, JoinedAt: now},
			{UserID: b, JoinedAt: now},
		},
	}
	if err := repo.Create(ctx, &conv); err != nil {
		return conversation.Conversation{}, false, err
	}
	return conv, true, nil
}

// CreateGroup always creates a fresh conversation; two groups with identical
// members are two different groups.
func (s *ConversationService) CreateGroup(ctx context.Context, participantIDs []ids.UserID, name string, creatorID ids.UserID) (ids.ConversationID, error) {
	if strings.TrimSpace(name) == "" {
		return ids.ConversationID{}, pulse_errors.ErrInvalidInput
	}
	if creatorID.IsZero() {
		return ids.ConversationID{}, pulse_errors.ErrInvalidInput
	}

	members := dedupeUserIDs(append(participantIDs, creatorID))
	if len(members) < 2 {
		return ids.ConversationID{}, pulse_errors.ErrInvalidInput
	}

	found, err := s.userRepo.GetByIDs(ctx, members)
	if err != nil {
		return ids.ConversationID{}, err
	}
	if len(found) != len(members) {
		return ids.ConversationID{}, pulse_errors.ErrNotFound
	}

	now := s.now()
	conv := conversation.Conversation{
		ID:        ids.NewConversationID(),
		Kind:      conversation.KindGroup,
		Name:      strings.TrimSpace(name),
		CreatedBy: creatorID,
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, m := range members {
		conv.Participants = append(conv.Participants, conversation.Participant{UserID: m, JoinedAt: now})
	}

	if err := s.repo.Create(ctx, &conv); err != nil {
		return ids.ConversationID{}, err
	}

	s.publishCreated(ctx, conv)
	return conv.ID, nil
}

func (s *ConversationService) GetByID(ctx context.Context, id ids.ConversationID) (conversation.Conversation, error) {
	return s.repo.GetByID(ctx, id)
}

func dedupeUserIDs(in []ids.UserID) []ids.UserID {
	seen := make(map[ids.UserID]struct{}, len(in))
	out := make([]ids.UserID, 0, len(in))
	for _, id := range in {
		if id.IsZero() {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out
}

type conversationPayload struct {
	ConversationID ids.ConversationID `json:"conversation_id"`
	Kind           conversation.Kind  `json:"kind"`
	Participants   []ids.UserID       `json:"participants"`
}

func (s *ConversationService) publishCreated(ctx context.Context, conv conversation.Conversation) {
	if s.publisher == nil {
		return
	}
	payload := conversationPayload{ConversationID: conv.ID, Kind: conv.Kind}
	for _, p := range conv.Participants {
		payload.Participants = append(payload.Participants, p.UserID)
	}
	err := s.publisher.Publish(ctx, events.ConversationChannel(conv.ID.String()), events.Event{
		Type:      events.TypeConversationCreated,
		Payload:   payload,
		Timestamp: s.now().UnixMilli(),
	})
	if err != nil && s.log != nil {
		s.log.Warnf("conversation publish failed: %v", err)
	}
}
