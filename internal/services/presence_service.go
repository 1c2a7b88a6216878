package services

import (
	"context"
	"time"

	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/repository"
	"pulse-chat/pkg/events"
	pulse_errors "pulse-chat/pkg/errors"
	"pulse-chat/pkg/logger"
)

// HeartbeatInterval is the cadence live clients are expected to beat at.
// The online window in the user entity is twice this, so one lost beat does
// not flap presence.
const HeartbeatInterval = 30 * time.Second

type PresenceService struct {
	repo      repository.UserRepository
	publisher events.Publisher
	log       *logger.Logger
	now       func() time.Time
}

func NewPresenceService(repo repository.UserRepository, publisher events.Publisher, log *logger.Logger) *PresenceService {
	return &PresenceService{repo: repo, publisher: publisher, log: log, now: time.Now}
}

// Heartbeat marks the user online and stamps last-seen. Best-effort: a lost
// beat is healed by the next one, so callers may drop the error on the floor.
func (s *PresenceService) Heartbeat(ctx context.Context, userID ids.UserID) error {
	if userID.IsZero() {
		return pulse_errors.ErrInvalidInput
	}
	now := s.now()
	if err := s.repo.SetOnline(ctx, userID, now); err != nil {
		return err
	}
	s.publishPresence(ctx, userID, true, now)
	return nil
}

// SetOffline records a graceful disconnect. Crashed clients never call this;
// they go dark through the heartbeat window instead.
func (s *PresenceService) SetOffline(ctx context.Context, userID ids.UserID) error {
	if userID.IsZero() {
		return pulse_errors.ErrInvalidInput
	}
	if err := s.repo.SetOffline(ctx, userID); err != nil {
		return err
	}
	s.publishPresence(ctx, userID, false, s.now())
	return nil
}

// IsOnline answers the derived presence check for a single user.
func (s *PresenceService) IsOnline(ctx context.Context, userID ids.UserID) (bool, error) {
	u, err := s.repo.GetByID(ctx, userID)
	if err != nil {
		return false, err
	}
	return u.OnlineAt(s.now()), nil
}

type presencePayload struct {
	UserID   ids.UserID `json:"user_id"`
	Online   bool       `json:"online"`
	LastSeen time.Time  `json:"last_seen"`
}

func (s *PresenceService) publishPresence(ctx context.Context, userID ids.UserID, online bool, at time.Time) {
	if s.publisher == nil {
		return
	}
	err := s.publisher.Publish(ctx, events.PresenceChannel, events.Event{
		Type:      events.TypePresenceChanged,
		Payload:   presencePayload{UserID: userID, Online: online, LastSeen: at},
		Timestamp: at.UnixMilli(),
	})
	if err != nil && s.log != nil {
		s.log.Warnf("presence publish failed: %v", err)
	}
}
