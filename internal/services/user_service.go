package services

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/domain/user"
	"pulse-chat/internal/repository"
	pulse_errors "pulse-chat/pkg/errors"
	"pulse-chat/pkg/logger"
)

// UserProfile is the public slice of a user record that other participants
// may see. Online is the derived presence check, not the stored flag.
type UserProfile struct {
	ID         ids.UserID `json:"id"`
	Name       string     `json:"name"`
	Email      string     `json:"email"`
	AvatarURL  string     `json:"avatar_url"`
	Online     bool       `json:"online"`
	LastSeenAt *time.Time `json:"last_seen_at,omitempty"`
}

func ProfileOf(u user.User, now time.Time) UserProfile {
	p := UserProfile{
		ID:        u.ID,
		Name:      u.Name,
		Email:     u.Email,
		AvatarURL: u.AvatarURL,
		Online:    u.OnlineAt(now),
	}
	if u.LastSeenAt.Valid {
		t := u.LastSeenAt.Time
		p.LastSeenAt = &t
	}
	return p
}

type UpsertUserInput struct {
	AuthSubjectID string
	Name          string
	Email         string
	AvatarURL     string
}

type UserService struct {
	repo repository.UserRepository
	log  *logger.Logger
	now  func() time.Time
}

func NewUserService(repo repository.UserRepository, log *logger.Logger) *UserService {
	return &UserService{repo: repo, log: log, now: time.Now}
}

// UpsertUser is the identity-sync hook: called once per session start by the
// auth collaborator and by the server-to-server "user created" webhook.
// Idempotent per auth subject id; an existing record gets its profile
// refreshed and its presence bumped.
func (s *UserService) UpsertUser(ctx context.Context, in UpsertUserInput) (ids.UserID, error) {
	if strings.TrimSpace(in.AuthSubjectID) == "" {
		return ids.UserID{}, pulse_errors.ErrInvalidInput
	}
	if strings.TrimSpace(in.Email) == "" {
		return ids.UserID{}, pulse_errors.ErrInvalidInput
	}
	if strings.TrimSpace(in.Name) == "" {
		in.Name = "User"
	}

	now := s.now()

	existing, err := s.repo.GetByAuthSubject(ctx, in.AuthSubjectID)
	if err == nil {
		if err := s.repo.UpdateProfile(ctx, existing.ID, in.Name, in.AvatarURL); err != nil {
			return ids.UserID{}, err
		}
		if err := s.repo.SetOnline(ctx, existing.ID, now); err != nil {
			return ids.UserID{}, err
		}
		return existing.ID, nil
	}
	if !errors.Is(err, pulse_errors.ErrNotFound) {
		return ids.UserID{}, err
	}

	u := user.User{
		ID:            ids.NewUserID(),
		AuthSubjectID: in.AuthSubjectID,
		Name:          in.Name,
		Email:         in.Email,
		AvatarURL:     in.AvatarURL,
		IsOnline:      true,
		LastSeenAt:    sql.NullTime{Time: now, Valid: true},
		CreatedAt:     now,
		UpdatedAt:     now,
	}
	if err := s.repo.Create(ctx, &u); err != nil {
		// Two sessions syncing the same subject for the first time can race
		// on the unique index; the loser adopts the winner's row.
		if errors.Is(err, pulse_errors.ErrAlreadyExists) {
			winner, ferr := s.repo.GetByAuthSubject(ctx, in.AuthSubjectID)
			if ferr != nil {
				return ids.UserID{}, ferr
			}
			return winner.ID, nil
		}
		return ids.UserID{}, err
	}
	return u.ID, nil
}

func (s *UserService) GetByID(ctx context.Context, id ids.UserID) (user.User, error) {
	return s.repo.GetByID(ctx, id)
}

func (s *UserService) GetByAuthSubject(ctx context.Context, authSubjectID string) (user.User, error) {
	if authSubjectID == "" {
		return user.User{}, pulse_errors.ErrInvalidInput
	}
	return s.repo.GetByAuthSubject(ctx, authSubjectID)
}

// ListOthers backs the directory sidebar: everyone except the asker, with
// derived presence.
func (s *UserService) ListOthers(ctx context.Context, excludeID ids.UserID) ([]UserProfile, error) {
	users, err := s.repo.ListOthers(ctx, excludeID)
	if err != nil {
		return nil, err
	}
	now := s.now()
	profiles := make([]UserProfile, 0, len(users))
	for _, u := range users {
		profiles = append(profiles, ProfileOf(u, now))
	}
	return profiles, nil
}
