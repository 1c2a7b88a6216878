package services

import (
	"context"
	"errors"
	"sort"
	"time"

	"pulse-chat/internal/domain/conversation"
	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/domain/message"
	"pulse-chat/internal/repository"
	pulse_errors "pulse-chat/pkg/errors"
)

// ConversationSummary is one row of the primary feed.
type ConversationSummary struct {
	ID              ids.ConversationID `json:"id"`
	IsGroup         bool               `json:"is_group"`
	GroupName       string             `json:"group_name,omitempty"`
	OtherUser       *UserProfile       `json:"other_user,omitempty"`
	LastMessage     *LastMessage       `json:"last_message,omitempty"`
	LastMessageTime time.Time          `json:"last_message_time"`
	UnreadCount     int64              `json:"unread_count"`
}

// LastMessage is the feed preview of a conversation's newest message.
type LastMessage struct {
	ID        ids.MessageID `json:"id"`
	SenderID  ids.UserID    `json:"sender_id"`
	Content   string        `json:"content"`
	Type      message.Type  `json:"type"`
	CreatedAt time.Time     `json:"created_at"`
}

// ConversationDetail is the single-conversation view.
type ConversationDetail struct {
	ID           ids.ConversationID `json:"id"`
	IsGroup      bool               `json:"is_group"`
	GroupName    string             `json:"group_name,omitempty"`
	Participants []UserProfile      `json:"participants"`
	OtherUser    *UserProfile       `json:"other_user,omitempty"`
}

// QueryService is the read-side façade: it composes the directory, the
// conversation store and the message store into the shapes the client
// renders. It never mutates anything.
type QueryService struct {
	convRepo repository.ConversationRepository
	msgRepo  repository.MessageRepository
	userRepo repository.UserRepository
	now      func() time.Time
}

func NewQueryService(convRepo repository.ConversationRepository, msgRepo repository.MessageRepository, userRepo repository.UserRepository) *QueryService {
	return &QueryService{convRepo: convRepo, msgRepo: msgRepo, userRepo: userRepo, now: time.Now}
}

// ListConversations builds the feed for a user: counterpart profile for
// direct chats, last-message preview with the soft-delete placeholder
// applied, unread count, sorted by recency. A dangling last-message pointer
// (hard-removed in earlier schema versions) degrades to "no message".
func (s *QueryService) ListConversations(ctx context.Context, userID ids.UserID) ([]ConversationSummary, error) {
	if userID.IsZero() {
		return nil, pulse_errors.ErrInvalidInput
	}
	conversations, err := s.convRepo.GetUserConversations(ctx, userID)
	if err != nil {
		return nil, err
	}

	now := s.now()
	summaries := make([]ConversationSummary, 0, len(conversations))
	for _, conv := range conversations {
		summary := ConversationSummary{
			ID:              conv.ID,
			IsGroup:         conv.IsGroup(),
			GroupName:       conv.Name,
			LastMessageTime: conv.CreatedAt,
		}

		if other, ok := conv.OtherParticipant(userID); ok {
			if u, err := s.userRepo.GetByID(ctx, other); err == nil {
				p := ProfileOf(u, now)
				summary.OtherUser = &p
			}
		}

		if conv.LastMessageID != nil {
			m, err := s.msgRepo.GetByID(ctx, *conv.LastMessageID)
			switch {
			case err == nil:
				summary.LastMessage = &LastMessage{
					ID:        m.ID,
					SenderID:  m.SenderID,
					Content:   m.VisibleContent(),
					Type:      m.Type,
					CreatedAt: m.CreatedAt,
				}
				summary.LastMessageTime = m.CreatedAt
			case errors.Is(err, pulse_errors.ErrNotFound):
				// stale pointer, treat as absent
			default:
				return nil, err
			}
		}

		count, err := s.msgRepo.UnreadCount(ctx, conv.ID, userID)
		if err != nil {
			return nil, err
		}
		summary.UnreadCount = count

		summaries = append(summaries, summary)
	}

	sort.SliceStable(summaries, func(i, j int) bool {
		return summaries[i].LastMessageTime.After(summaries[j].LastMessageTime)
	})
	return summaries, nil
}

// GetConversation resolves the detail view. Requesters outside the
// participant set are refused; the check lives here at the façade boundary
// so the stores stay policy-free.
func (s *QueryService) GetConversation(ctx context.Context, conversationID ids.ConversationID, requesterID ids.UserID) (ConversationDetail, error) {
	conv, err := s.convRepo.GetByID(ctx, conversationID)
	if err != nil {
		return ConversationDetail{}, err
	}
	if !conv.HasParticipant(requesterID) {
		return ConversationDetail{}, pulse_errors.ErrForbidden
	}

	memberIDs := make([]ids.UserID, 0, len(conv.Participants))
	for _, p := range conv.Participants {
		memberIDs = append(memberIDs, p.UserID)
	}
	members, err := s.userRepo.GetByIDs(ctx, memberIDs)
	if err != nil {
		return ConversationDetail{}, err
	}

	now := s.now()
	detail := ConversationDetail{
		ID:        conv.ID,
		IsGroup:   conv.IsGroup(),
		GroupName: conv.Name,
	}
	for _, u := range members {
		p := ProfileOf(u, now)
		detail.Participants = append(detail.Participants, p)
		if conv.Kind == conversation.KindDirect && u.ID != requesterID {
			other := p
			detail.OtherUser = &other
		}
	}
	return detail, nil
}
