package services

import (
	"context"
	"sort"
	"sync"
	"time"

	"pulse-chat/internal/domain/conversation"
	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/domain/message"
	"pulse-chat/internal/domain/typing"
	"pulse-chat/internal/domain/user"
	pulse_errors "pulse-chat/pkg/errors"
	"pulse-chat/pkg/events"
)

// fakeClock lets tests walk the typing and presence windows deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock() *fakeClock {
	return &fakeClock{now: time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeUserRepo mimics the users table with its unique indexes.
type fakeUserRepo struct {
	mu    sync.Mutex
	users map[ids.UserID]user.User
}

func newFakeUserRepo() *fakeUserRepo {
	return &fakeUserRepo{users: make(map[ids.UserID]user.User)}
}

func (r *fakeUserRepo) Create(_ context.Context, u *user.User) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, existing := range r.users {
		if existing.AuthSubjectID == u.AuthSubjectID || existing.Email == u.Email {
			return pulse_errors.ErrAlreadyExists
		}
	}
	r.users[u.ID] = *u
	return nil
}

func (r *fakeUserRepo) GetByID(_ context.Context, id ids.UserID) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return user.User{}, pulse_errors.ErrNotFound
	}
	return u, nil
}

func (r *fakeUserRepo) GetByAuthSubject(_ context.Context, authSubjectID string) (user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	for _, u := range r.users {
		if u.AuthSubjectID == authSubjectID {
			return u, nil
		}
	}
	return user.User{}, pulse_errors.ErrNotFound
}

func (r *fakeUserRepo) GetByIDs(_ context.Context, userIDs []ids.UserID) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, id := range userIDs {
		if u, ok := r.users[id]; ok {
			out = append(out, u)
		}
	}
	return out, nil
}

func (r *fakeUserRepo) ListOthers(_ context.Context, excludeID ids.UserID) ([]user.User, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []user.User
	for _, u := range r.users {
		if u.ID != excludeID {
			out = append(out, u)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out, nil
}

func (r *fakeUserRepo) UpdateProfile(_ context.Context, id ids.UserID, name, avatarURL string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return pulse_errors.ErrNotFound
	}
	u.Name = name
	u.AvatarURL = avatarURL
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) SetOnline(_ context.Context, id ids.UserID, lastSeen time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return pulse_errors.ErrNotFound
	}
	u.IsOnline = true
	u.LastSeenAt.Time = lastSeen
	u.LastSeenAt.Valid = true
	r.users[id] = u
	return nil
}

func (r *fakeUserRepo) SetOffline(_ context.Context, id ids.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	u, ok := r.users[id]
	if !ok {
		return pulse_errors.ErrNotFound
	}
	u.IsOnline = false
	r.users[id] = u
	return nil
}

// fakeConversationRepo enforces the unique direct-key index the real table
// carries, which is what the create-direct race tests exercise.
type fakeConversationRepo struct {
	mu        sync.Mutex
	convs     map[ids.ConversationID]conversation.Conversation
	directKey map[string]ids.ConversationID
}

func newFakeConversationRepo() *fakeConversationRepo {
	return &fakeConversationRepo{
		convs:     make(map[ids.ConversationID]conversation.Conversation),
		directKey: make(map[string]ids.ConversationID),
	}
}

func (r *fakeConversationRepo) Create(_ context.Context, c *conversation.Conversation) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	if c.DirectKey != nil {
		if _, exists := r.directKey[*c.DirectKey]; exists {
			return pulse_errors.ErrAlreadyExists
		}
		r.directKey[*c.DirectKey] = c.ID
	}
	r.convs[c.ID] = *c
	return nil
}

func (r *fakeConversationRepo) GetByID(_ context.Context, id ids.ConversationID) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[id]
	if !ok {
		return conversation.Conversation{}, pulse_errors.ErrNotFound
	}
	return c, nil
}

func (r *fakeConversationRepo) GetByDirectKey(_ context.Context, key string) (conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id, ok := r.directKey[key]
	if !ok {
		return conversation.Conversation{}, pulse_errors.ErrNotFound
	}
	return r.convs[id], nil
}

func (r *fakeConversationRepo) GetUserConversations(_ context.Context, userID ids.UserID) ([]conversation.Conversation, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []conversation.Conversation
	for _, c := range r.convs {
		if c.HasParticipant(userID) {
			out = append(out, c)
		}
	}
	return out, nil
}

func (r *fakeConversationRepo) IsParticipant(_ context.Context, conversationID ids.ConversationID, userID ids.UserID) (bool, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[conversationID]
	if !ok {
		return false, nil
	}
	return c.HasParticipant(userID), nil
}

func (r *fakeConversationRepo) SetLastMessage(_ context.Context, conversationID ids.ConversationID, messageID ids.MessageID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	c, ok := r.convs[conversationID]
	if !ok {
		return pulse_errors.ErrNotFound
	}
	mid := messageID
	c.LastMessageID = &mid
	r.convs[conversationID] = c
	return nil
}

// setLastMessageRaw lets tests plant a dangling pointer.
func (r *fakeConversationRepo) setLastMessageRaw(conversationID ids.ConversationID, messageID ids.MessageID) {
	r.mu.Lock()
	defer r.mu.Unlock()
	c := r.convs[conversationID]
	c.LastMessageID = &messageID
	r.convs[conversationID] = c
}

// fakeMessageRepo keeps insertion order through a sequence counter, like the
// real table's autoincrement column.
type fakeMessageRepo struct {
	mu   sync.Mutex
	msgs map[ids.MessageID]message.Message
	seq  int64
}

func newFakeMessageRepo() *fakeMessageRepo {
	return &fakeMessageRepo{msgs: make(map[ids.MessageID]message.Message)}
}

func (r *fakeMessageRepo) Create(_ context.Context, m *message.Message) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.seq++
	m.Seq = r.seq
	r.msgs[m.ID] = *m
	return nil
}

func (r *fakeMessageRepo) GetByID(_ context.Context, id ids.MessageID) (message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok {
		return message.Message{}, pulse_errors.ErrNotFound
	}
	return m, nil
}

func (r *fakeMessageRepo) ListByConversation(_ context.Context, conversationID ids.ConversationID) ([]message.Message, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []message.Message
	for _, m := range r.msgs {
		if m.ConversationID == conversationID {
			out = append(out, m)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].CreatedAt.Equal(out[j].CreatedAt) {
			return out[i].Seq < out[j].Seq
		}
		return out[i].CreatedAt.Before(out[j].CreatedAt)
	})
	return out, nil
}

func (r *fakeMessageRepo) SoftDelete(_ context.Context, id ids.MessageID, placeholder string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[id]
	if !ok {
		return pulse_errors.ErrNotFound
	}
	m.IsDeleted = true
	m.Content = placeholder
	r.msgs[id] = m
	return nil
}

func (r *fakeMessageRepo) MarkConversationRead(_ context.Context, conversationID ids.ConversationID, readerID ids.UserID) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for id, m := range r.msgs {
		if m.ConversationID == conversationID && m.SenderID != readerID && !m.IsRead {
			m.IsRead = true
			r.msgs[id] = m
		}
	}
	return nil
}

func (r *fakeMessageRepo) UnreadCount(_ context.Context, conversationID ids.ConversationID, userID ids.UserID) (int64, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var count int64
	for _, m := range r.msgs {
		if m.ConversationID == conversationID && m.SenderID != userID && !m.IsRead {
			count++
		}
	}
	return count, nil
}

func (r *fakeMessageRepo) AddReaction(_ context.Context, reaction *message.Reaction) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[reaction.MessageID]
	if !ok {
		return pulse_errors.ErrNotFound
	}
	for _, existing := range m.Reactions {
		if existing.UserID == reaction.UserID && existing.Emoji == reaction.Emoji {
			return pulse_errors.ErrAlreadyExists
		}
	}
	m.Reactions = append(m.Reactions, *reaction)
	r.msgs[reaction.MessageID] = m
	return nil
}

func (r *fakeMessageRepo) RemoveReaction(_ context.Context, messageID ids.MessageID, userID ids.UserID, emoji string) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	m, ok := r.msgs[messageID]
	if !ok {
		return pulse_errors.ErrNotFound
	}
	for i, existing := range m.Reactions {
		if existing.UserID == userID && existing.Emoji == emoji {
			m.Reactions = append(m.Reactions[:i], m.Reactions[i+1:]...)
			r.msgs[messageID] = m
			return nil
		}
	}
	return pulse_errors.ErrNotFound
}

type typingKey struct {
	conv ids.ConversationID
	user ids.UserID
}

type fakeTypingRepo struct {
	mu      sync.Mutex
	signals map[typingKey]typing.Signal
}

func newFakeTypingRepo() *fakeTypingRepo {
	return &fakeTypingRepo{signals: make(map[typingKey]typing.Signal)}
}

func (r *fakeTypingRepo) Upsert(_ context.Context, s typing.Signal) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.signals[typingKey{s.ConversationID, s.UserID}] = s
	return nil
}

func (r *fakeTypingRepo) ListByConversation(_ context.Context, conversationID ids.ConversationID) ([]typing.Signal, error) {
	r.mu.Lock()
	defer r.mu.Unlock()
	var out []typing.Signal
	for _, s := range r.signals {
		if s.ConversationID == conversationID {
			out = append(out, s)
		}
	}
	return out, nil
}

func (r *fakeTypingRepo) DeleteBefore(_ context.Context, cutoff time.Time) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	for k, s := range r.signals {
		if s.LastTypedAt.Before(cutoff) {
			delete(r.signals, k)
		}
	}
	return nil
}

// capturingPublisher records everything published so tests can assert on
// event timing and count.
type capturingPublisher struct {
	mu       sync.Mutex
	channels []string
	events   []events.Event
}

func (p *capturingPublisher) Publish(_ context.Context, channel string, ev events.Event) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.channels = append(p.channels, channel)
	p.events = append(p.events, ev)
	return nil
}

func (p *capturingPublisher) byType(eventType string) []events.Event {
	p.mu.Lock()
	defer p.mu.Unlock()
	var out []events.Event
	for _, ev := range p.events {
		if ev.Type == eventType {
			out = append(out, ev)
		}
	}
	return out
}

// seedUser inserts a directory record straight into the fake.
func seedUser(repo *fakeUserRepo, name string) user.User {
	u := user.User{
		ID:            ids.NewUserID(),
		AuthSubjectID: "auth_" + name,
		Name:          name,
		Email:         name + "@example.com",
	}
	repo.mu.Lock()
	repo.users[u.ID] = u
	repo.mu.Unlock()
	return u
}
