package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse-chat/internal/domain/ids"
	"pulse-chat/internal/domain/message"
	"pulse-chat/internal/domain/user"
	pulse_errors "pulse-chat/pkg/errors"
	"pulse-chat/pkg/logger"
)

type messageFixture struct {
	svc      *MessageService
	convSvc  *ConversationService
	msgRepo  *fakeMessageRepo
	convRepo *fakeConversationRepo
	userRepo *fakeUserRepo
	clock    *fakeClock
	alice    user.User
	bob      user.User
	convID   ids.ConversationID
}

func newMessageFixture(t *testing.T) *messageFixture {
	t.Helper()
	f := &messageFixture{
		msgRepo:  newFakeMessageRepo(),
		convRepo: newFakeConversationRepo(),
		userRepo: newFakeUserRepo(),
		clock:    newFakeClock(),
	}
	f.svc = NewMessageService(nil, f.msgRepo, f.convRepo, f.userRepo, nil, logger.NewNop())
	f.svc.now = f.clock.Now
	f.convSvc = NewConversationService(nil, f.convRepo, f.userRepo, nil, logger.NewNop())
	f.convSvc.now = f.clock.Now

	f.alice = seedUser(f.userRepo, "alice")
	f.bob = seedUser(f.userRepo, "bob")

	id, err := f.convSvc.CreateDirect(context.Background(), f.alice.ID, f.bob.ID)
	require.NoError(t, err)
	f.convID = id
	return f
}

func (f *messageFixture) send(t *testing.T, sender ids.UserID, content string) message.Message {
	t.Helper()
	m, err := f.svc.Send(context.Background(), SendMessageInput{
		ConversationID: f.convID,
		SenderID:       sender,
		Content:        content,
		Type:           message.TypeText,
	})
	require.NoError(t, err)
	return m
}

func TestSendMessageUpdatesLastMessagePointer(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	m := f.send(t, f.alice.ID, "hello")

	conv, err := f.convRepo.GetByID(ctx, f.convID)
	require.NoError(t, err)
	require.NotNil(t, conv.LastMessageID)
	assert.Equal(t, m.ID, *conv.LastMessageID)

	f.clock.Advance(time.Second)
	m2 := f.send(t, f.bob.ID, "hi back")

	conv, err = f.convRepo.GetByID(ctx, f.convID)
	require.NoError(t, err)
	assert.Equal(t, m2.ID, *conv.LastMessageID)
}

func TestSendMessageReadAfterWrite(t *testing.T) {
	f := newMessageFixture(t)

	sent := f.send(t, f.alice.ID, "hello")

	views, err := f.svc.ListByConversation(context.Background(), f.convID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.Equal(t, sent.ID, views[0].ID)
	assert.Equal(t, "hello", views[0].Content)
	assert.Equal(t, f.alice.ID, views[0].Sender.ID)
	assert.False(t, views[0].IsRead)
	assert.False(t, views[0].IsDeleted)
}

func TestSendMessageValidation(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	_, err := f.svc.Send(ctx, SendMessageInput{ConversationID: f.convID, SenderID: f.alice.ID, Content: "   ", Type: message.TypeText})
	assert.ErrorIs(t, err, pulse_errors.ErrInvalidInput)

	_, err = f.svc.Send(ctx, SendMessageInput{ConversationID: f.convID, SenderID: f.alice.ID, Content: "x", Type: message.Type("gif")})
	assert.ErrorIs(t, err, pulse_errors.ErrInvalidInput)

	_, err = f.svc.Send(ctx, SendMessageInput{ConversationID: ids.NewConversationID(), SenderID: f.alice.ID, Content: "x", Type: message.TypeText})
	assert.ErrorIs(t, err, pulse_errors.ErrNotFound)

	_, err = f.svc.Send(ctx, SendMessageInput{ConversationID: f.convID, SenderID: ids.NewUserID(), Content: "x", Type: message.TypeText})
	assert.ErrorIs(t, err, pulse_errors.ErrNotFound)
}

func TestSoftDeleteReplacesContentAndIsTerminal(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	m := f.send(t, f.alice.ID, "regret this")
	require.NoError(t, f.svc.ToggleReaction(ctx, m.ID, f.bob.ID, "👍"))

	require.NoError(t, f.svc.SoftDelete(ctx, m.ID))
	// Idempotent: a second delete is a no-op, not an error.
	require.NoError(t, f.svc.SoftDelete(ctx, m.ID))

	views, err := f.svc.ListByConversation(ctx, f.convID)
	require.NoError(t, err)
	require.Len(t, views, 1)
	assert.True(t, views[0].IsDeleted)
	assert.Equal(t, message.DeletedPlaceholder, views[0].Content)
	// Reactions survive deletion.
	require.Len(t, views[0].Reactions, 1)
	assert.Equal(t, "👍", views[0].Reactions[0].Emoji)
}

func TestSoftDeleteUnknownMessage(t *testing.T) {
	f := newMessageFixture(t)
	err := f.svc.SoftDelete(context.Background(), ids.NewMessageID())
	assert.ErrorIs(t, err, pulse_errors.ErrNotFound)
}

func TestMarkReadOnlyFlipsOtherSenders(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	fromBob := f.send(t, f.bob.ID, "one")
	fromAlice := f.send(t, f.alice.ID, "two")

	count, err := f.svc.UnreadCount(ctx, f.convID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	require.NoError(t, f.svc.MarkRead(ctx, f.convID, f.alice.ID))

	count, err = f.svc.UnreadCount(ctx, f.convID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(0), count)

	// Alice's own message stays unread from Bob's side until Bob marks.
	count, err = f.svc.UnreadCount(ctx, f.convID, f.bob.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)

	got, err := f.msgRepo.GetByID(ctx, fromBob.ID)
	require.NoError(t, err)
	assert.True(t, got.IsRead)
	got, err = f.msgRepo.GetByID(ctx, fromAlice.ID)
	require.NoError(t, err)
	assert.False(t, got.IsRead)
}

func TestMarkReadMonotonicAndRepeatable(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	f.send(t, f.bob.ID, "one")
	require.NoError(t, f.svc.MarkRead(ctx, f.convID, f.alice.ID))
	require.NoError(t, f.svc.MarkRead(ctx, f.convID, f.alice.ID))

	// A send after the mark is unread again.
	f.clock.Advance(time.Second)
	f.send(t, f.bob.ID, "two")
	count, err := f.svc.UnreadCount(ctx, f.convID, f.alice.ID)
	require.NoError(t, err)
	assert.Equal(t, int64(1), count)
}

func TestToggleReactionAddRemoveAdd(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	m := f.send(t, f.alice.ID, "react to me")

	require.NoError(t, f.svc.ToggleReaction(ctx, m.ID, f.bob.ID, "🔥"))
	got, err := f.msgRepo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.HasReaction(f.bob.ID, "🔥"))

	require.NoError(t, f.svc.ToggleReaction(ctx, m.ID, f.bob.ID, "🔥"))
	got, err = f.msgRepo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.False(t, got.HasReaction(f.bob.ID, "🔥"))

	require.NoError(t, f.svc.ToggleReaction(ctx, m.ID, f.bob.ID, "🔥"))
	got, err = f.msgRepo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.True(t, got.HasReaction(f.bob.ID, "🔥"))
}

func TestToggleReactionIsPerUserPerEmoji(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()
	m := f.send(t, f.alice.ID, "popular")

	require.NoError(t, f.svc.ToggleReaction(ctx, m.ID, f.bob.ID, "🔥"))
	require.NoError(t, f.svc.ToggleReaction(ctx, m.ID, f.bob.ID, "👍"))
	require.NoError(t, f.svc.ToggleReaction(ctx, m.ID, f.alice.ID, "🔥"))

	got, err := f.msgRepo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, got.Reactions, 3)

	// Removing Bob's 🔥 leaves the other two intact.
	require.NoError(t, f.svc.ToggleReaction(ctx, m.ID, f.bob.ID, "🔥"))
	got, err = f.msgRepo.GetByID(ctx, m.ID)
	require.NoError(t, err)
	assert.Len(t, got.Reactions, 2)
	assert.True(t, got.HasReaction(f.bob.ID, "👍"))
	assert.True(t, got.HasReaction(f.alice.ID, "🔥"))
}

func TestToggleReactionMissingMessageIsSilent(t *testing.T) {
	f := newMessageFixture(t)
	err := f.svc.ToggleReaction(context.Background(), ids.NewMessageID(), f.bob.ID, "🔥")
	assert.NoError(t, err)
}

func TestToggleReactionValidation(t *testing.T) {
	f := newMessageFixture(t)
	m := f.send(t, f.alice.ID, "hello")
	err := f.svc.ToggleReaction(context.Background(), m.ID, f.bob.ID, "")
	assert.ErrorIs(t, err, pulse_errors.ErrInvalidInput)
}

func TestListByConversationInsertionOrder(t *testing.T) {
	f := newMessageFixture(t)
	ctx := context.Background()

	first := f.send(t, f.alice.ID, "first")
	f.clock.Advance(time.Second)
	second := f.send(t, f.bob.ID, "second")
	f.clock.Advance(time.Second)
	third := f.send(t, f.alice.ID, "third")

	views, err := f.svc.ListByConversation(ctx, f.convID)
	require.NoError(t, err)
	require.Len(t, views, 3)
	assert.Equal(t, first.ID, views[0].ID)
	assert.Equal(t, second.ID, views[1].ID)
	assert.Equal(t, third.ID, views[2].ID)
}

func TestListByConversationUnknownConversation(t *testing.T) {
	f := newMessageFixture(t)
	_, err := f.svc.ListByConversation(context.Background(), ids.NewConversationID())
	assert.ErrorIs(t, err, pulse_errors.ErrNotFound)
}
