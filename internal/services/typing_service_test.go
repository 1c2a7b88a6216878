package services

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"pulse-chat/internal/domain/ids"
	pulse_errors "pulse-chat/pkg/errors"
	"pulse-chat/pkg/logger"
)

func newTypingFixture(t *testing.T) (*TypingService, *fakeTypingRepo, *fakeUserRepo, *fakeClock) {
	t.Helper()
	repo := newFakeTypingRepo()
	userRepo := newFakeUserRepo()
	clock := newFakeClock()
	svc := NewTypingService(repo, userRepo, nil, logger.NewNop())
	svc.now = clock.Now
	return svc, repo, userRepo, clock
}

func TestListTypingWithinWindow(t *testing.T) {
	svc, _, userRepo, clock := newTypingFixture(t)
	alice := seedUser(userRepo, "alice")
	bob := seedUser(userRepo, "bob")
	convID := ids.NewConversationID()
	ctx := context.Background()

	require.NoError(t, svc.SetTyping(ctx, convID, bob.ID))

	clock.Advance(2000 * time.Millisecond)
	typing, err := svc.ListTyping(ctx, convID, alice.ID)
	require.NoError(t, err)
	require.Len(t, typing, 1)
	assert.Equal(t, bob.ID, typing[0].ID)
}

func TestListTypingExpiresAfterWindow(t *testing.T) {
	svc, _, userRepo, clock := newTypingFixture(t)
	alice := seedUser(userRepo, "alice")
	bob := seedUser(userRepo, "bob")
	convID := ids.NewConversationID()
	ctx := context.Background()

	require.NoError(t, svc.SetTyping(ctx, convID, bob.ID))

	clock.Advance(3500 * time.Millisecond)
	typing, err := svc.ListTyping(ctx, convID, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, typing)
}

func TestListTypingExcludesAsker(t *testing.T) {
	svc, _, userRepo, _ := newTypingFixture(t)
	alice := seedUser(userRepo, "alice")
	convID := ids.NewConversationID()
	ctx := context.Background()

	require.NoError(t, svc.SetTyping(ctx, convID, alice.ID))

	typing, err := svc.ListTyping(ctx, convID, alice.ID)
	require.NoError(t, err)
	assert.Empty(t, typing)
}

func TestSetTypingRefreshesTheSignal(t *testing.T) {
	svc, _, userRepo, clock := newTypingFixture(t)
	alice := seedUser(userRepo, "alice")
	bob := seedUser(userRepo, "bob")
	convID := ids.NewConversationID()
	ctx := context.Background()

	require.NoError(t, svc.SetTyping(ctx, convID, bob.ID))
	clock.Advance(2500 * time.Millisecond)
	// A fresh keystroke restarts the window.
	require.NoError(t, svc.SetTyping(ctx, convID, bob.ID))
	clock.Advance(2500 * time.Millisecond)

	typing, err := svc.ListTyping(ctx, convID, alice.ID)
	require.NoError(t, err)
	require.Len(t, typing, 1)
	assert.Equal(t, bob.ID, typing[0].ID)
}

func TestSetTypingValidation(t *testing.T) {
	svc, _, _, _ := newTypingFixture(t)
	err := svc.SetTyping(context.Background(), ids.ConversationID{}, ids.NewUserID())
	assert.ErrorIs(t, err, pulse_errors.ErrInvalidInput)
}

func TestReapDropsExpiredSignalsOnly(t *testing.T) {
	svc, repo, userRepo, clock := newTypingFixture(t)
	bob := seedUser(userRepo, "bob")
	carol := seedUser(userRepo, "carol")
	convID := ids.NewConversationID()
	ctx := context.Background()

	require.NoError(t, svc.SetTyping(ctx, convID, bob.ID))
	clock.Advance(5 * time.Second)
	require.NoError(t, svc.SetTyping(ctx, convID, carol.ID))

	require.NoError(t, svc.Reap(ctx))

	signals, err := repo.ListByConversation(ctx, convID)
	require.NoError(t, err)
	require.Len(t, signals, 1)
	assert.Equal(t, carol.ID, signals[0].UserID)
}
