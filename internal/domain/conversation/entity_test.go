package conversation

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"pulse-chat/internal/domain/ids"
)

func TestDirectKeyForIsOrderInsensitive(t *testing.T) {
	a := ids.NewUserID()
	b := ids.NewUserID()

	assert.Equal(t, DirectKeyFor(a, b), DirectKeyFor(b, a))
	assert.NotEqual(t, DirectKeyFor(a, b), DirectKeyFor(a, ids.NewUserID()))
}

func TestOtherParticipant(t *testing.T) {
	a := ids.NewUserID()
	b := ids.NewUserID()
	direct := Conversation{
		Kind: KindDirect,
		Participants: []Participant{
			{UserID: a},
			{UserID: b},
		},
	}

	other, ok := direct.OtherParticipant(a)
	assert.True(t, ok)
	assert.Equal(t, b, other)

	_, ok = direct.OtherParticipant(ids.NewUserID())
	assert.False(t, ok, "non-members have no counterpart")

	group := direct
	group.Kind = KindGroup
	_, ok = group.OtherParticipant(a)
	assert.False(t, ok, "groups have no single counterpart")
}

func TestHasParticipant(t *testing.T) {
	a := ids.NewUserID()
	c := Conversation{Participants: []Participant{{UserID: a}}}

	assert.True(t, c.HasParticipant(a))
	assert.False(t, c.HasParticipant(ids.NewUserID()))
}
