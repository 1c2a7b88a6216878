package events

import "context"

// Event types published on the broker. The transport layer fans these out to
// connected clients; other instances consume them for cross-node delivery.
const (
	TypeMessageSent         = "message.sent"
	TypeMessageDeleted      = "message.deleted"
	TypeMessageRead         = "message.read"
	TypeReactionToggled     = "message.reaction_toggled"
	TypeConversationCreated = "conversation.created"
	TypeTypingPulse         = "typing.pulse"
	TypePresenceChanged     = "presence.changed"
)

type Event struct {
	Type      string      `json:"type"`
	Payload   interface{} `json:"payload"`
	Timestamp int64       `json:"timestamp"`
}

type Handler func(ctx context.Context, event Event) error

type Publisher interface {
	Publish(ctx context.Context, channel string, event Event) error
}

type Subscriber interface {
	Subscribe(ctx context.Context, channel string, handler Handler) error
}

type Broker interface {
	Publisher
	Subscriber
}
