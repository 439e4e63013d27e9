package mq

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/jjudge-oj/usersvc/types"
)

// User lifecycle event types.
const (
	UserCreated = "user.created"
	UserUpdated = "user.updated"
	UserDeleted = "user.deleted"
)

const attrEventType = "type"

// UserEvent is the wire payload for user lifecycle notifications.
// It never carries credentials.
type UserEvent struct {
	Type       string    `json:"type"`
	UserID     int       `json:"user_id"`
	Email      string    `json:"email"`
	OccurredAt time.Time `json:"occurred_at"`
}

// NewUserEvent builds an event for user stamped with the current time.
func NewUserEvent(eventType string, user types.User) UserEvent {
	return UserEvent{
		Type:       eventType,
		UserID:     user.ID,
		Email:      user.Email,
		OccurredAt: time.Now().UTC(),
	}
}

// EventPublisher publishes user events to a single channel.
type EventPublisher struct {
	mq      *MQ
	channel string
}

func NewEventPublisher(m *MQ, channel string) *EventPublisher {
	return &EventPublisher{mq: m, channel: channel}
}

// Publish encodes event as JSON and sends it with a type attribute.
func (p *EventPublisher) Publish(ctx context.Context, event UserEvent) error {
	data, err := json.Marshal(event)
	if err != nil {
		return fmt.Errorf("encode user event: %w", err)
	}
	if _, err := p.mq.Publish(ctx, p.channel, data, map[string]string{attrEventType: event.Type}); err != nil {
		return fmt.Errorf("publish %s: %w", event.Type, err)
	}
	return nil
}

// Channel returns the channel events are published to.
func (p *EventPublisher) Channel() string {
	return p.channel
}

// DecodeUserEvent parses a message produced by EventPublisher.
func DecodeUserEvent(msg Message) (UserEvent, error) {
	var event UserEvent
	if err := json.Unmarshal(msg.Data, &event); err != nil {
		return UserEvent{}, fmt.Errorf("decode user event %s: %w", msg.ID, err)
	}
	if event.Type == "" {
		event.Type = msg.Attributes[attrEventType]
	}
	return event, nil
}
