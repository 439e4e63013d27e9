package mq

import (
	"context"
	"errors"
	"testing"

	"github.com/jjudge-oj/usersvc/config"
	"github.com/jjudge-oj/usersvc/types"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type published struct {
	channel string
	data    []byte
	attrs   map[string]string
}

type fakeBackend struct {
	published  []published
	publishErr error
	closed     bool
}

func (f *fakeBackend) Publish(_ context.Context, channel string, data []byte, attrs map[string]string) (string, error) {
	if f.publishErr != nil {
		return "", f.publishErr
	}
	f.published = append(f.published, published{channel: channel, data: data, attrs: attrs})
	return "msg-1", nil
}

func (f *fakeBackend) Subscribe(ctx context.Context, channel string, handler Handler) error {
	for i, p := range f.published {
		if p.channel != channel {
			continue
		}
		if err := handler(ctx, Message{ID: string(rune('a' + i)), Data: p.data, Attributes: p.attrs}); err != nil {
			return err
		}
	}
	return nil
}

func (f *fakeBackend) Close() error {
	f.closed = true
	return nil
}

func TestEventPublisherRoundTrip(t *testing.T) {
	backend := &fakeBackend{}
	publisher := NewEventPublisher(New(backend), "user-events")

	event := NewUserEvent(UserCreated, types.User{ID: 9, Email: "john@example.com", PasswordHash: "secret-hash"})
	require.NoError(t, publisher.Publish(context.Background(), event))

	require.Len(t, backend.published, 1)
	assert.Equal(t, "user-events", backend.published[0].channel)
	assert.Equal(t, UserCreated, backend.published[0].attrs["type"])
	assert.NotContains(t, string(backend.published[0].data), "secret-hash")

	var got []UserEvent
	err := New(backend).Subscribe(context.Background(), publisher.Channel(), func(_ context.Context, msg Message) error {
		decoded, err := DecodeUserEvent(msg)
		if err != nil {
			return err
		}
		got = append(got, decoded)
		return nil
	})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, 9, got[0].UserID)
	assert.Equal(t, "john@example.com", got[0].Email)
	assert.True(t, got[0].OccurredAt.Equal(event.OccurredAt))
}

func TestEventPublisherWrapsBackendError(t *testing.T) {
	backend := &fakeBackend{publishErr: errors.New("broker down")}
	publisher := NewEventPublisher(New(backend), "user-events")

	err := publisher.Publish(context.Background(), NewUserEvent(UserDeleted, types.User{ID: 1}))
	require.Error(t, err)
	assert.Contains(t, err.Error(), UserDeleted)
}

func TestDecodeUserEventFallsBackToAttribute(t *testing.T) {
	event, err := DecodeUserEvent(Message{
		ID:         "m1",
		Data:       []byte(`{"user_id":4,"email":"a@b.co"}`),
		Attributes: map[string]string{"type": UserUpdated},
	})
	require.NoError(t, err)
	assert.Equal(t, UserUpdated, event.Type)

	_, err = DecodeUserEvent(Message{ID: "m2", Data: []byte("not json")})
	assert.Error(t, err)
}

func TestNewFromConfig(t *testing.T) {
	m, err := NewFromConfig(context.Background(), config.MQConfig{})
	require.NoError(t, err)
	assert.Nil(t, m)
	assert.NoError(t, m.Close())

	_, err = NewFromConfig(context.Background(), config.MQConfig{Backend: "kafka"})
	assert.Error(t, err)

	_, err = NewFromConfig(context.Background(), config.MQConfig{Backend: "rabbitmq"})
	assert.Error(t, err)

	_, err = NewFromConfig(context.Background(), config.MQConfig{Backend: "pubsub"})
	assert.Error(t, err)
}

func TestMQCloseClosesBackend(t *testing.T) {
	backend := &fakeBackend{}
	require.NoError(t, New(backend).Close())
	assert.True(t, backend.closed)
}
