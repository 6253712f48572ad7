package events

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBus_PublishReachesTopicSubscribersOnly(t *testing.T) {
	bus := NewBus(nil)

	header := bus.Subscribe(TopicSettings, 1)
	sidebar := bus.Subscribe(TopicSettings, 1)
	profile := bus.Subscribe(TopicUser, 1)
	defer header.Close()
	defer sidebar.Close()
	defer profile.Close()

	bus.Publish(Event{Topic: TopicSettings, Fields: []string{"language"}})

	for _, sub := range []*Subscription{header, sidebar} {
		select {
		case e := <-sub.C:
			assert.True(t, e.Has("language"))
			assert.False(t, e.Has("theme"))
		default:
			t.Fatal("expected an event")
		}
	}

	select {
	case e := <-profile.C:
		t.Fatalf("unexpected event on user topic: %+v", e)
	default:
	}
}

func TestBus_PublishDoesNotBlockOnFullBuffer(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe(TopicSettings, 1)
	defer sub.Close()

	bus.Publish(Event{Topic: TopicSettings})
	bus.Publish(Event{Topic: TopicSettings})

	require.Len(t, sub.C, 1)
}

func TestSubscription_CloseIsIdempotentAndClosesChannel(t *testing.T) {
	bus := NewBus(nil)
	sub := bus.Subscribe(TopicSession, 0)
	require.Equal(t, 1, bus.Subscribers(TopicSession))

	sub.Close()
	sub.Close()

	_, ok := <-sub.C
	assert.False(t, ok)
	assert.Equal(t, 0, bus.Subscribers(TopicSession))

	bus.Publish(Event{Topic: TopicSession})
}
