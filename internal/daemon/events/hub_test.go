package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func receive(t *testing.T, ch chan Event) Event {
	t.Helper()
	select {
	case e, ok := <-ch:
		require.True(t, ok, "channel closed")
		return e
	case <-time.After(time.Second):
		t.Fatal("timed out waiting for event")
		return Event{}
	}
}

func TestPublishFanOut(t *testing.T) {
	h := NewHub()
	a := h.Subscribe()
	b := h.Subscribe()
	assert.Equal(t, 2, h.Subscribers())

	h.StoreChanged("settings", "command")

	for _, ch := range []chan Event{a, b} {
		e := receive(t, ch)
		assert.Equal(t, StoreChanged, e.Type)
		assert.Equal(t, "settings", e.Name)
		assert.Equal(t, "command", e.Source)
		assert.False(t, e.Time.IsZero())
	}
}

func TestConfigReloaded(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.ConfigReloaded("scribe.yml")

	e := receive(t, ch)
	assert.Equal(t, ConfigReload, e.Type)
	assert.Equal(t, "scribe.yml", e.Name)
}

func TestPublishDoesNotBlockOnFullSubscriber(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()

	done := make(chan struct{})
	go func() {
		for i := 0; i < subscriberBuffer*2; i++ {
			h.StoreChanged("workspace", "command")
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(2 * time.Second):
		t.Fatal("publish blocked")
	}
	assert.Len(t, ch, subscriberBuffer)
}

func TestUnsubscribe(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Unsubscribe(ch)
	h.Unsubscribe(ch)

	_, ok := <-ch
	assert.False(t, ok)
	assert.Equal(t, 0, h.Subscribers())

	// Publishing with no subscribers is fine
	h.StoreChanged("settings", "command")
}

func TestClose(t *testing.T) {
	h := NewHub()
	ch := h.Subscribe()
	h.Close()

	_, ok := <-ch
	assert.False(t, ok)

	late := h.Subscribe()
	_, ok = <-late
	assert.False(t, ok)

	h.StoreChanged("settings", "command")
	h.Close()
}
