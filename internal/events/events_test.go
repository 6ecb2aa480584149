package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEmitDeliversToSubscriber(t *testing.T) {
	e := New()
	ch, unsubscribe := e.Subscribe()
	defer unsubscribe()

	e.Emit("api:image-imported", map[string]string{"filename": "cat.png"})

	select {
	case evt := <-ch:
		assert.Equal(t, "api:image-imported", evt.Name)
	case <-time.After(time.Second):
		t.Fatal("event was not delivered")
	}
}

func TestEmitWithNoSubscribersDoesNotBlock(t *testing.T) {
	e := New()
	require.NotPanics(t, func() { e.Emit("ai:analysis:start", nil) })
}

func TestUnsubscribeStopsDelivery(t *testing.T) {
	e := New()
	ch, unsubscribe := e.Subscribe()
	unsubscribe()

	e.Emit("ai:batch:progress", nil)

	_, ok := <-ch
	assert.False(t, ok, "channel should be closed after unsubscribe")
}

func TestMultipleSubscribersAllReceive(t *testing.T) {
	e := New()
	ch1, unsub1 := e.Subscribe()
	ch2, unsub2 := e.Subscribe()
	defer unsub1()
	defer unsub2()

	e.Emit("api:item-moved", nil)

	for _, ch := range []<-chan Event{ch1, ch2} {
		select {
		case <-ch:
		case <-time.After(time.Second):
			t.Fatal("event was not delivered to all subscribers")
		}
	}
}
