package eventsink

import (
	gocontext "context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	redis "github.com/go-redis/redis/v7"
	"github.com/gorilla/websocket"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	btr "github.com/upstarter/automata-sub005"
)

func testEvent() btr.Event {
	return btr.Event{
		ID:     "evt-1",
		NodeID: "root",
		TSMS:   1000,
		Kind:   btr.EventStatusChange,
		From:   btr.Running,
		To:     btr.Success,
		Reason: "",
	}
}

// TestBroadcastSubscribeReceivesEmit covers the transport-agnostic fan-out
// path: a Subscribe call started before Emit sees the committed event.
func TestBroadcastSubscribeReceivesEmit(t *testing.T) {
	b := NewBroadcast()
	ctx, cancel := gocontext.WithCancel(gocontext.Background())
	defer cancel()

	ch := b.Subscribe(ctx)

	want := testEvent()
	b.Emit(want)

	select {
	case got := <-ch:
		assert.Equal(t, want, got)
	case <-time.After(2 * time.Second):
		t.Fatal("subscriber never received the committed event")
	}
}

// TestWSHubServeHTTPBroadcastsToClient covers WSHub end-to-end: a real
// websocket client connects through httptest, and an Emit reaches it as
// JSON over the wire.
func TestWSHubServeHTTPBroadcastsToClient(t *testing.T) {
	hub := NewWSHub()
	server := httptest.NewServer(http.HandlerFunc(hub.ServeHTTP))
	defer server.Close()

	wsURL := "ws" + server.URL[len("http"):]
	conn, _, err := websocket.DefaultDialer.Dial(wsURL, nil)
	require.NoError(t, err)
	defer conn.Close()

	// Give ServeHTTP's goroutine time to register the client before
	// emitting, since registration happens asynchronously to Dial
	// returning.
	deadline := time.Now().Add(2 * time.Second)
	for {
		hub.mu.Lock()
		n := len(hub.clients)
		hub.mu.Unlock()
		if n > 0 || time.Now().After(deadline) {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}

	want := testEvent()
	hub.Emit(want)

	var got btr.Event
	conn.SetReadDeadline(time.Now().Add(2 * time.Second))
	require.NoError(t, conn.ReadJSON(&got))
	assert.Equal(t, want, got)
}

// TestRedisSinkEmitDoesNotPanicWithoutServer covers RedisSink's
// fire-and-forget contract: an unreachable broker degrades to a swallowed
// Publish error, never a panic, matching the rest of the EventSink
// implementations' "never block or crash the tick loop" behavior.
func TestRedisSinkEmitDoesNotPanicWithoutServer(t *testing.T) {
	client := redis.NewClient(&redis.Options{
		Addr:        "127.0.0.1:1", // nothing listens here.
		DialTimeout: 50 * time.Millisecond,
	})
	defer client.Close()

	sink := NewRedisSink(client, "btr-events")
	assert.NotPanics(t, func() {
		sink.Emit(testEvent())
	})
}
