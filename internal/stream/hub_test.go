package stream

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/dushixiang/leverquest/internal/event"
	"github.com/gorilla/websocket"
	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestClientSubscription(t *testing.T) {
	c := &client{subs: map[string]bool{"*": true}}
	assert.True(t, c.isSubscribed(event.TopicPriceTick))

	c.handleSubscription(subscribeMsg{Action: "subscribe", Topics: []string{"position.*"}})
	assert.False(t, c.isSubscribed(event.TopicPriceTick))
	assert.True(t, c.isSubscribed(event.TopicPositionDanger))

	c.handleSubscription(subscribeMsg{Action: "subscribe", Topics: []string{"price.flash"}})
	assert.True(t, c.isSubscribed(event.TopicPriceFlash))
	assert.False(t, c.isSubscribed(event.TopicPriceTick))

	c.handleSubscription(subscribeMsg{Action: "unsubscribe", Topics: []string{"position.*"}})
	assert.False(t, c.isSubscribed(event.TopicPositionDanger))
}

func readEnvelope(t *testing.T, conn *websocket.Conn) map[string]interface{} {
	t.Helper()
	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, data, err := conn.ReadMessage()
	require.NoError(t, err)
	var m map[string]interface{}
	require.NoError(t, json.Unmarshal(data, &m))
	return m
}

func TestHub_StreamsFilteredEvents(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	hub := NewHub(zap.NewNop(), bus)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	go hub.Run(ctx)

	e := echo.New()
	e.GET("/api/stream", hub.Handle)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream?topic=position.*"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	hello := readEnvelope(t, conn)
	assert.Equal(t, "hello", hello["type"])

	bus.Publish(event.TopicPriceTick, event.PricePayload{Symbol: "ETH", Price: 3456.78})
	bus.Publish(event.TopicPositionLiquidated, event.PositionPayload{ID: "p1", Symbol: "ETH/USDT"})

	msg := readEnvelope(t, conn)
	assert.Equal(t, "position.liquidated", msg["type"])
	payload := msg["payload"].(map[string]interface{})
	assert.Equal(t, "p1", payload["id"])
	assert.Equal(t, 1, hub.ClientCount())
}

func TestHub_StoppedHubDoesNotBlock(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	hub := NewHub(zap.NewNop(), bus)

	ctx, cancel := context.WithCancel(context.Background())
	stopped := make(chan struct{})
	go func() {
		hub.Run(ctx)
		close(stopped)
	}()

	c := &client{hub: hub, send: make(chan []byte, 1), subs: map[string]bool{"*": true}}
	require.True(t, hub.join(c))
	cancel()
	<-stopped

	_, open := <-c.send
	assert.False(t, open)

	finished := make(chan struct{})
	go func() {
		hub.leave(c)
		assert.False(t, hub.join(&client{hub: hub, send: make(chan []byte, 1)}))
		close(finished)
	}()
	select {
	case <-finished:
	case <-time.After(2 * time.Second):
		t.Fatal("register/unregister blocked after hub stopped")
	}
	assert.Equal(t, 0, hub.ClientCount())
}

func TestHub_HandleAfterStop(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	hub := NewHub(zap.NewNop(), bus)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	hub.Run(ctx)

	e := echo.New()
	e.GET("/api/stream", hub.Handle)
	srv := httptest.NewServer(e)
	defer srv.Close()

	url := "ws" + strings.TrimPrefix(srv.URL, "http") + "/api/stream"
	conn, _, err := websocket.DefaultDialer.Dial(url, nil)
	require.NoError(t, err)
	defer conn.Close()

	require.NoError(t, conn.SetReadDeadline(time.Now().Add(5*time.Second)))
	_, _, err = conn.ReadMessage()
	assert.Error(t, err)
}
