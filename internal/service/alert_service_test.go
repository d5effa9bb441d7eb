package service

import (
	"context"
	"sync"
	"testing"
	"time"

	"github.com/dushixiang/leverquest/internal/event"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type recordingNotifier struct {
	mu   sync.Mutex
	msgs []string
}

func (n *recordingNotifier) Notify(msg string) error {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.msgs = append(n.msgs, msg)
	return nil
}

func (n *recordingNotifier) messages() []string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return append([]string(nil), n.msgs...)
}

func TestAlertService_Render(t *testing.T) {
	s := NewAlertService(event.NewBus(zap.NewNop()), nil, zap.NewNop())

	kind, msg, ok := s.Render(event.Event{
		Topic: event.TopicPositionLiquidated,
		Payload: event.PositionPayload{
			Symbol: "ETH/USDT", Side: "long", Leverage: 3,
			EntryPrice: 3456.78, CurrentPrice: 2400, LiquidationPrice: 2419.746, Collateral: 1000,
		},
	})
	require.True(t, ok)
	assert.Equal(t, "liquidated", kind)
	assert.Equal(t, "💀 ETH/USDT long 3x was liquidated at 2400.00 (liquidation 2419.75). Lost 1000.00 USDT collateral.", msg)

	kind, msg, ok = s.Render(event.Event{
		Topic:   event.TopicPriceFlash,
		Payload: event.PricePayload{Symbol: "ARB", Price: 1.3, ChangePercent: 5.691},
	})
	require.True(t, ok)
	assert.Equal(t, "flash", kind)
	assert.Equal(t, "⚡ ARB moved +5.69% in one tick, now 1.3000.", msg)

	_, _, ok = s.Render(event.Event{Topic: event.TopicPriceTick})
	assert.False(t, ok)
	_, _, ok = s.Render(event.Event{Topic: event.TopicPositionDanger, Payload: "bad"})
	assert.False(t, ok)
}

func TestAlertService_Run(t *testing.T) {
	bus := event.NewBus(zap.NewNop())
	notifier := &recordingNotifier{}
	s := NewAlertService(bus, notifier, zap.NewNop())

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	done := make(chan struct{})
	go func() {
		s.Run(ctx)
		close(done)
	}()

	payload := event.PositionPayload{Symbol: "BTC/USDT", Side: "short", Leverage: 10, EntryPrice: 95234.56, Health: 12.5}
	require.Eventually(t, func() bool {
		bus.Publish(event.TopicPositionDanger, payload)
		return len(notifier.messages()) > 0
	}, 2*time.Second, 10*time.Millisecond)

	bus.Publish(event.TopicPriceTick, event.PricePayload{Symbol: "BTC"})
	assert.Contains(t, notifier.messages()[0], "BTC/USDT short 10x health 12.5%")

	cancel()
	<-done
}
