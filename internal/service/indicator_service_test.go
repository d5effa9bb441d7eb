package service

import (
	"context"
	"testing"

	"github.com/dushixiang/leverquest/pkg/exchange"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestIndicatorService_CalculateIndicators(t *testing.T) {
	feed := exchange.NewMockFeed(5, []string{"ETH"})
	klines, err := feed.GetKlines(context.Background(), "ETH", "1h", 200)
	require.NoError(t, err)

	ind := NewIndicatorService().CalculateIndicators(klines)
	require.NotNil(t, ind)

	assert.InDelta(t, 3456.78, ind.Price, 1e-6)
	assert.Greater(t, ind.Volatility, 0.0)
	assert.Greater(t, ind.ATRPercent, 0.0)
	assert.Len(t, ind.PriceSeries, 24)
	for _, r := range ind.Resistance {
		assert.Greater(t, r, ind.Price)
	}
	for _, s := range ind.Support {
		assert.Less(t, s, ind.Price)
	}
}

func TestIndicatorService_NotEnoughKlines(t *testing.T) {
	feed := exchange.NewMockFeed(5, []string{"ETH"})
	klines, err := feed.GetKlines(context.Background(), "ETH", "1h", 10)
	require.NoError(t, err)
	assert.Nil(t, NewIndicatorService().CalculateIndicators(klines))
}
