package service

import (
	"context"
	"testing"

	"github.com/dushixiang/leverquest/internal/event"
	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/pkg/posmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestAssess(t *testing.T) {
	for _, tc := range []struct {
		name     string
		health   float64
		previous posmath.Tier
		tier     posmath.Tier
		action   RiskAction
	}{
		{"healthy", 80, "", posmath.TierSafe, RiskActionNone},
		{"warning", 40, posmath.TierSafe, posmath.TierWarning, RiskActionNone},
		{"first danger", 20, posmath.TierWarning, posmath.TierDanger, RiskActionDanger},
		{"new position already in danger", 10, "", posmath.TierDanger, RiskActionDanger},
		{"still danger", 15, posmath.TierDanger, posmath.TierDanger, RiskActionNone},
		{"liquidated", 0, posmath.TierDanger, posmath.TierDanger, RiskActionLiquidate},
		{"liquidated without warning", 0, posmath.TierSafe, posmath.TierDanger, RiskActionLiquidate},
	} {
		t.Run(tc.name, func(t *testing.T) {
			tier, action := Assess(tc.health, tc.previous)
			assert.Equal(t, tc.tier, tier)
			assert.Equal(t, tc.action, action)
		})
	}
}

func TestRiskService_CheckAllLiquidates(t *testing.T) {
	f := newPositionFixture(t)
	ctx := context.Background()
	risk := NewRiskService(f.position, f.bus, zap.NewNop())

	// 10x 多头强平价 91
	doomed, err := f.position.Open(ctx, ethLong(10, 100, 100))
	require.NoError(t, err)
	safe, err := f.position.Open(ctx, ethLong(1, 100, 100))
	require.NoError(t, err)

	f.prices.Set("ETH", 90)
	_, err = f.position.MarkToMarket(ctx)
	require.NoError(t, err)

	report, err := risk.CheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 2, report.Checked)
	assert.Equal(t, []string{doomed.ID}, report.Liquidated)

	got, err := f.position.Get(ctx, doomed.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PositionStatusLiquidated, got.Status)
	assert.InDelta(t, -100, got.Pnl, 1e-9)
	trades := f.trades(t, doomed.ID)
	require.Len(t, trades, 2)
	assert.Equal(t, models.TradeActionLiquidate, trades[1].Action)

	got, err = f.position.Get(ctx, safe.ID)
	require.NoError(t, err)
	assert.True(t, got.IsOpen())

	report, err = risk.CheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, 1, report.Checked)
	assert.Empty(t, report.Liquidated)
}

func TestRiskService_DangerAlertFiresOnce(t *testing.T) {
	f := newPositionFixture(t)
	ctx := context.Background()
	risk := NewRiskService(f.position, f.bus, zap.NewNop())
	sub := f.bus.Subscribe(event.DefaultBuffer, string(event.TopicPositionDanger))
	defer sub.Close()

	// 开仓时健康度 9%，已在危险区
	p, err := f.position.Open(ctx, ethLong(10, 100, 100))
	require.NoError(t, err)

	for i, want := range [][]string{{p.ID}, nil} {
		report, err := risk.CheckAll(ctx)
		require.NoError(t, err)
		assert.Equal(t, want, report.Danger, "check %d", i)
	}
	assert.Len(t, sub.C, 1)

	// 回到安全区后再次跌入危险区会重新预警
	f.prices.Set("ETH", 200)
	_, err = f.position.MarkToMarket(ctx)
	require.NoError(t, err)
	report, err := risk.CheckAll(ctx)
	require.NoError(t, err)
	assert.Empty(t, report.Danger)

	f.prices.Set("ETH", 95)
	_, err = f.position.MarkToMarket(ctx)
	require.NoError(t, err)
	report, err = risk.CheckAll(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{p.ID}, report.Danger)
	assert.Len(t, sub.C, 2)
}
