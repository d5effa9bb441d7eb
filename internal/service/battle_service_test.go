package service

import (
	"testing"

	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/pkg/posmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func ethPosition() *models.Position {
	return &models.Position{
		ID:               "01HPOSITION",
		Symbol:           "ETH/USDT",
		Side:             "long",
		Leverage:         3,
		EntryPrice:       3456.78,
		CurrentPrice:     3456.78,
		Amount:           3000 / 3456.78,
		Collateral:       1000,
		LiquidationPrice: 3456.78 * 0.7,
		Health:           30,
		Status:           models.PositionStatusOpen,
	}
}

func TestBuildBattle_Bull(t *testing.T) {
	snapshot := &models.MarketSnapshot{
		Symbol:     "ETH",
		Price:      3580.45,
		Change24h:  6,
		Volume24h:  2_000_000,
		Volatility: 0.4,
		Resistance: []float64{3600, 3700, 3800},
	}

	view, err := BuildBattle(ethPosition(), snapshot)
	require.NoError(t, err)

	assert.Equal(t, "ETH Bull King", view.Boss.Name)
	assert.Equal(t, posmath.BossBull, view.Boss.Type)
	assert.Equal(t, 3, view.Boss.Armor)
	assert.Equal(t, posmath.MoraleAggressive, view.Boss.Morale)
	assert.Equal(t, 100.0, view.Boss.MaxHP)

	assert.Equal(t, "3x leverage sword", view.Player.Weapon)
	assert.Equal(t, 1000.0, view.Player.Ammo)
	assert.Equal(t, 100.0, view.Player.MaxHP)
	assert.InDelta(t, 107.33, view.Player.Pnl, 0.01)
	assert.InDelta(t, 10.73, view.Player.PnlPercent, 0.01)
	assert.InDelta(t, (3580.45-3456.78*0.7)/3580.45*100, view.Player.HP, 1e-9)
	assert.Equal(t, 3580.45, view.CurrentPrice)
}

func TestBuildBattle_ClosedPositionKeepsFinalValues(t *testing.T) {
	p := ethPosition()
	p.Status = models.PositionStatusLiquidated
	p.Pnl = -1000
	p.PnlPercent = -100
	p.Health = 0
	p.CurrentPrice = 2400

	view, err := BuildBattle(p, &models.MarketSnapshot{Symbol: "ETH", Price: 3000, Change24h: -8, Volume24h: 300_000})
	require.NoError(t, err)

	assert.Equal(t, "ETH Bear Tyrant", view.Boss.Name)
	assert.Equal(t, posmath.MoraleWeak, view.Boss.Morale)
	assert.Equal(t, -1000.0, view.Player.Pnl)
	assert.Equal(t, 0.0, view.Player.HP)
	assert.Equal(t, posmath.TierDanger, view.Player.Tier)
	assert.Equal(t, 2400.0, view.CurrentPrice)
}

func TestBossFor_Crab(t *testing.T) {
	boss, err := BossFor(&models.MarketSnapshot{Symbol: "SOL", Price: 142.34, Change24h: 1, Volume24h: 800_000})
	require.NoError(t, err)
	assert.Equal(t, "SOL Crab General", boss.Name)
	assert.Equal(t, 0, boss.Armor)

	_, err = BossFor(&models.MarketSnapshot{Symbol: "SOL"})
	assert.ErrorIs(t, err, posmath.ErrInvalidArgument)
}
