package posmath

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestComputeBossStat_BullScenario(t *testing.T) {
	boss, err := ComputeBossStat(MarketInput{
		PriceChangePercent: 6,
		Volume24h:          2_000_000,
		Volatility:         0.4,
		ResistanceLevels:   []float64{3600, 3700, 3800},
		CurrentPrice:       3500,
	})
	require.NoError(t, err)

	assert.Equal(t, BossBull, boss.Type)
	assert.Equal(t, 3, boss.Armor)
	assert.Equal(t, MoraleAggressive, boss.Morale)
	assert.InDelta(t, 100.0/3500*100*10, boss.HP, 1e-9)
	assert.InDelta(t, 40.0, boss.Attack, 1e-9)
	assert.GreaterOrEqual(t, boss.HP, 0.0)
	assert.LessOrEqual(t, boss.HP, 100.0)
}

func TestBossTypeOf(t *testing.T) {
	assert.Equal(t, BossBull, BossTypeOf(6))
	assert.Equal(t, BossBear, BossTypeOf(-6))
	assert.Equal(t, BossCrab, BossTypeOf(2))
	assert.Equal(t, BossCrab, BossTypeOf(-2))
	assert.Equal(t, BossCrab, BossTypeOf(5))
	assert.Equal(t, BossCrab, BossTypeOf(-5))
}

func TestBossHP(t *testing.T) {
	assert.Less(t, BossHP(3500, 3600), 50.0)
	assert.Greater(t, BossHP(3000, 3600), 50.0)
	assert.Equal(t, 100.0, BossHP(2000, 3600))
	assert.Equal(t, 0.0, BossHP(3700, 3600))
}

func TestNearestResistance(t *testing.T) {
	assert.InDelta(t, 3500*1.1, NearestResistance(3500, nil), 1e-9)
	assert.Equal(t, 3600.0, NearestResistance(3500, []float64{3800, 3600, 3700}))
	assert.Equal(t, 3500.0, NearestResistance(3500, []float64{3500, 3600}))
	// 所有阻力位都已被突破
	assert.Equal(t, 3400.0, NearestResistance(3500, []float64{3300, 3400}))
}

func TestComputeBossStat_NoResistance(t *testing.T) {
	boss, err := ComputeBossStat(MarketInput{
		PriceChangePercent: 0.59,
		Volume24h:          800_000,
		Volatility:         0.15,
		CurrentPrice:       3420,
	})
	require.NoError(t, err)

	assert.Equal(t, BossCrab, boss.Type)
	assert.Equal(t, 0, boss.Armor)
	assert.InDelta(t, 100.0, boss.HP, 1e-6)
	assert.Equal(t, MoraleNeutral, boss.Morale)
}

func TestComputeBossStat_BearScenario(t *testing.T) {
	boss, err := ComputeBossStat(MarketInput{
		PriceChangePercent: -5.88,
		Volume24h:          1_800_000,
		Volatility:         0.6,
		ResistanceLevels:   []float64{3300, 3400},
		CurrentPrice:       3200,
	})
	require.NoError(t, err)

	assert.Equal(t, BossBear, boss.Type)
	assert.Greater(t, boss.Attack, 50.0)
	assert.Equal(t, MoraleWeak, boss.Morale)
}

func TestBossAttack(t *testing.T) {
	assert.Greater(t, BossAttack(0.5), BossAttack(0.1))
	assert.Equal(t, 100.0, BossAttack(1.5))
	assert.Equal(t, 0.0, BossAttack(0))
}

func TestBossMorale(t *testing.T) {
	for _, tc := range []struct {
		change, volume float64
		want           Morale
	}{
		{5, 2_000_000, MoraleAggressive},
		{3.01, 1_000_001, MoraleAggressive},
		{3, 2_000_000, MoraleNeutral},
		{4, 1_000_000, MoraleNeutral},
		{-5, 1_000_000, MoraleWeak},
		{2, 300_000, MoraleWeak},
		{-3.01, 2_000_000, MoraleWeak},
		{1, 499_999, MoraleWeak},
		{1, 500_000, MoraleNeutral},
		{1, 800_000, MoraleNeutral},
	} {
		assert.Equal(t, tc.want, BossMorale(tc.change, tc.volume), "change=%v volume=%v", tc.change, tc.volume)
	}
}

func TestComputeBossStat_Invalid(t *testing.T) {
	for _, in := range []MarketInput{
		{CurrentPrice: 0},
		{CurrentPrice: 100, PriceChangePercent: math.NaN()},
		{CurrentPrice: 100, Volume24h: -1},
		{CurrentPrice: 100, Volatility: math.Inf(1)},
		{CurrentPrice: 100, ResistanceLevels: []float64{110, 0}},
	} {
		_, err := ComputeBossStat(in)
		assert.ErrorIs(t, err, ErrInvalidArgument)
	}
}
