package main

import (
	"bytes"
	"testing"

	"github.com/dushixiang/leverquest/pkg/posmath"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestPositionReport(t *testing.T) {
	entryPrice, currentPrice, collateral, leverage, side = "3456.78", "3580.45", "1000", 3, "LONG"
	in, err := positionInputs()
	require.NoError(t, err)
	assert.Equal(t, posmath.SideLong, in.Side)

	snap, err := posmath.Evaluate(in)
	require.NoError(t, err)

	var buf bytes.Buffer
	printPosition(&buf, in, snap)
	out := buf.String()
	assert.Contains(t, out, "3000.00 USDT")
	assert.Contains(t, out, "107.33 USDT (10.73%)")
	assert.Contains(t, out, "health:            32.4% [warning]")
}

func TestPositionReport_Safe(t *testing.T) {
	entryPrice, currentPrice, collateral, leverage, side = "100", "120", "500", 2, "long"
	in, err := positionInputs()
	require.NoError(t, err)

	snap, err := posmath.Evaluate(in)
	require.NoError(t, err)

	var buf bytes.Buffer
	printPosition(&buf, in, snap)
	out := buf.String()
	assert.Contains(t, out, "liquidation price: 55.0000")
	assert.Contains(t, out, "[safe]")
}

func TestPositionInputs_InvalidNumber(t *testing.T) {
	entryPrice, currentPrice, collateral = "abc", "", "10"
	_, err := positionInputs()
	assert.Error(t, err)
}

func TestBossReport(t *testing.T) {
	changePercent, volume, volatility, resistance, price = "6", "2000000", "0.4", "3600, 3700,3800", "3500"
	in, err := marketInput()
	require.NoError(t, err)
	assert.Equal(t, []float64{3600, 3700, 3800}, in.ResistanceLevels)

	boss, err := posmath.ComputeBossStat(in)
	require.NoError(t, err)

	var buf bytes.Buffer
	printBoss(&buf, boss)
	out := buf.String()
	assert.Contains(t, out, "type:   bull")
	assert.Contains(t, out, "armor:  3")
	assert.Contains(t, out, "morale: aggressive")
}
