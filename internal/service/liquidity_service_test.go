package service

import (
	"context"
	"testing"

	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/internal/xe"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

func TestLiquidityService_Add(t *testing.T) {
	for _, tc := range []struct {
		name     string
		req      AddLiquidityRequest
		wantErr  error
		wantPool string
	}{
		{name: "default pool name", req: AddLiquidityRequest{Token0: "eth", Token1: " usdc ", TotalValue: 2000}, wantPool: "ETH/USDC"},
		{name: "explicit pool name", req: AddLiquidityRequest{PoolName: "ETH-USDC 0.05%", Token0: "ETH", Token1: "USDC", TotalValue: 2000}, wantPool: "ETH-USDC 0.05%"},
		{name: "same token", req: AddLiquidityRequest{Token0: "ETH", Token1: "eth", TotalValue: 2000}, wantErr: xe.ErrInvalidParams},
		{name: "missing token", req: AddLiquidityRequest{Token0: "ETH", TotalValue: 2000}, wantErr: xe.ErrInvalidParams},
	} {
		t.Run(tc.name, func(t *testing.T) {
			svc := NewLiquidityService(newTestDB(t), zap.NewNop())
			lp, err := svc.Add(context.Background(), tc.req)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tc.wantPool, lp.PoolName)
			assert.Equal(t, models.LiquidityStatusActive, lp.Status)
		})
	}
}

func TestLiquidityService_Withdraw(t *testing.T) {
	svc := NewLiquidityService(newTestDB(t), zap.NewNop())
	ctx := context.Background()

	lp, err := svc.Add(ctx, AddLiquidityRequest{Token0: "ETH", Token1: "USDC", TotalValue: 2000, Apy: 12.5})
	require.NoError(t, err)

	loss := 15.5
	withdrawn, err := svc.Withdraw(ctx, lp.ID, WithdrawLiquidityRequest{EarnedFees: 42, ImpermanentLoss: &loss})
	require.NoError(t, err)
	assert.Equal(t, models.LiquidityStatusWithdrawn, withdrawn.Status)
	assert.InDelta(t, 42, withdrawn.EarnedFees, 1e-9)
	assert.InDelta(t, 15.5, withdrawn.ImpermanentLoss, 1e-9)
	require.NotNil(t, withdrawn.WithdrawnAt)

	_, err = svc.Withdraw(ctx, lp.ID, WithdrawLiquidityRequest{EarnedFees: 1})
	assert.ErrorIs(t, err, xe.ErrLiquidityNotActive)

	active, err := svc.List(ctx, models.LiquidityStatusActive)
	require.NoError(t, err)
	assert.Empty(t, active)
	all, err := svc.List(ctx, "")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.InDelta(t, 42, all[0].EarnedFees, 1e-9)

	_, err = svc.List(ctx, "pending")
	assert.ErrorIs(t, err, xe.ErrInvalidParams)
}
