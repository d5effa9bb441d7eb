package service

import (
	"context"
	"fmt"
	"sync"
	"testing"

	"github.com/dushixiang/leverquest/internal/config"
	"github.com/dushixiang/leverquest/internal/event"
	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/internal/xe"
	"github.com/dushixiang/leverquest/pkg/exchange"
	"github.com/dushixiang/leverquest/pkg/posmath"
	"github.com/glebarez/sqlite"
	"github.com/oklog/ulid/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/gorm"
	gormlogger "gorm.io/gorm/logger"
)

// newTestDB 每个测试独立的内存数据库
func newTestDB(t *testing.T) *gorm.DB {
	t.Helper()
	dsn := fmt.Sprintf("file:%s?mode=memory&cache=shared", ulid.Make().String())
	db, err := gorm.Open(sqlite.Open(dsn), &gorm.Config{
		Logger: gormlogger.Default.LogMode(gormlogger.Silent),
	})
	require.NoError(t, err)

	sqlDB, err := db.DB()
	require.NoError(t, err)
	sqlDB.SetMaxOpenConns(1)
	t.Cleanup(func() { _ = sqlDB.Close() })

	require.NoError(t, db.AutoMigrate(
		&models.Position{},
		&models.Trade{},
		&models.LiquidityPosition{},
		&models.Wallet{},
	))
	return db
}

// fixedPrices 价格可由测试修改的行情源
type fixedPrices struct {
	mu     sync.Mutex
	prices map[string]float64
}

func newFixedPrices(prices map[string]float64) *fixedPrices {
	return &fixedPrices{prices: prices}
}

func (f *fixedPrices) Set(symbol string, price float64) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.prices[exchange.BaseAsset(symbol)] = price
}

func (f *fixedPrices) GetCurrentPrice(_ context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	price, ok := f.prices[exchange.BaseAsset(symbol)]
	if !ok {
		return 0, exchange.ErrUnknownSymbol
	}
	return price, nil
}

func (f *fixedPrices) GetTicker(ctx context.Context, symbol string) (*exchange.Ticker, error) {
	price, err := f.GetCurrentPrice(ctx, symbol)
	if err != nil {
		return nil, err
	}
	base := exchange.BaseAsset(symbol)
	return &exchange.Ticker{Symbol: base, Name: exchange.AssetName(base), LastPrice: price}, nil
}

func (f *fixedPrices) GetKlines(context.Context, string, string, int) ([]*exchange.Kline, error) {
	return nil, exchange.ErrUnknownSymbol
}

func (f *fixedPrices) Symbols() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	symbols := make([]string, 0, len(f.prices))
	for s := range f.prices {
		symbols = append(symbols, s)
	}
	return symbols
}

type positionFixture struct {
	db       *gorm.DB
	bus      *event.Bus
	prices   *fixedPrices
	position *PositionService
}

func newPositionFixture(t *testing.T) *positionFixture {
	t.Helper()
	db := newTestDB(t)
	logger := zap.NewNop()
	bus := event.NewBus(logger)
	prices := newFixedPrices(map[string]float64{"ETH": 3000})
	market := NewMarketService(db, &config.Config{}, prices, nil, logger)
	return &positionFixture{
		db:       db,
		bus:      bus,
		prices:   prices,
		position: NewPositionService(db, market, bus, logger),
	}
}

func (f *positionFixture) trades(t *testing.T, positionID string) []models.Trade {
	t.Helper()
	trades, err := f.position.tradeRepo.FindByPositionID(context.Background(), positionID)
	require.NoError(t, err)
	return trades
}

func ethLong(leverage int, entry, collateral float64) OpenPositionRequest {
	return OpenPositionRequest{
		Symbol:     "eth",
		Chain:      "arbitrum",
		Side:       "long",
		Leverage:   leverage,
		EntryPrice: entry,
		Collateral: collateral,
	}
}

func TestPositionService_Open(t *testing.T) {
	f := newPositionFixture(t)
	ctx := context.Background()

	p, err := f.position.Open(ctx, ethLong(3, 3000, 1000))
	require.NoError(t, err)
	assert.Equal(t, "ETH/USDT", p.Symbol)
	assert.Equal(t, models.PositionStatusOpen, p.Status)
	assert.InDelta(t, 1.0, p.Amount, 1e-9)
	assert.InDelta(t, 2100, p.LiquidationPrice, 1e-6)
	assert.InDelta(t, 30, p.Health, 1e-6)

	stored, err := f.position.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, p.ID, stored.ID)
	assert.InDelta(t, 2100, stored.LiquidationPrice, 1e-6)

	trades := f.trades(t, p.ID)
	require.Len(t, trades, 1)
	assert.Equal(t, models.TradeActionOpen, trades[0].Action)
	assert.InDelta(t, 3000, trades[0].Price, 1e-9)
}

func TestPositionService_OpenValidation(t *testing.T) {
	cases := []struct {
		name    string
		req     OpenPositionRequest
		wantErr bool
		wantLiq float64
	}{
		{name: "max leverage", req: ethLong(100, 3000, 100), wantLiq: 3000 * (1 - 0.9/100)},
		{name: "leverage above max", req: ethLong(101, 3000, 100), wantErr: true},
		{name: "long liquidation below entry", req: func() OpenPositionRequest {
			r := ethLong(3, 3000, 1000)
			r.LiquidationPrice = 2500
			return r
		}(), wantLiq: 2500},
		{name: "long liquidation above entry", req: func() OpenPositionRequest {
			r := ethLong(3, 3000, 1000)
			r.LiquidationPrice = 3100
			return r
		}(), wantErr: true},
		{name: "long liquidation equal to entry", req: func() OpenPositionRequest {
			r := ethLong(3, 3000, 1000)
			r.LiquidationPrice = 3000
			return r
		}(), wantErr: true},
		{name: "short liquidation below entry", req: func() OpenPositionRequest {
			r := ethLong(3, 3000, 1000)
			r.Side = "short"
			r.LiquidationPrice = 2900
			return r
		}(), wantErr: true},
		{name: "short liquidation above entry", req: func() OpenPositionRequest {
			r := ethLong(3, 3000, 1000)
			r.Side = "short"
			r.LiquidationPrice = 3900
			return r
		}(), wantLiq: 3900},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			f := newPositionFixture(t)
			p, err := f.position.Open(context.Background(), tc.req)
			if tc.wantErr {
				assert.ErrorIs(t, err, posmath.ErrInvalidArgument)
				positions, err := f.position.FindOpen(context.Background())
				require.NoError(t, err)
				assert.Empty(t, positions)
				return
			}
			require.NoError(t, err)
			assert.InDelta(t, tc.wantLiq, p.LiquidationPrice, 1e-6)
			assert.Greater(t, p.Health, 0.0)
		})
	}
}

func TestPositionService_Close(t *testing.T) {
	f := newPositionFixture(t)
	ctx := context.Background()

	p, err := f.position.Open(ctx, ethLong(3, 3000, 1000))
	require.NoError(t, err)

	closed, err := f.position.Close(ctx, p.ID, ClosePositionRequest{CurrentPrice: 3300, TxHash: "0xabc"})
	require.NoError(t, err)
	assert.Equal(t, models.PositionStatusClosed, closed.Status)
	assert.InDelta(t, 300, closed.Pnl, 1e-6)
	assert.InDelta(t, 30, closed.PnlPercent, 1e-6)
	require.NotNil(t, closed.ClosedAt)

	_, err = f.position.Close(ctx, p.ID, ClosePositionRequest{CurrentPrice: 3400})
	assert.ErrorIs(t, err, xe.ErrPositionNotOpen)

	trades := f.trades(t, p.ID)
	require.Len(t, trades, 2)
	assert.Equal(t, models.TradeActionClose, trades[1].Action)
	assert.Equal(t, "0xabc", trades[1].TxHash)
	assert.InDelta(t, 300, trades[1].Pnl, 1e-6)
}

func TestPositionService_CloseWithReportedPnl(t *testing.T) {
	f := newPositionFixture(t)
	ctx := context.Background()

	p, err := f.position.Open(ctx, ethLong(3, 3000, 1000))
	require.NoError(t, err)

	pnl := -250.0
	closed, err := f.position.Close(ctx, p.ID, ClosePositionRequest{CurrentPrice: 3300, Pnl: &pnl})
	require.NoError(t, err)
	assert.InDelta(t, -250, closed.Pnl, 1e-9)
	assert.InDelta(t, -25, closed.PnlPercent, 1e-9)
}

func TestPositionService_MarkToMarket(t *testing.T) {
	f := newPositionFixture(t)
	ctx := context.Background()

	long, err := f.position.Open(ctx, ethLong(3, 3000, 1000))
	require.NoError(t, err)
	short := ethLong(3, 3000, 1000)
	short.Side = "short"
	shortPos, err := f.position.Open(ctx, short)
	require.NoError(t, err)

	f.prices.Set("ETH", 3300)
	marked, err := f.position.MarkToMarket(ctx)
	require.NoError(t, err)
	require.Len(t, marked, 2)

	got, err := f.position.Get(ctx, long.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3300, got.CurrentPrice, 1e-9)
	assert.InDelta(t, 300, got.Pnl, 1e-6)
	// (3300 - 2100) / 3300
	assert.InDelta(t, 36.3636, got.Health, 1e-3)

	got, err = f.position.Get(ctx, shortPos.ID)
	require.NoError(t, err)
	assert.InDelta(t, -300, got.Pnl, 1e-6)
	// (3900 - 3300) / 3300
	assert.InDelta(t, 18.1818, got.Health, 1e-3)
}

func TestPositionService_MarkToMarketSkipsClosed(t *testing.T) {
	f := newPositionFixture(t)
	ctx := context.Background()

	p, err := f.position.Open(ctx, ethLong(3, 3000, 1000))
	require.NoError(t, err)
	_, err = f.position.Close(ctx, p.ID, ClosePositionRequest{CurrentPrice: 3300})
	require.NoError(t, err)

	// 已平仓的记录不能再被改写
	require.NoError(t, f.position.UpdateMark(ctx, p.ID, 1000, -2000, -200, 0))
	got, err := f.position.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.InDelta(t, 3300, got.CurrentPrice, 1e-9)
	assert.InDelta(t, 300, got.Pnl, 1e-6)
}

func TestPositionService_Liquidate(t *testing.T) {
	f := newPositionFixture(t)
	ctx := context.Background()
	sub := f.bus.Subscribe(event.DefaultBuffer, string(event.TopicPositionLiquidated))
	defer sub.Close()

	p, err := f.position.Open(ctx, ethLong(10, 100, 100))
	require.NoError(t, err)

	require.NoError(t, f.position.Liquidate(ctx, p))
	assert.Equal(t, models.PositionStatusLiquidated, p.Status)
	assert.InDelta(t, -100, p.Pnl, 1e-9)
	assert.InDelta(t, -100, p.PnlPercent, 1e-9)
	assert.Zero(t, p.Health)

	trades := f.trades(t, p.ID)
	require.Len(t, trades, 2)
	assert.Equal(t, models.TradeActionLiquidate, trades[1].Action)
	assert.InDelta(t, -100, trades[1].Pnl, 1e-9)

	require.Len(t, sub.C, 1)
	e := <-sub.C
	assert.Equal(t, p.ID, e.Payload.(event.PositionPayload).ID)
}

func TestPositionService_LiquidateStaleCopyAfterClose(t *testing.T) {
	f := newPositionFixture(t)
	ctx := context.Background()

	p, err := f.position.Open(ctx, ethLong(3, 3000, 1000))
	require.NoError(t, err)

	open, err := f.position.FindOpen(ctx)
	require.NoError(t, err)
	require.Len(t, open, 1)
	stale := open[0]

	_, err = f.position.Close(ctx, p.ID, ClosePositionRequest{CurrentPrice: 3300})
	require.NoError(t, err)

	err = f.position.Liquidate(ctx, &stale)
	assert.ErrorIs(t, err, xe.ErrPositionNotOpen)
	assert.Equal(t, models.PositionStatusClosed, stale.Status)

	got, err := f.position.Get(ctx, p.ID)
	require.NoError(t, err)
	assert.Equal(t, models.PositionStatusClosed, got.Status)
	assert.InDelta(t, 300, got.Pnl, 1e-6)
	assert.Len(t, f.trades(t, p.ID), 2)
}

func TestPositionService_ConcurrentCloseAndLiquidate(t *testing.T) {
	f := newPositionFixture(t)
	ctx := context.Background()

	p, err := f.position.Open(ctx, ethLong(3, 3000, 1000))
	require.NoError(t, err)
	stale := *p

	var wg sync.WaitGroup
	errs := make([]error, 2)
	wg.Add(2)
	go func() {
		defer wg.Done()
		_, errs[0] = f.position.Close(ctx, p.ID, ClosePositionRequest{CurrentPrice: 3300})
	}()
	go func() {
		defer wg.Done()
		errs[1] = f.position.Liquidate(ctx, &stale)
	}()
	wg.Wait()

	succeeded := 0
	for _, err := range errs {
		if err == nil {
			succeeded++
			continue
		}
		assert.ErrorIs(t, err, xe.ErrPositionNotOpen)
	}
	assert.Equal(t, 1, succeeded)
	assert.Len(t, f.trades(t, p.ID), 2)
}
