package exchange

import (
	"context"
	"fmt"
	"math"
	"math/rand/v2"
	"sync"
	"time"
)

var (
	_ MarketSource = (*MockFeed)(nil)
	_ Stepper      = (*MockFeed)(nil)
)

const (
	mockHistoryBars = 200
	mockMaxBars     = 500
	mockBarInterval = time.Hour
	// 每次推进有2%概率出现5倍波动的急涨急跌
	mockFlashChance = 0.02
	mockFlashScale  = 5
)

type mockAsset struct {
	price       float64 // 起始价格
	quoteVolume float64 // 24小时USDT成交额基准
	sigma       float64 // 每根K线收益率标准差
}

var mockAssets = map[string]mockAsset{
	"BTC": {price: 95234.56, quoteVolume: 28.5e9, sigma: 0.006},
	"ETH": {price: 3456.78, quoteVolume: 15.2e9, sigma: 0.008},
	"SOL": {price: 142.34, quoteVolume: 3.4e9, sigma: 0.012},
	"ARB": {price: 1.23, quoteVolume: 450e6, sigma: 0.015},
}

// DefaultMockSymbols 模拟行情默认币种
var DefaultMockSymbols = []string{"BTC", "ETH", "SOL", "ARB"}

// MockFeed 基于显式种子的随机游走行情，相同种子产生完全相同的序列
type MockFeed struct {
	mu      sync.Mutex
	rng     *rand.Rand
	symbols []string
	bars    map[string][]*Kline
	now     func() time.Time
}

// NewMockFeed 创建模拟行情，未知币种会被忽略，symbols 为空时使用默认币种
func NewMockFeed(seed uint64, symbols []string) *MockFeed {
	if len(symbols) == 0 {
		symbols = DefaultMockSymbols
	}

	f := &MockFeed{
		rng:  rand.New(rand.NewPCG(seed, seed^0x9e3779b97f4a7c15)),
		bars: make(map[string][]*Kline),
		now:  time.Now,
	}

	end := f.now().Truncate(mockBarInterval)
	for _, s := range symbols {
		base := BaseAsset(s)
		asset, ok := mockAssets[base]
		if !ok {
			continue
		}
		if _, dup := f.bars[base]; dup {
			continue
		}
		f.symbols = append(f.symbols, base)
		f.bars[base] = f.history(asset, end)
	}
	return f
}

// history 从当前价格向前倒推，保证最新收盘价等于起始价格
func (f *MockFeed) history(asset mockAsset, end time.Time) []*Kline {
	closes := make([]float64, mockHistoryBars)
	closes[mockHistoryBars-1] = asset.price
	for i := mockHistoryBars - 2; i >= 0; i-- {
		closes[i] = closes[i+1] / (1 + f.nextReturn(asset.sigma))
	}

	bars := make([]*Kline, 0, mockHistoryBars)
	open := closes[0] / (1 + f.nextReturn(asset.sigma))
	start := end.Add(-time.Duration(mockHistoryBars) * mockBarInterval)
	for i, c := range closes {
		bars = append(bars, f.bar(asset, start.Add(time.Duration(i)*mockBarInterval), open, c))
		open = c
	}
	return bars
}

func (f *MockFeed) nextReturn(sigma float64) float64 {
	r := f.rng.NormFloat64() * sigma
	if f.rng.Float64() < mockFlashChance {
		r *= mockFlashScale
	}
	// 单根K线涨跌幅限制在±50%，价格始终为正
	return math.Max(-0.5, math.Min(0.5, r))
}

func (f *MockFeed) bar(asset mockAsset, openTime time.Time, open, closePrice float64) *Kline {
	wick := math.Abs(f.rng.NormFloat64()) * asset.sigma / 2
	high := math.Max(open, closePrice) * (1 + wick)
	low := math.Min(open, closePrice) * (1 - wick)

	quote := asset.quoteVolume / 24 * (0.5 + f.rng.Float64())
	return &Kline{
		OpenTime:  openTime,
		Open:      open,
		High:      high,
		Low:       low,
		Close:     closePrice,
		Volume:    quote / closePrice,
		CloseTime: openTime.Add(mockBarInterval - time.Millisecond),
	}
}

func (f *MockFeed) Symbols() []string {
	return append([]string(nil), f.symbols...)
}

// Step 为每个币种生成一根新K线并返回对应的价格推进
func (f *MockFeed) Step() []Tick {
	f.mu.Lock()
	defer f.mu.Unlock()

	now := f.now()
	ticks := make([]Tick, 0, len(f.symbols))
	for _, s := range f.symbols {
		asset := mockAssets[s]
		bars := f.bars[s]
		last := bars[len(bars)-1]

		r := f.nextReturn(asset.sigma)
		next := f.bar(asset, last.OpenTime.Add(mockBarInterval), last.Close, last.Close*(1+r))
		bars = append(bars, next)
		if len(bars) > mockMaxBars {
			bars = bars[len(bars)-mockMaxBars:]
		}
		f.bars[s] = bars

		ticks = append(ticks, Tick{
			Symbol:        s,
			Price:         next.Close,
			ChangePercent: r * 100,
			At:            now,
		})
	}
	return ticks
}

func (f *MockFeed) series(symbol string) ([]*Kline, error) {
	bars, ok := f.bars[BaseAsset(symbol)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", ErrUnknownSymbol, symbol)
	}
	return bars, nil
}

// GetKlines 模拟行情只生成1小时K线，interval 参数被忽略
func (f *MockFeed) GetKlines(_ context.Context, symbol string, _ string, limit int) ([]*Kline, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bars, err := f.series(symbol)
	if err != nil {
		return nil, err
	}
	if limit > 0 && len(bars) > limit {
		bars = bars[len(bars)-limit:]
	}

	result := make([]*Kline, 0, len(bars))
	for _, k := range bars {
		cp := *k
		result = append(result, &cp)
	}
	return result, nil
}

func (f *MockFeed) GetCurrentPrice(_ context.Context, symbol string) (float64, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bars, err := f.series(symbol)
	if err != nil {
		return 0, err
	}
	return bars[len(bars)-1].Close, nil
}

// GetTicker 由最近24根K线汇总24小时统计
func (f *MockFeed) GetTicker(_ context.Context, symbol string) (*Ticker, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	bars, err := f.series(symbol)
	if err != nil {
		return nil, err
	}
	window := bars
	if len(window) > 24 {
		window = window[len(window)-24:]
	}

	first, last := window[0], window[len(window)-1]
	t := &Ticker{
		Symbol:    BaseAsset(symbol),
		Name:      AssetName(symbol),
		LastPrice: last.Close,
		HighPrice: first.High,
		LowPrice:  first.Low,
	}
	if first.Open > 0 {
		t.PriceChangePercent = (last.Close/first.Open - 1) * 100
	}
	for _, k := range window {
		t.HighPrice = math.Max(t.HighPrice, k.High)
		t.LowPrice = math.Min(t.LowPrice, k.Low)
		t.Volume += k.Volume
		t.QuoteVolume += k.Volume * k.Close
	}
	return t, nil
}
