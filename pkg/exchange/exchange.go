package exchange

import "context"

// MarketSource 行情源接口，模拟行情与币安行情都实现它
type MarketSource interface {
	GetTicker(ctx context.Context, symbol string) (*Ticker, error)
	GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*Kline, error)
	GetCurrentPrice(ctx context.Context, symbol string) (float64, error)
	Symbols() []string
}

// Stepper 可以主动推进的行情源（模拟行情）
type Stepper interface {
	Step() []Tick
}
