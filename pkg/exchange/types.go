package exchange

import (
	"errors"
	"strings"
	"time"
)

// 通用行情类型定义，独立于任何特定行情源

// ErrUnknownSymbol 行情源不支持的币种
var ErrUnknownSymbol = errors.New("unknown symbol")

// QuoteAsset 计价币种
const QuoteAsset = "USDT"

// Kline K线数据，Volume 为基础币数量
type Kline struct {
	OpenTime  time.Time `json:"open_time"`
	Open      float64   `json:"open"`
	High      float64   `json:"high"`
	Low       float64   `json:"low"`
	Close     float64   `json:"close"`
	Volume    float64   `json:"volume"`
	CloseTime time.Time `json:"close_time"`
}

// Ticker 24小时行情统计
type Ticker struct {
	Symbol             string  `json:"symbol"` // 基础币种，如 BTC
	Name               string  `json:"name"`
	LastPrice          float64 `json:"last_price"`
	PriceChangePercent float64 `json:"price_change_percent"`
	HighPrice          float64 `json:"high_price"`
	LowPrice           float64 `json:"low_price"`
	Volume             float64 `json:"volume"`       // 基础币成交量
	QuoteVolume        float64 `json:"quote_volume"` // USDT成交额
}

// Tick 一次价格推进
type Tick struct {
	Symbol        string    `json:"symbol"`
	Price         float64   `json:"price"`
	ChangePercent float64   `json:"change_percent"` // 相对上一根K线收盘价
	At            time.Time `json:"at"`
}

// BaseAsset 将 "ETH/USDT"、"ethusdt"、"ETH" 统一为 "ETH"
func BaseAsset(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if i := strings.IndexAny(s, "/-_"); i > 0 {
		return s[:i]
	}
	if trimmed, ok := strings.CutSuffix(s, QuoteAsset); ok && trimmed != "" {
		return trimmed
	}
	return s
}

// PairSymbol 交易对形式，如 "ETH/USDT"
func PairSymbol(symbol string) string {
	return BaseAsset(symbol) + "/" + QuoteAsset
}

var assetNames = map[string]string{
	"BTC": "Bitcoin",
	"ETH": "Ethereum",
	"SOL": "Solana",
	"ARB": "Arbitrum",
}

// AssetName 币种全称，未知币种返回代码本身
func AssetName(symbol string) string {
	base := BaseAsset(symbol)
	if name, ok := assetNames[base]; ok {
		return name
	}
	return base
}
