package exchange

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/adshao/go-binance/v2/futures"
)

var _ MarketSource = (*BinanceClient)(nil)

// BinanceClient Binance期货公开行情客户端，只读取行情，不下单
type BinanceClient struct {
	client  *futures.Client
	symbols []string
}

// NewBinanceClient 创建Binance客户端
func NewBinanceClient(apiKey, secretKey, proxyURL string, testnet bool, symbols []string) *BinanceClient {
	var client *futures.Client
	if proxyURL != "" {
		client = futures.NewProxiedClient(apiKey, secretKey, proxyURL)
	} else {
		client = futures.NewClient(apiKey, secretKey)
	}

	if testnet {
		futures.UseTestnet = true
	}

	bases := make([]string, 0, len(symbols))
	for _, s := range symbols {
		bases = append(bases, BaseAsset(s))
	}

	return &BinanceClient{
		client:  client,
		symbols: bases,
	}
}

// binanceSymbol ETH -> ETHUSDT
func binanceSymbol(symbol string) string {
	return BaseAsset(symbol) + QuoteAsset
}

func (b *BinanceClient) Symbols() []string {
	return b.symbols
}

// GetKlines 获取K线数据
func (b *BinanceClient) GetKlines(ctx context.Context, symbol string, interval string, limit int) ([]*Kline, error) {
	klines, err := b.client.NewKlinesService().
		Symbol(binanceSymbol(symbol)).
		Interval(interval).
		Limit(limit).
		Do(ctx)

	if err != nil {
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	result := make([]*Kline, 0, len(klines))
	for _, k := range klines {
		open, _ := strconv.ParseFloat(k.Open, 64)
		high, _ := strconv.ParseFloat(k.High, 64)
		low, _ := strconv.ParseFloat(k.Low, 64)
		closePrice, _ := strconv.ParseFloat(k.Close, 64)
		volume, _ := strconv.ParseFloat(k.Volume, 64)

		result = append(result, &Kline{
			OpenTime:  time.UnixMilli(k.OpenTime),
			Open:      open,
			High:      high,
			Low:       low,
			Close:     closePrice,
			Volume:    volume,
			CloseTime: time.UnixMilli(k.CloseTime),
		})
	}

	return result, nil
}

// GetCurrentPrice 获取最新成交价
func (b *BinanceClient) GetCurrentPrice(ctx context.Context, symbol string) (float64, error) {
	prices, err := b.client.NewListPricesService().Symbol(binanceSymbol(symbol)).Do(ctx)
	if err != nil {
		return 0, fmt.Errorf("failed to get current price: %w", err)
	}

	if len(prices) == 0 {
		return 0, fmt.Errorf("%w: no price data for %s", ErrUnknownSymbol, symbol)
	}

	price, _ := strconv.ParseFloat(prices[0].Price, 64)
	return price, nil
}

// GetTicker 获取24小时行情统计
func (b *BinanceClient) GetTicker(ctx context.Context, symbol string) (*Ticker, error) {
	stats, err := b.client.NewListPriceChangeStatsService().Symbol(binanceSymbol(symbol)).Do(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get 24h stats: %w", err)
	}

	if len(stats) == 0 {
		return nil, fmt.Errorf("%w: no 24h stats for %s", ErrUnknownSymbol, symbol)
	}

	s := stats[0]
	lastPrice, _ := strconv.ParseFloat(s.LastPrice, 64)
	changePercent, _ := strconv.ParseFloat(s.PriceChangePercent, 64)
	high, _ := strconv.ParseFloat(s.HighPrice, 64)
	low, _ := strconv.ParseFloat(s.LowPrice, 64)
	volume, _ := strconv.ParseFloat(s.Volume, 64)
	quoteVolume, _ := strconv.ParseFloat(s.QuoteVolume, 64)

	return &Ticker{
		Symbol:             BaseAsset(symbol),
		Name:               AssetName(symbol),
		LastPrice:          lastPrice,
		PriceChangePercent: changePercent,
		HighPrice:          high,
		LowPrice:           low,
		Volume:             volume,
		QuoteVolume:        quoteVolume,
	}, nil
}
