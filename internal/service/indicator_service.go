package service

import (
	"github.com/dushixiang/leverquest/pkg/exchange"
	"github.com/dushixiang/leverquest/pkg/ta"
)

const (
	volatilityPeriod = 24
	atrPeriod        = 14
	seriesSize       = 24
	// 小时K线一年的根数
	hourlyBarsPerYear = 24 * 365
)

// IndicatorService 技术指标计算服务
type IndicatorService struct{}

// NewIndicatorService 创建技术指标服务
func NewIndicatorService() *IndicatorService {
	return &IndicatorService{}
}

// MarketIndicators Boss属性计算需要的指标
type MarketIndicators struct {
	Price       float64   `json:"price"`
	Volatility  float64   `json:"volatility"`  // 年化波动率，0.4 表示 40%
	ATRPercent  float64   `json:"atr_percent"` // ATR14 / 价格 × 100
	Resistance  []float64 `json:"resistance"`  // 升序
	Support     []float64 `json:"support"`     // 降序
	PriceSeries []float64 `json:"price_series"`
}

// CalculateIndicators 由小时K线计算指标，K线不足时返回 nil
func (s *IndicatorService) CalculateIndicators(klines []*exchange.Kline) *MarketIndicators {
	if len(klines) <= volatilityPeriod {
		return nil
	}

	closes := make([]float64, len(klines))
	highs := make([]float64, len(klines))
	lows := make([]float64, len(klines))
	for i, k := range klines {
		closes[i] = k.Close
		highs[i] = k.High
		lows[i] = k.Low
	}

	price := ta.Last(closes, 0)
	series := ta.LastValues(closes, seriesSize)

	return &MarketIndicators{
		Price:       price,
		Volatility:  ta.Volatility(closes, volatilityPeriod, hourlyBarsPerYear),
		ATRPercent:  ta.ATRPercent(highs, lows, closes, atrPeriod),
		Resistance:  ta.ResistanceLevels(highs, price),
		Support:     ta.SupportLevels(lows, price),
		PriceSeries: append([]float64(nil), series...),
	}
}
