package ta

import (
	"math"
	"sort"

	"github.com/markcheno/go-talib"
)

// LevelWindows 计算阻力/支撑位使用的回看窗口（K线根数）
var LevelWindows = []int{24, 72, 168}

// Volatility 收益率标准差按 periodsPerYear 年化，数据不足时返回0
func Volatility(closes []float64, period int, periodsPerYear float64) float64 {
	returns := Returns(closes)
	if period < 2 || len(returns) < period {
		return 0
	}
	sd := talib.StdDev(returns, period, 1)
	v := Last(sd, 0) * math.Sqrt(periodsPerYear)
	if math.IsNaN(v) || v < 0 {
		return 0
	}
	return v
}

// ATRPercent ATR 占最新收盘价的百分比
func ATRPercent(highs, lows, closes []float64, period int) float64 {
	if len(closes) <= period || Last(closes, 0) == 0 {
		return 0
	}
	atr := talib.Atr(highs, lows, closes, period)
	return Last(atr, 0) / Last(closes, 0) * 100
}

// ResistanceLevels 各回看窗口的最高价中高于当前价格的部分，升序去重
func ResistanceLevels(highs []float64, currentPrice float64) []float64 {
	if len(highs) == 0 {
		return nil
	}
	var levels []float64
	for _, w := range LevelWindows {
		if h := Highest(highs, w); h > currentPrice {
			levels = append(levels, h)
		}
	}
	sort.Float64s(levels)
	return dedupe(levels)
}

// SupportLevels 各回看窗口的最低价中低于当前价格的部分，降序去重
func SupportLevels(lows []float64, currentPrice float64) []float64 {
	if len(lows) == 0 {
		return nil
	}
	var levels []float64
	for _, w := range LevelWindows {
		if l := Lowest(lows, w); l < currentPrice {
			levels = append(levels, l)
		}
	}
	sort.Sort(sort.Reverse(sort.Float64Slice(levels)))
	return dedupe(levels)
}

func dedupe(sorted []float64) []float64 {
	if len(sorted) < 2 {
		return sorted
	}
	out := sorted[:1]
	for _, v := range sorted[1:] {
		if v != out[len(out)-1] {
			out = append(out, v)
		}
	}
	return out
}
