package handler

import (
	"math"

	"github.com/shopspring/decimal"
)

// money 金额展示，保留两位小数
func money(v float64) string {
	return decimal.NewFromFloat(v).StringFixed(2)
}

// percent 百分比展示，带符号
func percent(v float64) string {
	s := decimal.NewFromFloat(v).StringFixed(2)
	if v > 0 {
		s = "+" + s
	}
	return s + "%"
}

// price 价格展示，低价币保留更多小数
func price(v float64) string {
	if math.Abs(v) < 10 {
		return decimal.NewFromFloat(v).StringFixed(4)
	}
	return decimal.NewFromFloat(v).StringFixed(2)
}
