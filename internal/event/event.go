// Package event 进程内事件总线，价格推进、急涨急跌以及持仓生命周期事件都通过它分发。
package event

import (
	"strings"
	"time"
)

type Topic string

const (
	TopicPriceTick          Topic = "price.tick"
	TopicPriceFlash         Topic = "price.flash"
	TopicPositionOpened     Topic = "position.opened"
	TopicPositionClosed     Topic = "position.closed"
	TopicPositionLiquidated Topic = "position.liquidated"
	TopicPositionDanger     Topic = "position.danger"
)

// Event 总线上传递的消息
type Event struct {
	Topic   Topic       `json:"topic"`
	Payload interface{} `json:"payload"`
	At      time.Time   `json:"at"`
}

// PricePayload price.tick / price.flash
type PricePayload struct {
	Symbol        string  `json:"symbol"`
	Price         float64 `json:"price"`
	ChangePercent float64 `json:"change_percent"`
}

// PositionPayload position.* 事件
type PositionPayload struct {
	ID               string  `json:"id"`
	Symbol           string  `json:"symbol"`
	Side             string  `json:"side"`
	Leverage         int     `json:"leverage"`
	EntryPrice       float64 `json:"entry_price"`
	CurrentPrice     float64 `json:"current_price"`
	Collateral       float64 `json:"collateral"`
	LiquidationPrice float64 `json:"liquidation_price"`
	Pnl              float64 `json:"pnl"`
	PnlPercent       float64 `json:"pnl_percent"`
	Health           float64 `json:"health"`
	Tier             string  `json:"tier"`
}

// Match 主题匹配，pattern 支持 "*" 全部以及 "position.*" 这类后缀通配
func Match(pattern string, topic Topic) bool {
	if pattern == "*" || pattern == string(topic) {
		return true
	}
	if prefix, ok := strings.CutSuffix(pattern, "*"); ok {
		return strings.HasPrefix(string(topic), prefix)
	}
	return false
}
