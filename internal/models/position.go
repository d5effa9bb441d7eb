package models

import (
	"strings"
	"time"

	"github.com/dushixiang/leverquest/pkg/posmath"
	"gorm.io/gorm"
)

const (
	PositionStatusOpen       = "open"
	PositionStatusClosed     = "closed"
	PositionStatusLiquidated = "liquidated"
)

// Position 杠杆持仓
type Position struct {
	ID               string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Symbol           string         `gorm:"type:varchar(20);not null;index" json:"symbol"`  // 交易对,如 ETH/USDT
	Chain            string         `gorm:"type:varchar(20)" json:"chain"`                  // 所在链
	Side             string         `gorm:"type:varchar(10);not null" json:"side"`          // long/short
	Leverage         int            `gorm:"type:int;not null" json:"leverage"`              // 杠杆倍数
	EntryPrice       float64        `gorm:"type:decimal(20,8);not null" json:"entry_price"` // 开仓价格
	CurrentPrice     float64        `gorm:"type:decimal(20,8)" json:"current_price"`        // 当前价格
	Amount           float64        `gorm:"type:decimal(20,8);not null" json:"amount"`      // 持仓数量
	Collateral       float64        `gorm:"type:decimal(20,8);not null" json:"collateral"`  // 保证金(USDT)
	LiquidationPrice float64        `gorm:"type:decimal(20,8)" json:"liquidation_price"`    // 强平价格
	Pnl              float64        `gorm:"type:decimal(20,8)" json:"pnl"`                  // 盈亏(USDT)
	PnlPercent       float64        `gorm:"type:decimal(10,4)" json:"pnl_percent"`          // 盈亏百分比
	Health           float64        `gorm:"type:decimal(10,4)" json:"health"`               // 健康度 [0,100]
	Status           string         `gorm:"type:varchar(20);not null;index" json:"status"`  // open/closed/liquidated
	OpenedAt         time.Time      `gorm:"not null" json:"opened_at"`                      // 开仓时间
	ClosedAt         *time.Time     `json:"closed_at,omitempty"`                            // 平仓/强平时间
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (*Position) TableName() string {
	return "positions"
}

func (p *Position) IsOpen() bool {
	return p.Status == PositionStatusOpen
}

func (p *Position) IsLong() bool {
	return posmath.Side(p.Side).IsLong()
}

// Inputs 以给定价格构造估值输入
func (p *Position) Inputs(currentPrice float64) posmath.Inputs {
	return posmath.Inputs{
		EntryPrice:   p.EntryPrice,
		CurrentPrice: currentPrice,
		Leverage:     p.Leverage,
		Collateral:   p.Collateral,
		Side:         posmath.Side(p.Side),
	}
}

// Tier 健康度分级
func (p *Position) Tier() posmath.Tier {
	return posmath.HealthTier(p.Health)
}

func (p *Position) CalculateHoldingStr() string {
	end := time.Now()
	if p.ClosedAt != nil {
		end = *p.ClosedAt
	}
	holding := end.Sub(p.OpenedAt)
	holdingStr, _ := strings.CutSuffix(holding.Round(time.Minute).String(), "0s")
	return holdingStr
}
