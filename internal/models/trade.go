package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	TradeActionOpen      = "open"
	TradeActionClose     = "close"
	TradeActionLiquidate = "liquidate"
)

// Trade 交易记录
type Trade struct {
	ID         string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	PositionID string         `gorm:"type:varchar(26);index" json:"position_id"`     // 关联的持仓ID
	Symbol     string         `gorm:"type:varchar(20);not null;index" json:"symbol"` // 交易对
	Chain      string         `gorm:"type:varchar(20)" json:"chain"`                 // 所在链
	Side       string         `gorm:"type:varchar(10);not null" json:"side"`         // long/short
	Action     string         `gorm:"type:varchar(10);not null" json:"action"`       // open/close/liquidate
	Leverage   int            `gorm:"type:int" json:"leverage"`                      // 杠杆倍数
	Price      float64        `gorm:"type:decimal(20,8);not null" json:"price"`      // 成交价格
	Amount     float64        `gorm:"type:decimal(20,8);not null" json:"amount"`     // 成交数量
	Collateral float64        `gorm:"type:decimal(20,8)" json:"collateral"`          // 保证金
	Pnl        float64        `gorm:"type:decimal(20,8)" json:"pnl"`                 // 平仓盈亏（仅平仓/强平时有值）
	Fee        float64        `gorm:"type:decimal(20,8)" json:"fee"`                 // 手续费
	TxHash     string         `gorm:"type:varchar(80)" json:"tx_hash"`               // 链上交易哈希
	ExecutedAt time.Time      `gorm:"not null;index" json:"executed_at"`             // 执行时间
	CreatedAt  time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt  time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt  gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (Trade) TableName() string {
	return "trades"
}
