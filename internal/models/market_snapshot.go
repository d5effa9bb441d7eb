package models

import (
	"time"

	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// MarketSnapshot 行情快照，Boss属性由它计算
type MarketSnapshot struct {
	ID           string                       `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Symbol       string                       `gorm:"type:varchar(20);not null;index:idx_snapshot_symbol_time" json:"symbol"` // 基础币种
	Name         string                       `gorm:"type:varchar(30)" json:"name"`
	Price        float64                      `gorm:"type:decimal(20,8)" json:"price"`
	Change24h    float64                      `gorm:"type:decimal(10,4)" json:"change_24h"` // 24小时涨跌幅(%)
	Volume24h    float64                      `gorm:"type:decimal(30,8)" json:"volume_24h"` // 24小时成交额(USDT)
	High24h      float64                      `gorm:"type:decimal(20,8)" json:"high_24h"`
	Low24h       float64                      `gorm:"type:decimal(20,8)" json:"low_24h"`
	Volatility   float64                      `gorm:"type:decimal(10,6)" json:"volatility"`  // 年化波动率
	ATRPercent   float64                      `gorm:"type:decimal(10,4)" json:"atr_percent"` // ATR14 占价格百分比
	Resistance   datatypes.JSONSlice[float64] `gorm:"type:json" json:"resistance"`           // 阻力位，升序
	Support      datatypes.JSONSlice[float64] `gorm:"type:json" json:"support"`              // 支撑位，降序
	PriceSeries  datatypes.JSONSlice[float64] `gorm:"type:json" json:"price_series"`         // 最近收盘价序列
	CalculatedAt time.Time                    `gorm:"not null;index:idx_snapshot_symbol_time" json:"calculated_at"`
	CreatedAt    time.Time                    `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt    time.Time                    `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt    gorm.DeletedAt               `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (MarketSnapshot) TableName() string {
	return "market_snapshots"
}
