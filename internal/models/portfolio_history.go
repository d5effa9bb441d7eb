package models

import (
	"time"

	"gorm.io/gorm"
)

// PortfolioHistory 组合历史记录
type PortfolioHistory struct {
	ID               string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	TotalBalance     float64        `gorm:"type:decimal(20,8);not null" json:"total_balance"` // 初始资金 + 已实现盈亏
	TotalInvested    float64        `gorm:"type:decimal(20,8)" json:"total_invested"`         // 未平仓保证金合计
	UnrealisedPnl    float64        `gorm:"type:decimal(20,8)" json:"unrealised_pnl"`         // 未实现盈亏
	RealisedPnl      float64        `gorm:"type:decimal(20,8)" json:"realised_pnl"`           // 已实现盈亏
	Equity           float64        `gorm:"type:decimal(20,8)" json:"equity"`                 // 总资产 + 未实现盈亏
	InitialBalance   float64        `gorm:"type:decimal(20,8)" json:"initial_balance"`        // 初始资金
	PeakEquity       float64        `gorm:"type:decimal(20,8)" json:"peak_equity"`            // 峰值
	ReturnPercent    float64        `gorm:"type:decimal(10,4)" json:"return_percent"`         // 收益率
	DrawdownFromPeak float64        `gorm:"type:decimal(10,4)" json:"drawdown_from_peak"`     // 从峰值的回撤
	SharpeRatio      float64        `gorm:"type:decimal(10,4)" json:"sharpe_ratio"`           // 夏普比率
	OpenPositions    int            `gorm:"type:int" json:"open_positions"`
	Iteration        int            `gorm:"type:int;index" json:"iteration"` // 刷新周期数
	RecordedAt       time.Time      `gorm:"not null;index" json:"recorded_at"`
	CreatedAt        time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt        time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt        gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (PortfolioHistory) TableName() string {
	return "portfolio_histories"
}
