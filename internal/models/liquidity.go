package models

import (
	"time"

	"gorm.io/gorm"
)

const (
	LiquidityStatusActive    = "active"
	LiquidityStatusWithdrawn = "withdrawn"
)

// LiquidityPosition 流动性挖矿仓位
type LiquidityPosition struct {
	ID              string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	PoolName        string         `gorm:"type:varchar(50);not null" json:"pool_name"` // 如 ETH/USDC
	Chain           string         `gorm:"type:varchar(20)" json:"chain"`
	Protocol        string         `gorm:"type:varchar(30)" json:"protocol"` // 如 Uniswap V3
	Token0          string         `gorm:"type:varchar(20);not null" json:"token0"`
	Token1          string         `gorm:"type:varchar(20);not null" json:"token1"`
	Amount0         float64        `gorm:"type:decimal(20,8)" json:"amount0"`
	Amount1         float64        `gorm:"type:decimal(20,8)" json:"amount1"`
	LpTokens        float64        `gorm:"type:decimal(20,8)" json:"lp_tokens"`
	Apy             float64        `gorm:"type:decimal(10,4)" json:"apy"`
	TotalValue      float64        `gorm:"type:decimal(20,8)" json:"total_value"` // USDT
	EarnedFees      float64        `gorm:"type:decimal(20,8)" json:"earned_fees"`
	ImpermanentLoss float64        `gorm:"type:decimal(20,8)" json:"impermanent_loss"`
	Status          string         `gorm:"type:varchar(20);not null;index" json:"status"` // active/withdrawn
	AddedAt         time.Time      `gorm:"not null" json:"added_at"`
	WithdrawnAt     *time.Time     `json:"withdrawn_at,omitempty"`
	CreatedAt       time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt       gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (LiquidityPosition) TableName() string {
	return "liquidity_positions"
}
