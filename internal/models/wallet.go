package models

import (
	"time"

	"gorm.io/gorm"
)

// Wallet 关联的链上钱包
type Wallet struct {
	ID        string         `gorm:"primaryKey;type:varchar(26)" json:"id"`
	Address   string         `gorm:"type:varchar(42);not null;uniqueIndex" json:"address"` // EIP-55 校验和格式
	Chain     string         `gorm:"type:varchar(20);not null;index" json:"chain"`
	IsDefault bool           `json:"is_default"`
	CreatedAt time.Time      `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt time.Time      `gorm:"autoUpdateTime" json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"deleted_at,omitempty"`
}

// TableName 指定表名
func (Wallet) TableName() string {
	return "wallets"
}
