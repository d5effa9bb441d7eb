package repo

import (
	"context"

	"github.com/dushixiang/leverquest/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewWalletRepo(db *gorm.DB) *WalletRepo {
	return &WalletRepo{
		Repository: orz.NewRepository[models.Wallet, string](db),
	}
}

type WalletRepo struct {
	orz.Repository[models.Wallet, string]
}

func (r WalletRepo) FindByAddress(ctx context.Context, address string) (m models.Wallet, err error) {
	err = r.GetDB(ctx).Table(r.GetTableName()).
		Where("address = ?", address).
		First(&m).Error
	return m, err
}

func (r WalletRepo) CountByChain(ctx context.Context, chain string) (int64, error) {
	var count int64
	err := r.GetDB(ctx).Model(&models.Wallet{}).
		Where("chain = ?", chain).
		Count(&count).Error
	return count, err
}

// ClearDefault 取消某条链上所有钱包的默认标记
func (r WalletRepo) ClearDefault(ctx context.Context, chain string) error {
	return r.GetDB(ctx).Model(&models.Wallet{}).
		Where("chain = ? AND is_default = ?", chain, true).
		Update("is_default", false).Error
}

// FindAllOrdered 默认钱包在前
func (r WalletRepo) FindAllOrdered(ctx context.Context) ([]models.Wallet, error) {
	var wallets []models.Wallet
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Order("is_default DESC").
		Order("created_at ASC").
		Find(&wallets).Error
	return wallets, err
}
