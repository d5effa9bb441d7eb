package repo

import (
	"context"

	"github.com/dushixiang/leverquest/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewMarketSnapshotRepo(db *gorm.DB) *MarketSnapshotRepo {
	return &MarketSnapshotRepo{
		Repository: orz.NewRepository[models.MarketSnapshot, string](db),
	}
}

type MarketSnapshotRepo struct {
	orz.Repository[models.MarketSnapshot, string]
}

// FindLatestBySymbol 获取最新的行情快照
func (r MarketSnapshotRepo) FindLatestBySymbol(ctx context.Context, symbol string) (m models.MarketSnapshot, err error) {
	db := r.GetDB(ctx)
	err = db.Table(r.GetTableName()).
		Where("symbol = ?", symbol).
		Order("calculated_at DESC").
		First(&m).Error
	return m, err
}

// DeleteOlderThanKeep 清理过期快照，每个币种至少保留最近 keep 条
func (r MarketSnapshotRepo) DeleteOlderThanKeep(ctx context.Context, symbol string, keep int) error {
	db := r.GetDB(ctx)
	var ids []string
	if err := db.Table(r.GetTableName()).
		Where("symbol = ?", symbol).
		Order("calculated_at DESC").
		Offset(keep).
		Pluck("id", &ids).Error; err != nil {
		return err
	}
	if len(ids) == 0 {
		return nil
	}
	return db.Unscoped().Where("id IN ?", ids).Delete(&models.MarketSnapshot{}).Error
}
