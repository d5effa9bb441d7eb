package repo

import (
	"context"

	"github.com/dushixiang/leverquest/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewLiquidityRepo(db *gorm.DB) *LiquidityRepo {
	return &LiquidityRepo{
		Repository: orz.NewRepository[models.LiquidityPosition, string](db),
	}
}

type LiquidityRepo struct {
	orz.Repository[models.LiquidityPosition, string]
}

// FindByStatus status 为空时返回全部，按添加时间倒序
func (r LiquidityRepo) FindByStatus(ctx context.Context, status string) ([]models.LiquidityPosition, error) {
	var items []models.LiquidityPosition
	db := r.GetDB(ctx).Table(r.GetTableName())
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("added_at DESC").Find(&items).Error
	return items, err
}
