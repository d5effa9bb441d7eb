package repo

import (
	"context"

	"github.com/dushixiang/leverquest/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewPortfolioHistoryRepo(db *gorm.DB) *PortfolioHistoryRepo {
	return &PortfolioHistoryRepo{
		Repository: orz.NewRepository[models.PortfolioHistory, string](db),
	}
}

type PortfolioHistoryRepo struct {
	orz.Repository[models.PortfolioHistory, string]
}

// FindLatest 获取最新一条记录
func (r PortfolioHistoryRepo) FindLatest(ctx context.Context) (m models.PortfolioHistory, err error) {
	err = r.GetDB(ctx).Table(r.GetTableName()).
		Order("recorded_at DESC").
		First(&m).Error
	return m, err
}

// FindRecent 最近 limit 条记录，按时间正序
func (r PortfolioHistoryRepo) FindRecent(ctx context.Context, limit int) ([]models.PortfolioHistory, error) {
	var histories []models.PortfolioHistory
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Order("recorded_at DESC").
		Limit(limit).
		Find(&histories).Error
	if err != nil {
		return nil, err
	}
	for i, j := 0, len(histories)-1; i < j; i, j = i+1, j-1 {
		histories[i], histories[j] = histories[j], histories[i]
	}
	return histories, nil
}
