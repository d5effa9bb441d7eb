package repo

import (
	"context"
	"time"

	"github.com/dushixiang/leverquest/internal/models"
	"github.com/go-orz/orz"
	"gorm.io/gorm"
)

func NewPositionRepo(db *gorm.DB) *PositionRepo {
	return &PositionRepo{
		Repository: orz.NewRepository[models.Position, string](db),
	}
}

type PositionRepo struct {
	orz.Repository[models.Position, string]
}

// FindByStatus 按状态查找持仓，status 为空时返回全部，按开仓时间倒序
func (r PositionRepo) FindByStatus(ctx context.Context, status string) ([]models.Position, error) {
	var positions []models.Position
	db := r.GetDB(ctx).Table(r.GetTableName())
	if status != "" {
		db = db.Where("status = ?", status)
	}
	err := db.Order("opened_at DESC").Find(&positions).Error
	return positions, err
}

// FindOpen 获取所有未平仓持仓
func (r PositionRepo) FindOpen(ctx context.Context) ([]models.Position, error) {
	return r.FindByStatus(ctx, models.PositionStatusOpen)
}

// SumRealisedPnl 已平仓和已强平持仓的盈亏合计
func (r PositionRepo) SumRealisedPnl(ctx context.Context) (float64, error) {
	var total float64
	err := r.GetDB(ctx).Table(r.GetTableName()).
		Where("status IN ? AND deleted_at IS NULL", []string{models.PositionStatusClosed, models.PositionStatusLiquidated}).
		Select("COALESCE(SUM(pnl), 0)").
		Scan(&total).Error
	return total, err
}

// UpdateMark 更新盯市结果，已结束的持仓不受影响
func (r PositionRepo) UpdateMark(ctx context.Context, id string, currentPrice, pnl, pnlPercent, health float64) error {
	return r.GetDB(ctx).Table(r.GetTableName()).
		Where("id = ? AND status = ?", id, models.PositionStatusOpen).
		Updates(map[string]interface{}{
			"current_price": currentPrice,
			"pnl":           pnl,
			"pnl_percent":   pnlPercent,
			"health":        health,
			"updated_at":    time.Now(),
		}).Error
}

// FinishIfOpen 仅当持仓仍为 open 时写入平仓/强平结果，返回是否更新了记录
func (r PositionRepo) FinishIfOpen(ctx context.Context, p *models.Position) (bool, error) {
	result := r.GetDB(ctx).Table(r.GetTableName()).
		Where("id = ? AND status = ?", p.ID, models.PositionStatusOpen).
		Updates(map[string]interface{}{
			"status":        p.Status,
			"current_price": p.CurrentPrice,
			"pnl":           p.Pnl,
			"pnl_percent":   p.PnlPercent,
			"health":        p.Health,
			"closed_at":     p.ClosedAt,
			"updated_at":    time.Now(),
		})
	if result.Error != nil {
		return false, result.Error
	}
	return result.RowsAffected > 0, nil
}
