package service

import (
	"context"

	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/internal/repo"
	"gorm.io/gorm"
)

const (
	DefaultTradeLimit = 50
	MaxTradeLimit     = 500
)

// TradeService 交易记录查询
type TradeService struct {
	*repo.TradeRepo
}

func NewTradeService(db *gorm.DB) *TradeService {
	return &TradeService{
		TradeRepo: repo.NewTradeRepo(db),
	}
}

// List 最近的交易记录，limit<=0 时取50条
func (s *TradeService) List(ctx context.Context, limit int) ([]models.Trade, error) {
	return s.TradeRepo.FindRecentTrades(ctx, clampLimit(limit))
}

func clampLimit(limit int) int {
	if limit <= 0 {
		return DefaultTradeLimit
	}
	if limit > MaxTradeLimit {
		return MaxTradeLimit
	}
	return limit
}
