package service

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/internal/repo"
	"github.com/dushixiang/leverquest/internal/xe"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// LiquidityService 流动性仓位管理
type LiquidityService struct {
	logger *zap.Logger

	*orz.Service
	*repo.LiquidityRepo
}

func NewLiquidityService(db *gorm.DB, logger *zap.Logger) *LiquidityService {
	return &LiquidityService{
		logger:        logger,
		Service:       orz.NewService(db),
		LiquidityRepo: repo.NewLiquidityRepo(db),
	}
}

type AddLiquidityRequest struct {
	PoolName   string  `json:"pool_name"`
	Chain      string  `json:"chain"`
	Protocol   string  `json:"protocol"`
	Token0     string  `json:"token0" validate:"required"`
	Token1     string  `json:"token1" validate:"required"`
	Amount0    float64 `json:"amount0" validate:"gte=0"`
	Amount1    float64 `json:"amount1" validate:"gte=0"`
	LpTokens   float64 `json:"lp_tokens" validate:"gte=0"`
	Apy        float64 `json:"apy" validate:"gte=0"`
	TotalValue float64 `json:"total_value" validate:"gt=0"`
}

type WithdrawLiquidityRequest struct {
	EarnedFees      float64  `json:"earned_fees" validate:"gte=0"`
	ImpermanentLoss *float64 `json:"impermanent_loss"`
}

// Add 添加流动性，池子名称缺省为 TOKEN0/TOKEN1
func (s *LiquidityService) Add(ctx context.Context, req AddLiquidityRequest) (*models.LiquidityPosition, error) {
	token0 := strings.ToUpper(strings.TrimSpace(req.Token0))
	token1 := strings.ToUpper(strings.TrimSpace(req.Token1))
	if token0 == "" || token1 == "" || token0 == token1 {
		return nil, xe.ErrInvalidParams
	}
	poolName := strings.TrimSpace(req.PoolName)
	if poolName == "" {
		poolName = token0 + "/" + token1
	}

	lp := &models.LiquidityPosition{
		ID:         ulid.Make().String(),
		PoolName:   poolName,
		Chain:      req.Chain,
		Protocol:   req.Protocol,
		Token0:     token0,
		Token1:     token1,
		Amount0:    req.Amount0,
		Amount1:    req.Amount1,
		LpTokens:   req.LpTokens,
		Apy:        req.Apy,
		TotalValue: req.TotalValue,
		Status:     models.LiquidityStatusActive,
		AddedAt:    time.Now(),
	}
	if err := s.LiquidityRepo.Create(ctx, lp); err != nil {
		return nil, fmt.Errorf("failed to create liquidity position: %w", err)
	}

	s.logger.Info("liquidity added",
		zap.String("id", lp.ID),
		zap.String("pool", lp.PoolName),
		zap.Float64("total_value", lp.TotalValue))
	return lp, nil
}

func (s *LiquidityService) List(ctx context.Context, status string) ([]models.LiquidityPosition, error) {
	switch status {
	case "", models.LiquidityStatusActive, models.LiquidityStatusWithdrawn:
	default:
		return nil, xe.ErrInvalidParams
	}
	return s.LiquidityRepo.FindByStatus(ctx, status)
}

// Withdraw 撤出流动性并记录手续费收益与无常损失
func (s *LiquidityService) Withdraw(ctx context.Context, id string, req WithdrawLiquidityRequest) (*models.LiquidityPosition, error) {
	var lp models.LiquidityPosition
	err := s.Transaction(ctx, func(ctx context.Context) error {
		var err error
		lp, err = s.LiquidityRepo.FindById(ctx, id)
		if err != nil {
			return err
		}
		if lp.Status != models.LiquidityStatusActive {
			return xe.ErrLiquidityNotActive
		}

		now := time.Now()
		lp.EarnedFees = req.EarnedFees
		if req.ImpermanentLoss != nil {
			lp.ImpermanentLoss = *req.ImpermanentLoss
		}
		lp.Status = models.LiquidityStatusWithdrawn
		lp.WithdrawnAt = &now
		return s.LiquidityRepo.Save(ctx, &lp)
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("liquidity withdrawn",
		zap.String("id", lp.ID),
		zap.Float64("earned_fees", lp.EarnedFees),
		zap.Float64("impermanent_loss", lp.ImpermanentLoss))
	return &lp, nil
}
