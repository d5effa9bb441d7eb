package service

import (
	"context"
	"errors"
	"fmt"
	"sync"

	"github.com/dushixiang/leverquest/internal/event"
	"github.com/dushixiang/leverquest/internal/metrics"
	"github.com/dushixiang/leverquest/internal/xe"
	"github.com/dushixiang/leverquest/pkg/posmath"
	"go.uber.org/zap"
)

// RiskService 风控服务：健康度分级、危险预警与强平
type RiskService struct {
	positionService *PositionService
	bus             *event.Bus
	logger          *zap.Logger

	mu    sync.Mutex
	tiers map[string]posmath.Tier // 上次检查时的分级
}

// NewRiskService 创建风控服务
func NewRiskService(positionService *PositionService, bus *event.Bus, logger *zap.Logger) *RiskService {
	return &RiskService{
		positionService: positionService,
		bus:             bus,
		logger:          logger,
		tiers:           make(map[string]posmath.Tier),
	}
}

// RiskReport 一次检查的结果
type RiskReport struct {
	Checked    int      `json:"checked"`
	Danger     []string `json:"danger"`     // 本次新进入危险区的持仓
	Liquidated []string `json:"liquidated"` // 本次被强平的持仓
}

// RiskAction 单个持仓的处理动作
type RiskAction int

const (
	RiskActionNone RiskAction = iota
	RiskActionDanger
	RiskActionLiquidate
)

// Assess 根据当前健康度与上次分级决定动作。健康度为0时强平，首次进入危险区时预警
func Assess(health float64, previous posmath.Tier) (posmath.Tier, RiskAction) {
	tier := posmath.HealthTier(health)
	if health <= 0 {
		return tier, RiskActionLiquidate
	}
	if tier == posmath.TierDanger && previous != posmath.TierDanger {
		return tier, RiskActionDanger
	}
	return tier, RiskActionNone
}

// CheckAll 检查所有未平仓持仓
func (s *RiskService) CheckAll(ctx context.Context) (*RiskReport, error) {
	positions, err := s.positionService.FindOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get positions: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	report := &RiskReport{Checked: len(positions)}
	seen := make(map[string]struct{}, len(positions))
	for i := range positions {
		p := &positions[i]
		seen[p.ID] = struct{}{}

		tier, action := Assess(p.Health, s.tiers[p.ID])
		s.tiers[p.ID] = tier

		switch action {
		case RiskActionLiquidate:
			if err := s.positionService.Liquidate(ctx, p); err != nil {
				if errors.Is(err, xe.ErrPositionNotOpen) {
					// 检查期间已被平仓
					delete(s.tiers, p.ID)
					continue
				}
				s.logger.Error("failed to liquidate position",
					zap.String("position_id", p.ID),
					zap.Error(err))
				continue
			}
			delete(s.tiers, p.ID)
			report.Liquidated = append(report.Liquidated, p.ID)

		case RiskActionDanger:
			s.logger.Warn("position entered danger zone",
				zap.String("position_id", p.ID),
				zap.String("symbol", p.Symbol),
				zap.Float64("health", p.Health),
				zap.Float64("price", p.CurrentPrice),
				zap.Float64("liquidation_price", p.LiquidationPrice))
			metrics.PositionEvents.WithLabelValues("danger").Inc()
			s.bus.Publish(event.TopicPositionDanger, positionPayload(p))
			report.Danger = append(report.Danger, p.ID)
		}
	}

	// 已经不再持有的仓位不再跟踪
	for id := range s.tiers {
		if _, ok := seen[id]; !ok {
			delete(s.tiers, id)
		}
	}

	return report, nil
}
