package service

import (
	"context"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dushixiang/leverquest/internal/event"
	"github.com/dushixiang/leverquest/internal/metrics"
	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/internal/repo"
	"github.com/dushixiang/leverquest/internal/xe"
	"github.com/dushixiang/leverquest/pkg/exchange"
	"github.com/dushixiang/leverquest/pkg/posmath"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// PositionService 持仓管理服务
type PositionService struct {
	logger *zap.Logger

	*orz.Service
	*repo.PositionRepo
	tradeRepo *repo.TradeRepo

	marketService *MarketService
	bus           *event.Bus

	// 防止盯市与平仓并发写同一持仓
	markMutex sync.Mutex
}

// NewPositionService 创建持仓服务
func NewPositionService(db *gorm.DB, marketService *MarketService, bus *event.Bus, logger *zap.Logger) *PositionService {
	return &PositionService{
		logger:        logger,
		Service:       orz.NewService(db),
		PositionRepo:  repo.NewPositionRepo(db),
		tradeRepo:     repo.NewTradeRepo(db),
		marketService: marketService,
		bus:           bus,
	}
}

// MaxLeverage 开仓允许的最大杠杆
const MaxLeverage = 100

// checkLiquidationSide 多头强平价必须低于开仓价，空头必须高于开仓价
func checkLiquidationSide(entryPrice, liquidationPrice float64, isLong bool) error {
	if isLong && liquidationPrice >= entryPrice {
		return fmt.Errorf("%w: long liquidation price %v must be below entry %v", posmath.ErrInvalidArgument, liquidationPrice, entryPrice)
	}
	if !isLong && liquidationPrice <= entryPrice {
		return fmt.Errorf("%w: short liquidation price %v must be above entry %v", posmath.ErrInvalidArgument, liquidationPrice, entryPrice)
	}
	return nil
}

// OpenPositionRequest 开仓请求，未提供的数量与强平价由仓位计算得出
type OpenPositionRequest struct {
	Symbol           string  `json:"symbol" validate:"required"`
	Chain            string  `json:"chain"`
	Side             string  `json:"side" validate:"required,oneof=long short"`
	Leverage         int     `json:"leverage" validate:"required,min=1,max=100"`
	EntryPrice       float64 `json:"entry_price" validate:"required,gt=0"`
	Collateral       float64 `json:"collateral" validate:"required,gt=0"`
	Amount           float64 `json:"amount" validate:"gte=0"`
	LiquidationPrice float64 `json:"liquidation_price" validate:"gte=0"`
	TxHash           string  `json:"tx_hash"`
}

// ClosePositionRequest 平仓请求，Pnl 为空时按平仓价计算
type ClosePositionRequest struct {
	CurrentPrice float64  `json:"current_price" validate:"required,gt=0"`
	Pnl          *float64 `json:"pnl"`
	TxHash       string   `json:"tx_hash"`
}

// NormalizeSymbol "eth" -> "ETH/USDT"，已经是交易对形式的保持原样大写
func NormalizeSymbol(symbol string) string {
	s := strings.ToUpper(strings.TrimSpace(symbol))
	if strings.Contains(s, "/") {
		return s
	}
	return exchange.PairSymbol(s)
}

func positionPayload(p *models.Position) event.PositionPayload {
	return event.PositionPayload{
		ID:               p.ID,
		Symbol:           p.Symbol,
		Side:             p.Side,
		Leverage:         p.Leverage,
		EntryPrice:       p.EntryPrice,
		CurrentPrice:     p.CurrentPrice,
		Collateral:       p.Collateral,
		LiquidationPrice: p.LiquidationPrice,
		Pnl:              p.Pnl,
		PnlPercent:       p.PnlPercent,
		Health:           p.Health,
		Tier:             string(p.Tier()),
	}
}

// Open 开仓并写入开仓交易记录
func (s *PositionService) Open(ctx context.Context, req OpenPositionRequest) (*models.Position, error) {
	in := posmath.Inputs{
		EntryPrice:   req.EntryPrice,
		CurrentPrice: req.EntryPrice,
		Leverage:     req.Leverage,
		Collateral:   req.Collateral,
		Side:         posmath.Side(strings.ToLower(req.Side)),
	}
	if req.Leverage > MaxLeverage {
		return nil, fmt.Errorf("%w: leverage must be at most %d, got %d", posmath.ErrInvalidArgument, MaxLeverage, req.Leverage)
	}
	snap, err := posmath.Evaluate(in)
	if err != nil {
		return nil, err
	}

	amount := req.Amount
	if amount == 0 {
		amount = snap.Quantity
	}
	liq := req.LiquidationPrice
	if liq == 0 {
		liq = snap.LiquidationPrice
	} else if err := checkLiquidationSide(req.EntryPrice, liq, in.Side.IsLong()); err != nil {
		return nil, err
	}
	health, err := posmath.HealthPercent(req.EntryPrice, liq, in.Side.IsLong())
	if err != nil {
		return nil, err
	}

	now := time.Now()
	position := &models.Position{
		ID:               ulid.Make().String(),
		Symbol:           NormalizeSymbol(req.Symbol),
		Chain:            req.Chain,
		Side:             in.Side.String(),
		Leverage:         req.Leverage,
		EntryPrice:       req.EntryPrice,
		CurrentPrice:     req.EntryPrice,
		Amount:           amount,
		Collateral:       req.Collateral,
		LiquidationPrice: liq,
		Health:           health,
		Status:           models.PositionStatusOpen,
		OpenedAt:         now,
	}

	err = s.Transaction(ctx, func(ctx context.Context) error {
		if err := s.PositionRepo.Create(ctx, position); err != nil {
			return fmt.Errorf("failed to create position: %w", err)
		}
		trade := &models.Trade{
			ID:         ulid.Make().String(),
			PositionID: position.ID,
			Symbol:     position.Symbol,
			Chain:      position.Chain,
			Side:       position.Side,
			Action:     models.TradeActionOpen,
			Leverage:   position.Leverage,
			Price:      position.EntryPrice,
			Amount:     position.Amount,
			Collateral: position.Collateral,
			TxHash:     req.TxHash,
			ExecutedAt: now,
		}
		if err := s.tradeRepo.Create(ctx, trade); err != nil {
			return fmt.Errorf("failed to create trade: %w", err)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.logger.Info("position opened",
		zap.String("position_id", position.ID),
		zap.String("symbol", position.Symbol),
		zap.String("side", position.Side),
		zap.Int("leverage", position.Leverage),
		zap.Float64("entry_price", position.EntryPrice),
		zap.Float64("liquidation_price", position.LiquidationPrice))
	metrics.PositionEvents.WithLabelValues(models.TradeActionOpen).Inc()
	s.bus.Publish(event.TopicPositionOpened, positionPayload(position))
	return position, nil
}

// List 按状态列出持仓，按开仓时间倒序
func (s *PositionService) List(ctx context.Context, status string) ([]models.Position, error) {
	switch status {
	case "", models.PositionStatusOpen, models.PositionStatusClosed, models.PositionStatusLiquidated:
	default:
		return nil, xe.ErrInvalidParams
	}
	return s.PositionRepo.FindByStatus(ctx, status)
}

// Get 获取单个持仓
func (s *PositionService) Get(ctx context.Context, id string) (*models.Position, error) {
	position, err := s.PositionRepo.FindById(ctx, id)
	if err != nil {
		return nil, err
	}
	return &position, nil
}

// Close 平仓并写入平仓交易记录
func (s *PositionService) Close(ctx context.Context, id string, req ClosePositionRequest) (*models.Position, error) {
	s.markMutex.Lock()
	defer s.markMutex.Unlock()

	position, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !position.IsOpen() {
		return nil, xe.ErrPositionNotOpen
	}

	snap, err := posmath.Evaluate(position.Inputs(req.CurrentPrice))
	if err != nil {
		return nil, err
	}

	pnl := snap.Pnl
	pnlPercent := snap.PnlPercent
	if req.Pnl != nil {
		pnl = *req.Pnl
		pnlPercent = pnl / position.Collateral * 100
	}

	now := time.Now()
	position.CurrentPrice = req.CurrentPrice
	position.Pnl = pnl
	position.PnlPercent = pnlPercent
	position.Health = snap.HealthPercent
	position.Status = models.PositionStatusClosed
	position.ClosedAt = &now

	if err := s.finish(ctx, position, models.TradeActionClose, req.TxHash); err != nil {
		return nil, err
	}

	s.logger.Info("position closed",
		zap.String("position_id", position.ID),
		zap.String("symbol", position.Symbol),
		zap.Float64("close_price", position.CurrentPrice),
		zap.Float64("pnl", position.Pnl))
	metrics.PositionEvents.WithLabelValues(models.TradeActionClose).Inc()
	s.bus.Publish(event.TopicPositionClosed, positionPayload(position))
	return position, nil
}

// finish 写入结束状态并记录对应交易。持仓已被并发结束时返回 xe.ErrPositionNotOpen
func (s *PositionService) finish(ctx context.Context, position *models.Position, action, txHash string) error {
	return s.Transaction(ctx, func(ctx context.Context) error {
		updated, err := s.PositionRepo.FinishIfOpen(ctx, position)
		if err != nil {
			return fmt.Errorf("failed to save position: %w", err)
		}
		if !updated {
			return xe.ErrPositionNotOpen
		}
		trade := &models.Trade{
			ID:         ulid.Make().String(),
			PositionID: position.ID,
			Symbol:     position.Symbol,
			Chain:      position.Chain,
			Side:       position.Side,
			Action:     action,
			Leverage:   position.Leverage,
			Price:      position.CurrentPrice,
			Amount:     position.Amount,
			Collateral: position.Collateral,
			Pnl:        position.Pnl,
			TxHash:     txHash,
			ExecutedAt: *position.ClosedAt,
		}
		if err := s.tradeRepo.Create(ctx, trade); err != nil {
			return fmt.Errorf("failed to create trade: %w", err)
		}
		return nil
	})
}

// Liquidate 强平：亏损全部保证金。以数据库中的最新状态为准，成功后回写到 position
func (s *PositionService) Liquidate(ctx context.Context, position *models.Position) error {
	s.markMutex.Lock()
	defer s.markMutex.Unlock()

	current, err := s.Get(ctx, position.ID)
	if err != nil {
		return err
	}
	if !current.IsOpen() {
		*position = *current
		return xe.ErrPositionNotOpen
	}

	now := time.Now()
	current.Pnl = -current.Collateral
	current.PnlPercent = -100
	current.Health = 0
	current.Status = models.PositionStatusLiquidated
	current.ClosedAt = &now

	if err := s.finish(ctx, current, models.TradeActionLiquidate, ""); err != nil {
		return err
	}
	*position = *current

	s.logger.Warn("position liquidated",
		zap.String("position_id", position.ID),
		zap.String("symbol", position.Symbol),
		zap.Float64("price", position.CurrentPrice),
		zap.Float64("liquidation_price", position.LiquidationPrice),
		zap.Float64("collateral", position.Collateral))
	metrics.PositionEvents.WithLabelValues(models.TradeActionLiquidate).Inc()
	s.bus.Publish(event.TopicPositionLiquidated, positionPayload(position))
	return nil
}

// MarkToMarket 按最新价格重新计算所有未平仓持仓的盈亏与健康度
func (s *PositionService) MarkToMarket(ctx context.Context) ([]models.Position, error) {
	s.markMutex.Lock()
	defer s.markMutex.Unlock()

	positions, err := s.PositionRepo.FindOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get open positions: %w", err)
	}
	metrics.OpenPositions.Set(float64(len(positions)))

	prices := make(map[string]float64)
	for i := range positions {
		p := &positions[i]
		base := exchange.BaseAsset(p.Symbol)
		price, ok := prices[base]
		if !ok {
			price, err = s.marketService.CurrentPrice(ctx, base)
			if err != nil {
				s.logger.Warn("no price for position",
					zap.String("position_id", p.ID),
					zap.String("symbol", p.Symbol),
					zap.Error(err))
				continue
			}
			prices[base] = price
		}

		if err := Mark(p, price); err != nil {
			s.logger.Error("failed to mark position", zap.String("position_id", p.ID), zap.Error(err))
			continue
		}
		if err := s.PositionRepo.UpdateMark(ctx, p.ID, p.CurrentPrice, p.Pnl, p.PnlPercent, p.Health); err != nil {
			s.logger.Error("failed to save mark", zap.String("position_id", p.ID), zap.Error(err))
		}
	}
	return positions, nil
}

// Mark 以给定价格更新持仓的当前价、盈亏与健康度（使用持仓保存的强平价）
func Mark(p *models.Position, price float64) error {
	pnl, err := posmath.ComputePnl(p.EntryPrice, price, p.Leverage, p.Collateral, p.IsLong())
	if err != nil {
		return err
	}
	health, err := posmath.HealthPercent(price, p.LiquidationPrice, p.IsLong())
	if err != nil {
		return err
	}
	p.CurrentPrice = price
	p.Pnl = pnl.Pnl
	p.PnlPercent = pnl.PnlPercent
	p.Health = health
	return nil
}
