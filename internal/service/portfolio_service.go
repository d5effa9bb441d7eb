package service

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dushixiang/leverquest/internal/config"
	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/internal/repo"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

const (
	// 主线任务目标收益率
	GoalPercent = 20.0
	// 计算夏普比率使用的历史记录条数
	sharpeWindow = 500
)

// PortfolioService 组合统计服务
type PortfolioService struct {
	logger *zap.Logger

	*orz.Service
	*repo.PortfolioHistoryRepo
	positionRepo  *repo.PositionRepo
	liquidityRepo *repo.LiquidityRepo

	initialBalance float64
}

// NewPortfolioService 创建组合统计服务
func NewPortfolioService(db *gorm.DB, conf *config.Config, logger *zap.Logger) *PortfolioService {
	return &PortfolioService{
		logger:               logger,
		Service:              orz.NewService(db),
		PortfolioHistoryRepo: repo.NewPortfolioHistoryRepo(db),
		positionRepo:         repo.NewPositionRepo(db),
		liquidityRepo:        repo.NewLiquidityRepo(db),
		initialBalance:       conf.Account.InitialBalance,
	}
}

// PortfolioSummary 组合概览
type PortfolioSummary struct {
	InitialBalance      float64 `json:"initial_balance"`       // 初始资金
	Balance             float64 `json:"balance"`               // 初始资金 + 已实现盈亏
	Equity              float64 `json:"equity"`                // 余额 + 未实现盈亏
	TotalPositionValue  float64 `json:"total_position_value"`  // 未平仓名义价值合计
	TotalInvested       float64 `json:"total_invested"`        // 未平仓保证金合计
	UnrealisedPnl       float64 `json:"unrealised_pnl"`        // 未实现盈亏
	RealisedPnl         float64 `json:"realised_pnl"`          // 已实现盈亏
	TotalPnl            float64 `json:"total_pnl"`             // 未实现 + 已实现
	TotalPnlPercent     float64 `json:"total_pnl_percent"`     // 未实现盈亏 / 未平仓保证金
	OpenPositions       int     `json:"open_positions"`        // 未平仓数量
	TotalLiquidityValue float64 `json:"total_liquidity_value"` // 流动性仓位价值
	TotalEarnedFees     float64 `json:"total_earned_fees"`     // 流动性手续费收益
	ReturnPercent       float64 `json:"return_percent"`        // 相对初始资金的收益率
	GoalPercent         float64 `json:"goal_percent"`          // 目标收益率
	GoalProgress        float64 `json:"goal_progress"`         // 目标完成度 [0,100]
	PeakEquity          float64 `json:"peak_equity"`
	DrawdownFromPeak    float64 `json:"drawdown_from_peak"` // 负数表示回撤
	SharpeRatio         float64 `json:"sharpe_ratio"`
}

// Summarize 由持仓与流动性仓位汇总，不访问数据库
func Summarize(initialBalance, realisedPnl float64, open []models.Position, liquidity []models.LiquidityPosition) *PortfolioSummary {
	s := &PortfolioSummary{
		InitialBalance: initialBalance,
		RealisedPnl:    realisedPnl,
		OpenPositions:  len(open),
		GoalPercent:    GoalPercent,
	}
	for _, p := range open {
		s.TotalPositionValue += p.Collateral * float64(p.Leverage)
		s.TotalInvested += p.Collateral
		s.UnrealisedPnl += p.Pnl
	}
	for _, lp := range liquidity {
		s.TotalLiquidityValue += lp.TotalValue
		s.TotalEarnedFees += lp.EarnedFees
	}

	s.Balance = initialBalance + realisedPnl
	s.Equity = s.Balance + s.UnrealisedPnl
	s.TotalPnl = s.UnrealisedPnl + realisedPnl
	if s.TotalInvested > 0 {
		s.TotalPnlPercent = s.UnrealisedPnl / s.TotalInvested * 100
	}
	if initialBalance > 0 {
		s.ReturnPercent = (s.Equity - initialBalance) / initialBalance * 100
	}
	s.GoalProgress = math.Max(0, math.Min(100, s.ReturnPercent/GoalPercent*100))
	s.PeakEquity = math.Max(s.Equity, initialBalance)
	return s
}

// SharpeRatio 逐期收益率的均值/标准差，无风险利率为0
func SharpeRatio(values []float64) float64 {
	if len(values) < 2 {
		return 0.0
	}

	returns := make([]float64, 0, len(values)-1)
	for i := 1; i < len(values); i++ {
		if values[i-1] > 0 {
			returns = append(returns, (values[i]-values[i-1])/values[i-1])
		}
	}
	if len(returns) == 0 {
		return 0.0
	}

	sum := 0.0
	for _, r := range returns {
		sum += r
	}
	avgReturn := sum / float64(len(returns))

	variance := 0.0
	for _, r := range returns {
		variance += math.Pow(r-avgReturn, 2)
	}
	variance /= float64(len(returns))
	stdDev := math.Sqrt(variance)

	if stdDev == 0 {
		return 0.0
	}
	return avgReturn / stdDev
}

// Summary 当前组合概览
func (s *PortfolioService) Summary(ctx context.Context) (*PortfolioSummary, error) {
	open, err := s.positionRepo.FindOpen(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to get open positions: %w", err)
	}
	realised, err := s.positionRepo.SumRealisedPnl(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to sum realised pnl: %w", err)
	}
	liquidity, err := s.liquidityRepo.FindByStatus(ctx, models.LiquidityStatusActive)
	if err != nil {
		return nil, fmt.Errorf("failed to get liquidity positions: %w", err)
	}

	summary := Summarize(s.initialBalance, realised, open, liquidity)

	histories, err := s.PortfolioHistoryRepo.FindRecent(ctx, sharpeWindow)
	if err != nil {
		s.logger.Warn("failed to load portfolio history", zap.Error(err))
		return summary, nil
	}
	equities := make([]float64, 0, len(histories)+1)
	for _, h := range histories {
		equities = append(equities, h.Equity)
		if h.PeakEquity > summary.PeakEquity {
			summary.PeakEquity = h.PeakEquity
		}
	}
	equities = append(equities, summary.Equity)

	if summary.PeakEquity > 0 {
		summary.DrawdownFromPeak = (summary.Equity - summary.PeakEquity) / summary.PeakEquity * 100
	}
	summary.SharpeRatio = SharpeRatio(equities)
	return summary, nil
}

// Record 保存一条组合历史
func (s *PortfolioService) Record(ctx context.Context, iteration int) (*models.PortfolioHistory, error) {
	summary, err := s.Summary(ctx)
	if err != nil {
		return nil, err
	}

	history := &models.PortfolioHistory{
		ID:               ulid.Make().String(),
		TotalBalance:     summary.Balance,
		TotalInvested:    summary.TotalInvested,
		UnrealisedPnl:    summary.UnrealisedPnl,
		RealisedPnl:      summary.RealisedPnl,
		Equity:           summary.Equity,
		InitialBalance:   summary.InitialBalance,
		PeakEquity:       summary.PeakEquity,
		ReturnPercent:    summary.ReturnPercent,
		DrawdownFromPeak: summary.DrawdownFromPeak,
		SharpeRatio:      summary.SharpeRatio,
		OpenPositions:    summary.OpenPositions,
		Iteration:        iteration,
		RecordedAt:       time.Now(),
	}
	if err := s.PortfolioHistoryRepo.Create(ctx, history); err != nil {
		return nil, fmt.Errorf("failed to save portfolio history: %w", err)
	}
	return history, nil
}

// LatestIteration 最近一次记录的刷新周期数，没有记录时返回0
func (s *PortfolioService) LatestIteration(ctx context.Context) (int, error) {
	latest, err := s.PortfolioHistoryRepo.FindLatest(ctx)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return 0, nil
		}
		return 0, err
	}
	return latest.Iteration, nil
}

// Histories 最近的组合历史，按时间正序
func (s *PortfolioService) Histories(ctx context.Context, limit int) ([]models.PortfolioHistory, error) {
	return s.PortfolioHistoryRepo.FindRecent(ctx, clampLimit(limit))
}
