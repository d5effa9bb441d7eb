package service

import (
	"context"
	"fmt"
	"math"
	"sync"
	"time"

	"github.com/dushixiang/leverquest/internal/config"
	"github.com/dushixiang/leverquest/internal/event"
	"github.com/dushixiang/leverquest/internal/metrics"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"
)

// RefreshLoop 行情刷新循环：推进行情 → 快照 → 盯市 → 风控 → 记录组合
type RefreshLoop struct {
	config           config.RefreshConf
	marketService    *MarketService
	positionService  *PositionService
	riskService      *RiskService
	portfolioService *PortfolioService
	bus              *event.Bus
	logger           *zap.Logger

	mu        sync.Mutex // 保证同一时间只有一个周期在执行
	stateMu   sync.RWMutex
	startTime time.Time
	lastRunAt time.Time
	lastError string
	iteration int
	isRunning bool
	cron      *cron.Cron
}

// NewRefreshLoop 创建刷新循环
func NewRefreshLoop(
	conf *config.Config,
	marketService *MarketService,
	positionService *PositionService,
	riskService *RiskService,
	portfolioService *PortfolioService,
	bus *event.Bus,
	logger *zap.Logger,
) *RefreshLoop {
	return &RefreshLoop{
		config:           conf.Refresh,
		marketService:    marketService,
		positionService:  positionService,
		riskService:      riskService,
		portfolioService: portfolioService,
		bus:              bus,
		logger:           logger,
	}
}

// Start 启动定时刷新，ctx 取消时停止
func (t *RefreshLoop) Start(ctx context.Context) error {
	t.stateMu.Lock()
	if t.isRunning {
		t.stateMu.Unlock()
		return fmt.Errorf("refresh loop is already running")
	}
	t.isRunning = true
	t.startTime = time.Now()
	t.stateMu.Unlock()

	// 重启后接着上次的周期编号
	if lastIteration, err := t.portfolioService.LatestIteration(ctx); err != nil {
		t.logger.Warn("failed to load latest iteration, fallback to 0", zap.Error(err))
	} else {
		t.stateMu.Lock()
		t.iteration = lastIteration
		t.stateMu.Unlock()
	}

	// 秒级调度，例如 interval=10: "@every 10s"
	spec := fmt.Sprintf("@every %s", t.config.Interval())
	t.cron = cron.New(cron.WithChain(cron.SkipIfStillRunning(cron.DiscardLogger)))
	_, err := t.cron.AddFunc(spec, func() {
		if err := t.ExecuteCycle(ctx); err != nil {
			t.logger.Error("refresh cycle failed", zap.Error(err))
		}
	})
	if err != nil {
		t.stateMu.Lock()
		t.isRunning = false
		t.stateMu.Unlock()
		return fmt.Errorf("failed to add cron job: %w", err)
	}

	t.logger.Info("refresh loop started",
		zap.Strings("symbols", t.marketService.Symbols()),
		zap.Duration("interval", t.config.Interval()),
		zap.String("schedule", spec))

	t.cron.Start()
	go func() {
		if err := t.ExecuteCycle(ctx); err != nil {
			t.logger.Error("first refresh cycle failed", zap.Error(err))
		}
	}()

	<-ctx.Done()
	t.Stop()
	return ctx.Err()
}

// Stop 停止调度并等待正在执行的周期结束
func (t *RefreshLoop) Stop() {
	t.stateMu.Lock()
	if !t.isRunning {
		t.stateMu.Unlock()
		return
	}
	t.isRunning = false
	t.stateMu.Unlock()

	if t.cron != nil {
		<-t.cron.Stop().Done()
	}
	t.logger.Info("refresh loop stopped")
}

// ExecuteCycle 执行一个完整的刷新周期
func (t *RefreshLoop) ExecuteCycle(ctx context.Context) (err error) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.stateMu.Lock()
	t.iteration++
	iteration := t.iteration
	t.stateMu.Unlock()

	cycleStart := time.Now()
	defer func() {
		status := "success"
		if err != nil {
			status = "error"
		}
		metrics.RefreshRuns.WithLabelValues(status).Inc()
		metrics.RefreshDuration.Observe(time.Since(cycleStart).Seconds())

		t.stateMu.Lock()
		t.lastRunAt = cycleStart
		t.lastError = ""
		if err != nil {
			t.lastError = err.Error()
		}
		t.stateMu.Unlock()
	}()

	// 1. 推进行情并发布价格事件
	ticks := t.marketService.Advance(ctx)
	for _, tick := range ticks {
		payload := event.PricePayload{Symbol: tick.Symbol, Price: tick.Price, ChangePercent: tick.ChangePercent}
		t.bus.Publish(event.TopicPriceTick, payload)
		if math.Abs(tick.ChangePercent) >= t.config.FlashThresholdPercent {
			t.logger.Info("flash move",
				zap.String("symbol", tick.Symbol),
				zap.Float64("price", tick.Price),
				zap.Float64("change_percent", tick.ChangePercent))
			t.bus.Publish(event.TopicPriceFlash, payload)
		}
	}

	// 2. 行情快照
	if _, err := t.marketService.RefreshSnapshots(ctx); err != nil {
		return fmt.Errorf("refresh snapshots: %w", err)
	}

	// 3. 盯市
	positions, err := t.positionService.MarkToMarket(ctx)
	if err != nil {
		return fmt.Errorf("mark to market: %w", err)
	}

	// 4. 风控
	report, err := t.riskService.CheckAll(ctx)
	if err != nil {
		return fmt.Errorf("risk check: %w", err)
	}

	// 5. 组合记录
	history, err := t.portfolioService.Record(ctx, iteration)
	if err != nil {
		return fmt.Errorf("record portfolio: %w", err)
	}

	t.logger.Debug("refresh cycle done",
		zap.Int("iteration", iteration),
		zap.Duration("duration", time.Since(cycleStart)),
		zap.Int("ticks", len(ticks)),
		zap.Int("positions", len(positions)),
		zap.Int("danger", len(report.Danger)),
		zap.Int("liquidated", len(report.Liquidated)),
		zap.Float64("equity", history.Equity))
	return nil
}

// LoopStatus 循环状态
type LoopStatus struct {
	IsRunning       bool      `json:"is_running"`
	Iteration       int       `json:"iteration"`
	StartTime       time.Time `json:"start_time"`
	LastRunAt       time.Time `json:"last_run_at"`
	LastError       string    `json:"last_error,omitempty"`
	ElapsedSeconds  float64   `json:"elapsed_seconds"`
	Symbols         []string  `json:"symbols"`
	IntervalSeconds int       `json:"interval_seconds"`
}

// Status 获取状态信息
func (t *RefreshLoop) Status() LoopStatus {
	t.stateMu.RLock()
	defer t.stateMu.RUnlock()

	s := LoopStatus{
		IsRunning:       t.isRunning,
		Iteration:       t.iteration,
		StartTime:       t.startTime,
		LastRunAt:       t.lastRunAt,
		LastError:       t.lastError,
		Symbols:         t.marketService.Symbols(),
		IntervalSeconds: t.config.IntervalSeconds,
	}
	if t.isRunning {
		s.ElapsedSeconds = time.Since(t.startTime).Seconds()
	}
	return s
}
