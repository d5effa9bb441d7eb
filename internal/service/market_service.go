package service

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/dushixiang/leverquest/internal/config"
	"github.com/dushixiang/leverquest/internal/metrics"
	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/internal/repo"
	"github.com/dushixiang/leverquest/internal/xe"
	"github.com/dushixiang/leverquest/pkg/exchange"
	"github.com/go-orz/orz"
	"github.com/oklog/ulid/v2"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// 每个币种保留的快照数量
const snapshotsToKeep = 500

// MarketService 行情服务
type MarketService struct {
	logger *zap.Logger

	*orz.Service
	*repo.MarketSnapshotRepo

	conf             config.MarketConf
	source           exchange.MarketSource
	indicatorService *IndicatorService

	mu         sync.Mutex
	lastPrices map[string]float64
}

// NewMarketService 创建行情服务
func NewMarketService(db *gorm.DB, conf *config.Config, source exchange.MarketSource,
	indicatorService *IndicatorService, logger *zap.Logger) *MarketService {
	return &MarketService{
		logger:             logger,
		Service:            orz.NewService(db),
		MarketSnapshotRepo: repo.NewMarketSnapshotRepo(db),
		conf:               conf.Market,
		source:             source,
		indicatorService:   indicatorService,
		lastPrices:         make(map[string]float64),
	}
}

// Quote 报价
type Quote struct {
	Symbol    string  `json:"symbol"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
	Volume24h float64 `json:"volume24h"`
}

// TrendingToken 热门币种
type TrendingToken struct {
	Symbol    string  `json:"symbol"`
	Name      string  `json:"name"`
	Price     float64 `json:"price"`
	Change24h float64 `json:"change24h"`
}

func (s *MarketService) Symbols() []string {
	return s.source.Symbols()
}

// Prices 批量报价，不支持的币种返回全0报价
func (s *MarketService) Prices(ctx context.Context, symbols []string) ([]Quote, error) {
	quotes := make([]Quote, 0, len(symbols))
	for _, symbol := range symbols {
		ticker, err := s.source.GetTicker(ctx, symbol)
		if err != nil {
			if errors.Is(err, exchange.ErrUnknownSymbol) {
				quotes = append(quotes, Quote{Symbol: symbol})
				continue
			}
			metrics.MarketSourceErrors.WithLabelValues("ticker").Inc()
			return nil, fmt.Errorf("failed to get ticker for %s: %w", symbol, err)
		}
		quotes = append(quotes, Quote{
			Symbol:    symbol,
			Price:     ticker.LastPrice,
			Change24h: ticker.PriceChangePercent,
			Volume24h: ticker.QuoteVolume,
		})
	}
	return quotes, nil
}

// Trending 所有币种按24小时涨跌幅从高到低排列
func (s *MarketService) Trending(ctx context.Context) ([]TrendingToken, error) {
	var tokens []TrendingToken
	for _, symbol := range s.source.Symbols() {
		ticker, err := s.source.GetTicker(ctx, symbol)
		if err != nil {
			metrics.MarketSourceErrors.WithLabelValues("ticker").Inc()
			s.logger.Warn("failed to get ticker", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		tokens = append(tokens, TrendingToken{
			Symbol:    ticker.Symbol,
			Name:      ticker.Name,
			Price:     ticker.LastPrice,
			Change24h: ticker.PriceChangePercent,
		})
	}
	sort.SliceStable(tokens, func(i, j int) bool {
		return tokens[i].Change24h > tokens[j].Change24h
	})
	return tokens, nil
}

// CurrentPrice 最新价格
func (s *MarketService) CurrentPrice(ctx context.Context, symbol string) (float64, error) {
	price, err := s.source.GetCurrentPrice(ctx, symbol)
	if err != nil {
		if !errors.Is(err, exchange.ErrUnknownSymbol) {
			metrics.MarketSourceErrors.WithLabelValues("price").Inc()
		}
		return 0, err
	}
	return price, nil
}

// Advance 推进一次行情。模拟行情直接生成新K线，真实行情轮询最新价并与上次比较
func (s *MarketService) Advance(ctx context.Context) []exchange.Tick {
	if stepper, ok := s.source.(exchange.Stepper); ok {
		ticks := stepper.Step()
		s.mu.Lock()
		for _, t := range ticks {
			s.lastPrices[t.Symbol] = t.Price
			metrics.MarketPrice.WithLabelValues(t.Symbol).Set(t.Price)
		}
		s.mu.Unlock()
		return ticks
	}

	var ticks []exchange.Tick
	now := time.Now()
	for _, symbol := range s.source.Symbols() {
		price, err := s.CurrentPrice(ctx, symbol)
		if err != nil {
			s.logger.Warn("failed to poll price", zap.String("symbol", symbol), zap.Error(err))
			continue
		}

		s.mu.Lock()
		last, seen := s.lastPrices[symbol]
		s.lastPrices[symbol] = price
		s.mu.Unlock()
		metrics.MarketPrice.WithLabelValues(symbol).Set(price)

		change := 0.0
		if seen && last > 0 {
			change = (price/last - 1) * 100
		}
		ticks = append(ticks, exchange.Tick{Symbol: symbol, Price: price, ChangePercent: change, At: now})
	}
	return ticks
}

// BuildSnapshot 计算行情快照，不落库
func (s *MarketService) BuildSnapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	base := exchange.BaseAsset(symbol)
	ticker, err := s.source.GetTicker(ctx, base)
	if err != nil {
		return nil, fmt.Errorf("failed to get ticker: %w", err)
	}
	klines, err := s.source.GetKlines(ctx, base, s.conf.KlineInterval, s.conf.KlineLimit)
	if err != nil {
		metrics.MarketSourceErrors.WithLabelValues("klines").Inc()
		return nil, fmt.Errorf("failed to get klines: %w", err)
	}

	indicators := s.indicatorService.CalculateIndicators(klines)
	if indicators == nil {
		return nil, xe.ErrMarketDataNotReady
	}

	return &models.MarketSnapshot{
		ID:           ulid.Make().String(),
		Symbol:       base,
		Name:         ticker.Name,
		Price:        ticker.LastPrice,
		Change24h:    ticker.PriceChangePercent,
		Volume24h:    ticker.QuoteVolume,
		High24h:      ticker.HighPrice,
		Low24h:       ticker.LowPrice,
		Volatility:   indicators.Volatility,
		ATRPercent:   indicators.ATRPercent,
		Resistance:   indicators.Resistance,
		Support:      indicators.Support,
		PriceSeries:  indicators.PriceSeries,
		CalculatedAt: time.Now(),
	}, nil
}

// Snapshot 计算并保存行情快照
func (s *MarketService) Snapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	snapshot, err := s.BuildSnapshot(ctx, symbol)
	if err != nil {
		return nil, err
	}
	if err := s.MarketSnapshotRepo.Create(ctx, snapshot); err != nil {
		return nil, fmt.Errorf("failed to save snapshot: %w", err)
	}
	if err := s.MarketSnapshotRepo.DeleteOlderThanKeep(ctx, snapshot.Symbol, snapshotsToKeep); err != nil {
		s.logger.Warn("failed to prune snapshots", zap.String("symbol", snapshot.Symbol), zap.Error(err))
	}
	return snapshot, nil
}

// RefreshSnapshots 为所有币种生成快照
func (s *MarketService) RefreshSnapshots(ctx context.Context) (map[string]*models.MarketSnapshot, error) {
	result := make(map[string]*models.MarketSnapshot)
	for _, symbol := range s.source.Symbols() {
		snapshot, err := s.Snapshot(ctx, symbol)
		if err != nil {
			s.logger.Error("failed to refresh snapshot", zap.String("symbol", symbol), zap.Error(err))
			continue
		}
		result[snapshot.Symbol] = snapshot
	}
	if len(result) == 0 && len(s.source.Symbols()) > 0 {
		return nil, fmt.Errorf("failed to refresh snapshot for any symbol")
	}
	return result, nil
}

// LatestSnapshot 最新快照，库里没有时实时计算一份
func (s *MarketService) LatestSnapshot(ctx context.Context, symbol string) (*models.MarketSnapshot, error) {
	snapshot, err := s.MarketSnapshotRepo.FindLatestBySymbol(ctx, exchange.BaseAsset(symbol))
	if err == nil {
		return &snapshot, nil
	}
	if !errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, err
	}
	return s.Snapshot(ctx, symbol)
}
