package internal

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dushixiang/leverquest/internal/config"
	"github.com/dushixiang/leverquest/internal/service"
	"github.com/dushixiang/leverquest/internal/telegram"
	"github.com/dushixiang/leverquest/pkg/exchange"
	"go.uber.org/zap"
)

const telegramHTTPTimeout = 10 * time.Second

// provideMarketSource 按配置选择模拟行情或币安行情
func provideMarketSource(conf *config.Config, logger *zap.Logger) exchange.MarketSource {
	if conf.Market.Source == config.MarketSourceBinance {
		client := exchange.NewBinanceClient(
			conf.Binance.APIKey,
			conf.Binance.Secret,
			conf.Binance.ProxyURL,
			conf.Binance.Testnet,
			conf.Market.Symbols,
		)
		logger.Info("Binance market source initialized",
			zap.Bool("testnet", conf.Binance.Testnet),
			zap.Strings("symbols", conf.Market.Symbols),
		)
		return client
	}

	logger.Info("mock market source initialized",
		zap.Uint64("seed", conf.Market.Seed),
		zap.Strings("symbols", conf.Market.Symbols),
	)
	return exchange.NewMockFeed(conf.Market.Seed, conf.Market.Symbols)
}

// provideTelegram provides telegram instance
func provideTelegram(logger *zap.Logger, conf *config.Config, loop *service.RefreshLoop, portfolio *service.PortfolioService) *telegram.Telegram {
	if !conf.Telegram.Enabled {
		return nil
	}

	httpClient := &http.Client{Timeout: telegramHTTPTimeout}

	tg, err := telegram.NewTelegram(logger, telegram.Settings{
		Token:  conf.Telegram.Token,
		ChatID: conf.Telegram.ChatID,
		Client: httpClient,
	}, telegram.WithStatus(statusReport(loop, portfolio)))
	if err != nil {
		logger.Error("failed to init telegram", zap.Error(err))
		return nil
	}

	return tg
}

// provideNotifier 未启用Telegram时返回nil，告警只写日志
func provideNotifier(tg *telegram.Telegram) service.Notifier {
	if tg == nil {
		return nil
	}
	return tg
}

func statusReport(loop *service.RefreshLoop, portfolio *service.PortfolioService) telegram.StatusFunc {
	return func() string {
		status := loop.Status()
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()

		summary, err := portfolio.Summary(ctx)
		if err != nil {
			return fmt.Sprintf("iteration #%d, portfolio unavailable: %v", status.Iteration, err)
		}
		return fmt.Sprintf("iteration #%d\nopen positions: %d\nequity: %.2f USDT\ntotal pnl: %.2f USDT (%.2f%%)\nreturn: %.2f%% of %.0f%% goal",
			status.Iteration,
			summary.OpenPositions,
			summary.Equity,
			summary.TotalPnl,
			summary.TotalPnlPercent,
			summary.ReturnPercent,
			summary.GoalPercent,
		)
	}
}
