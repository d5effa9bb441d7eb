//go:build wireinject
// +build wireinject

package internal

import (
	"github.com/google/wire"
	"go.uber.org/zap"
	"gorm.io/gorm"

	"github.com/dushixiang/leverquest/internal/config"
	"github.com/dushixiang/leverquest/internal/event"
	"github.com/dushixiang/leverquest/internal/handler"
	"github.com/dushixiang/leverquest/internal/service"
	"github.com/dushixiang/leverquest/internal/stream"
)

var (
	handlerSet = wire.NewSet(
		handler.NewMarketHandler,
		handler.NewPositionHandler,
		handler.NewCalcHandler,
		handler.NewTradingHandler,
		handler.NewAccountHandler,
	)

	serviceSet = wire.NewSet(
		provideMarketSource,
		service.NewIndicatorService,
		service.NewMarketService,
		service.NewPositionService,
		service.NewRiskService,
		service.NewPortfolioService,
		service.NewTradeService,
		service.NewLiquidityService,
		service.NewWalletService,
		service.NewBattleService,
		service.NewRefreshLoop,
	)

	eventSet = wire.NewSet(
		event.NewBus,
		stream.NewHub,
		provideTelegram,
		provideNotifier,
		service.NewAlertService,
	)
)

// InitializeApp 初始化应用
func InitializeApp(logger *zap.Logger, db *gorm.DB, conf *config.Config) (*AppComponents, error) {
	wire.Build(
		handlerSet,
		serviceSet,
		eventSet,
		wire.Struct(new(AppComponents), "*"),
	)
	return nil, nil
}
