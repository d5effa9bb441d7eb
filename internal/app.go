package internal

import (
	"context"
	"fmt"
	"net/http"
	"strings"

	"github.com/dushixiang/leverquest/internal/config"
	"github.com/dushixiang/leverquest/internal/event"
	"github.com/dushixiang/leverquest/internal/handler"
	"github.com/dushixiang/leverquest/internal/metrics"
	leverMiddleware "github.com/dushixiang/leverquest/internal/middleware"
	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/internal/service"
	"github.com/dushixiang/leverquest/internal/stream"
	"github.com/dushixiang/leverquest/internal/telegram"
	"github.com/dushixiang/leverquest/pkg/nostd"
	"github.com/go-orz/orz"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"go.uber.org/zap"
)

func Run(configPath string) error {
	app := NewLeverQuestApp()

	framework, err := orz.NewFramework(
		orz.WithConfig(configPath),
		orz.WithLoggerFromConfig(),
		orz.WithDatabase(),
		orz.WithHTTP(),
		orz.WithApplication(app),
	)
	if err != nil {
		return err
	}

	return framework.Run()
}

func NewLeverQuestApp() orz.Application {
	return &LeverQuestApp{}
}

var _ orz.Application = (*LeverQuestApp)(nil)

type AppComponents struct {
	MarketHandler   *handler.MarketHandler
	PositionHandler *handler.PositionHandler
	CalcHandler     *handler.CalcHandler
	TradingHandler  *handler.TradingHandler
	AccountHandler  *handler.AccountHandler

	RefreshLoop  *service.RefreshLoop
	AlertService *service.AlertService
	Hub          *stream.Hub
	Bus          *event.Bus

	tg *telegram.Telegram
}

type LeverQuestApp struct {
	components *AppComponents
	conf       *config.Config
}

// GetComponents 获取应用组件
func (r *LeverQuestApp) GetComponents() *AppComponents {
	return r.components
}

func (r *LeverQuestApp) Configure(app *orz.App) error {
	logger := app.Logger()
	e := app.GetEcho()
	db := app.GetDatabase()

	var conf config.Config
	err := app.GetConfig().App.Unmarshal(&conf)
	if err != nil {
		return fmt.Errorf("failed to unmarshal config: %v", err)
	}
	conf.ApplyDefaults()

	components, err := InitializeApp(logger, db, &conf)
	if err != nil {
		return fmt.Errorf("failed to initialize app: %v", err)
	}
	r.components = components
	r.conf = &conf

	if err := db.AutoMigrate(
		models.Position{}, models.Trade{}, models.LiquidityPosition{}, models.Wallet{},
		models.MarketSnapshot{}, models.PortfolioHistory{},
	); err != nil {
		logger.Fatal("database auto migrate failed", zap.Error(err))
	}

	e.HidePort = true
	e.HideBanner = true

	e.Use(middleware.GzipWithConfig(middleware.GzipConfig{
		// websocket 升级需要原始连接
		Skipper: func(c echo.Context) bool {
			return strings.HasPrefix(c.Request().URL.Path, "/api/stream")
		},
	}))
	e.Use(middleware.CORSWithConfig(middleware.CORSConfig{
		Skipper:      middleware.DefaultSkipper,
		AllowOrigins: []string{"*"},
		AllowMethods: []string{http.MethodGet, http.MethodHead, http.MethodPut, http.MethodPatch, http.MethodPost, http.MethodDelete},
	}))
	e.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{
		LogErrorFunc: func(c echo.Context, err error, stack []byte) error {
			sugar := logger.Sugar()
			sugar.Error(fmt.Sprintf("[PANIC RECOVER] %v %s\n", err, stack))
			return err
		},
	}))
	e.Use(leverMiddleware.AccessLog(logger))
	e.Use(WithErrorHandler(logger))
	customValidator := nostd.CustomValidator{Validator: validator.New()}
	if err := customValidator.TransInit(); err != nil {
		logger.Sugar().Fatal("failed to init custom validator", zap.Error(err))
	}
	e.Validator = &customValidator

	if conf.Metrics.Enabled {
		e.GET(conf.Metrics.Path, echo.WrapHandler(metrics.Handler()))
	}

	api := e.Group("/api")
	{
		components.MarketHandler.RegisterRoutes(api)
		components.PositionHandler.RegisterRoutes(api)
		components.CalcHandler.RegisterRoutes(api)
		components.TradingHandler.RegisterRoutes(api)
		components.AccountHandler.RegisterRoutes(api)
	}

	if err := r.Init(logger); err != nil {
		logger.Fatal("app init failed", zap.Error(err))
	}

	return nil
}

// Init 启动后台组件：事件推送、告警、定时刷新与Telegram
func (r *LeverQuestApp) Init(logger *zap.Logger) error {
	logger.Info("=================================================")
	logger.Info("LeverQuest Starting...")
	logger.Info("=================================================")

	components := r.GetComponents()
	if components == nil {
		return fmt.Errorf("components not initialized")
	}

	ctx := context.Background()

	go components.Hub.Run(ctx)
	go components.AlertService.Run(ctx)

	if components.tg != nil {
		components.tg.Start()
		logger.Info("telegram bot started")
	}

	if r.conf.Refresh.Disabled {
		logger.Warn("refresh loop disabled, market data is only served on request")
		return nil
	}

	logger.Info("refresh loop initialized, starting...",
		zap.String("market_source", r.conf.Market.Source),
		zap.Int("interval_seconds", r.conf.Refresh.IntervalSeconds))

	go func() {
		if err := components.RefreshLoop.Start(ctx); err != nil {
			logger.Error("refresh loop error", zap.Error(err))
		}
	}()
	return nil
}
