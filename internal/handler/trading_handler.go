package handler

import (
	"net/http"

	"github.com/dushixiang/leverquest/internal/config"
	"github.com/dushixiang/leverquest/internal/service"
	"github.com/dushixiang/leverquest/internal/stream"
	"github.com/dushixiang/leverquest/pkg/nostd"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// TradingHandler 组合概览、交易记录与运行状态
type TradingHandler struct {
	conf             *config.Config
	refreshLoop      *service.RefreshLoop
	portfolioService *service.PortfolioService
	tradeService     *service.TradeService
	hub              *stream.Hub
	logger           *zap.Logger
}

// NewTradingHandler 创建交易处理器
func NewTradingHandler(
	conf *config.Config,
	refreshLoop *service.RefreshLoop,
	portfolioService *service.PortfolioService,
	tradeService *service.TradeService,
	hub *stream.Hub,
	logger *zap.Logger,
) *TradingHandler {
	return &TradingHandler{
		conf:             conf,
		refreshLoop:      refreshLoop,
		portfolioService: portfolioService,
		tradeService:     tradeService,
		hub:              hub,
		logger:           logger,
	}
}

// RegisterRoutes 注册路由
func (h *TradingHandler) RegisterRoutes(g *echo.Group) {
	g.GET("/status", h.GetStatus)
	g.GET("/portfolio", h.GetPortfolio)
	g.GET("/portfolio/history", h.GetEquityCurve)
	g.GET("/trades", h.GetTrades)
	g.GET("/stream", h.hub.Handle)
}

// GetStatus 获取运行状态
// GET /api/status
func (h *TradingHandler) GetStatus(c echo.Context) error {
	return c.JSON(http.StatusOK, map[string]interface{}{
		"loop":           h.refreshLoop.Status(),
		"market_source":  h.conf.Market.Source,
		"stream_clients": h.hub.ClientCount(),
	})
}

// GetPortfolio 组合概览
// GET /api/portfolio
func (h *TradingHandler) GetPortfolio(c echo.Context) error {
	summary, err := h.portfolioService.Summary(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"summary": summary,
		"display": map[string]string{
			"balance":           money(summary.Balance),
			"equity":            money(summary.Equity),
			"total_invested":    money(summary.TotalInvested),
			"total_pnl":         money(summary.TotalPnl),
			"total_pnl_percent": percent(summary.TotalPnlPercent),
			"return_percent":    percent(summary.ReturnPercent),
		},
	})
}

// GetEquityCurve 资金曲线
// GET /api/portfolio/history?limit=200
func (h *TradingHandler) GetEquityCurve(c echo.Context) error {
	histories, err := h.portfolioService.Histories(c.Request().Context(), nostd.QueryInt(c, "limit", 200))
	if err != nil {
		return err
	}

	data := make([]map[string]interface{}, 0, len(histories))
	for _, item := range histories {
		data = append(data, map[string]interface{}{
			"timestamp":          item.RecordedAt.Unix(),
			"time":               item.RecordedAt,
			"equity":             item.Equity,
			"total_balance":      item.TotalBalance,
			"unrealised_pnl":     item.UnrealisedPnl,
			"realised_pnl":       item.RealisedPnl,
			"return_percent":     item.ReturnPercent,
			"drawdown_from_peak": item.DrawdownFromPeak,
			"sharpe_ratio":       item.SharpeRatio,
			"iteration":          item.Iteration,
		})
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(data),
		"data":  data,
	})
}

// GetTrades 最近的交易记录
// GET /api/trades?limit=50
func (h *TradingHandler) GetTrades(c echo.Context) error {
	trades, err := h.tradeService.List(c.Request().Context(), nostd.QueryInt(c, "limit", 0))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(trades),
		"data":  trades,
	})
}
