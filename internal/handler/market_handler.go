package handler

import (
	"net/http"

	"github.com/dushixiang/leverquest/internal/service"
	"github.com/dushixiang/leverquest/pkg/nostd"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// MarketHandler 行情接口
type MarketHandler struct {
	marketService *service.MarketService
	logger        *zap.Logger
}

func NewMarketHandler(marketService *service.MarketService, logger *zap.Logger) *MarketHandler {
	return &MarketHandler{
		marketService: marketService,
		logger:        logger,
	}
}

// RegisterRoutes 注册路由
func (h *MarketHandler) RegisterRoutes(g *echo.Group) {
	market := g.Group("/market")
	market.GET("/prices", h.GetPrices)
	market.GET("/trending", h.GetTrending)
	market.GET("/snapshot/:symbol", h.GetSnapshot)
}

// GetPrices 批量获取价格，未指定时返回全部币种
// GET /api/market/prices?symbols=BTC,ETH
func (h *MarketHandler) GetPrices(c echo.Context) error {
	symbols := nostd.SplitCSV(c.QueryParam("symbols"))
	if len(symbols) == 0 {
		symbols = h.marketService.Symbols()
	}

	quotes, err := h.marketService.Prices(c.Request().Context(), symbols)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, quotes)
}

// GetTrending 热门币种，按24h涨幅排序
// GET /api/market/trending
func (h *MarketHandler) GetTrending(c echo.Context) error {
	tokens, err := h.marketService.Trending(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, tokens)
}

// GetSnapshot 最新市场快照
// GET /api/market/snapshot/:symbol
func (h *MarketHandler) GetSnapshot(c echo.Context) error {
	snapshot, err := h.marketService.LatestSnapshot(c.Request().Context(), c.Param("symbol"))
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, map[string]interface{}{
		"snapshot": snapshot,
		"display": map[string]string{
			"price":      price(snapshot.Price),
			"change_24h": percent(snapshot.Change24h),
			"high_24h":   price(snapshot.High24h),
			"low_24h":    price(snapshot.Low24h),
		},
	})
}
