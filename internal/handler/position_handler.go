package handler

import (
	"net/http"

	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/internal/service"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// PositionHandler 持仓接口
type PositionHandler struct {
	positionService *service.PositionService
	battleService   *service.BattleService
	logger          *zap.Logger
}

func NewPositionHandler(
	positionService *service.PositionService,
	battleService *service.BattleService,
	logger *zap.Logger,
) *PositionHandler {
	return &PositionHandler{
		positionService: positionService,
		battleService:   battleService,
		logger:          logger,
	}
}

// RegisterRoutes 注册路由
func (h *PositionHandler) RegisterRoutes(g *echo.Group) {
	positions := g.Group("/positions")
	positions.GET("", h.List)
	positions.POST("", h.Open)
	positions.GET("/:id", h.Get)
	positions.POST("/:id/close", h.Close)
	positions.GET("/:id/battle", h.Battle)
}

// List 持仓列表
// GET /api/positions?status=open
func (h *PositionHandler) List(c echo.Context) error {
	positions, err := h.positionService.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return err
	}

	data := make([]map[string]interface{}, 0, len(positions))
	for i := range positions {
		data = append(data, positionView(&positions[i]))
	}
	return c.JSON(http.StatusOK, map[string]interface{}{
		"count": len(data),
		"data":  data,
	})
}

// Open 开仓
// POST /api/positions
func (h *PositionHandler) Open(c echo.Context) error {
	var req service.OpenPositionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	position, err := h.positionService.Open(c.Request().Context(), req)
	if err != nil {
		return err
	}
	h.logger.Info("position opened",
		zap.String("id", position.ID),
		zap.String("symbol", position.Symbol),
		zap.String("side", position.Side),
		zap.Int("leverage", position.Leverage))

	return c.JSON(http.StatusOK, positionView(position))
}

// Get 持仓详情
// GET /api/positions/:id
func (h *PositionHandler) Get(c echo.Context) error {
	position, err := h.positionService.Get(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, positionView(position))
}

// Close 平仓
// POST /api/positions/:id/close
func (h *PositionHandler) Close(c echo.Context) error {
	var req service.ClosePositionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	position, err := h.positionService.Close(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	h.logger.Info("position closed",
		zap.String("id", position.ID),
		zap.Float64("pnl", position.Pnl))

	return c.JSON(http.StatusOK, positionView(position))
}

// Battle 持仓战斗视图
// GET /api/positions/:id/battle
func (h *PositionHandler) Battle(c echo.Context) error {
	view, err := h.battleService.Battle(c.Request().Context(), c.Param("id"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, view)
}

func positionView(p *models.Position) map[string]interface{} {
	return map[string]interface{}{
		"id":                p.ID,
		"symbol":            p.Symbol,
		"chain":             p.Chain,
		"side":              p.Side,
		"leverage":          p.Leverage,
		"entry_price":       p.EntryPrice,
		"current_price":     p.CurrentPrice,
		"amount":            p.Amount,
		"collateral":        p.Collateral,
		"liquidation_price": p.LiquidationPrice,
		"pnl":               p.Pnl,
		"pnl_percent":       p.PnlPercent,
		"health":            p.Health,
		"tier":              p.Tier(),
		"status":            p.Status,
		"holding":           p.CalculateHoldingStr(),
		"opened_at":         p.OpenedAt,
		"closed_at":         p.ClosedAt,
		"display": map[string]string{
			"pnl":               money(p.Pnl),
			"pnl_percent":       percent(p.PnlPercent),
			"collateral":        money(p.Collateral),
			"entry_price":       price(p.EntryPrice),
			"current_price":     price(p.CurrentPrice),
			"liquidation_price": price(p.LiquidationPrice),
		},
	}
}
