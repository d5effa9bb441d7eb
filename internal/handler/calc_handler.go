package handler

import (
	"net/http"

	"github.com/dushixiang/leverquest/internal/service"
	"github.com/dushixiang/leverquest/pkg/posmath"
	"github.com/labstack/echo/v4"
	"github.com/shopspring/decimal"
)

// CalcHandler 仓位与Boss计算器，不落库
type CalcHandler struct {
	marketService *service.MarketService
}

func NewCalcHandler(marketService *service.MarketService) *CalcHandler {
	return &CalcHandler{
		marketService: marketService,
	}
}

// RegisterRoutes 注册路由
func (h *CalcHandler) RegisterRoutes(g *echo.Group) {
	calc := g.Group("/calc")
	calc.POST("/position", h.Position)
	calc.POST("/boss", h.Boss)
}

// CalcPositionRequest 价格与保证金接受字符串或数字
type CalcPositionRequest struct {
	EntryPrice   decimal.Decimal `json:"entry_price"`
	CurrentPrice decimal.Decimal `json:"current_price"`
	Leverage     int             `json:"leverage" validate:"required,min=1,max=100"`
	Collateral   decimal.Decimal `json:"collateral"`
	Side         string          `json:"side" validate:"required,oneof=long short"`
}

func (r CalcPositionRequest) Inputs() posmath.Inputs {
	current := r.CurrentPrice
	if current.IsZero() {
		current = r.EntryPrice
	}
	return posmath.Inputs{
		EntryPrice:   r.EntryPrice.InexactFloat64(),
		CurrentPrice: current.InexactFloat64(),
		Leverage:     r.Leverage,
		Collateral:   r.Collateral.InexactFloat64(),
		Side:         posmath.Side(r.Side),
	}
}

// CalcPositionResult 计算结果，display 为展示用的格式化字符串
type CalcPositionResult struct {
	posmath.Snapshot
	Tier    posmath.Tier      `json:"tier"`
	Display map[string]string `json:"display"`
}

// EvaluatePosition 估值并生成展示字段
func EvaluatePosition(in posmath.Inputs) (*CalcPositionResult, error) {
	snap, err := posmath.Evaluate(in)
	if err != nil {
		return nil, err
	}
	return &CalcPositionResult{
		Snapshot: snap,
		Tier:     posmath.HealthTier(snap.HealthPercent),
		Display: map[string]string{
			"position_size":     money(snap.PositionSize),
			"pnl":               money(snap.Pnl),
			"pnl_percent":       percent(snap.PnlPercent),
			"liquidation_price": price(snap.LiquidationPrice),
			"health":            decimal.NewFromFloat(snap.HealthPercent).StringFixed(1) + "%",
		},
	}, nil
}

// Position 计算仓位规模、盈亏、强平价与健康度
// POST /api/calc/position
func (h *CalcHandler) Position(c echo.Context) error {
	var req CalcPositionRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	result, err := EvaluatePosition(req.Inputs())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, result)
}

// CalcBossRequest 指定 symbol 时使用最新行情快照，否则使用请求中的市场数据
type CalcBossRequest struct {
	Symbol string `json:"symbol"`
	posmath.MarketInput
}

// Boss 计算Boss属性
// POST /api/calc/boss
func (h *CalcHandler) Boss(c echo.Context) error {
	var req CalcBossRequest
	if err := c.Bind(&req); err != nil {
		return err
	}

	if req.Symbol != "" {
		snapshot, err := h.marketService.LatestSnapshot(c.Request().Context(), req.Symbol)
		if err != nil {
			return err
		}
		boss, err := service.BossFor(snapshot)
		if err != nil {
			return err
		}
		return c.JSON(http.StatusOK, boss)
	}

	stat, err := posmath.ComputeBossStat(req.MarketInput)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, stat)
}
