package handler

import (
	"net/http"

	"github.com/dushixiang/leverquest/internal/service"
	"github.com/labstack/echo/v4"
)

// AccountHandler 流动性与钱包接口
type AccountHandler struct {
	liquidityService *service.LiquidityService
	walletService    *service.WalletService
}

func NewAccountHandler(liquidityService *service.LiquidityService, walletService *service.WalletService) *AccountHandler {
	return &AccountHandler{
		liquidityService: liquidityService,
		walletService:    walletService,
	}
}

// RegisterRoutes 注册路由
func (h *AccountHandler) RegisterRoutes(g *echo.Group) {
	liquidity := g.Group("/liquidity")
	liquidity.GET("", h.ListLiquidity)
	liquidity.POST("", h.AddLiquidity)
	liquidity.POST("/:id/withdraw", h.WithdrawLiquidity)

	wallets := g.Group("/wallets")
	wallets.GET("", h.ListWallets)
	wallets.POST("", h.AddWallet)
}

// ListLiquidity 流动性仓位列表
// GET /api/liquidity?status=active
func (h *AccountHandler) ListLiquidity(c echo.Context) error {
	items, err := h.liquidityService.List(c.Request().Context(), c.QueryParam("status"))
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, items)
}

// AddLiquidity 添加流动性
// POST /api/liquidity
func (h *AccountHandler) AddLiquidity(c echo.Context) error {
	var req service.AddLiquidityRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	lp, err := h.liquidityService.Add(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lp)
}

// WithdrawLiquidity 撤出流动性
// POST /api/liquidity/:id/withdraw
func (h *AccountHandler) WithdrawLiquidity(c echo.Context) error {
	var req service.WithdrawLiquidityRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	lp, err := h.liquidityService.Withdraw(c.Request().Context(), c.Param("id"), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, lp)
}

// ListWallets 钱包列表
// GET /api/wallets
func (h *AccountHandler) ListWallets(c echo.Context) error {
	wallets, err := h.walletService.List(c.Request().Context())
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wallets)
}

// AddWallet 绑定钱包
// POST /api/wallets
func (h *AccountHandler) AddWallet(c echo.Context) error {
	var req service.AddWalletRequest
	if err := c.Bind(&req); err != nil {
		return err
	}
	if err := c.Validate(&req); err != nil {
		return err
	}

	wallet, err := h.walletService.Add(c.Request().Context(), req)
	if err != nil {
		return err
	}
	return c.JSON(http.StatusOK, wallet)
}
