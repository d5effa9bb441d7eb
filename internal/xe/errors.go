package xe

import "github.com/go-orz/orz"

var (
	ErrInvalidParams = orz.NewError(10400, "参数无效")
	ErrNotFound      = orz.NewError(10404, "数据不存在")

	ErrPositionNotOpen      = orz.NewError(11001, "持仓已平仓或已被强平")
	ErrLiquidityNotActive   = orz.NewError(11002, "流动性仓位已撤出")
	ErrInvalidWalletAddress = orz.NewError(11003, "钱包地址格式不正确")
	ErrWalletExists         = orz.NewError(11004, "钱包地址已存在")
	ErrMarketDataNotReady   = orz.NewError(11005, "行情数据尚未就绪")
)
