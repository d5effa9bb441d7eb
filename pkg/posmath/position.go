// Package posmath 杠杆仓位计算：仓位规模、未实现盈亏、强平价格、健康度以及Boss属性。
// 所有函数均为纯函数，可并发调用。
package posmath

// DefaultSafetyFactor 强平安全系数，杠杆隐含的100%亏损价之前保留10%缓冲
const DefaultSafetyFactor = 0.9

// Side 持仓方向
type Side string

const (
	SideLong  Side = "long"
	SideShort Side = "short"
)

func SideFromLong(isLong bool) Side {
	if isLong {
		return SideLong
	}
	return SideShort
}

func (s Side) IsLong() bool {
	return s == SideLong
}

func (s Side) Valid() bool {
	return s == SideLong || s == SideShort
}

func (s Side) String() string {
	return string(s)
}

// Inputs 单次计算的仓位输入
type Inputs struct {
	EntryPrice   float64 `json:"entry_price"`
	CurrentPrice float64 `json:"current_price"`
	Leverage     int     `json:"leverage"`
	Collateral   float64 `json:"collateral"` // 保证金(USDT)
	Side         Side    `json:"side"`
}

// Validate 校验所有前置条件
func (in Inputs) Validate() error {
	if err := checkPositive("entry price", in.EntryPrice); err != nil {
		return err
	}
	if err := checkPositive("current price", in.CurrentPrice); err != nil {
		return err
	}
	if err := checkLeverage(in.Leverage); err != nil {
		return err
	}
	if err := checkPositive("collateral", in.Collateral); err != nil {
		return err
	}
	if !in.Side.Valid() {
		return invalid("side must be long or short, got %q", in.Side)
	}
	return nil
}

// Pnl 未实现盈亏
type Pnl struct {
	Pnl        float64 `json:"pnl"`         // USDT
	PnlPercent float64 `json:"pnl_percent"` // 相对保证金的百分比
}

// Snapshot 一次完整估值结果
type Snapshot struct {
	PositionSize     float64 `json:"position_size"`     // 名义价值
	Quantity         float64 `json:"quantity"`          // 基础币数量
	Pnl              float64 `json:"pnl"`               // 未实现盈亏
	PnlPercent       float64 `json:"pnl_percent"`       // 盈亏百分比
	LiquidationPrice float64 `json:"liquidation_price"` // 强平价格
	HealthPercent    float64 `json:"health_percent"`    // 健康度 [0,100]
}

// PositionSize 名义价值 = 保证金 × 杠杆
func PositionSize(collateral float64, leverage int) (float64, error) {
	if err := checkPositive("collateral", collateral); err != nil {
		return 0, err
	}
	if err := checkLeverage(leverage); err != nil {
		return 0, err
	}
	return collateral * float64(leverage), nil
}

// PositionQuantity 持仓数量 = 名义价值 / 开仓价格
func PositionQuantity(collateral float64, leverage int, entryPrice float64) (float64, error) {
	size, err := PositionSize(collateral, leverage)
	if err != nil {
		return 0, err
	}
	if err := checkPositive("entry price", entryPrice); err != nil {
		return 0, err
	}
	return size / entryPrice, nil
}

// ComputePnl 计算未实现盈亏，不做任何舍入
func ComputePnl(entryPrice, currentPrice float64, leverage int, collateral float64, isLong bool) (Pnl, error) {
	quantity, err := PositionQuantity(collateral, leverage, entryPrice)
	if err != nil {
		return Pnl{}, err
	}
	if err := checkPositive("current price", currentPrice); err != nil {
		return Pnl{}, err
	}

	move := currentPrice - entryPrice
	if !isLong {
		move = -move
	}
	pnl := move * quantity

	return Pnl{
		Pnl:        pnl,
		PnlPercent: pnl / collateral * 100,
	}, nil
}

// LiquidationPrice 使用默认安全系数0.9计算强平价格
func LiquidationPrice(entryPrice float64, leverage int, isLong bool) (float64, error) {
	return LiquidationPriceWithFactor(entryPrice, leverage, isLong, DefaultSafetyFactor)
}

// LiquidationPriceWithFactor 多头 entry×(1−f/lev)，空头 entry×(1+f/lev)。
// 1倍杠杆的多头强平价为开仓价的10%，而不是0。
func LiquidationPriceWithFactor(entryPrice float64, leverage int, isLong bool, safetyFactor float64) (float64, error) {
	if err := checkPositive("entry price", entryPrice); err != nil {
		return 0, err
	}
	if err := checkLeverage(leverage); err != nil {
		return 0, err
	}
	if !isFinite(safetyFactor) || safetyFactor <= 0 || safetyFactor >= 1 {
		return 0, invalid("safety factor must be in (0,1), got %v", safetyFactor)
	}

	ratio := 1 - safetyFactor/float64(leverage)
	if isLong {
		return entryPrice * ratio, nil
	}
	return entryPrice * (2 - ratio), nil
}

// HealthPercent 当前价格到强平价格的距离（相对当前价格的百分比），截断到[0,100]
func HealthPercent(currentPrice, liquidationPrice float64, isLong bool) (float64, error) {
	if err := checkPositive("current price", currentPrice); err != nil {
		return 0, err
	}
	if !isFinite(liquidationPrice) || liquidationPrice < 0 {
		return 0, invalid("liquidation price must be finite and non-negative, got %v", liquidationPrice)
	}

	distance := currentPrice - liquidationPrice
	if !isLong {
		distance = liquidationPrice - currentPrice
	}
	return clamp(distance/currentPrice*100, 0, 100), nil
}

// Evaluate 一次性计算持仓的全部派生值
func Evaluate(in Inputs) (Snapshot, error) {
	if err := in.Validate(); err != nil {
		return Snapshot{}, err
	}

	isLong := in.Side.IsLong()
	size, _ := PositionSize(in.Collateral, in.Leverage)
	pnl, err := ComputePnl(in.EntryPrice, in.CurrentPrice, in.Leverage, in.Collateral, isLong)
	if err != nil {
		return Snapshot{}, err
	}
	liq, err := LiquidationPrice(in.EntryPrice, in.Leverage, isLong)
	if err != nil {
		return Snapshot{}, err
	}
	health, err := HealthPercent(in.CurrentPrice, liq, isLong)
	if err != nil {
		return Snapshot{}, err
	}

	return Snapshot{
		PositionSize:     size,
		Quantity:         size / in.EntryPrice,
		Pnl:              pnl.Pnl,
		PnlPercent:       pnl.PnlPercent,
		LiquidationPrice: liq,
		HealthPercent:    health,
	}, nil
}

func clamp(v, lo, hi float64) float64 {
	if v < lo {
		return lo
	}
	if v > hi {
		return hi
	}
	return v
}
