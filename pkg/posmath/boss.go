package posmath

import "math"

// BossType Boss类型，由价格趋势决定
type BossType string

const (
	BossBull BossType = "bull"
	BossBear BossType = "bear"
	BossCrab BossType = "crab"
)

func (t BossType) String() string {
	return string(t)
}

// Morale Boss士气
type Morale string

const (
	MoraleAggressive Morale = "aggressive"
	MoraleNeutral    Morale = "neutral"
	MoraleWeak       Morale = "weak"
)

func (m Morale) String() string {
	return string(m)
}

// MaxBossHP Boss满血
const MaxBossHP = 100

// MarketInput Boss属性的市场输入
type MarketInput struct {
	PriceChangePercent float64   `json:"price_change_percent"`
	Volume24h          float64   `json:"volume_24h"`
	Volatility         float64   `json:"volatility"`
	ResistanceLevels   []float64 `json:"resistance_levels"`
	CurrentPrice       float64   `json:"current_price"`
}

// BossStat 游戏化展示用的Boss属性
type BossStat struct {
	Type   BossType `json:"type"`
	HP     float64  `json:"hp"`
	Armor  int      `json:"armor"`
	Attack float64  `json:"attack"`
	Morale Morale   `json:"morale"`
}

// ComputeBossStat 根据市场快照推导Boss属性
func ComputeBossStat(in MarketInput) (BossStat, error) {
	if err := checkPositive("current price", in.CurrentPrice); err != nil {
		return BossStat{}, err
	}
	if !isFinite(in.PriceChangePercent) {
		return BossStat{}, invalid("price change percent must be finite, got %v", in.PriceChangePercent)
	}
	if !isFinite(in.Volume24h) || in.Volume24h < 0 {
		return BossStat{}, invalid("volume must be finite and non-negative, got %v", in.Volume24h)
	}
	if !isFinite(in.Volatility) || in.Volatility < 0 {
		return BossStat{}, invalid("volatility must be finite and non-negative, got %v", in.Volatility)
	}
	for _, level := range in.ResistanceLevels {
		if err := checkPositive("resistance level", level); err != nil {
			return BossStat{}, err
		}
	}

	return BossStat{
		Type:   BossTypeOf(in.PriceChangePercent),
		HP:     BossHP(in.CurrentPrice, NearestResistance(in.CurrentPrice, in.ResistanceLevels)),
		Armor:  len(in.ResistanceLevels),
		Attack: BossAttack(in.Volatility),
		Morale: BossMorale(in.PriceChangePercent, in.Volume24h),
	}, nil
}

// BossTypeOf 涨幅>5为牛，跌幅<-5为熊，其余为蟹
func BossTypeOf(priceChangePercent float64) BossType {
	switch {
	case priceChangePercent > 5:
		return BossBull
	case priceChangePercent < -5:
		return BossBear
	default:
		return BossCrab
	}
}

// NearestResistance 当前价格之上最近的阻力位；没有阻力位时取 current×1.1，
// 全部阻力位都在当前价格之下时取最接近的一个。
func NearestResistance(currentPrice float64, levels []float64) float64 {
	if len(levels) == 0 {
		return currentPrice * 1.1
	}

	above := math.Inf(1)
	closest := levels[0]
	for _, level := range levels {
		if level >= currentPrice && level < above {
			above = level
		}
		if math.Abs(level-currentPrice) < math.Abs(closest-currentPrice) {
			closest = level
		}
	}
	if !math.IsInf(above, 1) {
		return above
	}
	return closest
}

// BossHP 越接近阻力位血量越低：距离0%为0，距离10%为满血
func BossHP(currentPrice, resistance float64) float64 {
	distance := (resistance - currentPrice) / currentPrice * 100
	return clamp(distance*10, 0, MaxBossHP)
}

// BossAttack 波动率越高攻击力越强，上限100
func BossAttack(volatility float64) float64 {
	return clamp(volatility*100, 0, 100)
}

// BossMorale 先判断高涨，再判断低落
func BossMorale(priceChangePercent, volume24h float64) Morale {
	if priceChangePercent > 3 && volume24h > 1_000_000 {
		return MoraleAggressive
	}
	if priceChangePercent < -3 || volume24h < 500_000 {
		return MoraleWeak
	}
	return MoraleNeutral
}
