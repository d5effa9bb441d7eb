package service

import (
	"context"
	"fmt"

	"github.com/dushixiang/leverquest/internal/models"
	"github.com/dushixiang/leverquest/pkg/exchange"
	"github.com/dushixiang/leverquest/pkg/posmath"
)

var bossNames = map[posmath.BossType]string{
	posmath.BossBull: "Bull King",
	posmath.BossBear: "Bear Tyrant",
	posmath.BossCrab: "Crab General",
}

// BossStatus 战斗视图中的Boss
type BossStatus struct {
	posmath.BossStat
	Name  string  `json:"name"`
	MaxHP float64 `json:"max_hp"`
}

// PlayerStatus 战斗视图中的玩家
type PlayerStatus struct {
	Weapon     string       `json:"weapon"`   // 杠杆
	Ammo       float64      `json:"ammo"`     // 保证金
	HP         float64      `json:"hp"`       // 健康度
	MaxHP      float64      `json:"max_hp"`   // 固定100
	Position   float64      `json:"position"` // 持仓数量
	Pnl        float64      `json:"pnl"`
	PnlPercent float64      `json:"pnl_percent"`
	Tier       posmath.Tier `json:"tier"`
}

// BattleView 持仓的战斗视图
type BattleView struct {
	PositionID       string       `json:"position_id"`
	Symbol           string       `json:"symbol"`
	Status           string       `json:"status"`
	CurrentPrice     float64      `json:"current_price"`
	LiquidationPrice float64      `json:"liquidation_price"`
	Boss             BossStatus   `json:"boss"`
	Player           PlayerStatus `json:"player"`
}

// BattleService 将持仓与行情映射为战斗视图
type BattleService struct {
	positionService *PositionService
	marketService   *MarketService
}

func NewBattleService(positionService *PositionService, marketService *MarketService) *BattleService {
	return &BattleService{
		positionService: positionService,
		marketService:   marketService,
	}
}

// BossFor 由行情快照生成Boss
func BossFor(snapshot *models.MarketSnapshot) (BossStatus, error) {
	stat, err := posmath.ComputeBossStat(posmath.MarketInput{
		PriceChangePercent: snapshot.Change24h,
		Volume24h:          snapshot.Volume24h,
		Volatility:         snapshot.Volatility,
		ResistanceLevels:   snapshot.Resistance,
		CurrentPrice:       snapshot.Price,
	})
	if err != nil {
		return BossStatus{}, err
	}
	return BossStatus{
		BossStat: stat,
		Name:     exchange.BaseAsset(snapshot.Symbol) + " " + bossNames[stat.Type],
		MaxHP:    posmath.MaxBossHP,
	}, nil
}

// PlayerFor 由持仓生成玩家状态，未平仓持仓按 price 重新估值
func PlayerFor(position *models.Position, price float64) (PlayerStatus, error) {
	p := *position
	if p.IsOpen() && price > 0 {
		if err := Mark(&p, price); err != nil {
			return PlayerStatus{}, err
		}
	}
	return PlayerStatus{
		Weapon:     fmt.Sprintf("%dx leverage sword", p.Leverage),
		Ammo:       p.Collateral,
		HP:         p.Health,
		MaxHP:      100,
		Position:   p.Amount,
		Pnl:        p.Pnl,
		PnlPercent: p.PnlPercent,
		Tier:       p.Tier(),
	}, nil
}

// BuildBattle 组装战斗视图
func BuildBattle(position *models.Position, snapshot *models.MarketSnapshot) (*BattleView, error) {
	boss, err := BossFor(snapshot)
	if err != nil {
		return nil, err
	}
	player, err := PlayerFor(position, snapshot.Price)
	if err != nil {
		return nil, err
	}

	currentPrice := position.CurrentPrice
	if position.IsOpen() {
		currentPrice = snapshot.Price
	}
	return &BattleView{
		PositionID:       position.ID,
		Symbol:           position.Symbol,
		Status:           position.Status,
		CurrentPrice:     currentPrice,
		LiquidationPrice: position.LiquidationPrice,
		Boss:             boss,
		Player:           player,
	}, nil
}

// Battle 持仓的战斗视图
func (s *BattleService) Battle(ctx context.Context, positionID string) (*BattleView, error) {
	position, err := s.positionService.Get(ctx, positionID)
	if err != nil {
		return nil, err
	}
	snapshot, err := s.marketService.LatestSnapshot(ctx, exchange.BaseAsset(position.Symbol))
	if err != nil {
		return nil, err
	}
	return BuildBattle(position, snapshot)
}
