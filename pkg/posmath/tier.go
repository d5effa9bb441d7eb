package posmath

// Tier 健康度展示分级
type Tier string

const (
	TierSafe    Tier = "safe"
	TierWarning Tier = "warning"
	TierDanger  Tier = "danger"
)

// HealthTier >50 安全，30-50 预警，<30 危险
func HealthTier(health float64) Tier {
	switch {
	case health > 50:
		return TierSafe
	case health >= 30:
		return TierWarning
	default:
		return TierDanger
	}
}
