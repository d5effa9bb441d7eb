package service

import (
	"context"
	"strconv"

	"github.com/dushixiang/leverquest/internal/event"
	"github.com/dushixiang/leverquest/internal/metrics"
	"github.com/valyala/fasttemplate"
	"go.uber.org/zap"
)

const (
	liquidatedTemplate = `💀 {{symbol}} {{side}} {{leverage}}x was liquidated at {{price}} (liquidation {{liquidation_price}}). Lost {{collateral}} USDT collateral.`
	dangerTemplate     = `⚠️ {{symbol}} {{side}} {{leverage}}x health {{health}}%: price {{price}}, liquidation {{liquidation_price}}. PnL {{pnl}} USDT ({{pnl_percent}}%).`
	flashTemplate      = `⚡ {{symbol}} moved {{change}}% in one tick, now {{price}}.`
)

// Notifier 告警发送通道
type Notifier interface {
	Notify(msg string) error
}

// AlertService 订阅强平、危险与急涨急跌事件并发送告警
type AlertService struct {
	logger   *zap.Logger
	bus      *event.Bus
	notifier Notifier

	liquidated *fasttemplate.Template
	danger     *fasttemplate.Template
	flash      *fasttemplate.Template
}

func NewAlertService(bus *event.Bus, notifier Notifier, logger *zap.Logger) *AlertService {
	return &AlertService{
		logger:     logger,
		bus:        bus,
		notifier:   notifier,
		liquidated: fasttemplate.New(liquidatedTemplate, "{{", "}}"),
		danger:     fasttemplate.New(dangerTemplate, "{{", "}}"),
		flash:      fasttemplate.New(flashTemplate, "{{", "}}"),
	}
}

func formatFloat(v float64, prec int) string {
	return strconv.FormatFloat(v, 'f', prec, 64)
}

// pricePrecision 低价币保留更多小数
func pricePrecision(price float64) int {
	switch {
	case price >= 1000:
		return 2
	case price >= 1:
		return 4
	default:
		return 6
	}
}

func positionValues(p event.PositionPayload) map[string]interface{} {
	prec := pricePrecision(p.EntryPrice)
	return map[string]interface{}{
		"symbol":            p.Symbol,
		"side":              p.Side,
		"leverage":          strconv.Itoa(p.Leverage),
		"price":             formatFloat(p.CurrentPrice, prec),
		"liquidation_price": formatFloat(p.LiquidationPrice, prec),
		"collateral":        formatFloat(p.Collateral, 2),
		"health":            formatFloat(p.Health, 1),
		"pnl":               formatFloat(p.Pnl, 2),
		"pnl_percent":       formatFloat(p.PnlPercent, 2),
	}
}

// Render 渲染事件对应的告警文本，不需要告警的事件返回 false
func (s *AlertService) Render(e event.Event) (kind string, msg string, ok bool) {
	switch e.Topic {
	case event.TopicPositionLiquidated:
		p, ok := e.Payload.(event.PositionPayload)
		if !ok {
			return "", "", false
		}
		return "liquidated", s.liquidated.ExecuteString(positionValues(p)), true
	case event.TopicPositionDanger:
		p, ok := e.Payload.(event.PositionPayload)
		if !ok {
			return "", "", false
		}
		return "danger", s.danger.ExecuteString(positionValues(p)), true
	case event.TopicPriceFlash:
		p, ok := e.Payload.(event.PricePayload)
		if !ok {
			return "", "", false
		}
		change := formatFloat(p.ChangePercent, 2)
		if p.ChangePercent > 0 {
			change = "+" + change
		}
		return "flash", s.flash.ExecuteString(map[string]interface{}{
			"symbol": p.Symbol,
			"change": change,
			"price":  formatFloat(p.Price, pricePrecision(p.Price)),
		}), true
	}
	return "", "", false
}

// Run 处理事件直到 ctx 取消
func (s *AlertService) Run(ctx context.Context) {
	sub := s.bus.Subscribe(event.DefaultBuffer,
		string(event.TopicPositionLiquidated),
		string(event.TopicPositionDanger),
		string(event.TopicPriceFlash),
	)
	defer sub.Close()

	for {
		select {
		case <-ctx.Done():
			return
		case e, ok := <-sub.C:
			if !ok {
				return
			}
			s.handle(e)
		}
	}
}

func (s *AlertService) handle(e event.Event) {
	kind, msg, ok := s.Render(e)
	if !ok {
		return
	}
	s.logger.Info("alert", zap.String("kind", kind), zap.String("message", msg))
	if s.notifier == nil {
		metrics.AlertsSent.WithLabelValues(kind, "skipped").Inc()
		return
	}
	if err := s.notifier.Notify(msg); err != nil {
		metrics.AlertsSent.WithLabelValues(kind, "error").Inc()
		s.logger.Warn("failed to send alert", zap.String("kind", kind), zap.Error(err))
		return
	}
	metrics.AlertsSent.WithLabelValues(kind, "success").Inc()
}
