package config

import (
	"strings"
	"time"
)

type Config struct {
	Market   MarketConf   `json:"market"`
	Binance  BinanceConf  `json:"binance"`
	Refresh  RefreshConf  `json:"refresh"`
	Account  AccountConf  `json:"account"`
	Telegram TelegramConf `json:"telegram"`
	Metrics  MetricsConf  `json:"metrics"`
}

const (
	MarketSourceMock    = "mock"
	MarketSourceBinance = "binance"
)

type MarketConf struct {
	Source        string   `json:"source"`         // 行情源 mock|binance，默认mock
	Seed          uint64   `json:"seed"`           // 模拟行情随机种子，相同种子产生相同行情
	Symbols       []string `json:"symbols"`        // 币种，如 ["BTC", "ETH"]
	KlineInterval string   `json:"kline_interval"` // K线周期，默认1h
	KlineLimit    int      `json:"kline_limit"`    // 计算指标使用的K线数量，默认200
}

type BinanceConf struct {
	APIKey   string `json:"api_key"`
	Secret   string `json:"secret"`
	ProxyURL string `json:"proxy_url"` // 代理地址，例如: http://127.0.0.1:7890
	Testnet  bool   `json:"testnet"`   // 是否使用测试网
}

type RefreshConf struct {
	Disabled              bool    `json:"disabled"`                // 关闭定时刷新，仅提供接口
	IntervalSeconds       int     `json:"interval_seconds"`        // 刷新周期（秒），默认10
	FlashThresholdPercent float64 `json:"flash_threshold_percent"` // 单次推进涨跌幅超过该值视为闪崩/急涨，默认2
}

type AccountConf struct {
	InitialBalance float64 `json:"initial_balance"` // 初始余额（USDT），默认10000
}

type TelegramConf struct {
	Enabled bool   `json:"enabled"`
	Token   string `json:"token"`
	ChatID  string `json:"chat_id"`
}

type MetricsConf struct {
	Enabled bool   `json:"enabled"`
	Path    string `json:"path"` // 默认 /metrics
}

// ApplyDefaults 填充未配置的默认值
func (c *Config) ApplyDefaults() {
	c.Market.Source = strings.ToLower(strings.TrimSpace(c.Market.Source))
	if c.Market.Source == "" {
		c.Market.Source = MarketSourceMock
	}
	if len(c.Market.Symbols) == 0 {
		c.Market.Symbols = []string{"BTC", "ETH", "SOL", "ARB"}
	}
	if c.Market.KlineInterval == "" {
		c.Market.KlineInterval = "1h"
	}
	if c.Market.KlineLimit <= 0 {
		c.Market.KlineLimit = 200
	}
	if c.Refresh.IntervalSeconds <= 0 {
		c.Refresh.IntervalSeconds = 10
	}
	if c.Refresh.FlashThresholdPercent <= 0 {
		c.Refresh.FlashThresholdPercent = 2
	}
	if c.Account.InitialBalance <= 0 {
		c.Account.InitialBalance = 10000
	}
	if c.Metrics.Path == "" {
		c.Metrics.Path = "/metrics"
	}
}

func (c RefreshConf) Interval() time.Duration {
	return time.Duration(c.IntervalSeconds) * time.Second
}
