package main

import (
	"fmt"
	"io"
	"log"
	"os"
	"strings"

	"github.com/dushixiang/leverquest/pkg/nostd"
	"github.com/dushixiang/leverquest/pkg/posmath"
	"github.com/shopspring/decimal"
	"github.com/spf13/cobra"
)

var (
	entryPrice   string
	currentPrice string
	collateral   string
	leverage     int
	side         string

	changePercent string
	volume        string
	volatility    string
	resistance    string
	price         string
)

var rootCmd = &cobra.Command{
	Use:   "calc",
	Short: "杠杆仓位计算器",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := positionInputs()
		if err != nil {
			return err
		}
		snap, err := posmath.Evaluate(in)
		if err != nil {
			return err
		}
		printPosition(cmd.OutOrStdout(), in, snap)
		return nil
	},
}

var bossCmd = &cobra.Command{
	Use:   "boss",
	Short: "根据市场数据计算Boss属性",
	RunE: func(cmd *cobra.Command, args []string) error {
		in, err := marketInput()
		if err != nil {
			return err
		}
		boss, err := posmath.ComputeBossStat(in)
		if err != nil {
			return err
		}
		printBoss(cmd.OutOrStdout(), boss)
		return nil
	},
}

func init() {
	rootCmd.Flags().StringVar(&entryPrice, "entry", "", "开仓价格")
	rootCmd.Flags().StringVar(&currentPrice, "current", "", "当前价格，默认等于开仓价格")
	rootCmd.Flags().StringVar(&collateral, "collateral", "", "保证金(USDT)")
	rootCmd.Flags().IntVarP(&leverage, "leverage", "l", 1, "杠杆倍数")
	rootCmd.Flags().StringVarP(&side, "side", "s", "long", "方向 long|short")
	_ = rootCmd.MarkFlagRequired("entry")
	_ = rootCmd.MarkFlagRequired("collateral")

	bossCmd.Flags().StringVar(&changePercent, "change", "0", "24小时涨跌幅(%)")
	bossCmd.Flags().StringVar(&volume, "volume", "0", "24小时成交额")
	bossCmd.Flags().StringVar(&volatility, "volatility", "0", "波动率")
	bossCmd.Flags().StringVar(&resistance, "resistance", "", "阻力位，逗号分隔")
	bossCmd.Flags().StringVar(&price, "price", "", "当前价格")
	_ = bossCmd.MarkFlagRequired("price")

	rootCmd.AddCommand(bossCmd)
}

func parseDecimal(name, raw string) (float64, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(raw))
	if err != nil {
		return 0, fmt.Errorf("invalid --%s %q: %w", name, raw, err)
	}
	return d.InexactFloat64(), nil
}

func positionInputs() (posmath.Inputs, error) {
	entry, err := parseDecimal("entry", entryPrice)
	if err != nil {
		return posmath.Inputs{}, err
	}
	current := entry
	if currentPrice != "" {
		if current, err = parseDecimal("current", currentPrice); err != nil {
			return posmath.Inputs{}, err
		}
	}
	amount, err := parseDecimal("collateral", collateral)
	if err != nil {
		return posmath.Inputs{}, err
	}
	return posmath.Inputs{
		EntryPrice:   entry,
		CurrentPrice: current,
		Leverage:     leverage,
		Collateral:   amount,
		Side:         posmath.Side(strings.ToLower(side)),
	}, nil
}

func marketInput() (posmath.MarketInput, error) {
	var in posmath.MarketInput
	var err error
	if in.PriceChangePercent, err = parseDecimal("change", changePercent); err != nil {
		return in, err
	}
	if in.Volume24h, err = parseDecimal("volume", volume); err != nil {
		return in, err
	}
	if in.Volatility, err = parseDecimal("volatility", volatility); err != nil {
		return in, err
	}
	if in.CurrentPrice, err = parseDecimal("price", price); err != nil {
		return in, err
	}
	for _, level := range nostd.SplitCSV(resistance) {
		v, err := parseDecimal("resistance", level)
		if err != nil {
			return in, err
		}
		in.ResistanceLevels = append(in.ResistanceLevels, v)
	}
	return in, nil
}

func fixed(v float64, places int32) string {
	return decimal.NewFromFloat(v).StringFixed(places)
}

func printPosition(w io.Writer, in posmath.Inputs, snap posmath.Snapshot) {
	fmt.Fprintf(w, "side:              %s %dx\n", in.Side, in.Leverage)
	fmt.Fprintf(w, "position size:     %s USDT\n", fixed(snap.PositionSize, 2))
	fmt.Fprintf(w, "quantity:          %s\n", fixed(snap.Quantity, 6))
	fmt.Fprintf(w, "pnl:               %s USDT (%s%%)\n", fixed(snap.Pnl, 2), fixed(snap.PnlPercent, 2))
	fmt.Fprintf(w, "liquidation price: %s\n", fixed(snap.LiquidationPrice, 4))
	fmt.Fprintf(w, "health:            %s%% [%s]\n", fixed(snap.HealthPercent, 1), posmath.HealthTier(snap.HealthPercent))
}

func printBoss(w io.Writer, boss posmath.BossStat) {
	fmt.Fprintf(w, "type:   %s\n", boss.Type)
	fmt.Fprintf(w, "hp:     %s/%d\n", fixed(boss.HP, 1), posmath.MaxBossHP)
	fmt.Fprintf(w, "armor:  %d\n", boss.Armor)
	fmt.Fprintf(w, "attack: %s\n", fixed(boss.Attack, 1))
	fmt.Fprintf(w, "morale: %s\n", boss.Morale)
}

func main() {
	rootCmd.SetOut(os.Stdout)
	if err := rootCmd.Execute(); err != nil {
		log.Fatal(err)
	}
}
