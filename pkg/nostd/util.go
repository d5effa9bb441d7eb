package nostd

import (
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/spf13/cast"
)

// QueryInt 读取整数查询参数，缺失或无法解析时返回默认值
func QueryInt(c echo.Context, name string, def int) int {
	raw := strings.TrimSpace(c.QueryParam(name))
	if raw == "" {
		return def
	}
	v, err := cast.ToIntE(raw)
	if err != nil {
		return def
	}
	return v
}

// SplitCSV "BTC, eth,,SOL" -> ["BTC", "eth", "SOL"]
func SplitCSV(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if p := strings.TrimSpace(part); p != "" {
			out = append(out, p)
		}
	}
	return out
}
