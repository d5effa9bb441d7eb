package ta

func Last(s []float64, position int) float64 {
	return s[len(s)-1-position]
}

func LastValues(s []float64, size int) []float64 {
	if l := len(s); l > size {
		return s[l-size:]
	}
	return s
}

// Returns 逐根收益率序列，长度为 len(s)-1
func Returns(s []float64) []float64 {
	if len(s) < 2 {
		return nil
	}
	out := make([]float64, 0, len(s)-1)
	for i := 1; i < len(s); i++ {
		if s[i-1] == 0 {
			out = append(out, 0)
			continue
		}
		out = append(out, s[i]/s[i-1]-1)
	}
	return out
}

// Lowest 最近 n 根K线中的最低价
func Lowest(low []float64, period int) float64 {
	arr := LastValues(low, period)
	minVal := arr[0]

	for _, value := range arr {
		if value < minVal {
			minVal = value
		}
	}
	return minVal
}

// Highest 最近 n 根K线中的最高价
func Highest(high []float64, period int) float64 {
	arr := LastValues(high, period)
	maxVal := arr[0]

	for _, value := range arr {
		if value > maxVal {
			maxVal = value
		}
	}
	return maxVal
}
