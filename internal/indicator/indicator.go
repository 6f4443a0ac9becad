// Package indicator provides the windowed technical-indicator math shared by
// all built-in strategies. Every function is a pure function of its inputs:
// given identical price history it returns identical results. When the
// history is shorter than the required period the boolean result is false
// and the value must not be used. Degenerate inputs (zero variance, zero
// average volume) yield a defined neutral fallback, never a panic.
package indicator

import (
	"math"

	"riptide/internal/domain"
)

// SMA returns the arithmetic mean of the trailing period values.
func SMA(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		sum += p
	}
	return sum / float64(period), true
}

// EMA returns the exponential moving average with smoothing factor
// 2/(period+1), seeded by the SMA of the first period values.
func EMA(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period {
		return 0, false
	}
	seed, _ := SMA(prices[:period], period)
	alpha := 2.0 / (float64(period) + 1)
	ema := seed
	for _, p := range prices[period:] {
		ema = alpha*p + (1-alpha)*ema
	}
	return ema, true
}

// RSI returns the relative strength index over the trailing period price
// changes, in [0,100]. A window with no losses reads 100, no gains reads 0,
// and a perfectly flat window reads a neutral 50.
func RSI(prices []float64, period int) (float64, bool) {
	if period <= 0 || len(prices) < period+1 {
		return 0, false
	}
	window := prices[len(prices)-period-1:]
	var gains, losses float64
	for i := 1; i < len(window); i++ {
		change := window[i] - window[i-1]
		if change > 0 {
			gains += change
		} else {
			losses -= change
		}
	}
	switch {
	case gains == 0 && losses == 0:
		return 50, true
	case losses == 0:
		return 100, true
	case gains == 0:
		return 0, true
	}
	rs := (gains / float64(period)) / (losses / float64(period))
	return 100 - 100/(1+rs), true
}

// TrueRange returns max(high-low, |high-prevClose|, |low-prevClose|).
func TrueRange(high, low, prevClose float64) float64 {
	tr := high - low
	if v := math.Abs(high - prevClose); v > tr {
		tr = v
	}
	if v := math.Abs(low - prevClose); v > tr {
		tr = v
	}
	return tr
}

// ATR returns the average true range over the trailing period bars. It needs
// period+1 bars because each true range references the previous close.
func ATR(bars []domain.Bar, period int) (float64, bool) {
	if period <= 0 || len(bars) < period+1 {
		return 0, false
	}
	window := bars[len(bars)-period-1:]
	sum := 0.0
	for i := 1; i < len(window); i++ {
		sum += TrueRange(window[i].High, window[i].Low, window[i-1].Close)
	}
	return sum / float64(period), true
}

// StdDev returns the population standard deviation of the trailing period
// values.
func StdDev(prices []float64, period int) (float64, bool) {
	mean, ok := SMA(prices, period)
	if !ok {
		return 0, false
	}
	sum := 0.0
	for _, p := range prices[len(prices)-period:] {
		d := p - mean
		sum += d * d
	}
	return math.Sqrt(sum / float64(period)), true
}

// Bollinger returns the (upper, middle, lower) Bollinger bands, where middle
// is the SMA and the outer bands sit numStd standard deviations away. With
// zero variance the bands collapse onto the middle.
func Bollinger(prices []float64, period int, numStd float64) (upper, middle, lower float64, ok bool) {
	middle, ok = SMA(prices, period)
	if !ok {
		return 0, 0, 0, false
	}
	std, _ := StdDev(prices, period)
	return middle + numStd*std, middle, middle - numStd*std, true
}

// ZScore returns (price − mean) / stddev over the trailing period. With zero
// variance the score is a neutral 0.
func ZScore(prices []float64, period int, price float64) (float64, bool) {
	mean, ok := SMA(prices, period)
	if !ok {
		return 0, false
	}
	std, _ := StdDev(prices, period)
	if std == 0 {
		return 0, true
	}
	return (price - mean) / std, true
}

// AvgVolume returns the arithmetic mean of the trailing period volumes.
func AvgVolume(volumes []int64, period int) (float64, bool) {
	if period <= 0 || len(volumes) < period {
		return 0, false
	}
	sum := int64(0)
	for _, v := range volumes[len(volumes)-period:] {
		sum += v
	}
	return float64(sum) / float64(period), true
}

// VolumeRatio returns current volume divided by the trailing average volume.
// With insufficient history or a zero average the ratio is a neutral 1.0.
func VolumeRatio(volumes []int64, period int, current int64) float64 {
	avg, ok := AvgVolume(volumes, period)
	if !ok || avg == 0 {
		return 1.0
	}
	return float64(current) / avg
}

// HighestHigh returns the maximum of the trailing period values.
func HighestHigh(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	max := values[len(values)-period]
	for _, v := range values[len(values)-period:] {
		if v > max {
			max = v
		}
	}
	return max, true
}

// LowestLow returns the minimum of the trailing period values.
func LowestLow(values []float64, period int) (float64, bool) {
	if period <= 0 || len(values) < period {
		return 0, false
	}
	min := values[len(values)-period]
	for _, v := range values[len(values)-period:] {
		if v < min {
			min = v
		}
	}
	return min, true
}
