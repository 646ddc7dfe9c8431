package market

import (
	"sort"
	"time"
)

const dayMillis = int64(24 * time.Hour / time.Millisecond)

// Ratios used to approximate open/high/low for providers that only publish a
// close price. The resulting fields are estimates, not observations.
const (
	SynthOpenRatio = 1.00
	SynthHighRatio = 1.02
	SynthLowRatio  = 0.98
)

// SynthesizeFromClose builds a candle from a close-only observation.
func SynthesizeFromClose(ts int64, closePrice float64) Candle {
	return Candle{
		Timestamp: ts,
		Open:      closePrice * SynthOpenRatio,
		High:      closePrice * SynthHighRatio,
		Low:       closePrice * SynthLowRatio,
		Close:     closePrice,
	}
}

// DayStart truncates an epoch-millisecond timestamp to its UTC midnight.
func DayStart(ts int64) int64 {
	if ts >= 0 {
		return ts - ts%dayMillis
	}
	return ts - (dayMillis+ts%dayMillis)%dayMillis
}

// NormalizeDaily sorts candles ascending and collapses them to one entry per
// UTC calendar day. Sub-daily candles within a day are merged: first open,
// highest high, lowest low, last close. Timestamps become the day start.
func NormalizeDaily(candles []Candle) []Candle {
	if len(candles) == 0 {
		return nil
	}
	sorted := make([]Candle, len(candles))
	copy(sorted, candles)
	sort.SliceStable(sorted, func(i, j int) bool {
		return sorted[i].Timestamp < sorted[j].Timestamp
	})

	out := make([]Candle, 0, len(sorted))
	for _, c := range sorted {
		day := DayStart(c.Timestamp)
		if n := len(out); n > 0 && out[n-1].Timestamp == day {
			last := &out[n-1]
			if c.High > last.High {
				last.High = c.High
			}
			if c.Low < last.Low {
				last.Low = c.Low
			}
			last.Close = c.Close
			continue
		}
		c.Timestamp = day
		out = append(out, c)
	}
	return out
}

// TakeLast returns the most recent n candles of an ascending series. A
// series shorter than n is returned whole.
func TakeLast(candles []Candle, n int) []Candle {
	if n <= 0 || len(candles) <= n {
		return candles
	}
	return candles[len(candles)-n:]
}
