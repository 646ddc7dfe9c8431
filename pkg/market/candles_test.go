package market

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const day = int64(86_400_000)

func TestDayStart(t *testing.T) {
	assert.Equal(t, int64(0), DayStart(0))
	assert.Equal(t, 3*day, DayStart(3*day+12345))
	assert.Equal(t, -day, DayStart(-1))
	assert.Equal(t, -day, DayStart(-day))
}

func TestNormalizeDailyMergesIntraday(t *testing.T) {
	in := []Candle{
		{Timestamp: day + 8*3_600_000, Open: 12, High: 15, Low: 11, Close: 14},
		{Timestamp: 4 * 3_600_000, Open: 10, High: 11, Low: 9, Close: 10.5},
		{Timestamp: day + 4*3_600_000, Open: 11, High: 13, Low: 8, Close: 12},
		{Timestamp: 8 * 3_600_000, Open: 10.5, High: 12, Low: 10, Close: 11},
	}
	out := NormalizeDaily(in)
	require.Equal(t, []Candle{
		{Timestamp: 0, Open: 10, High: 12, Low: 9, Close: 11},
		{Timestamp: day, Open: 11, High: 15, Low: 8, Close: 14},
	}, out)
	assert.Equal(t, int64(day+8*3_600_000), in[0].Timestamp, "input must not be mutated")
	assert.Nil(t, NormalizeDaily(nil))
}

func TestTakeLast(t *testing.T) {
	series := make([]Candle, 10)
	for i := range series {
		series[i] = Candle{Timestamp: int64(i) * day, Close: float64(i)}
	}
	last := TakeLast(series, 7)
	require.Len(t, last, 7)
	assert.Equal(t, float64(3), last[0].Close)
	assert.Equal(t, float64(9), last[6].Close)

	assert.Len(t, TakeLast(series, 30), 10)
	assert.Len(t, TakeLast(series, 0), 10)
}

func TestSynthesizeFromClose(t *testing.T) {
	c := SynthesizeFromClose(day, 100)
	assert.Equal(t, day, c.Timestamp)
	assert.InDelta(t, 100, c.Open, 1e-9)
	assert.InDelta(t, 102, c.High, 1e-9)
	assert.InDelta(t, 98, c.Low, 1e-9)
	assert.InDelta(t, 100, c.Close, 1e-9)
}
