package kraken

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Envelope is Kraken's common response wrapper.
type Envelope struct {
	Error  []string                   `json:"error"`
	Result map[string]json.RawMessage `json:"result"`
}

// Err reports a non-empty error array.
func (e *Envelope) Err() error {
	if len(e.Error) == 0 {
		return nil
	}
	return fmt.Errorf("kraken: %s", strings.Join(e.Error, "; "))
}

// Pair returns the raw payload for the first key other than "last". Kraken
// may answer under a different pair alias than the one requested.
func (e *Envelope) Pair(requested string) (json.RawMessage, bool) {
	if raw, ok := e.Result[requested]; ok {
		return raw, true
	}
	for key, raw := range e.Result {
		if key == "last" {
			continue
		}
		return raw, true
	}
	return nil, false
}

// OHLCRow is [time_s, open, high, low, close, vwap, volume, count].
type OHLCRow struct {
	Time  int64
	Open  float64
	High  float64
	Low   float64
	Close float64
}

// UnmarshalJSON decodes the positional array form.
func (r *OHLCRow) UnmarshalJSON(data []byte) error {
	var raw []json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("kraken: decode ohlc row: %w", err)
	}
	if len(raw) < 5 {
		return fmt.Errorf("kraken: ohlc row has %d fields, want at least 5", len(raw))
	}
	if err := json.Unmarshal(raw[0], &r.Time); err != nil {
		return fmt.Errorf("kraken: ohlc time: %w", err)
	}
	dst := []*float64{&r.Open, &r.High, &r.Low, &r.Close}
	for i, ptr := range dst {
		v, err := decimal(raw[i+1])
		if err != nil {
			return fmt.Errorf("kraken: ohlc field %d: %w", i+1, err)
		}
		*ptr = v
	}
	return nil
}

// Ticker is one pair's /Ticker entry. Array fields hold [today, last 24h]
// except C which holds [price, lot volume].
type Ticker struct {
	C []string `json:"c"`
	V []string `json:"v"`
	H []string `json:"h"`
	L []string `json:"l"`
	O string   `json:"o"`
}

func decimal(raw json.RawMessage) (float64, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return strconv.ParseFloat(s, 64)
	}
	var f float64
	err := json.Unmarshal(raw, &f)
	return f, err
}

func index(values []string, i int) (float64, error) {
	if i >= len(values) {
		return 0, fmt.Errorf("kraken: ticker field has %d values, want index %d", len(values), i)
	}
	return strconv.ParseFloat(values[i], 64)
}
