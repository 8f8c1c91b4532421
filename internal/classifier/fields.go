// internal/classifier/fields.go
package classifier

import (
	"encoding/json"
	"math"
	"strconv"
	"time"

	"github.com/shopspring/decimal"
)

func asObject(v any) (map[string]any, bool) {
	m, ok := v.(map[string]any)
	return m, ok
}

func asList(v any) ([]any, bool) {
	l, ok := v.([]any)
	return l, ok
}

// stringField returns the first non-empty string found under keys.
func stringField(obj map[string]any, keys ...string) string {
	for _, k := range keys {
		if s, ok := obj[k].(string); ok && s != "" {
			return s
		}
	}
	return ""
}

// decimalField returns the first parseable amount found under keys.
// Amounts arrive either as JSON numbers or as strings.
func decimalField(obj map[string]any, keys ...string) decimal.Decimal {
	for _, k := range keys {
		switch v := obj[k].(type) {
		case float64:
			return decimal.NewFromFloat(v)
		case json.Number:
			if d, err := decimal.NewFromString(v.String()); err == nil {
				return d
			}
		case string:
			if d, err := decimal.NewFromString(v); err == nil {
				return d
			}
		}
	}
	return decimal.Zero
}

func stringList(v any) []string {
	items, ok := asList(v)
	if !ok {
		return nil
	}
	out := make([]string, 0, len(items))
	for _, item := range items {
		if s, ok := item.(string); ok {
			out = append(out, s)
		}
	}
	return out
}

// signatureOf reads the transaction signature from either the Shyft
// "signatures" list or the Helius "signature" field.
func signatureOf(obj map[string]any) string {
	if sigs := stringList(obj["signatures"]); len(sigs) > 0 {
		return sigs[0]
	}
	return stringField(obj, "signature")
}

// timestampOf parses RFC3339 strings and unix seconds, falling back to now.
// Fractional seconds are kept.
func timestampOf(obj map[string]any, now time.Time) time.Time {
	switch v := obj["timestamp"].(type) {
	case string:
		if t, err := time.Parse(time.RFC3339, v); err == nil {
			return t
		}
		if secs, err := strconv.ParseFloat(v, 64); err == nil {
			return unixSeconds(secs)
		}
	case float64:
		return unixSeconds(v)
	case json.Number:
		if secs, err := v.Int64(); err == nil {
			return time.Unix(secs, 0)
		}
		if secs, err := v.Float64(); err == nil {
			return unixSeconds(secs)
		}
	}
	return now
}

func unixSeconds(secs float64) time.Time {
	whole := math.Floor(secs)
	return time.Unix(int64(whole), int64(math.Round((secs-whole)*1e9)))
}
