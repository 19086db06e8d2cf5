package market

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

var timeLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02 15:04:05.999999999 MST",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999 -0700",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02T15:04:05.999999999",
	"2006-01-02",
}

// parseTime accepts ISO-8601 variants and unix epochs (seconds, or milliseconds
// when the value is too large to be seconds).
func parseTime(raw string) (time.Time, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	for _, layout := range timeLayouts {
		if ts, err := time.Parse(layout, raw); err == nil {
			return ts.UTC(), nil
		}
	}
	if epoch, err := strconv.ParseFloat(raw, 64); err == nil {
		return epochTime(epoch), nil
	}
	return time.Time{}, fmt.Errorf("unrecognized timestamp %q", raw)
}

func epochTime(epoch float64) time.Time {
	if math.Abs(epoch) >= 1e12 {
		ms := int64(epoch)
		return time.UnixMilli(ms).UTC()
	}
	sec, frac := math.Modf(epoch)
	return time.Unix(int64(sec), int64(frac*1e9)).UTC()
}

func parsePrice(raw string) (float64, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return 0, errors.New("empty price")
	}
	d, err := decimal.NewFromString(raw)
	if err != nil {
		return 0, fmt.Errorf("price %q: %w", raw, err)
	}
	return d.InexactFloat64(), nil
}

func timeFromAny(v any) (time.Time, error) {
	switch val := v.(type) {
	case time.Time:
		return val.UTC(), nil
	case string:
		return parseTime(val)
	case []byte:
		return parseTime(string(val))
	case int64:
		return epochTime(float64(val)), nil
	case float64:
		return epochTime(val), nil
	case nil:
		return time.Time{}, errors.New("null timestamp")
	default:
		return time.Time{}, fmt.Errorf("unsupported timestamp type %T", v)
	}
}

func priceFromAny(v any) (float64, error) {
	switch val := v.(type) {
	case float64:
		return val, nil
	case float32:
		return float64(val), nil
	case int64:
		return float64(val), nil
	case string:
		return parsePrice(val)
	case []byte:
		return parsePrice(string(val))
	case nil:
		return 0, errors.New("null price")
	default:
		return 0, fmt.Errorf("unsupported price type %T", v)
	}
}
