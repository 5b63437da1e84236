// Package processors turns loosely-typed raw store records into the fully
// typed canonical transaction shape. Every function here is total: malformed
// input resolves to a documented default, never an error.
package processors

import (
	"strconv"
	"strings"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/fundfolio/backend/src/models"
)

// NormalizeAmount coerces a raw amount field into a non-negative decimal.
// Amounts arrive as JSON numbers or as numeric strings depending on which
// write path produced the record. Anything unparseable, missing, or
// negative resolves to zero.
func NormalizeAmount(raw any) decimal.Decimal {
	d := NormalizeSignedAmount(raw)
	if d.IsNegative() {
		return decimal.Zero
	}
	return d
}

// NormalizeSignedAmount is NormalizeAmount without the sign clamp. It exists
// for the manual balance adjustment, which is a signed offset.
func NormalizeSignedAmount(raw any) decimal.Decimal {
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v)
	case int:
		return decimal.NewFromInt(int64(v))
	case int64:
		return decimal.NewFromInt(v)
	case string:
		d, err := decimal.NewFromString(strings.TrimSpace(v))
		if err != nil {
			return decimal.Zero
		}
		return d
	default:
		return decimal.Zero
	}
}

// NormalizeTimestamp resolves a record's canonical epoch-millisecond
// timestamp. The resolution order is fixed; charts and "latest
// transactions" views depend on it for deterministic ordering:
//
//  1. an explicit numeric createdAt field greater than zero
//  2. a "day-month-year" date string parsed at local midnight
//  3. the record identifier itself, when it is a numeric string
//     (legacy withdrawal records are keyed by their creation millis)
//  4. the current wall clock
func NormalizeTimestamp(fields map[string]any, fallbackID string) int64 {
	if ms := numericMillis(fields["createdAt"]); ms > 0 {
		return ms
	}
	if s, ok := fields["date"].(string); ok {
		if t, ok := parseDayMonthYear(s); ok {
			return t.UnixMilli()
		}
	}
	if ms := numericMillis(fallbackID); ms > 0 {
		return ms
	}
	return time.Now().UnixMilli()
}

// NormalizeStatus maps a free-form status string onto the closed
// {pending, completed, failed} set. It is case-insensitive and total:
// unseen values, including the empty string, are pending.
func NormalizeStatus(raw string) models.TxStatus {
	switch strings.ToLower(strings.TrimSpace(raw)) {
	case "approved", "completed":
		return models.StatusCompleted
	case "rejected", "failed":
		return models.StatusFailed
	default:
		return models.StatusPending
	}
}

func numericMillis(raw any) int64 {
	switch v := raw.(type) {
	case float64:
		return int64(v)
	case int:
		return int64(v)
	case int64:
		return v
	case string:
		ms, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return 0
		}
		return ms
	default:
		return 0
	}
}

// parseDayMonthYear parses "5-3-2024" style dates (day and month may be
// unpadded) into local midnight of that calendar day.
func parseDayMonthYear(s string) (time.Time, bool) {
	parts := strings.Split(strings.TrimSpace(s), "-")
	if len(parts) != 3 {
		return time.Time{}, false
	}
	day, err1 := strconv.Atoi(parts[0])
	month, err2 := strconv.Atoi(parts[1])
	year, err3 := strconv.Atoi(parts[2])
	if err1 != nil || err2 != nil || err3 != nil {
		return time.Time{}, false
	}
	if day < 1 || day > 31 || month < 1 || month > 12 || year < 1 {
		return time.Time{}, false
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.Local), true
}
