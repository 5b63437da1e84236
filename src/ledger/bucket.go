package ledger

import (
	"fmt"
	"time"

	"github.com/shopspring/decimal"
	"github.com/username/fundfolio/backend/src/models"
)

// MonthBucket is one calendar month of a chart series. Buckets exist even
// for months with no activity so the chart x-axis never has gaps.
type MonthBucket struct {
	Key   string          `json:"key"`
	Label string          `json:"label"`
	Total decimal.Decimal `json:"total"`
	Count int             `json:"count"`
}

// DepositMonthBucket splits a month's deposits into completed and pending
// sub-totals for stacked chart series.
type DepositMonthBucket struct {
	Key            string          `json:"key"`
	Label          string          `json:"label"`
	CompletedTotal decimal.Decimal `json:"completedTotal"`
	PendingTotal   decimal.Decimal `json:"pendingTotal"`
	CompletedCount int             `json:"completedCount"`
	PendingCount   int             `json:"pendingCount"`
}

// monthWindow returns the first instants of windowSize consecutive months
// ending at now's month, in ascending order.
func monthWindow(now time.Time, windowSize int) []time.Time {
	months := make([]time.Time, windowSize)
	first := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, now.Location())
	for i := 0; i < windowSize; i++ {
		months[i] = first.AddDate(0, i-windowSize+1, 0)
	}
	return months
}

func monthKey(t time.Time) string {
	return fmt.Sprintf("%04d-%02d", t.Year(), int(t.Month()))
}

func monthLabel(t time.Time) string {
	return t.Format("Jan 2006")
}

// BucketDeposits folds classified deposits into a trailing window of
// windowSize calendar-month buckets ending at now's month. Output length is
// always exactly windowSize, ascending, regardless of the input.
func BucketDeposits(deposits []models.UnifiedTransaction, windowSize int, now time.Time) []DepositMonthBucket {
	months := monthWindow(now, windowSize)
	buckets := make([]DepositMonthBucket, windowSize)
	index := make(map[string]int, windowSize)
	for i, m := range months {
		buckets[i] = DepositMonthBucket{Key: monthKey(m), Label: monthLabel(m)}
		index[buckets[i].Key] = i
	}
	for _, tx := range deposits {
		key := monthKey(time.UnixMilli(tx.EpochMillis).In(now.Location()))
		i, ok := index[key]
		if !ok {
			continue // outside the window
		}
		switch tx.Status {
		case models.StatusCompleted:
			buckets[i].CompletedTotal = buckets[i].CompletedTotal.Add(tx.Amount)
			buckets[i].CompletedCount++
		case models.StatusPending:
			buckets[i].PendingTotal = buckets[i].PendingTotal.Add(tx.Amount)
			buckets[i].PendingCount++
		}
	}
	return buckets
}

// BucketSignups counts user signups per month over the trailing window.
func BucketSignups(users []models.User, windowSize int, now time.Time) []MonthBucket {
	months := monthWindow(now, windowSize)
	buckets := make([]MonthBucket, windowSize)
	index := make(map[string]int, windowSize)
	for i, m := range months {
		buckets[i] = MonthBucket{Key: monthKey(m), Label: monthLabel(m), Total: decimal.Zero}
		index[buckets[i].Key] = i
	}
	for _, u := range users {
		key := monthKey(time.UnixMilli(u.CreatedAtMillis).In(now.Location()))
		if i, ok := index[key]; ok {
			buckets[i].Count++
		}
	}
	return buckets
}
