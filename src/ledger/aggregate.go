// Package ledger holds the pure aggregation and reconciliation logic over
// classified transactions. Nothing in here touches the store or any other
// shared state; callers fetch snapshots, classify them, and hand them in.
package ledger

import (
	"sort"

	"github.com/username/fundfolio/backend/src/models"
)

// Aggregate merges the per-kind classified streams into one feed sorted
// descending by canonical timestamp. The sort is stable, so records sharing
// a timestamp keep their input order. Output length always equals the sum
// of the input stream lengths.
func Aggregate(streams map[models.Kind][]models.UnifiedTransaction) []models.UnifiedTransaction {
	total := 0
	for _, txs := range streams {
		total += len(txs)
	}
	merged := make([]models.UnifiedTransaction, 0, total)
	// Concatenate in fixed kind order so ties break the same way on every run.
	for _, kind := range models.Kinds {
		merged = append(merged, streams[kind]...)
	}
	sort.SliceStable(merged, func(i, j int) bool {
		return merged[i].EpochMillis > merged[j].EpochMillis
	})
	return merged
}

// FilterByKind returns the transactions of one kind, preserving order. An
// empty kind or "all" returns the input unchanged, so a caller can present
// filtered views without recomputing the aggregate.
func FilterByKind(txs []models.UnifiedTransaction, kind models.Kind) []models.UnifiedTransaction {
	if kind == "" || kind == "all" {
		return txs
	}
	filtered := make([]models.UnifiedTransaction, 0, len(txs))
	for _, tx := range txs {
		if tx.Kind == kind {
			filtered = append(filtered, tx)
		}
	}
	return filtered
}
