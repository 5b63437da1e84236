package models

import "github.com/shopspring/decimal"

// Kind identifies the originating collection of a ledger event.
type Kind string

const (
	KindDeposit          Kind = "deposit"
	KindWithdrawal       Kind = "withdrawal"
	KindInvestment       Kind = "investment"
	KindProfit           Kind = "profit"
	KindInvestmentReturn Kind = "investment_return"
)

// Kinds lists every event kind in classification order.
var Kinds = []Kind{KindDeposit, KindWithdrawal, KindInvestment, KindProfit, KindInvestmentReturn}

// TxStatus is the closed status set carried by a UnifiedTransaction.
type TxStatus string

const (
	StatusPending   TxStatus = "pending"
	StatusCompleted TxStatus = "completed"
	StatusFailed    TxStatus = "failed"
	StatusCredited  TxStatus = "credited"
	StatusActive    TxStatus = "active"
	StatusReturned  TxStatus = "returned"
)

// RawEvent is a keyed record read from the document store. Fields is
// loosely typed: amounts may arrive as numbers or strings, dates as epoch
// values, formatted strings, or not at all. The engine only ever reads
// these; the write-side services own their creation.
type RawEvent struct {
	ID     string         `json:"id"`
	Fields map[string]any `json:"fields"`
}

// String returns the string value under any of the given keys, or "".
func (e RawEvent) String(keys ...string) string {
	for _, k := range keys {
		if v, ok := e.Fields[k]; ok {
			if s, ok := v.(string); ok && s != "" {
				return s
			}
		}
	}
	return ""
}

// UnifiedTransaction is the canonical single-shape representation of any
// ledger event regardless of originating kind. Amount is never negative and
// EpochMillis is never zero; both are resolved by the classifier boundary.
type UnifiedTransaction struct {
	Kind        Kind            `json:"kind"`
	ID          string          `json:"id"`
	Amount      decimal.Decimal `json:"amount"`
	EpochMillis int64           `json:"epochMillis"`
	Status      TxStatus        `json:"status"`
	AssetLabel  string          `json:"assetLabel"`
	Reference   string          `json:"reference"`

	// Populated only on admin-wide aggregations, joined in by user id.
	UserID    string `json:"userId,omitempty"`
	UserName  string `json:"userName,omitempty"`
	UserEmail string `json:"userEmail,omitempty"`
}
