package store

import (
	"context"
	"errors"

	"github.com/username/fundfolio/backend/src/models"
)

// ErrNotFound is returned when a document does not exist at the given path.
// Callers distinguish it from transient store failures.
var ErrNotFound = errors.New("document not found")

// Store is the keyed read/write interface over the schemaless document
// store. Collection paths are slash-separated, mirroring the original data
// layout: "users", "users/{uid}/deposits", and so on.
//
//go:generate mockgen -destination=mocks/mock_store.go -package=mock_store -source=store.go Store
type Store interface {
	GetCollection(ctx context.Context, path string) (map[string]models.RawEvent, error)
	GetDocument(ctx context.Context, path, id string) (models.RawEvent, error)
	PutDocument(ctx context.Context, path, id string, fields map[string]any) error
	// UpdateDocument merges the given fields into an existing document.
	UpdateDocument(ctx context.Context, path, id string, fields map[string]any) error
	DeleteDocument(ctx context.Context, path, id string) error
}

// Collection path helpers. Every per-user event collection hangs off the
// user's directory entry.

func UsersPath() string { return "users" }

func DepositsPath(userID string) string { return "users/" + userID + "/deposits" }

func WithdrawalsPath(userID string) string { return "users/" + userID + "/withdrawals" }

func PlansPath(userID string) string { return "users/" + userID + "/plans" }

func ProfitsPath(userID string) string { return "users/" + userID + "/profits" }

func ReturnsPath(userID string) string { return "users/" + userID + "/returns" }

// EventPath returns the collection path for the given event kind.
func EventPath(userID string, kind models.Kind) string {
	switch kind {
	case models.KindDeposit:
		return DepositsPath(userID)
	case models.KindWithdrawal:
		return WithdrawalsPath(userID)
	case models.KindInvestment:
		return PlansPath(userID)
	case models.KindProfit:
		return ProfitsPath(userID)
	case models.KindInvestmentReturn:
		return ReturnsPath(userID)
	}
	return ""
}
