package services

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/username/fundfolio/backend/src/ledger"
	"github.com/username/fundfolio/backend/src/models"
)

// Chart window sizes. Per-user charts show a half-year; admin charts a full
// year. Renderers rely on the window length being constant.
const (
	UserChartWindowMonths  = 6
	AdminChartWindowMonths = 12
)

// Common service errors.
var (
	ErrInvalidAmount       = errors.New("amount must be greater than zero")
	ErrInvalidStatus       = errors.New("unsupported transaction status")
	ErrInvalidKind         = errors.New("unsupported transaction kind")
	ErrEmailTaken          = errors.New("email already registered")
	ErrInvalidCredentials  = errors.New("invalid email or password")
	ErrPlanAlreadyReturned = errors.New("plan has already been returned")
)

// AdminStats are the admin dashboard summary counts. Administrator accounts
// are excluded from every figure.
type AdminStats struct {
	TotalUsers        int `json:"totalUsers"`
	TotalTransactions int `json:"totalTransactions"`
	TotalActivePlans  int `json:"totalActivePlans"`
}

// LedgerService is the read side: it recomputes every figure from the raw
// event collections on each call. Reads fan out concurrently and fail as a
// whole if any collection read fails; there are no partial aggregates.
type LedgerService interface {
	GetUserTransactions(ctx context.Context, userID string, kind models.Kind) ([]models.UnifiedTransaction, error)
	GetUserBalance(ctx context.Context, userID string) (decimal.Decimal, error)
	GetUserDepositChart(ctx context.Context, userID string) ([]ledger.DepositMonthBucket, error)

	GetAdminTransactions(ctx context.Context, kind models.Kind) ([]models.UnifiedTransaction, error)
	GetAdminStats(ctx context.Context) (AdminStats, error)
	GetAdminDepositChart(ctx context.Context) ([]ledger.DepositMonthBucket, error)
	GetAdminSignupChart(ctx context.Context) ([]ledger.MonthBucket, error)
	InvalidateStatsCache()
}

// TransactionService is the write side: it produces the raw event records
// the ledger engine later reads back.
type TransactionService interface {
	CreateDeposit(ctx context.Context, userID string, amount decimal.Decimal, paymentMethod string) (string, error)
	RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, mode, walletType string) (string, error)
	StartPlan(ctx context.Context, userID string, amount decimal.Decimal, planName string) (string, error)
	SetTransactionStatus(ctx context.Context, userID string, kind models.Kind, txID, status string) error
	CreditProfit(ctx context.Context, userID, planID string, amount decimal.Decimal) (string, error)
	ReturnInvestment(ctx context.Context, userID, planID string) (string, error)
	SetManualAdjustment(ctx context.Context, userID string, amount decimal.Decimal) error
}

// UserService is the thin interface to the user directory used by the auth
// boundary and the admin role check.
type UserService interface {
	Register(ctx context.Context, name, email, password string) (models.User, error)
	Authenticate(ctx context.Context, email, password string) (models.User, error)
	GetUser(ctx context.Context, userID string) (models.User, error)
}
