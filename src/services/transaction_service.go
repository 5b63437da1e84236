package services

import (
	"context"
	"fmt"
	"strconv"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/username/fundfolio/backend/src/logger"
	"github.com/username/fundfolio/backend/src/models"
	"github.com/username/fundfolio/backend/src/processors"
	"github.com/username/fundfolio/backend/src/security/validation"
	"github.com/username/fundfolio/backend/src/store"
)

// allowedStatusUpdates are the raw status values an administrator may write
// onto a deposit or withdrawal. They normalize to the closed status set on
// the next read.
var allowedStatusUpdates = map[string]bool{
	"approved":  true,
	"rejected":  true,
	"completed": true,
	"failed":    true,
	"pending":   true,
}

type transactionServiceImpl struct {
	store           store.Store
	defaultPlanName string
	now             func() time.Time
}

func NewTransactionService(st store.Store, defaultPlanName string) TransactionService {
	return &transactionServiceImpl{
		store:           st,
		defaultPlanName: defaultPlanName,
		now:             time.Now,
	}
}

func (s *transactionServiceImpl) CreateDeposit(ctx context.Context, userID string, amount decimal.Decimal, paymentMethod string) (string, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	id := uuid.NewString()
	fields := map[string]any{
		"amount":        amount.String(),
		"paymentMethod": validation.CleanLabel(paymentMethod),
		"transactionId": uuid.NewString(),
		"status":        "pending",
		"createdAt":     s.now().UnixMilli(),
	}
	if err := s.store.PutDocument(ctx, store.DepositsPath(userID), id, fields); err != nil {
		return "", fmt.Errorf("creating deposit: %w", err)
	}
	logger.FromContext(ctx).Info("Deposit created", "userID", userID, "depositID", id, "amount", amount.String())
	return id, nil
}

// RequestWithdrawal keys the record by its creation millis. Withdrawal
// documents have always been keyed this way, and the classifier's timestamp
// fallback chain depends on it for records that predate the createdAt field.
func (s *transactionServiceImpl) RequestWithdrawal(ctx context.Context, userID string, amount decimal.Decimal, mode, walletType string) (string, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	now := s.now()
	id := strconv.FormatInt(now.UnixMilli(), 10)
	fields := map[string]any{
		"amount":     amount.String(),
		"mode":       validation.CleanLabel(mode),
		"walletType": validation.CleanLabel(walletType),
		"status":     "pending",
		"createdAt":  now.UnixMilli(),
	}
	if err := s.store.PutDocument(ctx, store.WithdrawalsPath(userID), id, fields); err != nil {
		return "", fmt.Errorf("requesting withdrawal: %w", err)
	}
	logger.FromContext(ctx).Info("Withdrawal requested", "userID", userID, "withdrawalID", id, "amount", amount.String())
	return id, nil
}

func (s *transactionServiceImpl) StartPlan(ctx context.Context, userID string, amount decimal.Decimal, planName string) (string, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	name := validation.CleanLabel(planName)
	if name == "" {
		name = s.defaultPlanName
	}
	id := uuid.NewString()
	fields := map[string]any{
		"amount":    amount.String(),
		"planName":  name,
		"createdAt": s.now().UnixMilli(),
	}
	if err := s.store.PutDocument(ctx, store.PlansPath(userID), id, fields); err != nil {
		return "", fmt.Errorf("starting plan: %w", err)
	}
	logger.FromContext(ctx).Info("Plan started", "userID", userID, "planID", id, "planName", name, "amount", amount.String())
	return id, nil
}

// SetTransactionStatus rewrites the approval status of a deposit or
// withdrawal. Other kinds have no approval lifecycle.
func (s *transactionServiceImpl) SetTransactionStatus(ctx context.Context, userID string, kind models.Kind, txID, status string) error {
	if kind != models.KindDeposit && kind != models.KindWithdrawal {
		return ErrInvalidKind
	}
	if !allowedStatusUpdates[status] {
		return ErrInvalidStatus
	}
	if err := s.store.UpdateDocument(ctx, store.EventPath(userID, kind), txID, map[string]any{"status": status}); err != nil {
		return fmt.Errorf("updating %s status: %w", kind, err)
	}
	logger.FromContext(ctx).Info("Transaction status updated", "userID", userID, "kind", kind, "txID", txID, "status", status)
	return nil
}

func (s *transactionServiceImpl) CreditProfit(ctx context.Context, userID, planID string, amount decimal.Decimal) (string, error) {
	if !amount.IsPositive() {
		return "", ErrInvalidAmount
	}
	plan, err := s.store.GetDocument(ctx, store.PlansPath(userID), planID)
	if err != nil {
		return "", fmt.Errorf("looking up plan for profit credit: %w", err)
	}
	planName := plan.String("planName")
	if planName == "" {
		planName = s.defaultPlanName
	}
	id := uuid.NewString()
	fields := map[string]any{
		"amount":    amount.String(),
		"planId":    planID,
		"planName":  planName,
		"createdAt": s.now().UnixMilli(),
	}
	if err := s.store.PutDocument(ctx, store.ProfitsPath(userID), id, fields); err != nil {
		return "", fmt.Errorf("crediting profit: %w", err)
	}
	logger.FromContext(ctx).Info("Profit credited", "userID", userID, "planID", planID, "amount", amount.String())
	return id, nil
}

// ReturnInvestment tags the plan returned and writes the matching
// investment_return record for the plan's principal. The plan drops out of
// the invested-active balance term on the next reconciliation.
func (s *transactionServiceImpl) ReturnInvestment(ctx context.Context, userID, planID string) (string, error) {
	plan, err := s.store.GetDocument(ctx, store.PlansPath(userID), planID)
	if err != nil {
		return "", fmt.Errorf("looking up plan for return: %w", err)
	}
	if plan.String("status") == "returned" {
		return "", ErrPlanAlreadyReturned
	}

	now := s.now()
	if err := s.store.UpdateDocument(ctx, store.PlansPath(userID), planID, map[string]any{
		"status":     "returned",
		"returnedAt": now.UnixMilli(),
	}); err != nil {
		return "", fmt.Errorf("marking plan returned: %w", err)
	}

	planName := plan.String("planName")
	if planName == "" {
		planName = s.defaultPlanName
	}
	id := uuid.NewString()
	fields := map[string]any{
		"amount":    processors.NormalizeAmount(plan.Fields["amount"]).String(),
		"planId":    planID,
		"planName":  planName,
		"createdAt": now.UnixMilli(),
	}
	if err := s.store.PutDocument(ctx, store.ReturnsPath(userID), id, fields); err != nil {
		return "", fmt.Errorf("recording investment return: %w", err)
	}
	logger.FromContext(ctx).Info("Investment returned", "userID", userID, "planID", planID, "returnID", id)
	return id, nil
}

func (s *transactionServiceImpl) SetManualAdjustment(ctx context.Context, userID string, amount decimal.Decimal) error {
	if err := s.store.UpdateDocument(ctx, store.UsersPath(), userID, map[string]any{
		"balanceAdjustment": amount.String(),
	}); err != nil {
		return fmt.Errorf("setting manual adjustment: %w", err)
	}
	logger.FromContext(ctx).Info("Manual adjustment set", "userID", userID, "adjustment", amount.String())
	return nil
}
