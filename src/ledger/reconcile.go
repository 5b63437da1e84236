package ledger

import (
	"github.com/shopspring/decimal"
	"github.com/username/fundfolio/backend/src/models"
)

// BalanceInputs are the aggregate terms feeding the balance formula. They
// are derived per invocation from classified streams, never persisted.
type BalanceInputs struct {
	DepositsCompleted    decimal.Decimal
	WithdrawalsCompleted decimal.Decimal
	InvestedActive       decimal.Decimal
	Profits              decimal.Decimal
	ManualAdjustment     decimal.Decimal
	InvestmentReturns    decimal.Decimal
}

// Reconcile computes the authoritative account balance:
//
//	balance = deposits(completed) − withdrawals(completed) − invested(active)
//	        + profits + manual adjustment [+ investment returns, policy-gated]
func Reconcile(in BalanceInputs, policy Policy) decimal.Decimal {
	balance := in.DepositsCompleted.
		Sub(in.WithdrawalsCompleted).
		Sub(in.InvestedActive).
		Add(in.Profits).
		Add(in.ManualAdjustment)
	if policy.IncludeInvestmentReturns {
		balance = balance.Add(in.InvestmentReturns)
	}
	return balance
}

// InputsFromStreams reduces classified streams into balance inputs.
// Pending and failed deposits/withdrawals are excluded entirely, not
// zero-weighted; returned investments drop out of the invested term.
func InputsFromStreams(streams map[models.Kind][]models.UnifiedTransaction, manualAdjustment decimal.Decimal) BalanceInputs {
	in := BalanceInputs{ManualAdjustment: manualAdjustment}
	for _, tx := range streams[models.KindDeposit] {
		if tx.Status == models.StatusCompleted {
			in.DepositsCompleted = in.DepositsCompleted.Add(tx.Amount)
		}
	}
	for _, tx := range streams[models.KindWithdrawal] {
		if tx.Status == models.StatusCompleted {
			in.WithdrawalsCompleted = in.WithdrawalsCompleted.Add(tx.Amount)
		}
	}
	for _, tx := range streams[models.KindInvestment] {
		if tx.Status != models.StatusReturned {
			in.InvestedActive = in.InvestedActive.Add(tx.Amount)
		}
	}
	for _, tx := range streams[models.KindProfit] {
		in.Profits = in.Profits.Add(tx.Amount)
	}
	for _, tx := range streams[models.KindInvestmentReturn] {
		in.InvestmentReturns = in.InvestmentReturns.Add(tx.Amount)
	}
	return in
}
