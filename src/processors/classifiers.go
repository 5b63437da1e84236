package processors

import (
	"github.com/username/fundfolio/backend/src/models"
)

// noLabel is rendered when a record carries no usable asset label.
const noLabel = "—"

// ClassifyDeposit maps a raw deposit record onto the canonical shape.
func ClassifyDeposit(ev models.RawEvent) models.UnifiedTransaction {
	reference := ev.String("transactionId")
	if reference == "" {
		reference = ev.ID
	}
	label := ev.String("paymentMethod")
	if label == "" {
		label = noLabel
	}
	return models.UnifiedTransaction{
		Kind:        models.KindDeposit,
		ID:          ev.ID,
		Amount:      NormalizeAmount(ev.Fields["amount"]),
		EpochMillis: NormalizeTimestamp(ev.Fields, ev.ID),
		Status:      NormalizeStatus(ev.String("status")),
		AssetLabel:  label,
		Reference:   reference,
	}
}

// ClassifyWithdrawal maps a raw withdrawal record. The asset label falls
// back from the withdrawal mode to the wallet type; the reference is the
// record id, which for legacy records is the creation-millis key.
func ClassifyWithdrawal(ev models.RawEvent) models.UnifiedTransaction {
	label := ev.String("mode", "walletType")
	if label == "" {
		label = noLabel
	}
	return models.UnifiedTransaction{
		Kind:        models.KindWithdrawal,
		ID:          ev.ID,
		Amount:      NormalizeAmount(ev.Fields["amount"]),
		EpochMillis: NormalizeTimestamp(ev.Fields, ev.ID),
		Status:      NormalizeStatus(ev.String("status")),
		AssetLabel:  label,
		Reference:   ev.ID,
	}
}

// ClassifyInvestment maps a raw plan record. Investments carry no approval
// status: a plan is active unless it has been explicitly tagged returned.
func ClassifyInvestment(ev models.RawEvent, defaultPlanName string) models.UnifiedTransaction {
	status := models.StatusActive
	if ev.String("status") == "returned" {
		status = models.StatusReturned
	}
	label := ev.String("planName")
	if label == "" {
		label = defaultPlanName
	}
	return models.UnifiedTransaction{
		Kind:        models.KindInvestment,
		ID:          ev.ID,
		Amount:      NormalizeAmount(ev.Fields["amount"]),
		EpochMillis: NormalizeTimestamp(ev.Fields, ev.ID),
		Status:      status,
		AssetLabel:  label,
		Reference:   ev.ID,
	}
}

// ClassifyProfit maps a raw profit credit. Profits are always credited; the
// reference points at the originating plan.
func ClassifyProfit(ev models.RawEvent, defaultPlanName string) models.UnifiedTransaction {
	label := ev.String("planName")
	if label == "" {
		label = defaultPlanName
	}
	return models.UnifiedTransaction{
		Kind:        models.KindProfit,
		ID:          ev.ID,
		Amount:      NormalizeAmount(ev.Fields["amount"]),
		EpochMillis: NormalizeTimestamp(ev.Fields, ev.ID),
		Status:      models.StatusCredited,
		AssetLabel:  label,
		Reference:   ev.String("planId"),
	}
}

// ClassifyInvestmentReturn maps a raw principal-return record. Returns are
// always in the returned state; the reference points at the returned plan.
func ClassifyInvestmentReturn(ev models.RawEvent, defaultPlanName string) models.UnifiedTransaction {
	label := ev.String("planName")
	if label == "" {
		label = defaultPlanName
	}
	return models.UnifiedTransaction{
		Kind:        models.KindInvestmentReturn,
		ID:          ev.ID,
		Amount:      NormalizeAmount(ev.Fields["amount"]),
		EpochMillis: NormalizeTimestamp(ev.Fields, ev.ID),
		Status:      models.StatusReturned,
		AssetLabel:  label,
		Reference:   ev.String("planId"),
	}
}

// Classify dispatches a raw record to the classifier for its kind.
func Classify(kind models.Kind, ev models.RawEvent, defaultPlanName string) models.UnifiedTransaction {
	switch kind {
	case models.KindWithdrawal:
		return ClassifyWithdrawal(ev)
	case models.KindInvestment:
		return ClassifyInvestment(ev, defaultPlanName)
	case models.KindProfit:
		return ClassifyProfit(ev, defaultPlanName)
	case models.KindInvestmentReturn:
		return ClassifyInvestmentReturn(ev, defaultPlanName)
	default:
		return ClassifyDeposit(ev)
	}
}

// ClassifyUser maps a user directory record. The manual balance adjustment
// keeps its sign; a missing adjustment is zero.
func ClassifyUser(ev models.RawEvent) models.User {
	return models.User{
		ID:               ev.ID,
		Name:             ev.String("name"),
		Email:            ev.String("email"),
		Role:             ev.String("role"),
		PasswordHash:     ev.String("passwordHash"),
		ManualAdjustment: NormalizeSignedAmount(ev.Fields["balanceAdjustment"]),
		CreatedAtMillis:  NormalizeTimestamp(ev.Fields, ev.ID),
	}
}
