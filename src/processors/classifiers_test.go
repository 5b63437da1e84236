package processors

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/username/fundfolio/backend/src/models"
)

const testPlanName = "Starter Plan"

func TestClassifyDeposit(t *testing.T) {
	ev := models.RawEvent{
		ID: "dep-1",
		Fields: map[string]any{
			"amount":        "500",
			"paymentMethod": "BTC",
			"transactionId": "txn-abc",
			"status":        "approved",
			"createdAt":     1700000000000.0,
		},
	}
	tx := ClassifyDeposit(ev)
	assert.Equal(t, models.KindDeposit, tx.Kind)
	assert.Equal(t, "500", tx.Amount.String())
	assert.Equal(t, int64(1700000000000), tx.EpochMillis)
	assert.Equal(t, models.StatusCompleted, tx.Status)
	assert.Equal(t, "BTC", tx.AssetLabel)
	assert.Equal(t, "txn-abc", tx.Reference)
}

func TestClassifyDeposit_ReferenceFallsBackToID(t *testing.T) {
	tx := ClassifyDeposit(models.RawEvent{ID: "dep-2", Fields: map[string]any{"amount": 10.0}})
	assert.Equal(t, "dep-2", tx.Reference)
	assert.Equal(t, models.StatusPending, tx.Status)
	assert.Equal(t, "—", tx.AssetLabel)
}

func TestClassifyWithdrawal_LabelFallbackChain(t *testing.T) {
	tests := []struct {
		name   string
		fields map[string]any
		want   string
	}{
		{name: "mode wins", fields: map[string]any{"mode": "wire", "walletType": "BTC"}, want: "wire"},
		{name: "wallet type next", fields: map[string]any{"walletType": "BTC"}, want: "BTC"},
		{name: "dash when neither", fields: map[string]any{}, want: "—"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := ClassifyWithdrawal(models.RawEvent{ID: "w-1", Fields: tt.fields})
			assert.Equal(t, tt.want, tx.AssetLabel)
		})
	}
}

func TestClassifyWithdrawal_LegacyMillisKey(t *testing.T) {
	// Legacy withdrawals are keyed by creation millis and carry no date.
	tx := ClassifyWithdrawal(models.RawEvent{ID: "1700000000000", Fields: map[string]any{"amount": "100"}})
	assert.Equal(t, int64(1700000000000), tx.EpochMillis)
	assert.Equal(t, "1700000000000", tx.Reference)
}

func TestClassifyInvestment(t *testing.T) {
	active := ClassifyInvestment(models.RawEvent{ID: "p-1", Fields: map[string]any{"amount": "50"}}, testPlanName)
	assert.Equal(t, models.StatusActive, active.Status)
	assert.Equal(t, testPlanName, active.AssetLabel)

	returned := ClassifyInvestment(models.RawEvent{
		ID:     "p-2",
		Fields: map[string]any{"amount": "50", "status": "returned", "planName": "Gold"},
	}, testPlanName)
	assert.Equal(t, models.StatusReturned, returned.Status)
	assert.Equal(t, "Gold", returned.AssetLabel)
}

func TestClassifyProfit(t *testing.T) {
	tx := ClassifyProfit(models.RawEvent{
		ID:     "pr-1",
		Fields: map[string]any{"amount": 20.0, "planId": "p-1"},
	}, testPlanName)
	assert.Equal(t, models.KindProfit, tx.Kind)
	assert.Equal(t, models.StatusCredited, tx.Status)
	assert.Equal(t, "p-1", tx.Reference)
}

func TestClassifyInvestmentReturn(t *testing.T) {
	tx := ClassifyInvestmentReturn(models.RawEvent{
		ID:     "r-1",
		Fields: map[string]any{"amount": "50", "planId": "p-1"},
	}, testPlanName)
	assert.Equal(t, models.KindInvestmentReturn, tx.Kind)
	assert.Equal(t, models.StatusReturned, tx.Status)
	assert.Equal(t, "p-1", tx.Reference)
}

func TestClassifiers_TotalOverEmptyRecords(t *testing.T) {
	// No classifier may panic or error on a record with no usable fields.
	empty := models.RawEvent{ID: "x", Fields: map[string]any{}}
	for _, kind := range models.Kinds {
		tx := Classify(kind, empty, testPlanName)
		assert.Equal(t, kind, tx.Kind)
		assert.Equal(t, "0", tx.Amount.String())
		assert.NotZero(t, tx.EpochMillis, "kind %s must always resolve a timestamp", kind)
	}
}

func TestClassifyUser(t *testing.T) {
	user := ClassifyUser(models.RawEvent{
		ID: "u-1",
		Fields: map[string]any{
			"name":              "Ada",
			"email":             "ada@example.com",
			"role":              "admin",
			"balanceAdjustment": "-75.25",
			"createdAt":         1700000000000.0,
		},
	})
	assert.Equal(t, "Ada", user.Name)
	assert.True(t, user.IsAdmin())
	assert.Equal(t, "-75.25", user.ManualAdjustment.String())
	assert.Equal(t, int64(1700000000000), user.CreatedAtMillis)

	anon := ClassifyUser(models.RawEvent{ID: "u-2", Fields: map[string]any{}})
	assert.False(t, anon.IsAdmin())
	assert.Equal(t, "0", anon.ManualAdjustment.String())
}
