package services

import (
	"context"
	"strconv"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/fundfolio/backend/src/models"
	"github.com/username/fundfolio/backend/src/store"
	mock_store "github.com/username/fundfolio/backend/src/store/mocks"
)

func newTestTransactionService(st store.Store) *transactionServiceImpl {
	svc := NewTransactionService(st, "Starter Plan").(*transactionServiceImpl)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func TestCreateDeposit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestTransactionService(st)

	var written map[string]any
	st.EXPECT().
		PutDocument(gomock.Any(), store.DepositsPath("u1"), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, fields map[string]any) error {
			written = fields
			return nil
		})

	id, err := svc.CreateDeposit(context.Background(), "u1", decimal.RequireFromString("250.50"), "BTC")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, "250.5", written["amount"])
	assert.Equal(t, "BTC", written["paymentMethod"])
	assert.Equal(t, "pending", written["status"])
	assert.Equal(t, fixedNow.UnixMilli(), written["createdAt"])
	assert.NotEmpty(t, written["transactionId"])
}

func TestCreateDeposit_RejectsNonPositiveAmount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	svc := newTestTransactionService(mock_store.NewMockStore(ctrl))

	_, err := svc.CreateDeposit(context.Background(), "u1", decimal.Zero, "BTC")
	assert.ErrorIs(t, err, ErrInvalidAmount)

	_, err = svc.CreateDeposit(context.Background(), "u1", decimal.RequireFromString("-5"), "BTC")
	assert.ErrorIs(t, err, ErrInvalidAmount)
}

func TestRequestWithdrawal_KeyedByCreationMillis(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestTransactionService(st)

	wantID := strconv.FormatInt(fixedNow.UnixMilli(), 10)
	st.EXPECT().
		PutDocument(gomock.Any(), store.WithdrawalsPath("u1"), wantID, gomock.Any()).
		Return(nil)

	id, err := svc.RequestWithdrawal(context.Background(), "u1", decimal.RequireFromString("75"), "wire", "")
	require.NoError(t, err)
	assert.Equal(t, wantID, id)
}

func TestStartPlan_DefaultsPlanName(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestTransactionService(st)

	var written map[string]any
	st.EXPECT().
		PutDocument(gomock.Any(), store.PlansPath("u1"), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, fields map[string]any) error {
			written = fields
			return nil
		})

	_, err := svc.StartPlan(context.Background(), "u1", decimal.RequireFromString("50"), "  ")
	require.NoError(t, err)
	assert.Equal(t, "Starter Plan", written["planName"])
}

func TestSetTransactionStatus(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestTransactionService(st)

	err := svc.SetTransactionStatus(context.Background(), "u1", models.KindInvestment, "p1", "approved")
	assert.ErrorIs(t, err, ErrInvalidKind)

	err = svc.SetTransactionStatus(context.Background(), "u1", models.KindDeposit, "d1", "vanished")
	assert.ErrorIs(t, err, ErrInvalidStatus)

	st.EXPECT().
		UpdateDocument(gomock.Any(), store.DepositsPath("u1"), "d1", map[string]any{"status": "approved"}).
		Return(nil)
	err = svc.SetTransactionStatus(context.Background(), "u1", models.KindDeposit, "d1", "approved")
	assert.NoError(t, err)
}

func TestCreditProfit_RequiresExistingPlan(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestTransactionService(st)

	st.EXPECT().
		GetDocument(gomock.Any(), store.PlansPath("u1"), "missing").
		Return(models.RawEvent{}, store.ErrNotFound)

	_, err := svc.CreditProfit(context.Background(), "u1", "missing", decimal.RequireFromString("20"))
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestCreditProfit(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestTransactionService(st)

	st.EXPECT().
		GetDocument(gomock.Any(), store.PlansPath("u1"), "p1").
		Return(models.RawEvent{ID: "p1", Fields: map[string]any{"amount": "50", "planName": "Gold"}}, nil)

	var written map[string]any
	st.EXPECT().
		PutDocument(gomock.Any(), store.ProfitsPath("u1"), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, fields map[string]any) error {
			written = fields
			return nil
		})

	_, err := svc.CreditProfit(context.Background(), "u1", "p1", decimal.RequireFromString("20"))
	require.NoError(t, err)
	assert.Equal(t, "20", written["amount"])
	assert.Equal(t, "p1", written["planId"])
	assert.Equal(t, "Gold", written["planName"])
}

func TestReturnInvestment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestTransactionService(st)

	st.EXPECT().
		GetDocument(gomock.Any(), store.PlansPath("u1"), "p1").
		Return(models.RawEvent{ID: "p1", Fields: map[string]any{"amount": "50", "planName": "Gold"}}, nil)
	st.EXPECT().
		UpdateDocument(gomock.Any(), store.PlansPath("u1"), "p1", map[string]any{
			"status":     "returned",
			"returnedAt": fixedNow.UnixMilli(),
		}).
		Return(nil)

	var written map[string]any
	st.EXPECT().
		PutDocument(gomock.Any(), store.ReturnsPath("u1"), gomock.Any(), gomock.Any()).
		DoAndReturn(func(_ context.Context, _, _ string, fields map[string]any) error {
			written = fields
			return nil
		})

	id, err := svc.ReturnInvestment(context.Background(), "u1", "p1")
	require.NoError(t, err)
	assert.NotEmpty(t, id)
	assert.Equal(t, "50", written["amount"])
	assert.Equal(t, "p1", written["planId"])
	assert.Equal(t, "Gold", written["planName"])
}

func TestReturnInvestment_RejectsDoubleReturn(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestTransactionService(st)

	st.EXPECT().
		GetDocument(gomock.Any(), store.PlansPath("u1"), "p1").
		Return(models.RawEvent{ID: "p1", Fields: map[string]any{"amount": "50", "status": "returned"}}, nil)

	_, err := svc.ReturnInvestment(context.Background(), "u1", "p1")
	assert.ErrorIs(t, err, ErrPlanAlreadyReturned)
}

func TestSetManualAdjustment(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestTransactionService(st)

	st.EXPECT().
		UpdateDocument(gomock.Any(), store.UsersPath(), "u1", map[string]any{"balanceAdjustment": "-30"}).
		Return(nil)

	err := svc.SetManualAdjustment(context.Background(), "u1", decimal.RequireFromString("-30"))
	assert.NoError(t, err)
}
