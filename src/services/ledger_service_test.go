package services

import (
	"context"
	"errors"
	"os"
	"testing"
	"time"

	"github.com/golang/mock/gomock"
	"github.com/patrickmn/go-cache"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/username/fundfolio/backend/src/ledger"
	"github.com/username/fundfolio/backend/src/logger"
	"github.com/username/fundfolio/backend/src/models"
	"github.com/username/fundfolio/backend/src/store"
	mock_store "github.com/username/fundfolio/backend/src/store/mocks"
)

func TestMain(m *testing.M) {
	logger.InitLogger("error")
	os.Exit(m.Run())
}

var fixedNow = time.Date(2024, time.June, 15, 12, 0, 0, 0, time.UTC)

func newTestLedgerService(st store.Store, policies *ledger.PolicyResolver) *ledgerServiceImpl {
	svc := NewLedgerService(
		st,
		policies,
		"Starter Plan",
		cache.New(DefaultCacheExpiration, CacheCleanupInterval),
		time.Minute,
	).(*ledgerServiceImpl)
	svc.now = func() time.Time { return fixedNow }
	return svc
}

func rawAmountEvent(id, amount, status string, millis int64) models.RawEvent {
	fields := map[string]any{"amount": amount, "createdAt": millis}
	if status != "" {
		fields["status"] = status
	}
	return models.RawEvent{ID: id, Fields: fields}
}

func rawUserEvent(id, name, role string, millis int64) models.RawEvent {
	return models.RawEvent{ID: id, Fields: map[string]any{
		"name":              name,
		"email":             name + "@example.com",
		"role":              role,
		"balanceAdjustment": "0",
		"createdAt":         millis,
	}}
}

// expectEmptyStreams registers empty-collection reads for every event kind of
// the given user except those listed in skip.
func expectEmptyStreams(st *mock_store.MockStore, userID string, skip ...models.Kind) {
	skipped := make(map[models.Kind]bool, len(skip))
	for _, k := range skip {
		skipped[k] = true
	}
	for _, kind := range models.Kinds {
		if skipped[kind] {
			continue
		}
		st.EXPECT().
			GetCollection(gomock.Any(), store.EventPath(userID, kind)).
			Return(map[string]models.RawEvent{}, nil)
	}
}

func TestGetUserBalance(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestLedgerService(st, ledger.NewPolicyResolver(nil))

	st.EXPECT().GetCollection(gomock.Any(), store.DepositsPath("u1")).Return(map[string]models.RawEvent{
		"d1": rawAmountEvent("d1", "500", "approved", 100),
	}, nil)
	st.EXPECT().GetCollection(gomock.Any(), store.WithdrawalsPath("u1")).Return(map[string]models.RawEvent{
		"w1": rawAmountEvent("w1", "100", "completed", 200),
	}, nil)
	st.EXPECT().GetCollection(gomock.Any(), store.PlansPath("u1")).Return(map[string]models.RawEvent{
		"p1": rawAmountEvent("p1", "50", "", 300),
	}, nil)
	st.EXPECT().GetCollection(gomock.Any(), store.ProfitsPath("u1")).Return(map[string]models.RawEvent{
		"pr1": rawAmountEvent("pr1", "20", "", 400),
	}, nil)
	st.EXPECT().GetCollection(gomock.Any(), store.ReturnsPath("u1")).Return(map[string]models.RawEvent{}, nil)
	st.EXPECT().GetDocument(gomock.Any(), store.UsersPath(), "u1").Return(rawUserEvent("u1", "Ada", "user", 1), nil)

	balance, err := svc.GetUserBalance(context.Background(), "u1")
	require.NoError(t, err)
	assert.Equal(t, "370", balance.String())
}

func TestGetUserBalance_ReturnsCreditedAccount(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestLedgerService(st, ledger.NewPolicyResolver([]string{"u2"}))

	st.EXPECT().GetCollection(gomock.Any(), store.DepositsPath("u2")).Return(map[string]models.RawEvent{
		"d1": rawAmountEvent("d1", "1000", "approved", 100),
	}, nil)
	st.EXPECT().GetCollection(gomock.Any(), store.ReturnsPath("u2")).Return(map[string]models.RawEvent{
		"r1": rawAmountEvent("r1", "250", "", 500),
	}, nil)
	expectEmptyStreams(st, "u2", models.KindDeposit, models.KindInvestmentReturn)
	st.EXPECT().GetDocument(gomock.Any(), store.UsersPath(), "u2").Return(rawUserEvent("u2", "Bea", "user", 1), nil)

	balance, err := svc.GetUserBalance(context.Background(), "u2")
	require.NoError(t, err)
	assert.Equal(t, "1250", balance.String())
}

func TestGetUserTransactions_MergedAndSorted(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestLedgerService(st, ledger.NewPolicyResolver(nil))

	st.EXPECT().GetCollection(gomock.Any(), store.DepositsPath("u1")).Return(map[string]models.RawEvent{
		"d1": rawAmountEvent("d1", "500", "approved", 300),
	}, nil)
	st.EXPECT().GetCollection(gomock.Any(), store.WithdrawalsPath("u1")).Return(map[string]models.RawEvent{
		"w1": rawAmountEvent("w1", "100", "pending", 500),
	}, nil)
	expectEmptyStreams(st, "u1", models.KindDeposit, models.KindWithdrawal)

	feed, err := svc.GetUserTransactions(context.Background(), "u1", "")
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "w1", feed[0].ID)
	assert.Equal(t, "d1", feed[1].ID)

	// The kind filter applies after aggregation.
	st.EXPECT().GetCollection(gomock.Any(), store.DepositsPath("u1")).Return(map[string]models.RawEvent{
		"d1": rawAmountEvent("d1", "500", "approved", 300),
	}, nil)
	st.EXPECT().GetCollection(gomock.Any(), store.WithdrawalsPath("u1")).Return(map[string]models.RawEvent{
		"w1": rawAmountEvent("w1", "100", "pending", 500),
	}, nil)
	expectEmptyStreams(st, "u1", models.KindDeposit, models.KindWithdrawal)

	deposits, err := svc.GetUserTransactions(context.Background(), "u1", models.KindDeposit)
	require.NoError(t, err)
	require.Len(t, deposits, 1)
	assert.Equal(t, "d1", deposits[0].ID)
}

func TestGetUserTransactions_FailsWholeOnReadError(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestLedgerService(st, ledger.NewPolicyResolver(nil))

	readErr := errors.New("store offline")
	st.EXPECT().GetCollection(gomock.Any(), store.PlansPath("u1")).Return(nil, readErr)
	// Sibling reads may or may not run before the group is cancelled.
	for _, kind := range []models.Kind{models.KindDeposit, models.KindWithdrawal, models.KindProfit, models.KindInvestmentReturn} {
		st.EXPECT().
			GetCollection(gomock.Any(), store.EventPath("u1", kind)).
			Return(map[string]models.RawEvent{}, nil).
			AnyTimes()
	}

	feed, err := svc.GetUserTransactions(context.Background(), "u1", "")
	require.Error(t, err)
	assert.ErrorIs(t, err, readErr)
	assert.Nil(t, feed)
}

func TestGetAdminTransactions_ExcludesAdminAccounts(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestLedgerService(st, ledger.NewPolicyResolver(nil))

	st.EXPECT().GetCollection(gomock.Any(), store.UsersPath()).Return(map[string]models.RawEvent{
		"admin-a": rawUserEvent("admin-a", "Root", "admin", 1),
		"user-b":  rawUserEvent("user-b", "Bea", "user", 2),
		"user-c":  rawUserEvent("user-c", "Cid", "user", 3),
	}, nil)
	// No expectations exist for admin-a's collections; a read for them would
	// fail the mock controller.
	st.EXPECT().GetCollection(gomock.Any(), store.DepositsPath("user-b")).Return(map[string]models.RawEvent{
		"d1": rawAmountEvent("d1", "500", "approved", 200),
	}, nil)
	expectEmptyStreams(st, "user-b", models.KindDeposit)
	st.EXPECT().GetCollection(gomock.Any(), store.DepositsPath("user-c")).Return(map[string]models.RawEvent{
		"d2": rawAmountEvent("d2", "300", "pending", 400),
	}, nil)
	expectEmptyStreams(st, "user-c", models.KindDeposit)

	feed, err := svc.GetAdminTransactions(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, feed, 2)
	assert.Equal(t, "d2", feed[0].ID)
	assert.Equal(t, "user-c", feed[0].UserID)
	assert.Equal(t, "Cid", feed[0].UserName)
	assert.Equal(t, "d1", feed[1].ID)
	assert.Equal(t, "user-b", feed[1].UserID)
}

func TestGetAdminStats_CachesUntilInvalidated(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestLedgerService(st, ledger.NewPolicyResolver(nil))

	expectStatsReads := func() {
		st.EXPECT().GetCollection(gomock.Any(), store.UsersPath()).Return(map[string]models.RawEvent{
			"user-b": rawUserEvent("user-b", "Bea", "user", 2),
		}, nil).Times(1)
		st.EXPECT().GetCollection(gomock.Any(), store.PlansPath("user-b")).Return(map[string]models.RawEvent{
			"p1": rawAmountEvent("p1", "50", "", 100),
			"p2": {ID: "p2", Fields: map[string]any{"amount": "30", "status": "returned", "createdAt": int64(200)}},
		}, nil).Times(1)
		expectEmptyStreams(st, "user-b", models.KindInvestment)
	}
	expectStatsReads()

	want := AdminStats{TotalUsers: 1, TotalTransactions: 2, TotalActivePlans: 1}

	first, err := svc.GetAdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, first)

	// Second call is served from the cache; the Times(1) expectations above
	// would trip on a re-read.
	second, err := svc.GetAdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, second)

	svc.InvalidateStatsCache()
	expectStatsReads()
	third, err := svc.GetAdminStats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, want, third)
}

func TestGetAdminDepositChart_WindowIsAlwaysFull(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestLedgerService(st, ledger.NewPolicyResolver(nil))

	st.EXPECT().GetCollection(gomock.Any(), store.UsersPath()).Return(map[string]models.RawEvent{
		"user-b": rawUserEvent("user-b", "Bea", "user", 2),
	}, nil)
	st.EXPECT().GetCollection(gomock.Any(), store.DepositsPath("user-b")).Return(map[string]models.RawEvent{
		"d1": rawAmountEvent("d1", "500", "approved", time.Date(2024, time.May, 3, 0, 0, 0, 0, time.UTC).UnixMilli()),
	}, nil)

	buckets, err := svc.GetAdminDepositChart(context.Background())
	require.NoError(t, err)
	require.Len(t, buckets, AdminChartWindowMonths)

	var mayTotal string
	for _, b := range buckets {
		if b.Key == "2024-05" {
			mayTotal = b.CompletedTotal.String()
		}
	}
	assert.Equal(t, "500", mayTotal)
}

func TestGetAdminSignupChart(t *testing.T) {
	ctrl := gomock.NewController(t)
	defer ctrl.Finish()
	st := mock_store.NewMockStore(ctrl)
	svc := newTestLedgerService(st, ledger.NewPolicyResolver(nil))

	st.EXPECT().GetCollection(gomock.Any(), store.UsersPath()).Return(map[string]models.RawEvent{
		"user-b": rawUserEvent("user-b", "Bea", "user", time.Date(2024, time.April, 1, 0, 0, 0, 0, time.UTC).UnixMilli()),
		"user-c": rawUserEvent("user-c", "Cid", "user", time.Date(2024, time.April, 20, 0, 0, 0, 0, time.UTC).UnixMilli()),
		"root":   rawUserEvent("root", "Root", "admin", time.Date(2024, time.April, 2, 0, 0, 0, 0, time.UTC).UnixMilli()),
	}, nil)

	buckets, err := svc.GetAdminSignupChart(context.Background())
	require.NoError(t, err)
	require.Len(t, buckets, AdminChartWindowMonths)

	var aprilCount int
	for _, b := range buckets {
		if b.Key == "2024-04" {
			aprilCount = b.Count
		}
	}
	assert.Equal(t, 2, aprilCount, "admin signups never chart")
}
