package services

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/shopspring/decimal"
	"golang.org/x/sync/errgroup"

	"github.com/username/fundfolio/backend/src/ledger"
	"github.com/username/fundfolio/backend/src/logger"
	"github.com/username/fundfolio/backend/src/models"
	"github.com/username/fundfolio/backend/src/processors"
	"github.com/username/fundfolio/backend/src/store"
)

const (
	ckAdminStats = "agg_admin_stats"

	// Upper bound on concurrent per-user fan-outs during admin aggregation.
	adminReadConcurrency = 8

	DefaultCacheExpiration = 15 * time.Minute
	CacheCleanupInterval   = 30 * time.Minute
)

type ledgerServiceImpl struct {
	store           store.Store
	policies        *ledger.PolicyResolver
	defaultPlanName string
	statsCache      *cache.Cache
	statsExpiry     time.Duration
	now             func() time.Time
}

func NewLedgerService(
	st store.Store,
	policies *ledger.PolicyResolver,
	defaultPlanName string,
	statsCache *cache.Cache,
	statsExpiry time.Duration,
) LedgerService {
	return &ledgerServiceImpl{
		store:           st,
		policies:        policies,
		defaultPlanName: defaultPlanName,
		statsCache:      statsCache,
		statsExpiry:     statsExpiry,
		now:             time.Now,
	}
}

// readUserStreams fans out one read per event collection and classifies
// each into the canonical shape. Any read error aborts the whole fan-out;
// a partially fetched snapshot never reaches the aggregation stage.
func (s *ledgerServiceImpl) readUserStreams(ctx context.Context, userID string) (map[models.Kind][]models.UnifiedTransaction, error) {
	g, ctx := errgroup.WithContext(ctx)
	var mu sync.Mutex
	streams := make(map[models.Kind][]models.UnifiedTransaction, len(models.Kinds))

	for _, kind := range models.Kinds {
		kind := kind
		g.Go(func() error {
			events, err := s.store.GetCollection(ctx, store.EventPath(userID, kind))
			if err != nil {
				return fmt.Errorf("reading %s stream for user %s: %w", kind, userID, err)
			}
			txs := make([]models.UnifiedTransaction, 0, len(events))
			for _, id := range sortedEventIDs(events) {
				txs = append(txs, processors.Classify(kind, events[id], s.defaultPlanName))
			}
			mu.Lock()
			streams[kind] = txs
			mu.Unlock()
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return streams, nil
}

func (s *ledgerServiceImpl) GetUserTransactions(ctx context.Context, userID string, kind models.Kind) ([]models.UnifiedTransaction, error) {
	streams, err := s.readUserStreams(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ledger.FilterByKind(ledger.Aggregate(streams), kind), nil
}

func (s *ledgerServiceImpl) GetUserBalance(ctx context.Context, userID string) (decimal.Decimal, error) {
	var (
		streams map[models.Kind][]models.UnifiedTransaction
		user    models.User
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		streams, err = s.readUserStreams(gctx, userID)
		return err
	})
	g.Go(func() error {
		ev, err := s.store.GetDocument(gctx, store.UsersPath(), userID)
		if err != nil {
			return fmt.Errorf("reading user directory entry: %w", err)
		}
		user = processors.ClassifyUser(ev)
		return nil
	})
	if err := g.Wait(); err != nil {
		return decimal.Zero, err
	}

	policy := s.policies.PolicyFor(userID)
	inputs := ledger.InputsFromStreams(streams, user.ManualAdjustment)
	balance := ledger.Reconcile(inputs, policy)
	logger.FromContext(ctx).Debug("Balance reconciled", "userID", userID, "policy", policy.Name, "balance", balance.String())
	return balance, nil
}

func (s *ledgerServiceImpl) GetUserDepositChart(ctx context.Context, userID string) ([]ledger.DepositMonthBucket, error) {
	deposits, err := s.readDeposits(ctx, userID)
	if err != nil {
		return nil, err
	}
	return ledger.BucketDeposits(deposits, UserChartWindowMonths, s.now()), nil
}

func (s *ledgerServiceImpl) readDeposits(ctx context.Context, userID string) ([]models.UnifiedTransaction, error) {
	events, err := s.store.GetCollection(ctx, store.DepositsPath(userID))
	if err != nil {
		return nil, fmt.Errorf("reading deposit stream for user %s: %w", userID, err)
	}
	deposits := make([]models.UnifiedTransaction, 0, len(events))
	for _, id := range sortedEventIDs(events) {
		deposits = append(deposits, processors.ClassifyDeposit(events[id]))
	}
	return deposits, nil
}

// listMembers returns the non-administrator user directory, sorted by id.
// The role check happens here, before any per-user collection read, so an
// administrator's events never enter an admin-facing aggregation.
func (s *ledgerServiceImpl) listMembers(ctx context.Context) ([]models.User, error) {
	events, err := s.store.GetCollection(ctx, store.UsersPath())
	if err != nil {
		return nil, fmt.Errorf("reading user directory: %w", err)
	}
	users := make([]models.User, 0, len(events))
	for _, id := range sortedEventIDs(events) {
		user := processors.ClassifyUser(events[id])
		if user.IsAdmin() {
			continue
		}
		users = append(users, user)
	}
	return users, nil
}

// readMemberStreams fans out per-user stream reads across all non-admin
// users, bounded by adminReadConcurrency. Per-user computations are
// independent, so order of completion does not matter; results are indexed
// by the caller-visible user order.
func (s *ledgerServiceImpl) readMemberStreams(ctx context.Context) ([]models.User, []map[models.Kind][]models.UnifiedTransaction, error) {
	users, err := s.listMembers(ctx)
	if err != nil {
		return nil, nil, err
	}

	perUser := make([]map[models.Kind][]models.UnifiedTransaction, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(adminReadConcurrency)
	for i, user := range users {
		i, user := i, user
		g.Go(func() error {
			streams, err := s.readUserStreams(gctx, user.ID)
			if err != nil {
				return err
			}
			perUser[i] = streams
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return users, perUser, nil
}

func (s *ledgerServiceImpl) GetAdminTransactions(ctx context.Context, kind models.Kind) ([]models.UnifiedTransaction, error) {
	users, perUser, err := s.readMemberStreams(ctx)
	if err != nil {
		return nil, err
	}

	var all []models.UnifiedTransaction
	for i, user := range users {
		for _, tx := range ledger.Aggregate(perUser[i]) {
			tx.UserID = user.ID
			tx.UserName = user.Name
			tx.UserEmail = user.Email
			all = append(all, tx)
		}
	}
	// Per-user lists are already sorted; one global stable pass restores the
	// descending order across users without disturbing equal-timestamp ties.
	sort.SliceStable(all, func(i, j int) bool {
		return all[i].EpochMillis > all[j].EpochMillis
	})
	return ledger.FilterByKind(all, kind), nil
}

func (s *ledgerServiceImpl) GetAdminStats(ctx context.Context) (AdminStats, error) {
	if cached, found := s.statsCache.Get(ckAdminStats); found {
		return cached.(AdminStats), nil
	}

	users, perUser, err := s.readMemberStreams(ctx)
	if err != nil {
		return AdminStats{}, err
	}

	stats := AdminStats{TotalUsers: len(users)}
	for _, streams := range perUser {
		for _, txs := range streams {
			stats.TotalTransactions += len(txs)
		}
		for _, tx := range streams[models.KindInvestment] {
			if tx.Status == models.StatusActive {
				stats.TotalActivePlans++
			}
		}
	}

	s.statsCache.Set(ckAdminStats, stats, s.statsExpiry)
	return stats, nil
}

func (s *ledgerServiceImpl) GetAdminDepositChart(ctx context.Context) ([]ledger.DepositMonthBucket, error) {
	users, err := s.listMembers(ctx)
	if err != nil {
		return nil, err
	}

	deposits := make([][]models.UnifiedTransaction, len(users))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(adminReadConcurrency)
	for i, user := range users {
		i, user := i, user
		g.Go(func() error {
			txs, err := s.readDeposits(gctx, user.ID)
			if err != nil {
				return err
			}
			deposits[i] = txs
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	var all []models.UnifiedTransaction
	for _, txs := range deposits {
		all = append(all, txs...)
	}
	return ledger.BucketDeposits(all, AdminChartWindowMonths, s.now()), nil
}

func (s *ledgerServiceImpl) GetAdminSignupChart(ctx context.Context) ([]ledger.MonthBucket, error) {
	users, err := s.listMembers(ctx)
	if err != nil {
		return nil, err
	}
	return ledger.BucketSignups(users, AdminChartWindowMonths, s.now()), nil
}

func (s *ledgerServiceImpl) InvalidateStatsCache() {
	s.statsCache.Delete(ckAdminStats)
	logger.L.Info("Admin stats cache invalidated")
}

// sortedEventIDs fixes the classification input order. Map iteration is
// randomized, and the aggregator's tie-breaking must be reproducible across
// reads.
func sortedEventIDs(events map[string]models.RawEvent) []string {
	ids := make([]string, 0, len(events))
	for id := range events {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}
