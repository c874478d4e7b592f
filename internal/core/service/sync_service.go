package service

import (
	"context"
	"fmt"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rl1809/market-sync/internal/core/domain"
	"github.com/rl1809/market-sync/internal/port"
)

const snapshotCacheKey = "supplier:snapshot"

// Pair binds one marketplace account (or campaign) to the catalog driver and
// gateway that serve it.
type Pair struct {
	Marketplace string
	Campaign    string
	Currency    string
	Catalog     OfferLister
	Gateway     port.MarketplaceGateway
}

func (p Pair) String() string {
	return p.Marketplace + "/" + p.Campaign
}

// SyncService runs the full cycle: fetch the supplier snapshot once, then
// for every pair enumerate, reconcile and submit batches. Pairs share only
// the immutable snapshot and run concurrently; everything else is
// pair-local.
type SyncService struct {
	feed        port.SupplierFeed
	cache       port.CacheRepository
	journal     port.SyncJournal
	pairs       []Pair
	runID       string
	snapshotTTL time.Duration
	log         zerolog.Logger
}

// NewSyncService wires the orchestrator. runID may be empty; a fresh id is
// then minted per Run. Passing a stable runID makes re-execution of an
// interrupted cycle idempotent: the batch marks of the earlier execution
// are honored and already-submitted batches are skipped.
func NewSyncService(
	feed port.SupplierFeed,
	cache port.CacheRepository,
	journal port.SyncJournal,
	pairs []Pair,
	runID string,
	snapshotTTL time.Duration,
	log zerolog.Logger,
) *SyncService {
	return &SyncService{
		feed:        feed,
		cache:       cache,
		journal:     journal,
		pairs:       pairs,
		runID:       runID,
		snapshotTTL: snapshotTTL,
		log:         log,
	}
}

// Run executes one sync cycle and returns the per-pair outcomes. The
// returned error covers run-level failures only (no snapshot); pair
// failures are reported in the results, isolated from each other.
func (s *SyncService) Run(ctx context.Context) ([]domain.PairResult, error) {
	runID := s.runID
	if runID == "" {
		runID = uuid.NewString()
	}
	log := s.log.With().Str("run_id", runID).Logger()

	if err := s.journal.CreateRun(ctx, domain.SyncRun{ID: runID, StartedAt: time.Now().UTC()}); err != nil {
		log.Error().Err(err).Msg("journal create run failed")
	}

	records, err := s.snapshot(ctx, log)
	if err != nil {
		err = fmt.Errorf("supplier snapshot: %w", err)
		s.journalRunFailure(ctx, log, runID, err)
		return nil, err
	}
	log.Info().Int("records", len(records)).Msg("supplier snapshot loaded")

	results := make([]domain.PairResult, len(s.pairs))
	var wg sync.WaitGroup
	for i, pair := range s.pairs {
		wg.Add(1)
		go func(i int, pair Pair) {
			defer wg.Done()
			res := s.syncPair(ctx, runID, pair, records)
			if err := s.journal.RecordPairResult(ctx, res); err != nil {
				log.Error().Err(err).Str("pair", pair.String()).Msg("journal record pair failed")
			}
			results[i] = res
		}(i, pair)
	}
	wg.Wait()

	if err := s.journal.FinishRun(ctx, runID, time.Now().UTC()); err != nil {
		log.Error().Err(err).Msg("journal finish run failed")
	}
	return results, nil
}

// journalRunFailure records every pair as aborted and closes the run so the
// journal never keeps an open row with no diagnosable outcome.
func (s *SyncService) journalRunFailure(ctx context.Context, log zerolog.Logger, runID string, cause error) {
	kind := domain.ErrorKind(cause)
	now := time.Now().UTC()
	for _, pair := range s.pairs {
		res := domain.PairResult{
			RunID:       runID,
			Marketplace: pair.Marketplace,
			Campaign:    pair.Campaign,
			State:       domain.StateAborted,
			ErrorKind:   kind,
			FinishedAt:  now,
		}
		if err := s.journal.RecordPairResult(ctx, res); err != nil {
			log.Error().Err(err).Str("pair", pair.String()).Msg("journal record pair failed")
		}
	}
	if err := s.journal.FinishRun(ctx, runID, now); err != nil {
		log.Error().Err(err).Msg("journal finish run failed")
	}
}

// snapshot returns the cached supplier snapshot when present, otherwise
// downloads a fresh one and caches it. Cache failures are logged and
// tolerated; feed failures are not.
func (s *SyncService) snapshot(ctx context.Context, log zerolog.Logger) ([]domain.SupplierRecord, error) {
	if s.snapshotTTL > 0 {
		records, ok, err := s.cache.GetSnapshot(ctx, snapshotCacheKey)
		if err != nil {
			log.Warn().Err(err).Msg("snapshot cache read failed")
		} else if ok {
			log.Debug().Int("records", len(records)).Msg("supplier snapshot served from cache")
			return records, nil
		}
	}

	records, err := s.feed.FetchInventorySnapshot(ctx)
	if err != nil {
		return nil, err
	}

	if s.snapshotTTL > 0 {
		if err := s.cache.PutSnapshot(ctx, snapshotCacheKey, records, s.snapshotTTL); err != nil {
			log.Warn().Err(err).Msg("snapshot cache write failed")
		}
	}
	return records, nil
}

func (s *SyncService) syncPair(ctx context.Context, runID string, pair Pair, records []domain.SupplierRecord) domain.PairResult {
	log := s.log.With().
		Str("run_id", runID).
		Str("marketplace", pair.Marketplace).
		Str("campaign", pair.Campaign).
		Logger()

	res := domain.PairResult{
		RunID:       runID,
		Marketplace: pair.Marketplace,
		Campaign:    pair.Campaign,
		State:       domain.StateEnumerating,
	}

	ids, err := pair.Catalog.ListOfferIDs(ctx)
	if err != nil {
		return s.abort(log, res, "catalog enumeration failed", err)
	}
	known := domain.NewOfferSet(ids...)
	log.Info().Int("offers", known.Len()).Msg("catalog enumerated")

	// Both update lists are computed before anything is submitted: a
	// malformed record must never leave the pair half-published.
	res.State = domain.StateReconciling
	now := time.Now().UTC().Truncate(time.Second)
	stocks, err := ReconcileStocks(records, known, now)
	if err != nil {
		return s.abort(log, res, "stock reconciliation failed", err)
	}
	prices, err := ReconcilePrices(records, known, pair.Currency)
	if err != nil {
		return s.abort(log, res, "price reconciliation failed", err)
	}
	log.Info().Int("stock_updates", len(stocks)).Int("price_updates", len(prices)).Msg("reconciled")

	// Stocks and prices are independent sub-steps: a failure in one stops
	// only its own remaining batches. Submitted batches stand either way.
	res.State = domain.StateSubmitting
	var stockErr, priceErr error
	res.StockBatches, stockErr = submitBatches(ctx, log, s.cache, runID, pair, "stock", stocks,
		pair.Gateway.Limits().Stock, pair.Gateway.PushStockBatch)
	res.PriceBatches, priceErr = submitBatches(ctx, log, s.cache, runID, pair, "price", prices,
		pair.Gateway.Limits().Price, pair.Gateway.PushPriceBatch)

	if stockErr != nil {
		return s.abort(log, res, "stock submission failed", stockErr)
	}
	if priceErr != nil {
		return s.abort(log, res, "price submission failed", priceErr)
	}

	res.State = domain.StateDone
	res.FinishedAt = time.Now().UTC()
	log.Info().Int("stock_batches", res.StockBatches).Int("price_batches", res.PriceBatches).Msg("pair synchronized")
	return res
}

func (s *SyncService) abort(log zerolog.Logger, res domain.PairResult, msg string, err error) domain.PairResult {
	res.State = domain.StateAborted
	res.ErrorKind = domain.ErrorKind(err)
	res.FinishedAt = time.Now().UTC()
	log.Error().Err(err).Str("error_kind", res.ErrorKind).Msg(msg)
	return res
}

// submitBatches pushes one batch per round trip, strictly in order, stopping
// at the first failure. Each batch is marked in the cache before sending so
// a re-executed run never submits the same batch twice; a cache outage
// degrades to best-effort marking rather than blocking the sync.
func submitBatches[T any](
	ctx context.Context,
	log zerolog.Logger,
	cache port.CacheRepository,
	runID string,
	pair Pair,
	op string,
	updates []T,
	limit int,
	push func(context.Context, []T) error,
) (int, error) {
	batches, err := domain.Chunk(updates, limit)
	if err != nil {
		return 0, err
	}

	done := 0
	for i, batch := range batches {
		key := fmt.Sprintf("sync:batch:%s:%s:%s:%s:%d", runID, pair.Marketplace, pair.Campaign, op, i)
		fresh, err := cache.MarkBatch(ctx, key)
		if err != nil {
			log.Warn().Err(err).Str("op", op).Int("batch", i).Msg("batch mark failed, sending anyway")
			fresh = true
		}
		if !fresh {
			log.Info().Str("op", op).Int("batch", i).Msg("batch already submitted, skipping")
			done++
			continue
		}
		if err := push(ctx, batch); err != nil {
			return done, fmt.Errorf("%s batch %d/%d: %w", op, i+1, len(batches), err)
		}
		done++
		log.Debug().Str("op", op).Int("batch", i).Int("size", len(batch)).Msg("batch submitted")
	}
	return done, nil
}
