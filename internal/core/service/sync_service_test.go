package service

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/rs/zerolog"

	"github.com/rl1809/market-sync/internal/core/domain"
)

// Mock SupplierFeed
type mockFeed struct {
	records []domain.SupplierRecord
	err     error
	calls   int
}

func (m *mockFeed) FetchInventorySnapshot(ctx context.Context) ([]domain.SupplierRecord, error) {
	m.calls++
	if m.err != nil {
		return nil, m.err
	}
	return m.records, nil
}

// Mock CacheRepository
type mockCache struct {
	mu       sync.Mutex
	snapshot []domain.SupplierRecord
	hasSnap  bool
	marked   map[string]bool
	markErr  error
}

func newMockCache() *mockCache {
	return &mockCache{marked: make(map[string]bool)}
}

func (m *mockCache) GetSnapshot(ctx context.Context, key string) ([]domain.SupplierRecord, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.snapshot, m.hasSnap, nil
}

func (m *mockCache) PutSnapshot(ctx context.Context, key string, records []domain.SupplierRecord, ttl time.Duration) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.snapshot = records
	m.hasSnap = true
	return nil
}

func (m *mockCache) MarkBatch(ctx context.Context, key string) (bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.markErr != nil {
		return false, m.markErr
	}
	if m.marked[key] {
		return false, nil
	}
	m.marked[key] = true
	return true, nil
}

// Mock SyncJournal
type mockJournal struct {
	mu       sync.Mutex
	runs     []domain.SyncRun
	results  []domain.PairResult
	finishes int
}

func (m *mockJournal) CreateRun(ctx context.Context, run domain.SyncRun) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.runs = append(m.runs, run)
	return nil
}

func (m *mockJournal) RecordPairResult(ctx context.Context, res domain.PairResult) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.results = append(m.results, res)
	return nil
}

func (m *mockJournal) FinishRun(ctx context.Context, runID string, finishedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.finishes++
	return nil
}

// Mock MarketplaceGateway + OfferLister
type mockGateway struct {
	mu           sync.Mutex
	offerIDs     []string
	listErr      error
	limits       domain.BatchLimits
	stockBatches [][]domain.StockUpdate
	priceBatches [][]domain.PriceUpdate
	stockFailAt  int // fail the nth stock push (1-based), 0 = never
}

func (m *mockGateway) ListOfferIDs(ctx context.Context) ([]string, error) {
	if m.listErr != nil {
		return nil, m.listErr
	}
	return m.offerIDs, nil
}

func (m *mockGateway) PushStockBatch(ctx context.Context, batch []domain.StockUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.stockFailAt > 0 && len(m.stockBatches)+1 == m.stockFailAt {
		return domain.ErrTransportConnection
	}
	m.stockBatches = append(m.stockBatches, batch)
	return nil
}

func (m *mockGateway) PushPriceBatch(ctx context.Context, batch []domain.PriceUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.priceBatches = append(m.priceBatches, batch)
	return nil
}

func (m *mockGateway) Limits() domain.BatchLimits {
	return m.limits
}

func newTestService(feed *mockFeed, cache *mockCache, journal *mockJournal, pairs []Pair) *SyncService {
	return NewSyncService(feed, cache, journal, pairs, "", 0, zerolog.Nop())
}

func pairFor(gw *mockGateway) Pair {
	return Pair{
		Marketplace: "test",
		Campaign:    "c1",
		Currency:    "RUB",
		Catalog:     gw,
		Gateway:     gw,
	}
}

func TestRun_HappyPath(t *testing.T) {
	feed := &mockFeed{records: []domain.SupplierRecord{
		{Code: "A", QuantityText: ">10", PriceText: "1 500"},
		{Code: "B", QuantityText: "1", PriceText: "200"},
	}}
	gw := &mockGateway{
		offerIDs: []string{"A", "B", "C"},
		limits:   domain.BatchLimits{Stock: 2, Price: 10},
	}
	journal := &mockJournal{}

	svc := newTestService(feed, newMockCache(), journal, []Pair{pairFor(gw)})
	results, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	res := results[0]
	if res.State != domain.StateDone {
		t.Fatalf("state %s, want done (error kind %s)", res.State, res.ErrorKind)
	}
	// 3 stock updates at limit 2 -> 2 batches; 2 price updates -> 1 batch.
	if res.StockBatches != 2 || res.PriceBatches != 1 {
		t.Errorf("batch counts stock=%d price=%d, want 2/1", res.StockBatches, res.PriceBatches)
	}

	var pushed []string
	counts := map[string]int{}
	for _, b := range gw.stockBatches {
		for _, u := range b {
			pushed = append(pushed, u.OfferID)
			counts[u.OfferID] = u.Count
		}
	}
	if len(pushed) != 3 {
		t.Fatalf("expected 3 stock updates across batches, got %v", pushed)
	}
	if counts["A"] != 100 || counts["B"] != 0 || counts["C"] != 0 {
		t.Errorf("stock counts %v, want A:100 B:0 C:0", counts)
	}

	if len(gw.priceBatches) != 1 || len(gw.priceBatches[0]) != 2 {
		t.Fatalf("unexpected price batches: %v", gw.priceBatches)
	}

	if len(journal.runs) != 1 || len(journal.results) != 1 {
		t.Errorf("journal: %d runs, %d results", len(journal.runs), len(journal.results))
	}
}

func TestRun_FeedFailureFailsRun(t *testing.T) {
	feed := &mockFeed{err: domain.ErrTransportTimeout}
	gw := &mockGateway{offerIDs: []string{"A"}, limits: domain.BatchLimits{Stock: 1, Price: 1}}
	journal := &mockJournal{}

	svc := newTestService(feed, newMockCache(), journal, []Pair{pairFor(gw)})
	_, err := svc.Run(context.Background())
	if !errors.Is(err, domain.ErrTransportTimeout) {
		t.Fatalf("expected transport timeout, got %v", err)
	}
	if len(gw.stockBatches) != 0 {
		t.Error("nothing may be submitted without a snapshot")
	}

	// The run must not stay open in the journal: every pair is recorded as
	// aborted with the failure kind, and the run is finished.
	if len(journal.results) != 1 {
		t.Fatalf("journal results: %d, want 1", len(journal.results))
	}
	res := journal.results[0]
	if res.State != domain.StateAborted || res.ErrorKind != "transport_timeout" {
		t.Errorf("journaled result %+v, want aborted/transport_timeout", res)
	}
	if journal.finishes != 1 {
		t.Errorf("run finished %d times, want 1", journal.finishes)
	}
}

func TestRun_StableRunIDSkipsSubmittedBatches(t *testing.T) {
	feed := &mockFeed{records: []domain.SupplierRecord{
		{Code: "A", QuantityText: "2", PriceText: "100"},
		{Code: "B", QuantityText: "3", PriceText: "200"},
	}}
	cache := newMockCache()
	gw := &mockGateway{
		offerIDs: []string{"A", "B"},
		limits:   domain.BatchLimits{Stock: 1, Price: 10},
	}

	svc := NewSyncService(feed, cache, &mockJournal{}, []Pair{pairFor(gw)}, "run-stable", 0, zerolog.Nop())
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("first execution: %v", err)
	}
	if len(gw.stockBatches) != 2 || len(gw.priceBatches) != 1 {
		t.Fatalf("first execution pushed stock=%d price=%d", len(gw.stockBatches), len(gw.priceBatches))
	}

	// Re-executing the same run against the same cache must not push a
	// single batch again, yet still report every batch as completed.
	results, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("second execution: %v", err)
	}
	if len(gw.stockBatches) != 2 || len(gw.priceBatches) != 1 {
		t.Errorf("re-execution re-submitted batches: stock=%d price=%d, want 2/1",
			len(gw.stockBatches), len(gw.priceBatches))
	}
	res := results[0]
	if res.State != domain.StateDone || res.StockBatches != 2 || res.PriceBatches != 1 {
		t.Errorf("re-execution result %+v, want done with 2 stock and 1 price batch", res)
	}
}

func TestRun_EnumerationFailureAbortsBeforeSubmission(t *testing.T) {
	feed := &mockFeed{records: []domain.SupplierRecord{{Code: "A", QuantityText: "2", PriceText: "10"}}}
	gw := &mockGateway{listErr: domain.ErrTransportConnection, limits: domain.BatchLimits{Stock: 1, Price: 1}}

	svc := newTestService(feed, newMockCache(), &mockJournal{}, []Pair{pairFor(gw)})
	results, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	res := results[0]
	if res.State != domain.StateAborted || res.ErrorKind != "transport_connection" {
		t.Errorf("result %+v, want aborted/transport_connection", res)
	}
	if len(gw.stockBatches)+len(gw.priceBatches) != 0 {
		t.Error("nothing may be submitted after a failed enumeration")
	}
}

func TestRun_MalformedRecordAbortsBeforeSubmission(t *testing.T) {
	feed := &mockFeed{records: []domain.SupplierRecord{{Code: "A", QuantityText: "abc", PriceText: "10"}}}
	gw := &mockGateway{offerIDs: []string{"A"}, limits: domain.BatchLimits{Stock: 1, Price: 1}}

	svc := newTestService(feed, newMockCache(), &mockJournal{}, []Pair{pairFor(gw)})
	results, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	res := results[0]
	if res.State != domain.StateAborted || res.ErrorKind != "malformed_quantity" {
		t.Errorf("result %+v, want aborted/malformed_quantity", res)
	}
	if len(gw.stockBatches)+len(gw.priceBatches) != 0 {
		t.Error("fail-closed: no submission after a malformed record")
	}
}

func TestRun_StockFailureDoesNotBlockPrices(t *testing.T) {
	feed := &mockFeed{records: []domain.SupplierRecord{
		{Code: "A", QuantityText: "2", PriceText: "100"},
		{Code: "B", QuantityText: "3", PriceText: "200"},
	}}
	gw := &mockGateway{
		offerIDs:    []string{"A", "B"},
		limits:      domain.BatchLimits{Stock: 1, Price: 10},
		stockFailAt: 2,
	}

	svc := newTestService(feed, newMockCache(), &mockJournal{}, []Pair{pairFor(gw)})
	results, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected run error: %v", err)
	}

	res := results[0]
	if res.State != domain.StateAborted {
		t.Fatalf("state %s, want aborted", res.State)
	}
	// First stock batch stands, second failed, prices still went out.
	if res.StockBatches != 1 {
		t.Errorf("stock batches %d, want 1", res.StockBatches)
	}
	if res.PriceBatches != 1 || len(gw.priceBatches) != 1 {
		t.Errorf("price submission should have proceeded: %+v", res)
	}
	if len(gw.stockBatches) != 1 {
		t.Errorf("submitted stock batches %d, want 1 (no retry)", len(gw.stockBatches))
	}
}

func TestSubmitBatches_MarkedBatchIsSkipped(t *testing.T) {
	cache := newMockCache()
	cache.marked["sync:batch:run-1:test:c1:stock:0"] = true
	gw := &mockGateway{limits: domain.BatchLimits{Stock: 1, Price: 1}}

	updates := []domain.StockUpdate{{OfferID: "A", Count: 2}, {OfferID: "B", Count: 3}}
	done, err := submitBatches(context.Background(), zerolog.Nop(), cache, "run-1", pairFor(gw), "stock",
		updates, 1, gw.PushStockBatch)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if done != 2 {
		t.Errorf("done = %d, want 2 (skipped batch counts as completed)", done)
	}
	// Only the unmarked batch went over the wire.
	if len(gw.stockBatches) != 1 || gw.stockBatches[0][0].OfferID != "B" {
		t.Errorf("pushed batches %v, want only B", gw.stockBatches)
	}
}

func TestRun_BatchIdempotencyMark(t *testing.T) {
	feed := &mockFeed{records: []domain.SupplierRecord{{Code: "A", QuantityText: "2", PriceText: "100"}}}
	cache := newMockCache()
	gw := &mockGateway{offerIDs: []string{"A"}, limits: domain.BatchLimits{Stock: 1, Price: 1}}
	journal := &mockJournal{}

	svc := newTestService(feed, cache, journal, []Pair{pairFor(gw)})
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	// Every sent batch left an idempotency mark behind.
	if len(cache.marked) != 2 {
		t.Errorf("expected 2 batch marks (1 stock + 1 price), got %d", len(cache.marked))
	}
}

func TestRun_CacheFailureDegradesToSending(t *testing.T) {
	feed := &mockFeed{records: []domain.SupplierRecord{{Code: "A", QuantityText: "2", PriceText: "100"}}}
	cache := newMockCache()
	cache.markErr = errors.New("redis down")
	gw := &mockGateway{offerIDs: []string{"A"}, limits: domain.BatchLimits{Stock: 1, Price: 1}}

	svc := newTestService(feed, cache, &mockJournal{}, []Pair{pairFor(gw)})
	results, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if results[0].State != domain.StateDone {
		t.Errorf("a cache outage must not abort the pair: %+v", results[0])
	}
	if len(gw.stockBatches) != 1 || len(gw.priceBatches) != 1 {
		t.Errorf("batches should still be sent: stock=%d price=%d", len(gw.stockBatches), len(gw.priceBatches))
	}
}

func TestRun_PairsAreIsolated(t *testing.T) {
	feed := &mockFeed{records: []domain.SupplierRecord{{Code: "A", QuantityText: "2", PriceText: "100"}}}
	good := &mockGateway{offerIDs: []string{"A"}, limits: domain.BatchLimits{Stock: 1, Price: 1}}
	bad := &mockGateway{listErr: domain.ErrTransportTimeout, limits: domain.BatchLimits{Stock: 1, Price: 1}}

	pairs := []Pair{
		{Marketplace: "m1", Campaign: "good", Currency: "RUB", Catalog: good, Gateway: good},
		{Marketplace: "m2", Campaign: "bad", Currency: "RUR", Catalog: bad, Gateway: bad},
	}
	svc := newTestService(feed, newMockCache(), &mockJournal{}, pairs)
	results, err := svc.Run(context.Background())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	byCampaign := map[string]domain.PairResult{}
	for _, r := range results {
		byCampaign[r.Campaign] = r
	}
	if byCampaign["good"].State != domain.StateDone {
		t.Errorf("good pair: %+v", byCampaign["good"])
	}
	if byCampaign["bad"].State != domain.StateAborted || byCampaign["bad"].ErrorKind != "transport_timeout" {
		t.Errorf("bad pair: %+v", byCampaign["bad"])
	}
}

func TestRun_SnapshotFetchedOnce(t *testing.T) {
	feed := &mockFeed{records: []domain.SupplierRecord{{Code: "A", QuantityText: "2", PriceText: "100"}}}
	g1 := &mockGateway{offerIDs: []string{"A"}, limits: domain.BatchLimits{Stock: 1, Price: 1}}
	g2 := &mockGateway{offerIDs: []string{"A"}, limits: domain.BatchLimits{Stock: 1, Price: 1}}

	pairs := []Pair{
		{Marketplace: "m1", Campaign: "c1", Currency: "RUB", Catalog: g1, Gateway: g1},
		{Marketplace: "m2", Campaign: "c2", Currency: "RUR", Catalog: g2, Gateway: g2},
	}
	svc := newTestService(feed, newMockCache(), &mockJournal{}, pairs)
	if _, err := svc.Run(context.Background()); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if feed.calls != 1 {
		t.Errorf("feed fetched %d times, want once per run", feed.calls)
	}
}
