package reports

import (
	"bytes"
	"context"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/alicebob/miniredis/v2"
	"github.com/bsm/redislock"
	"github.com/redis/go-redis/v9"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
)

// newTestRedis points the global Redis client at an in-memory server and turns the cache on.
func newTestRedis(t *testing.T) *miniredis.Miniredis {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	prev := config.GetRedisDB()
	config.SetRedisDB(client)
	t.Setenv("ENABLE_REPORT_CACHE", "true")
	t.Cleanup(func() {
		config.SetRedisDB(prev)
		_ = client.Close()
	})
	return mr
}

var emptyRangeRequest = DealerOrderReportRequest{FromDate: "2024-01-01", ToDate: "2024-01-10", Variant: VariantPriceFree}

func TestGetDealerOrderWorkbook_ServesSecondRequestFromCache(t *testing.T) {
	mock := newMockDB(t)
	mr := newTestRedis(t)
	mock.ExpectQuery(headersQuery).WillReturnRows(sqlmock.NewRows(headerColumns))

	first, err := GetDealerOrderWorkbook(context.Background(), emptyRangeRequest)
	if err != nil {
		t.Fatalf("first build error: %v", err)
	}
	if !mr.Exists(workbookCacheKey(emptyRangeRequest)) {
		t.Fatalf("expected the workbook to be cached")
	}

	second, err := GetDealerOrderWorkbook(context.Background(), emptyRangeRequest)
	if err != nil {
		t.Fatalf("cached read error: %v", err)
	}
	if !bytes.Equal(first.Content, second.Content) || second.Filename != first.Filename {
		t.Fatalf("cached workbook differs from the built one")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected a single database read: %v", err)
	}
	if ttl := mr.TTL(workbookCacheKey(emptyRangeRequest)); ttl != config.ReportCacheTTL() {
		t.Fatalf("expected cache ttl %s, got %s", config.ReportCacheTTL(), ttl)
	}
}

func TestGetDealerOrderWorkbook_ConcurrentRequestsBuildOnce(t *testing.T) {
	mock := newMockDB(t)
	newTestRedis(t)
	mock.ExpectQuery(headersQuery).WillReturnRows(sqlmock.NewRows(headerColumns))

	var wg sync.WaitGroup
	results := make([][]byte, 2)
	errs := make([]error, 2)
	for i := range results {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			wb, err := GetDealerOrderWorkbook(context.Background(), emptyRangeRequest)
			errs[i] = err
			if wb != nil {
				results[i] = wb.Content
			}
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		if err != nil {
			t.Fatalf("request %d error: %v", i, err)
		}
	}
	if !bytes.Equal(results[0], results[1]) {
		t.Fatalf("both requests must receive the same workbook")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("expected exactly one build: %v", err)
	}
}

func TestGetDealerOrderWorkbook_BuildsWhenLockIsHeld(t *testing.T) {
	mock := newMockDB(t)
	newTestRedis(t)
	prevRetry := buildLockRetry
	buildLockRetry = redislock.NoRetry()
	t.Cleanup(func() { buildLockRetry = prevRetry })

	ctx := context.Background()
	held, err := config.GetRedisLock().Obtain(ctx, "lock:"+workbookCacheKey(emptyRangeRequest), time.Minute, nil)
	if err != nil {
		t.Fatalf("Obtain error: %v", err)
	}
	defer held.Release(ctx)

	mock.ExpectQuery(headersQuery).WillReturnRows(sqlmock.NewRows(headerColumns))
	wb, err := GetDealerOrderWorkbook(ctx, emptyRangeRequest)
	if err != nil {
		t.Fatalf("expected a build without the lock, got %v", err)
	}
	if len(wb.Content) == 0 {
		t.Fatalf("expected workbook bytes")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestGetDealerOrderWorkbook_BuildsWhenRedisIsDown(t *testing.T) {
	mock := newMockDB(t)
	mr := newTestRedis(t)
	mr.Close()

	mock.ExpectQuery(headersQuery).WillReturnRows(sqlmock.NewRows(headerColumns))
	wb, err := GetDealerOrderWorkbook(context.Background(), emptyRangeRequest)
	if err != nil {
		t.Fatalf("expected a build with Redis unreachable, got %v", err)
	}
	if len(wb.Content) == 0 {
		t.Fatalf("expected workbook bytes")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestInvalidateDealerOrderWorkbook(t *testing.T) {
	mr := newTestRedis(t)
	key := workbookCacheKey(emptyRangeRequest)
	if err := mr.Set(key, "stale"); err != nil {
		t.Fatalf("Set error: %v", err)
	}

	if err := InvalidateDealerOrderWorkbook(context.Background(), emptyRangeRequest); err != nil {
		t.Fatalf("InvalidateDealerOrderWorkbook error: %v", err)
	}
	if mr.Exists(key) {
		t.Fatalf("expected the cached workbook to be removed")
	}
}

func TestWorkbookCacheKey_SeparatesVariantsAndRanges(t *testing.T) {
	keys := map[string]bool{}
	for _, req := range []DealerOrderReportRequest{
		{Date: "2024-01-05"},
		{Date: "2024-01-05", Variant: VariantPriceFree},
		{FromDate: "2024-01-05", ToDate: "2024-01-05"},
		{FromDate: "2024-01-05", ToDate: "2024-01-06"},
	} {
		keys[workbookCacheKey(req)] = true
	}
	if len(keys) != 4 {
		t.Fatalf("expected distinct cache keys, got %v", keys)
	}
}
