package reports

import (
	"context"
	"errors"
	"fmt"
	"time"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/utils"
	"github.com/bsm/redislock"
	"github.com/sirupsen/logrus"
)

const (
	reportCachePrefix = "dealer-order-report:"
	reportLockTTL     = 30 * time.Second
)

// buildLockRetry waits up to ~2s for a concurrent build of the same workbook.
var buildLockRetry = redislock.LimitRetry(redislock.LinearBackoff(200*time.Millisecond), 10)

func logSlowReport(ctx context.Context, name string, started time.Time, extra map[string]any) {
	d := time.Since(started)
	if d.Milliseconds() < config.ReportSlowMs() {
		return
	}
	cid, _ := utils.GetCorrelationIdFromContext(ctx)
	user, _ := utils.GetUsernameFromContext(ctx)
	if reportName, ok := utils.GetReportNameFromContext(ctx); ok {
		name = reportName
	}
	config.GetLogger().WithFields(logrus.Fields{
		"report":         name,
		"username":       user,
		"ms":             d.Milliseconds(),
		"correlation_id": cid,
		"extra":          extra,
	}).Warn("slow report")
}

func workbookCacheKey(req DealerOrderReportRequest) string {
	from, to := req.dateBounds()
	mode := "day"
	if req.IsRange() {
		mode = "range"
	}
	return fmt.Sprintf("%s%s:%s:%s:%s:%s", reportCachePrefix, mode, req.variant(), from, to, config.UnresolvedProductPolicyName())
}

func cacheGetWorkbook(ctx context.Context, key string) ([]byte, bool) {
	if !config.ReportCacheEnabled() {
		return nil, false
	}
	buf, ok, err := config.GetRedisBytes(ctx, key)
	if err != nil {
		config.LogError(config.GetLogger(), "reportCache.go", "cacheGetWorkbook", "redis get", key, err)
		return nil, false
	}
	return buf, ok
}

func cacheSetWorkbook(ctx context.Context, key string, buf []byte) {
	if !config.ReportCacheEnabled() {
		return
	}
	if err := config.SetRedisBytes(ctx, key, buf, config.ReportCacheTTL()); err != nil {
		config.LogError(config.GetLogger(), "reportCache.go", "cacheSetWorkbook", "redis set", key, err)
	}
}

// obtainBuildLock is best-effort: a nil lock means the caller builds without one.
func obtainBuildLock(ctx context.Context, key string) *redislock.Lock {
	if !config.ReportCacheEnabled() {
		return nil
	}
	locker := config.GetRedisLock()
	logger := config.GetLogger()
	if locker == nil {
		return nil
	}
	lock, err := locker.Obtain(ctx, "lock:"+key, reportLockTTL, &redislock.Options{
		RetryStrategy: buildLockRetry,
	})
	if err != nil {
		fields := logrus.Fields{"field": "obtainBuildLock", "key": key}
		if errors.Is(err, redislock.ErrNotObtained) {
			logger.WithFields(fields).Warn("could not obtain report lock; building without it")
		} else {
			logger.WithFields(fields).Warn("error obtaining report lock; building without it: " + err.Error())
		}
		return nil
	}
	return lock
}

func releaseBuildLock(ctx context.Context, lock *redislock.Lock) {
	if lock == nil {
		return
	}
	if err := lock.Release(ctx); err != nil && !errors.Is(err, redislock.ErrLockNotHeld) {
		config.GetLogger().WithFields(logrus.Fields{"field": "releaseBuildLock"}).Warn("failed to release report lock: " + err.Error())
	}
}

// InvalidateDealerOrderWorkbook drops the cached workbook for the request, if any.
func InvalidateDealerOrderWorkbook(ctx context.Context, req DealerOrderReportRequest) error {
	if err := req.Validate(); err != nil {
		return err
	}
	if err := config.RemoveRedisKey(ctx, workbookCacheKey(req)); err != nil {
		config.LogError(config.GetLogger(), "reportCache.go", "InvalidateDealerOrderWorkbook", "redis del", req, err)
		return err
	}
	return nil
}
