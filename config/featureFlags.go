package config

import (
	"os"
	"strconv"
	"strings"
	"time"
)

// ReportCacheEnabled turns on the Redis workbook cache for dealer order reports.
//
// Set via env:
// - ENABLE_REPORT_CACHE=true
func ReportCacheEnabled() bool {
	return envBool("ENABLE_REPORT_CACHE")
}

// ReportCacheTTL is REPORT_CACHE_TTL_SECONDS (default 120s).
func ReportCacheTTL() time.Duration {
	ttl := 120
	if v := strings.TrimSpace(os.Getenv("REPORT_CACHE_TTL_SECONDS")); v != "" {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			ttl = n
		}
	}
	return time.Duration(ttl) * time.Second
}

// ReportSlowMs is REPORT_SLOW_MS (default 500ms).
func ReportSlowMs() int64 {
	ms := int64(500)
	if v := strings.TrimSpace(os.Getenv("REPORT_SLOW_MS")); v != "" {
		if n, err := strconv.ParseInt(v, 10, 64); err == nil && n > 0 {
			ms = n
		}
	}
	return ms
}

// UnresolvedProductPolicyName reads UNRESOLVED_PRODUCT_POLICY ("count" or "exclude").
// Values are lower-cased; empty means the report default.
func UnresolvedProductPolicyName() string {
	return strings.ToLower(strings.TrimSpace(os.Getenv("UNRESOLVED_PRODUCT_POLICY")))
}

func envBool(key string) bool {
	v := strings.ToLower(strings.TrimSpace(os.Getenv(key)))
	return v == "1" || v == "true" || v == "yes" || v == "y" || v == "on"
}
