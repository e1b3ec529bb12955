package middlewares

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/alicebob/miniredis/v2"
	"github.com/gin-gonic/gin"
	"github.com/redis/go-redis/v9"
	"gorm.io/gorm"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/utils"
)

func newTestRedis(t *testing.T) (*miniredis.Miniredis, *redis.Client) {
	t.Helper()
	mr := miniredis.RunT(t)
	client := redis.NewClient(&redis.Options{Addr: mr.Addr()})
	prev := config.GetRedisDB()
	config.SetRedisDB(client)
	t.Cleanup(func() {
		config.SetRedisDB(prev)
		_ = client.Close()
	})
	return mr, client
}

// newTestEngine mounts /whoami, which echoes the username and correlation id the middlewares put on the request context.
func newTestEngine(mw ...gin.HandlerFunc) *gin.Engine {
	gin.SetMode(gin.TestMode)
	r := gin.New()
	r.Use(mw...)
	r.GET("/whoami", func(c *gin.Context) {
		user, _ := utils.GetUsernameFromContext(c.Request.Context())
		cid, _ := utils.GetCorrelationIdFromContext(c.Request.Context())
		c.JSON(http.StatusOK, gin.H{"username": user, "correlation_id": cid})
	})
	return r
}

func doGet(r http.Handler, headers map[string]string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, "/whoami", nil)
	for k, v := range headers {
		req.Header.Set(k, v)
	}
	r.ServeHTTP(w, req)
	return w
}

func TestRateLimiter_RejectsAfterLimit(t *testing.T) {
	mr, client := newTestRedis(t)
	r := newTestEngine(NewRateLimiter(client, 2, time.Minute).Middleware())

	for i := 1; i <= 2; i++ {
		if w := doGet(r, nil); w.Code != http.StatusOK {
			t.Fatalf("request %d: expected 200, got %d", i, w.Code)
		}
	}
	if w := doGet(r, nil); w.Code != http.StatusTooManyRequests {
		t.Fatalf("expected 429 once the window is used up, got %d", w.Code)
	}

	mr.FastForward(time.Minute + time.Second)
	if w := doGet(r, nil); w.Code != http.StatusOK {
		t.Fatalf("expected a fresh window to allow requests, got %d", w.Code)
	}
}

func TestRateLimiter_SetsWindowExpiry(t *testing.T) {
	mr, client := newTestRedis(t)
	r := newTestEngine(NewRateLimiter(client, 5, 30*time.Second).Middleware())
	doGet(r, nil)

	keys := mr.Keys()
	if len(keys) != 1 {
		t.Fatalf("expected one counter key, got %v", keys)
	}
	if ttl := mr.TTL(keys[0]); ttl != 30*time.Second {
		t.Fatalf("expected a 30s window, got %s", ttl)
	}
}

func TestSessionMiddleware(t *testing.T) {
	mr, _ := newTestRedis(t)
	if err := mr.Set(sessionKeyPrefix+"good-token", "operator"); err != nil {
		t.Fatalf("Set error: %v", err)
	}
	r := newTestEngine(SessionMiddleware())

	cases := []struct {
		name     string
		headers  map[string]string
		code     int
		username string
	}{
		{"anonymous passes through", nil, http.StatusOK, ""},
		{"known token", map[string]string{"token": "good-token"}, http.StatusOK, "operator"},
		{"unknown token", map[string]string{"token": "nope"}, http.StatusUnauthorized, ""},
	}
	for _, tc := range cases {
		w := doGet(r, tc.headers)
		if w.Code != tc.code {
			t.Fatalf("%s: expected %d, got %d", tc.name, tc.code, w.Code)
		}
		if tc.code == http.StatusOK {
			want := `"username":"` + tc.username + `"`
			if !strings.Contains(w.Body.String(), want) {
				t.Fatalf("%s: expected %s in %s", tc.name, want, w.Body.String())
			}
		}
	}
}

func TestSessionMiddleware_RejectsTokenWithoutRedis(t *testing.T) {
	prev := config.GetRedisDB()
	config.SetRedisDB(nil)
	defer config.SetRedisDB(prev)

	r := newTestEngine(SessionMiddleware())
	if w := doGet(r, map[string]string{"token": "any"}); w.Code != http.StatusUnauthorized {
		t.Fatalf("expected 401 when sessions cannot be resolved, got %d", w.Code)
	}
}

func TestCorrelationMiddleware(t *testing.T) {
	r := newTestEngine(CorrelationMiddleware())

	w := doGet(r, map[string]string{CorrelationIdHeader: "abc-123"})
	if w.Header().Get(CorrelationIdHeader) != "abc-123" || !strings.Contains(w.Body.String(), `"correlation_id":"abc-123"`) {
		t.Fatalf("expected the inbound correlation id to be kept, got %q", w.Header().Get(CorrelationIdHeader))
	}

	w = doGet(r, nil)
	if len(w.Header().Get(CorrelationIdHeader)) != 36 {
		t.Fatalf("expected a generated uuid, got %q", w.Header().Get(CorrelationIdHeader))
	}
}

func TestReadinessMiddleware(t *testing.T) {
	prevDB := config.GetDB()
	prevRedis := config.GetRedisDB()
	t.Cleanup(func() {
		config.SetDB(prevDB)
		config.SetRedisDB(prevRedis)
	})
	r := newTestEngine(ReadinessMiddleware())

	config.SetDB(nil)
	t.Setenv("ENABLE_REPORT_CACHE", "false")
	if w := doGet(r, nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 without a database, got %d", w.Code)
	}

	config.SetDB(&gorm.DB{})
	if w := doGet(r, nil); w.Code != http.StatusOK {
		t.Fatalf("expected 200 once the database is set, got %d", w.Code)
	}

	t.Setenv("ENABLE_REPORT_CACHE", "true")
	config.SetRedisDB(nil)
	if w := doGet(r, nil); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 while the cache is on and Redis is missing, got %d", w.Code)
	}
}
