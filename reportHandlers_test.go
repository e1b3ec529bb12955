package main

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"gorm.io/driver/mysql"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/middlewares"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/models/reports"
)

func newTestRouter(t *testing.T) (*gin.Engine, sqlmock.Sqlmock) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	t.Setenv("ENABLE_REPORT_CACHE", "false")
	t.Setenv("RATE_LIMIT_ENABLED", "false")
	t.Setenv("GO_ENV", "test")

	sqlDB, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	db, err := gorm.Open(mysql.New(mysql.Config{Conn: sqlDB, SkipInitializeWithVersion: true}), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		t.Fatalf("gorm.Open error: %v", err)
	}
	prev := config.GetDB()
	config.SetDB(db)
	t.Cleanup(func() {
		config.SetDB(prev)
		_ = sqlDB.Close()
	})
	return newRouter(config.GetLogger()), mock
}

func serve(r http.Handler, target string) *httptest.ResponseRecorder {
	w := httptest.NewRecorder()
	req := httptest.NewRequest(http.MethodGet, target, nil)
	r.ServeHTTP(w, req)
	return w
}

func TestHealthzAnswersWithoutDatabase(t *testing.T) {
	gin.SetMode(gin.TestMode)
	prev := config.GetDB()
	config.SetDB(nil)
	defer config.SetDB(prev)

	r := newRouter(config.GetLogger())
	if w := serve(r, "/healthz"); w.Code != http.StatusNoContent {
		t.Fatalf("expected 204 from /healthz, got %d", w.Code)
	}
	if w := serve(r, "/reports/dealer-orders.xlsx?date=2024-01-05"); w.Code != http.StatusServiceUnavailable {
		t.Fatalf("expected 503 before the database connects, got %d", w.Code)
	}
}

func TestDealerOrderWorkbookHandler_RejectsBadRequest(t *testing.T) {
	r, mock := newTestRouter(t)

	for _, target := range []string{
		"/reports/dealer-orders.xlsx",
		"/reports/dealer-orders.xlsx?date=2024-13-40",
		"/reports/dealer-orders.xlsx?from=2024-02-01&to=2024-01-01",
		"/reports/dealer-orders.xlsx?date=2024-01-05&variant=wholesale",
	} {
		w := serve(r, target)
		if w.Code != http.StatusBadRequest {
			t.Fatalf("%s: expected 400, got %d (%s)", target, w.Code, w.Body.String())
		}
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("no query expected: %v", err)
	}
}

func TestDealerOrderWorkbookHandler_StreamsWorkbook(t *testing.T) {
	r, mock := newTestRouter(t)
	mock.ExpectQuery(`(?s)FROM\s+orders o`).WillReturnRows(sqlmock.NewRows([]string{"order_id"}))
	mock.ExpectQuery("(?s)FROM `products`").WillReturnRows(sqlmock.NewRows([]string{
		"product_code", "product_name", "application_name", "unit_tp", "status",
	}).AddRow("H1", "Grassfree", "Herbicide", "120.5", "A"))

	w := serve(r, "/reports/dealer-orders.xlsx?date=2024-01-05")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	if ct := w.Header().Get("Content-Type"); ct != reports.WorkbookContentType {
		t.Fatalf("unexpected content type %q", ct)
	}
	if cd := w.Header().Get("Content-Disposition"); !strings.Contains(cd, "Invoice_2024-01-05.xlsx") {
		t.Fatalf("unexpected content disposition %q", cd)
	}
	// xlsx files are zip archives
	if !strings.HasPrefix(w.Body.String(), "PK") {
		t.Fatalf("expected a zip payload")
	}
	if w.Header().Get(middlewares.CorrelationIdHeader) == "" {
		t.Fatalf("expected a correlation id header")
	}
	if err := mock.ExpectationsWereMet(); err != nil {
		t.Fatalf("unmet expectations: %v", err)
	}
}

func TestDealerOrderSummaryHandler_ReturnsDealers(t *testing.T) {
	r, mock := newTestRouter(t)
	day := time.Date(2024, 1, 5, 0, 0, 0, 0, time.UTC)
	mock.ExpectQuery(`(?s)FROM\s+orders o`).WillReturnRows(sqlmock.NewRows([]string{
		"order_id", "order_type", "dealer_id", "dealer_name", "dealer_territory", "dealer_address",
		"dealer_contact", "warehouse_name", "warehouse_alias", "transport_name", "order_date",
	}).AddRow(1, "Daily", 1, "D1", "Dhaka", "Road 1", "Karim", "Central", nil, nil, day))
	mock.ExpectQuery(`(?s)FROM\s+order_items oi`).WillReturnRows(sqlmock.NewRows([]string{
		"order_id", "product_id", "product_code", "product_name", "quantity", "unit_tp", "unit_trade_price", "mrp",
	}).AddRow(1, 1, "P1", "Product One", 5, "100", nil, nil))

	w := serve(r, "/reports/dealer-orders/summary?from=2024-01-01&to=2024-01-10")
	if w.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d (%s)", w.Code, w.Body.String())
	}
	body := w.Body.String()
	if !strings.Contains(body, `"dealer_name":"D1"`) || !strings.Contains(body, `"total_quantity":5`) {
		t.Fatalf("unexpected summary body %s", body)
	}
}

func TestUnknownRouteIsNotFound(t *testing.T) {
	r, _ := newTestRouter(t)
	if w := serve(r, "/nope"); w.Code != http.StatusNotFound {
		t.Fatalf("expected 404, got %d", w.Code)
	}
}

func TestSplitAndTrim(t *testing.T) {
	got := splitAndTrim(" https://a.example, ,https://b.example ")
	if len(got) != 2 || got[0] != "https://a.example" || got[1] != "https://b.example" {
		t.Fatalf("unexpected origins %v", got)
	}
	if splitAndTrim("  ") != nil {
		t.Fatalf("expected nil for blank input")
	}
}
