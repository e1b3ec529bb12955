package reports

import (
	"context"
	"fmt"
	"strings"
	"time"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/models"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/utils"
	"github.com/go-playground/validator/v10"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
)

const WorkbookContentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"

var (
	validate = validator.New()
	tracer   = otel.Tracer("dealer-order-reports")
)

// DealerOrderReportRequest selects a single day (Date) or an inclusive range (FromDate, ToDate).
type DealerOrderReportRequest struct {
	Date     string        `form:"date" json:"date" validate:"omitempty,datetime=2006-01-02"`
	FromDate string        `form:"from" json:"from" validate:"omitempty,datetime=2006-01-02"`
	ToDate   string        `form:"to" json:"to" validate:"omitempty,datetime=2006-01-02"`
	Variant  ReportVariant `form:"variant" json:"variant" validate:"omitempty,oneof=priced price_free"`
}

func (req DealerOrderReportRequest) IsRange() bool {
	return req.Date == "" && req.FromDate != ""
}

func (req DealerOrderReportRequest) variant() ReportVariant {
	if req.Variant == "" {
		return VariantPriced
	}
	return req.Variant
}

func (req DealerOrderReportRequest) dateBounds() (string, string) {
	if req.IsRange() {
		return req.FromDate, req.ToDate
	}
	return req.Date, req.Date
}

// DateLabel is "2024-01-05" for a day and "2024-01-01 to 2024-01-10" for a range.
func (req DealerOrderReportRequest) DateLabel() string {
	from, to := req.dateBounds()
	if from == to {
		return from
	}
	return from + " to " + to
}

func (req *DealerOrderReportRequest) Validate() error {
	req.Date = strings.TrimSpace(req.Date)
	req.FromDate = strings.TrimSpace(req.FromDate)
	req.ToDate = strings.TrimSpace(req.ToDate)
	req.Variant = ReportVariant(strings.ToLower(strings.TrimSpace(string(req.Variant))))

	if err := validate.Struct(req); err != nil {
		return fmt.Errorf("%w: %v", utils.ErrInvalidReportRequest, utils.ProcessValidationErrors(err))
	}
	if req.Date != "" && (req.FromDate != "" || req.ToDate != "") {
		return fmt.Errorf("%w: date cannot be combined with from/to", utils.ErrInvalidReportRequest)
	}
	if req.Date == "" {
		if req.FromDate == "" || req.ToDate == "" {
			return fmt.Errorf("%w: date or from and to are required", utils.ErrInvalidReportRequest)
		}
		// ISO dates compare lexicographically
		if req.FromDate > req.ToDate {
			return fmt.Errorf("%w: from is after to", utils.ErrInvalidReportRequest)
		}
	}
	return nil
}

type DealerOrderWorkbook struct {
	Filename    string
	ContentType string
	Content     []byte
}

func workbookFilename(req DealerOrderReportRequest) string {
	from, to := req.dateBounds()
	name := "Invoice_" + from
	if from != to {
		name += "_to_" + to
	}
	if req.variant() == VariantPriceFree {
		name += "_TSO"
	}
	return name + ".xlsx"
}

// GetDealerOrderWorkbook reads the orders and catalog for the request and builds the workbook.
func GetDealerOrderWorkbook(ctx context.Context, req DealerOrderReportRequest) (*DealerOrderWorkbook, error) {
	if err := req.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()
	variant := req.variant()
	from, to := req.dateBounds()

	ctx, span := tracer.Start(ctx, "reports.GetDealerOrderWorkbook")
	defer span.End()
	span.SetAttributes(
		attribute.String("report.variant", string(variant)),
		attribute.String("report.from", from),
		attribute.String("report.to", to),
	)
	ctx = utils.SetReportNameInContext(ctx, "dealer_order_workbook")

	result := &DealerOrderWorkbook{
		Filename:    workbookFilename(req),
		ContentType: WorkbookContentType,
	}

	cacheKey := workbookCacheKey(req)
	if buf, ok := cacheGetWorkbook(ctx, cacheKey); ok {
		result.Content = buf
		return result, nil
	}
	lock := obtainBuildLock(ctx, cacheKey)
	defer releaseBuildLock(ctx, lock)
	if lock != nil {
		// another request may have filled the cache while we waited
		if buf, ok := cacheGetWorkbook(ctx, cacheKey); ok {
			result.Content = buf
			return result, nil
		}
	}

	var orders []models.Order
	var err error
	if req.IsRange() {
		orders, err = models.GetOrdersByDateRange(ctx, from, to)
	} else {
		orders, err = models.GetOrdersByDate(ctx, req.Date)
	}
	if err != nil {
		span.RecordError(err)
		config.LogError(config.GetLogger(), "dealerOrderReport.go", "GetDealerOrderWorkbook", "read orders", req, err)
		return nil, err
	}

	var rows []RenderRow
	if req.IsRange() {
		rows = AggregateRange(orders, req.DateLabel(), variant)
	} else {
		rows = AggregateSingleDay(orders)
	}

	idx, err := LoadCatalogIndex(ctx, variant, models.OrderedProductCodes(orders))
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	opts := WorkbookOptions{
		DateLabel:        req.DateLabel(),
		UnresolvedPolicy: ParseUnresolvedProductPolicy(config.UnresolvedProductPolicyName()),
	}
	if !req.IsRange() {
		opts.Date = req.Date
	}

	var buf []byte
	if variant == VariantPriceFree {
		buf, err = BuildPriceFreeWorkbook(rows, idx, opts)
	} else {
		buf, err = BuildPricedWorkbook(rows, idx, opts)
	}
	if err != nil {
		span.RecordError(err)
		return nil, err
	}

	cacheSetWorkbook(ctx, cacheKey, buf)
	logSlowReport(ctx, "dealer_order_workbook", started, map[string]any{
		"variant": variant,
		"from":    from,
		"to":      to,
		"orders":  len(orders),
		"rows":    len(rows),
	})
	result.Content = buf
	return result, nil
}

// GetDealerOrderRangeSummary returns one summary per dealer for the inclusive date range.
func GetDealerOrderRangeSummary(ctx context.Context, fromDate string, toDate string, variant ReportVariant) ([]DealerSummaryView, error) {
	req := DealerOrderReportRequest{FromDate: fromDate, ToDate: toDate, Variant: variant}
	if err := req.Validate(); err != nil {
		return nil, err
	}
	started := time.Now()

	ctx, span := tracer.Start(ctx, "reports.GetDealerOrderRangeSummary")
	defer span.End()

	orders, err := models.GetOrdersByDateRange(ctx, req.FromDate, req.ToDate)
	if err != nil {
		span.RecordError(err)
		config.LogError(config.GetLogger(), "dealerOrderReport.go", "GetDealerOrderRangeSummary", "read orders", req, err)
		return nil, err
	}

	summaries := SortedDealerSummaries(FoldDealerSummaries(orders, req.variant()))
	views := make([]DealerSummaryView, 0, len(summaries))
	for _, s := range summaries {
		views = append(views, s.View())
	}
	logSlowReport(ctx, "dealer_order_range_summary", started, map[string]any{"from": req.FromDate, "to": req.ToDate, "dealers": len(views)})
	return views, nil
}
