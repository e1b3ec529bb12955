package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/models/reports"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/utils"
)

func main() {
	date := flag.String("date", "", "Single-day report date (YYYY-MM-DD).")
	from := flag.String("from", "", "Range start date (YYYY-MM-DD). Use with -to instead of -date.")
	to := flag.String("to", "", "Range end date (YYYY-MM-DD), inclusive.")
	variant := flag.String("variant", string(reports.VariantPriced), "Report variant: priced or price_free.")
	out := flag.String("out", "", "Output path or directory. Defaults to the generated filename in the current directory.")
	refresh := flag.Bool("refresh", false, "Drop any cached copy before building (needs ENABLE_REPORT_CACHE).")
	summary := flag.Bool("summary", false, "Print the per-dealer range summary instead of writing a workbook (needs -from/-to).")
	flag.Parse()

	if !reports.ReportVariant(strings.ToLower(*variant)).IsValid() {
		fmt.Fprintf(os.Stderr, "unknown variant %q (want priced or price_free)\n", *variant)
		os.Exit(2)
	}

	ctx := utils.SetUsernameInContext(context.Background(), "DealerOrderReportCLI")

	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	if config.ReportCacheEnabled() {
		config.ConnectRedisWithRetry()
	}

	if *summary {
		views, err := reports.GetDealerOrderRangeSummary(ctx, *from, *to, reports.ReportVariant(*variant))
		if err != nil {
			fmt.Fprintf(os.Stderr, "failed to build summary: %v\n", err)
			os.Exit(1)
		}
		for _, v := range views {
			value := "-"
			if v.TotalValue != nil {
				value = v.TotalValue.StringFixed(2)
			}
			fmt.Printf("%s\t%s\torders=%d\tqty=%d\tvalue=%s\tdates=%s\ttransport=%s\n",
				v.DealerKey, v.DealerName, v.OrderCount, v.TotalQuantity, value, v.DateSpan, v.Transport)
		}
		return
	}

	req := reports.DealerOrderReportRequest{
		Date:     *date,
		FromDate: *from,
		ToDate:   *to,
		Variant:  reports.ReportVariant(*variant),
	}
	if *refresh {
		if err := reports.InvalidateDealerOrderWorkbook(ctx, req); err != nil {
			fmt.Fprintf(os.Stderr, "failed to drop cached workbook: %v\n", err)
			os.Exit(1)
		}
	}
	wb, err := reports.GetDealerOrderWorkbook(ctx, req)
	if err != nil {
		fmt.Fprintf(os.Stderr, "failed to build workbook: %v\n", err)
		os.Exit(1)
	}

	path := wb.Filename
	if target := strings.TrimSpace(*out); target != "" {
		path = target
		if info, statErr := os.Stat(target); statErr == nil && info.IsDir() {
			path = filepath.Join(target, wb.Filename)
		}
	}
	if err := os.WriteFile(path, wb.Content, 0o644); err != nil {
		fmt.Fprintf(os.Stderr, "failed to write %s: %v\n", path, err)
		os.Exit(1)
	}
	fmt.Printf("Wrote %s (%d bytes)\n", path, len(wb.Content))
}
