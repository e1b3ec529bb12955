package main

import (
	"errors"
	"fmt"
	"net/http"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/models/reports"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/utils"
	"github.com/gin-gonic/gin"
)

func reportErrorStatus(err error) int {
	if errors.Is(err, utils.ErrInvalidReportRequest) {
		return http.StatusBadRequest
	}
	return http.StatusInternalServerError
}

// dealerOrderWorkbookHandler serves GET /reports/dealer-orders.xlsx?date= or ?from=&to=, optional variant.
func dealerOrderWorkbookHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reports.DealerOrderReportRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": utils.ProcessValidationErrors(err)})
			return
		}

		wb, err := reports.GetDealerOrderWorkbook(c.Request.Context(), req)
		if err != nil {
			_ = c.Error(err)
			c.JSON(reportErrorStatus(err), gin.H{"error": err.Error()})
			return
		}

		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=%q", wb.Filename))
		c.Data(http.StatusOK, wb.ContentType, wb.Content)
	}
}

// dealerOrderSummaryHandler serves GET /reports/dealer-orders/summary?from=&to=, optional variant.
func dealerOrderSummaryHandler() gin.HandlerFunc {
	return func(c *gin.Context) {
		var req reports.DealerOrderReportRequest
		if err := c.ShouldBindQuery(&req); err != nil {
			c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request", "details": utils.ProcessValidationErrors(err)})
			return
		}

		summaries, err := reports.GetDealerOrderRangeSummary(c.Request.Context(), req.FromDate, req.ToDate, req.Variant)
		if err != nil {
			_ = c.Error(err)
			c.JSON(reportErrorStatus(err), gin.H{"error": err.Error()})
			return
		}
		c.JSON(http.StatusOK, gin.H{"dealers": summaries})
	}
}

func registerReportRoutes(r gin.IRoutes) {
	r.GET("/reports/dealer-orders.xlsx", dealerOrderWorkbookHandler())
	r.GET("/reports/dealer-orders/summary", dealerOrderSummaryHandler())
}
