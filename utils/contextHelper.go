package utils

import (
	"context"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/appctx"
)


var (
	ContextKeyUsername      = appctx.ContextKeyUsername
	ContextKeyCorrelationId = appctx.ContextKeyCorrelationId
	ContextKeyReportName    = appctx.ContextKeyReportName
)

func GetUsernameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyUsername)
}

func GetCorrelationIdFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyCorrelationId)
}

func GetReportNameFromContext(ctx context.Context) (string, bool) {
	return appctx.GetString(ctx, ContextKeyReportName)
}

func SetUsernameInContext(ctx context.Context, username string) context.Context {
	return appctx.Set(ctx, ContextKeyUsername, username)
}

func SetCorrelationIdInContext(ctx context.Context, correlationId string) context.Context {
	return appctx.Set(ctx, ContextKeyCorrelationId, correlationId)
}

func SetReportNameInContext(ctx context.Context, name string) context.Context {
	return appctx.Set(ctx, ContextKeyReportName, name)
}
