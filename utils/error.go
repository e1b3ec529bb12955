package utils

import "errors"

// ErrInvalidReportRequest marks caller mistakes (bad dates, unknown variant) as opposed to read failures.
var ErrInvalidReportRequest = errors.New("invalid report request")
