package reports

import (
	"math"
	"strconv"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	// excelize widths render narrower than the desktop widths the tables were measured in
	columnWidthOffset = 0.78
	transportWidth    = 18.11
	minColumnWidth    = 3.5
	maxColumnWidth    = 30.0
	contentPadding    = 0.05

	wrapFromColumn = 6
	wrapAfterChars = 20

	TransportColumnKey = "transport"

	pricedTableColumns    = 100
	priceFreeTableColumns = 26
)

// WidthTable maps column letters to a desired width before offset.
type WidthTable map[string]float64

var (
	pricedWidthTable    = buildWidthTable(pricedTableColumns, 9.71)
	priceFreeWidthTable = buildWidthTable(priceFreeTableColumns, 7.29)
)

func buildWidthTable(columns int, productWidth float64) WidthTable {
	table := WidthTable{
		"A": 5.57,
		"B": 12.71,
		"C": 27.43,
		"D": 29.86,
		"E": 22.14,
	}
	for col := FixedColumnCount + 1; col <= columns; col++ {
		letter, _ := excelize.ColumnNumberToName(col)
		table[letter] = productWidth
	}
	return table
}

// WidthTableFor returns the static desired-width table of a report variant.
func WidthTableFor(variant ReportVariant) WidthTable {
	if variant == VariantPriceFree {
		return priceFreeWidthTable
	}
	return pricedWidthTable
}

// WidthFor picks a column width: table entry first, then the fixed transport width,
// then the longest trimmed content clamped to [3.5, 30].
func WidthFor(table WidthTable, columnLetter string, columnKey string, headerText string, values []interface{}) float64 {
	if w, ok := table[columnLetter]; ok {
		return w + columnWidthOffset
	}
	if columnKey == TransportColumnKey {
		return transportWidth + columnWidthOffset
	}

	maxLength := utf8.RuneCountInString(strings.TrimSpace(headerText))
	for _, v := range values {
		text := strings.TrimSpace(cellText(v))
		if text == "" {
			continue
		}
		if n := utf8.RuneCountInString(text); n > maxLength {
			maxLength = n
		}
	}
	return math.Min(math.Max(float64(maxLength)+contentPadding, minColumnWidth), maxColumnWidth)
}

// ShouldWrap enables word-wrap for long text from column F (6) onward.
func ShouldWrap(colIndex int, value interface{}) bool {
	if colIndex < wrapFromColumn {
		return false
	}
	return utf8.RuneCountInString(strings.TrimSpace(cellText(value))) > wrapAfterChars
}

// cellText renders a cell value the way it reads in the sheet.
func cellText(v interface{}) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	case decimal.Decimal:
		return t.String()
	case time.Time:
		return t.Format("2006-01-02")
	case bool:
		return strconv.FormatBool(t)
	default:
		return ""
	}
}
