package reports

import (
	"sort"
	"strings"
	"unicode/utf8"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/utils"
	"github.com/shopspring/decimal"
	"github.com/xuri/excelize/v2"
)

const (
	DateLabelText       = "Date:"
	TotalLabel          = "Total"
	UnlistedApplication = "Unlisted"
	NoOrdersDealerName  = "No Orders"
	NoOrdersAddress     = "No Orders Found"
	DefaultSheetTitle   = "Invoice Report"

	dateRow          = 1
	summaryHeaderRow = 2
	maxSheetTitleLen = 31
)

var (
	pricedSummaryHeaders    = []string{"Seg", "Qty", "Invoice Value"}
	priceFreeSummaryHeaders = []string{"Seg", "Qty"}
)

// UnresolvedProductPolicy decides what happens to ordered codes that have no catalog column.
type UnresolvedProductPolicy string

const (
	// UnresolvedCountInTotals omits the code from columns but keeps it in the summary totals.
	UnresolvedCountInTotals UnresolvedProductPolicy = "count"
	// UnresolvedExclude drops the code from columns and totals.
	UnresolvedExclude UnresolvedProductPolicy = "exclude"
)

func ParseUnresolvedProductPolicy(s string) UnresolvedProductPolicy {
	if UnresolvedProductPolicy(strings.ToLower(strings.TrimSpace(s))) == UnresolvedExclude {
		return UnresolvedExclude
	}
	return UnresolvedCountInTotals
}

type WorkbookOptions struct {
	Date             string
	DateLabel        string
	SheetTitle       string
	UnresolvedPolicy UnresolvedProductPolicy
}

type ApplicationTotal struct {
	Application string          `json:"application"`
	Qty         int             `json:"qty"`
	Value       decimal.Decimal `json:"value"`
}

// ApplicationTotals is the summary block: Σ Rows[*].Qty == GrandQty always holds.
type ApplicationTotals struct {
	Rows       []ApplicationTotal
	GrandQty   int
	GrandValue decimal.Decimal
}

// ComputeApplicationTotals rolls item quantities and values up per application, in catalog order.
// Codes missing from the index land in an Unlisted row unless the policy excludes them.
func ComputeApplicationTotals(rows []RenderRow, idx *CatalogIndex, policy UnresolvedProductPolicy) ApplicationTotals {
	if idx == nil {
		idx = emptyCatalogIndex()
	}
	byApp := make(map[string]*ApplicationTotal, len(idx.ApplicationNames))
	for _, app := range idx.ApplicationNames {
		byApp[app] = &ApplicationTotal{Application: app, Value: decimal.Zero}
	}
	unlisted := &ApplicationTotal{Application: UnlistedApplication, Value: decimal.Zero}
	hasUnlisted := false

	totals := ApplicationTotals{GrandValue: decimal.Zero}
	for _, row := range rows {
		for _, item := range row.Items {
			qty := item.Quantity
			if qty < 0 {
				qty = 0
			}
			value := item.ResolvedUnitTp().Mul(decimal.NewFromInt(int64(qty)))

			target := unlisted
			if info, ok := idx.ProductInfo[item.ProductCode]; ok {
				target = byApp[info.Application]
			} else if policy == UnresolvedExclude {
				continue
			} else {
				hasUnlisted = true
			}
			target.Qty += qty
			target.Value = target.Value.Add(value)
			totals.GrandQty += qty
			totals.GrandValue = totals.GrandValue.Add(value)
		}
	}

	for _, app := range idx.ApplicationNames {
		totals.Rows = append(totals.Rows, *byApp[app])
	}
	if hasUnlisted {
		totals.Rows = append(totals.Rows, *unlisted)
	}
	return totals
}

type GridCell struct {
	Row   int
	Col   int
	Value interface{}
	Style CellStyle
}

type ColumnWidth struct {
	Col    int
	Letter string
	Width  float64
}

type FreezePanes struct {
	XSplit      int
	YSplit      int
	TopLeftCell string
}

// Grid is a fully laid-out worksheet, independent of excelize.
type Grid struct {
	Variant        ReportVariant
	SheetTitle     string
	Plan           *ColumnPlan
	Totals         ApplicationTotals
	TotalRow       int
	HeaderRowIndex int
	DataStartRow   int
	DataRowCount   int
	Merges         []MergeRange
	Widths         []ColumnWidth
	Panes          FreezePanes

	cells []GridCell
	index map[[2]int]int
}

func newGrid(variant ReportVariant, title string, plan *ColumnPlan) *Grid {
	return &Grid{
		Variant:    variant,
		SheetTitle: title,
		Plan:       plan,
		index:      make(map[[2]int]int),
	}
}

// set writes a cell; long text from column F onward is wrapped.
func (g *Grid) set(row, col int, value interface{}, style CellStyle) {
	if !style.IsZero() && ShouldWrap(col, value) {
		style = style.WithWrap()
	}
	cell := GridCell{Row: row, Col: col, Value: value, Style: style}
	if i, ok := g.index[[2]int{row, col}]; ok {
		g.cells[i] = cell
		return
	}
	g.index[[2]int{row, col}] = len(g.cells)
	g.cells = append(g.cells, cell)
}

func (g *Grid) Cell(row, col int) (GridCell, bool) {
	i, ok := g.index[[2]int{row, col}]
	if !ok {
		return GridCell{}, false
	}
	return g.cells[i], true
}

// Cells returns every cell in row-major order.
func (g *Grid) Cells() []GridCell {
	out := make([]GridCell, len(g.cells))
	copy(out, g.cells)
	sort.Slice(out, func(i, j int) bool {
		if out[i].Row != out[j].Row {
			return out[i].Row < out[j].Row
		}
		return out[i].Col < out[j].Col
	})
	return out
}

func (g *Grid) columnValues(col, fromRow int) []interface{} {
	var values []interface{}
	for _, c := range g.cells {
		if c.Col == col && c.Row >= fromRow {
			values = append(values, c.Value)
		}
	}
	return values
}

// SheetTitleFor defaults to "Invoice <date with . separators>" or "Invoice Report".
func SheetTitleFor(opts WorkbookOptions) string {
	title := strings.TrimSpace(opts.SheetTitle)
	if title == "" {
		if date := strings.TrimSpace(opts.Date); date != "" {
			title = "Invoice " + strings.NewReplacer("-", ".", "/", ".").Replace(date)
		} else {
			title = DefaultSheetTitle
		}
	}
	return sanitizeSheetTitle(title)
}

func sanitizeSheetTitle(title string) string {
	title = strings.NewReplacer(":", "-", "\\", "-", "/", "-", "?", "", "*", "", "[", "(", "]", ")").Replace(title)
	title = strings.Trim(title, "'")
	if utf8.RuneCountInString(title) > maxSheetTitleLen {
		title = string([]rune(title)[:maxSheetTitleLen])
	}
	if strings.TrimSpace(title) == "" {
		return DefaultSheetTitle
	}
	return title
}

// TransportCellValue is the row transport, else the warehouse alias, else the warehouse name.
func TransportCellValue(row RenderRow) string {
	if t := strings.TrimSpace(row.TransportName); t != "" {
		return t
	}
	if alias := strings.TrimSpace(utils.DereferencePtr(row.WarehouseAlias)); alias != "" {
		return alias
	}
	return strings.TrimSpace(row.WarehouseName)
}

// LayoutDealerOrderGrid plans the columns from the catalog index and renders every row into a Grid.
func LayoutDealerOrderGrid(variant ReportVariant, rows []RenderRow, idx *CatalogIndex, opts WorkbookOptions) *Grid {
	if idx == nil {
		idx = emptyCatalogIndex()
	}
	if opts.UnresolvedPolicy == "" {
		opts.UnresolvedPolicy = UnresolvedCountInTotals
	}
	priced := variant == VariantPriced

	plan := PlanColumns(idx)
	g := newGrid(variant, SheetTitleFor(opts), plan)
	g.Totals = ComputeApplicationTotals(rows, idx, opts.UnresolvedPolicy)

	// date row, unstyled
	label := strings.TrimSpace(opts.DateLabel)
	if label == "" {
		label = strings.TrimSpace(opts.Date)
	}
	if label != "" {
		g.set(dateRow, 1, DateLabelText, StyleNone)
		g.set(dateRow, 2, label, StyleNone)
	}

	// summary block
	summaryHeaders := priceFreeSummaryHeaders
	if priced {
		summaryHeaders = pricedSummaryHeaders
	}
	for i, h := range summaryHeaders {
		g.set(summaryHeaderRow, i+1, h, styleHeader)
	}
	row := summaryHeaderRow + 1
	for _, t := range g.Totals.Rows {
		g.set(row, 1, t.Application, styleText)
		g.set(row, 2, t.Qty, styleNumber)
		if priced {
			g.set(row, 3, t.Value.Round(2).InexactFloat64(), styleMoney)
		}
		row++
	}
	g.TotalRow = row
	g.set(row, 1, TotalLabel, styleText.WithBold())
	g.set(row, 2, g.Totals.GrandQty, styleNumber.WithBold())
	if priced {
		g.set(row, 3, g.Totals.GrandValue.Round(2).InexactFloat64(), styleMoney.WithBold())
	}

	// column headers
	g.HeaderRowIndex = g.TotalRow + 2
	h := g.HeaderRowIndex
	subHeaderRows := 1
	if priced {
		subHeaderRows = 2
	}
	for i, text := range FixedColumnHeaders {
		g.set(h, i+1, text, styleHeader)
		for r := 1; r <= subHeaderRows; r++ {
			g.set(h+r, i+1, "", styleHeader)
		}
	}
	for _, group := range plan.Groups {
		g.set(h, group.StartCol, group.Application, styleHeader)
		for col := group.StartCol + 1; col <= group.EndCol(); col++ {
			g.set(h, col, "", styleHeader)
		}
		for i, p := range group.Products {
			col := group.StartCol + i
			g.set(h+1, col, p.ProductName, styleHeader)
			if priced {
				g.set(h+2, col, p.UnitTp.Round(2).InexactFloat64(), styleMoney.WithBold())
			}
		}
	}
	g.set(h, plan.TransportCol, TransportHeader, styleHeader)
	for r := 1; r <= subHeaderRows; r++ {
		g.set(h+r, plan.TransportCol, "", styleHeader)
	}
	g.Merges = plan.HeaderMerges(h)

	// data rows
	g.DataStartRow = h + subHeaderRows + 1
	if len(rows) == 0 {
		g.renderPlaceholderRow(g.DataStartRow)
		g.DataRowCount = 1
	} else {
		for i, r := range rows {
			g.renderDataRow(g.DataStartRow+i, i+1, r)
		}
		g.DataRowCount = len(rows)
	}

	ySplit := h + 1
	if priced {
		ySplit = h + 2
	}
	topLeft, _ := excelize.CoordinatesToCellName(FixedColumnCount+1, ySplit+1)
	g.Panes = FreezePanes{XSplit: FixedColumnCount, YSplit: ySplit, TopLeftCell: topLeft}

	g.Widths = g.computeWidths()
	return g
}

func (g *Grid) renderDataRow(row int, serial int, r RenderRow) {
	g.set(row, 1, serial, styleNumber)
	g.set(row, 2, r.DealerTerritory, styleText)
	g.set(row, 3, r.DealerName, styleText)
	g.set(row, 4, r.DealerAddress, styleText)
	g.set(row, 5, r.DealerContact, styleText)

	qtyByCode := make(map[string]int, len(r.Items))
	for _, item := range r.Items {
		if item.Quantity > 0 {
			qtyByCode[item.ProductCode] += item.Quantity
		}
	}
	for _, group := range g.Plan.Groups {
		for i, p := range group.Products {
			qty := qtyByCode[p.ProductCode]
			style := styleNumber
			if qty > 0 {
				style = style.WithFill(HighlightFillColor)
			}
			g.set(row, group.StartCol+i, qty, style)
		}
	}
	g.set(row, g.Plan.TransportCol, TransportCellValue(r), styleText)
}

func (g *Grid) renderPlaceholderRow(row int) {
	g.set(row, 1, 1, styleNumber)
	g.set(row, 2, "", styleText)
	g.set(row, 3, NoOrdersDealerName, styleText)
	g.set(row, 4, NoOrdersAddress, styleText)
	g.set(row, 5, "", styleText)
	for _, group := range g.Plan.Groups {
		for i := range group.Products {
			g.set(row, group.StartCol+i, 0, styleNumber)
		}
	}
	g.set(row, g.Plan.TransportCol, "", styleText)
}

func (g *Grid) computeWidths() []ColumnWidth {
	table := WidthTableFor(g.Variant)
	widths := make([]ColumnWidth, 0, g.Plan.LastCol())
	for col := 1; col <= g.Plan.LastCol(); col++ {
		letter, _ := excelize.ColumnNumberToName(col)
		header := ""
		switch {
		case col <= FixedColumnCount:
			header = FixedColumnHeaders[col-1]
		case col == g.Plan.TransportCol:
			header = TransportHeader
		default:
			if p := g.Plan.ProductAt(col); p != nil {
				header = p.ProductName
			}
		}
		widths = append(widths, ColumnWidth{
			Col:    col,
			Letter: letter,
			Width:  WidthFor(table, letter, g.Plan.ColumnKey(col), header, g.columnValues(col, g.HeaderRowIndex+1)),
		})
	}
	return widths
}

// writeGrid renders the grid into a single-sheet xlsx and returns its bytes.
func writeGrid(g *Grid) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	sheet := g.SheetTitle
	if err := f.SetSheetName(f.GetSheetName(0), sheet); err != nil {
		return nil, err
	}

	styles := newStyleCache(f)
	for _, c := range g.Cells() {
		cell, err := excelize.CoordinatesToCellName(c.Col, c.Row)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, c.Value); err != nil {
			return nil, err
		}
		if c.Style.IsZero() {
			continue
		}
		id, err := styles.id(c.Style)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellStyle(sheet, cell, cell, id); err != nil {
			return nil, err
		}
	}

	for _, m := range g.Merges {
		tl, br, err := m.Cells()
		if err != nil {
			return nil, err
		}
		if err := f.MergeCell(sheet, tl, br); err != nil {
			return nil, err
		}
	}

	for _, w := range g.Widths {
		if err := f.SetColWidth(sheet, w.Letter, w.Letter, w.Width); err != nil {
			return nil, err
		}
	}

	if err := f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		XSplit:      g.Panes.XSplit,
		YSplit:      g.Panes.YSplit,
		TopLeftCell: g.Panes.TopLeftCell,
		ActivePane:  "bottomRight",
		Selection: []excelize.Selection{
			{SQRef: g.Panes.TopLeftCell, ActiveCell: g.Panes.TopLeftCell, Pane: "bottomRight"},
		},
	}); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// BuildPricedWorkbook lays out the price-list report: unit-price sub-row and Invoice Value summary.
func BuildPricedWorkbook(rows []RenderRow, idx *CatalogIndex, opts WorkbookOptions) ([]byte, error) {
	return buildDealerOrderWorkbook(VariantPriced, rows, idx, opts)
}

// BuildPriceFreeWorkbook lays out the territory report without prices.
func BuildPriceFreeWorkbook(rows []RenderRow, idx *CatalogIndex, opts WorkbookOptions) ([]byte, error) {
	return buildDealerOrderWorkbook(VariantPriceFree, rows, idx, opts)
}

func buildDealerOrderWorkbook(variant ReportVariant, rows []RenderRow, idx *CatalogIndex, opts WorkbookOptions) ([]byte, error) {
	grid := LayoutDealerOrderGrid(variant, rows, idx, opts)
	buf, err := writeGrid(grid)
	if err != nil {
		config.LogError(config.GetLogger(), "dealerOrderWorkbook.go", "buildDealerOrderWorkbook", "write workbook", map[string]interface{}{
			"variant": variant,
			"sheet":   grid.SheetTitle,
			"rows":    len(rows),
		}, err)
		return nil, err
	}
	return buf, nil
}
