package reports

import (
	"bitbucket.org/mmdatafocus/dealer_orders_backend/models"
	"github.com/xuri/excelize/v2"
)

const FixedColumnCount = 5

var FixedColumnHeaders = [FixedColumnCount]string{
	"Sl. No.",
	"Territory",
	"Name of Dealer",
	"Address",
	"Contact Person & Number",
}

var fixedColumnKeys = [FixedColumnCount]string{
	"sl_no",
	"territory",
	"dealer_name",
	"address",
	"contact",
}

const TransportHeader = "Transport"

// ColumnGroup is one application header and the product columns under it.
type ColumnGroup struct {
	Application string
	StartCol    int
	Products    []*models.CatalogProduct
}

func (g ColumnGroup) EndCol() int {
	return g.StartCol + len(g.Products) - 1
}

// ColumnPlan is the catalog-derived column geometry of a worksheet.
type ColumnPlan struct {
	Groups       []ColumnGroup
	ProductCols  map[string]int
	ProductCount int
	TransportCol int
}

// MergeRange is an inclusive rectangle of 1-based cell coordinates.
type MergeRange struct {
	StartRow int
	StartCol int
	EndRow   int
	EndCol   int
}

// Cells returns the top-left and bottom-right cell names, e.g. "F5", "H5".
func (m MergeRange) Cells() (string, string, error) {
	tl, err := excelize.CoordinatesToCellName(m.StartCol, m.StartRow)
	if err != nil {
		return "", "", err
	}
	br, err := excelize.CoordinatesToCellName(m.EndCol, m.EndRow)
	if err != nil {
		return "", "", err
	}
	return tl, br, nil
}

// PlanColumns lays out fixed columns A–E, one group per application in index order, then Transport.
func PlanColumns(idx *CatalogIndex) *ColumnPlan {
	plan := &ColumnPlan{ProductCols: map[string]int{}}
	col := FixedColumnCount + 1
	if idx != nil {
		for _, app := range idx.ApplicationNames {
			products := idx.ProductsByApplication[app]
			if len(products) == 0 {
				continue
			}
			group := ColumnGroup{Application: app, StartCol: col, Products: products}
			for _, p := range products {
				plan.ProductCols[p.ProductCode] = col
				col++
			}
			plan.Groups = append(plan.Groups, group)
			plan.ProductCount += len(products)
		}
	}
	plan.TransportCol = col
	return plan
}

// HeaderMerges spans each multi-product application header across its columns on headerRow.
func (p *ColumnPlan) HeaderMerges(headerRow int) []MergeRange {
	var merges []MergeRange
	for _, g := range p.Groups {
		if len(g.Products) < 2 {
			continue
		}
		merges = append(merges, MergeRange{
			StartRow: headerRow,
			StartCol: g.StartCol,
			EndRow:   headerRow,
			EndCol:   g.EndCol(),
		})
	}
	return merges
}

// LastCol is the rightmost column of the sheet (Transport).
func (p *ColumnPlan) LastCol() int {
	return p.TransportCol
}

// ColumnKey names a column for width rules: fixed keys, "product:<code>" or "transport".
func (p *ColumnPlan) ColumnKey(col int) string {
	if col >= 1 && col <= FixedColumnCount {
		return fixedColumnKeys[col-1]
	}
	if col == p.TransportCol {
		return TransportColumnKey
	}
	if product := p.ProductAt(col); product != nil {
		return "product:" + product.ProductCode
	}
	return ""
}

// ProductAt returns the product occupying col, or nil.
func (p *ColumnPlan) ProductAt(col int) *models.CatalogProduct {
	for _, g := range p.Groups {
		if col >= g.StartCol && col <= g.EndCol() {
			return g.Products[col-g.StartCol]
		}
	}
	return nil
}
