package reports

import (
	"context"
	"sort"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/models"
	"github.com/shopspring/decimal"
	"golang.org/x/text/collate"
	"golang.org/x/text/language"
)

type ReportVariant string

const (
	VariantPriced    ReportVariant = "priced"
	VariantPriceFree ReportVariant = "price_free"
)

func (v ReportVariant) IsValid() bool {
	return v == VariantPriced || v == VariantPriceFree
}

type ProductInfo struct {
	Application string          `json:"application"`
	UnitTp      decimal.Decimal `json:"unit_tp"`
	ProductName string          `json:"product_name"`
}

// CatalogIndex is the catalog snapshot grouped by application, ready for column planning.
type CatalogIndex struct {
	ApplicationNames      []string
	ProductsByApplication map[string][]*models.CatalogProduct
	ProductInfo           map[string]ProductInfo
}

func emptyCatalogIndex() *CatalogIndex {
	return &CatalogIndex{
		ApplicationNames:      []string{},
		ProductsByApplication: map[string][]*models.CatalogProduct{},
		ProductInfo:           map[string]ProductInfo{},
	}
}

// ProductCount is the number of product columns the index produces.
func (idx *CatalogIndex) ProductCount() int {
	n := 0
	for _, products := range idx.ProductsByApplication {
		n += len(products)
	}
	return n
}

// IndexCatalog groups eligible products by application.
// The price-free variant keeps only orderedCodes and is empty when none were ordered;
// the priced variant is always the full active price list.
func IndexCatalog(variant ReportVariant, products []*models.CatalogProduct, orderedCodes []string) *CatalogIndex {
	idx := emptyCatalogIndex()

	var allowed map[string]bool
	if variant == VariantPriceFree {
		if len(orderedCodes) == 0 {
			return idx
		}
		allowed = make(map[string]bool, len(orderedCodes))
		for _, code := range orderedCodes {
			allowed[code] = true
		}
	}

	for _, p := range products {
		if p == nil || !p.IsEligible() {
			continue
		}
		if allowed != nil && !allowed[p.ProductCode] {
			continue
		}
		// product_code is unique within a snapshot; keep the first on conflict
		if _, exists := idx.ProductInfo[p.ProductCode]; exists {
			continue
		}
		idx.ProductInfo[p.ProductCode] = ProductInfo{
			Application: p.ApplicationName,
			UnitTp:      p.UnitTp,
			ProductName: p.ProductName,
		}
		if _, ok := idx.ProductsByApplication[p.ApplicationName]; !ok {
			idx.ApplicationNames = append(idx.ApplicationNames, p.ApplicationName)
		}
		idx.ProductsByApplication[p.ApplicationName] = append(idx.ProductsByApplication[p.ApplicationName], p)
	}

	col := newCollator()
	sortLocale(col, idx.ApplicationNames, func(s string) string { return s })
	for _, app := range idx.ApplicationNames {
		list := idx.ProductsByApplication[app]
		sort.SliceStable(list, func(i, j int) bool {
			return localeLess(col, list[i].ProductName, list[j].ProductName) ||
				(list[i].ProductName == list[j].ProductName && list[i].ProductCode < list[j].ProductCode)
		})
	}
	return idx
}

// LoadCatalogIndex reads the catalog snapshot and indexes it.
// A price-free report without ordered codes never touches the database.
func LoadCatalogIndex(ctx context.Context, variant ReportVariant, orderedCodes []string) (*CatalogIndex, error) {
	if variant == VariantPriceFree && len(orderedCodes) == 0 {
		return emptyCatalogIndex(), nil
	}

	var filter []string
	if variant == VariantPriceFree {
		filter = orderedCodes
	}
	products, err := models.GetActiveCatalogProducts(ctx, filter)
	if err != nil {
		config.LogError(config.GetLogger(), "catalogIndex.go", "LoadCatalogIndex", "read catalog", variant, err)
		return nil, err
	}
	return IndexCatalog(variant, products, orderedCodes), nil
}

func newCollator() *collate.Collator {
	return collate.New(language.English, collate.IgnoreCase)
}

func sortLocale[T any](col *collate.Collator, list []T, key func(T) string) {
	sort.SliceStable(list, func(i, j int) bool {
		return localeLess(col, key(list[i]), key(list[j]))
	})
}

// localeLess orders by collation first and falls back to byte order so equal-folding names stay deterministic.
func localeLess(col *collate.Collator, a, b string) bool {
	if c := col.CompareString(a, b); c != 0 {
		return c < 0
	}
	return a < b
}
