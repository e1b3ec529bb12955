package reports

import (
	"sort"
	"strconv"
	"strings"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/models"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/utils"
	"github.com/shopspring/decimal"
)

const (
	RangeOrderIdPrefix         = "RANGE-"
	RangeOrderType             = "Range"
	MultipleTransportProviders = "Different Transport Providers"
)

// RenderRow is the one row shape the layout engine renders, for single-day and range reports alike.
type RenderRow struct {
	OrderId         string             `json:"order_id"`
	OrderType       string             `json:"order_type,omitempty"`
	DealerId        *int               `json:"dealer_id,omitempty"`
	DealerName      string             `json:"dealer_name"`
	DealerTerritory string             `json:"dealer_territory"`
	DealerAddress   string             `json:"dealer_address"`
	DealerContact   string             `json:"dealer_contact"`
	WarehouseName   string             `json:"warehouse_name"`
	WarehouseAlias  *string            `json:"warehouse_alias,omitempty"`
	TransportName   string             `json:"transport_name"`
	OrderDate       string             `json:"order_date"`
	Items           []models.OrderItem `json:"items"`
}

type ProductSummary struct {
	ProductId   int
	ProductCode string
	ProductName string
	Quantity    int
	// first non-zero price seen for the code
	UnitTp decimal.Decimal
	// unrounded Σ quantity × resolved price over every folded line
	Value decimal.Decimal
	// quantities per distinct resolved price, in first-seen order
	Lines []PriceLine
}

type PriceLine struct {
	UnitTp   decimal.Decimal
	Quantity int
}

func (ps *ProductSummary) addLine(price decimal.Decimal, qty int) {
	ps.Quantity += qty
	ps.Value = ps.Value.Add(price.Mul(decimal.NewFromInt(int64(qty))))
	if ps.UnitTp.IsZero() && !price.IsZero() {
		ps.UnitTp = price
	}
	for i := range ps.Lines {
		if ps.Lines[i].UnitTp.Equal(price) {
			ps.Lines[i].Quantity += qty
			return
		}
	}
	ps.Lines = append(ps.Lines, PriceLine{UnitTp: price, Quantity: qty})
}

// DealerSummary accumulates every order of one dealer across a date range.
type DealerSummary struct {
	Key              string
	DealerId         *int
	DealerName       string
	DealerTerritory  string
	DealerAddress    string
	DealerContact    string
	WarehouseAlias   *string
	OrderCount       int
	TotalQuantity    int
	TotalValue       decimal.Decimal
	TracksValue      bool
	WarehouseNames   map[string]struct{}
	TransportNames   map[string]struct{}
	EarliestDate     string
	LatestDate       string
	ProductSummaries map[string]*ProductSummary
}

type ProductSummaryView struct {
	ProductCode string          `json:"product_code"`
	ProductName string          `json:"product_name"`
	Quantity    int              `json:"quantity"`
	UnitTp      decimal.Decimal  `json:"unit_tp"`
	Value       *decimal.Decimal `json:"value,omitempty"`
}

// DealerSummaryView is the emitted form of a DealerSummary; money is rounded here and nowhere earlier.
type DealerSummaryView struct {
	DealerKey       string               `json:"dealer_key"`
	DealerName      string               `json:"dealer_name"`
	DealerTerritory string               `json:"dealer_territory"`
	OrderCount      int                  `json:"order_count"`
	TotalQuantity   int                  `json:"total_quantity"`
	TotalValue      *decimal.Decimal     `json:"total_value,omitempty"`
	Warehouse       string               `json:"warehouse"`
	Transport       string               `json:"transport"`
	DateSpan        string               `json:"date_span"`
	Products        []ProductSummaryView `json:"products"`
}

// AggregateSingleDay maps each order to one RenderRow.
func AggregateSingleDay(orders []models.Order) []RenderRow {
	rows := make([]RenderRow, 0, len(orders))
	for _, o := range orders {
		items := make([]models.OrderItem, len(o.Items))
		copy(items, o.Items)
		rows = append(rows, RenderRow{
			OrderId:         o.OrderId,
			OrderType:       o.OrderType,
			DealerId:        o.DealerId,
			DealerName:      o.DealerName,
			DealerTerritory: o.DealerTerritory,
			DealerAddress:   o.DealerAddress,
			DealerContact:   o.DealerContact,
			WarehouseName:   o.WarehouseName,
			WarehouseAlias:  o.WarehouseAlias,
			TransportName:   strings.TrimSpace(utils.DereferencePtr(o.TransportName)),
			OrderDate:       o.OrderDate,
			Items:           items,
		})
	}
	return rows
}

// AggregateRange folds the orders into one synthetic row per dealer, sorted by dealer name.
func AggregateRange(orders []models.Order, dateLabel string, variant ReportVariant) []RenderRow {
	summaries := SortedDealerSummaries(FoldDealerSummaries(orders, variant))
	rows := make([]RenderRow, 0, len(summaries))
	for _, s := range summaries {
		rows = append(rows, s.RenderRow(dateLabel))
	}
	return rows
}

const (
	dealerKeyNamePrefix  = "name:"
	dealerKeyOrderPrefix = "order:"
)

// DealerKey is dealer_id, else dealer_name, else order_id. Name and order keys are
// prefixed so they never collide with a numeric id.
func DealerKey(o models.Order) string {
	if o.DealerId != nil {
		return strconv.Itoa(*o.DealerId)
	}
	if o.DealerName != "" {
		return dealerKeyNamePrefix + o.DealerName
	}
	return dealerKeyOrderPrefix + o.OrderId
}

// FoldDealerSummaries reduces orders to one DealerSummary per dealer key.
// Value is tracked only for the priced variant.
func FoldDealerSummaries(orders []models.Order, variant ReportVariant) map[string]*DealerSummary {
	summaries := make(map[string]*DealerSummary)
	for _, o := range orders {
		key := DealerKey(o)
		s, ok := summaries[key]
		if !ok {
			s = newDealerSummary(key, o, variant == VariantPriced)
			summaries[key] = s
		}
		s.fold(o)
	}
	return summaries
}

// SortedDealerSummaries orders summaries by dealer name with the catalog collation, then key.
func SortedDealerSummaries(summaries map[string]*DealerSummary) []*DealerSummary {
	list := make([]*DealerSummary, 0, len(summaries))
	for _, s := range summaries {
		list = append(list, s)
	}
	col := newCollator()
	sort.Slice(list, func(i, j int) bool {
		if list[i].DealerName != list[j].DealerName {
			return localeLess(col, list[i].DealerName, list[j].DealerName)
		}
		return list[i].Key < list[j].Key
	})
	return list
}

func newDealerSummary(key string, o models.Order, tracksValue bool) *DealerSummary {
	return &DealerSummary{
		Key:              key,
		DealerId:         o.DealerId,
		DealerName:       o.DealerName,
		DealerTerritory:  o.DealerTerritory,
		DealerAddress:    o.DealerAddress,
		DealerContact:    o.DealerContact,
		WarehouseAlias:   o.WarehouseAlias,
		TracksValue:      tracksValue,
		TotalValue:       decimal.Zero,
		WarehouseNames:   make(map[string]struct{}),
		TransportNames:   make(map[string]struct{}),
		ProductSummaries: make(map[string]*ProductSummary),
	}
}

func (s *DealerSummary) fold(o models.Order) {
	s.OrderCount++

	if name := strings.TrimSpace(o.WarehouseName); name != "" {
		s.WarehouseNames[name] = struct{}{}
	}
	if name := strings.TrimSpace(utils.DereferencePtr(o.TransportName)); name != "" {
		s.TransportNames[name] = struct{}{}
	}
	if o.OrderDate != "" {
		if s.EarliestDate == "" || o.OrderDate < s.EarliestDate {
			s.EarliestDate = o.OrderDate
		}
		if s.LatestDate == "" || o.OrderDate > s.LatestDate {
			s.LatestDate = o.OrderDate
		}
	}

	for _, item := range o.Items {
		qty := item.Quantity
		if qty < 0 {
			qty = 0
		}
		price := item.ResolvedUnitTp()

		ps, ok := s.ProductSummaries[item.ProductCode]
		if !ok {
			ps = &ProductSummary{
				ProductId:   item.ProductId,
				ProductCode: item.ProductCode,
				ProductName: item.ProductName,
				UnitTp:      decimal.Zero,
				Value:       decimal.Zero,
			}
			s.ProductSummaries[item.ProductCode] = ps
		}
		ps.addLine(price, qty)

		s.TotalQuantity += qty
		if s.TracksValue {
			s.TotalValue = s.TotalValue.Add(price.Mul(decimal.NewFromInt(int64(qty))))
		}
	}
}

// TransportDisplay collapses the observed transports: none, the single name, or MultipleTransportProviders.
func (s *DealerSummary) TransportDisplay() string {
	return collapseTransports(s.TransportNames)
}

// WarehouseDisplay joins every observed warehouse name with ", ".
func (s *DealerSummary) WarehouseDisplay() string {
	return strings.Join(utils.SortedKeys(s.WarehouseNames), ", ")
}

// DateSpan is the single date when the dealer ordered on one day only.
func (s *DealerSummary) DateSpan() string {
	if s.EarliestDate == s.LatestDate {
		return s.EarliestDate
	}
	return s.EarliestDate + " to " + s.LatestDate
}

// SortedProducts lists product summaries by product name, then code.
func (s *DealerSummary) SortedProducts() []*ProductSummary {
	list := make([]*ProductSummary, 0, len(s.ProductSummaries))
	for _, ps := range s.ProductSummaries {
		list = append(list, ps)
	}
	sort.Slice(list, func(i, j int) bool {
		if list[i].ProductName != list[j].ProductName {
			return list[i].ProductName < list[j].ProductName
		}
		return list[i].ProductCode < list[j].ProductCode
	})
	return list
}

// RenderRow converts the summary into the canonical row with a RANGE- order id.
// Each product yields one item per distinct price so item values still add up to the folded value.
func (s *DealerSummary) RenderRow(dateLabel string) RenderRow {
	products := s.SortedProducts()
	items := make([]models.OrderItem, 0, len(products))
	for _, ps := range products {
		for _, line := range ps.Lines {
			unitTp := line.UnitTp
			items = append(items, models.OrderItem{
				ProductId:   ps.ProductId,
				ProductCode: ps.ProductCode,
				ProductName: ps.ProductName,
				Quantity:    line.Quantity,
				UnitTp:      &unitTp,
			})
		}
	}
	// an alias only names the warehouse when there is exactly one
	alias := s.WarehouseAlias
	if len(s.WarehouseNames) > 1 {
		alias = nil
	}
	return RenderRow{
		OrderId:         RangeOrderIdPrefix + s.Key,
		OrderType:       RangeOrderType,
		DealerId:        s.DealerId,
		DealerName:      s.DealerName,
		DealerTerritory: s.DealerTerritory,
		DealerAddress:   s.DealerAddress,
		DealerContact:   s.DealerContact,
		WarehouseName:   s.WarehouseDisplay(),
		WarehouseAlias:  alias,
		TransportName:   s.TransportDisplay(),
		OrderDate:       dateLabel,
		Items:           items,
	}
}

func (s *DealerSummary) View() DealerSummaryView {
	products := s.SortedProducts()
	views := make([]ProductSummaryView, 0, len(products))
	for _, ps := range products {
		pv := ProductSummaryView{
			ProductCode: ps.ProductCode,
			ProductName: ps.ProductName,
			Quantity:    ps.Quantity,
			UnitTp:      ps.UnitTp.Round(2),
		}
		if s.TracksValue {
			v := ps.Value.Round(2)
			pv.Value = &v
		}
		views = append(views, pv)
	}
	view := DealerSummaryView{
		DealerKey:       s.Key,
		DealerName:      s.DealerName,
		DealerTerritory: s.DealerTerritory,
		OrderCount:      s.OrderCount,
		TotalQuantity:   s.TotalQuantity,
		Warehouse:       s.WarehouseDisplay(),
		Transport:       s.TransportDisplay(),
		DateSpan:        s.DateSpan(),
		Products:        views,
	}
	if s.TracksValue {
		v := s.TotalValue.Round(2)
		view.TotalValue = &v
	}
	return view
}

func collapseTransports(names map[string]struct{}) string {
	switch len(names) {
	case 0:
		return ""
	case 1:
		for name := range names {
			return name
		}
	}
	return MultipleTransportProviders
}
