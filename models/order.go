package models

import (
	"context"
	"errors"
	"strconv"
	"time"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/utils"
	mysqlDriver "github.com/go-sql-driver/mysql"
	"github.com/shopspring/decimal"
	"github.com/sirupsen/logrus"
)

const mysqlErrNoSuchTable = 1146

const OrderDateLayout = "2006-01-02"

type DealerOrder struct {
	ID          int       `gorm:"primary_key" json:"id"`
	OrderType   string    `gorm:"size:20;not null;default:Daily" json:"order_type"`
	DealerId    int       `gorm:"index;not null" json:"dealer_id"`
	WarehouseId int       `gorm:"index" json:"warehouse_id"`
	TransportId *int      `gorm:"index" json:"transport_id"`
	OrderDate   time.Time `gorm:"type:date;index;not null" json:"order_date"`
	CreatedAt   time.Time `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt   time.Time `gorm:"autoUpdateTime" json:"updated_at"`
}

func (DealerOrder) TableName() string {
	return "orders"
}

type DealerOrderItem struct {
	ID             int              `gorm:"primary_key" json:"id"`
	OrderId        int              `gorm:"index;not null" json:"order_id"`
	ProductId      int              `gorm:"index;not null" json:"product_id"`
	Quantity       int              `gorm:"not null;default:0" json:"quantity"`
	UnitTp         *decimal.Decimal `gorm:"type:decimal(20,4)" json:"unit_tp"`
	UnitTradePrice *decimal.Decimal `gorm:"type:decimal(20,4)" json:"unit_trade_price"`
	Mrp            *decimal.Decimal `gorm:"type:decimal(20,4)" json:"mrp"`
}

func (DealerOrderItem) TableName() string {
	return "order_items"
}

// OrderItem is one product line of an order as handed to the report engine.
type OrderItem struct {
	ProductId      int              `json:"product_id"`
	ProductCode    string           `json:"product_code"`
	ProductName    string           `json:"product_name"`
	Quantity       int              `json:"quantity"`
	UnitTp         *decimal.Decimal `json:"unit_tp,omitempty"`
	UnitTradePrice *decimal.Decimal `json:"unit_trade_price,omitempty"`
	Mrp            *decimal.Decimal `json:"mrp,omitempty"`
}

// ResolvedUnitTp falls back unit_tp -> unit_trade_price -> 0.
func (item OrderItem) ResolvedUnitTp() decimal.Decimal {
	return utils.FirstNonZero(item.UnitTp, item.UnitTradePrice)
}

// Order is one dealer order with its items, read-only to the report engine.
type Order struct {
	OrderId         string      `json:"order_id"`
	OrderType       string      `json:"order_type,omitempty"`
	DealerId        *int        `json:"dealer_id,omitempty"`
	DealerName      string      `json:"dealer_name"`
	DealerTerritory string      `json:"dealer_territory"`
	DealerAddress   string      `json:"dealer_address"`
	DealerContact   string      `json:"dealer_contact"`
	WarehouseName   string      `json:"warehouse_name"`
	WarehouseAlias  *string     `json:"warehouse_alias,omitempty"`
	TransportName   *string     `json:"transport_name,omitempty"`
	OrderDate       string      `json:"order_date"`
	Items           []OrderItem `json:"items"`
}

// CoerceQuantity maps missing or negative quantities to 0.
func CoerceQuantity(q *int) int {
	if q == nil || *q < 0 {
		return 0
	}
	return *q
}

// OrderedProductCodes returns the distinct product codes referenced by the orders, in first-seen order.
func OrderedProductCodes(orders []Order) []string {
	seen := make(map[string]bool)
	var codes []string
	for _, o := range orders {
		for _, item := range o.Items {
			if item.ProductCode == "" || seen[item.ProductCode] {
				continue
			}
			seen[item.ProductCode] = true
			codes = append(codes, item.ProductCode)
		}
	}
	return codes
}

type orderHeaderRow struct {
	OrderId         int
	OrderType       string
	DealerId        *int
	DealerName      *string
	DealerTerritory *string
	DealerAddress   *string
	DealerContact   *string
	WarehouseName   *string
	WarehouseAlias  *string
	TransportName   *string
	OrderDate       time.Time
}

type orderItemRow struct {
	OrderId        int
	ProductId      int
	ProductCode    string
	ProductName    string
	Quantity       *int
	UnitTp         *decimal.Decimal
	UnitTradePrice *decimal.Decimal
	Mrp            *decimal.Decimal
}

const orderHeadersSql = `
SELECT
    o.id AS order_id,
    o.order_type,
    o.dealer_id,
    d.name AS dealer_name,
    d.territory AS dealer_territory,
    d.address AS dealer_address,
    d.contact AS dealer_contact,
    w.name AS warehouse_name,
    w.alias AS warehouse_alias,
    t.name AS transport_name,
    o.order_date
FROM
    orders o
    LEFT JOIN dealers d ON d.id = o.dealer_id
    LEFT JOIN warehouses w ON w.id = o.warehouse_id
    LEFT JOIN transports t ON t.id = o.transport_id
WHERE
    o.order_date BETWEEN @fromDate AND @toDate
ORDER BY o.id
`

const orderItemsSql = `
SELECT
    oi.order_id,
    oi.product_id,
    p.product_code,
    p.name AS product_name,
    oi.quantity,
    oi.unit_tp,
    oi.unit_trade_price,
    oi.mrp
FROM
    order_items oi
    JOIN products p ON p.id = oi.product_id
WHERE
    oi.order_id IN @orderIds
ORDER BY oi.order_id, oi.id
`

// GetOrdersByDate returns every order placed on the given YYYY-MM-DD date.
func GetOrdersByDate(ctx context.Context, date string) ([]Order, error) {
	return GetOrdersByDateRange(ctx, date, date)
}

// GetOrdersByDateRange returns orders with fromDate <= order_date <= toDate, items attached.
func GetOrdersByDateRange(ctx context.Context, fromDate string, toDate string) ([]Order, error) {
	logger := config.GetLogger()
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}

	var headers []orderHeaderRow
	if err := db.WithContext(ctx).Raw(orderHeadersSql, map[string]interface{}{
		"fromDate": fromDate,
		"toDate":   toDate,
	}).Scan(&headers).Error; err != nil {
		config.LogError(logger, "order.go", "GetOrdersByDateRange", "scan order headers", map[string]string{"from": fromDate, "to": toDate}, err)
		warnMissingSchema(err)
		return nil, err
	}
	if len(headers) == 0 {
		return []Order{}, nil
	}

	orderIds := make([]int, 0, len(headers))
	for _, h := range headers {
		orderIds = append(orderIds, h.OrderId)
	}

	var items []orderItemRow
	if err := db.WithContext(ctx).Raw(orderItemsSql, map[string]interface{}{
		"orderIds": orderIds,
	}).Scan(&items).Error; err != nil {
		config.LogError(logger, "order.go", "GetOrdersByDateRange", "scan order items", orderIds, err)
		return nil, err
	}

	itemsByOrder := make(map[int][]OrderItem, len(headers))
	for _, it := range items {
		itemsByOrder[it.OrderId] = append(itemsByOrder[it.OrderId], OrderItem{
			ProductId:      it.ProductId,
			ProductCode:    it.ProductCode,
			ProductName:    it.ProductName,
			Quantity:       CoerceQuantity(it.Quantity),
			UnitTp:         it.UnitTp,
			UnitTradePrice: it.UnitTradePrice,
			Mrp:            it.Mrp,
		})
	}

	orders := make([]Order, 0, len(headers))
	for _, h := range headers {
		orders = append(orders, Order{
			OrderId:         strconv.Itoa(h.OrderId),
			OrderType:       h.OrderType,
			DealerId:        h.DealerId,
			DealerName:      utils.DereferencePtr(h.DealerName),
			DealerTerritory: utils.DereferencePtr(h.DealerTerritory),
			DealerAddress:   utils.DereferencePtr(h.DealerAddress),
			DealerContact:   utils.DereferencePtr(h.DealerContact),
			WarehouseName:   utils.DereferencePtr(h.WarehouseName),
			WarehouseAlias:  h.WarehouseAlias,
			TransportName:   h.TransportName,
			OrderDate:       h.OrderDate.Format(OrderDateLayout),
			Items:           itemsByOrder[h.OrderId],
		})
	}
	return orders, nil
}

// warnMissingSchema points operators at cmd/migrate when the order tables do not exist yet.
func warnMissingSchema(err error) {
	var myErr *mysqlDriver.MySQLError
	if errors.As(err, &myErr) && myErr.Number == mysqlErrNoSuchTable {
		config.GetLogger().WithFields(logrus.Fields{"field": "orders"}).Warn("order tables are missing; run cmd/migrate or set RUN_MIGRATIONS=true")
	}
}
