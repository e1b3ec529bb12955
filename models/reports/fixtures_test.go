package reports

import (
	"github.com/shopspring/decimal"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/models"
)

func ptr[T any](v T) *T {
	return &v
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := dec(s)
	return &d
}

func catalogProduct(code, name, app, unitTp string) *models.CatalogProduct {
	return &models.CatalogProduct{
		ProductCode:     code,
		ProductName:     name,
		ApplicationName: app,
		UnitTp:          dec(unitTp),
		Status:          models.ProductStatusActive,
	}
}

// sampleCatalog has two applications: Herbicide (2 products) and Fungicide (1 product).
func sampleCatalog() []*models.CatalogProduct {
	return []*models.CatalogProduct{
		catalogProduct("H2", "Weedout", "Herbicide", "250"),
		catalogProduct("H1", "Grassfree", "Herbicide", "120.5"),
		catalogProduct("F1", "Mildew Stop", "Fungicide", "80"),
	}
}

func item(code string, qty int, unitTp string) models.OrderItem {
	it := models.OrderItem{ProductCode: code, ProductName: code, Quantity: qty}
	if unitTp != "" {
		it.UnitTp = decPtr(unitTp)
	}
	return it
}

func order(id string, dealerId int, dealerName, date string, items ...models.OrderItem) models.Order {
	return models.Order{
		OrderId:         id,
		OrderType:       "Daily",
		DealerId:        ptr(dealerId),
		DealerName:      dealerName,
		DealerTerritory: "Dhaka",
		DealerAddress:   "Road 1",
		DealerContact:   "Karim 0171",
		WarehouseName:   "W1",
		OrderDate:       date,
		Items:           items,
	}
}
