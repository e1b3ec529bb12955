package models

import (
	"context"
	"errors"
	"time"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
	"github.com/shopspring/decimal"
)

const (
	ProductStatusActive     = "A"
	DummyApplicationName    = "Dummy"
	productCatalogQueryName = "GetActiveCatalogProducts"
)

type Product struct {
	ID              int             `gorm:"primary_key" json:"id"`
	ProductCode     string          `gorm:"index;size:50;not null" json:"product_code"`
	Name            string          `gorm:"size:150;not null" json:"name"`
	ApplicationName string          `gorm:"index;size:100;not null" json:"application_name"`
	UnitTp          decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_tp"`
	UnitTradePrice  decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"unit_trade_price"`
	Mrp             decimal.Decimal `gorm:"type:decimal(20,4);default:0" json:"mrp"`
	Status          string          `gorm:"type:char(1);not null;default:A" json:"status"`
	CreatedAt       time.Time       `gorm:"autoCreateTime" json:"created_at"`
	UpdatedAt       time.Time       `gorm:"autoUpdateTime" json:"updated_at"`
}

// CatalogProduct is one row of the active price list as the report engine sees it.
type CatalogProduct struct {
	ProductCode     string          `json:"product_code"`
	ProductName     string          `json:"product_name"`
	ApplicationName string          `json:"application_name"`
	UnitTp          decimal.Decimal `json:"unit_tp"`
	Status          string          `json:"status"`
}

// IsEligible reports whether the product may appear as a report column.
func (p CatalogProduct) IsEligible() bool {
	return p.Status == ProductStatusActive && p.ApplicationName != DummyApplicationName
}

// GetActiveCatalogProducts reads the active, non-Dummy catalog.
// A non-empty codes slice restricts the read to those product codes.
func GetActiveCatalogProducts(ctx context.Context, codes []string) ([]*CatalogProduct, error) {
	db := config.GetDB()
	if db == nil {
		return nil, errors.New("db is nil")
	}

	query := db.WithContext(ctx).Model(&Product{}).
		Select("product_code, name AS product_name, application_name, unit_tp, status").
		Where("status = ? AND application_name <> ?", ProductStatusActive, DummyApplicationName)
	if len(codes) > 0 {
		query = query.Where("product_code IN ?", codes)
	}

	var products []*CatalogProduct
	if err := query.Order("application_name, name").Scan(&products).Error; err != nil {
		config.LogError(config.GetLogger(), "product.go", productCatalogQueryName, "scan catalog", codes, err)
		return nil, err
	}
	return products, nil
}
