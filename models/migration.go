package models

import (
	"log"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
)

// MigrateTable creates the read-side tables for local development.
// Production schemas are owned by the order-entry application.
func MigrateTable() {
	db := config.GetDB()

	err := db.AutoMigrate(
		&Dealer{}, &Warehouse{}, &Transport{},
		&Product{},
		&DealerOrder{}, &DealerOrderItem{},
	)
	if err != nil {
		log.Fatal(err)
	}
}
