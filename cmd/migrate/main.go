package main

import (
	"fmt"
	"os"

	"bitbucket.org/mmdatafocus/dealer_orders_backend/config"
	"bitbucket.org/mmdatafocus/dealer_orders_backend/models"
)

// Runs AutoMigrate as a one-off job so the API can start with RUN_MIGRATIONS unset.
func main() {
	config.ConnectDatabaseWithRetry()
	if config.GetDB() == nil {
		fmt.Fprintln(os.Stderr, "database not initialized (config.GetDB returned nil)")
		os.Exit(1)
	}
	models.MigrateTable()
	fmt.Println("Migrations applied")
}
