package main

import (
	"context"
	"net/http"
	"os"

	webAdapter "harmono-erp/internal/adapters/web"
	"harmono-erp/internal/app"
	"harmono-erp/internal/core"
	"harmono-erp/internal/db"

	"github.com/joho/godotenv"
	"github.com/sirupsen/logrus"
)

func main() {
	_ = godotenv.Load()

	log := logrus.New()
	log.SetFormatter(&logrus.JSONFormatter{})
	if lvl, err := logrus.ParseLevel(os.Getenv("LOG_LEVEL")); err == nil {
		log.SetLevel(lvl)
	}

	ctx := context.Background()
	pool, err := db.NewPool(ctx)
	if err != nil {
		log.WithError(err).Fatal("database connection failed")
	}
	defer pool.Close()

	ledger := core.NewLedger(pool, log)
	resolver := core.NewRecipeResolver(pool)
	stock := core.NewStockService(pool, ledger, resolver)
	catalog := core.NewCatalogService(pool)
	orders := core.NewWorkOrderService(pool, stock, resolver)
	users := core.NewUserService(pool)
	reports := core.NewReportingService(pool, ledger)

	svc := app.NewAppService(catalog, stock, ledger, orders, users, reports)

	jwtSecret := os.Getenv("JWT_SECRET")
	if jwtSecret == "" {
		log.Fatal("JWT_SECRET environment variable not set")
	}

	port := os.Getenv("SERVER_PORT")
	if port == "" {
		port = "8080"
	}

	allowedOrigins := os.Getenv("ALLOWED_ORIGINS")
	handler := webAdapter.NewHandler(svc, allowedOrigins, jwtSecret, log)

	log.WithField("port", port).Info("server starting")
	if err := http.ListenAndServe(":"+port, handler); err != nil {
		log.WithError(err).Fatal("server stopped")
	}
}
