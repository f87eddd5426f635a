package main

import (
	"context"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"tuition/internal/checkout"
	"tuition/internal/config"
	"tuition/internal/db"
	"tuition/internal/handlers"
	"tuition/internal/services"
	"tuition/internal/store"
	"tuition/internal/websocket"
)

func main() {
	cfg := config.Load()
	database, err := db.Connect(cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("failed to connect database: %v", err)
	}
	defer database.Close()

	users := store.NewUserStore(database)
	tuitions := store.NewTuitionStore(database)
	applications := store.NewApplicationStore(database)
	payments := store.NewPaymentStore(database)
	checkouts := store.NewCheckoutStore(database)
	audit := store.NewAuditStore(database)
	txRunner := db.NewTxRunner(database)
	hub := websocket.NewHub()
	gateway := checkout.NewClient(cfg.CheckoutBaseURL, cfg.CheckoutSecret, cfg.CheckoutReturnURL)

	tuitionSvc := services.NewTuitionService(txRunner, tuitions, applications, audit)
	appSvc := services.NewApplicationService(txRunner, applications, tuitions, audit, hub)
	settlement := services.NewSettlementService(txRunner, checkouts, applications, payments, audit, gateway, hub, cfg.Currency, cfg.PlatformShareRate)
	projections := services.NewProjectionService(users, tuitions, applications, payments, cfg.PlatformShareRate)

	handler := handlers.New(txRunner, cfg, users, tuitions, applications, audit, tuitionSvc, appSvc, settlement, projections, hub)
	server := &http.Server{
		Addr:         ":" + cfg.Port,
		Handler:      handler.Routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 10 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	go func() {
		log.Printf("tuition API listening on %s", server.Addr)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server error: %v", err)
		}
	}()

	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, syscall.SIGINT, syscall.SIGTERM)
	<-shutdown

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := server.Shutdown(ctx); err != nil {
		log.Fatalf("shutdown error: %v", err)
	}
}
