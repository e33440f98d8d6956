package main

import (
	"context"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"sync"
	"syscall"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/foldline/boxoffice/internal/app"
	"github.com/foldline/boxoffice/internal/clock"
	"github.com/foldline/boxoffice/internal/config"
	"github.com/foldline/boxoffice/internal/storage/postgres"
	transporthttp "github.com/foldline/boxoffice/internal/transport/http"
	"github.com/foldline/boxoffice/migrations"
)

const shutdownTimeout = 10 * time.Second

func main() {
	logger := log.Default()
	cfg := config.Load()

	startupCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()

	pool, err := pgxpool.New(startupCtx, cfg.Database.URL)
	if err != nil {
		log.Fatalf("connect to db: %v", err)
	}
	defer pool.Close()

	if err := pool.Ping(startupCtx); err != nil {
		log.Fatalf("db ping: %v", err)
	}
	if err := migrations.Apply(startupCtx, pool); err != nil {
		log.Fatalf("apply migrations: %v", err)
	}

	clk := clock.NewSystem()

	authSvc := app.NewAuthService(postgres.NewOrganizerRepository(pool))
	eventSvc := app.NewEventService(postgres.NewEventRepository(pool), clk)
	itemSvc := app.NewItemService(postgres.NewItemRepository(pool))
	quotaSvc := app.NewQuotaService(postgres.NewQuotaRepository(pool), clk)
	cartSvc := app.NewCartService(postgres.NewCartRepository(pool), clk, app.WithCartTTL(cfg.Cart.TTL))
	orderSvc := app.NewOrderService(postgres.NewOrderRepository(pool), clk)
	checkinSvc := app.NewCheckinService(postgres.NewCheckinRepository(pool), clk)
	voucherSvc := app.NewVoucherService(postgres.NewVoucherRepository(pool), clk)
	seatSvc := app.NewSeatService(postgres.NewSeatRepository(pool), clk)
	invoiceSvc := app.NewInvoiceService(postgres.NewInvoiceRepository(pool))
	customerSvc := app.NewCustomerService(
		postgres.NewCustomerRepository(pool), clk,
		[]byte(cfg.Auth.JWTSecret), app.WithTokenTTL(cfg.Auth.JWTTTL),
	)
	exhibitorSvc := app.NewExhibitorService(postgres.NewExhibitorRepository(pool), clk)
	exportSvc := app.NewExportService(
		postgres.NewExportRepository(pool), clk,
		app.WithExportRetention(cfg.Export.Retention),
	)

	handler := transporthttp.NewRouter(transporthttp.Services{
		Auth:       authSvc,
		Events:     eventSvc,
		Items:      itemSvc,
		Quotas:     quotaSvc,
		Carts:      cartSvc,
		Orders:     orderSvc,
		Checkins:   checkinSvc,
		Vouchers:   voucherSvc,
		Seats:      seatSvc,
		Invoices:   invoiceSvc,
		Customers:  customerSvc,
		Exhibitors: exhibitorSvc,
		Exports:    exportSvc,
	}, cfg.Server.CORSOrigins, logger)

	workerCtx, stopWorkers := context.WithCancel(context.Background())
	defer stopWorkers()
	var workers sync.WaitGroup
	for i := 0; i < cfg.Export.Workers; i++ {
		worker := app.NewExportWorker(exportSvc, logger)
		workers.Add(1)
		go func() {
			defer workers.Done()
			worker.Run(workerCtx)
		}()
	}

	server := &http.Server{
		Addr:    ":" + cfg.Server.Port,
		Handler: handler,
	}

	log.Printf("api listening on :%s", cfg.Server.Port)

	srvErr := make(chan error, 1)
	go func() {
		srvErr <- server.ListenAndServe()
	}()

	stopCtx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	select {
	case err := <-srvErr:
		if err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Printf("server error: %v", err)
		}
	case <-stopCtx.Done():
		log.Printf("shutdown signal received, stopping server")
	}

	stopWorkers()
	workers.Wait()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer shutdownCancel()
	if err := server.Shutdown(shutdownCtx); err != nil && !errors.Is(err, http.ErrServerClosed) {
		log.Printf("server shutdown error: %v", err)
	}
	log.Printf("server stopped")
}
