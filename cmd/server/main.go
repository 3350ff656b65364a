package main

import (
	"context"
	"database/sql"
	"errors"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	_ "github.com/lib/pq"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/events/kafka"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/interfaces"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/models/events"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/processor"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/queue"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/reconcile"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/storage/memory"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/storage/postgres"
	"github.com/sheikh-saqib/transfer-reconciliation-service/internal/transfer"
)

func main() {
	cfg := loadConfig()

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	store := newStore(cfg)
	notifier := newNotifier(cfg)
	gateway := processor.NewClient(cfg.ProcessorBaseURL, cfg.ProcessorAPIKey)

	service := transfer.NewService(store, gateway, notifier)
	worker := reconcile.NewWorker(store, gateway, notifier)

	jobQueue := queue.New(worker, reconcile.DefaultPolicy(), cfg.QueueWorkers, cfg.QueueBuffer)
	jobQueue.Start(ctx)

	scheduler := reconcile.NewScheduler(store, jobQueue)
	go scheduler.Run(ctx)

	srv := &http.Server{
		Addr:    ":" + cfg.Port,
		Handler: newRouter(service),
	}

	go func() {
		log.Printf("[Server] starting on :%s", cfg.Port)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			log.Fatalf("[Server] listen error: %v", err)
		}
	}()

	<-ctx.Done()
	log.Println("[Server] shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := srv.Shutdown(shutdownCtx); err != nil {
		log.Printf("[Server] shutdown error: %v", err)
	}
	jobQueue.Wait()
}

func newStore(cfg config) interfaces.TransactionStore {
	if cfg.DatabaseURL == "" {
		log.Println("[Server] DATABASE_URL not set, using in-memory store")
		return memory.NewMemoryTransactionStore()
	}

	db, err := sql.Open("postgres", cfg.DatabaseURL)
	if err != nil {
		log.Fatalf("[Server] cannot open database: %v", err)
	}
	if err := db.Ping(); err != nil {
		log.Fatalf("[Server] cannot connect to database: %v", err)
	}

	store, err := postgres.NewPostgresTransactionStore(db)
	if err != nil {
		log.Fatalf("[Server] cannot initialize store: %v", err)
	}
	log.Println("[Server] connected to database")
	return store
}

func newNotifier(cfg config) interfaces.Notifier {
	if len(cfg.KafkaBrokers) == 0 {
		log.Println("[Server] KAFKA_BROKERS not set, logging notifications instead")
		return logNotifier{}
	}
	return kafka.NewNotifier(cfg.KafkaBrokers, cfg.KafkaTopic)
}

// logNotifier is the dev fallback when no broker is configured.
type logNotifier struct{}

func (logNotifier) Send(ctx context.Context, note events.TransactionNotification) {
	log.Printf("[Notifier] transaction %s is %s (%s %s)", note.TransactionID, note.Status, note.Amount, note.Currency)
}
