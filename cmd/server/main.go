package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"admitpredict/internal/config"
	"admitpredict/internal/gateway"
	"admitpredict/internal/handler"
	"admitpredict/internal/infrastructure/cache"
	"admitpredict/internal/infrastructure/database"
	"admitpredict/internal/infrastructure/mq"
	"admitpredict/internal/job"
	"admitpredict/internal/repository"
	"admitpredict/internal/service"
	"admitpredict/pkg/idgen"
)

func main() {
	cfg := config.LoadConfig("config/config.yaml")

	idgen.Init(1)

	db := database.InitMySQL(&cfg.MySQL)
	redisClient := cache.InitRedis(&cfg.Redis)

	mq.InitKafka(&cfg.Kafka)
	defer mq.CloseKafka()

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// background jobs: outbox delivery and the stale-order sweep
	outboxSender := job.NewOutboxSender(db, cfg)
	go outboxSender.Start(ctx)

	orderService := service.NewOrderService(
		repository.NewOrderRepository(db),
		repository.NewUserRepository(db),
		repository.NewOutboxRepository(db),
		gateway.NewRazorpayGateway(&cfg.Razorpay),
		cfg.Kafka.Topic.PaymentEvents,
	)
	orderTimeoutJob := job.NewOrderTimeoutJob(orderService, cfg)
	go orderTimeoutJob.Start(ctx)

	router := handler.SetupRouter(db, redisClient, cfg)

	server := &http.Server{
		Addr:    fmt.Sprintf(":%d", cfg.Server.Port),
		Handler: router,
	}

	go func() {
		log.Printf("listening on port %d", cfg.Server.Port)
		if err := server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			log.Fatalf("server failed: %v", err)
		}
	}()

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	log.Println("shutting down...")

	cancel()

	shutdownCtx, shutdownCancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer shutdownCancel()

	if err := server.Shutdown(shutdownCtx); err != nil {
		log.Printf("shutdown error: %v", err)
	}

	log.Println("server stopped")
}
