package job

import (
	"context"
	"log"
	"time"

	"admitpredict/internal/config"
	"admitpredict/internal/service"
)

// OrderTimeoutJob is the reconciliation sweep for abandoned checkouts:
// payment orders stuck in created status past the configured timeout
// are marked failed so they cannot be completed later.
type OrderTimeoutJob struct {
	orderService *service.OrderService
	maxAge       time.Duration
	stopCh       chan struct{}
	interval     time.Duration
	batchSize    int
}

func NewOrderTimeoutJob(orderService *service.OrderService, cfg *config.Config) *OrderTimeoutJob {
	return &OrderTimeoutJob{
		orderService: orderService,
		maxAge:       time.Duration(cfg.Business.OrderTimeoutMinutes) * time.Minute,
		stopCh:       make(chan struct{}),
		interval:     time.Minute,
		batchSize:    100,
	}
}

func (j *OrderTimeoutJob) Start(ctx context.Context) {
	log.Println("[OrderTimeoutJob] started")

	ticker := time.NewTicker(j.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			log.Println("[OrderTimeoutJob] context cancelled, exiting")
			return
		case <-j.stopCh:
			log.Println("[OrderTimeoutJob] stopped")
			return
		case <-ticker.C:
			j.expireStaleOrders(ctx)
		}
	}
}

func (j *OrderTimeoutJob) Stop() {
	close(j.stopCh)
}

func (j *OrderTimeoutJob) expireStaleOrders(ctx context.Context) {
	expired, err := j.orderService.ExpireStale(ctx, j.maxAge, j.batchSize)
	if err != nil {
		log.Printf("[OrderTimeoutJob] sweep failed: %v", err)
		return
	}
	if expired > 0 {
		log.Printf("[OrderTimeoutJob] expired %d stale orders", expired)
	}
}
