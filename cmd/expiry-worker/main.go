package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/arenaops/court-reservations/internal/adapters/crdb"
	mongoadapter "github.com/arenaops/court-reservations/internal/adapters/mongo"
	redisadapter "github.com/arenaops/court-reservations/internal/adapters/redis"
	"github.com/arenaops/court-reservations/internal/booking"
	"github.com/arenaops/court-reservations/internal/config"
	"github.com/arenaops/court-reservations/internal/observability"
	"github.com/jackc/pgx/v5/pgxpool"
	redisclient "github.com/redis/go-redis/v9"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// The expiry worker is the traffic-independent safety net: the API reclaims
// lazily on reads and writes, this binary sweeps the whole table on a fixed
// interval.
func main() {
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("failed to load config: %v", err)
	}

	shutdownOtel, err := observability.SetupOTel(context.Background(), cfg)
	if err != nil {
		log.Fatalf("failed to setup otel: %v", err)
	}
	defer shutdownOtel()

	logger := observability.NewLogger()

	pool, err := pgxpool.New(context.Background(), cfg.PGDSN)
	if err != nil {
		log.Fatalf("failed to connect to postgres: %v", err)
	}
	defer pool.Close()
	repo := crdb.NewRepository(pool)

	mongoClient, err := mongo.Connect(context.Background(), options.Client().ApplyURI(cfg.MongoURI))
	if err != nil {
		log.Fatalf("failed to connect to mongo: %v", err)
	}
	defer mongoClient.Disconnect(context.Background())
	mongoDB := mongoClient.Database("crs")
	catalog := mongoadapter.NewCatalogRepository(mongoDB, logger)
	audit := mongoadapter.NewAuditLogger(mongoDB, logger)

	redisClient := redisclient.NewClient(&redisclient.Options{Addr: cfg.RedisAddr})
	cart := redisadapter.NewCartTracker(redisClient)

	svc := booking.NewService(repo, catalog, cart, audit, logger, cfg)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	go run(ctx, svc, logger, cfg.SweepInterval)

	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	logger.Info("Shutdown expiry worker")
}

func run(ctx context.Context, svc *booking.Service, logger observability.Logger, interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := svc.Sweep(ctx, nil); err != nil {
				logger.Error("sweep failed", err)
			}
		}
	}
}
