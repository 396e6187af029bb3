package main

import (
	"context"
	"log"
	"os"
	"os/signal"
	"syscall"

	"github.com/communityshop/go-inventory-service/internal/config"
	"github.com/communityshop/go-inventory-service/internal/inventory"
	kafkax "github.com/communityshop/go-inventory-service/internal/kafka"
	"github.com/communityshop/go-inventory-service/internal/postgres"
	"github.com/communityshop/go-inventory-service/internal/redisx"
	"github.com/joho/godotenv"
)

func main() {
	_ = godotenv.Load()
	cfg := config.Load()
	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()

	// DB
	db, err := postgres.Connect(ctx, cfg.PostgresDSN)
	if err != nil {
		log.Fatalf("db: %v", err)
	}
	defer db.Close()
	if err := postgres.Migrate(ctx, db); err != nil {
		log.Fatalf("migrate: %v", err)
	}

	// Redis
	rdb := redisx.New(cfg.RedisAddr)
	defer rdb.Close()

	// Outcome producer
	prod := kafkax.NewProducer(cfg.KafkaBrokers, inventory.TopicInventoryEvents, 1024)
	prod.Start(ctx)

	svc := &inventory.Service{
		Store:       &inventory.PGStore{DB: db},
		Redis:       rdb,
		Publisher:   &inventory.KafkaPublisher{Producer: prod},
		ServiceName: cfg.ServiceName,
	}

	topics := []string{inventory.TopicProductEvents, inventory.TopicCheckoutEvents}
	cons := kafkax.NewConsumer(cfg.KafkaBrokers, cfg.ConsumerGroup, topics)

	go func() {
		log.Printf("inventory consumer started: group=%s topics=%v", cfg.ConsumerGroup, topics)
		if err := cons.Start(ctx, svc.HandleMessage); err != nil {
			log.Printf("consumer exit: %v", err)
			cancel()
		}
	}()

	// graceful shutdown
	sig := make(chan os.Signal, 1)
	signal.Notify(sig, syscall.SIGINT, syscall.SIGTERM)
	<-sig
	log.Println("shutting down consumer...")
	cancel()
	prod.WaitClosed() // flush queued outcomes
}
