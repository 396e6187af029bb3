package inventory

import (
	"context"
	"fmt"
	"log"

	"github.com/communityshop/go-inventory-service/internal/redisx"
	"github.com/redis/go-redis/v9"
	kafkago "github.com/segmentio/kafka-go"
)

// Service handles the inbound event stream: product ingestion and checkout
// reservations. One instance is driven by the sequential consumer loop, so
// handlers never run concurrently with each other.
type Service struct {
	Store       Store
	Redis       *redis.Client
	Publisher   OutcomePublisher
	ServiceName string
}

// messageKey derives the idempotency key for one delivery. Inbound events
// carry no event id, so the log coordinates stand in for one: a redelivery of
// the same offset is the same message.
func messageKey(m kafkago.Message) string {
	return fmt.Sprintf("%s:%d:%d", m.Topic, m.Partition, m.Offset)
}

// HandleMessage is the consumer handler. It always returns nil: every path,
// including decode failures and unknown types, is terminal for the message
// and the offset must advance.
func (s *Service) HandleMessage(ctx context.Context, m kafkago.Message) error {
	ev, err := DecodeEvent(m.Value)
	if err != nil {
		log.Printf("dropping malformed message topic=%s offset=%d: %v", m.Topic, m.Offset, err)
		return nil
	}

	key := messageKey(m)
	switch e := ev.(type) {
	case ProductCreated:
		s.handleProductCreated(ctx, e, key)
	case CheckoutInitiated:
		s.handleCheckout(ctx, e, key)
	case Unrecognized:
		log.Printf("dropping unrecognized event type %q topic=%s offset=%d", e.Type, m.Topic, m.Offset)
	}
	return nil
}

func (s *Service) handleProductCreated(ctx context.Context, ev ProductCreated, key string) {
	if s.seenBefore(ctx, key) {
		return
	}

	tx, err := s.Store.Begin(ctx)
	if err != nil {
		log.Printf("begin transaction: %v", err)
		return
	}
	defer tx.Rollback(ctx)

	fresh, err := tx.MarkProcessed(ctx, key)
	if err != nil {
		log.Printf("mark processed %s: %v", key, err)
		return
	}
	if !fresh {
		log.Printf("skipping replayed message %s", key)
		return
	}

	if err := tx.UpsertAdd(ctx, ev.ProductID, ev.InitialQuantity); err != nil {
		log.Printf("upsert inventory for product %s: %v", ev.ProductID, err)
		return
	}
	if err := tx.Commit(ctx); err != nil {
		log.Printf("commit product %s: %v", ev.ProductID, err)
		return
	}

	s.markSeen(ctx, key)
	log.Printf("processed %s product=%s qty=%d", EventProductCreated, ev.ProductID, ev.InitialQuantity)
}

func (s *Service) handleCheckout(ctx context.Context, ev CheckoutInitiated, key string) {
	if s.seenBefore(ctx, key) {
		return
	}

	tx, err := s.Store.Begin(ctx)
	if err != nil {
		// no transaction, no outcome: the order is dropped like a decode failure
		log.Printf("begin transaction for order %s: %v", ev.OrderID, err)
		return
	}
	defer tx.Rollback(ctx)

	fresh, err := tx.MarkProcessed(ctx, key)
	if err != nil {
		log.Printf("mark processed %s: %v", key, err)
		return
	}
	if !fresh {
		log.Printf("skipping replayed order %s (%s)", ev.OrderID, key)
		return
	}

	out := Reserve(ctx, ev, tx)
	if out.Reserved {
		if err := tx.Commit(ctx); err != nil {
			out = Outcome{
				OrderID: ev.OrderID,
				UserID:  ev.UserID,
				Reason:  fmt.Sprintf("failed to commit transaction: %v", err),
			}
		} else {
			s.markSeen(ctx, key)
		}
	}

	s.Publisher.Publish(out)
	log.Printf("order %s reserved=%t", ev.OrderID, out.Reserved)
}

// Redis fast-path in front of the processed_messages table. Errors are
// ignored: Postgres stays the source of truth for replays.
func (s *Service) seenBefore(ctx context.Context, key string) bool {
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, key)
	seen, _ := redisx.Exists(ctx, s.Redis, dkey)
	if seen {
		log.Printf("skipping replayed message %s (redis)", key)
	}
	return seen
}

func (s *Service) markSeen(ctx context.Context, key string) {
	dkey := fmt.Sprintf(redisx.KeyDedup, s.ServiceName, key)
	_ = s.Redis.Set(ctx, dkey, "1", redisx.TTLDedup).Err()
}
