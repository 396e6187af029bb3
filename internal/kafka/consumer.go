package kafka

import (
	"context"
	"log"

	"github.com/segmentio/kafka-go"
)

// Handler returns nil when the message is fully processed (success or a
// terminal drop) and its offset may be committed. A non-nil error leaves the
// offset uncommitted so the message is redelivered after a restart.
type Handler func(ctx context.Context, m kafka.Message) error

type Consumer struct {
	r *kafka.Reader
}

// NewConsumer subscribes one group reader to several topics. Messages are
// handed to the handler strictly one at a time: the next fetch does not
// happen until the previous message reached a terminal state, so outbound
// events keep the inbound per-partition order.
func NewConsumer(brokers []string, group string, topics []string) *Consumer {
	r := kafka.NewReader(kafka.ReaderConfig{
		Brokers:        brokers,
		GroupID:        group,
		GroupTopics:    topics,
		MinBytes:       1,
		MaxBytes:       10e6,
		CommitInterval: 0, // manual commit
	})
	return &Consumer{r: r}
}

func (c *Consumer) Start(ctx context.Context, h Handler) error {
	defer c.r.Close()

	for {
		m, err := c.r.FetchMessage(ctx)
		if err != nil {
			select {
			case <-ctx.Done():
				return nil
			default:
				return err
			}
		}

		if err := h(ctx, m); err != nil {
			log.Printf("handler error topic=%s partition=%d offset=%d: %v", m.Topic, m.Partition, m.Offset, err)
			continue
		}
		if err := c.r.CommitMessages(ctx, m); err != nil {
			log.Printf("commit offset topic=%s partition=%d offset=%d: %v", m.Topic, m.Partition, m.Offset, err)
		}
	}
}
