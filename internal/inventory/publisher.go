package inventory

import (
	"time"

	kafkax "github.com/communityshop/go-inventory-service/internal/kafka"
	kafkago "github.com/segmentio/kafka-go"
)

// OutcomePublisher emits one outcome event per evaluated reservation.
type OutcomePublisher interface {
	Publish(out Outcome)
}

// KafkaPublisher serializes outcomes onto the inventory events topic, keyed
// by order id. Delivery is best effort: the producer logs failed writes and
// the triggering message stays processed either way.
type KafkaPublisher struct {
	Producer *kafkax.Producer
}

func (p *KafkaPublisher) Publish(out Outcome) {
	ts := time.Now().UTC().Format(time.RFC3339)

	var value []byte
	eventType := EventReserved
	if out.Reserved {
		value = kafkax.MustMarshal(ReservedEvent{
			Type:      EventReserved,
			OrderID:   out.OrderID,
			UserID:    out.UserID,
			Timestamp: ts,
		})
	} else {
		eventType = EventReservationFailed
		value = kafkax.MustMarshal(ReservationFailedEvent{
			Type:      EventReservationFailed,
			OrderID:   out.OrderID,
			UserID:    out.UserID,
			Reason:    out.Reason,
			Timestamp: ts,
		})
	}

	p.Producer.Publish(PartitionKey(out.OrderID), value,
		kafkago.Header{Key: "x-event-type", Value: []byte(eventType)},
	)
}
