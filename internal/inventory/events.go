package inventory

import (
	"encoding/json"
	"fmt"
)

// Wire values of the "type" discriminator, shared with the catalog and
// checkout services.
const (
	EventProductCreated    = "ProductCreatedEvent"
	EventCheckoutInitiated = "CheckoutInitiatedEvent"
	EventReserved          = "InventoryReservedEvent"
	EventReservationFailed = "InventoryReservationFailedEvent"
)

// InboundEvent is the decoded form of one consumed message: exactly one of
// ProductCreated, CheckoutInitiated or Unrecognized.
type InboundEvent interface{ inboundEvent() }

type ProductCreated struct {
	ProductID       string  `json:"productId"`
	SKU             string  `json:"sku"`
	Name            string  `json:"name"`
	Price           float64 `json:"price"`
	InitialQuantity int     `json:"initialQuantity"`
}

type LineItem struct {
	ProductID string `json:"productId"`
	Quantity  int    `json:"quantity"`
}

type CheckoutInitiated struct {
	OrderID string     `json:"orderId"`
	UserID  string     `json:"userId"`
	Items   []LineItem `json:"items"`
}

// Unrecognized carries the raw discriminator of a well-formed message whose
// type this service does not handle.
type Unrecognized struct {
	Type string
}

func (ProductCreated) inboundEvent()    {}
func (CheckoutInitiated) inboundEvent() {}
func (Unrecognized) inboundEvent()      {}

// DecodeEvent parses a raw message body into its event variant. A non-nil
// error means the payload itself is malformed; an unknown discriminator is
// not an error and comes back as Unrecognized.
func DecodeEvent(b []byte) (InboundEvent, error) {
	var head struct {
		Type string `json:"type"`
	}
	if err := json.Unmarshal(b, &head); err != nil {
		return nil, fmt.Errorf("decode event: %w", err)
	}

	switch head.Type {
	case EventProductCreated:
		var ev ProductCreated
		if err := json.Unmarshal(b, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		return ev, nil
	case EventCheckoutInitiated:
		var ev CheckoutInitiated
		if err := json.Unmarshal(b, &ev); err != nil {
			return nil, fmt.Errorf("decode %s: %w", head.Type, err)
		}
		return ev, nil
	default:
		return Unrecognized{Type: head.Type}, nil
	}
}

// ---- Outbound payloads ----

type ReservedEvent struct {
	Type      string `json:"type"`
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	Timestamp string `json:"timestamp"` // RFC3339
}

type ReservationFailedEvent struct {
	Type      string `json:"type"`
	OrderID   string `json:"orderId"`
	UserID    string `json:"userId"`
	Reason    string `json:"reason"`
	Timestamp string `json:"timestamp"` // RFC3339
}
