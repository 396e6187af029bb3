package inventory

import "time"

// StockItem is one persisted stock row. product_id is unique; quantity never
// goes below zero (enforced by the engine and a CHECK constraint).
type StockItem struct {
	ID        string    `json:"id"`
	ProductID string    `json:"productId"`
	Quantity  int       `json:"quantity"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

type UpdateStockRequest struct {
	Quantity int `json:"quantity"`
}

// Outcome is the result of evaluating one reservation request. Reason is set
// only when Reserved is false.
type Outcome struct {
	Reserved bool
	OrderID  string
	UserID   string
	Reason   string
}
