package redisx

import "time"

const (
	// Dedup fast-path for consumed messages: dedup:{service}:{message_key}.
	// Source of truth is the processed_messages table; this only saves a
	// round-trip to Postgres on hot replays.
	KeyDedup = "dedup:%s:%s"

	// Cache for HTTP inventory reads: inventory:{product_id} -> StockItem JSON
	KeyInventory = "inventory:%s"
)

var (
	TTLDedup          = 48 * time.Hour
	TTLInventoryCache = 5 * time.Minute
)
