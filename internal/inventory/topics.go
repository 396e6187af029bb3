package inventory

const (
	TopicProductEvents   = "product.events"
	TopicCheckoutEvents  = "checkout.events"
	TopicInventoryEvents = "inventory.events"
)

// Partition key = order_id, so every outcome for one order keeps its order.
func PartitionKey(orderID string) []byte { return []byte(orderID) }
