package inventory

import (
	"context"
	"fmt"
)

const ReasonInsufficient = "Insufficient inventory"

// Reserve decides one checkout reservation inside the supplied transaction.
//
// Phase one walks the line items in request order and reads each quantity
// with a locking read; the first missing row, short stock or read error marks
// the whole request insufficient and stops the walk. Only when every item
// passed does phase two apply the decrements, so either all rows change or
// none do. Reserve never commits or rolls back: the caller finalizes the
// transaction based on the outcome.
func Reserve(ctx context.Context, req CheckoutInitiated, tx Tx) Outcome {
	for _, it := range req.Items {
		qty, found, err := tx.GetQuantity(ctx, it.ProductID)
		if err != nil || !found || qty < it.Quantity {
			return Outcome{
				OrderID: req.OrderID,
				UserID:  req.UserID,
				Reason:  ReasonInsufficient,
			}
		}
	}

	for _, it := range req.Items {
		if err := tx.Decrement(ctx, it.ProductID, it.Quantity); err != nil {
			return Outcome{
				OrderID: req.OrderID,
				UserID:  req.UserID,
				Reason:  fmt.Sprintf("failed to update inventory for product %s: %v", it.ProductID, err),
			}
		}
	}

	return Outcome{Reserved: true, OrderID: req.OrderID, UserID: req.UserID}
}
