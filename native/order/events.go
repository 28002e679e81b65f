package order

import (
	"strconv"

	"pharmanet/core/events"
)

const EventTypePurchaseOrderCreated = "pharma.po.created"

// PurchaseOrderCreatedEvent returns the canonical event payload for a new
// purchase order.
func PurchaseOrderCreatedEvent(po *PurchaseOrder) events.Event {
	return events.Event{
		Type: EventTypePurchaseOrderCreated,
		Attributes: map[string]string{
			"poId":     po.ID,
			"drugName": po.DrugName,
			"buyer":    po.Buyer,
			"seller":   po.Seller,
			"quantity": strconv.Itoa(po.Quantity),
		},
	}
}
