package shipment

import (
	"strconv"
	"strings"

	"pharmanet/core/events"
)

const (
	EventTypeShipmentCreated   = "pharma.shipment.created"
	EventTypeShipmentDelivered = "pharma.shipment.delivered"
)

func shipmentEvent(eventType string, s *Shipment) events.Event {
	return events.Event{
		Type: eventType,
		Attributes: map[string]string{
			"shipmentId":  s.ID,
			"creator":     s.Creator,
			"transporter": s.TransporterCRN,
			"status":      string(s.Status),
			"assetCount":  strconv.Itoa(len(s.Assets)),
			"assets":      strings.Join(s.Assets, ","),
		},
	}
}

// ShipmentCreatedEvent returns the canonical event payload for a new shipment.
func ShipmentCreatedEvent(s *Shipment) events.Event {
	return shipmentEvent(EventTypeShipmentCreated, s)
}

// ShipmentDeliveredEvent returns the event payload emitted once delivery has
// transferred ownership of every listed unit.
func ShipmentDeliveredEvent(s *Shipment) events.Event {
	return shipmentEvent(EventTypeShipmentDelivered, s)
}
