package shipment

import "pharmanet/ledger"

// Status of a shipment. IN_TRANSIT on creation, DELIVERED after the
// transporter confirms delivery; no other transitions exist.
type Status string

const (
	StatusInTransit Status = "IN_TRANSIT"
	StatusDelivered Status = "DELIVERED"
)

// Shipment reserves specific drug units for a buyer. The asset list is fixed
// at creation; delivery transfers ownership of every listed unit. Like the
// purchase order, the key derives from buyer CRN and drug name only, so a new
// shipment for the same pair overwrites the previous one.
type Shipment struct {
	ID             string   `json:"shipmentID"`
	Creator        string   `json:"creator"`
	Assets         []string `json:"assets"`
	TransporterCRN string   `json:"transporterCRN"`
	Status         Status   `json:"status"`
}

// ShipmentID derives the ledger key for a shipment.
func ShipmentID(buyerCRN, drugName string) string {
	return ledger.CompositeKey(ledger.NamespaceShipment, buyerCRN, drugName)
}
