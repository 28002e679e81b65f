package drug

import "pharmanet/core/events"

const (
	EventTypeDrugAdded    = "pharma.drug.added"
	EventTypeDrugRetailed = "pharma.drug.retailed"
)

// DrugAddedEvent returns the canonical event payload for a newly minted drug
// unit.
func DrugAddedEvent(a *Asset) events.Event {
	return events.Event{
		Type: EventTypeDrugAdded,
		Attributes: map[string]string{
			"productId":    a.ID,
			"name":         a.Name,
			"serialNo":     a.SerialNo,
			"manufacturer": a.Manufacturer,
		},
	}
}

// DrugRetailedEvent returns the event payload emitted when a unit is sold to a
// consumer. Emitted by the retail engine; the type lives here with the asset.
func DrugRetailedEvent(a *Asset, retailerID string) events.Event {
	return events.Event{
		Type: EventTypeDrugRetailed,
		Attributes: map[string]string{
			"productId": a.ID,
			"retailer":  retailerID,
			"owner":     a.Owner,
		},
	}
}
