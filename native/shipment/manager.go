package shipment

import (
	"fmt"
	"strings"

	"pharmanet/core/events"
	"pharmanet/core/identity"
	"pharmanet/native/drug"
	"pharmanet/native/order"
	"pharmanet/native/registry"
)

type shipmentState interface {
	CompaniesByCRN(crn string) ([]*registry.Company, error)
	PurchaseOrderGet(buyerCRN, drugName string) (*order.PurchaseOrder, bool, error)
	DrugsByName(name string) ([]*drug.Asset, error)
	DrugGetByID(id string) (*drug.Asset, bool, error)
	DrugPut(asset *drug.Asset) error
	ShipmentGet(buyerCRN, drugName string) (*Shipment, bool, error)
	ShipmentPut(s *Shipment) error
}

// Manager reserves drug units into shipments and finalizes delivery. Delivery
// is the only place org-to-org ownership actually transfers.
type Manager struct {
	st      shipmentState
	emitter events.Emitter
}

// NewManager creates a shipment manager backed by the provided state.
func NewManager(st shipmentState) *Manager {
	return &Manager{st: st, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (m *Manager) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		m.emitter = events.NoopEmitter{}
		return
	}
	m.emitter = emitter
}

// Create reserves units against the purchase order keyed by buyer and drug.
// Matching is positional: the candidate assets are walked in ledger scan order
// and each seller-owned asset is compared against the serial at the same
// position in assetSerials, stopping once the order quantity is reached.
func (m *Manager) Create(ctx identity.Context, buyerCRN, drugName string, assetSerials []string, transporterCRN string) (*Shipment, error) {
	switch ctx.Org {
	case identity.OrgManufacturer, identity.OrgDistributor, identity.OrgRetailer:
	default:
		return nil, ErrUnauthorizedCreate
	}
	buyerCRN = strings.TrimSpace(buyerCRN)
	drugName = strings.TrimSpace(drugName)
	transporterCRN = strings.TrimSpace(transporterCRN)
	buyers, err := m.st.CompaniesByCRN(buyerCRN)
	if err != nil {
		return nil, err
	}
	if len(buyers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBuyerNotFound, buyerCRN)
	}
	if buyers[0].HierarchyLevel == 1 {
		return nil, ErrBuyerIsManufacturer
	}
	transporters, err := m.st.CompaniesByCRN(transporterCRN)
	if err != nil {
		return nil, err
	}
	if len(transporters) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTransporterNotFound, transporterCRN)
	}
	po, ok, err := m.st.PurchaseOrderGet(buyerCRN, drugName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNoPurchaseOrder, drugName, buyerCRN)
	}
	if len(assetSerials) != po.Quantity {
		return nil, fmt.Errorf("%w: got %d serials for quantity %d",
			ErrAssetCountMismatch, len(assetSerials), po.Quantity)
	}
	candidates, err := m.st.DrugsByName(drugName)
	if err != nil {
		return nil, err
	}
	if len(candidates) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDrugNotFound, drugName)
	}
	sellerOwnsAny := false
	assets := make([]string, 0, po.Quantity)
	for i, candidate := range candidates {
		if candidate.Owner == po.Seller {
			sellerOwnsAny = true
			if i < len(assetSerials) && assetSerials[i] == candidate.SerialNo {
				assets = append(assets, candidate.ID)
			}
			if len(assets) == po.Quantity {
				break
			}
		}
	}
	if !sellerOwnsAny {
		return nil, fmt.Errorf("%w: %s", ErrSellerOwnershipMismatch, drugName)
	}
	if len(assets) < po.Quantity {
		return nil, fmt.Errorf("%w: matched %d of %d", ErrInsufficientStock, len(assets), po.Quantity)
	}
	s := &Shipment{
		ID:             ShipmentID(buyerCRN, drugName),
		Creator:        po.Seller,
		Assets:         assets,
		TransporterCRN: transporterCRN,
		Status:         StatusInTransit,
	}
	if err := m.st.ShipmentPut(s); err != nil {
		return nil, err
	}
	m.emitter.Emit(ShipmentCreatedEvent(s))
	return s, nil
}

// Deliver marks the shipment delivered and transfers every reserved unit to
// the buyer, appending the shipment id to each unit's custody trail.
func (m *Manager) Deliver(ctx identity.Context, buyerCRN, drugName, transporterCRN string) (*Shipment, error) {
	if ctx.Org != identity.OrgTransporter {
		return nil, ErrUnauthorizedDeliver
	}
	buyerCRN = strings.TrimSpace(buyerCRN)
	drugName = strings.TrimSpace(drugName)
	transporterCRN = strings.TrimSpace(transporterCRN)
	buyers, err := m.st.CompaniesByCRN(buyerCRN)
	if err != nil {
		return nil, err
	}
	if len(buyers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBuyerNotFound, buyerCRN)
	}
	buyer := buyers[0]
	transporters, err := m.st.CompaniesByCRN(transporterCRN)
	if err != nil {
		return nil, err
	}
	if len(transporters) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrTransporterNotFound, transporterCRN)
	}
	s, ok, err := m.st.ShipmentGet(buyerCRN, drugName)
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, drugName, buyerCRN)
	}
	if s.TransporterCRN != transporterCRN {
		return nil, fmt.Errorf("%w: %s", ErrTransporterMismatch, transporterCRN)
	}
	for _, assetID := range s.Assets {
		asset, ok, err := m.st.DrugGetByID(assetID)
		if err != nil {
			return nil, err
		}
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrAssetMissing, assetID)
		}
		asset.Owner = buyer.ID
		asset.Shipments = append(asset.Shipments, s.ID)
		if err := m.st.DrugPut(asset); err != nil {
			return nil, err
		}
	}
	s.Status = StatusDelivered
	if err := m.st.ShipmentPut(s); err != nil {
		return nil, err
	}
	m.emitter.Emit(ShipmentDeliveredEvent(s))
	return s, nil
}
