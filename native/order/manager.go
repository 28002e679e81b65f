package order

import (
	"fmt"
	"strings"

	"pharmanet/core/events"
	"pharmanet/core/identity"
	"pharmanet/native/drug"
	"pharmanet/native/registry"
)

type orderState interface {
	CompaniesByCRN(crn string) ([]*registry.Company, error)
	DrugsByName(name string) ([]*drug.Asset, error)
	PurchaseOrderPut(po *PurchaseOrder) error
}

// Manager creates purchase orders between adjacent hierarchy levels.
type Manager struct {
	st      orderState
	emitter events.Emitter
}

// NewManager creates a purchase order manager backed by the provided state.
func NewManager(st orderState) *Manager {
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

// Create records a purchase order for quantity units of the drug. Quantity is
// advisory until shipment creation verifies it against live inventory; no
// stock is reserved here and ownership does not move.
func (m *Manager) Create(ctx identity.Context, buyerCRN, sellerCRN, drugName string, quantity int) (*PurchaseOrder, error) {
	if ctx.Org != identity.OrgDistributor && ctx.Org != identity.OrgRetailer {
		return nil, ErrUnauthorized
	}
	buyerCRN = strings.TrimSpace(buyerCRN)
	drugName = strings.TrimSpace(drugName)
	buyers, err := m.st.CompaniesByCRN(buyerCRN)
	if err != nil {
		return nil, err
	}
	if len(buyers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrBuyerNotFound, buyerCRN)
	}
	buyer := buyers[0]
	if buyer.HierarchyLevel == 1 {
		return nil, ErrBuyerIsManufacturer
	}
	sellers, err := m.st.CompaniesByCRN(strings.TrimSpace(sellerCRN))
	if err != nil {
		return nil, err
	}
	if len(sellers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrSellerNotFound, sellerCRN)
	}
	seller := sellers[0]
	drugs, err := m.st.DrugsByName(drugName)
	if err != nil {
		return nil, err
	}
	if len(drugs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrDrugNotFound, drugName)
	}
	heldBySeller := false
	for _, d := range drugs {
		if d.Owner == seller.ID {
			heldBySeller = true
			break
		}
	}
	if !heldBySeller {
		return nil, fmt.Errorf("%w: %s", ErrDrugNotHeldBySeller, drugName)
	}
	if seller.HierarchyLevel+1 != buyer.HierarchyLevel {
		return nil, fmt.Errorf("%w: cannot purchase from %s as a %s",
			ErrHierarchySkipped, seller.Role, buyer.Role)
	}
	po := &PurchaseOrder{
		ID:         PurchaseOrderID(buyerCRN, drugName),
		DrugName:   drugName,
		Buyer:      buyer.ID,
		Seller:     seller.ID,
		Quantity:   quantity,
		BuyerName:  buyer.Name,
		SellerName: seller.Name,
	}
	if err := m.st.PurchaseOrderPut(po); err != nil {
		return nil, err
	}
	m.emitter.Emit(PurchaseOrderCreatedEvent(po))
	return po, nil
}
