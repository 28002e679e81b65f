package retail

import (
	"errors"
	"fmt"
	"strings"

	"pharmanet/core/events"
	"pharmanet/core/identity"
	"pharmanet/native/drug"
	"pharmanet/native/registry"
)

var (
	ErrUnauthorized     = errors.New("retail: only a retailer can sell drugs")
	ErrRetailerNotFound = errors.New("retail: no retailer company exists with given CRN")
	ErrNotOwner         = errors.New("retail: retailer does not own this drug")
	ErrConsumerRequired = errors.New("retail: consumer identifier required")
)

type retailState interface {
	CompaniesByCRN(crn string) ([]*registry.Company, error)
	DrugGet(name, serialNo string) (*drug.Asset, bool, error)
	DrugPut(asset *drug.Asset) error
}

// Finalizer performs the terminal sale of a drug unit to an end consumer.
type Finalizer struct {
	st      retailState
	emitter events.Emitter
}

// NewFinalizer creates a retail finalizer backed by the provided state.
func NewFinalizer(st retailState) *Finalizer {
	return &Finalizer{st: st, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (f *Finalizer) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		f.emitter = events.NoopEmitter{}
		return
	}
	f.emitter = emitter
}

// Sell transfers the unit to an opaque consumer identifier. The transition is
// terminal: a consumer identifier never resolves through the company registry,
// so no later order or shipment can move the unit again.
func (f *Finalizer) Sell(ctx identity.Context, drugName, serialNo, retailerCRN, consumerID string) (*drug.Asset, error) {
	if ctx.Org != identity.OrgRetailer {
		return nil, ErrUnauthorized
	}
	consumerID = strings.TrimSpace(consumerID)
	if consumerID == "" {
		return nil, ErrConsumerRequired
	}
	retailers, err := f.st.CompaniesByCRN(strings.TrimSpace(retailerCRN))
	if err != nil {
		return nil, err
	}
	if len(retailers) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrRetailerNotFound, retailerCRN)
	}
	retailer := retailers[0]
	asset, ok, err := f.st.DrugGet(strings.TrimSpace(drugName), strings.TrimSpace(serialNo))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", drug.ErrNotFound, drugName, serialNo)
	}
	if asset.Owner != retailer.ID {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotOwner, drugName, serialNo)
	}
	asset.Owner = consumerID
	if err := f.st.DrugPut(asset); err != nil {
		return nil, err
	}
	f.emitter.Emit(drug.DrugRetailedEvent(asset, retailer.ID))
	return asset, nil
}
