package drug

import (
	"fmt"
	"strings"

	"pharmanet/core/events"
	"pharmanet/core/identity"
	"pharmanet/native/registry"
)

type assetState interface {
	CompaniesByCRN(crn string) ([]*registry.Company, error)
	DrugGet(name, serialNo string) (*Asset, bool, error)
	DrugsByName(name string) ([]*Asset, error)
	DrugPut(asset *Asset) error
	DrugHistory(name, serialNo string) ([]*Asset, error)
}

// Store creates drug units and reports their current and historical state.
type Store struct {
	st      assetState
	emitter events.Emitter
}

// NewStore creates a drug asset store backed by the provided state manager.
func NewStore(st assetState) *Store {
	return &Store{st: st, emitter: events.NoopEmitter{}}
}

// SetEmitter configures the event emitter. Passing nil resets it to a no-op.
func (s *Store) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		s.emitter = events.NoopEmitter{}
		return
	}
	s.emitter = emitter
}

// Add mints a new drug unit owned by the manufacturing company. The duplicate
// check scans by drug name rather than probing the key directly, matching the
// key-construction path used everywhere else.
func (s *Store) Add(ctx identity.Context, name, serialNo, mfgDate, expDate, companyCRN string) (*Asset, error) {
	if ctx.Org != identity.OrgManufacturer {
		return nil, ErrUnauthorized
	}
	name = strings.TrimSpace(name)
	serialNo = strings.TrimSpace(serialNo)
	if name == "" || serialNo == "" {
		return nil, ErrInvalidAsset
	}
	companies, err := s.st.CompaniesByCRN(strings.TrimSpace(companyCRN))
	if err != nil {
		return nil, err
	}
	if len(companies) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrCompanyNotFound, companyCRN)
	}
	manufacturer := companies[0]
	if manufacturer.Role != registry.RoleManufacturer {
		return nil, fmt.Errorf("%w: %s", ErrNotManufacturer, companyCRN)
	}
	id := AssetID(name, serialNo)
	siblings, err := s.st.DrugsByName(name)
	if err != nil {
		return nil, err
	}
	for _, sibling := range siblings {
		if sibling.ID == id {
			return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateAsset, name, serialNo)
		}
	}
	asset := &Asset{
		ID:           id,
		Name:         name,
		SerialNo:     serialNo,
		Manufacturer: manufacturer.ID,
		MfgDate:      strings.TrimSpace(mfgDate),
		ExpDate:      strings.TrimSpace(expDate),
		Owner:        manufacturer.ID,
		Shipments:    []string{},
	}
	if err := s.st.DrugPut(asset); err != nil {
		return nil, err
	}
	s.emitter.Emit(DrugAddedEvent(asset))
	return asset, nil
}

// CurrentState returns the latest record for the unit.
func (s *Store) CurrentState(name, serialNo string) (*Asset, error) {
	asset, ok, err := s.st.DrugGet(strings.TrimSpace(name), strings.TrimSpace(serialNo))
	if err != nil {
		return nil, err
	}
	if !ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrNotFound, name, serialNo)
	}
	return asset, nil
}

// History returns past snapshots of the unit from the ledger's change feed,
// newest first. An unknown unit yields an empty history.
func (s *Store) History(name, serialNo string) ([]*Asset, error) {
	return s.st.DrugHistory(strings.TrimSpace(name), strings.TrimSpace(serialNo))
}
