package state

import (
	"encoding/json"
	"fmt"

	"pharmanet/ledger"
	"pharmanet/native/drug"
	"pharmanet/native/order"
	"pharmanet/native/registry"
	"pharmanet/native/shipment"
)

// Manager provides typed access to the records kept in the shared ledger
// keyspace. Every persisted value is a self-describing JSON record; the
// manager owns the encode/decode path so the engines only ever see structs.
// It satisfies the package-local state interfaces declared by each engine.
type Manager struct {
	kv ledger.KV
}

// NewManager creates a state manager operating on the provided ledger view.
func NewManager(kv ledger.KV) *Manager {
	return &Manager{kv: kv}
}

func (m *Manager) getJSON(key string, out interface{}) (bool, error) {
	raw, ok, err := m.kv.Get(key)
	if err != nil || !ok {
		return false, err
	}
	if err := json.Unmarshal(raw, out); err != nil {
		return false, fmt.Errorf("state: decode %s: %w", key, err)
	}
	return true, nil
}

func (m *Manager) putJSON(key string, value interface{}) error {
	raw, err := json.Marshal(value)
	if err != nil {
		return fmt.Errorf("state: encode %s: %w", key, err)
	}
	return m.kv.Put(key, raw)
}

// --- companies ---

func (m *Manager) CompanyPut(company *registry.Company) error {
	return m.putJSON(registry.CompanyID(company.CRN, company.Name), company)
}

func (m *Manager) CompanyGet(crn, name string) (*registry.Company, bool, error) {
	company := new(registry.Company)
	ok, err := m.getJSON(registry.CompanyID(crn, name), company)
	if err != nil || !ok {
		return nil, false, err
	}
	return company, true, nil
}

// CompaniesByCRN returns every company whose key starts with the CRN, in
// ledger scan order.
func (m *Manager) CompaniesByCRN(crn string) ([]*registry.Company, error) {
	entries, err := m.kv.ScanByPrefix(ledger.CompositePrefix(ledger.NamespaceCompany, crn))
	if err != nil {
		return nil, err
	}
	companies := make([]*registry.Company, 0, len(entries))
	for _, entry := range entries {
		company := new(registry.Company)
		if err := json.Unmarshal(entry.Value, company); err != nil {
			return nil, fmt.Errorf("state: decode %s: %w", entry.Key, err)
		}
		companies = append(companies, company)
	}
	return companies, nil
}

// --- drug assets ---

func (m *Manager) DrugPut(asset *drug.Asset) error {
	return m.putJSON(drug.AssetID(asset.Name, asset.SerialNo), asset)
}

func (m *Manager) DrugGet(name, serialNo string) (*drug.Asset, bool, error) {
	return m.DrugGetByID(drug.AssetID(name, serialNo))
}

// DrugGetByID fetches a unit by its full composite key, as recorded inside a
// shipment's asset list.
func (m *Manager) DrugGetByID(id string) (*drug.Asset, bool, error) {
	asset := new(drug.Asset)
	ok, err := m.getJSON(id, asset)
	if err != nil || !ok {
		return nil, false, err
	}
	return asset, true, nil
}

// DrugsByName returns every unit of the named drug in ledger scan order. This
// order is what shipment creation walks when matching serials positionally.
func (m *Manager) DrugsByName(name string) ([]*drug.Asset, error) {
	entries, err := m.kv.ScanByPrefix(ledger.CompositePrefix(ledger.NamespaceDrug, name))
	if err != nil {
		return nil, err
	}
	assets := make([]*drug.Asset, 0, len(entries))
	for _, entry := range entries {
		asset := new(drug.Asset)
		if err := json.Unmarshal(entry.Value, asset); err != nil {
			return nil, fmt.Errorf("state: decode %s: %w", entry.Key, err)
		}
		assets = append(assets, asset)
	}
	return assets, nil
}

// DrugHistory returns past snapshots of a unit, newest first, decoded from the
// ledger's per-key change feed.
func (m *Manager) DrugHistory(name, serialNo string) ([]*drug.Asset, error) {
	values, err := m.kv.History(drug.AssetID(name, serialNo))
	if err != nil {
		return nil, err
	}
	snapshots := make([]*drug.Asset, 0, len(values))
	for _, value := range values {
		asset := new(drug.Asset)
		if err := json.Unmarshal(value, asset); err != nil {
			return nil, fmt.Errorf("state: decode history %s/%s: %w", name, serialNo, err)
		}
		snapshots = append(snapshots, asset)
	}
	return snapshots, nil
}

// --- purchase orders ---

func (m *Manager) PurchaseOrderPut(po *order.PurchaseOrder) error {
	return m.putJSON(po.ID, po)
}

func (m *Manager) PurchaseOrderGet(buyerCRN, drugName string) (*order.PurchaseOrder, bool, error) {
	po := new(order.PurchaseOrder)
	ok, err := m.getJSON(order.PurchaseOrderID(buyerCRN, drugName), po)
	if err != nil || !ok {
		return nil, false, err
	}
	return po, true, nil
}

// --- shipments ---

func (m *Manager) ShipmentPut(s *shipment.Shipment) error {
	return m.putJSON(s.ID, s)
}

func (m *Manager) ShipmentGet(buyerCRN, drugName string) (*shipment.Shipment, bool, error) {
	s := new(shipment.Shipment)
	ok, err := m.getJSON(shipment.ShipmentID(buyerCRN, drugName), s)
	if err != nil || !ok {
		return nil, false, err
	}
	return s, true, nil
}
