package rpc

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strconv"
	"strings"

	"pharmanet/core/identity"
	"pharmanet/core/state"
	"pharmanet/ledger"
	"pharmanet/native/common"
	"pharmanet/native/drug"
	"pharmanet/native/order"
	"pharmanet/native/registry"
	"pharmanet/native/retail"
	"pharmanet/native/shipment"
)

// callerParam is the declared identity of the invoking organization. The
// identity bootstrap (credential issuance and verification) is an external
// collaborator; this layer consumes its output the way the chain trusted the
// membership service provider.
type callerParam struct {
	Org string `json:"org"`
	ID  string `json:"id"`
}

func (c callerParam) context() (identity.Context, error) {
	org, ok := identity.ParseOrg(c.Org)
	if !ok {
		return identity.Context{}, fmt.Errorf("%w: unknown organization tag %q", errInvalidParams, c.Org)
	}
	return identity.Context{Org: org, CallerID: strings.TrimSpace(c.ID)}, nil
}

// identifiersValid rejects NUL bytes in values that become composite key
// attributes, so a JSON \u0000 cannot forge key structure.
func identifiersValid(values ...string) error {
	for _, value := range values {
		if strings.ContainsRune(value, 0) {
			return fmt.Errorf("%w: identifier contains NUL byte", errInvalidParams)
		}
	}
	return nil
}

// quantity accepts both a JSON number and a numeric string and coerces to int.
type quantity int

func (q *quantity) UnmarshalJSON(data []byte) error {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) > 0 && trimmed[0] == '"' {
		var s string
		if err := json.Unmarshal(trimmed, &s); err != nil {
			return err
		}
		n, err := strconv.Atoi(strings.TrimSpace(s))
		if err != nil {
			return fmt.Errorf("quantity: %w", err)
		}
		*q = quantity(n)
		return nil
	}
	var n int
	if err := json.Unmarshal(trimmed, &n); err != nil {
		return err
	}
	*q = quantity(n)
	return nil
}

// --- engine wiring (one set per ledger transaction) ---

func (s *Server) registryEngine(kv ledger.KV) *registry.Registry {
	eng := registry.NewRegistry(state.NewManager(kv))
	eng.SetEmitter(s.emitter)
	if s.nowFn != nil {
		eng.SetNowFunc(s.nowFn)
	}
	return eng
}

func (s *Server) drugEngine(kv ledger.KV) *drug.Store {
	eng := drug.NewStore(state.NewManager(kv))
	eng.SetEmitter(s.emitter)
	return eng
}

func (s *Server) orderEngine(kv ledger.KV) *order.Manager {
	eng := order.NewManager(state.NewManager(kv))
	eng.SetEmitter(s.emitter)
	return eng
}

func (s *Server) shipmentEngine(kv ledger.KV) *shipment.Manager {
	eng := shipment.NewManager(state.NewManager(kv))
	eng.SetEmitter(s.emitter)
	return eng
}

func (s *Server) retailEngine(kv ledger.KV) *retail.Finalizer {
	eng := retail.NewFinalizer(state.NewManager(kv))
	eng.SetEmitter(s.emitter)
	return eng
}

// --- handlers ---

type registerCompanyParams struct {
	Caller   callerParam `json:"caller"`
	CRN      string      `json:"crn"`
	Name     string      `json:"name"`
	Location string      `json:"location"`
	Role     string      `json:"role"`
}

func (s *Server) handleRegisterCompany(params []json.RawMessage) (interface{}, error) {
	var p registerCompanyParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := identifiersValid(p.CRN, p.Name); err != nil {
		return nil, err
	}
	ctx, err := p.Caller.context()
	if err != nil {
		return nil, err
	}
	if err := common.Guard(ctx.Org, common.OpRegisterCompany); err != nil {
		return nil, err
	}
	var company *registry.Company
	err = s.store.Update(func(kv ledger.KV) error {
		company, err = s.registryEngine(kv).Register(ctx, p.CRN, p.Name, p.Location, p.Role)
		return err
	})
	if err != nil {
		return nil, err
	}
	return company, nil
}

type lookupCompanyParams struct {
	Caller callerParam `json:"caller"`
	CRN    string      `json:"crn"`
}

func (s *Server) handleLookupCompany(params []json.RawMessage) (interface{}, error) {
	var p lookupCompanyParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := identifiersValid(p.CRN); err != nil {
		return nil, err
	}
	ctx, err := p.Caller.context()
	if err != nil {
		return nil, err
	}
	if err := common.Guard(ctx.Org, common.OpLookupCompany); err != nil {
		return nil, err
	}
	var companies []*registry.Company
	err = s.store.View(func(kv ledger.KV) error {
		companies, err = s.registryEngine(kv).LookupByCRN(p.CRN)
		return err
	})
	if err != nil {
		return nil, err
	}
	return companies, nil
}

type addDrugParams struct {
	Caller     callerParam `json:"caller"`
	Name       string      `json:"name"`
	SerialNo   string      `json:"serialNo"`
	MfgDate    string      `json:"mfgDate"`
	ExpDate    string      `json:"expDate"`
	CompanyCRN string      `json:"companyCRN"`
}

func (s *Server) handleAddDrug(params []json.RawMessage) (interface{}, error) {
	var p addDrugParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := identifiersValid(p.Name, p.SerialNo, p.CompanyCRN); err != nil {
		return nil, err
	}
	ctx, err := p.Caller.context()
	if err != nil {
		return nil, err
	}
	if err := common.Guard(ctx.Org, common.OpAddDrug); err != nil {
		return nil, err
	}
	var asset *drug.Asset
	err = s.store.Update(func(kv ledger.KV) error {
		asset, err = s.drugEngine(kv).Add(ctx, p.Name, p.SerialNo, p.MfgDate, p.ExpDate, p.CompanyCRN)
		return err
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

type createPOParams struct {
	Caller    callerParam `json:"caller"`
	BuyerCRN  string      `json:"buyerCRN"`
	SellerCRN string      `json:"sellerCRN"`
	DrugName  string      `json:"drugName"`
	Quantity  quantity    `json:"quantity"`
}

func (s *Server) handleCreatePO(params []json.RawMessage) (interface{}, error) {
	var p createPOParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := identifiersValid(p.BuyerCRN, p.SellerCRN, p.DrugName); err != nil {
		return nil, err
	}
	ctx, err := p.Caller.context()
	if err != nil {
		return nil, err
	}
	if err := common.Guard(ctx.Org, common.OpCreatePO); err != nil {
		return nil, err
	}
	var po *order.PurchaseOrder
	err = s.store.Update(func(kv ledger.KV) error {
		po, err = s.orderEngine(kv).Create(ctx, p.BuyerCRN, p.SellerCRN, p.DrugName, int(p.Quantity))
		return err
	})
	if err != nil {
		return nil, err
	}
	return po, nil
}

type createShipmentParams struct {
	Caller         callerParam `json:"caller"`
	BuyerCRN       string      `json:"buyerCRN"`
	DrugName       string      `json:"drugName"`
	AssetSerials   []string    `json:"assetSerials"`
	TransporterCRN string      `json:"transporterCRN"`
}

func (s *Server) handleCreateShipment(params []json.RawMessage) (interface{}, error) {
	var p createShipmentParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := identifiersValid(append([]string{p.BuyerCRN, p.DrugName, p.TransporterCRN}, p.AssetSerials...)...); err != nil {
		return nil, err
	}
	ctx, err := p.Caller.context()
	if err != nil {
		return nil, err
	}
	if err := common.Guard(ctx.Org, common.OpCreateShipment); err != nil {
		return nil, err
	}
	var sh *shipment.Shipment
	err = s.store.Update(func(kv ledger.KV) error {
		sh, err = s.shipmentEngine(kv).Create(ctx, p.BuyerCRN, p.DrugName, p.AssetSerials, p.TransporterCRN)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sh, nil
}

type updateShipmentParams struct {
	Caller         callerParam `json:"caller"`
	BuyerCRN       string      `json:"buyerCRN"`
	DrugName       string      `json:"drugName"`
	TransporterCRN string      `json:"transporterCRN"`
}

func (s *Server) handleUpdateShipment(params []json.RawMessage) (interface{}, error) {
	var p updateShipmentParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := identifiersValid(p.BuyerCRN, p.DrugName, p.TransporterCRN); err != nil {
		return nil, err
	}
	ctx, err := p.Caller.context()
	if err != nil {
		return nil, err
	}
	if err := common.Guard(ctx.Org, common.OpUpdateShipment); err != nil {
		return nil, err
	}
	var sh *shipment.Shipment
	err = s.store.Update(func(kv ledger.KV) error {
		sh, err = s.shipmentEngine(kv).Deliver(ctx, p.BuyerCRN, p.DrugName, p.TransporterCRN)
		return err
	})
	if err != nil {
		return nil, err
	}
	return sh, nil
}

type retailDrugParams struct {
	Caller      callerParam `json:"caller"`
	DrugName    string      `json:"drugName"`
	SerialNo    string      `json:"serialNo"`
	RetailerCRN string      `json:"retailerCRN"`
	ConsumerID  string      `json:"consumerId"`
}

func (s *Server) handleRetailDrug(params []json.RawMessage) (interface{}, error) {
	var p retailDrugParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := identifiersValid(p.DrugName, p.SerialNo, p.RetailerCRN); err != nil {
		return nil, err
	}
	ctx, err := p.Caller.context()
	if err != nil {
		return nil, err
	}
	if err := common.Guard(ctx.Org, common.OpRetailDrug); err != nil {
		return nil, err
	}
	var asset *drug.Asset
	err = s.store.Update(func(kv ledger.KV) error {
		asset, err = s.retailEngine(kv).Sell(ctx, p.DrugName, p.SerialNo, p.RetailerCRN, p.ConsumerID)
		return err
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

type drugQueryParams struct {
	Caller   callerParam `json:"caller"`
	DrugName string      `json:"drugName"`
	SerialNo string      `json:"serialNo"`
}

func (s *Server) handleViewDrugCurrentState(params []json.RawMessage) (interface{}, error) {
	var p drugQueryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := identifiersValid(p.DrugName, p.SerialNo); err != nil {
		return nil, err
	}
	ctx, err := p.Caller.context()
	if err != nil {
		return nil, err
	}
	if err := common.Guard(ctx.Org, common.OpViewDrugCurrentState); err != nil {
		return nil, err
	}
	var asset *drug.Asset
	err = s.store.View(func(kv ledger.KV) error {
		asset, err = s.drugEngine(kv).CurrentState(p.DrugName, p.SerialNo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return asset, nil
}

func (s *Server) handleViewHistory(params []json.RawMessage) (interface{}, error) {
	var p drugQueryParams
	if err := decodeParams(params, &p); err != nil {
		return nil, err
	}
	if err := identifiersValid(p.DrugName, p.SerialNo); err != nil {
		return nil, err
	}
	ctx, err := p.Caller.context()
	if err != nil {
		return nil, err
	}
	if err := common.Guard(ctx.Org, common.OpViewHistory); err != nil {
		return nil, err
	}
	var history []*drug.Asset
	err = s.store.View(func(kv ledger.KV) error {
		history, err = s.drugEngine(kv).History(p.DrugName, p.SerialNo)
		return err
	})
	if err != nil {
		return nil, err
	}
	return history, nil
}
