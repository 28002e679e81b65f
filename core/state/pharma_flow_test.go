package state

import (
	"fmt"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"pharmanet/core/identity"
	"pharmanet/ledger"
	"pharmanet/native/drug"
	"pharmanet/native/order"
	"pharmanet/native/registry"
	"pharmanet/native/retail"
	"pharmanet/native/shipment"
)

var (
	mfgCtx   = identity.Context{Org: identity.OrgManufacturer, CallerID: "mfg-admin"}
	distCtx  = identity.Context{Org: identity.OrgDistributor, CallerID: "dist-admin"}
	retCtx   = identity.Context{Org: identity.OrgRetailer, CallerID: "ret-admin"}
	transCtx = identity.Context{Org: identity.OrgTransporter, CallerID: "trans-admin"}
)

func registerCompany(t *testing.T, store *ledger.Store, ctx identity.Context, crn, name, role string) *registry.Company {
	t.Helper()
	var company *registry.Company
	err := store.Update(func(kv ledger.KV) error {
		var err error
		company, err = registry.NewRegistry(NewManager(kv)).Register(ctx, crn, name, "Pune", role)
		return err
	})
	require.NoError(t, err)
	return company
}

// seedNetwork registers the four organizations of the reference scenario.
func seedNetwork(t *testing.T, store *ledger.Store) (acme, distco, retco *registry.Company) {
	t.Helper()
	acme = registerCompany(t, store, mfgCtx, "M1", "Acme", "Manufacturer")
	distco = registerCompany(t, store, distCtx, "D1", "DistCo", "Distributor")
	retco = registerCompany(t, store, retCtx, "R1", "RetCo", "Retailer")
	registerCompany(t, store, transCtx, "T1", "FastShip", "Transporter")
	return acme, distco, retco
}

func TestSupplyChainEndToEnd(t *testing.T) {
	store := ledger.NewStore(newTestDB(t))
	acme, distco, retco := seedNetwork(t, store)

	require.Equal(t, uint8(1), acme.HierarchyLevel)
	require.Equal(t, uint8(2), distco.HierarchyLevel)
	require.Equal(t, uint8(3), retco.HierarchyLevel)

	// Manufacturer mints a unit.
	var asset *drug.Asset
	err := store.Update(func(kv ledger.KV) error {
		var err error
		asset, err = drug.NewStore(NewManager(kv)).Add(mfgCtx, "Paracetamol", "SN001", "2026-01-01", "2028-01-01", "M1")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, acme.ID, asset.Owner)
	require.Empty(t, asset.Shipments)

	// Distributor orders one unit from the manufacturer.
	err = store.Update(func(kv ledger.KV) error {
		_, err := order.NewManager(NewManager(kv)).Create(distCtx, "D1", "M1", "Paracetamol", 1)
		return err
	})
	require.NoError(t, err)

	// Seller ships it.
	var sh *shipment.Shipment
	err = store.Update(func(kv ledger.KV) error {
		var err error
		sh, err = shipment.NewManager(NewManager(kv)).Create(mfgCtx, "D1", "Paracetamol", []string{"SN001"}, "T1")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, shipment.StatusInTransit, sh.Status)
	require.Equal(t, []string{drug.AssetID("Paracetamol", "SN001")}, sh.Assets)

	// Ownership is untouched until delivery.
	err = store.View(func(kv ledger.KV) error {
		current, err := drug.NewStore(NewManager(kv)).CurrentState("Paracetamol", "SN001")
		require.NoError(t, err)
		require.Equal(t, acme.ID, current.Owner)
		return nil
	})
	require.NoError(t, err)

	// Transporter delivers.
	err = store.Update(func(kv ledger.KV) error {
		var err error
		sh, err = shipment.NewManager(NewManager(kv)).Deliver(transCtx, "D1", "Paracetamol", "T1")
		return err
	})
	require.NoError(t, err)
	require.Equal(t, shipment.StatusDelivered, sh.Status)

	err = store.View(func(kv ledger.KV) error {
		ds := drug.NewStore(NewManager(kv))
		current, err := ds.CurrentState("Paracetamol", "SN001")
		require.NoError(t, err)
		require.Equal(t, distco.ID, current.Owner)
		require.Equal(t, []string{sh.ID}, current.Shipments)

		history, err := ds.History("Paracetamol", "SN001")
		require.NoError(t, err)
		require.Len(t, history, 2)
		require.Equal(t, distco.ID, history[0].Owner)
		require.Equal(t, acme.ID, history[1].Owner)
		return nil
	})
	require.NoError(t, err)

	// A direct manufacturer→retailer order skips the distributor level.
	err = store.Update(func(kv ledger.KV) error {
		_, err := order.NewManager(NewManager(kv)).Create(retCtx, "R1", "M1", "Paracetamol", 1)
		return err
	})
	require.ErrorIs(t, err, order.ErrHierarchySkipped)

	// Retailer orders from the distributor, the unit moves one more hop.
	err = store.Update(func(kv ledger.KV) error {
		_, err := order.NewManager(NewManager(kv)).Create(retCtx, "R1", "D1", "Paracetamol", 1)
		return err
	})
	require.NoError(t, err)
	err = store.Update(func(kv ledger.KV) error {
		_, err := shipment.NewManager(NewManager(kv)).Create(distCtx, "R1", "Paracetamol", []string{"SN001"}, "T1")
		return err
	})
	require.NoError(t, err)
	err = store.Update(func(kv ledger.KV) error {
		_, err := shipment.NewManager(NewManager(kv)).Deliver(transCtx, "R1", "Paracetamol", "T1")
		return err
	})
	require.NoError(t, err)

	// Terminal retail sale.
	err = store.Update(func(kv ledger.KV) error {
		sold, err := retail.NewFinalizer(NewManager(kv)).Sell(retCtx, "Paracetamol", "SN001", "R1", "AADHAAR-1234")
		if err != nil {
			return err
		}
		require.Equal(t, "AADHAAR-1234", sold.Owner)
		return nil
	})
	require.NoError(t, err)

	// The consumer identifier never resolves as a seller again.
	err = store.Update(func(kv ledger.KV) error {
		_, err := order.NewManager(NewManager(kv)).Create(distCtx, "D1", "AADHAAR-1234", "Paracetamol", 1)
		return err
	})
	require.ErrorIs(t, err, order.ErrSellerNotFound)
}

func TestFailedOperationLeavesNoPartialWrites(t *testing.T) {
	store := ledger.NewStore(newTestDB(t))
	acme, _, _ := seedNetwork(t, store)

	err := store.Update(func(kv ledger.KV) error {
		_, err := drug.NewStore(NewManager(kv)).Add(mfgCtx, "Paracetamol", "SN001", "", "", "M1")
		return err
	})
	require.NoError(t, err)
	err = store.Update(func(kv ledger.KV) error {
		_, err := order.NewManager(NewManager(kv)).Create(distCtx, "D1", "M1", "Paracetamol", 1)
		return err
	})
	require.NoError(t, err)
	err = store.Update(func(kv ledger.KV) error {
		_, err := shipment.NewManager(NewManager(kv)).Create(mfgCtx, "D1", "Paracetamol", []string{"SN001"}, "T1")
		return err
	})
	require.NoError(t, err)
	registerCompany(t, store, transCtx, "T2", "SlowShip", "Transporter")

	// Delivery by the wrong transporter fails after the shipment read; nothing
	// it touched may persist.
	err = store.Update(func(kv ledger.KV) error {
		_, err := shipment.NewManager(NewManager(kv)).Deliver(transCtx, "D1", "Paracetamol", "T2")
		return err
	})
	require.ErrorIs(t, err, shipment.ErrTransporterMismatch)

	err = store.View(func(kv ledger.KV) error {
		m := NewManager(kv)
		sh, ok, err := m.ShipmentGet("D1", "Paracetamol")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, shipment.StatusInTransit, sh.Status)

		current, ok, err := m.DrugGet("Paracetamol", "SN001")
		require.NoError(t, err)
		require.True(t, ok)
		require.Equal(t, acme.ID, current.Owner)
		require.Empty(t, current.Shipments)
		return nil
	})
	require.NoError(t, err)
}

func TestRacingRegistrationsAdmitOneCompanyPerCRN(t *testing.T) {
	store := ledger.NewStore(newTestDB(t))

	const racers = 8
	results := make(chan error, racers)
	var wg sync.WaitGroup
	wg.Add(racers)
	for i := 0; i < racers; i++ {
		go func(n int) {
			defer wg.Done()
			results <- store.Update(func(kv ledger.KV) error {
				_, err := registry.NewRegistry(NewManager(kv)).Register(
					mfgCtx, "M1", fmt.Sprintf("Acme-%d", n), "Pune", "Manufacturer")
				return err
			})
		}(i)
	}
	wg.Wait()
	close(results)

	succeeded := 0
	for err := range results {
		if err == nil {
			succeeded++
			continue
		}
		require.ErrorIs(t, err, registry.ErrDuplicateCRN)
	}
	require.Equal(t, 1, succeeded)

	err := store.View(func(kv ledger.KV) error {
		companies, err := NewManager(kv).CompaniesByCRN("M1")
		require.NoError(t, err)
		require.Len(t, companies, 1)
		return nil
	})
	require.NoError(t, err)
}

func TestRegisterDuplicateCRNAcrossNames(t *testing.T) {
	store := ledger.NewStore(newTestDB(t))
	registerCompany(t, store, mfgCtx, "M1", "Acme", "Manufacturer")

	err := store.Update(func(kv ledger.KV) error {
		_, err := registry.NewRegistry(NewManager(kv)).Register(mfgCtx, "M1", "Different Name", "Delhi", "Distributor")
		return err
	})
	require.ErrorIs(t, err, registry.ErrDuplicateCRN)
}
