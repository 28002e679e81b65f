package common

import (
	"errors"
	"fmt"

	"pharmanet/core/identity"
)

// Operation names checked by the dispatcher before any engine runs. Engines
// still enforce their own caller preconditions; this table answers the
// narrower question of which organization may invoke which operation at all.
const (
	OpRegisterCompany      = "registerCompany"
	OpLookupCompany        = "lookupCompany"
	OpAddDrug              = "addDrug"
	OpCreatePO             = "createPO"
	OpCreateShipment       = "createShipment"
	OpUpdateShipment       = "updateShipment"
	OpRetailDrug           = "retailDrug"
	OpViewDrugCurrentState = "viewDrugCurrentState"
	OpViewHistory          = "viewHistory"
)

// ErrOperationNotPermitted is returned when the allow-list rejects a caller.
var ErrOperationNotPermitted = errors.New("dispatch: operation not permitted for caller organization")

// allowlist mirrors the operation surface each organization held in the
// per-organization contracts this table replaces. Loaded once, never mutated.
var allowlist = map[identity.Org]map[string]bool{
	identity.OrgManufacturer: {
		OpRegisterCompany:      true,
		OpLookupCompany:        true,
		OpAddDrug:              true,
		OpCreateShipment:       true,
		OpViewDrugCurrentState: true,
		OpViewHistory:          true,
	},
	identity.OrgDistributor: {
		OpRegisterCompany:      true,
		OpLookupCompany:        true,
		OpCreatePO:             true,
		OpCreateShipment:       true,
		OpViewDrugCurrentState: true,
		OpViewHistory:          true,
	},
	identity.OrgRetailer: {
		OpRegisterCompany:      true,
		OpLookupCompany:        true,
		OpCreatePO:             true,
		OpCreateShipment:       true,
		OpRetailDrug:           true,
		OpViewDrugCurrentState: true,
		OpViewHistory:          true,
	},
	identity.OrgTransporter: {
		OpRegisterCompany:      true,
		OpLookupCompany:        true,
		OpUpdateShipment:       true,
		OpViewDrugCurrentState: true,
		OpViewHistory:          true,
	},
	// Consumers hold no operations; they appear on the ledger only as opaque
	// owner identifiers written by the retail sale.
	identity.OrgConsumer: {},
}

// Allowed reports whether the organization may invoke the operation.
func Allowed(org identity.Org, operation string) bool {
	return allowlist[org][operation]
}

// Guard returns ErrOperationNotPermitted when the allow-list rejects the call.
func Guard(org identity.Org, operation string) error {
	if !Allowed(org, operation) {
		return fmt.Errorf("%w: %s/%s", ErrOperationNotPermitted, org, operation)
	}
	return nil
}
