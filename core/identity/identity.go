package identity

import "strings"

// Org is the caller's declared organizational membership tag. It drives every
// authorization decision in the transaction logic.
type Org string

const (
	OrgManufacturer Org = "Manufacturer"
	OrgDistributor  Org = "Distributor"
	OrgRetailer     Org = "Retailer"
	OrgTransporter  Org = "Transporter"
	OrgConsumer     Org = "Consumer"
)

// Context carries the identity of one invocation: the organization tag used
// for authorization and a unique caller string recorded on audit fields. It is
// passed explicitly into every operation, never read from ambient state.
type Context struct {
	Org      Org
	CallerID string
}

// Valid reports whether the tag is one of the five recognized memberships.
func (o Org) Valid() bool {
	switch o {
	case OrgManufacturer, OrgDistributor, OrgRetailer, OrgTransporter, OrgConsumer:
		return true
	}
	return false
}

// ParseOrg resolves a declared membership tag. The match is case-sensitive;
// only surrounding whitespace is forgiven.
func ParseOrg(s string) (Org, bool) {
	org := Org(strings.TrimSpace(s))
	if !org.Valid() {
		return "", false
	}
	return org, true
}
