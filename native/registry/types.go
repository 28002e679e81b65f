package registry

import (
	"strings"

	"pharmanet/ledger"
)

// Role is a company's declared function in the supply chain. The set is closed
// and matched case-sensitively.
type Role string

const (
	RoleManufacturer Role = "Manufacturer"
	RoleDistributor  Role = "Distributor"
	RoleRetailer     Role = "Retailer"
	RoleTransporter  Role = "Transporter"
)

// hierarchyLevels ranks the custody chain. Transporters carry no rank; custody
// moves strictly one level at a time between the ranked roles.
var hierarchyLevels = map[Role]uint8{
	RoleManufacturer: 1,
	RoleDistributor:  2,
	RoleRetailer:     3,
}

// ParseRole resolves a role string against the closed set.
func ParseRole(s string) (Role, bool) {
	role := Role(strings.TrimSpace(s))
	switch role {
	case RoleManufacturer, RoleDistributor, RoleRetailer, RoleTransporter:
		return role, true
	}
	return "", false
}

// HierarchyLevel returns the rank for the role, or 0 when the role is unranked.
func (r Role) HierarchyLevel() uint8 { return hierarchyLevels[r] }

// Company is one registered organization. Records are immutable after
// registration.
type Company struct {
	ID             string `json:"companyID"`
	CRN            string `json:"crn"`
	Name           string `json:"name"`
	Location       string `json:"location"`
	Role           Role   `json:"organisationRole"`
	HierarchyLevel uint8  `json:"hierarchyKey,omitempty"`
	RegisteredBy   string `json:"registeredBy"`
	RegisteredAt   int64  `json:"registeredAt"`
}

// CompanyID derives the ledger key for a company from its CRN and name.
func CompanyID(crn, name string) string {
	return ledger.CompositeKey(ledger.NamespaceCompany, crn, name)
}
