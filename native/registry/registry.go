package registry

import (
	"fmt"
	"strings"
	"time"

	"pharmanet/core/events"
	"pharmanet/core/identity"
)

type registryState interface {
	CompanyGet(crn, name string) (*Company, bool, error)
	CompaniesByCRN(crn string) ([]*Company, error)
	CompanyPut(company *Company) error
}

// Registry manages registration and lookup of supply-chain organizations.
type Registry struct {
	st      registryState
	emitter events.Emitter
	nowFn   func() int64
}

// NewRegistry creates a registry backed by the provided state manager.
func NewRegistry(st registryState) *Registry {
	return &Registry{
		st:      st,
		emitter: events.NoopEmitter{},
		nowFn:   func() int64 { return time.Now().Unix() },
	}
}

// SetEmitter configures the event emitter used to broadcast registrations.
// Passing nil resets the emitter to a no-op implementation.
func (r *Registry) SetEmitter(emitter events.Emitter) {
	if emitter == nil {
		r.emitter = events.NoopEmitter{}
		return
	}
	r.emitter = emitter
}

// SetNowFunc overrides the time source used for deterministic testing.
func (r *Registry) SetNowFunc(now func() int64) {
	if now == nil {
		r.nowFn = func() int64 { return time.Now().Unix() }
		return
	}
	r.nowFn = now
}

// Register records a new company on the ledger. The CRN-prefix lookup is the
// authoritative duplicate guard; the exact-key check behind it can only fire
// if a record was written without passing through this path.
func (r *Registry) Register(ctx identity.Context, crn, name, location, role string) (*Company, error) {
	if ctx.Org == identity.OrgConsumer {
		return nil, ErrUnauthorizedCaller
	}
	parsedRole, ok := ParseRole(role)
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrInvalidRole, role)
	}
	crn = strings.TrimSpace(crn)
	name = strings.TrimSpace(name)
	if crn == "" || name == "" {
		return nil, ErrInvalidCompany
	}
	existing, err := r.st.CompaniesByCRN(crn)
	if err != nil {
		return nil, err
	}
	if len(existing) > 0 {
		return nil, fmt.Errorf("%w: %s", ErrDuplicateCRN, crn)
	}
	if _, ok, err := r.st.CompanyGet(crn, name); err != nil {
		return nil, err
	} else if ok {
		return nil, fmt.Errorf("%w: %s/%s", ErrDuplicateCompany, crn, name)
	}
	company := &Company{
		ID:             CompanyID(crn, name),
		CRN:            crn,
		Name:           name,
		Location:       strings.TrimSpace(location),
		Role:           parsedRole,
		HierarchyLevel: parsedRole.HierarchyLevel(),
		RegisteredBy:   ctx.CallerID,
		RegisteredAt:   r.nowFn(),
	}
	if err := r.st.CompanyPut(company); err != nil {
		return nil, err
	}
	r.emitter.Emit(CompanyRegisteredEvent(company))
	return company, nil
}

// LookupByCRN returns every company registered under the CRN. An empty result
// means not found; more than one entry is a data anomaly the duplicate guard
// normally prevents.
func (r *Registry) LookupByCRN(crn string) ([]*Company, error) {
	return r.st.CompaniesByCRN(strings.TrimSpace(crn))
}
