package registry

import "errors"

var (
	ErrUnauthorizedCaller = errors.New("registry: consumer identities may not register companies")
	ErrInvalidRole        = errors.New("registry: invalid organisation role")
	ErrInvalidCompany     = errors.New("registry: company CRN and name required")
	ErrDuplicateCRN       = errors.New("registry: a company with this CRN already exists")
	ErrDuplicateCompany   = errors.New("registry: a company with this CRN and name already exists")
)
