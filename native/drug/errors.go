package drug

import "errors"

var (
	ErrUnauthorized    = errors.New("drug: only a manufacturer can add drugs")
	ErrInvalidAsset    = errors.New("drug: name and serial number required")
	ErrCompanyNotFound = errors.New("drug: no company exists with given CRN")
	ErrNotManufacturer = errors.New("drug: company is not registered as a manufacturer")
	ErrDuplicateAsset  = errors.New("drug: a drug with this name and serial number already exists")
	ErrNotFound        = errors.New("drug: no drug exists with given name and serial number")
)
