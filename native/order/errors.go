package order

import "errors"

var (
	ErrUnauthorized        = errors.New("order: only a distributor or retailer can create purchase orders")
	ErrBuyerNotFound       = errors.New("order: no buyer company exists with given CRN")
	ErrSellerNotFound      = errors.New("order: no seller company exists with given CRN")
	ErrBuyerIsManufacturer = errors.New("order: buyer cannot be a manufacturer")
	ErrDrugNotFound        = errors.New("order: no drug exists with given name")
	ErrDrugNotHeldBySeller = errors.New("order: drug not found with given seller")
	ErrHierarchySkipped    = errors.New("order: purchase must move exactly one hierarchy level")
)
