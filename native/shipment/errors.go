package shipment

import "errors"

var (
	ErrUnauthorizedCreate      = errors.New("shipment: only a manufacturer, distributor or retailer can create shipments")
	ErrUnauthorizedDeliver     = errors.New("shipment: only a transporter can update shipments")
	ErrBuyerNotFound           = errors.New("shipment: no buyer company exists with given CRN")
	ErrBuyerIsManufacturer     = errors.New("shipment: buyer cannot be a manufacturer")
	ErrTransporterNotFound     = errors.New("shipment: no transporter company exists with given CRN")
	ErrNoPurchaseOrder         = errors.New("shipment: no purchase order exists for drug and buyer")
	ErrAssetCountMismatch      = errors.New("shipment: asset list length must equal the purchase order quantity")
	ErrDrugNotFound            = errors.New("shipment: no drug exists with given name")
	ErrSellerOwnershipMismatch = errors.New("shipment: drug is not owned by the purchase order seller")
	ErrInsufficientStock       = errors.New("shipment: listed serials do not cover the purchase order quantity")
	ErrNotFound                = errors.New("shipment: no shipment exists for drug and buyer")
	ErrTransporterMismatch     = errors.New("shipment: transporter CRN does not match this shipment")
	ErrAssetMissing            = errors.New("shipment: shipment references an unknown drug unit")
)
