package drug

import "pharmanet/ledger"

// Asset is one serialized drug unit. Created once by a manufacturer; its owner
// changes on delivery and, terminally, on retail sale. Never deleted.
type Asset struct {
	ID           string   `json:"productID"`
	Name         string   `json:"name"`
	SerialNo     string   `json:"serialNo"`
	Manufacturer string   `json:"manufacturer"`
	MfgDate      string   `json:"manufacturingDate"`
	ExpDate      string   `json:"expiryDate"`
	Owner        string   `json:"owner"`
	Shipments    []string `json:"shipment"`
}

// AssetID derives the ledger key for a drug unit from its name and serial.
func AssetID(name, serialNo string) string {
	return ledger.CompositeKey(ledger.NamespaceDrug, name, serialNo)
}
