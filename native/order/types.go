package order

import "pharmanet/ledger"

// PurchaseOrder is a buy order between two adjacent hierarchy levels. The key
// derives from buyer CRN and drug name only, so a later order for the same
// pair overwrites the earlier one; createShipment always reads the latest.
type PurchaseOrder struct {
	ID         string `json:"poID"`
	DrugName   string `json:"drugName"`
	Buyer      string `json:"buyer"`
	Seller     string `json:"seller"`
	Quantity   int    `json:"quantity"`
	BuyerName  string `json:"buyerName"`
	SellerName string `json:"sellerName"`
}

// PurchaseOrderID derives the ledger key for a purchase order.
func PurchaseOrderID(buyerCRN, drugName string) string {
	return ledger.CompositeKey(ledger.NamespacePO, buyerCRN, drugName)
}
