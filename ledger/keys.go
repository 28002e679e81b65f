package ledger

import "strings"

// Namespaces for every record family kept on the ledger. Each record is
// addressed by the namespace joined with an ordered attribute tuple.
const (
	NamespaceCompany  = "company"
	NamespaceDrug     = "drug"
	NamespacePO       = "po"
	NamespaceShipment = "shipment"
)

// separator delimits the namespace and each attribute. Attribute values must
// not contain it; the RPC layer rejects NUL bytes in identifier parameters
// before any key is built.
const separator = "\x00"

// CompositeKey joins a namespace with an ordered attribute tuple into the
// deterministic storage key used across the ledger keyspace.
func CompositeKey(namespace string, attrs ...string) string {
	var b strings.Builder
	b.WriteString(namespace)
	for _, attr := range attrs {
		b.WriteString(separator)
		b.WriteString(attr)
	}
	return b.String()
}

// CompositePrefix builds a scan prefix that matches every key whose leading
// attributes equal attrs exactly. The trailing separator prevents a partial
// attribute (e.g. CRN "M1") from matching a longer one ("M10").
func CompositePrefix(namespace string, attrs ...string) string {
	return CompositeKey(namespace, attrs...) + separator
}

// SplitKey returns the namespace and attribute tuple encoded in a composite key.
func SplitKey(key string) (namespace string, attrs []string) {
	parts := strings.Split(key, separator)
	if len(parts) == 0 {
		return "", nil
	}
	return parts[0], parts[1:]
}
