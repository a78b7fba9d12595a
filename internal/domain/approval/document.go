package approval

import (
	"github.com/procura/backoffice/internal/domain/shared"
)

// DocumentKind is the closed set of document types that own approval chains.
// Each kind carries its own ordinal table (request type name to sequence
// position) and a permission key prefix for the authorization collaborator.
type DocumentKind string

const (
	// KindPurchaseRequest is a departmental purchase request
	KindPurchaseRequest DocumentKind = "PURCHASE_REQUEST"
	// KindStockTransfer is a warehouse-to-warehouse transfer order
	KindStockTransfer DocumentKind = "STOCK_TRANSFER"
	// KindStockCount is a physical stock count sheet
	KindStockCount DocumentKind = "STOCK_COUNT"
	// KindDigitalDocument is a general sign-off document
	KindDigitalDocument DocumentKind = "DIGITAL_DOCUMENT"
)

// String returns the string representation of DocumentKind
func (k DocumentKind) String() string {
	return string(k)
}

// IsValid returns true if the kind belongs to the closed set
func (k DocumentKind) IsValid() bool {
	switch k {
	case KindPurchaseRequest, KindStockTransfer, KindStockCount, KindDigitalDocument:
		return true
	}
	return false
}

// ordinalTables maps each document kind's step role names to their required
// sequence positions. Roles absent from a kind's table are invalid for it.
var ordinalTables = map[DocumentKind]map[string]int{
	KindPurchaseRequest: {
		"initial":     1,
		"check":       2,
		"review":      3,
		"approve":     4,
		"acknowledge": 5,
	},
	KindStockTransfer: {
		"approve": 1,
		"receive": 2,
	},
	KindStockCount: {
		"check":   1,
		"approve": 2,
	},
	KindDigitalDocument: {
		"review":      1,
		"approve":     2,
		"acknowledge": 3,
	},
}

// ResolveOrdinal returns the sequence position of a request type within this
// document kind's chain
func (k DocumentKind) ResolveOrdinal(requestType string) (int, error) {
	table, ok := ordinalTables[k]
	if !ok {
		return 0, shared.NewDomainError("INVALID_DOCUMENT_KIND", "Unknown approvable document kind")
	}
	ordinal, ok := table[requestType]
	if !ok {
		return 0, shared.NewDomainError("INVALID_REQUEST_TYPE", "Unknown request type for document kind")
	}
	return ordinal, nil
}

// PermissionKey returns the authorization permission name for acting on a step
// of this kind, e.g. "purchase_request.approve"
func (k DocumentKind) PermissionKey(requestType string) string {
	switch k {
	case KindPurchaseRequest:
		return "purchase_request." + requestType
	case KindStockTransfer:
		return "stock_transfer." + requestType
	case KindStockCount:
		return "stock_count." + requestType
	case KindDigitalDocument:
		return "digital_document." + requestType
	}
	return ""
}
