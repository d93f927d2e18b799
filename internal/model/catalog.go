package model

import "github.com/shopspring/decimal"

// CatalogSnapshot is the read-only view of an external catalog resource at
// the moment it is consulted. The ledger never writes back to the catalog.
type CatalogSnapshot struct {
	ResourceID     string          `json:"resource_id"`
	Name           string          `json:"name"`
	Classification string          `json:"classification"`
	Unit           string          `json:"unit"`
	ReferencePrice decimal.Decimal `json:"reference_price"`
}
