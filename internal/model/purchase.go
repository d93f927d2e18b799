package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Purchase and PurchaseLine are the slices of the purchasing workflow the
// ledger needs to receive stock. They are inputs, not entities the ledger
// owns; the purchase workflow persists them elsewhere.
type Purchase struct {
	ID        uuid.UUID `json:"id" validate:"uuid_required"`
	ProjectID uuid.UUID `json:"project_id" validate:"uuid_required"`
	Supplier  string    `json:"supplier" validate:"required"`
	Date      time.Time `json:"date"`
}

type PurchaseLine struct {
	ID           uuid.UUID       `json:"id" validate:"uuid_required"`
	ResourceID   string          `json:"resource_id" validate:"required"`
	Unit         string          `json:"unit"`
	Quantity     decimal.Decimal `json:"quantity" validate:"decimal_positive"`
	UnitPrice    decimal.Decimal `json:"unit_price" validate:"decimal_nonnegative"`
	BudgetLineID *uuid.UUID      `json:"budget_line_id,omitempty"`
}
