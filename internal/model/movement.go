package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type MovementType string

const (
	MovementEntryPurchase   MovementType = "ENTRY_PURCHASE"
	MovementExitConsumption MovementType = "EXIT_CONSUMPTION"
	MovementAdjustment      MovementType = "ADJUSTMENT"
	MovementTransferOut     MovementType = "TRANSFER_OUT"
	MovementTransferIn      MovementType = "TRANSFER_IN"
	MovementLoanOut         MovementType = "LOAN_OUT"
	MovementLoanIn          MovementType = "LOAN_IN"
)

// MinJustificationLen is the shortest accepted adjustment justification.
const MinJustificationLen = 20

// Movement is one kardex entry. Quantity is always stored positive; direction
// is implied by the type. Movements are append-only: once produced by an
// aggregate operation they are persisted and never edited or deleted.
type Movement struct {
	ID             uuid.UUID       `gorm:"type:uuid;primary_key" json:"id"`
	ItemID         uuid.UUID       `gorm:"type:uuid;index;not null" json:"item_id"`
	Type           MovementType    `gorm:"type:varchar(20);not null" json:"type"`
	Quantity       decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"quantity"`
	UnitCost       decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"unit_cost"`
	TotalCost      decimal.Decimal `gorm:"type:decimal(20,6);not null" json:"total_cost"` // Quantity * UnitCost, exact
	PurchaseLineID *uuid.UUID      `gorm:"type:uuid;index" json:"purchase_line_id,omitempty"`
	RequisitionID  *uuid.UUID      `gorm:"type:uuid;index" json:"requisition_id,omitempty"`
	BudgetLineID   *uuid.UUID      `gorm:"type:uuid" json:"budget_line_id,omitempty"`
	TransferID     *uuid.UUID      `gorm:"type:uuid;index" json:"transfer_id,omitempty"`
	Reference      string          `gorm:"type:text;not null" json:"reference"`
	CreatedAt      time.Time       `json:"created_at"`
}

// IsEntry reports whether the movement adds stock.
func (m *Movement) IsEntry() bool {
	switch m.Type {
	case MovementEntryPurchase, MovementAdjustment, MovementTransferIn, MovementLoanIn:
		return true
	}
	return false
}

// IsExit reports whether the movement removes stock.
func (m *Movement) IsExit() bool {
	return !m.IsEntry()
}

// newMovement is the single construction point for kardex entries. Inputs are
// assumed validated by the aggregate operation that calls it.
func newMovement(itemID uuid.UUID, typ MovementType, quantity, unitCost decimal.Decimal, reference string) *Movement {
	return &Movement{
		ID:        uuid.New(),
		ItemID:    itemID,
		Type:      typ,
		Quantity:  quantity,
		UnitCost:  unitCost,
		TotalCost: quantity.Mul(unitCost),
		Reference: reference,
		CreatedAt: time.Now(),
	}
}
