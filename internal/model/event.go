package model

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// CrossProjectTransferEvent is the sole notification an external accounting
// collaborator receives when material is loaned between projects. The ledger
// does not track or settle the resulting inter-project debt.
type CrossProjectTransferEvent struct {
	TransferID           uuid.UUID       `json:"transfer_id"`
	SourceProjectID      uuid.UUID       `json:"source_project_id"`
	DestinationProjectID uuid.UUID       `json:"destination_project_id"`
	ResourceID           string          `json:"resource_id"`
	Quantity             decimal.Decimal `json:"quantity"`
	TotalValue           decimal.Decimal `json:"total_value"`
	OccurredAt           time.Time       `json:"occurred_at"`
}
