package service

import (
	"context"

	"go-stock-ledger/internal/model"

	"github.com/google/uuid"
)

// Collaborator contracts. The ledger reaches every external system through
// these; adapters live in internal/catalog, internal/approval and
// internal/events.

// CatalogGateway serves read-only snapshots of the external resource catalog.
// Implementations fail with model.ErrCatalogNotFound or
// model.ErrCatalogUnavailable.
type CatalogGateway interface {
	FetchSnapshot(ctx context.Context, resourceID, source string) (*model.CatalogSnapshot, error)
}

// WarehouseDirectory resolves the default receiving warehouse of a project.
// A nil warehouse with a nil error means none is configured.
type WarehouseDirectory interface {
	DefaultFor(ctx context.Context, projectID uuid.UUID) (*model.Warehouse, error)
}

// ApprovalGateway checks whether a cross-project transfer exception has been
// approved by the external workflow.
type ApprovalGateway interface {
	IsApproved(ctx context.Context, exceptionID uuid.UUID) (bool, error)
}

// TransferEventPublisher delivers cross-project transfer events to the
// accounting collaborator. Delivery guarantees belong to the implementation;
// the ledger treats publication as fire-and-forget.
type TransferEventPublisher interface {
	Publish(ctx context.Context, event model.CrossProjectTransferEvent) error
}
