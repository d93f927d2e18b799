package events

import (
	"context"

	"go-stock-ledger/internal/model"
)

// NopPublisher discards events. Used when no broker is configured.
type NopPublisher struct{}

func (NopPublisher) Publish(_ context.Context, _ model.CrossProjectTransferEvent) error {
	return nil
}
