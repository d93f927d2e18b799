package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"go-stock-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// ItemRepository is the item store contract of the ledger. Save persists the
// updated totals together with the uncommitted movement delta, enforcing the
// optimistic version check; SaveAll does the same for several items as one
// unit of work (transfers depend on this).
type ItemRepository interface {
	FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error)
	FindByKey(ctx context.Context, key model.ItemKey) (*model.InventoryItem, error)
	List(ctx context.Context, projectID *uuid.UUID) ([]model.InventoryItem, error)
	Save(ctx context.Context, item *model.InventoryItem) error
	SaveAll(ctx context.Context, items ...*model.InventoryItem) error
	MovementsByItem(ctx context.Context, itemID uuid.UUID) ([]model.Movement, error)
}

type itemRepo struct {
	db *gorm.DB
}

func NewItemRepo(db *gorm.DB) ItemRepository {
	return &itemRepo{db}
}

func (r *itemRepo) FindByID(ctx context.Context, id uuid.UUID) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).First(&item, "id = ?", id).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: id %s", model.ErrItemNotFound, id)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) FindByKey(ctx context.Context, key model.ItemKey) (*model.InventoryItem, error) {
	var item model.InventoryItem
	err := r.db.WithContext(ctx).
		First(&item, "project_id = ? AND resource_id = ? AND unit = ? AND warehouse_id = ?",
			key.ProjectID, key.ResourceID, key.Unit, key.WarehouseID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, fmt.Errorf("%w: %s/%s/%s", model.ErrItemNotFound, key.ResourceID, key.Unit, key.WarehouseID)
	}
	if err != nil {
		return nil, err
	}
	return &item, nil
}

func (r *itemRepo) List(ctx context.Context, projectID *uuid.UUID) ([]model.InventoryItem, error) {
	var items []model.InventoryItem
	q := r.db.WithContext(ctx).Order("created_at ASC")
	if projectID != nil {
		q = q.Where("project_id = ?", *projectID)
	}
	err := q.Find(&items).Error
	return items, err
}

func (r *itemRepo) Save(ctx context.Context, item *model.InventoryItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return saveItem(tx, item)
	})
}

func (r *itemRepo) SaveAll(ctx context.Context, items ...*model.InventoryItem) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		for _, item := range items {
			if err := saveItem(tx, item); err != nil {
				return err
			}
		}
		return nil
	})
}

// saveItem writes the item totals guarded by the version token, inserts the
// uncommitted movements, and clears the delta. A stale version aborts with
// ErrConcurrencyConflict so the caller can reload and retry.
func saveItem(tx *gorm.DB, item *model.InventoryItem) error {
	res := tx.Model(&model.InventoryItem{}).
		Where("id = ? AND version = ?", item.ID, item.Version).
		Updates(map[string]interface{}{
			"quantity_on_hand": item.QuantityOnHand,
			"average_cost":     item.AverageCost,
			"version":          gorm.Expr("version + 1"),
			"updated_at":       time.Now(),
		})
	if res.Error != nil {
		return res.Error
	}

	if res.RowsAffected == 0 {
		var count int64
		if err := tx.Model(&model.InventoryItem{}).Where("id = ?", item.ID).Count(&count).Error; err != nil {
			return err
		}
		if count > 0 {
			return fmt.Errorf("%w: item %s at version %d", model.ErrConcurrencyConflict, item.ID, item.Version)
		}
		// First save of a newly constructed item.
		if err := tx.Create(item).Error; err != nil {
			return err
		}
	} else {
		item.Version++
	}

	if pending := item.UncommittedMovements(); len(pending) > 0 {
		if err := tx.Create(&pending).Error; err != nil {
			return err
		}
	}
	item.ClearUncommitted()
	return nil
}

func (r *itemRepo) MovementsByItem(ctx context.Context, itemID uuid.UUID) ([]model.Movement, error) {
	var movements []model.Movement
	err := r.db.WithContext(ctx).
		Where("item_id = ?", itemID).
		Order("created_at ASC").
		Find(&movements).Error
	return movements, err
}
