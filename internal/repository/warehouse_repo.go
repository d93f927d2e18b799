package repository

import (
	"context"
	"errors"

	"go-stock-ledger/internal/model"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// WarehouseRepository backs the default-warehouse directory consulted by
// catalog reconciliation. DefaultFor returns nil when the project has none
// configured.
type WarehouseRepository interface {
	Create(ctx context.Context, w *model.Warehouse) error
	FindByProject(ctx context.Context, projectID uuid.UUID) ([]model.Warehouse, error)
	DefaultFor(ctx context.Context, projectID uuid.UUID) (*model.Warehouse, error)
}

type warehouseRepo struct {
	db *gorm.DB
}

func NewWarehouseRepo(db *gorm.DB) WarehouseRepository {
	return &warehouseRepo{db}
}

func (r *warehouseRepo) Create(ctx context.Context, w *model.Warehouse) error {
	return r.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if w.IsDefault {
			// Only one default per project.
			if err := tx.Model(&model.Warehouse{}).
				Where("project_id = ? AND is_default", w.ProjectID).
				Update("is_default", false).Error; err != nil {
				return err
			}
		}
		return tx.Create(w).Error
	})
}

func (r *warehouseRepo) FindByProject(ctx context.Context, projectID uuid.UUID) ([]model.Warehouse, error) {
	var warehouses []model.Warehouse
	err := r.db.WithContext(ctx).
		Where("project_id = ?", projectID).
		Order("created_at ASC").
		Find(&warehouses).Error
	return warehouses, err
}

func (r *warehouseRepo) DefaultFor(ctx context.Context, projectID uuid.UUID) (*model.Warehouse, error) {
	var w model.Warehouse
	err := r.db.WithContext(ctx).
		First(&w, "project_id = ? AND is_default", projectID).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}
	return &w, nil
}
