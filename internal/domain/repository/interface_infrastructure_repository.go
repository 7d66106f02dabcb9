package repository

import (
	"context"

	"RegionAccess-App/internal/domain/model"
)

type InfrastructureRepository interface {
	Create(ctx context.Context, point *model.InfraPoint) error
	CreateBatch(ctx context.Context, points []model.InfraPoint) error
	GetByID(ctx context.Context, ownerID, id string) (*model.InfraPoint, error)
	ListByOwner(ctx context.Context, ownerID string) ([]model.InfraPoint, error)
	ListWithinBounds(ctx context.Context, ownerID string, bounds *model.BoundingBox) ([]model.InfraPoint, error)
	Update(ctx context.Context, point *model.InfraPoint) error
	Delete(ctx context.Context, ownerID, id string) error
}
