package repository

import (
	"context"
	"fmt"
	"sort"
	"sync"

	"RegionAccess-App/internal/domain/model"
	"RegionAccess-App/internal/domain/repository"
)

// MemoryInfrastructureRepository プロセス内に保持するインフラ地点リポジトリ
type MemoryInfrastructureRepository struct {
	mu     sync.RWMutex
	points map[string]map[string]model.InfraPoint // owner -> id -> point
}

func NewMemoryInfrastructureRepository() repository.InfrastructureRepository {
	return &MemoryInfrastructureRepository{
		points: make(map[string]map[string]model.InfraPoint),
	}
}

func (r *MemoryInfrastructureRepository) Create(ctx context.Context, point *model.InfraPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.insert(point)
}

// CreateBatch 1件でも重複があれば何も保存しない
func (r *MemoryInfrastructureRepository) CreateBatch(ctx context.Context, points []model.InfraPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	seen := make(map[string]bool, len(points))
	for i := range points {
		key := points[i].OwnerID + "/" + points[i].ID
		if seen[key] || r.exists(points[i].OwnerID, points[i].ID) {
			return fmt.Errorf("%w: %s", model.ErrInfraDuplicate, points[i].ID)
		}
		seen[key] = true
	}
	for i := range points {
		if err := r.insert(&points[i]); err != nil {
			return err
		}
	}
	return nil
}

func (r *MemoryInfrastructureRepository) exists(ownerID, id string) bool {
	_, ok := r.points[ownerID][id]
	return ok
}

func (r *MemoryInfrastructureRepository) insert(point *model.InfraPoint) error {
	if r.exists(point.OwnerID, point.ID) {
		return fmt.Errorf("%w: %s", model.ErrInfraDuplicate, point.ID)
	}
	owned, ok := r.points[point.OwnerID]
	if !ok {
		owned = make(map[string]model.InfraPoint)
		r.points[point.OwnerID] = owned
	}
	owned[point.ID] = *point
	return nil
}

func (r *MemoryInfrastructureRepository) GetByID(ctx context.Context, ownerID, id string) (*model.InfraPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	point, ok := r.points[ownerID][id]
	if !ok {
		return nil, fmt.Errorf("インフラ地点 %s: %w", id, model.ErrInfraNotFound)
	}
	return &point, nil
}

func (r *MemoryInfrastructureRepository) ListByOwner(ctx context.Context, ownerID string) ([]model.InfraPoint, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(ownerID, nil), nil
}

func (r *MemoryInfrastructureRepository) ListWithinBounds(ctx context.Context, ownerID string, bbox *model.BoundingBox) ([]model.InfraPoint, error) {
	if bbox == nil {
		return []model.InfraPoint{}, nil
	}
	bound := bbox.ToBound()

	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.sorted(ownerID, func(p *model.InfraPoint) bool {
		return WithinBound(bound, p)
	}), nil
}

// sorted 作成日時順（同時刻は ID 順）に並べた一覧
func (r *MemoryInfrastructureRepository) sorted(ownerID string, keep func(*model.InfraPoint) bool) []model.InfraPoint {
	result := make([]model.InfraPoint, 0, len(r.points[ownerID]))
	for _, p := range r.points[ownerID] {
		if keep != nil && !keep(&p) {
			continue
		}
		result = append(result, p)
	}
	sort.Slice(result, func(i, j int) bool {
		if result[i].CreatedAt.Equal(result[j].CreatedAt) {
			return result[i].ID < result[j].ID
		}
		return result[i].CreatedAt.Before(result[j].CreatedAt)
	})
	return result
}

func (r *MemoryInfrastructureRepository) Update(ctx context.Context, point *model.InfraPoint) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.exists(point.OwnerID, point.ID) {
		return fmt.Errorf("インフラ地点 %s: %w", point.ID, model.ErrInfraNotFound)
	}
	r.points[point.OwnerID][point.ID] = *point
	return nil
}

func (r *MemoryInfrastructureRepository) Delete(ctx context.Context, ownerID, id string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if !r.exists(ownerID, id) {
		return fmt.Errorf("インフラ地点 %s: %w", id, model.ErrInfraNotFound)
	}
	delete(r.points[ownerID], id)
	return nil
}
