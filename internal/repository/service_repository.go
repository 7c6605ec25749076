package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trimly/booking-api/internal/models"
)

// ServiceRepository reads the service catalog.
type ServiceRepository struct {
	db *sqlx.DB
}

// NewServiceRepository constructs a ServiceRepository.
func NewServiceRepository(db *sqlx.DB) *ServiceRepository {
	return &ServiceRepository{db: db}
}

// ListActiveByIDs returns the shop's active services matching the given ids.
// Callers compare the result size against the request to detect unknown or
// inactive ids.
func (r *ServiceRepository) ListActiveByIDs(ctx context.Context, shopID string, ids []string) ([]models.Service, error) {
	if len(ids) == 0 {
		return nil, nil
	}

	query, args, err := sqlx.In(
		`SELECT id, shop_id, name, duration_minutes, priority, dependency_ids, active, created_at, updated_at
		 FROM services WHERE shop_id = ? AND active = TRUE AND id IN (?)`, shopID, ids)
	if err != nil {
		return nil, fmt.Errorf("build services query: %w", err)
	}
	query = r.db.Rebind(query)

	var services []models.Service
	if err := r.db.SelectContext(ctx, &services, query, args...); err != nil {
		return nil, fmt.Errorf("list services by ids: %w", err)
	}
	return services, nil
}

// FindByID fetches a single service regardless of the active flag.
func (r *ServiceRepository) FindByID(ctx context.Context, id string) (*models.Service, error) {
	const query = `SELECT id, shop_id, name, duration_minutes, priority, dependency_ids, active, created_at, updated_at FROM services WHERE id = $1`
	var service models.Service
	if err := r.db.GetContext(ctx, &service, query, id); err != nil {
		return nil, err
	}
	return &service, nil
}
