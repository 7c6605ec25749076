package repository

import (
	"context"
	"fmt"

	"github.com/jmoiron/sqlx"

	"github.com/trimly/booking-api/internal/models"
)

// SpecialistRepository reads the specialist roster.
type SpecialistRepository struct {
	db *sqlx.DB
}

// NewSpecialistRepository constructs a SpecialistRepository.
func NewSpecialistRepository(db *sqlx.DB) *SpecialistRepository {
	return &SpecialistRepository{db: db}
}

// FindByID fetches a specialist by ID.
func (r *SpecialistRepository) FindByID(ctx context.Context, id string) (*models.Specialist, error) {
	const query = `SELECT id, shop_id, full_name, service_ids, active, created_at, updated_at FROM specialists WHERE id = $1`
	var specialist models.Specialist
	if err := r.db.GetContext(ctx, &specialist, query, id); err != nil {
		return nil, err
	}
	return &specialist, nil
}

// ListActiveByService returns the shop's active specialists qualified for a
// service, in stable creation order. The order is the load-balancing
// tie-break, so it must stay deterministic.
func (r *SpecialistRepository) ListActiveByService(ctx context.Context, shopID, serviceID string) ([]models.Specialist, error) {
	const query = `
SELECT id, shop_id, full_name, service_ids, active, created_at, updated_at
FROM specialists
WHERE shop_id = $1 AND active = TRUE AND $2 = ANY(service_ids)
ORDER BY created_at, id`
	var specialists []models.Specialist
	if err := r.db.SelectContext(ctx, &specialists, query, shopID, serviceID); err != nil {
		return nil, fmt.Errorf("list specialists for service %s: %w", serviceID, err)
	}
	return specialists, nil
}
