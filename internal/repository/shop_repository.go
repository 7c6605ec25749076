package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/trimly/booking-api/internal/models"
)

// ShopRepository reads shop records.
type ShopRepository struct {
	db *sqlx.DB
}

// NewShopRepository constructs a ShopRepository.
func NewShopRepository(db *sqlx.DB) *ShopRepository {
	return &ShopRepository{db: db}
}

// FindByID fetches a shop by ID.
func (r *ShopRepository) FindByID(ctx context.Context, id string) (*models.Shop, error) {
	const query = `SELECT id, name, opening_time, closing_time, active, created_at, updated_at FROM shops WHERE id = $1`
	var shop models.Shop
	if err := r.db.GetContext(ctx, &shop, query, id); err != nil {
		return nil, err
	}
	return &shop, nil
}
