package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/vetlink/vetlink-api/internal/models"
)

// ProviderRepository reads provider records owned by the profile service.
type ProviderRepository struct {
	db *sqlx.DB
}

// NewProviderRepository creates a new provider repository.
func NewProviderRepository(db *sqlx.DB) *ProviderRepository {
	return &ProviderRepository{db: db}
}

// FindByID loads a provider by id.
func (r *ProviderRepository) FindByID(ctx context.Context, id string) (*models.Provider, error) {
	const query = "SELECT id, full_name, timezone, consultation_fee, created_at FROM providers WHERE id = $1"
	var p models.Provider
	if err := r.db.GetContext(ctx, &p, query, id); err != nil {
		return nil, err
	}
	return &p, nil
}
