package repository

import (
	"context"

	"github.com/jmoiron/sqlx"

	"github.com/noah-isme/sma-habit-api/internal/models"
)

// ActivityTypeRepository reads the habit catalog.
type ActivityTypeRepository struct {
	db *sqlx.DB
}

// NewActivityTypeRepository constructs an ActivityTypeRepository.
func NewActivityTypeRepository(db *sqlx.DB) *ActivityTypeRepository {
	return &ActivityTypeRepository{db: db}
}

// List returns the catalog in sort order.
func (r *ActivityTypeRepository) List(ctx context.Context) ([]models.ActivityType, error) {
	types := []models.ActivityType{}
	query := "SELECT id, title, icon, color, sort_order FROM activity_types ORDER BY sort_order, title"
	if err := r.db.SelectContext(ctx, &types, query); err != nil {
		return nil, err
	}
	return types, nil
}

// FindByID returns one catalog entry.
func (r *ActivityTypeRepository) FindByID(ctx context.Context, id string) (*models.ActivityType, error) {
	var t models.ActivityType
	query := "SELECT id, title, icon, color, sort_order FROM activity_types WHERE id = $1"
	if err := r.db.GetContext(ctx, &t, query, id); err != nil {
		return nil, err
	}
	return &t, nil
}
