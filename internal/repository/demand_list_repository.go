package repository

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"

	"github.com/marocainperdu/projet-bah/internal/models"
)

// DemandListRepository provides database access for demand lists.
type DemandListRepository struct {
	db *sqlx.DB
}

// NewDemandListRepository creates a new instance of DemandListRepository.
func NewDemandListRepository(db *sqlx.DB) *DemandListRepository {
	return &DemandListRepository{db: db}
}

// List returns all demand lists with the creator name, newest first.
func (r *DemandListRepository) List(ctx context.Context) ([]models.DemandList, error) {
	const query = `SELECT dl.id, dl.title, dl.description, dl.deadline, dl.status, dl.created_by, dl.created_at, dl.updated_at, u.name AS created_by_name
FROM demand_lists dl
JOIN users u ON dl.created_by = u.id
ORDER BY dl.created_at DESC`

	lists := []models.DemandList{}
	if err := r.db.SelectContext(ctx, &lists, query); err != nil {
		return nil, fmt.Errorf("list demand lists: %w", err)
	}
	return lists, nil
}

// FindByID returns a demand list by identifier.
func (r *DemandListRepository) FindByID(ctx context.Context, id string) (*models.DemandList, error) {
	const query = `SELECT id, title, description, deadline, status, created_by, created_at, updated_at FROM demand_lists WHERE id = $1 LIMIT 1`
	var list models.DemandList
	if err := r.db.GetContext(ctx, &list, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find demand list by id: %w", err)
	}
	return &list, nil
}

// Create inserts a new demand list.
func (r *DemandListRepository) Create(ctx context.Context, list *models.DemandList) error {
	if list.ID == "" {
		list.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if list.CreatedAt.IsZero() {
		list.CreatedAt = now
	}
	list.UpdatedAt = now

	const query = `INSERT INTO demand_lists (id, title, description, deadline, status, created_by, created_at, updated_at)
VALUES (:id, :title, :description, :deadline, :status, :created_by, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, list); err != nil {
		return fmt.Errorf("create demand list: %w", err)
	}
	return nil
}

// UpdateStatus persists a status change for a demand list.
func (r *DemandListRepository) UpdateStatus(ctx context.Context, id string, status models.DemandListStatus) error {
	const query = `UPDATE demand_lists SET status = $2, updated_at = $3 WHERE id = $1`
	if _, err := r.db.ExecContext(ctx, query, id, status, time.Now().UTC()); err != nil {
		return fmt.Errorf("update demand list status: %w", err)
	}
	return nil
}
