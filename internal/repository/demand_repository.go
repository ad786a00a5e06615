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

const demandDetailColumns = `d.id, d.demand_list_id, d.teacher_id, d.category_id, d.title, d.description,
	d.quantity, d.estimated_price, d.justification, d.priority, d.status, d.created_at, d.updated_at,
	dl.title AS list_title, u.name AS teacher_name, c.code AS category_code, c.name AS category_name,
	dept.name AS department_name`

const demandDetailJoins = `FROM demands d
	JOIN demand_lists dl ON d.demand_list_id = dl.id
	JOIN users u ON d.teacher_id = u.id
	JOIN categories c ON d.category_id = c.id
	LEFT JOIN departments dept ON u.department_id = dept.id`

// DemandRepository provides database access for demands and their
// evaluation history.
type DemandRepository struct {
	db *sqlx.DB
}

// NewDemandRepository creates a new instance of DemandRepository.
func NewDemandRepository(db *sqlx.DB) *DemandRepository {
	return &DemandRepository{db: db}
}

// Create inserts a new demand.
func (r *DemandRepository) Create(ctx context.Context, demand *models.Demand) error {
	if demand.ID == "" {
		demand.ID = uuid.NewString()
	}
	now := time.Now().UTC()
	if demand.CreatedAt.IsZero() {
		demand.CreatedAt = now
	}
	demand.UpdatedAt = now

	const query = `INSERT INTO demands (id, demand_list_id, teacher_id, category_id, title, description, quantity, estimated_price, justification, priority, status, created_at, updated_at)
VALUES (:id, :demand_list_id, :teacher_id, :category_id, :title, :description, :quantity, :estimated_price, :justification, :priority, :status, :created_at, :updated_at)`
	if _, err := r.db.NamedExecContext(ctx, query, demand); err != nil {
		return fmt.Errorf("create demand: %w", err)
	}
	return nil
}

// FindByID returns a demand by identifier.
func (r *DemandRepository) FindByID(ctx context.Context, id string) (*models.Demand, error) {
	const query = `SELECT id, demand_list_id, teacher_id, category_id, title, description, quantity, estimated_price, justification, priority, status, created_at, updated_at FROM demands WHERE id = $1 LIMIT 1`
	var demand models.Demand
	if err := r.db.GetContext(ctx, &demand, query, id); err != nil {
		if err == sql.ErrNoRows {
			return nil, err
		}
		return nil, fmt.Errorf("find demand by id: %w", err)
	}
	return &demand, nil
}

// ListForPrincipal returns enriched demands visible to the given principal.
// The predicate is chosen by role: teachers see their own demands, department
// heads see their department's, and the director sees everything that has
// cleared (or been finally decided past) head review.
func (r *DemandRepository) ListForPrincipal(ctx context.Context, claims *models.JWTClaims) ([]models.DemandDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE 1=1", demandDetailColumns, demandDetailJoins)
	var args []interface{}

	switch claims.Role {
	case models.RoleTeacher:
		query += fmt.Sprintf(" AND d.teacher_id = $%d", len(args)+1)
		args = append(args, claims.UserID)
	case models.RoleDepartmentHead:
		query += fmt.Sprintf(" AND u.department_id = $%d", len(args)+1)
		args = append(args, claims.DepartmentID)
	case models.RoleDirector:
		query += " AND d.status NOT IN ('pending', 'rejected_by_head')"
	}

	query += " ORDER BY d.created_at DESC"

	demands := []models.DemandDetail{}
	if err := r.db.SelectContext(ctx, &demands, query, args...); err != nil {
		return nil, fmt.Errorf("list demands: %w", err)
	}
	return demands, nil
}

// ListByList returns every enriched demand belonging to a demand list,
// regardless of status. Used by review screens and the closed-list export.
func (r *DemandRepository) ListByList(ctx context.Context, listID string) ([]models.DemandDetail, error) {
	query := fmt.Sprintf("SELECT %s %s WHERE d.demand_list_id = $1 ORDER BY d.created_at DESC", demandDetailColumns, demandDetailJoins)

	demands := []models.DemandDetail{}
	if err := r.db.SelectContext(ctx, &demands, query, listID); err != nil {
		return nil, fmt.Errorf("list demands by list: %w", err)
	}
	return demands, nil
}

// Evaluate applies an evaluation as one atomic unit: the status update and the
// evaluation row are committed together or not at all. The status is
// overwritten unconditionally; callers decide the target value.
func (r *DemandRepository) Evaluate(ctx context.Context, demandID string, newStatus models.DemandStatus, eval *models.DemandEvaluation) (err error) {
	tx, err := r.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin evaluate transaction: %w", err)
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback()
		}
	}()

	now := time.Now().UTC()
	const updateQuery = `UPDATE demands SET status = $1, updated_at = $2 WHERE id = $3`
	res, err := tx.ExecContext(ctx, updateQuery, newStatus, now, demandID)
	if err != nil {
		return fmt.Errorf("update demand status: %w", err)
	}
	if affected, _ := res.RowsAffected(); affected == 0 {
		err = sql.ErrNoRows
		return err
	}

	if eval.ID == "" {
		eval.ID = uuid.NewString()
	}
	if eval.EvaluatedAt.IsZero() {
		eval.EvaluatedAt = now
	}
	eval.DemandID = demandID

	const insertQuery = `INSERT INTO demand_evaluations (id, demand_id, evaluator_id, evaluator_role, decision, comments, evaluated_at)
VALUES ($1, $2, $3, $4, $5, $6, $7)`
	if _, err = tx.ExecContext(ctx, insertQuery, eval.ID, eval.DemandID, eval.EvaluatorID, eval.EvaluatorRole, eval.Decision, eval.Comments, eval.EvaluatedAt); err != nil {
		return fmt.Errorf("insert demand evaluation: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit evaluation: %w", err)
	}
	return nil
}

// History returns the evaluation trail of a demand in chronological order.
func (r *DemandRepository) History(ctx context.Context, demandID string) ([]models.DemandEvaluation, error) {
	const query = `SELECT de.id, de.demand_id, de.evaluator_id, de.evaluator_role, de.decision, de.comments, de.evaluated_at, u.name AS evaluator_name
FROM demand_evaluations de
JOIN users u ON de.evaluator_id = u.id
WHERE de.demand_id = $1
ORDER BY de.evaluated_at ASC`

	evaluations := []models.DemandEvaluation{}
	if err := r.db.SelectContext(ctx, &evaluations, query, demandID); err != nil {
		return nil, fmt.Errorf("list demand evaluations: %w", err)
	}
	return evaluations, nil
}

// CategorySummary groups a list's demands by category code for budget
// rollups. Costs multiply quantity by estimated price.
func (r *DemandRepository) CategorySummary(ctx context.Context, listID string) ([]models.CategorySummary, error) {
	const query = `SELECT c.code AS category_code, c.name AS category_name, SUM(d.quantity * d.estimated_price) AS total_cost
FROM demands d
JOIN categories c ON d.category_id = c.id
WHERE d.demand_list_id = $1
GROUP BY c.code, c.name
ORDER BY c.code ASC`

	summaries := []models.CategorySummary{}
	if err := r.db.SelectContext(ctx, &summaries, query, listID); err != nil {
		return nil, fmt.Errorf("category summary: %w", err)
	}
	return summaries, nil
}

// Stats computes the global aggregate over all demands in a single pass.
// Cost columns intentionally sum the unit price without the quantity factor,
// matching the dashboard contract.
func (r *DemandRepository) Stats(ctx context.Context) (*models.DemandStats, error) {
	const query = `SELECT
	COUNT(*) AS total_demands,
	COUNT(CASE WHEN status = 'pending' THEN 1 END) AS pending_demands,
	COUNT(CASE WHEN status = 'approved_by_head' THEN 1 END) AS approved_by_head,
	COUNT(CASE WHEN status = 'rejected_by_head' THEN 1 END) AS rejected_by_head,
	COUNT(CASE WHEN status = 'approved_by_director' THEN 1 END) AS approved_by_director,
	COUNT(CASE WHEN status = 'rejected_by_director' THEN 1 END) AS rejected_by_director,
	COALESCE(SUM(estimated_price), 0) AS total_estimated_cost,
	COALESCE(SUM(CASE WHEN status = 'approved_by_director' THEN estimated_price ELSE 0 END), 0) AS approved_cost
FROM demands`

	var stats models.DemandStats
	if err := r.db.GetContext(ctx, &stats, query); err != nil {
		return nil, fmt.Errorf("demand stats: %w", err)
	}
	return &stats, nil
}

// CountByCategory reports how many demands reference a category. Used by the
// category delete guard.
func (r *DemandRepository) CountByCategory(ctx context.Context, categoryID string) (int, error) {
	const query = `SELECT COUNT(*) FROM demands WHERE category_id = $1`
	var count int
	if err := r.db.GetContext(ctx, &count, query, categoryID); err != nil {
		return 0, fmt.Errorf("count demands by category: %w", err)
	}
	return count, nil
}
