package repository

import (
	"context"
	"database/sql"
	"errors"
	"regexp"
	"testing"
	"time"

	sqlmock "github.com/DATA-DOG/go-sqlmock"
	"github.com/jmoiron/sqlx"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/marocainperdu/projet-bah/internal/models"
)

func newRepoMock(t *testing.T) (*sqlx.DB, sqlmock.Sqlmock, func()) {
	db, mock, err := sqlmock.New(sqlmock.QueryMatcherOption(sqlmock.QueryMatcherRegexp))
	require.NoError(t, err)
	return sqlx.NewDb(db, "sqlmock"), mock, func() { db.Close() }
}

func TestDemandRepositoryCreate(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDemandRepository(db)
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO demands")).
		WillReturnResult(sqlmock.NewResult(1, 1))

	demand := &models.Demand{
		DemandListID:   "list-1",
		TeacherID:      "teacher-1",
		CategoryID:     "cat-1",
		Title:          "Microscopes",
		Quantity:       2,
		EstimatedPrice: 100,
		Priority:       models.PriorityHigh,
		Status:         models.DemandPending,
	}
	require.NoError(t, repo.Create(context.Background(), demand))
	assert.NotEmpty(t, demand.ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDemandRepositoryEvaluateCommitsBothWrites(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDemandRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE demands SET status")).
		WithArgs(string(models.DemandApprovedByHead), sqlmock.AnyArg(), "demand-1").
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO demand_evaluations")).
		WillReturnResult(sqlmock.NewResult(1, 1))
	mock.ExpectCommit()

	eval := &models.DemandEvaluation{
		EvaluatorID:   "head-1",
		EvaluatorRole: models.RoleDepartmentHead,
		Decision:      models.DecisionApproved,
	}
	require.NoError(t, repo.Evaluate(context.Background(), "demand-1", models.DemandApprovedByHead, eval))
	assert.Equal(t, "demand-1", eval.DemandID)
	assert.NotEmpty(t, eval.ID)
	assert.False(t, eval.EvaluatedAt.IsZero())
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDemandRepositoryEvaluateRollsBackOnMissingDemand(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDemandRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE demands SET status")).
		WillReturnResult(sqlmock.NewResult(0, 0))
	mock.ExpectRollback()

	err := repo.Evaluate(context.Background(), "missing", models.DemandApprovedByHead, &models.DemandEvaluation{})
	require.Error(t, err)
	assert.True(t, errors.Is(err, sql.ErrNoRows))
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDemandRepositoryEvaluateRollsBackOnInsertFailure(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDemandRepository(db)
	mock.ExpectBegin()
	mock.ExpectExec(regexp.QuoteMeta("UPDATE demands SET status")).
		WillReturnResult(sqlmock.NewResult(0, 1))
	mock.ExpectExec(regexp.QuoteMeta("INSERT INTO demand_evaluations")).
		WillReturnError(errors.New("constraint violation"))
	mock.ExpectRollback()

	err := repo.Evaluate(context.Background(), "demand-1", models.DemandRejectedByDirector, &models.DemandEvaluation{})
	require.Error(t, err)
	require.NoError(t, mock.ExpectationsWereMet())
}

func demandDetailRows() *sqlmock.Rows {
	now := time.Now()
	return sqlmock.NewRows([]string{
		"id", "demand_list_id", "teacher_id", "category_id", "title", "description",
		"quantity", "estimated_price", "justification", "priority", "status", "created_at", "updated_at",
		"list_title", "teacher_name", "category_code", "category_name", "department_name",
	}).AddRow("demand-1", "list-1", "teacher-1", "cat-1", "Microscopes", "",
		2, 100.0, "", "high", "pending", now, now,
		"Rentrée 2025", "Prof", "601", "Fournitures", "Physics")
}

func TestDemandRepositoryListForPrincipalTeacher(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDemandRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("AND d.teacher_id = $1")).
		WithArgs("teacher-1").
		WillReturnRows(demandDetailRows())

	demands, err := repo.ListForPrincipal(context.Background(), &models.JWTClaims{UserID: "teacher-1", Role: models.RoleTeacher})
	require.NoError(t, err)
	require.Len(t, demands, 1)
	assert.Equal(t, "demand-1", demands[0].ID)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDemandRepositoryListForPrincipalHead(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDemandRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("AND u.department_id = $1")).
		WithArgs("dept-1").
		WillReturnRows(demandDetailRows())

	dept := "dept-1"
	demands, err := repo.ListForPrincipal(context.Background(), &models.JWTClaims{UserID: "head-1", Role: models.RoleDepartmentHead, DepartmentID: &dept})
	require.NoError(t, err)
	require.Len(t, demands, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDemandRepositoryListForPrincipalDirector(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDemandRepository(db)
	mock.ExpectQuery(regexp.QuoteMeta("AND d.status NOT IN ('pending', 'rejected_by_head')")).
		WillReturnRows(demandDetailRows())

	demands, err := repo.ListForPrincipal(context.Background(), &models.JWTClaims{UserID: "director-1", Role: models.RoleDirector})
	require.NoError(t, err)
	require.Len(t, demands, 1)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDemandRepositoryStats(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDemandRepository(db)
	rows := sqlmock.NewRows([]string{
		"total_demands", "pending_demands", "approved_by_head", "rejected_by_head",
		"approved_by_director", "rejected_by_director", "total_estimated_cost", "approved_cost",
	}).AddRow(10, 3, 2, 1, 3, 1, 1250.50, 400.00)
	mock.ExpectQuery(regexp.QuoteMeta("COUNT(*) AS total_demands")).
		WillReturnRows(rows)

	stats, err := repo.Stats(context.Background())
	require.NoError(t, err)
	assert.Equal(t, 10, stats.TotalDemands)
	assert.Equal(t, 3, stats.ApprovedByDirector)
	assert.InDelta(t, 1250.50, stats.TotalEstimatedCost, 0.001)
	assert.InDelta(t, 400.00, stats.ApprovedCost, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDemandRepositoryCategorySummary(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDemandRepository(db)
	rows := sqlmock.NewRows([]string{"category_code", "category_name", "total_cost"}).
		AddRow("601", "Fournitures", 300.0).
		AddRow("602", "Équipements", 1200.0)
	mock.ExpectQuery(regexp.QuoteMeta("SUM(d.quantity * d.estimated_price)")).
		WithArgs("list-1").
		WillReturnRows(rows)

	summary, err := repo.CategorySummary(context.Background(), "list-1")
	require.NoError(t, err)
	require.Len(t, summary, 2)
	assert.Equal(t, "601", summary[0].CategoryCode)
	assert.InDelta(t, 1200.0, summary[1].TotalCost, 0.001)
	require.NoError(t, mock.ExpectationsWereMet())
}

func TestDemandRepositoryHistoryOrdering(t *testing.T) {
	db, mock, cleanup := newRepoMock(t)
	defer cleanup()

	repo := NewDemandRepository(db)
	first := time.Now().Add(-time.Hour)
	second := time.Now()
	rows := sqlmock.NewRows([]string{"id", "demand_id", "evaluator_id", "evaluator_role", "decision", "comments", "evaluated_at", "evaluator_name"}).
		AddRow("eval-1", "demand-1", "head-1", "department_head", "approved", "", first, "Head").
		AddRow("eval-2", "demand-1", "director-1", "director", "rejected", "over budget", second, "Director")
	mock.ExpectQuery(regexp.QuoteMeta("ORDER BY de.evaluated_at ASC")).
		WithArgs("demand-1").
		WillReturnRows(rows)

	history, err := repo.History(context.Background(), "demand-1")
	require.NoError(t, err)
	require.Len(t, history, 2)
	assert.Equal(t, models.RoleDepartmentHead, history[0].EvaluatorRole)
	assert.Equal(t, models.RoleDirector, history[1].EvaluatorRole)
	require.NoError(t, mock.ExpectationsWereMet())
}
