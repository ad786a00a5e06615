package service

import (
	"context"
	"database/sql"
	"testing"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marocainperdu/projet-bah/internal/models"
	appErrors "github.com/marocainperdu/projet-bah/pkg/errors"
)

type mockDepartmentRepo struct {
	departments map[string]*models.Department
	deleted     []string
}

func (m *mockDepartmentRepo) List(ctx context.Context) ([]models.Department, error) {
	var result []models.Department
	for _, dept := range m.departments {
		result = append(result, *dept)
	}
	return result, nil
}

func (m *mockDepartmentRepo) FindByID(ctx context.Context, id string) (*models.Department, error) {
	dept, ok := m.departments[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return dept, nil
}

func (m *mockDepartmentRepo) Create(ctx context.Context, department *models.Department) error {
	if department.ID == "" {
		department.ID = "dept-1"
	}
	if m.departments == nil {
		m.departments = map[string]*models.Department{}
	}
	m.departments[department.ID] = department
	return nil
}

func (m *mockDepartmentRepo) Update(ctx context.Context, department *models.Department) error {
	m.departments[department.ID] = department
	return nil
}

func (m *mockDepartmentRepo) Delete(ctx context.Context, id string) error {
	delete(m.departments, id)
	m.deleted = append(m.deleted, id)
	return nil
}

type mockMemberCounter struct {
	count int
}

func (m *mockMemberCounter) CountByDepartment(ctx context.Context, departmentID string) (int, error) {
	return m.count, nil
}

func TestDepartmentServiceDeleteGuard(t *testing.T) {
	repo := &mockDepartmentRepo{departments: map[string]*models.Department{
		"dept-1": {ID: "dept-1", Name: "Physics"},
	}}
	svc := NewDepartmentService(repo, &mockMemberCounter{count: 3}, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "dept-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
	assert.Empty(t, repo.deleted)
}

func TestDepartmentServiceDeleteEmpty(t *testing.T) {
	repo := &mockDepartmentRepo{departments: map[string]*models.Department{
		"dept-1": {ID: "dept-1", Name: "Physics"},
	}}
	svc := NewDepartmentService(repo, &mockMemberCounter{count: 0}, validator.New(), zap.NewNop())

	require.NoError(t, svc.Delete(context.Background(), "dept-1"))
	assert.Equal(t, []string{"dept-1"}, repo.deleted)
}

func TestDepartmentServiceDeleteUnknown(t *testing.T) {
	svc := NewDepartmentService(&mockDepartmentRepo{}, &mockMemberCounter{}, validator.New(), zap.NewNop())

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestDepartmentServiceCreateAndUpdate(t *testing.T) {
	repo := &mockDepartmentRepo{}
	svc := NewDepartmentService(repo, &mockMemberCounter{}, validator.New(), zap.NewNop())

	dept, err := svc.Create(context.Background(), DepartmentRequest{Name: "Physics"})
	require.NoError(t, err)
	assert.Equal(t, "Physics", dept.Name)

	updated, err := svc.Update(context.Background(), dept.ID, DepartmentRequest{Name: "Applied Physics", Description: "labs"})
	require.NoError(t, err)
	assert.Equal(t, "Applied Physics", updated.Name)
	assert.Equal(t, "labs", updated.Description)

	_, err = svc.Create(context.Background(), DepartmentRequest{})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
}
