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

type mockDemandListRepo struct {
	lists map[string]*models.DemandList
}

func (m *mockDemandListRepo) List(ctx context.Context) ([]models.DemandList, error) {
	var result []models.DemandList
	for _, list := range m.lists {
		result = append(result, *list)
	}
	return result, nil
}

func (m *mockDemandListRepo) FindByID(ctx context.Context, id string) (*models.DemandList, error) {
	list, ok := m.lists[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return list, nil
}

func (m *mockDemandListRepo) Create(ctx context.Context, list *models.DemandList) error {
	if list.ID == "" {
		list.ID = "list-1"
	}
	if m.lists == nil {
		m.lists = map[string]*models.DemandList{}
	}
	m.lists[list.ID] = list
	return nil
}

func (m *mockDemandListRepo) UpdateStatus(ctx context.Context, id string, status models.DemandListStatus) error {
	list, ok := m.lists[id]
	if !ok {
		return sql.ErrNoRows
	}
	list.Status = status
	return nil
}

func newListService(repo *mockDemandListRepo) *DemandListService {
	return NewDemandListService(repo, validator.New(), zap.NewNop())
}

func TestDemandListServiceCreate(t *testing.T) {
	repo := &mockDemandListRepo{}
	svc := newListService(repo)

	list, err := svc.Create(context.Background(), directorClaims(), CreateDemandListRequest{Title: "Rentrée 2025"})
	require.NoError(t, err)
	assert.Equal(t, models.DemandListOpen, list.Status)
	assert.Equal(t, "director-1", list.CreatedBy)
}

func TestDemandListServiceCreateDirectorOnly(t *testing.T) {
	svc := newListService(&mockDemandListRepo{})

	for _, claims := range []*models.JWTClaims{teacherClaims(), headClaims()} {
		_, err := svc.Create(context.Background(), claims, CreateDemandListRequest{Title: "x"})
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
}

func TestDemandListServiceCloseIsOneWay(t *testing.T) {
	repo := &mockDemandListRepo{lists: map[string]*models.DemandList{
		"list-1": {ID: "list-1", Status: models.DemandListOpen},
	}}
	svc := newListService(repo)

	list, err := svc.Close(context.Background(), directorClaims(), "list-1")
	require.NoError(t, err)
	assert.Equal(t, models.DemandListClosed, list.Status)

	_, err = svc.Close(context.Background(), directorClaims(), "list-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrValidation.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.DemandListClosed, repo.lists["list-1"].Status)
}

func TestDemandListServiceCloseDirectorOnly(t *testing.T) {
	repo := &mockDemandListRepo{lists: map[string]*models.DemandList{
		"list-1": {ID: "list-1", Status: models.DemandListOpen},
	}}
	svc := newListService(repo)

	_, err := svc.Close(context.Background(), headClaims(), "list-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	assert.Equal(t, models.DemandListOpen, repo.lists["list-1"].Status)
}

func TestDemandListServiceCloseUnknownList(t *testing.T) {
	svc := newListService(&mockDemandListRepo{})

	_, err := svc.Close(context.Background(), directorClaims(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}
