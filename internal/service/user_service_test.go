package service

import (
	"context"
	"database/sql"
	"testing"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"github.com/marocainperdu/projet-bah/internal/models"
	appErrors "github.com/marocainperdu/projet-bah/pkg/errors"
)

type mockUserRepo struct {
	users         map[string]*models.User
	passwordCalls int
	deleted       []string
}

func (m *mockUserRepo) List(ctx context.Context, filter models.UserFilter) ([]models.User, int, error) {
	var result []models.User
	for _, user := range m.users {
		result = append(result, *user)
	}
	return result, len(result), nil
}

func (m *mockUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	user, ok := m.users[id]
	if !ok {
		return nil, sql.ErrNoRows
	}
	return user, nil
}

func (m *mockUserRepo) FindByEmail(ctx context.Context, email string) (*models.User, error) {
	for _, user := range m.users {
		if user.Email == email {
			return user, nil
		}
	}
	return nil, sql.ErrNoRows
}

func (m *mockUserRepo) Create(ctx context.Context, user *models.User) error {
	if user.ID == "" {
		user.ID = "user-1"
	}
	if m.users == nil {
		m.users = map[string]*models.User{}
	}
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) Update(ctx context.Context, user *models.User) error {
	m.users[user.ID] = user
	return nil
}

func (m *mockUserRepo) UpdatePassword(ctx context.Context, id, passwordHash string, updatedAt time.Time) error {
	m.passwordCalls++
	if user, ok := m.users[id]; ok {
		user.PasswordHash = passwordHash
	}
	return nil
}

func (m *mockUserRepo) Delete(ctx context.Context, id string) error {
	delete(m.users, id)
	m.deleted = append(m.deleted, id)
	return nil
}

func newUserService(repo *mockUserRepo) *UserService {
	return NewUserService(repo, validator.New(), zap.NewNop())
}

func TestUserServiceCreate(t *testing.T) {
	repo := &mockUserRepo{}
	svc := newUserService(repo)

	user, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "Prof@Example.com",
		Name:     "Prof",
		Role:     models.RoleTeacher,
		Password: "password",
	})
	require.NoError(t, err)
	assert.Equal(t, "prof@example.com", user.Email)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(user.PasswordHash), []byte("password")))
}

func TestUserServiceCreateDuplicateEmail(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "prof@example.com"},
	}}
	svc := newUserService(repo)

	_, err := svc.Create(context.Background(), CreateUserRequest{
		Email:    "prof@example.com",
		Name:     "Dup",
		Role:     models.RoleTeacher,
		Password: "password",
	})
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrConflict.Code, appErrors.FromError(err).Code)
}

func TestUserServiceUpdateWithPasswordReset(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "prof@example.com", Name: "Prof", Role: models.RoleTeacher},
	}}
	svc := newUserService(repo)

	dept := "dept-1"
	user, err := svc.Update(context.Background(), "u1", UpdateUserRequest{
		Name:         "Prof Head",
		Role:         models.RoleDepartmentHead,
		DepartmentID: &dept,
		Password:     "newpassword",
	})
	require.NoError(t, err)
	assert.Equal(t, models.RoleDepartmentHead, user.Role)
	assert.Equal(t, 1, repo.passwordCalls)
	assert.NoError(t, bcrypt.CompareHashAndPassword([]byte(repo.users["u1"].PasswordHash), []byte("newpassword")))
}

func TestUserServiceUpdateWithoutPassword(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1", Email: "prof@example.com", Name: "Prof", Role: models.RoleTeacher, PasswordHash: "keep"},
	}}
	svc := newUserService(repo)

	_, err := svc.Update(context.Background(), "u1", UpdateUserRequest{Name: "Prof", Role: models.RoleTeacher})
	require.NoError(t, err)
	assert.Equal(t, 0, repo.passwordCalls)
	assert.Equal(t, "keep", repo.users["u1"].PasswordHash)
}

func TestUserServiceDeleteUnknown(t *testing.T) {
	svc := newUserService(&mockUserRepo{})

	err := svc.Delete(context.Background(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestUserServiceListPagination(t *testing.T) {
	repo := &mockUserRepo{users: map[string]*models.User{
		"u1": {ID: "u1"},
		"u2": {ID: "u2"},
	}}
	svc := newUserService(repo)

	users, pagination, err := svc.List(context.Background(), models.UserFilter{})
	require.NoError(t, err)
	assert.Len(t, users, 2)
	assert.Equal(t, 1, pagination.Page)
	assert.Equal(t, 20, pagination.PageSize)
	assert.Equal(t, 2, pagination.TotalCount)
}
