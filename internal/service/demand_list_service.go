package service

import (
	"context"
	"database/sql"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/marocainperdu/projet-bah/internal/models"
	appErrors "github.com/marocainperdu/projet-bah/pkg/errors"
)

type demandListRepository interface {
	List(ctx context.Context) ([]models.DemandList, error)
	FindByID(ctx context.Context, id string) (*models.DemandList, error)
	Create(ctx context.Context, list *models.DemandList) error
	UpdateStatus(ctx context.Context, id string, status models.DemandListStatus) error
}

// CreateDemandListRequest represents payload for opening a solicitation
// window.
type CreateDemandListRequest struct {
	Title       string     `json:"title" validate:"required"`
	Description string     `json:"description"`
	Deadline    *time.Time `json:"deadline"`
}

// DemandListService manages the demand list lifecycle.
type DemandListService struct {
	repo      demandListRepository
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDemandListService constructs a DemandListService instance.
func NewDemandListService(repo demandListRepository, validate *validator.Validate, logger *zap.Logger) *DemandListService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DemandListService{repo: repo, validator: validate, logger: logger}
}

// List returns all demand lists, newest first.
func (s *DemandListService) List(ctx context.Context) ([]models.DemandList, error) {
	lists, err := s.repo.List(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list demand lists")
	}
	return lists, nil
}

// Get returns a demand list by ID.
func (s *DemandListService) Get(ctx context.Context, id string) (*models.DemandList, error) {
	list, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "demand list not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load demand list")
	}
	return list, nil
}

// Create opens a new demand list on behalf of the director.
func (s *DemandListService) Create(ctx context.Context, claims *models.JWTClaims, req CreateDemandListRequest) (*models.DemandList, error) {
	if claims.Role != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the director can create demand lists")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid demand list payload")
	}

	list := &models.DemandList{
		Title:       req.Title,
		Description: req.Description,
		Deadline:    req.Deadline,
		Status:      models.DemandListOpen,
		CreatedBy:   claims.UserID,
	}

	if err := s.repo.Create(ctx, list); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create demand list")
	}

	s.logger.Info("demand list created", zap.String("list_id", list.ID), zap.String("created_by", list.CreatedBy))

	return list, nil
}

// Close transitions a list from open to closed. The transition is one way:
// a closed list can never be reopened.
func (s *DemandListService) Close(ctx context.Context, claims *models.JWTClaims, id string) (*models.DemandList, error) {
	if claims.Role != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the director can close demand lists")
	}

	list, err := s.repo.FindByID(ctx, id)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "demand list not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load demand list")
	}

	if list.Status == models.DemandListClosed {
		return nil, appErrors.Clone(appErrors.ErrValidation, "demand list is already closed")
	}

	if err := s.repo.UpdateStatus(ctx, id, models.DemandListClosed); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to close demand list")
	}

	list.Status = models.DemandListClosed

	s.logger.Info("demand list closed", zap.String("list_id", id), zap.String("closed_by", claims.UserID))

	return list, nil
}
