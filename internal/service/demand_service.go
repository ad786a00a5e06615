package service

import (
	"context"
	"database/sql"
	"errors"

	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"

	"github.com/marocainperdu/projet-bah/internal/models"
	appErrors "github.com/marocainperdu/projet-bah/pkg/errors"
)

type demandRepository interface {
	Create(ctx context.Context, demand *models.Demand) error
	FindByID(ctx context.Context, id string) (*models.Demand, error)
	ListForPrincipal(ctx context.Context, claims *models.JWTClaims) ([]models.DemandDetail, error)
	ListByList(ctx context.Context, listID string) ([]models.DemandDetail, error)
	Evaluate(ctx context.Context, demandID string, newStatus models.DemandStatus, eval *models.DemandEvaluation) error
	History(ctx context.Context, demandID string) ([]models.DemandEvaluation, error)
}

type demandListFinder interface {
	FindByID(ctx context.Context, id string) (*models.DemandList, error)
}

type statsInvalidator interface {
	InvalidateStats(ctx context.Context)
}

// CreateDemandRequest represents payload for creating a demand.
type CreateDemandRequest struct {
	DemandListID   string                `json:"demand_list_id" validate:"required"`
	CategoryID     string                `json:"category_id" validate:"required"`
	Title          string                `json:"title" validate:"required"`
	Description    string                `json:"description"`
	Quantity       int                   `json:"quantity" validate:"required,gt=0"`
	EstimatedPrice float64               `json:"estimated_price" validate:"gte=0"`
	Justification  string                `json:"justification"`
	Priority       models.DemandPriority `json:"priority" validate:"required,oneof=low medium high"`
}

// EvaluateDemandRequest represents an evaluation decision payload.
type EvaluateDemandRequest struct {
	Decision models.EvaluationDecision `json:"decision" validate:"required,oneof=approved rejected"`
	Comments string                    `json:"comments"`
}

// transitionTable maps (evaluator role, decision) to the demand status it
// produces. The current status of the demand is deliberately not consulted:
// the decision of the acting role always wins, matching the review workflow
// where a later director decision supersedes whatever came before.
var transitionTable = map[models.UserRole]map[models.EvaluationDecision]models.DemandStatus{
	models.RoleDepartmentHead: {
		models.DecisionApproved: models.DemandApprovedByHead,
		models.DecisionRejected: models.DemandRejectedByHead,
	},
	models.RoleDirector: {
		models.DecisionApproved: models.DemandApprovedByDirector,
		models.DecisionRejected: models.DemandRejectedByDirector,
	},
}

// DemandService is the demand lifecycle engine: it validates creation
// preconditions, applies role-gated evaluation transitions and exposes the
// role-scoped views over demands.
type DemandService struct {
	repo      demandRepository
	lists     demandListFinder
	stats     statsInvalidator
	metrics   *MetricsService
	validator *validator.Validate
	logger    *zap.Logger
}

// NewDemandService constructs a DemandService instance.
func NewDemandService(repo demandRepository, lists demandListFinder, stats statsInvalidator, metrics *MetricsService, validate *validator.Validate, logger *zap.Logger) *DemandService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if validate == nil {
		validate = validator.New()
	}
	return &DemandService{repo: repo, lists: lists, stats: stats, metrics: metrics, validator: validate, logger: logger}
}

// Create validates preconditions and inserts a pending demand authored by the
// principal. Only teachers may create demands, and only against open lists.
func (s *DemandService) Create(ctx context.Context, claims *models.JWTClaims, req CreateDemandRequest) (*models.Demand, error) {
	if claims.Role != models.RoleTeacher {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only teachers can create demands")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid demand payload")
	}

	list, err := s.lists.FindByID(ctx, req.DemandListID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrValidation, "demand list is invalid")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load demand list")
	}

	if list.Status != models.DemandListOpen {
		return nil, appErrors.Clone(appErrors.ErrValidation, "demand list is closed")
	}

	demand := &models.Demand{
		DemandListID:   req.DemandListID,
		TeacherID:      claims.UserID,
		CategoryID:     req.CategoryID,
		Title:          req.Title,
		Description:    req.Description,
		Quantity:       req.Quantity,
		EstimatedPrice: req.EstimatedPrice,
		Justification:  req.Justification,
		Priority:       req.Priority,
		Status:         models.DemandPending,
	}

	if err := s.repo.Create(ctx, demand); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to create demand")
	}

	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}

	s.logger.Info("demand created",
		zap.String("demand_id", demand.ID),
		zap.String("list_id", demand.DemandListID),
		zap.String("teacher_id", demand.TeacherID))

	return demand, nil
}

// Evaluate applies one evaluation act: the demand status becomes the value
// mapped from the evaluator role and decision, and exactly one evaluation row
// is appended. Both writes are committed atomically by the repository.
func (s *DemandService) Evaluate(ctx context.Context, claims *models.JWTClaims, demandID string, req EvaluateDemandRequest) (*models.DemandEvaluation, error) {
	roleTransitions, ok := transitionTable[claims.Role]
	if !ok {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only department heads and the director can evaluate demands")
	}

	if err := s.validator.Struct(req); err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrValidation.Code, appErrors.ErrValidation.Status, "invalid evaluation payload")
	}

	newStatus := roleTransitions[req.Decision]

	eval := &models.DemandEvaluation{
		DemandID:      demandID,
		EvaluatorID:   claims.UserID,
		EvaluatorRole: claims.Role,
		Decision:      req.Decision,
		Comments:      req.Comments,
	}

	if err := s.repo.Evaluate(ctx, demandID, newStatus, eval); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "demand not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to record evaluation")
	}

	if s.stats != nil {
		s.stats.InvalidateStats(ctx)
	}
	s.metrics.RecordEvaluation(claims.Role, req.Decision)

	s.logger.Info("demand evaluated",
		zap.String("demand_id", demandID),
		zap.String("evaluator_id", claims.UserID),
		zap.String("evaluator_role", string(claims.Role)),
		zap.String("decision", string(req.Decision)),
		zap.String("new_status", string(newStatus)))

	return eval, nil
}

// List returns the demands visible to the principal, newest first. The
// filtering predicate is chosen by role inside the repository.
func (s *DemandService) List(ctx context.Context, claims *models.JWTClaims) ([]models.DemandDetail, error) {
	demands, err := s.repo.ListForPrincipal(ctx, claims)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list demands")
	}
	return demands, nil
}

// ListByList returns every demand of a list for review screens. Department
// heads and the director may use it; this view is not filtered by the
// director default-listing rule so head-rejected demands stay reachable.
func (s *DemandService) ListByList(ctx context.Context, claims *models.JWTClaims, listID string) ([]models.DemandDetail, error) {
	if claims.Role != models.RoleDepartmentHead && claims.Role != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "insufficient role for list review")
	}

	if _, err := s.lists.FindByID(ctx, listID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "demand list not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load demand list")
	}

	demands, err := s.repo.ListByList(ctx, listID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to list demands")
	}
	return demands, nil
}

// History returns the chronological evaluation trail of a demand.
func (s *DemandService) History(ctx context.Context, demandID string) ([]models.DemandEvaluation, error) {
	if _, err := s.repo.FindByID(ctx, demandID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "demand not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load demand")
	}

	history, err := s.repo.History(ctx, demandID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load evaluation history")
	}
	return history, nil
}
