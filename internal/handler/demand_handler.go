package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marocainperdu/projet-bah/internal/service"
	appErrors "github.com/marocainperdu/projet-bah/pkg/errors"
	"github.com/marocainperdu/projet-bah/pkg/response"
)

// DemandHandler exposes demand lifecycle endpoints.
type DemandHandler struct {
	service *service.DemandService
}

// NewDemandHandler constructs a demand handler.
func NewDemandHandler(svc *service.DemandService) *DemandHandler {
	return &DemandHandler{service: svc}
}

// List godoc
// @Summary List demands visible to the principal
// @Description Teachers see their own demands, heads their department, the director the escalated set
// @Tags Demands
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /demands [get]
func (h *DemandHandler) List(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	demands, err := h.service.List(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, demands, nil)
}

// Create godoc
// @Summary Submit a demand
// @Description Teachers submit equipment demands against an open list
// @Tags Demands
// @Accept json
// @Produce json
// @Param payload body service.CreateDemandRequest true "Demand payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /demands [post]
func (h *DemandHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateDemandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	demand, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, demand)
}

// Evaluate godoc
// @Summary Evaluate a demand
// @Description Record an approval or rejection; the new status follows from the evaluator role
// @Tags Demands
// @Accept json
// @Produce json
// @Param id path string true "Demand ID"
// @Param payload body service.EvaluateDemandRequest true "Evaluation payload"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /demands/{id}/evaluate [post]
func (h *DemandHandler) Evaluate(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.EvaluateDemandRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	eval, err := h.service.Evaluate(c.Request.Context(), claims, c.Param("id"), req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, eval, nil)
}

// History godoc
// @Summary Get evaluation history
// @Description Chronological evaluation trail of a demand
// @Tags Demands
// @Produce json
// @Param id path string true "Demand ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /demands/{id}/history [get]
func (h *DemandHandler) History(c *gin.Context) {
	history, err := h.service.History(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, history, nil)
}
