package handler

import (
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marocainperdu/projet-bah/internal/service"
	appErrors "github.com/marocainperdu/projet-bah/pkg/errors"
	"github.com/marocainperdu/projet-bah/pkg/response"
)

// DemandListHandler exposes demand list lifecycle endpoints.
type DemandListHandler struct {
	service *service.DemandListService
	demands *service.DemandService
}

// NewDemandListHandler constructs a demand list handler.
func NewDemandListHandler(svc *service.DemandListService, demands *service.DemandService) *DemandListHandler {
	return &DemandListHandler{service: svc, demands: demands}
}

// List godoc
// @Summary List demand lists
// @Description List all demand lists, newest first
// @Tags DemandLists
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /demand-lists [get]
func (h *DemandListHandler) List(c *gin.Context) {
	lists, err := h.service.List(c.Request.Context())
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, lists, nil)
}

// Get godoc
// @Summary Get a demand list
// @Tags DemandLists
// @Produce json
// @Param id path string true "Demand list ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /demand-lists/{id} [get]
func (h *DemandListHandler) Get(c *gin.Context) {
	list, err := h.service.Get(c.Request.Context(), c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Create godoc
// @Summary Open a demand list
// @Description Open a new solicitation window (director only)
// @Tags DemandLists
// @Accept json
// @Produce json
// @Param payload body service.CreateDemandListRequest true "Demand list payload"
// @Success 201 {object} response.Envelope
// @Security BearerAuth
// @Router /demand-lists [post]
func (h *DemandListHandler) Create(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	var req service.CreateDemandListRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		response.Error(c, appErrors.Wrap(err, appErrors.ErrValidation.Code, http.StatusBadRequest, "invalid payload"))
		return
	}
	list, err := h.service.Create(c.Request.Context(), claims, req)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.Created(c, list)
}

// Close godoc
// @Summary Close a demand list
// @Description Close a list permanently; closed lists never reopen
// @Tags DemandLists
// @Produce json
// @Param id path string true "Demand list ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /demand-lists/{id}/close [post]
func (h *DemandListHandler) Close(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	list, err := h.service.Close(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, list, nil)
}

// Demands godoc
// @Summary List demands of a list
// @Description Review view over every demand of the list
// @Tags DemandLists
// @Produce json
// @Param id path string true "Demand list ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /demand-lists/{id}/demands [get]
func (h *DemandListHandler) Demands(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	demands, err := h.demands.ListByList(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, demands, nil)
}
