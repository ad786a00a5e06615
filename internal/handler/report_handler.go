package handler

import (
	"fmt"
	"net/http"

	"github.com/gin-gonic/gin"

	"github.com/marocainperdu/projet-bah/internal/service"
	appErrors "github.com/marocainperdu/projet-bah/pkg/errors"
	"github.com/marocainperdu/projet-bah/pkg/response"
)

// ReportHandler exposes export and statistics endpoints.
type ReportHandler struct {
	service *service.ReportService
}

// NewReportHandler constructs a report handler.
func NewReportHandler(svc *service.ReportService) *ReportHandler {
	return &ReportHandler{service: svc}
}

// Export godoc
// @Summary Export a closed demand list
// @Description Full demand set with cost totals; format is json, csv or pdf
// @Tags Reports
// @Produce json
// @Param id path string true "Demand list ID"
// @Param format query string false "Export format" Enums(json, csv, pdf)
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /demand-lists/{id}/export [get]
func (h *ReportHandler) Export(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}

	listID := c.Param("id")
	result, err := h.service.ExportClosedList(c.Request.Context(), claims, listID)
	if err != nil {
		response.Error(c, err)
		return
	}

	switch c.DefaultQuery("format", "json") {
	case "csv":
		payload, err := h.service.RenderCSV(result)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"demand-list-%s.csv\"", listID))
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "text/csv", payload)
	case "pdf":
		payload, err := h.service.RenderPDF(result)
		if err != nil {
			response.Error(c, err)
			return
		}
		c.Header("Content-Disposition", fmt.Sprintf("attachment; filename=\"demand-list-%s.pdf\"", listID))
		c.Header("Cache-Control", "no-store")
		c.Data(http.StatusOK, "application/pdf", payload)
	case "json":
		response.JSON(c, http.StatusOK, result, nil)
	default:
		response.Error(c, appErrors.Clone(appErrors.ErrValidation, "unsupported export format"))
	}
}

// CategorySummary godoc
// @Summary Per-list budget rollup
// @Description Costs grouped by category code, sorted by code
// @Tags Reports
// @Produce json
// @Param id path string true "Demand list ID"
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /demand-lists/{id}/summary [get]
func (h *ReportHandler) CategorySummary(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	summary, err := h.service.CategorySummary(c.Request.Context(), claims, c.Param("id"))
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, summary, nil)
}

// Stats godoc
// @Summary Global demand statistics
// @Description Aggregate counts and cost figures across all demands
// @Tags Reports
// @Produce json
// @Success 200 {object} response.Envelope
// @Security BearerAuth
// @Router /stats [get]
func (h *ReportHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	if claims == nil {
		response.Error(c, appErrors.ErrUnauthorized)
		return
	}
	stats, err := h.service.Stats(c.Request.Context(), claims)
	if err != nil {
		response.Error(c, err)
		return
	}
	response.JSON(c, http.StatusOK, stats, nil)
}
