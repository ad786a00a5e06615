package service

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"sort"
	"strconv"
	"time"

	"go.uber.org/zap"

	"github.com/marocainperdu/projet-bah/internal/models"
	appErrors "github.com/marocainperdu/projet-bah/pkg/errors"
	"github.com/marocainperdu/projet-bah/pkg/export"
)

const statsCacheKey = "demands:stats"

type reportDemandRepository interface {
	ListByList(ctx context.Context, listID string) ([]models.DemandDetail, error)
	CategorySummary(ctx context.Context, listID string) ([]models.CategorySummary, error)
	Stats(ctx context.Context) (*models.DemandStats, error)
}

type statsCache interface {
	Get(ctx context.Context, key string, dest interface{}) error
	Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error
	DeleteByPattern(ctx context.Context, pattern string) error
}

type csvRenderer interface {
	Render(data export.Dataset) ([]byte, error)
}

type pdfRenderer interface {
	Render(data export.Dataset, title string) ([]byte, error)
}

// ReportConfig tunes report caching and rendering.
type ReportConfig struct {
	StatsCacheTTL time.Duration
	PDFTitle      string
}

// ReportService computes closed-list exports, budget rollups and the global
// statistics aggregate.
type ReportService struct {
	demands reportDemandRepository
	lists   demandListFinder
	cache   statsCache
	metrics *MetricsService
	csv     csvRenderer
	pdf     pdfRenderer
	logger  *zap.Logger
	now     func() time.Time
	cfg     ReportConfig
}

// NewReportService constructs a ReportService.
func NewReportService(demands reportDemandRepository, lists demandListFinder, cache statsCache, metrics *MetricsService, cfg ReportConfig, logger *zap.Logger, csv csvRenderer, pdf pdfRenderer) *ReportService {
	if logger == nil {
		logger = zap.NewNop()
	}
	if cfg.StatsCacheTTL <= 0 {
		cfg.StatsCacheTTL = 5 * time.Minute
	}
	if csv == nil {
		csv = export.NewCSVExporter()
	}
	if pdf == nil {
		pdf = export.NewPDFExporter()
	}
	return &ReportService{
		demands: demands,
		lists:   lists,
		cache:   cache,
		metrics: metrics,
		csv:     csv,
		pdf:     pdf,
		logger:  logger,
		now:     func() time.Time { return time.Now().UTC() },
		cfg:     cfg,
	}
}

// ExportClosedList returns the full demand set of a closed list enriched with
// display names, plus the contract-defined cost totals. The list must exist
// and be closed; the two failures are distinct errors.
func (s *ReportService) ExportClosedList(ctx context.Context, claims *models.JWTClaims, listID string) (*models.ClosedListExport, error) {
	if claims.Role != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the director can export demand lists")
	}

	list, err := s.lists.FindByID(ctx, listID)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "demand list not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load demand list")
	}

	if list.Status != models.DemandListClosed {
		return nil, appErrors.Clone(appErrors.ErrPreconditionFailed, "demand list is not closed yet")
	}

	demands, err := s.demands.ListByList(ctx, listID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load demands for export")
	}

	result := &models.ClosedListExport{
		List:        *list,
		Demands:     demands,
		GeneratedAt: s.now(),
	}

	byDepartment := map[string]float64{}
	byCategory := map[string]float64{}

	for _, d := range demands {
		cost := float64(d.Quantity) * d.EstimatedPrice
		result.TotalEstimatedCost += cost

		switch d.Status {
		case models.DemandApprovedByDirector:
			result.ApprovedCost += cost
		case models.DemandPending, models.DemandApprovedByHead:
			result.PendingCost += cost
		case models.DemandRejectedByHead, models.DemandRejectedByDirector:
			result.RejectedCost += cost
		}

		dept := ""
		if d.DepartmentName != nil {
			dept = *d.DepartmentName
		}
		byDepartment[dept] += cost
		byCategory[d.CategoryCode] += cost
	}

	result.ByDepartment = sortedSubtotals(byDepartment)
	result.ByCategory = sortedSubtotals(byCategory)

	return result, nil
}

// CategorySummary returns the per-list budget rollup grouped by category
// code, sorted by code.
func (s *ReportService) CategorySummary(ctx context.Context, claims *models.JWTClaims, listID string) ([]models.CategorySummary, error) {
	if claims.Role != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the director can view budget rollups")
	}

	if _, err := s.lists.FindByID(ctx, listID); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, appErrors.Clone(appErrors.ErrNotFound, "demand list not found")
		}
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to load demand list")
	}

	summary, err := s.demands.CategorySummary(ctx, listID)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute category summary")
	}
	return summary, nil
}

// Stats computes the global aggregate over all demands, serving cached values
// when fresh enough. Note the cost figures sum unit prices, per the dashboard
// contract, while export totals multiply by quantity.
func (s *ReportService) Stats(ctx context.Context, claims *models.JWTClaims) (*models.DemandStats, error) {
	if claims.Role != models.RoleDirector {
		return nil, appErrors.Clone(appErrors.ErrForbidden, "only the director can view statistics")
	}

	if s.cache != nil {
		start := s.now()
		var cached models.DemandStats
		err := s.cache.Get(ctx, statsCacheKey, &cached)
		s.metrics.RecordCacheOperation(err == nil, time.Since(start))
		if err == nil {
			return &cached, nil
		} else if !errors.Is(err, appErrors.ErrCacheMiss) {
			s.logger.Warn("stats cache read failed", zap.Error(err))
		}
	}

	stats, err := s.demands.Stats(ctx)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to compute statistics")
	}
	stats.GeneratedAt = s.now()

	if s.cache != nil {
		if err := s.cache.Set(ctx, statsCacheKey, stats, s.cfg.StatsCacheTTL); err != nil {
			s.logger.Warn("stats cache write failed", zap.Error(err))
		}
	}

	return stats, nil
}

// InvalidateStats drops the cached statistics aggregate. Called after any
// demand mutation.
func (s *ReportService) InvalidateStats(ctx context.Context) {
	if s.cache == nil {
		return
	}
	if err := s.cache.DeleteByPattern(ctx, statsCacheKey); err != nil {
		s.logger.Warn("stats cache invalidation failed", zap.Error(err))
	}
}

// RenderCSV renders a closed-list export as CSV with a trailing totals row.
func (s *ReportService) RenderCSV(result *models.ClosedListExport) ([]byte, error) {
	payload, err := s.csv.Render(exportDataset(result))
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render csv export")
	}
	return payload, nil
}

// RenderPDF renders a closed-list export as a tabular PDF.
func (s *ReportService) RenderPDF(result *models.ClosedListExport) ([]byte, error) {
	title := s.cfg.PDFTitle
	if title == "" {
		title = result.List.Title
	} else {
		title = fmt.Sprintf("%s - %s", title, result.List.Title)
	}
	payload, err := s.pdf.Render(exportDataset(result), title)
	if err != nil {
		return nil, appErrors.Wrap(err, appErrors.ErrInternal.Code, appErrors.ErrInternal.Status, "failed to render pdf export")
	}
	return payload, nil
}

func exportDataset(result *models.ClosedListExport) export.Dataset {
	headers := []string{"Title", "Teacher", "Department", "Category", "Quantity", "Unit Price", "Cost", "Priority", "Status"}

	rows := make([]map[string]string, 0, len(result.Demands))
	for _, d := range result.Demands {
		dept := ""
		if d.DepartmentName != nil {
			dept = *d.DepartmentName
		}
		rows = append(rows, map[string]string{
			"Title":      d.Title,
			"Teacher":    d.TeacherName,
			"Department": dept,
			"Category":   fmt.Sprintf("%s - %s", d.CategoryCode, d.CategoryName),
			"Quantity":   strconv.Itoa(d.Quantity),
			"Unit Price": formatAmount(d.EstimatedPrice),
			"Cost":       formatAmount(float64(d.Quantity) * d.EstimatedPrice),
			"Priority":   string(d.Priority),
			"Status":     string(d.Status),
		})
	}

	summary := []map[string]string{
		{"Title": "TOTAL", "Cost": formatAmount(result.TotalEstimatedCost)},
		{"Title": "APPROVED", "Cost": formatAmount(result.ApprovedCost)},
		{"Title": "PENDING", "Cost": formatAmount(result.PendingCost)},
		{"Title": "REJECTED", "Cost": formatAmount(result.RejectedCost)},
	}

	return export.Dataset{Headers: headers, Rows: rows, Summary: summary}
}

func sortedSubtotals(groups map[string]float64) []models.CostSubtotal {
	subtotals := make([]models.CostSubtotal, 0, len(groups))
	for key, cost := range groups {
		subtotals = append(subtotals, models.CostSubtotal{Key: key, TotalCost: cost})
	}
	sort.Slice(subtotals, func(i, j int) bool { return subtotals[i].Key < subtotals[j].Key })
	return subtotals
}

func formatAmount(v float64) string {
	return strconv.FormatFloat(v, 'f', 2, 64)
}
