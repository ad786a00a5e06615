package service

import (
	"context"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"

	"github.com/marocainperdu/projet-bah/internal/models"
	appErrors "github.com/marocainperdu/projet-bah/pkg/errors"
)

type mockReportRepo struct {
	details   []models.DemandDetail
	summary   []models.CategorySummary
	stats     *models.DemandStats
	statsHits int
}

func (m *mockReportRepo) ListByList(ctx context.Context, listID string) ([]models.DemandDetail, error) {
	return m.details, nil
}

func (m *mockReportRepo) CategorySummary(ctx context.Context, listID string) ([]models.CategorySummary, error) {
	return m.summary, nil
}

func (m *mockReportRepo) Stats(ctx context.Context) (*models.DemandStats, error) {
	m.statsHits++
	return m.stats, nil
}

type memoryCache struct {
	values map[string][]byte
	sets   int
}

func (m *memoryCache) Get(ctx context.Context, key string, dest interface{}) error {
	raw, ok := m.values[key]
	if !ok {
		return appErrors.ErrCacheMiss
	}
	stats := dest.(*models.DemandStats)
	_ = raw
	*stats = models.DemandStats{TotalDemands: 42}
	return nil
}

func (m *memoryCache) Set(ctx context.Context, key string, value interface{}, ttl time.Duration) error {
	if m.values == nil {
		m.values = map[string][]byte{}
	}
	m.values[key] = []byte("set")
	m.sets++
	return nil
}

func (m *memoryCache) DeleteByPattern(ctx context.Context, pattern string) error {
	for key := range m.values {
		delete(m.values, key)
	}
	return nil
}

func detail(status models.DemandStatus, quantity int, price float64, dept, catCode string) models.DemandDetail {
	var deptName *string
	if dept != "" {
		deptName = &dept
	}
	return models.DemandDetail{
		Demand: models.Demand{
			Title:          "item",
			Quantity:       quantity,
			EstimatedPrice: price,
			Status:         status,
			Priority:       models.PriorityMedium,
		},
		TeacherName:    "Teacher",
		CategoryCode:   catCode,
		CategoryName:   "Category",
		DepartmentName: deptName,
	}
}

func newReportService(repo *mockReportRepo, lists *mockListFinder, cache statsCache) *ReportService {
	return NewReportService(repo, lists, cache, nil, ReportConfig{StatsCacheTTL: time.Minute}, zap.NewNop(), nil, nil)
}

func closedList() *mockListFinder {
	return &mockListFinder{lists: map[string]*models.DemandList{
		"list-1": {ID: "list-1", Title: "Rentrée 2025", Status: models.DemandListClosed},
	}}
}

func TestReportServiceExportTotals(t *testing.T) {
	repo := &mockReportRepo{details: []models.DemandDetail{
		detail(models.DemandApprovedByDirector, 2, 100, "Physics", "601"),
		detail(models.DemandApprovedByHead, 4, 50, "Physics", "602"),
		detail(models.DemandRejectedByHead, 1, 30, "Chemistry", "601"),
		detail(models.DemandPending, 3, 10, "", "603"),
	}}
	svc := newReportService(repo, closedList(), nil)

	result, err := svc.ExportClosedList(context.Background(), directorClaims(), "list-1")
	require.NoError(t, err)

	assert.InDelta(t, 460, result.TotalEstimatedCost, 0.001)
	assert.InDelta(t, 200, result.ApprovedCost, 0.001)
	assert.InDelta(t, 230, result.PendingCost, 0.001)
	assert.InDelta(t, 30, result.RejectedCost, 0.001)

	var subtotalSum float64
	for _, sub := range result.ByDepartment {
		subtotalSum += sub.TotalCost
	}
	assert.InDelta(t, result.TotalEstimatedCost, subtotalSum, 0.001)

	subtotalSum = 0
	for _, sub := range result.ByCategory {
		subtotalSum += sub.TotalCost
	}
	assert.InDelta(t, result.TotalEstimatedCost, subtotalSum, 0.001)

	require.Len(t, result.ByCategory, 3)
	assert.Equal(t, "601", result.ByCategory[0].Key)
	assert.Equal(t, "602", result.ByCategory[1].Key)
	assert.Equal(t, "603", result.ByCategory[2].Key)
}

func TestReportServiceExportRequiresClosedList(t *testing.T) {
	lists := &mockListFinder{lists: map[string]*models.DemandList{
		"list-1": {ID: "list-1", Status: models.DemandListOpen},
	}}
	svc := newReportService(&mockReportRepo{}, lists, nil)

	_, err := svc.ExportClosedList(context.Background(), directorClaims(), "list-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrPreconditionFailed.Code, appErrors.FromError(err).Code)

	_, err = svc.ExportClosedList(context.Background(), directorClaims(), "missing")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrNotFound.Code, appErrors.FromError(err).Code)
}

func TestReportServiceExportDirectorOnly(t *testing.T) {
	svc := newReportService(&mockReportRepo{}, closedList(), nil)

	for _, claims := range []*models.JWTClaims{teacherClaims(), headClaims()} {
		_, err := svc.ExportClosedList(context.Background(), claims, "list-1")
		require.Error(t, err)
		assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
	}
}

func TestReportServiceStatsCaching(t *testing.T) {
	repo := &mockReportRepo{stats: &models.DemandStats{TotalDemands: 7, TotalEstimatedCost: 130}}
	cache := &memoryCache{}
	svc := newReportService(repo, closedList(), cache)

	stats, err := svc.Stats(context.Background(), directorClaims())
	require.NoError(t, err)
	assert.Equal(t, 7, stats.TotalDemands)
	assert.Equal(t, 1, repo.statsHits)
	assert.Equal(t, 1, cache.sets)

	cached, err := svc.Stats(context.Background(), directorClaims())
	require.NoError(t, err)
	assert.Equal(t, 42, cached.TotalDemands)
	assert.Equal(t, 1, repo.statsHits)

	svc.InvalidateStats(context.Background())
	_, err = svc.Stats(context.Background(), directorClaims())
	require.NoError(t, err)
	assert.Equal(t, 2, repo.statsHits)
}

func TestReportServiceStatsDirectorOnly(t *testing.T) {
	svc := newReportService(&mockReportRepo{stats: &models.DemandStats{}}, closedList(), nil)

	_, err := svc.Stats(context.Background(), headClaims())
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReportServiceCategorySummary(t *testing.T) {
	repo := &mockReportRepo{summary: []models.CategorySummary{
		{CategoryCode: "601", CategoryName: "Fournitures", TotalCost: 300},
	}}
	svc := newReportService(repo, closedList(), nil)

	summary, err := svc.CategorySummary(context.Background(), directorClaims(), "list-1")
	require.NoError(t, err)
	require.Len(t, summary, 1)
	assert.Equal(t, "601", summary[0].CategoryCode)

	_, err = svc.CategorySummary(context.Background(), teacherClaims(), "list-1")
	require.Error(t, err)
	assert.Equal(t, appErrors.ErrForbidden.Code, appErrors.FromError(err).Code)
}

func TestReportServiceRenderCSV(t *testing.T) {
	repo := &mockReportRepo{details: []models.DemandDetail{
		detail(models.DemandApprovedByDirector, 2, 100, "Physics", "601"),
	}}
	svc := newReportService(repo, closedList(), nil)

	result, err := svc.ExportClosedList(context.Background(), directorClaims(), "list-1")
	require.NoError(t, err)

	payload, err := svc.RenderCSV(result)
	require.NoError(t, err)
	content := string(payload)
	assert.Contains(t, content, "Teacher")
	assert.Contains(t, content, "200.00")
	assert.Contains(t, content, "TOTAL")
	assert.True(t, strings.Contains(content, "APPROVED"))
}

func TestReportServiceRenderPDF(t *testing.T) {
	repo := &mockReportRepo{details: []models.DemandDetail{
		detail(models.DemandApprovedByDirector, 1, 50, "Physics", "601"),
	}}
	svc := newReportService(repo, closedList(), nil)

	result, err := svc.ExportClosedList(context.Background(), directorClaims(), "list-1")
	require.NoError(t, err)

	payload, err := svc.RenderPDF(result)
	require.NoError(t, err)
	assert.True(t, len(payload) > 0)
	assert.Equal(t, "%PDF", string(payload[:4]))
}
