package models

import "time"

// DemandStats is the global aggregate shown on the director dashboard.
// TotalEstimatedCost and ApprovedCost sum unit prices only; the per-list
// export totals multiply by quantity instead (see ClosedListExport).
type DemandStats struct {
	TotalDemands       int     `db:"total_demands" json:"total_demands"`
	Pending            int     `db:"pending_demands" json:"pending_demands"`
	ApprovedByHead     int     `db:"approved_by_head" json:"approved_by_head"`
	RejectedByHead     int     `db:"rejected_by_head" json:"rejected_by_head"`
	ApprovedByDirector int     `db:"approved_by_director" json:"approved_by_director"`
	RejectedByDirector int     `db:"rejected_by_director" json:"rejected_by_director"`
	TotalEstimatedCost float64 `db:"total_estimated_cost" json:"total_estimated_cost"`
	ApprovedCost       float64 `db:"approved_cost" json:"approved_cost"`

	GeneratedAt time.Time `db:"-" json:"generated_at"`
}

// CategorySummary is one row of the per-list budget rollup grouped by
// category code.
type CategorySummary struct {
	CategoryCode string  `db:"category_code" json:"category_code"`
	CategoryName string  `db:"category_name" json:"category_name"`
	TotalCost    float64 `db:"total_cost" json:"total_cost"`
}

// CostSubtotal is a grouped cost line (by department or by category code).
type CostSubtotal struct {
	Key       string  `json:"key"`
	TotalCost float64 `json:"total_cost"`
}

// SystemMetrics is a lightweight runtime snapshot for the metrics endpoint.
type SystemMetrics struct {
	CacheHitRatio            float64   `json:"cache_hit_ratio"`
	CacheHits                uint64    `json:"cache_hits"`
	CacheMisses              uint64    `json:"cache_misses"`
	RequestsTotal            uint64    `json:"requests_total"`
	AverageRequestDurationMs float64   `json:"average_request_duration_ms"`
	Goroutines               int       `json:"goroutines"`
	GeneratedAt              time.Time `json:"generated_at"`
}

// ClosedListExport is the full export payload for a closed demand list.
// All cost figures are quantity x estimated price.
type ClosedListExport struct {
	List               DemandList     `json:"list"`
	Demands            []DemandDetail `json:"demands"`
	TotalEstimatedCost float64        `json:"total_estimated_cost"`
	ApprovedCost       float64        `json:"approved_cost"`
	PendingCost        float64        `json:"pending_cost"`
	RejectedCost       float64        `json:"rejected_cost"`
	ByDepartment       []CostSubtotal `json:"by_department"`
	ByCategory         []CostSubtotal `json:"by_category"`
	GeneratedAt        time.Time      `json:"generated_at"`
}
