package models

import "time"

// DemandListStatus is the lifecycle of a solicitation window. Lists only ever
// move from open to closed; closing is permanent.
type DemandListStatus string

const (
	DemandListOpen   DemandListStatus = "open"
	DemandListClosed DemandListStatus = "closed"
)

// DemandStatus tracks a demand through the two-stage approval chain.
// rejected_by_head, approved_by_director and rejected_by_director are
// terminal.
type DemandStatus string

const (
	DemandPending            DemandStatus = "pending"
	DemandApprovedByHead     DemandStatus = "approved_by_head"
	DemandRejectedByHead     DemandStatus = "rejected_by_head"
	DemandApprovedByDirector DemandStatus = "approved_by_director"
	DemandRejectedByDirector DemandStatus = "rejected_by_director"
)

// DemandPriority is the teacher-supplied urgency of a demand.
type DemandPriority string

const (
	PriorityLow    DemandPriority = "low"
	PriorityMedium DemandPriority = "medium"
	PriorityHigh   DemandPriority = "high"
)

// EvaluationDecision is the outcome of one evaluation act.
type EvaluationDecision string

const (
	DecisionApproved EvaluationDecision = "approved"
	DecisionRejected EvaluationDecision = "rejected"
)

// DemandList is a time-boxed batch under which demands are collected.
type DemandList struct {
	ID          string           `db:"id" json:"id"`
	Title       string           `db:"title" json:"title"`
	Description string           `db:"description" json:"description"`
	Deadline    *time.Time       `db:"deadline" json:"deadline,omitempty"`
	Status      DemandListStatus `db:"status" json:"status"`
	CreatedBy   string           `db:"created_by" json:"created_by"`
	CreatedAt   time.Time        `db:"created_at" json:"created_at"`
	UpdatedAt   time.Time        `db:"updated_at" json:"updated_at"`

	CreatedByName string `db:"created_by_name" json:"created_by_name,omitempty"`
}

// Demand is a single equipment/material request submitted by a teacher.
// Status is the only field that changes after creation, and only through an
// evaluation.
type Demand struct {
	ID             string         `db:"id" json:"id"`
	DemandListID   string         `db:"demand_list_id" json:"demand_list_id"`
	TeacherID      string         `db:"teacher_id" json:"teacher_id"`
	CategoryID     string         `db:"category_id" json:"category_id"`
	Title          string         `db:"title" json:"title"`
	Description    string         `db:"description" json:"description"`
	Quantity       int            `db:"quantity" json:"quantity"`
	EstimatedPrice float64        `db:"estimated_price" json:"estimated_price"`
	Justification  string         `db:"justification" json:"justification"`
	Priority       DemandPriority `db:"priority" json:"priority"`
	Status         DemandStatus   `db:"status" json:"status"`
	CreatedAt      time.Time      `db:"created_at" json:"created_at"`
	UpdatedAt      time.Time      `db:"updated_at" json:"updated_at"`
}

// DemandDetail enriches a demand with the display names review screens need.
type DemandDetail struct {
	Demand
	ListTitle      string  `db:"list_title" json:"list_title"`
	TeacherName    string  `db:"teacher_name" json:"teacher_name"`
	CategoryCode   string  `db:"category_code" json:"category_code"`
	CategoryName   string  `db:"category_name" json:"category_name"`
	DepartmentName *string `db:"department_name" json:"department_name,omitempty"`
}

// DemandEvaluation is an immutable audit record of one decision. Rows are
// append-only and ordered by EvaluatedAt.
type DemandEvaluation struct {
	ID            string             `db:"id" json:"id"`
	DemandID      string             `db:"demand_id" json:"demand_id"`
	EvaluatorID   string             `db:"evaluator_id" json:"evaluator_id"`
	EvaluatorRole UserRole           `db:"evaluator_role" json:"evaluator_role"`
	Decision      EvaluationDecision `db:"decision" json:"decision"`
	Comments      string             `db:"comments" json:"comments"`
	EvaluatedAt   time.Time          `db:"evaluated_at" json:"evaluated_at"`

	EvaluatorName string `db:"evaluator_name" json:"evaluator_name,omitempty"`
}
