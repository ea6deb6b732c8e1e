package dashboard

import (
	"microfinance-backoffice/internal/domain/loan"
	"microfinance-backoffice/internal/domain/payment"
	"microfinance-backoffice/internal/domain/report"

	"github.com/shopspring/decimal"
)

// Metrics covers the admin and branch views. CollectionRate is nil when it
// could not be computed.
type Metrics struct {
	BranchID           string                 `json:"branch_id,omitempty"`
	TotalCustomers     int                    `json:"total_customers"`
	TotalLoans         int                    `json:"total_loans"`
	PendingApprovals   int                    `json:"pending_approvals"`
	TotalDisbursed     decimal.Decimal        `json:"total_disbursed"`
	CollectionRate     *decimal.Decimal       `json:"collection_rate"`
	ActiveAgents       *int                   `json:"active_agents,omitempty"`
	PendingLoans       []loan.Application     `json:"pending_loans"`
	RecentTransactions []payment.Transaction  `json:"recent_transactions"`
	Branches           []report.BranchSummary `json:"branches,omitempty"`
}

type AgentMetrics struct {
	AgentID              string                 `json:"agent_id"`
	TotalCustomers       int                    `json:"total_customers"`
	ActiveLoans          int                    `json:"active_loans"`
	TodayCollections     decimal.Decimal        `json:"today_collections"`
	PendingCollections   int                    `json:"pending_collections"`
	CompletedCollections int                    `json:"completed_collections"`
	WeeklyCollected      decimal.Decimal        `json:"weekly_collected"`
	Schedule             []payment.DailyPayment `json:"schedule"`
}
