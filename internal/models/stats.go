package models

// DashboardStats contains aggregate admin metrics.
type DashboardStats struct {
	TotalUsers           int64            `json:"total_users"`
	ActiveUsers          int64            `json:"active_users"`
	SuspendedUsers       int64            `json:"suspended_users"`
	BlockedUsers         int64            `json:"blocked_users"`
	RoleBreakdown        map[string]int64 `json:"role_breakdown"`
	TotalComplaints      int64            `json:"total_complaints"`
	ComplaintsByStatus   map[string]int64 `json:"complaints_by_status"`
	PendingEscalations   int64            `json:"pending_escalations"`
	AbusiveAttemptsToday int64            `json:"abusive_attempts_today"`
}
