package dto

// DashboardBucket groups the user's experiences under one display status.
type DashboardBucket struct {
	Status string              `json:"status"`
	Label  string              `json:"label"`
	Items  []ExperienceSummary `json:"items"`
	Total  int                 `json:"total"`
}

// DashboardResponse is the home page view of a user.
type DashboardResponse struct {
	Hallstaff       bool                `json:"hallstaff"`
	Buckets         []DashboardBucket   `json:"buckets"`
	Upcoming        []ExperienceSummary `json:"upcoming"`
	UpcomingTotal   int                 `json:"upcoming_total"`
	NeedsEvaluation []ExperienceSummary `json:"needs_evaluation"`
	EvaluationTotal int                 `json:"needs_evaluation_total"`
}
