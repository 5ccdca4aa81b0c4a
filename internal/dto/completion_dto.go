package dto

// CompletionBoardRequest selects the semester and population of the board.
type CompletionBoardRequest struct {
	SemesterID    uint
	AffiliationID *uint
	SectionID     *uint
}

// RequirementColumn describes one required subtype on the board.
type RequirementColumn struct {
	SubtypeID     uint   `json:"subtype_id"`
	Subtype       string `json:"subtype"`
	AffiliationID uint   `json:"affiliation_id"`
	TotalNeeded   int    `json:"total_needed"`
}

// CompletionCell is a user's progress on one requirement.
type CompletionCell struct {
	SubtypeID uint `json:"subtype_id"`
	Completed int  `json:"completed"`
	Needed    int  `json:"needed"`
	Met       bool `json:"met"`
}

// CompletionRow is a user's progress across every requirement.
type CompletionRow struct {
	User     UserSummary      `json:"user"`
	Cells    []CompletionCell `json:"cells"`
	Complete bool             `json:"complete"`
}

// CompletionBoardResponse is the semester requirement report.
type CompletionBoardResponse struct {
	SemesterID uint                `json:"semester_id"`
	Semester   string              `json:"semester"`
	Columns    []RequirementColumn `json:"columns"`
	Rows       []CompletionRow     `json:"rows"`
}
