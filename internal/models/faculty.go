package models

// Faculty is a lecturer eligible to sit on defense juries.
// PresidentCount and ReporterCount hold role occurrences recorded before the scheduling window.
type Faculty struct {
	ID              string `db:"id" json:"id"`
	FullName        string `db:"full_name" json:"full_name"`
	DepartmentID    string `db:"department_id" json:"department_id"`
	SupervisedCount int    `db:"supervised_count" json:"supervised_count"`
	PresidentCount  int    `db:"president_count" json:"president_count"`
	ReporterCount   int    `db:"reporter_count" json:"reporter_count"`
}
