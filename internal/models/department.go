package models

// Department groups faculty, projects and their defense sessions.
type Department struct {
	ID   string `db:"id" json:"id"`
	Name string `db:"name" json:"name"`
}
