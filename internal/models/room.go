package models

import "fmt"

// Room is a bookable classroom.
type Room struct {
	ID       string `db:"id" json:"id"`
	Name     string `db:"name" json:"name"`
	Building string `db:"building" json:"building"`
	Capacity int    `db:"capacity" json:"capacity"`
}

// Location renders the room the way juries store it.
func (r Room) Location() string {
	return fmt.Sprintf("%s - %s", r.Name, r.Building)
}
