package service

import (
	"slices"

	"github.com/noah-isme/jury-scheduler-api/internal/models"
)

type slotKey struct {
	Date  string
	Start int
}

// facultyAvailability is either unrestricted (no declarations, open world) or restricted to the
// declared windows. Busy slots always win.
type facultyAvailability struct {
	restricted bool
	open       map[slotKey]bool
	busy       map[slotKey]bool
}

func newFacultyAvailability() *facultyAvailability {
	return &facultyAvailability{open: make(map[slotKey]bool), busy: make(map[slotKey]bool)}
}

func (f *facultyAvailability) Available(key slotKey) bool {
	if f.busy[key] {
		return false
	}
	if f.restricted {
		return f.open[key]
	}
	return true
}

func (f *facultyAvailability) Reserve(key slotKey) {
	f.busy[key] = true
}

type facultyLoad struct {
	Supervised int
	President  int
	Reporter   int
}

func (l facultyLoad) deficit(role models.JuryRole) int {
	switch role {
	case models.JuryRolePresident:
		return l.Supervised - l.President
	case models.JuryRoleReporter:
		return l.Supervised - l.Reporter
	default:
		return 0
	}
}

var wholeDay = timeRange{Start: 0, End: 24 * 60}

// juryIndex is the mutable availability and load state threaded through one allocation pass.
type juryIndex struct {
	roster       []models.Faculty
	rooms        []models.Room
	availability map[string]*facultyAvailability
	load         map[string]*facultyLoad
	roomBusy     map[string]map[slotKey]bool
	skipped      []string
}

// buildJuryIndex seeds the index for the candidate slots. extraMembers are faculty outside the
// roster (typically supervisors from other departments) whose calendars must still be tracked.
// Records with an unreadable time range are listed in Skipped: a jury then blocks its whole day,
// a declaration opens nothing.
func buildJuryIndex(
	roster []models.Faculty,
	extraMembers []string,
	rooms []models.Room,
	existing []models.Jury,
	declarations []models.Availability,
	slots []candidateSlot,
) *juryIndex {
	idx := &juryIndex{
		roster:       roster,
		rooms:        rooms,
		availability: make(map[string]*facultyAvailability, len(roster)+len(extraMembers)),
		load:         make(map[string]*facultyLoad, len(roster)),
		roomBusy:     make(map[string]map[slotKey]bool, len(rooms)),
	}
	for _, member := range roster {
		idx.availability[member.ID] = newFacultyAvailability()
		idx.load[member.ID] = &facultyLoad{
			Supervised: member.SupervisedCount,
			President:  member.PresidentCount,
			Reporter:   member.ReporterCount,
		}
	}
	for _, id := range extraMembers {
		if _, ok := idx.availability[id]; !ok {
			idx.availability[id] = newFacultyAvailability()
		}
	}
	for _, room := range rooms {
		idx.roomBusy[room.ID] = make(map[slotKey]bool)
	}

	byDate := make(map[string][]candidateSlot)
	for _, slot := range slots {
		date := slot.Date.Format(juryDateLayout)
		byDate[date] = append(byDate[date], slot)
	}

	for _, declaration := range declarations {
		state, ok := idx.availability[declaration.FacultyID]
		if !ok {
			continue
		}
		state.restricted = true
		window, err := parseClockRange(declaration.StartTime, declaration.EndTime)
		if err != nil {
			idx.skipped = append(idx.skipped, "availability "+declaration.ID)
			continue
		}
		for _, slot := range byDate[declaration.Date.Format(juryDateLayout)] {
			if slot.Range.within(window) {
				state.open[slot.key()] = true
			}
		}
	}

	roomsByLocation := make(map[string][]string, len(rooms))
	for _, room := range rooms {
		roomsByLocation[room.Location()] = append(roomsByLocation[room.Location()], room.ID)
	}

	for _, jury := range existing {
		if load, ok := idx.load[jury.PresidentID]; ok {
			load.President++
		}
		if load, ok := idx.load[jury.ReporterID]; ok {
			load.Reporter++
		}

		span, err := parseClockRange(jury.StartTime, jury.EndTime)
		if err != nil {
			idx.skipped = append(idx.skipped, "jury "+jury.ID)
			span = wholeDay
		}
		for _, slot := range byDate[jury.Date.Format(juryDateLayout)] {
			if !slot.Range.overlaps(span) {
				continue
			}
			key := slot.key()
			for _, member := range jury.Members() {
				if state, ok := idx.availability[member]; ok {
					state.Reserve(key)
				}
			}
			for _, roomID := range roomsByLocation[jury.Location] {
				idx.roomBusy[roomID][key] = true
			}
		}
	}

	return idx
}

// Skipped lists existing records whose time range could not be read.
func (idx *juryIndex) Skipped() []string {
	return idx.skipped
}

// FacultyAvailable reports whether a tracked faculty member is free at the slot.
func (idx *juryIndex) FacultyAvailable(facultyID string, key slotKey) bool {
	state, ok := idx.availability[facultyID]
	if !ok {
		return false
	}
	return state.Available(key)
}

// PickRoleHolder returns the available roster member with the largest positive deficit for the
// role. Ties go to the first member in roster order.
func (idx *juryIndex) PickRoleHolder(role models.JuryRole, key slotKey, exclude ...string) (string, bool) {
	bestID := ""
	bestDeficit := 0
	for _, member := range idx.roster {
		if slices.Contains(exclude, member.ID) || !idx.FacultyAvailable(member.ID, key) {
			continue
		}
		deficit := idx.load[member.ID].deficit(role)
		if deficit > bestDeficit {
			bestID = member.ID
			bestDeficit = deficit
		}
	}
	return bestID, bestID != ""
}

// FreeRoom returns the first room in load order not booked at the slot.
func (idx *juryIndex) FreeRoom(key slotKey) (models.Room, bool) {
	for _, room := range idx.rooms {
		if !idx.roomBusy[room.ID][key] {
			return room, true
		}
	}
	return models.Room{}, false
}

// Commit books the slot for the three members and the room and bumps role counters.
func (idx *juryIndex) Commit(key slotKey, supervisorID, presidentID, reporterID, roomID string) {
	for _, member := range []string{supervisorID, presidentID, reporterID} {
		if state, ok := idx.availability[member]; ok {
			state.Reserve(key)
		}
	}
	idx.roomBusy[roomID][key] = true
	idx.load[presidentID].President++
	idx.load[reporterID].Reporter++
}

// Load returns a copy of the tracked counters for a roster member.
func (idx *juryIndex) Load(facultyID string) (facultyLoad, bool) {
	load, ok := idx.load[facultyID]
	if !ok {
		return facultyLoad{}, false
	}
	return *load, true
}
