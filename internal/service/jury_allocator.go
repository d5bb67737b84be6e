package service

import (
	"fmt"

	"github.com/noah-isme/jury-scheduler-api/internal/models"
)

type allocationResult struct {
	Drafts   []models.JuryDraft
	Failures []string
}

// allocateJuries places projects in order, each on the earliest slot where the supervisor, a
// president, a reporter and a room are free. The index is mutated after every placement.
func allocateJuries(projects []models.Project, slots []candidateSlot, idx *juryIndex) allocationResult {
	result := allocationResult{
		Drafts:   make([]models.JuryDraft, 0, len(projects)),
		Failures: make([]string, 0),
	}
	for _, project := range projects {
		draft, reason, ok := placeProject(project, slots, idx)
		if !ok {
			result.Failures = append(result.Failures, fmt.Sprintf("%s: %s", project.DisplayName(), reason))
			continue
		}
		result.Drafts = append(result.Drafts, draft)
	}
	return result
}

// placeProject returns the first feasible draft, or the furthest stage any slot reached.
func placeProject(project models.Project, slots []candidateSlot, idx *juryIndex) (models.JuryDraft, string, bool) {
	stage := 0
	for _, slot := range slots {
		key := slot.key()
		if !idx.FacultyAvailable(project.SupervisorID, key) {
			continue
		}
		stage = max(stage, 1)

		presidentID, ok := idx.PickRoleHolder(models.JuryRolePresident, key, project.SupervisorID)
		if !ok {
			continue
		}
		stage = max(stage, 2)

		reporterID, ok := idx.PickRoleHolder(models.JuryRoleReporter, key, project.SupervisorID, presidentID)
		if !ok {
			continue
		}
		stage = max(stage, 3)

		room, ok := idx.FreeRoom(key)
		if !ok {
			continue
		}

		idx.Commit(key, project.SupervisorID, presidentID, reporterID, room.ID)
		return models.JuryDraft{
			ProjectID:    project.ID,
			ProjectTitle: project.Title,
			SupervisorID: project.SupervisorID,
			PresidentID:  presidentID,
			ReporterID:   reporterID,
			Date:         slot.Date,
			StartTime:    slot.StartLabel(),
			EndTime:      slot.EndLabel(),
			RoomID:       room.ID,
			Location:     room.Location(),
		}, "", true
	}

	switch stage {
	case 0:
		return models.JuryDraft{}, fmt.Sprintf("supervisor %s is not available in any candidate slot", project.SupervisorID), false
	case 1:
		return models.JuryDraft{}, "no available president with a positive duty deficit", false
	case 2:
		return models.JuryDraft{}, "no available reporter with a positive duty deficit", false
	default:
		return models.JuryDraft{}, "no free room", false
	}
}
