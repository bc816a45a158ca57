package plan

import (
	"sort"

	"backend-tripday/internal/planner"
)

// ToDocument flattens the live planner state into a document, one entry
// per day in day order. Days without generated text get an empty string.
func ToDocument(title, userID string, state planner.State) Document {
	schedule := make([]DayEntry, 0, state.Days)
	for d := 1; d <= state.Days; d++ {
		spots := state.Schedule[d].Spots
		if spots == nil {
			spots = []planner.Spot{}
		}
		schedule = append(schedule, DayEntry{
			Day:      d,
			Spots:    spots,
			PlanText: state.Generated[d],
		})
	}
	return Document{
		UserID:   userID,
		Title:    title,
		Days:     state.Days,
		Schedule: schedule,
	}
}

// FromDocument builds the display view. Spots are re-sorted by their
// order rank so the view does not depend on stored slice order.
func FromDocument(doc Document) View {
	schedule := make([]DayEntry, len(doc.Schedule))
	copy(schedule, doc.Schedule)
	sort.Slice(schedule, func(i, j int) bool { return schedule[i].Day < schedule[j].Day })
	for i := range schedule {
		spots := make([]planner.Spot, len(schedule[i].Spots))
		copy(spots, schedule[i].Spots)
		sort.Slice(spots, func(a, b int) bool { return spots[a].Order < spots[b].Order })
		schedule[i].Spots = spots
	}
	return View{
		ID:        doc.ID,
		Title:     doc.Title,
		Days:      doc.Days,
		Schedule:  schedule,
		CreatedAt: doc.CreatedAt,
	}
}
