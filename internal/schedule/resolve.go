package schedule

import (
	"time"

	"github.com/JunoAX/schoolbag-go/internal/models"
)

// DateLayout is the wire format for exception keys and display dates.
const DateLayout = "2006-01-02"

// DayName maps a date to its canonical weekly_schedule key.
func DayName(date time.Time) string {
	// time.Weekday has Sunday == 0; the schedule keys run Monday first.
	return models.DaysOfWeek[(int(date.Weekday())+6)%7]
}

// ItemIndex builds the id lookup used by resolution and by write-time
// validation: the child's own items first, then library items that do
// not collide. Child items always shadow library items with the same id.
func ItemIndex(child *models.Child, library []models.Item) map[string]models.Item {
	index := make(map[string]models.Item, len(child.Items)+len(library))
	for _, item := range child.Items {
		index[item.ID] = item
	}
	for _, item := range library {
		if _, ok := index[item.ID]; !ok {
			index[item.ID] = item
		}
	}
	return index
}

// ItemIDsFor returns the raw id sequence that applies to the child on
// the given date: an exception entry overrides the weekly pattern
// unconditionally, even when empty (a day off).
func ItemIDsFor(child *models.Child, date time.Time) []string {
	if ids, ok := child.Exceptions[date.Format(DateLayout)]; ok {
		return ids
	}
	return child.WeeklySchedule[DayName(date)]
}

// Resolve computes the ordered items the child needs on the given date.
// Ids that no longer resolve are dropped silently; write-time validation
// keeps them out of the document, but reads must never fail on stale ids.
func Resolve(child *models.Child, library []models.Item, date time.Time) []models.Item {
	index := ItemIndex(child, library)
	ids := ItemIDsFor(child, date)
	items := make([]models.Item, 0, len(ids))
	for _, id := range ids {
		if item, ok := index[id]; ok {
			items = append(items, item)
		}
	}
	return items
}
