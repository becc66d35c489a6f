package models

// ChildView is the denormalized per-child slice of a Snapshot.
type ChildView struct {
	Name           string              `json:"name"`
	ItemsToday     []Item              `json:"items_today"`
	AllItems       []Item              `json:"all_items"`
	WeeklySchedule map[string][]string `json:"weekly_schedule"`
	Exceptions     map[string][]string `json:"exceptions"`
}

// Snapshot is the read projection rebuilt on every refresh. Presentation
// layers only ever see this, never the raw Document.
type Snapshot struct {
	State          string               `json:"state"` // "Today" or "Tomorrow"
	DisplayDate    string               `json:"display_date"`
	IsTomorrow     bool                 `json:"is_tomorrow"`
	SwitchoverTime string               `json:"switchover_time"`
	Children       map[string]ChildView `json:"children"`
	ItemLibrary    []Item               `json:"item_library"`
}

// CalendarEvent is one day's resolved items in the calendar feed.
type CalendarEvent struct {
	Date        string `json:"date"`
	Summary     string `json:"summary"`
	Description string `json:"description"`
	Items       []Item `json:"items"`
}
