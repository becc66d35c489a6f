package models

// DocumentVersion is the storage schema version for persisted documents.
const DocumentVersion = 1

// DefaultSwitchoverTime is used when no switchover time has been configured.
const DefaultSwitchoverTime = "12:00"

// DaysOfWeek lists the canonical weekday keys, Monday first to match
// the weekly_schedule layout.
var DaysOfWeek = []string{
	"monday",
	"tuesday",
	"wednesday",
	"thursday",
	"friday",
	"saturday",
	"sunday",
}

// IsDayOfWeek reports whether day is one of the seven canonical keys.
func IsDayOfWeek(day string) bool {
	for _, d := range DaysOfWeek {
		if d == day {
			return true
		}
	}
	return false
}

// Item is a single required item, either owned by a child or shared
// through the library. IDs are unique within their owning scope only.
type Item struct {
	ID    string `json:"id"`
	Name  string `json:"name"`
	Image string `json:"image"`
}

// Child holds one tracked person's items, weekly pattern and
// date-specific exceptions.
type Child struct {
	Name           string              `json:"name"`
	Items          []Item              `json:"items"`
	WeeklySchedule map[string][]string `json:"weekly_schedule"`
	Exceptions     map[string][]string `json:"exceptions"`
}

// NewChild creates a child with empty items, all seven weekday keys and
// no exceptions.
func NewChild(name string) *Child {
	schedule := make(map[string][]string, len(DaysOfWeek))
	for _, day := range DaysOfWeek {
		schedule[day] = []string{}
	}
	return &Child{
		Name:           name,
		Items:          []Item{},
		WeeklySchedule: schedule,
		Exceptions:     map[string][]string{},
	}
}

// FindItem returns a pointer to the child's item with the given ID.
func (c *Child) FindItem(itemID string) *Item {
	for i := range c.Items {
		if c.Items[i].ID == itemID {
			return &c.Items[i]
		}
	}
	return nil
}

// Document is the root persisted entity. All mutation goes through the
// schedule coordinator; everything else sees read-only snapshots.
type Document struct {
	Children       []*Child `json:"children"`
	ItemLibrary    []Item   `json:"item_library"`
	SwitchoverTime string   `json:"switchover_time"`
}

// NewDocument returns the empty skeleton used when nothing has been
// persisted yet.
func NewDocument() *Document {
	return &Document{
		Children:       []*Child{},
		ItemLibrary:    []Item{},
		SwitchoverTime: DefaultSwitchoverTime,
	}
}

// FindChild returns the child with the given name, or nil.
func (d *Document) FindChild(name string) *Child {
	for _, child := range d.Children {
		if child.Name == name {
			return child
		}
	}
	return nil
}

// FindLibraryItem returns a pointer to the library item with the given ID.
func (d *Document) FindLibraryItem(itemID string) *Item {
	for i := range d.ItemLibrary {
		if d.ItemLibrary[i].ID == itemID {
			return &d.ItemLibrary[i]
		}
	}
	return nil
}

// Migrate upgrades a loaded document in place to the current schema:
// documents written before the item library existed get an empty one,
// children written before a day key existed get the missing keys, and a
// missing switchover time falls back to the default. Run once per load.
func (d *Document) Migrate() {
	if d.Children == nil {
		d.Children = []*Child{}
	}
	if d.ItemLibrary == nil {
		d.ItemLibrary = []Item{}
	}
	if d.SwitchoverTime == "" {
		d.SwitchoverTime = DefaultSwitchoverTime
	}
	for _, child := range d.Children {
		if child.Items == nil {
			child.Items = []Item{}
		}
		if child.WeeklySchedule == nil {
			child.WeeklySchedule = map[string][]string{}
		}
		for _, day := range DaysOfWeek {
			if child.WeeklySchedule[day] == nil {
				child.WeeklySchedule[day] = []string{}
			}
		}
		if child.Exceptions == nil {
			child.Exceptions = map[string][]string{}
		}
	}
}
