package schedule

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/JunoAX/schoolbag-go/internal/models"
	"github.com/JunoAX/schoolbag-go/internal/storage"
)

// Coordinator owns the persisted document. Every mutation runs under a
// single mutex as load -> validate/apply -> save, then rebuilds the read
// projection before returning, so callers always observe their own
// write. Reads only touch the projection and never block mutations.
type Coordinator struct {
	store             storage.Store
	log               *zap.Logger
	defaultSwitchover string
	nowFn             func() time.Time

	mu sync.Mutex // serializes load -> mutate -> persist -> install

	snapMu   sync.RWMutex
	snapshot *models.Snapshot
}

// NewCoordinator creates a coordinator over the given store. The default
// switchover time seeds documents that have never been saved.
func NewCoordinator(store storage.Store, defaultSwitchover string, log *zap.Logger) *Coordinator {
	return &Coordinator{
		store:             store,
		log:               log,
		defaultSwitchover: NormalizeSwitchover(defaultSwitchover),
		nowFn:             time.Now,
		snapshot:          emptySnapshot(),
	}
}

func emptySnapshot() *models.Snapshot {
	return &models.Snapshot{
		State:          "Today",
		SwitchoverTime: models.DefaultSwitchoverTime,
		Children:       map[string]models.ChildView{},
		ItemLibrary:    []models.Item{},
	}
}

// load fetches the latest persisted document, defaulting to an empty
// skeleton and running the schema migration. Callers must hold c.mu.
func (c *Coordinator) load(ctx context.Context) (*models.Document, error) {
	doc, err := c.store.Load(ctx)
	if err != nil {
		return nil, err
	}
	if doc == nil {
		doc = models.NewDocument()
		doc.SwitchoverTime = c.defaultSwitchover
	}
	doc.Migrate()
	return doc, nil
}

// modify runs one mutation through the critical section. If the mutation
// returns an error nothing is persisted. On success the projection is
// rebuilt from the document in hand before modify returns, so the caller
// always observes their own write.
func (c *Coordinator) modify(ctx context.Context, fn func(doc *models.Document) error) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.load(ctx)
	if err != nil {
		return err
	}
	if err := fn(doc); err != nil {
		return err
	}
	if err := c.store.Save(ctx, doc); err != nil {
		return err
	}
	c.install(c.buildSnapshot(doc, c.nowFn()))
	return nil
}

// Refresh rebuilds the read projection from the latest persisted
// document and the current switchover clock. It holds the write mutex
// across load and install so a refresh that read an older document can
// never overwrite the projection of a later mutation.
func (c *Coordinator) Refresh(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	doc, err := c.load(ctx)
	if err != nil {
		return err
	}
	c.install(c.buildSnapshot(doc, c.nowFn()))
	return nil
}

func (c *Coordinator) install(snap *models.Snapshot) {
	c.snapMu.Lock()
	c.snapshot = snap
	c.snapMu.Unlock()
}

func (c *Coordinator) buildSnapshot(doc *models.Document, now time.Time) *models.Snapshot {
	displayDate, isTomorrow := DisplayDate(now, doc.SwitchoverTime)
	state := "Today"
	if isTomorrow {
		state = "Tomorrow"
	}

	snap := &models.Snapshot{
		State:          state,
		DisplayDate:    displayDate.Format(DateLayout),
		IsTomorrow:     isTomorrow,
		SwitchoverTime: doc.SwitchoverTime,
		Children:       make(map[string]models.ChildView, len(doc.Children)),
		ItemLibrary:    append([]models.Item{}, doc.ItemLibrary...),
	}
	for _, child := range doc.Children {
		snap.Children[child.Name] = models.ChildView{
			Name:           child.Name,
			ItemsToday:     Resolve(child, doc.ItemLibrary, displayDate),
			AllItems:       append([]models.Item{}, child.Items...),
			WeeklySchedule: copyIDMap(child.WeeklySchedule),
			Exceptions:     copyIDMap(child.Exceptions),
		}
	}
	return snap
}

func copyIDMap(m map[string][]string) map[string][]string {
	out := make(map[string][]string, len(m))
	for k, v := range m {
		out[k] = append([]string{}, v...)
	}
	return out
}

// Snapshot returns the current read projection. The returned value is
// immutable by convention; consumers must not modify it.
func (c *Coordinator) Snapshot() *models.Snapshot {
	c.snapMu.RLock()
	defer c.snapMu.RUnlock()
	return c.snapshot
}

// Run re-evaluates the switchover clock on a fixed interval so the
// projection flips at the day boundary and at the cutoff without
// requiring a mutation. Blocks until ctx is cancelled.
func (c *Coordinator) Run(ctx context.Context, interval time.Duration) error {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-ticker.C:
			if err := c.Refresh(ctx); err != nil {
				c.log.Warn("periodic refresh failed", zap.Error(err))
			}
		}
	}
}

// Destroy removes the persisted document and resets the projection.
// Used on instance teardown.
func (c *Coordinator) Destroy(ctx context.Context) error {
	c.mu.Lock()
	defer c.mu.Unlock()

	if err := c.store.Remove(ctx); err != nil {
		return err
	}
	c.install(emptySnapshot())
	c.log.Info("document removed")
	return nil
}

// CalendarEvents resolves the child's items for every date in
// [start, end] and returns one event per date with a non-empty result.
func (c *Coordinator) CalendarEvents(childName string, start, end time.Time) ([]models.CalendarEvent, error) {
	snap := c.Snapshot()
	view, ok := snap.Children[childName]
	if !ok {
		return nil, fmt.Errorf("child %q: %w", childName, ErrChildNotFound)
	}

	// Rebuild a child from the projection so range resolution uses the
	// same lookup as the live display.
	child := &models.Child{
		Name:           view.Name,
		Items:          view.AllItems,
		WeeklySchedule: view.WeeklySchedule,
		Exceptions:     view.Exceptions,
	}

	events := []models.CalendarEvent{}
	for date := start; !date.After(end); date = date.AddDate(0, 0, 1) {
		items := Resolve(child, snap.ItemLibrary, date)
		if len(items) == 0 {
			continue
		}
		names := make([]string, len(items))
		for i, item := range items {
			names[i] = item.Name
		}
		joined := strings.Join(names, ", ")
		events = append(events, models.CalendarEvent{
			Date:        date.Format(DateLayout),
			Summary:     fmt.Sprintf("%s: %s", childName, joined),
			Description: fmt.Sprintf("Items needed: %s", joined),
			Items:       items,
		})
	}
	return events, nil
}

// AddChild creates a new child with an empty schedule.
func (c *Coordinator) AddChild(ctx context.Context, name string) error {
	return c.modify(ctx, func(doc *models.Document) error {
		if doc.FindChild(name) != nil {
			return fmt.Errorf("child %q: %w", name, ErrChildExists)
		}
		doc.Children = append(doc.Children, models.NewChild(name))
		c.log.Info("added child", zap.String("child", name))
		return nil
	})
}

// RemoveChild deletes a child and everything scoped to it.
func (c *Coordinator) RemoveChild(ctx context.Context, name string) error {
	return c.modify(ctx, func(doc *models.Document) error {
		kept := doc.Children[:0]
		for _, child := range doc.Children {
			if child.Name != name {
				kept = append(kept, child)
			}
		}
		if len(kept) == len(doc.Children) {
			return fmt.Errorf("child %q: %w", name, ErrChildNotFound)
		}
		doc.Children = kept
		c.log.Info("removed child", zap.String("child", name))
		return nil
	})
}

// AddItem adds a private item to a child.
func (c *Coordinator) AddItem(ctx context.Context, childName string, item models.Item) error {
	return c.modify(ctx, func(doc *models.Document) error {
		child := doc.FindChild(childName)
		if child == nil {
			return fmt.Errorf("child %q: %w", childName, ErrChildNotFound)
		}
		if child.FindItem(item.ID) != nil {
			return fmt.Errorf("item %q for child %q: %w", item.ID, childName, ErrItemExists)
		}
		child.Items = append(child.Items, item)
		c.log.Info("added item", zap.String("child", childName), zap.String("item_id", item.ID))
		return nil
	})
}

// RemoveItem deletes a child's item and purges its id from every
// weekly-schedule day and every exception entry.
func (c *Coordinator) RemoveItem(ctx context.Context, childName, itemID string) error {
	return c.modify(ctx, func(doc *models.Document) error {
		child := doc.FindChild(childName)
		if child == nil {
			return fmt.Errorf("child %q: %w", childName, ErrChildNotFound)
		}
		kept := child.Items[:0]
		for _, item := range child.Items {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		if len(kept) == len(child.Items) {
			return fmt.Errorf("item %q for child %q: %w", itemID, childName, ErrItemNotFound)
		}
		child.Items = kept

		for _, day := range models.DaysOfWeek {
			child.WeeklySchedule[day] = removeID(child.WeeklySchedule[day], itemID)
		}
		for date := range child.Exceptions {
			child.Exceptions[date] = removeID(child.Exceptions[date], itemID)
		}
		c.log.Info("removed item", zap.String("child", childName), zap.String("item_id", itemID))
		return nil
	})
}

func removeID(ids []string, id string) []string {
	kept := ids[:0]
	for _, v := range ids {
		if v != id {
			kept = append(kept, v)
		}
	}
	return kept
}

// UpdateItem changes a child item's name and/or image. Nil fields are
// left unchanged.
func (c *Coordinator) UpdateItem(ctx context.Context, childName, itemID string, name, image *string) error {
	return c.modify(ctx, func(doc *models.Document) error {
		child := doc.FindChild(childName)
		if child == nil {
			return fmt.Errorf("child %q: %w", childName, ErrChildNotFound)
		}
		item := child.FindItem(itemID)
		if item == nil {
			return fmt.Errorf("item %q for child %q: %w", itemID, childName, ErrItemNotFound)
		}
		applyItemUpdate(item, name, image)
		c.log.Info("updated item", zap.String("child", childName), zap.String("item_id", itemID))
		return nil
	})
}

func applyItemUpdate(item *models.Item, name, image *string) {
	if name != nil {
		item.Name = *name
	}
	if image != nil {
		item.Image = *image
	}
}

// validateItemIDs checks every id against the child-then-library lookup.
func validateItemIDs(doc *models.Document, child *models.Child, itemIDs []string) error {
	index := ItemIndex(child, doc.ItemLibrary)
	var invalid []string
	for _, id := range itemIDs {
		if _, ok := index[id]; !ok {
			invalid = append(invalid, id)
		}
	}
	if len(invalid) > 0 {
		sort.Strings(invalid)
		return fmt.Errorf("%w for %s: %s", ErrUnknownItemIDs, child.Name, strings.Join(invalid, ", "))
	}
	return nil
}

// SetWeeklySchedule replaces the full id sequence for one weekday.
func (c *Coordinator) SetWeeklySchedule(ctx context.Context, childName, day string, itemIDs []string) error {
	if !models.IsDayOfWeek(day) {
		return fmt.Errorf("%w: %q, must be one of %s", ErrInvalidDay, day, strings.Join(models.DaysOfWeek, ", "))
	}
	return c.modify(ctx, func(doc *models.Document) error {
		child := doc.FindChild(childName)
		if child == nil {
			return fmt.Errorf("child %q: %w", childName, ErrChildNotFound)
		}
		if err := validateItemIDs(doc, child, itemIDs); err != nil {
			return err
		}
		child.WeeklySchedule[day] = append([]string{}, itemIDs...)
		c.log.Info("set weekly schedule", zap.String("child", childName), zap.String("day", day), zap.Strings("item_ids", itemIDs))
		return nil
	})
}

// AddException sets the id sequence for one specific date, overriding
// the weekly pattern. An empty sequence is valid and means no items are
// needed that day.
func (c *Coordinator) AddException(ctx context.Context, childName, date string, itemIDs []string) error {
	if _, err := time.Parse(DateLayout, date); err != nil {
		return fmt.Errorf("%w: %q", ErrInvalidDate, date)
	}
	return c.modify(ctx, func(doc *models.Document) error {
		child := doc.FindChild(childName)
		if child == nil {
			return fmt.Errorf("child %q: %w", childName, ErrChildNotFound)
		}
		if len(itemIDs) > 0 {
			if err := validateItemIDs(doc, child, itemIDs); err != nil {
				return err
			}
		}
		child.Exceptions[date] = append([]string{}, itemIDs...)
		c.log.Info("added exception", zap.String("child", childName), zap.String("date", date), zap.Strings("item_ids", itemIDs))
		return nil
	})
}

// RemoveException deletes the override for one date.
func (c *Coordinator) RemoveException(ctx context.Context, childName, date string) error {
	return c.modify(ctx, func(doc *models.Document) error {
		child := doc.FindChild(childName)
		if child == nil {
			return fmt.Errorf("child %q: %w", childName, ErrChildNotFound)
		}
		if _, ok := child.Exceptions[date]; !ok {
			return fmt.Errorf("child %q on %s: %w", childName, date, ErrExceptionNotFound)
		}
		delete(child.Exceptions, date)
		c.log.Info("removed exception", zap.String("child", childName), zap.String("date", date))
		return nil
	})
}

// SetSwitchoverTime stores the normalized cutoff. Unparseable input
// normalizes to 12:00 instead of failing.
func (c *Coordinator) SetSwitchoverTime(ctx context.Context, value string) error {
	normalized := NormalizeSwitchover(value)
	return c.modify(ctx, func(doc *models.Document) error {
		doc.SwitchoverTime = normalized
		c.log.Info("set switchover time", zap.String("switchover_time", normalized))
		return nil
	})
}

// AddLibraryItem adds an item to the shared library.
func (c *Coordinator) AddLibraryItem(ctx context.Context, item models.Item) error {
	return c.modify(ctx, func(doc *models.Document) error {
		if doc.FindLibraryItem(item.ID) != nil {
			return fmt.Errorf("item %q: %w", item.ID, ErrLibraryItemExists)
		}
		doc.ItemLibrary = append(doc.ItemLibrary, item)
		c.log.Info("added library item", zap.String("item_id", item.ID))
		return nil
	})
}

// RemoveLibraryItem deletes a library item. Copies already assigned to
// children are independent and stay untouched.
func (c *Coordinator) RemoveLibraryItem(ctx context.Context, itemID string) error {
	return c.modify(ctx, func(doc *models.Document) error {
		kept := doc.ItemLibrary[:0]
		for _, item := range doc.ItemLibrary {
			if item.ID != itemID {
				kept = append(kept, item)
			}
		}
		if len(kept) == len(doc.ItemLibrary) {
			return fmt.Errorf("item %q: %w", itemID, ErrLibraryItemNotFound)
		}
		doc.ItemLibrary = kept
		c.log.Info("removed library item", zap.String("item_id", itemID))
		return nil
	})
}

// UpdateLibraryItem changes a library item's name and/or image.
func (c *Coordinator) UpdateLibraryItem(ctx context.Context, itemID string, name, image *string) error {
	return c.modify(ctx, func(doc *models.Document) error {
		item := doc.FindLibraryItem(itemID)
		if item == nil {
			return fmt.Errorf("item %q: %w", itemID, ErrLibraryItemNotFound)
		}
		applyItemUpdate(item, name, image)
		c.log.Info("updated library item", zap.String("item_id", itemID))
		return nil
	})
}

// AssignLibraryItem copies a library item into a child's private items.
// Later edits to either copy do not propagate to the other.
func (c *Coordinator) AssignLibraryItem(ctx context.Context, childName, itemID string) error {
	return c.modify(ctx, func(doc *models.Document) error {
		libItem := doc.FindLibraryItem(itemID)
		if libItem == nil {
			return fmt.Errorf("item %q: %w", itemID, ErrLibraryItemNotFound)
		}
		child := doc.FindChild(childName)
		if child == nil {
			return fmt.Errorf("child %q: %w", childName, ErrChildNotFound)
		}
		if child.FindItem(itemID) != nil {
			return fmt.Errorf("item %q for child %q: %w", itemID, childName, ErrItemExists)
		}
		child.Items = append(child.Items, *libItem)
		c.log.Info("assigned library item", zap.String("child", childName), zap.String("item_id", itemID))
		return nil
	})
}
