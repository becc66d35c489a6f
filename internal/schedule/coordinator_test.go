package schedule

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"
	"go.uber.org/zap"

	"github.com/JunoAX/schoolbag-go/internal/models"
	"github.com/JunoAX/schoolbag-go/internal/storage"
)

func newTestCoordinator(t *testing.T) *Coordinator {
	t.Helper()
	store, err := storage.NewFileStore(t.TempDir(), "test", zap.NewNop())
	require.NoError(t, err)
	coord := NewCoordinator(store, "12:00", zap.NewNop())
	require.NoError(t, coord.Refresh(context.Background()))
	return coord
}

func TestAddChild(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))

	view, ok := coord.Snapshot().Children["Alex"]
	require.True(t, ok)
	assert.Empty(t, view.AllItems)
	assert.Len(t, view.WeeklySchedule, 7)
	for _, day := range models.DaysOfWeek {
		assert.NotNil(t, view.WeeklySchedule[day])
		assert.Empty(t, view.WeeklySchedule[day])
	}
}

func TestAddChild_Duplicate(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	err := coord.AddChild(ctx, "Alex")
	assert.ErrorIs(t, err, ErrChildExists)
}

func TestRemoveChild(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	require.NoError(t, coord.RemoveChild(ctx, "Alex"))
	assert.NotContains(t, coord.Snapshot().Children, "Alex")

	assert.ErrorIs(t, coord.RemoveChild(ctx, "Alex"), ErrChildNotFound)
}

func TestAddItem(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	require.NoError(t, coord.AddItem(ctx, "Alex", models.Item{ID: "A1", Name: "Backpack"}))

	assert.ErrorIs(t, coord.AddItem(ctx, "Alex", models.Item{ID: "A1", Name: "Other"}), ErrItemExists)
	assert.ErrorIs(t, coord.AddItem(ctx, "Nobody", models.Item{ID: "A2"}), ErrChildNotFound)

	view := coord.Snapshot().Children["Alex"]
	require.Len(t, view.AllItems, 1)
	assert.Equal(t, "Backpack", view.AllItems[0].Name)
}

func TestUpdateItem_PartialFields(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	require.NoError(t, coord.AddItem(ctx, "Alex", models.Item{ID: "A1", Name: "Backpack", Image: "/img/a.png"}))

	name := "Big Backpack"
	require.NoError(t, coord.UpdateItem(ctx, "Alex", "A1", &name, nil))

	item := coord.Snapshot().Children["Alex"].AllItems[0]
	assert.Equal(t, "Big Backpack", item.Name)
	assert.Equal(t, "/img/a.png", item.Image, "unsupplied field must be left unchanged")

	assert.ErrorIs(t, coord.UpdateItem(ctx, "Alex", "ghost", &name, nil), ErrItemNotFound)
}

func TestRemoveItem_CascadesIntoSchedules(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	require.NoError(t, coord.AddItem(ctx, "Alex", models.Item{ID: "A1", Name: "Backpack"}))
	require.NoError(t, coord.AddItem(ctx, "Alex", models.Item{ID: "A2", Name: "Lunchbox"}))
	require.NoError(t, coord.SetWeeklySchedule(ctx, "Alex", "monday", []string{"A1", "A2"}))
	require.NoError(t, coord.SetWeeklySchedule(ctx, "Alex", "friday", []string{"A1"}))
	require.NoError(t, coord.AddException(ctx, "Alex", "2024-03-15", []string{"A1", "A2"}))

	require.NoError(t, coord.RemoveItem(ctx, "Alex", "A1"))

	view := coord.Snapshot().Children["Alex"]
	assert.Equal(t, []string{"A2"}, view.WeeklySchedule["monday"])
	assert.Empty(t, view.WeeklySchedule["friday"])
	assert.Equal(t, []string{"A2"}, view.Exceptions["2024-03-15"])

	assert.ErrorIs(t, coord.RemoveItem(ctx, "Alex", "A1"), ErrItemNotFound)
}

func TestSetWeeklySchedule_Validation(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	require.NoError(t, coord.AddItem(ctx, "Alex", models.Item{ID: "A1", Name: "Backpack"}))

	assert.ErrorIs(t, coord.SetWeeklySchedule(ctx, "Alex", "funday", []string{"A1"}), ErrInvalidDay)
	assert.ErrorIs(t, coord.SetWeeklySchedule(ctx, "Alex", "monday", []string{"A1", "ghost"}), ErrUnknownItemIDs)
	assert.ErrorIs(t, coord.SetWeeklySchedule(ctx, "Nobody", "monday", []string{"A1"}), ErrChildNotFound)

	// A library id validates through the child-then-library lookup.
	require.NoError(t, coord.AddLibraryItem(ctx, models.Item{ID: "L1", Name: "Gym Kit"}))
	require.NoError(t, coord.SetWeeklySchedule(ctx, "Alex", "monday", []string{"A1", "L1"}))

	// Replaces the full sequence rather than merging.
	require.NoError(t, coord.SetWeeklySchedule(ctx, "Alex", "monday", []string{"L1"}))
	assert.Equal(t, []string{"L1"}, coord.Snapshot().Children["Alex"].WeeklySchedule["monday"])
}

func TestAddException_Validation(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	require.NoError(t, coord.AddItem(ctx, "Alex", models.Item{ID: "A1", Name: "Backpack"}))

	assert.ErrorIs(t, coord.AddException(ctx, "Alex", "15-03-2024", []string{"A1"}), ErrInvalidDate)
	assert.ErrorIs(t, coord.AddException(ctx, "Alex", "2024-03-15", []string{"ghost"}), ErrUnknownItemIDs)

	// The empty list is always accepted: it models a no-school day.
	require.NoError(t, coord.AddException(ctx, "Alex", "2024-03-15", []string{}))
	assert.Empty(t, coord.Snapshot().Children["Alex"].Exceptions["2024-03-15"])
}

func TestRemoveException_RoundTrip(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	require.NoError(t, coord.AddItem(ctx, "Alex", models.Item{ID: "A1", Name: "Backpack"}))
	require.NoError(t, coord.AddException(ctx, "Alex", "2024-03-15", []string{"A1"}))

	before := coord.Snapshot().Children["Alex"].Exceptions

	require.NoError(t, coord.RemoveException(ctx, "Alex", "2024-03-15"))
	assert.ErrorIs(t, coord.RemoveException(ctx, "Alex", "2024-03-15"), ErrExceptionNotFound)

	// Removing and re-adding reproduces the prior state exactly.
	require.NoError(t, coord.AddException(ctx, "Alex", "2024-03-15", []string{"A1"}))
	assert.Equal(t, before, coord.Snapshot().Children["Alex"].Exceptions)
}

func TestSetSwitchoverTime_Normalizes(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.SetSwitchoverTime(ctx, "9"))
	assert.Equal(t, "09:00", coord.Snapshot().SwitchoverTime)

	require.NoError(t, coord.SetSwitchoverTime(ctx, "25:99"))
	assert.Equal(t, "12:00", coord.Snapshot().SwitchoverTime)
}

func TestLibraryItems(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddLibraryItem(ctx, models.Item{ID: "L1", Name: "Gym Kit"}))
	assert.ErrorIs(t, coord.AddLibraryItem(ctx, models.Item{ID: "L1", Name: "Other"}), ErrLibraryItemExists)

	name := "PE Kit"
	require.NoError(t, coord.UpdateLibraryItem(ctx, "L1", &name, nil))
	assert.Equal(t, "PE Kit", coord.Snapshot().ItemLibrary[0].Name)
	assert.ErrorIs(t, coord.UpdateLibraryItem(ctx, "ghost", &name, nil), ErrLibraryItemNotFound)

	require.NoError(t, coord.RemoveLibraryItem(ctx, "L1"))
	assert.ErrorIs(t, coord.RemoveLibraryItem(ctx, "L1"), ErrLibraryItemNotFound)
}

func TestAssignLibraryItem_CopiesByValue(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	require.NoError(t, coord.AddLibraryItem(ctx, models.Item{ID: "L1", Name: "Gym Kit", Image: "/img/gym.png"}))

	assert.ErrorIs(t, coord.AssignLibraryItem(ctx, "Alex", "ghost"), ErrLibraryItemNotFound)
	require.NoError(t, coord.AssignLibraryItem(ctx, "Alex", "L1"))
	assert.ErrorIs(t, coord.AssignLibraryItem(ctx, "Alex", "L1"), ErrItemExists)

	// Editing the library copy must not touch the child's copy.
	name := "Renamed Kit"
	require.NoError(t, coord.UpdateLibraryItem(ctx, "L1", &name, nil))

	snap := coord.Snapshot()
	assert.Equal(t, "Renamed Kit", snap.ItemLibrary[0].Name)
	assert.Equal(t, "Gym Kit", snap.Children["Alex"].AllItems[0].Name)

	// And removing the library entry leaves the child's copy in place.
	require.NoError(t, coord.RemoveLibraryItem(ctx, "L1"))
	snap = coord.Snapshot()
	assert.Empty(t, snap.ItemLibrary)
	assert.Len(t, snap.Children["Alex"].AllItems, 1)
}

func TestRemovedItemNeverResolves(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	require.NoError(t, coord.AddItem(ctx, "Alex", models.Item{ID: "A1", Name: "Backpack"}))
	for _, day := range models.DaysOfWeek {
		require.NoError(t, coord.SetWeeklySchedule(ctx, "Alex", day, []string{"A1"}))
	}
	require.NoError(t, coord.RemoveItem(ctx, "Alex", "A1"))

	assert.Empty(t, coord.Snapshot().Children["Alex"].ItemsToday)
}

func TestSnapshot_DisplayDateFollowsClock(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	coord.nowFn = func() time.Time {
		return time.Date(2024, 3, 14, 11, 59, 0, 0, time.UTC)
	}
	require.NoError(t, coord.Refresh(ctx))
	snap := coord.Snapshot()
	assert.Equal(t, "Today", snap.State)
	assert.False(t, snap.IsTomorrow)
	assert.Equal(t, "2024-03-14", snap.DisplayDate)

	coord.nowFn = func() time.Time {
		return time.Date(2024, 3, 14, 12, 0, 0, 0, time.UTC)
	}
	require.NoError(t, coord.Refresh(ctx))
	snap = coord.Snapshot()
	assert.Equal(t, "Tomorrow", snap.State)
	assert.True(t, snap.IsTomorrow)
	assert.Equal(t, "2024-03-15", snap.DisplayDate)
}

func TestExceptionShownThroughSnapshot(t *testing.T) {
	// 2024-03-15 is a Friday with no weekly entry; the empty exception
	// still overrides whatever the weekday would say.
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	require.NoError(t, coord.AddItem(ctx, "Alex", models.Item{ID: "A1", Name: "Backpack"}))
	require.NoError(t, coord.SetWeeklySchedule(ctx, "Alex", "friday", []string{"A1"}))
	require.NoError(t, coord.AddException(ctx, "Alex", "2024-03-15", []string{}))

	coord.nowFn = func() time.Time {
		return time.Date(2024, 3, 15, 8, 0, 0, 0, time.UTC)
	}
	require.NoError(t, coord.Refresh(ctx))
	assert.Empty(t, coord.Snapshot().Children["Alex"].ItemsToday)
}

func TestCalendarEvents(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	require.NoError(t, coord.AddItem(ctx, "Alex", models.Item{ID: "A1", Name: "Backpack"}))
	require.NoError(t, coord.AddItem(ctx, "Alex", models.Item{ID: "A2", Name: "Lunchbox"}))
	require.NoError(t, coord.SetWeeklySchedule(ctx, "Alex", "monday", []string{"A1", "A2"}))

	// One week starting Monday 2024-03-11; only Monday has items.
	start := time.Date(2024, 3, 11, 0, 0, 0, 0, time.UTC)
	events, err := coord.CalendarEvents("Alex", start, start.AddDate(0, 0, 6))
	require.NoError(t, err)
	require.Len(t, events, 1)
	assert.Equal(t, "2024-03-11", events[0].Date)
	assert.Equal(t, "Alex: Backpack, Lunchbox", events[0].Summary)

	// An empty exception suppresses the event for that date.
	require.NoError(t, coord.AddException(ctx, "Alex", "2024-03-11", []string{}))
	events, err = coord.CalendarEvents("Alex", start, start.AddDate(0, 0, 6))
	require.NoError(t, err)
	assert.Empty(t, events)

	_, err = coord.CalendarEvents("Nobody", start, start)
	assert.ErrorIs(t, err, ErrChildNotFound)
}

func TestMigration_BackfillsLegacyDocument(t *testing.T) {
	store, err := storage.NewFileStore(t.TempDir(), "legacy", zap.NewNop())
	require.NoError(t, err)
	ctx := context.Background()

	// A document written before the library feature existed: no
	// item_library, partial weekday keys, no exceptions map.
	require.NoError(t, store.Save(ctx, &models.Document{
		Children: []*models.Child{{
			Name:           "Old",
			WeeklySchedule: map[string][]string{"monday": {}},
		}},
		SwitchoverTime: "08:00",
	}))

	coord := NewCoordinator(store, "12:00", zap.NewNop())
	require.NoError(t, coord.Refresh(ctx))

	view := coord.Snapshot().Children["Old"]
	assert.Len(t, view.WeeklySchedule, 7)
	assert.NotNil(t, coord.Snapshot().ItemLibrary)
	assert.Equal(t, "08:00", coord.Snapshot().SwitchoverTime)

	// Mutations work against the migrated document.
	require.NoError(t, coord.AddItem(ctx, "Old", models.Item{ID: "B1", Name: "Boots"}))
	require.NoError(t, coord.SetWeeklySchedule(ctx, "Old", "sunday", []string{"B1"}))
}

type failingStore struct {
	storage.Store
	saveErr error
}

func (f *failingStore) Save(ctx context.Context, doc *models.Document) error {
	if f.saveErr != nil {
		return f.saveErr
	}
	return f.Store.Save(ctx, doc)
}

func TestMutation_PersistenceFailureLeavesStateUntouched(t *testing.T) {
	inner, err := storage.NewFileStore(t.TempDir(), "test", zap.NewNop())
	require.NoError(t, err)
	store := &failingStore{Store: inner}
	coord := NewCoordinator(store, "12:00", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))

	store.saveErr = errors.New("disk full")
	err = coord.AddChild(ctx, "Billie")
	require.Error(t, err)
	assert.ErrorContains(t, err, "disk full")

	store.saveErr = nil
	require.NoError(t, coord.Refresh(ctx))
	snap := coord.Snapshot()
	assert.Contains(t, snap.Children, "Alex")
	assert.NotContains(t, snap.Children, "Billie")
}

type stallingStore struct {
	storage.Store

	mu      sync.Mutex
	entered chan struct{}
	release chan struct{}
}

// stallNextLoad arms the store so the next Load signals entered after
// reading and then blocks until release is closed.
func (s *stallingStore) stallNextLoad() (entered, release chan struct{}) {
	entered = make(chan struct{})
	release = make(chan struct{})
	s.mu.Lock()
	s.entered, s.release = entered, release
	s.mu.Unlock()
	return entered, release
}

func (s *stallingStore) Load(ctx context.Context) (*models.Document, error) {
	doc, err := s.Store.Load(ctx)
	s.mu.Lock()
	entered, release := s.entered, s.release
	s.entered, s.release = nil, nil
	s.mu.Unlock()
	if entered != nil {
		close(entered)
		<-release
	}
	return doc, err
}

func TestRefresh_DoesNotRollBackCommittedWrite(t *testing.T) {
	inner, err := storage.NewFileStore(t.TempDir(), "test", zap.NewNop())
	require.NoError(t, err)
	store := &stallingStore{Store: inner}
	coord := NewCoordinator(store, "12:00", zap.NewNop())
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))

	// Stall a refresh after it has read the document, then run a mutation
	// concurrently. The stalled refresh must not install its older view
	// over the mutation's projection.
	entered, release := store.stallNextLoad()
	refreshDone := make(chan error, 1)
	go func() { refreshDone <- coord.Refresh(ctx) }()
	<-entered

	addDone := make(chan error, 1)
	go func() { addDone <- coord.AddChild(ctx, "Billie") }()

	time.Sleep(20 * time.Millisecond)
	close(release)

	require.NoError(t, <-refreshDone)
	require.NoError(t, <-addDone)

	snap := coord.Snapshot()
	assert.Contains(t, snap.Children, "Alex")
	assert.Contains(t, snap.Children, "Billie")
}

func TestConcurrentAddItem_NoLostUpdates(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()
	require.NoError(t, coord.AddChild(ctx, "Alex"))

	const n = 20
	var wg sync.WaitGroup
	errs := make([]error, n)
	for i := 0; i < n; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = coord.AddItem(ctx, "Alex", models.Item{
				ID:   string(rune('a' + i)),
				Name: "Item",
			})
		}(i)
	}
	wg.Wait()

	for i, err := range errs {
		assert.NoError(t, err, "add %d", i)
	}
	assert.Len(t, coord.Snapshot().Children["Alex"].AllItems, n)
}

func TestConcurrentAddChild_SameName(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	var wg sync.WaitGroup
	errs := make([]error, 2)
	for i := 0; i < 2; i++ {
		wg.Add(1)
		go func(i int) {
			defer wg.Done()
			errs[i] = coord.AddChild(ctx, "Alex")
		}(i)
	}
	wg.Wait()

	failures := 0
	for _, err := range errs {
		if err != nil {
			assert.ErrorIs(t, err, ErrChildExists)
			failures++
		}
	}
	assert.Equal(t, 1, failures, "exactly one of the two calls must fail")
	assert.Len(t, coord.Snapshot().Children, 1)
}

func TestDestroy(t *testing.T) {
	coord := newTestCoordinator(t)
	ctx := context.Background()

	require.NoError(t, coord.AddChild(ctx, "Alex"))
	require.NoError(t, coord.Destroy(ctx))
	assert.Empty(t, coord.Snapshot().Children)

	// The store starts from the empty skeleton again.
	require.NoError(t, coord.Refresh(ctx))
	assert.Empty(t, coord.Snapshot().Children)
}

func TestRun_StopsOnCancel(t *testing.T) {
	defer goleak.VerifyNone(t)

	coord := newTestCoordinator(t)
	ctx, cancel := context.WithCancel(context.Background())

	done := make(chan error, 1)
	go func() {
		done <- coord.Run(ctx, 10*time.Millisecond)
	}()

	time.Sleep(30 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.ErrorIs(t, err, context.Canceled)
	case <-time.After(time.Second):
		t.Fatal("refresher did not stop after cancel")
	}
}
