package models

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewChild_HasAllWeekdayKeys(t *testing.T) {
	child := NewChild("Alex")
	require.Len(t, child.WeeklySchedule, 7)
	for _, day := range DaysOfWeek {
		ids, ok := child.WeeklySchedule[day]
		assert.True(t, ok, "missing key %s", day)
		assert.Empty(t, ids)
	}
	assert.NotNil(t, child.Items)
	assert.NotNil(t, child.Exceptions)
}

func TestIsDayOfWeek(t *testing.T) {
	assert.True(t, IsDayOfWeek("monday"))
	assert.True(t, IsDayOfWeek("sunday"))
	assert.False(t, IsDayOfWeek("Monday"))
	assert.False(t, IsDayOfWeek("funday"))
	assert.False(t, IsDayOfWeek(""))
}

func TestMigrate_BackfillsMissingFields(t *testing.T) {
	doc := &Document{
		Children: []*Child{
			{Name: "Old", WeeklySchedule: map[string][]string{"monday": {"A1"}}},
		},
	}
	doc.Migrate()

	assert.NotNil(t, doc.ItemLibrary)
	assert.Equal(t, DefaultSwitchoverTime, doc.SwitchoverTime)

	child := doc.Children[0]
	assert.NotNil(t, child.Items)
	assert.NotNil(t, child.Exceptions)
	require.Len(t, child.WeeklySchedule, 7)
	assert.Equal(t, []string{"A1"}, child.WeeklySchedule["monday"], "existing entries survive migration")
	assert.Empty(t, child.WeeklySchedule["tuesday"])
}

func TestMigrate_EmptyDocument(t *testing.T) {
	doc := &Document{}
	doc.Migrate()
	assert.NotNil(t, doc.Children)
	assert.NotNil(t, doc.ItemLibrary)
	assert.Equal(t, DefaultSwitchoverTime, doc.SwitchoverTime)
}

func TestFindChild(t *testing.T) {
	doc := NewDocument()
	doc.Children = append(doc.Children, NewChild("Alex"))

	assert.NotNil(t, doc.FindChild("Alex"))
	assert.Nil(t, doc.FindChild("alex"), "child names are case sensitive")
	assert.Nil(t, doc.FindChild("Billie"))
}

func TestFindLibraryItem_ReturnsPointerIntoLibrary(t *testing.T) {
	doc := NewDocument()
	doc.ItemLibrary = append(doc.ItemLibrary, Item{ID: "L1", Name: "Gym Kit"})

	item := doc.FindLibraryItem("L1")
	require.NotNil(t, item)
	item.Name = "PE Kit"
	assert.Equal(t, "PE Kit", doc.ItemLibrary[0].Name)

	assert.Nil(t, doc.FindLibraryItem("ghost"))
}
