package dedupe

import (
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/sells-group/dedupe/internal/model"
)

var mergeTime = time.Date(2026, 3, 14, 9, 30, 0, 0, time.UTC)

func TestMergeRecords_FillsEmptyFieldsOnly(t *testing.T) {
	keep := model.Record{ID: "k", Name: "Joe's Pizza", Email: "joe@pizza.com"}
	away := []model.Record{{ID: "m1", Name: "Joe Pizza", Phone: "5551234567"}}

	merged, filled := MergeRecords(keep, away, mergeTime)

	assert.Equal(t, "5551234567", merged.Phone)
	assert.Equal(t, "Joe's Pizza", merged.Name)
	assert.Equal(t, "joe@pizza.com", merged.Email)
	assert.Equal(t, []string{"phone"}, filled)
	assert.Equal(t, "[2026-03-14] Merged m1; filled: phone", merged.Notes)
	assert.Equal(t, mergeTime, merged.UpdatedAt)

	// Input untouched.
	assert.Empty(t, keep.Phone)
	assert.Empty(t, keep.Notes)
}

func TestMergeRecords_FirstNonEmptyWins(t *testing.T) {
	keep := model.Record{ID: "k", Name: "Acme"}
	away := []model.Record{
		{ID: "m1", City: "Austin", Phone: "  "},
		{ID: "m2", City: "Dallas", Phone: "555-000-1111", Website: "acme.com"},
	}

	merged, filled := MergeRecords(keep, away, mergeTime)

	assert.Equal(t, "Austin", merged.City)
	assert.Equal(t, "555-000-1111", merged.Phone)
	assert.Equal(t, "acme.com", merged.Website)
	assert.Equal(t, []string{"phone", "city", "website"}, filled)
	assert.Contains(t, merged.Notes, "Merged m1, m2")
}

func TestMergeRecords_AppendsToExistingNotes(t *testing.T) {
	keep := model.Record{ID: "k", Name: "Acme", Phone: "555-000-1111", Notes: "VIP account\n"}
	merged, filled := MergeRecords(keep, []model.Record{{ID: "m1", Phone: "555-999-9999"}}, mergeTime)

	assert.Empty(t, filled)
	lines := strings.Split(merged.Notes, "\n")
	assert.Equal(t, []string{"VIP account", "[2026-03-14] Merged m1; no fields filled"}, lines)
	assert.Equal(t, "555-000-1111", merged.Phone)
}

func TestMergeRecords_NothingToMerge(t *testing.T) {
	keep := model.Record{ID: "k", Name: "Acme"}
	merged, filled := MergeRecords(keep, nil, mergeTime)
	assert.Equal(t, keep, merged)
	assert.Empty(t, filled)
}
