package knowledge

import (
	"fmt"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

var day = time.Date(2026, time.August, 24, 12, 0, 0, 0, time.UTC)

func TestStatusBucket(t *testing.T) {
	tests := []struct {
		status string
		want   string
	}{
		{"Done", bucketCompleted},
		{"CLOSED", bucketCompleted},
		{"Resolved", bucketCompleted},
		{"Complete", bucketCompleted},
		{"Blocked", bucketBlockers},
		{"On hold", bucketBlockers},
		{"At risk", bucketBlockers},
		{"stuck", bucketBlockers},
		{"In progress", bucketInProgress},
		{"New", bucketInProgress},
		{"Specified", bucketInProgress},
		{"", bucketInProgress},
	}
	for _, tt := range tests {
		t.Run(tt.status, func(t *testing.T) {
			assert.Equal(t, tt.want, statusBucket(tt.status))
		})
	}
}

func TestBuildWeeklySummary(t *testing.T) {
	items := []Item{
		{ID: 1, Subject: "Ship importer", Status: "Closed", Assignee: "Ada Lovelace"},
		{ID: 2, Subject: "API pagination", Status: "In progress", Assignee: "Grace Hopper"},
		{ID: 3, Subject: "Schema migration", Status: "Blocked"},
		{ID: 4, Subject: "Docs sweep", Status: "New"},
	}

	got := BuildWeeklySummary("ACME Platform", day, items)

	want := `# Weekly Status - ACME Platform
Date: 2026-08-24

## Wins / completed
- #1 Ship importer (Closed; Ada Lovelace)

## In progress
- #2 API pagination (In progress; Grace Hopper)
- #4 Docs sweep (New; Unassigned)

## Blockers / risks
- #3 Schema migration (Blocked; Unassigned)

## Next focus
- #2 API pagination (In progress; Grace Hopper)
- #4 Docs sweep (New; Unassigned)
`
	assert.Equal(t, want, got)
}

func TestBuildWeeklySummaryEmptySnapshot(t *testing.T) {
	got := BuildWeeklySummary("ACME Platform", day, nil)

	want := `# Weekly Status - ACME Platform
Date: 2026-08-24

## Wins / completed
- No completed items detected in current snapshot.

## In progress
- No in-progress items detected.

## Blockers / risks
- No explicit blockers inferable from current status labels.

## Next focus
- Confirm priorities for the next sprint window.
`
	assert.Equal(t, want, got)
}

func TestBuildWeeklySummaryCapsSections(t *testing.T) {
	var items []Item
	for i := 1; i <= 12; i++ {
		items = append(items, Item{ID: i, Subject: fmt.Sprintf("task %d", i), Status: "Done"})
	}

	got := BuildWeeklySummary("ACME Platform", day, items)

	assert.Contains(t, got, "- #10 task 10")
	assert.NotContains(t, got, "- #11 ")
	assert.Contains(t, got, "- No in-progress items detected.")
}

func TestBuildWeeklySummaryNextFocusTakesFirstFive(t *testing.T) {
	var items []Item
	for i := 1; i <= 7; i++ {
		items = append(items, Item{ID: i, Subject: fmt.Sprintf("task %d", i), Status: "In progress"})
	}

	got := BuildWeeklySummary("ACME Platform", day, items)

	_, focus, found := strings.Cut(got, "## Next focus\n")
	assert.True(t, found)
	assert.Contains(t, focus, "- #5 task 5")
	assert.NotContains(t, focus, "- #6 ")
}

func TestItemLineDefaults(t *testing.T) {
	got := itemLine(Item{ID: 9})
	assert.Equal(t, "- #9 (no subject) (-; Unassigned)", got)
}
