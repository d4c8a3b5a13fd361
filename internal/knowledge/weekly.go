// Package knowledge renders project-knowledge markdown artifacts, the
// weekly status summary and decision log entries, and places them under
// the knowledge directory tree.
package knowledge

import (
	"fmt"
	"strings"
	"time"
)

// Item carries the slice of a work package the summary builder needs.
// Callers map their API types onto it.
type Item struct {
	ID       int
	Subject  string
	Status   string
	Assignee string
}

const (
	bucketCompleted  = "completed"
	bucketBlockers   = "blockers"
	bucketInProgress = "in_progress"
)

var (
	completedTokens = []string{"done", "closed", "resolved", "complete"}
	blockerTokens   = []string{"block", "risk", "hold", "stuck"}
)

// statusBucket maps a status label onto a summary bucket. Anything that
// is neither clearly finished nor clearly stuck counts as in progress.
func statusBucket(status string) string {
	label := strings.ToLower(status)
	for _, token := range completedTokens {
		if strings.Contains(label, token) {
			return bucketCompleted
		}
	}
	for _, token := range blockerTokens {
		if strings.Contains(label, token) {
			return bucketBlockers
		}
	}
	return bucketInProgress
}

// BuildWeeklySummary renders the weekly status markdown for a project
// snapshot. Sections are capped so the summary stays skimmable.
func BuildWeeklySummary(projectName string, day time.Time, items []Item) string {
	var completed, inProgress, blockers []Item
	for _, it := range items {
		switch statusBucket(it.Status) {
		case bucketCompleted:
			completed = append(completed, it)
		case bucketBlockers:
			blockers = append(blockers, it)
		default:
			inProgress = append(inProgress, it)
		}
	}

	lines := []string{
		"# Weekly Status - " + projectName,
		"Date: " + day.Format("2006-01-02"),
		"",
		"## Wins / completed",
	}
	lines = appendItems(lines, completed, 10, "- No completed items detected in current snapshot.")
	lines = append(lines, "", "## In progress")
	lines = appendItems(lines, inProgress, 15, "- No in-progress items detected.")
	lines = append(lines, "", "## Blockers / risks")
	lines = appendItems(lines, blockers, 10, "- No explicit blockers inferable from current status labels.")
	lines = append(lines, "", "## Next focus")
	lines = appendItems(lines, inProgress, 5, "- Confirm priorities for the next sprint window.")

	return strings.TrimSpace(strings.Join(lines, "\n")) + "\n"
}

func appendItems(lines []string, items []Item, limit int, placeholder string) []string {
	if len(items) == 0 {
		return append(lines, placeholder)
	}
	for _, it := range items[:min(len(items), limit)] {
		lines = append(lines, itemLine(it))
	}
	return lines
}

func itemLine(it Item) string {
	subject := it.Subject
	if subject == "" {
		subject = "(no subject)"
	}
	status := it.Status
	if status == "" {
		status = "-"
	}
	assignee := it.Assignee
	if assignee == "" {
		assignee = "Unassigned"
	}
	return fmt.Sprintf("- #%d %s (%s; %s)", it.ID, subject, status, assignee)
}
