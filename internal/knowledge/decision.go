package knowledge

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Decision collects the fields of a decision log record. Context, Impact
// and Followup are optional and fall back to explicit placeholders so a
// half-filled record still reads as such.
type Decision struct {
	Title    string
	Project  string
	Decision string
	Context  string
	Impact   string
	Followup string
}

// BuildDecisionMarkdown renders a decision log entry.
func BuildDecisionMarkdown(d Decision, day time.Time) string {
	context := orDefault(strings.TrimSpace(d.Context), "(none provided)")
	impact := orDefault(strings.TrimSpace(d.Impact), "(to be assessed)")
	followup := orDefault(strings.TrimSpace(d.Followup), "(none)")

	var b strings.Builder
	fmt.Fprintf(&b, "# Decision: %s\n\n", d.Title)
	fmt.Fprintf(&b, "Date: %s\n", day.Format("2006-01-02"))
	fmt.Fprintf(&b, "Project: %s\n\n", d.Project)
	fmt.Fprintf(&b, "## Context\n%s\n\n", context)
	fmt.Fprintf(&b, "## Decision\n%s\n\n", strings.TrimSpace(d.Decision))
	fmt.Fprintf(&b, "## Impact\n%s\n\n", impact)
	fmt.Fprintf(&b, "## Follow-up\n%s\n", followup)
	return b.String()
}

var slugPattern = regexp.MustCompile(`[^a-z0-9]+`)

// Slugify turns free text into a filesystem-safe file name fragment.
func Slugify(value string) string {
	slug := slugPattern.ReplaceAllString(strings.ToLower(value), "-")
	slug = strings.Trim(slug, "-")
	if slug == "" {
		return "decision"
	}
	return slug
}

func orDefault(value, fallback string) string {
	if value == "" {
		return fallback
	}
	return value
}
