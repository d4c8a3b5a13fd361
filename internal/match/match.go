// Package match picks a single resource from a candidate list by name.
//
// Matching is exact case-insensitive first, then substring; anything else
// is a typed not-found or ambiguity error so callers can show the user
// what was available instead of guessing.
package match

import (
	"fmt"
	"sort"
	"strings"
)

// Candidate is a named remote resource offered for matching. Aliases hold
// alternate identity keys such as a login, an email or a project identifier.
type Candidate struct {
	ID      int
	Name    string
	Aliases []string
}

func (c Candidate) keys() []string {
	keys := make([]string, 0, len(c.Aliases)+1)
	if k := normalize(c.Name); k != "" {
		keys = append(keys, k)
	}
	for _, a := range c.Aliases {
		if k := normalize(a); k != "" {
			keys = append(keys, k)
		}
	}
	return keys
}

// NotFoundError reports that no candidate matched the query.
type NotFoundError struct {
	Kind      string
	Query     string
	Available []string
}

func (e *NotFoundError) Error() string {
	if len(e.Available) == 0 {
		return fmt.Sprintf("%s %q not found", e.Kind, e.Query)
	}
	return fmt.Sprintf("%s %q not found. Available: %s", e.Kind, e.Query, hinted(e.Available))
}

// AmbiguousError reports that more than one candidate matched the query.
type AmbiguousError struct {
	Kind    string
	Query   string
	Matches []string
}

func (e *AmbiguousError) Error() string {
	return fmt.Sprintf("%s %q is ambiguous. Matches: %s", e.Kind, e.Query, hinted(e.Matches))
}

// One resolves query against candidates. Exactly one exact case-insensitive
// match wins; failing that, exactly one substring match wins; several
// matches yield an AmbiguousError and none a NotFoundError, both listing
// names the caller can print.
func One(kind, query string, candidates []Candidate) (Candidate, error) {
	q := normalize(query)
	var exact, partial []Candidate
	for _, c := range candidates {
		for _, k := range c.keys() {
			if k == q {
				exact = append(exact, c)
				break
			}
		}
	}
	if len(exact) == 1 {
		return exact[0], nil
	}
	if q != "" {
		for _, c := range candidates {
			for _, k := range c.keys() {
				if strings.Contains(k, q) {
					partial = append(partial, c)
					break
				}
			}
		}
	}
	if len(partial) == 1 {
		return partial[0], nil
	}
	if len(exact) > 1 {
		return Candidate{}, &AmbiguousError{Kind: kind, Query: query, Matches: names(exact)}
	}
	if len(partial) > 1 {
		return Candidate{}, &AmbiguousError{Kind: kind, Query: query, Matches: names(partial)}
	}
	return Candidate{}, &NotFoundError{Kind: kind, Query: query, Available: names(candidates)}
}

// maxHinted bounds how many names an error message spells out. A user
// directory can run to hundreds of entries; the hint stays readable.
const maxHinted = 20

func hinted(names []string) string {
	if len(names) > maxHinted {
		names = append(append(make([]string, 0, maxHinted+1), names[:maxHinted]...), "...")
	}
	return strings.Join(names, ", ")
}

func names(candidates []Candidate) []string {
	out := make([]string, 0, len(candidates))
	for _, c := range candidates {
		out = append(out, c.Name)
	}
	sort.Strings(out)
	return out
}

func normalize(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}
