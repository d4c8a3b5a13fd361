package openproject

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"opline/internal/match"
)

const defaultUserLimit = 200

// Statuses lists the globally configured work package statuses.
func (c *Client) Statuses(ctx context.Context) ([]Status, error) {
	var env struct {
		Embedded struct {
			Elements []Status `json:"elements"`
		} `json:"_embedded"`
	}
	if err := c.do(ctx, http.MethodGet, "/statuses", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Embedded.Elements, nil
}

// Priorities lists the configured work package priorities.
func (c *Client) Priorities(ctx context.Context) ([]Priority, error) {
	var env struct {
		Embedded struct {
			Elements []Priority `json:"elements"`
		} `json:"_embedded"`
	}
	if err := c.do(ctx, http.MethodGet, "/priorities", nil, nil, &env); err != nil {
		return nil, err
	}
	return env.Embedded.Elements, nil
}

// Types lists work package types, scoped to a project when projectID is
// positive. Servers without the project-scoped endpoint fall back to the
// global list.
func (c *Client) Types(ctx context.Context, projectID int) ([]Type, error) {
	var paths []string
	if projectID > 0 {
		paths = append(paths, fmt.Sprintf("/projects/%d/types", projectID))
	}
	paths = append(paths, "/types")

	for _, path := range paths {
		var env struct {
			Embedded struct {
				Elements []Type `json:"elements"`
			} `json:"_embedded"`
		}
		if err := c.do(ctx, http.MethodGet, path, nil, nil, &env); err != nil {
			if strings.HasPrefix(path, "/projects/") && hasStatus(err, http.StatusNotFound, http.StatusMethodNotAllowed) {
				continue
			}
			return nil, err
		}
		if len(env.Embedded.Elements) > 0 {
			return env.Embedded.Elements, nil
		}
	}
	return nil, nil
}

// Users lists principals visible to the current account. A non-positive
// limit falls back to the default cap.
func (c *Client) Users(ctx context.Context, limit int) ([]User, error) {
	if limit <= 0 {
		limit = defaultUserLimit
	}
	return collect[User](ctx, c, "/users", nil, limit)
}

// ResolveStatus resolves a status by name.
func (c *Client) ResolveStatus(ctx context.Context, name string) (Status, error) {
	statuses, err := c.Statuses(ctx)
	if err != nil {
		return Status{}, err
	}
	if len(statuses) == 0 {
		return Status{}, errors.New("no statuses were returned by OpenProject")
	}

	candidates := make([]match.Candidate, 0, len(statuses))
	for _, s := range statuses {
		candidates = append(candidates, match.Candidate{ID: s.ID, Name: s.Name})
	}
	picked, err := match.One("status", name, candidates)
	if err != nil {
		return Status{}, err
	}
	for _, s := range statuses {
		if s.ID == picked.ID {
			return s, nil
		}
	}
	return Status{}, fmt.Errorf("status %q resolved to an unknown id", name)
}

// ResolvePriority resolves a priority by name.
func (c *Client) ResolvePriority(ctx context.Context, name string) (Priority, error) {
	priorities, err := c.Priorities(ctx)
	if err != nil {
		return Priority{}, err
	}
	if len(priorities) == 0 {
		return Priority{}, errors.New("no priorities were returned by OpenProject")
	}

	candidates := make([]match.Candidate, 0, len(priorities))
	for _, p := range priorities {
		candidates = append(candidates, match.Candidate{ID: p.ID, Name: p.Name})
	}
	picked, err := match.One("priority", name, candidates)
	if err != nil {
		return Priority{}, err
	}
	for _, p := range priorities {
		if p.ID == picked.ID {
			return p, nil
		}
	}
	return Priority{}, fmt.Errorf("priority %q resolved to an unknown id", name)
}

// ResolveType resolves a work package type by name. Project-scoped types
// are preferred; a type only configured globally still resolves, which
// matters on servers that hide the project-scoped endpoint.
func (c *Client) ResolveType(ctx context.Context, projectID int, name string) (Type, error) {
	pool, err := c.typePool(ctx, projectID)
	if err != nil {
		return Type{}, err
	}
	if len(pool) == 0 {
		return Type{}, errors.New("could not resolve the type list from OpenProject: check permissions for reading types")
	}

	candidates := make([]match.Candidate, 0, len(pool))
	for _, t := range pool {
		candidates = append(candidates, match.Candidate{ID: t.ID, Name: t.Name})
	}
	picked, err := match.One("type", name, candidates)
	if err != nil {
		return Type{}, err
	}
	for _, t := range pool {
		if t.ID == picked.ID {
			return t, nil
		}
	}
	return Type{}, fmt.Errorf("type %q resolved to an unknown id", name)
}

// typePool merges project-scoped and global types, project scope first,
// deduplicated by id. Missing endpoints are tolerated; only when both
// scopes fail or come back empty is the pool empty.
func (c *Client) typePool(ctx context.Context, projectID int) ([]Type, error) {
	var paths []string
	if projectID > 0 {
		paths = append(paths, fmt.Sprintf("/projects/%d/types", projectID))
	}
	paths = append(paths, "/types")

	var pool []Type
	seen := make(map[int]bool)
	for _, path := range paths {
		var env struct {
			Embedded struct {
				Elements []Type `json:"elements"`
			} `json:"_embedded"`
		}
		if err := c.do(ctx, http.MethodGet, path, nil, nil, &env); err != nil {
			if hasStatus(err, http.StatusNotFound, http.StatusMethodNotAllowed) {
				continue
			}
			return nil, err
		}
		for _, t := range env.Embedded.Elements {
			if seen[t.ID] {
				continue
			}
			seen[t.ID] = true
			pool = append(pool, t)
		}
	}
	return pool, nil
}

// ResolveUser resolves an assignee reference. A lone "me" resolves to the
// authenticated account and numeric references are fetched directly;
// anything else is matched against the visible user list by name, login or
// full name.
func (c *Client) ResolveUser(ctx context.Context, ref string) (User, error) {
	target := strings.TrimSpace(ref)
	if target == "" {
		return User{}, errors.New("assignee reference is empty")
	}

	if strings.EqualFold(target, "me") {
		var u User
		if err := c.do(ctx, http.MethodGet, "/users/me", nil, nil, &u); err != nil {
			return User{}, err
		}
		return u, nil
	}

	if isDigits(target) {
		var u User
		if err := c.do(ctx, http.MethodGet, "/users/"+target, nil, nil, &u); err != nil {
			return User{}, err
		}
		return u, nil
	}

	users, err := c.Users(ctx, 500)
	if err != nil {
		if hasStatus(err, http.StatusForbidden) {
			return User{}, errors.New("cannot resolve an assignee by name because listing users is not permitted: use a numeric user id or request the user-list permission")
		}
		return User{}, err
	}

	candidates := make([]match.Candidate, 0, len(users))
	for _, u := range users {
		candidates = append(candidates, match.Candidate{
			ID:      u.ID,
			Name:    u.DisplayName(),
			Aliases: u.identityKeys(),
		})
	}
	picked, err := match.One("user", target, candidates)
	if err != nil {
		return User{}, err
	}
	for _, u := range users {
		if u.ID == picked.ID {
			return u, nil
		}
	}
	return User{}, fmt.Errorf("user %q resolved to an unknown id", ref)
}

// FilterUsers applies a case-insensitive substring filter over user
// identity fields. An empty query keeps everything.
func FilterUsers(users []User, query string) []User {
	needle := strings.ToLower(strings.TrimSpace(query))
	if needle == "" {
		return users
	}
	var out []User
	for _, u := range users {
		for _, key := range u.identityKeys() {
			if strings.Contains(strings.ToLower(key), needle) {
				out = append(out, u)
				break
			}
		}
	}
	return out
}

func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}
