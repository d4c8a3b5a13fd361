package openproject

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"opline/internal/match"
)

const defaultProjectLimit = 500

// Projects lists projects visible to the current account. A non-positive
// limit falls back to the default cap.
func (c *Client) Projects(ctx context.Context, limit int) ([]Project, error) {
	if limit <= 0 {
		limit = defaultProjectLimit
	}
	return collect[Project](ctx, c, "/projects", nil, limit)
}

// ResolveProject resolves ref against the visible projects by numeric id,
// identifier or name.
func (c *Client) ResolveProject(ctx context.Context, ref string) (Project, error) {
	target := strings.TrimSpace(ref)
	if target == "" {
		return Project{}, errors.New("project reference is empty")
	}

	projects, err := c.Projects(ctx, 0)
	if err != nil {
		return Project{}, err
	}
	if len(projects) == 0 {
		return Project{}, errors.New("no projects were returned by OpenProject")
	}

	candidates := make([]match.Candidate, 0, len(projects))
	for _, p := range projects {
		candidates = append(candidates, match.Candidate{
			ID:      p.ID,
			Name:    p.Name,
			Aliases: []string{p.Identifier, strconv.Itoa(p.ID)},
		})
	}

	picked, err := match.One("project", target, candidates)
	if err != nil {
		var notFound *match.NotFoundError
		if errors.As(err, &notFound) {
			return Project{}, fmt.Errorf("could not resolve project: provide a valid project ID or identifier, or set OPENPROJECT_DEFAULT_PROJECT: %w", err)
		}
		return Project{}, err
	}
	for _, p := range projects {
		if p.ID == picked.ID {
			return p, nil
		}
	}
	return Project{}, fmt.Errorf("project %q resolved to an unknown id", ref)
}

// ResolveProjectIdentifier resolves ref and returns the stable identifier
// used by legacy wiki paths.
func (c *Client) ResolveProjectIdentifier(ctx context.Context, ref string) (string, error) {
	p, err := c.ResolveProject(ctx, ref)
	if err != nil {
		return "", err
	}
	if id := strings.TrimSpace(p.Identifier); id != "" {
		return id, nil
	}
	if p.ID != 0 {
		return strconv.Itoa(p.ID), nil
	}
	return "", errors.New("resolved project does not include an identifier or id")
}
