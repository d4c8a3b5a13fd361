package openproject

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"sort"
	"strconv"
	"strings"
)

const defaultRelationLimit = 100

// relationTypes are the relation kinds API v3 accepts.
var relationTypes = map[string]bool{
	"relates":    true,
	"duplicates": true,
	"duplicated": true,
	"blocks":     true,
	"blocked":    true,
	"precedes":   true,
	"follows":    true,
	"includes":   true,
	"partof":     true,
	"requires":   true,
	"required":   true,
}

// RelationTypes returns the accepted relation kinds, sorted.
func RelationTypes() []string {
	out := make([]string, 0, len(relationTypes))
	for t := range relationTypes {
		out = append(out, t)
	}
	sort.Strings(out)
	return out
}

// Relations lists relations for a work package. Servers without the
// nested endpoint are retried through the global /relations collection
// with an involved filter.
func (c *Client) Relations(ctx context.Context, workPackageID, limit int) ([]Relation, error) {
	if limit <= 0 {
		limit = defaultRelationLimit
	}

	path := fmt.Sprintf("/work_packages/%d/relations", workPackageID)
	rels, err := collect[Relation](ctx, c, path, nil, limit)
	if err == nil {
		return rels, nil
	}
	if !hasStatus(err, http.StatusNotFound, http.StatusMethodNotAllowed) {
		return nil, err
	}

	filters, err := json.Marshal([]map[string]any{
		{"involved": map[string]any{"operator": "=", "values": []string{strconv.Itoa(workPackageID)}}},
	})
	if err != nil {
		return nil, fmt.Errorf("encode relation filters: %w", err)
	}
	params := url.Values{}
	params.Set("filters", string(filters))
	rels, err = collect[Relation](ctx, c, "/relations", params, limit)
	if hasStatus(err, http.StatusNotFound, http.StatusMethodNotAllowed) {
		return nil, fmt.Errorf("list relations for work package #%d: %w: %w", workPackageID, ErrEndpointUnsupported, err)
	}
	return rels, err
}

// RelationCreateOptions describes a relation from one work package to
// another. Lag is in working days when set.
type RelationCreateOptions struct {
	From        int
	To          int
	Type        string
	Description string
	Lag         *int
}

// CreateRelation creates a relation between two work packages.
func (c *Client) CreateRelation(ctx context.Context, opts RelationCreateOptions) (Relation, error) {
	relType := strings.ToLower(strings.TrimSpace(opts.Type))
	if !relationTypes[relType] {
		return Relation{}, fmt.Errorf("unsupported relation type %q. Allowed types: %s",
			opts.Type, strings.Join(RelationTypes(), ", "))
	}

	payload := map[string]any{
		"type": relType,
		"_links": map[string]any{
			"to": Link{Href: fmt.Sprintf("%s/work_packages/%d", apiPrefix, opts.To)},
		},
	}
	if opts.Description != "" {
		payload["description"] = opts.Description
	}
	if opts.Lag != nil {
		payload["lag"] = *opts.Lag
	}

	var rel Relation
	err := c.do(ctx, http.MethodPost, fmt.Sprintf("/work_packages/%d/relations", opts.From),
		nil, payload, &rel, http.StatusOK, http.StatusCreated)
	return rel, err
}
