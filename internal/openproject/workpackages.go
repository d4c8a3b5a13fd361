package openproject

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"

	"opline/internal/match"
)

const defaultWorkPackageLimit = 50

// WorkPackageListOptions narrows a work package listing. Status and
// Assignee are sent as server-side query hints first; servers that reject
// them are retried without and filtered client-side by the caller.
type WorkPackageListOptions struct {
	Status   string
	Assignee string
	Limit    int
}

// WorkPackages lists work packages in a project.
func (c *Client) WorkPackages(ctx context.Context, projectID int, opts WorkPackageListOptions) ([]WorkPackage, error) {
	limit := opts.Limit
	if limit <= 0 {
		limit = defaultWorkPackageLimit
	}

	params := url.Values{}
	if opts.Status != "" {
		params.Set("status", opts.Status)
	}
	if opts.Assignee != "" {
		params.Set("assignee", opts.Assignee)
	}

	path := fmt.Sprintf("/projects/%d/work_packages", projectID)
	wps, err := collect[WorkPackage](ctx, c, path, params, limit)
	if err == nil {
		return wps, nil
	}
	if len(params) == 0 || !hasStatus(err, http.StatusBadRequest, http.StatusUnprocessableEntity) {
		return nil, err
	}
	// The server rejected the filter hints; fetch unfiltered.
	return collect[WorkPackage](ctx, c, path, nil, limit)
}

// FilterWorkPackages applies case-insensitive substring filters on status
// and assignee labels. Empty filters keep everything.
func FilterWorkPackages(wps []WorkPackage, status, assignee string) []WorkPackage {
	statusQuery := strings.ToLower(strings.TrimSpace(status))
	assigneeQuery := strings.ToLower(strings.TrimSpace(assignee))
	if statusQuery == "" && assigneeQuery == "" {
		return wps
	}

	var out []WorkPackage
	for _, wp := range wps {
		wpStatus := strings.ToLower(wp.Links.TitleOr("status", ""))
		wpAssignee := strings.ToLower(wp.Links.TitleOr("assignee", "unassigned"))
		if statusQuery != "" && !strings.Contains(wpStatus, statusQuery) {
			continue
		}
		if assigneeQuery != "" && !strings.Contains(wpAssignee, assigneeQuery) {
			continue
		}
		out = append(out, wp)
	}
	return out
}

// GetWorkPackage fetches a single work package by id.
func (c *Client) GetWorkPackage(ctx context.Context, id int) (WorkPackage, error) {
	var wp WorkPackage
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/work_packages/%d", id), nil, nil, &wp)
	return wp, err
}

// WorkPackageCreateOptions describes a new work package. Type defaults to
// "Task".
type WorkPackageCreateOptions struct {
	Subject     string
	Type        string
	Description string
}

// CreateWorkPackage creates a work package in project.
func (c *Client) CreateWorkPackage(ctx context.Context, project Project, opts WorkPackageCreateOptions) (WorkPackage, error) {
	typeName := opts.Type
	if strings.TrimSpace(typeName) == "" {
		typeName = "Task"
	}
	typ, err := c.ResolveType(ctx, project.ID, typeName)
	if err != nil {
		return WorkPackage{}, err
	}

	payload := map[string]any{
		"subject": opts.Subject,
		"_links": map[string]any{
			"project": Link{Href: project.SelfHref()},
			"type":    Link{Href: typ.SelfHref()},
		},
	}
	if opts.Description != "" {
		payload["description"] = Formattable{Raw: opts.Description}
	}

	var created WorkPackage
	err = c.do(ctx, http.MethodPost, "/work_packages", nil, payload, &created,
		http.StatusOK, http.StatusCreated)
	return created, err
}

// WorkPackageUpdateOptions carries the mutable fields of a work package.
// Pointer fields distinguish "leave alone" from "set to this value"; the
// name fields are resolved and skipped when empty.
type WorkPackageUpdateOptions struct {
	Subject     *string
	Description *string
	StartDate   *string
	DueDate     *string
	Status      string
	Assignee    string
	Priority    string
	Type        string
}

func (o WorkPackageUpdateOptions) isEmpty() bool {
	return o.Subject == nil && o.Description == nil && o.StartDate == nil && o.DueDate == nil &&
		o.Status == "" && o.Assignee == "" && o.Priority == "" && o.Type == ""
}

// UpdateWorkPackage patches one or more fields in a single request using
// the current lockVersion.
func (c *Client) UpdateWorkPackage(ctx context.Context, id int, opts WorkPackageUpdateOptions) (WorkPackage, error) {
	if opts.isEmpty() {
		return WorkPackage{}, errors.New("no fields provided to update")
	}

	wp, err := c.GetWorkPackage(ctx, id)
	if err != nil {
		return WorkPackage{}, err
	}
	if wp.LockVersion == nil {
		return WorkPackage{}, errors.New("work package payload did not include lockVersion")
	}

	payload := map[string]any{"lockVersion": *wp.LockVersion}
	if opts.Subject != nil {
		payload["subject"] = *opts.Subject
	}
	if opts.Description != nil {
		payload["description"] = Formattable{Raw: *opts.Description}
	}
	if opts.StartDate != nil {
		payload["startDate"] = *opts.StartDate
	}
	if opts.DueDate != nil {
		payload["dueDate"] = *opts.DueDate
	}

	links := map[string]any{}
	if opts.Status != "" {
		status, err := c.allowedTransitionStatus(ctx, wp, opts.Status)
		if err != nil {
			return WorkPackage{}, err
		}
		links["status"] = Link{Href: status.SelfHref()}
	}
	if opts.Priority != "" {
		priority, err := c.ResolvePriority(ctx, opts.Priority)
		if err != nil {
			return WorkPackage{}, err
		}
		links["priority"] = Link{Href: priority.SelfHref()}
	}
	if opts.Assignee != "" {
		user, err := c.ResolveUser(ctx, opts.Assignee)
		if err != nil {
			return WorkPackage{}, err
		}
		links["assignee"] = Link{Href: user.SelfHref()}
	}
	if opts.Type != "" {
		projectID, _ := idFromHref(wp.Links.Href("project"), "projects")
		typ, err := c.ResolveType(ctx, projectID, opts.Type)
		if err != nil {
			return WorkPackage{}, err
		}
		links["type"] = Link{Href: typ.SelfHref()}
	}
	if len(links) > 0 {
		payload["_links"] = links
	}

	var updated WorkPackage
	if err := c.do(ctx, http.MethodPatch, patchPath(wp, id), nil, payload, &updated); err != nil {
		if hasStatus(err, http.StatusUnprocessableEntity) {
			return WorkPackage{}, &WorkflowError{WorkPackageID: id, Err: err}
		}
		return WorkPackage{}, err
	}
	return updated, nil
}

// UpdateWorkPackageStatus moves a work package to the named status,
// resolved against the transitions the workflow allows for it.
func (c *Client) UpdateWorkPackageStatus(ctx context.Context, id int, statusName string) (WorkPackage, error) {
	wp, err := c.GetWorkPackage(ctx, id)
	if err != nil {
		return WorkPackage{}, err
	}
	if wp.LockVersion == nil {
		return WorkPackage{}, errors.New("work package payload did not include lockVersion")
	}

	status, err := c.allowedTransitionStatus(ctx, wp, statusName)
	if err != nil {
		return WorkPackage{}, err
	}

	payload := map[string]any{
		"lockVersion": *wp.LockVersion,
		"_links": map[string]any{
			"status": Link{Href: status.SelfHref()},
		},
	}
	var updated WorkPackage
	if err := c.do(ctx, http.MethodPatch, patchPath(wp, id), nil, payload, &updated); err != nil {
		if hasStatus(err, http.StatusUnprocessableEntity) {
			return WorkPackage{}, &WorkflowError{WorkPackageID: id, Err: err}
		}
		return WorkPackage{}, err
	}
	return updated, nil
}

// allowedTransitionStatus resolves statusName against the statuses the
// update form offers for this work package, so role and workflow rules are
// respected before the PATCH. Servers without a usable form endpoint fall
// back to the global status list.
func (c *Client) allowedTransitionStatus(ctx context.Context, wp WorkPackage, statusName string) (Status, error) {
	if wp.LockVersion == nil {
		return Status{}, errors.New("work package payload did not include lockVersion")
	}
	formHref := wp.Links.Href("update")
	if formHref == "" {
		return c.ResolveStatus(ctx, statusName)
	}

	var form struct {
		Embedded struct {
			Schema struct {
				Status struct {
					Embedded struct {
						AllowedValues []Status `json:"allowedValues"`
					} `json:"_embedded"`
				} `json:"status"`
			} `json:"schema"`
		} `json:"_embedded"`
	}
	err := c.do(ctx, http.MethodPost, toAPIPath(formHref), nil,
		map[string]any{"lockVersion": *wp.LockVersion}, &form)
	if err != nil {
		if hasStatus(err, http.StatusNotFound, http.StatusMethodNotAllowed, http.StatusUnprocessableEntity) {
			return c.ResolveStatus(ctx, statusName)
		}
		return Status{}, err
	}

	allowed := form.Embedded.Schema.Status.Embedded.AllowedValues
	if len(allowed) == 0 {
		return c.ResolveStatus(ctx, statusName)
	}

	candidates := make([]match.Candidate, 0, len(allowed))
	for _, s := range allowed {
		candidates = append(candidates, match.Candidate{ID: s.ID, Name: s.Name})
	}
	picked, err := match.One("status", statusName, candidates)
	if err != nil {
		var notFound *match.NotFoundError
		if errors.As(err, &notFound) {
			return Status{}, fmt.Errorf("status %q is not an allowed transition for work package #%d. Allowed statuses: %s",
				statusName, wp.ID, strings.Join(notFound.Available, ", "))
		}
		return Status{}, err
	}
	for _, s := range allowed {
		if s.ID == picked.ID {
			return s, nil
		}
	}
	return Status{}, fmt.Errorf("status %q resolved to an unknown id", statusName)
}

// addComment fallback chain: these statuses mean the endpoint variant is
// unavailable on this server rather than the request being at fault.
var commentFallbackStatuses = []int{
	http.StatusBadRequest,
	http.StatusNotFound,
	http.StatusMethodNotAllowed,
	http.StatusUnsupportedMediaType,
	http.StatusUnprocessableEntity,
}

// AddComment posts a comment on a work package, trying the addComment
// link, then a lockVersion PATCH, then the activities endpoint. Comment
// support moved around across OpenProject versions; the chain keeps the
// command working on all of them.
func (c *Client) AddComment(ctx context.Context, id int, text string) error {
	wp, err := c.GetWorkPackage(ctx, id)
	if err != nil {
		return err
	}
	comment := map[string]any{"comment": Formattable{Raw: text}}

	if link, ok := wp.Links["addComment"]; ok && strings.TrimSpace(link.Href) != "" {
		method := strings.ToUpper(strings.TrimSpace(link.Method))
		if method == "" {
			method = http.MethodPost
		}
		if method == http.MethodPost || method == http.MethodPatch {
			err := c.do(ctx, method, toAPIPath(link.Href), nil, comment, nil,
				http.StatusOK, http.StatusCreated)
			if err == nil {
				return nil
			}
			if !hasStatus(err, commentFallbackStatuses...) {
				return err
			}
		}
	}

	if wp.LockVersion != nil {
		payload := map[string]any{
			"lockVersion": *wp.LockVersion,
			"comment":     Formattable{Raw: text},
		}
		err := c.do(ctx, http.MethodPatch, patchPath(wp, id), nil, payload, nil)
		if err == nil {
			return nil
		}
		if !hasStatus(err, commentFallbackStatuses...) {
			return err
		}
	}

	activitiesPath := fmt.Sprintf("/work_packages/%d/activities", id)
	if href := wp.Links.Href("activities"); href != "" {
		activitiesPath = toAPIPath(href)
	}
	if err := c.do(ctx, http.MethodPost, activitiesPath, nil, comment, nil,
		http.StatusOK, http.StatusCreated); err != nil {
		return fmt.Errorf("unable to add comment: %w (tried addComment, PATCH, activities): %w", ErrEndpointUnsupported, err)
	}
	return nil
}

// patchPath prefers the updateImmediately link the server handed out.
func patchPath(wp WorkPackage, id int) string {
	if href := wp.Links.Href("updateImmediately"); href != "" {
		return toAPIPath(href)
	}
	return fmt.Sprintf("/work_packages/%d", id)
}
