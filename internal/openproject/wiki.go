package openproject

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/url"
	"strings"
)

// API v3 exposes wiki pages as metadata stubs only, so listing and content
// go through the legacy JSON endpoints under /projects/{identifier}/wiki.

// legacyWikiPage tolerates both the wrapped {"wiki_page": {...}} shape and
// a bare page object.
type legacyWikiPage struct {
	WikiPage
	Wrapped *WikiPage `json:"wiki_page"`
}

func (lp legacyWikiPage) page() WikiPage {
	if lp.Wrapped != nil {
		return *lp.Wrapped
	}
	return lp.WikiPage
}

// WikiPages lists the wiki pages of a project. It returns the resolved
// project identifier alongside the pages because legacy paths are built
// from the identifier, not the id.
func (c *Client) WikiPages(ctx context.Context, projectRef string) (string, []WikiPage, error) {
	identifier, err := c.ResolveProjectIdentifier(ctx, projectRef)
	if err != nil {
		return "", nil, err
	}

	var index struct {
		WikiPages []WikiPage `json:"wiki_pages"`
	}
	path := fmt.Sprintf("/projects/%s/wiki/index.json", url.PathEscape(identifier))
	if err := c.legacy(ctx, http.MethodGet, path, nil, &index); err != nil {
		return "", nil, err
	}
	return identifier, index.WikiPages, nil
}

// GetWikiPage reads a wiki page by project and title through the legacy
// endpoint, which is the only way to get page text on most servers.
func (c *Client) GetWikiPage(ctx context.Context, projectRef, title string) (string, WikiPage, error) {
	identifier, err := c.ResolveProjectIdentifier(ctx, projectRef)
	if err != nil {
		return "", WikiPage{}, err
	}
	path, err := wikiPagePath(identifier, title)
	if err != nil {
		return "", WikiPage{}, err
	}

	var env legacyWikiPage
	if err := c.legacy(ctx, http.MethodGet, path, nil, &env); err != nil {
		return "", WikiPage{}, err
	}
	return identifier, env.page(), nil
}

// GetWikiPageByID reads wiki page metadata from API v3. On many server
// versions the payload is a stub without the page text.
func (c *Client) GetWikiPageByID(ctx context.Context, id int) (WikiPage, error) {
	var page WikiPage
	err := c.do(ctx, http.MethodGet, fmt.Sprintf("/wiki_pages/%d", id), nil, nil, &page)
	return page, err
}

// WriteWikiPage creates or updates a wiki page by project and title. The
// optional comment becomes the page changelog note.
func (c *Client) WriteWikiPage(ctx context.Context, projectRef, title, text, comment string) (string, WikiPage, error) {
	identifier, err := c.ResolveProjectIdentifier(ctx, projectRef)
	if err != nil {
		return "", WikiPage{}, err
	}
	path, err := wikiPagePath(identifier, title)
	if err != nil {
		return "", WikiPage{}, err
	}

	body := map[string]any{"text": text}
	if comment != "" {
		body["comments"] = comment
	}
	payload := map[string]any{"wiki_page": body}

	var env legacyWikiPage
	err = c.legacy(ctx, http.MethodPut, path, payload, &env,
		http.StatusOK, http.StatusCreated, http.StatusNoContent)
	if err != nil {
		return "", WikiPage{}, err
	}

	page := env.page()
	if page.Title == "" && len(page.Text) == 0 {
		// Some versions answer the PUT with an empty body; read it back.
		return c.GetWikiPage(ctx, identifier, title)
	}
	return identifier, page, nil
}

func wikiPagePath(identifier, title string) (string, error) {
	cleaned := strings.TrimSpace(title)
	if cleaned == "" {
		return "", errors.New("wiki title is required")
	}
	return fmt.Sprintf("/projects/%s/wiki/%s.json",
		url.PathEscape(identifier), url.PathEscape(cleaned)), nil
}
