package openproject

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// wikiHandler serves the project list plus legacy wiki endpoints for the
// "acme-platform" project.
func wikiHandler(t *testing.T) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		switch r.URL.Path {
		case "/api/v3/projects":
			fmt.Fprint(w, `{
				"count": 1,
				"_embedded": {"elements": [{"id": 3, "identifier": "acme-platform", "name": "ACME Platform"}]},
				"_links": {}
			}`)
		case "/projects/acme-platform/wiki/index.json":
			assert.Equal(t, "application/json", r.Header.Get("Accept"))
			fmt.Fprint(w, `{"wiki_pages": [
				{"id": 1, "title": "Wiki", "version": 4, "updated_on": "2026-08-01T10:00:00Z"},
				{"id": 2, "title": "Runbooks", "version": 1}
			]}`)
		case "/projects/acme-platform/wiki/Runbooks.json":
			fmt.Fprint(w, `{"wiki_page": {"id": 2, "title": "Runbooks", "version": 1, "text": "# Runbooks\n\nRestore drill."}}`)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}
}

func TestWikiPages(t *testing.T) {
	c := testClient(t, wikiHandler(t))

	identifier, pages, err := c.WikiPages(context.Background(), "acme platform")
	require.NoError(t, err)
	assert.Equal(t, "acme-platform", identifier)
	require.Len(t, pages, 2)
	assert.Equal(t, "Wiki", pages[0].Title)
	assert.Equal(t, "4", pages[0].VersionLabel())
	assert.Equal(t, "2026-08-01T10:00:00Z", pages[0].UpdatedLabel())
}

func TestGetWikiPageUnwrapsEnvelope(t *testing.T) {
	c := testClient(t, wikiHandler(t))

	identifier, page, err := c.GetWikiPage(context.Background(), "3", "Runbooks")
	require.NoError(t, err)
	assert.Equal(t, "acme-platform", identifier)
	assert.Equal(t, "Runbooks", page.Title)
	assert.Equal(t, "# Runbooks\n\nRestore drill.", page.TextRaw())
}

func TestGetWikiPageEscapesTitle(t *testing.T) {
	var gotPath string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/projects" {
			fmt.Fprint(w, `{"count":1,"_embedded":{"elements":[{"id":3,"identifier":"acme-platform","name":"ACME"}]},"_links":{}}`)
			return
		}
		gotPath = r.URL.EscapedPath()
		fmt.Fprint(w, `{"wiki_page": {"title": "Retro 2026/08", "text": "notes"}}`)
	}))

	_, _, err := c.GetWikiPage(context.Background(), "acme-platform", "Retro 2026/08")
	require.NoError(t, err)
	assert.Equal(t, "/projects/acme-platform/wiki/Retro%202026%2F08.json", gotPath)
}

func TestGetWikiPageRequiresTitle(t *testing.T) {
	c := testClient(t, wikiHandler(t))

	_, _, err := c.GetWikiPage(context.Background(), "acme-platform", "   ")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "wiki title is required")
}

func TestGetWikiPageByID(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/wiki_pages/2", r.URL.Path)
		assert.Equal(t, "application/hal+json", r.Header.Get("Accept"))
		fmt.Fprint(w, `{
			"id": 2,
			"title": "Runbooks",
			"_embedded": {"project": {"id": 3, "identifier": "acme-platform", "name": "ACME"}},
			"_links": {"project": {"href": "/api/v3/projects/3", "title": "ACME Platform"}}
		}`)
	}))

	page, err := c.GetWikiPageByID(context.Background(), 2)
	require.NoError(t, err)
	assert.Equal(t, "Runbooks", page.Title)
	assert.Equal(t, "acme-platform", page.ProjectIdentifier())
	assert.Equal(t, "", page.TextRaw(), "v3 metadata stubs carry no text")
}

func TestWikiPageTextShapes(t *testing.T) {
	plain := WikiPage{Text: []byte(`"plain text"`)}
	assert.Equal(t, "plain text", plain.TextRaw())

	formattable := WikiPage{Text: []byte(`{"format":"markdown","raw":"# Heading"}`)}
	assert.Equal(t, "# Heading", formattable.TextRaw())

	assert.Equal(t, "", WikiPage{}.TextRaw())
}

func TestWriteWikiPage(t *testing.T) {
	var putBody map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/api/v3/projects":
			fmt.Fprint(w, `{"count":1,"_embedded":{"elements":[{"id":3,"identifier":"acme-platform","name":"ACME"}]},"_links":{}}`)
		case r.Method == http.MethodPut && r.URL.Path == "/projects/acme-platform/wiki/Runbooks.json":
			putBody = decodeBody(t, r)
			fmt.Fprint(w, `{"wiki_page": {"title": "Runbooks", "version": 2, "text": "updated"}}`)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))

	identifier, page, err := c.WriteWikiPage(context.Background(), "acme-platform", "Runbooks", "updated", "refresh drill notes")
	require.NoError(t, err)
	assert.Equal(t, "acme-platform", identifier)
	assert.Equal(t, "2", page.VersionLabel())

	wikiPage := putBody["wiki_page"].(map[string]any)
	assert.Equal(t, "updated", wikiPage["text"])
	assert.Equal(t, "refresh drill notes", wikiPage["comments"])
}

func TestWriteWikiPageRereadsAfterEmptyResponse(t *testing.T) {
	var order []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		order = append(order, r.Method+" "+r.URL.Path)
		switch {
		case r.URL.Path == "/api/v3/projects":
			fmt.Fprint(w, `{"count":1,"_embedded":{"elements":[{"id":3,"identifier":"acme-platform","name":"ACME"}]},"_links":{}}`)
		case r.Method == http.MethodPut:
			w.WriteHeader(http.StatusNoContent)
		case r.Method == http.MethodGet:
			fmt.Fprint(w, `{"wiki_page": {"title": "Runbooks", "version": 5, "text": "persisted"}}`)
		}
	}))

	_, page, err := c.WriteWikiPage(context.Background(), "acme-platform", "Runbooks", "persisted", "")
	require.NoError(t, err)
	assert.Equal(t, "persisted", page.TextRaw())
	assert.Contains(t, order, "GET /projects/acme-platform/wiki/Runbooks.json")
}

func TestWriteWikiPageOmitsEmptyComment(t *testing.T) {
	var putBody map[string]any
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/projects" {
			fmt.Fprint(w, `{"count":1,"_embedded":{"elements":[{"id":3,"identifier":"acme-platform","name":"ACME"}]},"_links":{}}`)
			return
		}
		putBody = decodeBody(t, r)
		fmt.Fprint(w, `{"wiki_page": {"title": "Runbooks", "version": 2, "text": "x"}}`)
	}))

	_, _, err := c.WriteWikiPage(context.Background(), "acme-platform", "Runbooks", "x", "")
	require.NoError(t, err)

	wikiPage := putBody["wiki_page"].(map[string]any)
	_, hasComments := wikiPage["comments"]
	assert.False(t, hasComments)
}

func TestLegacyAuthFailureHint(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/projects" {
			fmt.Fprint(w, `{"count":1,"_embedded":{"elements":[{"id":3,"identifier":"acme-platform","name":"ACME"}]},"_links":{}}`)
			return
		}
		w.WriteHeader(http.StatusForbidden)
	}))

	_, _, err := c.WikiPages(context.Background(), "acme-platform")
	require.Error(t, err)

	var authErr *AuthError
	require.ErrorAs(t, err, &authErr)
	assert.Contains(t, authErr.Error(), "OPENPROJECT_AUTH_MODE=basic")
}
