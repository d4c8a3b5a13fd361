package openproject

import (
	"context"
	"fmt"
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"opline/internal/match"
)

const statusList = `{
	"_embedded": {"elements": [
		{"id": 1, "name": "New", "isClosed": false, "_links": {"self": {"href": "/api/v3/statuses/1"}}},
		{"id": 7, "name": "In progress", "isClosed": false, "_links": {"self": {"href": "/api/v3/statuses/7"}}},
		{"id": 12, "name": "Closed", "isClosed": true, "_links": {"self": {"href": "/api/v3/statuses/12"}}},
		{"id": 13, "name": "On hold", "isClosed": false, "_links": {"self": {"href": "/api/v3/statuses/13"}}}
	]}
}`

func TestStatuses(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/statuses", r.URL.Path)
		fmt.Fprint(w, statusList)
	}))

	statuses, err := c.Statuses(context.Background())
	require.NoError(t, err)
	require.Len(t, statuses, 4)
	assert.Equal(t, "In progress", statuses[1].Name)
	assert.True(t, statuses[2].IsClosed)
}

func TestResolveStatus(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, statusList)
	}))

	s, err := c.ResolveStatus(context.Background(), "closed")
	require.NoError(t, err)
	assert.Equal(t, 12, s.ID)
	assert.Equal(t, "/api/v3/statuses/12", s.SelfHref())
}

func TestResolveStatusNotFoundListsAvailable(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, statusList)
	}))

	_, err := c.ResolveStatus(context.Background(), "Done")
	require.Error(t, err)

	var notFound *match.NotFoundError
	require.ErrorAs(t, err, &notFound)
	assert.Contains(t, err.Error(), "Available:")
	assert.Contains(t, err.Error(), "Closed")
}

func TestResolvePriority(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/priorities", r.URL.Path)
		fmt.Fprint(w, `{
			"_embedded": {"elements": [
				{"id": 8, "name": "Normal", "position": 2},
				{"id": 9, "name": "High", "position": 3}
			]}
		}`)
	}))

	p, err := c.ResolvePriority(context.Background(), "high")
	require.NoError(t, err)
	assert.Equal(t, 9, p.ID)
	assert.Equal(t, "/api/v3/priorities/9", p.SelfHref())
}

func TestTypesFallsBackToGlobal(t *testing.T) {
	var paths []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		if r.URL.Path == "/api/v3/projects/5/types" {
			w.WriteHeader(http.StatusNotFound)
			fmt.Fprint(w, `{"message":"Not found."}`)
			return
		}
		fmt.Fprint(w, `{"_embedded":{"elements":[{"id":1,"name":"Task"},{"id":2,"name":"Milestone"}]}}`)
	}))

	types, err := c.Types(context.Background(), 5)
	require.NoError(t, err)
	require.Len(t, types, 2)
	assert.Equal(t, []string{"/api/v3/projects/5/types", "/api/v3/types"}, paths)
}

func TestResolveTypeMergesScopes(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path == "/api/v3/projects/5/types" {
			fmt.Fprint(w, `{"_embedded":{"elements":[
				{"id": 1, "name": "Task", "_links": {"self": {"href": "/api/v3/types/1"}}}
			]}}`)
			return
		}
		fmt.Fprint(w, `{"_embedded":{"elements":[
			{"id": 1, "name": "Task", "_links": {"self": {"href": "/api/v3/types/1"}}},
			{"id": 4, "name": "Epic", "_links": {"self": {"href": "/api/v3/types/4"}}}
		]}}`)
	}))

	typ, err := c.ResolveType(context.Background(), 5, "epic")
	require.NoError(t, err)
	assert.Equal(t, 4, typ.ID, "a type only present globally still resolves")
}

func TestResolveTypeUnknownName(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"_embedded":{"elements":[{"id":1,"name":"Task"},{"id":2,"name":"Bug"}]}}`)
	}))

	_, err := c.ResolveType(context.Background(), 0, "Story")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "Available: Bug, Task")
}

func TestResolveTypeNoTypesVisible(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusNotFound)
		fmt.Fprint(w, `{"message":"Not found."}`)
	}))

	_, err := c.ResolveType(context.Background(), 5, "Task")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "check permissions for reading types")
}

func TestResolveUserByID(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/api/v3/users/42", r.URL.Path)
		fmt.Fprint(w, `{"id": 42, "name": "Ada Lovelace", "login": "ada"}`)
	}))

	u, err := c.ResolveUser(context.Background(), "42")
	require.NoError(t, err)
	assert.Equal(t, "Ada Lovelace", u.DisplayName())
	assert.Equal(t, "/api/v3/users/42", u.SelfHref())
}

func TestResolveUserMeUsesOwnEndpoint(t *testing.T) {
	var paths []string
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		paths = append(paths, r.URL.Path)
		switch r.URL.Path {
		case "/api/v3/users/me":
			fmt.Fprint(w, `{"id": 7, "name": "Current User", "login": "current"}`)
		case "/api/v3/users":
			// A directory where "me" would substring-match someone else.
			fmt.Fprint(w, `{
				"count": 1,
				"_embedded": {"elements": [{"id": 3, "name": "Mercedes Ruiz", "login": "mruiz"}]},
				"_links": {}
			}`)
		default:
			t.Errorf("unexpected request: %s %s", r.Method, r.URL.Path)
		}
	}))

	u, err := c.ResolveUser(context.Background(), "me")
	require.NoError(t, err)
	assert.Equal(t, 7, u.ID)
	assert.Equal(t, []string{"/api/v3/users/me"}, paths, "the user list must not be consulted")

	upper, err := c.ResolveUser(context.Background(), " ME ")
	require.NoError(t, err)
	assert.Equal(t, 7, upper.ID)
}

const userList = `{
	"count": 3,
	"_embedded": {"elements": [
		{"id": 1, "name": "Ada Lovelace", "login": "ada", "firstName": "Ada", "lastName": "Lovelace"},
		{"id": 2, "name": "Grace Hopper", "login": "grace", "firstName": "Grace", "lastName": "Hopper"},
		{"id": 3, "name": "Adam West", "login": "awest", "firstName": "Adam", "lastName": "West"}
	]},
	"_links": {}
}`

func TestResolveUserByLogin(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, userList)
	}))

	u, err := c.ResolveUser(context.Background(), "grace")
	require.NoError(t, err)
	assert.Equal(t, 2, u.ID)
}

func TestResolveUserBySubstring(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, userList)
	}))

	u, err := c.ResolveUser(context.Background(), "hopper")
	require.NoError(t, err)
	assert.Equal(t, 2, u.ID)
}

func TestResolveUserExactLoginBeatsSubstring(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, userList)
	}))

	// "ada" is Ada Lovelace's login and a substring of "Adam West".
	u, err := c.ResolveUser(context.Background(), "ada")
	require.NoError(t, err)
	assert.Equal(t, 1, u.ID)
}

func TestResolveUserAmbiguous(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, userList)
	}))

	// "ad" is a substring of both Ada Lovelace and Adam West.
	_, err := c.ResolveUser(context.Background(), "ad")
	require.Error(t, err)

	var ambiguous *match.AmbiguousError
	require.ErrorAs(t, err, &ambiguous)
	assert.Len(t, ambiguous.Matches, 2)
}

func TestResolveUserListForbidden(t *testing.T) {
	c := testClient(t, http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusForbidden)
	}))

	_, err := c.ResolveUser(context.Background(), "ada lovelace")
	require.Error(t, err)
	assert.Contains(t, err.Error(), "numeric user id")
}

func TestFilterUsers(t *testing.T) {
	users := []User{
		{ID: 1, Name: "Ada Lovelace", Login: "ada"},
		{ID: 2, Name: "Grace Hopper", Login: "grace"},
	}

	assert.Len(t, FilterUsers(users, ""), 2)

	filtered := FilterUsers(users, "HOP")
	require.Len(t, filtered, 1)
	assert.Equal(t, 2, filtered[0].ID)

	assert.Empty(t, FilterUsers(users, "nonesuch"))
}

func TestUserDisplayName(t *testing.T) {
	tests := []struct {
		name string
		user User
		want string
	}{
		{"prefers name", User{Name: "Ada Lovelace", Login: "ada"}, "Ada Lovelace"},
		{"falls back to full name", User{FirstName: "Ada", LastName: "Lovelace"}, "Ada Lovelace"},
		{"falls back to login", User{Login: "ada"}, "ada"},
		{"falls back to id", User{ID: 9}, "9"},
		{"empty user", User{}, "-"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want, tt.user.DisplayName())
		})
	}
}
