package openproject

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
)

// Link is a single HAL link object.
type Link struct {
	Href   string `json:"href"`
	Title  string `json:"title,omitempty"`
	Method string `json:"method,omitempty"`
}

// Links holds the `_links` object of a HAL resource keyed by relation name.
type Links map[string]Link

// UnmarshalJSON keeps decoding tolerant of array-valued relations such as
// children or ancestors, which the CLI never reads.
func (l *Links) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	out := make(Links, len(raw))
	for rel, val := range raw {
		var link Link
		if err := json.Unmarshal(val, &link); err != nil {
			continue
		}
		out[rel] = link
	}
	*l = out
	return nil
}

// Href returns the href of a relation, or "" when absent.
func (l Links) Href(rel string) string {
	return strings.TrimSpace(l[rel].Href)
}

// Has reports whether the relation is present.
func (l Links) Has(rel string) bool {
	_, ok := l[rel]
	return ok
}

// TitleOr returns the relation title, falling back to the last href segment
// and finally to fallback. This is how status, assignee and similar labels
// are read off work packages without extra requests.
func (l Links) TitleOr(rel, fallback string) string {
	link, ok := l[rel]
	if !ok {
		return fallback
	}
	if title := strings.TrimSpace(link.Title); title != "" {
		return title
	}
	if href := strings.TrimRight(strings.TrimSpace(link.Href), "/"); href != "" {
		if idx := strings.LastIndex(href, "/"); idx >= 0 {
			return href[idx+1:]
		}
		return href
	}
	return fallback
}

// Formattable is the OpenProject rich-text shape used for descriptions and
// comments.
type Formattable struct {
	Format string `json:"format,omitempty"`
	Raw    string `json:"raw"`
	HTML   string `json:"html,omitempty"`
}

// Project is a visible OpenProject project.
type Project struct {
	ID          int          `json:"id"`
	Identifier  string       `json:"identifier"`
	Name        string       `json:"name"`
	Active      bool         `json:"active,omitempty"`
	Description *Formattable `json:"description,omitempty"`
	Links       Links        `json:"_links,omitempty"`
}

// Label prefers the identifier for compact display, then name, then id.
func (p Project) Label() string {
	if v := strings.TrimSpace(p.Identifier); v != "" {
		return v
	}
	if v := strings.TrimSpace(p.Name); v != "" {
		return v
	}
	return strconv.Itoa(p.ID)
}

// DisplayName prefers the human name, then identifier, then id.
func (p Project) DisplayName() string {
	if v := strings.TrimSpace(p.Name); v != "" {
		return v
	}
	if v := strings.TrimSpace(p.Identifier); v != "" {
		return v
	}
	return strconv.Itoa(p.ID)
}

// SelfHref returns the project self link, or the conventional v3 path when
// the payload carried none.
func (p Project) SelfHref() string {
	return selfHref(p.Links, "projects", p.ID)
}

// WorkPackage is a work package as returned by API v3. Status, type,
// priority and principals live in _links per HAL.
type WorkPackage struct {
	ID          int          `json:"id"`
	Subject     string       `json:"subject"`
	LockVersion *int         `json:"lockVersion,omitempty"`
	Description *Formattable `json:"description,omitempty"`
	StartDate   string       `json:"startDate,omitempty"`
	DueDate     string       `json:"dueDate,omitempty"`
	CreatedAt   string       `json:"createdAt,omitempty"`
	UpdatedAt   string       `json:"updatedAt,omitempty"`
	Links       Links        `json:"_links,omitempty"`
}

func (wp WorkPackage) StatusName() string {
	return wp.Links.TitleOr("status", "-")
}

func (wp WorkPackage) TypeName() string {
	return wp.Links.TitleOr("type", "-")
}

func (wp WorkPackage) PriorityName() string {
	return wp.Links.TitleOr("priority", "-")
}

func (wp WorkPackage) AssigneeName() string {
	return wp.Links.TitleOr("assignee", "Unassigned")
}

func (wp WorkPackage) AuthorName() string {
	return wp.Links.TitleOr("author", "-")
}

// DescriptionText returns the raw description text, or "".
func (wp WorkPackage) DescriptionText() string {
	if wp.Description == nil {
		return ""
	}
	return wp.Description.Raw
}

// Status is a work package status value.
type Status struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	IsClosed  bool   `json:"isClosed,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
	Position  int    `json:"position,omitempty"`
	Links     Links  `json:"_links,omitempty"`
}

func (s Status) SelfHref() string {
	return selfHref(s.Links, "statuses", s.ID)
}

// Type is a work package type such as Task or Milestone.
type Type struct {
	ID          int    `json:"id"`
	Name        string `json:"name"`
	Color       string `json:"color,omitempty"`
	Position    int    `json:"position,omitempty"`
	IsDefault   bool   `json:"isDefault,omitempty"`
	IsMilestone bool   `json:"isMilestone,omitempty"`
	Links       Links  `json:"_links,omitempty"`
}

func (t Type) SelfHref() string {
	return selfHref(t.Links, "types", t.ID)
}

// Priority is a work package priority value.
type Priority struct {
	ID        int    `json:"id"`
	Name      string `json:"name"`
	Position  int    `json:"position,omitempty"`
	Color     string `json:"color,omitempty"`
	IsActive  bool   `json:"isActive,omitempty"`
	IsDefault bool   `json:"isDefault,omitempty"`
	Links     Links  `json:"_links,omitempty"`
}

func (p Priority) SelfHref() string {
	return selfHref(p.Links, "priorities", p.ID)
}

// User is a principal visible to the current account.
type User struct {
	ID        int    `json:"id"`
	Login     string `json:"login,omitempty"`
	Name      string `json:"name,omitempty"`
	FirstName string `json:"firstName,omitempty"`
	LastName  string `json:"lastName,omitempty"`
	Email     string `json:"email,omitempty"`
	Status    string `json:"status,omitempty"`
	Links     Links  `json:"_links,omitempty"`
}

func (u User) SelfHref() string {
	return selfHref(u.Links, "users", u.ID)
}

// DisplayName returns the best label for a user payload: name, then
// first/last, then login, then id.
func (u User) DisplayName() string {
	if v := strings.TrimSpace(u.Name); v != "" {
		return v
	}
	if full := u.fullName(); full != "" {
		return full
	}
	if v := strings.TrimSpace(u.Login); v != "" {
		return v
	}
	if u.ID != 0 {
		return strconv.Itoa(u.ID)
	}
	return "-"
}

func (u User) fullName() string {
	parts := make([]string, 0, 2)
	if v := strings.TrimSpace(u.FirstName); v != "" {
		parts = append(parts, v)
	}
	if v := strings.TrimSpace(u.LastName); v != "" {
		parts = append(parts, v)
	}
	return strings.Join(parts, " ")
}

// identityKeys returns every value an assignee argument may be matched
// against: display name, login, first, last, full name and numeric id.
func (u User) identityKeys() []string {
	keys := make([]string, 0, 6)
	for _, v := range []string{u.Name, u.Login, u.FirstName, u.LastName, u.fullName()} {
		if v = strings.TrimSpace(v); v != "" {
			keys = append(keys, v)
		}
	}
	if u.ID != 0 {
		keys = append(keys, strconv.Itoa(u.ID))
	}
	return keys
}

// Relation links two work packages.
type Relation struct {
	ID          int    `json:"id"`
	Name        string `json:"name,omitempty"`
	Type        string `json:"type"`
	ReverseType string `json:"reverseType,omitempty"`
	Description string `json:"description,omitempty"`
	Lag         *int   `json:"lag,omitempty"`
	Links       Links  `json:"_links,omitempty"`
}

func (r Relation) FromLabel() string {
	return r.Links.TitleOr("from", "-")
}

func (r Relation) ToLabel() string {
	return r.Links.TitleOr("to", "-")
}

func (r Relation) LagLabel() string {
	if r.Lag == nil {
		return "-"
	}
	return strconv.Itoa(*r.Lag)
}

// WikiPage is a wiki page in either the legacy JSON shape or the v3
// metadata shape. Text may be a plain string (legacy) or a formattable
// object (v3), hence the raw message.
type WikiPage struct {
	ID        int             `json:"id,omitempty"`
	Title     string          `json:"title,omitempty"`
	Version   *int            `json:"version,omitempty"`
	UpdatedOn string          `json:"updated_on,omitempty"`
	UpdatedAt string          `json:"updatedAt,omitempty"`
	Text      json.RawMessage `json:"text,omitempty"`
	Embedded  *wikiEmbedded   `json:"_embedded,omitempty"`
	Links     Links           `json:"_links,omitempty"`
}

type wikiEmbedded struct {
	Project *Project `json:"project,omitempty"`
}

// TextRaw extracts the page text from either payload shape, or "".
func (p WikiPage) TextRaw() string {
	if len(p.Text) == 0 {
		return ""
	}
	var s string
	if err := json.Unmarshal(p.Text, &s); err == nil {
		return s
	}
	var f Formattable
	if err := json.Unmarshal(p.Text, &f); err == nil {
		return f.Raw
	}
	return ""
}

// VersionLabel renders the page version, "-" when the payload had none.
func (p WikiPage) VersionLabel() string {
	if p.Version == nil {
		return "-"
	}
	return strconv.Itoa(*p.Version)
}

// UpdatedLabel returns whichever updated timestamp the payload carried.
func (p WikiPage) UpdatedLabel() string {
	if p.UpdatedOn != "" {
		return p.UpdatedOn
	}
	return p.UpdatedAt
}

// ProjectIdentifier digs the owning project out of v3 metadata payloads.
func (p WikiPage) ProjectIdentifier() string {
	if p.Embedded != nil && p.Embedded.Project != nil {
		if v := strings.TrimSpace(p.Embedded.Project.Identifier); v != "" {
			return v
		}
		if p.Embedded.Project.ID != 0 {
			return strconv.Itoa(p.Embedded.Project.ID)
		}
	}
	return strings.TrimSpace(p.Links["project"].Title)
}

// --- helpers ---

func selfHref(links Links, resource string, id int) string {
	if href := links.Href("self"); href != "" {
		return href
	}
	return fmt.Sprintf("%s/%s/%d", apiPrefix, resource, id)
}

// idFromHref extracts the trailing numeric id from an href like
// /api/v3/projects/42.
func idFromHref(href, resource string) (int, bool) {
	href = strings.TrimSpace(href)
	marker := "/" + resource + "/"
	idx := strings.LastIndex(href, marker)
	if idx < 0 {
		return 0, false
	}
	id, err := strconv.Atoi(href[idx+len(marker):])
	if err != nil || id <= 0 {
		return 0, false
	}
	return id, true
}
