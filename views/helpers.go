package views

import (
	"net/url"
	"path"
	"strconv"
	"strings"

	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/i18n"
)

// buildURL joins path segments onto a base URL, ensuring a trailing slash.
func buildURL(base string, pathSegments ...string) string {
	u, err := url.Parse(base)
	if err != nil {
		return base
	}
	u.Path = path.Join(u.Path, path.Join(pathSegments...))
	if len(pathSegments) > 0 && !strings.HasSuffix(u.Path, "/") {
		u.Path += "/"
	}
	return u.String()
}

// PostURL returns the detail page path of a post.
func PostURL(id string) string {
	return "/posts/" + url.PathEscape(id) + "/"
}

// PageURL returns the board path for page n keeping the current criteria.
func PageURL(c board.Criteria, n int) string {
	q := url.Values{}
	if c.Search != "" {
		q.Set("q", c.Search)
	}
	if c.Category != "" && c.Category != "all" {
		q.Set("category", c.Category)
	}
	if c.Status != "" && c.Status != "all" {
		q.Set("status", c.Status)
	}
	if c.Answerer != "" {
		q.Set("answerer", c.Answerer)
	}
	if n > 1 {
		q.Set("page", strconv.Itoa(n))
	}
	if len(q) == 0 {
		return "/"
	}
	return "/?" + q.Encode()
}

// StatusLabel returns the localized resolution label.
func StatusLabel(r board.Resolution, lang i18n.Lang) string {
	if r == board.Resolved {
		return i18n.T(lang, i18n.StatusResolved)
	}
	return i18n.T(lang, i18n.StatusPending)
}

// StatusClass returns the badge class for a resolution.
func StatusClass(r board.Resolution) string {
	if r == board.Resolved {
		return "badge badge-green"
	}
	return "badge badge-orange"
}

// OrDash returns s, or "-" when s is blank.
func OrDash(s string) string {
	if strings.TrimSpace(s) == "" {
		return "-"
	}
	return s
}
