package views

import (
	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/cms"
	"github.com/eringen/qaboard/i18n"
)

// SiteConfig holds the site-wide settings every page receives.
type SiteConfig struct {
	Name        string // SITE_NAME  (default "Q&A Board")
	URL         string // SITE_URL   (default "http://localhost:3000")
	Description string // SITE_DESCRIPTION
}

// PageMeta carries per-page metadata into the <head> template.
type PageMeta struct {
	Title       string
	Description string
	URL         string // canonical + og:url
	Lang        i18n.Lang
}

// Viewer is what a page knows about the current session.
type Viewer struct {
	Session board.Session
	Lang    i18n.Lang
	CSRF    string
}

// BoardPage is the post list with its filters.
type BoardPage struct {
	Site       SiteConfig
	Meta       PageMeta
	Viewer     Viewer
	Hero       cms.Copy
	Categories []string
	Criteria   board.Criteria
	Page       board.Page
}

// DetailPage is one post with its comment tree.
type DetailPage struct {
	Site     SiteConfig
	Meta     PageMeta
	Viewer   Viewer
	Post     board.Post
	Threads  []board.Thread
	CanEdit  bool
	Comments int
}

// AdminPage is the login form, or the content overview once signed in.
type AdminPage struct {
	Site    SiteConfig
	Meta    PageMeta
	Viewer  Viewer
	Failed  bool
	Content cms.Content
}
