package qaboard

import (
	"encoding/xml"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/views"
)

// feedSize is the number of newest questions in the feed.
const feedSize = 20

// dcNamespace declares the dc prefix used for item creators.
const dcNamespace = "http://purl.org/dc/elements/1.1/"

type rssXML struct {
	XMLName xml.Name   `xml:"rss"`
	Version string     `xml:"version,attr"`
	DC      string     `xml:"xmlns:dc,attr"`
	Channel rssChannel `xml:"channel"`
}

type rssChannel struct {
	Title       string    `xml:"title"`
	Link        string    `xml:"link"`
	Description string    `xml:"description"`
	Language    string    `xml:"language"`
	Items       []rssItem `xml:"item"`
}

type rssItem struct {
	Title       string `xml:"title"`
	Link        string `xml:"link"`
	Description string `xml:"description"`
	Category    string `xml:"category"`
	Creator     string `xml:"dc:creator,omitempty"`
	PubDate     string `xml:"pubDate"`
	GUID        string `xml:"guid"`
}

func (a *App) absURL(path string) string {
	return strings.TrimRight(a.Config.URL, "/") + path
}

func (a *App) handleFeed(c echo.Context) error {
	posts := board.Filter(a.Data.Posts(), criteria(c))
	if len(posts) > feedSize {
		posts = posts[:feedSize]
	}
	lang := a.Lang(c)
	items := make([]rssItem, 0, len(posts))
	for _, p := range posts {
		postURL := a.absURL(views.PostURL(p.ID))
		desc := p.Answer
		if desc == "" {
			desc = views.StatusLabel(p.Resolved, lang)
		}
		items = append(items, rssItem{
			Title:       p.Question,
			Link:        postURL,
			Description: desc,
			Category:    p.Category,
			Creator:     p.From,
			PubDate:     p.CreatedAt.Format(time.RFC1123Z),
			GUID:        postURL,
		})
	}
	feed := rssXML{
		Version: "2.0",
		DC:      dcNamespace,
		Channel: rssChannel{
			Title:       a.Config.Name,
			Link:        a.absURL("/"),
			Description: a.Config.Description,
			Language:    string(lang),
			Items:       items,
		},
	}
	c.Response().Header().Set(echo.HeaderContentType, "application/rss+xml; charset=utf-8")
	c.Response().WriteHeader(http.StatusOK)
	c.Response().Write([]byte(xml.Header))
	return xml.NewEncoder(c.Response()).Encode(feed)
}
