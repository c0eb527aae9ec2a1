package qaboard

import (
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/juju/errors"
	"github.com/labstack/echo/v4"

	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/i18n"
	"github.com/eringen/qaboard/views"
)

func (a *App) handleHome(c echo.Context) error {
	v := a.viewer(c)
	crit := criteria(c)
	return Render(c, views.Board(views.BoardPage{
		Site: a.site(),
		Meta: views.PageMeta{
			Title:       i18n.T(v.Lang, i18n.BoardTitle),
			Description: a.Config.Description,
			URL:         a.Config.URL,
			Lang:        v.Lang,
		},
		Viewer:     v,
		Hero:       a.Content.Content().Hero,
		Categories: a.Content.Categories(),
		Criteria:   crit,
		Page:       board.Select(a.Data.Posts(), crit, pageParam(c)),
	}))
}

func (a *App) handlePost(c echo.Context) error {
	v := a.viewer(c)
	id := c.Param("id")
	post, err := a.Data.FetchPost(c.Request().Context(), id)
	if err != nil {
		if errors.Is(err, errors.NotFound) {
			return RenderStatus(c, http.StatusNotFound, views.NotFound(a.site(), v.Lang))
		}
		return err
	}
	comments, err := a.Data.Comments(c.Request().Context(), id)
	if err != nil {
		return err
	}
	threads := board.BuildTree(comments, v.Session, a.Data.TreeOptions())
	count := 0
	for _, t := range threads {
		count += 1 + len(t.Replies)
	}
	return Render(c, views.PostDetail(views.DetailPage{
		Site: a.site(),
		Meta: views.PageMeta{
			Title: i18n.T(v.Lang, i18n.DetailTitle),
			URL:   a.Config.URL + views.PostURL(id),
			Lang:  v.Lang,
		},
		Viewer:   v,
		Post:     post,
		Threads:  threads,
		CanEdit:  v.Session.CanEditPost(post),
		Comments: count,
	}))
}

func (a *App) handleRobots(c echo.Context) error {
	path := filepath.Join(a.staticDir, "robots.txt")
	if _, err := os.Stat(path); err == nil {
		return c.File(path)
	}
	return c.String(http.StatusOK, "User-agent: *\nDisallow: /admin/\nDisallow: /api/\nSitemap: "+a.absURL("/sitemap.xml")+"\n")
}

func (a *App) httpErrorHandler(err error, c echo.Context) {
	if c.Response().Committed {
		return
	}
	he, ok := err.(*echo.HTTPError)
	code := http.StatusInternalServerError
	if ok {
		code = he.Code
	}
	lang := a.Lang(c)

	if isAPI(c) {
		msg := i18n.T(lang, i18n.ServerError)
		switch {
		case code == http.StatusNotFound:
			msg = i18n.T(lang, i18n.NotFound)
		case code < 500 && ok:
			if s, isString := he.Message.(string); isString {
				msg = s
			} else {
				msg = http.StatusText(code)
			}
		}
		if code >= 500 {
			c.Logger().Errorf("server error: %v", err)
		}
		_ = c.JSON(code, errorBody{Error: msg})
		return
	}

	if code == http.StatusNotFound {
		_ = RenderStatus(c, http.StatusNotFound, views.NotFound(a.site(), lang))
		return
	}
	if code >= 500 {
		c.Logger().Errorf("server error: %v", err)
		_ = RenderStatus(c, code, views.ServerError(a.site(), lang))
		return
	}
	a.Echo.DefaultHTTPErrorHandler(err, c)
}

func isAPI(c echo.Context) bool {
	return strings.HasPrefix(c.Request().URL.Path, "/api/")
}
