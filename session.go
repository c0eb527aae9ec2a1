package qaboard

import (
	"strings"

	"github.com/labstack/echo-contrib/session"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"

	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/i18n"
	"github.com/eringen/qaboard/views"
)

const (
	sessionName = "qaboard_session"

	sessionAuthor = "author"
	sessionLang   = "lang"
	sessionToken  = "token"
)

// maxAuthorLen bounds the display name a client may claim.
const maxAuthorLen = 40

func sessionString(c echo.Context, key string) string {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return ""
	}
	v, _ := sess.Values[key].(string)
	return v
}

func setSessionValues(c echo.Context, values map[string]string) error {
	sess, err := session.Get(sessionName, c)
	if err != nil {
		return err
	}
	for k, v := range values {
		if v == "" {
			delete(sess.Values, k)
			continue
		}
		sess.Values[k] = v
	}
	return sess.Save(c.Request(), c.Response())
}

// IsAdmin reports whether the request carries a valid admin capability
// token. The token is verified on every call.
func (a *App) IsAdmin(c echo.Context) bool {
	return a.tokens.Verify(sessionString(c, sessionToken)) == nil
}

// Session returns the identity of the request.
func (a *App) Session(c echo.Context) board.Session {
	return board.Session{
		Admin:  a.IsAdmin(c),
		Author: sessionString(c, sessionAuthor),
	}
}

// Lang returns the display language: the one chosen in the session, else
// the best match of Accept-Language, else the configured default.
func (a *App) Lang(c echo.Context) i18n.Lang {
	if lang, ok := i18n.Parse(sessionString(c, sessionLang)); ok {
		return lang
	}
	if header := c.Request().Header.Get("Accept-Language"); strings.TrimSpace(header) != "" {
		return i18n.Negotiate(header)
	}
	lang, _ := i18n.Parse(a.Config.DefaultLang)
	return lang
}

func (a *App) setAdminSession(c echo.Context) error {
	token, err := a.tokens.Issue()
	if err != nil {
		return err
	}
	return setSessionValues(c, map[string]string{sessionToken: token})
}

func clearAdminSession(c echo.Context) error {
	return setSessionValues(c, map[string]string{sessionToken: ""})
}

func (a *App) viewer(c echo.Context) views.Viewer {
	return views.Viewer{
		Session: a.Session(c),
		Lang:    a.Lang(c),
		CSRF:    CsrfToken(c),
	}
}

// CsrfToken extracts the CSRF token from the Echo context.
func CsrfToken(c echo.Context) string {
	token, _ := c.Get(middleware.DefaultCSRFConfig.ContextKey).(string)
	return token
}
