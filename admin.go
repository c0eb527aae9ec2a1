package qaboard

import (
	"context"
	"crypto/subtle"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/i18n"
	"github.com/eringen/qaboard/views"
)

func (a *App) handleAdmin(c echo.Context) error {
	return a.renderAdmin(c, http.StatusOK, false)
}

func (a *App) renderAdmin(c echo.Context, code int, failed bool) error {
	v := a.viewer(c)
	return RenderStatus(c, code, views.Admin(views.AdminPage{
		Site: a.site(),
		Meta: views.PageMeta{
			Title: i18n.T(v.Lang, i18n.LoginTitle),
			Lang:  v.Lang,
		},
		Viewer:  v,
		Failed:  failed,
		Content: a.Content.Content(),
	}))
}

// checkCredentials compares id and password in constant time.
func (a *App) checkCredentials(id, pass string) bool {
	idOK := subtle.ConstantTimeCompare([]byte(id), []byte(a.Config.AdminID)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(pass), []byte(a.Config.AdminPassword)) == 1
	return idOK && passOK
}

// login verifies the credentials, failed attempts counting against the
// client IP, and stores a fresh capability token in the session.
func (a *App) login(c echo.Context, req loginRequest) (ok, limited bool, err error) {
	ip := c.RealIP()
	if !a.loginLimiter.Check(ip) {
		return false, true, nil
	}
	if !a.checkCredentials(strings.TrimSpace(req.ID), req.Password) {
		a.loginLimiter.Record(ip)
		c.Logger().Warnf("admin login failed from %s", ip)
		return false, false, nil
	}
	a.loginLimiter.Reset(ip)
	if err := a.setAdminSession(c); err != nil {
		return false, false, err
	}
	c.Logger().Infof("admin login from %s", ip)
	a.runMigration()
	return true, false, nil
}

func (a *App) handleAdminLogin(c echo.Context) error {
	req := loginRequest{ID: c.FormValue("id"), Password: c.FormValue("password")}
	ok, limited, err := a.login(c, req)
	switch {
	case err != nil:
		return err
	case limited:
		return c.String(http.StatusTooManyRequests, i18n.T(a.Lang(c), i18n.TooManyRequests))
	case !ok:
		return a.renderAdmin(c, http.StatusUnauthorized, true)
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

func (a *App) handleAdminLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	return c.Redirect(http.StatusSeeOther, "/admin/")
}

// runMigration starts the answeredBy backfill in the background. The
// marker makes repeated logins cheap; a run already in progress is not
// doubled.
func (a *App) runMigration() {
	if !a.migrating.TryLock() {
		return
	}
	a.migrations.Add(1)
	go func() {
		defer a.migrations.Done()
		defer a.migrating.Unlock()
		m := board.NewMigration(a.Data, board.NewStoreMarker(a.Store))
		res, err := m.Run(context.Background(), board.Session{Admin: true})
		if err != nil {
			a.logger.Errorf("answeredBy backfill: %v", err)
			return
		}
		if !res.Skipped && res.Failed > 0 {
			a.logger.Warnf("answeredBy backfill incomplete: %d failed, retried on next login", res.Failed)
		}
	}()
}

// JSON session API

func (a *App) sessionInfo(c echo.Context) SessionInfo {
	sess := a.Session(c)
	return SessionInfo{
		Admin:  sess.Admin,
		Author: sess.Author,
		Lang:   string(a.Lang(c)),
		CSRF:   CsrfToken(c),
	}
}

func (a *App) handleSession(c echo.Context) error {
	return c.JSON(http.StatusOK, a.sessionInfo(c))
}

func (a *App) handleLogin(c echo.Context) error {
	var req loginRequest
	if err := a.bindJSON(c, &req); err != nil {
		return err
	}
	ok, limited, err := a.login(c, req)
	switch {
	case err != nil:
		return err
	case limited:
		return c.JSON(http.StatusTooManyRequests, errorBody{Error: i18n.T(a.Lang(c), i18n.TooManyRequests)})
	case !ok:
		return c.JSON(http.StatusUnauthorized, errorBody{Error: i18n.T(a.Lang(c), i18n.LoginFailed)})
	}
	info := a.sessionInfo(c)
	info.Admin = true
	return c.JSON(http.StatusOK, info)
}

func (a *App) handleLogout(c echo.Context) error {
	if err := clearAdminSession(c); err != nil {
		return err
	}
	info := a.sessionInfo(c)
	info.Admin = false
	return c.JSON(http.StatusOK, info)
}

func (a *App) handleSetAuthor(c echo.Context) error {
	var req authorRequest
	if err := a.bindJSON(c, &req); err != nil {
		return err
	}
	author := strings.TrimSpace(req.Author)
	if len([]rune(author)) > maxAuthorLen {
		author = string([]rune(author)[:maxAuthorLen])
	}
	if err := setSessionValues(c, map[string]string{sessionAuthor: author}); err != nil {
		return err
	}
	info := a.sessionInfo(c)
	info.Author = author
	return c.JSON(http.StatusOK, info)
}

func (a *App) handleSetLang(c echo.Context) error {
	var req langRequest
	if err := a.bindJSON(c, &req); err != nil {
		return err
	}
	lang, ok := i18n.Parse(req.Lang)
	if !ok {
		return c.JSON(http.StatusBadRequest, errorBody{Error: i18n.T(a.Lang(c), i18n.FieldRequired, "lang")})
	}
	if err := setSessionValues(c, map[string]string{sessionLang: string(lang)}); err != nil {
		return err
	}
	info := a.sessionInfo(c)
	info.Lang = string(lang)
	return c.JSON(http.StatusOK, info)
}
