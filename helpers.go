package qaboard

import (
	"net/http"
	"strconv"
	"strings"

	"github.com/juju/errors"
	"github.com/labstack/echo/v4"

	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/i18n"
)

// apiError converts a data-layer error into a localized JSON response.
func (a *App) apiError(c echo.Context, err error) error {
	lang := a.Lang(c)
	code, key, args := classify(err)
	switch {
	case code >= 500:
		c.Logger().Errorf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	case code == http.StatusBadRequest || code == http.StatusForbidden:
		c.Logger().Warnf("%s %s: %v", c.Request().Method, c.Request().URL.Path, err)
	}
	return c.JSON(code, errorBody{Error: i18n.T(lang, key, args...)})
}

// classify maps an error to a status code and message. NotFound is checked
// first because a failed write to a missing document carries both.
func classify(err error) (int, i18n.Key, []any) {
	if errors.Is(err, errors.NotFound) {
		return http.StatusNotFound, i18n.NotFound, nil
	}
	if ve, ok := board.IsValidation(err); ok {
		switch ve.Reason {
		case board.ReasonDuplicate:
			return http.StatusBadRequest, i18n.DuplicateQuestion, nil
		case board.ReasonBlocked:
			return http.StatusBadRequest, i18n.WholesaleBlocked, nil
		case board.ReasonCategory:
			return http.StatusBadRequest, i18n.UnknownCategory, nil
		case board.ReasonParent:
			return http.StatusBadRequest, i18n.InvalidParent, nil
		default:
			return http.StatusBadRequest, i18n.FieldRequired, []any{ve.Field}
		}
	}
	switch {
	case errors.Is(err, board.ErrNotPermitted):
		return http.StatusForbidden, i18n.NotPermitted, nil
	case errors.Is(err, board.ErrStoreWrite):
		return http.StatusBadGateway, i18n.WriteFailed, nil
	case errors.Is(err, errors.NotValid):
		return http.StatusBadRequest, i18n.FieldRequired, []any{"content"}
	}
	return http.StatusInternalServerError, i18n.ServerError, nil
}

// criteria reads the board filters from the query string.
func criteria(c echo.Context) board.Criteria {
	return board.Criteria{
		Search:   strings.TrimSpace(c.QueryParam("q")),
		Category: strings.TrimSpace(c.QueryParam("category")),
		Status:   strings.TrimSpace(c.QueryParam("status")),
		Answerer: strings.TrimSpace(c.QueryParam("answerer")),
	}
}

// pageParam returns the requested page, 1 when absent or malformed.
// Out-of-range pages are clamped by board.Paginate.
func pageParam(c echo.Context) int {
	n, err := strconv.Atoi(c.QueryParam("page"))
	if err != nil || n < 1 {
		return 1
	}
	return n
}

// bindJSON decodes the request body into v, answering 400 on failure.
func (a *App) bindJSON(c echo.Context, v any) error {
	if err := c.Bind(v); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, i18n.T(a.Lang(c), i18n.FieldRequired, "body"))
	}
	return nil
}
