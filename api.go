package qaboard

import (
	"encoding/json"
	"io"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/i18n"
	"github.com/eringen/qaboard/views"
)

func (a *App) postJSON(p board.Post, sess board.Session, lang i18n.Lang) PostJSON {
	return toPostJSON(p, sess, views.StatusLabel(p.Resolved, lang))
}

func (a *App) handleListPosts(c echo.Context) error {
	sess, lang := a.Session(c), a.Lang(c)
	page := board.Select(a.Data.Posts(), criteria(c), pageParam(c))
	out := PageJSON{
		Items:      make([]PostJSON, 0, len(page.Items)),
		Page:       page.Page,
		TotalPages: page.TotalPages,
		Total:      page.Total,
	}
	for _, p := range page.Items {
		out.Items = append(out.Items, a.postJSON(p, sess, lang))
	}
	return c.JSON(http.StatusOK, out)
}

// handleExport writes every post matching the filters, not only the
// current page.
func (a *App) handleExport(c echo.Context) error {
	lang := a.Lang(c)
	posts := board.Filter(a.Data.Posts(), criteria(c))
	filename := "qa-board-" + a.Data.Today() + ".csv"
	return RenderAttachment(c, "text/csv; charset=utf-8", filename, func(w io.Writer) error {
		return board.WriteCSV(w, posts, lang)
	})
}

func (a *App) handleSubmit(c echo.Context) error {
	var req questionRequest
	if err := a.bindJSON(c, &req); err != nil {
		return err
	}
	lang := a.Lang(c)
	if !a.submitLimiter.Allow(c.RealIP()) {
		return c.JSON(http.StatusTooManyRequests, errorBody{Error: i18n.T(lang, i18n.TooManyRequests)})
	}
	post, err := a.Data.SubmitQuestion(c.Request().Context(), board.Draft{
		From:     req.From,
		Category: req.Category,
		Question: req.Question,
	}, a.Content.Categories())
	if err != nil {
		return a.apiError(c, err)
	}
	// the submitter may edit their own question
	if sessionString(c, sessionAuthor) == "" {
		if err := setSessionValues(c, map[string]string{sessionAuthor: post.From}); err != nil {
			c.Logger().Warnf("remember author: %v", err)
		}
	}
	c.Response().Header().Set("X-Message", i18n.T(lang, i18n.QuestionSubmitted))
	return c.JSON(http.StatusCreated, a.postJSON(post, a.Session(c), lang))
}

func (a *App) handleGetPost(c echo.Context) error {
	post, err := a.Data.FetchPost(c.Request().Context(), c.Param("id"))
	if err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(http.StatusOK, a.postJSON(post, a.Session(c), a.Lang(c)))
}

func (a *App) handleEditPost(c echo.Context) error {
	var req editRequest
	if err := a.bindJSON(c, &req); err != nil {
		return err
	}
	ctx := c.Request().Context()
	id := c.Param("id")
	if err := a.Data.EditPost(ctx, a.Session(c), id, req.Category, req.Question, a.Content.Categories()); err != nil {
		return a.apiError(c, err)
	}
	return a.handleGetPost(c)
}

func (a *App) handleAnswer(c echo.Context) error {
	var req answerRequest
	if err := a.bindJSON(c, &req); err != nil {
		return err
	}
	resolved := board.Pending
	if board.Resolution(req.Resolved) == board.Resolved {
		resolved = board.Resolved
	}
	err := a.Data.AnswerPost(c.Request().Context(), a.Session(c), c.Param("id"), board.Answer{
		Answer:     req.Answer,
		AnsweredBy: req.AnsweredBy,
		Resolved:   resolved,
		FollowUp:   req.FollowUp,
	})
	if err != nil {
		return a.apiError(c, err)
	}
	c.Response().Header().Set("X-Message", i18n.T(a.Lang(c), i18n.AnswerSubmitted))
	return a.handleGetPost(c)
}

func (a *App) handleToggleResolution(c echo.Context) error {
	if _, err := a.Data.ToggleResolution(c.Request().Context(), a.Session(c), c.Param("id")); err != nil {
		return a.apiError(c, err)
	}
	return a.handleGetPost(c)
}

func (a *App) handleDeletePost(c echo.Context) error {
	if err := a.Data.DeletePost(c.Request().Context(), a.Session(c), c.Param("id")); err != nil {
		return a.apiError(c, err)
	}
	return c.NoContent(http.StatusNoContent)
}

// Comments

func (a *App) commentTree(c echo.Context, postID string, comments []board.Comment) CommentsJSON {
	threads := board.BuildTree(comments, a.Session(c), a.Data.TreeOptions())
	return toCommentsJSON(postID, threads)
}

func (a *App) handleListComments(c echo.Context) error {
	ctx := c.Request().Context()
	id := c.Param("id")
	if _, err := a.Data.FetchPost(ctx, id); err != nil {
		return a.apiError(c, err)
	}
	comments, err := a.Data.Comments(ctx, id)
	if err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(http.StatusOK, a.commentTree(c, id, comments))
}

func (a *App) handleAddComment(c echo.Context) error {
	var req commentRequest
	if err := a.bindJSON(c, &req); err != nil {
		return err
	}
	author := strings.TrimSpace(req.Author)
	if author == "" {
		author = sessionString(c, sessionAuthor)
	}
	comment, err := a.Data.AddComment(c.Request().Context(), c.Param("id"), board.CommentDraft{
		Author:   author,
		Text:     req.Text,
		ParentID: strings.TrimSpace(req.ParentID),
	})
	if err != nil {
		return a.apiError(c, err)
	}
	if sessionString(c, sessionAuthor) == "" {
		if err := setSessionValues(c, map[string]string{sessionAuthor: comment.Author}); err != nil {
			c.Logger().Warnf("remember author: %v", err)
		}
	}
	out := CommentJSON{
		ID:        comment.ID,
		Author:    comment.Author,
		Text:      comment.Text,
		Posted:    comment.CreatedAt.In(a.Data.TreeOptions().Location).Format(board.DisplayLayout),
		Deletable: a.Session(c).CanDeleteComment(comment),
	}
	if comment.IsReply() {
		out.ParentID = *comment.ParentID
	}
	return c.JSON(http.StatusCreated, out)
}

func (a *App) handleDeleteComment(c echo.Context) error {
	removed, err := a.Data.DeleteComment(c.Request().Context(), a.Session(c), c.Param("id"), c.Param("cid"))
	if err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(http.StatusOK, map[string]int{"removed": removed})
}

// Content

func (a *App) handleGetContent(c echo.Context) error {
	return c.JSON(http.StatusOK, a.Content.Content())
}

func (a *App) handlePutContent(c echo.Context) error {
	if !a.IsAdmin(c) {
		return a.apiError(c, board.ErrNotPermitted)
	}
	var raw json.RawMessage
	if err := json.NewDecoder(c.Request().Body).Decode(&raw); err != nil {
		return echo.NewHTTPError(http.StatusBadRequest, i18n.T(a.Lang(c), i18n.FieldRequired, "body"))
	}
	section := c.Param("section")
	if err := a.Content.Put(c.Request().Context(), section, raw); err != nil {
		return a.apiError(c, err)
	}
	v, _ := a.Content.Get(section)
	return c.JSON(http.StatusOK, v)
}

func (a *App) handlePutCategories(c echo.Context) error {
	if !a.IsAdmin(c) {
		return a.apiError(c, board.ErrNotPermitted)
	}
	var req categoriesRequest
	if err := a.bindJSON(c, &req); err != nil {
		return err
	}
	if err := a.Content.PutCategories(c.Request().Context(), req.Categories); err != nil {
		return a.apiError(c, err)
	}
	return c.JSON(http.StatusOK, categoriesRequest{Categories: a.Content.Categories()})
}
