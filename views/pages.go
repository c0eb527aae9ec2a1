package views

import (
	"context"
	"io"
	"strconv"

	"github.com/a-h/templ"

	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/cms"
	"github.com/eringen/qaboard/i18n"
)

// page accumulates HTML and keeps the first write error.
type page struct {
	ctx context.Context
	w   io.Writer
	err error
}

func (p *page) raw(s string) {
	if p.err == nil {
		_, p.err = io.WriteString(p.w, s)
	}
}

func (p *page) text(s string) {
	p.raw(templ.EscapeString(s))
}

func (p *page) attr(name, value string) {
	p.raw(" " + name + `="` + templ.EscapeString(value) + `"`)
}

func (p *page) component(c templ.Component) {
	if p.err == nil {
		p.err = c.Render(p.ctx, p.w)
	}
}

// Layout wraps body in the document shell.
func Layout(site SiteConfig, meta PageMeta, body templ.Component) templ.Component {
	return templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{ctx: ctx, w: w}
		lang := meta.Lang
		if lang == "" {
			lang = i18n.Default
		}
		title := site.Name
		if meta.Title != "" {
			title = meta.Title + " | " + site.Name
		}
		desc := meta.Description
		if desc == "" {
			desc = site.Description
		}
		p.raw("<!doctype html><html")
		p.attr("lang", string(lang))
		p.raw(`><head><meta charset="utf-8"/><meta name="viewport" content="width=device-width, initial-scale=1"/><title>`)
		p.text(title)
		p.raw(`</title>`)
		if desc != "" {
			p.raw(`<meta name="description"`)
			p.attr("content", desc)
			p.raw(`/>`)
		}
		if meta.URL != "" {
			p.raw(`<link rel="canonical"`)
			p.attr("href", meta.URL)
			p.raw(`/>`)
		}
		p.raw(`<link rel="stylesheet" href="/public/styles.css"/></head><body><header class="site-header"><a href="/" class="brand">`)
		p.text(site.Name)
		p.raw(`</a><nav class="lang-toggle">`)
		for _, l := range i18n.Supported {
			p.raw(`<button type="button" data-lang`)
			p.attr("value", string(l))
			if l == lang {
				p.raw(` class="active"`)
			}
			p.raw(`>`)
			p.text(string(l))
			p.raw(`</button>`)
		}
		p.raw(`</nav></header><main>`)
		p.component(body)
		p.raw(`</main><script src="/public/board.js" defer></script></body></html>`)
		return p.err
	})
}

// Board renders the filtered post table with pagination.
func Board(b BoardPage) templ.Component {
	return Layout(b.Site, b.Meta, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{ctx: ctx, w: w}
		lang := b.Viewer.Lang
		p.raw(`<section class="hero"><h1>`)
		p.text(cms.Localized(b.Hero, "title1", lang))
		p.raw(`<br/>`)
		p.text(cms.Localized(b.Hero, "title2", lang))
		p.raw(`</h1><p>`)
		p.text(cms.Localized(b.Hero, "desc", lang))
		p.raw(`</p></section><section class="board"><h2>`)
		p.text(i18n.T(lang, i18n.BoardTitle))
		p.raw(`</h2>`)
		if b.Viewer.Session.Admin {
			p.raw(`<p class="admin-badge">admin</p>`)
		}

		p.raw(`<form method="get" action="/" class="board-filters"><input type="search" name="q"`)
		p.attr("value", b.Criteria.Search)
		p.raw(`/><select name="category"><option value="all">all</option>`)
		for _, c := range b.Categories {
			p.raw(`<option`)
			p.attr("value", c)
			if c == b.Criteria.Category {
				p.raw(` selected`)
			}
			p.raw(`>`)
			p.text(c)
			p.raw(`</option>`)
		}
		p.raw(`</select><select name="status"><option value="all">all</option>`)
		for _, r := range []board.Resolution{board.Resolved, board.Pending} {
			p.raw(`<option`)
			p.attr("value", string(r))
			if string(r) == b.Criteria.Status {
				p.raw(` selected`)
			}
			p.raw(`>`)
			p.text(StatusLabel(r, lang))
			p.raw(`</option>`)
		}
		p.raw(`</select><input type="search" name="answerer"`)
		p.attr("value", b.Criteria.Answerer)
		p.raw(`/><button type="submit">🔍</button></form>`)

		if len(b.Page.Items) == 0 {
			p.raw(`<p class="board-empty">`)
			p.text(i18n.T(lang, i18n.BoardEmpty))
			p.raw(`</p></section>`)
			return p.err
		}

		p.raw(`<table class="board-table"><thead><tr><th>#</th>`)
		for _, k := range []i18n.Key{i18n.ThDate, i18n.ThFrom, i18n.ThCategory, i18n.ThQuestion, i18n.ThStatus, i18n.ThAnsweredBy} {
			p.raw(`<th>`)
			p.text(i18n.T(lang, k))
			p.raw(`</th>`)
		}
		p.raw(`</tr></thead><tbody>`)
		start := (b.Page.Page - 1) * board.PageSize
		for i, post := range b.Page.Items {
			p.raw(`<tr><td>`)
			p.text(strconv.Itoa(start + i + 1))
			p.raw(`</td><td>`)
			p.text(post.Date)
			p.raw(`</td><td>`)
			p.text(post.From)
			p.raw(`</td><td><span class="badge badge-accent">`)
			p.text(post.Category)
			p.raw(`</span></td><td><a`)
			p.attr("href", PostURL(post.ID))
			p.raw(`>`)
			p.text(post.Question)
			p.raw(`</a></td><td><span`)
			p.attr("class", StatusClass(post.Resolved))
			p.raw(`>`)
			p.text(StatusLabel(post.Resolved, lang))
			p.raw(`</span></td><td>`)
			p.text(OrDash(post.AnsweredBy))
			p.raw(`</td></tr>`)
		}
		p.raw(`</tbody></table>`)

		if b.Page.TotalPages > 1 {
			p.raw(`<nav class="pagination">`)
			if b.Page.Page > 1 {
				p.raw(`<a`)
				p.attr("href", PageURL(b.Criteria, b.Page.Page-1))
				p.raw(`>&laquo;</a>`)
			}
			for n := 1; n <= b.Page.TotalPages; n++ {
				p.raw(`<a`)
				p.attr("href", PageURL(b.Criteria, n))
				if n == b.Page.Page {
					p.raw(` class="active"`)
				}
				p.raw(`>`)
				p.text(strconv.Itoa(n))
				p.raw(`</a>`)
			}
			if b.Page.Page < b.Page.TotalPages {
				p.raw(`<a`)
				p.attr("href", PageURL(b.Criteria, b.Page.Page+1))
				p.raw(`>&raquo;</a>`)
			}
			p.raw(`</nav>`)
		}
		p.raw(`</section>`)
		return p.err
	}))
}

// PostDetail renders one post, its answer and the comment tree.
func PostDetail(d DetailPage) templ.Component {
	return Layout(d.Site, d.Meta, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{ctx: ctx, w: w}
		lang := d.Viewer.Lang
		post := d.Post
		p.raw(`<article class="post-detail"`)
		p.attr("data-post", post.ID)
		p.raw(`><h1>`)
		p.text(i18n.T(lang, i18n.DetailTitle))
		p.raw(`</h1><p class="post-meta"><span>`)
		p.text(post.Date)
		p.raw(`</span> · <span>`)
		p.text(post.From)
		p.raw(`</span> · <span class="badge badge-accent">`)
		p.text(post.Category)
		p.raw(`</span> <span`)
		p.attr("class", StatusClass(post.Resolved))
		p.raw(`>`)
		p.text(StatusLabel(post.Resolved, lang))
		p.raw(`</span></p><h2>Q. `)
		p.text(post.Question)
		p.raw(`</h2>`)
		if d.CanEdit {
			p.raw(`<button type="button" class="btn btn-sm" data-action="edit">✎</button>`)
		}
		if post.Answer != "" {
			p.raw(`<section class="post-answer"><h3>A. (`)
			p.text(OrDash(post.AnsweredBy))
			p.raw(`)</h3>`)
			p.component(Text(post.Answer))
			if post.FollowUp != "" {
				p.raw(`<p class="follow-up"><strong>F/U:</strong> `)
				p.text(post.FollowUp)
				p.raw(`</p>`)
			}
			p.raw(`</section>`)
		}

		p.raw(`<section class="comments"><h3>`)
		p.text(i18n.T(lang, i18n.Comments))
		p.raw(` (`)
		p.text(strconv.Itoa(d.Comments))
		p.raw(`)</h3>`)
		if len(d.Threads) == 0 {
			p.raw(`<p class="comments-empty">`)
			p.text(i18n.T(lang, i18n.NoComments))
			p.raw(`</p>`)
		}
		for _, t := range d.Threads {
			p.raw(`<div class="comment-thread">`)
			commentView(p, t.CommentView, false)
			for _, r := range t.Replies {
				commentView(p, r, true)
			}
			p.raw(`</div>`)
		}
		p.raw(`</section></article>`)
		return p.err
	}))
}

func commentView(p *page, c board.CommentView, reply bool) {
	class := "comment"
	if reply {
		class = "comment comment-reply"
	}
	p.raw(`<div`)
	p.attr("class", class)
	p.attr("data-comment", c.ID)
	p.raw(`><p class="comment-meta"><strong>`)
	p.text(c.Author)
	p.raw(`</strong> <time`)
	p.attr("datetime", c.CreatedAt.Format("2006-01-02T15:04:05Z07:00"))
	p.attr("title", c.Posted)
	p.raw(`>`)
	p.text(c.Ago)
	p.raw(`</time>`)
	if c.Deletable {
		p.raw(`<button type="button" class="comment-del" data-action="delete-comment">✕</button>`)
	}
	p.raw(`</p>`)
	p.component(Text(c.Text))
	p.raw(`</div>`)
}

// Admin renders the login form, or the content sections for an admin.
func Admin(a AdminPage) templ.Component {
	return Layout(a.Site, a.Meta, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{ctx: ctx, w: w}
		lang := a.Viewer.Lang
		if !a.Viewer.Session.Admin {
			p.raw(`<section class="login"><h1>`)
			p.text(i18n.T(lang, i18n.LoginTitle))
			p.raw(`</h1>`)
			if a.Failed {
				p.raw(`<p class="error">`)
				p.text(i18n.T(lang, i18n.LoginFailed))
				p.raw(`</p>`)
			}
			p.raw(`<form method="post" action="/admin/login/"><input type="hidden" name="_csrf"`)
			p.attr("value", a.Viewer.CSRF)
			p.raw(`/><label>`)
			p.text(i18n.T(lang, i18n.LoginID))
			p.raw(`<input name="id" autocomplete="username" required/></label><label>`)
			p.text(i18n.T(lang, i18n.LoginPassword))
			p.raw(`<input type="password" name="password" autocomplete="current-password" required/></label><button type="submit">`)
			p.text(i18n.T(lang, i18n.LoginSubmit))
			p.raw(`</button></form></section>`)
			return p.err
		}
		p.raw(`<section class="admin"><h1>admin</h1><h2>categories</h2><ul>`)
		for _, c := range a.Content.Categories {
			p.raw(`<li>`)
			p.text(c)
			p.raw(`</li>`)
		}
		p.raw(`</ul><h2>projects</h2><ul>`)
		for _, pr := range a.Content.Projects {
			p.raw(`<li><strong>`)
			p.text(pr.Label)
			p.raw(`</strong> `)
			p.text(cms.Localized(pr.Copy, "title", lang))
			p.raw(`</li>`)
		}
		p.raw(`</ul><form method="post" action="/admin/logout/"><input type="hidden" name="_csrf"`)
		p.attr("value", a.Viewer.CSRF)
		p.raw(`/><button type="submit">logout</button></form></section>`)
		return p.err
	}))
}

// NotFound renders the 404 page.
func NotFound(site SiteConfig, lang i18n.Lang) templ.Component {
	return message(site, lang, "404", i18n.T(lang, i18n.NotFound))
}

// ServerError renders the 500 page.
func ServerError(site SiteConfig, lang i18n.Lang) templ.Component {
	return message(site, lang, "500", i18n.T(lang, i18n.ServerError))
}

func message(site SiteConfig, lang i18n.Lang, code, text string) templ.Component {
	return Layout(site, PageMeta{Title: code, Lang: lang}, templ.ComponentFunc(func(ctx context.Context, w io.Writer) error {
		p := &page{ctx: ctx, w: w}
		p.raw(`<section class="message"><h1>`)
		p.text(code)
		p.raw(`</h1><p>`)
		p.text(text)
		p.raw(`</p><a href="/">&larr;</a></section>`)
		return p.err
	}))
}
