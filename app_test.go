package qaboard

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"github.com/go-playground/assert/v2"
	"github.com/juju/clock/testclock"

	"github.com/eringen/qaboard/i18n"
)

var testNow = time.Date(2026, 3, 6, 9, 0, 0, 0, time.UTC)

const testPassword = "s3cret"

func setupTestApp(t *testing.T, opts ...Option) (*App, *httptest.Server) {
	t.Helper()
	cfg := SiteConfig{
		DatabasePath:  filepath.Join(t.TempDir(), "test.db"),
		AdminPassword: testPassword,
		SessionSecret: "test-session-secret-0123456789abcdef",
		DefaultLang:   "en",
	}
	opts = append([]Option{WithClock(testclock.NewClock(testNow))}, opts...)
	a := New(cfg, opts...)
	a.Logger().SetOutput(io.Discard)
	if err := a.Init(context.Background()); err != nil {
		t.Fatalf("Init failed: %v", err)
	}
	srv := httptest.NewServer(a.Echo)
	t.Cleanup(func() {
		srv.Close()
		a.Close()
	})
	return a, srv
}

// testClient is a browser: it keeps cookies and sends the CSRF token.
type testClient struct {
	t    *testing.T
	base string
	http *http.Client
	csrf string
}

func newTestClient(t *testing.T, srv *httptest.Server) *testClient {
	t.Helper()
	jar, err := cookiejar.New(nil)
	if err != nil {
		t.Fatalf("cookiejar: %v", err)
	}
	c := &testClient{t: t, base: srv.URL, http: &http.Client{
		Jar: jar,
		CheckRedirect: func(*http.Request, []*http.Request) error {
			return http.ErrUseLastResponse
		},
	}}
	var info SessionInfo
	c.doJSON(http.MethodGet, "/api/session", nil, http.StatusOK, &info)
	if info.CSRF == "" {
		t.Fatal("no csrf token in session info")
	}
	c.csrf = info.CSRF
	return c
}

func (c *testClient) do(method, path string, body any) (*http.Response, []byte) {
	c.t.Helper()
	var r io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			c.t.Fatalf("marshal body: %v", err)
		}
		r = bytes.NewReader(b)
	}
	req, err := http.NewRequest(method, c.base+path, r)
	if err != nil {
		c.t.Fatalf("new request: %v", err)
	}
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.csrf != "" {
		req.Header.Set("X-CSRF-Token", c.csrf)
	}
	res, err := c.http.Do(req)
	if err != nil {
		c.t.Fatalf("%s %s: %v", method, path, err)
	}
	defer res.Body.Close()
	data, err := io.ReadAll(res.Body)
	if err != nil {
		c.t.Fatalf("read body: %v", err)
	}
	return res, data
}

// doJSON checks the status and decodes the response into out (if non-nil).
func (c *testClient) doJSON(method, path string, body any, want int, out any) {
	c.t.Helper()
	res, data := c.do(method, path, body)
	if res.StatusCode != want {
		c.t.Fatalf("%s %s = %d, want %d: %s", method, path, res.StatusCode, want, data)
	}
	if out != nil {
		if err := json.Unmarshal(data, out); err != nil {
			c.t.Fatalf("decode %s: %v (%s)", path, err, data)
		}
	}
}

// errorOf returns the status and the error message of a failed call.
func (c *testClient) errorOf(method, path string, body any) (int, string) {
	c.t.Helper()
	res, data := c.do(method, path, body)
	var e errorBody
	_ = json.Unmarshal(data, &e)
	return res.StatusCode, e.Error
}

func (c *testClient) login() {
	c.t.Helper()
	var info SessionInfo
	c.doJSON(http.MethodPost, "/api/session/login", loginRequest{ID: "admin", Password: testPassword}, http.StatusOK, &info)
	if !info.Admin {
		c.t.Fatal("login did not grant admin")
	}
}

func (c *testClient) submit(from, category, question string) PostJSON {
	c.t.Helper()
	var p PostJSON
	c.doJSON(http.MethodPost, "/api/posts", questionRequest{From: from, Category: category, Question: question}, http.StatusCreated, &p)
	return p
}

// waitForPosts waits until the posts cache holds n posts.
func waitForPosts(t *testing.T, a *App, n int) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if len(a.Data.Posts()) == n {
			return
		}
		time.Sleep(5 * time.Millisecond)
	}
	t.Fatalf("posts cache holds %d posts, want %d", len(a.Data.Posts()), n)
}

func TestInitRequiresSecrets(t *testing.T) {
	a := New(SiteConfig{DatabasePath: filepath.Join(t.TempDir(), "x.db")})
	if err := a.Init(context.Background()); err == nil {
		t.Fatal("Init without AdminPassword should fail")
	}
	a = New(SiteConfig{DatabasePath: filepath.Join(t.TempDir(), "x.db"), AdminPassword: "x"})
	if err := a.Init(context.Background()); err == nil {
		t.Fatal("Init without SessionSecret should fail")
	}
}

func TestSessionDefaults(t *testing.T) {
	_, srv := setupTestApp(t)
	c := newTestClient(t, srv)

	var info SessionInfo
	c.doJSON(http.MethodGet, "/api/session", nil, http.StatusOK, &info)
	assert.Equal(t, info.Admin, false)
	assert.Equal(t, info.Author, "")
	assert.Equal(t, info.Lang, "en")

	c.doJSON(http.MethodPut, "/api/session/author", authorRequest{Author: "  Laura "}, http.StatusOK, &info)
	assert.Equal(t, info.Author, "Laura")
	c.doJSON(http.MethodPut, "/api/session/lang", langRequest{Lang: "ko"}, http.StatusOK, &info)
	assert.Equal(t, info.Lang, "ko")

	c.doJSON(http.MethodGet, "/api/session", nil, http.StatusOK, &info)
	assert.Equal(t, info.Author, "Laura")
	assert.Equal(t, info.Lang, "ko")

	code, _ := c.errorOf(http.MethodPut, "/api/session/lang", langRequest{Lang: "xx-invalid-!!"})
	assert.Equal(t, code, http.StatusBadRequest)
}

func TestAcceptLanguageNegotiation(t *testing.T) {
	_, srv := setupTestApp(t)
	req, _ := http.NewRequest(http.MethodGet, srv.URL+"/api/session", nil)
	req.Header.Set("Accept-Language", "ko-KR,ko;q=0.9,en;q=0.5")
	res, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	defer res.Body.Close()
	var info SessionInfo
	if err := json.NewDecoder(res.Body).Decode(&info); err != nil {
		t.Fatalf("decode: %v", err)
	}
	assert.Equal(t, info.Lang, "ko")
}

func TestMutationsRequireCSRF(t *testing.T) {
	_, srv := setupTestApp(t)
	c := newTestClient(t, srv)
	c.csrf = ""
	res, _ := c.do(http.MethodPost, "/api/posts", questionRequest{From: "a", Category: "RH", Question: "q"})
	assert.Equal(t, res.StatusCode, http.StatusForbidden)
}

func TestSubmitAndList(t *testing.T) {
	a, srv := setupTestApp(t)
	c := newTestClient(t, srv)

	p := c.submit("Laura", "RH", "How do refunds work?")
	assert.Equal(t, p.Resolved, "No")
	assert.Equal(t, p.Status, i18n.T(i18n.English, i18n.StatusPending))
	assert.Equal(t, p.Date, "2026-03-06")
	// the submitter is remembered and may edit
	assert.Equal(t, p.CanEdit, true)
	assert.Equal(t, p.CanDelete, false)
	waitForPosts(t, a, 1)

	var page PageJSON
	c.doJSON(http.MethodGet, "/api/posts?category=rh", nil, http.StatusOK, &page)
	assert.Equal(t, page.Total, 1)
	assert.Equal(t, page.Items[0].ID, p.ID)
	c.doJSON(http.MethodGet, "/api/posts?status=Yes", nil, http.StatusOK, &page)
	assert.Equal(t, page.Total, 0)
	assert.Equal(t, page.Page, 1)

	tests := []struct {
		name string
		req  questionRequest
		want i18n.Key
	}{
		{"duplicate", questionRequest{From: "Kim", Category: "VV", Question: "  how do REFUNDS work? "}, i18n.DuplicateQuestion},
		{"blocked", questionRequest{From: "Kim", Category: "VV", Question: "Can I place a wholesale order?"}, i18n.WholesaleBlocked},
		{"unknown category", questionRequest{From: "Kim", Category: "Nope", Question: "Something new"}, i18n.UnknownCategory},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			code, msg := c.errorOf(http.MethodPost, "/api/posts", tt.req)
			assert.Equal(t, code, http.StatusBadRequest)
			assert.Equal(t, msg, i18n.T(i18n.English, tt.want))
		})
	}

	code, msg := c.errorOf(http.MethodPost, "/api/posts", questionRequest{From: "Kim", Category: "VV"})
	assert.Equal(t, code, http.StatusBadRequest)
	assert.Equal(t, msg, i18n.T(i18n.English, i18n.FieldRequired, "question"))
}

func TestSubmitRateLimited(t *testing.T) {
	_, srv := setupTestApp(t)
	c := newTestClient(t, srv)
	for i := 0; i < 10; i++ {
		c.submit("Kim", "RH", "Question number "+string(rune('a'+i)))
	}
	code, _ := c.errorOf(http.MethodPost, "/api/posts", questionRequest{From: "Kim", Category: "RH", Question: "one too many"})
	assert.Equal(t, code, http.StatusTooManyRequests)
}

func TestLoginLogout(t *testing.T) {
	_, srv := setupTestApp(t)
	c := newTestClient(t, srv)

	code, msg := c.errorOf(http.MethodPost, "/api/session/login", loginRequest{ID: "admin", Password: "wrong"})
	assert.Equal(t, code, http.StatusUnauthorized)
	assert.Equal(t, msg, i18n.T(i18n.English, i18n.LoginFailed))

	c.login()
	var info SessionInfo
	c.doJSON(http.MethodGet, "/api/session", nil, http.StatusOK, &info)
	assert.Equal(t, info.Admin, true)

	c.doJSON(http.MethodPost, "/api/session/logout", nil, http.StatusOK, &info)
	assert.Equal(t, info.Admin, false)
	c.doJSON(http.MethodGet, "/api/session", nil, http.StatusOK, &info)
	assert.Equal(t, info.Admin, false)
}

func TestLoginRateLimited(t *testing.T) {
	_, srv := setupTestApp(t)
	c := newTestClient(t, srv)
	for i := 0; i < 5; i++ {
		code, _ := c.errorOf(http.MethodPost, "/api/session/login", loginRequest{ID: "admin", Password: "wrong"})
		assert.Equal(t, code, http.StatusUnauthorized)
	}
	code, _ := c.errorOf(http.MethodPost, "/api/session/login", loginRequest{ID: "admin", Password: testPassword})
	assert.Equal(t, code, http.StatusTooManyRequests)
}

func TestAdminLoginForm(t *testing.T) {
	_, srv := setupTestApp(t)
	c := newTestClient(t, srv)

	res, body := c.do(http.MethodGet, "/admin/", nil)
	assert.Equal(t, res.StatusCode, http.StatusOK)
	if !strings.Contains(string(body), `action="/admin/login/"`) {
		t.Fatalf("admin page has no login form: %s", body)
	}

	form := "id=admin&password=" + testPassword + "&_csrf=" + c.csrf
	req, _ := http.NewRequest(http.MethodPost, srv.URL+"/admin/login/", strings.NewReader(form))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	res, err := c.http.Do(req)
	if err != nil {
		t.Fatalf("POST login: %v", err)
	}
	res.Body.Close()
	assert.Equal(t, res.StatusCode, http.StatusSeeOther)

	var info SessionInfo
	c.doJSON(http.MethodGet, "/api/session", nil, http.StatusOK, &info)
	assert.Equal(t, info.Admin, true)
}

func TestAdminActions(t *testing.T) {
	a, srv := setupTestApp(t)
	asker := newTestClient(t, srv)
	admin := newTestClient(t, srv)

	p := asker.submit("Laura", "RH", "When is the RH report due?")
	waitForPosts(t, a, 1)
	answer := answerRequest{Answer: "Friday", AnsweredBy: "Kim", Resolved: "Yes"}

	code, _ := asker.errorOf(http.MethodPost, "/api/posts/"+p.ID+"/answer", answer)
	assert.Equal(t, code, http.StatusForbidden)
	code, _ = asker.errorOf(http.MethodDelete, "/api/posts/"+p.ID, nil)
	assert.Equal(t, code, http.StatusForbidden)

	admin.login()
	var got PostJSON
	admin.doJSON(http.MethodPost, "/api/posts/"+p.ID+"/answer", answer, http.StatusOK, &got)
	assert.Equal(t, got.Answer, "Friday")
	assert.Equal(t, got.AnsweredBy, "Kim")
	assert.Equal(t, got.Resolved, "Yes")
	assert.Equal(t, got.CanDelete, true)

	admin.doJSON(http.MethodPost, "/api/posts/"+p.ID+"/resolution", nil, http.StatusOK, &got)
	assert.Equal(t, got.Resolved, "No")

	code, msg := admin.errorOf(http.MethodPost, "/api/posts/"+p.ID+"/answer", answerRequest{Answer: "x"})
	assert.Equal(t, code, http.StatusBadRequest)
	assert.Equal(t, msg, i18n.T(i18n.English, i18n.FieldRequired, "answeredBy"))

	code, _ = admin.errorOf(http.MethodPost, "/api/posts/missing/answer", answer)
	assert.Equal(t, code, http.StatusNotFound)

	admin.doJSON(http.MethodDelete, "/api/posts/"+p.ID, nil, http.StatusNoContent, nil)
	code, _ = admin.errorOf(http.MethodGet, "/api/posts/"+p.ID, nil)
	assert.Equal(t, code, http.StatusNotFound)
	code, _ = admin.errorOf(http.MethodDelete, "/api/posts/"+p.ID, nil)
	assert.Equal(t, code, http.StatusNotFound)
}

func TestEditPost(t *testing.T) {
	a, srv := setupTestApp(t)
	asker := newTestClient(t, srv)
	other := newTestClient(t, srv)

	p := asker.submit("Laura", "RH", "Original question")
	waitForPosts(t, a, 1)

	code, _ := other.errorOf(http.MethodPatch, "/api/posts/"+p.ID, editRequest{Category: "VV", Question: "Hijacked"})
	assert.Equal(t, code, http.StatusForbidden)

	var got PostJSON
	asker.doJSON(http.MethodPatch, "/api/posts/"+p.ID, editRequest{Category: "VV", Question: "Edited question"}, http.StatusOK, &got)
	assert.Equal(t, got.Category, "VV")
	assert.Equal(t, got.Question, "Edited question")

	code, msg := asker.errorOf(http.MethodPatch, "/api/posts/"+p.ID, editRequest{Category: "Unlisted", Question: "Edited again"})
	assert.Equal(t, code, http.StatusBadRequest)
	assert.Equal(t, msg, i18n.T(i18n.English, i18n.UnknownCategory))
}

func TestComments(t *testing.T) {
	a, srv := setupTestApp(t)
	asker := newTestClient(t, srv)
	kim := newTestClient(t, srv)
	stranger := newTestClient(t, srv)

	p := asker.submit("Laura", "RH", "Where is the handbook?")
	waitForPosts(t, a, 1)

	var top, reply CommentJSON
	kim.doJSON(http.MethodPost, "/api/posts/"+p.ID+"/comments", commentRequest{Author: "Kim", Text: "On the wiki"}, http.StatusCreated, &top)
	assert.Equal(t, top.Deletable, true)
	assert.Equal(t, top.ParentID, "")
	asker.doJSON(http.MethodPost, "/api/posts/"+p.ID+"/comments", commentRequest{Text: "Thanks!", ParentID: top.ID}, http.StatusCreated, &reply)
	assert.Equal(t, reply.Author, "Laura")
	assert.Equal(t, reply.ParentID, top.ID)

	code, msg := kim.errorOf(http.MethodPost, "/api/posts/"+p.ID+"/comments", commentRequest{Text: "nested", ParentID: reply.ID})
	assert.Equal(t, code, http.StatusBadRequest)
	assert.Equal(t, msg, i18n.T(i18n.English, i18n.InvalidParent))
	code, _ = kim.errorOf(http.MethodPost, "/api/posts/missing/comments", commentRequest{Text: "hello"})
	assert.Equal(t, code, http.StatusNotFound)

	var tree CommentsJSON
	stranger.doJSON(http.MethodGet, "/api/posts/"+p.ID+"/comments", nil, http.StatusOK, &tree)
	assert.Equal(t, tree.Count, 2)
	assert.Equal(t, len(tree.Threads), 1)
	assert.Equal(t, tree.Threads[0].Deletable, false)
	assert.Equal(t, tree.Threads[0].Replies[0].Text, "Thanks!")

	var post PostJSON
	stranger.doJSON(http.MethodGet, "/api/posts/"+p.ID, nil, http.StatusOK, &post)
	assert.Equal(t, post.AnsweredBy, "Kim")
	assert.Equal(t, post.LastCommentBy, "Laura")

	code, _ = stranger.errorOf(http.MethodDelete, "/api/posts/"+p.ID+"/comments/"+top.ID, nil)
	assert.Equal(t, code, http.StatusForbidden)

	var removed map[string]int
	kim.doJSON(http.MethodDelete, "/api/posts/"+p.ID+"/comments/"+top.ID, nil, http.StatusOK, &removed)
	assert.Equal(t, removed["removed"], 2)
	stranger.doJSON(http.MethodGet, "/api/posts/"+p.ID+"/comments", nil, http.StatusOK, &tree)
	assert.Equal(t, tree.Count, 0)
}

func TestContent(t *testing.T) {
	_, srv := setupTestApp(t)
	c := newTestClient(t, srv)

	var content map[string]json.RawMessage
	c.doJSON(http.MethodGet, "/api/content", nil, http.StatusOK, &content)
	if _, ok := content["hero"]; !ok {
		t.Fatalf("content has no hero: %v", content)
	}

	code, _ := c.errorOf(http.MethodPut, "/api/categories", categoriesRequest{Categories: []string{"A"}})
	assert.Equal(t, code, http.StatusForbidden)

	c.login()
	var cats categoriesRequest
	c.doJSON(http.MethodPut, "/api/categories", categoriesRequest{Categories: []string{" A ", "", "B", "A"}}, http.StatusOK, &cats)
	assert.Equal(t, cats.Categories, []string{"A", "B"})

	code, _ = c.errorOf(http.MethodPut, "/api/categories", categoriesRequest{Categories: []string{" "}})
	assert.Equal(t, code, http.StatusBadRequest)
	code, _ = c.errorOf(http.MethodPut, "/api/content/footer", map[string]string{"title_en": "x"})
	assert.Equal(t, code, http.StatusBadRequest)

	var hero map[string]string
	c.doJSON(http.MethodPut, "/api/content/hero", map[string]string{"title1_en": "Hi"}, http.StatusOK, &hero)
	assert.Equal(t, hero, map[string]string{"title1_en": "Hi"})

	// the new taxonomy applies to submissions
	code, _ = c.errorOf(http.MethodPost, "/api/posts", questionRequest{From: "Kim", Category: "RH", Question: "Old category"})
	assert.Equal(t, code, http.StatusBadRequest)
	c.submit("Kim", "B", "New category")
}

func TestExportCSV(t *testing.T) {
	a, srv := setupTestApp(t)
	c := newTestClient(t, srv)
	c.submit("Laura", "RH", "Exported question")
	c.submit("Kim", "VV", "Filtered out")
	waitForPosts(t, a, 2)

	res, body := c.do(http.MethodGet, "/api/posts/export.csv?category=RH", nil)
	assert.Equal(t, res.StatusCode, http.StatusOK)
	if !strings.HasPrefix(res.Header.Get("Content-Type"), "text/csv") {
		t.Fatalf("Content-Type = %q", res.Header.Get("Content-Type"))
	}
	text := string(body)
	if !strings.HasPrefix(text, "\ufeff") {
		t.Fatal("export has no BOM")
	}
	if !strings.Contains(text, "Exported question") || strings.Contains(text, "Filtered out") {
		t.Fatalf("export ignores filters: %s", text)
	}
}

func TestPages(t *testing.T) {
	a, srv := setupTestApp(t)
	c := newTestClient(t, srv)
	p := c.submit("Laura", "RH", "Rendered <question>")
	waitForPosts(t, a, 1)

	res, body := c.do(http.MethodGet, "/", nil)
	assert.Equal(t, res.StatusCode, http.StatusOK)
	if !strings.Contains(string(body), "Rendered &lt;question&gt;") {
		t.Fatalf("board page misses the post: %s", body)
	}

	res, _ = c.do(http.MethodGet, "/posts/"+p.ID+"/", nil)
	assert.Equal(t, res.StatusCode, http.StatusOK)

	res, _ = c.do(http.MethodGet, "/posts/missing/", nil)
	assert.Equal(t, res.StatusCode, http.StatusNotFound)

	res, _ = c.do(http.MethodGet, "/no-such-page/", nil)
	assert.Equal(t, res.StatusCode, http.StatusNotFound)

	res, body = c.do(http.MethodGet, "/public/board.js", nil)
	assert.Equal(t, res.StatusCode, http.StatusOK)
	if !strings.Contains(string(body), "/ws") {
		t.Fatal("board.js not served from embedded assets")
	}
}

func TestSeedSamples(t *testing.T) {
	a, _ := setupTestApp(t, func(a *App) { a.Config.SeedSamples = true })
	waitForPosts(t, a, 4)
}

func TestFeedAndSitemap(t *testing.T) {
	a, srv := setupTestApp(t)
	c := newTestClient(t, srv)
	p := c.submit("Laura", "RH", "Feed question")
	waitForPosts(t, a, 1)

	res, body := c.do(http.MethodGet, "/feed.xml", nil)
	assert.Equal(t, res.StatusCode, http.StatusOK)
	if !strings.Contains(string(body), "<title>Feed question</title>") {
		t.Fatalf("feed misses the question: %s", body)
	}
	if !strings.Contains(string(body), `xmlns:dc="http://purl.org/dc/elements/1.1/"`) ||
		!strings.Contains(string(body), "<dc:creator>Laura</dc:creator>") {
		t.Fatalf("feed misses the creator: %s", body)
	}
	if strings.Contains(string(body), "<author>") {
		t.Fatalf("feed has a non-email author: %s", body)
	}

	res, body = c.do(http.MethodGet, "/sitemap.xml", nil)
	assert.Equal(t, res.StatusCode, http.StatusOK)
	if !strings.Contains(string(body), "/posts/"+p.ID+"/</loc>") {
		t.Fatalf("sitemap misses the post: %s", body)
	}
}
