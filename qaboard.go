// Package qaboard is a bilingual (Korean/English) question and answer
// board built with Go, Echo, and templ.
//
// Customers submit questions, admins answer and resolve them, and anyone
// may discuss a post in a two-level comment thread. Every client sees
// board changes live over a websocket; server-rendered pages serve
// clients without scripts.
package qaboard

import (
	"context"
	"io/fs"
	"net/http"
	"sync"
	"time"

	"github.com/juju/clock"
	"github.com/juju/errors"
	"github.com/labstack/echo/v4"
	"github.com/labstack/gommon/log"
	"github.com/robfig/cron/v3"

	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/cms"
	"github.com/eringen/qaboard/docstore"
	"github.com/eringen/qaboard/views"
)

// firstSnapshotWait bounds how long Init waits for the posts cache.
const firstSnapshotWait = 5 * time.Second

// App is the central application. It wires together the store, the board
// data layer, the content store, handlers, middleware and the websocket hub.
type App struct {
	Config  SiteConfig
	Echo    *echo.Echo
	Store   *docstore.Store
	Data    *board.Data
	Content *cms.Store

	logger        *log.Logger
	clock         clock.Clock
	tokens        *adminTokens
	loginLimiter  *Limiter
	submitLimiter *Limiter
	hub           *hub
	cron          *cron.Cron
	cancelPosts   board.CancelFunc
	migrations    sync.WaitGroup
	migrating     sync.Mutex
	customRoutes  []func(*App)
	staticDir     string
	initialized   bool
}

// New creates an App with the given configuration.
func New(cfg SiteConfig, opts ...Option) *App {
	cfg.setDefaults()

	e := echo.New()
	e.HideBanner = true
	a := &App{
		Config:    cfg,
		Echo:      e,
		logger:    log.New("qaboard"),
		clock:     clock.WallClock,
		staticDir: "public",
	}

	for _, opt := range opts {
		opt(a)
	}

	e.Logger = a.logger
	return a
}

// Logger returns the application logger.
func (a *App) Logger() *log.Logger {
	return a.logger
}

// Init opens the store, loads the content, subscribes the posts cache and
// sets up middleware and routes. Start calls it when it has not run yet.
func (a *App) Init(ctx context.Context) error {
	if a.initialized {
		return nil
	}
	if a.Config.AdminPassword == "" {
		return errors.NotValidf("qaboard: AdminPassword is required")
	}
	if a.Config.SessionSecret == "" {
		return errors.NotValidf("qaboard: SessionSecret is required")
	}

	store, err := docstore.Open(a.Config.DatabasePath, docstore.WithClock(a.clock))
	if err != nil {
		return errors.Annotate(err, "qaboard: init store")
	}
	a.Store = store

	a.Data = board.New(store,
		board.WithLogger(a.logger),
		board.WithClock(a.clock),
	)
	a.Content = cms.New(store, cms.WithLogger(a.logger))
	a.Content.Load(ctx)

	if a.Config.SeedSamples {
		seeded, err := a.Data.SeedIfEmpty(ctx)
		if err != nil {
			a.logger.Errorf("seed samples: %v", err)
		} else if seeded {
			a.logger.Infof("seeded sample posts")
		}
	}

	a.tokens = newAdminTokens(a.Config.SessionSecret, a.Config.AdminID, a.Config.TokenTTL, a.clock)
	a.loginLimiter = NewLimiter(a.Config.LoginLimit, time.Minute, a.clock)
	a.submitLimiter = NewLimiter(a.Config.SubmitLimit, time.Minute, a.clock)
	a.hub = newHub(a)

	// the board is served from the cache; wait for its first snapshot
	first := make(chan struct{})
	var once sync.Once
	a.cancelPosts = a.Data.Subscribe(context.Background(), func(posts []board.Post) {
		once.Do(func() { close(first) })
		a.hub.broadcastPosts()
	})
	select {
	case <-first:
	case <-time.After(firstSnapshotWait):
		a.logger.Warnf("posts cache: no snapshot after %s, serving empty board", firstSnapshotWait)
	case <-ctx.Done():
		return ctx.Err()
	}

	a.setupMiddleware()
	a.setupRoutes()
	for _, fn := range a.customRoutes {
		fn(a)
	}
	a.initialized = true
	return nil
}

// Start initializes the app when needed, starts the scheduler and serves
// until the server is shut down.
func (a *App) Start() error {
	if err := a.Init(context.Background()); err != nil {
		return err
	}
	if err := a.startScheduler(); err != nil {
		return err
	}
	if err := a.Echo.Start(a.Config.Addr); err != nil && err != http.ErrServerClosed {
		return err
	}
	return nil
}

// Shutdown stops the HTTP server gracefully.
func (a *App) Shutdown(ctx context.Context) error {
	return a.Echo.Shutdown(ctx)
}

func (a *App) setupRoutes() {
	e := a.Echo

	// Built-in assets (styles.css, board.js) are served under /public/ and
	// fall through to the site's static dir for everything else.
	embeddedFS, _ := fs.Sub(EmbeddedAssets, "embedded")
	embeddedHandler := echo.WrapHandler(http.StripPrefix("/public/", http.FileServer(http.FS(embeddedFS))))
	e.GET("/public/styles.css", embeddedHandler)
	e.GET("/public/board.js", embeddedHandler)
	e.Static("/public", a.staticDir)
	e.GET("/robots.txt", a.handleRobots)
	e.GET("/sitemap.xml", a.handleSitemap)
	e.GET("/feed.xml", a.handleFeed)

	// Pages
	e.GET("/", a.handleHome)
	e.GET("/posts/:id/", a.handlePost)
	e.GET("/admin/", a.handleAdmin)
	e.POST("/admin/login/", a.handleAdminLogin)
	e.POST("/admin/logout/", a.handleAdminLogout)

	// Session
	api := e.Group("/api")
	api.GET("/session", a.handleSession)
	api.POST("/session/login", a.handleLogin)
	api.POST("/session/logout", a.handleLogout)
	api.PUT("/session/author", a.handleSetAuthor)
	api.PUT("/session/lang", a.handleSetLang)

	// Posts
	api.GET("/posts", a.handleListPosts)
	api.GET("/posts/export.csv", a.handleExport)
	api.POST("/posts", a.handleSubmit)
	api.GET("/posts/:id", a.handleGetPost)
	api.PATCH("/posts/:id", a.handleEditPost)
	api.POST("/posts/:id/answer", a.handleAnswer)
	api.POST("/posts/:id/resolution", a.handleToggleResolution)
	api.DELETE("/posts/:id", a.handleDeletePost)

	// Comments
	api.GET("/posts/:id/comments", a.handleListComments)
	api.POST("/posts/:id/comments", a.handleAddComment)
	api.DELETE("/posts/:id/comments/:cid", a.handleDeleteComment)

	// Content
	api.GET("/content", a.handleGetContent)
	api.PUT("/content/:section", a.handlePutContent)
	api.PUT("/categories", a.handlePutCategories)

	e.GET("/ws", a.handleStream)
}

// Close cleans up resources. Call this when the app is shutting down.
// It is safe to call more than once.
func (a *App) Close() error {
	a.stopScheduler()
	if a.hub != nil {
		a.hub.close()
	}
	if a.cancelPosts != nil {
		a.cancelPosts()
	}
	a.migrations.Wait()
	if a.Data != nil {
		a.Data.Close()
	}
	if a.Store != nil {
		if err := a.Store.Close(); err != nil {
			return errors.Annotate(err, "close store")
		}
		a.Store = nil
	}
	return nil
}

func (a *App) site() views.SiteConfig {
	return views.SiteConfig{
		Name:        a.Config.Name,
		URL:         a.Config.URL,
		Description: a.Config.Description,
	}
}
