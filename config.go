package qaboard

import (
	"time"

	"github.com/juju/clock"

	"github.com/eringen/qaboard/i18n"
)

// SiteConfig holds all configuration for a Q&A board deployment.
type SiteConfig struct {
	Name        string // Site name (default "Q&A Board")
	URL         string // Canonical URL (default "http://localhost:3000")
	Description string // Site description for meta tags

	Addr         string // Listen address (default ":3000")
	DatabasePath string // SQLite path (default "data/qaboard.db")

	AdminID       string        // Admin login id (default "admin")
	AdminPassword string        // Required: admin login password
	SessionSecret string        // Required: session encryption and token signing secret
	TokenTTL      time.Duration // Admin capability token lifetime (default 12h)
	CookieSecure  bool          // Set true for HTTPS

	DefaultLang string // "ko" or "en" (default "ko")
	SeedSamples bool   // Write the sample posts into an empty board on start

	LoginLimit  int // Login attempts per IP per minute (default 5)
	SubmitLimit int // Question submissions per IP per minute (default 10)
}

func (c *SiteConfig) setDefaults() {
	if c.Name == "" {
		c.Name = "Q&A Board"
	}
	if c.URL == "" {
		c.URL = "http://localhost:3000"
	}
	if c.Addr == "" {
		c.Addr = ":3000"
	}
	if c.DatabasePath == "" {
		c.DatabasePath = "data/qaboard.db"
	}
	if c.AdminID == "" {
		c.AdminID = "admin"
	}
	if c.TokenTTL == 0 {
		c.TokenTTL = 12 * time.Hour
	}
	if _, ok := i18n.Parse(c.DefaultLang); !ok {
		c.DefaultLang = string(i18n.Default)
	}
	if c.LoginLimit == 0 {
		c.LoginLimit = 5
	}
	if c.SubmitLimit == 0 {
		c.SubmitLimit = 10
	}
}

// Option configures additional App behavior.
type Option func(*App)

// WithCustomRoutes registers additional routes on the Echo instance.
// The callback receives the App after the built-in routes are set up.
func WithCustomRoutes(fn func(*App)) Option {
	return func(a *App) {
		a.customRoutes = append(a.customRoutes, fn)
	}
}

// WithStaticDir sets the directory for site-owned static assets (default "public").
func WithStaticDir(dir string) Option {
	return func(a *App) {
		a.staticDir = dir
	}
}

// WithClock sets the time source of the limiters, tokens and store.
func WithClock(c clock.Clock) Option {
	return func(a *App) {
		a.clock = c
	}
}
