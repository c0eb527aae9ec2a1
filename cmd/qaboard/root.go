package main

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/juju/errors"
	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/eringen/qaboard"
	"github.com/eringen/qaboard/board"
	"github.com/eringen/qaboard/cms"
	"github.com/eringen/qaboard/docstore"
)

// version is set at build time via ldflags.
var version = "dev"

var (
	cfgFile string
	cfg     qaboard.SiteConfig
	verbose bool
)

var rootCmd = &cobra.Command{
	Use:     "qaboard",
	Short:   "qaboard - a bilingual Q&A board",
	Version: version,
	Long: `qaboard serves a Korean/English question and answer board with live
updates, comment threads and an editable content section.

Configuration is read from ./config.yaml (or --config), then from
QABOARD_* environment variables, which may be put in a .env file.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		return initializeConfig()
	},
}

// Execute runs the root command.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./config.yaml)")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "log debug output")
	rootCmd.AddCommand(serveCmd, seedCmd, migrateCmd, exportCmd, postsCmd)
}

func initializeConfig() error {
	// a missing .env is normal outside development
	_ = godotenv.Load()

	v := viper.New()
	v.SetDefault("name", "Q&A Board")
	v.SetDefault("url", "http://localhost:3000")
	v.SetDefault("description", "")
	v.SetDefault("addr", ":3000")
	v.SetDefault("database", "data/qaboard.db")
	v.SetDefault("admin.id", "admin")
	v.SetDefault("admin.password", "")
	v.SetDefault("session.secret", "")
	v.SetDefault("session.ttl", 12*time.Hour)
	v.SetDefault("cookie.secure", false)
	v.SetDefault("lang", "ko")
	v.SetDefault("seed", false)
	v.SetDefault("limits.login", 5)
	v.SetDefault("limits.submit", 10)

	if cfgFile != "" {
		v.SetConfigFile(cfgFile)
	} else {
		v.AddConfigPath(".")
		v.SetConfigName("config")
		v.SetConfigType("yaml")
	}

	v.SetEnvPrefix("QABOARD")
	v.AutomaticEnv()
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok || cfgFile != "" {
			return errors.Annotate(err, "read config")
		}
	}

	cfg = qaboard.SiteConfig{
		Name:          v.GetString("name"),
		URL:           v.GetString("url"),
		Description:   v.GetString("description"),
		Addr:          v.GetString("addr"),
		DatabasePath:  v.GetString("database"),
		AdminID:       v.GetString("admin.id"),
		AdminPassword: v.GetString("admin.password"),
		SessionSecret: v.GetString("session.secret"),
		TokenTTL:      v.GetDuration("session.ttl"),
		CookieSecure:  v.GetBool("cookie.secure"),
		DefaultLang:   v.GetString("lang"),
		SeedSamples:   v.GetBool("seed"),
		LoginLimit:    v.GetInt("limits.login"),
		SubmitLimit:   v.GetInt("limits.submit"),
	}
	return nil
}

func newLogger() *log.Logger {
	l := log.New("qaboard")
	if verbose {
		l.SetLevel(log.DEBUG)
	} else {
		l.SetLevel(log.INFO)
	}
	return l
}

// openData opens the store and the board data layer without the HTTP
// stack. The returned close func releases both.
func openData(ctx context.Context) (*docstore.Store, *board.Data, *cms.Store, func(), error) {
	store, err := docstore.Open(cfg.DatabasePath)
	if err != nil {
		return nil, nil, nil, nil, errors.Annotatef(err, "open %s", cfg.DatabasePath)
	}
	logger := newLogger()
	data := board.New(store, board.WithLogger(logger))
	content := cms.New(store, cms.WithLogger(logger))
	content.Load(ctx)
	closeFn := func() {
		data.Close()
		if err := store.Close(); err != nil {
			logger.Errorf("close store: %v", err)
		}
	}
	return store, data, content, closeFn, nil
}

func criteriaFlags(cmd *cobra.Command, c *board.Criteria) {
	cmd.Flags().StringVarP(&c.Search, "query", "q", "", "substring of question, answer, author or category")
	cmd.Flags().StringVar(&c.Category, "category", "", "exact category (case-insensitive)")
	cmd.Flags().StringVar(&c.Status, "status", "", `resolution status, "Yes" or "No"`)
	cmd.Flags().StringVar(&c.Answerer, "answerer", "", "substring of the answerer name")
}
