package main

import (
	"context"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/labstack/gommon/log"
	"github.com/spf13/cobra"

	"github.com/eringen/qaboard"
)

var staticDir string

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Serve the board over HTTP",
	RunE: func(cmd *cobra.Command, args []string) error {
		app := qaboard.New(cfg, qaboard.WithStaticDir(staticDir))
		logger := app.Logger()
		if verbose {
			logger.SetLevel(log.DEBUG)
		}
		defer app.Close()

		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		errCh := make(chan error, 1)
		go func() {
			errCh <- app.Start()
		}()
		logger.Infof("serving %s on %s", cfg.Name, cfg.Addr)

		select {
		case err := <-errCh:
			return err
		case <-ctx.Done():
		}
		logger.Infof("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
		defer cancel()
		return app.Shutdown(shutdownCtx)
	},
}

func init() {
	serveCmd.Flags().StringVar(&staticDir, "static", "public", "directory of site-owned static assets")
}
