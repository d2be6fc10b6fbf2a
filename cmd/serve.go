package cmd

import (
	"context"
	"io"
	"log/slog"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/marcus/widgetareas/internal/api"
)

var serveCmd = &cobra.Command{
	Use:     "serve",
	Short:   "Run the widget areas HTTP API",
	GroupID: "system",
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		cfg := api.LoadConfig()
		applyFlags(cmd.Flags(), &cfg)
		slog.SetDefault(newLogger(os.Stderr, cfg.LogLevel, cfg.LogFormat))

		a, err := openApp(ctx, cmd)
		if err != nil {
			slog.Error("open", "err", err)
			return err
		}
		defer a.Close()

		srv, err := api.NewServer(a.cfg, a.store, a.resolver)
		if err != nil {
			slog.Error("create server", "err", err)
			return err
		}

		if err := srv.Start(); err != nil {
			slog.Error("start server", "err", err)
			return err
		}
		slog.Info("server started", "addr", a.cfg.ListenAddr, "sidebars", len(a.registry.SidebarIDs()))

		<-ctx.Done()
		slog.Info("shutting down")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), a.cfg.ShutdownTimeout)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("shutdown", "err", err)
			return err
		}
		return nil
	},
}

// newLogger builds the process logger from level and format names.
// Unknown levels fall back to info, unknown formats to JSON.
func newLogger(w io.Writer, levelName, format string) *slog.Logger {
	var level slog.Level
	switch strings.ToLower(levelName) {
	case "debug":
		level = slog.LevelDebug
	case "warn":
		level = slog.LevelWarn
	case "error":
		level = slog.LevelError
	default:
		level = slog.LevelInfo
	}

	opts := &slog.HandlerOptions{Level: level}
	var handler slog.Handler
	if strings.ToLower(format) == "text" {
		handler = slog.NewTextHandler(w, opts)
	} else {
		handler = slog.NewJSONHandler(w, opts)
	}
	return slog.New(handler)
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().String("listen", "", "listen address (default: $WA_LISTEN_ADDR or :8080)")
	serveCmd.Flags().String("log-level", "", "debug, info, warn or error (default: $WA_LOG_LEVEL or info)")
	serveCmd.Flags().String("log-format", "", "json or text (default: $WA_LOG_FORMAT or json)")
}
