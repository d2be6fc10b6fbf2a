package cmd

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/marcus/widgetareas/internal/api"
	"github.com/marcus/widgetareas/internal/areadb"
	"github.com/marcus/widgetareas/internal/registry"
	"github.com/marcus/widgetareas/internal/render"
	"github.com/marcus/widgetareas/internal/sidebars"
	"github.com/marcus/widgetareas/internal/widgets"
)

// Ensure the concrete collaborators satisfy the resolver at compile time.
var (
	_ sidebars.Registry         = (*registry.Registry)(nil)
	_ sidebars.AssignmentStore  = (*areadb.AreaDB)(nil)
	_ sidebars.ContentStore     = (*areadb.AreaDB)(nil)
	_ sidebars.Renderer         = (*render.Pipeline)(nil)
	_ sidebars.InstanceFilterer = (*registry.Filters)(nil)
)

// app is everything a command needs: config, store, registry and resolver.
type app struct {
	cfg      api.Config
	store    *areadb.AreaDB
	registry *registry.Registry
	resolver *sidebars.Resolver
}

// applyFlags overrides cfg with flags the user set explicitly.
func applyFlags(fs *pflag.FlagSet, cfg *api.Config) {
	fs.Visit(func(f *pflag.Flag) {
		switch f.Name {
		case "db":
			cfg.DBPath = f.Value.String()
		case "registration":
			cfg.RegistrationFile = f.Value.String()
		case "listen":
			cfg.ListenAddr = f.Value.String()
		case "log-level":
			cfg.LogLevel = f.Value.String()
		case "log-format":
			cfg.LogFormat = f.Value.String()
		}
	})
}

// openApp loads configuration, opens the store and registers sidebars and
// widgets. Defaults from the registration file are seeded on first use.
func openApp(ctx context.Context, cmd *cobra.Command) (*app, error) {
	cfg := api.LoadConfig()
	applyFlags(cmd.Flags(), &cfg)

	store, err := areadb.Open(cfg.DBPath)
	if err != nil {
		return nil, err
	}

	reg := registry.New()
	widgets.Register(reg, store)

	if cfg.RegistrationFile != "" {
		f, err := registry.LoadFile(cfg.RegistrationFile)
		if err != nil {
			store.Close()
			return nil, err
		}
		if err := f.Apply(reg); err != nil {
			store.Close()
			return nil, fmt.Errorf("%s: %w", cfg.RegistrationFile, err)
		}
		n, err := store.SeedDefaults(ctx, f.Defaults.SidebarsWidgets, f.Defaults.WidgetSettings)
		if err != nil {
			store.Close()
			return nil, fmt.Errorf("seed defaults: %w", err)
		}
		if n > 0 {
			slog.Info("seeded defaults", "options", n)
		}
	}

	return &app{
		cfg:      cfg,
		store:    store,
		registry: reg,
		resolver: sidebars.NewResolver(reg, store, store, render.Default(reg), reg.Filters),
	}, nil
}

// openStore opens only the database, for commands that never touch the
// registry.
func openStore(cmd *cobra.Command) (*areadb.AreaDB, error) {
	cfg := api.LoadConfig()
	applyFlags(cmd.Flags(), &cfg)
	return areadb.Open(cfg.DBPath)
}

func (a *app) Close() error {
	return a.store.Close()
}

// jsonOutput reports whether --json was passed.
func jsonOutput(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("json")
	return v
}
