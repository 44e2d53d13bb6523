package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/bootstrap"
	"github.com/at-ishikawa/biblia/internal/collection"
	"github.com/at-ishikawa/biblia/internal/config"
	"github.com/at-ishikawa/biblia/internal/server"
	"github.com/at-ishikawa/biblia/internal/session"
	"github.com/at-ishikawa/biblia/internal/storage"
)

var configFile string

func main() {
	if err := godotenv.Load(); err != nil && !os.IsNotExist(err) {
		fmt.Fprintf(os.Stderr, "failed to load .env: %v\n", err)
	}

	var debugMode bool
	rootCmd := &cobra.Command{
		Use:           "biblia-server",
		Short:         "Bible reading progress HTTP server",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			setupLogger(debugMode)
			return run(cmd.Context())
		},
	}
	rootCmd.Flags().StringVar(&configFile, "config", "", "config file path")
	rootCmd.Flags().BoolVar(&debugMode, "debug", false, "Enable debug mode")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "error: %v\n", err)
		os.Exit(1)
	}
}

func setupLogger(debugMode bool) {
	logLevel := slog.LevelInfo
	if debugMode {
		logLevel = slog.LevelDebug
	}
	slog.SetDefault(slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: logLevel})))
}

func run(ctx context.Context) error {
	app := bootstrap.New()

	cfg, err := loadConfig()
	if err != nil {
		return fmt.Errorf("loadConfig() > %w", err)
	}
	b, err := bible.Load(cfg.Bible.DatasetFile)
	if err != nil {
		return fmt.Errorf("bible.Load() > %w", err)
	}
	catalog := collection.NewCatalog(nil, b)
	if cfg.Bible.CatalogFile != "" {
		if catalog, err = collection.LoadCatalog(cfg.Bible.CatalogFile, b); err != nil {
			return fmt.Errorf("collection.LoadCatalog() > %w", err)
		}
		for _, malformed := range catalog.Malformed() {
			slog.Default().Warn("skipping catalog entry", slog.Any("error", malformed))
		}
	}

	store, err := storage.Open(ctx, cfg.Storage)
	if err != nil {
		return fmt.Errorf("storage.Open() > %w", err)
	}
	app.AddShutdownHook("storage", func(context.Context) error {
		return store.Close()
	})

	srv := server.NewServer(b, catalog, store, cfg.Server, session.Options{
		MinDwell: cfg.Reading.MinDwell,
		Bitrate:  cfg.Prayers.Bitrate,
		Listeners: []collection.Listener{
			collection.ListenerFunc(func(_ context.Context, c collection.Collectible) {
				slog.Default().Info("collectible unlocked",
					slog.String("name", c.Name),
					slog.String("chapter", c.Chapter),
				)
			}),
		},
	})
	httpServer := srv.HTTPServer(h2c.NewHandler(srv.Handler(), &http2.Server{}))
	app.AddShutdownHook("http", httpServer.Shutdown)

	return app.Run(ctx, func(ctx context.Context) error {
		slog.Default().Info("starting server", slog.String("addr", httpServer.Addr))
		if err := httpServer.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return err
		}
		return nil
	})
}

func loadConfig() (*config.Config, error) {
	loader, err := config.NewConfigLoader(configFile)
	if err != nil {
		return nil, fmt.Errorf("config.NewConfigLoader() > %w", err)
	}
	return loader.Load()
}
