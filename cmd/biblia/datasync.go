package main

import (
	"fmt"
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/config"
	"github.com/at-ishikawa/biblia/internal/datasync"
	"github.com/at-ishikawa/biblia/internal/storage"
)

func newMigrateCommand() *cobra.Command {
	var targetConfigFile string
	var dryRun bool
	var updateExisting bool

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "Copy reading data from the configured storage into the storage of another config file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()

			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			targetLoader, err := config.NewConfigLoader(targetConfigFile)
			if err != nil {
				return fmt.Errorf("config.NewConfigLoader() > %w", err)
			}
			targetCfg, err := targetLoader.Load()
			if err != nil {
				return fmt.Errorf("targetLoader.Load() > %w", err)
			}

			b, err := bible.Load(cfg.Bible.DatasetFile)
			if err != nil {
				return fmt.Errorf("bible.Load() > %w", err)
			}

			// A migration into process memory would report success without
			// copying anything, so both stores must fail loudly.
			sourceCfg := cfg.Storage
			sourceCfg.FallbackToMemory = false
			destinationCfg := targetCfg.Storage
			destinationCfg.FallbackToMemory = false

			source, err := storage.Open(ctx, sourceCfg)
			if err != nil {
				return fmt.Errorf("storage.Open(source) > %w", err)
			}
			defer func() {
				if err := source.Close(); err != nil {
					slog.Default().Warn("failed to close source storage", slog.Any("error", err))
				}
			}()
			destination, err := storage.Open(ctx, destinationCfg)
			if err != nil {
				return fmt.Errorf("storage.Open(destination) > %w", err)
			}
			defer func() {
				if err := destination.Close(); err != nil {
					slog.Default().Warn("failed to close destination storage", slog.Any("error", err))
				}
			}()

			out := cmd.OutOrStdout()
			importer := datasync.NewImporter(source, destination, out)
			opts := datasync.ImportOptions{
				DryRun:         dryRun,
				UpdateExisting: updateExisting,
			}
			result, err := importer.Import(ctx, datasync.KnownKeys(b, cfg.User), opts)
			if err != nil {
				return fmt.Errorf("importer.Import() > %w", err)
			}

			_, _ = fmt.Fprintln(out, "\nMigration Summary:")
			if opts.DryRun {
				_, _ = fmt.Fprintln(out, "  (dry-run mode, no changes made)")
			}
			_, _ = fmt.Fprintf(out, "  Keys: %d new, %d skipped, %d updated, %d unchanged\n",
				result.New, result.Skipped, result.Updated, result.Unchanged)
			return nil
		},
	}

	cmd.Flags().StringVar(&targetConfigFile, "target-config", "", "config file whose storage section receives the data")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Preview changes without modifying the destination storage")
	cmd.Flags().BoolVar(&updateExisting, "update-existing", false, "Overwrite keys that already exist in the destination")
	_ = cmd.MarkFlagRequired("target-config")
	return cmd
}
