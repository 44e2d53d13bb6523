package main

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/cli"
	"github.com/at-ishikawa/biblia/internal/collection"
)

func newCollectionCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "collection",
		Short: "Show the collectible cards and which ones are unlocked",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			cards, err := a.session.Collection.Cards(cmd.Context())
			if err != nil {
				return fmt.Errorf("collection.Cards() > %w", err)
			}
			cli.PrintCards(cmd.OutOrStdout(), cards)
			return nil
		},
	}
}

func newCatalogCommand() *cobra.Command {
	catalogCommand := &cobra.Command{
		Use:   "catalog",
		Short: "Collectible catalog commands",
	}
	catalogCommand.AddCommand(newCatalogValidateCommand(), newCatalogGenerateCommand())
	return catalogCommand
}

func newCatalogValidateCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "validate",
		Short: "Check that every catalog entry unlocks at a chapter of the dataset",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			if cfg.Bible.CatalogFile == "" {
				return fmt.Errorf("no catalog file is configured")
			}
			b, err := bible.Load(cfg.Bible.DatasetFile)
			if err != nil {
				return fmt.Errorf("bible.Load() > %w", err)
			}
			catalog, err := collection.LoadCatalog(cfg.Bible.CatalogFile, b)
			if err != nil {
				return fmt.Errorf("collection.LoadCatalog() > %w", err)
			}

			out := cmd.OutOrStdout()
			malformed := catalog.Malformed()
			if len(malformed) == 0 {
				_, _ = color.New(color.FgGreen).Fprintf(out, "All %d catalog entries are valid\n", len(catalog.Entries()))
				return nil
			}
			errorColor := color.New(color.FgRed)
			for _, err := range malformed {
				_, _ = errorColor.Fprintf(out, "  %v\n", err)
			}
			return fmt.Errorf("validation failed with %d error(s)", len(malformed))
		},
	}
}

func newCatalogGenerateCommand() *cobra.Command {
	var seedsFile string
	var outFile string
	var limit int
	command := &cobra.Command{
		Use:   "generate",
		Short: "Generate a catalog with one collectible per chapter",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := loadConfig()
			if err != nil {
				return err
			}
			b, err := bible.Load(cfg.Bible.DatasetFile)
			if err != nil {
				return fmt.Errorf("bible.Load() > %w", err)
			}

			var seeds []collection.Collectible
			if seedsFile != "" {
				seedCatalog, err := collection.LoadCatalog(seedsFile, b)
				if err != nil {
					return fmt.Errorf("collection.LoadCatalog() > %w", err)
				}
				seeds = seedCatalog.Entries()
			}
			if !cmd.Flags().Changed("limit") {
				limit = cfg.Catalog.GenerateLimit
			}

			entries := collection.Generate(b, seeds, limit)
			contents, err := encodeCatalog(outFile, entries)
			if err != nil {
				return err
			}
			if outFile == "" {
				_, err := cmd.OutOrStdout().Write(contents)
				return err
			}
			if err := os.WriteFile(outFile, contents, 0644); err != nil {
				return fmt.Errorf("os.WriteFile(%s) > %w", outFile, err)
			}
			_, _ = fmt.Fprintf(cmd.ErrOrStderr(), "%d collectibles written to %s\n", len(entries), outFile)
			return nil
		},
	}
	command.Flags().StringVar(&seedsFile, "seeds", "", "catalog whose entries are kept for their chapters")
	command.Flags().StringVar(&outFile, "out", "", "output file (.json, .yml or .yaml); standard output when empty")
	command.Flags().IntVar(&limit, "limit", 0, "maximum number of collectibles; defaults to catalog.generate_limit")
	return command
}

func encodeCatalog(path string, entries []collection.Collectible) ([]byte, error) {
	switch strings.ToLower(filepath.Ext(path)) {
	case ".yml", ".yaml":
		contents, err := yaml.Marshal(entries)
		if err != nil {
			return nil, fmt.Errorf("yaml.Marshal() > %w", err)
		}
		return contents, nil
	}
	contents, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("json.MarshalIndent() > %w", err)
	}
	return append(contents, '\n'), nil
}
