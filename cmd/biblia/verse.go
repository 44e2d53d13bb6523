package main

import (
	"fmt"
	"strings"

	"github.com/fatih/color"
	"github.com/spf13/cobra"
	"github.com/spf13/pflag"

	"github.com/at-ishikawa/biblia/internal/prayer"
)

type ColorFlag string

// Set implements pflag.Value.
func (c *ColorFlag) Set(v string) error {
	for _, valid := range highlightColors {
		if ColorFlag(v) == valid {
			*c = valid
			return nil
		}
	}
	names := make([]string, 0, len(highlightColors))
	for _, valid := range highlightColors {
		names = append(names, string(valid))
	}
	return fmt.Errorf("invalid value %q, valid values are %s", v, strings.Join(names, ", "))
}

// String implements pflag.Value.
func (c *ColorFlag) String() string {
	if c == nil {
		return ""
	}
	return string(*c)
}

// Type implements pflag.Value.
func (c *ColorFlag) Type() string {
	return "ColorFlag"
}

var (
	_ pflag.Value = (*ColorFlag)(nil)
)

const (
	ColorYellow ColorFlag = "yellow"
	ColorGreen  ColorFlag = "green"
	ColorBlue   ColorFlag = "blue"
	ColorPink   ColorFlag = "pink"
)

var highlightColors = []ColorFlag{ColorYellow, ColorGreen, ColorBlue, ColorPink}

func newVerseCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "verse <book> <chapter> <verse>",
		Short: "Show a verse with its highlight, note and prayer",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ref, err := verseArg(a.session.Bible, args)
			if err != nil {
				return err
			}
			view, err := a.session.Verse(cmd.Context(), ref)
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			_, _ = color.New(color.Bold).Fprintf(out, "%s\n", view.Ref)
			_, _ = fmt.Fprintf(out, "%s\n", view.Text)
			if view.Highlight != "" {
				_, _ = fmt.Fprintf(out, "Highlight: %s\n", view.Highlight)
			}
			if view.Note != "" {
				_, _ = fmt.Fprintf(out, "Note: %s\n", view.Note)
			}
			if view.Prayer != prayer.Idle {
				_, _ = fmt.Fprintf(out, "Prayer: %s\n", view.Prayer)
			}
			_, _ = fmt.Fprintf(out, "Share: %s\n", view.Share)
			return nil
		},
	}
}

func newHighlightCommand() *cobra.Command {
	colorFlag := ColorYellow
	command := &cobra.Command{
		Use:   "highlight <book> <chapter> <verse>",
		Short: "Highlight a verse. Applying the same color again removes it",
		Args:  cobra.ExactArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ref, err := verseArg(a.session.Bible, args)
			if err != nil {
				return err
			}
			current, err := a.session.Annotations.SetHighlight(cmd.Context(), ref, string(colorFlag))
			if err != nil {
				return fmt.Errorf("annotations.SetHighlight() > %w", err)
			}
			if current == "" {
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Highlight removed from %s\n", ref)
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s highlighted in %s\n", ref, current)
			return nil
		},
	}
	command.Flags().Var(&colorFlag, "color", "Highlight color. Options: yellow, green, blue, pink")
	return command
}

func newNoteCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "note <book> <chapter> <verse> <text>",
		Short: "Save a note on a verse. An empty text clears it",
		Args:  cobra.MinimumNArgs(3),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ref, err := verseArg(a.session.Bible, args)
			if err != nil {
				return err
			}
			text := strings.Join(args[3:], " ")
			if err := a.session.Annotations.SetNote(cmd.Context(), ref, text); err != nil {
				return fmt.Errorf("annotations.SetNote() > %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Note saved for %s\n", ref)
			return nil
		},
	}
}
