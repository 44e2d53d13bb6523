package main

import (
	"fmt"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/at-ishikawa/biblia/internal/bible"
	"github.com/at-ishikawa/biblia/internal/cli"
)

func newReadCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "read <book> <chapter>",
		Short: "Read a chapter verse by verse and complete it at the end",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			ref, err := chapterArg(a.session.Bible, args)
			if err != nil {
				return err
			}
			reader, err := cli.NewChapterReaderCLI(a.session, ref, cmd.InOrStdin(), cmd.OutOrStdout(), nil)
			if err != nil {
				return err
			}
			return reader.Run(cmd.Context(), reader)
		},
	}
}

func newChapterCommand() *cobra.Command {
	chapterCommand := &cobra.Command{
		Use:   "chapter",
		Short: "Chapter completion commands",
	}

	var read string
	toggleCommand := &cobra.Command{
		Use:   "toggle <book> <chapter>",
		Short: "Complete an eligible chapter, or un-complete a completed one",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			b := a.session.Bible
			ref, err := chapterArg(b, args)
			if err != nil {
				return err
			}
			if read != "" {
				chapter, err := b.Chapter(ref)
				if err != nil {
					return err
				}
				verses, err := parseVerseRanges(read, chapter)
				if err != nil {
					return err
				}
				if err := a.session.Tracker.OpenChapter(ref); err != nil {
					return err
				}
				for _, verse := range verses {
					if err := a.session.Tracker.MarkVerseRead(bible.VerseRef{Book: ref.Book, Chapter: ref.Chapter, Verse: verse}); err != nil {
						return fmt.Errorf("tracker.MarkVerseRead() > %w", err)
					}
				}
			}

			result, err := a.session.Tracker.ToggleChapterCompletion(cmd.Context(), ref)
			if err != nil {
				return fmt.Errorf("tracker.ToggleChapterCompletion() > %w", err)
			}
			out := cmd.OutOrStdout()
			if result.Progress.Completed {
				_, _ = color.New(color.FgGreen).Fprintf(out, "%s completed on %s\n", ref, dateOf(result.Progress.Date))
			} else {
				_, _ = fmt.Fprintf(out, "%s marked as not completed\n", ref)
			}
			if result.Unlocked != nil {
				cli.PrintUnlocked(out, *result.Unlocked)
			}
			return nil
		},
	}
	toggleCommand.Flags().StringVar(&read, "read", "", `verses read before toggling, e.g. "1-3,5" or "all"`)

	chapterCommand.AddCommand(toggleCommand)
	return chapterCommand
}

func newBookCommand() *cobra.Command {
	bookCommand := &cobra.Command{
		Use:   "book",
		Short: "Book completion commands",
	}
	bookCommand.AddCommand(&cobra.Command{
		Use:   "toggle <book>",
		Short: "Flip the completion of a book",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			book, err := a.session.Bible.ResolveBook(args[0])
			if err != nil {
				return err
			}
			result, err := a.session.Tracker.ToggleBookCompletion(cmd.Context(), book)
			if err != nil {
				return fmt.Errorf("tracker.ToggleBookCompletion() > %w", err)
			}
			if result.Progress.Completed {
				_, _ = color.New(color.FgGreen).Fprintf(cmd.OutOrStdout(), "%s completed on %s\n", book, dateOf(result.Progress.Date))
				return nil
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "%s marked as not completed\n", book)
			return nil
		},
	})
	return bookCommand
}

func newProgressCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "progress",
		Short: "List completed books and chapters",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			books, err := a.session.Tracker.Books(cmd.Context())
			if err != nil {
				return err
			}
			chapters, err := a.session.Tracker.Chapters(cmd.Context())
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			bold := color.New(color.Bold)
			for _, book := range a.session.Bible.Books {
				completed := 0
				var lines []string
				for _, chapter := range book.Chapters {
					ref := bible.ChapterRef{Book: book.Name, Chapter: chapter.Chapter}
					record, ok := chapters[ref.Key()]
					if !ok {
						continue
					}
					if record.Completed {
						completed++
						lines = append(lines, fmt.Sprintf("  [x] %s %s\n", ref, dateOf(record.Date)))
					} else {
						lines = append(lines, fmt.Sprintf("  [ ] %s (last completed %s)\n", ref, dateOf(record.Date)))
					}
				}
				record, ok := books[book.Name]
				if !ok && len(lines) == 0 {
					continue
				}

				mark := " "
				if record.Completed {
					mark = "x"
				}
				_, _ = bold.Fprintf(out, "[%s] %s", mark, book.Name)
				_, _ = fmt.Fprintf(out, " %d/%d chapters\n", completed, len(book.Chapters))
				for _, line := range lines {
					_, _ = fmt.Fprint(out, line)
				}
			}
			return nil
		},
	}
}

func dateOf(date *string) string {
	if date == nil {
		return "-"
	}
	return *date
}
