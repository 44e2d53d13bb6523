// Package report renders a reader's progress as markdown and PDF.
package report

import (
	"context"
	_ "embed"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"text/template"
	"time"

	"github.com/mandolyte/mdtopdf"

	"github.com/at-ishikawa/biblia/internal/collection"
	"github.com/at-ishikawa/biblia/internal/progress"
	"github.com/at-ishikawa/biblia/internal/session"
)

const FileName = "reading-report.md"

//go:embed templates/report.md.go.tmpl
var fallbackReportTemplate string

type BookRow struct {
	Name              string
	Completed         bool
	Date              string
	CompletedChapters int
	TotalChapters     int
}

type ChapterRow struct {
	Ref       string
	Completed bool
	Date      string
}

type Data struct {
	User              string
	GeneratedAt       string
	Books             []BookRow
	Chapters          []ChapterRow
	Collection        []collection.Collectible
	CompletedChapters int
	TotalChapters     int
	CompletedBooks    int
	CatalogSize       int
}

func dateOf(record progress.ReadingProgress) string {
	if record.Date == nil {
		return ""
	}
	return *record.Date
}

// Build gathers the report data from a session. Chapters without any
// completion record are left out of the chapter list.
func Build(ctx context.Context, s *session.Session, user string, now time.Time) (Data, error) {
	books, err := s.Tracker.Books(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("tracker.Books() > %w", err)
	}
	chapters, err := s.Tracker.Chapters(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("tracker.Chapters() > %w", err)
	}
	collected, err := s.Collection.Collection(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("collection.Collection() > %w", err)
	}
	cards, err := s.Collection.Cards(ctx)
	if err != nil {
		return Data{}, fmt.Errorf("collection.Cards() > %w", err)
	}

	data := Data{
		User:        user,
		GeneratedAt: now.Format(progress.DateLayout),
		Collection:  collected,
		CatalogSize: len(cards),
	}
	for _, book := range s.Bible.Books {
		row := BookRow{
			Name:          book.Name,
			Completed:     books[book.Name].Completed,
			Date:          dateOf(books[book.Name]),
			TotalChapters: len(book.Chapters),
		}
		if row.Completed {
			data.CompletedBooks++
		}
		for _, chapter := range book.Chapters {
			key := fmt.Sprintf("%s_%d", book.Name, chapter.Chapter)
			record, ok := chapters[key]
			data.TotalChapters++
			if !ok {
				continue
			}
			if record.Completed {
				row.CompletedChapters++
				data.CompletedChapters++
			}
			data.Chapters = append(data.Chapters, ChapterRow{
				Ref:       fmt.Sprintf("%s %d", book.Name, chapter.Chapter),
				Completed: record.Completed,
				Date:      dateOf(record),
			})
		}
		data.Books = append(data.Books, row)
	}
	return data, nil
}

// ParseTemplate parses templatePath, falling back to the embedded report
// template when the path is empty or cannot be parsed.
func ParseTemplate(templatePath string) (*template.Template, error) {
	funcMap := template.FuncMap{
		"join": strings.Join,
	}

	if templatePath != "" {
		if _, err := os.Stat(templatePath); err == nil {
			tmpl, err := template.New(filepath.Base(templatePath)).
				Funcs(funcMap).
				ParseFiles(templatePath)
			if err == nil {
				return tmpl, nil
			}
			slog.Default().Warn("failed to parse a templatePath",
				slog.String("templatePath", templatePath),
				slog.Any("error", err),
			)
		}
	}

	tmpl, err := template.New("report.md.go.tmpl").
		Funcs(funcMap).
		Parse(fallbackReportTemplate)
	if err != nil {
		return nil, fmt.Errorf("failed to parse embedded template: %w", err)
	}
	return tmpl, nil
}

// WriteMarkdown renders data into outputDir/reading-report.md and returns the path.
func WriteMarkdown(outputDir string, tmpl *template.Template, data Data) (string, error) {
	if err := os.MkdirAll(outputDir, 0755); err != nil {
		return "", fmt.Errorf("os.MkdirAll(%s) > %w", outputDir, err)
	}
	path := filepath.Join(outputDir, FileName)
	file, err := os.Create(path)
	if err != nil {
		return "", fmt.Errorf("os.Create(%s) > %w", path, err)
	}
	defer func() {
		_ = file.Close()
	}()

	if err := tmpl.Execute(file, data); err != nil {
		return "", fmt.Errorf("tmpl.Execute() > %w", err)
	}
	return path, nil
}

// ConvertMarkdownToPDF converts a markdown file to PDF using mdtopdf package
// The PDF file will be created in the same directory as the markdown file
func ConvertMarkdownToPDF(markdownPath string) (string, error) {
	if !strings.HasSuffix(markdownPath, ".md") {
		return "", fmt.Errorf("input file must have .md extension: %s", markdownPath)
	}

	content, err := os.ReadFile(markdownPath)
	if err != nil {
		return "", fmt.Errorf("os.ReadFile(%s) > %w", markdownPath, err)
	}

	pdfPath := strings.TrimSuffix(markdownPath, ".md") + ".pdf"
	renderer := mdtopdf.NewPdfRenderer("P", "A4", pdfPath, "", nil, mdtopdf.LIGHT)
	if err := renderer.Process(content); err != nil {
		return "", fmt.Errorf("renderer.Process() > %w", err)
	}

	absPath, err := filepath.Abs(pdfPath)
	if err != nil {
		return pdfPath, nil
	}
	return absPath, nil
}
