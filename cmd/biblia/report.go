package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/at-ishikawa/biblia/internal/report"
)

func newReportCommand() *cobra.Command {
	var generatePDF bool
	command := &cobra.Command{
		Use:   "report",
		Short: "Write a markdown report of the reading progress",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp(cmd.Context())
			if err != nil {
				return err
			}
			defer a.Close()

			data, err := report.Build(cmd.Context(), a.session, a.cfg.User, time.Now())
			if err != nil {
				return fmt.Errorf("report.Build() > %w", err)
			}
			tmpl, err := report.ParseTemplate(a.cfg.Templates.ReportTemplate)
			if err != nil {
				return fmt.Errorf("report.ParseTemplate() > %w", err)
			}
			path, err := report.WriteMarkdown(a.cfg.Outputs.ReportDirectory, tmpl, data)
			if err != nil {
				return fmt.Errorf("report.WriteMarkdown() > %w", err)
			}
			_, _ = fmt.Fprintf(cmd.OutOrStdout(), "Report written to %s\n", path)

			if generatePDF {
				pdfPath, err := report.ConvertMarkdownToPDF(path)
				if err != nil {
					return fmt.Errorf("report.ConvertMarkdownToPDF() > %w", err)
				}
				_, _ = fmt.Fprintf(cmd.OutOrStdout(), "PDF written to %s\n", pdfPath)
			}
			return nil
		},
	}
	command.Flags().BoolVar(&generatePDF, "pdf", false, "Generate PDF output in addition to markdown")
	return command
}
