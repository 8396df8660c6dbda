package controller

import (
	"bytes"
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/olekukonko/tablewriter"
	"github.com/spf13/cobra"

	m "scadtest.dev/pkg/scadtest/internal/model"
)

// SimpleUI implements UI using cobra Command's output stream.
type SimpleUI struct {
	cmd *cobra.Command
}

// NewSimpleUI creates a new SimpleUI.
func NewSimpleUI(cmd *cobra.Command) *SimpleUI {
	return &SimpleUI{cmd: cmd}
}

// Start initializes the UI.
func (s *SimpleUI) Start(ctx context.Context, _ ...StartOption) error {
	return ctx.Err()
}

// Close finalizes the UI.
func (s *SimpleUI) Close(_ context.Context) {}

// DisplaySuite prints the test cases of a suite as a table.
func (s *SimpleUI) DisplaySuite(ctx context.Context, cases []m.TestCase) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("%s", renderSuiteTable(cases))

	return nil
}

// DisplayRunInfo shows how many tests run and on how many workers.
func (s *SimpleUI) DisplayRunInfo(ctx context.Context, total int, threads int) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Running %d test(s) with %d worker(s)\n", total, threads)
}

// DisplayStartingTest shows that a test started.
func (s *SimpleUI) DisplayStartingTest(ctx context.Context, tc m.TestCase) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Starting %s (%s)\n", tc.ID, tc.Target())
}

// DisplayCompletedTest shows the outcome of a test and why it failed.
func (s *SimpleUI) DisplayCompletedTest(ctx context.Context, report m.Report) {
	if ctx.Err() != nil {
		return
	}

	status := string(report.Outcome)
	if report.Updated {
		status = "updated"
	}

	s.printf("Completed %s -> %s (%s)\n", report.TestID, status, formatDuration(report.Duration))

	if report.Error != "" {
		s.printf("%s\n", report.Error)
	}

	if report.ScratchDir != "" {
		s.printf("Scratch files kept in %s\n", report.ScratchDir)
	}
}

// DisplayReports prints the summary table and the pass rate.
func (s *SimpleUI) DisplayReports(ctx context.Context, reports []m.Report) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.printf("\n%s", renderReportsTable(reports))
	s.printf("Pass rate: %.2f%%\n", m.PassRate(reports)*100)

	return nil
}

// DisplayBatchResult shows the outcome of one batch render.
func (s *SimpleUI) DisplayBatchResult(ctx context.Context, result m.BatchResult) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s\n", formatBatchResult(result))
}

// DisplayChange announces a rerun triggered by a file change.
func (s *SimpleUI) DisplayChange(ctx context.Context, path m.Path) {
	if ctx.Err() != nil {
		return
	}

	s.printf("Change detected in %s, rerunning\n", path)
}

// DisplayText prints free-form command output.
func (s *SimpleUI) DisplayText(ctx context.Context, text string) {
	if ctx.Err() != nil {
		return
	}

	s.printf("%s\n", strings.TrimRight(text, "\n"))
}

func (s *SimpleUI) printf(format string, args ...any) {
	_, _ = fmt.Fprintf(s.cmd.OutOrStdout(), format, args...)
}

func renderSuiteTable(cases []m.TestCase) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Test", "Kind", "Target"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_LEFT})

	for _, tc := range cases {
		table.Append([]string{tc.ID, string(tc.Kind), tc.Target()})
	}

	table.SetFooter([]string{fmt.Sprintf("Total Tests %d", len(cases)), "", ""})
	table.Render()

	return tableBuffer.String()
}

func renderReportsTable(reports []m.Report) string {
	var tableBuffer bytes.Buffer

	table := tablewriter.NewWriter(&tableBuffer)
	table.SetHeader([]string{"Test", "Kind", "Outcome", "Duration"})
	table.SetBorder(false)
	table.SetCenterSeparator("")
	table.SetColumnAlignment([]int{tablewriter.ALIGN_LEFT, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_CENTER, tablewriter.ALIGN_RIGHT})

	passed := 0

	for _, report := range reports {
		if report.Passed() {
			passed++
		}

		table.Append([]string{report.TestID, string(report.Kind), string(report.Outcome), formatDuration(report.Duration)})
	}

	table.SetFooter([]string{
		fmt.Sprintf("Total Tests %d", len(reports)),
		"",
		fmt.Sprintf("%d passed", passed),
		"",
	})
	table.Render()

	return tableBuffer.String()
}

func formatBatchResult(result m.BatchResult) string {
	switch {
	case result.Err != nil:
		return fmt.Sprintf("failed  %s: %v", result.Output, result.Err)
	case result.Skipped:
		return fmt.Sprintf("skipped %s (exists)", result.Output)
	}

	return fmt.Sprintf("-> %s", result.Output)
}

func formatDuration(d time.Duration) string {
	return d.Round(time.Millisecond).String()
}
