package cli

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"os/signal"
	"time"

	"github.com/alpkeskin/gotoon"
	"github.com/spf13/cobra"

	"github.com/javanhut/cvs/internal/colors"
	"github.com/javanhut/cvs/internal/repo"
	"github.com/javanhut/cvs/internal/watcher"
)

var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the working tree status",
	Long: `Shows the current branch and every file that is new, modified, deleted,
unchanged or untracked relative to the branch's last commit.

Examples:
  cvs status                  # Human readable
  cvs status --format json    # Machine readable
  cvs status --watch          # Re-render whenever the working tree changes`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

var (
	statusFormat string
	statusWatch  bool
)

const watchDebounce = 200 * time.Millisecond

func init() {
	statusCmd.Flags().StringVar(&statusFormat, "format", "text", "Output format: text, json or toon")
	statusCmd.Flags().BoolVar(&statusWatch, "watch", false, "Keep running and refresh on changes")
}

var sectionTitles = map[string]string{
	"NEW":       "New files:",
	"MODIFIED":  "Modified files:",
	"DELETED":   "Deleted files:",
	"UNCHANGED": "Unchanged files:",
	"UNTRACKED": "Untracked files:",
}

func runStatus(cmd *cobra.Command, args []string) error {
	if err := checkFormat(statusFormat); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	var ignored watcher.IgnoreFunc
	var root string
	err := withRepository(func(r *repo.Repository) error {
		root = r.Config().Root
		ignored = r.IsIgnored
		return printStatus(out, r)
	})
	if err != nil || !statusWatch {
		return err
	}

	events, stop, err := watcher.Watch(root, ignored, watchDebounce)
	if err != nil {
		return fmt.Errorf("failed to watch %s: %w", root, err)
	}
	defer stop()

	ctx, cancel := signal.NotifyContext(cmd.Context(), os.Interrupt)
	defer cancel()
	for {
		select {
		case <-ctx.Done():
			return nil
		case _, ok := <-events:
			if !ok {
				return nil
			}
			if statusFormat == "text" {
				fmt.Fprintln(out)
			}
			if err := withRepository(func(r *repo.Repository) error { return printStatus(out, r) }); err != nil {
				return err
			}
		}
	}
}

func printStatus(out io.Writer, r *repo.Repository) error {
	report, err := r.Status()
	if err != nil {
		return err
	}

	switch statusFormat {
	case "json":
		return writeJSON(out, report)
	case "toon":
		return writeToon(out, report)
	}

	fmt.Fprintf(out, "Current branch is '%s'\n", colors.Bold(report.Branch))
	for _, section := range report.Sections {
		fmt.Fprintf(out, "\n%s\n", colors.SectionHeader(sectionTitles[section.Status]))
		for _, p := range section.Paths {
			fmt.Fprintf(out, "  %s\n", colors.ColorizeFileStatus(section.Status, p))
		}
	}
	return nil
}

func checkFormat(format string) error {
	switch format {
	case "text", "json", "toon":
		return nil
	default:
		return fmt.Errorf("unknown format %q (expected text, json or toon)", format)
	}
}

func writeJSON(out io.Writer, v any) error {
	output, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}
	fmt.Fprintln(out, string(output))
	return nil
}

func writeToon(out io.Writer, v any) error {
	output, err := gotoon.Encode(v)
	if err != nil {
		return fmt.Errorf("failed to encode Toon: %w", err)
	}
	fmt.Fprintln(out, output)
	return nil
}
