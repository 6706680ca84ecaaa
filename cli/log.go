package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanhut/cvs/internal/colors"
	"github.com/javanhut/cvs/internal/repo"
)

var logCmd = &cobra.Command{
	Use:   "log",
	Short: "Show commit history",
	Long: `Display the commits of every branch, newest first. Each branch lists only
the commits made on it; history inherited from a parent branch is shown
under that branch.`,
	Args: cobra.NoArgs,
	RunE: runLog,
}

var logFormat string

const dateLayout = "2006-01-02 15:04:05"

func init() {
	logCmd.Flags().StringVar(&logFormat, "format", "text", "Output format: text, json or toon")
}

type commitView struct {
	ID      string `json:"id"`
	Date    string `json:"date"`
	Message string `json:"message"`
	Author  string `json:"author,omitempty"`
}

type branchView struct {
	Branch  string       `json:"branch"`
	Commits []commitView `json:"commits"`
}

func runLog(cmd *cobra.Command, args []string) error {
	if err := checkFormat(logFormat); err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	return withRepository(func(r *repo.Repository) error {
		histories, err := r.Log()
		if err != nil {
			return err
		}

		views := make([]branchView, 0, len(histories))
		for _, h := range histories {
			v := branchView{Branch: h.Branch, Commits: []commitView{}}
			for _, c := range h.Commits {
				v.Commits = append(v.Commits, commitView{
					ID:      c.ID,
					Date:    c.Time.Local().Format(dateLayout),
					Message: c.Message,
					Author:  c.Author,
				})
			}
			views = append(views, v)
		}

		switch logFormat {
		case "json":
			return writeJSON(out, views)
		case "toon":
			return writeToon(out, views)
		}

		for i, v := range views {
			if i > 0 {
				fmt.Fprintln(out)
			}
			marker := ""
			if v.Branch == r.CurrentBranch() {
				marker = " (current)"
			}
			fmt.Fprintf(out, "Branch %s%s\n", colors.Bold(v.Branch), marker)
			if len(v.Commits) == 0 {
				fmt.Fprintln(out, colors.Gray("  No commits yet"))
			}
			for _, c := range v.Commits {
				line := fmt.Sprintf("  %s  %s  %s", colors.Gray(c.Date), colors.Cyan(c.ID), c.Message)
				if c.Author != "" {
					line += " " + colors.Magenta("<"+c.Author+">")
				}
				fmt.Fprintln(out, line)
			}
		}
		return nil
	})
}
