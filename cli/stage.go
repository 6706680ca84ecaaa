package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanhut/cvs/internal/colors"
	"github.com/javanhut/cvs/internal/repo"
	"github.com/javanhut/cvs/internal/staging"
)

var initCmd = &cobra.Command{
	Use:   "init",
	Short: "Initialize a repository",
	Long:  "Creates the .cvs directory with an empty 'main' branch in the working directory",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		dir, err := workDir()
		if err != nil {
			return err
		}
		r, err := repo.Init(dir)
		if err != nil {
			return err
		}
		defer r.Close()
		fmt.Fprintf(cmd.OutOrStdout(), "Initialized empty cvs repository in %s\n", r.Config().OSPath(r.Config().StateDir))
		return nil
	},
}

var addCmd = &cobra.Command{
	Use:   "add <path>... | .",
	Short: "Stage untracked files",
	Long: `Stage untracked files for the next commit.

Examples:
  cvs add .                 # Stage every untracked file below the current directory
  cvs add a.txt src/b.go    # Stage specific files`,
	Args: cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(func(r *repo.Repository) error {
			if len(args) == 1 && args[0] == repo.AllPaths {
				dir, err := rootRelative(r, args[0])
				if err != nil {
					return err
				}
				if err := r.AddDir(dir); err != nil {
					return err
				}
			} else {
				paths := make([]string, 0, len(args))
				for _, arg := range args {
					rel, err := rootRelative(r, arg)
					if err != nil {
						return err
					}
					paths = append(paths, rel)
				}
				if err := r.Add(paths); err != nil {
					return err
				}
			}
			staged := r.Area().Len(staging.New)
			fmt.Fprintf(cmd.OutOrStdout(), "%d file(s) staged as new\n", staged)
			return nil
		})
	},
}

var resetCmd = &cobra.Command{
	Use:   "reset",
	Short: "Clear the staging area",
	Long:  "Forgets every classification. The next status or add rebuilds it from the working tree.",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(func(r *repo.Repository) error {
			if err := r.Reset(); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Staging area cleared")
			return nil
		})
	},
}

var commitCmd = &cobra.Command{
	Use:   "commit <message>",
	Short: "Record staged changes",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(func(r *repo.Repository) error {
			c, err := r.Commit(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s %s] %s\n", colors.Bold(c.Branch), colors.Cyan(c.ID), c.Message)
			return nil
		})
	},
}

var updateMessageCmd = &cobra.Command{
	Use:   "update-message <commit_id> <message>",
	Short: "Change the message of a commit",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(func(r *repo.Repository) error {
			if err := r.UpdateMessage(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Updated message of %s\n", colors.Cyan(args[0]))
			return nil
		})
	},
}

var excludeCmd = &cobra.Command{
	Use:   "exclude <name>...",
	Short: "Ignore files by name",
	Long:  "Adds file names to the ignore rules in .cvs/ignore.toml",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(func(r *repo.Repository) error {
			added, err := r.Exclude(args...)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Excluded %d new name(s)\n", added)
			return nil
		})
	},
}
