package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanhut/cvs/internal/colors"
	"github.com/javanhut/cvs/internal/repo"
)

var branchCmd = &cobra.Command{
	Use:   "branch <name>",
	Short: "Create a branch and switch to it",
	Long:  "Creates a branch forked at the current branch's last commit. The working tree is kept as is.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(func(r *repo.Repository) error {
			from := r.CurrentBranch()
			if err := r.Branch(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Created branch '%s' from '%s'\n", colors.Bold(args[0]), from)
			return nil
		})
	},
}

var checkoutCmd = &cobra.Command{
	Use:   "checkout <name>",
	Short: "Switch to another branch",
	Long: `Switch the working tree to the last commit of another branch.

Every non-ignored file is removed before the branch is written back,
including untracked files. Uncommitted changes must be committed first.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(func(r *repo.Repository) error {
			if err := r.Checkout(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Switched to branch '%s'\n", colors.Bold(args[0]))
			return nil
		})
	},
}

var cherryPickCmd = &cobra.Command{
	Use:   "cherry-pick <commit_id>",
	Short: "Apply the changes of a commit onto the current branch",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		return withRepository(func(r *repo.Repository) error {
			c, err := r.CherryPick(args[0])
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Applied %s as %s on branch '%s'\n", args[0], colors.Cyan(c.ID), colors.Bold(c.Branch))
			return nil
		})
	},
}
