package cli

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/javanhut/cvs/internal/colors"
	"github.com/javanhut/cvs/internal/config"
	"github.com/javanhut/cvs/internal/repo"
)

var configCmd = &cobra.Command{
	Use:   "config [key] [value]",
	Short: "Get and set configuration options",
	Long: `Get and set cvs configuration options.

Configuration can be set at two levels:
- Global ($XDG_CONFIG_HOME/cvs/config.yaml) - applies to all repositories
- Repository (.cvs/config.yaml) - applies to current repository only

Environment variables such as CVS_USER_NAME override both.

Examples:
  cvs config user.name "Your Name"
  cvs config --global storage.compression zstd
  cvs config --list
  cvs config user.name`,
	Args: cobra.MaximumNArgs(2),
	RunE: runConfig,
}

var (
	configGlobal bool
	configList   bool
)

func init() {
	configCmd.Flags().BoolVar(&configGlobal, "global", false, "Use global config file")
	configCmd.Flags().BoolVar(&configList, "list", false, "List all configuration")
}

func runConfig(cmd *cobra.Command, args []string) error {
	cfg, err := configLocation(len(args) == 2 && !configGlobal)
	if err != nil {
		return err
	}
	out := cmd.OutOrStdout()

	switch {
	case configList:
		fmt.Fprintln(out, colors.SectionHeader("Configuration:"))
		for _, key := range config.KnownKeys() {
			value, err := config.GetValue(cfg, key)
			if err != nil {
				return err
			}
			if value == "" {
				value = colors.Gray("(not set)")
			}
			fmt.Fprintf(out, "  %s = %s\n", key, value)
		}
		return nil
	case len(args) == 1:
		value, err := config.GetValue(cfg, args[0])
		if err != nil {
			return err
		}
		fmt.Fprintln(out, value)
		return nil
	case len(args) == 2:
		if err := config.SetValue(cfg, args[0], args[1], configGlobal); err != nil {
			return err
		}
		fmt.Fprintf(out, "Set %s = %s\n", args[0], args[1])
		return nil
	}
	return fmt.Errorf("invalid usage. See: cvs config --help")
}

// configLocation returns the layout of the enclosing repository. Outside a
// repository only global settings apply, unless requireRepo is set.
func configLocation(requireRepo bool) (config.RepositoryConfig, error) {
	dir, err := workDir()
	if err != nil {
		return config.RepositoryConfig{}, err
	}
	root, err := repo.FindRoot(dir)
	if err != nil {
		if requireRepo {
			return config.RepositoryConfig{}, err
		}
		root = dir
	}
	return config.NewRepositoryConfig(root), nil
}
