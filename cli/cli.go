// Package cli implements the cvs command line.
package cli

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/javanhut/cvs/internal/colors"
	"github.com/javanhut/cvs/internal/config"
	"github.com/javanhut/cvs/internal/repo"
)

var rootCmd = &cobra.Command{
	Use:   "cvs",
	Short: "cvs is a local snapshot version control system",
	Long: `cvs tracks snapshots of a working tree across branches, entirely on the
local filesystem. Repository state lives in the .cvs directory.`,
	SilenceUsage: true,
}

var (
	repoDir string
	verbose bool
)

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().StringVarP(&repoDir, "repo", "C", "", "Run as if cvs was started in this directory")
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Log engine diagnostics to stderr")

	rootCmd.AddCommand(initCmd)

	// Staging and commits
	rootCmd.AddCommand(addCmd, resetCmd, commitCmd, updateMessageCmd, statusCmd, logCmd)

	// Branches
	rootCmd.AddCommand(branchCmd, checkoutCmd, cherryPickCmd)

	// Settings
	rootCmd.AddCommand(excludeCmd, configCmd)
}

// workDir returns the directory cvs operates from.
func workDir() (string, error) {
	if repoDir != "" {
		return filepath.Abs(repoDir)
	}
	dir, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get working directory: %w", err)
	}
	return dir, nil
}

// newLogger builds the stderr logger for the engine.
func newLogger(level string) (*zap.Logger, error) {
	lvl := zapcore.WarnLevel
	if level != "" {
		parsed, err := zapcore.ParseLevel(level)
		if err != nil {
			return nil, fmt.Errorf("invalid log.level %q: %w", level, err)
		}
		lvl = parsed
	}
	if verbose {
		lvl = zapcore.DebugLevel
	}

	cfg := zap.NewDevelopmentConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.DisableStacktrace = true
	cfg.DisableCaller = true
	cfg.OutputPaths = []string{"stderr"}
	cfg.ErrorOutputPaths = []string{"stderr"}
	return cfg.Build()
}

// openRepository finds and opens the repository containing the working
// directory. The caller must Close it.
func openRepository() (*repo.Repository, error) {
	dir, err := workDir()
	if err != nil {
		return nil, err
	}
	root, err := repo.FindRoot(dir)
	if err != nil {
		return nil, err
	}

	settings, err := config.LoadSettings(config.NewRepositoryConfig(root))
	if err != nil {
		return nil, fmt.Errorf("failed to load settings: %w", err)
	}
	if !settings.Color.UI {
		colors.SetColorEnabled(false)
	}
	logger, err := newLogger(settings.Log.Level)
	if err != nil {
		return nil, err
	}

	return repo.Open(root, repo.WithLogger(logger), repo.WithSettings(settings))
}

// withRepository runs fn against the open repository.
func withRepository(fn func(r *repo.Repository) error) error {
	r, err := openRepository()
	if err != nil {
		return err
	}
	defer r.Close()
	return fn(r)
}

// rootRelative converts a command line path into a path relative to the
// working root.
func rootRelative(r *repo.Repository, arg string) (string, error) {
	base, err := workDir()
	if err != nil {
		return "", err
	}
	abs := arg
	if !filepath.IsAbs(abs) {
		abs = filepath.Join(base, arg)
	}
	rel, err := filepath.Rel(r.Config().Root, abs)
	if err != nil {
		return "", fmt.Errorf("path %s is outside the repository: %w", arg, err)
	}
	return filepath.ToSlash(rel), nil
}
