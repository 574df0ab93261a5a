// Package main implements the md-tree-updater command.
package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"

	"github.com/caffetsong/md-tree-updater/internal/config"
	"github.com/caffetsong/md-tree-updater/internal/logger"
	"github.com/caffetsong/md-tree-updater/internal/treesync"
)

var (
	configFile string
	quiet      bool
	dryRun     bool
)

func main() {
	if err := fang.Execute(
		context.Background(),
		newRootCmd(),
		fang.WithVersion(version),
		fang.WithoutCompletions(),
		fang.WithoutManpage(),
	); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "md-tree-updater",
		Short: "Keep an annotated directory tree in your README up to date",
		Long: `md-tree-updater renders the directory tree of a project, annotated with
per-path descriptions, between two marker comments in a Markdown document.

Descriptions live in a YAML file that is kept in sync with the filesystem:
new paths are added with an empty description and paths that disappear are
archived as comments at the end of the file.

On the first run, when no config file exists, the default config, ignore
file, description file and README markers are created.`,
		Example: `md-tree-updater
md-tree-updater --target docs/INDEX.md --dry-run
md-tree-updater print --copy`,
		Args: cobra.NoArgs,
		RunE: runSync,
	}

	flags := cmd.PersistentFlags()
	flags.StringVarP(&configFile, "config", "c", config.DefaultFile, "config file")
	flags.String("root", "", "directory to document (default \".\")")
	flags.String("target", "", "document that receives the tree (default \"README.md\")")
	flags.String("descriptions", "", "description file (default \"tree-descriptions.yml\")")
	flags.String("ignore", "", "ignore rule file (default \".treeignore\")")
	flags.Bool("gitignore", false, "also skip paths matched by the root .gitignore")
	flags.Bool("git-root", false, "document the enclosing git worktree")
	flags.String("log-level", "", "debug, info, warn or error (default \"info\")")
	flags.BoolVarP(&quiet, "quiet", "q", false, "only log errors")

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "report changes without writing any file")

	cmd.AddCommand(newInitCmd(), newPrintCmd(), newCheckCmd(), newServeCmd())
	return cmd
}

// loadConfig reads the configuration for cmd and builds a logger writing to
// out. missing is true when the config file does not exist; cfg then holds
// defaults layered with env and flags.
func loadConfig(cmd *cobra.Command, out io.Writer) (cfg *config.Config, log *logger.ConsoleLogger, missing bool, err error) {
	cfg, err = config.Load(configFile, cmd.Flags())
	if errors.Is(err, config.ErrConfigMissing) {
		missing, err = true, nil
	}
	if err != nil {
		return nil, nil, false, err
	}

	level := cfg.LogLevel
	if quiet {
		level = "error"
	}
	return cfg, logger.NewConsoleLogger(out, level), missing, nil
}

func newService(cfg *config.Config, log *logger.ConsoleLogger) (*treesync.Service, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	resolved, err := cfg.Resolve()
	if err != nil {
		return nil, err
	}
	return treesync.New(resolved, log), nil
}

func runSync(cmd *cobra.Command, args []string) error {
	cfg, log, missing, err := loadConfig(cmd, cmd.OutOrStdout())
	if err != nil {
		return err
	}

	if missing {
		log.Infof("Main config file (%s) not found.", configFile)
		log.Infof("Running one-time setup...")
		if err := scaffold(log); err != nil {
			return err
		}
		log.Successf("Setup complete! All necessary files have been created.")
		log.Infof("Please review the generated files, especially %s, and then run the command again.", configFile)
		return nil
	}

	svc, err := newService(cfg, log)
	if err != nil {
		return err
	}

	result, err := svc.Run(cmd.Context(), treesync.Options{DryRun: dryRun})
	if err != nil {
		return err
	}

	if dryRun {
		for _, p := range result.Added {
			log.Infof("would add: %s", p)
		}
		for _, e := range result.Archived {
			log.Infof("would archive: %s", e.Path)
		}
	}
	return nil
}

func scaffold(log *logger.ConsoleLogger) error {
	result, err := config.Scaffold(".", configFile)
	if err != nil {
		return err
	}
	for _, p := range result.Created {
		log.Infof("Created: %s", p)
	}
	for _, p := range result.Marked {
		log.Infof("Appended tags to existing file: %s", p)
	}
	return nil
}
