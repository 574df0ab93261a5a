package main

import (
	"fmt"

	"github.com/atotto/clipboard"
	"github.com/spf13/cobra"
)

func newInitCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "init",
		Short: "Create the default config, ignore and description files",
		Long: `init creates the config file, .treeignore and tree-descriptions.yml in the
working directory, leaving existing files untouched, and makes sure README.md
exists and carries the tree markers.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			_, log, _, err := loadConfig(cmd, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if err := scaffold(log); err != nil {
				return err
			}
			log.Successf("Setup complete.")
			return nil
		},
	}
}

func newPrintCmd() *cobra.Command {
	var copyTree bool

	cmd := &cobra.Command{
		Use:   "print",
		Short: "Print the rendered tree without writing any file",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, missing, err := loadConfig(cmd, cmd.ErrOrStderr())
			if err != nil {
				return err
			}
			if missing {
				log.Debugf("No config file at %s, using defaults", configFile)
			}

			svc, err := newService(cfg, log)
			if err != nil {
				return err
			}
			tree, err := svc.Render(cmd.Context())
			if err != nil {
				return err
			}

			fmt.Fprintln(cmd.OutOrStdout(), tree)

			if copyTree {
				if err := clipboard.WriteAll(tree); err != nil {
					return fmt.Errorf("failed to copy tree to clipboard: %w", err)
				}
				log.Successf("Tree copied to clipboard.")
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&copyTree, "copy", false, "also copy the tree to the clipboard")
	return cmd
}

func newCheckCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "check",
		Short: "Fail when the document or description file is out of date",
		Long: `check compares the document and the description file with what a sync would
produce and exits non-zero when they differ or the markers are missing.
Nothing is written.`,
		Example: `md-tree-updater check --quiet`,
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, log, missing, err := loadConfig(cmd, cmd.OutOrStdout())
			if err != nil {
				return err
			}
			if missing {
				log.Debugf("No config file at %s, using defaults", configFile)
			}

			svc, err := newService(cfg, log)
			if err != nil {
				return err
			}
			result, err := svc.Check(cmd.Context())
			if err != nil {
				return err
			}

			if result.UpToDate() {
				log.Successf("Tree is up to date.")
				return nil
			}

			if result.MissingMarkers {
				return fmt.Errorf("tree markers not found in %s", cfg.TargetFile)
			}
			for _, p := range result.Added {
				log.Warnf("new path without entry: %s", p)
			}
			for _, e := range result.Archived {
				log.Warnf("entry for deleted path: %s", e.Path)
			}
			if result.TreeStale {
				log.Warnf("rendered tree differs from %s", cfg.TargetFile)
			}
			return fmt.Errorf("tree is out of date, run md-tree-updater to update it")
		},
	}
}
