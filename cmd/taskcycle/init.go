package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"taskcycle/internal/config"
	"taskcycle/internal/notifications"
)

func newInitConfigCmd(a *app) *cobra.Command {
	var (
		path  string
		force bool
	)

	cmd := &cobra.Command{
		Use:   "init-config",
		Short: "Write the default configuration and notification templates",
		Args:  cobra.NoArgs,
		// The configuration may not exist yet, so skip loading it
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return nil
		},
		RunE: func(cmd *cobra.Command, args []string) error {
			templatesDir := notifications.TemplatesDir()
			if path == "" {
				p, err := config.DefaultConfigPath()
				if err != nil {
					return err
				}
				path = p
			} else {
				templatesDir = filepath.Join(filepath.Dir(path), "templates")
			}

			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("%s already exists, use --force to overwrite", path)
			}

			if err := config.WriteConfig(path, config.DefaultConfig()); err != nil {
				return err
			}
			if err := notifications.CreateDefaultTemplates(templatesDir); err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Created default configuration at: %s\n", path)
			fmt.Fprintf(out, "Created notification templates in: %s\n", templatesDir)
			return nil
		},
	}

	cmd.Flags().StringVar(&path, "path", "", "where to write the config (default: XDG config dir)")
	cmd.Flags().BoolVar(&force, "force", false, "overwrite an existing config")
	return cmd
}
