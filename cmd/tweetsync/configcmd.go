package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/spf13/cobra"

	"github.com/pders01/tweetsync/internal/config"
	"github.com/pders01/tweetsync/internal/tui"
)

func newConfigCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "config",
		Short: "Manage the configuration file",
	}

	var force bool
	generate := &cobra.Command{
		Use:   "generate",
		Short: "Write a config file with the default values",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			path := c.savePath()
			if _, err := os.Stat(path); err == nil && !force {
				return fmt.Errorf("config file already exists at %s (use --force to overwrite)", path)
			} else if err != nil && !errors.Is(err, fs.ErrNotExist) {
				return err
			}
			if err := config.GenerateDefaultConfig(path); err != nil {
				return fmt.Errorf("generating config: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s config written to %s\n", okStyle.Render("✓"), path)
			return nil
		},
	}
	generate.Flags().BoolVar(&force, "force", false, "overwrite an existing file")

	path := &cobra.Command{
		Use:   "path",
		Short: "Print where settings are saved",
		Args:  cobra.NoArgs,
		Run: func(cmd *cobra.Command, args []string) {
			fmt.Fprintln(cmd.OutOrStdout(), c.savePath())
		},
	}

	cmd.AddCommand(generate, path)
	return cmd
}

func newVersionCmd() *cobra.Command {
	var quiet bool

	cmd := &cobra.Command{
		Use:   "version",
		Short: "Print version information",
		Args:  cobra.NoArgs,
		// version needs no config
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error { return nil },
		Run: func(cmd *cobra.Command, args []string) {
			if quiet {
				fmt.Fprintf(cmd.OutOrStdout(), "tweetsync %s\n", Version)
				return
			}
			fmt.Fprintln(cmd.OutOrStdout(), tui.Banner(Version))
		},
	}
	cmd.Flags().BoolVarP(&quiet, "quiet", "q", false, "print only the version")
	return cmd
}
