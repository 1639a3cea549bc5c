package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/pders01/tweetsync/internal/config"
)

func newRunCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "run",
		Short: "Import new tweets, then expire old ones",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if c.cfg.Settings.Import {
				if err := c.cfg.Settings.Validate(); err != nil {
					return err
				}
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx, c.cfg, true)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.newPipeline()
			if err != nil {
				return err
			}
			run, err := p.runner.RunAll(ctx, c.cfg.Settings)
			if run != nil {
				printRun(cmd.OutOrStdout(), run)
			}
			return err
		},
	}
}

func newImportCmd(c *cli) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import new tweets for every configured source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			settings := c.cfg.Settings
			if force {
				settings.Import = true
			}
			if !settings.Import {
				fmt.Fprintln(cmd.OutOrStdout(), "import is switched off; set settings.import or pass --force")
				return nil
			}
			if err := settings.Validate(); err != nil {
				return err
			}

			e, err := openEnv(ctx, c.cfg, true)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.newPipeline()
			if err != nil {
				return err
			}
			report, err := p.importer.Run(ctx, settings)
			printReport(cmd.OutOrStdout(), report)
			return err
		},
	}
	cmd.Flags().BoolVar(&force, "force", false, "import even when settings.import is off")
	return cmd
}

func newCleanupCmd(c *cli) *cobra.Command {
	var expire int

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete items older than the retention window",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			window := c.cfg.Settings.Expire
			if cmd.Flags().Changed("expire") {
				window = expire
			}

			e, err := openEnv(ctx, c.cfg, true)
			if err != nil {
				return err
			}
			defer e.Close()

			p, err := e.newPipeline()
			if err != nil {
				return err
			}
			n, err := p.sweeper.Sweep(ctx, window)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "deleted %d items older than %s\n", n, config.ExpireLabel(window))
			return nil
		},
	}
	cmd.Flags().IntVar(&expire, "expire", 0, "retention window in seconds (overrides settings.expire)")
	return cmd
}
