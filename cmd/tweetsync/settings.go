package main

import (
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/spf13/cobra"

	"github.com/pders01/tweetsync/internal/admin"
	"github.com/pders01/tweetsync/internal/config"
)

func newSettingsCmd(c *cli) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "settings",
		Short: "Show or change the import settings",
	}

	show := &cobra.Command{
		Use:   "show",
		Short: "Print the current settings",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			printSettings(cmd.OutOrStdout(), c.cfg.Settings)
			return nil
		},
	}

	var noProbe bool
	set := &cobra.Command{
		Use:   "set key=value...",
		Short: "Validate and save settings",
		Long: "Set one or more of: " + strings.Join([]string{
			admin.FieldImport, admin.FieldUsernames, admin.FieldCount,
			admin.FieldExpire, admin.FieldConsumerKey, admin.FieldConsumerSecret,
		}, ", ") + ". Every source is probed against the API before saving unless --no-probe is given.",
		Args: cobra.MinimumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			form := admin.NewForm(c.cfg.Settings)
			for _, arg := range args {
				key, value, ok := strings.Cut(arg, "=")
				if !ok {
					return fmt.Errorf("expected key=value, got %q", arg)
				}
				if err := form.Set(strings.TrimSpace(key), value); err != nil {
					return err
				}
			}

			settings, err := submit(cmd, c, form, noProbe)
			if err != nil {
				return err
			}

			c.cfg.Settings = settings
			path := c.savePath()
			if err := config.Save(c.cfg, path); err != nil {
				return fmt.Errorf("saving settings: %w", err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s settings saved to %s\n", okStyle.Render("✓"), path)
			return nil
		},
	}
	set.Flags().BoolVar(&noProbe, "no-probe", false, "skip checking sources against the API")

	cmd.AddCommand(show, set)
	return cmd
}

func newValidateCmd(c *cli) *cobra.Command {
	var noProbe bool

	cmd := &cobra.Command{
		Use:   "validate",
		Short: "Check the saved settings and probe every source",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			if _, err := submit(cmd, c, admin.NewForm(c.cfg.Settings), noProbe); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "%s settings are valid\n", okStyle.Render("✓"))
			return nil
		},
	}
	cmd.Flags().BoolVar(&noProbe, "no-probe", false, "skip checking sources against the API")
	return cmd
}

// submit runs the form through admin validation and prints every field
// error before returning.
func submit(cmd *cobra.Command, c *cli, form admin.Form, noProbe bool) (config.Settings, error) {
	var connect admin.Connector
	if !noProbe {
		connect = newFetcher(c.cfg.Twitter)
	}

	settings, err := admin.Submit(cmd.Context(), form, connect)
	var errs admin.Errors
	if errors.As(err, &errs) {
		w := cmd.ErrOrStderr()
		for _, fe := range errs {
			fmt.Fprintln(w, failStyle.Render("✗ "+fe.Error()))
		}
		return settings, fmt.Errorf("%d invalid settings", len(errs))
	}
	return settings, err
}

func printSettings(w io.Writer, s config.Settings) {
	printField(w, "import", s.Import)
	printField(w, "sources", strings.Join(s.Usernames, " "))
	printField(w, "count", s.Count)
	printField(w, "expire", config.ExpireLabel(s.Expire))
	printField(w, "key", s.ConsumerKey)
	printField(w, "secret", maskSecret(s.ConsumerSecret))
}

// maskSecret keeps the last four characters.
func maskSecret(s string) string {
	if s == "" {
		return "(not set)"
	}
	r := []rune(s)
	if len(r) <= 4 {
		return strings.Repeat("*", len(r))
	}
	return strings.Repeat("*", len(r)-4) + string(r[len(r)-4:])
}
