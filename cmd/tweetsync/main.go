// Command tweetsync imports tweets for configured users and hashtags into a
// local store, expires old ones, and lets you browse what was imported.
package main

import (
	"errors"
	"fmt"
	"io/fs"
	"os"

	"github.com/joho/godotenv"
	"github.com/spf13/cobra"

	"github.com/pders01/tweetsync/internal/config"
	"github.com/pders01/tweetsync/internal/debuglog"
)

// Version is set at build time.
var Version = "dev"

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// cli holds the global flags and the configuration they resolve to.
type cli struct {
	configPath string
	dbPath     string
	envFile    string
	verbose    bool

	cfg *config.Config
}

func newRootCmd() *cobra.Command {
	c := &cli{}

	root := &cobra.Command{
		Use:           "tweetsync",
		Short:         "Import tweets for users and hashtags into a local store",
		Long:          "tweetsync fetches tweets for configured usernames and hashtags, stores them with hyperlinked entities and downloaded photos, and expires old items after a retention window.",
		Version:       Version,
		SilenceUsage:  true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return c.setup(cmd)
		},
		PersistentPostRun: func(cmd *cobra.Command, args []string) {
			_ = debuglog.Close()
		},
	}
	root.SetVersionTemplate("tweetsync version {{.Version}}\n")

	root.PersistentFlags().StringVar(&c.configPath, "config", "", "path to config file (default ~/.config/tweetsync/config.toml)")
	root.PersistentFlags().StringVar(&c.dbPath, "db", "", "path to database file (overrides config)")
	root.PersistentFlags().StringVar(&c.envFile, "env-file", ".env", "dotenv file with TWEETSYNC_* variables")
	root.PersistentFlags().BoolVarP(&c.verbose, "verbose", "v", false, "log debug output to stderr")

	root.AddCommand(
		newRunCmd(c),
		newImportCmd(c),
		newCleanupCmd(c),
		newSettingsCmd(c),
		newValidateCmd(c),
		newSearchCmd(c),
		newShowCmd(c),
		newBrowseCmd(c),
		newStatusCmd(c),
		newServeCmd(c),
		newConfigCmd(c),
		newVersionCmd(),
	)
	return root
}

// setup loads the dotenv file, the config, and the logger.
func (c *cli) setup(cmd *cobra.Command) error {
	if c.envFile != "" {
		if err := godotenv.Load(c.envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return fmt.Errorf("loading %s: %w", c.envFile, err)
		}
	}

	cfg, err := config.Load(c.configPath)
	if err != nil {
		return fmt.Errorf("failed to load config: %w", err)
	}
	if c.dbPath != "" {
		cfg.Database.Path = c.dbPath
	}
	c.cfg = cfg

	if c.verbose {
		debuglog.SetOutput(debuglog.LevelDebug, cmd.ErrOrStderr())
		return nil
	}
	if err := debuglog.Setup(debuglog.ParseLogLevel(cfg.Log.Level), cfg.Log.File); err != nil {
		// logging is best effort; commands still run
		fmt.Fprintf(cmd.ErrOrStderr(), "warning: %v\n", err)
	}
	return nil
}

// savePath is where settings changes are written.
func (c *cli) savePath() string {
	if c.configPath != "" {
		return c.configPath
	}
	return config.DefaultPath()
}
