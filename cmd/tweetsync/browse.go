package main

import (
	"errors"
	"fmt"
	"strconv"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/spf13/cobra"

	"github.com/pders01/tweetsync/internal/media"
	"github.com/pders01/tweetsync/internal/render"
	"github.com/pders01/tweetsync/internal/storage"
	"github.com/pders01/tweetsync/internal/tui"
)

func newSearchCmd(c *cli) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "search <query>",
		Short: "Search imported tweets",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, c.cfg, true)
			if err != nil {
				return err
			}
			defer e.Close()

			results, err := e.searcher.Search(ctx, args[0], limit)
			if err != nil {
				return err
			}
			out := cmd.OutOrStdout()
			if len(results) == 0 {
				fmt.Fprintln(out, "no results")
				return nil
			}
			for _, r := range results {
				text := render.PlainText(r.Item.Content)
				fmt.Fprintf(out, "%s %s %s\n",
					labelStyle.Render(strconv.FormatUint(r.Item.ID, 10)),
					okStyle.Render(r.Item.SourceLabel),
					text)
			}
			return nil
		},
	}
	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "maximum number of results")
	return cmd
}

func newShowCmd(c *cli) *cobra.Command {
	var raw bool

	cmd := &cobra.Command{
		Use:   "show <id>",
		Short: "Print one imported tweet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			id, err := strconv.ParseUint(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid item id %q", args[0])
			}

			ctx := cmd.Context()
			e, err := openEnv(ctx, c.cfg, false)
			if err != nil {
				return err
			}
			defer e.Close()

			item, err := e.store.GetItem(ctx, id)
			if errors.Is(err, storage.ErrNotFound) {
				return fmt.Errorf("no item with id %d", id)
			}
			if err != nil {
				return err
			}

			md := tui.ItemMarkdown(item)
			if raw {
				fmt.Fprintln(cmd.OutOrStdout(), md)
				return nil
			}
			out, err := glamour.Render(md, "auto")
			if err != nil {
				return err
			}
			fmt.Fprint(cmd.OutOrStdout(), out)
			return nil
		},
	}
	cmd.Flags().BoolVar(&raw, "raw", false, "print markdown without terminal styling")
	return cmd
}

func newBrowseCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "browse",
		Short: "Browse imported tweets in a terminal UI",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			e, err := openEnv(cmd.Context(), c.cfg, true)
			if err != nil {
				return err
			}
			defer e.Close()

			app := tui.NewApp(e.store, e.searcher, media.NewLauncher(c.cfg.Media))
			p := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(cmd.Context()))
			_, err = p.Run()
			return err
		},
	}
}

func newStatusCmd(c *cli) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Show the last run and item counts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			ctx := cmd.Context()
			e, err := openEnv(ctx, c.cfg, false)
			if err != nil {
				return err
			}
			defer e.Close()

			out := cmd.OutOrStdout()
			items, err := e.store.ListItems(ctx, storage.ItemQuery{})
			if err != nil {
				return err
			}
			printField(out, "database", c.cfg.Database.Path)
			printField(out, "items", len(items))

			run, err := e.store.LastRun(ctx)
			if errors.Is(err, storage.ErrNotFound) {
				fmt.Fprintln(out, "no runs yet")
				return nil
			}
			if err != nil {
				return err
			}
			printRun(out, run)
			return nil
		},
	}
}
