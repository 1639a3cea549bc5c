package tui

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/tweetsync/internal/render"
	"github.com/pders01/tweetsync/internal/source"
	"github.com/pders01/tweetsync/internal/storage"
)

const searchLimit = 50

// failed reports a command error prefixed with what was being done.
func failed(doing string, err error) tea.Msg {
	return errorMsg{err: fmt.Errorf("%s: %w", doing, err)}
}

func (a *App) loadItems() tea.Cmd {
	return func() tea.Msg {
		items, err := a.store.ListItems(context.Background(), storage.ItemQuery{})
		if err != nil {
			return failed("loading items", err)
		}
		return itemsLoadedMsg{items: items}
	}
}

func (a *App) renderItem(item *storage.Item) tea.Cmd {
	return func() tea.Msg {
		r, err := a.getRenderer()
		if err != nil {
			return itemRenderedMsg{id: item.ID, content: "Error initializing renderer: " + err.Error()}
		}

		rendered, err := r.Render(ItemMarkdown(item))
		if err != nil {
			return itemRenderedMsg{id: item.ID, content: fmt.Sprintf("Failed to render item: %s\n\nPress Escape to go back.", err)}
		}
		return itemRenderedMsg{id: item.ID, content: rendered}
	}
}

// ItemMarkdown lays out one item for reading: heading, byline, links,
// then the tweet body converted from its rendered HTML.
func ItemMarkdown(item *storage.Item) string {
	var b strings.Builder

	fmt.Fprintf(&b, "# %s\n\n", item.Title)

	byline := "from " + sourceHandle(item)
	if !item.CreatedAt.IsZero() {
		byline += " • " + item.CreatedAt.Local().Format(time.RFC1123)
	}
	fmt.Fprintf(&b, "*%s*\n\n", byline)

	if item.SourceURL != "" {
		label := "View profile"
		if item.SourceType == source.KindHashtag {
			label = "View search"
		}
		fmt.Fprintf(&b, "[%s](%s)\n\n", label, item.SourceURL)
	}

	if item.HasMedia() {
		fmt.Fprintf(&b, "**Photo:** `%s` (press o to open)\n\n", item.LocalMedia)
		if item.ExternalMediaURL != "" {
			fmt.Fprintf(&b, "[Original image](%s)\n\n", item.ExternalMediaURL)
		}
	}

	b.WriteString("---\n\n")

	body, err := render.Markdown(item.Content)
	if err != nil {
		body = render.PlainText(item.Content)
	}
	b.WriteString(body)
	b.WriteString("\n")

	if len(item.Hashtags) > 0 {
		tags := make([]string, len(item.Hashtags))
		for i, t := range item.Hashtags {
			tags[i] = "#" + t
		}
		fmt.Fprintf(&b, "\n**Hashtags:** %s\n", strings.Join(tags, " "))
	}
	if len(item.Mentions) > 0 {
		names := make([]string, len(item.Mentions))
		for i, m := range item.Mentions {
			names[i] = "@" + m
		}
		fmt.Fprintf(&b, "\n**Mentions:** %s\n", strings.Join(names, " "))
	}

	return b.String()
}

func (a *App) performSearch(query string) tea.Cmd {
	return func() tea.Msg {
		results, err := a.searcher.Search(context.Background(), query, searchLimit)
		if err != nil {
			return failed("search", err)
		}
		return searchResultsMsg{query: query, results: results}
	}
}

var errNoOpener = errors.New("no image viewer configured")

func (a *App) openMedia(item *storage.Item) tea.Cmd {
	return func() tea.Msg {
		if a.opener == nil {
			return errorMsg{err: errNoOpener}
		}
		if err := a.opener.Open(item.LocalMedia); err != nil {
			return failed("opening "+item.LocalMedia, err)
		}
		return mediaOpenedMsg{path: item.LocalMedia}
	}
}
