package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/glamour"
	"github.com/charmbracelet/lipgloss"

	"github.com/pders01/tweetsync/internal/render"
	"github.com/pders01/tweetsync/internal/search"
	"github.com/pders01/tweetsync/internal/source"
	"github.com/pders01/tweetsync/internal/storage"
)

// MediaOpener opens a downloaded photo. *media.Launcher satisfies it.
type MediaOpener interface {
	Open(path string) error
}

type App struct {
	store      storage.Store
	searcher   search.Searcher
	opener     MediaOpener
	keyHandler *KeyHandler

	itemList    list.Model
	searchList  list.Model
	searchInput textinput.Model
	viewport    viewport.Model

	view           View
	previousView   View
	cameFromSearch bool

	items       []*storage.Item
	currentItem *storage.Item
	lastQuery   string

	width, height int
	status        string
	statusKind    StatusKind
	err           error

	glamourRenderer *glamour.TermRenderer
	rendererWidth   int
	loadingItem     bool
}

// NewApp builds the browser. A nil searcher falls back to the in-memory
// scorer; a nil opener disables opening photos.
func NewApp(store storage.Store, searcher search.Searcher, opener MediaOpener) *App {
	itemList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	itemList.Title = "› items"
	itemList.SetShowStatusBar(false)
	itemList.SetFilteringEnabled(true)

	searchList := list.New([]list.Item{}, list.NewDefaultDelegate(), 0, 0)
	searchList.Title = "› search results"
	searchList.SetShowStatusBar(false)
	searchList.SetShowHelp(false)
	searchList.SetFilteringEnabled(false)

	si := textinput.New()
	si.Placeholder = "Search imported tweets..."

	if searcher == nil {
		searcher = search.NewEngine(store)
	}

	app := &App{
		store:       store,
		searcher:    searcher,
		opener:      opener,
		itemList:    itemList,
		searchList:  searchList,
		searchInput: si,
		viewport:    viewport.New(0, 0),
		view:        ViewItems,
	}
	app.keyHandler = NewKeyHandler(app)
	return app
}

func (a *App) getRenderer() (*glamour.TermRenderer, error) {
	wrap := (a.width * 9) / 10
	if wrap > 100 {
		wrap = 100
	}
	if wrap < 40 {
		wrap = 40
	}

	if a.glamourRenderer == nil || a.rendererWidth != wrap {
		r, err := glamour.NewTermRenderer(
			glamour.WithAutoStyle(),
			glamour.WithWordWrap(wrap),
		)
		if err != nil {
			return nil, err
		}
		a.glamourRenderer = r
		a.rendererWidth = wrap
	}
	return a.glamourRenderer, nil
}

func (a *App) setStatus(kind StatusKind, text string) {
	a.statusKind = kind
	a.status = text
	if kind != StatusError {
		a.err = nil
	}
}

func (a *App) Init() tea.Cmd {
	return tea.Batch(a.loadItems(), tea.EnterAltScreen)
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.itemList.SetSize(msg.Width, msg.Height-3)
		listHeight := msg.Height - 10
		if listHeight < 5 {
			listHeight = 5
		}
		a.searchList.SetSize(msg.Width, listHeight)
		a.viewport.Width = msg.Width
		a.viewport.Height = msg.Height - 3
		return a, nil

	case tea.KeyMsg:
		return a.keyHandler.HandleKey(msg)

	case itemsLoadedMsg:
		a.items = msg.items
		listItems := make([]list.Item, len(msg.items))
		for i, it := range msg.items {
			listItems[i] = tweetItem{item: it}
		}
		a.itemList.SetItems(listItems)
		a.setStatus(StatusInfo, MsgItemsCount(len(msg.items)))
		return a, nil

	case itemRenderedMsg:
		if a.view == ViewReader && a.currentItem != nil && a.currentItem.ID == msg.id {
			a.viewport.SetContent(msg.content)
			a.viewport.GotoTop()
			a.loadingItem = false
			a.setStatus(StatusInfo, a.currentItem.Title)
		}
		return a, nil

	case searchResultsMsg:
		// drop results for a query the user has already changed
		if a.view == ViewSearch && msg.query == a.lastQuery {
			listItems := make([]list.Item, len(msg.results))
			for i, r := range msg.results {
				listItems[i] = tweetItem{item: r.Item}
			}
			a.searchList.SetItems(listItems)
			if len(msg.results) == 0 {
				a.setStatus(StatusWarn, MsgNoResults)
			} else {
				a.setStatus(StatusInfo, MsgResultsCount(len(msg.results)))
			}
		}
		return a, nil

	case mediaOpenedMsg:
		a.setStatus(StatusSuccess, MsgOpened(msg.path))
		return a, nil

	case errorMsg:
		a.err = msg.err
		a.loadingItem = false
		a.setStatus(StatusError, msg.err.Error())
		return a, nil
	}

	var cmd tea.Cmd
	switch a.view {
	case ViewItems:
		a.itemList, cmd = a.itemList.Update(msg)
	case ViewReader:
		if _, ok := msg.(tea.MouseMsg); ok {
			a.viewport, cmd = a.viewport.Update(msg)
		}
	case ViewSearch:
		a.searchList, cmd = a.searchList.Update(msg)
	}
	return a, cmd
}

func (a *App) View() string {
	bodyHeight := a.height - 3
	var content string

	switch a.view {
	case ViewItems:
		if len(a.items) == 0 {
			content = renderCentered(a.width, bodyHeight, GetWelcomeMessage())
		} else {
			content = a.itemList.View()
		}

	case ViewReader:
		if a.loadingItem {
			content = renderCentered(a.width, bodyHeight, renderMuted(MsgLoadingItem))
		} else {
			content = a.viewport.View()
		}

	case ViewSearch:
		inputWidth := a.width - 8
		if inputWidth < 10 {
			inputWidth = a.width - 4
		}
		a.searchInput.Width = inputWidth

		help := "Type to search • Tab/↓: results • Esc: back"
		if !a.searchInput.Focused() {
			help = "↑↓: navigate • Enter: read • o: open photo • Tab: search box • Esc: back"
		}

		content = lipgloss.NewStyle().
			Width(a.width).
			Height(bodyHeight).
			MaxHeight(bodyHeight).
			Render(lipgloss.JoinVertical(
				lipgloss.Top,
				renderHeader("› search", "", a.width),
				"",
				renderInputFrame(a.searchInput.View(), a.searchInput.Focused(), inputWidth),
				renderHelp(help),
				"",
				a.searchList.View(),
			))
	}

	separatorWidth := a.width
	if separatorWidth < 1 {
		separatorWidth = 1
	}
	separator := SeparatorStyle.Render(strings.Repeat("─", separatorWidth))

	return lipgloss.JoinVertical(lipgloss.Top, content, separator, a.statusBar())
}

func (a *App) statusBar() string {
	if a.err != nil {
		return lipgloss.NewStyle().
			Width(a.width).
			Padding(0, 1).
			Render(StatusErrorStyle.Render(fmt.Sprintf("✗ %v", a.err)))
	}

	parts := a.keyHandler.GetHelpForCurrentView()
	if a.status != "" {
		parts = append([]string{a.statusKind.style().Render(a.status)}, parts...)
	}
	return lipgloss.NewStyle().
		Width(a.width).
		Padding(0, 1).
		Foreground(MutedColor).
		Render(strings.Join(parts, " • "))
}

// tweetItem adapts a stored item to the list delegate.
type tweetItem struct {
	item *storage.Item
}

func (i tweetItem) Title() string {
	title := sourceHandle(i.item) + "  " + truncateEnd(i.plain(), 60)
	if i.item.HasMedia() {
		return MediaBadgeStyle.Render("▣ ") + title
	}
	return title
}

func (i tweetItem) Description() string {
	desc := i.item.Title
	if !i.item.CreatedAt.IsZero() {
		desc += TimeStyle.Render(" • " + i.item.CreatedAt.Local().Format("Jan 2, 15:04"))
	}
	return renderMuted(desc)
}

func (i tweetItem) FilterValue() string {
	return sourceHandle(i.item) + " " + i.plain()
}

func (i tweetItem) plain() string {
	return strings.Join(strings.Fields(render.PlainText(i.item.Content)), " ")
}

// sourceHandle shows where an item came from: @user or #tag.
func sourceHandle(item *storage.Item) string {
	if item.SourceType == source.KindHashtag {
		return "#" + item.SourceLabel
	}
	return "@" + item.SourceLabel
}

type itemsLoadedMsg struct {
	items []*storage.Item
}

type itemRenderedMsg struct {
	id      uint64
	content string
}

type searchResultsMsg struct {
	query   string
	results []*search.Result
}

type mediaOpenedMsg struct {
	path string
}

type errorMsg struct {
	err error
}
