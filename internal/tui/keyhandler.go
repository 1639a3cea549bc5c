package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/pders01/tweetsync/internal/search"
	"github.com/pders01/tweetsync/internal/storage"
)

type KeyHandler struct {
	app *App
}

func NewKeyHandler(app *App) *KeyHandler {
	return &KeyHandler{app: app}
}

func (kh *KeyHandler) HandleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := msg.String()

	if kh.isInTextInputMode() {
		return kh.handleTextInputMode(msg)
	}

	if model, cmd, handled := kh.handleCustomKeys(key); handled {
		return model, cmd
	}

	return kh.delegateToCharm(msg)
}

// isInTextInputMode is true while a text field or the list filter owns
// the keyboard.
func (kh *KeyHandler) isInTextInputMode() bool {
	switch kh.app.view {
	case ViewSearch:
		return kh.app.searchInput.Focused()
	case ViewItems:
		return kh.app.itemList.FilterState() == list.Filtering
	default:
		return false
	}
}

func (kh *KeyHandler) handleTextInputMode(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if kh.app.view == ViewItems {
		var cmd tea.Cmd
		kh.app.itemList, cmd = kh.app.itemList.Update(msg)
		return kh.app, cmd
	}

	switch msg.String() {
	case "ctrl+c":
		return kh.app, tea.Quit
	case "esc":
		return kh.navigateBack()
	case "enter", "tab", "down":
		if len(kh.app.searchList.Items()) > 0 {
			kh.app.searchInput.Blur()
			kh.app.searchList.Select(0)
		}
		return kh.app, nil
	}

	var cmd tea.Cmd
	kh.app.searchInput, cmd = kh.app.searchInput.Update(msg)

	query := sanitizeSearchInput(kh.app.searchInput.Value())
	if query == kh.app.lastQuery {
		return kh.app, cmd
	}
	kh.app.lastQuery = query
	if len(query) < 2 {
		kh.app.searchList.SetItems([]list.Item{})
		return kh.app, cmd
	}
	return kh.app, tea.Batch(cmd, kh.app.performSearch(query))
}

func (kh *KeyHandler) handleCustomKeys(key string) (tea.Model, tea.Cmd, bool) {
	switch key {
	case "ctrl+c", "q":
		return kh.app, tea.Quit, true
	case "esc":
		model, cmd := kh.navigateBack()
		return model, cmd, true
	case "ctrl+s":
		model, cmd := kh.enterSearchMode()
		return model, cmd, true
	case "o":
		if item := kh.focusedItem(); item != nil {
			return kh.app, kh.openMedia(item), true
		}
		return kh.app, nil, true
	}

	switch kh.app.view {
	case ViewItems:
		if key == "ctrl+r" {
			return kh.app, kh.app.loadItems(), true
		}
	case ViewSearch:
		switch key {
		case "tab", "shift+tab", "/":
			kh.app.searchInput.Focus()
			return kh.app, nil, true
		case "up":
			if kh.app.searchList.Index() == 0 {
				kh.app.searchInput.Focus()
				return kh.app, nil, true
			}
		}
	}
	return kh.app, nil, false
}

// focusedItem is the item under the cursor or open in the reader.
func (kh *KeyHandler) focusedItem() *storage.Item {
	switch kh.app.view {
	case ViewReader:
		return kh.app.currentItem
	case ViewItems:
		if i, ok := kh.app.itemList.SelectedItem().(tweetItem); ok {
			return i.item
		}
	case ViewSearch:
		if i, ok := kh.app.searchList.SelectedItem().(tweetItem); ok {
			return i.item
		}
	}
	return nil
}

func (kh *KeyHandler) openMedia(item *storage.Item) tea.Cmd {
	if !item.HasMedia() {
		kh.app.setStatus(StatusWarn, MsgNoMedia)
		return nil
	}
	return kh.app.openMedia(item)
}

// delegateToCharm lets the focused bubble handle keys we don't intercept.
func (kh *KeyHandler) delegateToCharm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	switch kh.app.view {
	case ViewItems:
		if msg.String() == "enter" {
			if i, ok := kh.app.itemList.SelectedItem().(tweetItem); ok {
				return kh.openReader(i.item, false)
			}
		}
		kh.app.itemList, cmd = kh.app.itemList.Update(msg)
		return kh.app, cmd

	case ViewSearch:
		if msg.String() == "enter" {
			if i, ok := kh.app.searchList.SelectedItem().(tweetItem); ok {
				return kh.openReader(i.item, true)
			}
		}
		kh.app.searchList, cmd = kh.app.searchList.Update(msg)
		return kh.app, cmd

	case ViewReader:
		kh.app.viewport, cmd = kh.app.viewport.Update(msg)
		return kh.app, cmd
	}
	return kh.app, nil
}

func (kh *KeyHandler) openReader(item *storage.Item, fromSearch bool) (tea.Model, tea.Cmd) {
	kh.app.currentItem = item
	kh.app.cameFromSearch = fromSearch
	kh.app.loadingItem = true
	kh.app.view = ViewReader
	kh.app.setStatus(StatusInfo, MsgLoadingItem)
	return kh.app, kh.app.renderItem(item)
}

func (kh *KeyHandler) navigateBack() (tea.Model, tea.Cmd) {
	switch kh.app.view {
	case ViewSearch:
		kh.app.view = kh.app.previousView
		kh.app.searchInput.Reset()
		kh.app.searchInput.Blur()
		kh.app.lastQuery = ""
		kh.app.searchList.SetItems([]list.Item{})
		return kh.app, nil

	case ViewReader:
		kh.app.currentItem = nil
		kh.app.loadingItem = false
		if kh.app.cameFromSearch {
			kh.app.view = ViewSearch
			kh.app.cameFromSearch = false
			kh.app.searchInput.Blur()
			return kh.app, nil
		}
		kh.app.view = ViewItems
		return kh.app, nil

	default:
		if kh.app.itemList.FilterState() == list.FilterApplied {
			kh.app.itemList.ResetFilter()
			return kh.app, nil
		}
		return kh.app, tea.Quit
	}
}

func (kh *KeyHandler) enterSearchMode() (tea.Model, tea.Cmd) {
	if kh.app.view == ViewSearch {
		kh.app.searchInput.Focus()
		return kh.app, nil
	}
	if kh.app.view != ViewReader {
		kh.app.previousView = kh.app.view
	} else {
		kh.app.previousView = ViewItems
	}
	kh.app.cameFromSearch = false
	kh.app.view = ViewSearch
	kh.app.searchInput.Reset()
	kh.app.searchInput.Focus()
	kh.app.lastQuery = ""
	kh.app.searchList.SetItems([]list.Item{})

	docs := -1
	if dc, ok := kh.app.searcher.(search.DocCounter); ok {
		if n, err := dc.DocCount(); err == nil {
			docs = n
		}
	}
	kh.app.setStatus(StatusInfo, MsgSearchEngine(fmt.Sprintf("%T", kh.app.searcher), docs))
	return kh.app, nil
}

// sanitizeSearchInput trims, caps and collapses whitespace in a query.
func sanitizeSearchInput(input string) string {
	input = strings.Join(strings.Fields(input), " ")
	if r := []rune(input); len(r) > 256 {
		input = string(r[:256])
	}
	return input
}

// GetHelpForCurrentView returns custom key help; list bubbles show their own.
func (kh *KeyHandler) GetHelpForCurrentView() []string {
	switch kh.app.view {
	case ViewItems:
		return []string{"enter: read", "o: open photo", "ctrl+s: search", "ctrl+r: reload"}
	case ViewReader:
		return []string{"o: open photo", "ctrl+s: search", "esc: back"}
	case ViewSearch:
		return []string{"esc: back"}
	default:
		return []string{}
	}
}
