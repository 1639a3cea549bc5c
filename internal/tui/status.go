package tui

import (
	"fmt"
	"strings"
)

// Canonical short status messages used across the app.
const (
	MsgLoadingItem = "Loading item…"
	MsgNoResults   = "No results"
	MsgNoMedia     = "No local photo for this item"
	MsgNoItems     = "No items yet. Run `tweetsync import` first."
)

func MsgItemsCount(n int) string {
	if n == 1 {
		return "1 item"
	}
	return fmt.Sprintf("%d items", n)
}

func MsgResultsCount(n int) string {
	if n == 1 {
		return "1 result"
	}
	return fmt.Sprintf("%d results", n)
}

func MsgSearchEngine(name string, docs int) string {
	base := "Search: " + strings.TrimPrefix(name, "*search.")
	if docs >= 0 {
		base += fmt.Sprintf(" • idx: %d docs", docs)
	}
	return base
}

func MsgOpened(path string) string {
	return "Opened " + truncateMiddle(path, 48)
}
