package tui

type View int

const (
	ViewItems View = iota
	ViewReader
	ViewSearch
)
