package tui

import (
	"fmt"

	"github.com/charmbracelet/lipgloss"
)

const AppName = "tweetsync"

var LogoLines = []string{
	"▀█▀ █ █ █ █▀▀ █▀▀ ▀█▀ █▀▀ █ █ █▄ █ █▀▀",
	" █  █▄▀▄█ █▀▀ █▀▀  █  ▀▀█  █  █ ▀█ █  ",
	" ▀   ▀ ▀  ▀▀▀ ▀▀▀  ▀  ▀▀▀  ▀  ▀  ▀ ▀▀▀",
}

var BannerColors = []lipgloss.Color{
	lipgloss.Color("#1DA1F2"),
	lipgloss.Color("#4ECDC4"),
	lipgloss.Color("#95E1D3"),
}

var (
	PrimaryColor   = lipgloss.Color("#1DA1F2") // sky blue
	SecondaryColor = lipgloss.Color("#4ECDC4")
	AccentColor    = lipgloss.Color("#95E1D3")

	MutedColor = lipgloss.Color("#94A3B8")

	HighlightColor = lipgloss.Color("#FFE66D")
	ErrorColor     = lipgloss.Color("#EF4444")
	SuccessColor   = lipgloss.Color("#10B981")
)

var (
	LogoStyle = lipgloss.NewStyle().
			Foreground(PrimaryColor).
			Bold(true)

	HeaderStyle = lipgloss.NewStyle().
			Foreground(SecondaryColor).
			Bold(true)

	MediaBadgeStyle = lipgloss.NewStyle().
			Foreground(HighlightColor).
			Bold(true)

	HelpStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Italic(true)

	TimeStyle = lipgloss.NewStyle().
			Foreground(MutedColor).
			Faint(true)

	SeparatorStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	StatusInfoStyle = lipgloss.NewStyle().
			Foreground(MutedColor)

	StatusSuccessStyle = lipgloss.NewStyle().
				Foreground(SuccessColor)

	StatusWarnStyle = lipgloss.NewStyle().
			Foreground(HighlightColor)

	StatusErrorStyle = lipgloss.NewStyle().
				Foreground(ErrorColor).
				Bold(true)
)

func GetWelcomeMessage() string {
	return GetCompactBanner(MsgNoItems)
}

func GetCompactBanner(message string) string {
	var coloredLines []string
	for _, line := range LogoLines {
		coloredLines = append(coloredLines, LogoStyle.Render(line))
	}

	return lipgloss.JoinVertical(
		lipgloss.Center,
		lipgloss.JoinVertical(lipgloss.Center, coloredLines...),
		"",
		HelpStyle.Render(message),
	)
}

// Banner renders the boxed logo with a version tagline.
func Banner(version string) string {
	lines := make([]string, len(LogoLines), len(LogoLines)+2)
	copy(lines, LogoLines)
	lines = append(lines, "")

	tag := "Tweet importer"
	if version != "" && version != "dev" {
		if version[0] != 'v' && version[0] != 'V' {
			version = "v" + version
		}
		tag += " " + version
	}
	lines = append(lines, tag)

	var colored []string
	for i, line := range lines {
		if line == "" {
			colored = append(colored, line)
			continue
		}
		style := lipgloss.NewStyle().
			Foreground(BannerColors[i%len(BannerColors)]).
			Bold(i < len(LogoLines))
		colored = append(colored, style.Render(line))
	}

	border := lipgloss.Border{
		Top:         "═",
		Bottom:      "═",
		Left:        "║",
		Right:       "║",
		TopLeft:     "╔",
		TopRight:    "╗",
		BottomLeft:  "╚",
		BottomRight: "╝",
	}

	return lipgloss.NewStyle().
		Border(border).
		BorderForeground(SecondaryColor).
		Padding(1, 3).
		Render(lipgloss.JoinVertical(lipgloss.Center, colored...))
}

func ShowBanner(version string) {
	fmt.Println(Banner(version))
}
