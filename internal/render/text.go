package render

import (
	"fmt"
	"html"
	"strings"

	htmltomarkdown "github.com/JohannesKaufmann/html-to-markdown/v2"
	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

// PlainText strips all markup from rendered content, leaving the tweet text.
func PlainText(content string) string {
	return strings.TrimSpace(html.UnescapeString(strict.Sanitize(content)))
}

// Markdown converts rendered content to Markdown for the terminal reader.
func Markdown(content string) (string, error) {
	md, err := htmltomarkdown.ConvertString(content)
	if err != nil {
		return "", fmt.Errorf("converting content to markdown: %w", err)
	}
	return md, nil
}
