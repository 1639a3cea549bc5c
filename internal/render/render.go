// Package render turns tweet text into linked HTML and back into text forms
// for indexing and terminal display.
package render

import (
	"html"
	"strings"

	"github.com/pders01/tweetsync/internal/twitter"
)

// Render replaces every entity token in text with an anchor to its target.
//
// Passes run in a fixed order: media, hashtags, mentions, URLs. Each pass is a
// literal replace-all of the token, so repeated tokens are all linked and a
// missing entity list is simply skipped. A token listed twice is replaced
// once. A token that also occurs inside an anchor inserted by an earlier pass
// gets replaced there too.
func Render(text string, entities twitter.Entities) string {
	content := text

	p := newPass()
	for _, m := range entities.Media {
		content = p.replace(content, m.URL, m.URL)
	}
	p = newPass()
	for _, h := range entities.Hashtags {
		content = p.replace(content, "#"+h.Text, HashtagURL(h.Text))
	}
	p = newPass()
	for _, u := range entities.UserMentions {
		content = p.replace(content, "@"+u.ScreenName, ProfileURL(u.ScreenName))
	}
	p = newPass()
	for _, u := range entities.URLs {
		content = p.replace(content, u.URL, u.URL)
	}

	return content
}

type pass map[string]struct{}

func newPass() pass {
	return make(pass)
}

func (p pass) replace(content, token, target string) string {
	if token == "" || token == "#" || token == "@" {
		return content
	}
	// a token listed twice is wrapped once, not re-wrapped inside its own anchor
	if _, done := p[token]; done {
		return content
	}
	p[token] = struct{}{}
	return strings.ReplaceAll(content, token, Anchor(token, target))
}

// Anchor builds an external link that opens in a new browsing context.
func Anchor(text, target string) string {
	return `<a href="` + html.EscapeString(target) + `" target="_blank">` + text + `</a>`
}
