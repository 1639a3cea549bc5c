package search

import (
	"context"
	"math"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/pders01/tweetsync/internal/render"
	"github.com/pders01/tweetsync/internal/storage"
)

// Result is one matching item with its relevance score.
type Result struct {
	Item    *storage.Item
	Score   float64
	Matches []Match
}

// Match records where a query term was found.
type Match struct {
	Field  string // "title", "content", "source", "tags"
	Text   string
	Weight float64
}

// Engine scores stored items in memory without an index.
type Engine struct {
	store storage.Store
	now   func() time.Time
}

// NewEngine creates an index-free search engine over store.
func NewEngine(store storage.Store) *Engine {
	return &Engine{store: store, now: time.Now}
}

// Search scores every stored item against query and returns the best limit.
// Queries shorter than two characters return nothing.
func (e *Engine) Search(ctx context.Context, query string, limit int) ([]*Result, error) {
	if len(strings.TrimSpace(query)) < 2 {
		return []*Result{}, nil
	}

	terms := tokenize(query)
	if len(terms) == 0 {
		return []*Result{}, nil
	}

	items, err := e.store.ListItems(ctx, storage.ItemQuery{})
	if err != nil {
		return nil, err
	}

	results := make([]*Result, 0)
	for _, item := range items {
		if r := e.searchItem(item, terms); r != nil {
			results = append(results, r)
		}
	}

	sort.SliceStable(results, func(i, j int) bool {
		return results[i].Score > results[j].Score
	})

	if limit > 0 && len(results) > limit {
		results = results[:limit]
	}
	return results, nil
}

func (e *Engine) searchItem(item *storage.Item, terms []string) *Result {
	var matches []Match
	var total float64

	add := func(field, text, snippet string, weight float64) {
		if s := scoreField(text, terms, weight); s > 0 {
			matches = append(matches, Match{Field: field, Text: snippet, Weight: s})
			total += s
		}
	}

	content := render.PlainText(item.Content)
	add("content", content, findBestSnippet(content, terms, 200), 2.0)
	add("source", item.SourceLabel, item.SourceLabel, 1.5)

	tags := strings.Join(append(append([]string{}, item.Hashtags...), item.Mentions...), " ")
	add("tags", tags, tags, 1.0)
	add("title", item.Title, item.Title, 0.5)

	if total == 0 {
		return nil
	}
	total *= 1.0 + recencyBoost(item.CreatedAt, e.now())
	return &Result{Item: item, Score: total, Matches: matches}
}

// scoreField rewards substring, whole-word and prefix/suffix hits, then
// scales by how densely the terms occur.
func scoreField(text string, terms []string, weight float64) float64 {
	if text == "" {
		return 0
	}

	lower := strings.ToLower(text)
	words := tokenize(text)
	if len(words) == 0 {
		return 0
	}

	var score float64
	matched := 0
	for _, term := range terms {
		if strings.Contains(lower, term) {
			score += 2.0
			matched++
		}
		for _, word := range words {
			switch {
			case word == term:
				score += 1.5
				matched++
			case strings.HasPrefix(word, term) || strings.HasSuffix(word, term):
				score += 1.0
				matched++
			case strings.Contains(word, term):
				score += 0.5
				matched++
			}
		}
	}

	if len(terms) > 1 && matched > 1 {
		score *= 1.0 + float64(matched)/float64(len(terms))
	}

	tf := float64(matched) / float64(len(words))
	score *= 1.0 + math.Log(1.0+tf)

	return score * weight
}

// findBestSnippet returns the window of text holding the most terms.
func findBestSnippet(text string, terms []string, maxLength int) string {
	words := strings.Fields(text)
	if len(words) == 0 {
		return ""
	}

	window := maxLength / 8
	if window >= len(words) {
		return truncate(text, maxLength)
	}

	best, bestStart := 0, 0
	for i := 0; i <= len(words)-window; i++ {
		chunk := strings.ToLower(strings.Join(words[i:i+window], " "))
		score := 0
		for _, term := range terms {
			if strings.Contains(chunk, term) {
				score++
			}
		}
		if score > best {
			best, bestStart = score, i
		}
	}

	return truncate(strings.Join(words[bestStart:bestStart+window], " "), maxLength)
}

// tokenize lowercases text and splits it into words of two or more letters
// or digits.
func tokenize(text string) []string {
	var terms []string
	var current strings.Builder

	flush := func() {
		if current.Len() > 1 {
			terms = append(terms, current.String())
		}
		current.Reset()
	}

	for _, r := range text {
		if unicode.IsLetter(r) || unicode.IsNumber(r) {
			current.WriteRune(unicode.ToLower(r))
			continue
		}
		flush()
	}
	flush()

	return terms
}

func truncate(text string, maxLen int) string {
	runes := []rune(text)
	if len(runes) <= maxLen {
		return text
	}
	return string(runes[:maxLen-1]) + "…"
}

// recencyBoost favours items from the last week, up to 10%.
func recencyBoost(created, now time.Time) float64 {
	if created.IsZero() {
		return 0
	}
	age := now.Sub(created)
	week := 7 * 24 * time.Hour
	if age < 0 {
		age = 0
	}
	if age >= week {
		return 0
	}
	return 0.1 * (1 - float64(age)/float64(week))
}
