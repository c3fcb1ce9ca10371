// Package moderation implements the abusive-language filter applied to user-submitted text.
//
// Text is normalized (lower-cased, common leetspeak folded back to letters, punctuation
// stripped, whitespace collapsed) and then matched word-by-word against the blocklist.
// The normalization is intentionally coarse; callers decide how to enforce a match.
package moderation

import (
	"context"
	"fmt"
	"regexp"
	"strings"
	"sync"
	"unicode"
)

// leetspeak maps disguise characters back to the letter they stand for.
var leetspeak = strings.NewReplacer(
	"@", "a",
	"1", "i",
	"!", "i",
	"0", "o",
	"5", "s",
	"$", "s",
)

// WordSource supplies the current blocklist.
type WordSource interface {
	ListWords(ctx context.Context) ([]string, error)
}

// Filter scans text against the blocklist held by a WordSource. Compiled patterns are reused
// until the word list changes.
type Filter struct {
	source WordSource

	mu      sync.Mutex
	key     string
	matcher *matcher
}

// NewFilter creates a Filter backed by the given word source.
func NewFilter(source WordSource) *Filter {
	return &Filter{source: source}
}

// Scan returns every blocklisted word found in text. The word list is loaded on each call
// so additions by admins take effect immediately. An empty list never matches.
func (f *Filter) Scan(ctx context.Context, text string) ([]string, error) {
	words, err := f.source.ListWords(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to load abusive words: %w", err)
	}
	return f.compiled(words).match(Normalize(text)), nil
}

func (f *Filter) compiled(words []string) *matcher {
	key := strings.Join(words, "\x00")

	f.mu.Lock()
	defer f.mu.Unlock()
	if f.matcher == nil || f.key != key {
		f.key = key
		f.matcher = compile(words)
	}
	return f.matcher
}

// Normalize lower-cases text, substitutes leetspeak characters, drops everything that is not
// a letter, digit or space, and collapses runs of whitespace into a single space.
func Normalize(text string) string {
	text = leetspeak.Replace(strings.ToLower(text))

	var b strings.Builder
	b.Grow(len(text))
	for _, r := range text {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r):
			b.WriteRune(' ')
		}
	}

	return strings.Join(strings.Fields(b.String()), " ")
}

// Match reports which of words occur as whole words in normalized text. Each blocklist entry
// is normalized the same way as the text before matching; duplicates are reported once, in
// list order.
//
// Word boundaries are regexp \b, which only knows ASCII word characters. An entry that starts
// or ends with a non-ASCII letter therefore never matches.
func Match(normalized string, words []string) []string {
	return compile(words).match(normalized)
}

type pattern struct {
	word string
	re   *regexp.Regexp
}

type matcher struct {
	patterns []pattern
}

func compile(words []string) *matcher {
	m := &matcher{patterns: make([]pattern, 0, len(words))}
	seen := make(map[string]bool, len(words))
	for _, word := range words {
		w := Normalize(word)
		if w == "" || seen[w] {
			continue
		}
		seen[w] = true
		m.patterns = append(m.patterns, pattern{
			word: word,
			re:   regexp.MustCompile(`\b` + regexp.QuoteMeta(w) + `\b`),
		})
	}
	return m
}

func (m *matcher) match(normalized string) []string {
	matches := make([]string, 0)
	if normalized == "" {
		return matches
	}
	for _, p := range m.patterns {
		if p.re.MatchString(normalized) {
			matches = append(matches, p.word)
		}
	}
	return matches
}
