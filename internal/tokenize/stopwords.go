package tokenize

import (
	_ "embed"
	"sort"
	"strings"
	"sync"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

//go:embed stopwords.txt
var baseStopwordsFile string

var (
	baseOnce sync.Once
	baseSet  map[string]struct{}
)

func base() map[string]struct{} {
	baseOnce.Do(func() {
		baseSet = make(map[string]struct{})
		for _, line := range strings.Split(baseStopwordsFile, "\n") {
			w := strings.TrimSpace(line)
			if w != "" && !strings.HasPrefix(w, "#") {
				baseSet[w] = struct{}{}
			}
		}
	})
	return baseSet
}

// StopwordSet is an immutable set of lowercase words.
type StopwordSet struct {
	words map[string]struct{}
}

// NewStopwordSet returns the built-in English list plus extra. Extra terms
// are trimmed and lowercased; blank terms are ignored.
func NewStopwordSet(extra ...string) StopwordSet {
	lower := cases.Lower(language.Und)
	b := base()
	words := make(map[string]struct{}, len(b)+len(extra))
	for w := range b {
		words[w] = struct{}{}
	}
	for _, w := range extra {
		w = strings.TrimSpace(w)
		if w == "" {
			continue
		}
		words[lower.String(w)] = struct{}{}
	}
	return StopwordSet{words: words}
}

// OnlyStopwords builds a set from words alone, without the built-in list.
func OnlyStopwords(words ...string) StopwordSet {
	lower := cases.Lower(language.Und)
	set := make(map[string]struct{}, len(words))
	for _, w := range words {
		w = strings.TrimSpace(w)
		if w != "" {
			set[lower.String(w)] = struct{}{}
		}
	}
	return StopwordSet{words: set}
}

// ParseExtra splits a comma-separated list as typed by a user.
func ParseExtra(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part != "" {
			out = append(out, part)
		}
	}
	return out
}

// Contains expects w already lowercased.
func (s StopwordSet) Contains(w string) bool {
	_, ok := s.words[w]
	return ok
}

func (s StopwordSet) Len() int { return len(s.words) }

// Words returns the members in sorted order.
func (s StopwordSet) Words() []string {
	out := make([]string, 0, len(s.words))
	for w := range s.words {
		out = append(out, w)
	}
	sort.Strings(out)
	return out
}
