// Package frequency counts retained tokens.
//
// Counting is case-sensitive: "Data" and "data" are distinct entries. Entries
// keep first-occurrence order so display ties break deterministically.
package frequency

import "sort"

type Entry struct {
	Word  string `json:"word"`
	Count int    `json:"count"`
}

// Table is an immutable word→count mapping in first-occurrence order.
type Table struct {
	entries []Entry
	index   map[string]int
	total   int
}

func Aggregate(tokens []string) Table {
	t := Table{index: make(map[string]int)}
	for _, tok := range tokens {
		if i, ok := t.index[tok]; ok {
			t.entries[i].Count++
		} else {
			t.index[tok] = len(t.entries)
			t.entries = append(t.entries, Entry{Word: tok, Count: 1})
		}
		t.total++
	}
	return t
}

// Len is the number of distinct words.
func (t Table) Len() int { return len(t.entries) }

// Total is the number of tokens counted; it equals the input length.
func (t Table) Total() int { return t.total }

func (t Table) Count(word string) int {
	if i, ok := t.index[word]; ok {
		return t.entries[i].Count
	}
	return 0
}

// Entries returns a copy in first-occurrence order.
func (t Table) Entries() []Entry {
	out := make([]Entry, len(t.entries))
	copy(out, t.entries)
	return out
}

// Sorted orders by descending count; ties keep first-occurrence order.
func (t Table) Sorted() []Entry {
	out := t.Entries()
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].Count > out[j].Count
	})
	return out
}

// Top returns at most n entries of Sorted.
func (t Table) Top(n int) []Entry {
	out := t.Sorted()
	if n < 0 {
		n = 0
	}
	if n < len(out) {
		out = out[:n]
	}
	return out
}

// FromEntries rebuilds a table, merging repeated words.
func FromEntries(entries []Entry) Table {
	t := Table{index: make(map[string]int)}
	for _, e := range entries {
		if e.Count <= 0 {
			continue
		}
		if i, ok := t.index[e.Word]; ok {
			t.entries[i].Count += e.Count
		} else {
			t.index[e.Word] = len(t.entries)
			t.entries = append(t.entries, e)
		}
		t.total += e.Count
	}
	return t
}
