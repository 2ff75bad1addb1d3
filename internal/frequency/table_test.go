package frequency

import (
	"reflect"
	"testing"
)

func TestAggregateScenario(t *testing.T) {
	tab := Aggregate([]string{"cat", "sat", "mat", "cat", "ran"})

	if tab.Total() != 5 {
		t.Fatalf("expected total 5, got %d", tab.Total())
	}
	want := []Entry{{"cat", 2}, {"sat", 1}, {"mat", 1}, {"ran", 1}}
	if got := tab.Sorted(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
	if got := tab.Top(2); !reflect.DeepEqual(got, want[:2]) {
		t.Fatalf("expected %v, got %v", want[:2], got)
	}
}

func TestAggregateIsCaseSensitive(t *testing.T) {
	tab := Aggregate([]string{"Data", "data", "Data", "DATA"})
	if tab.Len() != 3 {
		t.Fatalf("expected 3 distinct entries, got %d", tab.Len())
	}
	if tab.Count("Data") != 2 || tab.Count("data") != 1 || tab.Count("DATA") != 1 {
		t.Fatalf("unexpected counts %v", tab.Entries())
	}
}

func TestTotalEqualsTokenCount(t *testing.T) {
	inputs := [][]string{
		nil,
		{},
		{"a"},
		{"a", "b", "a", "c", "b", "a"},
		{"x", "X", "x", "x", "y"},
	}
	for _, tokens := range inputs {
		tab := Aggregate(tokens)
		sum := 0
		for _, e := range tab.Entries() {
			sum += e.Count
		}
		if sum != len(tokens) || tab.Total() != len(tokens) {
			t.Fatalf("tokens=%v: sum=%d total=%d want %d", tokens, sum, tab.Total(), len(tokens))
		}
	}
}

func TestSortedTieBreakByFirstOccurrence(t *testing.T) {
	tab := Aggregate([]string{"z", "y", "x", "y", "w", "x", "z"})
	want := []Entry{{"z", 2}, {"y", 2}, {"x", 2}, {"w", 1}}
	if got := tab.Sorted(); !reflect.DeepEqual(got, want) {
		t.Fatalf("expected %v, got %v", want, got)
	}
}

func TestEmptyTable(t *testing.T) {
	tab := Aggregate(nil)
	if tab.Len() != 0 || tab.Total() != 0 || len(tab.Sorted()) != 0 || len(tab.Top(10)) != 0 {
		t.Fatalf("expected empty table")
	}
	if tab.Count("missing") != 0 {
		t.Fatalf("expected zero count")
	}
}

func TestEntriesIsACopy(t *testing.T) {
	tab := Aggregate([]string{"a", "a"})
	e := tab.Entries()
	e[0].Count = 99
	if tab.Count("a") != 2 {
		t.Fatalf("table must not be mutated through Entries")
	}
}

func TestFromEntries(t *testing.T) {
	tab := FromEntries([]Entry{{"a", 2}, {"b", 0}, {"c", 3}, {"a", 1}})
	if tab.Len() != 2 || tab.Count("a") != 3 || tab.Total() != 6 {
		t.Fatalf("unexpected table %v total=%d", tab.Entries(), tab.Total())
	}
}
