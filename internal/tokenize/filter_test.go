package tokenize

import (
	"reflect"
	"testing"
)

func TestFilterScenario(t *testing.T) {
	stop := OnlyStopwords("the", "and", "on")
	filtered, tokens := Filter("the cat sat on the mat and the cat ran", stop)

	want := []string{"cat", "sat", "mat", "cat", "ran"}
	if !reflect.DeepEqual(tokens, want) {
		t.Fatalf("expected %v, got %v", want, tokens)
	}
	if filtered != "cat sat mat cat ran" {
		t.Fatalf("unexpected filtered text %q", filtered)
	}
}

func TestFilterRules(t *testing.T) {
	stop := OnlyStopwords("The")
	cases := []struct {
		name string
		in   string
		want []string
	}{
		{"case folded stopword", "The THE the tHe cat", []string{"cat"}},
		{"casing preserved", "Data data DATA", []string{"Data", "data", "DATA"}},
		{"digits dropped", "abc123 2024 x", []string{"x"}},
		{"punctuation dropped", "hello, world! don't e-mail ok", []string{"ok"}},
		{"unicode letters kept", "café naïve Straße 東京", []string{"café", "naïve", "Straße", "東京"}},
		{"mixed whitespace", "one\ttwo\nthree\r\nfour five", []string{"one", "two", "three", "four", "five"}},
		{"empty", "", []string{}},
		{"whitespace only", " \n\t ", []string{}},
	}
	for _, c := range cases {
		t.Run(c.name, func(t *testing.T) {
			_, got := Filter(c.in, stop)
			if !reflect.DeepEqual(got, c.want) {
				t.Fatalf("Filter(%q) = %v, want %v", c.in, got, c.want)
			}
		})
	}
}

func TestFilterEmptyYieldsEmptyList(t *testing.T) {
	filtered, tokens := Filter("", NewStopwordSet())
	if filtered != "" {
		t.Fatalf("expected empty filtered text, got %q", filtered)
	}
	if tokens == nil || len(tokens) != 0 {
		t.Fatalf("expected empty non-nil token list, got %#v", tokens)
	}
}

func TestIsAlpha(t *testing.T) {
	for _, s := range []string{"a", "Zebra", "ñandú"} {
		if !IsAlpha(s) {
			t.Fatalf("expected %q to be alphabetic", s)
		}
	}
	for _, s := range []string{"", "a1", "it's", "x-y", "😀"} {
		if IsAlpha(s) {
			t.Fatalf("expected %q to be rejected", s)
		}
	}
}
