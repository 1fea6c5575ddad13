package trigram

import (
	"sort"
	"testing"
)

func sorted(s []string) []string {
	out := append([]string(nil), s...)
	sort.Strings(out)
	return out
}

func TestNormalizeRemovesSpaces(t *testing.T) {
	if got := Normalize("test test test"); got != "testtesttest" {
		t.Fatalf("got %q", got)
	}
	if got := Normalize("  test     test test  "); got != "testtesttest" {
		t.Fatalf("got %q", got)
	}
	if got := Normalize("test\ttest test"); got != "testtesttest" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeRemovesNewlines(t *testing.T) {
	if got := Normalize("test\ntest test\n"); got != "testtesttest" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeRemovesSpecialCharacters(t *testing.T) {
	if got := Normalize("test-test_test"); got != "testtesttest" {
		t.Fatalf("got %q", got)
	}
}

func TestNormalizeIsCaseInsensitive(t *testing.T) {
	if got := Normalize("Test TEST test"); got != "testtesttest" {
		t.Fatalf("got %q", got)
	}
}

func TestExtractEmptyForBlank(t *testing.T) {
	if got := Extract(" "); len(got) != 0 {
		t.Fatalf("expected empty, got %v", got)
	}
}

func TestExtractSingleForShortText(t *testing.T) {
	got := Extract("HI")
	if len(got) != 1 || got[0] != "hi" {
		t.Fatalf("got %v", got)
	}
}

func TestExtractTrigrams(t *testing.T) {
	got := sorted(Extract("test test test"))
	want := sorted([]string{
		"t", "e", "s",
		"te", "es", "st", "tt",
		"tes", "est", "stt", "tte",
	})
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestExtractUnicodeTrigrams(t *testing.T) {
	got := sorted(Extract("Привет-Мир"))
	want := sorted([]string{
		"п", "р", "и", "в", "е", "т", "м",
		"пр", "ри", "ив", "ве", "ет", "тм", "ми", "ир",
		"при", "рив", "иве", "вет", "етм", "тми", "мир",
	})
	if len(got) != len(want) {
		t.Fatalf("got %v want %v", got, want)
	}
	for i := range got {
		if got[i] != want[i] {
			t.Fatalf("got %v want %v", got, want)
		}
	}
}

func TestSearchBoundEmpty(t *testing.T) {
	if _, ok := SearchBound(""); ok {
		t.Fatal("expected no bound")
	}
	if _, ok := SearchBound("-"); ok {
		t.Fatal("expected no bound for special-only input")
	}
}

func TestSearchBoundShort(t *testing.T) {
	cases := map[string]string{
		"A":   "a",
		"Ab":  "ab",
		"Abc": "abc",
	}
	for in, want := range cases {
		got, ok := SearchBound(in)
		if !ok || got != want {
			t.Fatalf("SearchBound(%q) = %q,%v want %q", in, got, ok, want)
		}
	}
}

func TestSearchBoundShortUnicode(t *testing.T) {
	got, ok := SearchBound("Йц")
	if !ok || got != "йц" {
		t.Fatalf("got %q,%v", got, ok)
	}
}

func TestSearchBoundLong(t *testing.T) {
	got, ok := SearchBound("John Smith")
	if !ok || got != "joh" {
		t.Fatalf("got %q,%v", got, ok)
	}
}

func TestSearchBoundLongUnicode(t *testing.T) {
	got, ok := SearchBound("Иван Кузнецов")
	if !ok || got != "ива" {
		t.Fatalf("got %q,%v", got, ok)
	}
}
