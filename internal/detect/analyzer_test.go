package detect

import (
	"reflect"
	"testing"
)

func TestAnalyzeEmptyInput(t *testing.T) {
	a := NewAnalyzer(false)

	for _, text := range []string{"", "   ", "\n\t"} {
		match := a.Analyze(text)
		if match.Level != 0 || len(match.MatchedKeywords) != 0 {
			t.Errorf("Analyze(%q) = %+v, want zero value", text, match)
		}
	}
}

func TestAnalyzeCleanText(t *testing.T) {
	a := NewAnalyzer(true)

	match := a.Analyze("the weather is lovely today")
	if match.Level != 0 {
		t.Errorf("clean text scored %.2f with keywords %v", match.Level, match.MatchedKeywords)
	}
}

func TestAnalyzeSingleKeyword(t *testing.T) {
	a := NewAnalyzer(false)

	match := a.Analyze("I am scared")
	if len(match.MatchedKeywords) != 1 || match.MatchedKeywords[0] != "scared" {
		t.Fatalf("matched = %v, want [scared]", match.MatchedKeywords)
	}
	if want := 1.0 / 3; match.Level != want {
		t.Errorf("level = %v, want %v", match.Level, want)
	}
}

func TestAnalyzeSaturatesAtOne(t *testing.T) {
	a := NewAnalyzer(false)

	match := a.Analyze("help me, I am scared, emergency")
	if len(match.MatchedKeywords) < 3 {
		t.Fatalf("matched = %v, want at least 3 keywords", match.MatchedKeywords)
	}
	if match.Level != 1 {
		t.Errorf("level = %v, want 1", match.Level)
	}
}

func TestAnalyzeCaseInsensitive(t *testing.T) {
	a := NewAnalyzer(false)

	lower := a.Analyze("someone is following me")
	upper := a.Analyze("SOMEONE IS FOLLOWING ME")

	if !reflect.DeepEqual(lower, upper) {
		t.Errorf("case changed the result: %+v vs %+v", lower, upper)
	}
	if lower.Level == 0 {
		t.Error("expected 'following' to match")
	}
}

func TestAnalyzeDeterministic(t *testing.T) {
	a := NewAnalyzer(true)

	first := a.Analyze("danger, call police")
	second := a.Analyze("danger, call police")

	if !reflect.DeepEqual(first, second) {
		t.Errorf("same input gave different results: %+v vs %+v", first, second)
	}
}

func TestScreamTokensToggle(t *testing.T) {
	with := NewAnalyzer(true).Analyze("aaahhh")
	if with.Level != 1 {
		t.Errorf("scream tokens enabled: level = %v, want 1", with.Level)
	}

	without := NewAnalyzer(false).Analyze("aaahhh")
	if without.Level != 0 {
		t.Errorf("scream tokens disabled: level = %v, want 0", without.Level)
	}
}
