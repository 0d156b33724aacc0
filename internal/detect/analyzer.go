// Package detect holds the keyword threat analyzer and the continuous
// transcript listener that feeds it.
package detect

import "strings"

// Keyword corpus. Matching is case-insensitive substring containment
// with no tokenization, so "no" also fires inside "know" -- a known and
// accepted property of this deliberately crude detector.
var threatKeywords = []string{
	"help", "emergency", "sos", "danger", "save me", "help me",
	"in trouble", "not safe", "scared", "afraid", "stop", "no",
	"stalking", "following", "attack", "harass", "threat", "threatened",
	"unsafe", "call police",
}

// Short utterances the voice variant treats as potential screams.
// Real audio analysis is out of scope; these are transcript tokens.
var screamTokens = []string{
	"ah", "aah", "aaah", "ahh", "aaahh", "aaahhh",
}

// ThreatMatch is the result of analyzing one text fragment. Level is a
// keyword-density score in [0,1], not a calibrated probability.
type ThreatMatch struct {
	MatchedKeywords []string `json:"matched_keywords"`
	Level           float64  `json:"level"`
}

type Analyzer struct {
	keywords []string
}

// NewAnalyzer builds an analyzer over the fixed corpus. Scream tokens
// are optional because only the voice-oriented client sends them.
func NewAnalyzer(includeScreamTokens bool) *Analyzer {
	keywords := make([]string, 0, len(threatKeywords)+len(screamTokens))
	keywords = append(keywords, threatKeywords...)
	if includeScreamTokens {
		keywords = append(keywords, screamTokens...)
	}
	return &Analyzer{keywords: keywords}
}

// Analyze scores a text fragment against the corpus. Three or more
// distinct keyword hits saturate the level at 1. Pure function: no
// side effects, deterministic for a given input.
func (a *Analyzer) Analyze(text string) ThreatMatch {
	if strings.TrimSpace(text) == "" {
		return ThreatMatch{}
	}

	lower := strings.ToLower(text)

	var matched []string
	for _, keyword := range a.keywords {
		if strings.Contains(lower, keyword) {
			matched = append(matched, keyword)
		}
	}

	if len(matched) == 0 {
		return ThreatMatch{}
	}

	level := float64(len(matched)) / 3
	if level > 1 {
		level = 1
	}

	return ThreatMatch{MatchedKeywords: matched, Level: level}
}
