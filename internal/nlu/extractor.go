// internal/nlu/extractor.go
package nlu

import (
	"math"
	"strings"
)

const (
	keywordWeight  = 0.7
	patternWeight  = 0.3
	categoryBonus  = 0.2
	colorBonus     = 0.1
	maxConfidence  = 1.0
	sizeIntroducer = "talla"
)

type Entities struct {
	Color string `json:"color,omitempty"`
	Talla string `json:"talla,omitempty"`
}

type Result struct {
	Intent     Intent             `json:"intent"`
	Entities   Entities           `json:"entities"`
	Confidence float64            `json:"confidence"`
	Scores     map[Intent]float64 `json:"scores,omitempty"`
}

// Extractor is stateless; the zero value is ready to use.
type Extractor struct{}

func NewExtractor() *Extractor {
	return &Extractor{}
}

// Extract classifies an utterance into one of the fixed intents and pulls
// color and size entities out of it.
func (e *Extractor) Extract(utterance string) Result {
	text := normalizeText(utterance)
	result := Result{Intent: IntentNone, Scores: make(map[Intent]float64, len(intentRules))}
	if text == "" {
		return result
	}

	bonus := 0.0
	if containsAny(text, categoryKeywords) {
		bonus += categoryBonus
	}
	if _, ok := findColor(text); ok {
		bonus += colorBonus
	}

	// The winner is picked on raw scores; only reported values are clamped.
	best := 0.0
	for _, rule := range intentRules {
		score := scoreIntent(text, rule) + bonus
		result.Scores[rule.intent] = math.Min(score, maxConfidence)
		if score > best {
			best = score
			result.Intent = rule.intent
		}
	}
	if best <= 0 {
		result.Intent = IntentNone
		result.Confidence = 0
	} else {
		result.Confidence = math.Min(best, maxConfidence)
	}

	result.Entities.Color, _ = findColor(text)
	result.Entities.Talla = findSize(text)
	return result
}

func scoreIntent(text string, rule intentRule) float64 {
	kw := 0
	for _, k := range rule.keywords {
		if containsPhrase(text, k) {
			kw++
		}
	}
	pt := 0
	for _, p := range rule.patterns {
		if p.MatchString(text) {
			pt++
		}
	}

	score := 0.0
	if len(rule.keywords) > 0 {
		score += keywordWeight * float64(kw) / float64(len(rule.keywords))
	}
	if len(rule.patterns) > 0 {
		score += patternWeight * float64(pt) / float64(len(rule.patterns))
	}
	return score
}

func containsAny(text string, words []string) bool {
	for _, w := range words {
		if containsPhrase(text, w) {
			return true
		}
	}
	return false
}

// findColor returns the catalog color of the earliest color word in text.
func findColor(text string) (string, bool) {
	tokens := strings.Fields(text)
	for i := range tokens {
		if i+1 < len(tokens) {
			pair := tokens[i] + " " + tokens[i+1]
			for _, c := range colorSynonyms {
				if c.word == pair {
					return c.canonical, true
				}
			}
		}
		for _, c := range colorSynonyms {
			if c.word == tokens[i] {
				return c.canonical, true
			}
		}
	}
	return "", false
}

// findSize returns the first standalone size token, or one glued to "talla".
func findSize(text string) string {
	for _, tok := range strings.Fields(text) {
		candidate := tok
		if strings.HasPrefix(tok, sizeIntroducer) && len(tok) > len(sizeIntroducer) {
			candidate = strings.TrimPrefix(tok, sizeIntroducer)
		}
		for _, s := range sizeTokens {
			if candidate == s {
				return strings.ToUpper(s)
			}
		}
	}
	return ""
}

// ColorFromText exposes color entity extraction to the search layer.
func ColorFromText(s string) (string, bool) {
	return findColor(normalizeText(s))
}

// QueryTerms keeps the words of an utterance that can match catalog text. Filler,
// intent keywords and size tokens are dropped.
func QueryTerms(utterance string) []string {
	drop := make(map[string]bool, len(fillerWords)+len(sizeTokens))
	for w := range fillerWords {
		drop[w] = true
	}
	for _, s := range sizeTokens {
		drop[s] = true
	}
	for _, rule := range intentRules {
		for _, k := range rule.keywords {
			drop[k] = true
		}
	}

	var out []string
	for _, tok := range Tokens(Fold(utterance)) {
		if !drop[tok] {
			out = append(out, tok)
		}
	}
	return out
}
