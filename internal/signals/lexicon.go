package signals

import (
	"strings"
	"unicode"
)

var curiosityPhrases = []string{
	"wait", "watch this", "you won't believe", "guess what", "here's why",
	"the secret", "nobody", "what happened", "turns out", "until", "but then",
	"how", "why", "look at",
}

var fillerWords = map[string]bool{
	"um": true, "uh": true, "erm": true, "hmm": true, "like": true,
	"basically": true, "literally": true, "actually": true, "so": true,
	"okay": true, "right": true,
}

var intentKeywords = map[string]bool{
	"insane": true, "crazy": true, "never": true, "best": true, "worst": true,
	"secret": true, "mistake": true, "finally": true, "huge": true, "shocking": true,
	"free": true, "hack": true, "wrong": true, "first": true, "only": true,
	"biggest": true, "impossible": true, "win": true, "lost": true, "money": true,
}

// words splits text into lowercase word tokens.
func words(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

// keywordIntensity is the share of high-intent words, saturating at one in four.
func keywordIntensity(text string) float64 {
	tokens := words(text)
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, w := range tokens {
		if intentKeywords[w] {
			hits++
		}
	}
	if strings.Contains(text, "!") {
		hits++
	}
	return unit(float64(hits) / float64(len(tokens)) * 4)
}

// curiosityTrigger scores open loops: questions and curiosity phrases.
func curiosityTrigger(text string) float64 {
	lower := strings.ToLower(text)
	score := 0.0
	if strings.Contains(lower, "?") {
		score += 0.4
	}
	for _, phrase := range curiosityPhrases {
		if strings.Contains(lower, phrase) {
			score += 0.3
		}
	}
	return unit(score)
}

// fillerDensity is the share of filler words in the cue.
func fillerDensity(text string) float64 {
	tokens := words(text)
	if len(tokens) == 0 {
		return 0
	}
	hits := 0
	for _, w := range tokens {
		if fillerWords[w] {
			hits++
		}
	}
	return unit(float64(hits) / float64(len(tokens)))
}

// ContainsAny reports whether text contains any of the given lowercase phrases.
func ContainsAny(text string, phrases ...string) bool {
	lower := " " + strings.ToLower(text) + " "
	for _, p := range phrases {
		if strings.Contains(lower, p) {
			return true
		}
	}
	return false
}
