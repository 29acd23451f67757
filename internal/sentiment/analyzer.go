package sentiment

import (
	"strings"
	"unicode"
)

// Scorer maps text to a polarity in [-1, 1]
type Scorer interface {
	AnalyzeSentiment(text string) float64
}

// Analyzer performs lexicon-based polarity scoring.
// The score is the mean polarity of the matched words, so a single
// strong word in a long headline still moves the result.
type Analyzer struct {
	lexicon      map[string]float64
	intensifiers map[string]float64
	negations    map[string]struct{}
}

// NewAnalyzer creates new sentiment analyzer
func NewAnalyzer() *Analyzer {
	return &Analyzer{
		lexicon:      buildLexicon(),
		intensifiers: buildIntensifiers(),
		negations: map[string]struct{}{
			"not": {}, "no": {}, "never": {}, "without": {},
			"isn't": {}, "aren't": {}, "wasn't": {}, "don't": {}, "doesn't": {}, "didn't": {},
		},
	}
}

// AnalyzeSentiment analyzes text and returns sentiment score (-1.0 to 1.0)
func (a *Analyzer) AnalyzeSentiment(text string) float64 {
	words := tokenize(text)
	if len(words) == 0 {
		return 0.0
	}

	var score float64
	matchCount := 0
	modifier := 1.0

	for _, word := range words {
		if _, ok := a.negations[word]; ok {
			// negation halves and flips the next opinion word
			modifier *= -0.5
			continue
		}
		if weight, ok := a.intensifiers[word]; ok {
			modifier *= weight
			continue
		}

		polarity, ok := a.lexicon[word]
		if !ok {
			continue
		}

		score += clamp(polarity * modifier)
		matchCount++
		modifier = 1.0
	}

	if matchCount == 0 {
		return 0.0
	}

	return clamp(score / float64(matchCount))
}

func tokenize(text string) []string {
	return strings.FieldsFunc(strings.ToLower(text), func(r rune) bool {
		return !unicode.IsLetter(r) && !unicode.IsDigit(r) && r != '\''
	})
}

func clamp(v float64) float64 {
	if v > 1.0 {
		return 1.0
	}
	if v < -1.0 {
		return -1.0
	}
	return v
}

func buildIntensifiers() map[string]float64 {
	return map[string]float64{
		"very":        1.3,
		"extremely":   1.5,
		"massive":     1.3,
		"huge":        1.3,
		"strong":      1.2,
		"slightly":    0.6,
		"somewhat":    0.7,
		"record":      1.2,
		"significant": 1.2,
	}
}

// buildLexicon returns word polarities tuned for crypto headlines
func buildLexicon() map[string]float64 {
	return map[string]float64{
		// positive
		"bullish":       1.0,
		"bull":          0.9,
		"bulls":         0.9,
		"rally":         0.9,
		"rallies":       0.9,
		"surge":         0.8,
		"surges":        0.8,
		"soar":          0.8,
		"soars":         0.8,
		"pump":          0.7,
		"moon":          0.7,
		"gain":          0.6,
		"gains":         0.6,
		"profit":        0.6,
		"win":           0.6,
		"green":         0.5,
		"rise":          0.5,
		"rises":         0.5,
		"grow":          0.5,
		"growth":        0.5,
		"increase":      0.5,
		"positive":      0.5,
		"optimistic":    0.5,
		"breakthrough":  0.6,
		"adoption":      0.6,
		"partnership":   0.5,
		"upgrade":       0.5,
		"innovation":    0.5,
		"halving":       0.4,
		"breakout":      0.7,
		"ath":           0.8,
		"institutional": 0.4,
		"etf":           0.5,
		"approved":      0.6,
		"approval":      0.6,
		"accumulation":  0.5,
		"recover":       0.4,
		"recovery":      0.4,
		"support":       0.3,
		"good":          0.7,
		"great":         0.8,
		"best":          1.0,
		"strong":        0.4,

		// negative
		"bearish":      -1.0,
		"bear":         -0.9,
		"bears":        -0.9,
		"crash":        -1.0,
		"crashes":      -1.0,
		"dump":         -0.9,
		"plunge":       -0.8,
		"plunges":      -0.8,
		"fall":         -0.6,
		"falls":        -0.6,
		"drop":         -0.6,
		"drops":        -0.6,
		"decline":      -0.6,
		"loss":         -0.7,
		"losses":       -0.7,
		"red":          -0.5,
		"negative":     -0.5,
		"pessimistic":  -0.5,
		"fear":         -0.6,
		"panic":        -0.8,
		"selloff":      -0.7,
		"correction":   -0.5,
		"hack":         -1.0,
		"hacked":       -1.0,
		"exploit":      -1.0,
		"scam":         -1.0,
		"rug":          -1.0,
		"ponzi":        -1.0,
		"fraud":        -1.0,
		"lawsuit":      -0.7,
		"ban":          -0.8,
		"crackdown":    -0.7,
		"liquidation":  -0.8,
		"capitulation": -0.8,
		"fud":          -0.7,
		"bubble":       -0.6,
		"overvalued":   -0.6,
		"bad":          -0.7,
		"worst":        -1.0,
		"weak":         -0.4,
		"risk":         -0.3,
	}
}
