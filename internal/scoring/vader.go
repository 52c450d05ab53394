package scoring

import (
	"context"

	"github.com/jonreiter/govader"
)

// VaderAnalyzer scores text in process with the VADER lexicon and rules.
// It is the default when no remote sentiment service is configured.
type VaderAnalyzer struct {
	analyzer *govader.SentimentIntensityAnalyzer
}

// NewVaderAnalyzer loads the lexicon once; the analyzer is read-only afterwards.
func NewVaderAnalyzer() *VaderAnalyzer {
	return &VaderAnalyzer{analyzer: govader.NewSentimentIntensityAnalyzer()}
}

// Score returns the VADER compound polarity of text in [-1, 1].
func (v *VaderAnalyzer) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	return v.analyzer.PolarityScores(text).Compound, nil
}
