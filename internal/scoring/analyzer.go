package scoring

import "context"

// SentimentAnalyzer scores free text with a compound polarity in [-1, 1].
type SentimentAnalyzer interface {
	Score(ctx context.Context, text string) (float64, error)
}

// AnalyzerFunc adapts a plain function to SentimentAnalyzer.
type AnalyzerFunc func(ctx context.Context, text string) (float64, error)

// Score calls f.
func (f AnalyzerFunc) Score(ctx context.Context, text string) (float64, error) {
	return f(ctx, text)
}
