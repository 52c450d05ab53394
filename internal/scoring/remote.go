package scoring

import (
	"context"
	"errors"
	"fmt"
	"math"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
)

type remoteRequest struct {
	Text string `json:"text"`
}

type remoteResponse struct {
	Compound *float64 `json:"compound"`
}

// RemoteAnalyzer calls an HTTP polarity service that accepts
// {"text": "..."} and answers {"compound": x}.
type RemoteAnalyzer struct {
	url     string
	timeout time.Duration
}

// NewRemoteAnalyzer builds a client for the service at url.
func NewRemoteAnalyzer(url string, timeout time.Duration) *RemoteAnalyzer {
	if timeout <= 0 {
		timeout = 5 * time.Second
	}
	return &RemoteAnalyzer{url: url, timeout: timeout}
}

// Score posts text to the service and returns its compound score clamped to [-1, 1].
func (a *RemoteAnalyzer) Score(ctx context.Context, text string) (float64, error) {
	if err := ctx.Err(); err != nil {
		return 0, err
	}
	timeout := a.timeout
	if deadline, ok := ctx.Deadline(); ok {
		if remaining := time.Until(deadline); remaining < timeout {
			timeout = remaining
		}
	}

	agent := fiber.Post(a.url)
	agent.Timeout(timeout)
	agent.JSON(remoteRequest{Text: text})

	var resp remoteResponse
	code, _, errs := agent.Struct(&resp)
	if code != 0 && code != http.StatusOK {
		return 0, fmt.Errorf("sentiment service returned status %d", code)
	}
	if len(errs) > 0 {
		return 0, fmt.Errorf("sentiment service: %w", errors.Join(errs...))
	}
	if resp.Compound == nil || math.IsNaN(*resp.Compound) {
		return 0, errors.New("sentiment service: response missing compound score")
	}
	return math.Max(-1, math.Min(1, *resp.Compound)), nil
}
