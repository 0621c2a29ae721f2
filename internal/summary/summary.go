// Package summary asks an LLM for a plain-language, non-causal summary of
// the crime/poverty relationship.
package summary

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/resilience"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/stats"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/pkg/anthropic"
)

// ErrCausalClaim is returned when the generated summary uses causal wording.
var ErrCausalClaim = errors.New("summary: generated text makes a causal claim")

const systemPrompt = "You are a data scientist."

const promptTemplate = `Analyze the relationship between crime_count and PvrtyPr across census tracts.

Rules:
- No causal claims. Do not use the word "cause" or any word containing it.
- Use uncertainty language.
- Describe correlation only.

DATA:
%s

%s

CORRELATION:
%s
`

// Options configures a Summarizer.
type Options struct {
	Model       string
	MaxTokens   int64
	Temperature float64
	Retry       resilience.RetryConfig
}

// Summarizer produces LLM summaries.
type Summarizer struct {
	client anthropic.Client
	opts   Options
}

// New creates a Summarizer.
func New(client anthropic.Client, opts Options) *Summarizer {
	if opts.MaxTokens <= 0 {
		opts.MaxTokens = 1024
	}
	if opts.Retry.ShouldRetry == nil {
		opts.Retry.ShouldRetry = func(err error) bool {
			return anthropic.IsRetryable(err) || resilience.IsTransient(err)
		}
	}
	if opts.Retry.OnRetry == nil {
		opts.Retry.OnRetry = resilience.RetryLogger("anthropic", "summary")
	}
	return &Summarizer{client: client, opts: opts}
}

// BuildPrompt renders the user prompt from the descriptive statistics.
func BuildPrompt(crime, poverty stats.Summary, corr stats.Matrix) string {
	return fmt.Sprintf(promptTemplate, crime.String(), poverty.String(), corr.String())
}

// Summarize requests a summary and rejects causal wording.
func (s *Summarizer) Summarize(ctx context.Context, crime, poverty stats.Summary, corr stats.Matrix) (string, error) {
	temp := s.opts.Temperature
	req := anthropic.MessageRequest{
		Model:       s.opts.Model,
		MaxTokens:   s.opts.MaxTokens,
		System:      systemPrompt,
		Messages:    []anthropic.Message{{Role: "user", Content: BuildPrompt(crime, poverty, corr)}},
		Temperature: &temp,
	}

	resp, err := resilience.DoVal(ctx, s.opts.Retry, func(ctx context.Context) (*anthropic.MessageResponse, error) {
		return s.client.CreateMessage(ctx, req)
	})
	if err != nil {
		return "", eris.Wrap(err, "summary: request")
	}
	resp.Usage.LogCost(s.opts.Model, "summary")

	text := strings.TrimSpace(resp.Text())
	if text == "" {
		return "", eris.New("summary: empty response")
	}
	if err := Validate(text); err != nil {
		zap.L().Warn("summary: rejected generated text", zap.Error(err))
		return "", err
	}
	return text, nil
}

// Validate returns ErrCausalClaim when text contains "cause" in any case,
// including inside longer words.
func Validate(text string) error {
	if strings.Contains(strings.ToLower(text), "cause") {
		return ErrCausalClaim
	}
	return nil
}
