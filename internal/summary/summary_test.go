package summary

import (
	"context"
	"errors"
	"math"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/resilience"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/internal/stats"
	"github.com/ramyacp14/Task-09-Syracuse-Open-Data-Civic-Project/pkg/anthropic"
)

type fakeClient struct {
	replies []string
	errs    []error
	calls   int
	last    anthropic.MessageRequest
}

func (f *fakeClient) CreateMessage(_ context.Context, req anthropic.MessageRequest) (*anthropic.MessageResponse, error) {
	i := f.calls
	f.calls++
	f.last = req
	if i < len(f.errs) && f.errs[i] != nil {
		return nil, f.errs[i]
	}
	text := ""
	if i < len(f.replies) {
		text = f.replies[i]
	}
	return &anthropic.MessageResponse{
		Content: []anthropic.ContentBlock{{Type: "text", Text: text}},
		Usage:   anthropic.TokenUsage{InputTokens: 100, OutputTokens: 20},
	}, nil
}

func inputs(t *testing.T) (stats.Summary, stats.Summary, stats.Matrix) {
	t.Helper()
	crime := []float64{1, 4, 9, 2}
	pov := []float64{10, 30, 45, math.NaN()}
	corr, err := stats.Correlation("crime_count", crime, "PvrtyPr", pov)
	require.NoError(t, err)
	return stats.Describe("crime_count", crime), stats.Describe("PvrtyPr", pov), corr
}

func fastOpts() Options {
	return Options{
		Model:       "claude-sonnet-4-5-20250929",
		Temperature: 0.3,
		Retry:       resilience.RetryConfig{MaxAttempts: 3, InitialBackoff: time.Millisecond, MaxBackoff: time.Millisecond},
	}
}

func TestSummarize(t *testing.T) {
	client := &fakeClient{replies: []string{"  Tracts with higher poverty tend to record more incidents, though the association is uncertain.  "}}
	crime, pov, corr := inputs(t)

	text, err := New(client, fastOpts()).Summarize(context.Background(), crime, pov, corr)
	require.NoError(t, err)
	assert.Equal(t, "Tracts with higher poverty tend to record more incidents, though the association is uncertain.", text)

	assert.Equal(t, "claude-sonnet-4-5-20250929", client.last.Model)
	assert.Equal(t, int64(1024), client.last.MaxTokens)
	require.NotNil(t, client.last.Temperature)
	assert.Equal(t, 0.3, *client.last.Temperature)
	require.Len(t, client.last.Messages, 1)
	assert.Contains(t, client.last.Messages[0].Content, "No causal claims")
	assert.Contains(t, client.last.Messages[0].Content, "crime_count")
}

func TestSummarize_RejectsCausalClaim(t *testing.T) {
	client := &fakeClient{replies: []string{"Poverty Causes crime."}}
	crime, pov, corr := inputs(t)

	_, err := New(client, fastOpts()).Summarize(context.Background(), crime, pov, corr)
	assert.ErrorIs(t, err, ErrCausalClaim)
	assert.Equal(t, 1, client.calls)
}

func TestSummarize_RetriesTransient(t *testing.T) {
	client := &fakeClient{
		errs:    []error{resilience.NewTransientError(errors.New("overloaded"), 529)},
		replies: []string{"", "A weak positive association appears."},
	}
	crime, pov, corr := inputs(t)

	text, err := New(client, fastOpts()).Summarize(context.Background(), crime, pov, corr)
	require.NoError(t, err)
	assert.Equal(t, "A weak positive association appears.", text)
	assert.Equal(t, 2, client.calls)
}

func TestSummarize_PermanentError(t *testing.T) {
	client := &fakeClient{errs: []error{errors.New("invalid api key")}}
	crime, pov, corr := inputs(t)

	_, err := New(client, fastOpts()).Summarize(context.Background(), crime, pov, corr)
	require.Error(t, err)
	assert.Equal(t, 1, client.calls)
}

func TestSummarize_EmptyResponse(t *testing.T) {
	client := &fakeClient{replies: []string{"   "}}
	crime, pov, corr := inputs(t)

	_, err := New(client, fastOpts()).Summarize(context.Background(), crime, pov, corr)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "empty response")
}

func TestValidate(t *testing.T) {
	assert.NoError(t, Validate("correlation suggests an association"))
	assert.ErrorIs(t, Validate("CAUSE"), ErrCausalClaim)
	assert.ErrorIs(t, Validate("this is because of"), ErrCausalClaim)
}
