package console

import (
	"bytes"
	"context"
	"element-scout/internal/config"
	"element-scout/internal/entity"
	"element-scout/internal/quality"
	"element-scout/internal/usecase"
	"element-scout/internal/usecase/adapters"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type stubAnalysis struct {
	analyzed []adapters.AnalyzeOptions
	scored   []string
	counts   []int
}

func (s *stubAnalysis) AnalyzeURL(_ context.Context, url string, opts adapters.AnalyzeOptions) (*entity.AnalysisResult, error) {
	s.analyzed = append(s.analyzed, opts)
	if opts.OnProgress != nil {
		opts.OnProgress("Loading " + url)
	}

	return &entity.AnalysisResult{
		URL:        url,
		StatusCode: 200,
		Strategy:   "fast",
		Outcome:    entity.OutcomeOK,
		Elements: []entity.DiscoveredElement{
			{Locator: "#submit-btn", Type: entity.ElementTypeButton, Description: `button "Sign in"`, Confidence: 0.9},
		},
		Attempts: []entity.AttemptRecord{{Index: 1, Success: true}},
	}, nil
}

func (s *stubAnalysis) AnalyzeBatch(_ context.Context, urls []string, _ adapters.AnalyzeOptions) ([]*entity.AnalysisResult, error) {
	out := make([]*entity.AnalysisResult, 0, len(urls))
	for _, u := range urls {
		out = append(out, &entity.AnalysisResult{URL: u, Outcome: entity.OutcomeBlocked})
	}

	return out, nil
}

func (s *stubAnalysis) CheckSelector(context.Context, string, string) (*quality.Evaluation, error) {
	return nil, assert.AnError
}

func (s *stubAnalysis) ScoreSelector(locator string, matchCount int) *quality.Evaluation {
	s.scored = append(s.scored, locator)
	s.counts = append(s.counts, matchCount)

	return quality.NewEvaluator(zap.NewNop(), quality.DefaultMinQuality).Static(locator, matchCount)
}

func newTestInterface(input string, analysis *stubAnalysis) (*Interface, *bytes.Buffer) {
	out := &bytes.Buffer{}
	conf := &config.Config{
		DiscoveryConfig: &config.DiscoveryConfig{Explore: true},
	}

	return newInterface(Params{
		Config:  conf,
		Logger:  zap.NewNop(),
		Usecase: &usecase.Service{Analysis: analysis},
	}, strings.NewReader(input), out), out
}

func TestInterface_Commands(t *testing.T) {
	t.Parallel()

	t.Run("analyze uses configured exploration and fast skips it", func(t *testing.T) {
		t.Parallel()

		stub := &stubAnalysis{}
		ui, out := newTestInterface("analyze https://app.test\nfast https://app.test\nexit\n", stub)
		require.NoError(t, ui.loop())

		require.Len(t, stub.analyzed, 2)
		assert.True(t, stub.analyzed[0].Explore)
		assert.False(t, stub.analyzed[0].FastMode)
		assert.False(t, stub.analyzed[1].Explore)
		assert.True(t, stub.analyzed[1].FastMode)

		assert.Contains(t, out.String(), "Loading https://app.test")
		assert.Contains(t, out.String(), "#submit-btn")
		assert.Contains(t, out.String(), "Shutting down...")
	})

	t.Run("score treats a trailing number as the match count", func(t *testing.T) {
		t.Parallel()

		stub := &stubAnalysis{}
		ui, out := newTestInterface("score div.card > span 4\nscore #email\n", stub)
		require.NoError(t, ui.loop())

		assert.Equal(t, []string{"div.card > span", "#email"}, stub.scored)
		assert.Equal(t, []int{4, 1}, stub.counts)
		assert.Contains(t, out.String(), "Matches: 4")
	})

	t.Run("reports usage errors and keeps reading", func(t *testing.T) {
		t.Parallel()

		stub := &stubAnalysis{}
		ui, out := newTestInterface("analyze\nfrobnicate\nbatch https://a.test https://b.test\n", stub)
		require.NoError(t, ui.loop())

		assert.Contains(t, out.String(), "usage: analyze <url>")
		assert.Contains(t, out.String(), `unknown command "frobnicate"`)
		assert.Contains(t, out.String(), "https://b.test")
		assert.Contains(t, out.String(), string(entity.OutcomeBlocked))
	})

	t.Run("prints check failures without stopping", func(t *testing.T) {
		t.Parallel()

		ui, out := newTestInterface("check https://app.test #email\n", &stubAnalysis{})
		require.NoError(t, ui.loop())

		assert.Contains(t, out.String(), "Check failed")
	})
}
