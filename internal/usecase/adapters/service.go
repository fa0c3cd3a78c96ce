package adapters

import (
	"context"
	"element-scout/internal/entity"
	"element-scout/internal/quality"
)

type AnalyzeOptions struct {
	FastMode   bool
	Explore    bool
	OnProgress func(string)
}

type AnalysisService interface {
	AnalyzeURL(ctx context.Context, url string, opts AnalyzeOptions) (*entity.AnalysisResult, error)
	AnalyzeBatch(ctx context.Context, urls []string, opts AnalyzeOptions) ([]*entity.AnalysisResult, error)
	CheckSelector(ctx context.Context, url, locator string) (*quality.Evaluation, error)
	ScoreSelector(locator string, matchCount int) *quality.Evaluation
}

type BrowserService interface {
	IsReady() bool
}
