package bootstrap

import (
	"element-scout/internal/catalog"
	"element-scout/internal/config"
	"element-scout/internal/discovery"
	"element-scout/internal/explorer"
	"element-scout/internal/locator"
	"element-scout/internal/quality"
	"element-scout/internal/retry"
	"element-scout/internal/stabilizer"

	"go.uber.org/zap"
)

func newStabilizer(c *catalog.Catalog, logger *zap.Logger) *stabilizer.Stabilizer {
	return stabilizer.New(c, logger)
}

func newScanner(conf *config.Config, c *catalog.Catalog, synth *locator.Synthesizer, logger *zap.Logger) *discovery.Scanner {
	return discovery.NewScanner(c, synth, logger, conf.DiscoveryConfig.Scanner())
}

func newExplorer(conf *config.Config, c *catalog.Catalog, synth *locator.Synthesizer, logger *zap.Logger) *explorer.Explorer {
	return explorer.New(c, synth, logger, conf.DiscoveryConfig.Explorer())
}

func newRetryPolicy(conf *config.Config, logger *zap.Logger) *retry.Policy {
	return retry.NewPolicy(conf.RetryConfig.Policy(), logger)
}

func newEvaluator(conf *config.Config, logger *zap.Logger) *quality.Evaluator {
	return quality.NewEvaluator(logger, conf.DiscoveryConfig.MinQuality)
}
