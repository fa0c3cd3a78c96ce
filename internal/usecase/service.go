package usecase

import (
	"element-scout/internal/config"
	"element-scout/internal/ports"
	"element-scout/internal/quality"
	"element-scout/internal/retry"
	"element-scout/internal/usecase/adapters"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

type Service struct {
	Analysis adapters.AnalysisService
	Browser  adapters.BrowserService
}

type Params struct {
	fx.In

	Logger     *zap.Logger
	Config     *config.Config
	Pages      ports.PageFactory
	Stabilizer ports.PageStabilizer
	Discoverer ports.ElementDiscoverer
	Explorer   ports.HiddenElementExplorer
	Policy     *retry.Policy
	Evaluator  *quality.Evaluator
}

func NewUsecase(params Params) *Service {
	factory := newServiceFactory(params)

	return &Service{
		Analysis: factory.CreateAnalysisService(),
		Browser:  factory.CreateBrowserService(),
	}
}
