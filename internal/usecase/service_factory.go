package usecase

import (
	"element-scout/internal/usecase/adapters"
)

type serviceFactory struct {
	deps Params
}

func newServiceFactory(deps Params) *serviceFactory {
	return &serviceFactory{
		deps: deps,
	}
}

func (f *serviceFactory) CreateAnalysisService() adapters.AnalysisService {
	return NewAnalysisService(AnalysisServiceParams{
		Config:     f.deps.Config,
		Logger:     f.deps.Logger,
		Pages:      f.deps.Pages,
		Stabilizer: f.deps.Stabilizer,
		Discoverer: f.deps.Discoverer,
		Explorer:   f.deps.Explorer,
		Policy:     f.deps.Policy,
		Evaluator:  f.deps.Evaluator,
	})
}

func (f *serviceFactory) CreateBrowserService() adapters.BrowserService {
	return f.deps.Pages
}
