package bootstrap

import (
	"element-scout/internal/browser"
	"element-scout/internal/catalog"
	"element-scout/internal/config"
	"element-scout/internal/console"
	"element-scout/internal/locator"
	"element-scout/internal/ports"
	"element-scout/internal/usecase"
	"time"

	"go.uber.org/fx"
)

func NewApp() *fx.App {
	return fx.New(options())
}

func options() fx.Option {
	return fx.Options(
		fx.Provide(
			config.GetConfig,
			newLogger,
			newTraceProvider,

			catalog.Default,
			locator.NewSynthesizer,

			fx.Annotate(browser.NewManager, fx.As(new(ports.BrowserManager)), fx.As(new(ports.PageFactory))),
			fx.Annotate(newStabilizer, fx.As(new(ports.PageStabilizer))),
			fx.Annotate(newScanner, fx.As(new(ports.ElementDiscoverer))),
			fx.Annotate(newExplorer, fx.As(new(ports.HiddenElementExplorer))),
			newRetryPolicy,
			newEvaluator,

			usecase.NewUsecase,

			console.NewInterface,
		),

		fx.Invoke(
			runConsole,
		),

		fx.StartTimeout(2*time.Minute),
	)
}
