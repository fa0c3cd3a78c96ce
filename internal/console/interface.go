package console

import (
	"bufio"
	"context"
	"element-scout/internal/config"
	"element-scout/internal/usecase"
	"element-scout/internal/usecase/adapters"
	"element-scout/pkg/logg"
	"errors"
	"fmt"
	"io"
	"os"
	"os/signal"
	"strconv"
	"strings"
	"sync/atomic"
	"syscall"

	"go.uber.org/fx"
	"go.uber.org/zap"
)

var errExit = errors.New("exit")

type Interface struct {
	config   *config.Config
	logger   *zap.Logger
	usecase  *usecase.Service
	in       io.Reader
	out      io.Writer
	ctx      context.Context
	cancel   context.CancelFunc
	sigChan  chan os.Signal
	stopping atomic.Bool
}

type Params struct {
	fx.In

	Config  *config.Config
	Logger  *zap.Logger
	Usecase *usecase.Service
}

func NewInterface(params Params) *Interface {
	return newInterface(params, os.Stdin, os.Stdout)
}

func newInterface(params Params, in io.Reader, out io.Writer) *Interface {
	ctx, cancel := context.WithCancel(context.Background())
	sigChan := make(chan os.Signal, 1)

	return &Interface{
		config:  params.Config,
		logger:  params.Logger.With(zap.String(logg.Layer, "Console")),
		usecase: params.Usecase,
		in:      in,
		out:     out,
		ctx:     ctx,
		cancel:  cancel,
		sigChan: sigChan,
	}
}

func (i *Interface) Start() error {
	i.printBanner()
	i.printHelp()

	signal.Notify(i.sigChan, os.Interrupt, syscall.SIGINT, syscall.SIGTERM)

	go func() {
		<-i.sigChan
		fmt.Fprintln(i.out, "\n\n⚠️  Interrupt received, stopping analysis...")
		_ = i.Stop()
	}()

	return i.loop()
}

func (i *Interface) loop() error {
	scanner := bufio.NewScanner(i.in)

	for !i.stopping.Load() {
		fmt.Fprint(i.out, "\n> ")

		if !scanner.Scan() {
			break
		}

		input := strings.TrimSpace(scanner.Text())
		if input == "" {
			continue
		}

		if err := i.handleCommand(input); err != nil {
			if errors.Is(err, errExit) {
				break
			}

			i.logger.Error("Command error", zap.Error(err))
			fmt.Fprintf(i.out, "Error: %v\n", err)
		}
	}

	return scanner.Err()
}

func (i *Interface) Stop() error {
	if !i.stopping.CompareAndSwap(false, true) {
		return nil
	}

	i.logger.Info("Stopping console interface...")

	i.cancel()
	signal.Stop(i.sigChan)

	fmt.Fprintln(i.out, "👋 Goodbye!")

	return nil
}

func (i *Interface) handleCommand(input string) error {
	fields := strings.Fields(input)
	cmd, args := strings.ToLower(fields[0]), fields[1:]

	switch cmd {
	case "help", "h":
		i.printHelp()

		return nil
	case "exit", "quit", "q":
		fmt.Fprintln(i.out, "Shutting down...")

		return errExit
	case "analyze", "a":
		if len(args) != 1 {
			return errors.New("usage: analyze <url>")
		}

		return i.analyze(args[0], adapters.AnalyzeOptions{
			FastMode: i.config.DiscoveryConfig.FastMode,
			Explore:  i.config.DiscoveryConfig.Explore,
		})
	case "fast", "f":
		if len(args) != 1 {
			return errors.New("usage: fast <url>")
		}

		return i.analyze(args[0], adapters.AnalyzeOptions{FastMode: true})
	case "check", "c":
		if len(args) < 2 {
			return errors.New("usage: check <url> <locator>")
		}

		return i.check(args[0], strings.Join(args[1:], " "))
	case "score", "s":
		if len(args) == 0 {
			return errors.New("usage: score <locator> [matches]")
		}

		locator, count := splitScoreArgs(args)
		printEvaluation(i.out, i.usecase.Analysis.ScoreSelector(locator, count))

		return nil
	case "batch", "b":
		if len(args) == 0 {
			return errors.New("usage: batch <url> [url...]")
		}

		return i.batch(args)
	default:
		return fmt.Errorf("unknown command %q, type help", cmd)
	}
}

func (i *Interface) analyze(url string, opts adapters.AnalyzeOptions) error {
	fmt.Fprintf(i.out, "\n🔍 Analyzing: %s\n", url)
	fmt.Fprintln(i.out, divider)

	opts.OnProgress = func(msg string) {
		fmt.Fprintf(i.out, "   … %s\n", msg)
	}

	res, err := i.usecase.Analysis.AnalyzeURL(i.ctx, url, opts)
	if err != nil {
		fmt.Fprintf(i.out, "\n❌ Analysis failed: %v\n", err)

		return nil
	}

	fmt.Fprintln(i.out, divider)
	printResult(i.out, res)

	return nil
}

func (i *Interface) check(url, locator string) error {
	fmt.Fprintf(i.out, "\n🎯 Checking %s on %s\n", locator, url)

	ev, err := i.usecase.Analysis.CheckSelector(i.ctx, url, locator)
	if err != nil {
		fmt.Fprintf(i.out, "\n❌ Check failed: %v\n", err)

		return nil
	}

	printEvaluation(i.out, ev)

	return nil
}

func (i *Interface) batch(urls []string) error {
	fmt.Fprintf(i.out, "\n📦 Analyzing %d pages\n", len(urls))
	fmt.Fprintln(i.out, divider)

	results, err := i.usecase.Analysis.AnalyzeBatch(i.ctx, urls, adapters.AnalyzeOptions{
		FastMode: i.config.DiscoveryConfig.FastMode,
		Explore:  i.config.DiscoveryConfig.Explore,
	})
	if err != nil {
		fmt.Fprintf(i.out, "\n❌ Batch stopped: %v\n", err)
	}

	printBatch(i.out, results)

	return nil
}

// splitScoreArgs treats a trailing integer as the match count. The count defaults to 1.
func splitScoreArgs(args []string) (string, int) {
	if len(args) > 1 {
		if n, err := strconv.Atoi(args[len(args)-1]); err == nil {
			return strings.Join(args[:len(args)-1], " "), n
		}
	}

	return strings.Join(args, " "), 1
}

func (i *Interface) printBanner() {
	banner := `
╔═══════════════════════════════════════════════════════════╗
║                                                           ║
║              🔎  Element Scout  🧭                        ║
║                                                           ║
║   Element discovery and selector quality for any page    ║
║                                                           ║
╚═══════════════════════════════════════════════════════════╝
`
	fmt.Fprintln(i.out, banner)
}

func (i *Interface) printHelp() {
	help := `
Available commands:
  analyze, a <url>            - Discover elements, including ones behind modals and tabs
  fast, f <url>               - Quick scan: fast navigation, no exploration
  check, c <url> <locator>    - Score a locator against the live page
  score, s <locator> [count]  - Score a locator offline (count defaults to 1)
  batch, b <url> [url...]     - Analyze several pages concurrently
  help, h                     - Show this help message
  exit, quit, q               - Exit the application

Examples:
    analyze https://example.com/login
    check https://example.com/login #submit-btn
    score div.card > span 4
`
	fmt.Fprintln(i.out, help)
}
