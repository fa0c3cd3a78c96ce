package console

import (
	"element-scout/internal/entity"
	"element-scout/internal/quality"
	"fmt"
	"io"
	"time"
)

const divider = "───────────────────────────────────────────────────"

var outcomeLabels = map[entity.Outcome]string{
	entity.OutcomeOK:               "✅ Done",
	entity.OutcomeBlocked:          "🚫 Blocked: the site refused access (try another user agent or authenticate)",
	entity.OutcomeNotFound:         "❓ Page not found: check the URL",
	entity.OutcomeSlow:             "🐢 Page too slow: try again or use fast mode",
	entity.OutcomeNeedsInteraction: "👆 Elements only appear after interaction",
	entity.OutcomeFailed:           "❌ Analysis failed",
}

func printResult(w io.Writer, res *entity.AnalysisResult) {
	fmt.Fprintln(w, outcomeLabels[res.Outcome])

	if res.StatusCode > 0 {
		fmt.Fprintf(w, "HTTP %d via %s strategy\n", res.StatusCode, res.Strategy)
	}
	if res.Error != "" {
		fmt.Fprintf(w, "Error: %s\n", res.Error)
	}

	fmt.Fprintf(w, "Attempts: %d (retries %d, %s)\n", len(res.Attempts), res.TotalRetries, res.TotalDuration.Round(time.Millisecond))

	if len(res.Elements) > 0 {
		fmt.Fprintf(w, "\nElements (%d):\n", len(res.Elements))
		for _, el := range res.Elements {
			printElement(w, el)
		}
	}

	if len(res.Hidden) > 0 {
		fmt.Fprintf(w, "\nRevealed by interaction (%d):\n", len(res.Hidden))
		for _, el := range res.Hidden {
			printElement(w, el)
		}
	}
}

func printElement(w io.Writer, el entity.DiscoveredElement) {
	fmt.Fprintf(w, "  %-8s %.2f  %-40s %s", el.Type, el.Confidence, el.Locator, el.Description)
	if el.DiscoveryTrigger != "" {
		fmt.Fprintf(w, "  (after %q)", el.DiscoveryTrigger)
	}
	fmt.Fprintln(w)
}

func printEvaluation(w io.Writer, ev *quality.Evaluation) {
	fmt.Fprintf(w, "\nLocator: %s\n", ev.Locator)
	fmt.Fprintf(w, "Matches: %d\n", ev.MatchCount)

	if ev.Rejection.Reject {
		fmt.Fprintf(w, "🚫 Rejected: %s\n", ev.Rejection.Reason)
	} else {
		m := ev.Metrics
		fmt.Fprintf(w, "Overall %.2f  (uniqueness %.2f, stability %.2f, specificity %.2f, accessibility %.2f)\n",
			m.Overall, m.Uniqueness, m.Stability, m.Specificity, m.Accessibility)

		if ev.Passes {
			fmt.Fprintln(w, "✅ Passes the quality floor")
		} else {
			fmt.Fprintln(w, "⚠️  Below the quality floor")
		}
	}

	for _, s := range ev.Suggestions {
		fmt.Fprintf(w, "  • %s\n", s)
	}
}

func printBatch(w io.Writer, results []*entity.AnalysisResult) {
	for _, res := range results {
		if res == nil {
			continue
		}

		fmt.Fprintf(w, "%-50s %-18s %3d elements  %3d revealed\n",
			res.URL, res.Outcome, len(res.Elements), len(res.Hidden))
	}
}
