package ui

import (
	"errors"
	"fmt"
	"io"
	"strconv"
	"strings"

	"github.com/charmbracelet/huh"

	"github.com/enerkit/gridprep/internal/apperr"
	"github.com/enerkit/gridprep/internal/scenario"
)

// StepLine mirrors one pipeline step for the explain view, kept as plain
// fields to avoid circular imports
type StepLine struct {
	Name      string
	Triggered bool
	Token     string
	Summary   string
}

// ExplainUI provides a rich UI for the explain command
type ExplainUI struct {
	writer io.Writer
	quiet  bool
}

// NewExplainUI creates a new UI handler for the explain command
func NewExplainUI(w io.Writer, quiet bool) *ExplainUI {
	return &ExplainUI{
		writer: w,
		quiet:  quiet,
	}
}

// PrintScenario renders the scenario breakdown
func (e *ExplainUI) PrintScenario(rawOpts, rawLL string, opts scenario.Options, limit scenario.TransmissionLimit, steps []StepLine) {
	if e.quiet {
		return
	}

	var output strings.Builder

	output.WriteString(Success.Bold(true).Render("Scenario Breakdown"))
	output.WriteString("\n\n")

	output.WriteString(SectionHeader.Render("Wildcards"))
	output.WriteString("\n")
	output.WriteString(FormatKeyValue("opts", Highlight.Render(displayWildcard(rawOpts))))
	output.WriteString("\n")
	output.WriteString(FormatKeyValue("ll", Highlight.Render(rawLL)))
	output.WriteString("\n\n")

	output.WriteString(e.renderTokens(opts, rawLL, limit))
	output.WriteString("\n\n")

	output.WriteString(e.renderPipeline(steps))
	output.WriteString("\n")

	boxed := Box.Render(output.String())
	fmt.Fprintln(e.writer, boxed)
}

// renderTokens creates the per-token section
func (e *ExplainUI) renderTokens(opts scenario.Options, rawLL string, limit scenario.TransmissionLimit) string {
	var sb strings.Builder

	sb.WriteString(SectionHeader.Render("Tokens"))
	sb.WriteString("\n")

	for _, opt := range opts {
		if _, unknown := opt.(scenario.Unknown); unknown {
			sb.WriteString(fmt.Sprintf("  %s %s %s\n",
				GetWarnMark(),
				Bold.Render(opt.Token()),
				Warning.Render("→ ignored, no modifier recognizes it")))
			continue
		}
		sb.WriteString(fmt.Sprintf("  %s %s %s\n",
			GetCheckMark(),
			Bold.Render(opt.Token()),
			Dim.Render("→ "+opt.Summary())))
	}

	sb.WriteString(fmt.Sprintf("  %s %s %s\n",
		GetCheckMark(),
		Bold.Render(rawLL),
		Dim.Render("→ "+limit.Summary())))

	return strings.TrimRight(sb.String(), "\n")
}

// renderPipeline creates the application order section
func (e *ExplainUI) renderPipeline(steps []StepLine) string {
	var sb strings.Builder

	sb.WriteString(SectionHeader.Render("Pipeline Order"))
	sb.WriteString("\n")

	for i, step := range steps {
		num := Muted.Render(fmt.Sprintf("%2d.", i+1))
		if step.Triggered {
			line := fmt.Sprintf("  %s %s %s", num, GetCheckMark(), StepComplete.Render(step.Name))
			if step.Token != "" {
				line += Dim.Render(" [" + step.Token + "]")
			}
			if step.Summary != "" {
				line += Dim.Render(" → " + step.Summary)
			}
			sb.WriteString(line)
		} else {
			sb.WriteString(fmt.Sprintf("  %s %s %s", num, Muted.Render("○"), StepPending.Render(step.Name)))
		}
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// PrintSimpleScenario prints a minimal text breakdown (fallback for quiet mode)
func (e *ExplainUI) PrintSimpleScenario(rawOpts, rawLL string, opts scenario.Options, limit scenario.TransmissionLimit) {
	fmt.Fprintf(e.writer, "opts %s, ll %s\n", displayWildcard(rawOpts), rawLL)
	for _, opt := range opts {
		if _, unknown := opt.(scenario.Unknown); unknown {
			fmt.Fprintf(e.writer, "  %s: ignored\n", opt.Token())
			continue
		}
		fmt.Fprintf(e.writer, "  %s: %s\n", opt.Token(), opt.Summary())
	}
	fmt.Fprintf(e.writer, "  %s: %s\n", rawLL, limit.Summary())
}

func displayWildcard(raw string) string {
	if raw == "" {
		return "(empty)"
	}
	return raw
}

// ScenarioFormResult holds the wildcards assembled by the interactive builder
type ScenarioFormResult struct {
	Opts string
	LL   string
}

// RunScenarioForm walks the user through composing the opts and ll wildcards.
// Returns apperr.ErrCancelled when the user aborts the form.
func RunScenarioForm() (ScenarioFormResult, error) {
	var (
		resample  string
		co2Mode   string
		co2Factor string
		emission  bool
		security  string
		carrier   string
		autarky   string
		limitKind string
		limitVal  = "opt"
	)

	form := huh.NewForm(
		huh.NewGroup(
			huh.NewNote().
				Title("Scenario Builder").
				Description("Compose the opts and ll wildcards step by step.\nPress Enter to skip optional fields.").
				Next(true).
				NextLabel("Continue"),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Temporal resolution (hours)").
				Description("Average snapshots to fixed-length steps. Leave empty to keep the native resolution.").
				Placeholder("24").
				Value(&resample).
				Validate(validatePositiveIntOrEmpty),
			huh.NewSelect[string]().
				Title("CO2 cap").
				Description("Attach a primary energy constraint on CO2 emissions.").
				Options(
					huh.NewOption("none", "skip"),
					huh.NewOption("configured budget (Co2L)", "budget"),
					huh.NewOption("fraction of the baseline (Co2L<f>)", "factor"),
				).
				Value(&co2Mode),
			huh.NewInput().
				Title("CO2 factor").
				Description("Fraction of the baseline emissions, only used with Co2L<f>.").
				Placeholder("0.05").
				Value(&co2Factor).
				Validate(validateFloatOrEmpty),
		),
		huh.NewGroup(
			huh.NewConfirm().
				Title("Internalize emission prices (Ep)?").
				Description("Raise marginal costs by the configured price per tonne.").
				Value(&emission),
			huh.NewInput().
				Title("Contingency factor (SC)").
				Description("Cap line loading at this fraction of capacity. Leave empty to skip.").
				Placeholder("0.7").
				Value(&security).
				Validate(validateFloatOrEmpty),
		),
		huh.NewGroup(
			huh.NewInput().
				Title("Carrier cost scaling").
				Description("Scale capital costs of one carrier, e.g. gas+1.4 (use a factor below 1 to cheapen).").
				Placeholder("gas+1.4").
				Value(&carrier).
				Validate(validateCarrierTokenOrEmpty),
			huh.NewSelect[string]().
				Title("Autarky").
				Description("Remove transmission so every region supplies itself.").
				Options(
					huh.NewOption("none", ""),
					huh.NewOption("remove all transmission (ATK)", "ATK"),
					huh.NewOption("remove cross-border transmission (ATKc)", "ATKc"),
				).
				Value(&autarky),
		),
		huh.NewGroup(
			huh.NewSelect[string]().
				Title("Transmission limit kind").
				Description("Measure the cap in line volume or in line cost.").
				Options(
					huh.NewOption("volume (v)", "v"),
					huh.NewOption("cost (c)", "c"),
				).
				Value(&limitKind),
			huh.NewInput().
				Title("Transmission limit value").
				Description("A factor of today's grid, or opt for unconstrained expansion.").
				Placeholder("opt").
				Value(&limitVal).
				Validate(validateLimitValue),
		),
	)

	if err := form.Run(); err != nil {
		if errors.Is(err, huh.ErrUserAborted) {
			return ScenarioFormResult{}, apperr.ErrCancelled
		}
		return ScenarioFormResult{}, fmt.Errorf("scenario form: %w", err)
	}

	var tokens []string
	if s := strings.TrimSpace(resample); s != "" {
		tokens = append(tokens, s+"H")
	}
	switch co2Mode {
	case "budget":
		tokens = append(tokens, "Co2L")
	case "factor":
		tokens = append(tokens, "Co2L"+strings.TrimSpace(co2Factor))
	}
	if emission {
		tokens = append(tokens, "Ep")
	}
	if s := strings.TrimSpace(security); s != "" {
		tokens = append(tokens, "SC"+s)
	}
	if s := strings.TrimSpace(carrier); s != "" {
		tokens = append(tokens, s)
	}
	if autarky != "" {
		tokens = append(tokens, autarky)
	}

	result := ScenarioFormResult{
		Opts: strings.Join(tokens, "-"),
		LL:   limitKind + strings.TrimSpace(limitVal),
	}
	return result, nil
}

func validatePositiveIntOrEmpty(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n <= 0 {
		return fmt.Errorf("enter a positive whole number of hours")
	}
	return nil
}

func validateFloatOrEmpty(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f < 0 {
		return fmt.Errorf("enter a non-negative number")
	}
	return nil
}

func validateCarrierTokenOrEmpty(s string) error {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil
	}
	if len(scenario.Parse(s).CarrierScales()) != 1 {
		return fmt.Errorf("use <carrier>+<factor>, e.g. gas+1.4")
	}
	return nil
}

func validateLimitValue(s string) error {
	s = strings.TrimSpace(s)
	if s == "opt" {
		return nil
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil || f <= 0 {
		return fmt.Errorf("enter opt or a positive factor")
	}
	return nil
}
