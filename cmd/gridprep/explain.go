package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/enerkit/gridprep/internal/prepare"
	"github.com/enerkit/gridprep/internal/scenario"
	"github.com/enerkit/gridprep/internal/ui"
)

var (
	explainOpts         string
	explainLL           string
	explainScenarioFile string
	explainPreset       string
	explainInteractive  bool
	explainPlainOutput  bool
)

// explainCmd represents the explain command
var explainCmd = &cobra.Command{
	Use:   "explain",
	Short: "Show what a scenario would do, without touching a network",
	Long: `Parses the opts and ll wildcards and renders the typed interpretation:
which modifiers would run, in which order, with which parameters. Unrecognized
tokens are flagged. With --interactive the wildcards are composed through a
form first.

Example:
  gridprep explain --opts 24H-Co2L0.05-Ep-gas+1.4 --ll v1.5
  gridprep explain --interactive`,
	RunE: runExplain,
}

func runExplain(cmd *cobra.Command, args []string) error {
	optsStr, llStr, err := resolveScenario("explain")
	if err != nil {
		return err
	}

	if viper.GetBool("explain.interactive") {
		result, err := ui.RunScenarioForm()
		if err != nil {
			return err
		}
		optsStr = result.Opts
		llStr = result.LL
	}

	if llStr == "" {
		return fmt.Errorf("--ll is required (or use --interactive)")
	}

	limit, err := scenario.ParseTransmissionLimit(llStr)
	if err != nil {
		return err
	}
	sc := scenario.Parse(optsStr)

	explainUI := ui.NewExplainUI(cmd.OutOrStdout(), false)
	if viper.GetBool("explain.plain-summary") {
		explainUI.PrintSimpleScenario(optsStr, llStr, sc, limit)
		return nil
	}

	explainUI.PrintScenario(optsStr, llStr, sc, limit, buildStepLines(sc, llStr, limit))
	return nil
}

// buildStepLines maps the fixed pipeline order onto the parsed scenario.
func buildStepLines(sc scenario.Options, llStr string, limit scenario.TransmissionLimit) []ui.StepLine {
	var lines []ui.StepLine
	for _, name := range prepare.Steps() {
		line := ui.StepLine{Name: name}
		switch name {
		case prepare.StepMargin, prepare.StepCeiling:
			line.Triggered = true
			line.Summary = "always applied"
		case prepare.StepResample:
			if r, ok := sc.FirstResample(); ok {
				line.Triggered = true
				line.Token = r.Token()
				line.Summary = r.Summary()
			}
		case prepare.StepCO2:
			limits := sc.CO2Limits()
			if len(limits) > 0 {
				line.Triggered = true
				line.Token = joinTokens(limits)
				line.Summary = limits[0].Summary()
				if len(limits) > 1 {
					line.Summary += " (duplicate tokens fail at run time)"
				}
			}
		case prepare.StepSecurity:
			if margins := sc.SecurityMargins(); len(margins) > 0 {
				line.Triggered = true
				line.Token = joinTokens(margins)
				line.Summary = margins[len(margins)-1].Summary()
			}
		case prepare.StepEmission:
			if prices := sc.EmissionPrices(); len(prices) > 0 {
				line.Triggered = true
				line.Token = joinTokens(prices)
				line.Summary = prices[len(prices)-1].Summary()
			}
		case prepare.StepCarrier:
			if scales := sc.CarrierScales(); len(scales) > 0 {
				line.Triggered = true
				line.Token = joinTokens(scales)
				summaries := make([]string, len(scales))
				for i, s := range scales {
					summaries[i] = s.Summary()
				}
				line.Summary = strings.Join(summaries, "; ")
			}
		case prepare.StepLimit:
			line.Triggered = true
			line.Token = llStr
			line.Summary = limit.Summary()
		case prepare.StepAutarky:
			if a, ok := sc.AutarkyMode(); ok {
				line.Triggered = true
				line.Token = a.Token()
				line.Summary = a.Summary()
			}
		}
		lines = append(lines, line)
	}
	return lines
}

func joinTokens[T scenario.Option](opts []T) string {
	tokens := make([]string, len(opts))
	for i, o := range opts {
		tokens[i] = o.Token()
	}
	return strings.Join(tokens, ", ")
}

func init() {
	explainCmd.Flags().StringVar(&explainOpts, "opts", "", "Scenario opts wildcard, e.g. 24H-Co2L0.05-Ep")
	explainCmd.Flags().StringVar(&explainLL, "ll", "", "Transmission limit wildcard, e.g. v1.5 or copt")
	explainCmd.Flags().StringVar(&explainScenarioFile, "scenario-file", "", "YAML file with named opts/ll presets")
	explainCmd.Flags().StringVar(&explainPreset, "preset", "", "Preset name to take opts/ll from")
	explainCmd.Flags().BoolVar(&explainInteractive, "interactive", false, "Compose the scenario through a form")
	explainCmd.Flags().BoolVar(&explainPlainOutput, "plain-summary", false, "Print a machine-readable breakdown (no styling)")

	// Bind all flags to viper for config file support
	viper.BindPFlag("explain.opts", explainCmd.Flags().Lookup("opts"))
	viper.BindPFlag("explain.ll", explainCmd.Flags().Lookup("ll"))
	viper.BindPFlag("explain.scenario-file", explainCmd.Flags().Lookup("scenario-file"))
	viper.BindPFlag("explain.preset", explainCmd.Flags().Lookup("preset"))
	viper.BindPFlag("explain.interactive", explainCmd.Flags().Lookup("interactive"))
	viper.BindPFlag("explain.plain-summary", explainCmd.Flags().Lookup("plain-summary"))
}
