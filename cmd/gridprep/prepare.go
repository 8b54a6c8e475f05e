package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/enerkit/gridprep/internal/config"
	"github.com/enerkit/gridprep/internal/costs"
	"github.com/enerkit/gridprep/internal/netcsv"
	"github.com/enerkit/gridprep/internal/network"
	"github.com/enerkit/gridprep/internal/prepare"
	"github.com/enerkit/gridprep/internal/scenario"
	"github.com/enerkit/gridprep/internal/ui"
)

var (
	prepareNetwork      string
	prepareTechCosts    string
	prepareOutput       string
	prepareOpts         string
	prepareLL           string
	prepareScenarioFile string
	preparePreset       string
	prepareLogLevel     string
)

// prepareCmd represents the prepare command
var prepareCmd = &cobra.Command{
	Use:   "prepare",
	Short: "Apply a scenario to a network and write the result",
	Long: `Applies the modifiers selected by the opts and ll wildcards to a serialized
network, in a fixed order: line margin, resampling, CO2 limit, security margin,
emission prices, carrier cost scaling, transmission limit, capacity ceilings,
autarky. The network is written to --output only when every step succeeds.

Wildcard grammar:
  opts  dash-separated tokens, e.g. 24H-Co2L0.05-Ep-gas+1.4-ATKc
  ll    <kind><factor> where kind is v (volume) or c (cost) and factor is a
        number or opt, e.g. v1.5, copt

Example:
  gridprep prepare --network networks/elec-37 --tech-costs data/costs.csv \
    --output networks/elec-37_lv1.5_24H-Co2L0.05 --opts 24H-Co2L0.05 --ll v1.5

  # Named scenarios from a preset file
  gridprep prepare --network networks/elec-37 --tech-costs data/costs.csv \
    --output networks/out --scenario-file scenarios.yaml --preset lowco2-daily`,
	RunE: runPrepare,
}

func runPrepare(cmd *cobra.Command, args []string) error {
	// Resolve effective log level (from config, env, or flag).
	level := strings.ToLower(strings.TrimSpace(viper.GetString("prepare.log-level")))
	if level == "" {
		level = "standard"
	}
	verbosity, err := ui.ParseVerbosity(level)
	if err != nil {
		return err
	}

	networkDir := viper.GetString("prepare.network")
	if networkDir == "" {
		return fmt.Errorf("--network is required")
	}
	costsPath := viper.GetString("prepare.tech-costs")
	if costsPath == "" {
		return fmt.Errorf("--tech-costs is required")
	}
	outputDir := viper.GetString("prepare.output")
	if outputDir == "" {
		return fmt.Errorf("--output is required")
	}

	optsStr, llStr, err := resolveScenario("prepare")
	if err != nil {
		return err
	}
	if llStr == "" {
		return fmt.Errorf("--ll is required")
	}

	limit, err := scenario.ParseTransmissionLimit(llStr)
	if err != nil {
		return err
	}
	sc := scenario.Parse(optsStr)

	// Wire internal package logging
	if verbosity == ui.VerbosityDebug {
		lw := cmd.ErrOrStderr()
		prepare.SetLogger(lw)
		costs.SetLogger(lw)
	}

	cfg, err := config.FromViper(viper.GetViper())
	if err != nil {
		return err
	}

	prepUI := ui.NewPrepareUI(cmd.OutOrStdout(), verbosity)

	n, err := netcsv.Read(networkDir)
	if err != nil {
		wrapped := fmt.Errorf("read network: %w", err)
		prepUI.PrintError(wrapped)
		return wrapped
	}

	prepUI.StartPipeline(n.Name, prepare.Steps())

	applied, skipped := 0, 0
	var unknowns []string
	onProgress := func(evt prepare.ProgressEvent) {
		switch evt.Type {
		case prepare.EventStepStart:
			prepUI.StepRunning(evt.Step, evt.Token)
		case prepare.EventStepApplied:
			applied++
			prepUI.StepApplied(evt.Step, evt.Token, evt.Detail)
		case prepare.EventStepSkipped:
			if evt.Step == "" {
				// A token no modifier recognized; reported, never fatal.
				unknowns = append(unknowns, evt.Token)
				prepUI.UnknownToken(evt.Token)
				return
			}
			skipped++
			prepUI.StepSkipped(evt.Step, evt.Token, evt.Detail)
		case prepare.EventStepError:
			prepUI.StepFailed(evt.Step, evt.Token, evt.Error)
		}
	}

	runErr := prepare.Run(cmd.Context(), n, prepare.RunOptions{
		Scenario:   sc,
		Limit:      limit,
		Config:     cfg,
		CostsPath:  costsPath,
		OnProgress: onProgress,
	})
	prepUI.FinishPipeline(runErr)
	if runErr != nil {
		prepUI.PrintError(runErr)
		return runErr
	}

	if err := netcsv.Write(n, outputDir); err != nil {
		wrapped := fmt.Errorf("write network: %w", err)
		prepUI.PrintError(wrapped)
		return wrapped
	}

	prepUI.PrintSummary(ui.PrepareSummary{
		Network:       n.Name,
		Scenario:      displayOpts(optsStr),
		Limit:         llStr,
		Applied:       applied,
		Skipped:       skipped,
		UnknownTokens: unknowns,
		Snapshots:     len(n.Snapshots),
		Resolution:    resolutionLabel(n),
		Constraints:   constraintLines(n),
		Output:        outputDir,
	})
	return nil
}

// resolveScenario returns the opts and ll wildcards for the named command,
// filling in blanks from the preset file when one is given.
func resolveScenario(command string) (string, string, error) {
	optsStr := viper.GetString(command + ".opts")
	llStr := viper.GetString(command + ".ll")

	file := viper.GetString(command + ".scenario-file")
	name := viper.GetString(command + ".preset")
	if file == "" {
		if name != "" {
			return "", "", fmt.Errorf("--preset requires --scenario-file")
		}
		return optsStr, llStr, nil
	}
	if name == "" {
		return "", "", fmt.Errorf("--preset is required with --scenario-file")
	}
	presets, err := scenario.LoadPresets(file)
	if err != nil {
		return "", "", err
	}
	preset, err := scenario.FindPreset(presets, name)
	if err != nil {
		return "", "", err
	}

	// Explicit flags win over the preset.
	if optsStr == "" {
		optsStr = preset.Opts
	}
	if llStr == "" {
		llStr = preset.LL
	}
	return optsStr, llStr, nil
}

func displayOpts(opts string) string {
	if opts == "" {
		return "(none)"
	}
	return opts
}

func resolutionLabel(n *network.Network) string {
	if len(n.SnapshotWeights) == 0 {
		return "empty"
	}
	w := n.SnapshotWeights[0]
	for _, v := range n.SnapshotWeights[1:] {
		if v != w {
			return "mixed resolution"
		}
	}
	return fmt.Sprintf("%gh steps", w)
}

func constraintLines(n *network.Network) []string {
	var out []string
	for _, gc := range n.GlobalConstraints {
		out = append(out, fmt.Sprintf("%s %s %g (%s)", gc.Name, gc.Sense, gc.Constant, gc.Type))
	}
	return out
}

func init() {
	prepareCmd.Flags().StringVarP(&prepareNetwork, "network", "n", "", "Path of the serialized network directory (required)")
	prepareCmd.Flags().StringVar(&prepareTechCosts, "tech-costs", "", "Path of the technology cost table CSV (required)")
	prepareCmd.Flags().StringVarP(&prepareOutput, "output", "o", "", "Destination directory for the prepared network (required)")
	prepareCmd.Flags().StringVar(&prepareOpts, "opts", "", "Scenario opts wildcard, e.g. 24H-Co2L0.05-Ep")
	prepareCmd.Flags().StringVar(&prepareLL, "ll", "", "Transmission limit wildcard, e.g. v1.5 or copt (required)")
	prepareCmd.Flags().StringVar(&prepareScenarioFile, "scenario-file", "", "YAML file with named opts/ll presets")
	prepareCmd.Flags().StringVar(&preparePreset, "preset", "", "Preset name to take opts/ll from")
	prepareCmd.Flags().StringVar(&prepareLogLevel, "log-level", "", "Log level: quiet|standard|debug")

	// Bind all flags to viper for config file support
	viper.BindPFlag("prepare.network", prepareCmd.Flags().Lookup("network"))
	viper.BindPFlag("prepare.tech-costs", prepareCmd.Flags().Lookup("tech-costs"))
	viper.BindPFlag("prepare.output", prepareCmd.Flags().Lookup("output"))
	viper.BindPFlag("prepare.opts", prepareCmd.Flags().Lookup("opts"))
	viper.BindPFlag("prepare.ll", prepareCmd.Flags().Lookup("ll"))
	viper.BindPFlag("prepare.scenario-file", prepareCmd.Flags().Lookup("scenario-file"))
	viper.BindPFlag("prepare.preset", prepareCmd.Flags().Lookup("preset"))
	viper.BindPFlag("prepare.log-level", prepareCmd.Flags().Lookup("log-level"))
}
