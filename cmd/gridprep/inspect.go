package cmd

import (
	"fmt"
	"sort"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/enerkit/gridprep/internal/netcsv"
	"github.com/enerkit/gridprep/internal/network"
	"github.com/enerkit/gridprep/internal/ui"
)

var (
	inspectNetwork      string
	inspectLogLevel     string
	inspectPlainSummary bool
)

// inspectCmd represents the inspect command
var inspectCmd = &cobra.Command{
	Use:   "inspect",
	Short: "Summarize a serialized network",
	Long: `Reads a serialized network directory and prints a read-only report:
component counts, snapshot resolution, installed generation capacity per
carrier and attached global constraints. The network is never modified.

Example:
  gridprep inspect --network networks/elec-37_lv1.5_24H-Co2L0.05`,
	RunE: runInspect,
}

func runInspect(cmd *cobra.Command, args []string) error {
	level := strings.ToLower(strings.TrimSpace(viper.GetString("inspect.log-level")))
	if level == "" {
		level = "standard"
	}
	verbosity, err := ui.ParseVerbosity(level)
	if err != nil {
		return err
	}
	quiet := verbosity == ui.VerbosityQuiet

	networkDir := viper.GetString("inspect.network")
	if networkDir == "" {
		return fmt.Errorf("--network is required")
	}
	plain := viper.GetBool("inspect.plain-summary")

	var spinner *ui.SimpleSpinner
	if !quiet && !plain {
		spinner = ui.NewSimpleSpinner(cmd.OutOrStdout(), fmt.Sprintf("Reading %s", networkDir))
		spinner.Start()
	}

	n, err := netcsv.Read(networkDir)
	if err != nil {
		if spinner != nil {
			spinner.Stop(false, err.Error())
		}
		return fmt.Errorf("read network: %w", err)
	}
	if spinner != nil {
		spinner.Stop(true, fmt.Sprintf("read %s", networkDir))
	}

	summary := buildSummary(n)

	// Quiet and plain-summary both fall back to the unstyled report.
	inspectUI := ui.NewInspectUI(cmd.OutOrStdout(), false)
	if plain || quiet {
		inspectUI.PrintSimpleSummary(summary)
		return nil
	}

	inspectUI.PrintSummary(summary)
	return nil
}

// buildSummary computes the report figures from a loaded network.
func buildSummary(n *network.Network) ui.NetworkSummary {
	sum := ui.NetworkSummary{
		Name:         n.Name,
		ID:           n.ID,
		Created:      n.Created,
		Snapshots:    len(n.Snapshots),
		Resolution:   resolutionLabel(n),
		TotalHours:   n.TotalWeight(),
		Buses:        len(n.Buses),
		Lines:        len(n.Lines),
		Links:        len(n.Links),
		Generators:   len(n.Generators),
		StorageUnits: len(n.StorageUnits),
		Loads:        len(n.Loads),
	}

	for _, l := range n.Lines {
		if l.SNomExtendable {
			sum.ExtendableLines++
		}
	}
	for _, l := range n.Links {
		if l.PNomExtendable {
			sum.ExtendableLinks++
		}
	}

	seen := map[string]bool{}
	for _, b := range n.Buses {
		if b.Country != "" && !seen[b.Country] {
			seen[b.Country] = true
			sum.Countries = append(sum.Countries, b.Country)
		}
	}
	sort.Strings(sum.Countries)

	capacity := map[string]float64{}
	total := 0.0
	for _, g := range n.Generators {
		capacity[g.Carrier] += g.PNom
		total += g.PNom
	}
	for carrier, mw := range capacity {
		share := 0.0
		if total > 0 {
			share = mw / total
		}
		sum.Carriers = append(sum.Carriers, ui.CarrierSummary{
			Name:     carrier,
			Capacity: mw,
			Share:    share,
		})
	}
	// Largest capacity first; ties by name for stable output.
	sort.Slice(sum.Carriers, func(i, j int) bool {
		if sum.Carriers[i].Capacity != sum.Carriers[j].Capacity {
			return sum.Carriers[i].Capacity > sum.Carriers[j].Capacity
		}
		return sum.Carriers[i].Name < sum.Carriers[j].Name
	})

	for _, gc := range n.GlobalConstraints {
		sum.Constraints = append(sum.Constraints, ui.ConstraintSummary{
			Name:     gc.Name,
			Type:     gc.Type,
			Sense:    gc.Sense,
			Constant: gc.Constant,
		})
	}

	return sum
}

func init() {
	inspectCmd.Flags().StringVarP(&inspectNetwork, "network", "n", "", "Path of the serialized network directory (required)")
	inspectCmd.Flags().StringVar(&inspectLogLevel, "log-level", "", "Log level: quiet|standard|debug")
	inspectCmd.Flags().BoolVar(&inspectPlainSummary, "plain-summary", false, "Print a machine-readable summary (no styling)")

	// Bind all flags to viper for config file support
	viper.BindPFlag("inspect.network", inspectCmd.Flags().Lookup("network"))
	viper.BindPFlag("inspect.log-level", inspectCmd.Flags().Lookup("log-level"))
	viper.BindPFlag("inspect.plain-summary", inspectCmd.Flags().Lookup("plain-summary"))
}
