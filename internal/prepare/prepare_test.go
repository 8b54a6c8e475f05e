package prepare

import (
	"context"
	"path/filepath"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/enerkit/gridprep/internal/apperr"
	"github.com/enerkit/gridprep/internal/config"
	"github.com/enerkit/gridprep/internal/scenario"
)

const demoConfigYAML = `
electricity:
  co2limit: 5.0e+8
  co2base: 1.487e+9
costs:
  year: 2030
  discountrate: 0.07
  usd_to_eur: 1.0
  emission_prices:
    co2: 10.0
lines:
  length_factor: 1.0
`

func demoConfig(t *testing.T, yaml string) *config.Config {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	c, err := config.FromViper(v)
	require.NoError(t, err)
	return c
}

func TestRun_AppliesScenarioInOrder(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	var events []ProgressEvent

	err := Run(context.Background(), n, RunOptions{
		Scenario:   scenario.Parse("24H-Co2L0.05-Ep-gas+1.2-ATKc"),
		Limit:      mustLimit(t, "v1.5"),
		Config:     demoConfig(t, demoConfigYAML),
		CostsPath:  writeCostsCSV(t),
		OnProgress: func(e ProgressEvent) { events = append(events, e) },
	})
	require.NoError(t, err)
	require.NoError(t, n.Validate())

	// four hourly snapshots collapse into one day-wide bucket
	require.Len(t, n.Snapshots, 1)
	require.Equal(t, 8760.0, n.TotalWeight())

	gc, ok := n.GlobalConstraint("CO2Limit")
	require.True(t, ok)
	require.InDelta(t, 0.05*1.487e9, gc.Constant, 1e-3)

	// configured price co2=10 on gas (0.2 t/MWh) at 0.5 efficiency
	require.InDelta(t, 50+10*0.2/0.5, n.Generators[0].MarginalCost, 1e-9)
	// gas+1.2 scaled the gas generator's capital cost
	require.InDelta(t, 400*1.2, n.Generators[0].CapitalCost, 1e-9)

	// the volume limit saw the full grid, before autarky trimmed it
	wantRef := effectiveCap()*100 + 500*50 + 1000*200
	lv, ok := n.GlobalConstraint("lv_limit")
	require.True(t, ok)
	require.InDelta(t, 1.5*wantRef, lv.Constant, 1e-6)

	// cross-border removal keeps the domestic line and gas link only
	require.Len(t, n.Lines, 1)
	require.Equal(t, "l0", n.Lines[0].Name)
	require.True(t, n.Lines[0].SNomExtendable)
	require.Equal(t, 0.5, n.Lines[0].SMaxPU) // 3-bus margin, no SC override
	require.Len(t, n.Links, 1)
	require.Equal(t, "b2g0", n.Links[0].Name)

	var applied, skipped []string
	for _, e := range events {
		switch e.Type {
		case EventStepApplied:
			applied = append(applied, e.Step)
		case EventStepSkipped:
			skipped = append(skipped, e.Step)
		}
	}
	require.Equal(t, []string{
		StepMargin, StepResample, StepCO2, StepEmission,
		StepCarrier, StepLimit, StepCeiling, StepAutarky,
	}, applied)
	require.Contains(t, skipped, StepSecurity)
}

func TestRun_MissingConfigKeyFailsBeforeMutation(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	yaml := "costs:\n  year: 2030\n  discountrate: 0.07\n  usd_to_eur: 1.0\n"

	err := Run(context.Background(), n, RunOptions{
		Scenario:  scenario.Parse("Co2L0.05"),
		Limit:     mustLimit(t, "v1.0"),
		Config:    demoConfig(t, yaml),
		CostsPath: writeCostsCSV(t),
	})
	require.Error(t, err)
	require.True(t, apperr.IsUser(err))
	require.Contains(t, err.Error(), "electricity.co2base")

	// nothing ran: the margin initializer would have touched every line
	require.Equal(t, 1.0, n.Lines[0].SMaxPU)
	require.Len(t, n.Snapshots, 4)
}

func TestRun_DuplicateCO2LimitIsFatal(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	err := Run(context.Background(), n, RunOptions{
		Scenario:  scenario.Parse("Co2L-Co2L0.05"),
		Limit:     mustLimit(t, "vopt"),
		Config:    demoConfig(t, demoConfigYAML),
		CostsPath: writeCostsCSV(t),
	})
	require.ErrorContains(t, err, `"CO2Limit"`)
}

func TestRun_ReportsUnknownTokens(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	var unknown []string
	err := Run(context.Background(), n, RunOptions{
		Scenario:  scenario.Parse("24H-XYZZY"),
		Limit:     mustLimit(t, "vopt"),
		Config:    demoConfig(t, demoConfigYAML),
		CostsPath: writeCostsCSV(t),
		OnProgress: func(e ProgressEvent) {
			if e.Type == EventStepSkipped && e.Detail == "unrecognized option" {
				unknown = append(unknown, e.Token)
			}
		},
	})
	require.NoError(t, err)
	require.Equal(t, []string{"XYZZY"}, unknown)
}

func TestRun_CancelledContextStopsBeforeWork(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := Run(ctx, n, RunOptions{
		Scenario:  scenario.Parse("24H"),
		Limit:     mustLimit(t, "vopt"),
		Config:    demoConfig(t, demoConfigYAML),
		CostsPath: writeCostsCSV(t),
	})
	require.ErrorIs(t, err, context.Canceled)
	require.Equal(t, 1.0, n.Lines[0].SMaxPU)
}

func TestRun_MissingCostTableFails(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	err := Run(context.Background(), n, RunOptions{
		Scenario:  scenario.Parse("24H"),
		Limit:     mustLimit(t, "v1.0"),
		Config:    demoConfig(t, demoConfigYAML),
		CostsPath: filepath.Join(t.TempDir(), "absent.csv"),
	})
	require.ErrorContains(t, err, "load cost table")
}
