package prepare

import (
	"math"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/enerkit/gridprep/internal/config"
	"github.com/enerkit/gridprep/internal/costs"
	"github.com/enerkit/gridprep/internal/network"
	"github.com/enerkit/gridprep/internal/scenario"
)

// demoNetwork builds a three-bus, two-country network: a typed domestic line,
// an untyped cross-border line, a cross-border DC link and a domestic gas
// link, plus generators and storage to exercise every modifier.
func demoNetwork(t *testing.T) *network.Network {
	t.Helper()

	n := network.New("elec-demo")
	start := time.Date(2013, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 4; i++ {
		n.Snapshots = append(n.Snapshots, start.Add(time.Duration(i)*time.Hour))
		n.SnapshotWeights = append(n.SnapshotWeights, 2190) // sums to 8760
	}
	n.Buses = []network.Bus{
		{Name: "DE0", VNom: 380, Carrier: "AC", Country: "DE"},
		{Name: "DE1", VNom: 380, Carrier: "AC", Country: "DE"},
		{Name: "FR0", VNom: 380, Carrier: "AC", Country: "FR"},
	}
	n.Carriers = []network.Carrier{
		{Name: "AC"},
		{Name: "DC"},
		{Name: "gas", Emissions: map[string]float64{"co2": 0.2}},
		{Name: "biogas"},
		{Name: "solar"},
		{Name: "hydro"},
	}
	n.LineTypes = []network.LineType{{Name: "std", INom: 1.0}}
	n.Lines = []network.Line{
		{Name: "l0", Bus0: "DE0", Bus1: "DE1", Type: "std", NumParallel: 2, Length: 100, SNomMax: math.Inf(1), SMaxPU: 1, CapitalCost: 120},
		{Name: "l1", Bus0: "DE0", Bus1: "FR0", Length: 50, SNom: 500, SNomMax: math.Inf(1), SMaxPU: 1, CapitalCost: 60},
	}
	n.Links = []network.Link{
		{Name: "dc0", Bus0: "DE0", Bus1: "FR0", Carrier: "DC", Length: 200, UnderwaterFraction: 0.25, PNom: 1000, PNomMax: math.Inf(1), Efficiency: 1, CapitalCost: 900},
		{Name: "b2g0", Bus0: "DE0", Bus1: "DE1", Carrier: "gas", Length: 30, PNom: 50, PNomMax: math.Inf(1), Efficiency: 0.6, CapitalCost: 200},
	}
	n.Generators = []network.Generator{
		{Name: "gen-gas", Bus: "DE0", Carrier: "gas", PNom: 800, Efficiency: 0.5, MarginalCost: 50, CapitalCost: 400},
		{Name: "gen-bio", Bus: "DE1", Carrier: "biogas", PNom: 100, Efficiency: 0.4, MarginalCost: 70, CapitalCost: 100},
		{Name: "gen-sol", Bus: "FR0", Carrier: "solar", PNom: 300, Efficiency: 1, CapitalCost: 300},
	}
	n.StorageUnits = []network.StorageUnit{
		{Name: "su-hydro", Bus: "DE1", Carrier: "hydro", PNom: 200, MaxHours: 6, EfficiencyStore: 0.9, EfficiencyDispatch: 0.9, CapitalCost: 1000},
	}
	n.Loads = []network.Load{{Name: "load-DE0", Bus: "DE0"}}

	require.NoError(t, n.Validate())
	return n
}

// effectiveCap mirrors the typed-line rating: sqrt(3) * i_nom * parallel * v_nom.
func effectiveCap() float64 { return math.Sqrt(3) * 1.0 * 2 * 380 }

func TestLineMargin_Bounds(t *testing.T) {
	t.Parallel()

	require.Equal(t, 0.5, LineMargin(10))
	require.Equal(t, 0.5, LineMargin(37))
	require.Equal(t, 0.7, LineMargin(200))
	require.Equal(t, 0.7, LineMargin(500))

	mid := LineMargin(118)
	require.InDelta(t, 0.5+0.2*81/163, mid, 1e-12)
	require.LessOrEqual(t, mid, LineMargin(150))
	require.GreaterOrEqual(t, mid, LineMargin(60))
}

func TestSetLineMargin_AppliesToEveryLine(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	m := SetLineMargin(n)

	require.Equal(t, 0.5, m) // 3 buses
	for _, l := range n.Lines {
		require.Equal(t, 0.5, l.SMaxPU)
	}
}

func TestAddCO2Limit_RelativeScalesBaseline(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	factor := 0.05
	elec := config.Electricity{CO2Base: 1.487e9, CO2Limit: 5e8}

	constant, err := AddCO2Limit(n, &factor, elec, 3.0)
	require.NoError(t, err)
	require.Equal(t, 0.05*1.487e9*3.0, constant)

	gc, ok := n.GlobalConstraint("CO2Limit")
	require.True(t, ok)
	require.Equal(t, "primary_energy", gc.Type)
	require.Equal(t, "co2_emissions", gc.CarrierAttribute)
	require.Equal(t, "<=", gc.Sense)
	require.Equal(t, constant, gc.Constant)
}

func TestAddCO2Limit_AbsoluteIgnoresSpan(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	elec := config.Electricity{CO2Base: 1.487e9, CO2Limit: 5e8}

	constant, err := AddCO2Limit(n, nil, elec, 3.0)
	require.NoError(t, err)
	require.Equal(t, 5e8, constant)
}

func TestAddCO2Limit_SecondConstraintFails(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	elec := config.Electricity{CO2Base: 1.487e9, CO2Limit: 5e8}

	_, err := AddCO2Limit(n, nil, elec, 1.0)
	require.NoError(t, err)
	factor := 0.1
	_, err = AddCO2Limit(n, &factor, elec, 1.0)
	require.ErrorContains(t, err, `"CO2Limit"`)
}

func TestSetSecurityMargin(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	v := 0.7
	require.Equal(t, 0.7, SetSecurityMargin(n, &v))
	for _, l := range n.Lines {
		require.Equal(t, 0.7, l.SMaxPU)
	}

	require.Equal(t, 1.0, SetSecurityMargin(n, nil))
	for _, l := range n.Lines {
		require.Equal(t, 1.0, l.SMaxPU)
	}
}

func TestAddEmissionPrices_RaisesMarginalCosts(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	n.StorageUnits = append(n.StorageUnits, network.StorageUnit{
		Name: "su-caes", Bus: "DE0", Carrier: "gas", PNom: 50,
		EfficiencyStore: 0.8, EfficiencyDispatch: 0.8, MarginalCost: 5,
	})

	gens, sus := AddEmissionPrices(n, map[string]float64{"co2": 30})

	require.Equal(t, 1, gens)
	require.Equal(t, 1, sus)
	// gas: 30 EUR/t x 0.2 t/MWh = 6 EUR/MWh_th
	require.Equal(t, 50+6/0.5, n.Generators[0].MarginalCost)
	require.Equal(t, 70.0, n.Generators[1].MarginalCost) // biogas tracks no co2
	require.Equal(t, 0.0, n.Generators[2].MarginalCost)
	require.Equal(t, 0.0, n.StorageUnits[0].MarginalCost)
	require.Equal(t, 5+6/0.8, n.StorageUnits[1].MarginalCost)
}

func TestScaleCarrierCosts_MatchesByContainment(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	scaled, ok := ScaleCarrierCosts(n, "gas", 1.2)

	require.True(t, ok)
	require.Equal(t, 3, scaled) // gen-gas, gen-bio (biogas), b2g0
	require.InDelta(t, 480, n.Generators[0].CapitalCost, 1e-9)
	require.InDelta(t, 120, n.Generators[1].CapitalCost, 1e-9)
	require.Equal(t, 300.0, n.Generators[2].CapitalCost)
	require.InDelta(t, 240, n.Links[1].CapitalCost, 1e-9)
	require.Equal(t, 900.0, n.Links[0].CapitalCost) // DC untouched
	require.Equal(t, 120.0, n.Lines[0].CapitalCost) // lines only scale via "AC"
}

func TestScaleCarrierCosts_TwiceCompounds(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	_, ok := ScaleCarrierCosts(n, "gas", 1.2)
	require.True(t, ok)
	_, ok = ScaleCarrierCosts(n, "gas", 1.2)
	require.True(t, ok)

	require.InDelta(t, 400*1.44, n.Generators[0].CapitalCost, 1e-9)
}

func TestScaleCarrierCosts_ACTargetsLines(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	scaled, ok := ScaleCarrierCosts(n, "AC", 2.0)

	require.True(t, ok)
	require.Equal(t, 2, scaled)
	require.Equal(t, 240.0, n.Lines[0].CapitalCost)
	require.Equal(t, 120.0, n.Lines[1].CapitalCost)
	require.Equal(t, 400.0, n.Generators[0].CapitalCost)
}

func TestScaleCarrierCosts_UnknownPrefixSkips(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	scaled, ok := ScaleCarrierCosts(n, "coal", 0.5)

	require.False(t, ok)
	require.Zero(t, scaled)
	require.Equal(t, 400.0, n.Generators[0].CapitalCost)
}

func TestScaleCarrierCosts_KnownPrefixNoMatchesScalesNothing(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	// "gasCCS" extends the known "gas" prefix but no carrier contains it.
	scaled, ok := ScaleCarrierCosts(n, "gasCCS", 2.0)

	require.True(t, ok)
	require.Zero(t, scaled)
}

// writeCostsCSV writes a cost table whose derived capital costs equal the
// raw investments (discount rate 0, lifetime 1) and returns its path.
func writeCostsCSV(t *testing.T) string {
	t.Helper()

	rows := "technology,year,parameter,value,unit\n"
	for tech, inv := range map[string]string{
		"HVAC overhead":      "18",
		"HVDC overhead":      "40",
		"HVDC submarine":     "80",
		"HVDC inverter pair": "7500",
	} {
		rows += tech + ",2030,investment," + inv + ",EUR/MW/km\n"
		rows += tech + ",2030,lifetime,1,years\n"
		rows += tech + ",2030,discount rate,0,per unit\n"
	}
	path := filepath.Join(t.TempDir(), "costs.csv")
	require.NoError(t, os.WriteFile(path, []byte(rows), 0o600))
	return path
}

func transmissionTable(t *testing.T) *costs.Table {
	t.Helper()
	table, err := costs.Load(writeCostsCSV(t), costs.Options{Year: 2030, DiscountRate: 0.07, USDToEUR: 1, Nyears: 1})
	require.NoError(t, err)
	return table
}

func mustLimit(t *testing.T, ll string) scenario.TransmissionLimit {
	t.Helper()
	limit, err := scenario.ParseTransmissionLimit(ll)
	require.NoError(t, err)
	return limit
}

func TestSetTransmissionLimit_OptExtendsWithoutConstraint(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	ref, err := SetTransmissionLimit(n, mustLimit(t, "vopt"), transmissionTable(t), 1.0)
	require.NoError(t, err)

	wantRef := effectiveCap()*100 + 500*50 + 1000*200
	require.InDelta(t, wantRef, ref, 1e-6)
	require.Empty(t, n.GlobalConstraints)

	require.True(t, n.Lines[0].SNomExtendable)
	require.InDelta(t, effectiveCap(), n.Lines[0].SNomMin, 1e-9)
	require.True(t, n.Lines[1].SNomExtendable)
	require.Equal(t, 500.0, n.Lines[1].SNomMin)
	require.True(t, n.Links[0].PNomExtendable)
	require.Equal(t, 1000.0, n.Links[0].PNomMin)
	require.False(t, n.Links[1].PNomExtendable) // non-DC link stays fixed

	// capital costs refreshed from the table
	require.InDelta(t, 100*18, n.Lines[0].CapitalCost, 1e-9)
	require.InDelta(t, 50*18, n.Lines[1].CapitalCost, 1e-9)
	require.InDelta(t, 200*((1-0.25)*40+0.25*80)+7500, n.Links[0].CapitalCost, 1e-9)
	require.Equal(t, 200.0, n.Links[1].CapitalCost)
}

func TestSetTransmissionLimit_FactorAboveOneConstrainsAndExtends(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	ref, err := SetTransmissionLimit(n, mustLimit(t, "v1.5"), transmissionTable(t), 1.0)
	require.NoError(t, err)

	gc, ok := n.GlobalConstraint("lv_limit")
	require.True(t, ok)
	require.Equal(t, "transmission_volume_expansion_limit", gc.Type)
	require.Equal(t, "AC, DC", gc.CarrierAttribute)
	require.Equal(t, "<=", gc.Sense)
	require.InDelta(t, 1.5*ref, gc.Constant, 1e-6)
	require.True(t, n.Lines[0].SNomExtendable)
}

func TestSetTransmissionLimit_FactorBelowOneConstrainsOnly(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	ref, err := SetTransmissionLimit(n, mustLimit(t, "v0.5"), transmissionTable(t), 1.0)
	require.NoError(t, err)

	gc, ok := n.GlobalConstraint("lv_limit")
	require.True(t, ok)
	require.InDelta(t, 0.5*ref, gc.Constant, 1e-6)
	require.False(t, n.Lines[0].SNomExtendable)
	require.False(t, n.Links[0].PNomExtendable)
}

func TestSetTransmissionLimit_CostKindUsesPreRefreshCosts(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	ref, err := SetTransmissionLimit(n, mustLimit(t, "c1.2"), transmissionTable(t), 1.0)
	require.NoError(t, err)

	// reference uses the capital costs the network was loaded with, not the
	// refreshed ones
	wantRef := effectiveCap()*120 + 500*60 + 1000*900
	require.InDelta(t, wantRef, ref, 1e-6)

	gc, ok := n.GlobalConstraint("lc_limit")
	require.True(t, ok)
	require.Equal(t, "transmission_expansion_cost_limit", gc.Type)
	require.InDelta(t, 1.2*wantRef, gc.Constant, 1e-6)
}

func TestClampCapacityCeilings(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	n.Lines[1].SNomMax = 400 // already below the ceiling

	clipped := ClampCapacityCeilings(n, 5000, 3000)
	require.Equal(t, 3, clipped)
	require.Equal(t, 5000.0, n.Lines[0].SNomMax)
	require.Equal(t, 400.0, n.Lines[1].SNomMax)
	require.Equal(t, 3000.0, n.Links[0].PNomMax)
	require.Equal(t, 3000.0, n.Links[1].PNomMax)
}

func TestClampCapacityCeilings_UnboundedIsNoop(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	require.Zero(t, ClampCapacityCeilings(n, math.Inf(1), math.Inf(1)))
	require.True(t, math.IsInf(n.Lines[0].SNomMax, 1))
}

func TestEnforceAutarky_RemovesAllTransmission(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	lines, links := EnforceAutarky(n, false)

	require.Equal(t, 2, lines)
	require.Equal(t, 2, links)
	require.Empty(t, n.Lines)
	require.Empty(t, n.Links)
	require.NoError(t, n.Validate())
}

func TestEnforceAutarky_CrossBorderOnly(t *testing.T) {
	t.Parallel()

	n := demoNetwork(t)
	lines, links := EnforceAutarky(n, true)

	require.Equal(t, 1, lines)
	require.Equal(t, 1, links)
	require.Len(t, n.Lines, 1)
	require.Equal(t, "l0", n.Lines[0].Name)
	require.Len(t, n.Links, 1)
	require.Equal(t, "b2g0", n.Links[0].Name)
}
