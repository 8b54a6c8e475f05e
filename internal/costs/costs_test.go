package costs

import (
	"math"
	"os"
	"path/filepath"
	"testing"

	"github.com/enerkit/gridprep/internal/network"
)

func writeCostCSV(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "costs.csv")
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	return path
}

func TestAnnuity(t *testing.T) {
	tcs := []struct {
		n, r, want, tol float64
	}{
		{20, 0, 0.05, 0},
		{1, 0, 1, 0},
		{25, -0.01, 0.04, 0}, // non-positive rates degrade to straight line
		{25, 0.07, 0.08581, 1e-4},
	}
	for _, tc := range tcs {
		got := Annuity(tc.n, tc.r)
		if math.Abs(got-tc.want) > tc.tol {
			t.Fatalf("Annuity(%v,%v) = %v, want %v", tc.n, tc.r, got, tc.want)
		}
	}
}

func TestLoad_DerivesCapitalAndMarginalCosts(t *testing.T) {
	path := writeCostCSV(t, `technology,year,parameter,value,unit,source
solar,2030,investment,1000,EUR/kWel,catalog
solar,2030,lifetime,20,years,catalog
solar,2030,discount rate,0,per unit,catalog
solar,2025,investment,9999,EUR/kWel,stale row for another year
gas,2030,fuel,20,EUR/MWhth,catalog
gas,2030,CO2 intensity,0.2,tCO2/MWhth,catalog
OCGT,2030,investment,400,EUR/kWel,catalog
OCGT,2030,efficiency,0.4,per unit,catalog
OCGT,2030,VOM,3,EUR/MWhel,catalog
`)

	table, err := Load(path, Options{Year: 2030, DiscountRate: 0.07, USDToEUR: 0.75, Nyears: 1})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if table.Technologies() != 3 {
		t.Fatalf("Technologies = %d, want 3", table.Technologies())
	}

	solar, ok := table.Technology("solar")
	if !ok {
		t.Fatalf("solar missing")
	}
	// 1000 EUR/kW becomes 1e6 EUR/MW; zero rate over 20 years gives 1/20.
	if got, want := solar.CapitalCost, 1e6/20; math.Abs(got-want) > 1e-9 {
		t.Fatalf("solar capital cost = %v, want %v", got, want)
	}

	ocgt, ok := table.Technology("OCGT")
	if !ok {
		t.Fatalf("OCGT missing")
	}
	if ocgt.Fuel != 20 || ocgt.CO2Intensity != 0.2 {
		t.Fatalf("OCGT should inherit gas fuel and intensity, got fuel=%v co2=%v", ocgt.Fuel, ocgt.CO2Intensity)
	}
	if got, want := ocgt.MarginalCost, 3+20/0.4; math.Abs(got-want) > 1e-9 {
		t.Fatalf("OCGT marginal cost = %v, want %v", got, want)
	}
	// Inherited defaults: 25 years at the configured 7%.
	if got, want := ocgt.CapitalCost, (Annuity(25, 0.07)+0)*400e3; math.Abs(got-want) > 1e-6 {
		t.Fatalf("OCGT capital cost = %v, want %v", got, want)
	}

	if _, ok := table.Technology("onwind"); ok {
		t.Fatalf("unexpected technology onwind")
	}
}

func TestLoad_ConvertsUSDAndScalesNyears(t *testing.T) {
	path := writeCostCSV(t, `technology,year,parameter,value,unit
battery,2030,investment,100,USD/kWel
battery,2030,lifetime,10,years
battery,2030,discount rate,0,per unit
`)
	table, err := Load(path, Options{Year: 2030, DiscountRate: 0.07, USDToEUR: 0.75, Nyears: 3})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	b, _ := table.Technology("battery")
	// 100 USD/kW -> 75 EUR/kW -> 75000 EUR/MW; 1/10 annuity; tripled span.
	if got, want := b.CapitalCost, 75000.0/10*3; math.Abs(got-want) > 1e-9 {
		t.Fatalf("battery capital cost = %v, want %v", got, want)
	}
}

func TestLoad_SumsDuplicateParameterRows(t *testing.T) {
	path := writeCostCSV(t, `technology,year,parameter,value,unit
coal,2030,fuel,5,EUR/MWhth
coal,2030,fuel,3,EUR/MWhth
`)
	table, err := Load(path, Options{Year: 2030, Nyears: 1})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	c, _ := table.Technology("coal")
	if c.Fuel != 8 {
		t.Fatalf("duplicate fuel rows should add up, got %v", c.Fuel)
	}
}

func TestLoad_Errors(t *testing.T) {
	if _, err := Load(filepath.Join(t.TempDir(), "nope.csv"), Options{Year: 2030}); err == nil {
		t.Fatalf("expected error for missing file")
	}

	bad := writeCostCSV(t, "technology,year,parameter,value\nsolar,2030,investment,abc\n")
	if _, err := Load(bad, Options{Year: 2030}); err == nil {
		t.Fatalf("expected error for unparsable value")
	}

	missing := writeCostCSV(t, "technology,year,value\nsolar,2030,1\n")
	if _, err := Load(missing, Options{Year: 2030}); err == nil {
		t.Fatalf("expected error for missing parameter column")
	}
}

func transmissionFixture(t *testing.T) (*network.Network, *Table) {
	t.Helper()

	path := writeCostCSV(t, `technology,year,parameter,value,unit
HVAC overhead,2030,investment,400,EUR/MW/km
HVAC overhead,2030,lifetime,40,years
HVAC overhead,2030,FOM,2,%/year
HVAC overhead,2030,discount rate,0,per unit
HVDC overhead,2030,investment,1000,EUR/MW/km
HVDC overhead,2030,lifetime,40,years
HVDC overhead,2030,FOM,2,%/year
HVDC overhead,2030,discount rate,0,per unit
HVDC submarine,2030,investment,2000,EUR/MW/km
HVDC submarine,2030,lifetime,40,years
HVDC submarine,2030,FOM,2,%/year
HVDC submarine,2030,discount rate,0,per unit
HVDC inverter pair,2030,investment,150000,EUR/MW
HVDC inverter pair,2030,lifetime,20,years
HVDC inverter pair,2030,discount rate,0,per unit
`)
	table, err := Load(path, Options{Year: 2030, Nyears: 1})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}

	n := network.New("t")
	n.Buses = []network.Bus{{Name: "A", VNom: 380}, {Name: "B", VNom: 380}}
	n.Carriers = []network.Carrier{{Name: "AC"}, {Name: "DC"}, {Name: "gas"}}
	n.Lines = []network.Line{{Name: "l0", Bus0: "A", Bus1: "B", Length: 100, SNom: 1700, SMaxPU: 1}}
	n.Links = []network.Link{
		{Name: "dc0", Bus0: "A", Bus1: "B", Carrier: "DC", Length: 200, UnderwaterFraction: 0.25, Efficiency: 1},
		{Name: "ptg", Bus0: "A", Bus1: "B", Carrier: "gas", Length: 50, Efficiency: 0.6, CapitalCost: 42},
	}
	return n, table
}

func TestUpdateTransmissionCosts(t *testing.T) {
	n, table := transmissionFixture(t)

	if err := UpdateTransmissionCosts(n, table, 1.25, false); err != nil {
		t.Fatalf("UpdateTransmissionCosts: %v", err)
	}
	// (1/40 + 0.02) * 400 = 18 per MW*km; 100 km at factor 1.25.
	if got := n.Lines[0].CapitalCost; math.Abs(got-2250) > 1e-9 {
		t.Fatalf("line capital cost = %v, want 2250", got)
	}
	// 0.75*45 + 0.25*90 = 56.25 per MW*km over 200 km at factor 1.25,
	// plus the 7500 converter pair.
	if got, want := n.Links[0].CapitalCost, 200*1.25*56.25+7500; math.Abs(got-want) > 1e-9 {
		t.Fatalf("dc link capital cost = %v, want %v", got, want)
	}
	if n.Links[1].CapitalCost != 42 {
		t.Fatalf("non-DC link should be untouched, got %v", n.Links[1].CapitalCost)
	}
}

func TestUpdateTransmissionCosts_SimpleHVDC(t *testing.T) {
	n, table := transmissionFixture(t)

	if err := UpdateTransmissionCosts(n, table, 1, true); err != nil {
		t.Fatalf("UpdateTransmissionCosts: %v", err)
	}
	if got := n.Links[0].CapitalCost; math.Abs(got-200*45) > 1e-9 {
		t.Fatalf("simple dc capital cost = %v, want %v", got, 200*45)
	}
}

func TestUpdateTransmissionCosts_MissingTechnology(t *testing.T) {
	n, _ := transmissionFixture(t)
	empty := writeCostCSV(t, "technology,year,parameter,value,unit\n")
	table, err := Load(empty, Options{Year: 2030, Nyears: 1})
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if err := UpdateTransmissionCosts(n, table, 1, false); err == nil {
		t.Fatalf("expected error when HVAC overhead is missing")
	}
}
