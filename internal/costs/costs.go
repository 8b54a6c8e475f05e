// Package costs loads technology cost assumptions from an annualized cost
// table and derives the capital and marginal costs the preparer applies to
// transmission assets.
package costs

import (
	"encoding/csv"
	"fmt"
	"math"
	"os"
	"strconv"
	"strings"
)

// Technology is one row of cost assumptions after defaults and derivation.
// Monetary values are EUR, energies MWh, power MW.
type Technology struct {
	CO2Intensity float64 // t/MWh of primary energy
	FOM          float64 // fixed O&M, % of investment per year
	VOM          float64 // variable O&M, EUR/MWh
	DiscountRate float64
	Efficiency   float64
	Fuel         float64 // EUR/MWh of primary energy
	Investment   float64 // EUR/MW
	Lifetime     float64 // years

	CapitalCost  float64 // EUR/MW/a, annualized over the covered span
	MarginalCost float64 // EUR/MWh
}

// Options selects and scales the table rows.
type Options struct {
	Year         int     // planning year rows to use
	DiscountRate float64 // default when a technology has none
	USDToEUR     float64 // exchange rate applied to USD rows
	Nyears       float64 // covered span in years, scales capital costs
}

// Table holds the derived assumptions per technology.
type Table struct {
	techs map[string]Technology
}

// Technology returns the assumptions for a named technology.
func (t *Table) Technology(name string) (Technology, bool) {
	tech, ok := t.techs[name]
	return tech, ok
}

// Technologies returns how many technologies the table covers.
func (t *Table) Technologies() int { return len(t.techs) }

// Annuity is the annual payment factor of an investment over n years at
// discount rate r; without discounting it degenerates to straight-line 1/n.
func Annuity(n, r float64) float64 {
	if r <= 0 {
		return 1 / n
	}
	return r / (1 - math.Pow(1+r, -n))
}

// Load reads a cost table CSV (technology,year,parameter,value,unit) and
// derives per-technology costs for the requested year. Values in /kW units
// convert to /MW, USD values convert at the configured rate, and duplicated
// parameter rows add up. OCGT and CCGT inherit the gas fuel price and CO2
// intensity.
func Load(path string, opt Options) (*Table, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open cost table: %w", err)
	}
	defer f.Close()

	r := csv.NewReader(f)
	r.TrimLeadingSpace = true
	records, err := r.ReadAll()
	if err != nil {
		return nil, fmt.Errorf("cost table %s: %w", path, err)
	}
	if len(records) == 0 {
		return nil, fmt.Errorf("cost table %s: missing header row", path)
	}

	cols := map[string]int{}
	for i, c := range records[0] {
		cols[c] = i
	}
	for _, c := range []string{"technology", "year", "parameter", "value"} {
		if _, ok := cols[c]; !ok {
			return nil, fmt.Errorf("cost table %s: missing column %q", path, c)
		}
	}
	unitCol, hasUnit := cols["unit"]

	raw := map[string]map[string]float64{}
	for i, rec := range records[1:] {
		line := i + 2
		year, err := strconv.Atoi(rec[cols["year"]])
		if err != nil {
			return nil, fmt.Errorf("cost table %s line %d: year: %w", path, line, err)
		}
		if year != opt.Year {
			continue
		}
		value, err := strconv.ParseFloat(rec[cols["value"]], 64)
		if err != nil {
			return nil, fmt.Errorf("cost table %s line %d: value: %w", path, line, err)
		}
		if hasUnit && unitCol < len(rec) {
			unit := rec[unitCol]
			if strings.Contains(unit, "/kW") {
				value *= 1e3
			}
			if strings.Contains(unit, "USD") {
				value *= opt.USDToEUR
			}
		}
		tech := rec[cols["technology"]]
		if raw[tech] == nil {
			raw[tech] = map[string]float64{}
		}
		raw[tech][rec[cols["parameter"]]] += value
	}

	t := &Table{techs: make(map[string]Technology, len(raw))}
	for name, params := range raw {
		t.techs[name] = assemble(params, opt)
	}
	t.inheritGas()
	for name, tech := range t.techs {
		tech.CapitalCost = (Annuity(tech.Lifetime, tech.DiscountRate) + tech.FOM/100) * tech.Investment * opt.Nyears
		tech.MarginalCost = tech.VOM + tech.Fuel/tech.Efficiency
		t.techs[name] = tech
	}
	logf("loaded %d technologies for %d from %s", len(t.techs), opt.Year, path)
	return t, nil
}

func assemble(params map[string]float64, opt Options) Technology {
	get := func(name string, def float64) float64 {
		if v, ok := params[name]; ok {
			return v
		}
		return def
	}
	return Technology{
		CO2Intensity: get("CO2 intensity", 0),
		FOM:          get("FOM", 0),
		VOM:          get("VOM", 0),
		DiscountRate: get("discount rate", opt.DiscountRate),
		Efficiency:   get("efficiency", 1),
		Fuel:         get("fuel", 0),
		Investment:   get("investment", 0),
		Lifetime:     get("lifetime", 25),
	}
}

// inheritGas copies the gas fuel price and CO2 intensity onto the open and
// combined cycle turbine entries, which burn gas but are priced as plants.
func (t *Table) inheritGas() {
	gas, ok := t.techs["gas"]
	if !ok {
		return
	}
	for _, name := range []string{"OCGT", "CCGT"} {
		if tech, ok := t.techs[name]; ok {
			tech.Fuel = gas.Fuel
			tech.CO2Intensity = gas.CO2Intensity
			t.techs[name] = tech
		}
	}
}
