package prepare

import (
	"strings"

	"github.com/enerkit/gridprep/internal/config"
	"github.com/enerkit/gridprep/internal/costs"
	"github.com/enerkit/gridprep/internal/network"
	"github.com/enerkit/gridprep/internal/scenario"
)

// LineMargin is the N-1 security margin for a network of busCount buses.
// Small networks keep half of every line's rating in reserve; past 200 buses
// the margin relaxes to 0.7, linearly in between.
func LineMargin(busCount int) float64 {
	m := 0.5 + 0.2*(float64(busCount)-37)/(200-37)
	if m < 0.5 {
		return 0.5
	}
	if m > 0.7 {
		return 0.7
	}
	return m
}

// SetLineMargin applies LineMargin to every line and returns the value used.
func SetLineMargin(n *network.Network) float64 {
	m := LineMargin(len(n.Buses))
	for i := range n.Lines {
		n.Lines[i].SMaxPU = m
	}
	return m
}

// AddCO2Limit adds the annual CO2 budget constraint. A relative factor caps
// emissions at factor x co2base scaled to the modelled span; without a factor
// the configured absolute limit applies as-is. Returns the constant used.
func AddCO2Limit(n *network.Network, factor *float64, elec config.Electricity, nyears float64) (float64, error) {
	var constant float64
	if factor != nil {
		constant = *factor * elec.CO2Base * nyears
	} else {
		constant = elec.CO2Limit
	}
	err := n.AddGlobalConstraint(network.GlobalConstraint{
		Name:             "CO2Limit",
		Type:             "primary_energy",
		CarrierAttribute: "co2_emissions",
		Sense:            "<=",
		Constant:         constant,
	})
	return constant, err
}

// SetSecurityMargin overrides s_max_pu on every line. A nil value lifts the
// margin entirely (s_max_pu = 1).
func SetSecurityMargin(n *network.Network, value *float64) float64 {
	v := 1.0
	if value != nil {
		v = *value
	}
	for i := range n.Lines {
		n.Lines[i].SMaxPU = v
	}
	return v
}

// AddEmissionPrices folds emission prices (EUR/t per species) into marginal
// costs. Each carrier's surcharge is the price-weighted sum of its emission
// intensities; generators pay it per MWh electric, storage units per MWh
// dispatched. Returns how many generators and storage units were repriced.
func AddEmissionPrices(n *network.Network, prices map[string]float64) (generators, storageUnits int) {
	ep := make(map[string]float64, len(n.Carriers))
	for _, c := range n.Carriers {
		var sum float64
		for species, price := range prices {
			sum += price * c.Emission(species)
		}
		ep[c.Name] = sum
	}

	for i := range n.Generators {
		g := &n.Generators[i]
		if add := ep[g.Carrier]; add != 0 {
			g.MarginalCost += add / g.Efficiency
			generators++
		}
	}
	for i := range n.StorageUnits {
		su := &n.StorageUnits[i]
		if add := ep[su.Carrier]; add != 0 {
			su.MarginalCost += add / su.EfficiencyDispatch
			storageUnits++
		}
	}
	return generators, storageUnits
}

// ScaleCarrierCosts multiplies capital costs for components matching the
// prefix. The prefix must extend one of the network's carrier prefixes,
// otherwise nothing happens and ok is false. "AC" targets lines; anything
// else targets generators, links and storage units whose carrier contains
// the prefix. Applying the same factor twice compounds.
func ScaleCarrierCosts(n *network.Network, prefix string, factor float64) (scaled int, ok bool) {
	for _, sup := range n.CarrierPrefixes() {
		if strings.HasPrefix(prefix, sup) {
			ok = true
			break
		}
	}
	if !ok {
		return 0, false
	}

	if prefix == "AC" {
		for i := range n.Lines {
			n.Lines[i].CapitalCost *= factor
		}
		return len(n.Lines), true
	}

	for i := range n.Generators {
		if strings.Contains(n.Generators[i].Carrier, prefix) {
			n.Generators[i].CapitalCost *= factor
			scaled++
		}
	}
	for i := range n.Links {
		if strings.Contains(n.Links[i].Carrier, prefix) {
			n.Links[i].CapitalCost *= factor
			scaled++
		}
	}
	for i := range n.StorageUnits {
		if strings.Contains(n.StorageUnits[i].Carrier, prefix) {
			n.StorageUnits[i].CapitalCost *= factor
			scaled++
		}
	}
	return scaled, true
}

// SetTransmissionLimit pins today's grid as the expansion baseline. The
// reference sum (capacity x capital cost for kind "c", capacity x length for
// kind "v") is taken over lines and DC links BEFORE capital costs are
// refreshed from the cost table, so the limit is relative to the grid as it
// was loaded. Expansion-permitting limits floor nominal ratings at today's
// values and mark them extendable; bounded limits add the matching global
// constraint. Returns the reference sum.
func SetTransmissionLimit(n *network.Network, limit scenario.TransmissionLimit, table *costs.Table, lengthFactor float64) (float64, error) {
	var ref float64
	for _, l := range n.Lines {
		cap := n.LineCapacity(l)
		if limit.Kind == scenario.LimitCost {
			ref += cap * l.CapitalCost
		} else {
			ref += cap * l.Length
		}
	}
	for _, lk := range n.Links {
		if lk.Carrier != "DC" {
			continue
		}
		if limit.Kind == scenario.LimitCost {
			ref += lk.PNom * lk.CapitalCost
		} else {
			ref += lk.PNom * lk.Length
		}
	}

	if err := costs.UpdateTransmissionCosts(n, table, lengthFactor, false); err != nil {
		return 0, err
	}

	if limit.AllowsExpansion() {
		for i := range n.Lines {
			n.Lines[i].SNomMin = n.LineCapacity(n.Lines[i])
			n.Lines[i].SNomExtendable = true
		}
		for i := range n.Links {
			if n.Links[i].Carrier != "DC" {
				continue
			}
			n.Links[i].PNomMin = n.Links[i].PNom
			n.Links[i].PNomExtendable = true
		}
	}

	if limit.Constrained() {
		err := n.AddGlobalConstraint(network.GlobalConstraint{
			Name:             limit.ConstraintName(),
			Type:             limit.ConstraintType(),
			CarrierAttribute: "AC, DC",
			Sense:            "<=",
			Constant:         limit.Factor * ref,
		})
		if err != nil {
			return 0, err
		}
	}
	return ref, nil
}

// ClampCapacityCeilings caps extendable ratings at the configured ceilings.
// Returns how many components were clipped.
func ClampCapacityCeilings(n *network.Network, sNomMax, pNomMax float64) int {
	clipped := 0
	for i := range n.Lines {
		if n.Lines[i].SNomMax > sNomMax {
			n.Lines[i].SNomMax = sNomMax
			clipped++
		}
	}
	for i := range n.Links {
		if n.Links[i].PNomMax > pNomMax {
			n.Links[i].PNomMax = pNomMax
			clipped++
		}
	}
	return clipped
}

// EnforceAutarky removes transmission between countries. crossBorderOnly
// keeps domestic lines and links; otherwise every line and link goes,
// series columns included.
func EnforceAutarky(n *network.Network, crossBorderOnly bool) (linesRemoved, linksRemoved int) {
	var lineNames, linkNames []string
	for _, l := range n.Lines {
		if !crossBorderOnly || n.BusCountry(l.Bus0) != n.BusCountry(l.Bus1) {
			lineNames = append(lineNames, l.Name)
		}
	}
	for _, lk := range n.Links {
		if !crossBorderOnly || n.BusCountry(lk.Bus0) != n.BusCountry(lk.Bus1) {
			linkNames = append(linkNames, lk.Name)
		}
	}
	return n.RemoveLines(lineNames), n.RemoveLinks(linkNames)
}
