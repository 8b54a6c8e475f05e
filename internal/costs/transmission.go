package costs

import (
	"fmt"

	"github.com/enerkit/gridprep/internal/network"
)

// UpdateTransmissionCosts recomputes every line's capital cost from the HVAC
// overhead assumption and every DC link's from the HVDC assumptions, weighted
// by underwater fraction plus a converter pair. With simpleHVDC only the
// overhead term is used. Lengths scale by lengthFactor to account for routing
// detours.
func UpdateTransmissionCosts(n *network.Network, t *Table, lengthFactor float64, simpleHVDC bool) error {
	hvac, ok := t.Technology("HVAC overhead")
	if !ok {
		return fmt.Errorf("cost table has no %q entry", "HVAC overhead")
	}
	for i := range n.Lines {
		n.Lines[i].CapitalCost = n.Lines[i].Length * lengthFactor * hvac.CapitalCost
	}
	logf("refreshed capital costs of %d lines (length factor %g)", len(n.Lines), lengthFactor)

	anyDC := false
	for _, l := range n.Links {
		if l.Carrier == "DC" {
			anyDC = true
			break
		}
	}
	if !anyDC {
		return nil
	}

	overhead, ok := t.Technology("HVDC overhead")
	if !ok {
		return fmt.Errorf("cost table has no %q entry", "HVDC overhead")
	}
	var submarine, inverter Technology
	if !simpleHVDC {
		if submarine, ok = t.Technology("HVDC submarine"); !ok {
			return fmt.Errorf("cost table has no %q entry", "HVDC submarine")
		}
		if inverter, ok = t.Technology("HVDC inverter pair"); !ok {
			return fmt.Errorf("cost table has no %q entry", "HVDC inverter pair")
		}
	}

	dc := 0
	for i := range n.Links {
		l := &n.Links[i]
		if l.Carrier != "DC" {
			continue
		}
		dc++
		if simpleHVDC {
			l.CapitalCost = l.Length * lengthFactor * overhead.CapitalCost
			continue
		}
		perKm := (1-l.UnderwaterFraction)*overhead.CapitalCost + l.UnderwaterFraction*submarine.CapitalCost
		l.CapitalCost = l.Length*lengthFactor*perKm + inverter.CapitalCost
	}
	logf("refreshed capital costs of %d DC links", dc)
	return nil
}
