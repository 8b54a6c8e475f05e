// Package network holds the in-memory model of a power grid: buses, branches,
// generation and storage, carriers, time series and global constraints. It is
// the document the prepare pipeline mutates; persistence lives in netcsv.
package network

import (
	"fmt"
	"sort"
	"strings"
	"time"

	"gonum.org/v1/gonum/floats"
)

// HoursPerYear converts total snapshot weight into simulated years.
const HoursPerYear = 8760.0

// Network is the full model. Component slices keep file order; names are
// unique within each class.
type Network struct {
	Name    string
	ID      string // stamped on first export
	Created string

	Snapshots       []time.Time
	SnapshotWeights []float64 // hours represented by each snapshot

	Buses             []Bus
	Carriers          []Carrier
	LineTypes         []LineType
	Lines             []Line
	Links             []Link
	Generators        []Generator
	StorageUnits      []StorageUnit
	Loads             []Load
	GlobalConstraints []GlobalConstraint

	GeneratorsT   SeriesGroup
	StorageUnitsT SeriesGroup
	LoadsT        SeriesGroup
	LinksT        SeriesGroup
	LinesT        SeriesGroup
}

// New returns an empty network with initialized series groups.
func New(name string) *Network {
	return &Network{
		Name:          name,
		GeneratorsT:   SeriesGroup{},
		StorageUnitsT: SeriesGroup{},
		LoadsT:        SeriesGroup{},
		LinksT:        SeriesGroup{},
		LinesT:        SeriesGroup{},
	}
}

// Bus looks up a bus by name.
func (n *Network) Bus(name string) (*Bus, bool) {
	for i := range n.Buses {
		if n.Buses[i].Name == name {
			return &n.Buses[i], true
		}
	}
	return nil, false
}

// Carrier looks up a carrier by name.
func (n *Network) Carrier(name string) (*Carrier, bool) {
	for i := range n.Carriers {
		if n.Carriers[i].Name == name {
			return &n.Carriers[i], true
		}
	}
	return nil, false
}

// LineType looks up a line type by name.
func (n *Network) LineType(name string) (*LineType, bool) {
	for i := range n.LineTypes {
		if n.LineTypes[i].Name == name {
			return &n.LineTypes[i], true
		}
	}
	return nil, false
}

// BusCountry returns the country of the named bus, empty when unknown.
func (n *Network) BusCountry(name string) string {
	if b, ok := n.Bus(name); ok {
		return b.Country
	}
	return ""
}

// TotalWeight is the number of hours the snapshots cover in total.
func (n *Network) TotalWeight() float64 {
	return floats.Sum(n.SnapshotWeights)
}

// Nyears is the simulated span in years, total weight over 8760 h.
func (n *Network) Nyears() float64 {
	return n.TotalWeight() / HoursPerYear
}

// LineCapacity is the effective thermal rating of a line: SNom for untyped
// lines, otherwise sqrt(3) * i_nom * num_parallel * v_nom of the first bus.
// The network must have passed Validate so type and bus lookups hold.
func (n *Network) LineCapacity(l Line) float64 {
	if l.Type == "" {
		return l.SNom
	}
	lt, _ := n.LineType(l.Type)
	b, _ := n.Bus(l.Bus0)
	if lt == nil || b == nil {
		return l.SNom
	}
	return sqrt3 * lt.INom * l.NumParallel * b.VNom
}

const sqrt3 = 1.7320508075688772

// AddGlobalConstraint appends a constraint; a duplicate name is an error so
// a scenario can never silently shadow an earlier limit.
func (n *Network) AddGlobalConstraint(gc GlobalConstraint) error {
	for _, have := range n.GlobalConstraints {
		if have.Name == gc.Name {
			return fmt.Errorf("global constraint %q already defined", gc.Name)
		}
	}
	n.GlobalConstraints = append(n.GlobalConstraints, gc)
	return nil
}

// GlobalConstraint looks up a constraint by name.
func (n *Network) GlobalConstraint(name string) (*GlobalConstraint, bool) {
	for i := range n.GlobalConstraints {
		if n.GlobalConstraints[i].Name == name {
			return &n.GlobalConstraints[i], true
		}
	}
	return nil, false
}

// RemoveLines drops the named lines and their series columns, returning the
// number of lines actually removed.
func (n *Network) RemoveLines(names []string) int {
	drop := nameSet(names)
	kept := n.Lines[:0]
	removed := 0
	for _, l := range n.Lines {
		if _, gone := drop[l.Name]; gone {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	n.Lines = kept
	n.LinesT.DropColumns(drop)
	return removed
}

// RemoveLinks drops the named links and their series columns, returning the
// number of links actually removed.
func (n *Network) RemoveLinks(names []string) int {
	drop := nameSet(names)
	kept := n.Links[:0]
	removed := 0
	for _, l := range n.Links {
		if _, gone := drop[l.Name]; gone {
			removed++
			continue
		}
		kept = append(kept, l)
	}
	n.Links = kept
	n.LinksT.DropColumns(drop)
	return removed
}

// CarrierPrefixes returns the sorted set of leading dash-segments of all
// carrier names ("solar-rooftop" contributes "solar"). Scenario tokens match
// against these.
func (n *Network) CarrierPrefixes() []string {
	seen := map[string]struct{}{}
	for _, c := range n.Carriers {
		p := strings.SplitN(c.Name, "-", 2)[0]
		seen[p] = struct{}{}
	}
	out := make([]string, 0, len(seen))
	for p := range seen {
		out = append(out, p)
	}
	sort.Strings(out)
	return out
}

// Validate checks the structural invariants: unique names per class, branch
// and attachment references resolving, and series shapes matching the
// snapshot index.
func (n *Network) Validate() error {
	if len(n.Snapshots) != len(n.SnapshotWeights) {
		return fmt.Errorf("%d snapshots but %d weights", len(n.Snapshots), len(n.SnapshotWeights))
	}

	buses := map[string]struct{}{}
	if err := collectNames(buses, "bus", busNames(n.Buses)); err != nil {
		return err
	}
	carriers := map[string]struct{}{}
	if err := collectNames(carriers, "carrier", carrierNames(n.Carriers)); err != nil {
		return err
	}
	lineTypes := map[string]struct{}{}
	if err := collectNames(lineTypes, "line type", lineTypeNames(n.LineTypes)); err != nil {
		return err
	}

	lines := map[string]struct{}{}
	for _, l := range n.Lines {
		if err := addName(lines, "line", l.Name); err != nil {
			return err
		}
		if err := busRef(buses, "line", l.Name, l.Bus0, l.Bus1); err != nil {
			return err
		}
		if l.Type != "" {
			if _, ok := lineTypes[l.Type]; !ok {
				return fmt.Errorf("line %q references unknown line type %q", l.Name, l.Type)
			}
		}
	}
	links := map[string]struct{}{}
	for _, l := range n.Links {
		if err := addName(links, "link", l.Name); err != nil {
			return err
		}
		if err := busRef(buses, "link", l.Name, l.Bus0, l.Bus1); err != nil {
			return err
		}
	}
	gens := map[string]struct{}{}
	for _, g := range n.Generators {
		if err := addName(gens, "generator", g.Name); err != nil {
			return err
		}
		if err := busRef(buses, "generator", g.Name, g.Bus); err != nil {
			return err
		}
		if _, ok := carriers[g.Carrier]; !ok {
			return fmt.Errorf("generator %q references unknown carrier %q", g.Name, g.Carrier)
		}
	}
	sus := map[string]struct{}{}
	for _, s := range n.StorageUnits {
		if err := addName(sus, "storage unit", s.Name); err != nil {
			return err
		}
		if err := busRef(buses, "storage unit", s.Name, s.Bus); err != nil {
			return err
		}
		if _, ok := carriers[s.Carrier]; !ok {
			return fmt.Errorf("storage unit %q references unknown carrier %q", s.Name, s.Carrier)
		}
	}
	loads := map[string]struct{}{}
	for _, l := range n.Loads {
		if err := addName(loads, "load", l.Name); err != nil {
			return err
		}
		if err := busRef(buses, "load", l.Name, l.Bus); err != nil {
			return err
		}
	}
	gcs := map[string]struct{}{}
	for _, gc := range n.GlobalConstraints {
		if err := addName(gcs, "global constraint", gc.Name); err != nil {
			return err
		}
	}

	groups := []struct {
		class string
		names map[string]struct{}
		group SeriesGroup
	}{
		{"generators", gens, n.GeneratorsT},
		{"storage_units", sus, n.StorageUnitsT},
		{"loads", loads, n.LoadsT},
		{"links", links, n.LinksT},
		{"lines", lines, n.LinesT},
	}
	for _, g := range groups {
		for attr, s := range g.group {
			if s.Rows() != len(n.Snapshots) {
				return fmt.Errorf("series %s-%s has %d rows for %d snapshots", g.class, attr, s.Rows(), len(n.Snapshots))
			}
			for _, col := range s.Columns {
				if _, ok := g.names[col]; !ok {
					return fmt.Errorf("series %s-%s references unknown component %q", g.class, attr, col)
				}
			}
		}
	}
	return nil
}

func nameSet(names []string) map[string]struct{} {
	m := make(map[string]struct{}, len(names))
	for _, s := range names {
		m[s] = struct{}{}
	}
	return m
}

func addName(set map[string]struct{}, class, name string) error {
	if name == "" {
		return fmt.Errorf("%s with empty name", class)
	}
	if _, dup := set[name]; dup {
		return fmt.Errorf("duplicate %s name %q", class, name)
	}
	set[name] = struct{}{}
	return nil
}

func collectNames(set map[string]struct{}, class string, names []string) error {
	for _, name := range names {
		if err := addName(set, class, name); err != nil {
			return err
		}
	}
	return nil
}

func busRef(buses map[string]struct{}, class, name string, refs ...string) error {
	for _, ref := range refs {
		if _, ok := buses[ref]; !ok {
			return fmt.Errorf("%s %q references unknown bus %q", class, name, ref)
		}
	}
	return nil
}

func busNames(bs []Bus) []string {
	out := make([]string, len(bs))
	for i, b := range bs {
		out[i] = b.Name
	}
	return out
}

func carrierNames(cs []Carrier) []string {
	out := make([]string, len(cs))
	for i, c := range cs {
		out[i] = c.Name
	}
	return out
}

func lineTypeNames(ts []LineType) []string {
	out := make([]string, len(ts))
	for i, t := range ts {
		out[i] = t.Name
	}
	return out
}
