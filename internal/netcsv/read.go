package netcsv

import (
	"fmt"
	"math"
	"os"
	"strings"
	"time"

	"github.com/enerkit/gridprep/internal/network"
)

const (
	networkFile   = "network.csv"
	snapshotsFile = "snapshots.csv"
)

// Read loads a network folder and validates its structural invariants.
// A missing folder, a missing metadata or snapshot file, a malformed CSV, a
// series column without its component or a series/snapshot shape mismatch are
// all errors; absent component files simply mean empty classes.
func Read(dir string) (*network.Network, error) {
	info, err := os.Stat(dir)
	if err != nil {
		return nil, fmt.Errorf("open network folder: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("network path %q is not a directory", dir)
	}

	n := network.New("")
	steps := []func(string, *network.Network) error{
		readMeta,
		readSnapshots,
		readBuses,
		readCarriers,
		readLineTypes,
		readLines,
		readLinks,
		readGenerators,
		readStorageUnits,
		readLoads,
		readGlobalConstraints,
		readSeries,
	}
	for _, step := range steps {
		if err := step(dir, n); err != nil {
			return nil, fmt.Errorf("read network %s: %w", dir, err)
		}
	}
	if err := n.Validate(); err != nil {
		return nil, fmt.Errorf("invalid network %s: %w", dir, err)
	}
	return n, nil
}

func readMeta(dir string, n *network.Network) error {
	t, ok, err := loadTable(dir, networkFile)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("missing %s", networkFile)
	}
	if len(t.rows) != 1 {
		return fmt.Errorf("%s: want exactly one row, got %d", networkFile, len(t.rows))
	}
	f := t.fields(0)
	n.Name = f.str("name", "")
	n.ID = f.str("id", "")
	n.Created = f.str("created", "")
	return f.err
}

func readSnapshots(dir string, n *network.Network) error {
	t, ok, err := loadTable(dir, snapshotsFile)
	if err != nil {
		return err
	}
	if !ok {
		return fmt.Errorf("missing %s", snapshotsFile)
	}
	if len(t.rows) == 0 {
		return fmt.Errorf("%s: network needs at least one snapshot", snapshotsFile)
	}
	for i := range t.rows {
		f := t.fields(i)
		stamp := f.need("name")
		weight := f.float("weightings", 1)
		if f.err != nil {
			return f.err
		}
		ts, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			return fmt.Errorf("%s line %d: %w", snapshotsFile, f.line(), err)
		}
		n.Snapshots = append(n.Snapshots, ts)
		n.SnapshotWeights = append(n.SnapshotWeights, weight)
	}
	return nil
}

func readBuses(dir string, n *network.Network) error {
	t, ok, err := loadTable(dir, "buses.csv")
	if err != nil || !ok {
		return err
	}
	for i := range t.rows {
		f := t.fields(i)
		n.Buses = append(n.Buses, network.Bus{
			Name:    f.need("name"),
			VNom:    f.float("v_nom", 1),
			X:       f.float("x", 0),
			Y:       f.float("y", 0),
			Carrier: f.str("carrier", ""),
			Country: f.str("country", ""),
		})
		if f.err != nil {
			return f.err
		}
	}
	return nil
}

func readCarriers(dir string, n *network.Network) error {
	t, ok, err := loadTable(dir, "carriers.csv")
	if err != nil || !ok {
		return err
	}

	// Any "<species>_emissions" column defines an emission species.
	var species []string
	for col := range t.cols {
		if s, found := strings.CutSuffix(col, "_emissions"); found && s != "" {
			species = append(species, s)
		}
	}

	for i := range t.rows {
		f := t.fields(i)
		c := network.Carrier{Name: f.need("name")}
		for _, s := range species {
			if v := f.float(s+"_emissions", 0); v != 0 {
				if c.Emissions == nil {
					c.Emissions = map[string]float64{}
				}
				c.Emissions[s] = v
			}
		}
		if f.err != nil {
			return f.err
		}
		n.Carriers = append(n.Carriers, c)
	}
	return nil
}

func readLineTypes(dir string, n *network.Network) error {
	t, ok, err := loadTable(dir, "line_types.csv")
	if err != nil || !ok {
		return err
	}
	for i := range t.rows {
		f := t.fields(i)
		n.LineTypes = append(n.LineTypes, network.LineType{
			Name: f.need("name"),
			INom: f.float("i_nom", 0),
		})
		if f.err != nil {
			return f.err
		}
	}
	return nil
}

func readLines(dir string, n *network.Network) error {
	t, ok, err := loadTable(dir, "lines.csv")
	if err != nil || !ok {
		return err
	}
	for i := range t.rows {
		f := t.fields(i)
		n.Lines = append(n.Lines, network.Line{
			Name:           f.need("name"),
			Bus0:           f.need("bus0"),
			Bus1:           f.need("bus1"),
			Type:           f.str("type", ""),
			Length:         f.float("length", 0),
			NumParallel:    f.float("num_parallel", 1),
			SNom:           f.float("s_nom", 0),
			SNomMin:        f.float("s_nom_min", 0),
			SNomMax:        f.float("s_nom_max", math.Inf(1)),
			SNomExtendable: f.boolean("s_nom_extendable"),
			SMaxPU:         f.float("s_max_pu", 1),
			CapitalCost:    f.float("capital_cost", 0),
		})
		if f.err != nil {
			return f.err
		}
	}
	return nil
}

func readLinks(dir string, n *network.Network) error {
	t, ok, err := loadTable(dir, "links.csv")
	if err != nil || !ok {
		return err
	}
	for i := range t.rows {
		f := t.fields(i)
		n.Links = append(n.Links, network.Link{
			Name:               f.need("name"),
			Bus0:               f.need("bus0"),
			Bus1:               f.need("bus1"),
			Carrier:            f.str("carrier", ""),
			Length:             f.float("length", 0),
			UnderwaterFraction: f.float("underwater_fraction", 0),
			PNom:               f.float("p_nom", 0),
			PNomMin:            f.float("p_nom_min", 0),
			PNomMax:            f.float("p_nom_max", math.Inf(1)),
			PNomExtendable:     f.boolean("p_nom_extendable"),
			Efficiency:         f.float("efficiency", 1),
			MarginalCost:       f.float("marginal_cost", 0),
			CapitalCost:        f.float("capital_cost", 0),
		})
		if f.err != nil {
			return f.err
		}
	}
	return nil
}

func readGenerators(dir string, n *network.Network) error {
	t, ok, err := loadTable(dir, "generators.csv")
	if err != nil || !ok {
		return err
	}
	for i := range t.rows {
		f := t.fields(i)
		n.Generators = append(n.Generators, network.Generator{
			Name:         f.need("name"),
			Bus:          f.need("bus"),
			Carrier:      f.need("carrier"),
			PNom:         f.float("p_nom", 0),
			Efficiency:   f.float("efficiency", 1),
			MarginalCost: f.float("marginal_cost", 0),
			CapitalCost:  f.float("capital_cost", 0),
		})
		if f.err != nil {
			return f.err
		}
	}
	return nil
}

func readStorageUnits(dir string, n *network.Network) error {
	t, ok, err := loadTable(dir, "storage_units.csv")
	if err != nil || !ok {
		return err
	}
	for i := range t.rows {
		f := t.fields(i)
		n.StorageUnits = append(n.StorageUnits, network.StorageUnit{
			Name:               f.need("name"),
			Bus:                f.need("bus"),
			Carrier:            f.need("carrier"),
			PNom:               f.float("p_nom", 0),
			MaxHours:           f.float("max_hours", 1),
			EfficiencyStore:    f.float("efficiency_store", 1),
			EfficiencyDispatch: f.float("efficiency_dispatch", 1),
			MarginalCost:       f.float("marginal_cost", 0),
			CapitalCost:        f.float("capital_cost", 0),
		})
		if f.err != nil {
			return f.err
		}
	}
	return nil
}

func readLoads(dir string, n *network.Network) error {
	t, ok, err := loadTable(dir, "loads.csv")
	if err != nil || !ok {
		return err
	}
	for i := range t.rows {
		f := t.fields(i)
		n.Loads = append(n.Loads, network.Load{
			Name: f.need("name"),
			Bus:  f.need("bus"),
		})
		if f.err != nil {
			return f.err
		}
	}
	return nil
}

func readGlobalConstraints(dir string, n *network.Network) error {
	t, ok, err := loadTable(dir, "global_constraints.csv")
	if err != nil || !ok {
		return err
	}
	for i := range t.rows {
		f := t.fields(i)
		n.GlobalConstraints = append(n.GlobalConstraints, network.GlobalConstraint{
			Name:             f.need("name"),
			Type:             f.str("type", ""),
			CarrierAttribute: f.str("carrier_attribute", ""),
			Sense:            f.str("sense", "<="),
			Constant:         f.float("constant", 0),
		})
		if f.err != nil {
			return f.err
		}
	}
	return nil
}

// readSeries scans the folder for "<class>-<attr>.csv" files and loads each
// into the matching series group. Rows must line up with the snapshot index
// one to one.
func readSeries(dir string, n *network.Network) error {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return err
	}
	groups := map[string]network.SeriesGroup{
		"generators":    n.GeneratorsT,
		"storage_units": n.StorageUnitsT,
		"loads":         n.LoadsT,
		"links":         n.LinksT,
		"lines":         n.LinesT,
	}
	for _, e := range entries {
		if e.IsDir() || !strings.HasSuffix(e.Name(), ".csv") {
			continue
		}
		base := strings.TrimSuffix(e.Name(), ".csv")
		class, attr, found := strings.Cut(base, "-")
		if !found || attr == "" {
			continue
		}
		group, known := groups[class]
		if !known {
			continue
		}
		s, err := readOneSeries(dir, e.Name(), n)
		if err != nil {
			return err
		}
		group[attr] = s
	}
	return nil
}

func readOneSeries(dir, file string, n *network.Network) (*network.Series, error) {
	t, _, err := loadTable(dir, file)
	if err != nil {
		return nil, err
	}
	if len(t.header) < 2 || t.header[0] != "snapshot" {
		return nil, fmt.Errorf("%s: first column must be \"snapshot\" followed by component names", file)
	}
	if len(t.rows) != len(n.Snapshots) {
		return nil, fmt.Errorf("%s: %d rows for %d snapshots", file, len(t.rows), len(n.Snapshots))
	}
	return seriesFromTable(t, n)
}

func seriesFromTable(t *table, n *network.Network) (*network.Series, error) {
	columns := t.header[1:]

	s, err := network.NewSeries(columns, len(t.rows))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", t.file, err)
	}
	for i := range t.rows {
		f := t.fields(i)
		stamp := f.need("snapshot")
		if f.err != nil {
			return nil, f.err
		}
		ts, err := time.Parse(time.RFC3339, stamp)
		if err != nil {
			return nil, fmt.Errorf("%s line %d: %w", t.file, f.line(), err)
		}
		if !ts.Equal(n.Snapshots[i]) {
			return nil, fmt.Errorf("%s line %d: snapshot %s does not match index entry %s",
				t.file, f.line(), ts.Format(time.RFC3339), n.Snapshots[i].Format(time.RFC3339))
		}
		for _, col := range columns {
			s.Set(i, col, f.float(col, 0))
		}
		if f.err != nil {
			return nil, f.err
		}
	}
	return s, nil
}
