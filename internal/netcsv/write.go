package netcsv

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"time"

	"github.com/google/uuid"

	"github.com/enerkit/gridprep/internal/network"
)

// Write serializes a network into a folder, creating it if needed. The
// network id and created stamp are set here when still empty, so a prepared
// network can always be traced back to one export.
func Write(n *network.Network, dir string) error {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return fmt.Errorf("create network folder: %w", err)
	}
	stamp(n)

	if err := writeMeta(dir, n); err != nil {
		return err
	}
	if err := writeSnapshots(dir, n); err != nil {
		return err
	}
	for _, w := range []func(string, *network.Network) error{
		writeBuses,
		writeCarriers,
		writeLineTypes,
		writeLines,
		writeLinks,
		writeGenerators,
		writeStorageUnits,
		writeLoads,
		writeGlobalConstraints,
		writeSeries,
	} {
		if err := w(dir, n); err != nil {
			return err
		}
	}
	return nil
}

// stamp sets the id and created time if not already set.
func stamp(n *network.Network) {
	if n.ID == "" {
		n.ID = uuid.New().String()
	}
	if n.Created == "" {
		n.Created = time.Now().Format(time.RFC3339)
	}
}

func writeMeta(dir string, n *network.Network) error {
	return writeTable(dir, networkFile,
		[]string{"name", "id", "created"},
		[][]string{{n.Name, n.ID, n.Created}})
}

func writeSnapshots(dir string, n *network.Network) error {
	rows := make([][]string, len(n.Snapshots))
	for i, ts := range n.Snapshots {
		rows[i] = []string{ts.Format(time.RFC3339), ff(n.SnapshotWeights[i])}
	}
	return writeTable(dir, snapshotsFile, []string{"name", "weightings"}, rows)
}

func writeBuses(dir string, n *network.Network) error {
	if len(n.Buses) == 0 {
		return nil
	}
	rows := make([][]string, len(n.Buses))
	for i, b := range n.Buses {
		rows[i] = []string{b.Name, ff(b.VNom), ff(b.X), ff(b.Y), b.Carrier, b.Country}
	}
	return writeTable(dir, "buses.csv",
		[]string{"name", "v_nom", "x", "y", "carrier", "country"}, rows)
}

func writeCarriers(dir string, n *network.Network) error {
	if len(n.Carriers) == 0 {
		return nil
	}
	seen := map[string]struct{}{}
	for _, c := range n.Carriers {
		for s := range c.Emissions {
			seen[s] = struct{}{}
		}
	}
	species := make([]string, 0, len(seen))
	for s := range seen {
		species = append(species, s)
	}
	sort.Strings(species)

	header := []string{"name"}
	for _, s := range species {
		header = append(header, s+"_emissions")
	}
	rows := make([][]string, len(n.Carriers))
	for i, c := range n.Carriers {
		row := []string{c.Name}
		for _, s := range species {
			row = append(row, ff(c.Emission(s)))
		}
		rows[i] = row
	}
	return writeTable(dir, "carriers.csv", header, rows)
}

func writeLineTypes(dir string, n *network.Network) error {
	if len(n.LineTypes) == 0 {
		return nil
	}
	rows := make([][]string, len(n.LineTypes))
	for i, lt := range n.LineTypes {
		rows[i] = []string{lt.Name, ff(lt.INom)}
	}
	return writeTable(dir, "line_types.csv", []string{"name", "i_nom"}, rows)
}

func writeLines(dir string, n *network.Network) error {
	if len(n.Lines) == 0 {
		return nil
	}
	rows := make([][]string, len(n.Lines))
	for i, l := range n.Lines {
		rows[i] = []string{
			l.Name, l.Bus0, l.Bus1, l.Type,
			ff(l.Length), ff(l.NumParallel),
			ff(l.SNom), ff(l.SNomMin), ff(l.SNomMax), fb(l.SNomExtendable),
			ff(l.SMaxPU), ff(l.CapitalCost),
		}
	}
	return writeTable(dir, "lines.csv", []string{
		"name", "bus0", "bus1", "type",
		"length", "num_parallel",
		"s_nom", "s_nom_min", "s_nom_max", "s_nom_extendable",
		"s_max_pu", "capital_cost",
	}, rows)
}

func writeLinks(dir string, n *network.Network) error {
	if len(n.Links) == 0 {
		return nil
	}
	rows := make([][]string, len(n.Links))
	for i, l := range n.Links {
		rows[i] = []string{
			l.Name, l.Bus0, l.Bus1, l.Carrier,
			ff(l.Length), ff(l.UnderwaterFraction),
			ff(l.PNom), ff(l.PNomMin), ff(l.PNomMax), fb(l.PNomExtendable),
			ff(l.Efficiency), ff(l.MarginalCost), ff(l.CapitalCost),
		}
	}
	return writeTable(dir, "links.csv", []string{
		"name", "bus0", "bus1", "carrier",
		"length", "underwater_fraction",
		"p_nom", "p_nom_min", "p_nom_max", "p_nom_extendable",
		"efficiency", "marginal_cost", "capital_cost",
	}, rows)
}

func writeGenerators(dir string, n *network.Network) error {
	if len(n.Generators) == 0 {
		return nil
	}
	rows := make([][]string, len(n.Generators))
	for i, g := range n.Generators {
		rows[i] = []string{
			g.Name, g.Bus, g.Carrier,
			ff(g.PNom), ff(g.Efficiency), ff(g.MarginalCost), ff(g.CapitalCost),
		}
	}
	return writeTable(dir, "generators.csv", []string{
		"name", "bus", "carrier", "p_nom", "efficiency", "marginal_cost", "capital_cost",
	}, rows)
}

func writeStorageUnits(dir string, n *network.Network) error {
	if len(n.StorageUnits) == 0 {
		return nil
	}
	rows := make([][]string, len(n.StorageUnits))
	for i, s := range n.StorageUnits {
		rows[i] = []string{
			s.Name, s.Bus, s.Carrier,
			ff(s.PNom), ff(s.MaxHours),
			ff(s.EfficiencyStore), ff(s.EfficiencyDispatch),
			ff(s.MarginalCost), ff(s.CapitalCost),
		}
	}
	return writeTable(dir, "storage_units.csv", []string{
		"name", "bus", "carrier", "p_nom", "max_hours",
		"efficiency_store", "efficiency_dispatch", "marginal_cost", "capital_cost",
	}, rows)
}

func writeLoads(dir string, n *network.Network) error {
	if len(n.Loads) == 0 {
		return nil
	}
	rows := make([][]string, len(n.Loads))
	for i, l := range n.Loads {
		rows[i] = []string{l.Name, l.Bus}
	}
	return writeTable(dir, "loads.csv", []string{"name", "bus"}, rows)
}

func writeGlobalConstraints(dir string, n *network.Network) error {
	if len(n.GlobalConstraints) == 0 {
		return nil
	}
	rows := make([][]string, len(n.GlobalConstraints))
	for i, gc := range n.GlobalConstraints {
		rows[i] = []string{gc.Name, gc.Type, gc.CarrierAttribute, gc.Sense, ff(gc.Constant)}
	}
	return writeTable(dir, "global_constraints.csv", []string{
		"name", "type", "carrier_attribute", "sense", "constant",
	}, rows)
}

func writeSeries(dir string, n *network.Network) error {
	groups := []struct {
		class string
		group network.SeriesGroup
	}{
		{"generators", n.GeneratorsT},
		{"storage_units", n.StorageUnitsT},
		{"loads", n.LoadsT},
		{"links", n.LinksT},
		{"lines", n.LinesT},
	}
	for _, g := range groups {
		attrs := make([]string, 0, len(g.group))
		for attr := range g.group {
			attrs = append(attrs, attr)
		}
		sort.Strings(attrs)

		for _, attr := range attrs {
			s := g.group[attr]
			header := append([]string{"snapshot"}, s.Columns...)
			rows := make([][]string, s.Rows())
			for i := range rows {
				row := make([]string, 0, len(header))
				row = append(row, n.Snapshots[i].Format(time.RFC3339))
				for j := range s.Columns {
					row = append(row, ff(s.Data.At(i, j)))
				}
				rows[i] = row
			}
			name := fmt.Sprintf("%s-%s.csv", g.class, attr)
			if err := writeTable(dir, name, header, rows); err != nil {
				return err
			}
		}
	}
	return nil
}

func writeTable(dir, name string, header []string, rows [][]string) error {
	f, err := os.Create(filepath.Join(dir, name))
	if err != nil {
		return err
	}
	w := csv.NewWriter(f)
	if err := w.Write(header); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	for _, row := range rows {
		if err := w.Write(row); err != nil {
			f.Close()
			return fmt.Errorf("%s: %w", name, err)
		}
	}
	w.Flush()
	if err := w.Error(); err != nil {
		f.Close()
		return fmt.Errorf("%s: %w", name, err)
	}
	return f.Close()
}

func ff(v float64) string { return strconv.FormatFloat(v, 'g', -1, 64) }

func fb(b bool) string { return strconv.FormatBool(b) }
