package network

// Bus is a node of the grid; every other component attaches to one or two buses.
type Bus struct {
	Name    string
	VNom    float64 // nominal voltage, kV
	X       float64
	Y       float64
	Carrier string
	Country string
}

// Carrier is a technology/energy label (gas, wind, AC, ...) with per-species
// emission intensities in tonnes per MWh of primary energy.
type Carrier struct {
	Name      string
	Emissions map[string]float64 // species (e.g. "co2") -> t/MWh
}

// Emission returns the intensity for a species, zero when untracked.
func (c Carrier) Emission(species string) float64 {
	return c.Emissions[species]
}

// LineType is a standard conductor type referenced by lines.
type LineType struct {
	Name string
	INom float64 // thermal current rating, kA
}

// Line is an AC transmission branch between two buses.
type Line struct {
	Name           string
	Bus0           string
	Bus1           string
	Type           string // LineType name; empty means SNom is authoritative
	Length         float64
	NumParallel    float64
	SNom           float64 // apparent power rating, MVA
	SNomMin        float64
	SNomMax        float64
	SNomExtendable bool
	SMaxPU         float64 // usable fraction of SNom (N-1 security margin)
	CapitalCost    float64
}

// Link is a controllable branch; carrier "DC" marks transmission links.
type Link struct {
	Name               string
	Bus0               string
	Bus1               string
	Carrier            string
	Length             float64
	UnderwaterFraction float64
	PNom               float64 // active power rating, MW
	PNomMin            float64
	PNomMax            float64
	PNomExtendable     bool
	Efficiency         float64
	MarginalCost       float64
	CapitalCost        float64
}

// Generator produces power at a bus from a carrier.
type Generator struct {
	Name         string
	Bus          string
	Carrier      string
	PNom         float64
	Efficiency   float64 // MWh electric per MWh primary
	MarginalCost float64
	CapitalCost  float64
}

// StorageUnit couples a power rating with an energy reservoir at a bus.
type StorageUnit struct {
	Name               string
	Bus                string
	Carrier            string
	PNom               float64
	MaxHours           float64 // reservoir size in hours at PNom
	EfficiencyStore    float64
	EfficiencyDispatch float64
	MarginalCost       float64
	CapitalCost        float64
}

// Load is a demand attachment; the demand itself is the "p_set" series.
type Load struct {
	Name string
	Bus  string
}

// GlobalConstraint is an aggregate limit spanning many components, e.g. an
// annual CO2 budget or a transmission expansion cap.
type GlobalConstraint struct {
	Name             string
	Type             string // e.g. "primary_energy", "transmission_volume_expansion_limit"
	CarrierAttribute string // e.g. "co2_emissions" or "AC, DC"
	Sense            string // "<=", "==" or ">="
	Constant         float64
}
