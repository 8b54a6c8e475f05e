// Package config turns the viper configuration tree into a typed struct the
// preparer consumes. Modifiers never read viper themselves; they receive the
// struct (or one field of it) as an explicit parameter.
package config

import (
	"fmt"
	"math"
	"strings"

	"github.com/spf13/viper"

	"github.com/enerkit/gridprep/internal/apperr"
	"github.com/enerkit/gridprep/internal/scenario"
)

// Config is the full recognized configuration surface.
type Config struct {
	Electricity Electricity `mapstructure:"electricity"`
	Costs       Costs       `mapstructure:"costs"`
	Lines       Lines       `mapstructure:"lines"`
	Links       Links       `mapstructure:"links"`

	// present records which keys the source actually carried, so validation
	// can tell a deliberate zero from an absent value.
	present map[string]bool
}

// Electricity holds the CO2 budget settings.
type Electricity struct {
	CO2Limit float64 `mapstructure:"co2limit"` // absolute annual cap, tCO2
	CO2Base  float64 `mapstructure:"co2base"`  // baseline for relative caps, tCO2
}

// Costs selects and scales the technology cost table.
type Costs struct {
	Year           int                `mapstructure:"year"`
	DiscountRate   float64            `mapstructure:"discountrate"`
	USDToEUR       float64            `mapstructure:"usd_to_eur"`
	EmissionPrices map[string]float64 `mapstructure:"emission_prices"` // species -> EUR/t
}

// Lines bounds and scales transmission lines.
type Lines struct {
	SNomMax      float64 `mapstructure:"s_nom_max"`
	LengthFactor float64 `mapstructure:"length_factor"`
}

// Links bounds transmission links.
type Links struct {
	PNomMax float64 `mapstructure:"p_nom_max"`
}

// trackedKeys are the keys ValidateFor may require depending on the scenario.
var trackedKeys = []string{
	"electricity.co2limit",
	"electricity.co2base",
	"costs.year",
	"costs.discountrate",
	"costs.usd_to_eur",
	"costs.emission_prices",
}

// FromViper decodes the configuration tree. Capacity ceilings default to
// unbounded and the length factor to 1; everything else keeps its zero value
// until ValidateFor decides whether it was needed.
func FromViper(v *viper.Viper) (*Config, error) {
	v.SetDefault("lines.s_nom_max", math.Inf(1))
	v.SetDefault("links.p_nom_max", math.Inf(1))
	v.SetDefault("lines.length_factor", 1.0)

	var c Config
	if err := v.Unmarshal(&c); err != nil {
		return nil, fmt.Errorf("parse configuration: %w", err)
	}
	c.present = make(map[string]bool, len(trackedKeys))
	for _, key := range trackedKeys {
		c.present[key] = v.IsSet(key)
	}
	return &c, nil
}

// ValidateFor checks that every key a triggered modifier needs is present.
// The cost table keys are always needed because the transmission limit step
// always refreshes transmission costs. Keys belonging to modifiers the
// scenario does not trigger may be absent. The error is fatal before any
// network mutation.
func (c *Config) ValidateFor(opts scenario.Options) error {
	var missing []string
	need := func(key, why string) {
		if !c.present[key] {
			missing = append(missing, fmt.Sprintf("%s (needed for %s)", key, why))
		}
	}

	for _, co2 := range opts.CO2Limits() {
		if co2.Factor == nil {
			need("electricity.co2limit", co2.Token())
		} else {
			need("electricity.co2base", co2.Token())
		}
	}
	for _, ep := range opts.EmissionPrices() {
		if ep.Price == nil {
			need("costs.emission_prices", ep.Token())
		}
	}
	need("costs.year", "the transmission cost refresh")
	need("costs.discountrate", "the transmission cost refresh")
	need("costs.usd_to_eur", "the transmission cost refresh")

	if len(missing) > 0 {
		return apperr.Userf("missing configuration keys: %s", strings.Join(missing, "; "))
	}
	return nil
}
