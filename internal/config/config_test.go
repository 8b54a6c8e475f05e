package config

import (
	"math"
	"strings"
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/require"

	"github.com/enerkit/gridprep/internal/apperr"
	"github.com/enerkit/gridprep/internal/scenario"
)

const fullYAML = `
electricity:
  co2limit: 1.487e+9
  co2base: 1.487e+9
costs:
  year: 2030
  discountrate: 0.07
  usd_to_eur: 0.7532
  emission_prices:
    co2: 12.5
lines:
  s_nom_max: .inf
  length_factor: 1.25
links:
  p_nom_max: 6000
`

func load(t *testing.T, yaml string) *Config {
	t.Helper()
	v := viper.New()
	v.SetConfigType("yaml")
	require.NoError(t, v.ReadConfig(strings.NewReader(yaml)))
	c, err := FromViper(v)
	require.NoError(t, err)
	return c
}

func TestFromViper_DecodesAllSections(t *testing.T) {
	t.Parallel()

	c := load(t, fullYAML)

	require.Equal(t, 1.487e+9, c.Electricity.CO2Limit)
	require.Equal(t, 1.487e+9, c.Electricity.CO2Base)
	require.Equal(t, 2030, c.Costs.Year)
	require.Equal(t, 0.07, c.Costs.DiscountRate)
	require.Equal(t, 0.7532, c.Costs.USDToEUR)
	require.Equal(t, map[string]float64{"co2": 12.5}, c.Costs.EmissionPrices)
	require.True(t, math.IsInf(c.Lines.SNomMax, 1))
	require.Equal(t, 1.25, c.Lines.LengthFactor)
	require.Equal(t, 6000.0, c.Links.PNomMax)
}

func TestFromViper_AppliesCeilingDefaults(t *testing.T) {
	t.Parallel()

	c := load(t, "costs:\n  year: 2030\n")

	require.True(t, math.IsInf(c.Lines.SNomMax, 1))
	require.True(t, math.IsInf(c.Links.PNomMax, 1))
	require.Equal(t, 1.0, c.Lines.LengthFactor)
}

func TestValidateFor_PassesWithFullConfig(t *testing.T) {
	t.Parallel()

	c := load(t, fullYAML)
	opts := scenario.Parse("24H-Co2L-Co2L0.05-Ep-ATK")

	require.NoError(t, c.ValidateFor(opts))
}

func TestValidateFor_ReportsKeysForTriggeredModifiers(t *testing.T) {
	t.Parallel()

	tcs := []struct {
		name string
		yaml string
		opts string
		want []string
	}{
		{
			name: "absolute cap needs co2limit",
			yaml: "costs:\n  year: 2030\n  discountrate: 0.07\n  usd_to_eur: 0.7532\n",
			opts: "Co2L",
			want: []string{"electricity.co2limit (needed for Co2L)"},
		},
		{
			name: "relative cap needs co2base",
			yaml: "costs:\n  year: 2030\n  discountrate: 0.07\n  usd_to_eur: 0.7532\n",
			opts: "Co2L0.05",
			want: []string{"electricity.co2base (needed for Co2L0.05)"},
		},
		{
			name: "bare emission price needs configured prices",
			yaml: "costs:\n  year: 2030\n  discountrate: 0.07\n  usd_to_eur: 0.7532\n",
			opts: "Ep",
			want: []string{"costs.emission_prices (needed for Ep)"},
		},
		{
			name: "cost keys are always needed",
			yaml: "electricity:\n  co2limit: 1.0e+9\n",
			opts: "24H",
			want: []string{
				"costs.year (needed for the transmission cost refresh)",
				"costs.discountrate (needed for the transmission cost refresh)",
				"costs.usd_to_eur (needed for the transmission cost refresh)",
			},
		},
	}

	for _, tc := range tcs {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()

			c := load(t, tc.yaml)
			err := c.ValidateFor(scenario.Parse(tc.opts))
			require.Error(t, err)
			require.True(t, apperr.IsUser(err))
			for _, frag := range tc.want {
				require.Contains(t, err.Error(), frag)
			}
		})
	}
}

func TestValidateFor_UntriggeredModifiersNeedNoKeys(t *testing.T) {
	t.Parallel()

	// Priced emission token and valued cap carry their numbers inline, so
	// only the relative-cap baseline and the cost table keys matter here.
	c := load(t, "electricity:\n  co2base: 2.0e+9\ncosts:\n  year: 2030\n  discountrate: 0.07\n  usd_to_eur: 0.7532\n")
	opts := scenario.Parse("Ep25.0-Co2L0.1-SC-gas+1.2")

	require.NoError(t, c.ValidateFor(opts))
}
