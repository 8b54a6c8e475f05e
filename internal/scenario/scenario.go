// Package scenario parses the wildcard strings that select and parameterize
// network modifiers: the dash-separated opts wildcard and the ll transmission
// limit wildcard. Parsing is purely lexical; whether a carrier-scale prefix
// matches a real carrier is only known once the network is loaded.
package scenario

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
)

// Option is one classified opts token. Each token maps to exactly one of the
// concrete types below; tokens that match nothing become Unknown and are
// reported, never treated as a failure.
type Option interface {
	// Token returns the raw wildcard token.
	Token() string
	// Summary is a one-line human description for the explain command.
	Summary() string
}

// Resample averages the network down to Hours-wide snapshot buckets.
type Resample struct {
	Raw   string
	Hours int
}

// CO2Limit caps total CO2 emissions. Factor is the share of the base annual
// budget; nil means the configured absolute limit applies.
type CO2Limit struct {
	Raw    string
	Factor *float64
}

// SecurityMargin overrides the N-1 margin on all lines. A nil Value lifts the
// margin entirely (s_max_pu = 1).
type SecurityMargin struct {
	Raw   string
	Value *float64
}

// EmissionPrice adds emission costs to marginal costs. Price is EUR per tonne
// of CO2; nil means the configured per-species prices apply.
type EmissionPrice struct {
	Raw   string
	Price *float64
}

// CarrierScale multiplies capital costs of assets whose carrier matches
// Prefix. The prefix must start with a known carrier stem to take effect.
type CarrierScale struct {
	Raw    string
	Prefix string
	Factor float64
}

// Autarky removes transmission between buses, either everywhere or only
// across country borders.
type Autarky struct {
	Raw             string
	CrossBorderOnly bool
}

// Unknown is a token no classifier claimed.
type Unknown struct {
	Raw string
}

func (o Resample) Token() string       { return o.Raw }
func (o CO2Limit) Token() string       { return o.Raw }
func (o SecurityMargin) Token() string { return o.Raw }
func (o EmissionPrice) Token() string  { return o.Raw }
func (o CarrierScale) Token() string   { return o.Raw }
func (o Autarky) Token() string        { return o.Raw }
func (o Unknown) Token() string        { return o.Raw }

func (o Resample) Summary() string {
	return fmt.Sprintf("average snapshots into %d-hour buckets, summing weights", o.Hours)
}

func (o CO2Limit) Summary() string {
	if o.Factor == nil {
		return "cap CO2 emissions at the configured absolute limit"
	}
	return fmt.Sprintf("cap CO2 emissions at %g of the base annual budget", *o.Factor)
}

func (o SecurityMargin) Summary() string {
	if o.Value == nil {
		return "lift the N-1 security margin on all lines (s_max_pu = 1)"
	}
	return fmt.Sprintf("set the line security margin s_max_pu to %g", *o.Value)
}

func (o EmissionPrice) Summary() string {
	if o.Price == nil {
		return "add the configured emission prices to marginal costs"
	}
	return fmt.Sprintf("price CO2 at %g EUR/t into marginal costs", *o.Price)
}

func (o CarrierScale) Summary() string {
	return fmt.Sprintf("scale capital costs of %q assets by %g", o.Prefix, o.Factor)
}

func (o Autarky) Summary() string {
	if o.CrossBorderOnly {
		return "remove cross-border transmission lines and links"
	}
	return "remove all transmission lines and links"
}

func (o Unknown) Summary() string {
	return "no effect (unrecognized token)"
}

// Options is the parsed opts wildcard, in token order.
type Options []Option

var (
	resampleRe = regexp.MustCompile(`^(\d+)[hH]$`)
	// trailingFloatRe extracts a numeric suffix like the 0.05 in Co2L0.05.
	trailingFloatRe = regexp.MustCompile(`[0-9]*\.?[0-9]+$`)
)

// Parse splits an opts wildcard on dashes and classifies every token. Each
// token becomes exactly one Option; the classifiers are tried in a fixed
// order (resampling, CO2 limit, security margin, emission price, autarky,
// carrier scale) so a token can never trigger two modifiers.
func Parse(opts string) Options {
	var out Options
	for _, tok := range strings.Split(opts, "-") {
		if tok == "" {
			continue
		}
		out = append(out, classify(tok))
	}
	return out
}

func classify(tok string) Option {
	if m := resampleRe.FindStringSubmatch(tok); m != nil {
		if hours, err := strconv.Atoi(m[1]); err == nil {
			return Resample{Raw: tok, Hours: hours}
		}
	}
	if strings.Contains(tok, "Co2L") {
		return CO2Limit{Raw: tok, Factor: trailingFloat(tok)}
	}
	if strings.Contains(tok, "SC") {
		return SecurityMargin{Raw: tok, Value: trailingFloat(tok)}
	}
	if strings.Contains(tok, "Ep") {
		return EmissionPrice{Raw: tok, Price: trailingFloat(tok)}
	}
	if tok == "ATK" {
		return Autarky{Raw: tok}
	}
	if tok == "ATKc" {
		return Autarky{Raw: tok, CrossBorderOnly: true}
	}
	if prefix, factor, found := strings.Cut(tok, "+"); found && prefix != "" {
		if f, err := strconv.ParseFloat(factor, 64); err == nil {
			return CarrierScale{Raw: tok, Prefix: prefix, Factor: f}
		}
	}
	return Unknown{Raw: tok}
}

func trailingFloat(tok string) *float64 {
	m := trailingFloatRe.FindString(tok)
	if m == "" {
		return nil
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil {
		return nil
	}
	return &v
}

// FirstResample returns the first resampling option; later ones are ignored
// by the preparer.
func (opts Options) FirstResample() (Resample, bool) {
	for _, o := range opts {
		if r, ok := o.(Resample); ok {
			return r, true
		}
	}
	return Resample{}, false
}

// CO2Limits returns every CO2 limit option in order.
func (opts Options) CO2Limits() []CO2Limit {
	var out []CO2Limit
	for _, o := range opts {
		if c, ok := o.(CO2Limit); ok {
			out = append(out, c)
		}
	}
	return out
}

// SecurityMargins returns every margin override in order.
func (opts Options) SecurityMargins() []SecurityMargin {
	var out []SecurityMargin
	for _, o := range opts {
		if s, ok := o.(SecurityMargin); ok {
			out = append(out, s)
		}
	}
	return out
}

// EmissionPrices returns every emission price option in order.
func (opts Options) EmissionPrices() []EmissionPrice {
	var out []EmissionPrice
	for _, o := range opts {
		if e, ok := o.(EmissionPrice); ok {
			out = append(out, e)
		}
	}
	return out
}

// CarrierScales returns every cost scaling option in order.
func (opts Options) CarrierScales() []CarrierScale {
	var out []CarrierScale
	for _, o := range opts {
		if c, ok := o.(CarrierScale); ok {
			out = append(out, c)
		}
	}
	return out
}

// AutarkyMode returns the effective autarky option. A full cutoff wins over a
// cross-border one when both tokens are present.
func (opts Options) AutarkyMode() (Autarky, bool) {
	var cross *Autarky
	for _, o := range opts {
		a, ok := o.(Autarky)
		if !ok {
			continue
		}
		if !a.CrossBorderOnly {
			return a, true
		}
		if cross == nil {
			c := a
			cross = &c
		}
	}
	if cross != nil {
		return *cross, true
	}
	return Autarky{}, false
}

// Unknowns returns the raw tokens that matched no modifier.
func (opts Options) Unknowns() []string {
	var out []string
	for _, o := range opts {
		if u, ok := o.(Unknown); ok {
			out = append(out, u.Raw)
		}
	}
	return out
}
