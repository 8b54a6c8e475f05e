package scenario

import (
	"fmt"
	"strconv"

	"github.com/enerkit/gridprep/internal/apperr"
)

// LimitKind says what a transmission limit measures.
type LimitKind string

const (
	// LimitCost bounds the capital cost of transmission expansion.
	LimitCost LimitKind = "c"
	// LimitVolume bounds the MW*km volume of transmission expansion.
	LimitVolume LimitKind = "v"
)

// TransmissionLimit is the parsed ll wildcard <c|v><factor|opt>. Opt leaves
// expansion unconstrained; a factor bounds it relative to today's network.
type TransmissionLimit struct {
	Raw    string
	Kind   LimitKind
	Opt    bool
	Factor float64 // meaningful only when !Opt
}

// ParseTransmissionLimit parses an ll wildcard like v1.5, copt or c1.25.
func ParseTransmissionLimit(ll string) (TransmissionLimit, error) {
	if len(ll) < 2 {
		return TransmissionLimit{}, apperr.Userf("transmission limit %q: want <c|v><factor|opt>, e.g. v1.5 or copt", ll)
	}
	tl := TransmissionLimit{Raw: ll}
	switch ll[0] {
	case 'c':
		tl.Kind = LimitCost
	case 'v':
		tl.Kind = LimitVolume
	default:
		return TransmissionLimit{}, apperr.Userf("transmission limit %q: type must be c (cost) or v (volume)", ll)
	}

	rest := ll[1:]
	if rest == "opt" {
		tl.Opt = true
		return tl, nil
	}
	f, err := strconv.ParseFloat(rest, 64)
	if err != nil {
		return TransmissionLimit{}, apperr.Userf("transmission limit %q: factor %q is neither a number nor \"opt\"", ll, rest)
	}
	tl.Factor = f
	return tl, nil
}

// Token returns the raw wildcard.
func (tl TransmissionLimit) Token() string { return tl.Raw }

// AllowsExpansion reports whether branches become extendable: always under
// opt, otherwise only when the allowance exceeds today's network.
func (tl TransmissionLimit) AllowsExpansion() bool {
	return tl.Opt || tl.Factor > 1.0
}

// Constrained reports whether a global constraint bounds the expansion.
func (tl TransmissionLimit) Constrained() bool {
	return !tl.Opt
}

// ConstraintName is the global constraint name, lc_limit or lv_limit.
func (tl TransmissionLimit) ConstraintName() string {
	return "l" + string(tl.Kind) + "_limit"
}

// ConstraintType is the global constraint type attribute.
func (tl TransmissionLimit) ConstraintType() string {
	if tl.Kind == LimitCost {
		return "transmission_expansion_cost_limit"
	}
	return "transmission_volume_expansion_limit"
}

// Summary is a one-line human description for the explain command.
func (tl TransmissionLimit) Summary() string {
	measure := "volume"
	if tl.Kind == LimitCost {
		measure = "cost"
	}
	if tl.Opt {
		return fmt.Sprintf("allow unconstrained transmission expansion (%s-optimal)", measure)
	}
	if tl.Factor > 1.0 {
		return fmt.Sprintf("allow transmission expansion up to %g times today's %s", tl.Factor, measure)
	}
	return fmt.Sprintf("cap transmission %s at %g times today's network", measure, tl.Factor)
}
