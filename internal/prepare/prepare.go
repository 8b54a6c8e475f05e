// Package prepare runs the network preparation pipeline: a fixed sequence of
// modifiers driven by the parsed scenario, mutating the network in place.
// Nothing is persisted here; the caller serializes only after Run succeeds.
package prepare

import (
	"context"
	"fmt"

	"github.com/enerkit/gridprep/internal/config"
	"github.com/enerkit/gridprep/internal/costs"
	"github.com/enerkit/gridprep/internal/network"
	"github.com/enerkit/gridprep/internal/scenario"
)

// ProgressCallback is called during preparation to report progress
type ProgressCallback func(event ProgressEvent)

// ProgressEvent represents a progress update
type ProgressEvent struct {
	Type   ProgressEventType
	Step   string
	Token  string // wildcard token that triggered the step, if any
	Detail string
	Error  error
}

// ProgressEventType identifies the type of progress event
type ProgressEventType int

const (
	EventStepStart ProgressEventType = iota
	EventStepApplied
	EventStepSkipped
	EventStepError
)

// Step names, in pipeline order.
const (
	StepMargin   = "line margin"
	StepResample = "resample"
	StepCO2      = "co2 limit"
	StepSecurity = "security margin"
	StepEmission = "emission prices"
	StepCarrier  = "carrier costs"
	StepLimit    = "transmission limit"
	StepCeiling  = "capacity ceilings"
	StepAutarky  = "autarky"
)

// Steps returns the pipeline step names in execution order.
func Steps() []string {
	return []string{
		StepMargin, StepResample, StepCO2, StepSecurity, StepEmission,
		StepCarrier, StepLimit, StepCeiling, StepAutarky,
	}
}

// RunOptions configures the preparation pipeline
type RunOptions struct {
	Scenario   scenario.Options
	Limit      scenario.TransmissionLimit
	Config     *config.Config
	CostsPath  string // technology cost table CSV
	OnProgress ProgressCallback
}

// Run applies the modifier pipeline to n. The config is validated against the
// scenario before anything mutates; on error the network may be partially
// modified and must not be written out.
func Run(ctx context.Context, n *network.Network, opts RunOptions) error {
	progress := opts.OnProgress
	if progress == nil {
		progress = func(ProgressEvent) {} // no-op
	}

	if err := opts.Config.ValidateFor(opts.Scenario); err != nil {
		return err
	}
	for _, tok := range opts.Scenario.Unknowns() {
		progress(ProgressEvent{Type: EventStepSkipped, Token: tok, Detail: "unrecognized option"})
	}

	// The modelled span is fixed before resampling; resampling preserves the
	// total weight so budgets scaled by it stay comparable across resolutions.
	nyears := n.Nyears()

	steps := []func() error{
		func() error { return runMargin(n, progress) },
		func() error { return runResample(n, opts.Scenario, progress) },
		func() error { return runCO2(n, opts.Scenario, opts.Config.Electricity, nyears, progress) },
		func() error { return runSecurity(n, opts.Scenario, progress) },
		func() error { return runEmission(n, opts.Scenario, opts.Config.Costs.EmissionPrices, progress) },
		func() error { return runCarrierScales(n, opts.Scenario, progress) },
		func() error { return runLimit(n, opts, nyears, progress) },
		func() error { return runCeilings(n, opts.Config, progress) },
		func() error { return runAutarky(n, opts.Scenario, progress) },
	}
	for _, step := range steps {
		if err := ctx.Err(); err != nil {
			return err
		}
		if err := step(); err != nil {
			return err
		}
	}
	return nil
}

func runMargin(n *network.Network, progress ProgressCallback) error {
	progress(ProgressEvent{Type: EventStepStart, Step: StepMargin})
	m := SetLineMargin(n)
	logf(n.Name, "line margin s_max_pu=%.3g (%d buses)", m, len(n.Buses))
	progress(ProgressEvent{
		Type: EventStepApplied, Step: StepMargin,
		Detail: fmt.Sprintf("s_max_pu=%.3g on %d lines", m, len(n.Lines)),
	})
	return nil
}

func runResample(n *network.Network, sc scenario.Options, progress ProgressCallback) error {
	r, ok := sc.FirstResample()
	if !ok {
		progress(ProgressEvent{Type: EventStepSkipped, Step: StepResample, Detail: "native resolution kept"})
		return nil
	}
	progress(ProgressEvent{Type: EventStepStart, Step: StepResample, Token: r.Token()})
	before := len(n.Snapshots)
	if err := n.Resample(r.Hours); err != nil {
		progress(ProgressEvent{Type: EventStepError, Step: StepResample, Token: r.Token(), Error: err})
		return err
	}
	logf(n.Name, "resampled %d snapshots to %d at %dh", before, len(n.Snapshots), r.Hours)
	progress(ProgressEvent{
		Type: EventStepApplied, Step: StepResample, Token: r.Token(),
		Detail: fmt.Sprintf("%d snapshots -> %d, total weight %g", before, len(n.Snapshots), n.TotalWeight()),
	})
	return nil
}

func runCO2(n *network.Network, sc scenario.Options, elec config.Electricity, nyears float64, progress ProgressCallback) error {
	limits := sc.CO2Limits()
	if len(limits) == 0 {
		progress(ProgressEvent{Type: EventStepSkipped, Step: StepCO2})
		return nil
	}
	for _, co2 := range limits {
		progress(ProgressEvent{Type: EventStepStart, Step: StepCO2, Token: co2.Token()})
		constant, err := AddCO2Limit(n, co2.Factor, elec, nyears)
		if err != nil {
			progress(ProgressEvent{Type: EventStepError, Step: StepCO2, Token: co2.Token(), Error: err})
			return err
		}
		logf(n.Name, "co2 cap %g t (%s)", constant, co2.Token())
		progress(ProgressEvent{
			Type: EventStepApplied, Step: StepCO2, Token: co2.Token(),
			Detail: fmt.Sprintf("cap %g t co2", constant),
		})
	}
	return nil
}

func runSecurity(n *network.Network, sc scenario.Options, progress ProgressCallback) error {
	margins := sc.SecurityMargins()
	if len(margins) == 0 {
		progress(ProgressEvent{Type: EventStepSkipped, Step: StepSecurity})
		return nil
	}
	for _, m := range margins {
		progress(ProgressEvent{Type: EventStepStart, Step: StepSecurity, Token: m.Token()})
		v := SetSecurityMargin(n, m.Value)
		logf(n.Name, "security margin s_max_pu=%g (%s)", v, m.Token())
		progress(ProgressEvent{
			Type: EventStepApplied, Step: StepSecurity, Token: m.Token(),
			Detail: fmt.Sprintf("s_max_pu=%g on %d lines", v, len(n.Lines)),
		})
	}
	return nil
}

func runEmission(n *network.Network, sc scenario.Options, configured map[string]float64, progress ProgressCallback) error {
	eps := sc.EmissionPrices()
	if len(eps) == 0 {
		progress(ProgressEvent{Type: EventStepSkipped, Step: StepEmission})
		return nil
	}
	for _, ep := range eps {
		progress(ProgressEvent{Type: EventStepStart, Step: StepEmission, Token: ep.Token()})
		prices := configured
		if ep.Price != nil {
			prices = map[string]float64{"co2": *ep.Price}
		}
		gens, sus := AddEmissionPrices(n, prices)
		logf(n.Name, "emission prices %v: %d generators, %d storage units repriced", prices, gens, sus)
		progress(ProgressEvent{
			Type: EventStepApplied, Step: StepEmission, Token: ep.Token(),
			Detail: fmt.Sprintf("%d generators, %d storage units repriced", gens, sus),
		})
	}
	return nil
}

func runCarrierScales(n *network.Network, sc scenario.Options, progress ProgressCallback) error {
	scales := sc.CarrierScales()
	if len(scales) == 0 {
		progress(ProgressEvent{Type: EventStepSkipped, Step: StepCarrier})
		return nil
	}
	for _, cs := range scales {
		progress(ProgressEvent{Type: EventStepStart, Step: StepCarrier, Token: cs.Token()})
		scaled, ok := ScaleCarrierCosts(n, cs.Prefix, cs.Factor)
		if !ok {
			logf(n.Name, "carrier scale %s skipped: no carrier prefix matches %q", cs.Token(), cs.Prefix)
			progress(ProgressEvent{
				Type: EventStepSkipped, Step: StepCarrier, Token: cs.Token(),
				Detail: fmt.Sprintf("no carrier prefix matches %q", cs.Prefix),
			})
			continue
		}
		logf(n.Name, "carrier scale %s: %d capital costs x%g", cs.Token(), scaled, cs.Factor)
		progress(ProgressEvent{
			Type: EventStepApplied, Step: StepCarrier, Token: cs.Token(),
			Detail: fmt.Sprintf("%d capital costs x%g", scaled, cs.Factor),
		})
	}
	return nil
}

func runLimit(n *network.Network, opts RunOptions, nyears float64, progress ProgressCallback) error {
	limit := opts.Limit
	progress(ProgressEvent{Type: EventStepStart, Step: StepLimit, Token: limit.Token()})

	table, err := costs.Load(opts.CostsPath, costs.Options{
		Year:         opts.Config.Costs.Year,
		DiscountRate: opts.Config.Costs.DiscountRate,
		USDToEUR:     opts.Config.Costs.USDToEUR,
		Nyears:       nyears,
	})
	if err != nil {
		err = fmt.Errorf("load cost table: %w", err)
		progress(ProgressEvent{Type: EventStepError, Step: StepLimit, Error: err})
		return err
	}

	ref, err := SetTransmissionLimit(n, limit, table, opts.Config.Lines.LengthFactor)
	if err != nil {
		progress(ProgressEvent{Type: EventStepError, Step: StepLimit, Error: err})
		return err
	}
	logf(n.Name, "transmission limit %s, reference %g", limit.Summary(), ref)

	detail := "expansion allowed"
	if limit.Constrained() {
		detail = fmt.Sprintf("%s <= %g", limit.ConstraintName(), limit.Factor*ref)
		if limit.AllowsExpansion() {
			detail += ", expansion allowed"
		}
	}
	progress(ProgressEvent{Type: EventStepApplied, Step: StepLimit, Token: limit.Token(), Detail: detail})
	return nil
}

func runCeilings(n *network.Network, cfg *config.Config, progress ProgressCallback) error {
	progress(ProgressEvent{Type: EventStepStart, Step: StepCeiling})
	clipped := ClampCapacityCeilings(n, cfg.Lines.SNomMax, cfg.Links.PNomMax)
	logf(n.Name, "capacity ceilings clipped %d components", clipped)
	progress(ProgressEvent{
		Type: EventStepApplied, Step: StepCeiling,
		Detail: fmt.Sprintf("%d components clipped", clipped),
	})
	return nil
}

func runAutarky(n *network.Network, sc scenario.Options, progress ProgressCallback) error {
	mode, ok := sc.AutarkyMode()
	if !ok {
		progress(ProgressEvent{Type: EventStepSkipped, Step: StepAutarky})
		return nil
	}
	progress(ProgressEvent{Type: EventStepStart, Step: StepAutarky, Token: mode.Token()})
	lines, links := EnforceAutarky(n, mode.CrossBorderOnly)
	logf(n.Name, "autarky (%s) removed %d lines, %d links", mode.Token(), lines, links)
	progress(ProgressEvent{
		Type: EventStepApplied, Step: StepAutarky, Token: mode.Token(),
		Detail: fmt.Sprintf("removed %d lines, %d links", lines, links),
	})
	return nil
}
