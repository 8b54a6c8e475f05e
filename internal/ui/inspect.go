package ui

import (
	"fmt"
	"io"
	"strings"
)

// NetworkSummary mirrors the figures the inspect command computes from a
// network, kept as plain fields to avoid circular imports
type NetworkSummary struct {
	Name       string
	ID         string
	Created    string
	Snapshots  int
	Resolution string
	TotalHours float64

	Buses        int
	Lines        int
	Links        int
	Generators   int
	StorageUnits int
	Loads        int

	ExtendableLines int
	ExtendableLinks int

	Countries []string

	Carriers []CarrierSummary

	Constraints []ConstraintSummary
}

// CarrierSummary describes the installed generation capacity of one carrier
type CarrierSummary struct {
	Name     string
	Capacity float64 // MW of generator p_nom
	Share    float64 // fraction of total generation capacity
}

// ConstraintSummary describes one global constraint attached to the network
type ConstraintSummary struct {
	Name     string
	Type     string
	Sense    string
	Constant float64
}

// InspectUI provides a rich UI for the inspect command
type InspectUI struct {
	writer io.Writer
	quiet  bool
}

// NewInspectUI creates a new UI handler for the inspect command
func NewInspectUI(w io.Writer, quiet bool) *InspectUI {
	return &InspectUI{
		writer: w,
		quiet:  quiet,
	}
}

// PrintSummary renders the network report
func (c *InspectUI) PrintSummary(report NetworkSummary) {
	if c.quiet {
		return
	}

	var output strings.Builder

	output.WriteString(Success.Bold(true).Render("Network Report"))
	output.WriteString("\n\n")

	output.WriteString(c.renderHeader(report))
	output.WriteString("\n\n")

	output.WriteString(c.renderComponents(report))
	output.WriteString("\n")

	if len(report.Carriers) > 0 {
		output.WriteString("\n")
		output.WriteString(c.renderCarriers(report.Carriers))
		output.WriteString("\n")
	}

	if len(report.Constraints) > 0 {
		output.WriteString("\n")
		output.WriteString(c.renderConstraints(report.Constraints))
		output.WriteString("\n")
	}

	boxed := Box.Render(output.String())
	fmt.Fprintln(c.writer, boxed)
}

// renderHeader creates the identity and snapshot section
func (c *InspectUI) renderHeader(report NetworkSummary) string {
	var sb strings.Builder

	sb.WriteString(SectionHeader.Render("Network"))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Name", Highlight.Render(report.Name)))
	sb.WriteString("\n")
	if report.ID != "" {
		sb.WriteString(FormatKeyValue("ID", Dim.Render(report.ID)))
		sb.WriteString("\n")
	}
	if report.Created != "" {
		sb.WriteString(FormatKeyValue("Created", Dim.Render(report.Created)))
		sb.WriteString("\n")
	}
	if len(report.Countries) > 0 {
		sb.WriteString(FormatKeyValue("Countries", strings.Join(report.Countries, ", ")))
		sb.WriteString("\n")
	}

	snapshots := fmt.Sprintf("%d", report.Snapshots)
	if report.Resolution != "" {
		snapshots = fmt.Sprintf("%d (%s)", report.Snapshots, report.Resolution)
	}
	sb.WriteString(FormatKeyValue("Snapshots", snapshots))
	sb.WriteString("\n")
	sb.WriteString(FormatKeyValue("Modelled span", fmt.Sprintf("%.0f h", report.TotalHours)))

	return sb.String()
}

// renderComponents creates the component count section
func (c *InspectUI) renderComponents(report NetworkSummary) string {
	var sb strings.Builder

	sb.WriteString(SectionHeader.Render("Components"))
	sb.WriteString("\n")

	rows := []struct {
		label string
		count int
	}{
		{"Buses", report.Buses},
		{"Lines", report.Lines},
		{"Links", report.Links},
		{"Generators", report.Generators},
		{"Storage units", report.StorageUnits},
		{"Loads", report.Loads},
	}
	for _, row := range rows {
		sb.WriteString(fmt.Sprintf("  %s %s\n",
			Muted.Render(fmt.Sprintf("%-14s", row.label+":")),
			Bold.Render(fmt.Sprintf("%d", row.count))))
	}

	if report.ExtendableLines > 0 || report.ExtendableLinks > 0 {
		sb.WriteString(Dim.Render(fmt.Sprintf("(%d lines, %d links extendable)",
			report.ExtendableLines, report.ExtendableLinks)))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// renderCarriers creates the generation capacity section with share bars
func (c *InspectUI) renderCarriers(carriers []CarrierSummary) string {
	var sb strings.Builder

	sb.WriteString(SectionHeader.Render("Generation Capacity"))
	sb.WriteString("\n")

	for _, carrier := range carriers {
		sb.WriteString(fmt.Sprintf("  %s %s %s %s\n",
			Muted.Render(fmt.Sprintf("%-12s", carrier.Name)),
			c.renderShareBar(carrier.Share, 30),
			Bold.Render(fmt.Sprintf("%5.1f%%", carrier.Share*100)),
			Dim.Render(fmt.Sprintf("%.0f MW", carrier.Capacity))))
	}

	return strings.TrimRight(sb.String(), "\n")
}

// renderConstraints creates the global constraints section
func (c *InspectUI) renderConstraints(constraints []ConstraintSummary) string {
	var sb strings.Builder

	sb.WriteString(SectionHeader.Render(fmt.Sprintf("Global Constraints (%d)", len(constraints))))
	sb.WriteString("\n")

	for _, gc := range constraints {
		sb.WriteString("  ")
		sb.WriteString(GetBullet())
		sb.WriteString(" ")
		sb.WriteString(Highlight.Render(gc.Name))
		sb.WriteString(Dim.Render(fmt.Sprintf(" %s %g (%s)", gc.Sense, gc.Constant, gc.Type)))
		sb.WriteString("\n")
	}

	return strings.TrimRight(sb.String(), "\n")
}

// renderShareBar creates a visual share bar
func (c *InspectUI) renderShareBar(share float64, width int) string {
	if share < 0 {
		share = 0
	}
	if share > 1 {
		share = 1
	}
	filled := int(share * float64(width))
	empty := width - filled

	bar := strings.Repeat("█", filled) + strings.Repeat("░", empty)
	return Secondary.Render(bar)
}

// PrintSimpleSummary prints a minimal text report (fallback for quiet mode)
func (c *InspectUI) PrintSimpleSummary(report NetworkSummary) {
	fmt.Fprintf(c.writer, "%s: %d buses, %d lines, %d links, %d generators, %d storage units, %d loads\n",
		report.Name, report.Buses, report.Lines, report.Links,
		report.Generators, report.StorageUnits, report.Loads)
	fmt.Fprintf(c.writer, "snapshots: %d (%s), span %.0f h\n",
		report.Snapshots, report.Resolution, report.TotalHours)
	for _, gc := range report.Constraints {
		fmt.Fprintf(c.writer, "constraint %s: %s %g (%s)\n", gc.Name, gc.Sense, gc.Constant, gc.Type)
	}
}
