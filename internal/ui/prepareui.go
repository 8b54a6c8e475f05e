package ui

import (
	"fmt"
	"io"
	"strings"
	"time"
)

// Verbosity controls how much the prepare command prints.
type Verbosity int

const (
	// VerbosityQuiet suppresses everything except errors returned to the shell
	VerbosityQuiet Verbosity = iota
	// VerbosityStandard shows the live pipeline display and the final summary
	VerbosityStandard
	// VerbosityDebug prints one scrolling line per event plus modifier logs
	VerbosityDebug
)

// ParseVerbosity maps a --log-level flag value to a Verbosity
func ParseVerbosity(s string) (Verbosity, error) {
	switch s {
	case "quiet":
		return VerbosityQuiet, nil
	case "standard":
		return VerbosityStandard, nil
	case "debug":
		return VerbosityDebug, nil
	default:
		return VerbosityStandard, fmt.Errorf("unknown log level %q (want quiet, standard or debug)", s)
	}
}

// PrepareUI provides a rich UI for the prepare command
type PrepareUI struct {
	writer    io.Writer
	verbosity Verbosity
	tracker   *PipelineTracker
	startTime time.Time
}

// NewPrepareUI creates a new UI handler for the prepare command
func NewPrepareUI(w io.Writer, verbosity Verbosity) *PrepareUI {
	return &PrepareUI{
		writer:    w,
		verbosity: verbosity,
		startTime: time.Now(),
	}
}

// StartPipeline initializes the pipeline display
func (p *PrepareUI) StartPipeline(network string, steps []string) {
	p.startTime = time.Now()

	switch p.verbosity {
	case VerbosityQuiet:
		return
	case VerbosityStandard:
		p.tracker = NewPipelineTracker(fmt.Sprintf("Preparing %s", network), steps)
		p.tracker.Start()
	case VerbosityDebug:
		fmt.Fprintln(p.writer, Title.Render(fmt.Sprintf("Preparing %s", network)))
	}
}

// StepRunning marks the named step as in progress
func (p *PrepareUI) StepRunning(name, token string) {
	switch p.verbosity {
	case VerbosityStandard:
		if p.tracker != nil {
			p.tracker.UpdateStep(name, StatusRunning, token, "")
		}
	case VerbosityDebug:
		fmt.Fprintf(p.writer, "%s %s%s\n", GetBullet(), StepRunning.Render(name), tokenSuffix(token))
	}
}

// StepApplied marks the named step as applied
func (p *PrepareUI) StepApplied(name, token, detail string) {
	switch p.verbosity {
	case VerbosityStandard:
		if p.tracker != nil {
			p.tracker.UpdateStep(name, StatusComplete, token, detail)
		}
	case VerbosityDebug:
		fmt.Fprintf(p.writer, "%s %s%s%s\n", GetCheckMark(), StepComplete.Render(name), tokenSuffix(token), detailSuffix(detail))
	}
}

// StepSkipped marks the named step as skipped
func (p *PrepareUI) StepSkipped(name, token, detail string) {
	switch p.verbosity {
	case VerbosityStandard:
		if p.tracker != nil {
			p.tracker.UpdateStep(name, StatusSkipped, token, detail)
		}
	case VerbosityDebug:
		fmt.Fprintf(p.writer, "%s %s%s%s\n", GetSkipMark(), StepSkipped.Render(name), tokenSuffix(token), detailSuffix(detail))
	}
}

// StepFailed marks the named step as failed
func (p *PrepareUI) StepFailed(name, token string, err error) {
	switch p.verbosity {
	case VerbosityStandard:
		if p.tracker != nil {
			p.tracker.UpdateStep(name, StatusFailed, token, err.Error())
		}
	case VerbosityDebug:
		fmt.Fprintf(p.writer, "%s %s%s%s\n", GetCrossMark(), StepFailed.Render(name), tokenSuffix(token), detailSuffix(err.Error()))
	}
}

// UnknownToken reports a wildcard token no modifier recognized
func (p *PrepareUI) UnknownToken(token string) {
	switch p.verbosity {
	case VerbosityStandard:
		if p.tracker != nil {
			p.tracker.SetMessage(fmt.Sprintf("⚠ unrecognized option %q ignored", token))
		}
	case VerbosityDebug:
		fmt.Fprintf(p.writer, "%s %s\n", GetWarnMark(), Warning.Render(fmt.Sprintf("unrecognized option %q ignored", token)))
	}
}

// FinishPipeline closes the pipeline display
func (p *PrepareUI) FinishPipeline(err error) {
	if p.verbosity == VerbosityStandard && p.tracker != nil {
		p.tracker.Complete(err)
		p.tracker = nil
	}
}

// Stop aborts the pipeline display without a final state
func (p *PrepareUI) Stop() {
	if p.tracker != nil {
		p.tracker.Stop()
		p.tracker = nil
	}
}

// PrepareSummary carries the figures shown after a successful run
type PrepareSummary struct {
	Network       string
	Scenario      string
	Limit         string
	Applied       int
	Skipped       int
	UnknownTokens []string
	Snapshots     int
	Resolution    string
	Constraints   []string
	Output        string
}

// PrintSummary displays the prepare summary with styled output
func (p *PrepareUI) PrintSummary(sum PrepareSummary) {
	if p.verbosity == VerbosityQuiet {
		return
	}

	p.Stop()

	var output strings.Builder

	output.WriteString(Success.Bold(true).Render("✓ Network Prepared"))
	output.WriteString("\n\n")

	output.WriteString(SectionHeader.Render("Summary"))
	output.WriteString("\n\n")

	output.WriteString(fmt.Sprintf("  %s           %s\n",
		Muted.Render("Network:"),
		Bold.Render(sum.Network)))
	output.WriteString(fmt.Sprintf("  %s          %s\n",
		Muted.Render("Scenario:"),
		Highlight.Render(sum.Scenario)))
	output.WriteString(fmt.Sprintf("  %s %s\n",
		Muted.Render("Transmission cap:"),
		Bold.Render(sum.Limit)))

	output.WriteString("\n")
	output.WriteString(fmt.Sprintf("  %s     %s\n",
		Muted.Render("Steps applied:"),
		Success.Render(fmt.Sprintf("%d", sum.Applied))))
	if sum.Skipped > 0 {
		output.WriteString(fmt.Sprintf("  %s     %s\n",
			Muted.Render("Steps skipped:"),
			Dim.Render(fmt.Sprintf("%d", sum.Skipped))))
	}
	if len(sum.UnknownTokens) > 0 {
		output.WriteString(fmt.Sprintf("  %s    %s\n",
			Muted.Render("Unknown tokens:"),
			Warning.Render(strings.Join(sum.UnknownTokens, ", "))))
	}

	output.WriteString("\n")
	output.WriteString(fmt.Sprintf("  %s         %s\n",
		Muted.Render("Snapshots:"),
		Bold.Render(fmt.Sprintf("%d", sum.Snapshots))))
	if sum.Resolution != "" {
		output.WriteString(fmt.Sprintf("  %s        %s\n",
			Muted.Render("Resolution:"),
			Dim.Render(sum.Resolution)))
	}
	for _, c := range sum.Constraints {
		output.WriteString(fmt.Sprintf("    %s %s\n",
			GetBullet(),
			Dim.Render(truncateName(c, 60))))
	}

	duration := time.Since(p.startTime)
	output.WriteString(fmt.Sprintf("  %s          %s\n",
		Muted.Render("Duration:"),
		Dim.Render(formatDuration(duration))))

	output.WriteString("\n")
	output.WriteString(fmt.Sprintf("  %s %s\n",
		Muted.Render("Output:"),
		Success.Render(sum.Output)))

	boxed := SuccessBox.Render(output.String())
	fmt.Fprintln(p.writer, "\n"+boxed)
}

// PrintError displays an error message
func (p *PrepareUI) PrintError(err error) {
	if p.verbosity == VerbosityQuiet {
		return
	}

	p.Stop()

	var output strings.Builder
	output.WriteString(Error.Bold(true).Render("✗ Prepare Failed"))
	output.WriteString("\n\n")
	output.WriteString(err.Error())

	boxed := ErrorBox.Render(output.String())
	fmt.Fprintln(p.writer, "\n"+boxed)
}

func tokenSuffix(token string) string {
	if token == "" {
		return ""
	}
	return Dim.Render(" [" + token + "]")
}

func detailSuffix(detail string) string {
	if detail == "" {
		return ""
	}
	return Dim.Render(" → " + detail)
}

// formatDuration formats a duration in a human-readable way
func formatDuration(d time.Duration) string {
	if d < time.Second {
		return fmt.Sprintf("%dms", d.Milliseconds())
	}
	if d < time.Minute {
		return fmt.Sprintf("%.1fs", d.Seconds())
	}
	return fmt.Sprintf("%.1fm", d.Minutes())
}

// truncateName truncates a name to a maximum length
func truncateName(name string, maxLen int) string {
	if len(name) <= maxLen {
		return name
	}
	return name[:maxLen-3] + "..."
}
