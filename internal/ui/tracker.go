package ui

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"charm.land/bubbles/v2/spinner"
	tea "charm.land/bubbletea/v2"
	"charm.land/lipgloss/v2"
)

// StepStatus represents the status of a pipeline step
type StepStatus int

const (
	StatusPending StepStatus = iota
	StatusRunning
	StatusComplete
	StatusFailed
	StatusSkipped
)

// Step represents a single step in the pipeline display
type Step struct {
	Name   string
	Token  string // wildcard token that triggered the step, if any
	Status StepStatus
	Detail string // short outcome line (e.g. "budget 7.435e+07 tCO2")
}

// pipelineModel is the Bubble Tea model for the pipeline display
type pipelineModel struct {
	spinner    spinner.Model
	steps      []Step
	title      string
	done       bool
	err        error
	width      int
	quitting   bool
	subMessage string // additional message below the step list
}

func newPipelineModel(title string, steps []string) pipelineModel {
	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(ColorSecondary)

	m := pipelineModel{
		spinner: s,
		title:   title,
		width:   80,
		steps:   make([]Step, len(steps)),
	}
	for i, name := range steps {
		m.steps[i] = Step{Name: name, Status: StatusPending}
	}
	return m
}

// Init initializes the model
func (m pipelineModel) Init() tea.Cmd {
	return m.spinner.Tick
}

// StepMsg is sent to update a pipeline step
type StepMsg struct {
	StepIndex  int
	Status     StepStatus
	Token      string
	Detail     string
	SubMessage string
}

// DoneMsg signals that the pipeline is complete
type DoneMsg struct {
	Err error
}

// Update handles messages
func (m pipelineModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		switch msg.String() {
		case "q", "ctrl+c":
			m.quitting = true
			return m, tea.Quit
		}

	case tea.WindowSizeMsg:
		m.width = msg.Width

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd

	case StepMsg:
		if msg.StepIndex >= 0 && msg.StepIndex < len(m.steps) {
			m.steps[msg.StepIndex].Status = msg.Status
			if msg.Token != "" {
				m.steps[msg.StepIndex].Token = msg.Token
			}
			m.steps[msg.StepIndex].Detail = msg.Detail
		}
		m.subMessage = msg.SubMessage
		return m, nil

	case DoneMsg:
		m.done = true
		m.err = msg.Err
		return m, tea.Quit
	}

	return m, nil
}

// View renders the pipeline display
func (m pipelineModel) View() tea.View {
	if m.quitting {
		return tea.NewView("")
	}

	var b strings.Builder

	if m.title != "" {
		b.WriteString(Title.Render(m.title))
		b.WriteString("\n\n")
	}

	for i, step := range m.steps {
		var icon string
		var style styleWrapper

		switch step.Status {
		case StatusPending:
			icon = Muted.Render("○")
			style = StepPending
		case StatusRunning:
			icon = m.spinner.View()
			style = StepRunning
		case StatusComplete:
			icon = GetCheckMark()
			style = StepComplete
		case StatusFailed:
			icon = GetCrossMark()
			style = StepFailed
		case StatusSkipped:
			icon = GetSkipMark()
			style = StepSkipped
		}

		b.WriteString(fmt.Sprintf("%s %s", icon, style.Render(step.Name)))
		if step.Token != "" {
			b.WriteString(Dim.Render(" [" + step.Token + "]"))
		}
		if step.Detail != "" && step.Status != StatusPending && step.Status != StatusRunning {
			b.WriteString(Dim.Render(" → " + step.Detail))
		}

		if i < len(m.steps)-1 {
			b.WriteString("\n")
		}
	}

	if m.subMessage != "" {
		b.WriteString("\n\n")
		b.WriteString(Dim.Render(m.subMessage))
	}

	if m.done {
		b.WriteString("\n\n")
		if m.err != nil {
			b.WriteString(ErrorBox.Render(GetCrossMark() + " " + m.err.Error()))
		} else {
			applied := 0
			for _, s := range m.steps {
				if s.Status == StatusComplete {
					applied++
				}
			}
			b.WriteString(Success.Render(fmt.Sprintf("✓ Applied %d/%d steps", applied, len(m.steps))))
		}
	}

	return tea.NewView(b.String())
}

// PipelineTracker drives the pipeline display without exposing Bubble Tea
// to the calling code. Steps are addressed by name.
type PipelineTracker struct {
	program *tea.Program
	title   string
	steps   []string
	index   map[string]int
	mu      sync.Mutex
	running bool
}

// NewPipelineTracker creates a tracker for the given ordered step names
func NewPipelineTracker(title string, steps []string) *PipelineTracker {
	index := make(map[string]int, len(steps))
	for i, name := range steps {
		index[name] = i
	}
	return &PipelineTracker{
		title: title,
		steps: steps,
		index: index,
	}
}

// Start begins the pipeline display
func (pt *PipelineTracker) Start() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.running {
		return
	}

	model := newPipelineModel(pt.title, pt.steps)
	pt.program = tea.NewProgram(model, tea.WithoutSignalHandler())
	pt.running = true

	go func() {
		pt.program.Run()
	}()

	// Give the program a moment to start
	time.Sleep(50 * time.Millisecond)
}

// UpdateStep updates the named step's status
func (pt *PipelineTracker) UpdateStep(name string, status StepStatus, token, detail string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.program == nil || !pt.running {
		return
	}

	idx, ok := pt.index[name]
	if !ok {
		return
	}

	pt.program.Send(StepMsg{
		StepIndex: idx,
		Status:    status,
		Token:     token,
		Detail:    detail,
	})
}

// SetMessage sets the sub-message displayed below the step list
func (pt *PipelineTracker) SetMessage(message string) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.program == nil || !pt.running {
		return
	}

	pt.program.Send(StepMsg{
		StepIndex:  -1,
		SubMessage: message,
	})
}

// Complete marks the pipeline as complete
func (pt *PipelineTracker) Complete(err error) {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.program == nil || !pt.running {
		return
	}

	pt.program.Send(DoneMsg{Err: err})
	pt.running = false

	// Give it time to render the final state
	time.Sleep(100 * time.Millisecond)
}

// Stop stops the pipeline display without marking complete
func (pt *PipelineTracker) Stop() {
	pt.mu.Lock()
	defer pt.mu.Unlock()

	if pt.program == nil || !pt.running {
		return
	}

	pt.program.Quit()
	pt.running = false
	time.Sleep(50 * time.Millisecond)
}
