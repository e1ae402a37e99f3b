// Package ui is the terminal viewer for rotation routes.
package ui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"github.com/ngmaloney/rotation-map/internal/grid"
	"github.com/ngmaloney/rotation-map/internal/models"
	"github.com/ngmaloney/rotation-map/internal/rotations"
	"github.com/ngmaloney/rotation-map/internal/route"
)

// AppState represents the current state of the application
type AppState int

const (
	StateInput       AppState = iota // Type an ad-hoc rotation
	StateServiceList                 // Pick a stored service
	StateLoading                     // Routing in progress
	StateDisplay                     // Map and diagnostics for the built route
	StateError                       // Error state
)

// ActivePane represents which pane is shown in the display state
type ActivePane int

const (
	PaneMap ActivePane = iota
	PaneDiagnostics
)

const (
	minMapWidth  = 36
	minMapHeight = 9
)

// Model represents the application's state
type Model struct {
	state      AppState
	activePane ActivePane
	width      int
	height     int
	err        error

	input       textinput.Model
	services    []models.Service
	serviceList list.Model

	builder RouteBuilder
	lister  ServiceLister
	grid    *grid.WorldGrid

	spinner spinner.Model
	title   string
	result  *route.Result
}

// NewModel creates the viewer. lister may be nil when no database is
// available, in which case only ad-hoc rotations can be routed.
func NewModel(builder RouteBuilder, lister ServiceLister, g *grid.WorldGrid) Model {
	ti := textinput.New()
	ti.Placeholder = "Enter a rotation (e.g. Busan, Shanghai -> Rotterdam)..."
	ti.Focus()
	ti.CharLimit = 500
	ti.Width = 66

	s := spinner.New()
	s.Spinner = spinner.Dot
	s.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("205"))

	return Model{
		state:      StateInput,
		activePane: PaneMap,
		input:      ti,
		builder:    builder,
		lister:     lister,
		grid:       g,
		spinner:    s,
	}
}

// Init initializes the application
func (m Model) Init() tea.Cmd {
	if m.lister == nil {
		return textinput.Blink
	}
	return tea.Batch(textinput.Blink, fetchServices(m.lister))
}

// Update handles messages and updates the model
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.WindowSizeMsg); ok {
		m.width = msg.Width
		m.height = msg.Height
		if m.services != nil {
			m.serviceList.SetSize(msg.Width-4, msg.Height-8)
		}
		return m, nil
	}

	switch msg := msg.(type) {
	case errMsg:
		m.err = msg.err
		m.state = StateError
		return m, nil

	case servicesFetchedMsg:
		// Not fatal: ad-hoc rotations still work
		if msg.err != nil {
			m.err = fmt.Errorf("loading services failed: %w", msg.err)
			return m, nil
		}
		m.services = msg.services
		m.serviceList = createServiceList(msg.services, m.width-4, m.height-8)
		return m, nil

	case routeBuiltMsg:
		if msg.err != nil {
			m.err = fmt.Errorf("routing failed: %w", msg.err)
			m.state = StateError
			return m, nil
		}
		m.title = msg.title
		m.result = msg.result
		m.activePane = PaneMap
		m.state = StateDisplay
		return m, nil
	}

	if keyMsg, ok := msg.(tea.KeyMsg); ok {
		if keyMsg.String() == "ctrl+c" {
			return m, tea.Quit
		}
		// q is text while typing a rotation or filtering the list
		if keyMsg.String() == "q" && m.state != StateInput && !m.filtering() {
			return m, tea.Quit
		}

		switch m.state {
		case StateInput:
			return m.handleInput(keyMsg)

		case StateServiceList:
			return m.handleServiceList(msg)

		case StateDisplay:
			switch {
			case keyMsg.Type == tea.KeyTab:
				if m.activePane == PaneMap {
					m.activePane = PaneDiagnostics
				} else {
					m.activePane = PaneMap
				}
			case keyMsg.String() == "n" || keyMsg.Type == tea.KeyEsc:
				m.state = StateInput
				m.result = nil
				m.input.SetValue("")
				m.input.Focus()
				return m, textinput.Blink
			case keyMsg.String() == "l" && len(m.services) > 0:
				m.state = StateServiceList
			}
			return m, nil

		case StateError:
			// Any key returns to input (except quit keys)
			m.state = StateInput
			m.err = nil
			m.input.Focus()
			return m, textinput.Blink
		}
	}

	switch m.state {
	case StateLoading:
		m.spinner, cmd = m.spinner.Update(msg)
	case StateInput:
		m.input, cmd = m.input.Update(msg)
	case StateServiceList:
		m.serviceList, cmd = m.serviceList.Update(msg)
	}

	return m, cmd
}

func (m Model) filtering() bool {
	return m.state == StateServiceList && m.serviceList.FilterState() == list.Filtering
}

// handleInput handles keyboard input in the rotation input state
func (m Model) handleInput(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if m.err != nil && msg.Type != tea.KeyEnter {
		m.err = nil
	}

	switch msg.Type {
	case tea.KeyEnter:
		names := rotations.Parse(m.input.Value())
		if len(names) == 0 {
			return m, nil
		}
		if len(names) < 2 {
			m.err = errors.New("a rotation needs at least two ports")
			return m, nil
		}
		m.err = nil
		m.state = StateLoading
		return m, tea.Batch(m.spinner.Tick, buildRoute(m.builder, strings.Join(names, " → "), names))

	case tea.KeyTab:
		if len(m.services) > 0 {
			m.state = StateServiceList
			m.input.Blur()
			return m, nil
		}
	}

	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// handleServiceList handles keyboard input in the service list state
func (m Model) handleServiceList(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmd tea.Cmd

	if keyMsg, ok := msg.(tea.KeyMsg); ok && !m.filtering() {
		switch keyMsg.Type {
		case tea.KeyEnter:
			if item, ok := m.serviceList.SelectedItem().(serviceItem); ok {
				m.state = StateLoading
				return m, tea.Batch(m.spinner.Tick, buildRoute(m.builder, item.service.Name, item.service.PortNames()))
			}
		case tea.KeyEsc, tea.KeyTab:
			m.state = StateInput
			m.input.Focus()
			return m, textinput.Blink
		}
	}

	m.serviceList, cmd = m.serviceList.Update(msg)
	return m, cmd
}

// View renders the UI
func (m Model) View() string {
	if m.width == 0 {
		return "Loading..."
	}

	switch m.state {
	case StateInput:
		return m.viewInput()
	case StateServiceList:
		return m.viewServiceList()
	case StateLoading:
		return m.viewLoading()
	case StateDisplay:
		return m.viewDisplay()
	case StateError:
		return m.viewError()
	}

	return ""
}

// viewError renders the error view
func (m Model) viewError() string {
	title := errorStyle.Render("✗ Error")

	errorMsg := "An unknown error occurred"
	if m.err != nil {
		errorMsg = m.err.Error()
	}

	help := helpStyle.Render("Press any key to return • Q: Quit")

	return lipgloss.JoinVertical(lipgloss.Left, title, "", errorMsg, "", help)
}

// viewInput renders the rotation input view
func (m Model) viewInput() string {
	title := titleStyle.Render("⚓ Rotation Map")
	subtitle := mutedStyle.Render("Sea routes for shipping rotations")

	sections := []string{title, subtitle, "", inputBoxStyle.Render(m.input.View())}

	if m.err != nil {
		sections = append(sections, "", errorStyle.Padding(0, 2).Render("✗ "+m.err.Error()))
	}

	sections = append(sections, "", mutedStyle.Render("Separate ports with commas, dashes or arrows"))

	help := "Enter: Route • Ctrl+C: Quit"
	if len(m.services) > 0 {
		help = fmt.Sprintf("Enter: Route • Tab: %d stored services • Ctrl+C: Quit", len(m.services))
	}
	sections = append(sections, helpStyle.Render(help))

	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

// viewServiceList renders the service selection list
func (m Model) viewServiceList() string {
	help := helpStyle.Render("↑/↓: Navigate • Enter: Route • /: Filter • Tab/Esc: Back • Q: Quit")
	return lipgloss.JoinVertical(lipgloss.Left, m.serviceList.View(), help)
}

// viewLoading renders the loading view
func (m Model) viewLoading() string {
	return fmt.Sprintf("\n %s Computing sea routes...\n", m.spinner.View())
}

// viewDisplay renders the route with either the map or the diagnostics pane
func (m Model) viewDisplay() string {
	header := titleStyle.Padding(0, 1).Render("⚓ " + m.title)

	var summary string
	if m.result != nil {
		summary = mutedStyle.Render(fmt.Sprintf("%d legs • %d points • %d unresolved • %d failed",
			len(m.result.Segments), len(m.result.Geometry), len(m.result.Unresolved), m.result.FailedSegments))
	}

	var body string
	if m.activePane == PaneMap {
		w := max(m.width-4, minMapWidth)
		h := max(m.height-10, minMapHeight)
		body = mapBoxStyle.Render(styleMap(RenderMap(m.grid, m.result, w, h)))
	} else {
		body = lipgloss.JoinVertical(lipgloss.Left,
			sectionHeaderStyle.Render("DIAGNOSTICS"),
			renderDiagnostics(m.result),
		)
	}

	help := helpStyle.Render("Tab: Map/Diagnostics • N: New rotation • L: Services • Q: Quit")

	return lipgloss.JoinVertical(lipgloss.Left, header, summary, body, help)
}
