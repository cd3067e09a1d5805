package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"facematch/internal/domain"
)

// FacePort is the TUI-facing subset of the face service.
type FacePort interface {
	RegisterFace(imagePath, name, registrationNumber string) error
	IdentifyFace(imagePath string, topK int) ([]domain.SearchResult, error)
	DatabaseInfo() domain.CollectionInfo
}

const (
	fieldImage = iota
	fieldName
	fieldRegistration
	fieldCount
)

// Model is the Bubble Tea model for the operator console. With only an
// image path filled in, Enter identifies the face; with name and
// registration number filled in as well, Enter registers it.
type Model struct {
	service  FacePort
	inputs   [fieldCount]textinput.Model
	focus    int
	viewport viewport.Model
	results  []domain.SearchResult
	status   string
	cursor   int
	ready    bool
}

// New creates a new TUI model instance.
func New(service FacePort) Model {
	var inputs [fieldCount]textinput.Model
	labels := [fieldCount]string{"Image path", "Name (for registration)", "Registration number"}
	for i := range inputs {
		ti := textinput.New()
		ti.Prompt = "> "
		ti.Placeholder = labels[i]
		ti.CharLimit = 0
		inputs[i] = ti
	}
	inputs[fieldImage].Focus()
	vp := viewport.New(0, 0)
	m := Model{service: service, inputs: inputs, viewport: vp}
	m.status = m.infoLine()
	return m
}

// Init initializes the model (text input cursor blink).
func (m Model) Init() tea.Cmd { return textinput.Blink }

// Update handles key and window events and updates the view state.
func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.ready = true
		_, rh := resultBoxStyle.GetFrameSize()
		_, qh := formBoxStyle.GetFrameSize()
		reserved := 2 + qh + fieldCount
		vh := msg.Height - reserved
		if vh < 3 {
			vh = 3
		}
		m.viewport.Width = max(20, msg.Width)
		m.viewport.Height = max(3, vh-rh)
		m.viewport.SetContent(m.renderResults())
		return m, nil
	case tea.KeyMsg:
		if msg.Type == tea.KeyCtrlC || msg.Type == tea.KeyCtrlD {
			return m, tea.Quit
		}
		switch msg.String() {
		case "tab":
			m.inputs[m.focus].Blur()
			m.focus = (m.focus + 1) % fieldCount
			m.inputs[m.focus].Focus()
			return m, nil
		case "shift+tab":
			m.inputs[m.focus].Blur()
			m.focus = (m.focus - 1 + fieldCount) % fieldCount
			m.inputs[m.focus].Focus()
			return m, nil
		case "enter":
			return m.submit(), nil
		case "down":
			if len(m.results) > 0 {
				m.cursor = (m.cursor + 1) % len(m.results)
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}
		case "up":
			if len(m.results) > 0 {
				m.cursor = (m.cursor - 1 + len(m.results)) % len(m.results)
				m.viewport.SetContent(m.renderResults())
				return m, nil
			}
		}
	}
	var cmd tea.Cmd
	m.inputs[m.focus], cmd = m.inputs[m.focus].Update(msg)
	return m, cmd
}

func (m Model) submit() Model {
	image := strings.TrimSpace(m.inputs[fieldImage].Value())
	name := strings.TrimSpace(m.inputs[fieldName].Value())
	reg := strings.TrimSpace(m.inputs[fieldRegistration].Value())
	if image == "" {
		m.status = "Enter an image path first."
		return m
	}
	if name != "" || reg != "" {
		if err := m.service.RegisterFace(image, name, reg); err != nil {
			m.status = "Registration failed: " + err.Error()
		} else {
			m.status = fmt.Sprintf("Registered %s (%s).  %s", name, strings.ToUpper(reg), m.infoLine())
			m.inputs[fieldName].SetValue("")
			m.inputs[fieldRegistration].SetValue("")
		}
		return m
	}
	res, err := m.service.IdentifyFace(image, 10)
	if err != nil {
		m.status = "Identification failed: " + err.Error()
		m.results = nil
	} else if len(res) == 0 {
		m.status = "No match above threshold."
		m.results = nil
	} else {
		m.status = fmt.Sprintf("%d candidate(s).", len(res))
		m.results = res
		m.cursor = 0
	}
	m.viewport.SetContent(m.renderResults())
	return m
}

// View renders the console layout.
func (m Model) View() string {
	if !m.ready {
		return "Loading..."
	}
	header := lipgloss.NewStyle().Bold(true).Render("Face Match Console")
	results := resultBoxStyle.Render(m.viewport.View())
	var form strings.Builder
	for i := range m.inputs {
		form.WriteString(m.inputs[i].View())
		if i < fieldCount-1 {
			form.WriteString("\n")
		}
	}
	status := lipgloss.NewStyle().Foreground(lipgloss.Color("10")).Render(m.status)
	return header + "\n" + results + "\n" + formBoxStyle.Render(form.String()) + "\n" + status
}

func (m Model) renderResults() string {
	if len(m.results) == 0 {
		return "No results yet. Fill in only the image path and press Enter to identify,\nor all three fields to register."
	}
	var b strings.Builder
	for i, r := range m.results {
		line := fmt.Sprintf("%d. %s (%s)  similarity=%.4f  distance=%.4f",
			i+1, r.Name, r.RegistrationNumber, r.SimilarityScore, r.Distance)
		if i == m.cursor {
			line = highlightStyle.Render(line)
		}
		b.WriteString(line)
		b.WriteString("\n")
	}
	return b.String()
}

func (m Model) infoLine() string {
	info := m.service.DatabaseInfo()
	records := "N/A"
	if info.TotalRecords >= 0 {
		records = fmt.Sprintf("%d", info.TotalRecords)
	}
	return fmt.Sprintf("Collection %s (%s, dim %d, %s records)",
		info.CollectionName, info.Mode, info.Dimension, records)
}

var (
	resultBoxStyle = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	formBoxStyle   = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).Padding(0, 1)
	highlightStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("11")).Bold(true)
)

func max(a, b int) int {
	if a > b {
		return a
	}
	return b
}
