package tui

import (
	"context"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/progress"
	"github.com/charmbracelet/bubbles/spinner"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/tatianab/nutrition-heroes/internal/game"
	"github.com/tatianab/nutrition-heroes/internal/models"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

var (
	hitWords  = []string{"POW!", "CRUNCH!", "VITAMINS!", "TASTY!"}
	missWords = []string{"GROSS!", "WEAK!", "NOPE!", "MISS!"}

	phaseTitle = cases.Title(language.English)
)

type keyMap struct {
	Up       key.Binding
	Down     key.Binding
	Pick     key.Binding
	Throw    key.Binding
	Continue key.Binding
	Quit     key.Binding
}

func defaultKeys() keyMap {
	return keyMap{
		Up:       key.NewBinding(key.WithKeys("up", "k"), key.WithHelp("↑/k", "up")),
		Down:     key.NewBinding(key.WithKeys("down", "j"), key.WithHelp("↓/j", "down")),
		Pick:     key.NewBinding(key.WithKeys("1", "2", "3", "4", "5", "6", "7", "8", "9"), key.WithHelp("1-9", "throw food #")),
		Throw:    key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "throw")),
		Continue: key.NewBinding(key.WithKeys("enter", " "), key.WithHelp("enter", "continue")),
		Quit:     key.NewBinding(key.WithKeys("ctrl+c", "esc", "q"), key.WithHelp("q", "quit")),
	}
}

type model struct {
	machine *game.Machine
	state   models.GameState
	cursor  int
	exclaim string

	keys    keyMap
	help    help.Model
	spinner spinner.Model
	health  progress.Model

	width  int
	height int
}

var (
	titleStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFD700")).
			Background(lipgloss.Color("#2E7D32")).
			Bold(true).
			Padding(0, 2)

	cardStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#5F5F87")).
			Padding(0, 1)

	villainStyle = cardStyle.
			BorderForeground(lipgloss.Color("#8E24AA"))

	selectedStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#FFFFFF")).
			Background(lipgloss.Color("#1E88E5")).
			Bold(true)

	dimStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#888888")).
			Italic(true)

	hitStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#43A047")).
			Bold(true)

	missStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("#E53935")).
			Bold(true)
)

func NewModel(machine *game.Machine) model {
	s := spinner.New()
	s.Spinner = spinner.Dot

	return model{
		machine: machine,
		state:   machine.State(),
		keys:    defaultKeys(),
		help:    help.New(),
		spinner: s,
		health:  progress.New(progress.WithGradient("#E53935", "#43A047"), progress.WithoutPercentage()),
	}
}

func (m model) Init() tea.Cmd {
	return m.spinner.Tick
}

// stateMsg carries the snapshot produced by a finished effect.
type stateMsg struct {
	state models.GameState
}

func (m model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if key.Matches(msg, m.keys.Quit) {
			return m, tea.Quit
		}
		return m.handleKey(msg)

	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.health.Width = max(10, min(40, msg.Width/3))
		m.help.Width = msg.Width

	case stateMsg:
		m.setState(msg.state)

	case spinner.TickMsg:
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	return m, nil
}

func (m model) handleKey(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch m.state.Phase {
	case models.PhaseStart, models.PhaseGameOver:
		if key.Matches(msg, m.keys.Continue) {
			snap, load := m.machine.Start()
			m.setState(snap)
			return m, run(load)
		}

	case models.PhaseBattle:
		switch {
		case key.Matches(msg, m.keys.Up):
			if m.cursor > 0 {
				m.cursor--
			}
		case key.Matches(msg, m.keys.Down):
			if m.cursor < len(m.state.CurrentFoods)-1 {
				m.cursor++
			}
		case key.Matches(msg, m.keys.Pick):
			n, _ := strconv.Atoi(msg.String())
			if n >= 1 && n <= len(m.state.CurrentFoods) {
				m.cursor = n - 1
				return m.throw()
			}
		case key.Matches(msg, m.keys.Throw):
			return m.throw()
		}

	case models.PhaseResult:
		if key.Matches(msg, m.keys.Continue) {
			snap, load, err := m.machine.Advance()
			if err != nil {
				return m, nil
			}
			m.setState(snap)
			return m, run(load)
		}
	}

	return m, nil
}

func (m model) throw() (tea.Model, tea.Cmd) {
	if m.cursor >= len(m.state.CurrentFoods) {
		return m, nil
	}
	snap, eval, err := m.machine.SelectFood(m.state.CurrentFoods[m.cursor].ID)
	if err != nil {
		return m, nil
	}
	m.setState(snap)
	return m, run(eval)
}

func (m *model) setState(s models.GameState) {
	entering := s.Phase == models.PhaseResult && m.state.Phase != models.PhaseResult
	m.state = s

	if m.cursor >= len(s.CurrentFoods) {
		m.cursor = max(0, len(s.CurrentFoods)-1)
	}
	if entering && s.LastResult != nil {
		words := missWords
		if s.LastResult.Success {
			words = hitWords
		}
		m.exclaim = words[rand.IntN(len(words))]
	}
}

func run(eff game.Effect) tea.Cmd {
	if eff == nil {
		return nil
	}
	return func() tea.Msg {
		return stateMsg{state: eff(context.Background())}
	}
}

func (m model) View() string {
	var s string

	switch m.state.Phase {
	case models.PhaseStart:
		s = lipgloss.JoinVertical(lipgloss.Left,
			"🦸🥦 Join the Squad!",
			"",
			"Villains are attacking!",
			"Throw Power Foods to save the day!",
		)

	case models.PhaseLoadingScenario:
		s = fmt.Sprintf("%s Summoning villain for level %d...", m.spinner.View(), m.state.Level)

	case models.PhaseBattle, models.PhaseEvaluating, models.PhaseResult:
		s = m.renderBattle()

	case models.PhaseGameOver:
		s = lipgloss.JoinVertical(lipgloss.Left,
			missStyle.Render("💀 GAME OVER!"),
			"The bad habits won...",
			"",
			fmt.Sprintf("Final Score: %d", m.state.Score),
		)

	default:
		s = phaseLabel(m.state.Phase)
	}

	header := titleStyle.Render("DISCOVER THE POWER OF NUTRITION") + "  " + dimStyle.Render(phaseLabel(m.state.Phase))
	helpView := m.help.ShortHelpView(m.bindings())
	return "\n" + lipgloss.JoinVertical(lipgloss.Left, header, "", s, "", helpView) + "\n"
}

func (m model) renderBattle() string {
	hero := m.renderHero()
	villain := m.renderVillain()
	top := lipgloss.JoinHorizontal(lipgloss.Top, hero, "  ", villain)

	var bottom string
	switch m.state.Phase {
	case models.PhaseEvaluating:
		bottom = fmt.Sprintf("%s Incoming...", m.spinner.View())
	case models.PhaseResult:
		bottom = m.renderResult()
	default:
		bottom = m.renderFoods()
	}

	return lipgloss.JoinVertical(lipgloss.Left, top, "", bottom)
}

func (m model) renderHero() string {
	content := fmt.Sprintf("🦸 Nutrition Hero\nLevel %d   ⭐ %d\n\n❤ Energy %d%%\n%s",
		m.state.Level,
		m.state.Score,
		m.state.HeroHealth,
		m.health.ViewAs(float64(m.state.HeroHealth)/float64(models.StartingHealth)),
	)
	return cardStyle.Render(content)
}

func (m model) renderVillain() string {
	v := m.state.CurrentVillain
	if v == nil {
		return ""
	}
	content := fmt.Sprintf("%s  %s  HP %d\n%s\n\nWeakness: %s",
		v.Appearance,
		strings.ToUpper(v.Name),
		v.Health,
		dimStyle.Render(v.Description),
		v.WeaknessHint,
	)
	return villainStyle.Render(content)
}

func (m model) renderFoods() string {
	var b strings.Builder
	b.WriteString("Pick a Power Food to throw:\n\n")
	for i, f := range m.state.CurrentFoods {
		line := fmt.Sprintf("%d. %s %s (%s) %s", i+1, f.Emoji, f.Name, f.Type, dimStyle.Render(f.PowerDescription))
		if i == m.cursor {
			line = selectedStyle.Render("> " + line)
		} else {
			line = "  " + line
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (m model) renderResult() string {
	r := m.state.LastResult
	if r == nil {
		return ""
	}

	style := missStyle
	verdict := "Ouch! That food didn't work. -20 energy"
	if r.Success {
		style = hitStyle
		verdict = fmt.Sprintf("Super effective! +%d points", r.DamageDealt)
	}
	if m.state.HeroHealth <= 0 {
		verdict += " and you're out of energy!"
	}

	return lipgloss.JoinVertical(lipgloss.Left,
		style.Render(m.exclaim),
		r.Narrative,
		"",
		style.Render(verdict),
	)
}

func (m model) bindings() []key.Binding {
	switch m.state.Phase {
	case models.PhaseStart:
		return []key.Binding{withHelp(m.keys.Continue, "play"), m.keys.Quit}
	case models.PhaseGameOver:
		return []key.Binding{withHelp(m.keys.Continue, "try again"), m.keys.Quit}
	case models.PhaseBattle:
		return []key.Binding{m.keys.Up, m.keys.Down, m.keys.Throw, m.keys.Pick, m.keys.Quit}
	case models.PhaseResult:
		return []key.Binding{m.keys.Continue, m.keys.Quit}
	default:
		return []key.Binding{m.keys.Quit}
	}
}

func withHelp(b key.Binding, desc string) key.Binding {
	b.SetHelp(b.Help().Key, desc)
	return b
}

func phaseLabel(p models.GamePhase) string {
	return phaseTitle.String(strings.ReplaceAll(strings.ToLower(string(p)), "_", " "))
}

func Run(machine *game.Machine) error {
	p := tea.NewProgram(NewModel(machine), tea.WithAltScreen())
	_, err := p.Run()
	return err
}
