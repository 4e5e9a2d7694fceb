package ui

import (
	"context"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"
	"github.com/desertthunder/mixtape/internal/controller"
	"github.com/desertthunder/mixtape/internal/formatter"
	"github.com/desertthunder/mixtape/internal/services"
	"github.com/desertthunder/mixtape/internal/shared"
)

var _ controller.Renderer = (*Model)(nil)

// Model represents the TUI application state.
type Model struct {
	ctx         context.Context
	controller  *controller.Controller
	recommender services.Recommender
	suggestions []shared.Suggestion
	logger      *log.Logger

	screen  controller.Screen
	notice  string
	width   int
	height  int
	input   textinput.Model
	spinner spinner.Model
	results list.Model
	help    help.Model
	keys    keyMap
}

// Opts configures a [Model]. Only Recommender is required.
type Opts struct {
	Recommender services.Recommender
	Suggestions []shared.Suggestion
	Logger      *log.Logger
}

// NewModel creates a new TUI model on the welcome screen.
func NewModel(ctx context.Context, opts Opts) *Model {
	if opts.Logger == nil {
		opts.Logger = shared.NewLogger(io.Discard)
	}

	ti := textinput.New()
	ti.Placeholder = "Describe a mood, an activity, a moment..."
	ti.Prompt = "♪ "
	ti.CharLimit = 200
	ti.Width = 50
	ti.Focus()

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = styles.heading

	results := list.New(nil, list.NewDefaultDelegate(), 76, 14)
	results.SetShowStatusBar(false)
	results.SetFilteringEnabled(false)
	results.SetShowHelp(false)
	results.DisableQuitKeybindings()

	m := &Model{
		ctx:         ctx,
		recommender: opts.Recommender,
		suggestions: opts.Suggestions,
		logger:      opts.Logger,
		input:       ti,
		spinner:     sp,
		results:     results,
		help:        help.New(),
		keys:        newKeyMap(),
	}
	m.controller = controller.New(controller.Opts{
		Recommender: opts.Recommender,
		Renderer:    m,
		Logger:      opts.Logger,
	})
	m.screen = m.controller.Snapshot()
	return m
}

// Render implements [controller.Renderer]. It is only ever called from inside Update.
func (m *Model) Render(s controller.Screen) {
	m.screen = s
	if s.State == controller.Results {
		m.results.SetItems(songItems(s.View))
		m.results.Title = formatter.Sanitize(s.View.Title)
		m.results.ResetSelected()
	}
}

// Screen returns the most recently rendered screen.
func (m *Model) Screen() controller.Screen {
	return m.screen
}

// Init starts the cursor blinking.
func (m *Model) Init() tea.Cmd {
	return textinput.Blink
}

// Update handles incoming messages and updates the model state.
func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.input.Width = max(20, msg.Width-8)
		m.results.SetSize(max(20, msg.Width-4), max(5, msg.Height-10))
		m.help.Width = msg.Width
		return m, nil

	case tea.KeyMsg:
		return m.handleKeys(msg)

	case recommendationMsg:
		if !m.controller.Resolve(msg.ticket, msg.rec, msg.err) {
			m.logger.Debug("dropped response for superseded prompt", "prompt", msg.ticket.Prompt)
		}
		return m, nil

	case spinner.TickMsg:
		if m.screen.State != controller.Loading {
			return m, nil
		}
		var cmd tea.Cmd
		m.spinner, cmd = m.spinner.Update(msg)
		return m, cmd
	}

	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

func (m *Model) handleKeys(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	if msg.String() == "ctrl+c" {
		return m, tea.Quit
	}

	if key.Matches(msg, m.keys.reset) {
		m.reset()
		return m, nil
	}

	if m.screen.State == controller.Loading {
		return m, nil
	}

	idle := m.input.Value() == ""
	switch {
	case key.Matches(msg, m.keys.submit):
		return m, m.submit(m.input.Value())
	case idle && key.Matches(msg, m.keys.quit):
		return m, tea.Quit
	case idle && key.Matches(msg, m.keys.suggest):
		if s, ok := m.suggestion(msg.String()); ok {
			m.input.SetValue(s.Prompt)
			return m, m.submit(s.Prompt)
		}
		return m, nil
	case m.screen.State == controller.Results && (key.Matches(msg, m.keys.up) || key.Matches(msg, m.keys.down)):
		var cmd tea.Cmd
		m.results, cmd = m.results.Update(msg)
		return m, cmd
	}

	m.notice = ""
	var cmd tea.Cmd
	m.input, cmd = m.input.Update(msg)
	return m, cmd
}

// submit moves the controller to loading and returns the command performing the request.
func (m *Model) submit(text string) tea.Cmd {
	ticket, err := m.controller.Begin(text)
	if err != nil {
		if errors.Is(err, shared.ErrEmptyPrompt) {
			m.notice = "Please enter a prompt"
		} else {
			m.notice = err.Error()
		}
		return nil
	}
	m.notice = ""
	return tea.Batch(m.spinner.Tick, m.fetch(ticket))
}

func (m *Model) fetch(ticket controller.Ticket) tea.Cmd {
	return func() tea.Msg {
		rec, err := m.recommender.Recommend(m.ctx, ticket.Prompt)
		return recommendationMsg{ticket: ticket, rec: rec, err: err}
	}
}

func (m *Model) reset() {
	m.controller.Reset()
	m.input.Reset()
	m.input.Focus()
	m.notice = ""
}

// suggestion resolves a 1-based digit key to a configured suggestion.
func (m *Model) suggestion(k string) (shared.Suggestion, bool) {
	if len(k) != 1 || k[0] < '1' || k[0] > '9' {
		return shared.Suggestion{}, false
	}
	i := int(k[0] - '1')
	if i >= len(m.suggestions) {
		return shared.Suggestion{}, false
	}
	return m.suggestions[i], true
}

// View renders the UI based on the current screen state.
func (m *Model) View() string {
	var body string
	switch m.screen.State {
	case controller.Welcome:
		body = m.renderWelcome()
	case controller.Loading:
		body = m.renderLoading()
	case controller.Results:
		body = m.renderResults()
	case controller.Error:
		body = m.renderError()
	}

	title := styles.title.Render("mixtape")
	return fmt.Sprintf("%s\n%s\n\n%s", title, body, m.help.ShortHelpView(m.helpKeys()))
}

func (m *Model) helpKeys() []key.Binding {
	switch m.screen.State {
	case controller.Welcome:
		return []key.Binding{m.keys.submit, m.keys.suggest, m.keys.quit}
	case controller.Loading:
		return []key.Binding{m.keys.reset}
	case controller.Results:
		return []key.Binding{m.keys.up, m.keys.down, m.keys.submit, m.keys.reset, m.keys.quit}
	default:
		return []key.Binding{m.keys.submit, m.keys.reset, m.keys.quit}
	}
}

func (m *Model) renderWelcome() string {
	var b strings.Builder
	b.WriteString(styles.heading.Render("What do you want to listen to?") + "\n\n")
	b.WriteString(m.inputView() + "\n")

	if len(m.suggestions) > 0 {
		b.WriteString("\n" + styles.meta.Render("Try one of these:") + "\n")
		for i, s := range m.suggestions {
			if i >= 9 {
				break
			}
			fmt.Fprintf(&b, "  %s %s\n", styles.chipKey.Render(fmt.Sprintf("[%d]", i+1)), formatter.Sanitize(s.Label))
		}
	}
	return strings.TrimRight(b.String(), "\n")
}

func (m *Model) renderLoading() string {
	return fmt.Sprintf("%s Finding songs for %q...", m.spinner.View(), formatter.Sanitize(m.screen.Prompt))
}

func (m *Model) renderResults() string {
	view := m.screen.View
	header := styles.meta.Render(formatter.Sanitize(view.Meta))

	var body string
	if len(view.Rows) == 0 {
		body = styles.heading.Render(formatter.Sanitize(view.Title)) + "\n\nNo songs matched."
	} else {
		body = m.results.View()
	}
	return fmt.Sprintf("%s\n%s\n\n%s", header, body, m.inputView())
}

func (m *Model) renderError() string {
	msg := styles.err.Render("✗ " + formatter.Sanitize(m.screen.Message))
	return fmt.Sprintf("%s\n\n%s", msg, m.inputView())
}

func (m *Model) inputView() string {
	if m.notice == "" {
		return m.input.View()
	}
	return m.input.View() + "\n" + styles.notice.Render(m.notice)
}
