package tui

import (
	"fmt"
	"io"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"tabletodo/internal/hooks"
	"tabletodo/internal/host"
	"tabletodo/internal/todos"
	"tabletodo/internal/ui"
)

// rosterEntry adapts a user and their todo counts to bubbles/list.Item.
type rosterEntry struct {
	user  *host.User
	done  int
	total int
}

func (e rosterEntry) name() string {
	if e.user.Name != "" {
		return e.user.Name
	}
	return e.user.ID
}

func (e rosterEntry) Title() string       { return e.name() }
func (e rosterEntry) Description() string { return "" }
func (e rosterEntry) FilterValue() string { return e.name() }

type rosterDelegate struct{}

func (d rosterDelegate) Height() int                               { return 1 }
func (d rosterDelegate) Spacing() int                              { return 0 }
func (d rosterDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d rosterDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	e, _ := item.(rosterEntry)
	counts := ui.MutedStyle.Render(fmt.Sprintf("%d/%d done", e.done, e.total))
	line := fmt.Sprintf("%s  %s", e.name(), counts)
	prefix := "  "
	if index == m.Index() {
		prefix = ui.SelectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

// RosterModel lists the world's users. When the todos entry is enabled (a
// RenderRoster hook handler decides that), selecting a user hands them back
// to the caller so their form can be opened.
type RosterModel struct {
	store *todos.Store
	world *host.World
	log   *log.Logger

	list        list.Model
	todosButton bool
	chosen      *host.User
	width       int
	height      int
}

// NewRoster builds the roster and emits RenderRoster so registered handlers
// can decorate it before it is shown.
func NewRoster(store *todos.Store, world *host.World, bus *hooks.Bus, logger *log.Logger) *RosterModel {
	l := list.New(nil, rosterDelegate{}, 0, 0)
	l.Title = ui.TitleStyle.Render("Roster")
	l.SetShowHelp(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ui.TitleStyle
	l.Styles.HelpStyle = ui.HelpStyle
	l.Styles.PaginationStyle = ui.HelpStyle
	l.SetStatusBarItemName("user", "users")

	m := &RosterModel{
		store: store,
		world: world,
		log:   logger,
		list:  l,
	}
	bus.Emit(hooks.RenderRoster, m)

	if m.todosButton {
		openBind := key.NewBinding(key.WithKeys("enter", "t"), key.WithHelp("enter/t", "open todos"))
		extra := func() []key.Binding { return []key.Binding{openBind} }
		m.list.AdditionalShortHelpKeys = extra
		m.list.AdditionalFullHelpKeys = extra
	}

	m.refresh()
	return m
}

// EnableTodosButton turns on the open-todos entry. Called by RenderRoster
// handlers, typically gated on the roster button setting.
func (m *RosterModel) EnableTodosButton() { m.todosButton = true }

// ChosenUser returns the user picked for opening, if any.
func (m *RosterModel) ChosenUser() *host.User { return m.chosen }

func (m *RosterModel) refresh() {
	users := m.world.Users()
	items := make([]list.Item, 0, len(users))
	for _, u := range users {
		byID := m.store.ForUser(u.ID)
		done := 0
		for _, t := range byID {
			if t.IsDone {
				done++
			}
		}
		items = append(items, rosterEntry{user: u, done: done, total: len(byID)})
	}
	m.list.SetItems(items)
}

func (m *RosterModel) Init() tea.Cmd { return nil }

func (m *RosterModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.list.SetSize(m.width-2, m.height-4)
		return m, nil

	case tea.KeyMsg:
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "enter", "t":
			if !m.todosButton {
				m.log.Debug("roster todos entry disabled")
				return m, nil
			}
			i := m.list.Index()
			items := m.list.Items()
			if i >= 0 && i < len(items) {
				if e, ok := items[i].(rosterEntry); ok {
					m.chosen = e.user
					return m, tea.Quit
				}
			}
			return m, nil
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *RosterModel) View() string {
	return ui.PanelString(m.list.View())
}

// RunRoster shows the roster and returns the user chosen for opening, or nil
// when the roster was simply closed.
func RunRoster(store *todos.Store, world *host.World, bus *hooks.Bus, logger *log.Logger) (*host.User, error) {
	m := NewRoster(store, world, bus, logger)
	p := tea.NewProgram(m, tea.WithAltScreen())
	final, err := p.Run()
	if err != nil {
		return nil, fmt.Errorf("roster: %w", err)
	}
	fm, ok := final.(*RosterModel)
	if !ok {
		return nil, nil
	}
	return fm.chosen, nil
}
