package tui

import (
	"fmt"
	"io"
	"sort"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/log"

	"tabletodo/internal/host"
	"tabletodo/internal/model"
	"tabletodo/internal/todos"
	"tabletodo/internal/ui"
)

// todoRow adapts one record to bubbles/list.Item.
type todoRow struct {
	todo model.ToDo
}

func (r todoRow) Title() string {
	return fmt.Sprintf("%s %s", ui.Checkbox(r.todo.IsDone), r.todo.Label)
}

func (r todoRow) Description() string { return "" }
func (r todoRow) FilterValue() string { return r.todo.Label }

// rowDelegate renders rows on a single line.
type rowDelegate struct{}

func (d rowDelegate) Height() int                               { return 1 }
func (d rowDelegate) Spacing() int                              { return 0 }
func (d rowDelegate) Update(msg tea.Msg, m *list.Model) tea.Cmd { return nil }
func (d rowDelegate) Render(w io.Writer, m list.Model, index int, item list.Item) {
	r, _ := item.(todoRow)
	box := ui.MutedStyle.Render(ui.BoxUnchecked)
	label := r.todo.Label
	if r.todo.IsDone {
		box = ui.SuccessStyle.Render(ui.BoxChecked)
		label = ui.DoneStyle.Render(label)
	}
	line := fmt.Sprintf("%s %s %s", box, label, ui.MutedStyle.Render(r.todo.ID))
	prefix := "  "
	if index == m.Index() {
		prefix = ui.SelectedStyle.Render("> ")
	}
	fmt.Fprintln(w, prefix+line)
}

// wroteMsg signals completion of a store write issued by an action handler.
// Refreshing on this message is the only path back to a re-render, so the
// view always observes the just-written state.
type wroteMsg struct {
	err error
}

// FormModel binds one user's todo mapping to an interactive list. All user
// actions route through the dispatch table and persist through the store.
type FormModel struct {
	store *todos.Store
	user  *host.User
	log   *log.Logger

	list list.Model
	ti   textinput.Model

	// inline label edit
	editing bool
	editID  string
	editErr string

	// delete confirmation
	confirming bool
	confirmID  string

	lastErr error
	width   int
	height  int
}

// NewForm builds a form bound to user. The user id stays fixed for the
// lifetime of the form.
func NewForm(store *todos.Store, user *host.User, logger *log.Logger) *FormModel {
	l := list.New(nil, rowDelegate{}, 0, 0)
	l.SetShowHelp(true)
	l.SetShowPagination(true)
	l.SetShowStatusBar(true)
	l.SetFilteringEnabled(true)
	l.Styles.Title = ui.TitleStyle
	l.Styles.HelpStyle = ui.HelpStyle
	l.Styles.PaginationStyle = ui.HelpStyle
	l.FilterInput.Prompt = "/ "
	l.SetStatusBarItemName("todo", "todos")

	addBind := key.NewBinding(key.WithKeys("a"), key.WithHelp("a", "add"))
	editBind := key.NewBinding(key.WithKeys("e"), key.WithHelp("e", "edit"))
	doneBind := key.NewBinding(key.WithKeys(" "), key.WithHelp("space", "toggle"))
	delBind := key.NewBinding(key.WithKeys("d"), key.WithHelp("d", "delete"))
	extra := func() []key.Binding { return []key.Binding{addBind, editBind, doneBind, delBind} }
	l.AdditionalShortHelpKeys = extra
	l.AdditionalFullHelpKeys = extra

	m := &FormModel{
		store: store,
		user:  user,
		log:   logger,
		list:  l,
	}
	m.ti = textinput.New()
	m.ti.Prompt = "> "
	m.ti.CharLimit = 200
	m.refresh()
	return m
}

// refresh re-reads the bound user's mapping and rebuilds the list.
func (m *FormModel) refresh() {
	byID := m.store.ForUser(m.user.ID)
	rows := make([]todoRow, 0, len(byID))
	for _, t := range byID {
		rows = append(rows, todoRow{todo: t})
	}
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].todo.Label != rows[j].todo.Label {
			return rows[i].todo.Label < rows[j].todo.Label
		}
		return rows[i].todo.ID < rows[j].todo.ID
	})
	items := make([]list.Item, len(rows))
	for i, r := range rows {
		items[i] = r
	}
	m.list.SetItems(items)

	done := 0
	for _, r := range rows {
		if r.todo.IsDone {
			done++
		}
	}
	name := m.user.Name
	if name == "" {
		name = m.user.ID
	}
	m.list.Title = fmt.Sprintf("%s   %s %d  %s %d",
		ui.TitleStyle.Render("Todos: "+name),
		ui.SuccessStyle.Render("✔"), done,
		ui.PendingStyle.Render("•"), len(rows)-done,
	)
}

// actionFunc handles one named form action.
type actionFunc func(*FormModel) (tea.Model, tea.Cmd)

// formActions maps action names to handlers.
var formActions = map[string]actionFunc{
	"create": (*FormModel).actionCreate,
	"delete": (*FormModel).actionDelete,
	"toggle": (*FormModel).actionToggle,
	"edit":   (*FormModel).actionEdit,
}

// Dispatch routes an action by name. An unknown name is logged at debug
// level and changes nothing.
func (m *FormModel) Dispatch(name string) (tea.Model, tea.Cmd) {
	fn, ok := formActions[name]
	if !ok {
		m.log.Debug("invalid form action", "action", name, "user", m.user.ID)
		return m, nil
	}
	return fn(m)
}

func (m *FormModel) selected() (todoRow, bool) {
	i := m.list.Index()
	items := m.list.Items()
	if i < 0 || i >= len(items) {
		return todoRow{}, false
	}
	r, ok := items[i].(todoRow)
	return r, ok
}

func (m *FormModel) actionCreate() (tea.Model, tea.Cmd) {
	store, userID := m.store, m.user.ID
	return m, func() tea.Msg {
		_, err := store.Create(userID, model.Partial{})
		return wroteMsg{err: err}
	}
}

func (m *FormModel) actionDelete() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.confirming = true
	m.confirmID = r.todo.ID
	return m, nil
}

func (m *FormModel) actionToggle() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok {
		return m, nil
	}
	fields := map[string]string{r.todo.ID + ".isDone": strconv.FormatBool(!r.todo.IsDone)}
	return m, m.submitCmd(fields)
}

func (m *FormModel) actionEdit() (tea.Model, tea.Cmd) {
	r, ok := m.selected()
	if !ok {
		return m, nil
	}
	m.editing = true
	m.editID = r.todo.ID
	m.ti.SetValue(r.todo.Label)
	m.ti.CursorEnd()
	m.ti.Placeholder = "Todo label..."
	m.ti.Focus()
	return m, nil
}

// submitCmd persists one set of flat field edits as a single bulk write.
func (m *FormModel) submitCmd(fields map[string]string) tea.Cmd {
	store, userID := m.store, m.user.ID
	return func() tea.Msg {
		updates, err := ExpandFields(fields)
		if err != nil {
			return wroteMsg{err: err}
		}
		return wroteMsg{err: store.UpdateUserToDos(userID, updates)}
	}
}

func (m *FormModel) deleteCmd(id string) tea.Cmd {
	store := m.store
	return func() tea.Msg {
		return wroteMsg{err: store.Delete(id)}
	}
}

func (m *FormModel) Init() tea.Cmd { return nil }

func (m *FormModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case wroteMsg:
		m.lastErr = msg.err
		if msg.err != nil {
			m.log.Error("todo write failed", "user", m.user.ID, "err", msg.err)
		}
		m.refresh()
		return m, nil

	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
		return m, nil

	case tea.KeyMsg:
		if m.confirming {
			return m.updateConfirm(msg)
		}
		if m.editing {
			return m.updateEdit(msg)
		}
		switch msg.String() {
		case "q", "esc":
			return m, tea.Quit
		case "a":
			return m.Dispatch("create")
		case "d":
			return m.Dispatch("delete")
		case "e":
			return m.Dispatch("edit")
		case " ":
			return m.Dispatch("toggle")
		}
	}

	var cmd tea.Cmd
	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m *FormModel) updateConfirm(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y", "enter":
		id := m.confirmID
		m.confirming = false
		m.confirmID = ""
		return m, m.deleteCmd(id)
	case "n", "N", "esc":
		m.confirming = false
		m.confirmID = ""
		return m, nil
	}
	return m, nil
}

func (m *FormModel) updateEdit(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "enter":
		label := strings.TrimSpace(m.ti.Value())
		if label == "" {
			m.editErr = "Label cannot be empty"
			return m, nil
		}
		id := m.editID
		m.editing = false
		m.editErr = ""
		m.ti.SetValue("")
		m.ti.Blur()
		return m, m.submitCmd(map[string]string{id + ".label": label})
	case "esc":
		m.editing = false
		m.editErr = ""
		m.ti.SetValue("")
		m.ti.Blur()
		return m, nil
	}
	var cmd tea.Cmd
	m.ti, cmd = m.ti.Update(msg)
	return m, cmd
}

func (m *FormModel) resize() {
	w, h := m.width, m.height
	if w == 0 {
		w, h = 80, 24
	}
	listHeight := h - 4
	if m.editing || m.confirming {
		listHeight = h - 6
	}
	m.list.SetSize(w-2, listHeight)
}

func (m *FormModel) View() string {
	m.resize()
	content := m.list.View()
	if m.confirming {
		prompt := fmt.Sprintf("Delete this todo? (y/n)  %s", ui.MutedStyle.Render(m.confirmID))
		content += "\n" + ui.PanelString(prompt)
	}
	if m.editing {
		title := "Edit label"
		if m.editErr != "" {
			title += "  " + ui.ErrorStyle.Render(m.editErr)
		}
		content += "\n" + ui.PanelString(title+"\n"+m.ti.View())
	}
	if m.lastErr != nil {
		content += "\n" + ui.ErrorStyle.Render(m.lastErr.Error())
	}
	return ui.PanelString(content)
}

// RunForm opens the form for one user and blocks until it is closed.
func RunForm(store *todos.Store, user *host.User, logger *log.Logger) error {
	m := NewForm(store, user, logger)
	p := tea.NewProgram(m, tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("form: %w", err)
	}
	return nil
}
