// Package cli routes subcommands and wires the store, world, and TUIs.
package cli

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/charmbracelet/log"

	"tabletodo/internal/hooks"
	"tabletodo/internal/host"
	"tabletodo/internal/model"
	"tabletodo/internal/settings"
	"tabletodo/internal/todos"
	"tabletodo/internal/tui"
	"tabletodo/internal/ui"
)

// Options carries the wired dependencies for command execution.
type Options struct {
	Settings *settings.Settings
	Log      *log.Logger
	Bus      *hooks.Bus
}

// confirmIn is swapped out by tests.
var confirmIn io.Reader = os.Stdin

// Run dispatches subcommands and returns an exit code (0 ok, 1 error, 2 usage).
func Run(args []string, opt Options) int {
	if len(args) == 0 {
		PrintHelp()
		return 2
	}
	cmd, a := args[0], args[1:]

	opt.Bus.Emit(hooks.Ready, opt.Settings)

	switch cmd {
	case "help", "-h", "--help":
		PrintHelp()
		return 0

	case "roster":
		return doRoster(opt)

	case "form":
		return doForm(a, opt)

	case "ls":
		return doLs(a, opt)

	case "add":
		if len(a) == 0 {
			ui.Fail("usage: tabletodo add [user] <label...>")
			return 2
		}
		return doAdd(a, opt)

	case "toggle":
		if len(a) != 1 {
			ui.Fail("usage: tabletodo toggle <todoID>")
			return 2
		}
		return doToggle(a[0], opt)

	case "rm":
		if len(a) != 1 {
			ui.Fail("usage: tabletodo rm <todoID>")
			return 2
		}
		return doRemove(a[0], opt)

	case "users":
		return doUsers(opt)

	case "useradd":
		if len(a) == 0 {
			ui.Fail("usage: tabletodo useradd <id> [name...]")
			return 2
		}
		return doUserAdd(a[0], strings.Join(a[1:], " "), opt)

	case "login":
		if len(a) != 1 {
			ui.Fail("usage: tabletodo login <user>")
			return 2
		}
		return doLogin(a[0], opt)

	case "logout":
		return doLogout()

	case "whoami":
		return doWhoAmI(opt)
	}

	ui.Fail("unknown subcommand: " + cmd)
	fmt.Fprintln(os.Stderr)
	PrintHelp()
	return 2
}

func PrintHelp() {
	fmt.Printf(`tabletodo - per-user todo lists for a tabletop world

Usage:
  tabletodo [flags] <subcommand> [args]

Subcommands:
  roster                 Interactive user roster; open a user's todos from it
  form [user]            Open the todo form for a user (default: current user)
  ls [user]              Print a user's todos
  add [user] <label...>  Create a todo (default owner: current user)
  toggle <todoID>        Flip a todo's completion flag
  rm <todoID>            Delete a todo (asks for confirmation, -yes skips)
  users                  List world users with todo counts
  useradd <id> [name...] Add a user to the world
  login <user>           Mark the current user for this client
  logout                 Clear the current user
  whoami                 Show the current user

Examples:
  tabletodo useradd u1 "Game Master"
  tabletodo login u1
  tabletodo add "Buy milk"
  tabletodo roster
`)
}

// openStore opens the world from settings and binds a store to it.
func openStore(opt Options) (*host.World, *todos.Store, error) {
	w, err := host.Open(opt.Settings.WorldFile)
	if err != nil {
		return nil, nil, err
	}
	return w, todos.NewStore(w, opt.Settings.Namespace, opt.Log), nil
}

// currentUserID resolves the active identity for commands that need an owner
// and got none.
func currentUserID() (string, error) {
	id, err := host.CurrentIdentity()
	if err != nil {
		return "", err
	}
	if id == nil {
		return "", errors.New("no user selected: run `tabletodo login <user>` or set TABLETODO_USER")
	}
	return id.UserID, nil
}

func confirm(prompt string) bool {
	fmt.Printf("%s [y/N]: ", prompt)
	line, err := bufio.NewReader(confirmIn).ReadString('\n')
	if err != nil && line == "" {
		return false
	}
	line = strings.ToLower(strings.TrimSpace(line))
	return line == "y" || line == "yes"
}

func doRoster(opt Options) int {
	world, store, err := openStore(opt)
	if err != nil {
		ui.Fail("open world: " + err.Error())
		return 1
	}
	// Selecting a user opens their form, then returns to the roster.
	for {
		user, err := tui.RunRoster(store, world, opt.Bus, opt.Log)
		if err != nil {
			ui.Fail(err.Error())
			return 1
		}
		if user == nil {
			return 0
		}
		if err := tui.RunForm(store, user, opt.Log); err != nil {
			ui.Fail(err.Error())
			return 1
		}
	}
}

func doForm(args []string, opt Options) int {
	world, store, err := openStore(opt)
	if err != nil {
		ui.Fail("open world: " + err.Error())
		return 1
	}
	var userID string
	if len(args) > 0 {
		userID = args[0]
	} else {
		userID, err = currentUserID()
		if err != nil {
			ui.Fail(err.Error())
			return 2
		}
	}
	user, ok := world.User(userID)
	if !ok {
		ui.Fail("unknown user: " + userID)
		return 2
	}
	if err := tui.RunForm(store, user, opt.Log); err != nil {
		ui.Fail(err.Error())
		return 1
	}
	return 0
}

func doLs(args []string, opt Options) int {
	world, store, err := openStore(opt)
	if err != nil {
		ui.Fail("open world: " + err.Error())
		return 1
	}
	var userID string
	if len(args) > 0 {
		userID = args[0]
	} else {
		userID, err = currentUserID()
		if err != nil {
			ui.Fail(err.Error())
			return 2
		}
	}
	user, ok := world.User(userID)
	if !ok {
		ui.Fail("unknown user: " + userID)
		return 2
	}

	byID := store.ForUser(userID)
	name := user.Name
	if name == "" {
		name = user.ID
	}
	lines := []string{ui.TitleStyle.Render("Todos: " + name)}
	done := 0
	for _, t := range sortedToDos(byID) {
		label := t.Label
		if t.IsDone {
			done++
			label = ui.DoneStyle.Render(label)
		}
		lines = append(lines, fmt.Sprintf("%s %s %s", ui.Checkbox(t.IsDone), label, ui.MutedStyle.Render(t.ID)))
	}
	if len(byID) == 0 {
		lines = append(lines, ui.MutedStyle.Render("(no todos)"))
	} else {
		lines = append(lines, ui.ProgressBar(done, len(byID), 28))
	}
	ui.Panel(lines)
	return 0
}

func doAdd(args []string, opt Options) int {
	world, store, err := openStore(opt)
	if err != nil {
		ui.Fail("open world: " + err.Error())
		return 1
	}
	// An explicit owner may lead the label words.
	var userID string
	if _, ok := world.User(args[0]); ok && len(args) > 1 {
		userID, args = args[0], args[1:]
	} else {
		userID, err = currentUserID()
		if err != nil {
			ui.Fail(err.Error())
			return 2
		}
	}
	label := strings.TrimSpace(strings.Join(args, " "))
	if label == "" {
		ui.Fail("add: empty label")
		return 2
	}
	t, err := store.Create(userID, model.Partial{Label: model.String(label)})
	if err != nil {
		ui.Fail("add: " + err.Error())
		return 1
	}
	ui.Ok("added " + t.ID)
	return 0
}

func doToggle(todoID string, opt Options) int {
	_, store, err := openStore(opt)
	if err != nil {
		ui.Fail("open world: " + err.Error())
		return 1
	}
	t, ok := store.All()[todoID]
	if !ok {
		ui.Fail("toggle: no todo with id " + todoID)
		return 1
	}
	if err := store.Update(todoID, model.Partial{IsDone: model.Bool(!t.IsDone)}); err != nil {
		ui.Fail("toggle: " + err.Error())
		return 1
	}
	ui.Ok("toggled")
	return 0
}

func doRemove(todoID string, opt Options) int {
	_, store, err := openStore(opt)
	if err != nil {
		ui.Fail("open world: " + err.Error())
		return 1
	}
	if !opt.Settings.Yes {
		if !confirm("delete todo " + todoID + "?") {
			fmt.Println(ui.MutedStyle.Render("cancelled"))
			return 0
		}
	}
	if err := store.Delete(todoID); err != nil {
		if errors.Is(err, todos.ErrNotFound) {
			ui.Fail("rm: no todo with id " + todoID)
		} else {
			ui.Fail("rm: " + err.Error())
		}
		return 1
	}
	ui.Ok("removed")
	return 0
}

func doUsers(opt Options) int {
	world, store, err := openStore(opt)
	if err != nil {
		ui.Fail("open world: " + err.Error())
		return 1
	}
	users := world.Users()
	if len(users) == 0 {
		fmt.Println(ui.MutedStyle.Render("no users; run `tabletodo useradd <id> [name...]`"))
		return 0
	}
	lines := []string{ui.TitleStyle.Render("Users")}
	for _, u := range users {
		byID := store.ForUser(u.ID)
		done := 0
		for _, t := range byID {
			if t.IsDone {
				done++
			}
		}
		name := u.Name
		if name == "" {
			name = u.ID
		}
		lines = append(lines, fmt.Sprintf("%s  %s", name,
			ui.MutedStyle.Render(fmt.Sprintf("%s  %d/%d done", u.ID, done, len(byID)))))
	}
	ui.Panel(lines)
	return 0
}

func doUserAdd(id, name string, opt Options) int {
	world, _, err := openStore(opt)
	if err != nil {
		ui.Fail("open world: " + err.Error())
		return 1
	}
	if err := world.AddUser(id, name); err != nil {
		ui.Fail("useradd: " + err.Error())
		return 1
	}
	ui.Ok("added user " + id)
	return 0
}

func doLogin(userID string, opt Options) int {
	world, _, err := openStore(opt)
	if err != nil {
		ui.Fail("open world: " + err.Error())
		return 1
	}
	if _, ok := world.User(userID); !ok {
		ui.Fail("login: unknown user: " + userID)
		return 2
	}
	if err := host.SetIdentity(userID); err != nil {
		ui.Fail("login: " + err.Error())
		return 1
	}
	ui.Ok("logged in as " + userID)
	return 0
}

func doLogout() int {
	id, _ := host.CurrentIdentity()
	if id != nil && id.Source == "env" {
		ui.Ok("user is provided by TABLETODO_USER env var (nothing to clear)")
		return 0
	}
	if err := host.ClearIdentity(); err != nil {
		ui.Fail("logout: " + err.Error())
		return 1
	}
	ui.Ok("logged out")
	return 0
}

func doWhoAmI(opt Options) int {
	id, err := host.CurrentIdentity()
	if err != nil {
		ui.Fail("whoami: " + err.Error())
		return 1
	}
	if id == nil {
		fmt.Println(ui.MutedStyle.Render("no user selected"))
		fmt.Println("Run: tabletodo login <user>")
		return 0
	}
	fmt.Printf("user: %s\n", id.UserID)
	fmt.Printf("source: %s\n", id.Source)
	if world, _, err := openStore(opt); err == nil {
		if u, ok := world.User(id.UserID); ok && u.Name != "" {
			fmt.Printf("name: %s\n", u.Name)
		}
	}
	return 0
}

// sortedToDos orders a mapping by label then id for stable output.
func sortedToDos(byID map[string]model.ToDo) []model.ToDo {
	out := make([]model.ToDo, 0, len(byID))
	for _, t := range byID {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Label != out[j].Label {
			return out[i].Label < out[j].Label
		}
		return out[i].ID < out[j].ID
	})
	return out
}
