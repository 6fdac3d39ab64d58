package tui

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/vbonduro/jdginv/internal/auth"
	"github.com/vbonduro/jdginv/internal/domain"
	"github.com/vbonduro/jdginv/internal/inventory"
	"github.com/vbonduro/jdginv/internal/service"
	"github.com/vbonduro/jdginv/internal/session"
)

// authenticator is the subset of auth.Provider that App requires.
type authenticator interface {
	SignIn(ctx context.Context, identifier, secret string) (*domain.User, error)
}

type focus int

const (
	focusName focus = iota
	focusDate
	focusPrice
	focusSearch
	focusList
	focusCount
)

const (
	focusUsername focus = iota
	focusPassword
)

// App is the terminal front end. UI state lives in a session.State and only
// changes through session.Reduce.
type App struct {
	ctx   context.Context
	inv   *service.InventoryService
	auth  authenticator
	state session.State

	changes  <-chan service.Snapshot
	snap     service.Snapshot
	focus    focus
	cursor   int
	username string
	password string
	busy     bool
	width    int
}

func New(ctx context.Context, inv *service.InventoryService, authn authenticator) *App {
	return &App{
		ctx:     ctx,
		inv:     inv,
		auth:    authn,
		state:   session.Initial(),
		changes: inv.Subscribe(ctx),
	}
}

type signedInMsg struct{ user *domain.User }

type signInErrMsg struct{ err error }

type snapshotMsg service.Snapshot

type savedMsg struct{ err error }

type confirmedMsg struct {
	pending inventory.Pending
	err     error
}

func (a *App) Init() tea.Cmd {
	return a.waitForChange()
}

// waitForChange blocks until the inventory changes.
func (a *App) waitForChange() tea.Cmd {
	ch := a.changes
	return func() tea.Msg {
		snap, ok := <-ch
		if !ok {
			return nil
		}
		return snapshotMsg(snap)
	}
}

func (a *App) dispatch(actions ...session.Action) {
	for _, act := range actions {
		a.state = session.Reduce(a.state, act)
	}
}

func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = m.Width
		return a, nil
	case snapshotMsg:
		a.snap = service.Snapshot(m)
		a.clampCursor()
		return a, a.waitForChange()
	case signedInMsg:
		a.busy = false
		a.password = ""
		a.focus = focusName
		a.dispatch(session.LoggedIn{User: m.user.Username})
		return a, nil
	case signInErrMsg:
		a.busy = false
		a.password = ""
		text := "Invalid username or password."
		if !errors.Is(m.err, auth.ErrInvalidCredentials) {
			text = "Sign-in is unavailable right now. Please try again."
		}
		a.dispatch(session.ShowAlert{Message: text})
		return a, nil
	case savedMsg:
		a.busy = false
		if m.err != nil {
			a.dispatch(session.ShowAlert{Message: saveErrorMessage(m.err)})
		} else {
			a.dispatch(session.ItemSaved{})
			a.focus = focusName
		}
		return a, nil
	case confirmedMsg:
		a.busy = false
		a.dispatch(session.ConfirmResolved{})
		switch {
		case m.err != nil:
			a.dispatch(session.ShowAlert{Message: "Could not delete. Please try again."})
		case m.pending.Kind == inventory.PendingDeleteAll && a.state.Editing(),
			m.pending.Kind == inventory.PendingDelete && m.pending.ItemID == a.state.EditID:
			a.dispatch(session.CancelEdit{})
		}
		a.clampCursor()
		return a, nil
	case tea.KeyMsg:
		return a.handleKey(m)
	}
	return a, nil
}

func (a *App) handleKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	key := k.String()
	if key == "ctrl+c" {
		return a, tea.Quit
	}
	if a.busy {
		return a, nil
	}
	if a.state.Alert != "" {
		a.dispatch(session.DismissAlert{})
		if key == "esc" || key == "enter" {
			return a, nil
		}
	}
	if !a.state.Authenticated() {
		return a.handleLoginKey(k)
	}
	if a.state.Confirm != nil {
		return a.handleConfirmKey(key)
	}

	switch key {
	case "ctrl+l":
		a.dispatch(session.LoggedOut{})
		a.focus = focusUsername
		a.cursor = 0
		return a, nil
	case "f1", "f2", "f3", "f4":
		a.navigate(session.Pages[key[1]-'1'])
		return a, nil
	}

	if a.state.Page == session.PageInventory {
		return a.handleInventoryKey(k)
	}
	switch key {
	case "1", "2", "3", "4":
		a.navigate(session.Pages[key[0]-'1'])
	case "q":
		return a, tea.Quit
	}
	return a, nil
}

func (a *App) navigate(p session.Page) {
	a.dispatch(session.Navigate{Page: p})
	if p == session.PageInventory {
		a.focus = focusName
	}
}

func (a *App) handleLoginKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "tab", "shift+tab", "up", "down":
		if a.focus == focusUsername {
			a.focus = focusPassword
		} else {
			a.focus = focusUsername
		}
	case "enter":
		if a.focus == focusUsername {
			a.focus = focusPassword
			return a, nil
		}
		a.busy = true
		return a, a.signInCmd(strings.TrimSpace(a.username), a.password)
	case "backspace":
		if a.focus == focusUsername {
			a.username = dropLast(a.username)
		} else {
			a.password = dropLast(a.password)
		}
	default:
		if k.Type == tea.KeyRunes || k.Type == tea.KeySpace {
			if a.focus == focusUsername {
				a.username += string(k.Runes)
			} else {
				a.password += string(k.Runes)
			}
		}
	}
	return a, nil
}

func (a *App) handleConfirmKey(key string) (tea.Model, tea.Cmd) {
	token := a.state.Confirm.Token
	switch key {
	case "y", "Y":
		a.busy = true
		return a, a.confirmCmd(token)
	case "n", "N", "esc":
		if err := a.inv.Cancel(token); err != nil {
			slog.Debug("cancel confirmation", "error", err)
		}
		a.dispatch(session.ConfirmResolved{})
	}
	return a, nil
}

func (a *App) handleInventoryKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch k.String() {
	case "tab":
		a.focus = (a.focus + 1) % focusCount
		return a, nil
	case "shift+tab":
		a.focus = (a.focus + focusCount - 1) % focusCount
		return a, nil
	case "esc":
		if a.state.Editing() {
			a.dispatch(session.CancelEdit{})
		}
		return a, nil
	case "ctrl+g":
		if a.inv.GenerateReport() == nil {
			a.dispatch(session.ShowAlert{Message: "Add some items before generating a report."})
		}
		return a, nil
	case "ctrl+x":
		p := a.inv.RequestDeleteAll()
		a.dispatch(session.ConfirmRequested{Token: p.Token, Prompt: p.Prompt})
		return a, nil
	}

	if a.focus == focusList {
		return a.handleListKey(k)
	}

	switch k.String() {
	case "enter":
		if a.focus == focusSearch {
			a.focus = focusList
			return a, nil
		}
		a.busy = true
		return a, a.saveCmd(a.state.EditID, a.state.Form)
	case "backspace":
		a.editField(dropLast)
	default:
		if k.Type == tea.KeyRunes || k.Type == tea.KeySpace {
			typed := string(k.Runes)
			a.editField(func(s string) string { return s + typed })
		}
	}
	return a, nil
}

func (a *App) handleListKey(k tea.KeyMsg) (tea.Model, tea.Cmd) {
	items := a.visibleItems()
	switch k.String() {
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(items)-1 {
			a.cursor++
		}
	case "enter", "e":
		if len(items) > 0 {
			a.dispatch(session.EditItem{Item: items[a.cursor]})
			a.focus = focusName
		}
	case "d", "delete":
		if len(items) > 0 {
			p := a.inv.RequestDelete(items[a.cursor].ID)
			a.dispatch(session.ConfirmRequested{Token: p.Token, Prompt: p.Prompt})
		}
	case "1", "2", "3", "4":
		a.navigate(session.Pages[k.String()[0]-'1'])
	}
	return a, nil
}

// editField applies edit to the focused text field.
func (a *App) editField(edit func(string) string) {
	f := a.state.Form
	switch a.focus {
	case focusName:
		f.Name = edit(f.Name)
	case focusDate:
		f.Date = edit(f.Date)
	case focusPrice:
		f.Price = edit(f.Price)
	case focusSearch:
		a.dispatch(session.SetSearch{Text: edit(a.state.Search)})
		a.cursor = 0
		return
	default:
		return
	}
	a.dispatch(session.SetForm{Form: f})
}

func (a *App) visibleItems() []domain.Item {
	return a.inv.Search(a.state.Search)
}

func (a *App) clampCursor() {
	n := len(a.visibleItems())
	if a.cursor >= n {
		a.cursor = n - 1
	}
	if a.cursor < 0 {
		a.cursor = 0
	}
}

func (a *App) signInCmd(username, password string) tea.Cmd {
	return func() tea.Msg {
		user, err := a.auth.SignIn(a.ctx, username, password)
		if err != nil {
			return signInErrMsg{err}
		}
		return signedInMsg{user}
	}
}

func (a *App) saveCmd(editID string, f domain.Fields) tea.Cmd {
	user := a.state.User
	return func() tea.Msg {
		var err error
		if editID != "" {
			_, err = a.inv.Update(a.ctx, user, editID, f)
		} else {
			_, err = a.inv.Add(a.ctx, user, f)
		}
		return savedMsg{err}
	}
}

func (a *App) confirmCmd(token string) tea.Cmd {
	return func() tea.Msg {
		p, err := a.inv.Confirm(a.ctx, token)
		return confirmedMsg{pending: p, err: err}
	}
}

func saveErrorMessage(err error) string {
	var verr *inventory.ValidationError
	switch {
	case errors.As(err, &verr):
		return fmt.Sprintf("Please fill all fields (missing: %s).", strings.Join(verr.Missing, ", "))
	case errors.Is(err, inventory.ErrNotFound):
		return "That item no longer exists."
	default:
		return "Could not save the item. Please try again."
	}
}

func dropLast(s string) string {
	r := []rune(s)
	if len(r) == 0 {
		return s
	}
	return string(r[:len(r)-1])
}
