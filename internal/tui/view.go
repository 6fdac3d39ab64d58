package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/vbonduro/jdginv/internal/domain"
	"github.com/vbonduro/jdginv/internal/session"
)

const (
	colorAccent  lipgloss.Color = "#89b4fa"
	colorMuted   lipgloss.Color = "#7f849c"
	colorError   lipgloss.Color = "#f38ba8"
	colorWarning lipgloss.Color = "#f9e2af"
	colorSuccess lipgloss.Color = "#a6e3a1"
)

var (
	titleStyle    = lipgloss.NewStyle().Bold(true).Foreground(colorAccent)
	mutedStyle    = lipgloss.NewStyle().Foreground(colorMuted)
	alertStyle    = lipgloss.NewStyle().Foreground(colorError).Bold(true)
	confirmStyle  = lipgloss.NewStyle().Border(lipgloss.RoundedBorder()).BorderForeground(colorWarning).Padding(0, 1)
	focusStyle    = lipgloss.NewStyle().Foreground(colorAccent).Bold(true)
	selectedStyle = lipgloss.NewStyle().Reverse(true)
	tabStyle      = lipgloss.NewStyle().Padding(0, 1).Foreground(colorMuted)
	activeTab     = lipgloss.NewStyle().Padding(0, 1).Foreground(colorSuccess).Bold(true).Underline(true)
	boxStyle      = lipgloss.NewStyle().Border(lipgloss.NormalBorder()).BorderForeground(colorMuted).Padding(0, 1)
)

func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("Double JDG Inventory"))
	b.WriteString("\n")

	if a.state.Authenticated() {
		b.WriteString(a.renderTabs())
		b.WriteString("\n\n")
	}

	switch a.state.Page {
	case session.PageLogin:
		b.WriteString(a.renderLogin())
	case session.PageHome:
		b.WriteString(a.renderHome())
	case session.PageInventory:
		b.WriteString(a.renderInventory())
	case session.PageReports:
		b.WriteString(a.renderReports())
	case session.PageCamera:
		b.WriteString("No camera is available in the terminal. Use the web app to scan codes.\n")
	}

	if c := a.state.Confirm; c != nil {
		b.WriteString("\n")
		b.WriteString(confirmStyle.Render("Confirm Delete\n" + c.Prompt + "\n[y] delete  [n] cancel"))
		b.WriteString("\n")
	}
	if a.state.Alert != "" {
		b.WriteString("\n")
		b.WriteString(alertStyle.Render(a.state.Alert))
		b.WriteString(mutedStyle.Render("  (press any key)"))
		b.WriteString("\n")
	}
	if a.busy {
		b.WriteString(mutedStyle.Render("\nworking..."))
	}
	b.WriteString("\n")
	b.WriteString(mutedStyle.Render(a.help()))
	return b.String()
}

func (a *App) renderTabs() string {
	tabs := make([]string, 0, len(session.Pages))
	for i, p := range session.Pages {
		label := fmt.Sprintf("F%d %s", i+1, p)
		if p == a.state.Page {
			tabs = append(tabs, activeTab.Render(label))
		} else {
			tabs = append(tabs, tabStyle.Render(label))
		}
	}
	return lipgloss.JoinHorizontal(lipgloss.Top, tabs...) + mutedStyle.Render("  "+a.state.User)
}

func (a *App) renderLogin() string {
	var b strings.Builder
	b.WriteString("Sign in\n\n")
	b.WriteString(a.field("Username", a.username, a.focus == focusUsername))
	b.WriteString(a.field("Password", strings.Repeat("*", len([]rune(a.password))), a.focus == focusPassword))
	return b.String()
}

func (a *App) renderHome() string {
	return boxStyle.Render(fmt.Sprintf("Total items\n%s", titleStyle.Render(fmt.Sprint(len(a.snap.Items))))) + "\n"
}

func (a *App) renderInventory() string {
	var b strings.Builder
	heading := "Add item"
	if a.state.Editing() {
		heading = "Edit item"
	}
	b.WriteString(heading + "\n")
	b.WriteString(a.field("Name", a.state.Form.Name, a.focus == focusName))
	b.WriteString(a.field("Date", a.state.Form.Date, a.focus == focusDate))
	b.WriteString(a.field("Price", a.state.Form.Price, a.focus == focusPrice))
	b.WriteString("\n")
	b.WriteString(a.field("Search", a.state.Search, a.focus == focusSearch))
	b.WriteString("\n")
	b.WriteString(a.renderItems(a.visibleItems()))
	if r := a.inv.Report(); r != nil {
		b.WriteString("\n")
		b.WriteString(renderReport(r))
	}
	return b.String()
}

func (a *App) renderItems(items []domain.Item) string {
	if len(items) == 0 {
		if a.state.Search != "" {
			return mutedStyle.Render(fmt.Sprintf("No items match %q.", a.state.Search)) + "\n"
		}
		return mutedStyle.Render("No items yet.") + "\n"
	}
	var b strings.Builder
	for i, it := range items {
		line := fmt.Sprintf("%3d. %-24s %-12s %10s", i+1, it.Name, it.Date, it.Price)
		if a.focus == focusList && i == a.cursor {
			line = selectedStyle.Render(line)
		}
		b.WriteString(line + "\n")
	}
	return b.String()
}

func (a *App) renderReports() string {
	var b strings.Builder
	if r := a.inv.Report(); r != nil {
		b.WriteString(renderReport(r))
	} else {
		b.WriteString(mutedStyle.Render("No report generated. Press ctrl+g on the inventory page.") + "\n")
	}
	b.WriteString("\nHistory\n")
	if len(a.snap.Log) == 0 {
		if a.inv.Connected() {
			b.WriteString(mutedStyle.Render("No changes recorded yet.") + "\n")
		} else {
			b.WriteString(mutedStyle.Render("History is only kept when connected to the document store.") + "\n")
		}
		return b.String()
	}
	for _, e := range a.snap.Log {
		fmt.Fprintf(&b, "%s  %-6s %-20s %-12s %8s  %s\n",
			e.Timestamp.Local().Format("2006-01-02 15:04"), e.Action, e.Name, e.Date, e.Price, e.User)
	}
	return b.String()
}

func renderReport(r *domain.Report) string {
	return boxStyle.Render(fmt.Sprintf(
		"Report\nTotal items: %d\nTotal value: %s\nLatest item: %s (%s, %s)",
		r.TotalItems, r.TotalValue.StringFixed(2), r.LatestItem.Name, r.LatestItem.Date, r.LatestItem.Price,
	)) + "\n"
}

func (a *App) field(label, value string, focused bool) string {
	cursor := " "
	if focused {
		label = focusStyle.Render(label)
		cursor = "_"
	}
	return fmt.Sprintf("%-10s %s%s\n", label+":", value, cursor)
}

func (a *App) help() string {
	switch {
	case !a.state.Authenticated():
		return "tab switch field • enter sign in • ctrl+c quit"
	case a.state.Confirm != nil:
		return "y confirm • n cancel"
	case a.state.Page == session.PageInventory && a.focus == focusList:
		return "↑/↓ select • enter edit • d delete • ctrl+x delete all • ctrl+g report • tab fields • ctrl+l log out"
	case a.state.Page == session.PageInventory:
		return "tab next field • enter save • esc cancel edit • ctrl+x delete all • ctrl+g report • F1-F4 pages • ctrl+l log out"
	default:
		return "1-4 or F1-F4 pages • ctrl+l log out • q quit"
	}
}
