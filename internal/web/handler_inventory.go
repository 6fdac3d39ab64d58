package web

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"github.com/vbonduro/jdginv/internal/domain"
	"github.com/vbonduro/jdginv/internal/inventory"
	"github.com/vbonduro/jdginv/internal/session"
)

// pageData is what every page template renders from.
type pageData struct {
	State     session.State
	Pages     []session.Page
	Username  string
	Items     []domain.Item
	Total     int
	Report    *domain.Report
	Log       []domain.LogEntry
	Connected bool
}

func (s *Server) newPageData(st session.State) pageData {
	snap := s.inventory.Snapshot()
	return pageData{
		State:     st,
		Pages:     session.Pages,
		Items:     s.inventory.Search(st.Search),
		Total:     len(snap.Items),
		Report:    snap.Report,
		Log:       snap.Log,
		Connected: s.inventory.Connected(),
	}
}

func (s *Server) handleHome(w http.ResponseWriter, r *http.Request, sid string, _ session.State) {
	st := s.sessions.Dispatch(sid, session.Navigate{Page: session.PageHome})
	if err := s.renderPage(w, http.StatusOK, s.newPageData(st),
		"base.html", "pages/home.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "home", "error", err)
	}
}

func (s *Server) handleInventory(w http.ResponseWriter, r *http.Request, sid string, _ session.State) {
	actions := []session.Action{session.Navigate{Page: session.PageInventory}}
	if q := r.URL.Query(); q.Has("q") {
		actions = append(actions, session.SetSearch{Text: q.Get("q")})
	}
	st := s.sessions.Dispatch(sid, actions...)

	if err := s.renderPage(w, http.StatusOK, s.newPageData(st),
		"base.html", "pages/inventory.html", "partials/item_table.html", "partials/report_box.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "inventory", "error", err)
	}
}

// handleInventoryTable renders only the item table; it backs the live search
// box and the refresh triggered by /inventory/events.
func (s *Server) handleInventoryTable(w http.ResponseWriter, r *http.Request, sid string, st session.State) {
	if q := r.URL.Query(); q.Has("q") {
		st = s.sessions.Dispatch(sid, session.SetSearch{Text: q.Get("q")})
	}
	if err := s.renderPartial(w, "partials/item_table.html", s.newPageData(st)); err != nil {
		s.logger.Error("render partial failed", "error", err)
	}
}

func (s *Server) handleSaveItem(w http.ResponseWriter, r *http.Request, sid string, st session.State) {
	f := domain.Fields{
		Name:  r.FormValue("name"),
		Date:  r.FormValue("date"),
		Price: r.FormValue("price"),
	}

	var err error
	if st.Editing() {
		_, err = s.inventory.Update(r.Context(), st.User, st.EditID, f)
	} else {
		_, err = s.inventory.Add(r.Context(), st.User, f)
	}
	if err != nil {
		s.sessions.Dispatch(sid, session.SetForm{Form: f}, session.ShowAlert{Message: saveErrorMessage(err)})
	} else {
		s.sessions.Dispatch(sid, session.ItemSaved{})
	}
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
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

func (s *Server) handleEditItem(w http.ResponseWriter, r *http.Request, sid string, _ session.State) {
	item, ok := s.inventory.Get(r.PathValue("id"))
	if !ok {
		s.sessions.Dispatch(sid, session.ShowAlert{Message: "That item no longer exists."})
	} else {
		s.sessions.Dispatch(sid, session.EditItem{Item: item})
	}
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

func (s *Server) handleCancelEdit(w http.ResponseWriter, r *http.Request, sid string, _ session.State) {
	s.sessions.Dispatch(sid, session.CancelEdit{})
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

func (s *Server) handleDeleteItem(w http.ResponseWriter, r *http.Request, sid string, _ session.State) {
	p := s.inventory.RequestDelete(r.PathValue("id"))
	s.sessions.Dispatch(sid, session.ConfirmRequested{Token: p.Token, Prompt: p.Prompt})
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

func (s *Server) handleDeleteAll(w http.ResponseWriter, r *http.Request, sid string, _ session.State) {
	p := s.inventory.RequestDeleteAll()
	s.sessions.Dispatch(sid, session.ConfirmRequested{Token: p.Token, Prompt: p.Prompt})
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

func (s *Server) handleConfirm(w http.ResponseWriter, r *http.Request, sid string, st session.State) {
	token := r.PathValue("token")
	if st.Confirm == nil || st.Confirm.Token != token {
		s.sessions.Dispatch(sid, session.ConfirmResolved{}, session.ShowAlert{Message: "That confirmation has expired."})
		http.Redirect(w, r, pagePath(st.Page), http.StatusSeeOther)
		return
	}

	actions := []session.Action{session.ConfirmResolved{}}
	p, err := s.inventory.Confirm(r.Context(), token)
	switch {
	case errors.Is(err, inventory.ErrUnknownToken):
		actions = append(actions, session.ShowAlert{Message: "That confirmation has expired."})
	case err != nil:
		actions = append(actions, session.ShowAlert{Message: "Could not delete. Please try again."})
	case p.Kind == inventory.PendingDeleteAll && st.Editing(),
		p.Kind == inventory.PendingDelete && p.ItemID == st.EditID:
		actions = append(actions, session.CancelEdit{})
	}
	s.sessions.Dispatch(sid, actions...)
	http.Redirect(w, r, pagePath(st.Page), http.StatusSeeOther)
}

func (s *Server) handleCancelConfirm(w http.ResponseWriter, r *http.Request, sid string, st session.State) {
	if err := s.inventory.Cancel(r.PathValue("token")); err != nil {
		s.logger.Debug("cancel confirmation", "error", err)
	}
	s.sessions.Dispatch(sid, session.ConfirmResolved{})
	http.Redirect(w, r, pagePath(st.Page), http.StatusSeeOther)
}

func (s *Server) handleGenerateReport(w http.ResponseWriter, r *http.Request, sid string, _ session.State) {
	if report := s.inventory.GenerateReport(); report == nil {
		s.sessions.Dispatch(sid, session.ShowAlert{Message: "Add some items before generating a report."})
	}
	http.Redirect(w, r, "/inventory", http.StatusSeeOther)
}

func (s *Server) handleDismissAlert(w http.ResponseWriter, r *http.Request, sid string, st session.State) {
	s.sessions.Dispatch(sid, session.DismissAlert{})
	http.Redirect(w, r, pagePath(st.Page), http.StatusSeeOther)
}

func (s *Server) handleReports(w http.ResponseWriter, r *http.Request, sid string, _ session.State) {
	st := s.sessions.Dispatch(sid, session.Navigate{Page: session.PageReports})
	if err := s.renderPage(w, http.StatusOK, s.newPageData(st),
		"base.html", "pages/reports.html", "partials/report_box.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "reports", "error", err)
	}
}
