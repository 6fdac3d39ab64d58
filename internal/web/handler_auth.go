package web

import (
	"errors"
	"net/http"
	"strings"

	"github.com/vbonduro/jdginv/internal/auth"
	"github.com/vbonduro/jdginv/internal/session"
)

func (s *Server) handleLoginPage(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if claims, err := s.tokens.Parse(c.Value); err == nil {
			if _, ok := s.sessions.Get(claims.SessionID); ok {
				http.Redirect(w, r, "/home", http.StatusSeeOther)
				return
			}
		}
	}
	s.renderLogin(w, http.StatusOK, session.Initial(), "")
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	username := strings.TrimSpace(r.FormValue("username"))
	password := r.FormValue("password")

	user, err := s.auth.SignIn(r.Context(), username, password)
	if err != nil {
		status, msg := http.StatusUnauthorized, "Invalid username or password."
		if !errors.Is(err, auth.ErrInvalidCredentials) {
			s.logger.Error("sign in failed", "username", username, "error", err)
			status, msg = http.StatusServiceUnavailable, "Sign-in is unavailable right now. Please try again."
		}
		s.renderLogin(w, status, session.Reduce(session.Initial(), session.ShowAlert{Message: msg}), username)
		return
	}

	s.sweepSessions()
	sid, _ := s.sessions.Start(user.Username)
	token, err := s.tokens.Issue(user.ID, user.Username, sid)
	if err != nil {
		s.sessions.End(sid)
		s.logger.Error("issue session token failed", "username", user.Username, "error", err)
		http.Error(w, "failed to start session", http.StatusInternalServerError)
		return
	}
	setSessionCookie(w, r, token, s.tokens.TTL())
	s.logger.Info("signed in", "username", user.Username)
	http.Redirect(w, r, "/home", http.StatusSeeOther)
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	if c, err := r.Cookie(sessionCookie); err == nil {
		if claims, err := s.tokens.Parse(c.Value); err == nil {
			s.sessions.End(claims.SessionID)
			s.logger.Info("signed out", "username", claims.Username)
		}
	}
	clearSessionCookie(w)
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func (s *Server) renderLogin(w http.ResponseWriter, status int, st session.State, username string) {
	if err := s.renderPage(w, status,
		pageData{State: st, Username: username},
		"base.html", "pages/login.html",
	); err != nil {
		s.logger.Error("render page failed", "page", "login", "error", err)
	}
}
