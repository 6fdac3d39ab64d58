package web

import (
	"net/http"
	"time"

	"github.com/vbonduro/jdginv/internal/session"
)

const sessionCookie = "jdginv_session"

// sessionHandler serves a request from a signed-in user.
type sessionHandler func(w http.ResponseWriter, r *http.Request, sid string, st session.State)

// withSession resolves the session cookie and redirects to /login when it is
// missing, expired or no longer known to the registry.
func (s *Server) withSession(h sessionHandler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c, err := r.Cookie(sessionCookie)
		if err != nil {
			s.redirectLogin(w, r)
			return
		}
		claims, err := s.tokens.Parse(c.Value)
		if err != nil {
			s.logger.Debug("rejected session token", "error", err)
			s.sweepSessions()
			clearSessionCookie(w)
			s.redirectLogin(w, r)
			return
		}
		st, ok := s.sessions.Get(claims.SessionID)
		if !ok || !st.Authenticated() {
			clearSessionCookie(w)
			s.redirectLogin(w, r)
			return
		}
		h(w, r, claims.SessionID, st)
	})
}

// sweepSessions drops sessions whose token can no longer be valid.
func (s *Server) sweepSessions() {
	if n := s.sessions.Sweep(s.tokens.TTL()); n > 0 {
		s.logger.Debug("expired sessions removed", "count", n)
	}
}

func (s *Server) redirectLogin(w http.ResponseWriter, r *http.Request) {
	if r.Header.Get("HX-Request") == "true" {
		w.Header().Set("HX-Redirect", "/login")
		w.WriteHeader(http.StatusOK)
		return
	}
	http.Redirect(w, r, "/login", http.StatusSeeOther)
}

func setSessionCookie(w http.ResponseWriter, r *http.Request, token string, ttl time.Duration) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  time.Now().Add(ttl),
		HttpOnly: true,
		Secure:   r.TLS != nil,
		SameSite: http.SameSiteLaxMode,
	})
}

func clearSessionCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     sessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
}

// pagePath is where a page is served.
func pagePath(p session.Page) string {
	if !p.Valid() {
		return "/home"
	}
	return "/" + string(p)
}
