package web

import (
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/vbonduro/jdginv/internal/auth"
	"github.com/vbonduro/jdginv/internal/service"
	"github.com/vbonduro/jdginv/internal/session"
	"github.com/vbonduro/jdginv/internal/web/templates"
)

func TestWithSession_RejectedTokenSweepsExpiredSessions(t *testing.T) {
	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	tokens := auth.NewTokens("test-secret", time.Millisecond)
	s := NewServer(service.NewLocalInventoryService(logger), nil, tokens, nil, nil, templates.FS, logger)

	s.sessions.Start("admin")
	s.sessions.Start("admin")
	require.Equal(t, 2, s.sessions.Len())
	time.Sleep(10 * time.Millisecond)

	req := httptest.NewRequest(http.MethodGet, "/home", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookie, Value: "expired-or-forged"})
	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusSeeOther, rec.Code)
	assert.Equal(t, "/login", rec.Header().Get("Location"))
	assert.Equal(t, 0, s.sessions.Len())
}

func TestPagePath(t *testing.T) {
	assert.Equal(t, "/inventory", pagePath(session.PageInventory))
	assert.Equal(t, "/home", pagePath(session.Page("bogus")))
}
