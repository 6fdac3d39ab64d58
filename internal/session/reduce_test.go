package session

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/vbonduro/jdginv/internal/domain"
)

func signedIn() State {
	return Reduce(Initial(), LoggedIn{User: "admin"})
}

func TestLoginMovesToHome(t *testing.T) {
	s := signedIn()
	assert.Equal(t, PageHome, s.Page)
	assert.Equal(t, "admin", s.User)
	assert.True(t, s.Authenticated())
}

func TestLoginWithoutUserIsIgnored(t *testing.T) {
	assert.Equal(t, Initial(), Reduce(Initial(), LoggedIn{}))
}

func TestNavigateBeforeLoginStaysOnLogin(t *testing.T) {
	s := Reduce(Initial(), Navigate{Page: PageInventory})
	assert.Equal(t, PageLogin, s.Page)
}

func TestNavigateBetweenPages(t *testing.T) {
	s := signedIn()
	for _, p := range Pages {
		s = Reduce(s, Navigate{Page: p})
		assert.Equal(t, p, s.Page)
	}

	s = Reduce(s, Navigate{Page: "settings"})
	assert.Equal(t, PageCamera, s.Page, "unknown pages are ignored")

	s = Reduce(s, Navigate{Page: PageLogin})
	assert.Equal(t, PageCamera, s.Page, "login is reached only through logout")
}

func TestLogoutResetsEverything(t *testing.T) {
	s := signedIn()
	s = Reduce(s, SetForm{Form: domain.Fields{Name: "Rice"}})
	s = Reduce(s, SetSearch{Text: "ri"})
	s = Reduce(s, PermissionResolved{Granted: true})
	s = Reduce(s, Scanned{Payload: "QR-1"})
	s = Reduce(s, ShowAlert{Message: "oops"})

	assert.Equal(t, Initial(), Reduce(s, LoggedOut{}))
}

func TestEditItemLoadsForm(t *testing.T) {
	s := Reduce(signedIn(), EditItem{Item: domain.Item{ID: "7", Name: "Rice", Date: "d", Price: "50"}})

	assert.Equal(t, PageInventory, s.Page)
	assert.Equal(t, "7", s.EditID)
	assert.True(t, s.Editing())
	assert.Equal(t, domain.Fields{Name: "Rice", Date: "d", Price: "50"}, s.Form)

	for _, a := range []Action{ItemSaved{}, CancelEdit{}} {
		cleared := Reduce(s, a)
		assert.Empty(t, cleared.EditID)
		assert.Equal(t, domain.Fields{}, cleared.Form)
	}
}

func TestReduceDoesNotMutateInput(t *testing.T) {
	s := Reduce(signedIn(), ConfirmRequested{Token: "t1", Prompt: "Delete?"})
	before := *s.Confirm

	next := Reduce(s, ConfirmResolved{})
	assert.Nil(t, next.Confirm)
	assert.Equal(t, before, *s.Confirm)
}

func TestAlerts(t *testing.T) {
	s := Reduce(signedIn(), ShowAlert{Message: "missing required fields: name"})
	assert.Equal(t, "missing required fields: name", s.Alert)
	assert.Empty(t, Reduce(s, DismissAlert{}).Alert)

	login := Reduce(Initial(), ShowAlert{Message: "invalid credentials"})
	assert.Equal(t, PageLogin, login.Page)
	assert.Equal(t, "invalid credentials", login.Alert)
}

func TestScanRequiresPermission(t *testing.T) {
	s := Reduce(signedIn(), Scanned{Payload: "QR-1"})
	assert.False(t, s.Camera.Locked)
	assert.Empty(t, s.Camera.Payload)

	s = Reduce(s, PermissionResolved{Granted: false})
	s = Reduce(s, Scanned{Payload: "QR-1"})
	assert.Equal(t, PermissionDenied, s.Camera.Permission)
	assert.Empty(t, s.Camera.Payload)
}

func TestScanLock(t *testing.T) {
	s := Reduce(signedIn(), PermissionResolved{Granted: true})

	s = Reduce(s, Scanned{Payload: "QR-1", FrameKey: "f1"})
	assert.True(t, s.Camera.Locked)
	assert.Equal(t, "QR-1", s.Camera.Payload)

	s = Reduce(s, Scanned{Payload: "QR-2", FrameKey: "f2"})
	assert.Equal(t, "QR-1", s.Camera.Payload, "locked scans are ignored")
	assert.Equal(t, "f1", s.Camera.FrameKey)

	s = Reduce(s, ResetScan{})
	assert.False(t, s.Camera.Locked)
	assert.Empty(t, s.Camera.Payload)
	assert.Equal(t, PermissionGranted, s.Camera.Permission)

	s = Reduce(s, Scanned{Payload: "QR-2"})
	assert.Equal(t, "QR-2", s.Camera.Payload)
}

func TestRevokingPermissionClearsScan(t *testing.T) {
	s := Reduce(signedIn(), PermissionResolved{Granted: true})
	s = Reduce(s, Scanned{Payload: "QR-1"})

	s = Reduce(s, PermissionResolved{Granted: false})
	assert.Equal(t, Camera{Permission: PermissionDenied}, s.Camera)
}
