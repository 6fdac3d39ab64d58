// Package session holds the per-user UI state and the reducer that moves it
// from one state to the next. Views render a State; user events become
// Actions passed to Reduce.
package session

import "github.com/vbonduro/jdginv/internal/domain"

type Page string

const (
	PageLogin     Page = "login"
	PageHome      Page = "home"
	PageInventory Page = "inventory"
	PageReports   Page = "reports"
	PageCamera    Page = "camera"
)

// Pages lists the pages reachable from the side menu once signed in.
var Pages = []Page{PageHome, PageInventory, PageReports, PageCamera}

func (p Page) Valid() bool {
	switch p {
	case PageLogin, PageHome, PageInventory, PageReports, PageCamera:
		return true
	}
	return false
}

type Permission int

const (
	PermissionUnknown Permission = iota
	PermissionDenied
	PermissionGranted
)

type Camera struct {
	Permission Permission
	// Locked is set by a scan and cleared by ResetScan; further scans are
	// ignored while it is set.
	Locked   bool
	Payload  string
	FrameKey string
}

// Confirmation is a destructive action waiting for yes/no.
type Confirmation struct {
	Token  string
	Prompt string
}

type State struct {
	Page    Page
	User    string
	Form    domain.Fields
	EditID  string
	Search  string
	Camera  Camera
	Confirm *Confirmation
	Alert   string
}

func Initial() State {
	return State{Page: PageLogin}
}

func (s State) Authenticated() bool {
	return s.User != ""
}

func (s State) Editing() bool {
	return s.EditID != ""
}
