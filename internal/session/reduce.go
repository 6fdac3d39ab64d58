package session

import "github.com/vbonduro/jdginv/internal/domain"

// Action is a user or system event that changes the UI state.
type Action interface {
	isAction()
}

type LoggedIn struct{ User string }

type LoggedOut struct{}

type Navigate struct{ Page Page }

type SetForm struct{ Form domain.Fields }

// EditItem loads an item into the form and targets it for update.
type EditItem struct{ Item domain.Item }

// ItemSaved clears the form after a successful add or update.
type ItemSaved struct{}

type CancelEdit struct{}

type SetSearch struct{ Text string }

type ConfirmRequested struct{ Token, Prompt string }

type ConfirmResolved struct{}

type ShowAlert struct{ Message string }

type DismissAlert struct{}

type PermissionResolved struct{ Granted bool }

type Scanned struct{ Payload, FrameKey string }

type ResetScan struct{}

func (LoggedIn) isAction()           {}
func (LoggedOut) isAction()          {}
func (Navigate) isAction()           {}
func (SetForm) isAction()            {}
func (EditItem) isAction()           {}
func (ItemSaved) isAction()          {}
func (CancelEdit) isAction()         {}
func (SetSearch) isAction()          {}
func (ConfirmRequested) isAction()   {}
func (ConfirmResolved) isAction()    {}
func (ShowAlert) isAction()          {}
func (DismissAlert) isAction()       {}
func (PermissionResolved) isAction() {}
func (Scanned) isAction()            {}
func (ResetScan) isAction()          {}

// Reduce returns the state that follows s after a. It never mutates s.
func Reduce(s State, a Action) State {
	switch a := a.(type) {
	case LoggedIn:
		if a.User == "" {
			return s
		}
		next := Initial()
		next.User = a.User
		next.Page = PageHome
		return next
	case LoggedOut:
		return Initial()
	}

	if !s.Authenticated() {
		if alert, ok := a.(ShowAlert); ok {
			s.Alert = alert.Message
		} else if _, ok := a.(DismissAlert); ok {
			s.Alert = ""
		}
		return s
	}

	switch a := a.(type) {
	case Navigate:
		if a.Page.Valid() && a.Page != PageLogin {
			s.Page = a.Page
		}
	case SetForm:
		s.Form = a.Form
	case EditItem:
		s.Form = a.Item.Fields()
		s.EditID = a.Item.ID
		s.Page = PageInventory
	case ItemSaved, CancelEdit:
		s.Form = domain.Fields{}
		s.EditID = ""
	case SetSearch:
		s.Search = a.Text
	case ConfirmRequested:
		s.Confirm = &Confirmation{Token: a.Token, Prompt: a.Prompt}
	case ConfirmResolved:
		s.Confirm = nil
	case ShowAlert:
		s.Alert = a.Message
	case DismissAlert:
		s.Alert = ""
	case PermissionResolved:
		if a.Granted {
			s.Camera.Permission = PermissionGranted
		} else {
			s.Camera = Camera{Permission: PermissionDenied}
		}
	case Scanned:
		if s.Camera.Permission != PermissionGranted || s.Camera.Locked {
			return s
		}
		s.Camera.Locked = true
		s.Camera.Payload = a.Payload
		s.Camera.FrameKey = a.FrameKey
	case ResetScan:
		s.Camera = Camera{Permission: s.Camera.Permission}
	}
	return s
}
