// Package gate decides which views a session may reach.
package gate

import "spendyze/internal/session"

// View identifies a routed page.
type View string

const (
	ViewEntry  View = "/"
	ViewHome   View = "/home"
	ViewReport View = "/report"
	ViewChat   View = "/ai-chat"
)

// Protected lists the views that require an authenticated session.
var Protected = []View{ViewHome, ViewReport, ViewChat}

// Decision is the outcome of Admit. When Redirect is set, View is the
// entry view the caller must send the user to instead.
type Decision struct {
	View     View
	Redirect bool
}

// Admit passes view through for an authenticated session and redirects to
// the entry view otherwise. It must be called on every navigation; the
// session can change between two of them.
func Admit(view View, s session.Session) Decision {
	if !s.Authenticated {
		return Decision{View: ViewEntry, Redirect: true}
	}
	return Decision{View: view}
}
