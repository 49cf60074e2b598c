package session

import "healthline/internal/domain"

type View string

const (
	ViewLogin     View = "login"
	ViewRegister  View = "register"
	ViewDashboard View = "dashboard"
	ViewRecord    View = "record"
	ViewChat      View = "chat"
)

// User is the signed-in account as returned by the login endpoint.
type User struct {
	ID    int64
	Email string
	Role  domain.Role
}

// State is either anonymous or holds exactly one authenticated user and the
// token issued for it. The zero value is anonymous. State is a value; Login
// and Logout return new states and never modify the receiver.
type State struct {
	user  *User
	token string
}

func Anonymous() State {
	return State{}
}

func (s State) Login(user User, token string) State {
	u := user
	return State{user: &u, token: token}
}

func (s State) Logout() State {
	return State{}
}

func (s State) Authenticated() bool {
	return s.user != nil
}

func (s State) User() (User, bool) {
	if s.user == nil {
		return User{}, false
	}
	return *s.user, true
}

func (s State) Token() string {
	return s.token
}

func (s State) Identity() (domain.Identity, bool) {
	if s.user == nil {
		return domain.Identity{}, false
	}
	return domain.Identity{UserID: s.user.ID, Role: s.user.Role}, true
}

func (v View) Protected() bool {
	switch v {
	case ViewDashboard, ViewRecord, ViewChat:
		return true
	}
	return false
}

// Route returns the view that should actually be shown when view is
// requested in state s.
func Route(s State, view View) View {
	switch {
	case view.Protected() && !s.Authenticated():
		return ViewLogin
	case (view == ViewLogin || view == ViewRegister) && s.Authenticated():
		return ViewDashboard
	}
	return view
}
