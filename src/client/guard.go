package client

const (
	LoginPath     = "/login"
	DashboardPath = "/dashboard"
)

var privateRoutes = map[string]bool{
	"/dashboard":    true,
	"/transactions": true,
	"/categories":   true,
	"/budgets":      true,
	"/reports":      true,
	"/profile":      true,
}

var publicOnlyRoutes = map[string]bool{
	LoginPath: true,
}

// Route is the outcome of guarding a page: render it, wait for the session
// to settle, or go elsewhere.
type Route struct {
	Wait     bool
	Redirect string
}

func (r Route) Allowed() bool {
	return !r.Wait && r.Redirect == ""
}

func Guard(state AuthState, path string) Route {
	switch {
	case privateRoutes[path]:
		switch state {
		case AuthLoading:
			return Route{Wait: true}
		case Anonymous:
			return Route{Redirect: LoginPath}
		}
	case publicOnlyRoutes[path]:
		if state == Authenticated {
			return Route{Redirect: DashboardPath}
		}
	case path == "/":
		if state == Authenticated {
			return Route{Redirect: DashboardPath}
		}
		return Route{Redirect: LoginPath}
	}
	return Route{}
}
