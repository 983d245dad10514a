package constants

const (
	EnvDevelopment      = "development"
	EnvProduction       = "production"
	EnvTest             = "test"
	CsrfInputName       = "_csrf"
	CsrfTokenContextKey = "csrf.token"
	RequestIDContextKey = "requestid"
	SessionCookieName   = "teleecho_session_id"
	CsrfCookieName      = "teleecho_csrf"
	LoggedInLocalsKey   = "auth.logged_in"
)

// Client-side routes.
const (
	RouteLogin     = "/login"
	RouteRegister  = "/register"
	RouteDashboard = "/dashboard"
	RouteLogout    = "/logout"
)

const (
	LoginFailedMessage      = "An error occurred while attempting to log in."
	RegisterFailedMessage   = "An error occurred while registering the user."
	RegisterSuccessMessage  = "User created successfully. Redirecting to login..."
	SubmitInProgressMessage = "A submission is already in progress."
)
