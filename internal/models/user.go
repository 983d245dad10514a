package models

// Credentials is the login form's view state.
type Credentials struct {
	Username string `form:"username"`
	Password string `form:"password"`
}

// RegistrationProfile is the registration form's view state. Profile is a
// picture URL.
type RegistrationProfile struct {
	Username  string `form:"username"`
	Firstname string `form:"firstname"`
	Lastname  string `form:"lastname"`
	Phone     string `form:"phone"`
	Password  string `form:"password"`
	Profile   string `form:"profile"`
	Bio       string `form:"bio"`
}
