package forms

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"teleecho/internal/authclient"
	"teleecho/internal/constants"
	"teleecho/internal/models"
	"teleecho/internal/tokenstore"
)

type LoginForm struct {
	svc    AuthService
	tokens tokenstore.Store
	nav    Navigator

	mu         sync.Mutex
	creds      models.Credentials
	errMessage string

	submitting atomic.Bool
}

func NewLoginForm(svc AuthService, tokens tokenstore.Store, nav Navigator) *LoginForm {
	return &LoginForm{
		svc:    svc,
		tokens: tokens,
		nav:    nav,
	}
}

func (f *LoginForm) fields() []field {
	return []field{
		{name: "username", value: &f.creds.Username, required: true},
		{name: "password", value: &f.creds.Password, required: true},
	}
}

// SetField updates one input of the form's view state.
func (f *LoginForm) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return set(f.fields(), name, value)
}

// Bind replaces the whole view state, e.g. from a parsed form post.
func (f *LoginForm) Bind(creds models.Credentials) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.creds = creds
}

func (f *LoginForm) Credentials() models.Credentials {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.creds
}

func (f *LoginForm) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMessage
}

func (f *LoginForm) Submitting() bool {
	return f.submitting.Load()
}

// Submit sends the credentials to the user service. On success the token is
// persisted and the form navigates to the dashboard. Failures are reflected
// in ErrorMessage and returned.
func (f *LoginForm) Submit(ctx context.Context) error {
	if !f.submitting.CompareAndSwap(false, true) {
		return ErrSubmitInProgress
	}
	defer f.submitting.Store(false)

	f.mu.Lock()
	f.errMessage = ""
	creds := f.creds
	err := validate(f.fields())
	if err != nil {
		f.errMessage = err.Error()
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}

	token, err := f.svc.Login(ctx, creds)
	if err == nil {
		if err = f.tokens.Set(token); err != nil {
			err = fmt.Errorf("store token: %w", err)
		}
	}
	if err != nil {
		f.fail(err)
		return err
	}

	f.nav.Navigate(constants.RouteDashboard)
	return nil
}

func (f *LoginForm) fail(err error) {
	msg := constants.LoginFailedMessage

	var se *authclient.ServiceError
	if errors.As(err, &se) {
		msg = se.Message
	} else {
		fiberlog.Error("Login error: ", err)
	}

	f.mu.Lock()
	f.errMessage = msg
	f.mu.Unlock()
}

// GoToRegister navigates to the registration form without submitting.
func (f *LoginForm) GoToRegister() {
	f.nav.Navigate(constants.RouteRegister)
}
