package forms

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"
	"time"

	fiberlog "github.com/gofiber/fiber/v2/log"

	"teleecho/internal/authclient"
	"teleecho/internal/constants"
	"teleecho/internal/models"
)

// DefaultRedirectDelay is how long the success message stays up before the
// form navigates to the login route.
const DefaultRedirectDelay = 2000 * time.Millisecond

type RegisterOption func(*RegisterForm)

func WithRedirectDelay(d time.Duration) RegisterOption {
	return func(f *RegisterForm) {
		f.redirectDelay = d
	}
}

type RegisterForm struct {
	svc           AuthService
	nav           Navigator
	redirectDelay time.Duration

	mu         sync.Mutex
	profile    models.RegistrationProfile
	errMessage string
	okMessage  string
	redirect   *time.Timer
	closed     bool

	submitting atomic.Bool
}

func NewRegisterForm(svc AuthService, nav Navigator, opts ...RegisterOption) *RegisterForm {
	f := &RegisterForm{
		svc:           svc,
		nav:           nav,
		redirectDelay: DefaultRedirectDelay,
	}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

func (f *RegisterForm) fields() []field {
	return []field{
		{name: "username", value: &f.profile.Username, required: true},
		{name: "firstname", value: &f.profile.Firstname, required: true},
		{name: "lastname", value: &f.profile.Lastname, required: true},
		{name: "phone", value: &f.profile.Phone, required: true},
		{name: "password", value: &f.profile.Password, required: true},
		{name: "profile", value: &f.profile.Profile},
		{name: "bio", value: &f.profile.Bio},
	}
}

func (f *RegisterForm) SetField(name, value string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	return set(f.fields(), name, value)
}

func (f *RegisterForm) Bind(profile models.RegistrationProfile) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.profile = profile
}

func (f *RegisterForm) Profile() models.RegistrationProfile {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.profile
}

func (f *RegisterForm) ErrorMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.errMessage
}

func (f *RegisterForm) SuccessMessage() string {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.okMessage
}

func (f *RegisterForm) RedirectDelay() time.Duration {
	return f.redirectDelay
}

// RedirectPending reports whether a navigation to the login route is
// scheduled and has not fired or been cancelled yet.
func (f *RegisterForm) RedirectPending() bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.redirect != nil
}

func (f *RegisterForm) Submitting() bool {
	return f.submitting.Load()
}

// Submit sends the profile to the user service. On success it shows the
// success message and schedules navigation to the login route.
func (f *RegisterForm) Submit(ctx context.Context) error {
	if !f.submitting.CompareAndSwap(false, true) {
		return ErrSubmitInProgress
	}
	defer f.submitting.Store(false)

	f.mu.Lock()
	f.errMessage = ""
	f.okMessage = ""
	profile := f.profile
	err := validate(f.fields())
	if err != nil {
		f.errMessage = err.Error()
	}
	f.mu.Unlock()
	if err != nil {
		return err
	}

	if err := f.svc.Register(ctx, profile); err != nil {
		f.fail(err)
		return err
	}

	f.mu.Lock()
	defer f.mu.Unlock()
	f.okMessage = constants.RegisterSuccessMessage
	if f.closed {
		return nil
	}
	if f.redirect != nil {
		f.redirect.Stop()
	}
	var t *time.Timer
	t = time.AfterFunc(f.redirectDelay, func() {
		f.mu.Lock()
		if f.redirect != t {
			f.mu.Unlock()
			return
		}
		f.redirect = nil
		f.mu.Unlock()
		f.nav.Navigate(constants.RouteLogin)
	})
	f.redirect = t
	return nil
}

func (f *RegisterForm) fail(err error) {
	msg := constants.RegisterFailedMessage

	var se *authclient.ServiceError
	if errors.As(err, &se) {
		msg = se.Message
	} else {
		fiberlog.Error("Register error: ", err)
	}

	f.mu.Lock()
	f.errMessage = msg
	f.mu.Unlock()
}

// Close tears the form down and cancels a pending redirect. The form must
// not be submitted again afterwards.
func (f *RegisterForm) Close() {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.closed = true
	if f.redirect != nil {
		f.redirect.Stop()
		f.redirect = nil
	}
}

// GoToLogin navigates to the login form without submitting.
func (f *RegisterForm) GoToLogin() {
	f.nav.Navigate(constants.RouteLogin)
}
