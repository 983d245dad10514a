package app

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"
	"github.com/gofiber/fiber/v2/middleware/compress"
	"github.com/gofiber/fiber/v2/middleware/csrf"
	"github.com/gofiber/fiber/v2/middleware/favicon"
	"github.com/gofiber/fiber/v2/middleware/filesystem"
	"github.com/gofiber/fiber/v2/middleware/helmet"
	"github.com/gofiber/fiber/v2/middleware/logger"
	"github.com/gofiber/fiber/v2/middleware/recover"
	"github.com/gofiber/fiber/v2/middleware/requestid"
	"github.com/gofiber/fiber/v2/middleware/session"
	"github.com/gofiber/storage/postgres/v3"
	"github.com/google/uuid"

	"teleecho/components"
	"teleecho/internal/authclient"
	"teleecho/internal/config"
	"teleecho/internal/constants"
	"teleecho/internal/forms"
	"teleecho/internal/models"
	"teleecho/internal/tokenstore"
	"teleecho/internal/view"
)

func New(config *config.Config) *fiber.App {
	fiberlog.Debug("Starting app with config:", config)

	app := fiber.New(fiber.Config{
		AppName:      "TeleEcho 0.1.0",
		ErrorHandler: errorHandler,
		Views: view.New(view.Config{
			CompileOnRender: config.CompileOnRender,
			Path:            "views",
			FS:              config.ViewsFS,
		}),
	})

	var storage fiber.Storage
	if config.DatabaseUrl != "" {
		storage = postgres.New(postgres.Config{
			ConnectionURI: config.DatabaseUrl,
			Table:         "teleecho_sessions",
		})
	}

	sessionStore := session.New(session.Config{
		Expiration:     24 * time.Hour * 30,
		KeyLookup:      "cookie:" + constants.SessionCookieName,
		CookieSecure:   config.CookieSecure,
		CookieHTTPOnly: true,
		Storage:        storage,
	})
	tokens := tokenstore.New(sessionStore)

	app.Use(requestid.New(requestid.Config{
		Generator: uuid.NewString,
	}))
	app.Use(logger.New(logger.Config{
		Format:        "${time} ${locals:requestid} ${status} - ${latency} ${method} ${path}\n",
		DisableColors: config.DisableLogColors,
	}))
	app.Use(recover.New(recover.Config{
		EnableStackTrace: config.EnableStackTrace,
	}))
	app.Use(compress.New())
	app.Use(helmet.New(helmet.Config{
		// htmx is loaded from a CDN that does not send CORP headers.
		CrossOriginEmbedderPolicy: "unsafe-none",
	}))
	app.Use(favicon.New())
	if config.StaticFS != nil {
		app.Use("/static", filesystem.New(filesystem.Config{
			Root: http.FS(config.StaticFS),
		}))
	}

	// Combine two CSRF extractors: use form field as default
	// so forms work without JS, with header as fallback.
	csrfFromForm := csrf.CsrfFromForm(constants.CsrfInputName)
	csrfFromHeader := csrf.CsrfFromHeader("X-CSRF-Token")

	app.Use(csrf.New(csrf.Config{
		CookieSecure: config.CookieSecure,
		Session:      sessionStore,
		Extractor: func(c *fiber.Ctx) (string, error) {
			token, err := csrfFromForm(c)
			if err == nil {
				return token, nil
			}

			if errors.Is(err, csrf.ErrMissingForm) {
				return csrfFromHeader(c)
			}

			// unexpected programmer error
			panic(err)
		},
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			fiberlog.Error("CSRF error: ", err.Error())
			return view.RenderComponent(c, fiber.StatusForbidden,
				components.GenericError(fiber.StatusForbidden, "Forbidden"))
		},
		ContextKey: constants.CsrfTokenContextKey,
		CookieName: constants.CsrfCookieName,
	}))

	authClient := authclient.New(config.AuthServiceURL, authclient.WithTimeout(config.AuthServiceTimeout))
	guard := newInflight()

	login := LoginHandlers{
		auth:     authClient,
		tokens:   tokens,
		inflight: guard,
	}

	register := RegisterHandlers{
		auth:          authClient,
		redirectDelay: config.RegisterRedirectDelay,
		inflight:      guard,
	}

	setLoggedIn := SetLoggedIn(tokens)

	app.Get("/", func(c *fiber.Ctx) error {
		return c.Redirect(constants.RouteLogin, fiber.StatusFound)
	})
	app.Get(constants.RouteLogin, setLoggedIn, RedirectDashboardIfLoggedIn, login.LoginForm)
	app.Post(constants.RouteLogin, login.SubmitLogin)
	app.Post(constants.RouteLogout, login.Logout)

	app.Get(constants.RouteRegister, setLoggedIn, RedirectDashboardIfLoggedIn, register.RegisterForm)
	app.Post(constants.RouteRegister, register.SubmitRegistration)

	app.Get(constants.RouteDashboard, setLoggedIn, RequireLoggedIn, Dashboard)

	return app
}

// serviceContext carries the request id to the user service.
func serviceContext(c *fiber.Ctx) context.Context {
	id, _ := c.Locals(constants.RequestIDContextKey).(string)
	return authclient.WithRequestID(c.UserContext(), id)
}

type LoginHandlers struct {
	auth     forms.AuthService
	tokens   *tokenstore.Sessions
	inflight *inflight
}

func (l *LoginHandlers) LoginForm(c *fiber.Ctx) error {
	return l.render(c, fiber.StatusOK, models.Credentials{}, "")
}

func (l *LoginHandlers) render(c *fiber.Ctx, status int, creds models.Credentials, errMessage string) error {
	page := view.NewPage(c, "Login")
	page.Form = creds
	page.Error = errMessage
	return view.RenderForm(c, status, "login", page)
}

func (l *LoginHandlers) SubmitLogin(c *fiber.Ctx) error {
	var creds models.Credentials

	err := c.BodyParser(&creds)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	fiberlog.Debug("login attempt: ", creds.Username)

	release, ok := l.inflight.acquire(c.Cookies(constants.CsrfCookieName), "login")
	if !ok {
		creds.Password = ""
		return l.render(c, fiber.StatusConflict, creds, constants.SubmitInProgressMessage)
	}
	defer release()

	nav := &responseNavigator{}
	form := forms.NewLoginForm(l.auth, l.tokens.For(c), nav)
	form.Bind(creds)

	if err := form.Submit(serviceContext(c)); err != nil {
		creds.Password = ""
		return l.render(c, fiber.StatusUnprocessableEntity, creds, form.ErrorMessage())
	}

	return redirect(c, nav.Route())
}

func (l *LoginHandlers) Logout(c *fiber.Ctx) error {
	if err := l.tokens.For(c).Clear(); err != nil {
		return err
	}

	return redirect(c, constants.RouteLogin)
}

type RegisterHandlers struct {
	auth          forms.AuthService
	redirectDelay time.Duration
	inflight      *inflight
}

func (r *RegisterHandlers) RegisterForm(c *fiber.Ctx) error {
	page := view.NewPage(c, "Register")
	page.Form = models.RegistrationProfile{}
	return view.RenderForm(c, fiber.StatusOK, "register", page)
}

func (r *RegisterHandlers) SubmitRegistration(c *fiber.Ctx) error {
	var profile models.RegistrationProfile

	err := c.BodyParser(&profile)
	if err != nil {
		return fiber.NewError(fiber.StatusBadRequest, err.Error())
	}

	fiberlog.Debug("registration attempt: ", profile.Username)

	page := view.NewPage(c, "Register")

	release, ok := r.inflight.acquire(c.Cookies(constants.CsrfCookieName), "register")
	if !ok {
		profile.Password = ""
		page.Form = profile
		page.Error = constants.SubmitInProgressMessage
		return view.RenderForm(c, fiber.StatusConflict, "register", page)
	}
	defer release()

	nav := &responseNavigator{}
	form := forms.NewRegisterForm(r.auth, nav, forms.WithRedirectDelay(r.redirectDelay))
	// The form lives as long as this request. Its redirect is carried out by
	// the browser, so the server-side timer is cancelled here.
	defer form.Close()
	form.Bind(profile)

	if err := form.Submit(serviceContext(c)); err != nil {
		profile.Password = ""
		page.Form = profile
		page.Error = form.ErrorMessage()
		return view.RenderForm(c, fiber.StatusUnprocessableEntity, "register", page)
	}

	page.Form = models.RegistrationProfile{}
	page.Success = form.SuccessMessage()
	if form.RedirectPending() || nav.Route() != "" {
		page.Redirect = &view.Redirect{To: constants.RouteLogin, Delay: form.RedirectDelay()}
	}
	return view.RenderForm(c, fiber.StatusOK, "register", page)
}

func Dashboard(c *fiber.Ctx) error {
	return c.Render("dashboard/index", view.NewPage(c, "Dashboard"))
}
