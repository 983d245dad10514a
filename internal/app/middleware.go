package app

import (
	"github.com/gofiber/fiber/v2"
	fiberlog "github.com/gofiber/fiber/v2/log"

	"teleecho/internal/constants"
	"teleecho/internal/tokenstore"
)

// SetLoggedIn records in the locals whether the browser holds a token.
func SetLoggedIn(tokens *tokenstore.Sessions) fiber.Handler {
	return func(c *fiber.Ctx) error {
		token, err := tokens.For(c).Get()
		if err != nil {
			return err
		}

		c.Locals(constants.LoggedInLocalsKey, token != "")

		return c.Next()
	}
}

func RequireLoggedIn(c *fiber.Ctx) error {
	loggedIn, _ := c.Locals(constants.LoggedInLocalsKey).(bool)
	if !loggedIn {
		fiberlog.Info("not logged in, redirecting to login")
		return redirect(c, constants.RouteLogin)
	}

	return c.Next()
}

func RedirectDashboardIfLoggedIn(c *fiber.Ctx) error {
	loggedIn, _ := c.Locals(constants.LoggedInLocalsKey).(bool)
	if loggedIn {
		fiberlog.Info("logged in, redirecting to dashboard")
		return redirect(c, constants.RouteDashboard)
	}

	return c.Next()
}
