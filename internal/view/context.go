package view

import (
	"math"
	"time"

	"github.com/gofiber/fiber/v2"

	"teleecho/internal/constants"
)

// Page contains shared data needed by most templates.
type Page struct {
	Title     string
	CSRFToken string
	LoggedIn  bool
	Error     string
	Success   string
	Redirect  *Redirect
	Form      any
}

// Redirect is a navigation the browser performs after Delay.
type Redirect struct {
	To    string
	Delay time.Duration
}

// Seconds rounds Delay up for meta refresh, which only takes whole seconds.
func (r Redirect) Seconds() int {
	return int(math.Ceil(r.Delay.Seconds()))
}

func (r Redirect) Millis() int64 {
	return r.Delay.Milliseconds()
}

func NewPage(c *fiber.Ctx, title string) Page {
	return Page{
		Title:     title,
		CSRFToken: CSRFToken(c),
		LoggedIn:  LoggedIn(c),
	}
}

func CSRFToken(c *fiber.Ctx) string {
	token, _ := c.Locals(constants.CsrfTokenContextKey).(string)
	return token
}

func LoggedIn(c *fiber.Ctx) bool {
	loggedIn, _ := c.Locals(constants.LoggedInLocalsKey).(bool)
	return loggedIn
}

// IsHtmx reports whether c was sent by htmx.
func IsHtmx(c *fiber.Ctx) bool {
	return c.Get("HX-Request") == "true"
}

// HtmxTargets reports whether c was sent by htmx to swap the element with the given id.
func HtmxTargets(c *fiber.Ctx, id string) bool {
	return IsHtmx(c) && c.Get("HX-Target") == id
}
