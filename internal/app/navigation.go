package app

import (
	"sync"

	"github.com/gofiber/fiber/v2"

	"teleecho/internal/view"
)

// redirect sends the browser to route. htmx requests get HX-Location so the
// swap target is not replaced with the redirected page.
func redirect(c *fiber.Ctx, route string) error {
	c.Set("HX-Location", route)
	if view.IsHtmx(c) {
		return c.SendStatus(fiber.StatusOK)
	}
	return c.Redirect(route, fiber.StatusFound)
}

// responseNavigator records the navigation a form asks for so the handler
// can turn it into a response once Submit returns.
type responseNavigator struct {
	mu    sync.Mutex
	route string
}

func (n *responseNavigator) Navigate(route string) {
	n.mu.Lock()
	defer n.mu.Unlock()
	n.route = route
}

func (n *responseNavigator) Route() string {
	n.mu.Lock()
	defer n.mu.Unlock()
	return n.route
}

// inflight tracks form submissions per browser, keyed by the CSRF cookie.
type inflight struct {
	mu     sync.Mutex
	active map[string]struct{}
}

func newInflight() *inflight {
	return &inflight{active: make(map[string]struct{})}
}

// acquire marks form as submitting for the browser behind key. It returns
// false if a submission is already running. An empty key is never guarded.
func (g *inflight) acquire(key, form string) (release func(), ok bool) {
	if key == "" {
		return func() {}, true
	}
	k := key + "|" + form

	g.mu.Lock()
	defer g.mu.Unlock()
	if _, busy := g.active[k]; busy {
		return nil, false
	}
	g.active[k] = struct{}{}

	return func() {
		g.mu.Lock()
		delete(g.active, k)
		g.mu.Unlock()
	}, true
}
