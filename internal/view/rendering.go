package view

import (
	"github.com/a-h/templ"
	"github.com/gofiber/fiber/v2"
)

func RenderComponent(c *fiber.Ctx, status int, component templ.Component) error {
	c.Status(status).Set("Content-Type", "text/html; charset=utf-8")
	return component.Render(c.Context(), c)
}

// FormID is the element id of the form rendered by dir/_form.
func FormID(dir string) string {
	return dir + "-form"
}

// RenderForm renders dir/index inside the layout, or only the dir/_form
// partial when htmx is swapping that form. Other htmx requests, like a
// navigation targeting body, get the full page.
func RenderForm(c *fiber.Ctx, status int, dir string, page Page) error {
	name := dir + "/index"
	if HtmxTargets(c, FormID(dir)) {
		name = dir + "/_form"
		// htmx does not swap error responses.
		status = fiber.StatusOK
	}
	return c.Status(status).Render(name, page)
}
