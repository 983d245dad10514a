package view

import (
	"bytes"
	"os"
	"strings"
	"testing"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teleecho/internal/models"
)

func loadTestViews(t *testing.T) fiber.Views {
	t.Helper()
	v := New(Config{FS: os.DirFS("../../views")})
	require.NoError(t, v.Load())
	return v
}

func TestRenderLoginPage(t *testing.T) {
	v := loadTestViews(t)

	var buf bytes.Buffer
	err := v.Render(&buf, "login/index", Page{
		Title:     "Login",
		CSRFToken: "tok",
		Form:      models.Credentials{Username: `al"ice`},
		Error:     "invalid credentials",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.True(t, strings.HasPrefix(out, "<!DOCTYPE html>"))
	assert.Contains(t, out, "<title>Login | TeleEcho</title>")
	assert.Contains(t, out, `name="_csrf" value="tok"`)
	assert.Contains(t, out, `value="al&#34;ice"`)
	assert.Contains(t, out, `<div class="alert alert-danger" role="alert">invalid credentials</div>`)
	assert.Contains(t, out, `href="/register"`)
	assert.NotContains(t, out, "alert-success")
	assert.NotContains(t, out, "http-equiv")
}

func TestRenderLoginPartial(t *testing.T) {
	v := loadTestViews(t)

	var buf bytes.Buffer
	require.NoError(t, v.Render(&buf, "login/_form", Page{Form: models.Credentials{}}))

	out := buf.String()
	assert.Contains(t, out, `<form id="login-form"`)
	assert.NotContains(t, out, "<html")
}

func TestRenderRegisterSuccessWithRedirect(t *testing.T) {
	v := loadTestViews(t)

	var buf bytes.Buffer
	err := v.Render(&buf, "register/index", Page{
		Title:    "Register",
		Form:     models.RegistrationProfile{},
		Success:  "User created successfully. Redirecting to login...",
		Redirect: &Redirect{To: "/login", Delay: 2 * time.Second},
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `<meta http-equiv="refresh" content="2;url=/login">`)
	assert.Contains(t, out, `hx-trigger="load delay:2000ms"`)
	assert.Contains(t, out, "alert-success")
	assert.NotContains(t, out, "alert-danger")
}

func TestRenderRegisterKeepsValues(t *testing.T) {
	v := loadTestViews(t)

	var buf bytes.Buffer
	err := v.Render(&buf, "register/_form", Page{
		Form:  models.RegistrationProfile{Username: "jdoe", Bio: "<b>hi</b>"},
		Error: "username taken",
	})
	require.NoError(t, err)

	out := buf.String()
	assert.Contains(t, out, `name="username" value="jdoe"`)
	assert.Contains(t, out, "&lt;b&gt;hi&lt;/b&gt;</textarea>")
	assert.Contains(t, out, "username taken")
}

func TestRenderUnknownTemplate(t *testing.T) {
	v := loadTestViews(t)

	var buf bytes.Buffer
	assert.Error(t, v.Render(&buf, "login/missing", Page{}))
	assert.Error(t, v.Render(&buf, "nope/index", Page{}))
	assert.Error(t, v.Render(&buf, "login/_missing", Page{}))
	assert.Error(t, v.Render(&buf, "index", Page{}))
}

func TestParseTemplateName(t *testing.T) {
	key, err := parseTemplateName("login/_form")
	require.NoError(t, err)
	assert.Equal(t, viewKey{viewDir: "login", name: "_form.tmpl", isPartial: true}, key)

	key, err = parseTemplateName("shared/_alerts.tmpl")
	require.NoError(t, err)
	assert.True(t, key.isShared)
	assert.Equal(t, "shared/_alerts.tmpl", key.FullPath())

	_, err = parseTemplateName("login/sub/index")
	assert.Error(t, err)
}

func TestRedirectSecondsRoundsUp(t *testing.T) {
	assert.Equal(t, 2, Redirect{Delay: 1500 * time.Millisecond}.Seconds())
	assert.Equal(t, 2, Redirect{Delay: 2 * time.Second}.Seconds())
	assert.Equal(t, int64(1500), Redirect{Delay: 1500 * time.Millisecond}.Millis())
}
