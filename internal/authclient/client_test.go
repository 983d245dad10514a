package authclient

import (
	"context"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync/atomic"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"teleecho/internal/models"
)

func TestLoginSendsURLEncodedCredentials(t *testing.T) {
	var calls atomic.Int32
	var gotBody, gotType, gotID string

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		calls.Add(1)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, LoginPath, r.URL.Path)
		b, _ := io.ReadAll(r.Body)
		gotBody = string(b)
		gotType = r.Header.Get("Content-Type")
		gotID = r.Header.Get(RequestIDHeader)
		w.Write([]byte(`{"token":"abc123"}`))
	}))
	defer srv.Close()

	c := New(srv.URL)
	ctx := WithRequestID(context.Background(), "req-1")
	token, err := c.Login(ctx, models.Credentials{Username: "jo doe", Password: "p&ss=1"})
	require.NoError(t, err)

	assert.Equal(t, "abc123", token)
	assert.Equal(t, int32(1), calls.Load())
	assert.Equal(t, "application/x-www-form-urlencoded", gotType)
	assert.Equal(t, "username=jo+doe&password=p%26ss%3D1", gotBody)
	assert.Equal(t, "req-1", gotID)
}

func TestLoginGeneratesRequestID(t *testing.T) {
	var gotID string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotID = r.Header.Get(RequestIDHeader)
		w.Write([]byte(`{"token":"t"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), models.Credentials{Username: "a", Password: "b"})
	require.NoError(t, err)
	assert.Len(t, gotID, 36)
}

func TestLoginMissingToken(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"user":"a"}`))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), models.Credentials{Username: "a", Password: "b"})
	assert.ErrorIs(t, err, ErrMissingToken)
}

func TestLoginServiceErrors(t *testing.T) {
	tests := []struct {
		name    string
		status  int
		body    string
		message string
		code    string
	}{
		{"json string", http.StatusUnauthorized, `"invalid credentials"`, "invalid credentials", ""},
		{"object with message", http.StatusBadRequest, `{"code":"E_USER","message":"bad user"}`, "bad user", "E_USER"},
		{"object with error", http.StatusForbidden, `{"error":"locked"}`, "locked", ""},
		{"numeric code", http.StatusConflict, `{"code":409,"detail":"exists"}`, "exists", "409"},
		{"object without message", http.StatusInternalServerError, `{}`, "Internal Server Error", ""},
		{"null", http.StatusUnauthorized, `null`, "Unauthorized", ""},
		{"other json", http.StatusTeapot, `[1,2]`, "[1,2]", ""},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.status)
				w.Write([]byte(tt.body))
			}))
			defer srv.Close()

			_, err := New(srv.URL).Login(context.Background(), models.Credentials{Username: "a", Password: "b"})

			var se *ServiceError
			require.True(t, errors.As(err, &se), "expected *ServiceError, got %v", err)
			assert.Equal(t, tt.status, se.Status)
			assert.Equal(t, tt.message, se.Message)
			assert.Equal(t, tt.code, se.Code)
		})
	}
}

func TestLoginNonJSONErrorIsNotServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		w.Write([]byte("<html>bad gateway</html>"))
	}))
	defer srv.Close()

	_, err := New(srv.URL).Login(context.Background(), models.Credentials{Username: "a", Password: "b"})
	require.Error(t, err)

	var se *ServiceError
	assert.False(t, errors.As(err, &se))
}

func TestLoginNetworkFailure(t *testing.T) {
	srv := httptest.NewServer(http.NotFoundHandler())
	url := srv.URL
	srv.Close()

	_, err := New(url).Login(context.Background(), models.Credentials{Username: "a", Password: "b"})
	require.Error(t, err)

	var se *ServiceError
	assert.False(t, errors.As(err, &se))
}

func TestRegisterSendsEachFieldOnce(t *testing.T) {
	profile := models.RegistrationProfile{
		Username:  "jdoe",
		Firstname: "Jo",
		Lastname:  "Doe",
		Phone:     "+1 555 0100",
		Password:  "secret",
		Profile:   "https://example.com/me.png",
		Bio:       "line one\nline two",
	}

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, RegisterPath, r.URL.Path)
		assert.True(t, strings.HasPrefix(r.Header.Get("Content-Type"), "multipart/form-data; boundary="))
		if !assert.NoError(t, r.ParseMultipartForm(1<<20)) {
			w.WriteHeader(http.StatusBadRequest)
			return
		}

		want := map[string]string{
			"username":  profile.Username,
			"firstname": profile.Firstname,
			"lastname":  profile.Lastname,
			"phone":     profile.Phone,
			"password":  profile.Password,
			"profile":   profile.Profile,
			"bio":       profile.Bio,
		}
		assert.Len(t, r.MultipartForm.Value, len(want))
		for k, v := range want {
			assert.Equal(t, []string{v}, r.MultipartForm.Value[k], k)
		}
		w.WriteHeader(http.StatusCreated)
		w.Write([]byte(`"ok"`))
	}))
	defer srv.Close()

	require.NoError(t, New(srv.URL).Register(context.Background(), profile))
}

func TestRegisterServiceError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`"username taken"`))
	}))
	defer srv.Close()

	err := New(srv.URL).Register(context.Background(), models.RegistrationProfile{Username: "jdoe"})

	var se *ServiceError
	require.True(t, errors.As(err, &se))
	assert.Equal(t, "username taken", se.Message)
}

func TestRegisterSuccessMustBeJSON(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte("created"))
	}))
	defer srv.Close()

	err := New(srv.URL).Register(context.Background(), models.RegistrationProfile{Username: "jdoe"})
	assert.Error(t, err)
}

func TestNewTrimsBaseURL(t *testing.T) {
	c := New("http://example.com/")
	assert.Equal(t, "http://example.com", c.baseURL)
	assert.Equal(t, DefaultBaseURL, New("").baseURL)
}

func TestWithTimeoutIsOrderIndependent(t *testing.T) {
	own := &http.Client{}

	before := New(DefaultBaseURL, WithTimeout(3*time.Second), WithHTTPClient(own))
	after := New(DefaultBaseURL, WithHTTPClient(own), WithTimeout(3*time.Second))

	assert.Equal(t, 3*time.Second, before.httpClient.Timeout)
	assert.Equal(t, 3*time.Second, after.httpClient.Timeout)
	assert.Zero(t, own.Timeout, "caller's client must not be modified")
	assert.NotSame(t, own, after.httpClient)
}

func TestWithHTTPClientWithoutTimeoutIsUsedAsIs(t *testing.T) {
	own := &http.Client{}
	assert.Same(t, own, New(DefaultBaseURL, WithHTTPClient(own)).httpClient)
}
