package authclient

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"strings"
)

// ServiceError is a non-2xx answer from the user service. Message is meant
// for display.
type ServiceError struct {
	Status  int
	Code    string
	Message string
}

func (e *ServiceError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("user service: %d %s: %s", e.Status, e.Code, e.Message)
	}
	return fmt.Sprintf("user service: %d: %s", e.Status, e.Message)
}

// decodeServiceError turns an error response body into a ServiceError.
// The service usually answers with a bare JSON string, sometimes with an
// object. A body that is not JSON at all is returned as a plain error.
func decodeServiceError(status int, body []byte) error {
	trimmed := bytes.TrimSpace(body)
	if !json.Valid(trimmed) {
		return fmt.Errorf("decode error response (status %d): invalid JSON", status)
	}

	se := &ServiceError{Status: status}

	switch trimmed[0] {
	case '"':
		if err := json.Unmarshal(trimmed, &se.Message); err != nil {
			return fmt.Errorf("decode error response: %w", err)
		}
	case '{':
		var obj map[string]any
		if err := json.Unmarshal(trimmed, &obj); err != nil {
			return fmt.Errorf("decode error response: %w", err)
		}
		for _, key := range []string{"message", "error", "detail"} {
			if msg := stringField(obj, key); msg != "" {
				se.Message = msg
				break
			}
		}
		se.Code = stringField(obj, "code")
	case 'n':
		// null
	default:
		se.Message = string(trimmed)
	}

	se.Message = strings.TrimSpace(se.Message)
	if se.Message == "" {
		se.Message = http.StatusText(status)
	}
	return se
}

func stringField(obj map[string]any, key string) string {
	v, ok := obj[key]
	if !ok || v == nil {
		return ""
	}
	switch t := v.(type) {
	case string:
		return t
	case float64, bool:
		return fmt.Sprint(t)
	default:
		return ""
	}
}
