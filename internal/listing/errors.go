package listing

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
)

// Kind classifies failures across the pipeline.
type Kind int

const (
	KindUnknown Kind = iota
	KindValidation
	KindAuth
	KindRateLimit
	KindConfig
	KindProvider
	KindNetwork
	KindTimeout
	KindInvalidResponse
)

func (k Kind) String() string {
	switch k {
	case KindValidation:
		return "validation"
	case KindAuth:
		return "auth"
	case KindRateLimit:
		return "rate_limit"
	case KindConfig:
		return "config"
	case KindProvider:
		return "provider"
	case KindNetwork:
		return "network"
	case KindTimeout:
		return "timeout"
	case KindInvalidResponse:
		return "invalid_response"
	default:
		return "unknown"
	}
}

// Error is a classified failure carrying a user-facing message.
type Error struct {
	Kind    Kind
	Status  int
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

var transientMarkers = []string{"network", "timeout", "fetch", "connection", "502", "503", "504"}

// Transient reports whether retrying the same request may succeed.
func (e *Error) Transient() bool {
	switch e.Kind {
	case KindNetwork, KindTimeout:
		return true
	case KindValidation, KindInvalidResponse, KindAuth, KindConfig:
		return false
	}
	switch e.Status {
	case http.StatusBadGateway, http.StatusServiceUnavailable, http.StatusGatewayTimeout:
		return true
	}
	if e.Status >= 400 && e.Status < 500 {
		return false
	}
	msg := strings.ToLower(e.Message)
	for _, marker := range transientMarkers {
		if strings.Contains(msg, marker) {
			return true
		}
	}
	return false
}

// IsTransient reports whether err is a transient *Error.
func IsTransient(err error) bool {
	var e *Error
	if errors.As(err, &e) {
		return e.Transient()
	}
	return false
}

// KindOf returns the kind of err, or KindUnknown.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

// Validation errors produced while decoding images.
var (
	ErrInvalidImageFormat = &Error{Kind: KindValidation, Message: "format invalide"}
	ErrImageTooLarge      = &Error{Kind: KindValidation, Message: "trop volumineuse (max 5MB)"}
)

// ErrorText turns any error shape into a display string: strings, errors,
// objects with a message or nested error field. Empty shapes yield fallback.
func ErrorText(v any, fallback string) string {
	switch e := v.(type) {
	case nil:
		return fallback
	case string:
		if e == "" {
			return fallback
		}
		return e
	case *Error:
		if e == nil || e.Message == "" {
			return fallback
		}
		return e.Message
	case error:
		var le *Error
		if errors.As(e, &le) && le.Message != "" {
			return le.Message
		}
		return ErrorText(e.Error(), fallback)
	case map[string]any:
		if msg, ok := e["message"]; ok {
			return ErrorText(msg, fallback)
		}
		if nested, ok := e["error"]; ok {
			return ErrorText(nested, fallback)
		}
	case json.RawMessage:
		var decoded any
		if err := json.Unmarshal(e, &decoded); err != nil {
			return ErrorText(string(e), fallback)
		}
		return ErrorText(decoded, fallback)
	case fmt.Stringer:
		return ErrorText(e.String(), fallback)
	}

	b, err := json.Marshal(v)
	if err != nil || string(b) == "{}" || string(b) == "null" {
		return fallback
	}
	return string(b)
}
