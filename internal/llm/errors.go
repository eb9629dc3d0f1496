package llm

import (
	"context"
	"errors"
	"net/http"
	"strings"

	openai "github.com/sashabaranov/go-openai"
	"google.golang.org/genai"
)

// User-facing provider failure messages.
const (
	MsgProviderConfig    = "Erreur de configuration du service"
	MsgProviderRateLimit = "Limite de requêtes atteinte. Réessayez plus tard."
	MsgProviderTimeout   = "Le service met trop de temps à répondre. Réessayez."
	MsgProviderGeneric   = "Erreur lors de l'analyse. Veuillez réessayer."
)

// UserMessage maps a provider failure to a short message that is safe to
// show to end users. Internal detail is never included.
func UserMessage(err error) string {
	if err == nil {
		return MsgProviderGeneric
	}
	if errors.Is(err, context.DeadlineExceeded) {
		return MsgProviderTimeout
	}

	status := 0
	var gerr genai.APIError
	var gerrPtr *genai.APIError
	var oerr *openai.APIError
	var oreq *openai.RequestError
	switch {
	case errors.As(err, &gerr):
		status = gerr.Code
	case errors.As(err, &gerrPtr):
		status = gerrPtr.Code
	case errors.As(err, &oerr):
		status = oerr.HTTPStatusCode
	case errors.As(err, &oreq):
		status = oreq.HTTPStatusCode
	}
	switch status {
	case http.StatusUnauthorized, http.StatusForbidden:
		return MsgProviderConfig
	case http.StatusTooManyRequests:
		return MsgProviderRateLimit
	case http.StatusGatewayTimeout, http.StatusRequestTimeout:
		return MsgProviderTimeout
	}

	msg := strings.ToLower(err.Error())
	switch {
	case strings.Contains(msg, "api key"), strings.Contains(msg, "api_key"):
		return MsgProviderConfig
	case strings.Contains(msg, "rate limit"), strings.Contains(msg, "quota"), strings.Contains(msg, "resource_exhausted"):
		return MsgProviderRateLimit
	case strings.Contains(msg, "timeout"), strings.Contains(msg, "deadline"):
		return MsgProviderTimeout
	}
	return MsgProviderGeneric
}
