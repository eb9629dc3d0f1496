package gateway

import (
	"net/http"
	"slices"
	"strings"
)

// DefaultOrigin is echoed in Access-Control-Allow-Origin when the request
// origin is not allowed.
const DefaultOrigin = "https://www.vinted.fr"

const extensionOriginPrefix = "chrome-extension://"

// AllowedOrigins are the marketplace sites allowed to call the API.
var AllowedOrigins = []string{
	"https://www.vinted.fr",
	"https://www.vinted.be",
	"https://www.vinted.es",
	"https://www.vinted.de",
	"https://www.vinted.it",
	"https://www.vinted.nl",
	"https://www.vinted.pl",
	"https://www.vinted.pt",
	"https://www.vinted.co.uk",
	"https://www.vinted.com",
}

// OriginAllowed reports whether origin may call the API. Any browser
// extension origin is allowed; the API key gates those.
func OriginAllowed(origin string) bool {
	if origin == "" {
		return false
	}
	if strings.HasPrefix(origin, extensionOriginPrefix) {
		return true
	}
	return slices.Contains(AllowedOrigins, origin)
}

func setCORSHeaders(w http.ResponseWriter, origin string) {
	allowed := DefaultOrigin
	if OriginAllowed(origin) {
		allowed = origin
	}
	h := w.Header()
	h.Set("Access-Control-Allow-Origin", allowed)
	h.Set("Access-Control-Allow-Methods", "POST, OPTIONS")
	h.Set("Access-Control-Allow-Headers", "Content-Type, Accept, X-API-Key")
	h.Set("Access-Control-Max-Age", "86400")
	h.Add("Vary", "Origin")
}
