// Package gateway serves the listing analysis API. Requests pass a fixed
// sequence of gates (origin, API key, method, rate limit, configuration,
// payload) before the images reach the model provider.
package gateway

import (
	"context"
	"crypto/subtle"
	"encoding/json"
	"fmt"
	"net"
	"net/http"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/raine/vinscripted/internal/listing"
	"github.com/raine/vinscripted/internal/llm"
	"github.com/raine/vinscripted/internal/ratelimit"
)

// MaxBodyBytes bounds the request body: ten 5MB images plus base64 overhead.
const MaxBodyBytes = 80 << 20

// Handler serves the analysis API.
type Handler struct {
	apiKey   string
	analyzer llm.Analyzer
	limiter  ratelimit.Limiter
}

// New creates a handler. An empty apiKey disables key checking; a nil
// analyzer makes analysis requests fail with a configuration error.
func New(apiKey string, analyzer llm.Analyzer, limiter ratelimit.Limiter) *Handler {
	return &Handler{apiKey: apiKey, analyzer: analyzer, limiter: limiter}
}

// Init builds the router.
func (h *Handler) Init() *chi.Mux {
	router := chi.NewRouter()
	router.Use(middleware.Recoverer)
	router.Use(withRequestLogging)

	router.HandleFunc("/api/analyze", h.analyze)
	router.Get("/api/health", h.health)

	return router
}

type analyzeRequest struct {
	Images   json.RawMessage `json:"images"`
	Language json.RawMessage `json:"language"`
}

func (h *Handler) analyze(w http.ResponseWriter, r *http.Request) {
	l := logger(r)
	origin := r.Header.Get("Origin")
	setCORSHeaders(w, origin)

	if r.Method == http.MethodOptions {
		w.WriteHeader(http.StatusOK)
		return
	}

	if !OriginAllowed(origin) {
		l.Warn().Str("origin", origin).Msg("blocked request from unauthorized origin")
		httpError(w, http.StatusForbidden, CodeForbiddenOrigin, MsgForbiddenOrigin)
		return
	}

	if !h.validAPIKey(r) {
		l.Warn().Str("origin", origin).Msg("invalid or missing API key")
		httpError(w, http.StatusUnauthorized, CodeUnauthorized, MsgUnauthorized)
		return
	}

	if r.Method != http.MethodPost {
		w.Header().Set("Allow", http.MethodPost)
		respondJSON(w, http.StatusMethodNotAllowed, map[string]any{
			"error":   MsgMethodNotAllowed,
			"code":    CodeMethodNotAllowed,
			"allowed": []string{http.MethodPost},
		})
		return
	}

	if h.limiter != nil {
		identity := clientIdentity(r)
		allowed, err := h.limiter.Allow(r.Context(), identity)
		if err != nil {
			l.Error().Err(err).Msg("rate limiter unavailable, allowing request")
		} else if !allowed {
			l.Info().Str("identity", identity).Msg("rate limited")
			httpError(w, http.StatusTooManyRequests, CodeRateLimited, MsgRateLimited)
			return
		}
	}

	if h.analyzer == nil {
		l.Error().Msg("no model provider configured")
		httpError(w, http.StatusInternalServerError, CodeConfigError, MsgConfigError)
		return
	}

	images, language, ok := decodeRequest(w, r)
	if !ok {
		return
	}

	// The provider call runs to completion even if the client goes away.
	ctx := context.WithoutCancel(r.Context())
	start := time.Now()
	result, err := h.analyzer.AnalyzeListing(ctx, images, language)
	if err != nil {
		l.Error().Err(err).Int("images", len(images)).Msg("analysis failed")
		httpError(w, http.StatusInternalServerError, CodeAnalysisFailed, llm.UserMessage(err))
		return
	}

	l.Info().
		Int("images", len(images)).
		Str("language", string(language)).
		Int64("inputTokens", result.Usage.InputTokens).
		Int64("outputTokens", result.Usage.OutputTokens).
		Float64("costUSD", result.Usage.CostUSD).
		Dur("elapsed", time.Since(start)).
		Msg("analysis complete")

	respondJSON(w, http.StatusOK, result.Listing)
}

// decodeRequest validates the payload, writing the 400 response itself when
// it is rejected.
func decodeRequest(w http.ResponseWriter, r *http.Request) ([]listing.EncodedImage, listing.Language, bool) {
	var req analyzeRequest
	if err := json.NewDecoder(http.MaxBytesReader(w, r.Body, MaxBodyBytes)).Decode(&req); err != nil {
		logger(r).Debug().Err(err).Msg("invalid request body")
		httpError(w, http.StatusBadRequest, CodeInvalidBody, MsgInvalidBody)
		return nil, "", false
	}

	var raw []json.RawMessage
	if len(req.Images) == 0 || json.Unmarshal(req.Images, &raw) != nil || len(raw) == 0 {
		httpError(w, http.StatusBadRequest, CodeNoImages, MsgNoImages)
		return nil, "", false
	}
	if len(raw) > listing.MaxImages {
		httpError(w, http.StatusBadRequest, CodeTooManyImages, fmt.Sprintf(MsgTooManyImages, listing.MaxImages))
		return nil, "", false
	}

	language, ok := parseLanguage(req.Language)
	if !ok {
		respondJSON(w, http.StatusBadRequest, map[string]any{
			"error":     MsgUnsupportedLang,
			"code":      CodeUnsupportedLang,
			"supported": listing.SupportedLanguageCodes(),
		})
		return nil, "", false
	}

	images := make([]listing.EncodedImage, len(raw))
	for i, entry := range raw {
		img, err := decodeImage(entry)
		if err != nil {
			httpError(w, http.StatusBadRequest, CodeInvalidImage, fmt.Sprintf(MsgInvalidImage, i+1, listing.ErrorText(err, "format invalide")))
			return nil, "", false
		}
		images[i] = img
	}
	return images, language, true
}

// parseLanguage accepts an absent or null language as the default. Any
// other value must be a supported code.
func parseLanguage(raw json.RawMessage) (listing.Language, bool) {
	if len(raw) == 0 || string(raw) == "null" {
		return listing.DefaultLanguage, true
	}
	var code string
	if err := json.Unmarshal(raw, &code); err != nil || code == "" {
		return "", false
	}
	return listing.ParseLanguage(code)
}

func decodeImage(raw json.RawMessage) (listing.EncodedImage, error) {
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return listing.EncodedImage{}, listing.ErrInvalidImageFormat
	}
	return listing.ParseDataURL(s)
}

func (h *Handler) health(w http.ResponseWriter, _ *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":   "ok",
		"provider": h.analyzer != nil,
	})
}

func (h *Handler) validAPIKey(r *http.Request) bool {
	if h.apiKey == "" {
		logger(r).Warn().Msg("API key not configured, skipping validation")
		return true
	}
	got := r.Header.Get("X-API-Key")
	return subtle.ConstantTimeCompare([]byte(got), []byte(h.apiKey)) == 1
}

// clientIdentity is the last X-Forwarded-For entry, the one appended by the
// proxy in front of the gateway, else the peer host. Entries to its left are
// supplied by the caller.
func clientIdentity(r *http.Request) string {
	if values := r.Header.Values("X-Forwarded-For"); len(values) > 0 {
		entries := strings.Split(values[len(values)-1], ",")
		if last := strings.TrimSpace(entries[len(entries)-1]); last != "" {
			return last
		}
	}
	host, _, err := net.SplitHostPort(r.RemoteAddr)
	if err != nil {
		return r.RemoteAddr
	}
	return host
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}

func httpError(w http.ResponseWriter, status int, code, message string) {
	respondJSON(w, status, map[string]string{"error": message, "code": code})
}
