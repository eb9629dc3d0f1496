package gateway

import (
	"context"
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/raine/vinscripted/internal/listing"
	"github.com/raine/vinscripted/internal/llm"
	"github.com/raine/vinscripted/internal/ratelimit"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

// MockAnalyzer mocks llm.Analyzer.
type MockAnalyzer struct {
	mock.Mock
}

func (m *MockAnalyzer) AnalyzeListing(ctx context.Context, images []listing.EncodedImage, language listing.Language) (*llm.AnalysisResult, error) {
	args := m.Called(ctx, images, language)
	result, _ := args.Get(0).(*llm.AnalysisResult)
	return result, args.Error(1)
}

type limiterFunc func(identity string) (bool, error)

func (f limiterFunc) Allow(_ context.Context, identity string) (bool, error) { return f(identity) }

const (
	testKey    = "secret-key"
	testOrigin = "https://www.vinted.de"
)

var jpeg = "data:image/jpeg;base64," + base64.StdEncoding.EncodeToString([]byte("fake jpeg"))

var okResult = &llm.AnalysisResult{
	Listing: &listing.Result{
		Title:       "Robe d'été",
		Description: "Robe légère.",
		Attributes:  listing.DefaultAttributes(),
		Keywords:    []string{"robe"},
	},
}

func newRequest(method, body string) *http.Request {
	req := httptest.NewRequest(method, "/api/analyze", strings.NewReader(body))
	req.Header.Set("Origin", testOrigin)
	req.Header.Set("X-API-Key", testKey)
	req.Header.Set("Content-Type", "application/json")
	return req
}

func serve(h *Handler, req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	h.Init().ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var body map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func TestAnalyze_Success(t *testing.T) {
	an := new(MockAnalyzer)
	an.On("AnalyzeListing", mock.Anything, mock.MatchedBy(func(images []listing.EncodedImage) bool {
		return len(images) == 2 && images[0].MimeType == "image/jpeg" && images[1].MimeType == "image/png"
	}), listing.Polish).Return(okResult, nil)

	png := "data:image/png;base64," + base64.StdEncoding.EncodeToString([]byte("png"))
	rec := serve(New(testKey, an, nil), newRequest(http.MethodPost, fmt.Sprintf(`{"images":[%q,%q],"language":"pl"}`, jpeg, png)))

	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, testOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))

	var got listing.Result
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &got))
	assert.Equal(t, *okResult.Listing, got)
	an.AssertExpectations(t)
}

func TestAnalyze_DefaultLanguage(t *testing.T) {
	an := new(MockAnalyzer)
	an.On("AnalyzeListing", mock.Anything, mock.Anything, listing.French).Return(okResult, nil)

	rec := serve(New(testKey, an, nil), newRequest(http.MethodPost, fmt.Sprintf(`{"images":[%q]}`, jpeg)))

	assert.Equal(t, http.StatusOK, rec.Code)
	an.AssertExpectations(t)
}

func TestAnalyze_ProviderNotCalledForRejectedOrigin(t *testing.T) {
	an := new(MockAnalyzer)
	req := newRequest(http.MethodPost, fmt.Sprintf(`{"images":[%q]}`, jpeg))
	req.Header.Set("Origin", "https://evil.example")

	rec := serve(New(testKey, an, nil), req)

	assert.Equal(t, http.StatusForbidden, rec.Code)
	assert.Equal(t, DefaultOrigin, rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, MsgForbiddenOrigin, decodeBody(t, rec)["error"])
	an.AssertNotCalled(t, "AnalyzeListing", mock.Anything, mock.Anything, mock.Anything)
}

func TestAnalyze_Preflight(t *testing.T) {
	req := newRequest(http.MethodOptions, "")
	req.Header.Set("Origin", "chrome-extension://abcdef")

	rec := serve(New(testKey, nil, nil), req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "chrome-extension://abcdef", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Equal(t, "POST, OPTIONS", rec.Header().Get("Access-Control-Allow-Methods"))
	assert.Equal(t, "Content-Type, Accept, X-API-Key", rec.Header().Get("Access-Control-Allow-Headers"))
	assert.Equal(t, "86400", rec.Header().Get("Access-Control-Max-Age"))
	assert.Empty(t, rec.Body.String())
}

func TestAnalyze_Gates(t *testing.T) {
	tests := []struct {
		name       string
		apiKey     string
		method     string
		header     string
		body       string
		analyzer   bool
		limiter    ratelimit.Limiter
		wantStatus int
		wantCode   string
		wantError  string
	}{
		{
			name:       "missing origin",
			method:     http.MethodPost,
			header:     "no-origin",
			wantStatus: http.StatusForbidden,
			wantCode:   CodeForbiddenOrigin,
		},
		{
			name:       "wrong API key",
			apiKey:     "other",
			method:     http.MethodPost,
			analyzer:   true,
			wantStatus: http.StatusUnauthorized,
			wantCode:   CodeUnauthorized,
			wantError:  MsgUnauthorized,
		},
		{
			name:       "GET not allowed",
			method:     http.MethodGet,
			analyzer:   true,
			wantStatus: http.StatusMethodNotAllowed,
			wantCode:   CodeMethodNotAllowed,
			wantError:  MsgMethodNotAllowed,
		},
		{
			name:       "rate limited",
			method:     http.MethodPost,
			analyzer:   true,
			limiter:    limiterFunc(func(string) (bool, error) { return false, nil }),
			wantStatus: http.StatusTooManyRequests,
			wantCode:   CodeRateLimited,
			wantError:  MsgRateLimited,
		},
		{
			name:       "no provider",
			method:     http.MethodPost,
			body:       fmt.Sprintf(`{"images":[%q]}`, jpeg),
			wantStatus: http.StatusInternalServerError,
			wantCode:   CodeConfigError,
			wantError:  MsgConfigError,
		},
		{
			name:       "invalid JSON",
			method:     http.MethodPost,
			body:       `{"images":`,
			analyzer:   true,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidBody,
		},
		{
			name:       "images missing",
			method:     http.MethodPost,
			body:       `{"language":"fr"}`,
			analyzer:   true,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeNoImages,
			wantError:  MsgNoImages,
		},
		{
			name:       "images not an array",
			method:     http.MethodPost,
			body:       `{"images":"data:image/png;base64,AA=="}`,
			analyzer:   true,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeNoImages,
		},
		{
			name:       "images empty",
			method:     http.MethodPost,
			body:       `{"images":[]}`,
			analyzer:   true,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeNoImages,
		},
		{
			name:       "too many images",
			method:     http.MethodPost,
			body:       `{"images":[` + strings.Repeat(fmt.Sprintf("%q,", jpeg), 10) + fmt.Sprintf("%q", jpeg) + `]}`,
			analyzer:   true,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeTooManyImages,
			wantError:  "Maximum 10 images autorisées",
		},
		{
			name:       "unsupported language",
			method:     http.MethodPost,
			body:       fmt.Sprintf(`{"images":[%q],"language":"sv"}`, jpeg),
			analyzer:   true,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeUnsupportedLang,
			wantError:  MsgUnsupportedLang,
		},
		{
			name:       "empty language",
			method:     http.MethodPost,
			body:       fmt.Sprintf(`{"images":[%q],"language":""}`, jpeg),
			analyzer:   true,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeUnsupportedLang,
		},
		{
			name:       "bad image format",
			method:     http.MethodPost,
			body:       fmt.Sprintf(`{"images":[%q,"https://images1.vinted.net/a.jpg"]}`, jpeg),
			analyzer:   true,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidImage,
			wantError:  "Image 2 format invalide",
		},
		{
			name:       "non-string image",
			method:     http.MethodPost,
			body:       `{"images":[42]}`,
			analyzer:   true,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidImage,
			wantError:  "Image 1 format invalide",
		},
		{
			name:   "image too large",
			method: http.MethodPost,
			body: fmt.Sprintf(`{"images":["data:image/jpeg;base64,%s"]}`,
				base64.StdEncoding.EncodeToString(make([]byte, listing.MaxImageBytes+1))),
			analyzer:   true,
			wantStatus: http.StatusBadRequest,
			wantCode:   CodeInvalidImage,
			wantError:  "Image 1 trop volumineuse (max 5MB)",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			an := new(MockAnalyzer)
			apiKey := testKey
			if tt.apiKey != "" {
				apiKey = tt.apiKey
			}
			var analyzer llm.Analyzer
			if tt.analyzer {
				analyzer = an
			}

			req := newRequest(tt.method, tt.body)
			if tt.header == "no-origin" {
				req.Header.Del("Origin")
			}
			rec := serve(New(apiKey, analyzer, tt.limiter), req)

			assert.Equal(t, tt.wantStatus, rec.Code)
			body := decodeBody(t, rec)
			assert.Equal(t, tt.wantCode, body["code"])
			if tt.wantError != "" {
				assert.Equal(t, tt.wantError, body["error"])
			}
			an.AssertNotCalled(t, "AnalyzeListing", mock.Anything, mock.Anything, mock.Anything)
		})
	}
}

func TestAnalyze_MethodNotAllowedBody(t *testing.T) {
	rec := serve(New(testKey, new(MockAnalyzer), nil), newRequest(http.MethodPut, ""))

	assert.Equal(t, http.StatusMethodNotAllowed, rec.Code)
	assert.Equal(t, "POST", rec.Header().Get("Allow"))
	assert.Equal(t, []any{"POST"}, decodeBody(t, rec)["allowed"])
}

func TestAnalyze_UnsupportedLanguageListsSupported(t *testing.T) {
	rec := serve(New(testKey, new(MockAnalyzer), nil), newRequest(http.MethodPost, fmt.Sprintf(`{"images":[%q],"language":"xx"}`, jpeg)))

	assert.Equal(t, []any{"fr", "en", "de", "es", "it", "nl", "pl", "pt"}, decodeBody(t, rec)["supported"])
}

func TestAnalyze_NoAPIKeyConfigured(t *testing.T) {
	an := new(MockAnalyzer)
	an.On("AnalyzeListing", mock.Anything, mock.Anything, mock.Anything).Return(okResult, nil)

	req := newRequest(http.MethodPost, fmt.Sprintf(`{"images":[%q]}`, jpeg))
	req.Header.Del("X-API-Key")

	rec := serve(New("", an, nil), req)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyze_LimiterErrorFailsOpen(t *testing.T) {
	an := new(MockAnalyzer)
	an.On("AnalyzeListing", mock.Anything, mock.Anything, mock.Anything).Return(okResult, nil)
	limiter := limiterFunc(func(string) (bool, error) { return false, errors.New("redis down") })

	rec := serve(New(testKey, an, limiter), newRequest(http.MethodPost, fmt.Sprintf(`{"images":[%q]}`, jpeg)))
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestAnalyze_RateLimitPerIdentity(t *testing.T) {
	an := new(MockAnalyzer)
	an.On("AnalyzeListing", mock.Anything, mock.Anything, mock.Anything).Return(okResult, nil)
	h := New(testKey, an, ratelimit.NewMemory(ratelimit.Config{Limit: 2}))

	send := func(forwarded string) int {
		req := newRequest(http.MethodPost, fmt.Sprintf(`{"images":[%q]}`, jpeg))
		req.Header.Set("X-Forwarded-For", forwarded)
		return serve(h, req).Code
	}

	assert.Equal(t, http.StatusOK, send("10.0.0.1, 203.0.113.1"))
	assert.Equal(t, http.StatusOK, send("203.0.113.1"))
	assert.Equal(t, http.StatusTooManyRequests, send("10.0.0.2, 203.0.113.1"), "caller-supplied entries do not change identity")
	assert.Equal(t, http.StatusOK, send("203.0.113.2"))
}

func TestAnalyze_ProviderErrorIsBucketed(t *testing.T) {
	an := new(MockAnalyzer)
	an.On("AnalyzeListing", mock.Anything, mock.Anything, mock.Anything).
		Return(nil, fmt.Errorf("generate: %w", context.DeadlineExceeded))

	rec := serve(New(testKey, an, nil), newRequest(http.MethodPost, fmt.Sprintf(`{"images":[%q]}`, jpeg)))

	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, llm.MsgProviderTimeout, body["error"])
	assert.NotContains(t, rec.Body.String(), "deadline")
}

func TestAnalyze_ProviderCallSurvivesClientCancel(t *testing.T) {
	an := new(MockAnalyzer)
	an.On("AnalyzeListing", mock.MatchedBy(func(ctx context.Context) bool {
		return ctx.Err() == nil
	}), mock.Anything, mock.Anything).Return(okResult, nil)

	ctx, cancel := context.WithCancel(context.Background())
	req := newRequest(http.MethodPost, fmt.Sprintf(`{"images":[%q]}`, jpeg)).WithContext(ctx)
	cancel()

	rec := serve(New(testKey, an, nil), req)
	assert.Equal(t, http.StatusOK, rec.Code)
	an.AssertExpectations(t)
}

func TestHealth(t *testing.T) {
	rec := serve(New("", nil, nil), httptest.NewRequest(http.MethodGet, "/api/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, map[string]any{"status": "ok", "provider": false}, decodeBody(t, rec))
}

func TestClientIdentity(t *testing.T) {
	req := httptest.NewRequest(http.MethodPost, "/", nil)
	req.RemoteAddr = "192.0.2.7:51234"
	assert.Equal(t, "192.0.2.7", clientIdentity(req))

	req.Header.Set("X-Forwarded-For", " 10.0.0.1 , 198.51.100.9 ")
	assert.Equal(t, "198.51.100.9", clientIdentity(req))

	req.Header.Add("X-Forwarded-For", "198.51.100.20")
	assert.Equal(t, "198.51.100.20", clientIdentity(req))

	req.Header.Set("X-Forwarded-For", "198.51.100.9, ")
	assert.Equal(t, "192.0.2.7", clientIdentity(req))
}

func TestOriginAllowed(t *testing.T) {
	assert.True(t, OriginAllowed("https://www.vinted.co.uk"))
	assert.True(t, OriginAllowed("chrome-extension://abc"))
	assert.False(t, OriginAllowed("https://vinted.fr"))
	assert.False(t, OriginAllowed("https://www.vinted.fr.evil.example"))
	assert.False(t, OriginAllowed(""))
}
