package proxy

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/raine/vinscripted/internal/listing"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var testImages = []listing.EncodedImage{{MimeType: "image/jpeg", Data: "AAAA"}}

const okBody = `{"title":"Veste","description":"Belle veste.","attributes":{"brand":"Zara"},"keywords":["veste"]}`

func newTestClient(sleeps *[]time.Duration) *Client {
	c := NewClient("secret-key")
	c.sleep = func(ctx context.Context, d time.Duration) error {
		*sleeps = append(*sleeps, d)
		return nil
	}
	return c
}

func TestSubmit_Success(t *testing.T) {
	var got listing.AnalysisRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, AnalyzePath, r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, "secret-key", r.Header.Get("X-API-Key"))
		assert.Equal(t, "application/json", r.Header.Get("Accept"))
		require.NoError(t, json.NewDecoder(r.Body).Decode(&got))
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte(okBody))
	}))
	defer ts.Close()

	var sleeps []time.Duration
	res, err := newTestClient(&sleeps).Submit(context.Background(), testImages, listing.English, ts.URL+"/")

	require.NoError(t, err)
	assert.Equal(t, "Veste", res.Title)
	assert.Equal(t, "Zara", res.Attributes.Brand)
	assert.Equal(t, listing.NotDetected, res.Attributes.Color)
	assert.Equal(t, []string{"data:image/jpeg;base64,AAAA"}, got.Images)
	assert.Equal(t, listing.English, got.Language)
	assert.Empty(t, sleeps)
}

func TestSubmit_RetriesTransientOnce(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if atomic.AddInt32(&calls, 1) == 1 {
			w.WriteHeader(http.StatusServiceUnavailable)
			return
		}
		w.Write([]byte(okBody))
	}))
	defer ts.Close()

	var sleeps []time.Duration
	res, err := newTestClient(&sleeps).Submit(context.Background(), testImages, listing.French, ts.URL)

	require.NoError(t, err)
	assert.Equal(t, "Veste", res.Title)
	assert.Equal(t, int32(2), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{DefaultBackoff}, sleeps)
}

func TestSubmit_GivesUpAfterMaxRetries(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.WriteHeader(http.StatusBadGateway)
	}))
	defer ts.Close()

	var sleeps []time.Duration
	_, err := newTestClient(&sleeps).Submit(context.Background(), testImages, listing.French, ts.URL)

	require.Error(t, err)
	assert.Equal(t, "Erreur HTTP 502: Bad Gateway", err.Error())
	assert.Equal(t, int32(3), atomic.LoadInt32(&calls))
	assert.Equal(t, []time.Duration{DefaultBackoff, 2 * DefaultBackoff}, sleeps)
}

func TestSubmit_ClientErrorNotRetried(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusBadRequest)
		w.Write([]byte(`{"error":"Maximum 10 images autorisées"}`))
	}))
	defer ts.Close()

	var sleeps []time.Duration
	_, err := newTestClient(&sleeps).Submit(context.Background(), testImages, listing.French, ts.URL)

	require.Error(t, err)
	assert.Equal(t, "Maximum 10 images autorisées", listing.ErrorText(err, ""))
	assert.Equal(t, listing.KindValidation, listing.KindOf(err))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
	assert.Empty(t, sleeps)
}

func TestSubmit_ErrorPayloadShapes(t *testing.T) {
	cases := []struct {
		body string
		want string
	}{
		{`{"error":{"message":"Clé API invalide ou manquante"}}`, "Clé API invalide ou manquante"},
		{`{"error":"Origine non autorisée"}`, "Origine non autorisée"},
		{`{}`, "Erreur HTTP 403: Forbidden"},
		{`not json`, "Erreur HTTP 403: Forbidden"},
	}
	for _, tc := range cases {
		ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			w.WriteHeader(http.StatusForbidden)
			w.Write([]byte(tc.body))
		}))

		var sleeps []time.Duration
		_, err := newTestClient(&sleeps).Submit(context.Background(), testImages, listing.French, ts.URL)
		ts.Close()

		require.Error(t, err)
		assert.Equal(t, tc.want, err.Error(), "body %s", tc.body)
		assert.Equal(t, listing.KindAuth, listing.KindOf(err))
	}
}

func TestSubmit_InvalidResponse(t *testing.T) {
	var calls int32
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		atomic.AddInt32(&calls, 1)
		w.Write([]byte(`{"title":"Veste","description":""}`))
	}))
	defer ts.Close()

	var sleeps []time.Duration
	_, err := newTestClient(&sleeps).Submit(context.Background(), testImages, listing.French, ts.URL)

	require.Error(t, err)
	assert.Equal(t, listing.KindInvalidResponse, listing.KindOf(err))
	assert.Equal(t, MsgInvalidResponse, listing.ErrorText(err, ""))
	assert.Equal(t, int32(1), atomic.LoadInt32(&calls))
}

func TestSubmit_Timeout(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		select {
		case <-r.Context().Done():
		case <-time.After(2 * time.Second):
		}
	}))
	defer ts.Close()

	c := NewClient("k").WithTimeout(50 * time.Millisecond).WithRetry(0, 0)
	_, err := c.Submit(context.Background(), testImages, listing.French, ts.URL)

	require.Error(t, err)
	assert.Equal(t, listing.KindTimeout, listing.KindOf(err))
	assert.Equal(t, MsgTimeout, listing.ErrorText(err, ""))
	assert.True(t, listing.IsTransient(err))
}

func TestSubmit_NetworkError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {}))
	url := ts.URL
	ts.Close()

	var sleeps []time.Duration
	_, err := newTestClient(&sleeps).Submit(context.Background(), testImages, listing.French, url)

	require.Error(t, err)
	assert.Equal(t, listing.KindNetwork, listing.KindOf(err))
	assert.Len(t, sleeps, DefaultMaxRetries)
}

func TestSubmit_Validation(t *testing.T) {
	c := NewClient("k")

	_, err := c.Submit(context.Background(), nil, listing.French, "http://localhost")
	assert.Equal(t, MsgNoImages, listing.ErrorText(err, ""))

	_, err = c.Submit(context.Background(), testImages, listing.French, "  ")
	assert.Equal(t, MsgNoBackendURL, listing.ErrorText(err, ""))
}

func TestSubmit_TruncatesToMaxImages(t *testing.T) {
	var got listing.AnalysisRequest
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		json.NewDecoder(r.Body).Decode(&got)
		w.Write([]byte(okBody))
	}))
	defer ts.Close()

	images := make([]listing.EncodedImage, 12)
	for i := range images {
		images[i] = listing.EncodedImage{MimeType: "image/png", Data: "AAAA"}
	}

	_, err := NewClient("k").Submit(context.Background(), images, "", ts.URL)
	require.NoError(t, err)
	assert.Len(t, got.Images, listing.MaxImages)
	assert.Equal(t, listing.French, got.Language)
}
