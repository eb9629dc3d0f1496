package acquire

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
)

const (
	// DefaultLoadTimeout bounds a single in-page image load.
	DefaultLoadTimeout = 20 * time.Second

	// maxRenderBytes caps images loaded for re-encoding.
	maxRenderBytes = 20 * 1024 * 1024
)

// ErrCrossOrigin is returned when the image host does not allow the page
// origin to read the pixels.
var ErrCrossOrigin = errors.New("image is not readable cross-origin")

// HTTPLoader loads images the way the page would: requests carry the page
// origin and the response must opt in with Access-Control-Allow-Origin.
type HTTPLoader struct {
	client  *resty.Client
	origin  string
	timeout time.Duration
}

// NewHTTPLoader creates a loader for a page served from origin.
func NewHTTPLoader(origin string) *HTTPLoader {
	return &HTTPLoader{
		client:  resty.New().SetDebug(false),
		origin:  origin,
		timeout: DefaultLoadTimeout,
	}
}

// Load implements Loader.
func (l *HTTPLoader) Load(ctx context.Context, imageURL string) ([]byte, error) {
	reqCtx, cancel := context.WithTimeout(ctx, l.timeout)
	defer cancel()

	resp, err := l.client.R().
		SetContext(reqCtx).
		SetHeader("Origin", l.origin).
		SetDoNotParseResponse(true).
		Get(imageURL)
	if err != nil {
		return nil, fmt.Errorf("failed to load image: %w", err)
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return nil, fmt.Errorf("load failed: status %d", resp.StatusCode())
	}

	allow := resp.Header().Get("Access-Control-Allow-Origin")
	if allow != "*" && allow != l.origin {
		return nil, ErrCrossOrigin
	}

	data, err := io.ReadAll(io.LimitReader(body, maxRenderBytes+1))
	if err != nil {
		return nil, fmt.Errorf("failed to read image data: %w", err)
	}
	if len(data) > maxRenderBytes {
		return nil, fmt.Errorf("image too large: exceeds limit of %d bytes", maxRenderBytes)
	}
	return data, nil
}
