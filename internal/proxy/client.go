// Package proxy talks to the analysis backend on behalf of the extension.
package proxy

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/raine/vinscripted/internal/listing"
	"github.com/rs/zerolog/log"
)

const (
	// AnalyzePath is appended to the configured backend URL.
	AnalyzePath = "/api/analyze"

	// DefaultTimeout bounds a single submit attempt.
	DefaultTimeout = 60 * time.Second

	// DefaultMaxRetries is the number of retries after the first attempt.
	DefaultMaxRetries = 2

	// DefaultBackoff is multiplied by the retry number before each retry.
	DefaultBackoff = 1000 * time.Millisecond

	// DefaultFetchTimeout bounds a raw image fetch.
	DefaultFetchTimeout = 30 * time.Second
)

// Client submits images to the backend and fetches raw images.
type Client struct {
	api          *resty.Client
	fetch        *resty.Client
	apiKey       string
	timeout      time.Duration
	fetchTimeout time.Duration
	maxRetries   int
	backoff      time.Duration
	maxImageSize int64
	sleep        func(ctx context.Context, d time.Duration) error
}

// NewClient creates a client that authenticates with apiKey.
func NewClient(apiKey string) *Client {
	return &Client{
		api: resty.New().SetDebug(false),
		// Raw image fetches never carry cookies or the API key.
		fetch:        resty.New().SetDebug(false).SetCookieJar(nil),
		apiKey:       apiKey,
		timeout:      DefaultTimeout,
		fetchTimeout: DefaultFetchTimeout,
		maxRetries:   DefaultMaxRetries,
		backoff:      DefaultBackoff,
		maxImageSize: listing.MaxImageBytes,
		sleep:        sleepContext,
	}
}

// WithTimeout sets the per-attempt submit timeout.
func (c *Client) WithTimeout(timeout time.Duration) *Client {
	c.timeout = timeout
	return c
}

// WithRetry sets the retry budget and linear backoff step.
func (c *Client) WithRetry(maxRetries int, backoff time.Duration) *Client {
	c.maxRetries = maxRetries
	c.backoff = backoff
	return c
}

func sleepContext(ctx context.Context, d time.Duration) error {
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// Submit sends the images to <endpoint>/api/analyze and returns the
// generated listing. Transient failures are retried with linear backoff.
func (c *Client) Submit(ctx context.Context, images []listing.EncodedImage, language listing.Language, endpoint string) (*listing.Result, error) {
	if len(images) == 0 {
		return nil, &listing.Error{Kind: listing.KindValidation, Message: MsgNoImages}
	}
	endpoint = strings.TrimRight(strings.TrimSpace(endpoint), "/")
	if endpoint == "" {
		return nil, &listing.Error{Kind: listing.KindValidation, Message: MsgNoBackendURL}
	}
	if len(images) > listing.MaxImages {
		images = images[:listing.MaxImages]
	}
	if language == "" {
		language = listing.DefaultLanguage
	}

	body := listing.AnalysisRequest{Images: make([]string, len(images)), Language: language}
	for i, img := range images {
		body.Images[i] = img.DataURL()
	}
	url := endpoint + AnalyzePath

	for attempt := 0; ; attempt++ {
		result, err := c.submitOnce(ctx, url, body)
		if err == nil {
			return result, nil
		}
		if attempt >= c.maxRetries || !listing.IsTransient(err) {
			return nil, err
		}

		wait := c.backoff * time.Duration(attempt+1)
		log.Warn().Err(err).Int("retry", attempt+1).Dur("wait", wait).Msg("transient backend failure, retrying")
		if err := c.sleep(ctx, wait); err != nil {
			return nil, fmt.Errorf("submit cancelled: %w", err)
		}
	}
}

func (c *Client) submitOnce(ctx context.Context, url string, body listing.AnalysisRequest) (*listing.Result, error) {
	reqCtx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	resp, err := c.api.R().
		SetContext(reqCtx).
		SetHeader("Content-Type", "application/json").
		SetHeader("Accept", "application/json").
		SetHeader("X-API-Key", c.apiKey).
		SetBody(body).
		Post(url)
	if err != nil {
		if ctx.Err() != nil {
			return nil, fmt.Errorf("submit cancelled: %w", ctx.Err())
		}
		if errors.Is(reqCtx.Err(), context.DeadlineExceeded) {
			return nil, &listing.Error{Kind: listing.KindTimeout, Message: MsgTimeout, Err: err}
		}
		return nil, &listing.Error{Kind: listing.KindNetwork, Message: MsgConnection, Err: err}
	}

	if !resp.IsSuccess() {
		return nil, statusError(resp.StatusCode(), resp.Body())
	}

	var result listing.Result
	if err := json.Unmarshal(resp.Body(), &result); err != nil || strings.TrimSpace(result.Description) == "" {
		return nil, &listing.Error{Kind: listing.KindInvalidResponse, Status: resp.StatusCode(), Message: MsgInvalidResponse, Err: err}
	}
	result.Normalize()
	return &result, nil
}

// statusError turns a non-2xx backend response into a classified error.
// The body's error field may be a string, an object or absent.
func statusError(status int, body []byte) *listing.Error {
	var payload struct {
		Error any `json:"error"`
	}
	_ = json.Unmarshal(body, &payload)
	msg := listing.ErrorText(payload.Error, fmt.Sprintf(MsgHTTPError, status, http.StatusText(status)))

	kind := listing.KindProvider
	switch {
	case status == http.StatusUnauthorized || status == http.StatusForbidden:
		kind = listing.KindAuth
	case status == http.StatusTooManyRequests:
		kind = listing.KindRateLimit
	case status >= 400 && status < 500:
		kind = listing.KindValidation
	}
	return &listing.Error{Kind: kind, Status: status, Message: msg}
}
