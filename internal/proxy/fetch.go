package proxy

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strings"

	"github.com/raine/vinscripted/internal/listing"
	"github.com/rs/zerolog/log"
)

// FetchRaw downloads an image without credentials and returns it encoded.
// It is the privileged path used when the page cannot render an image.
func (c *Client) FetchRaw(ctx context.Context, imageURL string) (listing.EncodedImage, error) {
	u, err := url.Parse(imageURL)
	if err != nil || (u.Scheme != "http" && u.Scheme != "https") {
		return listing.EncodedImage{}, &listing.Error{Kind: listing.KindValidation, Message: MsgInvalidImageURL, Err: err}
	}

	reqCtx, cancel := context.WithTimeout(ctx, c.fetchTimeout)
	defer cancel()

	resp, err := c.fetch.R().
		SetContext(reqCtx).
		SetDoNotParseResponse(true).
		Get(imageURL)
	if err != nil {
		return listing.EncodedImage{}, &listing.Error{Kind: listing.KindNetwork, Message: MsgConnection, Err: err}
	}
	body := resp.RawBody()
	defer body.Close()

	if resp.StatusCode() != http.StatusOK {
		return listing.EncodedImage{}, &listing.Error{
			Kind:    listing.KindNetwork,
			Status:  resp.StatusCode(),
			Message: fmt.Sprintf(MsgHTTPError, resp.StatusCode(), http.StatusText(resp.StatusCode())),
		}
	}

	contentType := resp.Header().Get("Content-Type")
	if contentType != "" && !strings.HasPrefix(contentType, "image/") {
		return listing.EncodedImage{}, &listing.Error{Kind: listing.KindValidation, Message: MsgInvalidImageType}
	}

	if resp.RawResponse.ContentLength > c.maxImageSize {
		return listing.EncodedImage{}, &listing.Error{Kind: listing.KindValidation, Message: MsgImageTooLarge}
	}

	// LimitReader enforces the limit even if Content-Length is missing or wrong
	data, err := io.ReadAll(io.LimitReader(body, c.maxImageSize+1))
	if err != nil {
		return listing.EncodedImage{}, &listing.Error{Kind: listing.KindNetwork, Message: MsgConnection, Err: err}
	}
	if int64(len(data)) > c.maxImageSize {
		return listing.EncodedImage{}, &listing.Error{Kind: listing.KindValidation, Message: MsgImageTooLarge}
	}

	log.Debug().Str("url", truncate(imageURL, 60)).Int("bytes", len(data)).Msg("fetched raw image")
	return listing.NewEncodedImage(data, contentType), nil
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
