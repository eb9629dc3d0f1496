package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/raine/vinscripted/internal/listing"
)

// Bridge is the page-side end of the message channel.
type Bridge struct {
	requests chan Envelope
}

// NewBridge creates a bridge and the request channel a Worker serves.
func NewBridge() (*Bridge, <-chan Envelope) {
	ch := make(chan Envelope)
	return &Bridge{requests: ch}, ch
}

// Send delivers msg to the worker and waits for its reply.
func (b *Bridge) Send(ctx context.Context, msg Message) (Response, error) {
	payload, err := json.Marshal(msg)
	if err != nil {
		return Response{}, fmt.Errorf("failed to encode message: %w", err)
	}

	reply := make(chan []byte, 1)
	select {
	case b.requests <- Envelope{Payload: payload, Reply: reply}:
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}

	select {
	case out := <-reply:
		var resp Response
		if err := json.Unmarshal(out, &resp); err != nil {
			return Response{}, fmt.Errorf("failed to decode reply: %w", err)
		}
		return resp, nil
	case <-ctx.Done():
		return Response{}, ctx.Err()
	}
}

// AnalyzeImages asks the worker to submit the images to the backend.
// Worker-side failures come back as errors carrying a display string.
func (b *Bridge) AnalyzeImages(ctx context.Context, images []listing.EncodedImage, language listing.Language, backendURL string) (*listing.Result, error) {
	msg := Message{
		Action:     ActionAnalyzeImages,
		Images:     make([]string, len(images)),
		Language:   string(language),
		BackendURL: backendURL,
	}
	for i, img := range images {
		msg.Images[i] = img.DataURL()
	}

	resp, err := b.Send(ctx, msg)
	if err != nil {
		return nil, err
	}
	if !resp.Success || resp.Data == nil {
		return nil, errors.New(listing.ErrorText(resp.Error, MsgAnalysisError))
	}
	return resp.Data, nil
}

// FetchImage asks the worker to download url without page restrictions.
func (b *Bridge) FetchImage(ctx context.Context, url string) (listing.EncodedImage, error) {
	resp, err := b.Send(ctx, Message{Action: ActionFetchImage, URL: url})
	if err != nil {
		return listing.EncodedImage{}, err
	}
	if !resp.Success {
		return listing.EncodedImage{}, errors.New(listing.ErrorText(resp.Error, MsgFetchError))
	}
	img, err := listing.ParseDataURL(resp.Base64)
	if err != nil {
		return listing.EncodedImage{}, fmt.Errorf("worker returned an unusable image: %w", err)
	}
	return img, nil
}
