// Package worker runs the privileged side of the extension: it owns the
// backend client and answers requests from the page over a message bridge.
package worker

import (
	"context"
	"encoding/json"
	"sync"

	"github.com/raine/vinscripted/internal/listing"
	"github.com/rs/zerolog/log"
)

// Backend is the subset of the proxy client used by the worker.
type Backend interface {
	Submit(ctx context.Context, images []listing.EncodedImage, language listing.Language, endpoint string) (*listing.Result, error)
	FetchRaw(ctx context.Context, imageURL string) (listing.EncodedImage, error)
}

// Envelope carries one JSON-encoded message and the channel for its reply.
type Envelope struct {
	Payload []byte
	Reply   chan<- []byte
}

// Worker handles analyzeImages and fetchImage requests.
type Worker struct {
	backend Backend
}

// New creates a worker.
func New(backend Backend) *Worker {
	return &Worker{backend: backend}
}

// Handle processes a single message. Failures are reported in the response,
// never as a Go error.
func (w *Worker) Handle(ctx context.Context, msg Message) Response {
	switch msg.Action {
	case ActionAnalyzeImages:
		return w.analyze(ctx, msg)
	case ActionFetchImage:
		return w.fetchImage(ctx, msg)
	default:
		log.Warn().Str("action", string(msg.Action)).Msg("unknown worker action")
		return Response{Success: false, Error: MsgUnknownAction}
	}
}

func (w *Worker) analyze(ctx context.Context, msg Message) Response {
	images := make([]listing.EncodedImage, 0, len(msg.Images))
	for i, s := range msg.Images {
		img, err := listing.ParseDataURL(s)
		if err != nil {
			log.Warn().Int("index", i).Err(err).Msg("skipping undecodable image")
			continue
		}
		images = append(images, img)
	}

	lang, ok := listing.ParseLanguage(msg.Language)
	if !ok {
		lang = listing.Language(msg.Language)
	}

	log.Info().Int("imageCount", len(images)).Str("language", string(lang)).Msg("analyzing images")
	result, err := w.backend.Submit(ctx, images, lang, msg.BackendURL)
	if err != nil {
		log.Error().Err(err).Msg("analysis failed")
		return Response{Success: false, Error: listing.ErrorText(err, MsgAnalysisError)}
	}
	return Response{Success: true, Data: result}
}

func (w *Worker) fetchImage(ctx context.Context, msg Message) Response {
	img, err := w.backend.FetchRaw(ctx, msg.URL)
	if err != nil {
		log.Warn().Err(err).Msg("fetch image failed")
		return Response{Success: false, Error: listing.ErrorText(err, MsgFetchError)}
	}
	return Response{Success: true, Base64: img.DataURL()}
}

// Serve answers envelopes until the context is cancelled or the channel is
// closed. Each message is handled on its own goroutine so slow analyses do
// not block image fetches.
func (w *Worker) Serve(ctx context.Context, requests <-chan Envelope) error {
	var wg sync.WaitGroup
	defer wg.Wait()

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case env, ok := <-requests:
			if !ok {
				return nil
			}
			wg.Add(1)
			go func() {
				defer wg.Done()
				env.Reply <- w.handleEnvelope(ctx, env.Payload)
			}()
		}
	}
}

func (w *Worker) handleEnvelope(ctx context.Context, payload []byte) []byte {
	var msg Message
	var resp Response
	if err := json.Unmarshal(payload, &msg); err != nil {
		resp = Response{Success: false, Error: map[string]any{"message": "message invalide"}}
	} else {
		resp = w.Handle(ctx, msg)
	}

	out, err := json.Marshal(resp)
	if err != nil {
		out, _ = json.Marshal(Response{Success: false, Error: err.Error()})
	}
	return out
}
