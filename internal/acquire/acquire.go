// Package acquire collects the listing photos shown on the page and turns
// them into encoded images ready for analysis.
package acquire

import (
	"bytes"
	"context"
	"fmt"
	"image"
	"net/url"
	"strconv"
	"time"

	"github.com/disintegration/imaging"
	"github.com/raine/vinscripted/internal/listing"
	"github.com/raine/vinscripted/internal/page"
	"github.com/rs/zerolog/log"
	_ "golang.org/x/image/webp"
	"golang.org/x/sync/errgroup"
)

const (
	// JPEGQuality is used when re-encoding rendered images.
	JPEGQuality = 85

	// DefaultConcurrency bounds parallel conversions.
	DefaultConcurrency = 4

	cacheBustParam = "_cors"
)

var (
	ErrNoPhotos         = &listing.Error{Kind: listing.KindValidation, Message: "Veuillez d'abord ajouter des photos"}
	ErrConversionFailed = &listing.Error{Kind: listing.KindValidation, Message: "Impossible de convertir les images. Essayez de rafraîchir la page."}
)

// Loader loads image bytes from inside the page, subject to the page's
// cross-origin restrictions.
type Loader interface {
	Load(ctx context.Context, imageURL string) ([]byte, error)
}

// Fetcher downloads an image through the privileged worker.
type Fetcher interface {
	FetchImage(ctx context.Context, imageURL string) (listing.EncodedImage, error)
}

// Acquirer converts page photos to encoded images.
type Acquirer struct {
	loader      Loader
	fetcher     Fetcher
	concurrency int
	maxBytes    int
	now         func() time.Time
}

// New creates an acquirer. The fetcher is used for images the page cannot
// render itself.
func New(loader Loader, fetcher Fetcher) *Acquirer {
	return &Acquirer{
		loader:      loader,
		fetcher:     fetcher,
		concurrency: DefaultConcurrency,
		maxBytes:    listing.MaxImageBytes,
		now:         time.Now,
	}
}

// Acquire scans doc and converts every candidate photo. Images that fail
// both conversion paths are dropped. It returns ErrNoPhotos when the page
// shows no photos and ErrConversionFailed when none could be converted.
func (a *Acquirer) Acquire(ctx context.Context, doc page.Document) ([]listing.EncodedImage, error) {
	return a.ConvertAll(ctx, Scan(doc))
}

// ConvertAll converts sources concurrently, preserving their order.
func (a *Acquirer) ConvertAll(ctx context.Context, sources []string) ([]listing.EncodedImage, error) {
	if len(sources) == 0 {
		return nil, ErrNoPhotos
	}

	converted := make([]*listing.EncodedImage, len(sources))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(a.concurrency)
	for i, src := range sources {
		g.Go(func() error {
			img, err := a.Convert(gctx, src)
			if err != nil {
				log.Warn().Err(err).Str("src", truncate(src, 60)).Msg("dropping image")
				return nil
			}
			converted[i] = &img
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	images := make([]listing.EncodedImage, 0, len(sources))
	for _, img := range converted {
		if img != nil {
			images = append(images, *img)
		}
	}

	log.Info().Int("candidates", len(sources)).Int("converted", len(images)).Msg("acquired images")
	if len(images) == 0 {
		return nil, ErrConversionFailed
	}
	return images, nil
}

// Convert renders src in the page and falls back to the worker fetch.
func (a *Acquirer) Convert(ctx context.Context, src string) (listing.EncodedImage, error) {
	img, err := a.render(ctx, src)
	if err == nil {
		return img, nil
	}
	log.Debug().Err(err).Str("src", truncate(src, 60)).Msg("in-page render failed, using worker fetch")

	if a.fetcher == nil {
		return listing.EncodedImage{}, err
	}
	img, ferr := a.fetcher.FetchImage(ctx, src)
	if ferr != nil {
		return listing.EncodedImage{}, fmt.Errorf("render: %v; fetch: %w", err, ferr)
	}
	if ferr := checkFetched(img); ferr != nil {
		return listing.EncodedImage{}, fmt.Errorf("render: %v; fetch: %w", err, ferr)
	}
	return img, nil
}

// checkFetched applies the decoded-size filter to a worker-fetched image.
func checkFetched(img listing.EncodedImage) error {
	data, err := img.Bytes()
	if err != nil {
		return fmt.Errorf("invalid image data: %w", err)
	}
	decoded, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return fmt.Errorf("failed to decode image: %w", err)
	}
	return checkDimensions(decoded)
}

func checkDimensions(img image.Image) error {
	b := img.Bounds()
	if b.Dx() <= MinDimension || b.Dy() <= MinDimension {
		return fmt.Errorf("image too small: %dx%d", b.Dx(), b.Dy())
	}
	return nil
}

// render loads the image with a cache-busting parameter, decodes it and
// re-encodes it as JPEG.
func (a *Acquirer) render(ctx context.Context, src string) (listing.EncodedImage, error) {
	if a.loader == nil {
		return listing.EncodedImage{}, fmt.Errorf("no in-page loader")
	}

	data, err := a.loader.Load(ctx, a.cacheBust(src))
	if err != nil {
		return listing.EncodedImage{}, err
	}

	img, err := imaging.Decode(bytes.NewReader(data), imaging.AutoOrientation(true))
	if err != nil {
		return listing.EncodedImage{}, fmt.Errorf("failed to decode image: %w", err)
	}
	if err := checkDimensions(img); err != nil {
		return listing.EncodedImage{}, err
	}

	var buf bytes.Buffer
	if err := imaging.Encode(&buf, img, imaging.JPEG, imaging.JPEGQuality(JPEGQuality)); err != nil {
		return listing.EncodedImage{}, fmt.Errorf("failed to encode image: %w", err)
	}
	if buf.Len() > a.maxBytes {
		return listing.EncodedImage{}, fmt.Errorf("rendered image too large: %d bytes", buf.Len())
	}
	return listing.NewEncodedImage(buf.Bytes(), "image/jpeg"), nil
}

func (a *Acquirer) cacheBust(src string) string {
	u, err := url.Parse(src)
	if err != nil {
		return src
	}
	q := u.Query()
	q.Set(cacheBustParam, strconv.FormatInt(a.now().UnixMilli(), 10))
	u.RawQuery = q.Encode()
	return u.String()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
