package content

import (
	"context"
	"slices"
	"sync"
	"time"

	"github.com/raine/vinscripted/internal/acquire"
	"github.com/raine/vinscripted/internal/listing"
	"github.com/raine/vinscripted/internal/page"
	"github.com/rs/zerolog/log"
)

// PollInterval is the fallback re-scan interval for pages whose structural
// change notifications are missed or unavailable.
const PollInterval = 2 * time.Second

// Tracker owns the current photo set of a page. Generation and button
// state both read it through Current.
type Tracker struct {
	source   page.Source
	interval time.Duration

	mu        sync.Mutex
	photos    []string
	listeners []func([]string)
}

// NewTracker creates a tracker for source.
func NewTracker(source page.Source) *Tracker {
	return &Tracker{source: source, interval: PollInterval}
}

// Current scans the page and returns the photo URLs it shows now. Listeners
// are notified when the set differs from the previous scan.
func (t *Tracker) Current(ctx context.Context) ([]string, page.Document, error) {
	doc, err := t.source.Current(ctx)
	if err != nil {
		return nil, nil, err
	}
	photos := acquire.Scan(doc)

	t.mu.Lock()
	changed := !slices.Equal(photos, t.photos)
	t.photos = photos
	listeners := slices.Clone(t.listeners)
	t.mu.Unlock()

	if changed {
		log.Debug().Int("photos", len(photos)).Msg("photo set changed")
		for _, fn := range listeners {
			fn(slices.Clone(photos))
		}
	}
	return photos, doc, nil
}

// Photos returns the photo set from the last scan without re-scanning.
func (t *Tracker) Photos() []string {
	t.mu.Lock()
	defer t.mu.Unlock()
	return slices.Clone(t.photos)
}

// OnChange registers fn to be called with the new photo set.
func (t *Tracker) OnChange(fn func(photos []string)) {
	t.mu.Lock()
	defer t.mu.Unlock()
	t.listeners = append(t.listeners, fn)
}

// Run re-scans on every change notification and on the fallback poll. It
// blocks until the context is cancelled.
func (t *Tracker) Run(ctx context.Context) {
	log.Info().Dur("interval", t.interval).Msg("starting photo tracker")

	t.refresh(ctx)

	ticker := time.NewTicker(t.interval)
	defer ticker.Stop()

	changes := t.source.Changes()
	for {
		select {
		case <-ctx.Done():
			log.Info().Msg("photo tracker stopped")
			return
		case _, ok := <-changes:
			if !ok {
				changes = nil
				continue
			}
			t.refresh(ctx)
		case <-ticker.C:
			t.refresh(ctx)
		}
	}
}

func (t *Tracker) refresh(ctx context.Context) {
	if _, _, err := t.Current(ctx); err != nil {
		log.Warn().Err(err).Msg("failed to scan page")
	}
}

// Button is the presentation state of the generate button.
type Button struct {
	Enabled bool
	Label   string
	Title   string
}

// ButtonState derives the button for a photo count in the given language.
// A busy session shows the analyzing label.
func ButtonState(lang listing.Language, photos int, busy bool) Button {
	l := labelsFor(lang)
	switch {
	case busy:
		return Button{Enabled: false, Label: l.analyzing, Title: l.analyzing}
	case photos == 0:
		return Button{Enabled: false, Label: l.generate, Title: l.addPhotos}
	default:
		label := l.photoCount(photos)
		return Button{Enabled: true, Label: label, Title: label}
	}
}
