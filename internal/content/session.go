// Package content runs the listing assistant on a page: it tracks the
// photos shown, drives a generation from photos to filled form and reports
// the outcome to the user.
package content

import (
	"context"
	"errors"
	"sync"
	"sync/atomic"

	"github.com/raine/vinscripted/internal/acquire"
	"github.com/raine/vinscripted/internal/listing"
	"github.com/raine/vinscripted/internal/page"
	"github.com/raine/vinscripted/internal/storage"
	"github.com/raine/vinscripted/internal/writer"
	"github.com/rs/zerolog/log"
)

// ErrBusy is returned when a generation is already running.
var ErrBusy = errors.New("generation already in progress")

// Level is the severity of a user notification.
type Level string

const (
	LevelInfo    Level = "info"
	LevelSuccess Level = "success"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
)

// Notifier shows messages to the user.
type Notifier interface {
	Notify(level Level, message string)
}

// NotifierFunc adapts a function to Notifier.
type NotifierFunc func(level Level, message string)

// Notify implements Notifier.
func (f NotifierFunc) Notify(level Level, message string) { f(level, message) }

// Converter turns photo URLs into encoded images.
type Converter interface {
	ConvertAll(ctx context.Context, sources []string) ([]listing.EncodedImage, error)
}

// Analyzer sends images to the backend through the worker.
type Analyzer interface {
	AnalyzeImages(ctx context.Context, images []listing.EncodedImage, language listing.Language, backendURL string) (*listing.Result, error)
}

// Applier writes a listing into the page.
type Applier interface {
	Apply(doc page.Document, result *listing.Result) (writer.Outcome, error)
}

// Session drives generations for one page.
type Session struct {
	tracker   *Tracker
	settings  storage.SettingsStore
	converter Converter
	analyzer  Analyzer
	applier   Applier
	notifier  Notifier

	busy atomic.Bool

	mu   sync.Mutex
	last *listing.Result
}

// NewSession wires a session. settings may be nil, in which case defaults
// are used.
func NewSession(tracker *Tracker, settings storage.SettingsStore, converter Converter, analyzer Analyzer, applier Applier, notifier Notifier) *Session {
	return &Session{
		tracker:   tracker,
		settings:  settings,
		converter: converter,
		analyzer:  analyzer,
		applier:   applier,
		notifier:  notifier,
	}
}

// Busy reports whether a generation is running.
func (s *Session) Busy() bool {
	return s.busy.Load()
}

// LastResult returns the listing from the last successful analysis.
func (s *Session) LastResult() *listing.Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.last
}

// Button returns the current button state in the configured language.
func (s *Session) Button() Button {
	return ButtonState(s.loadSettings().Language, len(s.tracker.Photos()), s.Busy())
}

// Generate acquires the page photos, analyzes them and fills the form.
// Every failure is also reported to the notifier as a display string.
func (s *Session) Generate(ctx context.Context) (writer.Outcome, error) {
	if !s.busy.CompareAndSwap(false, true) {
		return 0, ErrBusy
	}
	defer s.busy.Store(false)

	outcome, err := s.generate(ctx)
	if err != nil {
		msg := listing.ErrorText(err, MsgConnectionError)
		log.Error().Err(err).Msg("generation failed")
		s.notify(LevelError, msg)
		return 0, err
	}

	switch outcome {
	case writer.Applied:
		s.notify(LevelSuccess, MsgFilled)
	case writer.CopiedToClipboard:
		s.notify(LevelWarning, MsgCopiedFallback)
	}
	return outcome, nil
}

func (s *Session) generate(ctx context.Context) (writer.Outcome, error) {
	photos, doc, err := s.tracker.Current(ctx)
	if err != nil {
		return 0, err
	}
	if len(photos) == 0 {
		return 0, acquire.ErrNoPhotos
	}

	settings := s.loadSettings()

	s.notify(LevelInfo, MsgConvertingImages)
	images, err := s.converter.ConvertAll(ctx, photos)
	if err != nil {
		return 0, err
	}

	log.Info().Int("images", len(images)).Str("language", string(settings.Language)).Msg("sending images for analysis")
	s.notify(LevelInfo, MsgAnalyzing)
	result, err := s.analyzer.AnalyzeImages(ctx, images, settings.Language, settings.BackendURL)
	if err != nil {
		return 0, err
	}
	if result == nil {
		return 0, errors.New(MsgAnalysisError)
	}

	s.mu.Lock()
	s.last = result
	s.mu.Unlock()

	return s.applier.Apply(doc, result)
}

// loadSettings reads settings at call time so changes apply to the next
// generation without a restart.
func (s *Session) loadSettings() storage.Settings {
	if s.settings == nil {
		return storage.DefaultSettings()
	}
	settings, err := s.settings.GetSettings()
	if err != nil {
		log.Warn().Err(err).Msg("failed to read settings, using defaults")
		return storage.DefaultSettings()
	}
	return settings
}

// notify forwards to the notifier. Progress messages are only logged since
// the button already shows progress.
func (s *Session) notify(level Level, message string) {
	if level == LevelInfo {
		log.Debug().Str("message", message).Msg("progress")
		return
	}
	if s.notifier != nil {
		s.notifier.Notify(level, message)
	}
}
