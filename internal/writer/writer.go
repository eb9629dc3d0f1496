// Package writer fills the listing form with a generated listing.
package writer

import (
	"errors"
	"fmt"
	"strings"

	"github.com/atotto/clipboard"
	"github.com/raine/vinscripted/internal/listing"
	"github.com/raine/vinscripted/internal/page"
	"github.com/rs/zerolog/log"
)

// Outcome reports how a listing was delivered.
type Outcome int

const (
	// Applied means the description field was filled in place.
	Applied Outcome = iota + 1
	// CopiedToClipboard means no description field was found.
	CopiedToClipboard
)

func (o Outcome) String() string {
	switch o {
	case Applied:
		return "applied"
	case CopiedToClipboard:
		return "copied_to_clipboard"
	default:
		return "unknown"
	}
}

// TitleSelectors locate the title input, most specific first.
var TitleSelectors = []string{
	`input[name="title"]`,
	`#title`,
	`[data-testid="title-input"]`,
	`input[placeholder*="titre"]`,
	`input[placeholder*="Titre"]`,
}

// DescriptionSelectors locate the description textarea, most specific first.
var DescriptionSelectors = []string{
	`textarea[name="description"]`,
	`#description`,
	`[data-testid="description-input"]`,
	`textarea[placeholder*="description"]`,
	`textarea[placeholder*="Description"]`,
	`textarea[placeholder*="décri"]`,
	`textarea[placeholder*="Décri"]`,
}

// descriptionEvents are dispatched so reactive form frameworks pick up the
// new value.
var descriptionEvents = []page.EventType{page.EventInput, page.EventChange, page.EventKeyDown, page.EventKeyUp}

// ErrEmptyDescription is returned for a listing with nothing to write.
var ErrEmptyDescription = errors.New("listing has no description")

// Clipboard receives the description when the form field is missing.
type Clipboard interface {
	WriteAll(text string) error
}

// SystemClipboard writes to the OS clipboard.
type SystemClipboard struct{}

// WriteAll implements Clipboard.
func (SystemClipboard) WriteAll(text string) error {
	return clipboard.WriteAll(text)
}

// Writer applies listings to a page.
type Writer struct {
	clipboard Clipboard
}

// New creates a writer. A nil clipboard uses the system clipboard.
func New(cb Clipboard) *Writer {
	if cb == nil {
		cb = SystemClipboard{}
	}
	return &Writer{clipboard: cb}
}

// Apply writes the title (when a title field exists) and the description
// followed by hashtags. Without a description field the text goes to the
// clipboard instead.
func (w *Writer) Apply(doc page.Document, result *listing.Result) (Outcome, error) {
	if result == nil || strings.TrimSpace(result.Description) == "" {
		return 0, ErrEmptyDescription
	}

	if title := findField(doc, TitleSelectors); title != nil && result.Title != "" {
		title.SetValue(result.Title)
		title.Dispatch(page.EventInput)
		title.Dispatch(page.EventChange)
	} else {
		log.Debug().Msg("title field not found")
	}

	text := DescriptionText(result)
	desc := findField(doc, DescriptionSelectors)
	if desc == nil {
		if err := w.clipboard.WriteAll(text); err != nil {
			return 0, fmt.Errorf("failed to copy description: %w", err)
		}
		log.Info().Msg("description field not found, copied to clipboard")
		return CopiedToClipboard, nil
	}

	desc.SetValue(text)
	for _, e := range descriptionEvents {
		desc.Dispatch(e)
	}
	desc.Focus()
	return Applied, nil
}

// DescriptionText is the description with keywords appended as hashtags.
func DescriptionText(result *listing.Result) string {
	if len(result.Keywords) == 0 {
		return result.Description
	}
	tags := make([]string, len(result.Keywords))
	for i, k := range result.Keywords {
		tags[i] = "#" + k
	}
	return result.Description + "\n\n" + strings.Join(tags, " ")
}

func findField(doc page.Document, selectors []string) page.Field {
	for _, s := range selectors {
		if f := doc.Field(s); f != nil {
			return f
		}
	}
	return nil
}
