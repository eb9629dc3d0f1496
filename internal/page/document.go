// Package page models the host listing page: a document we do not control,
// queried with CSS selectors and mutated through form fields and events.
package page

import "context"

// EventType names a DOM event dispatched on a field.
type EventType string

const (
	EventInput   EventType = "input"
	EventChange  EventType = "change"
	EventKeyDown EventType = "keydown"
	EventKeyUp   EventType = "keyup"
	EventFocus   EventType = "focus"
)

// Image is an <img> element found on the page.
type Image struct {
	// Src is the absolute source URL.
	Src string
	// Width and Height are the rendered dimensions; zero when unknown.
	Width  int
	Height int
}

// Field is an editable form control.
type Field interface {
	Name() string
	Value() string
	SetValue(v string)
	Dispatch(e EventType)
	Focus()
}

// Document is a queryable page.
type Document interface {
	// URL is the page address; image sources are resolved against it.
	URL() string
	// Origin is the scheme://host of the page.
	Origin() string
	// Images returns the images matching selector in document order.
	Images(selector string) []Image
	// Field returns the first control matching selector, or nil.
	Field(selector string) Field
}

// Source yields the current document and notifies structural changes. A nil
// Changes channel means the source only supports polling.
type Source interface {
	Current(ctx context.Context) (Document, error)
	Changes() <-chan struct{}
}
