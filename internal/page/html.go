package page

import (
	"fmt"
	"io"
	"net/url"
	"strconv"
	"strings"
	"sync"

	"github.com/PuerkitoBio/goquery"
	"golang.org/x/net/html"
)

// Event records a dispatched event.
type Event struct {
	Type  EventType
	Field string
}

// HTMLDocument is a Document backed by a parsed HTML snapshot. Field
// mutations change the tree and can be written back out with Render.
type HTMLDocument struct {
	mu        sync.Mutex
	doc       *goquery.Document
	url       *url.URL
	events    []Event
	focused   string
	listeners []func(Event)
}

// ParseHTML parses an HTML page served at pageURL.
func ParseHTML(r io.Reader, pageURL string) (*HTMLDocument, error) {
	u, err := url.Parse(pageURL)
	if err != nil {
		return nil, fmt.Errorf("invalid page URL: %w", err)
	}
	doc, err := goquery.NewDocumentFromReader(r)
	if err != nil {
		return nil, fmt.Errorf("failed to parse page: %w", err)
	}
	return &HTMLDocument{doc: doc, url: u}, nil
}

// URL implements Document.
func (d *HTMLDocument) URL() string {
	return d.url.String()
}

// Origin implements Document.
func (d *HTMLDocument) Origin() string {
	return d.url.Scheme + "://" + d.url.Host
}

// Images implements Document.
func (d *HTMLDocument) Images(selector string) []Image {
	d.mu.Lock()
	defer d.mu.Unlock()

	var images []Image
	d.doc.Find(selector).Each(func(_ int, s *goquery.Selection) {
		if goquery.NodeName(s) != "img" {
			return
		}
		src, ok := s.Attr("src")
		if !ok || strings.TrimSpace(src) == "" {
			return
		}
		images = append(images, Image{
			Src:    d.resolve(src),
			Width:  intAttr(s, "width"),
			Height: intAttr(s, "height"),
		})
	})
	return images
}

func (d *HTMLDocument) resolve(src string) string {
	ref, err := url.Parse(strings.TrimSpace(src))
	if err != nil {
		return src
	}
	return d.url.ResolveReference(ref).String()
}

func intAttr(s *goquery.Selection, name string) int {
	v, ok := s.Attr(name)
	if !ok {
		return 0
	}
	n, err := strconv.Atoi(strings.TrimSuffix(strings.TrimSpace(v), "px"))
	if err != nil {
		return 0
	}
	return n
}

// Field implements Document.
func (d *HTMLDocument) Field(selector string) Field {
	d.mu.Lock()
	defer d.mu.Unlock()

	sel := d.doc.Find(selector).First()
	if sel.Length() == 0 {
		return nil
	}
	return &htmlField{doc: d, sel: sel}
}

// OnEvent registers a listener called for every dispatched event.
func (d *HTMLDocument) OnEvent(fn func(Event)) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.listeners = append(d.listeners, fn)
}

// Events returns the events dispatched so far.
func (d *HTMLDocument) Events() []Event {
	d.mu.Lock()
	defer d.mu.Unlock()
	return append([]Event(nil), d.events...)
}

// Focused returns the name of the focused field, or "".
func (d *HTMLDocument) Focused() string {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.focused
}

// Render writes the current tree as HTML.
func (d *HTMLDocument) Render(w io.Writer) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	return html.Render(w, d.doc.Nodes[0])
}

func (d *HTMLDocument) dispatch(e Event) {
	d.mu.Lock()
	d.events = append(d.events, e)
	if e.Type == EventFocus {
		d.focused = e.Field
	}
	listeners := append([]func(Event)(nil), d.listeners...)
	d.mu.Unlock()

	for _, fn := range listeners {
		fn(e)
	}
}

type htmlField struct {
	doc *HTMLDocument
	sel *goquery.Selection
}

func (f *htmlField) Name() string {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	for _, attr := range []string{"name", "id", "data-testid"} {
		if v, ok := f.sel.Attr(attr); ok && v != "" {
			return v
		}
	}
	return goquery.NodeName(f.sel)
}

func (f *htmlField) Value() string {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	if goquery.NodeName(f.sel) == "textarea" {
		return f.sel.Text()
	}
	return f.sel.AttrOr("value", "")
}

func (f *htmlField) SetValue(v string) {
	f.doc.mu.Lock()
	defer f.doc.mu.Unlock()

	if goquery.NodeName(f.sel) == "textarea" {
		f.sel.SetText(v)
		return
	}
	f.sel.SetAttr("value", v)
}

func (f *htmlField) Dispatch(e EventType) {
	f.doc.dispatch(Event{Type: e, Field: f.Name()})
}

func (f *htmlField) Focus() {
	f.doc.dispatch(Event{Type: EventFocus, Field: f.Name()})
}
