package page

import (
	"context"
	"fmt"
	"os"
	"sync"
	"time"
)

// FileSource re-reads an HTML snapshot from disk when its modification time
// changes. It has no change notifications and relies on polling.
type FileSource struct {
	path    string
	pageURL string

	mu      sync.Mutex
	modTime time.Time
	doc     *HTMLDocument
}

// NewFileSource creates a source for the page saved at path.
func NewFileSource(path, pageURL string) *FileSource {
	return &FileSource{path: path, pageURL: pageURL}
}

// Current implements Source.
func (s *FileSource) Current(_ context.Context) (Document, error) {
	doc, err := s.Load()
	if err != nil {
		return nil, err
	}
	return doc, nil
}

// Load returns the parsed snapshot, re-parsing it if the file changed.
func (s *FileSource) Load() (*HTMLDocument, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	info, err := os.Stat(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to stat page: %w", err)
	}
	if s.doc != nil && info.ModTime().Equal(s.modTime) {
		return s.doc, nil
	}

	f, err := os.Open(s.path)
	if err != nil {
		return nil, fmt.Errorf("failed to open page: %w", err)
	}
	defer f.Close()

	doc, err := ParseHTML(f, s.pageURL)
	if err != nil {
		return nil, err
	}
	s.doc, s.modTime = doc, info.ModTime()
	return doc, nil
}

// Changes implements Source.
func (s *FileSource) Changes() <-chan struct{} {
	return nil
}

// StaticSource serves a fixed document and lets callers signal that its
// structure changed.
type StaticSource struct {
	mu      sync.Mutex
	doc     Document
	changes chan struct{}
}

// NewStaticSource creates a source for doc.
func NewStaticSource(doc Document) *StaticSource {
	return &StaticSource{doc: doc, changes: make(chan struct{}, 1)}
}

// Current implements Source.
func (s *StaticSource) Current(_ context.Context) (Document, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc, nil
}

// Replace swaps the document and signals a change.
func (s *StaticSource) Replace(doc Document) {
	s.mu.Lock()
	s.doc = doc
	s.mu.Unlock()
	s.Notify()
}

// Notify signals a structural change without blocking.
func (s *StaticSource) Notify() {
	select {
	case s.changes <- struct{}{}:
	default:
	}
}

// Changes implements Source.
func (s *StaticSource) Changes() <-chan struct{} {
	return s.changes
}
