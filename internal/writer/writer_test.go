package writer

import (
	"bytes"
	"errors"
	"strings"
	"testing"

	"github.com/raine/vinscripted/internal/listing"
	"github.com/raine/vinscripted/internal/page"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type fakeClipboard struct {
	text string
	err  error
}

func (f *fakeClipboard) WriteAll(text string) error {
	if f.err != nil {
		return f.err
	}
	f.text = text
	return nil
}

func parsePage(t *testing.T, body string) *page.HTMLDocument {
	t.Helper()
	doc, err := page.ParseHTML(strings.NewReader("<html><body>"+body+"</body></html>"), "https://www.vinted.fr/items/new")
	require.NoError(t, err)
	return doc
}

var testResult = &listing.Result{
	Title:       "Veste en jean Levi's",
	Description: "Veste en très bon état.",
	Attributes:  listing.DefaultAttributes(),
	Keywords:    []string{"veste", "jean"},
}

func TestApply_FillsFields(t *testing.T) {
	doc := parsePage(t, `<input name="title"><textarea placeholder="Décris ton article"></textarea>`)
	cb := &fakeClipboard{}

	outcome, err := New(cb).Apply(doc, testResult)

	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, "Veste en jean Levi's", doc.Field(`input[name="title"]`).Value())
	assert.Equal(t, "Veste en très bon état.\n\n#veste #jean", doc.Field("textarea").Value())
	assert.Empty(t, cb.text)

	var types []page.EventType
	for _, e := range doc.Events() {
		types = append(types, e.Type)
	}
	assert.Equal(t, []page.EventType{
		page.EventInput, page.EventChange,
		page.EventInput, page.EventChange, page.EventKeyDown, page.EventKeyUp, page.EventFocus,
	}, types)
	assert.Equal(t, "textarea", doc.Focused())
}

func TestApply_NoTitleField(t *testing.T) {
	doc := parsePage(t, `<textarea name="description"></textarea>`)

	outcome, err := New(&fakeClipboard{}).Apply(doc, testResult)

	require.NoError(t, err)
	assert.Equal(t, Applied, outcome)
	assert.Equal(t, "description", doc.Focused())
}

func TestApply_ClipboardFallback(t *testing.T) {
	doc := parsePage(t, `<input id="title">`)
	cb := &fakeClipboard{}

	outcome, err := New(cb).Apply(doc, testResult)

	require.NoError(t, err)
	assert.Equal(t, CopiedToClipboard, outcome)
	assert.Equal(t, "Veste en très bon état.\n\n#veste #jean", cb.text)
	assert.Equal(t, "Veste en jean Levi's", doc.Field("#title").Value())
}

func TestApply_ClipboardError(t *testing.T) {
	doc := parsePage(t, `<p></p>`)

	_, err := New(&fakeClipboard{err: errors.New("no display")}).Apply(doc, testResult)
	assert.Error(t, err)
}

func TestApply_EmptyDescription(t *testing.T) {
	_, err := New(&fakeClipboard{}).Apply(parsePage(t, ""), &listing.Result{Title: "x"})
	assert.ErrorIs(t, err, ErrEmptyDescription)
}

func TestDescriptionText_NoKeywords(t *testing.T) {
	assert.Equal(t, "Sac.", DescriptionText(&listing.Result{Description: "Sac.", Keywords: []string{}}))
}

func TestRenderPreview_EscapesAndHidesUndetected(t *testing.T) {
	attrs := listing.DefaultAttributes()
	attrs.Brand = "Zara"
	result := &listing.Result{
		Title:       `<script>alert("x")</script>`,
		Description: "Robe <b>légère</b>",
		Attributes:  attrs,
		Keywords:    []string{"robe", "été"},
	}

	var buf bytes.Buffer
	require.NoError(t, RenderPreview(&buf, result))
	out := buf.String()

	assert.NotContains(t, out, "<script>")
	assert.Contains(t, out, "&lt;script&gt;")
	assert.Contains(t, out, "Robe &lt;b&gt;légère&lt;/b&gt;")
	assert.Contains(t, out, "<strong>Marque</strong> Zara")
	assert.NotContains(t, out, listing.NotDetected)
	assert.Contains(t, out, "#robe #été")
}
