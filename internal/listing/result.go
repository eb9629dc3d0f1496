package listing

import "unicode/utf8"

const (
	// NotDetected marks an attribute the model could not determine.
	NotDetected = "Non détecté"

	// DefaultTitle is used when a parsed result has no title.
	DefaultTitle = "Article Vinted"

	// FallbackTitle is used when the model output could not be parsed.
	FallbackTitle = "Article à vendre"

	// FallbackDescriptionLength caps the raw text reused as description.
	FallbackDescriptionLength = 1000
)

// AnalysisRequest is the body sent to the analysis endpoint.
type AnalysisRequest struct {
	Images   []string `json:"images"`
	Language Language `json:"language"`
}

// Attributes holds the fixed set of listing attributes.
type Attributes struct {
	Category  string `json:"category"`
	Condition string `json:"condition"`
	Color     string `json:"color"`
	Size      string `json:"size"`
	Brand     string `json:"brand"`
	Material  string `json:"material"`
}

// Result is a generated listing.
type Result struct {
	Title       string     `json:"title"`
	Description string     `json:"description"`
	Attributes  Attributes `json:"attributes"`
	Keywords    []string   `json:"keywords"`
}

// DefaultAttributes returns attributes with every key set to NotDetected.
func DefaultAttributes() Attributes {
	return Attributes{
		Category:  NotDetected,
		Condition: NotDetected,
		Color:     NotDetected,
		Size:      NotDetected,
		Brand:     NotDetected,
		Material:  NotDetected,
	}
}

// Normalize fills empty attributes with NotDetected, an empty title with
// DefaultTitle and nil keywords with an empty list. It is idempotent.
func (r *Result) Normalize() {
	if r.Title == "" {
		r.Title = DefaultTitle
	}
	for _, v := range r.Attributes.fields() {
		if *v == "" {
			*v = NotDetected
		}
	}
	if r.Keywords == nil {
		r.Keywords = []string{}
	}
}

// Detected returns the attributes that were determined, keyed by name, in
// display order.
func (a Attributes) Detected() []Attribute {
	names := []string{"category", "condition", "color", "size", "brand", "material"}
	var out []Attribute
	for i, v := range a.fields() {
		if *v != "" && *v != NotDetected {
			out = append(out, Attribute{Name: names[i], Value: *v})
		}
	}
	return out
}

// Attribute is a single named attribute value.
type Attribute struct {
	Name  string
	Value string
}

func (a *Attributes) fields() []*string {
	return []*string{&a.Category, &a.Condition, &a.Color, &a.Size, &a.Brand, &a.Material}
}

// Fallback builds the degraded result used when the model output is not
// valid JSON or lacks a description.
func Fallback(raw string) *Result {
	return &Result{
		Title:       FallbackTitle,
		Description: truncateRunes(raw, FallbackDescriptionLength),
		Attributes:  DefaultAttributes(),
		Keywords:    []string{},
	}
}

func truncateRunes(s string, n int) string {
	if utf8.RuneCountInString(s) <= n {
		return s
	}
	runes := []rune(s)
	return string(runes[:n])
}
