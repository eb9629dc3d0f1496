package llm

import (
	"encoding/json"
	"fmt"
	"regexp"
	"strings"

	"github.com/raine/vinscripted/internal/listing"
	"github.com/rs/zerolog/log"
)

var (
	jsonFencePattern  = regexp.MustCompile("(?s)```json\\s*(.*?)```")
	plainFencePattern = regexp.MustCompile("(?s)```\\s*(.*?)```")
)

type rawListing struct {
	Title       any            `json:"title"`
	Description any            `json:"description"`
	Attributes  map[string]any `json:"attributes"`
	Keywords    any            `json:"keywords"`
}

// stripCodeFence returns the content of the first markdown code block, or
// the text unchanged when there is none.
func stripCodeFence(text string) string {
	if strings.Contains(text, "```json") {
		if m := jsonFencePattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	} else if strings.Contains(text, "```") {
		if m := plainFencePattern.FindStringSubmatch(text); m != nil {
			return m[1]
		}
	}
	return text
}

// ParseListing repairs raw model output into a normalized listing. Output
// that is not JSON or has no description degrades to listing.Fallback.
func ParseListing(text string) *listing.Result {
	result, _ := parseListing(text)
	return result
}

// newAnalysisResult parses model output, marking fallback listings as
// degraded.
func newAnalysisResult(text string, usage Usage) *AnalysisResult {
	result, degraded := parseListing(text)
	return &AnalysisResult{Listing: result, Usage: usage, Degraded: degraded}
}

func parseListing(text string) (*listing.Result, bool) {
	var raw rawListing
	if err := json.Unmarshal([]byte(strings.TrimSpace(stripCodeFence(text))), &raw); err != nil {
		log.Warn().Err(err).Int("length", len(text)).Msg("model output is not valid JSON, using fallback listing")
		return listing.Fallback(text), true
	}

	description, _ := raw.Description.(string)
	if strings.TrimSpace(description) == "" {
		log.Warn().Msg("model output has no description, using fallback listing")
		return listing.Fallback(text), true
	}

	title, _ := raw.Title.(string)
	result := &listing.Result{
		Title:       strings.TrimSpace(title),
		Description: description,
		Attributes: listing.Attributes{
			Category:  attributeString(raw.Attributes, "category"),
			Condition: attributeString(raw.Attributes, "condition"),
			Color:     attributeString(raw.Attributes, "color"),
			Size:      attributeString(raw.Attributes, "size"),
			Brand:     attributeString(raw.Attributes, "brand"),
			Material:  attributeString(raw.Attributes, "material"),
		},
		Keywords: keywordList(raw.Keywords),
	}
	result.Normalize()
	return result, false
}

func attributeString(attrs map[string]any, key string) string {
	s, _ := attrs[key].(string)
	return strings.TrimSpace(s)
}

func keywordList(v any) []string {
	items, ok := v.([]any)
	if !ok {
		return []string{}
	}
	keywords := make([]string, 0, len(items))
	for _, item := range items {
		switch k := item.(type) {
		case string:
			if k = strings.TrimSpace(k); k != "" {
				keywords = append(keywords, k)
			}
		case float64, bool:
			keywords = append(keywords, fmt.Sprint(k))
		}
	}
	return keywords
}
