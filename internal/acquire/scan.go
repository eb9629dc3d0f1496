package acquire

import (
	"net/url"
	"strings"

	"github.com/raine/vinscripted/internal/listing"
	"github.com/raine/vinscripted/internal/page"
)

// MinDimension is the smallest accepted width and height in pixels.
// Images must be strictly larger on both axes.
const MinDimension = 100

// PhotoSelectors locate uploaded listing photos, most specific first.
var PhotoSelectors = []string{
	`[data-testid="photo-upload"] img`,
	`.upload-dropzone img`,
	`.photos-container img`,
	`[class*="photo"] img[src*="vinted"]`,
	`img[src*="images1.vinted"]`,
	`img[src*="images.vinted"]`,
}

// excludedSources are substrings of trackers, consent widgets and UI chrome.
var excludedSources = []string{
	"cookielaw.org",
	"onetrust.com",
	"braze.eu",
	"google",
	"facebook",
	"analytics",
	"tracking",
	"cdn.vinted.net/assets",
	"badge",
	"icon",
	"logo",
	"avatar",
}

var allowedHosts = []string{"vinted.net", "vinted.com"}

// Scan returns up to listing.MaxImages candidate photo URLs in selector
// priority order, deduplicated by source.
func Scan(doc page.Document) []string {
	seen := make(map[string]bool)
	var sources []string

	for _, selector := range PhotoSelectors {
		for _, img := range doc.Images(selector) {
			if seen[img.Src] {
				continue
			}
			seen[img.Src] = true

			if !isCandidate(img) {
				continue
			}
			sources = append(sources, img.Src)
			if len(sources) == listing.MaxImages {
				return sources
			}
		}
	}
	return sources
}

func isCandidate(img page.Image) bool {
	if strings.HasPrefix(img.Src, "data:") {
		return false
	}
	if isExcluded(img.Src) || !isVintedHost(img.Src) {
		return false
	}
	if img.Width != 0 && img.Width <= MinDimension {
		return false
	}
	if img.Height != 0 && img.Height <= MinDimension {
		return false
	}
	return true
}

func isExcluded(src string) bool {
	lower := strings.ToLower(src)
	for _, s := range excludedSources {
		if strings.Contains(lower, s) {
			return true
		}
	}
	return false
}

func isVintedHost(src string) bool {
	u, err := url.Parse(src)
	if err != nil {
		return false
	}
	host := strings.ToLower(u.Hostname())
	for _, h := range allowedHosts {
		if host == h || strings.HasSuffix(host, "."+h) {
			return true
		}
	}
	return false
}
