package llm

import (
	"context"
	"crypto/sha256"
	"encoding/binary"
	"encoding/hex"

	"github.com/raine/vinscripted/internal/listing"
	"github.com/rs/zerolog/log"
)

// CacheStore persists analysis results by content hash.
type CacheStore interface {
	GetAnalysisCache(hash string) (*listing.Result, error)
	SetAnalysisCache(hash string, result *listing.Result) error
}

// CachedAnalyzer wraps an Analyzer with a result cache.
type CachedAnalyzer struct {
	inner Analyzer
	store CacheStore
}

// NewCachedAnalyzer creates a cached analyzer.
func NewCachedAnalyzer(inner Analyzer, store CacheStore) *CachedAnalyzer {
	return &CachedAnalyzer{inner: inner, store: store}
}

// hashRequest hashes the language and every image. Each field is length
// prefixed so [A,B] and [AB] never collide.
func hashRequest(images []listing.EncodedImage, language listing.Language) string {
	h := sha256.New()
	writeField := func(s string) {
		binary.Write(h, binary.LittleEndian, int64(len(s)))
		h.Write([]byte(s))
	}
	writeField(string(language))
	for _, img := range images {
		writeField(img.MimeType)
		writeField(img.Data)
	}
	return hex.EncodeToString(h.Sum(nil))
}

// AnalyzeListing implements the Analyzer interface with caching.
func (c *CachedAnalyzer) AnalyzeListing(ctx context.Context, images []listing.EncodedImage, language listing.Language) (*AnalysisResult, error) {
	hash := hashRequest(images, language)

	if c.store != nil {
		cached, err := c.store.GetAnalysisCache(hash)
		if err != nil {
			log.Warn().Err(err).Msg("failed to check analysis cache")
		} else if cached != nil {
			log.Debug().Str("hash", hash[:16]).Msg("analysis cache hit")
			cached.Normalize()
			return &AnalysisResult{Listing: cached, Usage: Usage{}}, nil
		}
	}

	result, err := c.inner.AnalyzeListing(ctx, images, language)
	if err != nil {
		return nil, err
	}

	// Degraded results are not cached so a retry can get a real answer.
	if c.store != nil && result.Listing != nil && !result.Degraded {
		if err := c.store.SetAnalysisCache(hash, result.Listing); err != nil {
			log.Warn().Err(err).Msg("failed to cache analysis result")
		} else {
			log.Debug().Str("hash", hash[:16]).Msg("cached analysis result")
		}
	}

	return result, nil
}
