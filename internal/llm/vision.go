package llm

import (
	"context"

	"github.com/raine/vinscripted/internal/listing"
)

// Usage contains token usage and cost information.
type Usage struct {
	InputTokens  int64
	OutputTokens int64
	TotalTokens  int64
	CostUSD      float64
}

// AnalysisResult contains the generated listing and usage information.
type AnalysisResult struct {
	Listing *listing.Result
	Usage   Usage
	// Degraded is set when the model output could not be parsed and
	// Listing is the fallback listing.
	Degraded bool
}

// Analyzer turns a batch of product photos into a listing.
type Analyzer interface {
	// AnalyzeListing sends the prompt and all images in a single model call.
	// A non-nil result always carries a normalized listing.
	AnalyzeListing(ctx context.Context, images []listing.EncodedImage, language listing.Language) (*AnalysisResult, error)
}

// Decoding parameters shared by all providers.
const (
	Temperature     = 0.4
	MaxOutputTokens = 1024
)

func calculateCost(inputTokens, outputTokens int64, inputPrice, outputPrice float64) float64 {
	inputCost := float64(inputTokens) / 1_000_000 * inputPrice
	outputCost := float64(outputTokens) / 1_000_000 * outputPrice
	return inputCost + outputCost
}
