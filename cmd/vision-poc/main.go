package main

import (
	"context"
	"flag"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/raine/vinscripted/config"
	"github.com/raine/vinscripted/internal/listing"
	"github.com/raine/vinscripted/internal/llm"
)

func main() {
	provider := flag.String("provider", "both", "gemini, openai or both")
	language := flag.String("lang", string(listing.DefaultLanguage), "output language code")
	model := flag.String("model", "", "model name (default depends on provider)")
	flag.Usage = func() {
		fmt.Fprintf(os.Stderr, "Usage: %s [flags] <image-path>...\n", os.Args[0])
		fmt.Fprintf(os.Stderr, "\nEnvironment variables:\n")
		fmt.Fprintf(os.Stderr, "  GEMINI_API_KEY  - Required for Gemini\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_API_KEY  - Required for OpenAI\n")
		fmt.Fprintf(os.Stderr, "  OPENAI_BASE_URL - Optional OpenAI-compatible endpoint\n\n")
		flag.PrintDefaults()
	}
	flag.Parse()

	if flag.NArg() == 0 {
		flag.Usage()
		os.Exit(1)
	}

	lang, ok := listing.ParseLanguage(*language)
	if !ok {
		fmt.Fprintf(os.Stderr, "Unsupported language: %s (use %s)\n", *language, strings.Join(listing.SupportedLanguageCodes(), ", "))
		os.Exit(1)
	}

	images, err := readImages(flag.Args())
	if err != nil {
		fmt.Fprintf(os.Stderr, "Failed to read image: %v\n", err)
		os.Exit(1)
	}

	config.LoadEnvFile()
	cfg, err := config.LoadGateway()
	if err != nil {
		fmt.Fprintf(os.Stderr, "Invalid configuration: %v\n", err)
		os.Exit(1)
	}
	pc := cfg.ProviderConfig()
	pc.Model = *model

	ctx := context.Background()
	switch *provider {
	case llm.ProviderGemini, llm.ProviderOpenAI:
		pc.Provider = *provider
		run(ctx, pc, images, lang)
	case "both":
		pc.Provider = llm.ProviderGemini
		run(ctx, pc, images, lang)
		fmt.Println("\n" + strings.Repeat("-", 50) + "\n")
		pc.Provider = llm.ProviderOpenAI
		run(ctx, pc, images, lang)
	default:
		fmt.Fprintf(os.Stderr, "Unknown provider: %s (use gemini, openai, or both)\n", *provider)
		os.Exit(1)
	}
}

func run(ctx context.Context, pc llm.ProviderConfig, images []listing.EncodedImage, lang listing.Language) {
	fmt.Printf("=== %s ===\n", strings.ToUpper(pc.Provider))

	analyzer, err := llm.New(ctx, pc)
	if err != nil {
		fmt.Printf("Error creating analyzer: %v\n", err)
		return
	}

	result, err := analyzer.AnalyzeListing(ctx, images, lang)
	if err != nil {
		fmt.Printf("Error analyzing images: %v\n", err)
		fmt.Printf("User message: %s\n", llm.UserMessage(err))
		return
	}

	printResult(result)
}

func printResult(result *llm.AnalysisResult) {
	l := result.Listing
	fmt.Printf("Title:       %s\n", l.Title)
	for _, a := range l.Attributes.Detected() {
		fmt.Printf("%-12s %s\n", a.Name+":", a.Value)
	}
	fmt.Printf("Keywords:    %s\n", strings.Join(l.Keywords, ", "))
	fmt.Printf("Description:\n%s\n", l.Description)
	fmt.Println()
	fmt.Printf("Tokens:      %d in / %d out / %d total\n",
		result.Usage.InputTokens, result.Usage.OutputTokens, result.Usage.TotalTokens)
	fmt.Printf("Cost:        $%.6f\n", result.Usage.CostUSD)
}

func readImages(paths []string) ([]listing.EncodedImage, error) {
	if len(paths) > listing.MaxImages {
		return nil, fmt.Errorf("at most %d images are supported", listing.MaxImages)
	}
	images := make([]listing.EncodedImage, 0, len(paths))
	for _, p := range paths {
		data, err := os.ReadFile(p)
		if err != nil {
			return nil, err
		}
		images = append(images, listing.NewEncodedImage(data, getMimeType(p)))
	}
	return images, nil
}

func getMimeType(path string) string {
	return listing.NormalizeMimeType(strings.TrimPrefix(strings.ToLower(filepath.Ext(path)), "."))
}
