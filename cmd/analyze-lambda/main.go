// Package main runs the analysis API as an AWS Lambda function behind an
// HTTP API (payload format 2.0).
//
// Configuration comes from the same environment variables as the server.
// The in-memory rate limiter only sees requests routed to one execution
// environment; set VINSCRIPTED_RATE_DRIVER=redis to share counts.
package main

import (
	"context"
	"errors"
	"net/http"

	"github.com/aws/aws-lambda-go/lambda"
	"github.com/awslabs/aws-lambda-go-api-proxy/httpadapter"
	"github.com/raine/vinscripted/config"
	"github.com/raine/vinscripted/internal/gateway"
	"github.com/raine/vinscripted/internal/llm"
	"github.com/raine/vinscripted/internal/logging"
	"github.com/raine/vinscripted/internal/ratelimit"
	"github.com/rs/zerolog/log"
)

var handler http.Handler

func init() {
	cfg, err := config.LoadGateway()
	if err != nil {
		logging.Init("info")
		log.Fatal().Err(err).Msg("invalid configuration")
	}
	logging.Init(cfg.LogLevel)

	analyzer, err := llm.New(context.Background(), cfg.ProviderConfig())
	if err != nil {
		if !errors.Is(err, llm.ErrMissingCredential) {
			log.Fatal().Err(err).Msg("failed to initialize model provider")
		}
		log.Error().Str("provider", cfg.Provider).Msg("model provider credential not configured")
		analyzer = nil
	}

	limiter, err := ratelimit.New(cfg.RateLimitConfig())
	if err != nil {
		log.Fatal().Err(err).Msg("failed to initialize rate limiter")
	}

	handler = gateway.New(cfg.APIKey, analyzer, limiter).Init()
	log.Info().Str("provider", cfg.Provider).Str("rateDriver", cfg.RateDriver).Msg("analysis Lambda initialized")
}

func main() {
	adapter := httpadapter.NewV2(handler)
	lambda.Start(adapter.ProxyWithContext)
}
