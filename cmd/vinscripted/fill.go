package main

import (
	"context"
	"errors"
	"fmt"
	"io"
	"os"

	"github.com/raine/vinscripted/internal/acquire"
	"github.com/raine/vinscripted/internal/content"
	"github.com/raine/vinscripted/internal/page"
	"github.com/raine/vinscripted/internal/writer"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var fillCmd = &cobra.Command{
	Use:   "fill <page.html>",
	Short: "Analyze the page photos and fill in the listing",
	Args:  cobra.ExactArgs(1),
	RunE:  runFill,
}

func runFill(cmd *cobra.Command, args []string) error {
	ctx, cancel := signalContext()
	defer cancel()

	store, err := openStore()
	if err != nil {
		return err
	}
	defer store.Close()

	src := page.NewFileSource(args[0], pageURLFlag)
	doc, err := src.Load()
	if err != nil {
		return err
	}

	workerCtx, stopWorker := context.WithCancel(ctx)
	g, workerCtx := errgroup.WithContext(workerCtx)
	bridge := startWorker(workerCtx, g)

	session := content.NewSession(
		content.NewTracker(src),
		store,
		acquire.New(acquire.NewHTTPLoader(doc.Origin()), bridge),
		bridge,
		writer.New(nil),
		printNotifier,
	)

	outcome, genErr := session.Generate(ctx)

	stopWorker()
	if err := g.Wait(); err != nil && !errors.Is(err, context.Canceled) {
		log.Warn().Err(err).Msg("worker stopped with error")
	}
	if genErr != nil {
		return genErr
	}
	log.Info().Stringer("outcome", outcome).Msg("generation complete")

	if previewFlag != "" {
		if err := writeFile(previewFlag, func(w io.Writer) error {
			return writer.RenderPreview(w, session.LastResult())
		}); err != nil {
			return fmt.Errorf("failed to write preview: %w", err)
		}
	}

	if outFlag == "" {
		return doc.Render(cmd.OutOrStdout())
	}
	return writeFile(outFlag, doc.Render)
}

func writeFile(path string, render func(io.Writer) error) error {
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	if err := render(f); err != nil {
		f.Close()
		return err
	}
	return f.Close()
}
