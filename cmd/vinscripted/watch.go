package main

import (
	"fmt"

	"github.com/raine/vinscripted/internal/content"
	"github.com/raine/vinscripted/internal/page"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
)

var watchCmd = &cobra.Command{
	Use:   "watch <page.html>",
	Short: "Follow the page photos and print the generate button state",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		ctx, cancel := signalContext()
		defer cancel()

		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		settings, err := store.GetSettings()
		if err != nil {
			log.Warn().Err(err).Msg("failed to read settings, using defaults")
		}

		tracker := content.NewTracker(page.NewFileSource(args[0], pageURLFlag))
		tracker.OnChange(func(photos []string) {
			b := content.ButtonState(settings.Language, len(photos), false)
			state := "disabled"
			if b.Enabled {
				state = "enabled"
			}
			fmt.Fprintf(cmd.OutOrStdout(), "[%s] %s (%s)\n", state, b.Label, b.Title)
		})
		tracker.Run(ctx)
		return nil
	},
}
