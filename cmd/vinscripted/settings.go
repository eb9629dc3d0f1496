package main

import (
	"fmt"

	"github.com/raine/vinscripted/internal/storage"
	"github.com/spf13/cobra"
)

var settingsCmd = &cobra.Command{
	Use:   "settings",
	Short: "Show or change the output language and backend URL",
}

var settingsGetCmd = &cobra.Command{
	Use:   "get",
	Short: "Print the current settings",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		s, err := store.GetSettings()
		if err != nil {
			return err
		}
		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "%s=%s (%s)\n", storage.KeyLanguage, s.Language, s.Language.DisplayName())
		fmt.Fprintf(out, "%s=%s\n", storage.KeyBackendURL, s.BackendURL)
		return nil
	},
}

var settingsSetCmd = &cobra.Command{
	Use:   "set <language|backendUrl> <value>",
	Short: "Change a setting",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		store, err := openStore()
		if err != nil {
			return err
		}
		defer store.Close()

		if err := store.SetSetting(args[0], args[1]); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s=%s\n", args[0], args[1])
		return nil
	},
}
