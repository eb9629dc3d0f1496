package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/raine/vinscripted/config"
	"github.com/raine/vinscripted/internal/content"
	"github.com/raine/vinscripted/internal/logging"
	"github.com/raine/vinscripted/internal/proxy"
	"github.com/raine/vinscripted/internal/storage"
	"github.com/raine/vinscripted/internal/worker"
	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

// CLI flags
var (
	pageURLFlag string
	outFlag     string
	previewFlag string
)

// rootCmd is the main Cobra command for the vinscripted client.
var rootCmd = &cobra.Command{
	Use:   "vinscripted",
	Short: "Generate Vinted listing descriptions from your photos",
	Long: `Vinscripted reads a saved Vinted "sell an item" page, sends the listing
photos to the analysis backend and fills in the title and description.

Examples:
  vinscripted fill page.html --out filled.html
  vinscripted fill page.html --preview preview.html
  vinscripted watch page.html
  vinscripted settings set language en
  vinscripted settings get`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		config.LoadEnvFile()
		cfg, err := config.LoadClient()
		if err != nil {
			return err
		}
		clientCfg = cfg
		logging.Init(cfg.LogLevel)
		return nil
	},
}

var clientCfg config.Client

func init() {
	fillCmd.Flags().StringVar(&pageURLFlag, "url", defaultPageURL, "URL the page was saved from")
	fillCmd.Flags().StringVarP(&outFlag, "out", "o", "", "Write the filled page here (default: stdout)")
	fillCmd.Flags().StringVar(&previewFlag, "preview", "", "Write an HTML preview of the generated listing here")
	watchCmd.Flags().StringVar(&pageURLFlag, "url", defaultPageURL, "URL the page was saved from")

	settingsCmd.AddCommand(settingsGetCmd, settingsSetCmd)
	rootCmd.AddCommand(fillCmd, watchCmd, settingsCmd)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

const defaultPageURL = "https://www.vinted.fr/items/new"

func openStore() (*storage.SQLiteStore, error) {
	store, err := storage.NewSQLiteStore(clientCfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open settings database: %w", err)
	}
	return store, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// startWorker runs the privileged worker in g and returns the bridge that
// talks to it.
func startWorker(ctx context.Context, g *errgroup.Group) *worker.Bridge {
	bridge, requests := worker.NewBridge()
	w := worker.New(proxy.NewClient(clientCfg.ExtensionKey))
	g.Go(func() error {
		return w.Serve(ctx, requests)
	})
	return bridge
}

// printNotifier shows notifications on stderr.
var printNotifier = content.NotifierFunc(func(level content.Level, message string) {
	switch level {
	case content.LevelError:
		log.Error().Msg(message)
	case content.LevelWarning:
		log.Warn().Msg(message)
	default:
		log.Info().Msg(message)
	}
})
