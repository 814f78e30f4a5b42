// Command harvestctl steuert den MassBank-Harvester von der Kommandozeile.
package main

import (
	"context"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"massbank-harvester/app"
	"massbank-harvester/config"
)

var (
	verbose bool

	cfg     *config.Config
	logging *zap.Logger
)

var rootCmd = &cobra.Command{
	Use:   "harvestctl",
	Short: "MassBank OAI-PMH harvester",
	Long: `harvestctl verwaltet Harvest-Quellen, startet Läufe gegen OAI-PMH-Endpunkte
und bietet Hilfsbefehle für InChI-Berechnungen und Datenbank-Backups.`,
	SilenceUsage: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		var err error
		if verbose {
			logging, err = zap.NewDevelopment()
		} else {
			logging, err = zap.NewProduction()
		}
		if err != nil {
			return fmt.Errorf("can't initialize zap logger: %w", err)
		}
		if cmd.Annotations["offline"] == "true" {
			return nil
		}
		cfg, err = config.Load()
		if err != nil {
			return fmt.Errorf("config load error: %w", err)
		}
		return nil
	},
	PersistentPostRun: func(cmd *cobra.Command, args []string) {
		if logging != nil {
			_ = logging.Sync()
		}
	},
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "development logging")
	rootCmd.AddCommand(migrateCmd, runCmd, sourcesCmd, inchiCmd, backupCmd)
}

// openApp baut die Komponenten ohne Prometheus-Registry.
func openApp(ctx context.Context) (*app.App, error) {
	return app.New(ctx, cfg, logging, nil)
}

func main() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}
