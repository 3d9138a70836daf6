package main

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	_ "time/tzdata"

	"github.com/rs/zerolog"
	"github.com/spf13/cobra"

	"github.com/CrowderSoup/smartcalendar/database"
	"github.com/CrowderSoup/smartcalendar/services"
)

var Version = "dev"

var (
	configPath string
	envFile    string
)

func main() {
	rootCmd := &cobra.Command{
		Use:     "smartcalendar",
		Short:   "Calendar and kanban board backend",
		Version: Version,
		RunE:    runServe,
	}
	rootCmd.PersistentFlags().StringVarP(&configPath, "config", "c", "smartcalendar.toml", "TOML config file")
	rootCmd.PersistentFlags().StringVar(&envFile, "env-file", ".env", "dotenv file")

	rootCmd.AddCommand(serveCmd())
	rootCmd.AddCommand(snapshotCmd())
	rootCmd.AddCommand(resetCmd())

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

// app holds what every command needs.
type app struct {
	cfg   services.Config
	log   zerolog.Logger
	db    *sql.DB
	kv    *database.KV
	store *database.Store
}

func openApp() (*app, error) {
	cfg, err := services.LoadConfig(configPath, envFile)
	if err != nil {
		return nil, err
	}
	log := services.NewLogger(os.Stderr, cfg.LogLevel, cfg.LogPretty)

	db, err := database.OpenDB(cfg.DatabasePath)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize database: %w", err)
	}

	kv := database.NewKV(db)
	store, err := database.NewStore(
		database.NewDocumentBackend(kv, cfg.StorageKey),
		database.WithLogger(log.With().Str("component", "store").Logger()),
	)
	if err != nil {
		db.Close()
		return nil, err
	}

	return &app{cfg: cfg, log: log, db: db, kv: kv, store: store}, nil
}

func (a *app) Close() error {
	return a.db.Close()
}

func snapshotCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "snapshot",
		Short: "Print the stored document as JSON",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.store.Snapshot(context.Background())
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			enc.SetIndent("", "  ")
			return enc.Encode(doc)
		},
	}
}

func resetCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "reset",
		Short: "Discard the stored document and write the seed data",
		RunE: func(cmd *cobra.Command, args []string) error {
			a, err := openApp()
			if err != nil {
				return err
			}
			defer a.Close()

			doc, err := a.store.Reset(context.Background())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "reset: %d categories, %d events, %d tasks\n",
				len(doc.Categories), len(doc.Events), len(doc.Tasks))
			return nil
		},
	}
}
