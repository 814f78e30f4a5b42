package main

import (
	"errors"
	"fmt"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"massbank-harvester/storage"
)

var backupCmd = &cobra.Command{
	Use:   "backup",
	Short: "Dump catalog and auxiliary database to S3 and rotate old backups",
	RunE: func(cmd *cobra.Command, args []string) error {
		if !cfg.S3Enabled() {
			return errors.New("backup requires S3_URL and S3_BUCKET")
		}
		ctx := cmd.Context()
		client, err := storage.NewS3Client(ctx, cfg)
		if err != nil {
			return fmt.Errorf("S3 client creation failed: %w", err)
		}

		targets := map[string]storage.DumpTarget{
			"catalog": {Host: cfg.DBHost, Port: cfg.DBPort, User: cfg.DBUser, Password: cfg.DBPassword, Database: cfg.DBName},
			"aux":     {Host: cfg.AuxDBHost, Port: cfg.AuxDBPort, User: cfg.AuxDBUser, Password: cfg.AuxDBPassword, Database: cfg.AuxDBName},
		}
		for _, name := range []string{"catalog", "aux"} {
			logging.Info("Erstelle Datenbank-Dump", zap.String("database", name))
			data, err := storage.CreateDump(ctx, targets[name])
			if err != nil {
				return fmt.Errorf("dump %s: %w", name, err)
			}

			b := &storage.Backup{
				Client: client,
				Bucket: cfg.S3Bucket,
				Prefix: "backups/" + name + "/",
				Keep:   cfg.BackupKeep,
				Logger: logging,
			}
			key, err := b.Upload(ctx, data, time.Now())
			if err != nil {
				return fmt.Errorf("upload %s: %w", name, err)
			}
			if _, err := b.Rotate(ctx); err != nil {
				return fmt.Errorf("rotate %s: %w", name, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "s3://%s/%s\n", cfg.S3Bucket, key)
		}
		return nil
	},
}
