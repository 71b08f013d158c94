// Command s3smartsync mirrors a local directory tree to an S3 prefix,
// creating directory marker keys with ownership metadata before transferring
// files.
package main

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"github.com/lmittmann/tint"
	"github.com/mattn/go-isatty"
	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	smartsync "github.com/compbio-tools/s3smartsync"
	syncerrors "github.com/compbio-tools/s3smartsync/errors"
)

const defaultMetadata = `{"uid":"6812","gid":"6812"}`

// logLevel is shared between the handler created in main and bindConfig,
// which raises it to debug once the verbose flag and environment are bound.
var logLevel = new(slog.LevelVar)

var rootCmd = &cobra.Command{
	Use:   "s3smartsync <localdir> <bucket/prefix>",
	Short: "Sync a local directory to S3 with directory markers and ownership metadata",
	Long: `s3smartsync mirrors a local directory tree to an S3 prefix.

Before any file moves, every directory in the tree gets a marker key in the
bucket carrying ownership metadata, so filesystem-style consumers of the
bucket see a complete directory hierarchy. Files are then transferred with
file metadata attached; files whose remote copy is already current are
skipped.`,
	Args: cobra.ExactArgs(2),
	PreRunE: func(cmd *cobra.Command, _ []string) error {
		return bindConfig(cmd)
	},
	RunE: func(cmd *cobra.Command, args []string) error {
		attrs, err := smartsync.ParseAttributes(viper.GetString("metadata"))
		if err != nil {
			return err
		}

		var opts []smartsync.Option
		if profile := viper.GetString("profile"); profile != "" {
			opts = append(opts, smartsync.WithProfile(profile))
		}
		if region := viper.GetString("region"); region != "" {
			opts = append(opts, smartsync.WithRegion(region))
		}
		if endpoint := viper.GetString("endpoint"); endpoint != "" {
			opts = append(opts, smartsync.WithEndpoint(endpoint))
		}
		if viper.GetBool("path_style") {
			opts = append(opts, smartsync.WithForcePathStyle(true))
		}
		opts = append(opts, smartsync.WithConcurrency(viper.GetInt("concurrency")))

		client, err := smartsync.New(opts...)
		if err != nil {
			return err
		}

		// usage is no help once configuration has been accepted
		cmd.SilenceUsage = true

		result, err := client.Sync(cmd.Context(), args[0], args[1],
			smartsync.WithBaseAttributes(attrs),
		)
		if err != nil {
			if rerr, ok := syncerrors.IsReconcile(err); ok {
				return fmt.Errorf("sync failed during %s for key %q: %w", rerr.Phase, rerr.Key, rerr.Err)
			}
			return err
		}

		slog.Info("done",
			"keys_created", result.KeysCreated,
			"keys_updated", result.KeysUpdated,
			"keys_unchanged", result.KeysUnchanged,
			"files_uploaded", result.FilesUploaded,
			"files_skipped", result.FilesSkipped,
			"bytes", result.BytesUploaded,
			"duration", result.Duration,
		)
		return nil
	},
}

func init() {
	rootCmd.Flags().SortFlags = false
	rootCmd.Flags().StringP("metadata", "m", defaultMetadata, "Object metadata as a JSON object of string values")
	rootCmd.Flags().StringP("profile", "p", "", "AWS shared config profile")
	rootCmd.Flags().StringP("region", "r", "", "AWS region")
	rootCmd.Flags().String("endpoint", "", "Custom S3 endpoint URL")
	rootCmd.Flags().Bool("path-style", false, "Use path-style S3 addressing")
	rootCmd.Flags().IntP("concurrency", "j", 5, "Maximum concurrent S3 operations")
	rootCmd.Flags().BoolP("verbose", "v", false, "Enable debug logging")
}

func bindConfig(cmd *cobra.Command) error {
	viper.BindPFlag("metadata", cmd.Flags().Lookup("metadata"))
	viper.BindPFlag("profile", cmd.Flags().Lookup("profile"))
	viper.BindPFlag("region", cmd.Flags().Lookup("region"))
	viper.BindPFlag("endpoint", cmd.Flags().Lookup("endpoint"))
	viper.BindPFlag("path_style", cmd.Flags().Lookup("path-style"))
	viper.BindPFlag("concurrency", cmd.Flags().Lookup("concurrency"))
	viper.BindPFlag("verbose", cmd.Flags().Lookup("verbose"))

	viper.SetEnvPrefix("S3SMARTSYNC")
	viper.AutomaticEnv()

	if viper.GetBool("verbose") {
		logLevel.Set(slog.LevelDebug)
	}

	return nil
}

func main() {
	logger := slog.New(tint.NewHandler(os.Stderr, &tint.Options{
		Level:      logLevel,
		TimeFormat: "15:04:05",
		NoColor:    !isatty.IsTerminal(os.Stderr.Fd()),
	}))
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd.ExecuteContext(ctx); err != nil {
		slog.Error("sync failed", "error", err)
		os.Exit(1)
	}
}
