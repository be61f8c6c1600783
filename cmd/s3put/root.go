package main

import (
	"io/fs"
	"log/slog"
	"os"

	"github.com/derektruong/s3put"
	"github.com/go-logr/logr"
	"github.com/joho/godotenv"
	"github.com/pkg/errors"
	"github.com/spf13/cobra"
)

const defaultEnvFile = ".env"

// newRootCommand builds the s3put command. Logs go to logger, verbose
// lowers level to debug.
func newRootCommand(logger logr.Logger, level *slog.LevelVar) *cobra.Command {
	var (
		envFile string
		verbose bool
	)
	cmd := &cobra.Command{
		Use:   "s3put [specifier]",
		Short: "Upload files to an S3-compatible object store",
		Long: `Upload a file, a directory (recursively) or the files of the current
directory matching comma-separated *.ext patterns to an S3-compatible
object store, one transfer at a time.

The specifier defaults to FILE. Settings are read from the environment:
S3_BUCKET, S3_ENDPOINT, S3_ACCESS_KEY_ID and S3_SECRET_ACCESS_KEY are
required; S3_PATH, S3_ACL, CONTENT_TYPE, PUBLIC_FILES, S3_REGION,
S3_PART_SIZE, S3_QUEUE_SIZE, S3_MAX_RETRIES, S3_CONNECT_TIMEOUT,
S3_RESPONSE_TIMEOUT and S3_MAX_BANDWIDTH are optional.`,
		Args:          cobra.MaximumNArgs(1),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) (err error) {
			if verbose {
				level.Set(slog.LevelDebug)
			}
			if err = loadEnvFile(envFile, cmd.Flags().Changed("env-file")); err != nil {
				return
			}

			var cfg s3put.Config
			if cfg, err = s3put.LoadConfig(os.LookupEnv); err != nil {
				return
			}
			if len(args) == 1 {
				cfg.File = args[0]
			}

			store, err := s3put.NewS3Store(logger, cfg)
			if err != nil {
				return
			}
			uploader, err := s3put.NewUploader(logger, cfg, store,
				s3put.WithOutput(cmd.OutOrStdout()),
				s3put.WithErrorOutput(cmd.ErrOrStderr()),
			)
			if err != nil {
				return
			}
			return uploader.Run(cmd.Context())
		},
	}
	cmd.Flags().StringVar(&envFile, "env-file", defaultEnvFile,
		"file of KEY=value lines loaded into the environment, variables already set win")
	cmd.Flags().BoolVarP(&verbose, "verbose", "v", false, "log every request and retry")
	return cmd
}

// loadEnvFile loads path into the environment. A missing default file is
// not an error.
func loadEnvFile(path string, explicit bool) error {
	if err := godotenv.Load(path); err != nil {
		if !explicit && errors.Is(err, fs.ErrNotExist) {
			return nil
		}
		return errors.Wrapf(err, "unable to load %s", path)
	}
	return nil
}

// reportError logs err unless it is a failed upload, which the uploader has
// already reported.
func reportError(logger logr.Logger, err error) {
	var transferErr *s3put.TransferError
	if errors.As(err, &transferErr) {
		return
	}
	logger.Error(err, "upload run failed")
}
