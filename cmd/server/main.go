//go:build !js && !wasm
// +build !js,!wasm

package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/himanishpuri/RiffScout/internal/config"
	"github.com/himanishpuri/RiffScout/pkg/logger"
	"github.com/himanishpuri/RiffScout/pkg/riffscout"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

func newRootCmd() *cobra.Command {
	var cfgPath string

	cmd := &cobra.Command{
		Use:          "riffscout-server",
		Short:        "Serve the RiffScout HTTP API",
		SilenceUsage: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(viper.New(), cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			settings.ApplyLogLevel()

			service, err := riffscout.NewService(settings.ServiceOptions()...)
			if err != nil {
				return fmt.Errorf("failed to create service: %w", err)
			}
			defer service.Close()

			ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			server := NewServer(service, &ServerConfig{
				Port:           settings.Server.Port,
				DBPath:         settings.DB.Path,
				MediaDir:       settings.Media.Dir,
				SampleRate:     settings.Audio.SampleRate,
				AllowedOrigins: settings.Server.Origins,
			})
			if err := server.Run(ctx); err != nil {
				logger.Errorf("Server failed: %v", err)
				return err
			}
			return nil
		},
	}

	flags := cmd.Flags()
	flags.StringVarP(&cfgPath, "config", "c", "", "config file (default ./riffscout.yaml)")
	flags.Int("port", 8080, "HTTP server port")
	flags.StringSlice("origins", []string{"*"}, "allowed CORS origins (use * for all)")
	flags.String("db", "riffscout.sqlite3", "path to SQLite database")
	flags.String("temp", "/tmp", "temporary directory")
	flags.String("media-dir", "media", "directory served under /media")
	flags.String("base-url", "http://localhost:8080", "public URL prefix of /media links")
	flags.Int("rate", 44100, "sample rate for local analysis")
	flags.String("key-file", "", "file holding the completion API key")
	flags.String("log-level", "info", "debug, info, warn or error")

	return cmd
}
