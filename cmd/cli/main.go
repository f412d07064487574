package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"github.com/himanishpuri/RiffScout/internal/config"
	"github.com/himanishpuri/RiffScout/pkg/riffscout"
)

func main() {
	if err := newRootCmd().Execute(); err != nil {
		os.Exit(1)
	}
}

// app carries state shared by every subcommand.
type app struct {
	cfgPath  string
	jsonOut  bool
	settings *config.Settings
	svc      riffscout.Service
}

func newRootCmd() *cobra.Command {
	a := &app{}

	root := &cobra.Command{
		Use:          "riffscout",
		Short:        "Find guitar resources and analyze the pitch of song audio",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			settings, err := config.Load(viper.New(), a.cfgPath, cmd.Flags())
			if err != nil {
				return err
			}
			settings.ApplyLogLevel()
			a.settings = settings
			return nil
		},
		PersistentPostRunE: func(cmd *cobra.Command, args []string) error {
			if a.svc != nil {
				return a.svc.Close()
			}
			return nil
		},
	}

	pf := root.PersistentFlags()
	pf.StringVarP(&a.cfgPath, "config", "c", "", "config file (default ./riffscout.yaml)")
	pf.BoolVar(&a.jsonOut, "json", false, "print results as JSON")
	pf.String("db", "riffscout.sqlite3", "path to SQLite database")
	pf.String("temp", "/tmp", "temporary directory")
	pf.String("media-dir", "media", "directory for extracted mp3 files")
	pf.String("base-url", "http://localhost:8080", "public URL prefix of media links")
	pf.Int("rate", 44100, "sample rate for local analysis")
	pf.String("key-file", "", "file holding the completion API key")
	pf.String("log-level", "info", "debug, info, warn or error")

	root.AddCommand(
		a.gatherCmd(),
		a.lookupCmd(),
		a.analyzeCmd(),
		a.noteCmd(),
		a.videosCmd(),
		a.ingestCmd(),
		a.spectrogramCmd(),
	)
	return root
}

// service opens the service on first use.
func (a *app) service() (riffscout.Service, error) {
	if a.svc != nil {
		return a.svc, nil
	}
	svc, err := riffscout.NewService(a.settings.ServiceOptions()...)
	if err != nil {
		return nil, fmt.Errorf("failed to create service: %w", err)
	}
	a.svc = svc
	return svc, nil
}

// emit prints v as indented JSON when --json is set and runs human
// otherwise.
func (a *app) emit(w io.Writer, v any, human func()) error {
	if a.jsonOut {
		enc := json.NewEncoder(w)
		enc.SetIndent("", "  ")
		return enc.Encode(v)
	}
	human()
	return nil
}
