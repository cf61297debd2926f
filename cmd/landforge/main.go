package main

import (
	"fmt"
	"os"
	"runtime/debug"
	"time"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/cobra"

	"github.com/provide-io/landforge/go/landforge/internal/config"
	"github.com/provide-io/landforge/go/landforge/pkg"
	"github.com/provide-io/landforge/go/landforge/pkg/logging"
)

const version = "0.4.0"

var (
	configPath  string
	logLevel    string
	labelPaths  []string
	region      regionValue
	versionFlag bool

	cfg     *config.Config
	logger  hclog.Logger
	rootCmd *cobra.Command
)

func getBuildTimestamp() string {
	if info, ok := debug.ReadBuildInfo(); ok {
		for _, setting := range info.Settings {
			if setting.Key == "vcs.time" {
				if t, err := time.Parse(time.RFC3339, setting.Value); err == nil {
					return t.UTC().Format(time.RFC3339)
				}
			}
		}
	}
	if exePath, err := os.Executable(); err == nil {
		if stat, err := os.Stat(exePath); err == nil {
			return stat.ModTime().UTC().Format(time.RFC3339)
		}
	}
	return time.Now().UTC().Format(time.RFC3339)
}

func printVersion() {
	fmt.Printf("landforge %s\n", version)
	fmt.Printf("Built: %s\n", getBuildTimestamp())
}

// setup loads the configuration and the logger before any subcommand runs.
func setup(cmd *cobra.Command, args []string) error {
	var err error
	if cfg, err = config.Load(configPath); err != nil {
		return err
	}
	level := cfg.LogLevel
	if logLevel != "" {
		level = logLevel
	}
	logger = logging.NewLogger("landforge", level, nil)
	logger.Debug("⚙️ configuration loaded", "config", configPath, "labels", len(cfg.LabelTables))
	return nil
}

// options builds the facade options from the global flags.
func options() pkg.Options {
	return pkg.Options{
		Config: cfg,
		Labels: labelPaths,
		Region: region.String(),
		Logger: logger,
	}
}

func init() {
	rootCmd = &cobra.Command{
		Use:   "landforge",
		Short: "Extract, edit and rebuild Landstalker ROM resources",
		Long: `landforge turns a Landstalker ROM into an assembly project of resource
files and injects edited projects back into a ROM.`,
		SilenceUsage:      true,
		PersistentPreRunE: setup,
		RunE: func(cmd *cobra.Command, args []string) error {
			if versionFlag {
				printVersion()
				return nil
			}
			return cmd.Help()
		},
	}

	flags := rootCmd.PersistentFlags()
	flags.StringVar(&configPath, "config", "", "Path to landforge.yaml (defaults to ./"+config.DefaultFile+" when present)")
	flags.StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	flags.StringSliceVar(&labelPaths, "labels", nil, "Label table files (.yaml, .json, .jsonc); overrides the configuration")
	flags.Var(&region, "region", "Release region (JP, US, UK, FR, DE, US_BETA); overrides detection")
	rootCmd.Flags().BoolVarP(&versionFlag, "version", "V", false, "Show version information")

	rootCmd.AddCommand(
		infoCmd(),
		verifyCmd(),
		extractCmd(),
		buildCmd(),
		reportCmd(),
		stringsCmd(),
		previewCmd(),
		patchCmd(),
		backupsCmd(),
	)
}

func main() {
	if len(os.Args) > 1 && (os.Args[1] == "--version" || os.Args[1] == "-V") {
		printVersion()
		os.Exit(0)
	}

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
