// landforge-patch applies a .lfpatch file to a ROM without needing the
// project or label tables it was exported from.
package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provide-io/landforge/go/landforge/internal/config"
	"github.com/provide-io/landforge/go/landforge/pkg"
	"github.com/provide-io/landforge/go/landforge/pkg/logging"
)

const version = "0.4.0"

func main() {
	var (
		configPath, logLevel, outPath string
		force, keepBackup             bool
	)

	rootCmd := &cobra.Command{
		Use:           "landforge-patch ROM PATCH",
		Short:         "Apply a landforge patch file to a Landstalker ROM",
		Version:       version,
		Args:          cobra.ExactArgs(2),
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(configPath)
			if err != nil {
				return err
			}
			level := cfg.LogLevel
			if logLevel != "" {
				level = logLevel
			}
			logger := logging.NewLogger("landforge-patch", level, nil)

			romPath, patchPath := args[0], args[1]
			if outPath == "" {
				outPath = romPath
			}
			n, err := pkg.ApplyPatch(romPath, patchPath, outPath, force, keepBackup, pkg.Options{
				Config: cfg,
				Logger: logger,
			})
			if err != nil {
				logger.Error("❌ patch failed", "rom", romPath, "patch", patchPath, "error", err)
				return err
			}
			fmt.Printf("Patched %s: %d bytes written\n", outPath, n)
			return nil
		},
	}
	rootCmd.Flags().StringVar(&configPath, "config", "", "Path to landforge.yaml")
	rootCmd.Flags().StringVar(&logLevel, "log-level", "", "Log level (trace, debug, info, warn, error)")
	rootCmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (defaults to overwriting ROM)")
	rootCmd.Flags().BoolVar(&force, "force", false, "Apply even when ROM is not the patch's base image")
	rootCmd.Flags().BoolVar(&keepBackup, "backup", true, "Back up the file being overwritten")

	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
