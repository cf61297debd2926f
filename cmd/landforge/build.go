package main

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/provide-io/landforge/go/landforge/pkg"
)

type buildFlags struct {
	project string
	base    string
	out     string
}

func (f *buildFlags) register(cmd *cobra.Command, withOut bool) {
	cmd.Flags().StringVarP(&f.project, "project", "p", "", "Project directory (required)")
	cmd.Flags().StringVar(&f.base, "rom", "", "Base ROM image the project is injected into (required)")
	required := []string{"project", "rom"}
	if withOut {
		cmd.Flags().StringVarP(&f.out, "out", "o", "", "Output path (required)")
		required = append(required, "out")
	}
	for _, name := range required {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
}

func buildCmd() *cobra.Command {
	var (
		f           buildFlags
		force       bool
		keepBackup  bool
		compression compressionValue
	)
	cmd := &cobra.Command{
		Use:   "build",
		Short: "Inject a project into a copy of a ROM",
		Long: `build loads the project, checks every pending write against the base
ROM and writes the patched image with a fixed checksum. Writes that do
not fit stop the build unless --force is given.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			compression.apply()
			res, err := pkg.Build(f.project, f.base, f.out, pkg.BuildOptions{Force: force, Backup: keepBackup}, options())
			if res != nil && res.Plan != nil {
				renderReport(os.Stdout, res.Plan.Report)
			}
			if errors.Is(err, pkg.ErrDoesNotFit) {
				return fmt.Errorf("%w (use --force to write anyway)", err)
			}
			if err != nil {
				return err
			}
			if res.BackupPath != "" {
				fmt.Printf("Backed up previous %s to %s\n", f.out, res.BackupPath)
			}
			fmt.Printf("Wrote %s: %d bytes injected, checksum %04X\n", f.out, res.Written, res.Checksum)
			return nil
		},
	}
	f.register(cmd, true)
	cmd.Flags().BoolVar(&force, "force", false, "Write even when some resources do not fit")
	cmd.Flags().BoolVar(&keepBackup, "backup", false, "Back up an existing output file first")
	cmd.Flags().Var(&compression, "compression", "Backup compression (none, gzip, bzip2, lz4, zstd)")
	return cmd
}

func reportCmd() *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "report",
		Short: "Show whether a project fits into a ROM without writing anything",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := pkg.PlanBuild(f.project, f.base, options())
			if err != nil {
				return err
			}
			renderReport(os.Stdout, plan.Report)
			if !plan.Fits() {
				return pkg.ErrDoesNotFit
			}
			return nil
		},
	}
	f.register(cmd, false)
	return cmd
}
