package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provide-io/landforge/go/landforge/pkg"
)

func patchCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "patch",
		Short: "Export or apply portable patch files",
	}
	cmd.AddCommand(patchExportCmd(), patchApplyCmd())
	return cmd
}

func patchExportCmd() *cobra.Command {
	var f buildFlags
	cmd := &cobra.Command{
		Use:   "export",
		Short: "Write a project's changes against a base ROM as a .lfpatch file",
		RunE: func(cmd *cobra.Command, args []string) error {
			plan, err := pkg.ExportPatch(f.project, f.base, f.out, options())
			if err != nil {
				return err
			}
			if !plan.Fits() {
				logger.Warn("⚠️ exported patch holds writes that do not fit", "error", plan.Report.CheckFits())
			}
			fmt.Printf("Wrote %s: %d writes against %s\n", f.out, plan.Writes.Len(), plan.Base.Fingerprint())
			return nil
		},
	}
	f.register(cmd, true)
	return cmd
}

func patchApplyCmd() *cobra.Command {
	var outPath string
	var force, keepBackup bool
	cmd := &cobra.Command{
		Use:   "apply ROM PATCH",
		Short: "Apply a .lfpatch file to a ROM",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			return applyPatch(args[0], args[1], outPath, force, keepBackup)
		},
	}
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output path (defaults to overwriting ROM)")
	cmd.Flags().BoolVar(&force, "force", false, "Apply even when ROM is not the patch's base image")
	cmd.Flags().BoolVar(&keepBackup, "backup", true, "Back up the file being overwritten")
	return cmd
}

func applyPatch(romPath, patchPath, outPath string, force, keepBackup bool) error {
	if outPath == "" {
		outPath = romPath
	}
	n, err := pkg.ApplyPatch(romPath, patchPath, outPath, force, keepBackup, options())
	if err != nil {
		return err
	}
	fmt.Printf("Patched %s: %d bytes written\n", outPath, n)
	return nil
}
