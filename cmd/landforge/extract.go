package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/provide-io/landforge/go/landforge/pkg"
)

func extractCmd() *cobra.Command {
	var romPath, outDir, archive string
	cmd := &cobra.Command{
		Use:   "extract",
		Short: "Write every resource of a ROM as an assembly project",
		RunE: func(cmd *cobra.Command, args []string) error {
			g, err := pkg.Extract(romPath, outDir, archive, options())
			if err != nil {
				return err
			}
			fmt.Printf("Extracted %s (%s) to %s\n", romPath, g.Region, outDir)
			for _, m := range g.Managers() {
				fmt.Printf("  %-10s %s\n", m.Name(), m.State())
			}
			if archive != "" {
				fmt.Printf("Archived to %s\n", archive)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&romPath, "rom", "", "ROM image (required)")
	cmd.Flags().StringVarP(&outDir, "out", "o", "", "Project directory (required)")
	cmd.Flags().StringVar(&archive, "archive", "", "Also pack the project into this .tar[.gz|.bz2|.lz4|.zst] file")
	for _, f := range []string{"rom", "out"} {
		if err := cmd.MarkFlagRequired(f); err != nil {
			panic(err)
		}
	}
	return cmd
}
