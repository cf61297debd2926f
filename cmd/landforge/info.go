package main

import (
	"fmt"
	"os"

	"github.com/fatih/color"
	"github.com/spf13/cobra"

	"github.com/provide-io/landforge/go/landforge/pkg"
)

func infoCmd() *cobra.Command {
	var romPath string
	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show region, size, checksum and fingerprint of a ROM",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, _, err := pkg.InspectRom(romPath, options())
			if err != nil {
				return err
			}
			printInfo(info)
			return nil
		},
	}
	cmd.Flags().StringVar(&romPath, "rom", "", "ROM image (required)")
	if err := cmd.MarkFlagRequired("rom"); err != nil {
		panic(err)
	}
	return cmd
}

func printInfo(info *pkg.RomInfo) {
	checksum := color.GreenString("valid")
	if !info.ChecksumValid() {
		checksum = color.RedString("invalid")
	}
	fmt.Printf("File:        %s\n", info.Path)
	fmt.Printf("Size:        %d bytes\n", info.Size)
	fmt.Printf("Region:      %s (built %s)\n", info.Region, info.BuildDate)
	fmt.Printf("Checksum:    stored %04X, calculated %04X, %s\n", info.StoredChecksum, info.CalculatedChecksum, checksum)
	fmt.Printf("Fingerprint: %s\n", info.Fingerprint)
}

func verifyCmd() *cobra.Command {
	var romPath string
	cmd := &cobra.Command{
		Use:   "verify",
		Short: "Check a ROM's checksum, label table and resources",
		RunE: func(cmd *cobra.Command, args []string) error {
			info, err := pkg.VerifyRomWithLogger(romPath, options(), logger.Named("verify"))
			if info != nil {
				printInfo(info)
				for _, p := range info.Problems {
					fmt.Fprintf(os.Stderr, "  %s %s\n", color.RedString("✗"), p)
				}
			}
			return err
		},
	}
	cmd.Flags().StringVar(&romPath, "rom", "", "ROM image (required)")
	if err := cmd.MarkFlagRequired("rom"); err != nil {
		panic(err)
	}
	return cmd
}
