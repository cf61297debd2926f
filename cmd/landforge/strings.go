package main

import (
	"fmt"
	"strconv"

	"github.com/spf13/cobra"

	"github.com/provide-io/landforge/go/landforge/pkg"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/datamanager"
)

func stringsCmd() *cobra.Command {
	var romPath, project, only string
	cmd := &cobra.Command{
		Use:   "strings",
		Short: "Print decoded strings from a ROM or a project",
		RunE: func(cmd *cobra.Command, args []string) error {
			if (romPath == "") == (project == "") {
				return fmt.Errorf("exactly one of --rom and --project is required")
			}
			types := datamanager.StringTypes
			if only != "" {
				t, err := datamanager.ParseStringType(only)
				if err != nil {
					return err
				}
				types = []datamanager.StringType{t}
			}

			g, err := loadGame(romPath, project)
			if err != nil {
				return err
			}

			s := g.Strings
			for _, t := range types {
				n := s.GetStringCount(t)
				if n == 0 {
					continue
				}
				fmt.Printf("# %s (%d)\n", t, n)
				for i := 0; i < n; i++ {
					str, err := s.GetString(t, i)
					if err != nil {
						return err
					}
					fmt.Printf("%04d %s\n", i, strconv.Quote(str))
				}
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&romPath, "rom", "", "ROM image")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project directory")
	cmd.Flags().StringVar(&only, "type", "", "Only this collection (main, character_name, item_name, menu, system)")
	return cmd
}

// loadGame loads from the ROM when romPath is set, else from the project.
func loadGame(romPath, project string) (*datamanager.Game, error) {
	if romPath == "" {
		return pkg.LoadProject(project, options())
	}
	img, err := pkg.OpenRom(romPath, options())
	if err != nil {
		return nil, err
	}
	return pkg.LoadGame(img, options())
}
