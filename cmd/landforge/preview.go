package main

import (
	"fmt"
	"image"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/provide-io/landforge/go/landforge/internal/config"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/codec"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/datamanager"
	"github.com/provide-io/landforge/go/landforge/pkg/engine/preview"
)

func findTileset(g *datamanager.Game, name string) (*codec.Tileset, error) {
	if ts, err := g.Graphics.GetTileset(name); err == nil {
		return ts, nil
	}
	return g.Rooms.GetTilesetByName(name)
}

func findPalette(g *datamanager.Game, name string) (*codec.Palette, error) {
	if p, err := g.Graphics.GetPalette(name); err == nil {
		return p, nil
	}
	return g.Rooms.GetPaletteByName(name)
}

func previewCmd() *cobra.Command {
	var (
		romPath, project string
		tileset, tilemap string
		palette, format  string
		outPath          string
		scale, columns   int
		remember         bool
	)
	cmd := &cobra.Command{
		Use:   "preview",
		Short: "Render a tileset, or a tilemap drawn with it, to an image",
		Long: `preview draws a tileset sheet, or a tilemap when --tilemap is given.
Without --palette the tileset's default palette from the preferences file
is used, and pixel values are shown as grey levels when there is none.`,
		RunE: func(cmd *cobra.Command, args []string) error {
			if (romPath == "") == (project == "") {
				return fmt.Errorf("exactly one of --rom and --project is required")
			}
			if format == "" {
				format = strings.TrimPrefix(filepath.Ext(outPath), ".")
			}
			f, err := preview.ParseFormat(format)
			if err != nil {
				return err
			}

			prefs := config.NewPreferences()
			if cfg.Preferences != "" {
				if prefs, err = config.LoadPreferences(cfg.Preferences); err != nil {
					return err
				}
			}
			if palette == "" {
				palette = prefs.DefaultPalette(tileset)
			}

			g, err := loadGame(romPath, project)
			if err != nil {
				return err
			}
			ts, err := findTileset(g, tileset)
			if err != nil {
				return err
			}
			var pal *codec.Palette
			if palette != "" {
				if pal, err = findPalette(g, palette); err != nil {
					return err
				}
			}

			var img image.Image
			if tilemap != "" {
				m, err := g.Graphics.GetTilemap(tilemap)
				if err != nil {
					return err
				}
				img, err = preview.Tilemap(m, ts, pal)
				if err != nil {
					return err
				}
			} else {
				if img, err = preview.Sheet(ts, pal, columns); err != nil {
					return err
				}
			}
			img = preview.Scale(img, scale)

			out, err := os.Create(outPath)
			if err != nil {
				return err
			}
			if err := preview.Encode(out, img, f); err != nil {
				out.Close()
				return err
			}
			if err := out.Close(); err != nil {
				return err
			}
			logger.Info("🖼️ preview written", "out", outPath, "tileset", tileset, "palette", palette)

			if remember && palette != "" && cfg.Preferences != "" {
				prefs.SetDefaultPalette(tileset, palette)
				return prefs.Save(cfg.Preferences)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&romPath, "rom", "", "ROM image")
	cmd.Flags().StringVarP(&project, "project", "p", "", "Project directory")
	cmd.Flags().StringVar(&tileset, "tileset", "", "Tileset name, e.g. MenuFont or Tileset03 (required)")
	cmd.Flags().StringVar(&tilemap, "tilemap", "", "Draw this tilemap instead of the tile sheet")
	cmd.Flags().StringVar(&palette, "palette", "", "Palette name, e.g. HudPalette or RoomPalette07")
	cmd.Flags().StringVar(&format, "format", "", "png or bmp (defaults to the output extension)")
	cmd.Flags().StringVarP(&outPath, "out", "o", "", "Output image (required)")
	cmd.Flags().IntVar(&scale, "scale", 4, "Integer upscaling factor")
	cmd.Flags().IntVar(&columns, "columns", 16, "Tiles per row of the sheet")
	cmd.Flags().BoolVar(&remember, "remember", false, "Store --palette as the tileset's default in the preferences file")
	for _, name := range []string{"tileset", "out"} {
		if err := cmd.MarkFlagRequired(name); err != nil {
			panic(err)
		}
	}
	return cmd
}
