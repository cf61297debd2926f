package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"github.com/provide-io/landforge/go/landforge/pkg/engine/operations/backup"
)

func backupsCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "backups",
		Short: "List or restore ROM backups and project archives",
	}

	list := &cobra.Command{
		Use:   "list",
		Short: "List backups, oldest first",
		RunE: func(cmd *cobra.Command, args []string) error {
			paths, err := backup.List(cfg.Backup.Dir)
			if err != nil {
				return err
			}
			if len(paths) == 0 {
				fmt.Printf("No backups in %s\n", cfg.Backup.Dir)
				return nil
			}
			for _, p := range paths {
				info, err := os.Stat(p)
				if err != nil {
					return err
				}
				fmt.Printf("%-60s %10d\n", filepath.Base(p), info.Size())
			}
			return nil
		},
	}

	restore := &cobra.Command{
		Use:   "restore BACKUP OUT",
		Short: "Restore a ROM backup to OUT",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			path := args[0]
			if !filepath.IsAbs(path) && filepath.Dir(path) == "." {
				path = filepath.Join(cfg.Backup.Dir, path)
			}
			data, err := backup.Restore(path)
			if err != nil {
				return err
			}
			if err := os.WriteFile(args[1], data, cfg.Mode()); err != nil {
				return err
			}
			fmt.Printf("Restored %s (%d bytes)\n", args[1], len(data))
			return nil
		},
	}

	unpack := &cobra.Command{
		Use:   "unpack ARCHIVE DIR",
		Short: "Unpack a project archive written by extract --archive",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := backup.RestoreDir(args[0], args[1]); err != nil {
				return err
			}
			fmt.Printf("Unpacked %s to %s\n", args[0], args[1])
			return nil
		},
	}

	cmd.AddCommand(list, restore, unpack)
	return cmd
}
